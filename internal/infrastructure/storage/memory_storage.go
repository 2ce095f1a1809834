package storage

import (
	"context"
	"errors"
	"sync"

	appfinance "github.com/erp/ledger/internal/application/finance"
)

var _ appfinance.AttachmentStore = (*MemoryAttachmentStore)(nil)

// MemoryAttachmentStore keeps attachments in process memory. It is used when
// object storage is disabled and in tests.
type MemoryAttachmentStore struct {
	mu      sync.RWMutex
	objects map[string][]byte
}

// NewMemoryAttachmentStore creates an empty store
func NewMemoryAttachmentStore() *MemoryAttachmentStore {
	return &MemoryAttachmentStore{objects: make(map[string][]byte)}
}

// Put stores a copy of data
func (s *MemoryAttachmentStore) Put(_ context.Context, key string, data []byte, _ string) error {
	if key == "" {
		return errors.New("storage key is required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.objects[key] = append([]byte(nil), data...)
	return nil
}

// Delete removes key; missing keys are not an error
func (s *MemoryAttachmentStore) Delete(_ context.Context, key string) error {
	if key == "" {
		return errors.New("storage key is required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.objects, key)
	return nil
}

// Get returns the stored bytes
func (s *MemoryAttachmentStore) Get(key string) ([]byte, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	b, ok := s.objects[key]
	return b, ok
}

// Len returns the number of stored objects
func (s *MemoryAttachmentStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.objects)
}
