package storage

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/erp/ledger/internal/infrastructure/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

type mockS3 struct {
	mock.Mock
}

func (m *mockS3) PutObject(ctx context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	body, _ := io.ReadAll(in.Body)
	args := m.Called(*in.Bucket, *in.Key, string(body), *in.ContentType)
	return &s3.PutObjectOutput{}, args.Error(0)
}

func (m *mockS3) DeleteObject(ctx context.Context, in *s3.DeleteObjectInput, _ ...func(*s3.Options)) (*s3.DeleteObjectOutput, error) {
	args := m.Called(*in.Bucket, *in.Key)
	return &s3.DeleteObjectOutput{}, args.Error(0)
}

func (m *mockS3) HeadObject(ctx context.Context, in *s3.HeadObjectInput, _ ...func(*s3.Options)) (*s3.HeadObjectOutput, error) {
	args := m.Called(*in.Key)
	return &s3.HeadObjectOutput{}, args.Error(0)
}

func (m *mockS3) HeadBucket(ctx context.Context, in *s3.HeadBucketInput, _ ...func(*s3.Options)) (*s3.HeadBucketOutput, error) {
	args := m.Called(*in.Bucket)
	return &s3.HeadBucketOutput{}, args.Error(0)
}

func (m *mockS3) CreateBucket(ctx context.Context, in *s3.CreateBucketInput, _ ...func(*s3.Options)) (*s3.CreateBucketOutput, error) {
	args := m.Called(*in.Bucket)
	return &s3.CreateBucketOutput{}, args.Error(0)
}

func validConfig() *config.StorageConfig {
	return &config.StorageConfig{
		Bucket:    "receipts",
		AccessKey: "test-key",
		SecretKey: "test-secret",
		Endpoint:  "localhost:9000",
	}
}

func newTestStore(t *testing.T, client *mockS3) *S3AttachmentStore {
	t.Helper()
	store, err := NewS3AttachmentStore(validConfig(), WithLogger(zaptest.NewLogger(t)), withClient(client))
	require.NoError(t, err)
	return store
}

func TestNewS3AttachmentStore_Validation(t *testing.T) {
	t.Run("nil config returns error", func(t *testing.T) {
		_, err := NewS3AttachmentStore(nil)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "configuration is required")
	})

	t.Run("missing bucket returns error", func(t *testing.T) {
		cfg := validConfig()
		cfg.Bucket = ""
		_, err := NewS3AttachmentStore(cfg)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "bucket is required")
	})

	t.Run("missing access key returns error", func(t *testing.T) {
		cfg := validConfig()
		cfg.AccessKey = ""
		_, err := NewS3AttachmentStore(cfg)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "access key is required")
	})

	t.Run("missing secret key returns error", func(t *testing.T) {
		cfg := validConfig()
		cfg.SecretKey = ""
		_, err := NewS3AttachmentStore(cfg)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "secret key is required")
	})

	t.Run("valid config creates store", func(t *testing.T) {
		store, err := NewS3AttachmentStore(validConfig())
		require.NoError(t, err)
		assert.Equal(t, "receipts", store.Bucket())
	})
}

func TestNormalizeEndpoint(t *testing.T) {
	ep, err := normalizeEndpoint("", false)
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:9000", ep)

	ep, err = normalizeEndpoint("minio.local:9000", true)
	require.NoError(t, err)
	assert.Equal(t, "https://minio.local:9000", ep)

	ep, err = normalizeEndpoint("http://minio.local", true)
	require.NoError(t, err)
	assert.Equal(t, "http://minio.local", ep)
}

func TestS3AttachmentStore_Put(t *testing.T) {
	ctx := context.Background()

	t.Run("uploads body with content type", func(t *testing.T) {
		client := new(mockS3)
		client.On("PutObject", "receipts", "settlements/a.pdf", "%PDF", "application/pdf").Return(nil)

		err := newTestStore(t, client).Put(ctx, "settlements/a.pdf", []byte("%PDF"), "application/pdf")
		require.NoError(t, err)
		client.AssertExpectations(t)
	})

	t.Run("defaults content type", func(t *testing.T) {
		client := new(mockS3)
		client.On("PutObject", "receipts", "k", "x", "application/octet-stream").Return(nil)

		require.NoError(t, newTestStore(t, client).Put(ctx, "k", []byte("x"), ""))
		client.AssertExpectations(t)
	})

	t.Run("wraps client error", func(t *testing.T) {
		client := new(mockS3)
		client.On("PutObject", "receipts", "k", "x", "text/plain").Return(errors.New("boom"))

		err := newTestStore(t, client).Put(ctx, "k", []byte("x"), "text/plain")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to upload object")
	})

	t.Run("empty key returns error", func(t *testing.T) {
		err := newTestStore(t, new(mockS3)).Put(ctx, "", nil, "")
		require.Error(t, err)
	})
}

func TestS3AttachmentStore_Delete(t *testing.T) {
	ctx := context.Background()
	client := new(mockS3)
	client.On("DeleteObject", "receipts", "k").Return(nil).Once()
	client.On("DeleteObject", "receipts", "bad").Return(errors.New("denied")).Once()

	store := newTestStore(t, client)
	require.NoError(t, store.Delete(ctx, "k"))

	err := store.Delete(ctx, "bad")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to delete object")

	require.Error(t, store.Delete(ctx, ""))
	client.AssertExpectations(t)
}

func TestS3AttachmentStore_Exists(t *testing.T) {
	ctx := context.Background()
	client := new(mockS3)
	client.On("HeadObject", "present").Return(nil)
	client.On("HeadObject", "missing").Return(&types.NotFound{})
	client.On("HeadObject", "broken").Return(errors.New("timeout"))

	store := newTestStore(t, client)

	ok, err := store.Exists(ctx, "present")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = store.Exists(ctx, "missing")
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = store.Exists(ctx, "broken")
	require.Error(t, err)
}

func TestS3AttachmentStore_EnsureBucket(t *testing.T) {
	ctx := context.Background()

	t.Run("existing bucket", func(t *testing.T) {
		client := new(mockS3)
		client.On("HeadBucket", "receipts").Return(nil)

		require.NoError(t, newTestStore(t, client).EnsureBucket(ctx))
		client.AssertNotCalled(t, "CreateBucket", mock.Anything)
	})

	t.Run("creates missing bucket", func(t *testing.T) {
		client := new(mockS3)
		client.On("HeadBucket", "receipts").Return(&types.NoSuchBucket{})
		client.On("CreateBucket", "receipts").Return(nil)

		require.NoError(t, newTestStore(t, client).EnsureBucket(ctx))
		client.AssertExpectations(t)
	})

	t.Run("tolerates creation race", func(t *testing.T) {
		client := new(mockS3)
		client.On("HeadBucket", "receipts").Return(&types.NotFound{})
		client.On("CreateBucket", "receipts").Return(&types.BucketAlreadyOwnedByYou{})

		require.NoError(t, newTestStore(t, client).EnsureBucket(ctx))
	})

	t.Run("other head errors fail", func(t *testing.T) {
		client := new(mockS3)
		client.On("HeadBucket", "receipts").Return(errors.New("forbidden"))

		require.Error(t, newTestStore(t, client).EnsureBucket(ctx))
	})
}

func TestMemoryAttachmentStore(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryAttachmentStore()

	require.NoError(t, s.Put(ctx, "a", []byte("data"), "text/plain"))
	b, ok := s.Get("a")
	require.True(t, ok)
	assert.Equal(t, "data", string(b))
	assert.Equal(t, 1, s.Len())

	require.NoError(t, s.Delete(ctx, "a"))
	require.NoError(t, s.Delete(ctx, "a"))
	assert.Equal(t, 0, s.Len())

	require.Error(t, s.Put(ctx, "", nil, ""))
}
