package handler

import (
	"context"

	financeapp "github.com/erp/ledger/internal/application/finance"
	"github.com/erp/ledger/internal/domain/finance"
	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

// MockTitlePoster is a mock implementation of TitlePoster
type MockTitlePoster struct {
	mock.Mock
}

func (m *MockTitlePoster) PostOrderToLedger(ctx context.Context, tenantID uuid.UUID, direction finance.TitleDirection, orderID uuid.UUID) (*financeapp.PostOrderResult, error) {
	args := m.Called(ctx, tenantID, direction, orderID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*financeapp.PostOrderResult), args.Error(1)
}

func (m *MockTitlePoster) GetTitle(ctx context.Context, tenantID, titleID uuid.UUID) (*financeapp.TitleView, error) {
	args := m.Called(ctx, tenantID, titleID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*financeapp.TitleView), args.Error(1)
}

// MockJournalPoster is a mock implementation of financeapp.JournalPoster
type MockJournalPoster struct {
	mock.Mock
}

func (m *MockJournalPoster) PostJournalForTitle(ctx context.Context, tenantID, titleID uuid.UUID) (*financeapp.PostJournalResult, error) {
	args := m.Called(ctx, tenantID, titleID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*financeapp.PostJournalResult), args.Error(1)
}

func (m *MockJournalPoster) PostJournalForSettlement(ctx context.Context, tenantID, settlementID uuid.UUID) (*financeapp.PostJournalResult, error) {
	args := m.Called(ctx, tenantID, settlementID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*financeapp.PostJournalResult), args.Error(1)
}

// MockDiagnoser is a mock implementation of Diagnoser
type MockDiagnoser struct {
	mock.Mock
}

func (m *MockDiagnoser) Diagnose(ctx context.Context, tenantID uuid.UUID, direction finance.TitleDirection, orderID uuid.UUID) (*financeapp.Diagnosis, error) {
	args := m.Called(ctx, tenantID, direction, orderID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*financeapp.Diagnosis), args.Error(1)
}

// MockSettler is a mock implementation of Settler
type MockSettler struct {
	mock.Mock
}

func (m *MockSettler) SettleTitle(ctx context.Context, in financeapp.SettleTitleInput) (*financeapp.SettlementResult, error) {
	args := m.Called(ctx, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*financeapp.SettlementResult), args.Error(1)
}

func (m *MockSettler) CreateFreeSettlementHeader(ctx context.Context, in financeapp.FreeSettlementInput) (*financeapp.FreeSettlementResult, error) {
	args := m.Called(ctx, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*financeapp.FreeSettlementResult), args.Error(1)
}

// MockPinger is a mock implementation of Pinger
type MockPinger struct {
	mock.Mock
}

func (m *MockPinger) PingContext(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}
