package finance

import (
	"context"
	"errors"
	"time"

	"github.com/erp/ledger/internal/domain/finance"
	"github.com/erp/ledger/internal/domain/shared"
	"github.com/erp/ledger/internal/infrastructure/telemetry"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// LedgerTitleService turns commercial orders into receivable and payable titles
type LedgerTitleService struct {
	scope   TransactionScope
	guard   *IdempotencyGuard
	cfg     PostingConfig
	metrics MetricsRecorder
	logger  *zap.Logger
	now     func() time.Time
}

// NewLedgerTitleService creates a new LedgerTitleService
func NewLedgerTitleService(scope TransactionScope, cfg PostingConfig, logger *zap.Logger) *LedgerTitleService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LedgerTitleService{
		scope:  scope,
		guard:  NewIdempotencyGuard(),
		cfg:    cfg,
		logger: logger,
		now:    time.Now,
	}
}

// SetMetrics sets the business metrics recorder
func (s *LedgerTitleService) SetMetrics(m MetricsRecorder) {
	s.metrics = m
}

// PostOrderToLedger creates the title for an order together with its lines
// and the ledger.title.created outbox event, all in one transaction. Posting
// the same order again returns the existing title with Created=false.
func (s *LedgerTitleService) PostOrderToLedger(ctx context.Context, tenantID uuid.UUID, direction finance.TitleDirection, orderID uuid.UUID) (*PostOrderResult, error) {
	if tenantID == uuid.Nil {
		return nil, shared.NewValidationError("tenant is required")
	}
	if !direction.IsValid() {
		return nil, shared.NewValidationError("invalid title direction %q", direction)
	}
	if orderID == uuid.Nil {
		return nil, shared.NewValidationError("order id is required")
	}

	ctx, cancel := withOperationTimeout(ctx, s.cfg.OperationTimeout)
	defer cancel()

	ctx, span := telemetry.StartServiceSpan(ctx, "ledger_title", "post_order")
	defer span.End()
	telemetry.SetAttributes(span,
		telemetry.SpanAttrTenantID, tenantID.String(),
		telemetry.SpanAttrOrderID, orderID.String(),
		telemetry.SpanAttrDirection, direction.String(),
	)

	var result *PostOrderResult
	var opErr error
	telemetry.WithProfilingLabels(ctx, telemetry.LedgerOperationLabels(telemetry.OperationPostOrder, direction.String()), func(c context.Context) {
		result, opErr = s.postOrder(c, tenantID, direction, orderID)
	})
	if opErr != nil {
		telemetry.RecordError(span, opErr)
		s.recordFailure(ctx, tenantID, telemetry.OperationPostOrder, opErr)
		return nil, opErr
	}

	if result.Created {
		telemetry.SetAttribute(span, telemetry.SpanAttrTitleID, result.TitleID.String())
		if s.metrics != nil {
			s.metrics.RecordTitlePosted(ctx, tenantID, direction.String())
		}
		s.logger.Info("Order posted to ledger",
			zap.String("tenant_id", tenantID.String()),
			zap.String("order_id", orderID.String()),
			zap.String("title_id", result.TitleID.String()),
			zap.String("document_number", result.DocumentNumber),
			zap.String("direction", direction.String()),
		)
	} else {
		if s.metrics != nil {
			s.metrics.RecordDuplicatePosting(ctx, tenantID, direction.String())
		}
		s.logger.Info("Order already posted, returning existing title",
			zap.String("tenant_id", tenantID.String()),
			zap.String("order_id", orderID.String()),
			zap.String("title_id", result.TitleID.String()),
		)
	}
	return result, nil
}

func (s *LedgerTitleService) postOrder(ctx context.Context, tenantID uuid.UUID, direction finance.TitleDirection, orderID uuid.UUID) (*PostOrderResult, error) {
	var result *PostOrderResult
	var documentNumber string

	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		order, err := repos.Orders().FindByIDForTenant(ctx, tenantID, OrderDirectionFor(direction), orderID)
		if err != nil {
			return err
		}
		if !order.HasCounterparty() {
			return shared.NewValidationError("order %s has no customer or supplier", orderID)
		}

		documentNumber = s.cfg.DocumentNumberFor(order, direction)
		existing, err := s.guard.EnsureNotDuplicate(ctx, repos.Titles(), tenantID, direction, documentNumber)
		if err != nil {
			return err
		}
		if existing != nil {
			result = &PostOrderResult{TitleID: *existing, DocumentNumber: documentNumber, Created: false}
			return nil
		}

		params, lines := buildTitle(order, direction, documentNumber, s.now())
		title, err := finance.NewLedgerTitle(params, lines)
		if err != nil {
			return err
		}
		if err := repos.Titles().Create(ctx, title); err != nil {
			return err
		}
		if err := repos.Events().Write(ctx, title.GetDomainEvents()...); err != nil {
			return err
		}
		title.ClearDomainEvents()

		result = &PostOrderResult{TitleID: title.ID, DocumentNumber: documentNumber, Created: true}
		return nil
	})

	if errors.Is(err, shared.ErrAlreadyExists) && documentNumber != "" {
		// A concurrent request inserted the same document number first
		return s.findExisting(ctx, tenantID, direction, documentNumber)
	}
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (s *LedgerTitleService) findExisting(ctx context.Context, tenantID uuid.UUID, direction finance.TitleDirection, documentNumber string) (*PostOrderResult, error) {
	var result *PostOrderResult
	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		existing, err := s.guard.EnsureNotDuplicate(ctx, repos.Titles(), tenantID, direction, documentNumber)
		if err != nil {
			return err
		}
		if existing == nil {
			return shared.NewDomainError(shared.CodeConflict, "title "+documentNumber+" conflicted but could not be re-read")
		}
		result = &PostOrderResult{TitleID: *existing, DocumentNumber: documentNumber, Created: false}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// GetTitle returns a title with its lines and settlement history
func (s *LedgerTitleService) GetTitle(ctx context.Context, tenantID, titleID uuid.UUID) (*TitleView, error) {
	if tenantID == uuid.Nil {
		return nil, shared.NewValidationError("tenant is required")
	}

	var view TitleView
	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		title, err := repos.Titles().FindByIDForTenant(ctx, tenantID, titleID)
		if err != nil {
			return err
		}
		settlements, err := repos.Settlements().FindLinesByTitle(ctx, tenantID, titleID)
		if err != nil {
			return err
		}
		view = ToTitleView(title, settlements)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &view, nil
}

func (s *LedgerTitleService) recordFailure(ctx context.Context, tenantID uuid.UUID, operation string, err error) {
	if s.metrics == nil {
		return
	}
	s.metrics.RecordFailure(ctx, tenantID, operation, errorCode(err))
}

// errorCode extracts the domain error code for metrics labels
func errorCode(err error) string {
	if errors.Is(err, context.DeadlineExceeded) {
		return "TIMEOUT"
	}
	var de *shared.DomainError
	if errors.As(err, &de) {
		return de.Code
	}
	return shared.CodeInfrastructure
}

// withOperationTimeout bounds ctx by d; a non-positive d leaves ctx unbounded
func withOperationTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, d)
}
