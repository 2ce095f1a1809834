package finance

import (
	"context"
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/erp/ledger/internal/domain/finance"
	"github.com/erp/ledger/internal/domain/shared"
	"github.com/erp/ledger/internal/infrastructure/telemetry"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const summaryDateLayout = "02/01/2006"

// SettlementConfig holds settlement settings
type SettlementConfig struct {
	AttachmentKeyPrefix string
	OperationTimeout    time.Duration
}

// SettlementService records payments against titles
type SettlementService struct {
	scope       TransactionScope
	attachments AttachmentStore
	formatter   MoneyFormatter
	cfg         SettlementConfig
	metrics     MetricsRecorder
	logger      *zap.Logger
	now         func() time.Time
}

// NewSettlementService creates a new SettlementService. attachments may be
// nil, in which case settlements carrying an attachment are rejected.
func NewSettlementService(
	scope TransactionScope,
	attachments AttachmentStore,
	formatter MoneyFormatter,
	cfg SettlementConfig,
	logger *zap.Logger,
) *SettlementService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SettlementService{
		scope:       scope,
		attachments: attachments,
		formatter:   formatter,
		cfg:         cfg,
		logger:      logger,
		now:         time.Now,
	}
}

// SetMetrics sets the business metrics recorder
func (s *SettlementService) SetMetrics(m MetricsRecorder) {
	s.metrics = m
}

// SettleTitle applies a payment to a title. The title row is locked for the
// duration of the transaction so concurrent settlements serialize and the
// sum of paid values never exceeds the net amount.
func (s *SettlementService) SettleTitle(ctx context.Context, in SettleTitleInput) (*SettlementResult, error) {
	if in.TenantID == uuid.Nil {
		return nil, shared.NewValidationError("tenant is required")
	}
	if in.TitleID == uuid.Nil {
		return nil, shared.NewValidationError("title id is required")
	}
	if in.Amount != nil && !in.Amount.IsPositive() {
		return nil, shared.NewValidationError("settlement amount must be positive")
	}

	ctx, cancel := withOperationTimeout(ctx, s.cfg.OperationTimeout)
	defer cancel()

	ctx, span := telemetry.StartServiceSpan(ctx, "settlement", "settle_title")
	defer span.End()
	telemetry.SetAttributes(span,
		telemetry.SpanAttrTenantID, in.TenantID.String(),
		telemetry.SpanAttrTitleID, in.TitleID.String(),
	)

	attachmentKey, err := s.uploadAttachment(ctx, in)
	if err != nil {
		telemetry.RecordError(span, err)
		s.recordFailure(ctx, in.TenantID, telemetry.OperationSettleTitle, err)
		return nil, err
	}

	var result *SettlementResult
	var direction finance.TitleDirection
	telemetry.WithProfilingLabels(ctx, telemetry.LedgerOperationLabels(telemetry.OperationSettleTitle, ""), func(c context.Context) {
		result, direction, err = s.settle(c, in, attachmentKey)
	})
	if err != nil {
		if attachmentKey != nil {
			s.deleteAttachment(ctx, *attachmentKey)
		}
		telemetry.RecordError(span, err)
		s.recordFailure(ctx, in.TenantID, telemetry.OperationSettleTitle, err)
		return nil, err
	}

	telemetry.SetAttributes(span,
		telemetry.SpanAttrSettlementID, result.ID.String(),
		telemetry.SpanAttrAmount, result.PaidValue.String(),
		telemetry.SpanAttrStatus, string(result.StatusAfter),
	)
	if s.metrics != nil {
		s.metrics.RecordSettlement(ctx, in.TenantID, direction.String(), result.PaidValue)
	}
	s.logger.Info("Title settled",
		zap.String("tenant_id", in.TenantID.String()),
		zap.String("title_id", in.TitleID.String()),
		zap.String("settlement_id", result.ID.String()),
		zap.String("paid_value", result.PaidValue.String()),
		zap.String("status_before", string(result.StatusBefore)),
		zap.String("status_after", string(result.StatusAfter)),
	)
	return result, nil
}

func (s *SettlementService) settle(ctx context.Context, in SettleTitleInput, attachmentKey *string) (*SettlementResult, finance.TitleDirection, error) {
	var result *SettlementResult
	var direction finance.TitleDirection

	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		title, err := repos.Titles().FindByIDForUpdate(ctx, in.TenantID, in.TitleID)
		if err != nil {
			return err
		}
		direction = title.Direction

		settled, err := repos.Settlements().SumPaidForTitle(ctx, in.TenantID, title.ID)
		if err != nil {
			return err
		}
		outcome, err := title.ApplySettlement(settled, in.Amount)
		if err != nil {
			return err
		}

		date := s.now()
		if in.SettlementDate != nil && !in.SettlementDate.IsZero() {
			date = *in.SettlementDate
		}
		header, err := finance.NewTitleSettlement(title, outcome, finance.TitleSettlementParams{
			FinancialAccountID: in.FinancialAccountID,
			PaymentMethodID:    in.PaymentMethodID,
			Description:        in.Description,
			SettlementDate:     date,
			AttachmentKey:      attachmentKey,
		})
		if err != nil {
			return err
		}
		if err := repos.Settlements().Create(ctx, header); err != nil {
			return err
		}
		if err := repos.Titles().SaveWithLock(ctx, title); err != nil {
			return err
		}
		if err := repos.Events().Write(ctx, header.GetDomainEvents()...); err != nil {
			return err
		}
		header.ClearDomainEvents()

		accountName, err := s.accountName(ctx, repos.Lookups(), in.TenantID, in.FinancialAccountID)
		if err != nil {
			return err
		}
		methodName, err := s.methodName(ctx, repos.Lookups(), in.TenantID, in.PaymentMethodID)
		if err != nil {
			return err
		}
		counterparty := strings.TrimSpace(title.CounterpartyName)
		if counterparty == "" {
			counterparty = "-"
		}

		result = &SettlementResult{
			ID:                   header.ID,
			TitleID:              title.ID,
			PaymentNumber:        header.PaymentNumber,
			PaidValue:            outcome.Amount,
			TotalValue:           title.NetAmount,
			BalanceAfter:         outcome.BalanceAfter,
			SettlementDate:       header.SettlementDate,
			PaymentMethodName:    methodName,
			FinancialAccountName: accountName,
			CounterpartyName:     counterparty,
			StatusBefore:         outcome.StatusBefore,
			StatusAfter:          outcome.StatusAfter,
			AttachmentKey:        attachmentKey,
		}
		result.Summary = SettlementSummary{
			DocumentNumber:   title.DocumentNumber,
			FormattedValue:   s.format(outcome.Amount),
			Date:             header.SettlementDate.Format(summaryDateLayout),
			PaymentMethod:    methodName,
			FinancialAccount: accountName,
			Counterparty:     counterparty,
			Status:           string(outcome.StatusAfter),
		}
		return nil
	})
	if err != nil {
		return nil, "", err
	}
	return result, direction, nil
}

// CreateFreeSettlementHeader records a payment that is not linked to any
// title. No title is changed.
func (s *SettlementService) CreateFreeSettlementHeader(ctx context.Context, in FreeSettlementInput) (*FreeSettlementResult, error) {
	ctx, cancel := withOperationTimeout(ctx, s.cfg.OperationTimeout)
	defer cancel()

	ctx, span := telemetry.StartServiceSpan(ctx, "settlement", "create_free_header")
	defer span.End()
	telemetry.SetAttributes(span,
		telemetry.SpanAttrTenantID, in.TenantID.String(),
		telemetry.SpanAttrDirection, in.Direction.String(),
	)

	header, err := finance.NewFreeSettlementHeader(finance.FreeSettlementParams{
		TenantID:           in.TenantID,
		Direction:          in.Direction,
		Description:        in.Description,
		Amount:             in.Amount,
		LaunchDate:         in.LaunchDate,
		FinancialAccountID: in.FinancialAccountID,
		PaymentMethodID:    in.PaymentMethodID,
		Status:             in.Status,
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	telemetry.WithProfilingLabels(ctx, telemetry.LedgerOperationLabels(telemetry.OperationFreeSettlement, in.Direction.String()), func(c context.Context) {
		err = s.scope.Execute(c, func(repos TransactionalRepositories) error {
			if err := repos.Settlements().Create(c, header); err != nil {
				return err
			}
			if err := repos.Events().Write(c, header.GetDomainEvents()...); err != nil {
				return err
			}
			header.ClearDomainEvents()
			return nil
		})
	})
	if err != nil {
		telemetry.RecordError(span, err)
		s.recordFailure(ctx, in.TenantID, telemetry.OperationFreeSettlement, err)
		return nil, err
	}

	if s.metrics != nil {
		s.metrics.RecordSettlement(ctx, in.TenantID, in.Direction.String(), header.TotalAmount)
	}
	s.logger.Info("Free settlement header created",
		zap.String("tenant_id", in.TenantID.String()),
		zap.String("settlement_id", header.ID.String()),
		zap.String("payment_number", header.PaymentNumber),
	)
	return &FreeSettlementResult{ID: header.ID, PaymentNumber: header.PaymentNumber}, nil
}

func (s *SettlementService) uploadAttachment(ctx context.Context, in SettleTitleInput) (*string, error) {
	if in.Attachment == nil || len(in.Attachment.Data) == 0 {
		return nil, nil
	}
	if s.attachments == nil {
		return nil, shared.NewValidationError("attachments are not enabled")
	}
	name := path.Base(strings.TrimSpace(in.Attachment.FileName))
	if name == "" || name == "." || name == "/" {
		name = "attachment"
	}
	key := fmt.Sprintf("%s%s/%s/%s", s.cfg.AttachmentKeyPrefix, in.TenantID, uuid.New(), name)
	if err := s.attachments.Put(ctx, key, in.Attachment.Data, in.Attachment.ContentType); err != nil {
		return nil, shared.NewInfrastructureError("upload attachment", err)
	}
	return &key, nil
}

// deleteAttachment removes an uploaded object after a failed transaction.
// Failures are logged only; the caller returns the original error.
func (s *SettlementService) deleteAttachment(ctx context.Context, key string) {
	// The request context may already be done
	delCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
	defer cancel()
	if err := s.attachments.Delete(delCtx, key); err != nil {
		s.logger.Error("Failed to delete orphaned settlement attachment",
			zap.String("key", key),
			zap.Error(err),
		)
		return
	}
	s.logger.Info("Deleted orphaned settlement attachment", zap.String("key", key))
}

func (s *SettlementService) accountName(ctx context.Context, lookups finance.LookupRepository, tenantID uuid.UUID, id *uuid.UUID) (string, error) {
	if id == nil {
		return "-", nil
	}
	name, err := lookups.FinancialAccountName(ctx, tenantID, *id)
	if err != nil {
		return "", err
	}
	if name == "" {
		return fmt.Sprintf("Conta #%s", id), nil
	}
	return name, nil
}

func (s *SettlementService) methodName(ctx context.Context, lookups finance.LookupRepository, tenantID uuid.UUID, id *uuid.UUID) (string, error) {
	if id == nil {
		return "-", nil
	}
	name, err := lookups.PaymentMethodName(ctx, tenantID, *id)
	if err != nil {
		return "", err
	}
	if name == "" {
		return fmt.Sprintf("Método #%s", id), nil
	}
	return name, nil
}

func (s *SettlementService) format(amount decimal.Decimal) string {
	if s.formatter == nil {
		return amount.StringFixed(2)
	}
	return s.formatter.Format(amount)
}

func (s *SettlementService) recordFailure(ctx context.Context, tenantID uuid.UUID, operation string, err error) {
	if s.metrics == nil {
		return
	}
	s.metrics.RecordFailure(ctx, tenantID, operation, errorCode(err))
}
