package finance

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Attachment is a proof of payment uploaded with a settlement
type Attachment struct {
	FileName    string
	ContentType string
	Data        []byte
}

// AttachmentStore keeps settlement attachments in object storage
type AttachmentStore interface {
	Put(ctx context.Context, key string, data []byte, contentType string) error
	Delete(ctx context.Context, key string) error
}

// MetricsRecorder receives ledger business metrics. A nil recorder is valid.
type MetricsRecorder interface {
	RecordTitlePosted(ctx context.Context, tenantID uuid.UUID, direction string)
	RecordDuplicatePosting(ctx context.Context, tenantID uuid.UUID, direction string)
	RecordJournalPosted(ctx context.Context, tenantID uuid.UUID, origin string)
	RecordSettlement(ctx context.Context, tenantID uuid.UUID, direction string, amount decimal.Decimal)
	RecordFailure(ctx context.Context, tenantID uuid.UUID, operation, code string)
}

// MoneyFormatter renders amounts for response summaries
type MoneyFormatter interface {
	Format(amount decimal.Decimal) string
}
