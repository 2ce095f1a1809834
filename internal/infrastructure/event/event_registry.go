package event

import "github.com/erp/ledger/internal/domain/finance"

// RegisterAllEvents registers the ledger integration events with the serializer
func RegisterAllEvents(serializer *EventSerializer) {
	serializer.Register(finance.EventTypeTitleCreated, &finance.TitleCreatedEvent{})
	serializer.Register(finance.EventTypeSettlementRecorded, &finance.SettlementRecordedEvent{})
}
