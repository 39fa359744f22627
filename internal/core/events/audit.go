package events

import (
	"context"
	"log/slog"
)

// RegisterAuditHandlers writes one structured audit line per domain event.
func RegisterAuditHandlers(bus *EventBus, logger *slog.Logger) {
	audit := logger.With("component", "audit")

	record := func(_ context.Context, event Event) error {
		audit.Info("domain event",
			"event_type", event.EventType(),
			"event_id", event.EventID(),
			"occurred_at", event.OccurredAt(),
			"payload", event.Payload())
		return nil
	}

	bus.Subscribe(EventTypeEmployeeRegistered, record)
	bus.Subscribe(EventTypeFeedbackSubmitted, record)
}
