package consumer

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/tshegofatsoseane/footprint-logger-fullstack/internal/events"
)

// TotalsStore applies emission deltas to the per-user running totals. The
// eventID keys deduplication: a delta already applied under the same ID is
// a no-op.
type TotalsStore interface {
	ApplyEmissionDelta(ctx context.Context, eventID, userID string, deltaKg float64, at time.Time) error
}

// TotalsHandler projects activity events into the user_emission_totals
// table, keeping community statistics readable without scanning every
// activity record on each dashboard request. Kafka delivers at least once
// (offsets commit after handling), so every delta is applied under its
// outbox event ID and redeliveries do not double-count.
type TotalsHandler struct {
	store TotalsStore
}

// NewTotalsHandler constructs a TotalsHandler.
func NewTotalsHandler(store TotalsStore) *TotalsHandler {
	return &TotalsHandler{store: store}
}

// Handle applies one decoded event to the projection. Unknown event types
// are ignored so new producers never wedge the consumer.
func (h *TotalsHandler) Handle(ctx context.Context, msg Message) error {
	switch msg.EventType {
	case events.TypeActivityLogged:
		var payload events.ActivityLogged
		if err := json.Unmarshal(msg.Payload, &payload); err != nil {
			return fmt.Errorf("decoding %s: %w", msg.EventType, err)
		}
		return h.store.ApplyEmissionDelta(ctx, msg.EventID, payload.UserID, payload.CO2Kg, msg.Timestamp)

	case events.TypeActivityDeleted:
		var payload events.ActivityDeleted
		if err := json.Unmarshal(msg.Payload, &payload); err != nil {
			return fmt.Errorf("decoding %s: %w", msg.EventType, err)
		}
		return h.store.ApplyEmissionDelta(ctx, msg.EventID, payload.UserID, -payload.CO2Kg, msg.Timestamp)
	}
	return nil
}
