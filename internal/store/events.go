package store

import (
	"context"
	"fmt"

	"github.com/noah-isme/backend-pos/internal/events"
)

// InsertEvent persists a domain event.
func (s *Store) InsertEvent(ctx context.Context, ev events.Event) (events.Event, error) {
	err := s.DB.QueryRow(ctx, `
		INSERT INTO domain_events (id, topic, aggregate_id, payload)
		VALUES ($1, $2, $3, $4)
		RETURNING occurred_at`,
		ev.ID, ev.Topic, ev.AggregateID, ev.Payload).
		Scan(&ev.OccurredAt)
	if err != nil {
		return events.Event{}, fmt.Errorf("insert event: %w", err)
	}
	return ev, nil
}
