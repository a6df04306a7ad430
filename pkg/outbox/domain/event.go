package domain

import (
	"encoding/json"
	"time"
)

// OutboxEvent is one row of the transactional outbox. It is written in the
// same transaction as the state change it describes and relayed to Kafka by
// the worker; the row id doubles as the consumer-side deduplication key.
type OutboxEvent struct {
	ID            int64           `db:"id"`
	AggregateType string          `db:"aggregate_type"`
	AggregateID   string          `db:"aggregate_id"`
	EventType     string          `db:"event_type"`
	Payload       json.RawMessage `db:"payload"`
	Headers       json.RawMessage `db:"headers"`
	CreatedAt     time.Time       `db:"created_at"`
	PublishedAt   *time.Time      `db:"published_at"`
	Attempts      int64           `db:"attempts"`
	LastError     *string         `db:"last_error"`
	Topic         string          `db:"topic"`
}
