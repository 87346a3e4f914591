// Package events defines the run events the aggregator publishes to a
// Redis stream so downstream consumers can refresh their copies.
package events

import (
	"time"

	"github.com/google/uuid"
)

// StreamName is the Redis stream for blocklist events.
const StreamName = "blocklist-events"

// EventType represents the type of blocklist event.
type EventType string

const (
	// BlocklistPublished is emitted after a run wrote its artifacts.
	BlocklistPublished EventType = "BLOCKLIST_PUBLISHED"
)

// BlocklistEvent is the envelope for all blocklist events.
type BlocklistEvent struct {
	EventID   uuid.UUID `json:"event_id"`
	EventType EventType `json:"event_type"`
	RunID     uuid.UUID `json:"run_id"`
	Timestamp time.Time `json:"timestamp"`
	Payload   any       `json:"payload"`
}

// BlocklistPublishedPayload describes the artifacts written by a run.
type BlocklistPublishedPayload struct {
	GeneratedAt time.Time      `json:"generated_at"`
	DomainCount int            `json:"domain_count"`
	Snapshot    string         `json:"snapshot"`
	Manifest    string         `json:"manifest"`
	Artifacts   map[string]int `json:"artifacts"`
}
