// Package events announces finished runs on a Redis stream.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"path"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	infraevents "github.com/Mohammedmarzuk17/EduShield/infrastructure/events"
	"github.com/Mohammedmarzuk17/EduShield/infrastructure/logger"
	"github.com/Mohammedmarzuk17/EduShield/internal/domain"
	"github.com/Mohammedmarzuk17/EduShield/internal/output"
)

// streamCap keeps roughly this many entries; consumers only need recent runs.
const streamCap = 1000

// Publisher appends run events to infraevents.StreamName. A nil Publisher
// is valid and drops everything, which is how events are switched off.
type Publisher struct {
	client *redis.Client
	log    logger.Logger
}

// NewPublisher returns nil for a nil client.
func NewPublisher(client *redis.Client, log logger.Logger) *Publisher {
	if client == nil {
		return nil
	}
	return &Publisher{client: client, log: log}
}

// Publish stamps missing IDs and times, then XADDs the event as JSON under
// the "event" field with its type alongside for cheap filtering.
func (p *Publisher) Publish(ctx context.Context, event infraevents.BlocklistEvent) error {
	if p == nil {
		return nil
	}

	if event.EventID == uuid.Nil {
		event.EventID = uuid.New()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("encode %s event: %w", event.EventType, err)
	}

	log := p.log.With(
		logger.String("event_type", string(event.EventType)),
		logger.String("run_id", event.RunID.String()),
	)

	id, err := p.client.XAdd(ctx, &redis.XAddArgs{
		Stream: infraevents.StreamName,
		MaxLen: streamCap,
		Approx: true,
		Values: []any{"event_type", string(event.EventType), "event", string(body)},
	}).Result()
	if err != nil {
		log.Error("Event not published", logger.Error(err))
		return fmt.Errorf("xadd %s: %w", infraevents.StreamName, err)
	}

	log.Info("Event published", logger.String("stream_id", id))
	return nil
}

// NewPublishedEvent describes a run whose files were written.
func NewPublishedEvent(runID uuid.UUID, snapshot domain.Snapshot, artifacts []domain.Artifact) infraevents.BlocklistEvent {
	counts := make(map[string]int, len(artifacts))
	for _, a := range artifacts {
		counts[a.Source.String()] = len(a.Domains)
	}

	return infraevents.BlocklistEvent{
		EventType: infraevents.BlocklistPublished,
		RunID:     runID,
		Payload: infraevents.BlocklistPublishedPayload{
			GeneratedAt: snapshot.GeneratedAt,
			DomainCount: len(snapshot.Domains),
			Snapshot:    output.SnapshotFile,
			Manifest:    path.Join(output.ArtifactDir, output.ManifestFile),
			Artifacts:   counts,
		},
	}
}
