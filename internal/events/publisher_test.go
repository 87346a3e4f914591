package events_test

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	infraevents "github.com/Mohammedmarzuk17/EduShield/infrastructure/events"
	"github.com/Mohammedmarzuk17/EduShield/infrastructure/logger"
	"github.com/Mohammedmarzuk17/EduShield/internal/domain"
	"github.com/Mohammedmarzuk17/EduShield/internal/events"
)

func TestPublisher_NilIsNoOp(t *testing.T) {
	t.Parallel()

	p := events.NewPublisher(nil, logger.NewNop())
	assert.Nil(t, p)
	require.NoError(t, p.Publish(context.Background(), infraevents.BlocklistEvent{}))
}

func TestPublisher_PublishesToStream(t *testing.T) {
	t.Parallel()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	snapshot := domain.Snapshot{
		GeneratedAt: time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
		Domains:     []domain.DomainRecord{{Domain: "bad.com", Sources: []domain.SourceTag{"urlhaus"}}},
	}
	artifacts := []domain.Artifact{
		{Source: "urlhaus", File: "urlhaus.json", Domains: snapshot.Domains},
		{Source: "ugc", File: "ugc.json", Domains: []domain.DomainRecord{}},
	}
	runID := uuid.New()

	p := events.NewPublisher(client, logger.NewNop())
	require.NoError(t, p.Publish(context.Background(), events.NewPublishedEvent(runID, snapshot, artifacts)))

	msgs, err := client.XRange(context.Background(), infraevents.StreamName, "-", "+").Result()
	require.NoError(t, err)
	require.Len(t, msgs, 1)

	assert.Equal(t, "BLOCKLIST_PUBLISHED", msgs[0].Values["event_type"])
	raw, ok := msgs[0].Values["event"].(string)
	require.True(t, ok)

	var got struct {
		EventID   uuid.UUID `json:"event_id"`
		EventType string    `json:"event_type"`
		RunID     uuid.UUID `json:"run_id"`
		Payload   struct {
			DomainCount int            `json:"domain_count"`
			Snapshot    string         `json:"snapshot"`
			Manifest    string         `json:"manifest"`
			Artifacts   map[string]int `json:"artifacts"`
		} `json:"payload"`
	}
	require.NoError(t, json.Unmarshal([]byte(raw), &got))

	assert.NotEqual(t, uuid.Nil, got.EventID)
	assert.Equal(t, "BLOCKLIST_PUBLISHED", got.EventType)
	assert.Equal(t, runID, got.RunID)
	assert.Equal(t, 1, got.Payload.DomainCount)
	assert.Equal(t, "blocklist.json", got.Payload.Snapshot)
	assert.Equal(t, "blocklists/manifest.json", got.Payload.Manifest)
	assert.Equal(t, map[string]int{"urlhaus": 1, "ugc": 0}, got.Payload.Artifacts)
}

func TestPublisher_ReportsStreamErrors(t *testing.T) {
	t.Parallel()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr(), MaxRetries: -1})
	t.Cleanup(func() { _ = client.Close() })
	mr.Close()

	p := events.NewPublisher(client, logger.NewNop())
	err := p.Publish(context.Background(), infraevents.BlocklistEvent{EventType: infraevents.BlocklistPublished})
	require.Error(t, err)
}
