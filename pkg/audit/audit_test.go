package audit

import (
	"context"
	"fmt"
	"testing"
	"time"

	"modelvault/pkg/store"
	"modelvault/pkg/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestAppendPreservesOrder(t *testing.T) {
	log := NewLog(store.NewMemoryStore(), zap.NewNop())
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		err := log.Append(ctx, types.AuditEvent{
			Type:       types.EventUpload,
			ArtifactID: "m1",
			Actor:      "alice",
			Timestamp:  time.Now(),
			Details:    fmt.Sprintf("event %d", i),
		})
		require.NoError(t, err)
	}

	events, err := log.Events(ctx)
	require.NoError(t, err)
	require.Len(t, events, 5)
	for i, event := range events {
		assert.Equal(t, fmt.Sprintf("event %d", i), event.Details)
		assert.NotEmpty(t, event.EventID)
	}
}

func TestEventsOnEmptyLedger(t *testing.T) {
	log := NewLog(store.NewMemoryStore(), zap.NewNop())

	events, err := log.Events(context.Background())
	require.NoError(t, err)
	assert.Empty(t, events)
}

func TestLedgerSurvivesRestart(t *testing.T) {
	backing := store.NewMemoryStore()
	ctx := context.Background()

	first := NewLog(backing, zap.NewNop())
	require.NoError(t, first.Append(ctx, types.AuditEvent{
		Type: types.EventActivate, ArtifactID: "m1", Actor: "alice", Timestamp: time.Now(),
	}))

	// A fresh Log over the same store sees the same ledger.
	second := NewLog(backing, zap.NewNop())
	events, err := second.Events(ctx)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, types.EventActivate, events[0].Type)
}

func TestCallerCannotMutateLedger(t *testing.T) {
	log := NewLog(store.NewMemoryStore(), zap.NewNop())
	ctx := context.Background()

	require.NoError(t, log.Append(ctx, types.AuditEvent{
		Type: types.EventUpload, ArtifactID: "m1", Actor: "alice", Timestamp: time.Now(),
	}))

	events, err := log.Events(ctx)
	require.NoError(t, err)
	events[0].Actor = "mallory"

	again, err := log.Events(ctx)
	require.NoError(t, err)
	assert.Equal(t, "alice", again[0].Actor)
}
