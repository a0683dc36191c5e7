// Package audit is the append-only event ledger. Every privileged mutation
// and every successful chunk read appends exactly one event, synchronously,
// before its operation reports success.
package audit

import (
	"context"
	"encoding/json"
	"fmt"

	"modelvault/pkg/store"
	"modelvault/pkg/types"

	"github.com/containerd/errdefs"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Log persists the ledger as a single blob under the audit singleton key.
// The durable store is the only copy; there is no independently updated
// in-process mirror to drift from it.
type Log struct {
	store  store.Store
	logger *zap.Logger
}

func NewLog(st store.Store, logger *zap.Logger) *Log {
	return &Log{store: st, logger: logger}
}

// Append records one event at the tail of the ledger, assigning its event
// id. The event is durable before Append returns.
func (l *Log) Append(ctx context.Context, event types.AuditEvent) error {
	events, err := l.load(ctx)
	if err != nil {
		return err
	}

	event.EventID = uuid.NewString()
	events = append(events, event)

	data, err := json.Marshal(events)
	if err != nil {
		return fmt.Errorf("failed to encode audit log: %w", err)
	}
	if err := l.store.Put(ctx, store.AuditLogKey, data); err != nil {
		return fmt.Errorf("failed to persist audit log: %w", err)
	}

	l.logger.Debug("Audit event appended",
		zap.String("event_type", string(event.Type)),
		zap.String("artifact_id", string(event.ArtifactID)),
		zap.String("actor", event.Actor))
	return nil
}

// Events returns the full ledger in append order.
func (l *Log) Events(ctx context.Context) ([]types.AuditEvent, error) {
	return l.load(ctx)
}

func (l *Log) load(ctx context.Context) ([]types.AuditEvent, error) {
	data, err := l.store.Get(ctx, store.AuditLogKey)
	if err != nil {
		if errdefs.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to load audit log: %w", err)
	}

	var events []types.AuditEvent
	if err := json.Unmarshal(data, &events); err != nil {
		return nil, fmt.Errorf("failed to decode audit log: %w", err)
	}
	return events, nil
}
