// Package registry owns the artifact lifecycle: it is the sole writer of
// manifest state, orchestrating submission, activation, deprecation and
// cleanup against its chunk store, audit log and durable store
// collaborators.
package registry

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"modelvault/pkg/audit"
	"modelvault/pkg/chunkstore"
	"modelvault/pkg/guard"
	"modelvault/pkg/metrics"
	"modelvault/pkg/store"
	"modelvault/pkg/types"
	"modelvault/pkg/validation"

	"github.com/containerd/errdefs"
	"go.uber.org/zap"
)

// Registry is the artifact state machine. Dependencies are injected so
// tests can run against the in-memory store.
type Registry struct {
	mu     sync.RWMutex
	store  store.Store
	chunks *chunkstore.ChunkStore
	audit  *audit.Log
	logger *zap.Logger

	metrics *metrics.RegistryMetrics
	limiter *guard.RateLimiter

	governanceEnabled bool
	now               func() time.Time
}

func New(st store.Store, chunks *chunkstore.ChunkStore, auditLog *audit.Log, logger *zap.Logger) *Registry {
	return &Registry{
		store:             st,
		chunks:            chunks,
		audit:             auditLog,
		logger:            logger,
		governanceEnabled: true,
		now:               time.Now,
	}
}

// WithMetrics attaches prometheus instrumentation.
func (r *Registry) WithMetrics(m *metrics.RegistryMetrics) *Registry {
	r.metrics = m
	return r
}

// WithRateLimiter guards privileged calls with a per-actor budget.
func (r *Registry) WithRateLimiter(limiter *guard.RateLimiter) *Registry {
	r.limiter = limiter
	return r
}

// WithClock injects the clock, for tests.
func (r *Registry) WithClock(now func() time.Time) *Registry {
	r.now = now
	return r
}

// WithGovernanceDisabled turns off the governance gate on activation.
func (r *Registry) WithGovernanceDisabled() *Registry {
	r.governanceEnabled = false
	return r
}

// Submit validates an upload end to end and, only then, persists its chunks,
// manifest and metadata. A validation failure leaves nothing behind. The
// recorded manifest starts in Pending state with a freshly computed digest.
func (r *Registry) Submit(ctx context.Context, upload *types.Upload, actor string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.metrics != nil {
		r.metrics.UploadRequests.Inc()
	}
	if err := r.admit(actor); err != nil {
		return err
	}

	authorized, err := r.isAuthorizedUploader(ctx, actor)
	if err != nil {
		return err
	}
	if !authorized {
		r.recordError("unauthorized")
		return fmt.Errorf("uploader %s: %w", actor, types.ErrUnauthorized)
	}

	// Validate everything before the first write.
	if err := validation.ValidateMetadata(&upload.Meta); err != nil {
		r.recordError("invalid_format")
		return err
	}
	manifest := upload.Manifest
	manifest.ArtifactID = upload.ArtifactID
	if err := validation.ValidateManifest(&manifest); err != nil {
		r.recordError("invalid_format")
		return err
	}
	for _, chunk := range upload.Chunks {
		if err := validation.ValidateChunk(chunk); err != nil {
			r.recordError("invalid_chunk")
			return err
		}
	}
	if err := validation.ValidateManifestHashes(&manifest, upload.Chunks); err != nil {
		r.recordError("verification_failed")
		return err
	}

	for _, chunk := range upload.Chunks {
		if err := r.chunks.Put(ctx, upload.ArtifactID, chunk.ID, chunk.Data); err != nil {
			return err
		}
	}

	manifest.State = types.StatePending
	manifest.UploadedAt = r.now()
	manifest.ActivatedAt = nil
	manifest.Digest = validation.ComputeDigest(&manifest)
	if err := r.saveManifest(ctx, &manifest); err != nil {
		return err
	}
	if err := r.saveMeta(ctx, upload.ArtifactID, &upload.Meta); err != nil {
		return err
	}

	if err := r.audit.Append(ctx, types.AuditEvent{
		Type:       types.EventUpload,
		ArtifactID: upload.ArtifactID,
		Actor:      actor,
		Timestamp:  r.now(),
		Details:    fmt.Sprintf("artifact uploaded with %d chunks", len(upload.Chunks)),
	}); err != nil {
		return err
	}

	r.logger.Info("Artifact submitted",
		zap.String("artifact_id", string(upload.ArtifactID)),
		zap.String("version", manifest.Version),
		zap.String("actor", actor),
		zap.Int("chunks", len(upload.Chunks)))
	return nil
}

// Activate flips a pending artifact to active. With governance enabled the
// actor must be an authorized uploader; the engine's tallied outcome is not
// consulted here, the dispatch layer runs proposals ahead of this call.
func (r *Registry) Activate(ctx context.Context, artifactID types.ArtifactID, actor string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.metrics != nil {
		r.metrics.ActivationRequests.Inc()
	}
	if err := r.admit(actor); err != nil {
		return err
	}

	if r.governanceEnabled {
		authorized, err := r.isAuthorizedUploader(ctx, actor)
		if err != nil {
			return err
		}
		if !authorized {
			r.recordError("unauthorized")
			return fmt.Errorf("activation of %s requires governance approval: %w", artifactID, types.ErrUnauthorized)
		}
	}

	manifest, err := r.loadManifest(ctx, artifactID)
	if err != nil {
		return err
	}
	if manifest.State != types.StatePending {
		r.recordError("invalid_state")
		return fmt.Errorf("artifact %s is %s, must be pending to activate: %w",
			artifactID, manifest.State, types.ErrInvalidState)
	}

	activatedAt := r.now()
	manifest.State = types.StateActive
	manifest.ActivatedAt = &activatedAt
	if err := r.saveManifest(ctx, manifest); err != nil {
		return err
	}

	if err := r.audit.Append(ctx, types.AuditEvent{
		Type:       types.EventActivate,
		ArtifactID: artifactID,
		Actor:      actor,
		Timestamp:  r.now(),
		Details:    "artifact activated",
	}); err != nil {
		return err
	}

	r.logger.Info("Artifact activated",
		zap.String("artifact_id", string(artifactID)),
		zap.String("actor", actor))
	return nil
}

// Deprecate retires an active artifact. Deprecated is terminal.
func (r *Registry) Deprecate(ctx context.Context, artifactID types.ArtifactID, actor string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.metrics != nil {
		r.metrics.DeprecateRequests.Inc()
	}
	if err := r.admit(actor); err != nil {
		return err
	}

	manifest, err := r.loadManifest(ctx, artifactID)
	if err != nil {
		return err
	}
	if manifest.State != types.StateActive {
		r.recordError("invalid_state")
		return fmt.Errorf("artifact %s is %s, must be active to deprecate: %w",
			artifactID, manifest.State, types.ErrInvalidState)
	}

	manifest.State = types.StateDeprecated
	if err := r.saveManifest(ctx, manifest); err != nil {
		return err
	}

	if err := r.audit.Append(ctx, types.AuditEvent{
		Type:       types.EventDeprecate,
		ArtifactID: artifactID,
		Actor:      actor,
		Timestamp:  r.now(),
		Details:    "artifact deprecated",
	}); err != nil {
		return err
	}

	r.logger.Info("Artifact deprecated",
		zap.String("artifact_id", string(artifactID)),
		zap.String("actor", actor))
	return nil
}

// GetManifest returns an artifact's manifest regardless of state.
func (r *Registry) GetManifest(ctx context.Context, artifactID types.ArtifactID) (*types.Manifest, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.loadManifest(ctx, artifactID)
}

// GetMetadata returns an artifact's descriptive metadata.
func (r *Registry) GetMetadata(ctx context.Context, artifactID types.ArtifactID) (*types.Metadata, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	data, err := r.store.Get(ctx, store.MetaKey(artifactID))
	if err != nil {
		if errdefs.IsNotFound(err) {
			return nil, fmt.Errorf("metadata for %s: %w", artifactID, types.ErrNotFound)
		}
		return nil, err
	}
	var meta types.Metadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, fmt.Errorf("failed to decode metadata for %s: %w", artifactID, err)
	}
	return &meta, nil
}

// GetChunk serves one chunk of an active artifact. Pending and deprecated
// artifacts are unavailable even while their bytes still exist. Every
// successful read is recorded in the audit ledger before the bytes are
// returned.
func (r *Registry) GetChunk(ctx context.Context, artifactID types.ArtifactID, chunkID, actor string) ([]byte, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.admit(actor); err != nil {
		return nil, err
	}

	manifest, err := r.loadManifest(ctx, artifactID)
	if err != nil {
		return nil, err
	}
	if manifest.State != types.StateActive {
		return nil, fmt.Errorf("artifact %s is not active: %w", artifactID, types.ErrNotFound)
	}

	if err := r.audit.Append(ctx, types.AuditEvent{
		Type:       types.EventChunkAccess,
		ArtifactID: artifactID,
		Actor:      actor,
		Timestamp:  r.now(),
		Details:    fmt.Sprintf("chunk %s accessed", chunkID),
	}); err != nil {
		return nil, err
	}
	if r.metrics != nil {
		r.metrics.ChunkAccesses.Inc()
	}

	return r.chunks.Get(ctx, artifactID, chunkID)
}

// AddAuthorizedUploader extends the uploader allow-list. The acting caller
// must already be on it.
func (r *Registry) AddAuthorizedUploader(ctx context.Context, name, actor string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	authorized, err := r.isAuthorizedUploader(ctx, actor)
	if err != nil {
		return err
	}
	if !authorized {
		r.recordError("unauthorized")
		return fmt.Errorf("actor %s cannot manage uploaders: %w", actor, types.ErrUnauthorized)
	}
	return r.addUploader(ctx, name)
}

// SeedUploader installs the bootstrap admin. Only permitted while the
// allow-list is empty; afterwards AddAuthorizedUploader is the only way in.
func (r *Registry) SeedUploader(ctx context.Context, name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	uploaders, err := r.loadUploaders(ctx)
	if err != nil {
		return err
	}
	if len(uploaders) > 0 {
		return fmt.Errorf("uploader list already seeded: %w", types.ErrUnauthorized)
	}
	return r.addUploader(ctx, name)
}

// AuthorizedUploaders returns the current allow-list.
func (r *Registry) AuthorizedUploaders(ctx context.Context) ([]string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.loadUploaders(ctx)
}

// GrantBadge attaches a trust badge to an artifact and records the grant.
func (r *Registry) GrantBadge(ctx context.Context, artifactID types.ArtifactID, badgeType types.BadgeType, actor string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	authorized, err := r.isAuthorizedUploader(ctx, actor)
	if err != nil {
		return err
	}
	if !authorized {
		r.recordError("unauthorized")
		return fmt.Errorf("actor %s cannot grant badges: %w", actor, types.ErrUnauthorized)
	}

	if _, err := r.loadManifest(ctx, artifactID); err != nil {
		return err
	}

	badges, err := r.loadBadges(ctx, artifactID)
	if err != nil {
		return err
	}
	badges = append(badges, types.Badge{
		Type:      badgeType,
		GrantedAt: r.now(),
		GrantedBy: actor,
	})
	data, err := json.Marshal(badges)
	if err != nil {
		return fmt.Errorf("failed to encode badges for %s: %w", artifactID, err)
	}
	if err := r.store.Put(ctx, store.BadgesKey(artifactID), data); err != nil {
		return fmt.Errorf("failed to persist badges for %s: %w", artifactID, err)
	}

	return r.audit.Append(ctx, types.AuditEvent{
		Type:       types.EventBadgeGrant,
		ArtifactID: artifactID,
		Actor:      actor,
		Timestamp:  r.now(),
		Details:    fmt.Sprintf("badge %s granted", badgeType),
	})
}

// Badges returns an artifact's badges in grant order.
func (r *Registry) Badges(ctx context.Context, artifactID types.ArtifactID) ([]types.Badge, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.loadBadges(ctx, artifactID)
}

// AuditLog returns the full audit ledger in append order.
func (r *Registry) AuditLog(ctx context.Context) ([]types.AuditEvent, error) {
	return r.audit.Events(ctx)
}

func (r *Registry) admit(actor string) error {
	if r.limiter == nil {
		return nil
	}
	if err := r.limiter.Allow(actor); err != nil {
		r.recordError("rate_limited")
		return err
	}
	return nil
}

func (r *Registry) recordError(class string) {
	if r.metrics != nil {
		r.metrics.RecordError(class)
	}
}

func (r *Registry) isAuthorizedUploader(ctx context.Context, actor string) (bool, error) {
	uploaders, err := r.loadUploaders(ctx)
	if err != nil {
		return false, err
	}
	for _, uploader := range uploaders {
		if uploader == actor {
			return true, nil
		}
	}
	return false, nil
}

func (r *Registry) addUploader(ctx context.Context, name string) error {
	uploaders, err := r.loadUploaders(ctx)
	if err != nil {
		return err
	}
	for _, uploader := range uploaders {
		if uploader == name {
			return nil
		}
	}
	data, err := json.Marshal(append(uploaders, name))
	if err != nil {
		return fmt.Errorf("failed to encode uploader list: %w", err)
	}
	if err := r.store.Put(ctx, store.UploadersKey, data); err != nil {
		return fmt.Errorf("failed to persist uploader list: %w", err)
	}
	r.logger.Info("Authorized uploader added", zap.String("uploader", name))
	return nil
}

func (r *Registry) loadUploaders(ctx context.Context) ([]string, error) {
	data, err := r.store.Get(ctx, store.UploadersKey)
	if err != nil {
		if errdefs.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to load uploader list: %w", err)
	}
	var uploaders []string
	if err := json.Unmarshal(data, &uploaders); err != nil {
		return nil, fmt.Errorf("failed to decode uploader list: %w", err)
	}
	return uploaders, nil
}

func (r *Registry) loadBadges(ctx context.Context, artifactID types.ArtifactID) ([]types.Badge, error) {
	data, err := r.store.Get(ctx, store.BadgesKey(artifactID))
	if err != nil {
		if errdefs.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to load badges for %s: %w", artifactID, err)
	}
	var badges []types.Badge
	if err := json.Unmarshal(data, &badges); err != nil {
		return nil, fmt.Errorf("failed to decode badges for %s: %w", artifactID, err)
	}
	return badges, nil
}

func (r *Registry) loadManifest(ctx context.Context, artifactID types.ArtifactID) (*types.Manifest, error) {
	data, err := r.store.Get(ctx, store.ManifestKey(artifactID))
	if err != nil {
		if errdefs.IsNotFound(err) {
			return nil, fmt.Errorf("artifact %s: %w", artifactID, types.ErrNotFound)
		}
		return nil, err
	}
	var manifest types.Manifest
	if err := json.Unmarshal(data, &manifest); err != nil {
		return nil, fmt.Errorf("failed to decode manifest for %s: %w", artifactID, err)
	}
	return &manifest, nil
}

func (r *Registry) saveManifest(ctx context.Context, manifest *types.Manifest) error {
	data, err := json.Marshal(manifest)
	if err != nil {
		return fmt.Errorf("failed to encode manifest for %s: %w", manifest.ArtifactID, err)
	}
	if err := r.store.Put(ctx, store.ManifestKey(manifest.ArtifactID), data); err != nil {
		return fmt.Errorf("failed to persist manifest for %s: %w", manifest.ArtifactID, err)
	}
	return nil
}

func (r *Registry) saveMeta(ctx context.Context, artifactID types.ArtifactID, meta *types.Metadata) error {
	data, err := json.Marshal(meta)
	if err != nil {
		return fmt.Errorf("failed to encode metadata for %s: %w", artifactID, err)
	}
	if err := r.store.Put(ctx, store.MetaKey(artifactID), data); err != nil {
		return fmt.Errorf("failed to persist metadata for %s: %w", artifactID, err)
	}
	return nil
}
