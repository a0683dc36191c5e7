package registry

import (
	"context"
	"encoding/json"
	"fmt"

	"modelvault/pkg/store"
	"modelvault/pkg/types"

	"go.uber.org/zap"
)

// List returns all manifests, optionally restricted to one lifecycle state.
func (r *Registry) List(ctx context.Context, stateFilter *types.State) ([]*types.Manifest, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	manifests, err := r.scanManifests(ctx)
	if err != nil {
		return nil, err
	}
	if stateFilter == nil {
		return manifests, nil
	}

	filtered := make([]*types.Manifest, 0, len(manifests))
	for _, manifest := range manifests {
		if manifest.State == *stateFilter {
			filtered = append(filtered, manifest)
		}
	}
	return filtered, nil
}

// CleanupDeprecated reclaims chunk storage for every deprecated artifact and
// returns the number of chunks removed. Manifest records are retained as
// audit history; only the bytes go.
func (r *Registry) CleanupDeprecated(ctx context.Context) (uint64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	manifests, err := r.scanManifests(ctx)
	if err != nil {
		return 0, err
	}

	var removed uint64
	for _, manifest := range manifests {
		if manifest.State != types.StateDeprecated {
			continue
		}
		for _, chunk := range manifest.Chunks {
			deleted, err := r.chunks.Delete(ctx, manifest.ArtifactID, chunk.ID)
			if err != nil {
				return removed, fmt.Errorf("failed to delete chunk %s of %s: %w",
					chunk.ID, manifest.ArtifactID, err)
			}
			// Deprecated manifests are retained, so later passes revisit
			// them; only chunks whose bytes were still present count.
			if deleted {
				removed++
			}
		}
	}

	if r.metrics != nil {
		r.metrics.CleanupRuns.Inc()
	}
	r.logger.Info("Deprecated artifact cleanup finished", zap.Uint64("chunks_removed", removed))
	return removed, nil
}

// QueryByCompressionRatio returns ids of artifacts whose logical-to-stored
// ratio is at least min. Recomputed from a full scan on every call.
func (r *Registry) QueryByCompressionRatio(ctx context.Context, min float64) ([]types.ArtifactID, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	manifests, err := r.scanManifests(ctx)
	if err != nil {
		return nil, err
	}

	var ids []types.ArtifactID
	for _, manifest := range manifests {
		if manifest.CompressionRatio() >= min {
			ids = append(ids, manifest.ArtifactID)
		}
	}
	return ids, nil
}

// QueryBySize returns ids of artifacts whose total stored bytes fit within
// maxMB mebibytes.
func (r *Registry) QueryBySize(ctx context.Context, maxMB uint64) ([]types.ArtifactID, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	manifests, err := r.scanManifests(ctx)
	if err != nil {
		return nil, err
	}

	limit := maxMB * 1024 * 1024
	var ids []types.ArtifactID
	for _, manifest := range manifests {
		if manifest.StoredSize() <= limit {
			ids = append(ids, manifest.ArtifactID)
		}
	}
	return ids, nil
}

// GlobalStats recomputes registry-wide totals from a full manifest scan;
// no cached aggregate is kept, so results are always fresh.
func (r *Registry) GlobalStats(ctx context.Context) (*types.Stats, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	manifests, err := r.scanManifests(ctx)
	if err != nil {
		return nil, err
	}

	stats := &types.Stats{}
	for _, manifest := range manifests {
		stats.TotalArtifacts++
		switch manifest.State {
		case types.StatePending:
			stats.PendingArtifacts++
		case types.StateActive:
			stats.ActiveArtifacts++
		case types.StateDeprecated:
			stats.DeprecatedArtifacts++
		}
		stats.TotalChunks += uint64(len(manifest.Chunks))
		stats.TotalBytes += manifest.StoredSize()
	}

	events, err := r.audit.Events(ctx)
	if err != nil {
		return nil, err
	}
	stats.AuditEvents = uint64(len(events))

	if r.metrics != nil {
		r.metrics.ArtifactsByState.WithLabelValues(string(types.StatePending)).Set(float64(stats.PendingArtifacts))
		r.metrics.ArtifactsByState.WithLabelValues(string(types.StateActive)).Set(float64(stats.ActiveArtifacts))
		r.metrics.ArtifactsByState.WithLabelValues(string(types.StateDeprecated)).Set(float64(stats.DeprecatedArtifacts))
	}
	return stats, nil
}

func (r *Registry) scanManifests(ctx context.Context) ([]*types.Manifest, error) {
	keys, err := r.store.ListKeys(ctx, store.ManifestPrefix)
	if err != nil {
		return nil, fmt.Errorf("failed to list manifests: %w", err)
	}

	manifests := make([]*types.Manifest, 0, len(keys))
	for _, key := range keys {
		data, err := r.store.Get(ctx, key)
		if err != nil {
			return nil, fmt.Errorf("failed to load %s: %w", key, err)
		}
		var manifest types.Manifest
		if err := json.Unmarshal(data, &manifest); err != nil {
			return nil, fmt.Errorf("failed to decode %s: %w", key, err)
		}
		manifests = append(manifests, &manifest)
	}
	return manifests, nil
}
