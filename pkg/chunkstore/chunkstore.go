// Package chunkstore is the content-addressed blob store for artifact
// chunks. Keys are namespaced per artifact, so byte-identical chunks under
// two artifacts are stored independently; there is deliberately no
// cross-artifact deduplication.
package chunkstore

import (
	"context"
	"fmt"
	"time"

	"modelvault/pkg/store"
	"modelvault/pkg/types"

	"github.com/containerd/errdefs"
	gocache "github.com/patrickmn/go-cache"
	"go.uber.org/zap"
)

const (
	cacheTTL   = 5 * time.Minute
	cacheSweep = 10 * time.Minute
)

// ChunkStore persists chunk bytes in the durable store. The durable store is
// the single source of truth; the in-process cache is filled on read and
// invalidated on every write or delete, never written independently.
type ChunkStore struct {
	store  store.Store
	cache  *gocache.Cache
	logger *zap.Logger
}

func New(st store.Store, logger *zap.Logger) *ChunkStore {
	return &ChunkStore{
		store:  st,
		cache:  gocache.New(cacheTTL, cacheSweep),
		logger: logger,
	}
}

// Put stores one chunk, enforcing the payload cap. Overwrites of the same
// (artifact, chunk) pair are permitted; re-submission is idempotent.
func (cs *ChunkStore) Put(ctx context.Context, artifactID types.ArtifactID, chunkID string, data []byte) error {
	if len(data) > types.MaxChunkSize {
		return fmt.Errorf("chunk %s is %d bytes, over the %d byte limit: %w",
			chunkID, len(data), types.MaxChunkSize, types.ErrStorageFull)
	}

	key := store.ChunkKey(artifactID, chunkID)
	cs.cache.Delete(key)
	if err := cs.store.Put(ctx, key, data); err != nil {
		if errdefs.IsResourceExhausted(err) {
			return fmt.Errorf("durable store rejected chunk %s: %w", chunkID, types.ErrStorageFull)
		}
		return err
	}

	cs.logger.Debug("Chunk stored",
		zap.String("artifact_id", string(artifactID)),
		zap.String("chunk_id", chunkID),
		zap.Int("size", len(data)))
	return nil
}

// Get returns one chunk's bytes, consulting the in-process mirror before
// falling back to the durable store. Callers always receive their own copy;
// mutating it cannot drift the mirror away from the durable store.
func (cs *ChunkStore) Get(ctx context.Context, artifactID types.ArtifactID, chunkID string) ([]byte, error) {
	key := store.ChunkKey(artifactID, chunkID)
	if cached, ok := cs.cache.Get(key); ok {
		return copyBytes(cached.([]byte)), nil
	}

	data, err := cs.store.Get(ctx, key)
	if err != nil {
		if errdefs.IsNotFound(err) {
			return nil, fmt.Errorf("chunk %s of artifact %s: %w", chunkID, artifactID, types.ErrNotFound)
		}
		return nil, err
	}

	cs.cache.Set(key, data, gocache.DefaultExpiration)
	return copyBytes(data), nil
}

func copyBytes(data []byte) []byte {
	out := make([]byte, len(data))
	copy(out, data)
	return out
}

// Delete removes one chunk and reports whether its bytes were actually
// present. Used only by deprecated-artifact cleanup, which counts reclaimed
// chunks; deleting an already-reclaimed chunk is a no-op reported as false.
func (cs *ChunkStore) Delete(ctx context.Context, artifactID types.ArtifactID, chunkID string) (bool, error) {
	key := store.ChunkKey(artifactID, chunkID)
	cs.cache.Delete(key)

	if _, err := cs.store.Get(ctx, key); err != nil {
		if errdefs.IsNotFound(err) {
			return false, nil
		}
		return false, err
	}
	if err := cs.store.Delete(ctx, key); err != nil {
		return false, err
	}
	return true, nil
}
