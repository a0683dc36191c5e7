package registry

import (
	"context"
	"testing"

	"modelvault/pkg/store"
	"modelvault/pkg/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestListByState(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	require.NoError(t, f.registry.Submit(ctx, makeUpload(t, "pending-1", 512), "alice"))
	f.submitAndActivate(t, "active-1", 512)
	f.submitAndActivate(t, "active-2", 512)
	f.submitAndActivate(t, "retired-1", 512)
	require.NoError(t, f.registry.Deprecate(ctx, "retired-1", "alice"))

	all, err := f.registry.List(ctx, nil)
	require.NoError(t, err)
	assert.Len(t, all, 4)

	active := types.StateActive
	manifests, err := f.registry.List(ctx, &active)
	require.NoError(t, err)
	require.Len(t, manifests, 2)
	for _, manifest := range manifests {
		assert.Equal(t, types.StateActive, manifest.State)
	}

	deprecated := types.StateDeprecated
	manifests, err = f.registry.List(ctx, &deprecated)
	require.NoError(t, err)
	require.Len(t, manifests, 1)
	assert.Equal(t, types.ArtifactID("retired-1"), manifests[0].ArtifactID)
}

func TestCleanupDeprecatedReclaimsChunksOnly(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.submitAndActivate(t, "keep", 512, 512)
	f.submitAndActivate(t, "retire", 512, 512, 512)
	require.NoError(t, f.registry.Deprecate(ctx, "retire", "alice"))

	removed, err := f.registry.CleanupDeprecated(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint64(3), removed)

	// The deprecated manifest record is retained.
	manifest, err := f.registry.GetManifest(ctx, "retire")
	require.NoError(t, err)
	assert.Equal(t, types.StateDeprecated, manifest.State)

	// Its bytes are gone, the active artifact's are untouched.
	keys, err := f.backing.ListKeys(ctx, store.ChunkScope("retire"))
	require.NoError(t, err)
	assert.Empty(t, keys)
	keys, err = f.backing.ListKeys(ctx, store.ChunkScope("keep"))
	require.NoError(t, err)
	assert.Len(t, keys, 2)

	t.Run("Second pass removes nothing", func(t *testing.T) {
		removed, err := f.registry.CleanupDeprecated(ctx)
		require.NoError(t, err)
		assert.Zero(t, removed)
	})
}

func TestQueryBySize(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	require.NoError(t, f.registry.Submit(ctx, makeUpload(t, "small", 1024), "alice"))
	require.NoError(t, f.registry.Submit(ctx, makeUpload(t, "large", types.MaxChunkSize, types.MaxChunkSize), "alice"))

	ids, err := f.registry.QueryBySize(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, []types.ArtifactID{"small"}, ids)

	ids, err = f.registry.QueryBySize(ctx, 4)
	require.NoError(t, err)
	assert.Len(t, ids, 2)
}

func TestQueryByCompressionRatio(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	// Densely packed artifact: ratio 1.0.
	require.NoError(t, f.registry.Submit(ctx, makeUpload(t, "dense", 1024, 1024), "alice"))

	// Sparse layout: chunks cover a larger logical extent than they store.
	sparse := makeUpload(t, "sparse", 1024)
	sparse.Manifest.Chunks[0].Offset = 4096
	err := f.registry.Submit(ctx, sparse, "alice")
	require.NoError(t, err)

	ids, err := f.registry.QueryByCompressionRatio(ctx, 2.0)
	require.NoError(t, err)
	assert.Equal(t, []types.ArtifactID{"sparse"}, ids)

	ids, err = f.registry.QueryByCompressionRatio(ctx, 1.0)
	require.NoError(t, err)
	assert.Len(t, ids, 2)
}

func TestGlobalStats(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	require.NoError(t, f.registry.Submit(ctx, makeUpload(t, "pending-1", 512), "alice"))
	f.submitAndActivate(t, "active-1", 512, 512)
	f.submitAndActivate(t, "retired-1", 512)
	require.NoError(t, f.registry.Deprecate(ctx, "retired-1", "alice"))

	stats, err := f.registry.GlobalStats(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint64(3), stats.TotalArtifacts)
	assert.Equal(t, uint64(1), stats.PendingArtifacts)
	assert.Equal(t, uint64(1), stats.ActiveArtifacts)
	assert.Equal(t, uint64(1), stats.DeprecatedArtifacts)
	assert.Equal(t, uint64(4), stats.TotalChunks)
	assert.Equal(t, uint64(4*512), stats.TotalBytes)
	// upload x3, activate x2, deprecate x1
	assert.Equal(t, uint64(6), stats.AuditEvents)
}
