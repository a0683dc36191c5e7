// Package store defines the durable key-value contract the registry core
// consumes, together with the key scheme shared by every component. Each
// component owns a disjoint prefix; nothing reads another component's keys
// except through that component.
package store

import (
	"context"
	"fmt"

	"modelvault/pkg/types"
)

// Store is the narrow durable-store contract. Implementations classify
// failures with containerd/errdefs: Get on a missing key returns an error
// satisfying errdefs.IsNotFound, Put over capacity returns one satisfying
// errdefs.IsResourceExhausted.
type Store interface {
	Put(ctx context.Context, key string, value []byte) error
	Get(ctx context.Context, key string) ([]byte, error)
	Delete(ctx context.Context, key string) error
	// ListKeys returns every key with the given prefix, sorted.
	ListKeys(ctx context.Context, prefix string) ([]string, error)
}

// Key scheme. Manifest, metadata and chunk keys are per-artifact; the
// uploader set and the audit ledger live under singleton keys.
const (
	ManifestPrefix = "manifest:"
	MetaPrefix     = "meta:"
	ChunkPrefix    = "chunk:"
	BadgesPrefix   = "badges:"
	ProposalPrefix = "proposal:"

	UploadersKey   = "uploaders"
	AuditLogKey    = "audit-log"
	VotersKey      = "governance:voters"
	ProposalSeqKey = "governance:seq"
)

func ManifestKey(id types.ArtifactID) string {
	return ManifestPrefix + string(id)
}

func MetaKey(id types.ArtifactID) string {
	return MetaPrefix + string(id)
}

func ChunkKey(id types.ArtifactID, chunkID string) string {
	return fmt.Sprintf("%s%s:%s", ChunkPrefix, id, chunkID)
}

func ChunkScope(id types.ArtifactID) string {
	return fmt.Sprintf("%s%s:", ChunkPrefix, id)
}

func BadgesKey(id types.ArtifactID) string {
	return BadgesPrefix + string(id)
}

func ProposalKey(id uint64) string {
	return fmt.Sprintf("%s%d", ProposalPrefix, id)
}
