package types

import (
	"time"
)

type ArtifactID string

// MaxChunkSize is the hard cap on a single chunk payload (2 MiB).
const MaxChunkSize = 2 * 1024 * 1024

// State is an artifact's lifecycle state. Transitions only move forward:
// Pending -> Active -> Deprecated. Deprecated is terminal.
type State string

const (
	StatePending    State = "pending"
	StateActive     State = "active"
	StateDeprecated State = "deprecated"
)

// ChunkInfo describes one shard of an artifact without holding its bytes.
type ChunkInfo struct {
	ID     string `json:"id"`
	Offset uint64 `json:"offset"`
	Size   uint64 `json:"size"`
	SHA256 string `json:"sha256"`
}

// ChunkData is the actual shard payload.
type ChunkData struct {
	ID   string `json:"id"`
	Data []byte `json:"data"`
}

// Manifest is the authoritative record of an artifact's chunks, digest and
// lifecycle state. The registry is the sole writer of State and ActivatedAt.
type Manifest struct {
	ArtifactID  ArtifactID  `json:"artifact_id"`
	Version     string      `json:"version"`
	Chunks      []ChunkInfo `json:"chunks"`
	Digest      string      `json:"digest"`
	State       State       `json:"state"`
	UploadedAt  time.Time   `json:"uploaded_at"`
	ActivatedAt *time.Time  `json:"activated_at,omitempty"`
}

// StoredSize is the total declared chunk bytes.
func (m *Manifest) StoredSize() uint64 {
	var total uint64
	for _, c := range m.Chunks {
		total += c.Size
	}
	return total
}

// LogicalSize is the artifact's logical extent: the furthest byte any chunk
// claims to cover.
func (m *Manifest) LogicalSize() uint64 {
	var max uint64
	for _, c := range m.Chunks {
		if end := c.Offset + c.Size; end > max {
			max = end
		}
	}
	return max
}

// CompressionRatio relates the logical extent to the bytes actually stored.
// A densely packed artifact has ratio 1.0.
func (m *Manifest) CompressionRatio() float64 {
	stored := m.StoredSize()
	if stored == 0 {
		return 0
	}
	return float64(m.LogicalSize()) / float64(stored)
}

// Metadata holds descriptive fields for an artifact.
type Metadata struct {
	Family      string `json:"family"`
	Arch        string `json:"arch"`
	TokenizerID string `json:"tokenizer_id"`
	VocabSize   uint32 `json:"vocab_size"`
	CtxWindow   uint32 `json:"ctx_window"`
	License     string `json:"license"`
}

// Upload bundles everything a submission carries. Signature is opaque and
// never verified here.
type Upload struct {
	ArtifactID ArtifactID  `json:"artifact_id"`
	Manifest   Manifest    `json:"manifest"`
	Meta       Metadata    `json:"meta"`
	Chunks     []ChunkData `json:"chunks"`
	Signature  *string     `json:"signature,omitempty"`
}

type EventType string

const (
	EventUpload      EventType = "upload"
	EventActivate    EventType = "activate"
	EventDeprecate   EventType = "deprecate"
	EventChunkAccess EventType = "chunk_access"
	EventBadgeGrant  EventType = "badge_grant"
)

// AuditEvent is one entry in the append-only ledger. Immutable once
// appended; ordering is append order.
type AuditEvent struct {
	EventID    string     `json:"event_id"`
	Type       EventType  `json:"event_type"`
	ArtifactID ArtifactID `json:"artifact_id"`
	Actor      string     `json:"actor"`
	Timestamp  time.Time  `json:"timestamp"`
	Details    string     `json:"details"`
}

type BadgeType string

const (
	BadgeVerifiedQuant      BadgeType = "verified_quant"
	BadgeReproducible       BadgeType = "reproducible"
	BadgeGovernanceApproved BadgeType = "governance_approved"
	BadgeCommunityTested    BadgeType = "community_tested"
)

// Badge marks a trust attribute granted to an artifact.
type Badge struct {
	Type      BadgeType `json:"badge_type"`
	GrantedAt time.Time `json:"granted_at"`
	GrantedBy string    `json:"granted_by"`
}

// Stats is the result of a global scan over all manifests.
type Stats struct {
	TotalArtifacts      uint64 `json:"total_artifacts"`
	PendingArtifacts    uint64 `json:"pending_artifacts"`
	ActiveArtifacts     uint64 `json:"active_artifacts"`
	DeprecatedArtifacts uint64 `json:"deprecated_artifacts"`
	TotalChunks         uint64 `json:"total_chunks"`
	TotalBytes          uint64 `json:"total_bytes"`
	AuditEvents         uint64 `json:"audit_events"`
}
