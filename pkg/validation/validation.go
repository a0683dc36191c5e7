// Package validation holds the pure integrity checks run against a
// submission before anything is persisted.
package validation

import (
	"crypto/sha256"
	"encoding/binary"
	"fmt"

	"modelvault/pkg/types"
)

// ValidateChunk checks a single chunk payload against the size bounds.
func ValidateChunk(chunk types.ChunkData) error {
	if len(chunk.Data) > types.MaxChunkSize {
		return fmt.Errorf("chunk %s exceeds %d byte limit: %w", chunk.ID, types.MaxChunkSize, types.ErrStorageFull)
	}
	if len(chunk.Data) == 0 {
		return fmt.Errorf("chunk %s is empty: %w", chunk.ID, types.ErrInvalidFormat)
	}
	return nil
}

// ValidateManifest checks the manifest's own well-formedness: a non-empty
// chunk sequence whose declared sizes respect the cap.
func ValidateManifest(manifest *types.Manifest) error {
	if len(manifest.Chunks) == 0 {
		return fmt.Errorf("manifest must contain at least one chunk: %w", types.ErrInvalidFormat)
	}
	for _, info := range manifest.Chunks {
		if info.Size > types.MaxChunkSize {
			return fmt.Errorf("chunk %s declares %d bytes, over the %d byte limit: %w",
				info.ID, info.Size, types.MaxChunkSize, types.ErrStorageFull)
		}
	}
	return nil
}

// ValidateManifestHashes verifies that the uploaded chunk payloads match the
// manifest's descriptors position by position: same id, same size, same
// sha256. Any mismatch identifies the offending position.
func ValidateManifestHashes(manifest *types.Manifest, chunks []types.ChunkData) error {
	if len(manifest.Chunks) != len(chunks) {
		return fmt.Errorf("manifest declares %d chunks but %d were uploaded: %w",
			len(manifest.Chunks), len(chunks), types.ErrVerificationFailed)
	}

	for i, info := range manifest.Chunks {
		actual := chunks[i]
		if info.ID != actual.ID {
			return fmt.Errorf("chunk %d: id mismatch %s != %s: %w",
				i, info.ID, actual.ID, types.ErrVerificationFailed)
		}
		if info.Size != uint64(len(actual.Data)) {
			return fmt.Errorf("chunk %d (%s): size mismatch %d != %d: %w",
				i, info.ID, info.Size, len(actual.Data), types.ErrVerificationFailed)
		}
		sum := sha256.Sum256(actual.Data)
		if info.SHA256 != fmt.Sprintf("%x", sum) {
			return fmt.Errorf("chunk %d (%s): sha256 mismatch: %w",
				i, info.ID, types.ErrVerificationFailed)
		}
	}

	return nil
}

// ComputeDigest derives the deterministic manifest digest from the ordered
// chunk descriptors. Each chunk contributes its id bytes, little-endian
// offset, little-endian size and sha256 hex bytes, so the digest commits to
// both content and layout: reordering chunks changes it.
func ComputeDigest(manifest *types.Manifest) string {
	hasher := sha256.New()
	var scratch [8]byte

	for _, chunk := range manifest.Chunks {
		hasher.Write([]byte(chunk.ID))
		binary.LittleEndian.PutUint64(scratch[:], chunk.Offset)
		hasher.Write(scratch[:])
		binary.LittleEndian.PutUint64(scratch[:], chunk.Size)
		hasher.Write(scratch[:])
		hasher.Write([]byte(chunk.SHA256))
	}

	return fmt.Sprintf("%x", hasher.Sum(nil))
}

// ValidateMetadata checks the descriptive fields for well-formedness.
func ValidateMetadata(meta *types.Metadata) error {
	if meta.Family == "" {
		return fmt.Errorf("artifact family cannot be empty: %w", types.ErrInvalidFormat)
	}
	if meta.Arch == "" {
		return fmt.Errorf("artifact architecture cannot be empty: %w", types.ErrInvalidFormat)
	}
	if meta.VocabSize == 0 {
		return fmt.Errorf("vocabulary size must be greater than 0: %w", types.ErrInvalidFormat)
	}
	if meta.CtxWindow == 0 {
		return fmt.Errorf("context window must be greater than 0: %w", types.ErrInvalidFormat)
	}
	return nil
}
