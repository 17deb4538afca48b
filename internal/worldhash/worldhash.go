// Package worldhash computes the deterministic FNV-1a 64 hash of a
// world's authoritative state: its metadata, its registry-serialized
// instance payload, and every chunk's own metadata plus serialized
// payload, the chunks visited in a canonical sort order rather than
// whatever order the caller's slice happens to hold them in.
//
// Grounded on original_source/source/domino/sim/d_sim_hash.c.
package worldhash

import (
	"sort"

	"github.com/domino-sim/domino/internal/fixedpoint"
)

// Hash is the folded FNV-1a 64 digest of a world or a chunk.
type Hash uint64

const (
	fnv1a64Offset Hash = 14695981039346656037
	fnv1a64Prime  Hash = 1099511628211
)

// Meta is the subset of a world's global metadata that participates in
// the hash, independent of any particular World struct shape.
type Meta struct {
	Seed            uint64
	WorldSizeM      uint32
	VerticalMin     fixedpoint.Q16
	VerticalMax     fixedpoint.Q16
	CoreVersion     uint32
	SuiteVersion    uint32
	CompatProfileID uint32
}

// ChunkInput is the per-chunk data folded into a world hash: the
// chunk's own identity fields plus its already-serialized subsystem
// payload (the output of a chunk-scoped registry save).
type ChunkInput struct {
	ChunkID uint32
	Cx      int32
	Cy      int32
	Flags   uint32
	Payload []byte
}

func hashBytes(h Hash, data []byte) Hash {
	for _, b := range data {
		h ^= Hash(b)
		h *= fnv1a64Prime
	}
	return h
}

func hashU32LE(h Hash, v uint32) Hash {
	buf := [4]byte{byte(v), byte(v >> 8), byte(v >> 16), byte(v >> 24)}
	return hashBytes(h, buf[:])
}

func hashU64LE(h Hash, v uint64) Hash {
	buf := [8]byte{
		byte(v), byte(v >> 8), byte(v >> 16), byte(v >> 24),
		byte(v >> 32), byte(v >> 40), byte(v >> 48), byte(v >> 56),
	}
	return hashBytes(h, buf[:])
}

// HashChunkIdentity folds a chunk's bare identity fields — chunk_id,
// cx, cy, flags — with no payload. Exposed separately from
// HashChunkPayload because the original keeps a lightweight
// identity-only hash (d_sim_hash_chunk) distinct from the
// payload-carrying one used inside a full world hash.
func HashChunkIdentity(chunk ChunkInput) Hash {
	h := fnv1a64Offset
	h = hashU32LE(h, chunk.ChunkID)
	h = hashU32LE(h, uint32(chunk.Cx))
	h = hashU32LE(h, uint32(chunk.Cy))
	h = hashU32LE(h, chunk.Flags)
	return h
}

// HashChunkPayload folds a chunk's identity fields followed by its
// serialized payload's length and bytes.
func HashChunkPayload(chunk ChunkInput) Hash {
	h := HashChunkIdentity(chunk)
	h = hashU32LE(h, uint32(len(chunk.Payload)))
	h = hashBytes(h, chunk.Payload)
	return h
}

// chunkLess orders chunks ascending by (cx, cy), matching the
// original's qsort comparator — hashing MUST impose this order since
// a world's chunk container carries no ordering guarantee of its own.
func chunkLess(a, b ChunkInput) bool {
	if a.Cx != b.Cx {
		return a.Cx < b.Cx
	}
	return a.Cy < b.Cy
}

// HashWorld folds meta, tickCount, the instance blob (the registry's
// SaveInstanceAll output), and every chunk's payload hash, the chunks
// visited sorted by (cx, cy) ascending regardless of input order.
func HashWorld(meta Meta, tickCount uint32, instanceBlob []byte, chunks []ChunkInput) Hash {
	h := fnv1a64Offset

	h = hashU64LE(h, meta.Seed)
	h = hashU32LE(h, meta.WorldSizeM)
	h = hashU32LE(h, uint32(meta.VerticalMin))
	h = hashU32LE(h, uint32(meta.VerticalMax))
	h = hashU32LE(h, meta.CoreVersion)
	h = hashU32LE(h, meta.SuiteVersion)
	h = hashU32LE(h, meta.CompatProfileID)
	h = hashU32LE(h, tickCount)

	h = hashU32LE(h, uint32(len(instanceBlob)))
	h = hashBytes(h, instanceBlob)

	sorted := append([]ChunkInput(nil), chunks...)
	sort.Slice(sorted, func(i, j int) bool { return chunkLess(sorted[i], sorted[j]) })
	for _, chunk := range sorted {
		h = hashU64LE(h, uint64(HashChunkPayload(chunk)))
	}

	return h
}
