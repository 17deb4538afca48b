// Package worldcore implements the world container: the aggregate that
// owns a world's global metadata, its registered field-subsystem
// domains (via internal/registry), and its chunked terrain payloads,
// and drives the "DWRL" save/load format and the world hash.
//
// Grounded on SPEC_FULL.md §10's supplemented "World container with
// chunked terrain" feature, itself drawn from
// original_source/source/domino/sim/d_sim_hash.c (the w->meta/w->chunks
// field access that implies World's shape) and
// original_source/engine/modules/world/d_litho_validate.c (a chunk's
// payload being a per-subsystem TLV blob validated by tag).
package worldcore

import (
	"github.com/domino-sim/domino/internal/fixedpoint"
	"github.com/domino-sim/domino/internal/registry"
)

// ChunkFlags marks per-chunk state bits.
type ChunkFlags uint32

const (
	// ChunkDirty marks a chunk whose payload has changed since its
	// last save and needs re-serializing.
	ChunkDirty ChunkFlags = 1 << iota
	// ChunkGenerated marks a chunk that has completed initial terrain
	// generation, as opposed to one still pending first population.
	ChunkGenerated
)

// Meta is a world's global, save-affecting metadata — every field here
// folds into the world hash in this exact order (internal/worldhash).
type Meta struct {
	Seed            uint64
	WorldSizeM      uint32
	VerticalMin     fixedpoint.Q16
	VerticalMax     fixedpoint.Q16
	CoreVersion     uint32
	SuiteVersion    uint32
	CompatProfileID uint32
}

// Chunk is one chunk's identity. Its subsystem payload is never held
// in memory as a decoded struct here — it is round-tripped opaquely
// through the registry's chunk-scoped save/load, the same way the
// world container itself never interprets a subsystem's TLV bytes.
type Chunk struct {
	ChunkID uint32
	Cx      int32
	Cy      int32
	Flags   ChunkFlags
}

// World aggregates a world's metadata, its tick counter, the subsystem
// registry driving save/load, and the set of chunks it owns. Chunks
// are kept in a slice in the order they were added and are always
// walked that way for anything but hashing, which imposes its own
// (cx, cy) sort per spec.
type World struct {
	Meta      Meta
	TickCount uint32
	Registry  *registry.Registry
	Chunks    []Chunk
}

// NewWorld returns a World bound to reg. reg's subsystems are expected
// to already be registered by the caller before any Save/Load call.
func NewWorld(meta Meta, reg *registry.Registry) *World {
	return &World{Meta: meta, Registry: reg}
}
