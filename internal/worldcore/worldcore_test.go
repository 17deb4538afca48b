package worldcore

import (
	"testing"

	"github.com/domino-sim/domino/internal/registry"
)

type fakeSubsystem struct {
	tag     uint32
	blob    []byte
	loaded  []byte
	chunk   map[uint64][]byte
	chunkIn map[uint64][]byte
}

func newFakeSubsystem(tag uint32) *fakeSubsystem {
	return &fakeSubsystem{tag: tag, chunk: map[uint64][]byte{}, chunkIn: map[uint64][]byte{}}
}

func (f *fakeSubsystem) Tag() uint32                  { return f.tag }
func (f *fakeSubsystem) SaveInstance() ([]byte, error) { return f.blob, nil }
func (f *fakeSubsystem) LoadInstance(payload []byte) error {
	f.loaded = append([]byte(nil), payload...)
	return nil
}
func (f *fakeSubsystem) SaveChunk(chunkID uint64) ([]byte, error) { return f.chunk[chunkID], nil }
func (f *fakeSubsystem) LoadChunk(chunkID uint64, payload []byte) error {
	f.chunkIn[chunkID] = append([]byte(nil), payload...)
	return nil
}

func TestWorldSaveLoadRoundTrips(t *testing.T) {
	reg := registry.NewRegistry()
	sub := newFakeSubsystem(registry.TagEnergy)
	sub.blob = []byte("energy-instance")
	reg.Register(sub)

	w := NewWorld(Meta{Seed: 1, WorldSizeM: 100}, reg)
	blob, err := w.Save()
	if err != nil {
		t.Fatalf("unexpected save error: %v", err)
	}

	reg2 := registry.NewRegistry()
	sub2 := newFakeSubsystem(registry.TagEnergy)
	reg2.Register(sub2)
	w2 := NewWorld(Meta{}, reg2)
	if err := w2.Load(blob); err != nil {
		t.Fatalf("unexpected load error: %v", err)
	}
	if string(sub2.loaded) != "energy-instance" {
		t.Fatalf("expected instance payload round-trip, got %q", sub2.loaded)
	}
}

func TestWorldLoadRejectsBadMagic(t *testing.T) {
	reg := registry.NewRegistry()
	w := NewWorld(Meta{}, reg)
	if err := w.Load([]byte("XXXX\x02\x00")); err != errBadMagic {
		t.Fatalf("expected bad magic error, got %v", err)
	}
}

func TestWorldLoadRejectsUnsupportedVersion(t *testing.T) {
	reg := registry.NewRegistry()
	w := NewWorld(Meta{}, reg)
	blob := append([]byte{}, Magic[:]...)
	blob = append(blob, 0x09, 0x00)
	if err := w.Load(blob); err != errUnsupportedVersion {
		t.Fatalf("expected unsupported version error, got %v", err)
	}
}

func TestAddChunkRejectsDuplicateID(t *testing.T) {
	w := NewWorld(Meta{}, registry.NewRegistry())
	if err := w.AddChunk(Chunk{ChunkID: 1}); err != nil {
		t.Fatalf("unexpected error on first add: %v", err)
	}
	if err := w.AddChunk(Chunk{ChunkID: 1}); err == nil {
		t.Fatalf("expected duplicate chunk id to be rejected")
	}
}

func TestRemoveChunkReportsNotFound(t *testing.T) {
	w := NewWorld(Meta{}, registry.NewRegistry())
	if err := w.RemoveChunk(99); err != errChunkNotFound {
		t.Fatalf("expected chunk-not-found error, got %v", err)
	}
}

func TestHashReflectsChunkPayload(t *testing.T) {
	reg := registry.NewRegistry()
	sub := newFakeSubsystem(registry.TagEnergy)
	reg.Register(sub)

	w := NewWorld(Meta{Seed: 7}, reg)
	w.AddChunk(Chunk{ChunkID: 1, Cx: 0, Cy: 0})

	h1, err := w.Hash()
	if err != nil {
		t.Fatalf("unexpected hash error: %v", err)
	}

	sub.chunk[1] = []byte("chunk-data")
	h2, err := w.Hash()
	if err != nil {
		t.Fatalf("unexpected hash error: %v", err)
	}
	if h1 == h2 {
		t.Fatalf("expected hash to change when a chunk's payload changes")
	}
}

func TestParseScenario(t *testing.T) {
	doc := []byte(`
meta:
  seed: 42
  world_size_m: 2048
  vertical_min: -100.5
  vertical_max: 200.25
  core_version: 1
  suite_version: 2
  compat_profile_id: 3
fixtures:
  energy: fixtures/energy.fixture
  heat: fixtures/heat.fixture
chunks:
  - chunk_id: 1
    cx: 0
    cy: 0
  - chunk_id: 2
    cx: 1
    cy: 0
`)
	s, err := ParseScenario(doc)
	if err != nil {
		t.Fatalf("unexpected parse error: %v", err)
	}
	if s.Meta.Seed != 42 || s.Meta.WorldSizeM != 2048 {
		t.Fatalf("expected meta fields to parse, got %+v", s.Meta)
	}
	if s.Fixtures.Energy != "fixtures/energy.fixture" {
		t.Fatalf("expected energy fixture path to parse, got %q", s.Fixtures.Energy)
	}
	if len(s.Chunks) != 2 {
		t.Fatalf("expected two chunk entries, got %d", len(s.Chunks))
	}

	meta := s.WorldMeta()
	if meta.Seed != 42 {
		t.Fatalf("expected WorldMeta to carry seed through, got %d", meta.Seed)
	}
	chunks := s.WorldChunks()
	if len(chunks) != 2 || chunks[1].Cx != 1 {
		t.Fatalf("expected WorldChunks to carry grid entries through, got %+v", chunks)
	}
}
