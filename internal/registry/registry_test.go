package registry

import (
	"bytes"
	"testing"
)

type fakeSubsystem struct {
	tag      uint32
	instance []byte
	loaded   []byte
	chunks   map[uint64][]byte
}

func (f *fakeSubsystem) Tag() uint32 { return f.tag }

func (f *fakeSubsystem) SaveInstance() ([]byte, error) {
	return f.instance, nil
}

func (f *fakeSubsystem) LoadInstance(payload []byte) error {
	f.loaded = append([]byte(nil), payload...)
	return nil
}

func (f *fakeSubsystem) SaveChunk(chunkID uint64) ([]byte, error) {
	return f.chunks[chunkID], nil
}

func (f *fakeSubsystem) LoadChunk(chunkID uint64, payload []byte) error {
	if f.chunks == nil {
		f.chunks = map[uint64][]byte{}
	}
	f.chunks[chunkID] = append([]byte(nil), payload...)
	return nil
}

func TestRegisterRejectsDuplicateTag(t *testing.T) {
	r := NewRegistry()
	if err := r.Register(&fakeSubsystem{tag: TagEnergy}); err != nil {
		t.Fatalf("unexpected error on first register: %v", err)
	}
	if err := r.Register(&fakeSubsystem{tag: TagEnergy}); err != errDuplicateTag {
		t.Fatalf("expected duplicate tag error, got %v", err)
	}
}

func TestSaveLoadInstanceAllRoundTrips(t *testing.T) {
	r := NewRegistry()
	energy := &fakeSubsystem{tag: TagEnergy, instance: []byte("energy-state")}
	heat := &fakeSubsystem{tag: TagHeat, instance: []byte("heat-state")}
	r.Register(energy)
	r.Register(heat)

	blob, err := r.SaveInstanceAll()
	if err != nil {
		t.Fatalf("unexpected save error: %v", err)
	}

	loadEnergy := &fakeSubsystem{tag: TagEnergy}
	loadHeat := &fakeSubsystem{tag: TagHeat}
	r2 := NewRegistry()
	r2.Register(loadEnergy)
	r2.Register(loadHeat)

	if err := r2.LoadInstanceAll(blob); err != nil {
		t.Fatalf("unexpected load error: %v", err)
	}
	if !bytes.Equal(loadEnergy.loaded, energy.instance) {
		t.Fatalf("expected energy payload round-trip, got %q", loadEnergy.loaded)
	}
	if !bytes.Equal(loadHeat.loaded, heat.instance) {
		t.Fatalf("expected heat payload round-trip, got %q", loadHeat.loaded)
	}
}

func TestLoadInstanceAllSkipsUnknownTag(t *testing.T) {
	r := NewRegistry()
	known := &fakeSubsystem{tag: TagEnergy}
	r.Register(known)

	var blob []byte
	blob = appendEntry(blob, 0x2000, []byte("mod-data"))
	blob = appendEntry(blob, TagEnergy, []byte("energy-state"))

	if err := r.LoadInstanceAll(blob); err != nil {
		t.Fatalf("unexpected error skipping unknown tag: %v", err)
	}
	if string(known.loaded) != "energy-state" {
		t.Fatalf("expected known subsystem to still load its own entry, got %q", known.loaded)
	}
}

func TestLoadInstanceAllRejectsTruncatedHeader(t *testing.T) {
	r := NewRegistry()
	if err := r.LoadInstanceAll([]byte{1, 2, 3}); err != errTruncatedHeader {
		t.Fatalf("expected truncated header error, got %v", err)
	}
}

func TestLoadInstanceAllRejectsTruncatedPayload(t *testing.T) {
	r := NewRegistry()
	var blob []byte
	blob = appendEntry(blob, TagEnergy, []byte("full-payload"))
	blob = blob[:len(blob)-4]
	if err := r.LoadInstanceAll(blob); err != errTruncatedPayload {
		t.Fatalf("expected truncated payload error, got %v", err)
	}
}

func TestSaveLoadChunkAllRoundTrips(t *testing.T) {
	r := NewRegistry()
	energy := &fakeSubsystem{tag: TagEnergy, chunks: map[uint64][]byte{7: []byte("chunk-7-energy")}}
	r.Register(energy)

	blob, err := r.SaveChunkAll(7)
	if err != nil {
		t.Fatalf("unexpected save chunk error: %v", err)
	}

	loadEnergy := &fakeSubsystem{tag: TagEnergy}
	r2 := NewRegistry()
	r2.Register(loadEnergy)
	if err := r2.LoadChunkAll(7, blob); err != nil {
		t.Fatalf("unexpected load chunk error: %v", err)
	}
	if string(loadEnergy.chunks[7]) != "chunk-7-energy" {
		t.Fatalf("expected chunk payload round-trip, got %q", loadEnergy.chunks[7])
	}
}

func TestSaveChunkAllIncludesChunkSubsystem(t *testing.T) {
	r := NewRegistry()
	r.Register(&fakeSubsystem{tag: TagEnergy, chunks: map[uint64][]byte{1: []byte("x")}})
	blob, err := r.SaveChunkAll(1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(blob) == 0 {
		t.Fatalf("expected at least one chunk entry from the registered ChunkSubsystem")
	}
}
