package worldhash

import "testing"

func sampleMeta() Meta {
	return Meta{
		Seed:            42,
		WorldSizeM:      1024,
		VerticalMin:     -1000,
		VerticalMax:     2000,
		CoreVersion:     1,
		SuiteVersion:    3,
		CompatProfileID: 7,
	}
}

func TestHashWorldDeterministic(t *testing.T) {
	chunks := []ChunkInput{
		{ChunkID: 1, Cx: 0, Cy: 0, Flags: 0, Payload: []byte("a")},
		{ChunkID: 2, Cx: 1, Cy: 0, Flags: 0, Payload: []byte("b")},
	}
	h1 := HashWorld(sampleMeta(), 5, []byte("instance"), chunks)
	h2 := HashWorld(sampleMeta(), 5, []byte("instance"), chunks)
	if h1 != h2 {
		t.Fatalf("expected repeated hash of identical inputs to match, got %x vs %x", h1, h2)
	}
}

func TestHashWorldOrderIndependentOfChunkSliceOrder(t *testing.T) {
	forward := []ChunkInput{
		{ChunkID: 1, Cx: 0, Cy: 0, Payload: []byte("a")},
		{ChunkID: 2, Cx: 1, Cy: 0, Payload: []byte("b")},
		{ChunkID: 3, Cx: 1, Cy: 1, Payload: []byte("c")},
	}
	reversed := []ChunkInput{forward[2], forward[0], forward[1]}

	h1 := HashWorld(sampleMeta(), 1, nil, forward)
	h2 := HashWorld(sampleMeta(), 1, nil, reversed)
	if h1 != h2 {
		t.Fatalf("expected hash to be independent of input chunk slice order, got %x vs %x", h1, h2)
	}
}

func TestHashWorldSensitiveToChunkPayload(t *testing.T) {
	base := []ChunkInput{{ChunkID: 1, Cx: 0, Cy: 0, Payload: []byte("a")}}
	changed := []ChunkInput{{ChunkID: 1, Cx: 0, Cy: 0, Payload: []byte("z")}}

	h1 := HashWorld(sampleMeta(), 1, nil, base)
	h2 := HashWorld(sampleMeta(), 1, nil, changed)
	if h1 == h2 {
		t.Fatalf("expected differing chunk payloads to change the world hash")
	}
}

func TestHashWorldSensitiveToMeta(t *testing.T) {
	m1 := sampleMeta()
	m2 := sampleMeta()
	m2.Seed = m1.Seed + 1

	h1 := HashWorld(m1, 1, nil, nil)
	h2 := HashWorld(m2, 1, nil, nil)
	if h1 == h2 {
		t.Fatalf("expected differing meta.seed to change the world hash")
	}
}

func TestHashChunkPayloadDiffersFromIdentity(t *testing.T) {
	chunk := ChunkInput{ChunkID: 9, Cx: -2, Cy: 3, Flags: 0x10, Payload: []byte("payload")}
	identity := HashChunkIdentity(chunk)
	payload := HashChunkPayload(chunk)
	if identity == payload {
		t.Fatalf("expected payload hash to differ from bare identity hash when payload is non-empty")
	}
}

func TestHashWorldEmptyChunksStillDeterministic(t *testing.T) {
	h1 := HashWorld(sampleMeta(), 0, nil, nil)
	h2 := HashWorld(sampleMeta(), 0, nil, []ChunkInput{})
	if h1 != h2 {
		t.Fatalf("expected nil and empty chunk slices to hash identically, got %x vs %x", h1, h2)
	}
}
