package worldcore

import "github.com/domino-sim/domino/internal/worldhash"

// Hash computes the world's deterministic FNV-1a 64 digest: meta and
// tick_count, the registry's instance blob, and every chunk's own
// chunk-scoped registry payload, folded via internal/worldhash in the
// canonical (cx, cy) sort order it imposes.
func (w *World) Hash() (worldhash.Hash, error) {
	instance, err := w.Registry.SaveInstanceAll()
	if err != nil {
		return 0, err
	}

	inputs := make([]worldhash.ChunkInput, 0, len(w.Chunks))
	for _, chunk := range w.Chunks {
		payload, err := w.Registry.SaveChunkAll(uint64(chunk.ChunkID))
		if err != nil {
			return 0, err
		}
		inputs = append(inputs, worldhash.ChunkInput{
			ChunkID: chunk.ChunkID,
			Cx:      chunk.Cx,
			Cy:      chunk.Cy,
			Flags:   uint32(chunk.Flags),
			Payload: payload,
		})
	}

	meta := worldhash.Meta{
		Seed:            w.Meta.Seed,
		WorldSizeM:      w.Meta.WorldSizeM,
		VerticalMin:     w.Meta.VerticalMin,
		VerticalMax:     w.Meta.VerticalMax,
		CoreVersion:     w.Meta.CoreVersion,
		SuiteVersion:    w.Meta.SuiteVersion,
		CompatProfileID: w.Meta.CompatProfileID,
	}
	return worldhash.HashWorld(meta, w.TickCount, instance, inputs), nil
}
