package worldcore

import "errors"

var errChunkNotFound = errors.New("worldcore: chunk not found")

// AddChunk appends a new chunk, returning an error if its chunk_id
// collides with one already present — chunk_id is the lookup key and
// must be unique within a world, the same way a field domain's entity
// id must be unique within a surface.
func (w *World) AddChunk(chunk Chunk) error {
	if w.findChunkIndex(chunk.ChunkID) >= 0 {
		return errors.New("worldcore: duplicate chunk id")
	}
	w.Chunks = append(w.Chunks, chunk)
	return nil
}

func (w *World) findChunkIndex(chunkID uint32) int {
	for i := range w.Chunks {
		if w.Chunks[i].ChunkID == chunkID {
			return i
		}
	}
	return -1
}

// ChunkByID returns a pointer to the chunk with the given id, or nil.
func (w *World) ChunkByID(chunkID uint32) *Chunk {
	idx := w.findChunkIndex(chunkID)
	if idx < 0 {
		return nil
	}
	return &w.Chunks[idx]
}

// RemoveChunk drops the chunk with the given id, reporting
// errChunkNotFound if it isn't present. Compaction matches the
// bounded-slice removal pattern every field package's inventory/entity
// lists use.
func (w *World) RemoveChunk(chunkID uint32) error {
	idx := w.findChunkIndex(chunkID)
	if idx < 0 {
		return errChunkNotFound
	}
	w.Chunks = append(w.Chunks[:idx], w.Chunks[idx+1:]...)
	return nil
}
