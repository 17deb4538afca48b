package registry

// Register adds a subsystem to the registry. Subsystems are kept and
// always walked in the order they were registered in. Registering the
// same tag twice is an error.
func (r *Registry) Register(s Subsystem) error {
	if r.findByTag(s.Tag()) != nil {
		return errDuplicateTag
	}
	r.subsystems = append(r.subsystems, s)
	return nil
}

func (r *Registry) findByTag(tag uint32) Subsystem {
	for _, s := range r.subsystems {
		if s.Tag() == tag {
			return s
		}
	}
	return nil
}

// SaveInstanceAll walks every registered subsystem in registration order,
// asking each for its instance payload, and frames the results into one
// TLV blob. A subsystem that fails to save aborts the whole save with
// that error — a partially-written blob is never returned.
func (r *Registry) SaveInstanceAll() ([]byte, error) {
	var blob []byte
	for _, s := range r.subsystems {
		payload, err := s.SaveInstance()
		if err != nil {
			return nil, err
		}
		blob = appendEntry(blob, s.Tag(), payload)
	}
	return blob, nil
}

// LoadInstanceAll walks a TLV blob front to back, dispatching each
// entry's payload to the subsystem registered under its tag. An entry
// whose tag has no registered subsystem is skipped, not an error —
// a save made with a mod subsystem the current build doesn't have
// loads cleanly, just without that subsystem's state. A malformed
// header or payload length does abort, since that indicates the blob
// itself is corrupt rather than merely unfamiliar.
func (r *Registry) LoadInstanceAll(blob []byte) error {
	offset := 0
	for offset < len(blob) {
		entry, next, err := readEntry(blob, offset)
		if err != nil {
			return err
		}
		offset = next

		s := r.findByTag(entry.tag)
		if s == nil {
			continue
		}
		if err := s.LoadInstance(entry.payload); err != nil {
			return err
		}
	}
	return nil
}

// SaveChunkAll is SaveInstanceAll's per-chunk counterpart: only
// subsystems implementing ChunkSubsystem contribute an entry, since a
// global-only subsystem has nothing chunk-scoped to save.
func (r *Registry) SaveChunkAll(chunkID uint64) ([]byte, error) {
	var blob []byte
	for _, s := range r.subsystems {
		cs, ok := s.(ChunkSubsystem)
		if !ok {
			continue
		}
		payload, err := cs.SaveChunk(chunkID)
		if err != nil {
			return nil, err
		}
		blob = appendEntry(blob, cs.Tag(), payload)
	}
	return blob, nil
}

// LoadChunkAll is LoadInstanceAll's per-chunk counterpart. An entry
// tagged for a subsystem that isn't a ChunkSubsystem (or isn't
// registered at all) is skipped rather than treated as an error.
func (r *Registry) LoadChunkAll(chunkID uint64, blob []byte) error {
	offset := 0
	for offset < len(blob) {
		entry, next, err := readEntry(blob, offset)
		if err != nil {
			return err
		}
		offset = next

		s := r.findByTag(entry.tag)
		if s == nil {
			continue
		}
		cs, ok := s.(ChunkSubsystem)
		if !ok {
			continue
		}
		if err := cs.LoadChunk(chunkID, entry.payload); err != nil {
			return err
		}
	}
	return nil
}
