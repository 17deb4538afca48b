package worldcore

import (
	"encoding/binary"
	"errors"
)

// Magic is the fixed 4-byte prefix of every world save file.
var Magic = [4]byte{'D', 'W', 'R', 'L'}

const (
	// VersionLegacy is the v1 flat-record format: the magic and
	// version are followed directly by raw subsystem records with
	// [u16 type LE][u32 length LE] headers, no outer registry TLV
	// framing.
	VersionLegacy uint16 = 1
	// VersionRegistry is the v2 format: the magic and version are
	// followed by the registry's own [u32 tag LE][u32 length LE]
	// TLV stream, as produced by Registry.SaveInstanceAll.
	VersionRegistry uint16 = 2
)

var (
	errBadMagic           = errors.New("worldcore: bad save file magic")
	errUnsupportedVersion = errors.New("worldcore: unsupported save file version")
	errTruncatedHeader    = errors.New("worldcore: truncated legacy record header")
	errTruncatedPayload   = errors.New("worldcore: truncated legacy record payload")
)

const legacyHeaderSize = 6

// Save serializes the world's header plus its registry instance blob
// into the current (v2) format. Chunk payloads are not included here —
// callers persist each chunk's blob separately via SaveChunk, mirroring
// the original's split between instance and per-chunk save calls.
func (w *World) Save() ([]byte, error) {
	instance, err := w.Registry.SaveInstanceAll()
	if err != nil {
		return nil, err
	}
	out := make([]byte, 0, 4+2+len(instance))
	out = append(out, Magic[:]...)
	var versionBuf [2]byte
	binary.LittleEndian.PutUint16(versionBuf[:], VersionRegistry)
	out = append(out, versionBuf[:]...)
	out = append(out, instance...)
	return out, nil
}

// Load restores the world's registered subsystems from a save blob
// produced by Save (v2) or a legacy v1 file. An unrecognized magic is
// a hard failure; an unrecognized version is a hard failure; malformed
// framing within a recognized version is a hard failure — serialization
// corruption is always a hard failure, never a silent partial load.
func (w *World) Load(blob []byte) error {
	if len(blob) < 6 {
		return errBadMagic
	}
	var magic [4]byte
	copy(magic[:], blob[0:4])
	if magic != Magic {
		return errBadMagic
	}
	version := binary.LittleEndian.Uint16(blob[4:6])
	body := blob[6:]

	switch version {
	case VersionRegistry:
		return w.Registry.LoadInstanceAll(body)
	case VersionLegacy:
		return w.loadLegacy(body)
	default:
		return errUnsupportedVersion
	}
}

// loadLegacy dispatches a v1 record stream — [u16 type LE][u32 length
// LE][bytes], no outer TLV framing — to the same registered
// subsystems, widening each u16 type to the registry's u32 tag space.
// Tags in this module all fit within u16, so the widening is lossless.
func (w *World) loadLegacy(body []byte) error {
	offset := 0
	for offset < len(body) {
		remaining := len(body) - offset
		if remaining < legacyHeaderSize {
			return errTruncatedHeader
		}
		recType := binary.LittleEndian.Uint16(body[offset : offset+2])
		length := binary.LittleEndian.Uint32(body[offset+2 : offset+6])
		start := offset + legacyHeaderSize
		end := start + int(length)
		if end > len(body) {
			return errTruncatedPayload
		}
		payload := body[start:end]
		offset = end

		if err := w.Registry.LoadInstanceAll(prependRegistryTag(uint32(recType), payload)); err != nil {
			return err
		}
	}
	return nil
}

// prependRegistryTag re-frames a single legacy payload as a one-entry
// v2 TLV stream so it can be routed through the same
// Registry.LoadInstanceAll dispatch logic instead of duplicating tag
// resolution here.
func prependRegistryTag(tag uint32, payload []byte) []byte {
	out := make([]byte, 8+len(payload))
	binary.LittleEndian.PutUint32(out[0:4], tag)
	binary.LittleEndian.PutUint32(out[4:8], uint32(len(payload)))
	copy(out[8:], payload)
	return out
}
