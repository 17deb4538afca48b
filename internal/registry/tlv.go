package registry

import "encoding/binary"

// tlvEntry is one decoded [tag][length][payload] record read off a blob.
type tlvEntry struct {
	tag     uint32
	payload []byte
}

// appendEntry appends one TLV-framed entry to dst and returns the grown
// slice, growing by Go's ordinary append doubling rather than the
// original's hand-rolled capacity-doubling builder — append already gives
// the same amortized cost without a separate capacity field to track.
func appendEntry(dst []byte, tag uint32, payload []byte) []byte {
	var header [headerSize]byte
	binary.LittleEndian.PutUint32(header[0:4], tag)
	binary.LittleEndian.PutUint32(header[4:8], uint32(len(payload)))
	dst = append(dst, header[:]...)
	dst = append(dst, payload...)
	return dst
}

// readEntry decodes the single TLV entry starting at offset. It reports
// the entry, the offset immediately past it, and an error if the header
// or payload runs past the end of blob.
func readEntry(blob []byte, offset int) (tlvEntry, int, error) {
	remaining := len(blob) - offset
	if remaining < headerSize {
		return tlvEntry{}, offset, errTruncatedHeader
	}
	tag := binary.LittleEndian.Uint32(blob[offset : offset+4])
	length := binary.LittleEndian.Uint32(blob[offset+4 : offset+8])
	start := offset + headerSize
	end := start + int(length)
	if end > len(blob) {
		return tlvEntry{}, offset, errTruncatedPayload
	}
	return tlvEntry{tag: tag, payload: blob[start:end]}, end, nil
}
