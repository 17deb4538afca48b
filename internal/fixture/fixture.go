// Package fixture implements the key=value fixture file grammar the
// CLI tools read their inputs from, and the matching key=value output
// writer they print their results through.
//
// Grounded on original_source/tools/energy/energy_cli.cpp's
// energy_fixture_load/energy_fixture_apply (the line scanning, header
// check, and per-key dispatch pattern every *_cli.cpp tool repeats
// with its own domain's key set).
package fixture

import (
	"bufio"
	"bytes"
	"strconv"
	"strings"

	"github.com/domino-sim/domino/internal/fixedpoint"
)

// Pair is one parsed key=value line, in file order. Order is preserved
// because some keys are order-sensitive indexed entries
// (store_0_id, store_1_id, ...) whose declaration order is also their
// array position.
type Pair struct {
	Key   string
	Value string
}

// File is a parsed fixture: its validated header line plus every
// key=value pair that followed it, in declaration order.
type File struct {
	Header string
	Pairs  []Pair
}

// Parse scans fixture text: blank lines and lines starting with "#"
// are ignored, the first non-blank line must equal wantHeader exactly
// or parsing fails, and every following non-blank, non-comment line
// is split at its "=" into a trimmed key and value; a line with no "="
// is skipped.
// Unknown keys are not rejected here — the grammar says unknown keys
// are ignored, and "unknown" is a property of the caller's dispatch
// table, not of the fixture grammar itself.
func Parse(data []byte, wantHeader string) (*File, error) {
	scanner := bufio.NewScanner(bytes.NewReader(data))
	file := &File{}
	headerSeen := false

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if !headerSeen {
			if line != wantHeader {
				return nil, errBadHeader
			}
			file.Header = line
			headerSeen = true
			continue
		}
		eq := strings.IndexByte(line, '=')
		if eq < 0 {
			continue
		}
		key := strings.TrimSpace(line[:eq])
		value := strings.TrimSpace(line[eq+1:])
		file.Pairs = append(file.Pairs, Pair{Key: key, Value: value})
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	if !headerSeen {
		return nil, errBadHeader
	}
	return file, nil
}

// ParseUint parses a u32/u64-grammar integer: decimal, 0x-prefixed
// hex, or 0-prefixed octal, matching strtoul's base-0 auto-detection.
func ParseUint(text string, bitSize int) (uint64, error) {
	return strconv.ParseUint(text, 0, bitSize)
}

// ParseQ16 parses a decimal floating-point literal into Q16.16 via a
// rounded multiply, matching d_q16_16_from_double.
func ParseQ16(text string) (fixedpoint.Q16, error) {
	v, err := strconv.ParseFloat(text, 64)
	if err != nil {
		return 0, err
	}
	return fixedpoint.FromFloat64(v), nil
}

// ParseQ48 parses a decimal floating-point literal into Q48.16.
func ParseQ48(text string) (fixedpoint.Q48, error) {
	v, err := strconv.ParseFloat(text, 64)
	if err != nil {
		return 0, err
	}
	return fixedpoint.Q48FromFloat64(v), nil
}

// ParseTriplet parses a "x,y,z" comma-separated Q16.16 triplet, the
// grammar used for point-valued fixture keys.
func ParseTriplet(text string) (x, y, z fixedpoint.Q16, err error) {
	parts := strings.Split(text, ",")
	if len(parts) != 3 {
		return 0, 0, 0, errBadTriplet
	}
	x, err = ParseQ16(strings.TrimSpace(parts[0]))
	if err != nil {
		return 0, 0, 0, err
	}
	y, err = ParseQ16(strings.TrimSpace(parts[1]))
	if err != nil {
		return 0, 0, 0, err
	}
	z, err = ParseQ16(strings.TrimSpace(parts[2]))
	if err != nil {
		return 0, 0, 0, err
	}
	return x, y, z, nil
}

// IndexedKey splits a key like "store_3_capacity" against prefix
// "store_" into the numeric index 3 and the suffix "capacity". ok is
// false if key doesn't start with prefix followed by digits and an
// underscore.
func IndexedKey(key, prefix string) (index uint32, suffix string, ok bool) {
	if !strings.HasPrefix(key, prefix) {
		return 0, "", false
	}
	rest := key[len(prefix):]
	underscore := strings.IndexByte(rest, '_')
	if underscore <= 0 {
		return 0, "", false
	}
	n, err := strconv.ParseUint(rest[:underscore], 10, 32)
	if err != nil {
		return 0, "", false
	}
	return uint32(n), rest[underscore+1:], true
}
