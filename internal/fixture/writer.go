package fixture

import (
	"fmt"
	"io"

	"github.com/domino-sim/domino/internal/fixedpoint"
)

// Writer prints a CLI tool's output contract: one header line, then
// key=value lines. Q-valued fields are printed as their raw signed
// integer representation with a _q16/_q48 suffix on the key — never as
// a decimal approximation, since the raw integer is the bit-exact value
// a test harness diffs against.
type Writer struct {
	w io.Writer
}

// NewWriter wraps w for fixture-contract output.
func NewWriter(w io.Writer) *Writer {
	return &Writer{w: w}
}

// Header prints the DOMINIUM_<SUBSYSTEM>_<COMMAND>_V1 line.
func (out *Writer) Header(header string) {
	fmt.Fprintln(out.w, header)
}

// KV prints a plain key=value line.
func (out *Writer) KV(key string, value any) {
	fmt.Fprintf(out.w, "%s=%v\n", key, value)
}

// Q16 prints a Q16.16 field as its raw signed integer with a _q16
// suffix on the key.
func (out *Writer) Q16(key string, value fixedpoint.Q16) {
	fmt.Fprintf(out.w, "%s_q16=%d\n", key, int32(value))
}

// Q48 prints a Q48.16 field as its raw signed integer with a _q48
// suffix on the key.
func (out *Writer) Q48(key string, value fixedpoint.Q48) {
	fmt.Fprintf(out.w, "%s_q48=%d\n", key, int64(value))
}
