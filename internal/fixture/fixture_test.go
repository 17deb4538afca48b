package fixture

import (
	"bytes"
	"strings"
	"testing"
)

const testHeader = "DOMINIUM_TEST_FIXTURE_V1"

func TestParseRejectsMissingHeader(t *testing.T) {
	_, err := Parse([]byte("foo=1\n"), testHeader)
	if err != errBadHeader {
		t.Fatalf("got err %v, want errBadHeader", err)
	}
}

func TestParseRejectsMismatchedHeader(t *testing.T) {
	_, err := Parse([]byte("DOMINIUM_OTHER_FIXTURE_V1\nfoo=1\n"), testHeader)
	if err != errBadHeader {
		t.Fatalf("got err %v, want errBadHeader", err)
	}
}

func TestParseSkipsBlankAndCommentLines(t *testing.T) {
	data := strings.Join([]string{
		"# a comment before the header is still skipped",
		"",
		testHeader,
		"# comment",
		"",
		"a=1",
		"b=2",
	}, "\n")
	f, err := Parse([]byte(data), testHeader)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if f.Header != testHeader {
		t.Fatalf("got header %q", f.Header)
	}
	want := []Pair{{"a", "1"}, {"b", "2"}}
	if len(f.Pairs) != len(want) {
		t.Fatalf("got %d pairs, want %d", len(f.Pairs), len(want))
	}
	for i, p := range want {
		if f.Pairs[i] != p {
			t.Fatalf("pair %d: got %+v, want %+v", i, f.Pairs[i], p)
		}
	}
}

func TestParseTrimsKeyAndValue(t *testing.T) {
	data := testHeader + "\n  store_capacity  =  42  \n"
	f, err := Parse([]byte(data), testHeader)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(f.Pairs) != 1 || f.Pairs[0].Key != "store_capacity" || f.Pairs[0].Value != "42" {
		t.Fatalf("got %+v", f.Pairs)
	}
}

func TestParseIgnoresLinesWithoutEquals(t *testing.T) {
	data := testHeader + "\nnot_a_pair\na=1\n"
	f, err := Parse([]byte(data), testHeader)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(f.Pairs) != 1 || f.Pairs[0].Key != "a" {
		t.Fatalf("got %+v", f.Pairs)
	}
}

func TestParseUintAutoDetectsBase(t *testing.T) {
	cases := map[string]uint64{
		"42":    42,
		"0x2a":  0x2a,
		"052":   052,
		"0":     0,
	}
	for text, want := range cases {
		got, err := ParseUint(text, 32)
		if err != nil {
			t.Fatalf("ParseUint(%q): %v", text, err)
		}
		if got != want {
			t.Fatalf("ParseUint(%q) = %d, want %d", text, got, want)
		}
	}
}

func TestParseQ16RoundTrips(t *testing.T) {
	q, err := ParseQ16("1.5")
	if err != nil {
		t.Fatalf("ParseQ16: %v", err)
	}
	if got := q.ToFloat64(); got != 1.5 {
		t.Fatalf("got %v, want 1.5", got)
	}
}

func TestParseQ48RoundTrips(t *testing.T) {
	q, err := ParseQ48("1000000.25")
	if err != nil {
		t.Fatalf("ParseQ48: %v", err)
	}
	if got := q.ToFloat64(); got != 1000000.25 {
		t.Fatalf("got %v, want 1000000.25", got)
	}
}

func TestParseTriplet(t *testing.T) {
	x, y, z, err := ParseTriplet("1.0,2.0,3.0")
	if err != nil {
		t.Fatalf("ParseTriplet: %v", err)
	}
	if x.ToFloat64() != 1.0 || y.ToFloat64() != 2.0 || z.ToFloat64() != 3.0 {
		t.Fatalf("got (%v, %v, %v)", x, y, z)
	}
}

func TestParseTripletRejectsWrongPartCount(t *testing.T) {
	_, _, _, err := ParseTriplet("1.0,2.0")
	if err != errBadTriplet {
		t.Fatalf("got err %v, want errBadTriplet", err)
	}
}

func TestIndexedKey(t *testing.T) {
	index, suffix, ok := IndexedKey("store_3_capacity", "store_")
	if !ok || index != 3 || suffix != "capacity" {
		t.Fatalf("got (%d, %q, %v)", index, suffix, ok)
	}
}

func TestIndexedKeyRejectsNonMatchingPrefix(t *testing.T) {
	_, _, ok := IndexedKey("node_3_capacity", "store_")
	if ok {
		t.Fatal("expected ok=false for non-matching prefix")
	}
}

func TestIndexedKeyRejectsMissingUnderscore(t *testing.T) {
	_, _, ok := IndexedKey("store_3", "store_")
	if ok {
		t.Fatal("expected ok=false for missing suffix")
	}
}

func TestWriterFormatsQValuesWithSuffix(t *testing.T) {
	var buf bytes.Buffer
	out := NewWriter(&buf)
	out.Header("DOMINIUM_ENERGY_RESOLVE_V1")
	out.KV("status", "ok")
	q16, err := ParseQ16("1.5")
	if err != nil {
		t.Fatalf("ParseQ16: %v", err)
	}
	q48, err := ParseQ48("2.25")
	if err != nil {
		t.Fatalf("ParseQ48: %v", err)
	}
	out.Q16("delta", q16)
	out.Q48("total", q48)

	want := "DOMINIUM_ENERGY_RESOLVE_V1\nstatus=ok\ndelta_q16=98304\ntotal_q48=147456\n"
	if buf.String() != want {
		t.Fatalf("got:\n%s\nwant:\n%s", buf.String(), want)
	}
}
