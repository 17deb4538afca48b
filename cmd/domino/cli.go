package main

import (
	"fmt"
	"os"

	"github.com/domino-sim/domino/internal/fixedpoint"
	"github.com/domino-sim/domino/internal/fixture"
)

// newWriter returns a fixture.Writer printing the current command's output
// contract to stdout.
func newWriter() *fixture.Writer {
	return fixture.NewWriter(os.Stdout)
}

// Exit codes mirror every tools/*_cli.cpp's contract: 0 success, 1 a
// logic-level refusal the domain itself reported, 2 a usage or
// fixture-load failure.
const (
	exitOK   = 0
	exitFail = 1
	exitUsage = 2
)

// loadFixture reads path and parses it against wantHeader, printing a usage
// diagnostic and exiting 2 on any failure — the same contract
// energy_fixture_load's caller enforces in main().
func loadFixture(path, wantHeader string) *fixture.File {
	if path == "" {
		fmt.Fprintln(os.Stderr, "domino: missing --fixture")
		os.Exit(exitUsage)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "domino: cannot read fixture: %v\n", err)
		os.Exit(exitUsage)
	}
	f, err := fixture.Parse(data, wantHeader)
	if err != nil {
		fmt.Fprintf(os.Stderr, "domino: invalid fixture: %v\n", err)
		os.Exit(exitUsage)
	}
	return f
}

// mustParseUint exits 2 on a malformed fixture value, matching the C
// parsers' all-or-nothing fixture_apply contract.
func mustParseUint(text string, bitSize int, key string) uint64 {
	v, err := fixture.ParseUint(text, bitSize)
	if err != nil {
		fmt.Fprintf(os.Stderr, "domino: invalid value for %s: %v\n", key, err)
		os.Exit(exitUsage)
	}
	return v
}

func mustParseQ16(text, key string) fixedpoint.Q16 {
	q, err := fixture.ParseQ16(text)
	if err != nil {
		fmt.Fprintf(os.Stderr, "domino: invalid value for %s: %v\n", key, err)
		os.Exit(exitUsage)
	}
	return q
}

func mustParseQ48(text, key string) fixedpoint.Q48 {
	q, err := fixture.ParseQ48(text)
	if err != nil {
		fmt.Fprintf(os.Stderr, "domino: invalid value for %s: %v\n", key, err)
		os.Exit(exitUsage)
	}
	return q
}

func mustParseTriplet(text, key string) (x, y, z fixedpoint.Q16) {
	x, y, z, err := fixture.ParseTriplet(text)
	if err != nil {
		fmt.Fprintf(os.Stderr, "domino: invalid value for %s: %v\n", key, err)
		os.Exit(exitUsage)
	}
	return x, y, z
}

// fixedQ16Flag is a pflag.Value that accepts a decimal ambient-condition
// value (e.g. "20.5") and stores it as Q16.16, the same unit every
// crafting.Conditions field is authored in.
type fixedQ16Flag struct {
	value fixedpoint.Q16
}

func (f *fixedQ16Flag) String() string {
	return fmt.Sprintf("%g", f.value.ToFloat64())
}

func (f *fixedQ16Flag) Set(text string) error {
	q, err := fixture.ParseQ16(text)
	if err != nil {
		return err
	}
	f.value = q
	return nil
}

func (f *fixedQ16Flag) Type() string { return "q16" }
