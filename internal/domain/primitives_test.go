package domain

import (
	"testing"

	"github.com/domino-sim/domino/internal/fixedpoint"
)

func fromInt(n int32) fixedpoint.Q16 { return fixedpoint.FromInt(n) }

func TestBudgetConsume(t *testing.T) {
	b := NewBudget(1)
	if !b.Consume(1) {
		t.Fatalf("expected first unit to be consumable")
	}
	if b.Consume(1) {
		t.Fatalf("budget should be exhausted after consuming its only unit")
	}
	if b.UsedUnits != 1 {
		t.Fatalf("failed Consume must not mutate UsedUnits, got %d", b.UsedUnits)
	}
}

func TestBudgetZeroMaxRefusesEverything(t *testing.T) {
	b := NewBudget(0)
	if b.Consume(1) {
		t.Fatalf("max_units=0 must refuse every consuming operation")
	}
}

func TestBudgetExactFit(t *testing.T) {
	b := NewBudget(5)
	if !b.Consume(5) {
		t.Fatalf("consuming exactly the max should succeed")
	}
	if b.Consume(1) {
		t.Fatalf("no headroom should remain after an exact-fit consume")
	}
}

func TestQueryMetaOKAndRefused(t *testing.T) {
	b := NewBudget(10)
	b.Consume(3)
	ok := QueryMetaOK(ResExact, ConfidenceExact, 3, b)
	if ok.Status != StatusOK || ok.RefusalReason != RefuseNone {
		t.Fatalf("QueryMetaOK populated incorrectly: %+v", ok)
	}
	refused := QueryMetaRefused(RefuseBudget, b)
	if refused.Status != StatusRefused || refused.Resolution != ResRefused || refused.Confidence != ConfidenceUnknown {
		t.Fatalf("QueryMetaRefused populated incorrectly: %+v", refused)
	}
	if refused.CostUnits != 0 {
		t.Fatalf("a refused query must report zero cost units, got %d", refused.CostUnits)
	}
}

func TestAABBContainsInclusive(t *testing.T) {
	box := AABB{
		Min: Point{X: fromInt(0), Y: fromInt(0), Z: fromInt(0)},
		Max: Point{X: fromInt(10), Y: fromInt(10), Z: fromInt(10)},
	}
	onBoundary := Point{X: fromInt(10), Y: fromInt(0), Z: fromInt(5)}
	if !box.Contains(onBoundary) {
		t.Fatalf("AABB.Contains must be inclusive of the boundary")
	}
	outside := Point{X: fromInt(11), Y: fromInt(0), Z: fromInt(0)}
	if box.Contains(outside) {
		t.Fatalf("point outside the box must not be contained")
	}
}

func TestDomainStateActive(t *testing.T) {
	cases := []struct {
		s    State
		want bool
	}{
		{State{Existence: ExistenceNonexistent}, false},
		{State{Existence: ExistenceDeclared}, false},
		{State{Existence: ExistenceRealized}, true},
	}
	for _, c := range cases {
		if got := c.s.Active(); got != c.want {
			t.Errorf("State{%v}.Active() = %v, want %v", c.s.Existence, got, c.want)
		}
	}
}
