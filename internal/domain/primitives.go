// Package domain implements the primitives shared by every field-subsystem
// resolver in Domino: cost policies, the budget back-pressure counter, the
// QueryMeta record attached to every sample, geometric helpers, and the
// domain lifecycle state machine. Grounded stylistically on small,
// single-purpose struct files (e.g. common_structs.go); unlike the
// concurrent engines elsewhere in the corpus, nothing here takes a lock —
// callers are expected to serialize access to a domain themselves.
package domain

import "github.com/domino-sim/domino/internal/fixedpoint"

// CostTier names the policy-configurable cost of one unit of work at a
// given resolution.
type CostTier int

// Resolution describes how precisely a sample was obtained.
type Resolution int

const (
	ResExact Resolution = iota
	ResAnalytic
	ResCoarse
	ResRefused
)

// Confidence describes how much to trust a sampled value.
type Confidence int

const (
	ConfidenceExact Confidence = iota
	ConfidenceApprox
	ConfidenceUnknown
)

// Status is the outcome of a query or resolve call.
type Status int

const (
	StatusOK Status = iota
	StatusRefused
)

// RefusalReason enumerates why a query or resolve call was refused.
type RefusalReason int

const (
	RefuseNone RefusalReason = iota
	RefuseBudget
	RefuseDomainInactive
	RefuseNoSource
	RefusePolicy
	RefuseMissing
	RefuseCapacity
	RefuseInsufficient
	RefuseInternal
)

// Policy holds the per-operation cost tiers and a resolution cap a domain
// will honor: cost_full/medium/coarse/analytic, one per Resolution tier.
type Policy struct {
	CostFull     int
	CostMedium   int
	CostCoarse   int
	CostAnalytic int
	MaxResolution Resolution
}

// DefaultPolicy returns a conservative policy with cost 1 per tier and no
// resolution cap, matching the "*_surface_desc_init writes defaults"
// convention every domain's Init follows.
func DefaultPolicy() Policy {
	return Policy{CostFull: 1, CostMedium: 1, CostCoarse: 1, CostAnalytic: 1, MaxResolution: ResExact}
}

// Budget is a caller-provided cost counter: consume(n) succeeds iff
// used+n <= max, in which case it increments used.
type Budget struct {
	UsedUnits int
	MaxUnits  int
}

// NewBudget constructs a Budget with the given maximum and zero usage.
func NewBudget(max int) Budget {
	return Budget{MaxUnits: max}
}

// Consume attempts to account n more cost units. It performs a saturating
// addition into UsedUnits and returns false without mutating state if the
// sum would exceed MaxUnits.
func (b *Budget) Consume(n int) bool {
	sum := b.UsedUnits + n
	if sum < b.UsedUnits || sum > b.MaxUnits { // sum < UsedUnits guards int overflow
		return false
	}
	b.UsedUnits = sum
	return true
}

// Exhausted reports whether no further units can be consumed at all (a
// convenience for callers reporting budget state).
func (b Budget) Exhausted() bool {
	return b.UsedUnits >= b.MaxUnits
}

// QueryMeta accompanies every sample returned by a query or resolve call.
type QueryMeta struct {
	Status        Status
	Resolution    Resolution
	Confidence    Confidence
	RefusalReason RefusalReason
	CostUnits     int
	BudgetUsed    int
	BudgetMax     int
}

// QueryMetaOK fills a QueryMeta for a successful sample.
func QueryMetaOK(resolution Resolution, confidence Confidence, costUnits int, b Budget) QueryMeta {
	return QueryMeta{
		Status:        StatusOK,
		Resolution:    resolution,
		Confidence:    confidence,
		RefusalReason: RefuseNone,
		CostUnits:     costUnits,
		BudgetUsed:    b.UsedUnits,
		BudgetMax:     b.MaxUnits,
	}
}

// QueryMetaRefused fills a QueryMeta for a refused query.
func QueryMetaRefused(reason RefusalReason, b Budget) QueryMeta {
	return QueryMeta{
		Status:        StatusRefused,
		Resolution:    ResRefused,
		Confidence:    ConfidenceUnknown,
		RefusalReason: reason,
		CostUnits:     0,
		BudgetUsed:    b.UsedUnits,
		BudgetMax:     b.MaxUnits,
	}
}

// Point is a 3D coordinate in Q16.16.
type Point struct {
	X, Y, Z fixedpoint.Q16
}

// AABB is an axis-aligned bounding box described by two corner points.
type AABB struct {
	Min, Max Point
}

// Contains reports whether p lies within the box, inclusive of the
// boundary on every axis.
func (b AABB) Contains(p Point) bool {
	return p.X >= b.Min.X && p.X <= b.Max.X &&
		p.Y >= b.Min.Y && p.Y <= b.Max.Y &&
		p.Z >= b.Min.Z && p.Z <= b.Max.Z
}

// Existence is a domain's coarse lifecycle stage.
type Existence int

const (
	ExistenceNonexistent Existence = iota
	ExistenceDeclared
	ExistenceRealized
)

// Archival marks whether a domain's state is actively maintained or
// archived (read-only, no resolve activity expected).
type Archival int

const (
	ArchivalLive Archival = iota
	ArchivalArchived
)

// State bundles a domain's existence and archival stage.
type State struct {
	Existence Existence
	Archival  Archival
}

// Active reports whether the domain may be resolved/queried in full: a
// domain is active iff its existence stage is Realized.
func (s State) Active() bool {
	return s.Existence == ExistenceRealized
}
