// Package energyfield implements the energy domain resolver: stores and
// flows connected into networks, leakage, efficiency and dissipation loss,
// randomized failure modes, cascade propagation, and macro-capsule collapse
// for dormant networks. This is the reference field subsystem: heat, fluid,
// and information reuse its resolve skeleton with subsystem-specific
// additions layered on top.
package energyfield

import (
	"github.com/domino-sim/domino/internal/domain"
	"github.com/domino-sim/domino/internal/fixedpoint"
)

// Entity bounds. A domain never grows its live arrays past these counts;
// Init truncates an oversized descriptor rather than refusing it.
const (
	MaxStores   = 64
	MaxFlows    = 128
	MaxNetworks = 16
	MaxCapsules = 64
	HistBins    = 4
)

// RatioOneQ16 is the Q16.16 representation of a ratio of 1.0 (100%).
const RatioOneQ16 = fixedpoint.Q16One

// EnergyType classifies what a store or loss sink carries.
type EnergyType uint32

const (
	TypeUnset EnergyType = iota
	TypeElectrical
	TypeChemical
	TypeMechanical
	TypeThermal
	TypeAbstract
)

// FailureMode is a bitmask of failure modes a flow is willing to exhibit.
// Observations only ever set a bit on the flow/result flags when the
// corresponding bit is present here.
type FailureMode uint32

const (
	FailureOverload FailureMode = 1 << iota
	FailureBrownout
	FailureBlackout
	FailureCascade
	FailureLeakage
)

// StoreFlags records what the last resolve/query observed about a store.
type StoreFlags uint32

const (
	StoreUnknown StoreFlags = 1 << iota
	StoreCollapsed
)

// FlowFlags records what the last resolve observed about a single flow.
type FlowFlags uint32

const (
	FlowUnknown FlowFlags = 1 << iota
	FlowCollapsed
	FlowOverload
	FlowBrownout
	FlowBlackout
	FlowCascade
	FlowLeakage
)

// ResolveFlags is the aggregate observation set a resolve call reports on
// its result.
type ResolveFlags uint32

const (
	ResolvePartial ResolveFlags = 1 << iota
	ResolveOverload
	ResolveBrownout
	ResolveBlackout
	ResolveCascade
	ResolveLeakage
)

// StoreDesc is the authoring-time description of one energy store.
type StoreDesc struct {
	StoreID     uint32
	EnergyType  EnergyType
	Amount      fixedpoint.Q48
	Capacity    fixedpoint.Q48
	LeakageRate fixedpoint.Q16
	NetworkID   uint32
	Location    domain.Point
}

// FlowDesc is the authoring-time description of one directed energy flow
// between two stores.
type FlowDesc struct {
	FlowID          uint32
	NetworkID       uint32
	SourceStoreID   uint32
	SinkStoreID     uint32
	MaxTransferRate fixedpoint.Q48
	Efficiency      fixedpoint.Q16
	LatencyTicks    uint64
	FailureModeMask FailureMode
	FailureChance   fixedpoint.Q16
}

// LossDesc describes where dissipated energy goes and how much of every
// delivered unit is lost as a secondary, domain-wide loss.
type LossDesc struct {
	DissipationFraction fixedpoint.Q16
	DestinationType     EnergyType
}

// SurfaceDesc is the immutable authoring descriptor a domain is initialized
// from. It is the only part of a domain that fixture parsing ever produces
// directly.
type SurfaceDesc struct {
	DomainID      uint64
	WorldSeed     uint64
	MetersPerUnit fixedpoint.Q16
	Stores        []StoreDesc
	Flows         []FlowDesc
	Loss          LossDesc
}

// DefaultSurfaceDesc returns a descriptor matching surface_desc_init's
// defaults: domain_id=1, world_seed=1, meters_per_unit=1.0, no dissipation,
// loss destination thermal, empty store/flow lists.
func DefaultSurfaceDesc() SurfaceDesc {
	return SurfaceDesc{
		DomainID:      1,
		WorldSeed:     1,
		MetersPerUnit: fixedpoint.FromInt(1),
		Loss: LossDesc{
			DissipationFraction: 0,
			DestinationType:     TypeThermal,
		},
	}
}

// Store is the live, mutable form of a StoreDesc inside a domain.
type Store struct {
	StoreID     uint32
	EnergyType  EnergyType
	Amount      fixedpoint.Q48
	Capacity    fixedpoint.Q48
	LeakageRate fixedpoint.Q16
	NetworkID   uint32
	Location    domain.Point
	Flags       StoreFlags
}

// Flow is the live, mutable form of a FlowDesc inside a domain.
type Flow struct {
	FlowID          uint32
	NetworkID       uint32
	SourceStoreID   uint32
	SinkStoreID     uint32
	MaxTransferRate fixedpoint.Q48
	Efficiency      fixedpoint.Q16
	LatencyTicks    uint64
	FailureModeMask FailureMode
	FailureChance   fixedpoint.Q16
	Flags           FlowFlags
}

// StoreSample is what store_query returns: the store's data as of the call,
// plus the query meta describing how it was obtained.
type StoreSample struct {
	StoreID     uint32
	EnergyType  EnergyType
	Amount      fixedpoint.Q48
	Capacity    fixedpoint.Q48
	LeakageRate fixedpoint.Q16
	NetworkID   uint32
	Flags       StoreFlags
	Meta        domain.QueryMeta
}

// FlowSample is what flow_query returns.
type FlowSample struct {
	FlowID          uint32
	NetworkID       uint32
	SourceStoreID   uint32
	SinkStoreID     uint32
	MaxTransferRate fixedpoint.Q48
	Efficiency      fixedpoint.Q16
	LatencyTicks    uint64
	FailureModeMask FailureMode
	FailureChance   fixedpoint.Q16
	Flags           FlowFlags
	Meta            domain.QueryMeta
}

// NetworkSample is what network_query returns: an aggregate over every live
// store/flow selected by network_id (0 selects every live, uncollapsed
// network).
type NetworkSample struct {
	NetworkID     uint32
	StoreCount    uint32
	FlowCount     uint32
	EnergyTotal   fixedpoint.Q48
	CapacityTotal fixedpoint.Q48
	LossTotal     fixedpoint.Q48
	Flags         ResolveFlags
	Meta          domain.QueryMeta
}

// ResolveResult is what resolve returns: whether it ran at all (Ok), why it
// refused if not, and the per-tick totals it accumulated if it did.
type ResolveResult struct {
	Ok                bool
	RefusalReason     domain.RefusalReason
	Flags             ResolveFlags
	FlowCount         uint32
	StoreCount        uint32
	EnergyTransferred fixedpoint.Q48
	EnergyLost        fixedpoint.Q48
	EnergyRemaining   fixedpoint.Q48
}

// MacroCapsule is the aggregated summary that replaces a collapsed
// network's live stores/flows.
type MacroCapsule struct {
	CapsuleID        uint64
	NetworkID        uint32
	StoreCount       uint32
	FlowCount        uint32
	EnergyTotal      fixedpoint.Q48
	CapacityTotal    fixedpoint.Q48
	EnergyRatioHist  [HistBins]fixedpoint.Q16
	TransferRateTotal fixedpoint.Q48
	LossRateTotal     fixedpoint.Q48
}

// Domain owns one energy network graph: its immutable surface, the live
// stores/flows copied from it, policy/lifecycle state, and any collapsed
// network capsules. Iteration over Stores/Flows/Capsules is always in
// declaration order — callers must never reorder these slices, and no
// resolver here ever looks anything up through a map.
type Domain struct {
	Policy          domain.Policy
	State           domain.State
	AuthoringVersion uint32
	Surface         SurfaceDesc
	Stores          []Store
	Flows           []Flow
	Capsules        []MacroCapsule
}
