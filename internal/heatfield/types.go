// Package heatfield implements the heat domain resolver: stores and flows
// connected into networks, ambient exchange loss, randomized blocked/overload
// failure modes, cascade propagation, and a thermal-stress pass layered on
// top of the resolve skeleton shared with energyfield. Heat differs from
// energy in three structural ways: there is no brownout concept (only
// independent overload/blocked checks, not a mutually-exclusive chain), loss
// is ambient exchange rather than leakage-plus-dissipation, and a store can
// carry one or more thermal stresses evaluated every resolve after the
// remaining-heat pass.
package heatfield

import (
	"github.com/domino-sim/domino/internal/domain"
	"github.com/domino-sim/domino/internal/fixedpoint"
)

// Entity bounds. A domain never grows its live arrays past these counts;
// Init truncates an oversized descriptor rather than refusing it.
const (
	MaxStores   = 64
	MaxFlows    = 128
	MaxStresses = 64
	MaxNetworks = 16
	MaxCapsules = 64
	HistBins    = 4
)

// RatioOneQ16 is the Q16.16 representation of a ratio of 1.0 (100%).
const RatioOneQ16 = fixedpoint.Q16One

// FailureMode is a bitmask of failure modes a flow is willing to exhibit.
// Heat has no brownout mode: a flow is either blocked (no available supply)
// or overloaded (no sink space), and both checks are independent of each
// other rather than mutually exclusive.
type FailureMode uint32

const (
	FailureOverload FailureMode = 1 << iota
	FailureBlocked
	FailureLeakage
	FailureCascade
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
	FlowBlocked
	FlowLeakage
	FlowCascade
)

// StressFlags records what the last resolve observed about a single
// thermal stress entity.
type StressFlags uint32

const (
	StressUnknown StressFlags = 1 << iota
	StressOverheat
	StressUndercool
	StressDamage
	StressEfficiencyLoss
	StressShutdown
)

// ResolveFlags is the aggregate observation set a resolve call reports on
// its result.
type ResolveFlags uint32

const (
	ResolvePartial ResolveFlags = 1 << iota
	ResolveOverheat
	ResolveUndercool
	ResolveDamage
	ResolveLeakage
	ResolveCascade
	ResolveOverload
	ResolveBlocked
)

// StoreDesc is the authoring-time description of one heat store.
type StoreDesc struct {
	StoreID             uint32
	Amount              fixedpoint.Q48
	Capacity            fixedpoint.Q48
	AmbientExchangeRate fixedpoint.Q16
	NetworkID           uint32
	Location            domain.Point
}

// FlowDesc is the authoring-time description of one directed heat flow
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

// StressDesc is the authoring-time description of one thermal-stress check
// bound to a store: a safe operating-temperature band, plus what happens
// when the store's derived temperature falls outside it.
type StressDesc struct {
	StressID           uint32
	StoreID            uint32
	SafeMin            fixedpoint.Q48
	SafeMax            fixedpoint.Q48
	DamageRate         fixedpoint.Q16
	EfficiencyModifier fixedpoint.Q16
}

// SurfaceDesc is the immutable authoring descriptor a domain is initialized
// from. It is the only part of a domain that fixture parsing ever produces
// directly.
type SurfaceDesc struct {
	DomainID         uint64
	WorldSeed        uint64
	MetersPerUnit    fixedpoint.Q16
	TemperatureScale fixedpoint.Q48
	Stores           []StoreDesc
	Flows            []FlowDesc
	Stresses         []StressDesc
}

// DefaultSurfaceDesc returns a descriptor matching
// dom_heat_surface_desc_init's defaults: domain_id=1, world_seed=1,
// meters_per_unit=1.0, temperature_scale=1.0, empty store/flow/stress lists.
func DefaultSurfaceDesc() SurfaceDesc {
	return SurfaceDesc{
		DomainID:         1,
		WorldSeed:        1,
		MetersPerUnit:    fixedpoint.FromInt(1),
		TemperatureScale: fixedpoint.FromInt64(1),
	}
}

// Store is the live, mutable form of a StoreDesc inside a domain.
type Store struct {
	StoreID             uint32
	Amount              fixedpoint.Q48
	Capacity            fixedpoint.Q48
	AmbientExchangeRate fixedpoint.Q16
	NetworkID           uint32
	Location            domain.Point
	Flags               StoreFlags
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

// Stress is the live, mutable form of a StressDesc inside a domain.
type Stress struct {
	StressID           uint32
	StoreID            uint32
	SafeMin            fixedpoint.Q48
	SafeMax            fixedpoint.Q48
	DamageRate         fixedpoint.Q16
	EfficiencyModifier fixedpoint.Q16
	Flags              StressFlags
}

// StoreSample is what store_query returns.
type StoreSample struct {
	StoreID             uint32
	Amount              fixedpoint.Q48
	Capacity            fixedpoint.Q48
	AmbientExchangeRate fixedpoint.Q16
	NetworkID           uint32
	Flags               StoreFlags
	Meta                domain.QueryMeta
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

// StressSample is what stress_query returns, including the derived
// operating_temperature of the stress's backing store at query time.
type StressSample struct {
	StressID             uint32
	StoreID              uint32
	OperatingTemperature fixedpoint.Q48
	SafeMin              fixedpoint.Q48
	SafeMax              fixedpoint.Q48
	DamageRate           fixedpoint.Q16
	EfficiencyModifier   fixedpoint.Q16
	Flags                StressFlags
	Meta                 domain.QueryMeta
}

// NetworkSample is what network_query returns: an aggregate over every live
// store/flow selected by network_id (0 selects every live, uncollapsed
// network).
type NetworkSample struct {
	NetworkID        uint32
	StoreCount       uint32
	FlowCount        uint32
	HeatTotal        fixedpoint.Q48
	CapacityTotal    fixedpoint.Q48
	DissipatedTotal  fixedpoint.Q48
	Flags            ResolveFlags
	Meta             domain.QueryMeta
}

// ResolveResult is what resolve returns: whether it ran at all (Ok), why it
// refused if not, and the per-tick totals/stress counters it accumulated if
// it did.
type ResolveResult struct {
	Ok                   bool
	RefusalReason        domain.RefusalReason
	Flags                ResolveFlags
	FlowCount            uint32
	StoreCount           uint32
	StressCount          uint32
	StressOverheatCount  uint32
	StressUndercoolCount uint32
	StressDamageCount    uint32
	HeatTransferred      fixedpoint.Q48
	HeatDissipated       fixedpoint.Q48
	HeatRemaining        fixedpoint.Q48
}

// MacroCapsule is the aggregated summary that replaces a collapsed
// network's live stores/flows.
type MacroCapsule struct {
	CapsuleID             uint64
	NetworkID             uint32
	StoreCount            uint32
	FlowCount             uint32
	HeatTotal             fixedpoint.Q48
	CapacityTotal         fixedpoint.Q48
	TemperatureRatioHist  [HistBins]fixedpoint.Q16
	TransferRateTotal     fixedpoint.Q48
	DissipationRateTotal  fixedpoint.Q48
}

// Domain owns one heat network graph: its immutable surface, the live
// stores/flows/stresses copied from it, policy/lifecycle state, and any
// collapsed network capsules. Iteration over Stores/Flows/Stresses/Capsules
// is always in declaration order — callers must never reorder these slices,
// and no resolver here ever looks anything up through a map.
type Domain struct {
	Policy           domain.Policy
	State            domain.State
	AuthoringVersion uint32
	Surface          SurfaceDesc
	Stores           []Store
	Flows            []Flow
	Stresses         []Stress
	Capsules         []MacroCapsule
}
