// Package fluidfield implements the fluid domain resolver: volume stores
// connected by directed flows, pressure cells bound to a store that can rupture
// and release volume, and a static fluid-property table consulted by callers
// for density/viscosity/compressibility classification. Fluid shares its
// resolve skeleton with energyfield/heatfield (leakage/exchange pass, flow
// pass with cascade propagation, remaining pass) but adds a pressure pass and
// volume-weighted mixing of temperature and contamination into the sink on
// every successful transfer.
package fluidfield

import (
	"github.com/domino-sim/domino/internal/domain"
	"github.com/domino-sim/domino/internal/fixedpoint"
)

// Entity bounds. A domain never grows its live arrays past these counts;
// Init truncates an oversized descriptor rather than refusing it.
const (
	MaxStores     = 64
	MaxFlows      = 128
	MaxPressures  = 64
	MaxProperties = 32
	MaxNetworks   = 16
	MaxCapsules   = 64
	HistBins      = 4
)

// RatioOneQ16 is the Q16.16 representation of a ratio of 1.0 (100%).
const RatioOneQ16 = fixedpoint.Q16One

// DefaultReleaseRatioQ16 is the release_ratio a pressure cell falls back to
// when authored with a non-positive value (dom_fluid_pressure_init and
// dom_fluid_domain_init both apply this default; 0.25 in Q16.16, i.e. 0x4000).
const DefaultReleaseRatioQ16 fixedpoint.Q16 = 0x00004000

// FluidType names the substance a store/property row describes.
type FluidType uint32

const (
	FluidUnset FluidType = iota
	FluidWater
	FluidOil
	FluidGas
	FluidLava
	FluidAbstract
)

// FailureMode is a bitmask of failure modes a flow is willing to exhibit.
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
	StoreRuptured
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
	FlowRupture
)

// PressureFlags records what the last resolve/query observed about a
// pressure cell.
type PressureFlags uint32

const (
	PressureUnresolved PressureFlags = 1 << iota
	PressureOverLimit
	PressureRuptured
)

// PropertyFlags records what the last query observed about a fluid-property
// row; the bit space beyond Unresolved is reserved for future flags.
type PropertyFlags uint32

const (
	PropertyUnresolved PropertyFlags = 1 << iota
)

// ResolveFlags is the aggregate observation set a resolve call reports on
// its result.
type ResolveFlags uint32

const (
	ResolvePartial ResolveFlags = 1 << iota
	ResolveOverload
	ResolveBlocked
	ResolveLeakage
	ResolveCascade
	ResolveRupture
	ResolvePressureOver
)

// StoreDesc is the authoring-time description of one fluid store.
type StoreDesc struct {
	StoreID       uint32
	FluidType     FluidType
	Volume        fixedpoint.Q48
	MaxVolume     fixedpoint.Q48
	Temperature   fixedpoint.Q48
	Contamination fixedpoint.Q16
	LeakageRate   fixedpoint.Q16
	NetworkID     uint32
	Location      domain.Point
}

// FlowDesc is the authoring-time description of one directed fluid flow
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
	EnergyPerVolume fixedpoint.Q48
}

// PressureDesc is the authoring-time description of one pressure cell bound
// to a store: a soft limit, a harder rupture threshold, and the fraction of
// the store's volume released on rupture.
type PressureDesc struct {
	PressureID       uint32
	StoreID          uint32
	PressureLimit    fixedpoint.Q48
	RuptureThreshold fixedpoint.Q48
	ReleaseRatio     fixedpoint.Q16
}

// PropertyDesc is one row of the static fluid-property reference table.
type PropertyDesc struct {
	PropertyID           uint32
	FluidType            FluidType
	Density              fixedpoint.Q48
	ViscosityClass       uint32
	CompressibilityClass uint32
	HazardProfile        uint32
}

// SurfaceDesc is the immutable authoring descriptor a domain is initialized
// from. It is the only part of a domain that fixture parsing ever produces
// directly.
type SurfaceDesc struct {
	DomainID      uint64
	WorldSeed     uint64
	MetersPerUnit fixedpoint.Q16
	PressureScale fixedpoint.Q48
	Stores        []StoreDesc
	Flows         []FlowDesc
	Pressures     []PressureDesc
	Properties    []PropertyDesc
}

// DefaultSurfaceDesc returns a descriptor matching
// dom_fluid_surface_desc_init's defaults: domain_id=1, world_seed=1,
// meters_per_unit=1.0, pressure_scale=1.0, empty entity lists.
func DefaultSurfaceDesc() SurfaceDesc {
	return SurfaceDesc{
		DomainID:      1,
		WorldSeed:     1,
		MetersPerUnit: fixedpoint.FromInt(1),
		PressureScale: fixedpoint.FromInt64(1),
	}
}

// Store is the live, mutable form of a StoreDesc inside a domain.
type Store struct {
	StoreID       uint32
	FluidType     FluidType
	Volume        fixedpoint.Q48
	MaxVolume     fixedpoint.Q48
	Temperature   fixedpoint.Q48
	Contamination fixedpoint.Q16
	LeakageRate   fixedpoint.Q16
	NetworkID     uint32
	Location      domain.Point
	Flags         StoreFlags
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
	EnergyPerVolume fixedpoint.Q48
	Flags           FlowFlags
}

// Pressure is the live, mutable form of a PressureDesc inside a domain.
type Pressure struct {
	PressureID       uint32
	StoreID          uint32
	Amount           fixedpoint.Q48
	PressureLimit    fixedpoint.Q48
	RuptureThreshold fixedpoint.Q48
	ReleaseRatio     fixedpoint.Q16
	Flags            PressureFlags
}

// Property is the live form of a PropertyDesc; properties are a static
// reference table, never mutated by resolve.
type Property struct {
	PropertyID           uint32
	FluidType            FluidType
	Density              fixedpoint.Q48
	ViscosityClass       uint32
	CompressibilityClass uint32
	HazardProfile        uint32
	Flags                PropertyFlags
}

// StoreSample is what store_query returns.
type StoreSample struct {
	StoreID       uint32
	FluidType     FluidType
	Volume        fixedpoint.Q48
	MaxVolume     fixedpoint.Q48
	Temperature   fixedpoint.Q48
	Contamination fixedpoint.Q16
	LeakageRate   fixedpoint.Q16
	NetworkID     uint32
	Flags         StoreFlags
	Meta          domain.QueryMeta
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
	EnergyPerVolume fixedpoint.Q48
	Flags           FlowFlags
	Meta            domain.QueryMeta
}

// PressureSample is what pressure_query returns.
type PressureSample struct {
	PressureID       uint32
	StoreID          uint32
	Amount           fixedpoint.Q48
	PressureLimit    fixedpoint.Q48
	RuptureThreshold fixedpoint.Q48
	ReleaseRatio     fixedpoint.Q16
	Flags            PressureFlags
	Meta             domain.QueryMeta
}

// PropertySample is what property_query returns.
type PropertySample struct {
	PropertyID           uint32
	FluidType            FluidType
	Density              fixedpoint.Q48
	ViscosityClass       uint32
	CompressibilityClass uint32
	HazardProfile        uint32
	Flags                PropertyFlags
	Meta                 domain.QueryMeta
}

// NetworkSample is what network_query returns: an aggregate over every live
// store/flow/pressure selected by network_id (0 selects every live,
// uncollapsed network).
type NetworkSample struct {
	NetworkID        uint32
	StoreCount       uint32
	FlowCount        uint32
	VolumeTotal      fixedpoint.Q48
	CapacityTotal    fixedpoint.Q48
	PressureTotal    fixedpoint.Q48
	ContaminationAvg fixedpoint.Q16
	Flags            ResolveFlags
	Meta             domain.QueryMeta
}

// ResolveResult is what resolve returns.
type ResolveResult struct {
	Ok                     bool
	RefusalReason          domain.RefusalReason
	Flags                  ResolveFlags
	FlowCount              uint32
	StoreCount             uint32
	PressureCount          uint32
	PressureOverLimitCount uint32
	PressureRuptureCount   uint32
	VolumeTransferred      fixedpoint.Q48
	VolumeLeaked           fixedpoint.Q48
	VolumeRemaining        fixedpoint.Q48
	EnergyRequired         fixedpoint.Q48
}

// MacroCapsule is the aggregated summary that replaces a collapsed
// network's live stores/flows/pressures.
type MacroCapsule struct {
	CapsuleID               uint64
	NetworkID               uint32
	StoreCount              uint32
	FlowCount               uint32
	VolumeTotal             fixedpoint.Q48
	CapacityTotal           fixedpoint.Q48
	PressureRatioHist       [HistBins]fixedpoint.Q16
	ContaminationRatioHist  [HistBins]fixedpoint.Q16
	TransferRateTotal       fixedpoint.Q48
	LeakageRateTotal        fixedpoint.Q48
}

// Domain owns one fluid network graph: its immutable surface, the live
// stores/flows/pressures/properties copied from it, policy/lifecycle state,
// and any collapsed network capsules. Iteration is always in declaration
// order — callers must never reorder these slices, and no resolver here
// ever looks anything up through a map.
type Domain struct {
	Policy           domain.Policy
	State            domain.State
	AuthoringVersion uint32
	Surface          SurfaceDesc
	Stores           []Store
	Flows            []Flow
	Pressures        []Pressure
	Properties       []Property
	Capsules         []MacroCapsule
}
