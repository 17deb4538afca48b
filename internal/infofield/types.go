// Package infofield implements the information domain resolver: routing
// nodes and directed links bound to a shared capacity-profile table, and
// data packets routed across them tick by tick. Unlike energy/heat/fluid,
// resolve here is event-driven over the data array rather than a uniform
// per-entity sweep: each packet walks a small decision tree (queued by
// send_tick, routed by node-pair lookup, gated by link latency, congested
// against sink compute/storage capacity and link bandwidth, corrupted by a
// per-link error roll) that can retire it as delivered, dropped, or stored,
// or leave it queued for a future tick.
package infofield

import (
	"github.com/domino-sim/domino/internal/domain"
	"github.com/domino-sim/domino/internal/fixedpoint"
)

// Entity bounds. A domain never grows its live arrays past these counts;
// Init truncates an oversized descriptor rather than refusing it.
const (
	MaxNodes            = 64
	MaxLinks            = 128
	MaxData             = 256
	MaxCapacityProfiles = 64
	MaxNetworks         = 16
	MaxCapsules         = 64
	HistBins            = 4
)

// RatioOneQ16 is the Q16.16 representation of a ratio of 1.0 (100%).
const RatioOneQ16 = fixedpoint.Q16One

// NodeType names the kind of equipment a routing node represents.
type NodeType uint32

const (
	NodeUnset NodeType = iota
	NodeRouter
	NodeSwitch
	NodeAntenna
	NodeSatellite
	NodeCompute
	NodeStorage
	NodeEndpoint
)

// DataType names the kind of payload a packet carries; only DataStorage
// routes through a sink node's storage_used accounting.
type DataType uint32

const (
	DataUnset DataType = iota
	DataControl
	DataTelemetry
	DataMessage
	DataStorage
)

// LatencyClass selects how many ticks a link holds a packet in flight
// before it is eligible for delivery, via latencyTicks below.
type LatencyClass uint32

const (
	LatencyImmediate LatencyClass = iota
	LatencyLocal
	LatencyRegional
	LatencyOrbital
	LatencyInterplanetary
)

// latencyTicks maps a LatencyClass to the number of ticks a packet must
// wait after send_tick before a link is willing to deliver it. An unknown
// class defaults to LatencyLocal's figure, matching
// dom_info_latency_ticks's switch default.
func latencyTicks(class LatencyClass) uint64 {
	switch class {
	case LatencyImmediate:
		return 1
	case LatencyLocal:
		return 4
	case LatencyRegional:
		return 16
	case LatencyOrbital:
		return 64
	case LatencyInterplanetary:
		return 256
	default:
		return 4
	}
}

// CongestionPolicy selects what a link does to a packet it cannot carry
// this tick because of bandwidth, compute, or storage pressure.
type CongestionPolicy uint32

const (
	CongestionQueue CongestionPolicy = iota
	CongestionDropNewest
	CongestionDropOldest
	CongestionDegrade
)

// LinkDirection constrains which node-pair orderings a link will route.
type LinkDirection uint32

const (
	LinkBidir LinkDirection = iota
	LinkAToB
	LinkBToA
)

// NodeFlags records what the last resolve/query observed about a node.
type NodeFlags uint32

const (
	NodeCollapsed NodeFlags = 1 << iota
)

// LinkFlags records what the last resolve observed about a single link.
type LinkFlags uint32

const (
	LinkCollapsed LinkFlags = 1 << iota
	LinkCongested
	LinkOutage
	LinkCorrupt
)

// DataFlags records a packet's lifecycle state.
type DataFlags uint32

const (
	DataPending DataFlags = 1 << iota
	DataDelivered
	DataDropped
	DataCorrupt
	DataStored
	DataQueued
)

// ResolveFlags is the aggregate observation set a resolve call reports on
// its result.
type ResolveFlags uint32

const (
	ResolvePartial ResolveFlags = 1 << iota
	ResolveCongested
	ResolveOutage
	ResolveCorrupt
	ResolveDropped
)

// CapacityDesc is the authoring-time description of one capacity profile
// shared by any number of links.
type CapacityDesc struct {
	CapacityID       uint32
	BandwidthLimit   fixedpoint.Q48
	LatencyClass     LatencyClass
	ErrorRate        fixedpoint.Q16
	CongestionPolicy CongestionPolicy
}

// NodeDesc is the authoring-time description of one routing node.
type NodeDesc struct {
	NodeID          uint32
	NodeType        NodeType
	ComputeCapacity fixedpoint.Q48
	StorageCapacity fixedpoint.Q48
	EnergyPerUnit   fixedpoint.Q48
	HeatPerUnit     fixedpoint.Q48
	NetworkID       uint32
	Location        domain.Point
}

// LinkDesc is the authoring-time description of one directed or
// bidirectional link between two nodes, bound to a capacity profile.
type LinkDesc struct {
	LinkID     uint32
	NetworkID  uint32
	NodeAID    uint32
	NodeBID    uint32
	CapacityID uint32
	Direction  LinkDirection
}

// DataDesc is the authoring-time description of one data packet to route.
type DataDesc struct {
	DataID          uint32
	DataType        DataType
	DataSize        fixedpoint.Q48
	DataUncertainty fixedpoint.Q16
	SourceNodeID    uint32
	SinkNodeID      uint32
	ProtocolID      uint32
	NetworkID       uint32
	SendTick        uint64
}

// SurfaceDesc is the immutable authoring descriptor a domain is initialized
// from. It is the only part of a domain that fixture parsing ever produces
// directly.
type SurfaceDesc struct {
	DomainID      uint64
	WorldSeed     uint64
	MetersPerUnit fixedpoint.Q16
	Capacities    []CapacityDesc
	Nodes         []NodeDesc
	Links         []LinkDesc
	Data          []DataDesc
}

// DefaultSurfaceDesc returns a descriptor matching
// dom_info_surface_desc_init's defaults: domain_id=1, world_seed=1,
// meters_per_unit=1.0, empty entity lists.
func DefaultSurfaceDesc() SurfaceDesc {
	return SurfaceDesc{
		DomainID:      1,
		WorldSeed:     1,
		MetersPerUnit: fixedpoint.FromInt(1),
	}
}

// Capacity is the live, immutable-during-resolve form of a CapacityDesc.
type Capacity struct {
	CapacityID       uint32
	BandwidthLimit   fixedpoint.Q48
	LatencyClass     LatencyClass
	ErrorRate        fixedpoint.Q16
	CongestionPolicy CongestionPolicy
	Flags            uint32
}

// Node is the live, mutable form of a NodeDesc inside a domain.
type Node struct {
	NodeID          uint32
	NodeType        NodeType
	ComputeCapacity fixedpoint.Q48
	StorageCapacity fixedpoint.Q48
	StorageUsed     fixedpoint.Q48
	EnergyPerUnit   fixedpoint.Q48
	HeatPerUnit     fixedpoint.Q48
	NetworkID       uint32
	Location        domain.Point
	Flags           NodeFlags
}

// Link is the live, mutable form of a LinkDesc inside a domain.
type Link struct {
	LinkID     uint32
	NetworkID  uint32
	NodeAID    uint32
	NodeBID    uint32
	CapacityID uint32
	Direction  LinkDirection
	Flags      LinkFlags
}

// Data is the live, mutable form of a DataDesc inside a domain — the packet
// travelling through the network.
type Data struct {
	DataID          uint32
	DataType        DataType
	DataSize        fixedpoint.Q48
	DataUncertainty fixedpoint.Q16
	SourceNodeID    uint32
	SinkNodeID      uint32
	ProtocolID      uint32
	NetworkID       uint32
	SendTick        uint64
	Flags           DataFlags
}

// CapacitySample is what capacity_query returns.
type CapacitySample struct {
	CapacityID       uint32
	BandwidthLimit   fixedpoint.Q48
	LatencyClass     LatencyClass
	ErrorRate        fixedpoint.Q16
	CongestionPolicy CongestionPolicy
	Flags            uint32
	Meta             domain.QueryMeta
}

// NodeSample is what node_query returns.
type NodeSample struct {
	NodeID          uint32
	NodeType        NodeType
	ComputeCapacity fixedpoint.Q48
	StorageCapacity fixedpoint.Q48
	StorageUsed     fixedpoint.Q48
	EnergyPerUnit   fixedpoint.Q48
	HeatPerUnit     fixedpoint.Q48
	NetworkID       uint32
	Flags           NodeFlags
	Meta            domain.QueryMeta
}

// LinkSample is what link_query returns.
type LinkSample struct {
	LinkID     uint32
	NetworkID  uint32
	NodeAID    uint32
	NodeBID    uint32
	CapacityID uint32
	Direction  LinkDirection
	Flags      LinkFlags
	Meta       domain.QueryMeta
}

// DataSample is what data_query returns.
type DataSample struct {
	DataID          uint32
	DataType        DataType
	DataSize        fixedpoint.Q48
	DataUncertainty fixedpoint.Q16
	SourceNodeID    uint32
	SinkNodeID      uint32
	ProtocolID      uint32
	NetworkID       uint32
	SendTick        uint64
	Flags           DataFlags
	Meta            domain.QueryMeta
}

// NetworkSample is what network_query returns: an aggregate over every live
// node/link/packet selected by network_id (0 selects every live,
// uncollapsed network).
type NetworkSample struct {
	NetworkID      uint32
	NodeCount      uint32
	LinkCount      uint32
	DataCount      uint32
	DataTotal      fixedpoint.Q48
	QueuedCount    uint32
	DroppedCount   uint32
	ErrorRateAvg   fixedpoint.Q16
	Flags          ResolveFlags
	Meta           domain.QueryMeta
}

// ResolveResult is what resolve returns.
type ResolveResult struct {
	Ok                 bool
	RefusalReason      domain.RefusalReason
	Flags              ResolveFlags
	DeliveredCount     uint32
	DroppedCount       uint32
	QueuedCount        uint32
	EnergyCostTotal    fixedpoint.Q48
	HeatGeneratedTotal fixedpoint.Q48
}

// MacroCapsule is the aggregated summary that replaces a collapsed
// network's live nodes/links/data.
type MacroCapsule struct {
	CapsuleID     uint64
	NetworkID     uint32
	NodeCount     uint32
	LinkCount     uint32
	DataCount     uint32
	DataTotal     fixedpoint.Q48
	ErrorRateHist [HistBins]fixedpoint.Q16
}

// Domain owns one information network graph: its immutable surface, the
// live capacities/nodes/links/data copied from it, policy/lifecycle state,
// and any collapsed network capsules. Iteration is always in declaration
// order — callers must never reorder these slices, and no resolver here
// ever looks anything up through a map.
type Domain struct {
	Policy           domain.Policy
	State            domain.State
	AuthoringVersion uint32
	Surface          SurfaceDesc
	Capacities       []Capacity
	Nodes            []Node
	Links            []Link
	Data             []Data
	Capsules         []MacroCapsule
}
