package infofield

import "github.com/domino-sim/domino/internal/domain"

// Init copies desc into a freshly zeroed domain: live Capacities/Nodes/
// Links/Data arrays by value, policy defaulted, existence realized and
// archival live, capsules empty. Oversized descriptors are truncated to
// the entity bounds rather than rejected.
func (d *Domain) Init(desc SurfaceDesc) {
	*d = Domain{}
	d.Surface = desc
	d.Policy = domain.DefaultPolicy()
	d.State = domain.State{Existence: domain.ExistenceRealized, Archival: domain.ArchivalLive}
	d.AuthoringVersion = 1

	capacityCount := len(desc.Capacities)
	if capacityCount > MaxCapacityProfiles {
		capacityCount = MaxCapacityProfiles
	}
	d.Capacities = make([]Capacity, capacityCount)
	for i := 0; i < capacityCount; i++ {
		cd := desc.Capacities[i]
		d.Capacities[i] = Capacity{
			CapacityID:       cd.CapacityID,
			BandwidthLimit:   cd.BandwidthLimit,
			LatencyClass:     cd.LatencyClass,
			ErrorRate:        cd.ErrorRate,
			CongestionPolicy: cd.CongestionPolicy,
		}
	}

	nodeCount := len(desc.Nodes)
	if nodeCount > MaxNodes {
		nodeCount = MaxNodes
	}
	d.Nodes = make([]Node, nodeCount)
	for i := 0; i < nodeCount; i++ {
		nd := desc.Nodes[i]
		d.Nodes[i] = Node{
			NodeID:          nd.NodeID,
			NodeType:        nd.NodeType,
			ComputeCapacity: nd.ComputeCapacity,
			StorageCapacity: nd.StorageCapacity,
			EnergyPerUnit:   nd.EnergyPerUnit,
			HeatPerUnit:     nd.HeatPerUnit,
			NetworkID:       nd.NetworkID,
			Location:        nd.Location,
		}
	}

	linkCount := len(desc.Links)
	if linkCount > MaxLinks {
		linkCount = MaxLinks
	}
	d.Links = make([]Link, linkCount)
	for i := 0; i < linkCount; i++ {
		ld := desc.Links[i]
		d.Links[i] = Link{
			LinkID:     ld.LinkID,
			NetworkID:  ld.NetworkID,
			NodeAID:    ld.NodeAID,
			NodeBID:    ld.NodeBID,
			CapacityID: ld.CapacityID,
			Direction:  ld.Direction,
		}
	}

	dataCount := len(desc.Data)
	if dataCount > MaxData {
		dataCount = MaxData
	}
	d.Data = make([]Data, dataCount)
	for i := 0; i < dataCount; i++ {
		dd := desc.Data[i]
		d.Data[i] = Data{
			DataID:          dd.DataID,
			DataType:        dd.DataType,
			DataSize:        dd.DataSize,
			DataUncertainty: dd.DataUncertainty,
			SourceNodeID:    dd.SourceNodeID,
			SinkNodeID:      dd.SinkNodeID,
			ProtocolID:      dd.ProtocolID,
			NetworkID:       dd.NetworkID,
			SendTick:        dd.SendTick,
			Flags:           DataPending,
		}
	}
}

// Free zeros the live arrays and capsules, releasing the domain's working
// state. The surface descriptor and policy are left untouched.
func (d *Domain) Free() {
	d.Capacities = nil
	d.Nodes = nil
	d.Links = nil
	d.Data = nil
	d.Capsules = nil
}

// SetState overwrites the domain's lifecycle state.
func (d *Domain) SetState(existence domain.Existence, archival domain.Archival) {
	d.State.Existence = existence
	d.State.Archival = archival
}

// SetPolicy overwrites the domain's cost policy.
func (d *Domain) SetPolicy(p domain.Policy) {
	d.Policy = p
}

func (d *Domain) findCapacityIndex(capacityID uint32) int {
	for i := range d.Capacities {
		if d.Capacities[i].CapacityID == capacityID {
			return i
		}
	}
	return -1
}

func (d *Domain) findNodeIndex(nodeID uint32) int {
	for i := range d.Nodes {
		if d.Nodes[i].NodeID == nodeID {
			return i
		}
	}
	return -1
}

func (d *Domain) findLinkIndex(linkID uint32) int {
	for i := range d.Links {
		if d.Links[i].LinkID == linkID {
			return i
		}
	}
	return -1
}

func (d *Domain) findDataIndex(dataID uint32) int {
	for i := range d.Data {
		if d.Data[i].DataID == dataID {
			return i
		}
	}
	return -1
}

// findLinkForNodes returns the index of the first live link that carries
// traffic from sourceNodeID to sinkNodeID, honoring each link's direction:
// LinkBidir matches either ordering, LinkAToB only A->B, LinkBToA only
// B->A. Mirrors dom_info_find_link_for_nodes's linear scan and first-match
// semantics.
func (d *Domain) findLinkForNodes(sourceNodeID, sinkNodeID uint32) int {
	for i := range d.Links {
		link := &d.Links[i]
		aToB := link.NodeAID == sourceNodeID && link.NodeBID == sinkNodeID
		bToA := link.NodeBID == sourceNodeID && link.NodeAID == sinkNodeID
		switch link.Direction {
		case LinkAToB:
			if aToB {
				return i
			}
		case LinkBToA:
			if bToA {
				return i
			}
		default:
			if aToB || bToA {
				return i
			}
		}
	}
	return -1
}

func (d *Domain) isActive() bool {
	return d.State.Active()
}

func (d *Domain) networkCollapsed(networkID uint32) bool {
	for i := range d.Capsules {
		if d.Capsules[i].NetworkID == networkID {
			return true
		}
	}
	return false
}

func (d *Domain) findCapsule(networkID uint32) *MacroCapsule {
	for i := range d.Capsules {
		if d.Capsules[i].NetworkID == networkID {
			return &d.Capsules[i]
		}
	}
	return nil
}

// budgetCost returns tier if non-zero, else the resolve base cost of 1 —
// every query/resolve call must consume at least one unit.
func budgetCost(tier int) int {
	if tier == 0 {
		return 1
	}
	return tier
}
