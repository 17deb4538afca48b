package infofield

import (
	"github.com/domino-sim/domino/internal/domain"
	"github.com/domino-sim/domino/internal/fixedpoint"
)

// CapacityQuery samples one capacity profile by id. Capacity profiles are a
// static reference table: they are never collapsed and never refuse on
// account of a network's lifecycle, mirroring dom_fluid_property_query's
// precedent in the fluid domain.
func (d *Domain) CapacityQuery(capacityID uint32, budget *domain.Budget) CapacitySample {
	sample := CapacitySample{}

	if !d.isActive() {
		sample.Meta = domain.QueryMetaRefused(domain.RefuseDomainInactive, *budget)
		return sample
	}

	cost := budgetCost(d.Policy.CostFull)
	if !budget.Consume(cost) {
		sample.Meta = domain.QueryMetaRefused(domain.RefuseBudget, *budget)
		return sample
	}

	index := d.findCapacityIndex(capacityID)
	if index < 0 {
		sample.Meta = domain.QueryMetaRefused(domain.RefuseNoSource, *budget)
		return sample
	}
	capacity := d.Capacities[index]

	sample.CapacityID = capacity.CapacityID
	sample.BandwidthLimit = capacity.BandwidthLimit
	sample.LatencyClass = capacity.LatencyClass
	sample.ErrorRate = capacity.ErrorRate
	sample.CongestionPolicy = capacity.CongestionPolicy
	sample.Flags = capacity.Flags
	sample.Meta = domain.QueryMetaOK(domain.ResAnalytic, domain.ConfidenceExact, cost, *budget)
	return sample
}

// NodeQuery samples one node by id. A node in a collapsed network is
// reported with NodeCollapsed and ConfidenceUnknown rather than refused.
func (d *Domain) NodeQuery(nodeID uint32, budget *domain.Budget) NodeSample {
	sample := NodeSample{}

	if !d.isActive() {
		sample.Meta = domain.QueryMetaRefused(domain.RefuseDomainInactive, *budget)
		return sample
	}

	cost := budgetCost(d.Policy.CostFull)
	if !budget.Consume(cost) {
		sample.Meta = domain.QueryMetaRefused(domain.RefuseBudget, *budget)
		return sample
	}

	index := d.findNodeIndex(nodeID)
	if index < 0 {
		sample.Meta = domain.QueryMetaRefused(domain.RefuseNoSource, *budget)
		return sample
	}
	node := d.Nodes[index]

	if d.networkCollapsed(node.NetworkID) {
		sample.Flags = NodeCollapsed
		sample.NodeID = node.NodeID
		sample.NetworkID = node.NetworkID
		sample.Meta = domain.QueryMetaOK(domain.ResAnalytic, domain.ConfidenceUnknown, cost, *budget)
		return sample
	}

	sample.NodeID = node.NodeID
	sample.NodeType = node.NodeType
	sample.ComputeCapacity = node.ComputeCapacity
	sample.StorageCapacity = node.StorageCapacity
	sample.StorageUsed = node.StorageUsed
	sample.EnergyPerUnit = node.EnergyPerUnit
	sample.HeatPerUnit = node.HeatPerUnit
	sample.NetworkID = node.NetworkID
	sample.Flags = 0
	sample.Meta = domain.QueryMetaOK(domain.ResAnalytic, domain.ConfidenceExact, cost, *budget)
	return sample
}

// LinkQuery samples one link by id, mirroring NodeQuery's collapse
// handling.
func (d *Domain) LinkQuery(linkID uint32, budget *domain.Budget) LinkSample {
	sample := LinkSample{}

	if !d.isActive() {
		sample.Meta = domain.QueryMetaRefused(domain.RefuseDomainInactive, *budget)
		return sample
	}

	cost := budgetCost(d.Policy.CostFull)
	if !budget.Consume(cost) {
		sample.Meta = domain.QueryMetaRefused(domain.RefuseBudget, *budget)
		return sample
	}

	index := d.findLinkIndex(linkID)
	if index < 0 {
		sample.Meta = domain.QueryMetaRefused(domain.RefuseNoSource, *budget)
		return sample
	}
	link := d.Links[index]

	if d.networkCollapsed(link.NetworkID) {
		sample.Flags = LinkCollapsed
		sample.LinkID = link.LinkID
		sample.NetworkID = link.NetworkID
		sample.Meta = domain.QueryMetaOK(domain.ResAnalytic, domain.ConfidenceUnknown, cost, *budget)
		return sample
	}

	sample.LinkID = link.LinkID
	sample.NetworkID = link.NetworkID
	sample.NodeAID = link.NodeAID
	sample.NodeBID = link.NodeBID
	sample.CapacityID = link.CapacityID
	sample.Direction = link.Direction
	sample.Flags = link.Flags &^ LinkCollapsed
	sample.Meta = domain.QueryMetaOK(domain.ResAnalytic, domain.ConfidenceExact, cost, *budget)
	return sample
}

// DataQuery samples one packet by id. A packet whose network is collapsed
// still reports its last lifecycle flags — packets are inert payload, not
// resolved state, so there is no separate "collapsed" observation for them.
func (d *Domain) DataQuery(dataID uint32, budget *domain.Budget) DataSample {
	sample := DataSample{}

	if !d.isActive() {
		sample.Meta = domain.QueryMetaRefused(domain.RefuseDomainInactive, *budget)
		return sample
	}

	cost := budgetCost(d.Policy.CostFull)
	if !budget.Consume(cost) {
		sample.Meta = domain.QueryMetaRefused(domain.RefuseBudget, *budget)
		return sample
	}

	index := d.findDataIndex(dataID)
	if index < 0 {
		sample.Meta = domain.QueryMetaRefused(domain.RefuseNoSource, *budget)
		return sample
	}
	data := d.Data[index]

	sample.DataID = data.DataID
	sample.DataType = data.DataType
	sample.DataSize = data.DataSize
	sample.DataUncertainty = data.DataUncertainty
	sample.SourceNodeID = data.SourceNodeID
	sample.SinkNodeID = data.SinkNodeID
	sample.ProtocolID = data.ProtocolID
	sample.NetworkID = data.NetworkID
	sample.SendTick = data.SendTick
	sample.Flags = data.Flags
	sample.Meta = domain.QueryMetaOK(domain.ResAnalytic, domain.ConfidenceExact, cost, *budget)
	return sample
}

// NetworkQuery aggregates every live node/link/packet selected by networkID
// (0 selects every live, uncollapsed network). If networkID itself is
// collapsed, the capsule summary is returned with ResolvePartial set.
// Otherwise each selected entity consumes its own per-entity budget tier;
// running out mid-scan sets ResolvePartial and stops early rather than
// refusing the whole query.
func (d *Domain) NetworkQuery(networkID uint32, budget *domain.Budget) NetworkSample {
	var sample NetworkSample

	if !d.isActive() {
		sample.Meta = domain.QueryMetaRefused(domain.RefuseDomainInactive, *budget)
		return sample
	}

	costBase := budgetCost(d.Policy.CostAnalytic)
	if !budget.Consume(costBase) {
		sample.Meta = domain.QueryMetaRefused(domain.RefuseBudget, *budget)
		return sample
	}

	if d.networkCollapsed(networkID) {
		if capsule := d.findCapsule(networkID); capsule != nil {
			sample.NetworkID = capsule.NetworkID
			sample.NodeCount = capsule.NodeCount
			sample.LinkCount = capsule.LinkCount
			sample.DataCount = capsule.DataCount
			sample.DataTotal = capsule.DataTotal
		}
		sample.Flags = ResolvePartial
		sample.Meta = domain.QueryMetaOK(domain.ResAnalytic, domain.ConfidenceUnknown, costBase, *budget)
		return sample
	}

	costNode := budgetCost(d.Policy.CostCoarse)
	costLink := budgetCost(d.Policy.CostMedium)
	costData := budgetCost(d.Policy.CostCoarse)

	var dataTotal fixedpoint.Q48
	var errorRateTotal fixedpoint.Q48
	nodesSeen, linksSeen, dataSeen := uint32(0), uint32(0), uint32(0)
	queuedCount, droppedCount := uint32(0), uint32(0)

	for i := range d.Nodes {
		nodeNetwork := d.Nodes[i].NetworkID
		if networkID != 0 && nodeNetwork != networkID {
			continue
		}
		if networkID == 0 && d.networkCollapsed(nodeNetwork) {
			sample.Flags |= ResolvePartial
			continue
		}
		if !budget.Consume(costNode) {
			sample.Flags |= ResolvePartial
			break
		}
		nodesSeen++
	}

	for i := range d.Links {
		link := &d.Links[i]
		if networkID != 0 && link.NetworkID != networkID {
			continue
		}
		if networkID == 0 && d.networkCollapsed(link.NetworkID) {
			sample.Flags |= ResolvePartial
			continue
		}
		if !budget.Consume(costLink) {
			sample.Flags |= ResolvePartial
			break
		}
		if capIndex := d.findCapacityIndex(link.CapacityID); capIndex >= 0 {
			errorRateTotal = errorRateTotal.Add(fixedpoint.FromQ16(d.Capacities[capIndex].ErrorRate))
		}
		linksSeen++
	}

	for i := range d.Data {
		data := &d.Data[i]
		if networkID != 0 && data.NetworkID != networkID {
			continue
		}
		if networkID == 0 && d.networkCollapsed(data.NetworkID) {
			sample.Flags |= ResolvePartial
			continue
		}
		if !budget.Consume(costData) {
			sample.Flags |= ResolvePartial
			break
		}
		dataTotal = dataTotal.Add(data.DataSize)
		if data.Flags&DataQueued != 0 {
			queuedCount++
		}
		if data.Flags&DataDropped != 0 {
			droppedCount++
		}
		dataSeen++
	}

	sample.NetworkID = networkID
	sample.NodeCount = nodesSeen
	sample.LinkCount = linksSeen
	sample.DataCount = dataSeen
	sample.DataTotal = dataTotal
	sample.QueuedCount = queuedCount
	sample.DroppedCount = droppedCount
	if linksSeen > 0 {
		sample.ErrorRateAvg = errorRateTotal.Div(fixedpoint.FromInt64(int64(linksSeen))).ToQ16()
	}
	sample.Meta = domain.QueryMetaOK(domain.ResAnalytic, domain.ConfidenceExact, costBase, *budget)
	return sample
}
