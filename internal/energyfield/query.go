package energyfield

import (
	"github.com/domino-sim/domino/internal/domain"
	"github.com/domino-sim/domino/internal/fixedpoint"
)

// StoreQuery samples one store by id. A domain that is not active refuses
// with DomainInactive; an exhausted budget refuses with Budget; an unknown
// id refuses with NoSource. A store in a collapsed network is reported with
// StoreCollapsed and ConfidenceUnknown rather than refused.
func (d *Domain) StoreQuery(storeID uint32, budget *domain.Budget) StoreSample {
	sample := StoreSample{Flags: StoreUnknown}

	if !d.isActive() {
		sample.Meta = domain.QueryMetaRefused(domain.RefuseDomainInactive, *budget)
		return sample
	}

	cost := budgetCost(d.Policy.CostFull)
	if !budget.Consume(cost) {
		sample.Meta = domain.QueryMetaRefused(domain.RefuseBudget, *budget)
		return sample
	}

	index := d.findStoreIndex(storeID)
	if index < 0 {
		sample.Meta = domain.QueryMetaRefused(domain.RefuseNoSource, *budget)
		return sample
	}
	store := d.Stores[index]

	if d.networkCollapsed(store.NetworkID) {
		sample.Flags = StoreCollapsed
		sample.Meta = domain.QueryMetaOK(domain.ResAnalytic, domain.ConfidenceUnknown, cost, *budget)
		sample.StoreID = store.StoreID
		sample.EnergyType = store.EnergyType
		sample.NetworkID = store.NetworkID
		return sample
	}

	sample.StoreID = store.StoreID
	sample.EnergyType = store.EnergyType
	sample.Amount = store.Amount
	sample.Capacity = store.Capacity
	sample.LeakageRate = store.LeakageRate
	sample.NetworkID = store.NetworkID
	sample.Flags = 0
	sample.Meta = domain.QueryMetaOK(domain.ResAnalytic, domain.ConfidenceExact, cost, *budget)
	return sample
}

// FlowQuery samples one flow by id, mirroring StoreQuery's refusal and
// collapse handling.
func (d *Domain) FlowQuery(flowID uint32, budget *domain.Budget) FlowSample {
	sample := FlowSample{Flags: FlowUnknown}

	if !d.isActive() {
		sample.Meta = domain.QueryMetaRefused(domain.RefuseDomainInactive, *budget)
		return sample
	}

	cost := budgetCost(d.Policy.CostFull)
	if !budget.Consume(cost) {
		sample.Meta = domain.QueryMetaRefused(domain.RefuseBudget, *budget)
		return sample
	}

	index := d.findFlowIndex(flowID)
	if index < 0 {
		sample.Meta = domain.QueryMetaRefused(domain.RefuseNoSource, *budget)
		return sample
	}
	flow := d.Flows[index]

	if d.networkCollapsed(flow.NetworkID) {
		sample.Flags = FlowCollapsed
		sample.Meta = domain.QueryMetaOK(domain.ResAnalytic, domain.ConfidenceUnknown, cost, *budget)
		sample.FlowID = flow.FlowID
		sample.NetworkID = flow.NetworkID
		return sample
	}

	sample.FlowID = flow.FlowID
	sample.NetworkID = flow.NetworkID
	sample.SourceStoreID = flow.SourceStoreID
	sample.SinkStoreID = flow.SinkStoreID
	sample.MaxTransferRate = flow.MaxTransferRate
	sample.Efficiency = flow.Efficiency
	sample.LatencyTicks = flow.LatencyTicks
	sample.FailureModeMask = flow.FailureModeMask
	sample.FailureChance = flow.FailureChance
	sample.Flags = 0
	sample.Meta = domain.QueryMetaOK(domain.ResAnalytic, domain.ConfidenceExact, cost, *budget)
	return sample
}

// NetworkQuery aggregates every live store/flow selected by networkID (0
// selects every live, uncollapsed network). If networkID itself is
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
			sample.StoreCount = capsule.StoreCount
			sample.FlowCount = capsule.FlowCount
			sample.EnergyTotal = capsule.EnergyTotal
			sample.CapacityTotal = capsule.CapacityTotal
		}
		sample.Flags = ResolvePartial
		sample.Meta = domain.QueryMetaOK(domain.ResAnalytic, domain.ConfidenceUnknown, costBase, *budget)
		return sample
	}

	costStore := budgetCost(d.Policy.CostCoarse)
	costFlow := budgetCost(d.Policy.CostMedium)

	var energyTotal, capacityTotal fixedpoint.Q48
	storesSeen, flowsSeen := uint32(0), uint32(0)

	for i := range d.Stores {
		storeNetwork := d.Stores[i].NetworkID
		if networkID != 0 && storeNetwork != networkID {
			continue
		}
		if networkID == 0 && d.networkCollapsed(storeNetwork) {
			sample.Flags |= ResolvePartial
			continue
		}
		if !budget.Consume(costStore) {
			sample.Flags |= ResolvePartial
			break
		}
		energyTotal = energyTotal.Add(d.Stores[i].Amount)
		capacityTotal = capacityTotal.Add(d.Stores[i].Capacity)
		storesSeen++
	}

	for i := range d.Flows {
		flowNetwork := d.Flows[i].NetworkID
		if networkID != 0 && flowNetwork != networkID {
			continue
		}
		if networkID == 0 && d.networkCollapsed(flowNetwork) {
			sample.Flags |= ResolvePartial
			continue
		}
		if !budget.Consume(costFlow) {
			sample.Flags |= ResolvePartial
			break
		}
		flowsSeen++
	}

	sample.NetworkID = networkID
	sample.StoreCount = storesSeen
	sample.FlowCount = flowsSeen
	sample.EnergyTotal = energyTotal
	sample.CapacityTotal = capacityTotal
	sample.Meta = domain.QueryMetaOK(domain.ResAnalytic, domain.ConfidenceExact, costBase, *budget)
	return sample
}
