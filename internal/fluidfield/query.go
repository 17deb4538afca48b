package fluidfield

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
		sample.NetworkID = store.NetworkID
		return sample
	}

	sample.StoreID = store.StoreID
	sample.FluidType = store.FluidType
	sample.Volume = store.Volume
	sample.MaxVolume = store.MaxVolume
	sample.Temperature = store.Temperature
	sample.Contamination = store.Contamination
	sample.LeakageRate = store.LeakageRate
	sample.NetworkID = store.NetworkID
	sample.Flags = store.Flags
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
	sample.EnergyPerVolume = flow.EnergyPerVolume
	sample.Flags = flow.Flags
	sample.Meta = domain.QueryMetaOK(domain.ResAnalytic, domain.ConfidenceExact, cost, *budget)
	return sample
}

// pressureAmount derives a pressure cell's current reading from its store's
// fill ratio: (volume/max_volume) * base, where base is the cell's own
// pressure_limit if positive, else the surface's pressure_scale. Zero-guards
// a non-positive base or a store with no max_volume.
func pressureAmount(surface SurfaceDesc, store *Store, pressure *Pressure) fixedpoint.Q48 {
	base := pressure.PressureLimit
	if base <= 0 {
		base = surface.PressureScale
	}
	if base <= 0 || store.MaxVolume <= 0 {
		return 0
	}
	ratio := store.Volume.Div(store.MaxVolume)
	if ratio < 0 {
		ratio = 0
	}
	return ratio.Mul(base)
}

// PressureQuery samples one pressure cell by id, deriving its current
// amount from its backing store. An unknown pressure id or a dangling
// store_id both refuse with NoSource. A cell whose store lives in a
// collapsed network reports PressureUnresolved/ConfidenceUnknown rather
// than refusing.
func (d *Domain) PressureQuery(pressureID uint32, budget *domain.Budget) PressureSample {
	sample := PressureSample{Flags: PressureUnresolved}

	if !d.isActive() {
		sample.Meta = domain.QueryMetaRefused(domain.RefuseDomainInactive, *budget)
		return sample
	}

	cost := budgetCost(d.Policy.CostFull)
	if !budget.Consume(cost) {
		sample.Meta = domain.QueryMetaRefused(domain.RefuseBudget, *budget)
		return sample
	}

	index := d.findPressureIndex(pressureID)
	if index < 0 {
		sample.Meta = domain.QueryMetaRefused(domain.RefuseNoSource, *budget)
		return sample
	}
	pressure := d.Pressures[index]

	storeIndex := d.findStoreIndex(pressure.StoreID)
	if storeIndex < 0 {
		sample.Meta = domain.QueryMetaRefused(domain.RefuseNoSource, *budget)
		return sample
	}
	store := d.Stores[storeIndex]

	if d.networkCollapsed(store.NetworkID) {
		sample.Flags = PressureUnresolved
		sample.Meta = domain.QueryMetaOK(domain.ResAnalytic, domain.ConfidenceUnknown, cost, *budget)
		sample.PressureID = pressure.PressureID
		sample.StoreID = pressure.StoreID
		return sample
	}

	amount := pressureAmount(d.Surface, &store, &pressure)
	var flags PressureFlags
	if pressure.PressureLimit > 0 && amount > pressure.PressureLimit {
		flags |= PressureOverLimit
	}
	if pressure.RuptureThreshold > 0 && amount > pressure.RuptureThreshold {
		flags |= PressureRuptured
	}

	sample.PressureID = pressure.PressureID
	sample.StoreID = pressure.StoreID
	sample.Amount = amount
	sample.PressureLimit = pressure.PressureLimit
	sample.RuptureThreshold = pressure.RuptureThreshold
	sample.ReleaseRatio = pressure.ReleaseRatio
	sample.Flags = flags
	sample.Meta = domain.QueryMetaOK(domain.ResAnalytic, domain.ConfidenceExact, cost, *budget)
	return sample
}

// PropertyQuery samples one static fluid-property row by id. Properties
// never collapse with a network since they describe a fluid type, not a
// located entity.
func (d *Domain) PropertyQuery(propertyID uint32, budget *domain.Budget) PropertySample {
	sample := PropertySample{Flags: PropertyUnresolved}

	if !d.isActive() {
		sample.Meta = domain.QueryMetaRefused(domain.RefuseDomainInactive, *budget)
		return sample
	}

	cost := budgetCost(d.Policy.CostFull)
	if !budget.Consume(cost) {
		sample.Meta = domain.QueryMetaRefused(domain.RefuseBudget, *budget)
		return sample
	}

	index := d.findPropertyIndex(propertyID)
	if index < 0 {
		sample.Meta = domain.QueryMetaRefused(domain.RefuseNoSource, *budget)
		return sample
	}
	property := d.Properties[index]

	sample.PropertyID = property.PropertyID
	sample.FluidType = property.FluidType
	sample.Density = property.Density
	sample.ViscosityClass = property.ViscosityClass
	sample.CompressibilityClass = property.CompressibilityClass
	sample.HazardProfile = property.HazardProfile
	sample.Flags = 0
	sample.Meta = domain.QueryMetaOK(domain.ResAnalytic, domain.ConfidenceExact, cost, *budget)
	return sample
}

// NetworkQuery aggregates every live store/flow/pressure selected by
// networkID (0 selects every live, uncollapsed network). If networkID
// itself is collapsed, the capsule summary is returned with ResolvePartial
// set. Otherwise each selected entity consumes its own per-entity budget
// tier; running out mid-scan sets ResolvePartial and stops early rather
// than refusing the whole query. A pressure cell whose store is missing
// sets ResolvePartial but is otherwise skipped without consuming budget.
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
			sample.VolumeTotal = capsule.VolumeTotal
			sample.CapacityTotal = capsule.CapacityTotal
		}
		sample.Flags = ResolvePartial
		sample.Meta = domain.QueryMetaOK(domain.ResAnalytic, domain.ConfidenceUnknown, costBase, *budget)
		return sample
	}

	costStore := budgetCost(d.Policy.CostCoarse)
	costFlow := budgetCost(d.Policy.CostMedium)
	costPressure := budgetCost(d.Policy.CostCoarse)

	var volumeTotal, capacityTotal, pressureTotal, contaminationTotal fixedpoint.Q48
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
		volumeTotal = volumeTotal.Add(d.Stores[i].Volume)
		capacityTotal = capacityTotal.Add(d.Stores[i].MaxVolume)
		if d.Stores[i].Volume > 0 {
			contaminationTotal = contaminationTotal.Add(
				d.Stores[i].Volume.Mul(fixedpoint.FromQ16(d.Stores[i].Contamination)))
		}
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

	for i := range d.Pressures {
		pressure := &d.Pressures[i]
		storeIndex := d.findStoreIndex(pressure.StoreID)
		if storeIndex < 0 {
			sample.Flags |= ResolvePartial
			continue
		}
		storeNetwork := d.Stores[storeIndex].NetworkID
		if networkID != 0 && storeNetwork != networkID {
			continue
		}
		if networkID == 0 && d.networkCollapsed(storeNetwork) {
			sample.Flags |= ResolvePartial
			continue
		}
		if !budget.Consume(costPressure) {
			sample.Flags |= ResolvePartial
			break
		}
		pressureTotal = pressureTotal.Add(pressureAmount(d.Surface, &d.Stores[storeIndex], pressure))
	}

	sample.NetworkID = networkID
	sample.StoreCount = storesSeen
	sample.FlowCount = flowsSeen
	sample.VolumeTotal = volumeTotal
	sample.CapacityTotal = capacityTotal
	sample.PressureTotal = pressureTotal
	if volumeTotal > 0 {
		sample.ContaminationAvg = clampRatio(contaminationTotal.Div(volumeTotal).ToQ16())
	}
	sample.Meta = domain.QueryMetaOK(domain.ResAnalytic, domain.ConfidenceExact, costBase, *budget)
	return sample
}
