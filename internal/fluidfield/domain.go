package fluidfield

import "github.com/domino-sim/domino/internal/domain"

// Init copies desc into a freshly zeroed domain: live arrays by value,
// policy defaulted, existence realized and archival live, capsules empty.
// Oversized descriptors are truncated to the entity bounds rather than
// rejected. A pressure cell authored with a non-positive release_ratio is
// defaulted to DefaultReleaseRatioQ16, matching dom_fluid_domain_init.
func (d *Domain) Init(desc SurfaceDesc) {
	*d = Domain{}
	d.Surface = desc
	d.Policy = domain.DefaultPolicy()
	d.State = domain.State{Existence: domain.ExistenceRealized, Archival: domain.ArchivalLive}
	d.AuthoringVersion = 1

	storeCount := len(desc.Stores)
	if storeCount > MaxStores {
		storeCount = MaxStores
	}
	d.Stores = make([]Store, storeCount)
	for i := 0; i < storeCount; i++ {
		sd := desc.Stores[i]
		d.Stores[i] = Store{
			StoreID:       sd.StoreID,
			FluidType:     sd.FluidType,
			Volume:        sd.Volume,
			MaxVolume:     sd.MaxVolume,
			Temperature:   sd.Temperature,
			Contamination: sd.Contamination,
			LeakageRate:   sd.LeakageRate,
			NetworkID:     sd.NetworkID,
			Location:      sd.Location,
		}
	}

	flowCount := len(desc.Flows)
	if flowCount > MaxFlows {
		flowCount = MaxFlows
	}
	d.Flows = make([]Flow, flowCount)
	for i := 0; i < flowCount; i++ {
		fd := desc.Flows[i]
		d.Flows[i] = Flow{
			FlowID:          fd.FlowID,
			NetworkID:       fd.NetworkID,
			SourceStoreID:   fd.SourceStoreID,
			SinkStoreID:     fd.SinkStoreID,
			MaxTransferRate: fd.MaxTransferRate,
			Efficiency:      fd.Efficiency,
			LatencyTicks:    fd.LatencyTicks,
			FailureModeMask: fd.FailureModeMask,
			FailureChance:   fd.FailureChance,
			EnergyPerVolume: fd.EnergyPerVolume,
		}
	}

	pressureCount := len(desc.Pressures)
	if pressureCount > MaxPressures {
		pressureCount = MaxPressures
	}
	d.Pressures = make([]Pressure, pressureCount)
	for i := 0; i < pressureCount; i++ {
		pd := desc.Pressures[i]
		release := pd.ReleaseRatio
		if release <= 0 {
			release = DefaultReleaseRatioQ16
		}
		d.Pressures[i] = Pressure{
			PressureID:       pd.PressureID,
			StoreID:          pd.StoreID,
			PressureLimit:    pd.PressureLimit,
			RuptureThreshold: pd.RuptureThreshold,
			ReleaseRatio:     release,
		}
	}

	propertyCount := len(desc.Properties)
	if propertyCount > MaxProperties {
		propertyCount = MaxProperties
	}
	d.Properties = make([]Property, propertyCount)
	for i := 0; i < propertyCount; i++ {
		pd := desc.Properties[i]
		d.Properties[i] = Property{
			PropertyID:           pd.PropertyID,
			FluidType:            pd.FluidType,
			Density:              pd.Density,
			ViscosityClass:       pd.ViscosityClass,
			CompressibilityClass: pd.CompressibilityClass,
			HazardProfile:        pd.HazardProfile,
		}
	}
}

// Free zeros the live arrays and capsules, releasing the domain's working
// state. The surface descriptor and policy are left untouched.
func (d *Domain) Free() {
	d.Stores = nil
	d.Flows = nil
	d.Pressures = nil
	d.Properties = nil
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

func (d *Domain) findStoreIndex(storeID uint32) int {
	for i := range d.Stores {
		if d.Stores[i].StoreID == storeID {
			return i
		}
	}
	return -1
}

func (d *Domain) findFlowIndex(flowID uint32) int {
	for i := range d.Flows {
		if d.Flows[i].FlowID == flowID {
			return i
		}
	}
	return -1
}

func (d *Domain) findPressureIndex(pressureID uint32) int {
	for i := range d.Pressures {
		if d.Pressures[i].PressureID == pressureID {
			return i
		}
	}
	return -1
}

// findPressureStoreIndex returns the index of the pressure cell bound to
// storeID, if any — at most one pressure cell is expected per store, but
// the first match in declaration order wins when authored otherwise.
func (d *Domain) findPressureStoreIndex(storeID uint32) int {
	for i := range d.Pressures {
		if d.Pressures[i].StoreID == storeID {
			return i
		}
	}
	return -1
}

func (d *Domain) findPropertyIndex(propertyID uint32) int {
	for i := range d.Properties {
		if d.Properties[i].PropertyID == propertyID {
			return i
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
