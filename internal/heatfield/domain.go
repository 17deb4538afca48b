package heatfield

import "github.com/domino-sim/domino/internal/domain"

// Init copies desc into a freshly zeroed domain: live Stores/Flows/Stresses
// arrays by value, policy defaulted, existence realized and archival live
// (matching dom_heat_domain_init's "constructed domains start active"
// contract), capsules empty. Oversized descriptors are truncated to the
// entity bounds rather than rejected.
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
			StoreID:             sd.StoreID,
			Amount:              sd.Amount,
			Capacity:            sd.Capacity,
			AmbientExchangeRate: sd.AmbientExchangeRate,
			NetworkID:           sd.NetworkID,
			Location:            sd.Location,
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
		}
	}

	stressCount := len(desc.Stresses)
	if stressCount > MaxStresses {
		stressCount = MaxStresses
	}
	d.Stresses = make([]Stress, stressCount)
	for i := 0; i < stressCount; i++ {
		sd := desc.Stresses[i]
		d.Stresses[i] = Stress{
			StressID:           sd.StressID,
			StoreID:            sd.StoreID,
			SafeMin:            sd.SafeMin,
			SafeMax:            sd.SafeMax,
			DamageRate:         sd.DamageRate,
			EfficiencyModifier: sd.EfficiencyModifier,
		}
	}
}

// Free zeros the live arrays and capsules, releasing the domain's working
// state. The surface descriptor and policy are left untouched, matching
// the original's "free only clears counts" contract.
func (d *Domain) Free() {
	d.Stores = nil
	d.Flows = nil
	d.Stresses = nil
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

func (d *Domain) findStressIndex(stressID uint32) int {
	for i := range d.Stresses {
		if d.Stresses[i].StressID == stressID {
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
