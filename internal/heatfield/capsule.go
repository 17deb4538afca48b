package heatfield

import "github.com/domino-sim/domino/internal/fixedpoint"

// histBinRatio returns count/total as a Q16.16 ratio, or 0 if total is 0.
func histBinRatio(count, total uint32) fixedpoint.Q16 {
	if total == 0 {
		return 0
	}
	return fixedpoint.Q16(int64(count) << 16 / int64(total))
}

// histBin maps a clamped [0,1] Q16.16 ratio onto one of HistBins buckets.
func histBin(ratio fixedpoint.Q16) int {
	clamped := clampRatio(ratio)
	scaled := int64(clamped) * (HistBins - 1) >> 16
	if scaled >= HistBins {
		scaled = HistBins - 1
	}
	return int(scaled)
}

// CollapseNetwork materializes a macro capsule summarizing every live
// store/flow carrying networkID (or every store/flow when networkID == 0),
// additionally accumulating each store's ambient dissipation rate
// (capacity * ambient_exchange_rate) into the capsule — heat's capsule
// carries a dissipation-rate total that energy's does not, since heat loss
// is an ongoing ambient process rather than a one-shot leakage event.
//
// Returns nil on success (including the already-collapsed no-op case), and
// an error when the capsule table is full.
func (d *Domain) CollapseNetwork(networkID uint32) error {
	if d.networkCollapsed(networkID) {
		return nil
	}
	if len(d.Capsules) >= MaxCapsules {
		return errCapsuleCapacity
	}

	var histBins [HistBins]uint32
	capsule := MacroCapsule{CapsuleID: uint64(networkID), NetworkID: networkID}

	for i := range d.Stores {
		if networkID != 0 && d.Stores[i].NetworkID != networkID {
			continue
		}
		capsule.StoreCount++
		capsule.HeatTotal = capsule.HeatTotal.Add(d.Stores[i].Amount)
		capsule.CapacityTotal = capsule.CapacityTotal.Add(d.Stores[i].Capacity)

		var ratio fixedpoint.Q16
		if d.Stores[i].Capacity > 0 {
			r48 := d.Stores[i].Amount.Div(d.Stores[i].Capacity)
			ratio = clampRatio(r48.ToQ16())
		}
		histBins[histBin(ratio)]++

		dissipationRate := ratioMulQ48(d.Stores[i].Capacity, d.Stores[i].AmbientExchangeRate)
		capsule.DissipationRateTotal = capsule.DissipationRateTotal.Add(dissipationRate)
	}

	for i := range d.Flows {
		if networkID != 0 && d.Flows[i].NetworkID != networkID {
			continue
		}
		capsule.FlowCount++
		capsule.TransferRateTotal = capsule.TransferRateTotal.Add(d.Flows[i].MaxTransferRate)
	}

	for b := 0; b < HistBins; b++ {
		capsule.TemperatureRatioHist[b] = histBinRatio(histBins[b], capsule.StoreCount)
	}

	d.Capsules = append(d.Capsules, capsule)
	return nil
}

// ExpandNetwork removes networkID's capsule, swapping the last capsule into
// the freed slot to preserve contiguity. Returns errCapsuleNotFound if no
// capsule for networkID exists.
func (d *Domain) ExpandNetwork(networkID uint32) error {
	for i := range d.Capsules {
		if d.Capsules[i].NetworkID == networkID {
			last := len(d.Capsules) - 1
			d.Capsules[i] = d.Capsules[last]
			d.Capsules = d.Capsules[:last]
			return nil
		}
	}
	return errCapsuleNotFound
}

// CapsuleCount reports how many networks are currently collapsed.
func (d *Domain) CapsuleCount() int {
	return len(d.Capsules)
}

// CapsuleAt returns the capsule at index, or nil if index is out of range.
func (d *Domain) CapsuleAt(index int) *MacroCapsule {
	if index < 0 || index >= len(d.Capsules) {
		return nil
	}
	return &d.Capsules[index]
}
