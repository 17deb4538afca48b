package fluidfield

import "github.com/domino-sim/domino/internal/fixedpoint"

// CollapseNetwork materializes a macro capsule summarizing every live
// store/flow/pressure carrying networkID (or every live entity when
// networkID == 0), binning both a pressure-ratio histogram (amount vs.
// pressure_limit) and a contamination-ratio histogram across the
// network's stores.
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

	var pressureBins, contaminationBins [HistBins]uint32
	pressuresSeen := uint32(0)
	capsule := MacroCapsule{CapsuleID: uint64(networkID), NetworkID: networkID}

	for i := range d.Stores {
		if networkID != 0 && d.Stores[i].NetworkID != networkID {
			continue
		}
		capsule.StoreCount++
		capsule.VolumeTotal = capsule.VolumeTotal.Add(d.Stores[i].Volume)
		capsule.CapacityTotal = capsule.CapacityTotal.Add(d.Stores[i].MaxVolume)
		contaminationBins[histBin(d.Stores[i].Contamination)]++
		leakageRate := ratioMulQ48(d.Stores[i].MaxVolume, d.Stores[i].LeakageRate)
		capsule.LeakageRateTotal = capsule.LeakageRateTotal.Add(leakageRate)
	}

	for i := range d.Flows {
		if networkID != 0 && d.Flows[i].NetworkID != networkID {
			continue
		}
		capsule.FlowCount++
		capsule.TransferRateTotal = capsule.TransferRateTotal.Add(d.Flows[i].MaxTransferRate)
	}

	for i := range d.Pressures {
		pressure := &d.Pressures[i]
		storeIndex := d.findStoreIndex(pressure.StoreID)
		if storeIndex < 0 {
			continue
		}
		if networkID != 0 && d.Stores[storeIndex].NetworkID != networkID {
			continue
		}
		amount := pressureAmountLive(d.Surface, &d.Stores[storeIndex], pressure)
		var ratio fixedpoint.Q48
		if pressure.PressureLimit > 0 {
			ratio = amount.Div(pressure.PressureLimit)
		}
		pressureBins[histBin(clampRatio(ratio.ToQ16()))]++
		pressuresSeen++
	}

	for b := 0; b < HistBins; b++ {
		capsule.PressureRatioHist[b] = histBinRatio(pressureBins[b], pressuresSeen)
		capsule.ContaminationRatioHist[b] = histBinRatio(contaminationBins[b], capsule.StoreCount)
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
