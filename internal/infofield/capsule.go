package infofield

// CollapseNetwork materializes a macro capsule summarizing every live
// node/link/packet carrying networkID (or every live entity when
// networkID == 0), binning an error-rate histogram across the network's
// links' capacity profiles.
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

	var errorBins [HistBins]uint32
	linksSeen := uint32(0)
	capsule := MacroCapsule{CapsuleID: uint64(networkID), NetworkID: networkID}

	for i := range d.Nodes {
		if networkID != 0 && d.Nodes[i].NetworkID != networkID {
			continue
		}
		capsule.NodeCount++
	}

	for i := range d.Links {
		link := &d.Links[i]
		if networkID != 0 && link.NetworkID != networkID {
			continue
		}
		capsule.LinkCount++
		if capIdx := d.findCapacityIndex(link.CapacityID); capIdx >= 0 {
			errorBins[histBin(d.Capacities[capIdx].ErrorRate)]++
			linksSeen++
		}
	}

	for i := range d.Data {
		if networkID != 0 && d.Data[i].NetworkID != networkID {
			continue
		}
		capsule.DataCount++
		capsule.DataTotal = capsule.DataTotal.Add(d.Data[i].DataSize)
	}

	for b := 0; b < HistBins; b++ {
		capsule.ErrorRateHist[b] = histBinRatio(errorBins[b], linksSeen)
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
