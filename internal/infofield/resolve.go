package infofield

import (
	"github.com/domino-sim/domino/internal/domain"
	"github.com/domino-sim/domino/internal/fixedpoint"
	"github.com/domino-sim/domino/internal/rng"
)

const errorStreamName = "noise.stream.signal.data.error"

func clampRatio(v fixedpoint.Q16) fixedpoint.Q16 {
	if v < 0 {
		return 0
	}
	if v > RatioOneQ16 {
		return RatioOneQ16
	}
	return v
}

func nonNegative(v fixedpoint.Q48) fixedpoint.Q48 {
	if v < 0 {
		return 0
	}
	return v
}

// dataErrorRoll seeds an RNG deterministically from
// (world_seed, domain_id, link_id^data_id, tick, error-stream) and reports
// whether the draw falls at or under the link's capacity error_rate. The
// XOR combination of link and data id — rather than a single entity id, as
// every other field's failure roll uses — ensures two packets crossing the
// same link in the same tick draw independent outcomes.
func dataErrorRoll(surface SurfaceDesc, link *Link, data *Data, capacity *Capacity, tick uint64) bool {
	if capacity.ErrorRate <= 0 {
		return false
	}
	processID := uint64(link.LinkID) ^ uint64(data.DataID)
	state := rng.StateFromContext(surface.WorldSeed, surface.DomainID, processID, tick,
		errorStreamName, rng.MixDomain|rng.MixProcess|rng.MixTick|rng.MixStream)
	return state.Chance(int32(clampRatio(capacity.ErrorRate)))
}

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

// Resolve walks every packet selected by networkID (0 selects every live,
// uncollapsed network) once, in declaration order. Each packet is routed,
// latency-gated, congestion-checked against both its sink node's compute
// capacity and its link's remaining bandwidth, rolled for corruption, and
// finalized as delivered, stored, dropped, or left queued for a later
// tick. compute/bandwidth usage accumulates in per-call scratch slices —
// this tick's throughput, not a persistent reservation — while a node's
// storage_used persists across ticks as genuine occupancy. Collapsed
// target networks short-circuit to their capsule summary before any
// packet is examined.
func (d *Domain) Resolve(networkID uint32, tick uint64, budget *domain.Budget) ResolveResult {
	var result ResolveResult

	if !d.isActive() {
		result.RefusalReason = domain.RefuseDomainInactive
		return result
	}

	costBase := budgetCost(d.Policy.CostAnalytic)
	if !budget.Consume(costBase) {
		result.RefusalReason = domain.RefuseBudget
		return result
	}

	if d.networkCollapsed(networkID) {
		if capsule := d.findCapsule(networkID); capsule != nil {
			result.DeliveredCount = capsule.DataCount
		}
		result.Ok = true
		result.Flags = ResolvePartial
		return result
	}

	computeUsed := make([]fixedpoint.Q48, len(d.Nodes))
	bandwidthUsed := make([]fixedpoint.Q48, len(d.Links))

	var flags ResolveFlags
	var energyCostTotal, heatGeneratedTotal fixedpoint.Q48
	deliveredCount, droppedCount, queuedCount := uint32(0), uint32(0), uint32(0)
	costData := budgetCost(d.Policy.CostCoarse)

packets:
	for i := range d.Data {
		data := &d.Data[i]

		if data.Flags&(DataDelivered|DataDropped) != 0 {
			continue
		}
		if networkID != 0 && data.NetworkID != networkID {
			continue
		}
		if networkID == 0 && d.networkCollapsed(data.NetworkID) {
			flags |= ResolvePartial
			continue
		}
		if !budget.Consume(costData) {
			flags |= ResolvePartial
			if result.RefusalReason == domain.RefuseNone {
				result.RefusalReason = domain.RefuseBudget
			}
			break
		}

		data.Flags &^= DataQueued

		if data.SendTick > tick {
			data.Flags |= DataQueued
			queuedCount++
			continue
		}

		linkIdx := d.findLinkForNodes(data.SourceNodeID, data.SinkNodeID)
		if linkIdx < 0 {
			data.Flags = (data.Flags &^ DataPending) | DataDropped
			droppedCount++
			flags |= ResolveDropped
			continue
		}
		link := &d.Links[linkIdx]

		capIdx := d.findCapacityIndex(link.CapacityID)
		if capIdx < 0 {
			data.Flags = (data.Flags &^ DataPending) | DataDropped
			droppedCount++
			flags |= ResolveDropped
			continue
		}
		capacity := &d.Capacities[capIdx]

		elapsed := tick - data.SendTick
		if elapsed < latencyTicks(capacity.LatencyClass) {
			data.Flags |= DataQueued
			queuedCount++
			continue
		}

		sourceIdx := d.findNodeIndex(data.SourceNodeID)
		sinkIdx := d.findNodeIndex(data.SinkNodeID)
		if sourceIdx < 0 || sinkIdx < 0 {
			data.Flags = (data.Flags &^ DataPending) | DataDropped
			droppedCount++
			flags |= ResolveDropped
			continue
		}
		sourceNode := &d.Nodes[sourceIdx]
		sinkNode := &d.Nodes[sinkIdx]

		computeRemaining := nonNegative(sinkNode.ComputeCapacity.Sub(computeUsed[sinkIdx]))
		if data.DataSize > computeRemaining {
			link.Flags |= LinkCongested
			flags |= ResolveCongested
			switch capacity.CongestionPolicy {
			case CongestionQueue:
				data.Flags |= DataQueued
				queuedCount++
				continue packets
			case CongestionDegrade:
				// Degrade admits this packet despite the overrun; the
				// node simply runs hot rather than refusing it.
			default:
				data.Flags = (data.Flags &^ DataPending) | DataDropped
				droppedCount++
				flags |= ResolveDropped
				continue packets
			}
		}

		bandwidthRemaining := nonNegative(capacity.BandwidthLimit.Sub(bandwidthUsed[linkIdx]))
		if data.DataSize > bandwidthRemaining {
			link.Flags |= LinkCongested
			flags |= ResolveCongested
			switch capacity.CongestionPolicy {
			case CongestionQueue:
				data.Flags |= DataQueued
				queuedCount++
				continue packets
			case CongestionDegrade:
				bandwidthUsed[linkIdx] = capacity.BandwidthLimit
			default:
				data.Flags = (data.Flags &^ DataPending) | DataDropped
				droppedCount++
				flags |= ResolveDropped
				continue packets
			}
		} else {
			bandwidthUsed[linkIdx] = bandwidthUsed[linkIdx].Add(data.DataSize)
		}
		computeUsed[sinkIdx] = computeUsed[sinkIdx].Add(data.DataSize)

		if dataErrorRoll(d.Surface, link, data, capacity, tick) {
			data.DataUncertainty = clampRatio(data.DataUncertainty.Add(capacity.ErrorRate))
			data.Flags |= DataCorrupt
			link.Flags |= LinkCorrupt
			flags |= ResolveCorrupt
		}

		if data.DataType == DataStorage {
			storageRemaining := nonNegative(sinkNode.StorageCapacity.Sub(sinkNode.StorageUsed))
			if data.DataSize > storageRemaining {
				switch capacity.CongestionPolicy {
				case CongestionQueue:
					data.Flags |= DataQueued
					queuedCount++
				default:
					data.Flags = (data.Flags &^ DataPending) | DataDropped
					droppedCount++
					flags |= ResolveDropped
				}
				continue
			}
			sinkNode.StorageUsed = sinkNode.StorageUsed.Add(data.DataSize)
			data.Flags = (data.Flags &^ DataPending) | DataStored | DataDelivered
		} else {
			data.Flags = (data.Flags &^ DataPending) | DataDelivered
		}
		deliveredCount++

		energyCostTotal = energyCostTotal.
			Add(sourceNode.EnergyPerUnit.Mul(data.DataSize)).
			Add(sinkNode.EnergyPerUnit.Mul(data.DataSize))
		heatGeneratedTotal = heatGeneratedTotal.
			Add(sourceNode.HeatPerUnit.Mul(data.DataSize)).
			Add(sinkNode.HeatPerUnit.Mul(data.DataSize))
	}

	result.Ok = true
	result.Flags = flags
	result.DeliveredCount = deliveredCount
	result.DroppedCount = droppedCount
	result.QueuedCount = queuedCount
	result.EnergyCostTotal = energyCostTotal
	result.HeatGeneratedTotal = heatGeneratedTotal
	return result
}
