package fluidfield

import (
	"github.com/domino-sim/domino/internal/domain"
	"github.com/domino-sim/domino/internal/fixedpoint"
	"github.com/domino-sim/domino/internal/rng"
)

const failureStreamName = "noise.stream.fluid.flow.failure"

// cascadeDivisor halves a flow's max transfer rate once cascade_active is
// set by an earlier flow in the same resolve pass.
const cascadeDivisor = 2

func clampRatio(v fixedpoint.Q16) fixedpoint.Q16 {
	if v < 0 {
		return 0
	}
	if v > RatioOneQ16 {
		return RatioOneQ16
	}
	return v
}

// ratioMulQ48 scales a Q48 amount by a Q16 ratio clamped to [0,1].
func ratioMulQ48(value fixedpoint.Q48, ratio fixedpoint.Q16) fixedpoint.Q48 {
	return value.Mul(fixedpoint.FromQ16(clampRatio(ratio)))
}

func minQ48(a, b fixedpoint.Q48) fixedpoint.Q48 {
	return a.Min(b)
}

// flowFailureRoll seeds an RNG deterministically from
// (world_seed, domain_id, flow_id, tick, failure-stream) and reports
// whether the draw falls at or under the flow's failure_chance.
func flowFailureRoll(surface SurfaceDesc, flow *Flow, tick uint64) bool {
	if flow.FailureChance <= 0 {
		return false
	}
	state := rng.StateFromContext(surface.WorldSeed, surface.DomainID, uint64(flow.FlowID), tick,
		failureStreamName, rng.MixDomain|rng.MixProcess|rng.MixTick|rng.MixStream)
	return state.Chance(int32(clampRatio(flow.FailureChance)))
}

// applyLeakage subtracts this tick's leakage from store.Volume and
// accumulates it into lossTotal, reporting whether any loss occurred.
func applyLeakage(store *Store, tickDelta uint64, lossTotal *fixedpoint.Q48) bool {
	if tickDelta == 0 || store.LeakageRate <= 0 {
		return false
	}
	leak := ratioMulQ48(store.Volume, store.LeakageRate)
	if tickDelta > 1 {
		leak = leak.Mul(fixedpoint.FromInt64(int64(tickDelta)))
	}
	if leak <= 0 {
		return false
	}
	if leak > store.Volume {
		leak = store.Volume
	}
	store.Volume = store.Volume.Sub(leak)
	*lossTotal = lossTotal.Add(leak)
	return true
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

// mixQ48 volume-weights base_value/base_volume against
// incoming_value/incoming_volume, returning base_value unchanged if the
// combined volume is non-positive.
func mixQ48(baseValue, baseVolume, incomingValue, incomingVolume fixedpoint.Q48) fixedpoint.Q48 {
	total := baseVolume.Add(incomingVolume)
	if total <= 0 {
		return baseValue
	}
	return baseValue.Mul(baseVolume.Div(total)).Add(incomingValue.Mul(incomingVolume.Div(total)))
}

// mixQ16 is mixQ48 for a Q16 ratio value (temperature is Q48; contamination
// is Q16), converting through Q48 and clamping the result to [0,1].
func mixQ16(baseValue fixedpoint.Q16, baseVolume fixedpoint.Q48, incomingValue fixedpoint.Q16, incomingVolume fixedpoint.Q48) fixedpoint.Q16 {
	mixed := mixQ48(fixedpoint.FromQ16(baseValue), baseVolume, fixedpoint.FromQ16(incomingValue), incomingVolume)
	return clampRatio(mixed.ToQ16())
}

// pressureAmountLive is pressureAmount taking live (non-pointer-copy)
// arguments, used from inside Resolve where stores/pressures are addressed
// directly rather than through query's by-value copies.
func pressureAmountLive(surface SurfaceDesc, store *Store, pressure *Pressure) fixedpoint.Q48 {
	return pressureAmount(surface, store, pressure)
}

// Resolve performs one tick's update over networkID (0 selects every live,
// uncollapsed network): a leakage pass, a flow pass with pressure-blocked
// transfers, cascade propagation, volume-weighted mixing of temperature and
// contamination into the sink, a pressure pass with rupture/release, and
// finally a remaining-volume pass. Collapsed target networks short-circuit
// to their capsule summary before any of these passes run.
func (d *Domain) Resolve(networkID uint32, tick, tickDelta uint64, budget *domain.Budget) ResolveResult {
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
			result.StoreCount = capsule.StoreCount
			result.FlowCount = capsule.FlowCount
			result.VolumeRemaining = capsule.VolumeTotal
		}
		result.Ok = true
		result.Flags = ResolvePartial
		return result
	}

	var volumeLeaked, volumeTransferred, volumeRemaining, energyRequired fixedpoint.Q48
	var flags ResolveFlags
	cascadeActive := false

	// Leakage pass.
	for i := range d.Stores {
		storeNetwork := d.Stores[i].NetworkID
		if networkID != 0 && storeNetwork != networkID {
			continue
		}
		if networkID == 0 && d.networkCollapsed(storeNetwork) {
			flags |= ResolvePartial
			continue
		}
		d.Stores[i].Flags = 0
		if applyLeakage(&d.Stores[i], tickDelta, &volumeLeaked) {
			flags |= ResolveLeakage
		}
	}

	// Flow pass, in declaration order; cascade_active propagates forward.
	costFlow := budgetCost(d.Policy.CostMedium)
	flowsSeen := uint32(0)
	for i := range d.Flows {
		flowNetwork := d.Flows[i].NetworkID
		if networkID != 0 && flowNetwork != networkID {
			continue
		}
		if networkID == 0 && d.networkCollapsed(flowNetwork) {
			flags |= ResolvePartial
			continue
		}
		if !budget.Consume(costFlow) {
			flags |= ResolvePartial
			if result.RefusalReason == domain.RefuseNone {
				result.RefusalReason = domain.RefuseBudget
			}
			break
		}

		flow := &d.Flows[i]
		flow.Flags = 0

		sourceIdx := d.findStoreIndex(flow.SourceStoreID)
		sinkIdx := d.findStoreIndex(flow.SinkStoreID)
		if sourceIdx < 0 || sinkIdx < 0 {
			flow.Flags |= FlowUnknown
			flags |= ResolvePartial
			continue
		}
		source := &d.Stores[sourceIdx]
		sink := &d.Stores[sinkIdx]

		maxRate := flow.MaxTransferRate
		if cascadeActive && maxRate > 0 {
			maxRate = fixedpoint.Q48(int64(maxRate) / cascadeDivisor)
		}
		available := source.Volume
		sinkSpace := sink.MaxVolume.Sub(sink.Volume)
		if sinkSpace < 0 {
			sinkSpace = 0
		}
		transfer := minQ48(maxRate, available)
		transfer = minQ48(transfer, sinkSpace)

		if available <= 0 {
			if flow.FailureModeMask&FailureBlocked != 0 {
				flow.Flags |= FlowBlocked
				flags |= ResolveBlocked
			}
		}
		if sinkSpace <= 0 {
			if flow.FailureModeMask&FailureOverload != 0 {
				flow.Flags |= FlowOverload
				flags |= ResolveOverload
			}
		}

		// Pressure-blocked transfer: fluid never flows from lower to
		// higher pressure even if volume/space would otherwise allow it.
		var sourcePressure, sinkPressure fixedpoint.Q48
		if pIdx := d.findPressureStoreIndex(flow.SourceStoreID); pIdx >= 0 {
			sourcePressure = pressureAmountLive(d.Surface, source, &d.Pressures[pIdx])
		}
		if pIdx := d.findPressureStoreIndex(flow.SinkStoreID); pIdx >= 0 {
			sinkPressure = pressureAmountLive(d.Surface, sink, &d.Pressures[pIdx])
		}
		if sourcePressure > 0 && sinkPressure > 0 && sourcePressure < sinkPressure {
			transfer = 0
			flow.Flags |= FlowBlocked
			flags |= ResolveBlocked
		}

		forceLeak := false
		if flowFailureRoll(d.Surface, flow, tick) {
			if flow.FailureModeMask&FailureBlocked != 0 {
				flow.Flags |= FlowBlocked
				flags |= ResolveBlocked
				transfer = 0
			} else if flow.FailureModeMask&FailureLeakage != 0 {
				flow.Flags |= FlowLeakage
				flags |= ResolveLeakage
				forceLeak = true
			}
		}

		if transfer > 0 {
			var delivered, loss fixedpoint.Q48
			if forceLeak {
				delivered = 0
				loss = transfer
			} else {
				delivered = ratioMulQ48(transfer, flow.Efficiency)
				loss = transfer.Sub(delivered)
			}
			source.Volume = source.Volume.Sub(transfer)
			if delivered > 0 {
				sinkPrev := sink.Volume
				sink.Volume = sink.Volume.Add(delivered)
				sink.Temperature = mixQ48(sink.Temperature, sinkPrev, source.Temperature, delivered)
				sink.Contamination = mixQ16(sink.Contamination, sinkPrev, source.Contamination, delivered)
			}
			volumeTransferred = volumeTransferred.Add(delivered)
			if loss > 0 {
				volumeLeaked = volumeLeaked.Add(loss)
				flow.Flags |= FlowLeakage
				flags |= ResolveLeakage
			}
			if flow.EnergyPerVolume > 0 {
				energyRequired = energyRequired.Add(flow.EnergyPerVolume.Mul(transfer))
			}
		}

		if flow.Flags&(FlowBlocked|FlowOverload) != 0 {
			if flow.FailureModeMask&FailureCascade != 0 {
				cascadeActive = true
				flow.Flags |= FlowCascade
				flags |= ResolveCascade
			}
		}

		flowsSeen++
	}

	// Pressure pass: evaluates every cell against its soft limit and
	// rupture threshold, releasing release_ratio of the store's volume as
	// additional leakage on rupture.
	costPressure := budgetCost(d.Policy.CostCoarse)
	pressuresSeen := uint32(0)
	for i := range d.Pressures {
		pressure := &d.Pressures[i]
		storeIndex := d.findStoreIndex(pressure.StoreID)
		if storeIndex < 0 {
			pressure.Flags = PressureUnresolved
			flags |= ResolvePartial
			continue
		}
		storeNetwork := d.Stores[storeIndex].NetworkID
		if networkID != 0 && storeNetwork != networkID {
			continue
		}
		if networkID == 0 && d.networkCollapsed(storeNetwork) {
			pressure.Flags = PressureUnresolved
			flags |= ResolvePartial
			continue
		}
		if !budget.Consume(costPressure) {
			flags |= ResolvePartial
			if result.RefusalReason == domain.RefuseNone {
				result.RefusalReason = domain.RefuseBudget
			}
			break
		}

		pressure.Flags = 0
		amount := pressureAmountLive(d.Surface, &d.Stores[storeIndex], pressure)
		if pressure.PressureLimit > 0 && amount > pressure.PressureLimit {
			pressure.Flags |= PressureOverLimit
			result.PressureOverLimitCount++
			flags |= ResolvePressureOver
		}
		if pressure.RuptureThreshold > 0 && amount > pressure.RuptureThreshold {
			pressure.Flags |= PressureRuptured
			result.PressureRuptureCount++
			flags |= ResolveRupture
			d.Stores[storeIndex].Flags |= StoreRuptured

			release := pressure.ReleaseRatio
			if release <= 0 {
				release = DefaultReleaseRatioQ16
			}
			leak := ratioMulQ48(d.Stores[storeIndex].Volume, release)
			if leak > 0 {
				d.Stores[storeIndex].Volume = d.Stores[storeIndex].Volume.Sub(leak)
				volumeLeaked = volumeLeaked.Add(leak)
				amount = pressureAmountLive(d.Surface, &d.Stores[storeIndex], pressure)
			}
		}
		pressure.Amount = amount
		pressuresSeen++
	}

	// Remaining pass.
	storesSeen := uint32(0)
	for i := range d.Stores {
		storeNetwork := d.Stores[i].NetworkID
		if networkID != 0 && storeNetwork != networkID {
			continue
		}
		if networkID == 0 && d.networkCollapsed(storeNetwork) {
			flags |= ResolvePartial
			continue
		}
		volumeRemaining = volumeRemaining.Add(d.Stores[i].Volume)
		storesSeen++
	}

	result.Ok = true
	result.Flags = flags
	result.StoreCount = storesSeen
	result.FlowCount = flowsSeen
	result.PressureCount = pressuresSeen
	result.VolumeTransferred = volumeTransferred
	result.VolumeLeaked = volumeLeaked
	result.VolumeRemaining = volumeRemaining
	result.EnergyRequired = energyRequired
	return result
}
