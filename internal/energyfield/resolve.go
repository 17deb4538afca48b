package energyfield

import (
	"github.com/domino-sim/domino/internal/domain"
	"github.com/domino-sim/domino/internal/fixedpoint"
	"github.com/domino-sim/domino/internal/rng"
)

const failureStreamName = "noise.stream.energy.flow.failure"

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
// whether the draw falls at or under the flow's failure_chance. A flow
// with failure_chance <= 0 never fails this way.
func flowFailureRoll(surface SurfaceDesc, flow *Flow, tick uint64) bool {
	if flow.FailureChance <= 0 {
		return false
	}
	state := rng.StateFromContext(surface.WorldSeed, surface.DomainID, uint64(flow.FlowID), tick,
		failureStreamName, rng.MixDomain|rng.MixProcess|rng.MixTick|rng.MixStream)
	return state.Chance(int32(clampRatio(flow.FailureChance)))
}

// applyLeakage subtracts this tick's leak from store.Amount and accumulates
// it into lossTotal, reporting whether any leak actually occurred.
func applyLeakage(store *Store, tickDelta uint64, lossTotal *fixedpoint.Q48) bool {
	if tickDelta == 0 || store.LeakageRate <= 0 {
		return false
	}
	leak := ratioMulQ48(store.Amount, store.LeakageRate)
	if tickDelta > 1 {
		leak = leak.Mul(fixedpoint.FromInt64(int64(tickDelta)))
	}
	if leak <= 0 {
		return false
	}
	if leak > store.Amount {
		leak = store.Amount
	}
	store.Amount = store.Amount.Sub(leak)
	*lossTotal = lossTotal.Add(leak)
	return true
}

// Resolve performs one tick's update over networkID (0 selects every live,
// uncollapsed network): a leakage pass, a flow pass with cascade
// propagation and randomized failure rolls, then a remaining-sum pass.
// Collapsed target networks short-circuit to their capsule summary.
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
			result.EnergyRemaining = capsule.EnergyTotal
		}
		result.Ok = true
		result.Flags = ResolvePartial
		return result
	}

	var energyLost, energyTransferred, energyRemaining fixedpoint.Q48
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
		if applyLeakage(&d.Stores[i], tickDelta, &energyLost) {
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
		available := source.Amount
		sinkSpace := sink.Capacity.Sub(sink.Amount)
		if sinkSpace < 0 {
			sinkSpace = 0
		}
		transfer := minQ48(maxRate, available)
		transfer = minQ48(transfer, sinkSpace)

		if available <= 0 {
			if flow.FailureModeMask&FailureBlackout != 0 {
				flow.Flags |= FlowBlackout
				flags |= ResolveBlackout
			}
		} else if available < maxRate {
			if flow.FailureModeMask&FailureBrownout != 0 {
				flow.Flags |= FlowBrownout
				flags |= ResolveBrownout
			}
		}
		if sinkSpace <= 0 {
			if flow.FailureModeMask&FailureOverload != 0 {
				flow.Flags |= FlowOverload
				flags |= ResolveOverload
			}
		}

		if flowFailureRoll(d.Surface, flow, tick) {
			if flow.FailureModeMask&FailureBlackout != 0 {
				flow.Flags |= FlowBlackout
				flags |= ResolveBlackout
			}
			transfer = 0
		}

		if transfer > 0 {
			delivered := ratioMulQ48(transfer, flow.Efficiency)
			loss := transfer.Sub(delivered)
			if d.Surface.Loss.DissipationFraction > 0 {
				extraLoss := ratioMulQ48(delivered, d.Surface.Loss.DissipationFraction)
				delivered = delivered.Sub(extraLoss)
				loss = loss.Add(extraLoss)
			}
			source.Amount = source.Amount.Sub(transfer)
			sink.Amount = sink.Amount.Add(delivered)
			energyTransferred = energyTransferred.Add(delivered)
			if loss > 0 {
				energyLost = energyLost.Add(loss)
				flags |= ResolveLeakage
			}
		}

		if flow.Flags&(FlowBlackout|FlowBrownout|FlowOverload) != 0 {
			if flow.FailureModeMask&FailureCascade != 0 {
				cascadeActive = true
				flow.Flags |= FlowCascade
				flags |= ResolveCascade
			}
		}

		flowsSeen++
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
		energyRemaining = energyRemaining.Add(d.Stores[i].Amount)
		storesSeen++
	}

	result.Ok = true
	result.Flags = flags
	result.StoreCount = storesSeen
	result.FlowCount = flowsSeen
	result.EnergyTransferred = energyTransferred
	result.EnergyLost = energyLost
	result.EnergyRemaining = energyRemaining
	return result
}
