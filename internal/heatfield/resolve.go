package heatfield

import (
	"github.com/domino-sim/domino/internal/domain"
	"github.com/domino-sim/domino/internal/fixedpoint"
	"github.com/domino-sim/domino/internal/rng"
)

const failureStreamName = "noise.stream.heat.flow.failure"

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

// applyExchange subtracts this tick's ambient loss from store.Amount and
// accumulates it into lossTotal, reporting whether any loss actually
// occurred. This replaces energyfield's leakage pass: heat has no
// domain-wide secondary dissipation step, only this per-store exchange.
func applyExchange(store *Store, tickDelta uint64, lossTotal *fixedpoint.Q48) bool {
	if tickDelta == 0 || store.AmbientExchangeRate <= 0 {
		return false
	}
	leak := ratioMulQ48(store.Amount, store.AmbientExchangeRate)
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

// storeTemperature derives a store's operating temperature as
// (amount/capacity) * surface.temperature_scale, zero-guarded against a
// nonpositive capacity, amount, or temperature scale.
func (d *Domain) storeTemperature(store *Store) fixedpoint.Q48 {
	if store.Capacity <= 0 || store.Amount <= 0 || d.Surface.TemperatureScale <= 0 {
		return 0
	}
	ratio := store.Amount.Div(store.Capacity)
	if ratio < 0 {
		ratio = 0
	}
	return ratio.Mul(d.Surface.TemperatureScale)
}

// Resolve performs one tick's update over networkID (0 selects every live,
// uncollapsed network): an ambient-exchange pass, a flow pass with cascade
// propagation and randomized failure rolls, a remaining-sum pass, and
// finally a thermal-stress evaluation pass. Collapsed target networks
// short-circuit to their capsule summary before any of these passes run.
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
			result.HeatRemaining = capsule.HeatTotal
		}
		result.Ok = true
		result.Flags = ResolvePartial
		return result
	}

	var heatDissipated, heatTransferred, heatRemaining fixedpoint.Q48
	var flags ResolveFlags
	cascadeActive := false

	// Ambient-exchange pass.
	for i := range d.Stores {
		storeNetwork := d.Stores[i].NetworkID
		if networkID != 0 && storeNetwork != networkID {
			continue
		}
		if networkID == 0 && d.networkCollapsed(storeNetwork) {
			flags |= ResolvePartial
			continue
		}
		if applyExchange(&d.Stores[i], tickDelta, &heatDissipated) {
			flags |= ResolveLeakage
		}
	}

	// Flow pass, in declaration order; cascade_active propagates forward.
	// Unlike energy, blocked (no supply) and overload (no sink space) are
	// independent checks, not a mutually-exclusive if/else-if chain.
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

		if flowFailureRoll(d.Surface, flow, tick) {
			if flow.FailureModeMask&FailureBlocked != 0 {
				flow.Flags |= FlowBlocked
				flags |= ResolveBlocked
			}
			transfer = 0
		}

		if transfer > 0 {
			delivered := ratioMulQ48(transfer, flow.Efficiency)
			loss := transfer.Sub(delivered)
			source.Amount = source.Amount.Sub(transfer)
			sink.Amount = sink.Amount.Add(delivered)
			heatTransferred = heatTransferred.Add(delivered)
			if loss > 0 {
				heatDissipated = heatDissipated.Add(loss)
				flow.Flags |= FlowLeakage
				flags |= ResolveLeakage
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
		heatRemaining = heatRemaining.Add(d.Stores[i].Amount)
		storesSeen++
	}

	// Thermal-stress pass: evaluates every stress's backing store
	// temperature against its safe band. Undercool and overheat are
	// independent, non-exclusive checks; damage and efficiency-loss both
	// require the temperature to be out of range on top of their own
	// thresholds; shutdown additionally requires a fully zeroed efficiency
	// modifier.
	costStress := budgetCost(d.Policy.CostCoarse)
	stressSeen := uint32(0)
	for i := range d.Stresses {
		stress := &d.Stresses[i]
		storeIdx := d.findStoreIndex(stress.StoreID)
		if storeIdx < 0 {
			stress.Flags = StressUnknown
			flags |= ResolvePartial
			continue
		}
		storeNetwork := d.Stores[storeIdx].NetworkID
		if networkID != 0 && storeNetwork != networkID {
			continue
		}
		if networkID == 0 && d.networkCollapsed(storeNetwork) {
			stress.Flags = StressUnknown
			flags |= ResolvePartial
			continue
		}
		if !budget.Consume(costStress) {
			flags |= ResolvePartial
			if result.RefusalReason == domain.RefuseNone {
				result.RefusalReason = domain.RefuseBudget
			}
			break
		}

		stress.Flags = 0
		temperature := d.storeTemperature(&d.Stores[storeIdx])
		outOfRange := false
		if temperature < stress.SafeMin {
			stress.Flags |= StressUndercool
			result.StressUndercoolCount++
			flags |= ResolveUndercool
			outOfRange = true
		}
		if temperature > stress.SafeMax {
			stress.Flags |= StressOverheat
			result.StressOverheatCount++
			flags |= ResolveOverheat
			outOfRange = true
		}
		if outOfRange && stress.DamageRate > 0 {
			stress.Flags |= StressDamage
			result.StressDamageCount++
			flags |= ResolveDamage
		}

		eff := clampRatio(stress.EfficiencyModifier)
		if outOfRange && eff < RatioOneQ16 {
			stress.Flags |= StressEfficiencyLoss
			if eff <= 0 {
				stress.Flags |= StressShutdown
			}
		}
		stressSeen++
	}

	result.Ok = true
	result.Flags = flags
	result.StoreCount = storesSeen
	result.FlowCount = flowsSeen
	result.StressCount = stressSeen
	result.HeatTransferred = heatTransferred
	result.HeatDissipated = heatDissipated
	result.HeatRemaining = heatRemaining
	return result
}
