package heatfield

import (
	"testing"

	"github.com/domino-sim/domino/internal/domain"
	"github.com/domino-sim/domino/internal/fixedpoint"
)

func twoStoreOneFlowDesc() SurfaceDesc {
	desc := DefaultSurfaceDesc()
	desc.Stores = []StoreDesc{
		{StoreID: 1, Amount: fixedpoint.FromInt64(100), Capacity: fixedpoint.FromInt64(200), NetworkID: 1},
		{StoreID: 2, Amount: fixedpoint.FromInt64(0), Capacity: fixedpoint.FromInt64(200), NetworkID: 1},
	}
	desc.Flows = []FlowDesc{
		{FlowID: 10, NetworkID: 1, SourceStoreID: 1, SinkStoreID: 2,
			MaxTransferRate: fixedpoint.FromInt64(10), Efficiency: RatioOneQ16},
	}
	return desc
}

func TestDomainInitDefaults(t *testing.T) {
	var d Domain
	d.Init(DefaultSurfaceDesc())
	if !d.State.Active() {
		t.Fatalf("a freshly initialized domain must be active")
	}
	if len(d.Stores) != 0 || len(d.Flows) != 0 || len(d.Stresses) != 0 {
		t.Fatalf("default surface desc has no entities, got %d stores %d flows %d stresses",
			len(d.Stores), len(d.Flows), len(d.Stresses))
	}
}

func TestDomainInitTruncatesOversizedDescriptor(t *testing.T) {
	desc := DefaultSurfaceDesc()
	for i := 0; i < MaxStores+5; i++ {
		desc.Stores = append(desc.Stores, StoreDesc{StoreID: uint32(i + 1)})
	}
	var d Domain
	d.Init(desc)
	if len(d.Stores) != MaxStores {
		t.Fatalf("Init should truncate to MaxStores=%d, got %d", MaxStores, len(d.Stores))
	}
}

func TestStoreQueryRefusesInactiveDomain(t *testing.T) {
	var d Domain
	d.Init(twoStoreOneFlowDesc())
	d.SetState(domain.ExistenceDeclared, domain.ArchivalLive)
	b := domain.NewBudget(10)
	sample := d.StoreQuery(1, &b)
	if sample.Meta.Status != domain.StatusRefused {
		t.Fatalf("expected StatusRefused, got %v", sample.Meta.Status)
	}
	if sample.Meta.RefusalReason != domain.RefuseDomainInactive {
		t.Fatalf("expected RefuseDomainInactive, got %v", sample.Meta.RefusalReason)
	}
}

func TestStoreQueryRefusesExhaustedBudget(t *testing.T) {
	var d Domain
	d.Init(twoStoreOneFlowDesc())
	b := domain.NewBudget(0)
	sample := d.StoreQuery(1, &b)
	if sample.Meta.RefusalReason != domain.RefuseBudget {
		t.Fatalf("expected RefuseBudget, got %v", sample.Meta.RefusalReason)
	}
}

func TestStoreQueryRefusesUnknownID(t *testing.T) {
	var d Domain
	d.Init(twoStoreOneFlowDesc())
	b := domain.NewBudget(10)
	sample := d.StoreQuery(999, &b)
	if sample.Meta.RefusalReason != domain.RefuseNoSource {
		t.Fatalf("expected RefuseNoSource, got %v", sample.Meta.RefusalReason)
	}
}

func TestStoreQueryReportsCollapsedNetwork(t *testing.T) {
	var d Domain
	d.Init(twoStoreOneFlowDesc())
	if err := d.CollapseNetwork(1); err != nil {
		t.Fatalf("CollapseNetwork: %v", err)
	}
	b := domain.NewBudget(10)
	sample := d.StoreQuery(1, &b)
	if sample.Meta.Confidence != domain.ConfidenceUnknown {
		t.Fatalf("expected ConfidenceUnknown for a collapsed store, got %v", sample.Meta.Confidence)
	}
	if sample.Flags&StoreCollapsed == 0 {
		t.Fatalf("expected StoreCollapsed flag set")
	}
}

func TestResolveTransfersHeatWithEfficiencyLoss(t *testing.T) {
	desc := twoStoreOneFlowDesc()
	desc.Flows[0].Efficiency = fixedpoint.FromFloat64(0.5)
	var d Domain
	d.Init(desc)
	b := domain.NewBudget(100)

	result := d.Resolve(1, 1, 1, &b)
	if !result.Ok {
		t.Fatalf("resolve should have succeeded, refusal=%v", result.RefusalReason)
	}
	if result.HeatTransferred <= 0 {
		t.Fatalf("expected some heat delivered, got %v", result.HeatTransferred)
	}
	if result.HeatDissipated <= 0 {
		t.Fatalf("half efficiency should produce a nonzero loss, got %v", result.HeatDissipated)
	}
	if result.Flags&ResolveLeakage == 0 {
		t.Fatalf("per-flow transfer loss should set the aggregate leakage flag")
	}

	sink := d.Stores[d.findStoreIndex(2)]
	if sink.Amount != result.HeatTransferred {
		t.Fatalf("sink amount %v should equal heat transferred %v", sink.Amount, result.HeatTransferred)
	}
}

func TestResolveFlowLeakageFlagSetOnLossyTransfer(t *testing.T) {
	desc := twoStoreOneFlowDesc()
	desc.Flows[0].Efficiency = fixedpoint.FromFloat64(0.5)
	var d Domain
	d.Init(desc)
	b := domain.NewBudget(100)

	d.Resolve(1, 1, 1, &b)
	flow := d.Flows[d.findFlowIndex(10)]
	if flow.Flags&FlowLeakage == 0 {
		t.Fatalf("a flow that lost heat to inefficiency must carry FlowLeakage, got %v", flow.Flags)
	}
}

func TestResolveAppliesAmbientExchangeBeforeFlow(t *testing.T) {
	desc := twoStoreOneFlowDesc()
	desc.Stores[0].AmbientExchangeRate = fixedpoint.FromFloat64(0.1)
	var d Domain
	d.Init(desc)
	b := domain.NewBudget(100)

	result := d.Resolve(1, 1, 1, &b)
	if result.Flags&ResolveLeakage == 0 {
		t.Fatalf("expected ResolveLeakage flag set")
	}
	if result.HeatDissipated <= 0 {
		t.Fatalf("expected nonzero heat_dissipated from ambient exchange")
	}
}

func TestResolveOverloadAndBlockedAreIndependent(t *testing.T) {
	// Source is drained (blocked) and sink is already full (overload); both
	// failure modes must be observable on the same flow in the same tick
	// since heat has no mutually-exclusive brownout/blackout chain.
	desc := DefaultSurfaceDesc()
	desc.Stores = []StoreDesc{
		{StoreID: 1, Amount: 0, Capacity: fixedpoint.FromInt64(200), NetworkID: 1},
		{StoreID: 2, Amount: fixedpoint.FromInt64(200), Capacity: fixedpoint.FromInt64(200), NetworkID: 1},
	}
	desc.Flows = []FlowDesc{
		{FlowID: 10, NetworkID: 1, SourceStoreID: 1, SinkStoreID: 2,
			MaxTransferRate: fixedpoint.FromInt64(10), Efficiency: RatioOneQ16,
			FailureModeMask: FailureBlocked | FailureOverload},
	}
	var d Domain
	d.Init(desc)
	b := domain.NewBudget(100)

	result := d.Resolve(1, 1, 1, &b)
	if result.Flags&ResolveBlocked == 0 {
		t.Fatalf("expected ResolveBlocked set, got %v", result.Flags)
	}
	if result.Flags&ResolveOverload == 0 {
		t.Fatalf("expected ResolveOverload set, got %v", result.Flags)
	}
}

func TestResolveRefusesInactiveDomain(t *testing.T) {
	var d Domain
	d.Init(twoStoreOneFlowDesc())
	d.SetState(domain.ExistenceNonexistent, domain.ArchivalLive)
	b := domain.NewBudget(100)
	result := d.Resolve(1, 1, 1, &b)
	if result.Ok {
		t.Fatalf("resolve on an inactive domain must not report ok")
	}
	if result.RefusalReason != domain.RefuseDomainInactive {
		t.Fatalf("expected RefuseDomainInactive, got %v", result.RefusalReason)
	}
}

func TestResolveOnCollapsedNetworkReturnsCapsule(t *testing.T) {
	var d Domain
	d.Init(twoStoreOneFlowDesc())
	if err := d.CollapseNetwork(1); err != nil {
		t.Fatalf("CollapseNetwork: %v", err)
	}
	b := domain.NewBudget(100)
	result := d.Resolve(1, 1, 1, &b)
	if !result.Ok || result.Flags&ResolvePartial == 0 {
		t.Fatalf("resolve on a collapsed network must be ok with PARTIAL, got %+v", result)
	}
}

func TestCollapseExpandRoundTrip(t *testing.T) {
	var d Domain
	d.Init(twoStoreOneFlowDesc())
	if err := d.CollapseNetwork(1); err != nil {
		t.Fatalf("CollapseNetwork: %v", err)
	}
	if d.CapsuleCount() != 1 {
		t.Fatalf("expected 1 capsule, got %d", d.CapsuleCount())
	}
	if err := d.CollapseNetwork(1); err != nil {
		t.Fatalf("collapsing an already-collapsed network should be a no-op, got %v", err)
	}
	if d.CapsuleCount() != 1 {
		t.Fatalf("no-op collapse must not add a second capsule")
	}
	if err := d.ExpandNetwork(1); err != nil {
		t.Fatalf("ExpandNetwork: %v", err)
	}
	if d.CapsuleCount() != 0 {
		t.Fatalf("expected 0 capsules after expand, got %d", d.CapsuleCount())
	}
	if err := d.ExpandNetwork(1); err == nil {
		t.Fatalf("expanding a network with no capsule must fail")
	}
}

func TestCollapseNetworkCapacityExhausted(t *testing.T) {
	var d Domain
	d.Init(DefaultSurfaceDesc())
	for i := 0; i < MaxCapsules; i++ {
		if err := d.CollapseNetwork(uint32(i + 1)); err != nil {
			t.Fatalf("unexpected error filling capsule table: %v", err)
		}
	}
	if err := d.CollapseNetwork(uint32(MaxCapsules + 1)); err == nil {
		t.Fatalf("collapsing past MaxCapsules should fail")
	}
}

func TestFlowFailureRollIsDeterministic(t *testing.T) {
	desc := twoStoreOneFlowDesc()
	desc.Flows[0].FailureChance = fixedpoint.FromFloat64(0.5)
	desc.Flows[0].FailureModeMask = FailureBlocked

	run := func() fixedpoint.Q48 {
		var d Domain
		d.Init(desc)
		b := domain.NewBudget(100)
		result := d.Resolve(1, 42, 1, &b)
		return result.HeatTransferred
	}
	a, c := run(), run()
	if a != c {
		t.Fatalf("identical inputs must produce identical resolve outcomes: %v != %v", a, c)
	}
}

func stressFixtureDesc() SurfaceDesc {
	desc := twoStoreOneFlowDesc()
	desc.Stresses = []StressDesc{
		{StressID: 20, StoreID: 2, SafeMin: fixedpoint.FromInt64(-1000), SafeMax: fixedpoint.FromInt64(1000),
			DamageRate: 0, EfficiencyModifier: RatioOneQ16},
	}
	return desc
}

func TestStressQueryRefusesUnknownID(t *testing.T) {
	var d Domain
	d.Init(stressFixtureDesc())
	b := domain.NewBudget(10)
	sample := d.StressQuery(999, &b)
	if sample.Meta.RefusalReason != domain.RefuseNoSource {
		t.Fatalf("expected RefuseNoSource, got %v", sample.Meta.RefusalReason)
	}
}

func TestStressQueryReportsOperatingTemperature(t *testing.T) {
	desc := stressFixtureDesc()
	desc.TemperatureScale = fixedpoint.FromInt64(2)
	var d Domain
	d.Init(desc)
	b := domain.NewBudget(10)

	// Drive heat into store 2 first so it has a nonzero amount/capacity ratio.
	bResolve := domain.NewBudget(100)
	d.Resolve(1, 1, 1, &bResolve)

	sample := d.StressQuery(20, &b)
	if sample.Meta.Status != domain.StatusOK {
		t.Fatalf("expected StatusOK, got %v refusal=%v", sample.Meta.Status, sample.Meta.RefusalReason)
	}
	if sample.OperatingTemperature < 0 {
		t.Fatalf("operating temperature should be nonnegative when amount>0, got %v", sample.OperatingTemperature)
	}
}

func TestResolveThermalStressOverheatAndUndercool(t *testing.T) {
	desc := DefaultSurfaceDesc()
	desc.TemperatureScale = fixedpoint.FromInt64(100)
	desc.Stores = []StoreDesc{
		{StoreID: 1, Amount: fixedpoint.FromInt64(190), Capacity: fixedpoint.FromInt64(200), NetworkID: 1},
		{StoreID: 2, Amount: fixedpoint.FromInt64(2), Capacity: fixedpoint.FromInt64(200), NetworkID: 1},
	}
	desc.Stresses = []StressDesc{
		{StressID: 30, StoreID: 1, SafeMin: 0, SafeMax: fixedpoint.FromInt64(50),
			DamageRate: fixedpoint.FromFloat64(0.1), EfficiencyModifier: fixedpoint.FromFloat64(0.2)},
		{StressID: 31, StoreID: 2, SafeMin: fixedpoint.FromInt64(50), SafeMax: fixedpoint.FromInt64(100),
			DamageRate: 0, EfficiencyModifier: RatioOneQ16},
	}
	var d Domain
	d.Init(desc)
	b := domain.NewBudget(1000)

	result := d.Resolve(1, 1, 1, &b)
	if !result.Ok {
		t.Fatalf("resolve should have succeeded, refusal=%v", result.RefusalReason)
	}
	if result.StressOverheatCount != 1 {
		t.Fatalf("expected exactly one overheated stress, got %d", result.StressOverheatCount)
	}
	if result.StressUndercoolCount != 1 {
		t.Fatalf("expected exactly one undercooled stress, got %d", result.StressUndercoolCount)
	}
	if result.StressDamageCount != 1 {
		t.Fatalf("expected the overheated, nonzero-damage-rate stress to count as damaged, got %d", result.StressDamageCount)
	}

	overheated := d.Stresses[d.findStressIndex(30)]
	if overheated.Flags&StressOverheat == 0 {
		t.Fatalf("expected StressOverheat set on stress 30")
	}
	if overheated.Flags&StressDamage == 0 {
		t.Fatalf("expected StressDamage set on stress 30")
	}
	if overheated.Flags&StressEfficiencyLoss == 0 {
		t.Fatalf("expected StressEfficiencyLoss set on stress 30 (efficiency_modifier < 1.0)")
	}
	if overheated.Flags&StressShutdown != 0 {
		t.Fatalf("efficiency_modifier 0.2 must not trigger shutdown")
	}

	undercooled := d.Stresses[d.findStressIndex(31)]
	if undercooled.Flags&StressUndercool == 0 {
		t.Fatalf("expected StressUndercool set on stress 31")
	}
	if undercooled.Flags&StressDamage != 0 {
		t.Fatalf("zero damage_rate must not set StressDamage even when out of range")
	}
}

func TestResolveThermalStressShutdownOnZeroEfficiency(t *testing.T) {
	desc := DefaultSurfaceDesc()
	desc.TemperatureScale = fixedpoint.FromInt64(100)
	desc.Stores = []StoreDesc{
		{StoreID: 1, Amount: fixedpoint.FromInt64(190), Capacity: fixedpoint.FromInt64(200), NetworkID: 1},
	}
	desc.Stresses = []StressDesc{
		{StressID: 30, StoreID: 1, SafeMin: 0, SafeMax: fixedpoint.FromInt64(50),
			DamageRate: 0, EfficiencyModifier: 0},
	}
	var d Domain
	d.Init(desc)
	b := domain.NewBudget(1000)

	d.Resolve(1, 1, 1, &b)
	stress := d.Stresses[d.findStressIndex(30)]
	if stress.Flags&StressShutdown == 0 {
		t.Fatalf("a zero efficiency_modifier while out of range must set StressShutdown")
	}
}

// TestQueryOrderIndependence asserts that permuting the order in which
// stores are queried never changes what is sampled for a given id.
func TestQueryOrderIndependence(t *testing.T) {
	var d Domain
	d.Init(twoStoreOneFlowDesc())

	forward := domain.NewBudget(1000)
	a1 := d.StoreQuery(1, &forward)
	a2 := d.StoreQuery(2, &forward)

	reverse := domain.NewBudget(1000)
	b2 := d.StoreQuery(2, &reverse)
	b1 := d.StoreQuery(1, &reverse)

	if a1.Amount != b1.Amount || a1.Capacity != b1.Capacity {
		t.Fatalf("store 1 sample differs by query order: %+v vs %+v", a1, b1)
	}
	if a2.Amount != b2.Amount || a2.Capacity != b2.Capacity {
		t.Fatalf("store 2 sample differs by query order: %+v vs %+v", a2, b2)
	}
}
