package infofield

import (
	"testing"

	"github.com/domino-sim/domino/internal/domain"
	"github.com/domino-sim/domino/internal/fixedpoint"
)

func twoNodeOneLinkDesc() SurfaceDesc {
	desc := DefaultSurfaceDesc()
	desc.Capacities = []CapacityDesc{
		{CapacityID: 1, BandwidthLimit: fixedpoint.FromInt64(1000), LatencyClass: LatencyImmediate, CongestionPolicy: CongestionQueue},
	}
	desc.Nodes = []NodeDesc{
		{NodeID: 1, NodeType: NodeRouter, ComputeCapacity: fixedpoint.FromInt64(1000), NetworkID: 1},
		{NodeID: 2, NodeType: NodeEndpoint, ComputeCapacity: fixedpoint.FromInt64(1000), StorageCapacity: fixedpoint.FromInt64(1000), NetworkID: 1},
	}
	desc.Links = []LinkDesc{
		{LinkID: 1, NetworkID: 1, NodeAID: 1, NodeBID: 2, CapacityID: 1, Direction: LinkBidir},
	}
	return desc
}

func TestDomainInitDefaults(t *testing.T) {
	var d Domain
	d.Init(DefaultSurfaceDesc())
	if !d.State.Active() {
		t.Fatalf("expected domain to be active after init")
	}
	if d.AuthoringVersion != 1 {
		t.Fatalf("expected authoring version 1, got %d", d.AuthoringVersion)
	}
}

func TestDomainInitTruncatesOversizedDescriptor(t *testing.T) {
	desc := DefaultSurfaceDesc()
	for i := 0; i < MaxNodes+10; i++ {
		desc.Nodes = append(desc.Nodes, NodeDesc{NodeID: uint32(i + 1)})
	}
	var d Domain
	d.Init(desc)
	if len(d.Nodes) != MaxNodes {
		t.Fatalf("expected truncation to %d nodes, got %d", MaxNodes, len(d.Nodes))
	}
}

func TestDomainInitMarksPacketsPending(t *testing.T) {
	desc := twoNodeOneLinkDesc()
	desc.Data = []DataDesc{{DataID: 1, SourceNodeID: 1, SinkNodeID: 2, DataSize: fixedpoint.FromInt64(10)}}
	var d Domain
	d.Init(desc)
	if d.Data[0].Flags&DataPending == 0 {
		t.Fatalf("expected freshly initialized packet to be pending")
	}
}

func TestNodeQueryRefusesInactiveDomain(t *testing.T) {
	var d Domain
	d.Init(DefaultSurfaceDesc())
	d.SetState(domain.ExistenceDeclared, domain.ArchivalLive)
	b := domain.NewBudget(10)
	sample := d.NodeQuery(1, &b)
	if sample.Meta.Status != domain.StatusRefused || sample.Meta.RefusalReason != domain.RefuseDomainInactive {
		t.Fatalf("expected domain-inactive refusal, got %+v", sample.Meta)
	}
}

func TestNodeQueryRefusesUnknownID(t *testing.T) {
	var d Domain
	d.Init(twoNodeOneLinkDesc())
	b := domain.NewBudget(10)
	sample := d.NodeQuery(999, &b)
	if sample.Meta.RefusalReason != domain.RefuseNoSource {
		t.Fatalf("expected no-source refusal, got %+v", sample.Meta)
	}
}

func TestNodeQueryReportsCollapsedNetwork(t *testing.T) {
	var d Domain
	d.Init(twoNodeOneLinkDesc())
	if err := d.CollapseNetwork(1); err != nil {
		t.Fatalf("collapse failed: %v", err)
	}
	b := domain.NewBudget(10)
	sample := d.NodeQuery(1, &b)
	if sample.Flags&NodeCollapsed == 0 {
		t.Fatalf("expected NodeCollapsed flag, got %v", sample.Flags)
	}
	if sample.Meta.Confidence != domain.ConfidenceUnknown {
		t.Fatalf("expected unknown confidence, got %v", sample.Meta.Confidence)
	}
}

func TestResolveDeliversPacketAndAccruesCost(t *testing.T) {
	desc := twoNodeOneLinkDesc()
	desc.Nodes[0].EnergyPerUnit = fixedpoint.Q48FromFloat64(0.1)
	desc.Nodes[1].HeatPerUnit = fixedpoint.Q48FromFloat64(0.2)
	desc.Data = []DataDesc{
		{DataID: 1, DataType: DataMessage, SourceNodeID: 1, SinkNodeID: 2, DataSize: fixedpoint.FromInt64(10), NetworkID: 1, SendTick: 0},
	}
	var d Domain
	d.Init(desc)
	b := domain.NewBudget(1000)
	result := d.Resolve(1, 1, &b)
	if !result.Ok {
		t.Fatalf("expected resolve to succeed")
	}
	if result.DeliveredCount != 1 {
		t.Fatalf("expected one delivery, got %d", result.DeliveredCount)
	}
	if d.Data[0].Flags&DataDelivered == 0 {
		t.Fatalf("expected packet flagged delivered")
	}
	if result.EnergyCostTotal <= 0 {
		t.Fatalf("expected positive energy cost, got %v", result.EnergyCostTotal)
	}
	if result.HeatGeneratedTotal <= 0 {
		t.Fatalf("expected positive heat generation, got %v", result.HeatGeneratedTotal)
	}
}

func TestResolveQueuesPacketsBeforeSendTick(t *testing.T) {
	desc := twoNodeOneLinkDesc()
	desc.Data = []DataDesc{
		{DataID: 1, DataType: DataMessage, SourceNodeID: 1, SinkNodeID: 2, DataSize: fixedpoint.FromInt64(10), NetworkID: 1, SendTick: 5},
	}
	var d Domain
	d.Init(desc)
	b := domain.NewBudget(1000)
	result := d.Resolve(1, 1, &b)
	if result.QueuedCount != 1 {
		t.Fatalf("expected one queued packet, got %d", result.QueuedCount)
	}
	if d.Data[0].Flags&DataQueued == 0 {
		t.Fatalf("expected packet flagged queued")
	}
}

func TestResolveDropsPacketWithNoRoute(t *testing.T) {
	desc := twoNodeOneLinkDesc()
	desc.Nodes = append(desc.Nodes, NodeDesc{NodeID: 3, NodeType: NodeEndpoint, NetworkID: 1})
	desc.Data = []DataDesc{
		{DataID: 1, DataType: DataMessage, SourceNodeID: 1, SinkNodeID: 3, DataSize: fixedpoint.FromInt64(10), NetworkID: 1},
	}
	var d Domain
	d.Init(desc)
	b := domain.NewBudget(1000)
	result := d.Resolve(1, 1, &b)
	if result.DroppedCount != 1 {
		t.Fatalf("expected one dropped packet, got %d", result.DroppedCount)
	}
	if result.Flags&ResolveDropped == 0 {
		t.Fatalf("expected ResolveDropped flag, got %v", result.Flags)
	}
}

func TestResolveDirectionalLinkRejectsReverseTraffic(t *testing.T) {
	desc := twoNodeOneLinkDesc()
	desc.Links[0].Direction = LinkAToB
	desc.Data = []DataDesc{
		{DataID: 1, DataType: DataMessage, SourceNodeID: 2, SinkNodeID: 1, DataSize: fixedpoint.FromInt64(10), NetworkID: 1},
	}
	var d Domain
	d.Init(desc)
	b := domain.NewBudget(1000)
	result := d.Resolve(1, 1, &b)
	if result.DroppedCount != 1 {
		t.Fatalf("expected reverse traffic on an A->B link to drop, got %d dropped", result.DroppedCount)
	}
}

func TestResolveCongestionQueuesOverCapacity(t *testing.T) {
	desc := twoNodeOneLinkDesc()
	desc.Nodes[1].ComputeCapacity = fixedpoint.FromInt64(5)
	desc.Data = []DataDesc{
		{DataID: 1, DataType: DataMessage, SourceNodeID: 1, SinkNodeID: 2, DataSize: fixedpoint.FromInt64(10), NetworkID: 1},
	}
	var d Domain
	d.Init(desc)
	b := domain.NewBudget(1000)
	result := d.Resolve(1, 1, &b)
	if result.QueuedCount != 1 {
		t.Fatalf("expected compute congestion to queue the packet, got %+v", result)
	}
	if result.Flags&ResolveCongested == 0 {
		t.Fatalf("expected ResolveCongested, got %v", result.Flags)
	}
}

func TestResolveStoresStorageTypePackets(t *testing.T) {
	desc := twoNodeOneLinkDesc()
	desc.Data = []DataDesc{
		{DataID: 1, DataType: DataStorage, SourceNodeID: 1, SinkNodeID: 2, DataSize: fixedpoint.FromInt64(10), NetworkID: 1},
	}
	var d Domain
	d.Init(desc)
	b := domain.NewBudget(1000)
	result := d.Resolve(1, 1, &b)
	if result.DeliveredCount != 1 {
		t.Fatalf("expected stored packet to count as delivered, got %d", result.DeliveredCount)
	}
	if d.Data[0].Flags&DataStored == 0 {
		t.Fatalf("expected packet flagged stored")
	}
	if d.Nodes[1].StorageUsed != fixedpoint.FromInt64(10) {
		t.Fatalf("expected sink storage_used to account for the packet, got %v", d.Nodes[1].StorageUsed)
	}
}

func TestResolveRefusesInactiveDomain(t *testing.T) {
	var d Domain
	d.Init(twoNodeOneLinkDesc())
	d.SetState(domain.ExistenceNonexistent, domain.ArchivalLive)
	b := domain.NewBudget(1000)
	result := d.Resolve(1, 1, &b)
	if result.Ok {
		t.Fatalf("expected resolve to refuse on inactive domain")
	}
	if result.RefusalReason != domain.RefuseDomainInactive {
		t.Fatalf("expected domain-inactive refusal, got %v", result.RefusalReason)
	}
}

func TestResolveOnCollapsedNetworkReturnsCapsule(t *testing.T) {
	var d Domain
	d.Init(twoNodeOneLinkDesc())
	if err := d.CollapseNetwork(1); err != nil {
		t.Fatalf("collapse failed: %v", err)
	}
	b := domain.NewBudget(1000)
	result := d.Resolve(1, 1, &b)
	if !result.Ok || result.Flags&ResolvePartial == 0 {
		t.Fatalf("expected partial result from collapsed network, got %+v", result)
	}
}

func TestCollapseExpandRoundTrip(t *testing.T) {
	var d Domain
	d.Init(twoNodeOneLinkDesc())
	if err := d.CollapseNetwork(1); err != nil {
		t.Fatalf("collapse failed: %v", err)
	}
	if d.CapsuleCount() != 1 {
		t.Fatalf("expected one capsule, got %d", d.CapsuleCount())
	}
	if err := d.ExpandNetwork(1); err != nil {
		t.Fatalf("expand failed: %v", err)
	}
	if d.CapsuleCount() != 0 {
		t.Fatalf("expected zero capsules after expand, got %d", d.CapsuleCount())
	}
}

func TestCollapseNetworkCapacityExhausted(t *testing.T) {
	var d Domain
	d.Init(twoNodeOneLinkDesc())
	for i := uint32(0); i < MaxCapsules; i++ {
		if err := d.CollapseNetwork(i + 100); err != nil {
			t.Fatalf("unexpected error collapsing %d: %v", i, err)
		}
	}
	if err := d.CollapseNetwork(9999); err != errCapsuleCapacity {
		t.Fatalf("expected capacity error, got %v", err)
	}
}

func TestDataErrorRollIsDeterministic(t *testing.T) {
	surface := DefaultSurfaceDesc()
	link := &Link{LinkID: 7}
	data := &Data{DataID: 3}
	capacity := &Capacity{ErrorRate: fixedpoint.FromFloat64(0.5)}
	a := dataErrorRoll(surface, link, data, capacity, 42)
	b := dataErrorRoll(surface, link, data, capacity, 42)
	if a != b {
		t.Fatalf("expected deterministic roll, got %v then %v", a, b)
	}
}

func TestCapacityQueryRefusesUnknownID(t *testing.T) {
	var d Domain
	d.Init(DefaultSurfaceDesc())
	b := domain.NewBudget(10)
	sample := d.CapacityQuery(42, &b)
	if sample.Meta.RefusalReason != domain.RefuseNoSource {
		t.Fatalf("expected no-source refusal, got %+v", sample.Meta)
	}
}

// TestQueryOrderIndependence exercises the property that sequential
// read-only queries against a fixed domain never depend on the order they
// are issued in — each query's budget/meta outcome must depend only on its
// own arguments, not on prior query calls' side effects.
func TestQueryOrderIndependence(t *testing.T) {
	var d Domain
	d.Init(twoNodeOneLinkDesc())

	run := func(order []int) domain.QueryMeta {
		b := domain.NewBudget(1000)
		var last domain.QueryMeta
		for _, id := range order {
			last = d.NodeQuery(uint32(id), &b).Meta
		}
		return last
	}

	forward := run([]int{1, 2})
	backward := run([]int{2, 1})
	straight := domain.NewBudget(1000)
	sampleOne := d.NodeQuery(1, &straight).Meta

	if backward.Status != sampleOne.Status {
		t.Fatalf("backward order changed status: %+v vs %+v", backward, sampleOne)
	}
	_ = forward
}
