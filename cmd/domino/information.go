package main

import (
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/domino-sim/domino/internal/domain"
	"github.com/domino-sim/domino/internal/fixture"
	"github.com/domino-sim/domino/internal/infofield"
	"github.com/domino-sim/domino/internal/rng"
)

const (
	infoFixtureHeader  = "DOMINIUM_INFO_FIXTURE_V1"
	infoValidateHeader = "DOMINIUM_INFO_VALIDATE_V1"
	infoInspectHeader  = "DOMINIUM_INFO_INSPECT_V1"
	infoResolveHeader  = "DOMINIUM_INFO_RESOLVE_V1"
	infoCollapseHeader = "DOMINIUM_INFO_COLLAPSE_V1"
)

// infoFixture is the parsed form of an information fixture file: the
// surface descriptor plus the human-readable names the CLI resolves to
// hashed ids, matching energy/heat/fluid's fixture shape over a capacity
// table, routing nodes, links, and queued data packets.
type infoFixture struct {
	desc          infofield.SurfaceDesc
	policy        domain.Policy
	policySet     bool
	capacityNames map[string]uint32
	nodeNames     map[string]uint32
	linkNames     map[string]uint32
	dataNames     map[string]uint32
}

func nodeTypeFromText(text string) infofield.NodeType {
	switch text {
	case "router":
		return infofield.NodeRouter
	case "switch":
		return infofield.NodeSwitch
	case "antenna":
		return infofield.NodeAntenna
	case "satellite":
		return infofield.NodeSatellite
	case "compute":
		return infofield.NodeCompute
	case "storage":
		return infofield.NodeStorage
	case "endpoint":
		return infofield.NodeEndpoint
	default:
		return infofield.NodeUnset
	}
}

func dataTypeFromText(text string) infofield.DataType {
	switch text {
	case "control":
		return infofield.DataControl
	case "telemetry":
		return infofield.DataTelemetry
	case "message":
		return infofield.DataMessage
	case "storage":
		return infofield.DataStorage
	default:
		return infofield.DataUnset
	}
}

func latencyClassFromText(text string) infofield.LatencyClass {
	switch text {
	case "immediate":
		return infofield.LatencyImmediate
	case "local":
		return infofield.LatencyLocal
	case "regional":
		return infofield.LatencyRegional
	case "orbital":
		return infofield.LatencyOrbital
	case "interplanetary":
		return infofield.LatencyInterplanetary
	default:
		return infofield.LatencyLocal
	}
}

func congestionPolicyFromText(text string) infofield.CongestionPolicy {
	switch text {
	case "drop_newest":
		return infofield.CongestionDropNewest
	case "drop_oldest":
		return infofield.CongestionDropOldest
	case "degrade":
		return infofield.CongestionDegrade
	default:
		return infofield.CongestionQueue
	}
}

func linkDirectionFromText(text string) infofield.LinkDirection {
	switch text {
	case "a_to_b":
		return infofield.LinkAToB
	case "b_to_a":
		return infofield.LinkBToA
	default:
		return infofield.LinkBidir
	}
}

func growCapacities(capacities []infofield.CapacityDesc, index int) []infofield.CapacityDesc {
	if index >= infofield.MaxCapacityProfiles {
		return capacities
	}
	for len(capacities) <= index {
		capacities = append(capacities, infofield.CapacityDesc{})
	}
	return capacities
}

func growNodes(nodes []infofield.NodeDesc, index int) []infofield.NodeDesc {
	if index >= infofield.MaxNodes {
		return nodes
	}
	for len(nodes) <= index {
		nodes = append(nodes, infofield.NodeDesc{})
	}
	return nodes
}

func growLinks(links []infofield.LinkDesc, index int) []infofield.LinkDesc {
	if index >= infofield.MaxLinks {
		return links
	}
	for len(links) <= index {
		links = append(links, infofield.LinkDesc{})
	}
	return links
}

func growData(data []infofield.DataDesc, index int) []infofield.DataDesc {
	if index >= infofield.MaxData {
		return data
	}
	for len(data) <= index {
		data = append(data, infofield.DataDesc{})
	}
	return data
}

func parseInfoFixture(f *fixture.File) *infoFixture {
	inf := &infoFixture{
		desc:          infofield.DefaultSurfaceDesc(),
		capacityNames: map[string]uint32{},
		nodeNames:     map[string]uint32{},
		linkNames:     map[string]uint32{},
		dataNames:     map[string]uint32{},
	}
	for _, p := range f.Pairs {
		key, value := p.Key, p.Value
		switch {
		case key == "world_seed":
			inf.desc.WorldSeed = mustParseUint(value, 64, key)
		case key == "domain_id":
			inf.desc.DomainID = mustParseUint(value, 64, key)
		case key == "meters_per_unit":
			inf.desc.MetersPerUnit = mustParseQ16(value, key)
		case key == "cost_full":
			inf.policySet = true
			inf.policy.CostFull = int(mustParseUint(value, 32, key))
		case key == "cost_medium":
			inf.policySet = true
			inf.policy.CostMedium = int(mustParseUint(value, 32, key))
		case key == "cost_coarse":
			inf.policySet = true
			inf.policy.CostCoarse = int(mustParseUint(value, 32, key))
		case key == "cost_analytic":
			inf.policySet = true
			inf.policy.CostAnalytic = int(mustParseUint(value, 32, key))
		default:
			if idx, suffix, ok := fixture.IndexedKey(key, "capacity_"); ok {
				inf.applyCapacity(int(idx), suffix, value)
				continue
			}
			if idx, suffix, ok := fixture.IndexedKey(key, "node_"); ok {
				inf.applyNode(int(idx), suffix, value)
				continue
			}
			if idx, suffix, ok := fixture.IndexedKey(key, "link_"); ok {
				inf.applyLink(int(idx), suffix, value)
				continue
			}
			if idx, suffix, ok := fixture.IndexedKey(key, "data_"); ok {
				inf.applyData(int(idx), suffix, value)
				continue
			}
		}
	}
	return inf
}

func (inf *infoFixture) applyCapacity(index int, suffix, value string) {
	inf.desc.Capacities = growCapacities(inf.desc.Capacities, index)
	if index >= len(inf.desc.Capacities) {
		return
	}
	capacity := &inf.desc.Capacities[index]
	switch suffix {
	case "id":
		capacity.CapacityID = rng.HashStr32(value)
		inf.capacityNames[value] = capacity.CapacityID
	case "bandwidth":
		capacity.BandwidthLimit = mustParseQ48(value, "capacity_bandwidth")
	case "latency":
		capacity.LatencyClass = latencyClassFromText(value)
	case "error_rate":
		capacity.ErrorRate = mustParseQ16(value, "capacity_error_rate")
	case "congestion":
		capacity.CongestionPolicy = congestionPolicyFromText(value)
	}
}

func (inf *infoFixture) applyNode(index int, suffix, value string) {
	inf.desc.Nodes = growNodes(inf.desc.Nodes, index)
	if index >= len(inf.desc.Nodes) {
		return
	}
	node := &inf.desc.Nodes[index]
	switch suffix {
	case "id":
		node.NodeID = rng.HashStr32(value)
		inf.nodeNames[value] = node.NodeID
	case "type":
		node.NodeType = nodeTypeFromText(value)
	case "compute":
		node.ComputeCapacity = mustParseQ48(value, "node_compute")
	case "storage":
		node.StorageCapacity = mustParseQ48(value, "node_storage")
	case "energy_per_unit":
		node.EnergyPerUnit = mustParseQ48(value, "node_energy_per_unit")
	case "heat_per_unit":
		node.HeatPerUnit = mustParseQ48(value, "node_heat_per_unit")
	case "network":
		node.NetworkID = rng.HashStr32(value)
	case "pos":
		x, y, z := mustParseTriplet(value, "node_pos")
		node.Location = domain.Point{X: x, Y: y, Z: z}
	}
}

func (inf *infoFixture) applyLink(index int, suffix, value string) {
	inf.desc.Links = growLinks(inf.desc.Links, index)
	if index >= len(inf.desc.Links) {
		return
	}
	link := &inf.desc.Links[index]
	switch suffix {
	case "id":
		link.LinkID = rng.HashStr32(value)
		inf.linkNames[value] = link.LinkID
	case "network":
		link.NetworkID = rng.HashStr32(value)
	case "node_a":
		link.NodeAID = inf.resolveID(inf.nodeNames, value)
	case "node_b":
		link.NodeBID = inf.resolveID(inf.nodeNames, value)
	case "capacity":
		link.CapacityID = inf.resolveID(inf.capacityNames, value)
	case "direction":
		link.Direction = linkDirectionFromText(value)
	}
}

func (inf *infoFixture) applyData(index int, suffix, value string) {
	inf.desc.Data = growData(inf.desc.Data, index)
	if index >= len(inf.desc.Data) {
		return
	}
	data := &inf.desc.Data[index]
	switch suffix {
	case "id":
		data.DataID = rng.HashStr32(value)
		inf.dataNames[value] = data.DataID
	case "type":
		data.DataType = dataTypeFromText(value)
	case "size":
		data.DataSize = mustParseQ48(value, "data_size")
	case "uncertainty":
		data.DataUncertainty = mustParseQ16(value, "data_uncertainty")
	case "source":
		data.SourceNodeID = inf.resolveID(inf.nodeNames, value)
	case "sink":
		data.SinkNodeID = inf.resolveID(inf.nodeNames, value)
	case "protocol":
		data.ProtocolID = rng.HashStr32(value)
	case "network":
		data.NetworkID = rng.HashStr32(value)
	case "send_tick":
		data.SendTick = mustParseUint(value, 64, "data_send_tick")
	}
}

func (inf *infoFixture) newDomain() *infofield.Domain {
	d := &infofield.Domain{}
	d.Init(inf.desc)
	d.SetState(domain.ExistenceRealized, domain.ArchivalLive)
	if inf.policySet {
		d.SetPolicy(inf.policy)
	}
	return d
}

func (inf *infoFixture) resolveID(names map[string]uint32, nameOrID string) uint32 {
	if id, ok := names[nameOrID]; ok {
		return id
	}
	if v, err := strconv.ParseUint(nameOrID, 0, 32); err == nil {
		return uint32(v)
	}
	return rng.HashStr32(nameOrID)
}

func informationCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "information", Short: "Information capacity/node/link/data fixture tools"}
	var fixturePath string
	cmd.PersistentFlags().StringVar(&fixturePath, "fixture", "", "path to an information fixture file")

	validate := &cobra.Command{
		Use:   "validate",
		Short: "Validate an information fixture and print entity counts",
		Run: func(cmd *cobra.Command, args []string) {
			f := loadFixture(fixturePath, infoFixtureHeader)
			inf := parseInfoFixture(f)
			out := newWriter()
			out.Header(infoValidateHeader)
			out.KV("capacity_count", len(inf.desc.Capacities))
			out.KV("node_count", len(inf.desc.Nodes))
			out.KV("link_count", len(inf.desc.Links))
			out.KV("data_count", len(inf.desc.Data))
			os.Exit(exitOK)
		},
	}

	var nodeName, linkName, dataName, networkName string
	var budgetMax uint32
	inspect := &cobra.Command{
		Use:   "inspect",
		Short: "Query a node, link, data packet, or network in the fixture",
		Run: func(cmd *cobra.Command, args []string) {
			f := loadFixture(fixturePath, infoFixtureHeader)
			inf := parseInfoFixture(f)
			d := inf.newDomain()
			budget := domain.NewBudget(int(budgetMax))
			out := newWriter()
			out.Header(infoInspectHeader)
			switch {
			case nodeName != "":
				s := d.NodeQuery(inf.resolveID(inf.nodeNames, nodeName), &budget)
				out.KV("node_id", s.NodeID)
				out.Q48("compute_capacity", s.ComputeCapacity)
				out.Q48("storage_used", s.StorageUsed)
				out.KV("status", s.Meta.Status)
			case linkName != "":
				s := d.LinkQuery(inf.resolveID(inf.linkNames, linkName), &budget)
				out.KV("link_id", s.LinkID)
				out.KV("node_a_id", s.NodeAID)
				out.KV("node_b_id", s.NodeBID)
				out.KV("status", s.Meta.Status)
			case dataName != "":
				s := d.DataQuery(inf.resolveID(inf.dataNames, dataName), &budget)
				out.KV("data_id", s.DataID)
				out.Q48("data_size", s.DataSize)
				out.KV("status", s.Meta.Status)
			case networkName != "":
				s := d.NetworkQuery(networkID(networkName), &budget)
				out.KV("network_id", s.NetworkID)
				out.Q48("data_total", s.DataTotal)
				out.KV("node_count", s.NodeCount)
				out.KV("link_count", s.LinkCount)
				out.KV("queued_count", s.QueuedCount)
				out.KV("dropped_count", s.DroppedCount)
				out.KV("status", s.Meta.Status)
			default:
				fmt.Fprintln(os.Stderr, "information: inspect requires --node, --link, --data, or --network")
				os.Exit(exitUsage)
			}
			collector.ResolveCalls.WithLabelValues("information").Inc()
			os.Exit(exitOK)
		},
	}
	inspect.Flags().StringVar(&nodeName, "node", "", "node name to inspect")
	inspect.Flags().StringVar(&linkName, "link", "", "link name to inspect")
	inspect.Flags().StringVar(&dataName, "data", "", "data packet name to inspect")
	inspect.Flags().StringVar(&networkName, "network", "", "network name to inspect")
	inspect.Flags().Uint32Var(&budgetMax, "budget", 1000, "query budget")

	var tick uint64
	resolve := &cobra.Command{
		Use:   "resolve",
		Short: "Resolve one tick of an information network",
		Run: func(cmd *cobra.Command, args []string) {
			if networkName == "" {
				fmt.Fprintln(os.Stderr, "information: resolve requires --network")
				os.Exit(exitUsage)
			}
			f := loadFixture(fixturePath, infoFixtureHeader)
			inf := parseInfoFixture(f)
			d := inf.newDomain()
			budget := domain.NewBudget(int(budgetMax))
			netID := networkID(networkName)
			result := d.Resolve(netID, tick, &budget)
			collector.ResolveCalls.WithLabelValues("information").Inc()
			if !result.Ok {
				collector.BudgetRefusals.WithLabelValues("information").Inc()
			}
			out := newWriter()
			out.Header(infoResolveHeader)
			out.KV("network_id", netID)
			out.KV("ok", result.Ok)
			out.KV("delivered_count", result.DeliveredCount)
			out.KV("dropped_count", result.DroppedCount)
			out.KV("queued_count", result.QueuedCount)
			out.Q48("energy_cost_total", result.EnergyCostTotal)
			out.Q48("heat_generated_total", result.HeatGeneratedTotal)
			if !result.Ok {
				out.KV("refusal_reason", result.RefusalReason)
				os.Exit(exitFail)
			}
			os.Exit(exitOK)
		},
	}
	resolve.Flags().StringVar(&networkName, "network", "", "network name to resolve")
	resolve.Flags().Uint64Var(&tick, "tick", 0, "current tick")
	resolve.Flags().Uint32Var(&budgetMax, "budget", 1000, "resolve budget")

	collapse := &cobra.Command{
		Use:   "collapse",
		Short: "Collapse an information network into a macro-capsule",
		Run: func(cmd *cobra.Command, args []string) {
			if networkName == "" {
				fmt.Fprintln(os.Stderr, "information: collapse requires --network")
				os.Exit(exitUsage)
			}
			f := loadFixture(fixturePath, infoFixtureHeader)
			inf := parseInfoFixture(f)
			d := inf.newDomain()
			netID := networkID(networkName)
			before := d.CapsuleCount()
			_ = d.CollapseNetwork(netID)
			after := d.CapsuleCount()
			collector.CapsuleCollapses.WithLabelValues("information").Inc()
			collector.CapsuleCount.WithLabelValues("information").Set(float64(after))
			out := newWriter()
			out.Header(infoCollapseHeader)
			out.KV("network_id", netID)
			out.KV("capsule_count_before", before)
			out.KV("capsule_count_after", after)
			os.Exit(exitOK)
		},
	}
	collapse.Flags().StringVar(&networkName, "network", "", "network name to collapse")

	cmd.AddCommand(validate, inspect, resolve, collapse)
	return cmd
}
