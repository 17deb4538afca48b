package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/domino-sim/domino/internal/domain"
	"github.com/domino-sim/domino/internal/fixture"
	"github.com/domino-sim/domino/internal/heatfield"
	"github.com/domino-sim/domino/internal/rng"
)

const (
	heatFixtureHeader  = "DOMINIUM_HEAT_FIXTURE_V1"
	heatValidateHeader = "DOMINIUM_HEAT_VALIDATE_V1"
	heatInspectHeader  = "DOMINIUM_HEAT_INSPECT_V1"
	heatResolveHeader  = "DOMINIUM_HEAT_RESOLVE_V1"
	heatCollapseHeader = "DOMINIUM_HEAT_COLLAPSE_V1"
)

type heatFixture struct {
	desc        heatfield.SurfaceDesc
	policy      domain.Policy
	policySet   bool
	storeNames  map[string]uint32
	flowNames   map[string]uint32
	stressNames map[string]uint32
}

func heatFailureMaskFromText(text string) heatfield.FailureMode {
	var mask heatfield.FailureMode
	for _, tok := range strings.FieldsFunc(text, func(r rune) bool { return r == ',' || r == '|' }) {
		switch strings.TrimSpace(tok) {
		case "overload":
			mask |= heatfield.FailureOverload
		case "blocked":
			mask |= heatfield.FailureBlocked
		case "leakage":
			mask |= heatfield.FailureLeakage
		case "cascade":
			mask |= heatfield.FailureCascade
		}
	}
	return mask
}

func growHeatStores(stores []heatfield.StoreDesc, index int) []heatfield.StoreDesc {
	if index >= heatfield.MaxStores {
		return stores
	}
	for len(stores) <= index {
		stores = append(stores, heatfield.StoreDesc{})
	}
	return stores
}

func growHeatFlows(flows []heatfield.FlowDesc, index int) []heatfield.FlowDesc {
	if index >= heatfield.MaxFlows {
		return flows
	}
	for len(flows) <= index {
		flows = append(flows, heatfield.FlowDesc{})
	}
	return flows
}

func growHeatStresses(stresses []heatfield.StressDesc, index int) []heatfield.StressDesc {
	if index >= heatfield.MaxStresses {
		return stresses
	}
	for len(stresses) <= index {
		stresses = append(stresses, heatfield.StressDesc{})
	}
	return stresses
}

func parseHeatFixture(f *fixture.File) *heatFixture {
	hf := &heatFixture{
		desc:        heatfield.DefaultSurfaceDesc(),
		storeNames:  map[string]uint32{},
		flowNames:   map[string]uint32{},
		stressNames: map[string]uint32{},
	}
	for _, p := range f.Pairs {
		key, value := p.Key, p.Value
		switch {
		case key == "world_seed":
			hf.desc.WorldSeed = mustParseUint(value, 64, key)
		case key == "domain_id":
			hf.desc.DomainID = mustParseUint(value, 64, key)
		case key == "meters_per_unit":
			hf.desc.MetersPerUnit = mustParseQ16(value, key)
		case key == "temperature_scale":
			hf.desc.TemperatureScale = mustParseQ48(value, key)
		case key == "cost_full":
			hf.policySet = true
			hf.policy.CostFull = int(mustParseUint(value, 32, key))
		case key == "cost_medium":
			hf.policySet = true
			hf.policy.CostMedium = int(mustParseUint(value, 32, key))
		case key == "cost_coarse":
			hf.policySet = true
			hf.policy.CostCoarse = int(mustParseUint(value, 32, key))
		case key == "cost_analytic":
			hf.policySet = true
			hf.policy.CostAnalytic = int(mustParseUint(value, 32, key))
		default:
			if idx, suffix, ok := fixture.IndexedKey(key, "store_"); ok {
				hf.applyStore(int(idx), suffix, value)
				continue
			}
			if idx, suffix, ok := fixture.IndexedKey(key, "flow_"); ok {
				hf.applyFlow(int(idx), suffix, value)
				continue
			}
			if idx, suffix, ok := fixture.IndexedKey(key, "stress_"); ok {
				hf.applyStress(int(idx), suffix, value)
				continue
			}
		}
	}
	return hf
}

func (hf *heatFixture) applyStore(index int, suffix, value string) {
	hf.desc.Stores = growHeatStores(hf.desc.Stores, index)
	if index >= len(hf.desc.Stores) {
		return
	}
	store := &hf.desc.Stores[index]
	switch suffix {
	case "id":
		store.StoreID = rng.HashStr32(value)
		hf.storeNames[value] = store.StoreID
	case "amount":
		store.Amount = mustParseQ48(value, "store_amount")
	case "capacity":
		store.Capacity = mustParseQ48(value, "store_capacity")
	case "ambient_exchange":
		store.AmbientExchangeRate = mustParseQ16(value, "store_ambient_exchange")
	case "network":
		store.NetworkID = rng.HashStr32(value)
	case "pos":
		x, y, z := mustParseTriplet(value, "store_pos")
		store.Location = domain.Point{X: x, Y: y, Z: z}
	}
}

func (hf *heatFixture) applyFlow(index int, suffix, value string) {
	hf.desc.Flows = growHeatFlows(hf.desc.Flows, index)
	if index >= len(hf.desc.Flows) {
		return
	}
	flow := &hf.desc.Flows[index]
	switch suffix {
	case "id":
		flow.FlowID = rng.HashStr32(value)
		hf.flowNames[value] = flow.FlowID
	case "network":
		flow.NetworkID = rng.HashStr32(value)
	case "source":
		flow.SourceStoreID = rng.HashStr32(value)
	case "sink":
		flow.SinkStoreID = rng.HashStr32(value)
	case "max_rate":
		flow.MaxTransferRate = mustParseQ48(value, "flow_max_rate")
	case "efficiency":
		flow.Efficiency = mustParseQ16(value, "flow_efficiency")
	case "latency":
		flow.LatencyTicks = mustParseUint(value, 64, "flow_latency")
	case "failure":
		flow.FailureModeMask = heatFailureMaskFromText(value)
	case "failure_chance":
		flow.FailureChance = mustParseQ16(value, "flow_failure_chance")
	}
}

func (hf *heatFixture) applyStress(index int, suffix, value string) {
	hf.desc.Stresses = growHeatStresses(hf.desc.Stresses, index)
	if index >= len(hf.desc.Stresses) {
		return
	}
	stress := &hf.desc.Stresses[index]
	switch suffix {
	case "id":
		stress.StressID = rng.HashStr32(value)
		hf.stressNames[value] = stress.StressID
	case "store":
		stress.StoreID = rng.HashStr32(value)
	case "safe_min":
		stress.SafeMin = mustParseQ48(value, "stress_safe_min")
	case "safe_max":
		stress.SafeMax = mustParseQ48(value, "stress_safe_max")
	case "damage_rate":
		stress.DamageRate = mustParseQ16(value, "stress_damage_rate")
	case "efficiency_modifier":
		stress.EfficiencyModifier = mustParseQ16(value, "stress_efficiency_modifier")
	}
}

func (hf *heatFixture) newDomain() *heatfield.Domain {
	d := &heatfield.Domain{}
	d.Init(hf.desc)
	d.SetState(domain.ExistenceRealized, domain.ArchivalLive)
	if hf.policySet {
		d.SetPolicy(hf.policy)
	}
	return d
}

func (hf *heatFixture) resolveID(names map[string]uint32, nameOrID string) uint32 {
	if id, ok := names[nameOrID]; ok {
		return id
	}
	if v, err := strconv.ParseUint(nameOrID, 0, 32); err == nil {
		return uint32(v)
	}
	return rng.HashStr32(nameOrID)
}

func heatCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "heat", Short: "Heat store/flow/stress/network fixture tools"}
	var fixturePath string
	cmd.PersistentFlags().StringVar(&fixturePath, "fixture", "", "path to a heat fixture file")

	validate := &cobra.Command{
		Use:   "validate",
		Short: "Validate a heat fixture and print entity counts",
		Run: func(cmd *cobra.Command, args []string) {
			f := loadFixture(fixturePath, heatFixtureHeader)
			hf := parseHeatFixture(f)
			out := newWriter()
			out.Header(heatValidateHeader)
			out.KV("store_count", len(hf.desc.Stores))
			out.KV("flow_count", len(hf.desc.Flows))
			out.KV("stress_count", len(hf.desc.Stresses))
			os.Exit(exitOK)
		},
	}

	var storeName, flowName, stressName, networkName string
	var budgetMax uint32
	inspect := &cobra.Command{
		Use:   "inspect",
		Short: "Query a store, flow, stress, or network in the fixture",
		Run: func(cmd *cobra.Command, args []string) {
			f := loadFixture(fixturePath, heatFixtureHeader)
			hf := parseHeatFixture(f)
			d := hf.newDomain()
			budget := domain.NewBudget(int(budgetMax))
			out := newWriter()
			out.Header(heatInspectHeader)
			switch {
			case storeName != "":
				s := d.StoreQuery(hf.resolveID(hf.storeNames, storeName), &budget)
				out.KV("store_id", s.StoreID)
				out.Q48("amount", s.Amount)
				out.KV("status", s.Meta.Status)
			case flowName != "":
				s := d.FlowQuery(hf.resolveID(hf.flowNames, flowName), &budget)
				out.KV("flow_id", s.FlowID)
				out.Q48("max_rate", s.MaxTransferRate)
				out.KV("status", s.Meta.Status)
			case stressName != "":
				s := d.StressQuery(hf.resolveID(hf.stressNames, stressName), &budget)
				out.KV("stress_id", s.StressID)
				out.KV("status", s.Meta.Status)
			case networkName != "":
				s := d.NetworkQuery(networkID(networkName), &budget)
				out.KV("network_id", s.NetworkID)
				out.Q48("heat_total", s.HeatTotal)
				out.KV("status", s.Meta.Status)
			default:
				fmt.Fprintln(os.Stderr, "heat: inspect requires --store, --flow, --stress, or --network")
				os.Exit(exitUsage)
			}
			collector.ResolveCalls.WithLabelValues("heat").Inc()
			os.Exit(exitOK)
		},
	}
	inspect.Flags().StringVar(&storeName, "store", "", "store name to inspect")
	inspect.Flags().StringVar(&flowName, "flow", "", "flow name to inspect")
	inspect.Flags().StringVar(&stressName, "stress", "", "stress name to inspect")
	inspect.Flags().StringVar(&networkName, "network", "", "network name to inspect")
	inspect.Flags().Uint32Var(&budgetMax, "budget", 1000, "query budget")

	var tick, delta uint64
	resolve := &cobra.Command{
		Use:   "resolve",
		Short: "Resolve one tick of a heat network",
		Run: func(cmd *cobra.Command, args []string) {
			if networkName == "" {
				fmt.Fprintln(os.Stderr, "heat: resolve requires --network")
				os.Exit(exitUsage)
			}
			f := loadFixture(fixturePath, heatFixtureHeader)
			hf := parseHeatFixture(f)
			d := hf.newDomain()
			budget := domain.NewBudget(int(budgetMax))
			netID := networkID(networkName)
			result := d.Resolve(netID, tick, delta, &budget)
			collector.ResolveCalls.WithLabelValues("heat").Inc()
			if !result.Ok {
				collector.BudgetRefusals.WithLabelValues("heat").Inc()
			}
			out := newWriter()
			out.Header(heatResolveHeader)
			out.KV("network_id", netID)
			out.KV("ok", result.Ok)
			out.Q48("heat_transferred", result.HeatTransferred)
			out.Q48("heat_dissipated", result.HeatDissipated)
			out.Q48("heat_remaining", result.HeatRemaining)
			if !result.Ok {
				out.KV("refusal_reason", result.RefusalReason)
				os.Exit(exitFail)
			}
			os.Exit(exitOK)
		},
	}
	resolve.Flags().StringVar(&networkName, "network", "", "network name to resolve")
	resolve.Flags().Uint64Var(&tick, "tick", 0, "current tick")
	resolve.Flags().Uint64Var(&delta, "delta", 1, "ticks elapsed since the last resolve")
	resolve.Flags().Uint32Var(&budgetMax, "budget", 1000, "resolve budget")

	collapse := &cobra.Command{
		Use:   "collapse",
		Short: "Collapse a heat network into a macro-capsule",
		Run: func(cmd *cobra.Command, args []string) {
			if networkName == "" {
				fmt.Fprintln(os.Stderr, "heat: collapse requires --network")
				os.Exit(exitUsage)
			}
			f := loadFixture(fixturePath, heatFixtureHeader)
			hf := parseHeatFixture(f)
			d := hf.newDomain()
			netID := networkID(networkName)
			before := d.CapsuleCount()
			_ = d.CollapseNetwork(netID)
			after := d.CapsuleCount()
			collector.CapsuleCollapses.WithLabelValues("heat").Inc()
			collector.CapsuleCount.WithLabelValues("heat").Set(float64(after))
			out := newWriter()
			out.Header(heatCollapseHeader)
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
