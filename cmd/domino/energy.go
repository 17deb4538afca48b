package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/domino-sim/domino/internal/domain"
	"github.com/domino-sim/domino/internal/energyfield"
	"github.com/domino-sim/domino/internal/fixture"
	"github.com/domino-sim/domino/internal/rng"
)

const (
	energyFixtureHeader = "DOMINIUM_ENERGY_FIXTURE_V1"
	energyValidateHeader = "DOMINIUM_ENERGY_VALIDATE_V1"
	energyInspectHeader  = "DOMINIUM_ENERGY_INSPECT_V1"
	energyResolveHeader  = "DOMINIUM_ENERGY_RESOLVE_V1"
	energyCollapseHeader = "DOMINIUM_ENERGY_COLLAPSE_V1"
)

// energyFixture is the parsed form of an energy fixture file, grounded on
// energy_cli.cpp's energy_fixture struct: the surface descriptor plus the
// human-readable names the CLI resolves to hashed ids, so --store/--flow/
// --network flags can name entities by their fixture-authored name.
type energyFixture struct {
	desc       energyfield.SurfaceDesc
	policy     domain.Policy
	policySet  bool
	storeNames map[string]uint32
	flowNames  map[string]uint32
}

func energyTypeFromText(text string) energyfield.EnergyType {
	switch text {
	case "electrical":
		return energyfield.TypeElectrical
	case "chemical":
		return energyfield.TypeChemical
	case "mechanical":
		return energyfield.TypeMechanical
	case "thermal":
		return energyfield.TypeThermal
	case "abstract":
		return energyfield.TypeAbstract
	default:
		return energyfield.TypeUnset
	}
}

func energyFailureMaskFromText(text string) energyfield.FailureMode {
	var mask energyfield.FailureMode
	for _, tok := range strings.FieldsFunc(text, func(r rune) bool { return r == ',' || r == '|' }) {
		switch strings.TrimSpace(tok) {
		case "overload":
			mask |= energyfield.FailureOverload
		case "brownout":
			mask |= energyfield.FailureBrownout
		case "blackout":
			mask |= energyfield.FailureBlackout
		case "cascade":
			mask |= energyfield.FailureCascade
		case "leakage":
			mask |= energyfield.FailureLeakage
		}
	}
	return mask
}

// growStores/growFlows extend the descriptor's slice to hold index, capped
// at the entity bound — mirroring energy_fixture_apply_store/flow's
// "if index >= MAX return 0" truncation, but over a slice instead of a
// fixed array per the never-grow-past-entity-bounds rule.
func growStores(stores []energyfield.StoreDesc, index int) []energyfield.StoreDesc {
	if index >= energyfield.MaxStores {
		return stores
	}
	for len(stores) <= index {
		stores = append(stores, energyfield.StoreDesc{})
	}
	return stores
}

func growFlows(flows []energyfield.FlowDesc, index int) []energyfield.FlowDesc {
	if index >= energyfield.MaxFlows {
		return flows
	}
	for len(flows) <= index {
		flows = append(flows, energyfield.FlowDesc{})
	}
	return flows
}

func parseEnergyFixture(f *fixture.File) *energyFixture {
	ef := &energyFixture{
		desc:       energyfield.DefaultSurfaceDesc(),
		storeNames: map[string]uint32{},
		flowNames:  map[string]uint32{},
	}
	for _, p := range f.Pairs {
		key, value := p.Key, p.Value
		switch {
		case key == "world_seed":
			ef.desc.WorldSeed = mustParseUint(value, 64, key)
		case key == "domain_id":
			ef.desc.DomainID = mustParseUint(value, 64, key)
		case key == "meters_per_unit":
			ef.desc.MetersPerUnit = mustParseQ16(value, key)
		case key == "loss_dissipation":
			ef.desc.Loss.DissipationFraction = mustParseQ16(value, key)
		case key == "loss_destination":
			ef.desc.Loss.DestinationType = energyTypeFromText(value)
		case key == "cost_full":
			ef.policySet = true
			ef.policy.CostFull = int(mustParseUint(value, 32, key))
		case key == "cost_medium":
			ef.policySet = true
			ef.policy.CostMedium = int(mustParseUint(value, 32, key))
		case key == "cost_coarse":
			ef.policySet = true
			ef.policy.CostCoarse = int(mustParseUint(value, 32, key))
		case key == "cost_analytic":
			ef.policySet = true
			ef.policy.CostAnalytic = int(mustParseUint(value, 32, key))
		default:
			if idx, suffix, ok := fixture.IndexedKey(key, "store_"); ok {
				ef.applyStore(int(idx), suffix, value)
				continue
			}
			if idx, suffix, ok := fixture.IndexedKey(key, "flow_"); ok {
				ef.applyFlow(int(idx), suffix, value)
				continue
			}
		}
	}
	return ef
}

func (ef *energyFixture) applyStore(index int, suffix, value string) {
	ef.desc.Stores = growStores(ef.desc.Stores, index)
	if index >= len(ef.desc.Stores) {
		return
	}
	store := &ef.desc.Stores[index]
	switch suffix {
	case "id":
		store.StoreID = rng.HashStr32(value)
		ef.storeNames[value] = store.StoreID
	case "type":
		store.EnergyType = energyTypeFromText(value)
	case "amount":
		store.Amount = mustParseQ48(value, "store_amount")
	case "capacity":
		store.Capacity = mustParseQ48(value, "store_capacity")
	case "leakage":
		store.LeakageRate = mustParseQ16(value, "store_leakage")
	case "network":
		store.NetworkID = rng.HashStr32(value)
	case "pos":
		x, y, z := mustParseTriplet(value, "store_pos")
		store.Location = domain.Point{X: x, Y: y, Z: z}
	}
}

func (ef *energyFixture) applyFlow(index int, suffix, value string) {
	ef.desc.Flows = growFlows(ef.desc.Flows, index)
	if index >= len(ef.desc.Flows) {
		return
	}
	flow := &ef.desc.Flows[index]
	switch suffix {
	case "id":
		flow.FlowID = rng.HashStr32(value)
		ef.flowNames[value] = flow.FlowID
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
		flow.FailureModeMask = energyFailureMaskFromText(value)
	case "failure_chance":
		flow.FailureChance = mustParseQ16(value, "flow_failure_chance")
	}
}

func (ef *energyFixture) newDomain() *energyfield.Domain {
	d := &energyfield.Domain{}
	d.Init(ef.desc)
	d.SetState(domain.ExistenceRealized, domain.ArchivalLive)
	if ef.policySet {
		d.SetPolicy(ef.policy)
	}
	return d
}

func (ef *energyFixture) resolveID(names map[string]uint32, nameOrID string) uint32 {
	if id, ok := names[nameOrID]; ok {
		return id
	}
	if v, err := strconv.ParseUint(nameOrID, 0, 32); err == nil {
		return uint32(v)
	}
	return rng.HashStr32(nameOrID)
}

// networkID derives a network's id from a --network value: a value that
// parses as an unsigned integer is taken as the raw id, anything else is
// hashed with d_rng_hash_str32 the way store_N_network/flow_N_network
// fixture lines hash their authored name.
func networkID(name string) uint32 {
	if v, err := strconv.ParseUint(name, 0, 32); err == nil {
		return uint32(v)
	}
	return rng.HashStr32(name)
}

func energyCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "energy", Short: "Energy store/flow/network fixture tools"}
	var fixturePath string
	cmd.PersistentFlags().StringVar(&fixturePath, "fixture", "", "path to an energy fixture file")

	validate := &cobra.Command{
		Use:   "validate",
		Short: "Validate an energy fixture and print the store/flow counts",
		Run: func(cmd *cobra.Command, args []string) {
			f := loadFixture(fixturePath, energyFixtureHeader)
			ef := parseEnergyFixture(f)
			out := newWriter()
			out.Header(energyValidateHeader)
			out.KV("store_count", len(ef.desc.Stores))
			out.KV("flow_count", len(ef.desc.Flows))
			os.Exit(exitOK)
		},
	}

	var storeName, flowName, networkName string
	var budgetMax uint32
	inspect := &cobra.Command{
		Use:   "inspect",
		Short: "Query a store, flow, or network in the fixture",
		Run: func(cmd *cobra.Command, args []string) {
			f := loadFixture(fixturePath, energyFixtureHeader)
			ef := parseEnergyFixture(f)
			d := ef.newDomain()
			budget := domain.NewBudget(int(budgetMax))
			out := newWriter()
			out.Header(energyInspectHeader)
			switch {
			case storeName != "":
				s := d.StoreQuery(ef.resolveID(ef.storeNames, storeName), &budget)
				out.KV("store_id", s.StoreID)
				out.Q48("amount", s.Amount)
				out.Q48("capacity", s.Capacity)
				out.KV("status", s.Meta.Status)
			case flowName != "":
				s := d.FlowQuery(ef.resolveID(ef.flowNames, flowName), &budget)
				out.KV("flow_id", s.FlowID)
				out.Q48("max_rate", s.MaxTransferRate)
				out.KV("status", s.Meta.Status)
			case networkName != "":
				s := d.NetworkQuery(networkID(networkName), &budget)
				out.KV("network_id", s.NetworkID)
				out.Q48("energy_total", s.EnergyTotal)
				out.KV("store_count", s.StoreCount)
				out.KV("flow_count", s.FlowCount)
				out.KV("status", s.Meta.Status)
			default:
				fmt.Fprintln(os.Stderr, "energy: inspect requires --store, --flow, or --network")
				os.Exit(exitUsage)
			}
			collector.ResolveCalls.WithLabelValues("energy").Inc()
			os.Exit(exitOK)
		},
	}
	inspect.Flags().StringVar(&storeName, "store", "", "store name to inspect")
	inspect.Flags().StringVar(&flowName, "flow", "", "flow name to inspect")
	inspect.Flags().StringVar(&networkName, "network", "", "network name to inspect")
	inspect.Flags().Uint32Var(&budgetMax, "budget", 1000, "query budget")

	var tick, delta uint64
	resolve := &cobra.Command{
		Use:   "resolve",
		Short: "Resolve one tick of an energy network",
		Run: func(cmd *cobra.Command, args []string) {
			if networkName == "" {
				fmt.Fprintln(os.Stderr, "energy: resolve requires --network")
				os.Exit(exitUsage)
			}
			f := loadFixture(fixturePath, energyFixtureHeader)
			ef := parseEnergyFixture(f)
			d := ef.newDomain()
			budget := domain.NewBudget(int(budgetMax))
			netID := networkID(networkName)
			result := d.Resolve(netID, tick, delta, &budget)
			collector.ResolveCalls.WithLabelValues("energy").Inc()
			if !result.Ok {
				collector.BudgetRefusals.WithLabelValues("energy").Inc()
			}
			out := newWriter()
			out.Header(energyResolveHeader)
			out.KV("network_id", netID)
			out.KV("ok", result.Ok)
			out.Q48("energy_transferred", result.EnergyTransferred)
			out.Q48("energy_lost", result.EnergyLost)
			out.Q48("energy_remaining", result.EnergyRemaining)
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
		Short: "Collapse an energy network into a macro-capsule",
		Run: func(cmd *cobra.Command, args []string) {
			if networkName == "" {
				fmt.Fprintln(os.Stderr, "energy: collapse requires --network")
				os.Exit(exitUsage)
			}
			f := loadFixture(fixturePath, energyFixtureHeader)
			ef := parseEnergyFixture(f)
			d := ef.newDomain()
			netID := networkID(networkName)
			before := d.CapsuleCount()
			_ = d.CollapseNetwork(netID)
			after := d.CapsuleCount()
			collector.CapsuleCollapses.WithLabelValues("energy").Inc()
			collector.CapsuleCount.WithLabelValues("energy").Set(float64(after))
			out := newWriter()
			out.Header(energyCollapseHeader)
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
