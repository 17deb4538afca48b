package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/domino-sim/domino/internal/domain"
	"github.com/domino-sim/domino/internal/fixture"
	"github.com/domino-sim/domino/internal/fluidfield"
	"github.com/domino-sim/domino/internal/rng"
)

const (
	fluidFixtureHeader  = "DOMINIUM_FLUID_FIXTURE_V1"
	fluidValidateHeader = "DOMINIUM_FLUID_VALIDATE_V1"
	fluidInspectHeader  = "DOMINIUM_FLUID_INSPECT_V1"
	fluidResolveHeader  = "DOMINIUM_FLUID_RESOLVE_V1"
	fluidCollapseHeader = "DOMINIUM_FLUID_COLLAPSE_V1"
)

// fluidFixture is the parsed form of a fluid fixture file: the surface
// descriptor plus the human-readable names the CLI resolves to hashed ids,
// matching energy/heat's fixture shape with pressure and property tables
// added.
type fluidFixture struct {
	desc          fluidfield.SurfaceDesc
	policy        domain.Policy
	policySet     bool
	storeNames    map[string]uint32
	flowNames     map[string]uint32
	pressureNames map[string]uint32
	propertyNames map[string]uint32
}

func fluidTypeFromText(text string) fluidfield.FluidType {
	switch text {
	case "water":
		return fluidfield.FluidWater
	case "oil":
		return fluidfield.FluidOil
	case "gas":
		return fluidfield.FluidGas
	case "lava":
		return fluidfield.FluidLava
	case "abstract":
		return fluidfield.FluidAbstract
	default:
		return fluidfield.FluidUnset
	}
}

func fluidFailureMaskFromText(text string) fluidfield.FailureMode {
	var mask fluidfield.FailureMode
	for _, tok := range strings.FieldsFunc(text, func(r rune) bool { return r == ',' || r == '|' }) {
		switch strings.TrimSpace(tok) {
		case "overload":
			mask |= fluidfield.FailureOverload
		case "blocked":
			mask |= fluidfield.FailureBlocked
		case "leakage":
			mask |= fluidfield.FailureLeakage
		case "cascade":
			mask |= fluidfield.FailureCascade
		}
	}
	return mask
}

func growFluidStores(stores []fluidfield.StoreDesc, index int) []fluidfield.StoreDesc {
	if index >= fluidfield.MaxStores {
		return stores
	}
	for len(stores) <= index {
		stores = append(stores, fluidfield.StoreDesc{})
	}
	return stores
}

func growFluidFlows(flows []fluidfield.FlowDesc, index int) []fluidfield.FlowDesc {
	if index >= fluidfield.MaxFlows {
		return flows
	}
	for len(flows) <= index {
		flows = append(flows, fluidfield.FlowDesc{})
	}
	return flows
}

func growFluidPressures(pressures []fluidfield.PressureDesc, index int) []fluidfield.PressureDesc {
	if index >= fluidfield.MaxPressures {
		return pressures
	}
	for len(pressures) <= index {
		pressures = append(pressures, fluidfield.PressureDesc{})
	}
	return pressures
}

func growFluidProperties(properties []fluidfield.PropertyDesc, index int) []fluidfield.PropertyDesc {
	if index >= fluidfield.MaxProperties {
		return properties
	}
	for len(properties) <= index {
		properties = append(properties, fluidfield.PropertyDesc{})
	}
	return properties
}

func parseFluidFixture(f *fixture.File) *fluidFixture {
	ff := &fluidFixture{
		desc:          fluidfield.DefaultSurfaceDesc(),
		storeNames:    map[string]uint32{},
		flowNames:     map[string]uint32{},
		pressureNames: map[string]uint32{},
		propertyNames: map[string]uint32{},
	}
	for _, p := range f.Pairs {
		key, value := p.Key, p.Value
		switch {
		case key == "world_seed":
			ff.desc.WorldSeed = mustParseUint(value, 64, key)
		case key == "domain_id":
			ff.desc.DomainID = mustParseUint(value, 64, key)
		case key == "meters_per_unit":
			ff.desc.MetersPerUnit = mustParseQ16(value, key)
		case key == "pressure_scale":
			ff.desc.PressureScale = mustParseQ48(value, key)
		case key == "cost_full":
			ff.policySet = true
			ff.policy.CostFull = int(mustParseUint(value, 32, key))
		case key == "cost_medium":
			ff.policySet = true
			ff.policy.CostMedium = int(mustParseUint(value, 32, key))
		case key == "cost_coarse":
			ff.policySet = true
			ff.policy.CostCoarse = int(mustParseUint(value, 32, key))
		case key == "cost_analytic":
			ff.policySet = true
			ff.policy.CostAnalytic = int(mustParseUint(value, 32, key))
		default:
			if idx, suffix, ok := fixture.IndexedKey(key, "store_"); ok {
				ff.applyStore(int(idx), suffix, value)
				continue
			}
			if idx, suffix, ok := fixture.IndexedKey(key, "flow_"); ok {
				ff.applyFlow(int(idx), suffix, value)
				continue
			}
			if idx, suffix, ok := fixture.IndexedKey(key, "pressure_"); ok {
				ff.applyPressure(int(idx), suffix, value)
				continue
			}
			if idx, suffix, ok := fixture.IndexedKey(key, "property_"); ok {
				ff.applyProperty(int(idx), suffix, value)
				continue
			}
		}
	}
	return ff
}

func (ff *fluidFixture) applyStore(index int, suffix, value string) {
	ff.desc.Stores = growFluidStores(ff.desc.Stores, index)
	if index >= len(ff.desc.Stores) {
		return
	}
	store := &ff.desc.Stores[index]
	switch suffix {
	case "id":
		store.StoreID = rng.HashStr32(value)
		ff.storeNames[value] = store.StoreID
	case "type":
		store.FluidType = fluidTypeFromText(value)
	case "volume":
		store.Volume = mustParseQ48(value, "store_volume")
	case "max_volume":
		store.MaxVolume = mustParseQ48(value, "store_max_volume")
	case "temperature":
		store.Temperature = mustParseQ48(value, "store_temperature")
	case "contamination":
		store.Contamination = mustParseQ16(value, "store_contamination")
	case "leakage":
		store.LeakageRate = mustParseQ16(value, "store_leakage")
	case "network":
		store.NetworkID = rng.HashStr32(value)
	case "pos":
		x, y, z := mustParseTriplet(value, "store_pos")
		store.Location = domain.Point{X: x, Y: y, Z: z}
	}
}

func (ff *fluidFixture) applyFlow(index int, suffix, value string) {
	ff.desc.Flows = growFluidFlows(ff.desc.Flows, index)
	if index >= len(ff.desc.Flows) {
		return
	}
	flow := &ff.desc.Flows[index]
	switch suffix {
	case "id":
		flow.FlowID = rng.HashStr32(value)
		ff.flowNames[value] = flow.FlowID
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
		flow.FailureModeMask = fluidFailureMaskFromText(value)
	case "failure_chance":
		flow.FailureChance = mustParseQ16(value, "flow_failure_chance")
	case "energy_per_volume":
		flow.EnergyPerVolume = mustParseQ48(value, "flow_energy_per_volume")
	}
}

func (ff *fluidFixture) applyPressure(index int, suffix, value string) {
	ff.desc.Pressures = growFluidPressures(ff.desc.Pressures, index)
	if index >= len(ff.desc.Pressures) {
		return
	}
	pressure := &ff.desc.Pressures[index]
	switch suffix {
	case "id":
		pressure.PressureID = rng.HashStr32(value)
		ff.pressureNames[value] = pressure.PressureID
	case "store":
		pressure.StoreID = rng.HashStr32(value)
	case "limit":
		pressure.PressureLimit = mustParseQ48(value, "pressure_limit")
	case "rupture":
		pressure.RuptureThreshold = mustParseQ48(value, "pressure_rupture")
	case "release":
		pressure.ReleaseRatio = mustParseQ16(value, "pressure_release")
	}
}

func (ff *fluidFixture) applyProperty(index int, suffix, value string) {
	ff.desc.Properties = growFluidProperties(ff.desc.Properties, index)
	if index >= len(ff.desc.Properties) {
		return
	}
	property := &ff.desc.Properties[index]
	switch suffix {
	case "id":
		property.PropertyID = rng.HashStr32(value)
		ff.propertyNames[value] = property.PropertyID
	case "type":
		property.FluidType = fluidTypeFromText(value)
	case "density":
		property.Density = mustParseQ48(value, "property_density")
	case "viscosity":
		property.ViscosityClass = uint32(mustParseUint(value, 32, "property_viscosity"))
	case "compressibility":
		property.CompressibilityClass = uint32(mustParseUint(value, 32, "property_compressibility"))
	case "hazard":
		property.HazardProfile = uint32(mustParseUint(value, 32, "property_hazard"))
	}
}

func (ff *fluidFixture) newDomain() *fluidfield.Domain {
	d := &fluidfield.Domain{}
	d.Init(ff.desc)
	d.SetState(domain.ExistenceRealized, domain.ArchivalLive)
	if ff.policySet {
		d.SetPolicy(ff.policy)
	}
	return d
}

func (ff *fluidFixture) resolveID(names map[string]uint32, nameOrID string) uint32 {
	if id, ok := names[nameOrID]; ok {
		return id
	}
	if v, err := strconv.ParseUint(nameOrID, 0, 32); err == nil {
		return uint32(v)
	}
	return rng.HashStr32(nameOrID)
}

func fluidCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "fluid", Short: "Fluid store/flow/pressure/property fixture tools"}
	var fixturePath string
	cmd.PersistentFlags().StringVar(&fixturePath, "fixture", "", "path to a fluid fixture file")

	validate := &cobra.Command{
		Use:   "validate",
		Short: "Validate a fluid fixture and print entity counts",
		Run: func(cmd *cobra.Command, args []string) {
			f := loadFixture(fixturePath, fluidFixtureHeader)
			ff := parseFluidFixture(f)
			out := newWriter()
			out.Header(fluidValidateHeader)
			out.KV("store_count", len(ff.desc.Stores))
			out.KV("flow_count", len(ff.desc.Flows))
			out.KV("pressure_count", len(ff.desc.Pressures))
			out.KV("property_count", len(ff.desc.Properties))
			os.Exit(exitOK)
		},
	}

	var storeName, flowName, pressureName, propertyName, networkName string
	var budgetMax uint32
	inspect := &cobra.Command{
		Use:   "inspect",
		Short: "Query a store, flow, pressure, property, or network in the fixture",
		Run: func(cmd *cobra.Command, args []string) {
			f := loadFixture(fixturePath, fluidFixtureHeader)
			ff := parseFluidFixture(f)
			d := ff.newDomain()
			budget := domain.NewBudget(int(budgetMax))
			out := newWriter()
			out.Header(fluidInspectHeader)
			switch {
			case storeName != "":
				s := d.StoreQuery(ff.resolveID(ff.storeNames, storeName), &budget)
				out.KV("store_id", s.StoreID)
				out.Q48("volume", s.Volume)
				out.Q48("max_volume", s.MaxVolume)
				out.KV("status", s.Meta.Status)
			case flowName != "":
				s := d.FlowQuery(ff.resolveID(ff.flowNames, flowName), &budget)
				out.KV("flow_id", s.FlowID)
				out.Q48("max_rate", s.MaxTransferRate)
				out.KV("status", s.Meta.Status)
			case pressureName != "":
				s := d.PressureQuery(ff.resolveID(ff.pressureNames, pressureName), &budget)
				out.KV("pressure_id", s.PressureID)
				out.Q48("amount", s.Amount)
				out.KV("status", s.Meta.Status)
			case propertyName != "":
				s := d.PropertyQuery(ff.resolveID(ff.propertyNames, propertyName), &budget)
				out.KV("property_id", s.PropertyID)
				out.Q48("density", s.Density)
				out.KV("status", s.Meta.Status)
			case networkName != "":
				s := d.NetworkQuery(networkID(networkName), &budget)
				out.KV("network_id", s.NetworkID)
				out.Q48("volume_total", s.VolumeTotal)
				out.KV("store_count", s.StoreCount)
				out.KV("flow_count", s.FlowCount)
				out.KV("status", s.Meta.Status)
			default:
				fmt.Fprintln(os.Stderr, "fluid: inspect requires --store, --flow, --pressure, --property, or --network")
				os.Exit(exitUsage)
			}
			collector.ResolveCalls.WithLabelValues("fluid").Inc()
			os.Exit(exitOK)
		},
	}
	inspect.Flags().StringVar(&storeName, "store", "", "store name to inspect")
	inspect.Flags().StringVar(&flowName, "flow", "", "flow name to inspect")
	inspect.Flags().StringVar(&pressureName, "pressure", "", "pressure name to inspect")
	inspect.Flags().StringVar(&propertyName, "property", "", "property name to inspect")
	inspect.Flags().StringVar(&networkName, "network", "", "network name to inspect")
	inspect.Flags().Uint32Var(&budgetMax, "budget", 1000, "query budget")

	var tick, delta uint64
	resolve := &cobra.Command{
		Use:   "resolve",
		Short: "Resolve one tick of a fluid network",
		Run: func(cmd *cobra.Command, args []string) {
			if networkName == "" {
				fmt.Fprintln(os.Stderr, "fluid: resolve requires --network")
				os.Exit(exitUsage)
			}
			f := loadFixture(fixturePath, fluidFixtureHeader)
			ff := parseFluidFixture(f)
			d := ff.newDomain()
			budget := domain.NewBudget(int(budgetMax))
			netID := networkID(networkName)
			result := d.Resolve(netID, tick, delta, &budget)
			collector.ResolveCalls.WithLabelValues("fluid").Inc()
			if !result.Ok {
				collector.BudgetRefusals.WithLabelValues("fluid").Inc()
			}
			out := newWriter()
			out.Header(fluidResolveHeader)
			out.KV("network_id", netID)
			out.KV("ok", result.Ok)
			out.Q48("volume_transferred", result.VolumeTransferred)
			out.Q48("volume_leaked", result.VolumeLeaked)
			out.Q48("volume_remaining", result.VolumeRemaining)
			out.Q48("energy_required", result.EnergyRequired)
			out.KV("pressure_over_limit_count", result.PressureOverLimitCount)
			out.KV("pressure_rupture_count", result.PressureRuptureCount)
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
		Short: "Collapse a fluid network into a macro-capsule",
		Run: func(cmd *cobra.Command, args []string) {
			if networkName == "" {
				fmt.Fprintln(os.Stderr, "fluid: collapse requires --network")
				os.Exit(exitUsage)
			}
			f := loadFixture(fixturePath, fluidFixtureHeader)
			ff := parseFluidFixture(f)
			d := ff.newDomain()
			netID := networkID(networkName)
			before := d.CapsuleCount()
			_ = d.CollapseNetwork(netID)
			after := d.CapsuleCount()
			collector.CapsuleCollapses.WithLabelValues("fluid").Inc()
			collector.CapsuleCount.WithLabelValues("fluid").Set(float64(after))
			out := newWriter()
			out.Header(fluidCollapseHeader)
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
