package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/domino-sim/domino/internal/crafting"
	"github.com/domino-sim/domino/internal/domain"
	"github.com/domino-sim/domino/internal/fixture"
	"github.com/domino-sim/domino/internal/rng"
)

const (
	craftFixtureHeader  = "DOMINIUM_CRAFTING_FIXTURE_V1"
	craftValidateHeader = "DOMINIUM_CRAFTING_VALIDATE_V1"
	craftInspectHeader  = "DOMINIUM_CRAFTING_INSPECT_V1"
	craftExecuteHeader  = "DOMINIUM_CRAFTING_EXECUTE_V1"
)

// craftFixture is the parsed form of a crafting fixture file: the surface
// descriptor (recipe table), an authored inventory and tool set, and the
// name-to-index map --recipe resolves through, since crafting.Execute takes
// a recipe's position in the table rather than a hashed id.
type craftFixture struct {
	desc          crafting.SurfaceDesc
	policy        domain.Policy
	policySet     bool
	inventory     []crafting.ItemStack
	tools         []crafting.ToolInstance
	recipeIndexOf map[string]uint32
}

func craftItemKindFromText(text string) crafting.ItemKind {
	switch text {
	case "material":
		return crafting.ItemMaterial
	case "part":
		return crafting.ItemPart
	case "assembly":
		return crafting.ItemAssembly
	case "tool":
		return crafting.ItemTool
	default:
		return crafting.ItemMaterial
	}
}

func craftFailureModeFromText(text string) crafting.FailureMode {
	switch text {
	case "waste":
		return crafting.FailureWaste
	case "damage":
		return crafting.FailureDamage
	default:
		return crafting.FailureRefuse
	}
}

func craftRecipeFlagsFromText(text string) crafting.RecipeFlags {
	var flags crafting.RecipeFlags
	for _, tok := range strings.FieldsFunc(text, func(r rune) bool { return r == ',' || r == '|' }) {
		switch strings.TrimSpace(tok) {
		case "disassembly":
			flags |= crafting.RecipeDisassembly
		case "require_temp":
			flags |= crafting.RecipeRequireTemp
		case "require_humidity":
			flags |= crafting.RecipeRequireHumidity
		case "require_environment":
			flags |= crafting.RecipeRequireEnvironment
		}
	}
	return flags
}

func growRecipes(recipes []crafting.RecipeSpec, index int) []crafting.RecipeSpec {
	if index >= crafting.MaxRecipes {
		return recipes
	}
	for len(recipes) <= index {
		recipes = append(recipes, crafting.RecipeSpec{})
	}
	return recipes
}

func growItemReqs(reqs []crafting.ItemReq, index, max int) []crafting.ItemReq {
	if index >= max {
		return reqs
	}
	for len(reqs) <= index {
		reqs = append(reqs, crafting.ItemReq{})
	}
	return reqs
}

func growToolReqs(reqs []crafting.ToolRequirement, index int) []crafting.ToolRequirement {
	if index >= crafting.MaxTools {
		return reqs
	}
	for len(reqs) <= index {
		reqs = append(reqs, crafting.ToolRequirement{})
	}
	return reqs
}

func growItemStacks(stacks []crafting.ItemStack, index int) []crafting.ItemStack {
	if index >= crafting.MaxInventory {
		return stacks
	}
	for len(stacks) <= index {
		stacks = append(stacks, crafting.ItemStack{})
	}
	return stacks
}

func growToolInstances(tools []crafting.ToolInstance, index int) []crafting.ToolInstance {
	if index >= crafting.MaxTools {
		return tools
	}
	for len(tools) <= index {
		tools = append(tools, crafting.ToolInstance{})
	}
	return tools
}

func applyItemReq(req *crafting.ItemReq, suffix, value string) {
	switch suffix {
	case "id":
		req.ItemID = rng.HashStr32(value)
	case "kind":
		req.Kind = craftItemKindFromText(value)
	case "qty", "quantity":
		req.Quantity = mustParseQ16(value, "item requirement quantity")
	}
}

func parseCraftFixture(f *fixture.File) *craftFixture {
	cf := &craftFixture{
		desc:          crafting.DefaultSurfaceDesc(),
		recipeIndexOf: map[string]uint32{},
	}
	for _, p := range f.Pairs {
		key, value := p.Key, p.Value
		switch {
		case key == "world_seed":
			cf.desc.WorldSeed = mustParseUint(value, 64, key)
		case key == "domain_id":
			cf.desc.DomainID = mustParseUint(value, 64, key)
		case key == "craft_cost_base":
			cf.desc.CraftCostBase = uint32(mustParseUint(value, 32, key))
		case key == "craft_cost_per_input":
			cf.desc.CraftCostPerInput = uint32(mustParseUint(value, 32, key))
		case key == "craft_cost_per_output":
			cf.desc.CraftCostPerOutput = uint32(mustParseUint(value, 32, key))
		case key == "craft_cost_per_tool":
			cf.desc.CraftCostPerTool = uint32(mustParseUint(value, 32, key))
		case key == "inventory_capacity":
			cf.desc.InventoryCapacity = uint32(mustParseUint(value, 32, key))
		case key == "tool_capacity":
			cf.desc.ToolCapacity = uint32(mustParseUint(value, 32, key))
		case key == "law_allow_crafting":
			cf.desc.LawAllowCrafting = mustParseUint(value, 32, key) != 0
		case key == "metalaw_allow_crafting":
			cf.desc.MetalawAllowCrafting = mustParseUint(value, 32, key) != 0
		case key == "cost_full":
			cf.policySet = true
			cf.policy.CostFull = int(mustParseUint(value, 32, key))
		case key == "cost_medium":
			cf.policySet = true
			cf.policy.CostMedium = int(mustParseUint(value, 32, key))
		case key == "cost_coarse":
			cf.policySet = true
			cf.policy.CostCoarse = int(mustParseUint(value, 32, key))
		case key == "cost_analytic":
			cf.policySet = true
			cf.policy.CostAnalytic = int(mustParseUint(value, 32, key))
		default:
			if idx, suffix, ok := fixture.IndexedKey(key, "recipe_"); ok {
				cf.applyRecipe(int(idx), suffix, value)
				continue
			}
			if idx, suffix, ok := fixture.IndexedKey(key, "inv_"); ok {
				cf.applyInventory(int(idx), suffix, value)
				continue
			}
			if idx, suffix, ok := fixture.IndexedKey(key, "tool_"); ok {
				cf.applyTool(int(idx), suffix, value)
				continue
			}
		}
	}
	return cf
}

func (cf *craftFixture) applyRecipe(index int, suffix, value string) {
	cf.desc.Recipes = growRecipes(cf.desc.Recipes, index)
	if index >= len(cf.desc.Recipes) {
		return
	}
	recipe := &cf.desc.Recipes[index]
	switch {
	case suffix == "id":
		recipe.RecipeID = rng.HashStr32(value)
		cf.recipeIndexOf[value] = uint32(index)
	case suffix == "flags":
		recipe.Flags = craftRecipeFlagsFromText(value)
	case suffix == "failure_mode":
		recipe.FailureMode = craftFailureModeFromText(value)
	case suffix == "output_integrity":
		recipe.OutputIntegrity = mustParseQ16(value, "recipe_output_integrity")
	case suffix == "recycle_loss":
		recipe.RecycleLoss = mustParseQ16(value, "recipe_recycle_loss")
	case suffix == "tool_wear":
		recipe.ToolWear = mustParseQ16(value, "recipe_tool_wear")
	case suffix == "temp_min":
		recipe.Flags |= crafting.RecipeRequireTemp
		recipe.Temperature.Min = mustParseQ16(value, "recipe_temp_min")
	case suffix == "temp_max":
		recipe.Flags |= crafting.RecipeRequireTemp
		recipe.Temperature.Max = mustParseQ16(value, "recipe_temp_max")
	case suffix == "humidity_min":
		recipe.Flags |= crafting.RecipeRequireHumidity
		recipe.Humidity.Min = mustParseQ16(value, "recipe_humidity_min")
	case suffix == "humidity_max":
		recipe.Flags |= crafting.RecipeRequireHumidity
		recipe.Humidity.Max = mustParseQ16(value, "recipe_humidity_max")
	case suffix == "environment":
		recipe.Flags |= crafting.RecipeRequireEnvironment
		recipe.EnvironmentID = rng.HashStr32(value)
	case suffix == "maturity":
		recipe.MaturityTag = rng.HashStr32(value)
	default:
		if idx, inner, ok := fixture.IndexedKey(suffix, "input_"); ok {
			recipe.Inputs = growItemReqs(recipe.Inputs, int(idx), crafting.MaxInputs)
			if int(idx) < len(recipe.Inputs) {
				applyItemReq(&recipe.Inputs[idx], inner, value)
			}
			return
		}
		if idx, inner, ok := fixture.IndexedKey(suffix, "output_"); ok {
			recipe.Outputs = growItemReqs(recipe.Outputs, int(idx), crafting.MaxOutputs)
			if int(idx) < len(recipe.Outputs) {
				applyItemReq(&recipe.Outputs[idx], inner, value)
			}
			return
		}
		if idx, inner, ok := fixture.IndexedKey(suffix, "byproduct_"); ok {
			recipe.Byproducts = growItemReqs(recipe.Byproducts, int(idx), crafting.MaxByproducts)
			if int(idx) < len(recipe.Byproducts) {
				applyItemReq(&recipe.Byproducts[idx], inner, value)
			}
			return
		}
		if idx, inner, ok := fixture.IndexedKey(suffix, "tool_"); ok {
			recipe.Tools = growToolReqs(recipe.Tools, int(idx))
			if int(idx) >= len(recipe.Tools) {
				return
			}
			req := &recipe.Tools[idx]
			switch inner {
			case "id":
				req.ToolID = rng.HashStr32(value)
			case "min_integrity":
				req.MinIntegrity = mustParseQ16(value, "recipe_tool_min_integrity")
			}
		}
	}
}

func (cf *craftFixture) applyInventory(index int, suffix, value string) {
	cf.inventory = growItemStacks(cf.inventory, index)
	if index >= len(cf.inventory) {
		return
	}
	stack := &cf.inventory[index]
	switch suffix {
	case "id":
		stack.ItemID = rng.HashStr32(value)
	case "kind":
		stack.Kind = craftItemKindFromText(value)
	case "qty", "quantity":
		stack.Quantity = mustParseQ16(value, "inv_qty")
	case "integrity":
		stack.Integrity = mustParseQ16(value, "inv_integrity")
	case "flags":
		stack.Flags = crafting.ItemFlags(mustParseUint(value, 32, "inv_flags"))
	}
}

func (cf *craftFixture) applyTool(index int, suffix, value string) {
	cf.tools = growToolInstances(cf.tools, index)
	if index >= len(cf.tools) {
		return
	}
	tool := &cf.tools[index]
	switch suffix {
	case "id":
		tool.ToolID = rng.HashStr32(value)
	case "integrity":
		tool.Integrity = mustParseQ16(value, "tool_integrity")
	case "wear":
		tool.Wear = mustParseQ16(value, "tool_wear")
	}
}

func (cf *craftFixture) newDomain() *crafting.Domain {
	d := &crafting.Domain{}
	d.Init(cf.desc)
	d.Inventory = append([]crafting.ItemStack(nil), cf.inventory...)
	d.Tools = append([]crafting.ToolInstance(nil), cf.tools...)
	d.SetState(domain.ExistenceRealized, domain.ArchivalLive)
	if cf.policySet {
		d.SetPolicy(cf.policy)
	}
	return d
}

func (cf *craftFixture) resolveRecipeIndex(nameOrIndex string) uint32 {
	if idx, ok := cf.recipeIndexOf[nameOrIndex]; ok {
		return idx
	}
	if v, err := strconv.ParseUint(nameOrIndex, 0, 32); err == nil {
		return uint32(v)
	}
	return 0
}

func craftingCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "crafting", Short: "Crafting recipe/inventory/tool fixture tools"}
	var fixturePath string
	cmd.PersistentFlags().StringVar(&fixturePath, "fixture", "", "path to a crafting fixture file")

	validate := &cobra.Command{
		Use:   "validate",
		Short: "Validate a crafting fixture and print entity counts",
		Run: func(cmd *cobra.Command, args []string) {
			f := loadFixture(fixturePath, craftFixtureHeader)
			cf := parseCraftFixture(f)
			out := newWriter()
			out.Header(craftValidateHeader)
			out.KV("recipe_count", len(cf.desc.Recipes))
			out.KV("inventory_count", len(cf.inventory))
			out.KV("tool_count", len(cf.tools))
			os.Exit(exitOK)
		},
	}

	inspect := &cobra.Command{
		Use:   "inspect",
		Short: "Print the recipe table and live inventory/tool state",
		Run: func(cmd *cobra.Command, args []string) {
			f := loadFixture(fixturePath, craftFixtureHeader)
			cf := parseCraftFixture(f)
			d := cf.newDomain()
			out := newWriter()
			out.Header(craftInspectHeader)
			out.KV("recipe_count", len(d.Surface.Recipes))
			out.KV("inventory_count", d.InventoryCount())
			for i := 0; i < d.InventoryCount(); i++ {
				stack := d.InventoryAt(i)
				out.KV(fmt.Sprintf("inventory.%d.id", i), stack.ItemID)
				out.KV(fmt.Sprintf("inventory.%d.kind", i), stack.Kind)
				out.Q16(fmt.Sprintf("inventory.%d.qty", i), stack.Quantity)
				out.Q16(fmt.Sprintf("inventory.%d.integrity", i), stack.Integrity)
			}
			out.KV("tool_count", d.ToolCount())
			for i := 0; i < d.ToolCount(); i++ {
				tool := d.ToolAt(i)
				out.KV(fmt.Sprintf("tool.%d.id", i), tool.ToolID)
				out.Q16(fmt.Sprintf("tool.%d.integrity", i), tool.Integrity)
			}
			os.Exit(exitOK)
		},
	}

	var recipeName string
	var tick uint64
	var budgetMax uint32
	var temperature, humidity fixedQ16Flag
	var environmentName string
	execute := &cobra.Command{
		Use:   "execute",
		Short: "Execute one recipe against the fixture's inventory and tools",
		Run: func(cmd *cobra.Command, args []string) {
			if recipeName == "" {
				fmt.Fprintln(os.Stderr, "crafting: execute requires --recipe")
				os.Exit(exitUsage)
			}
			f := loadFixture(fixturePath, craftFixtureHeader)
			cf := parseCraftFixture(f)
			d := cf.newDomain()
			budget := domain.NewBudget(int(budgetMax))
			recipeIndex := cf.resolveRecipeIndex(recipeName)
			conditions := &crafting.Conditions{
				Temperature: temperature.value,
				Humidity:    humidity.value,
			}
			if environmentName != "" {
				conditions.EnvironmentID = rng.HashStr32(environmentName)
			}
			result := d.Execute(recipeIndex, conditions, tick, &budget)
			collector.ResolveCalls.WithLabelValues("crafting").Inc()
			if !result.Ok {
				collector.BudgetRefusals.WithLabelValues("crafting").Inc()
			}
			out := newWriter()
			out.Header(craftExecuteHeader)
			out.KV("recipe_index", recipeIndex)
			out.KV("ok", result.Ok)
			out.KV("inputs_consumed", result.InputsConsumed)
			out.KV("outputs_produced", result.OutputsProduced)
			out.KV("byproducts_produced", result.ByproductsProduced)
			out.KV("tool_damage", result.ToolDamage)
			out.KV("inventory_count", result.InventoryCount)
			out.KV("tool_count", result.ToolCount)
			out.KV("process_id", result.ProcessID)
			out.KV("event_id", result.EventID)
			if !result.Ok {
				out.KV("refusal_reason", result.RefusalReason)
				os.Exit(exitFail)
			}
			os.Exit(exitOK)
		},
	}
	execute.Flags().StringVar(&recipeName, "recipe", "", "recipe name or index to execute")
	execute.Flags().Uint64Var(&tick, "tick", 0, "current tick")
	execute.Flags().Uint32Var(&budgetMax, "budget", 1000, "execute budget")
	execute.Flags().Var(&temperature, "temp", "ambient temperature (Q16.16 decimal)")
	execute.Flags().Var(&humidity, "humidity", "ambient humidity (Q16.16 decimal)")
	execute.Flags().StringVar(&environmentName, "environment", "", "ambient environment name")

	cmd.AddCommand(validate, inspect, execute)
	return cmd
}
