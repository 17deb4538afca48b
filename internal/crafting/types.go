// Package crafting implements the crafting/disassembly resolver: a static
// recipe table authored onto a domain, executed one atomic call at a time
// against an explicit inventory and tool set. Unlike the field packages,
// crafting has no per-tick Resolve and no network/capsule concept — each
// Execute call either fully applies a recipe or refuses outright, and the
// only state that persists between calls is the inventory and tools
// themselves.
package crafting

import (
	"github.com/domino-sim/domino/internal/domain"
	"github.com/domino-sim/domino/internal/fixedpoint"
)

// Entity bounds. A domain never grows its live arrays past these counts;
// Init truncates an oversized descriptor rather than refusing it.
const (
	MaxRecipes     = 64
	MaxInputs      = 16
	MaxOutputs     = 16
	MaxByproducts  = 8
	MaxTools       = 16
	MaxInventory   = 128
)

// ItemKind names the category of a stack or requirement.
type ItemKind uint32

const (
	ItemMaterial ItemKind = iota
	ItemPart
	ItemAssembly
	ItemTool
)

// ItemFlags records per-stack authoring bits.
type ItemFlags uint32

const (
	ItemDamageable ItemFlags = 1 << iota
)

// RecipeFlags selects what a recipe requires or represents.
type RecipeFlags uint32

const (
	RecipeDisassembly RecipeFlags = 1 << iota
	RecipeRequireTemp
	RecipeRequireHumidity
	RecipeRequireEnvironment
)

// FailureMode selects what Execute does when a recipe's conditions or
// tool requirements are not met.
type FailureMode uint32

const (
	FailureRefuse FailureMode = iota
	FailureWaste
	FailureDamage
)

// ResultFlags is the observation set an Execute call reports on its
// result.
type ResultFlags uint32

const (
	ResultLawBlock ResultFlags = 1 << iota
	ResultMetalawBlock
	ResultFailure
	ResultWaste
	ResultDisassembly
	ResultToolDamage
)

// ItemReq names one item/quantity requirement inside a recipe (an input,
// output, or byproduct line).
type ItemReq struct {
	ItemID   uint32
	Kind     ItemKind
	Quantity fixedpoint.Q16
}

// ItemStack is one live inventory slot.
type ItemStack struct {
	ItemID    uint32
	Kind      ItemKind
	Quantity  fixedpoint.Q16
	Integrity fixedpoint.Q16
	Flags     ItemFlags
}

// ToolRequirement names a tool a recipe needs present above a minimum
// integrity.
type ToolRequirement struct {
	ToolID       uint32
	MinIntegrity fixedpoint.Q16
}

// ToolInstance is one live tool the domain owns.
type ToolInstance struct {
	ToolID    uint32
	Integrity fixedpoint.Q16
	Wear      fixedpoint.Q16
}

// ConditionRange bounds an ambient condition a recipe requires.
type ConditionRange struct {
	Min fixedpoint.Q16
	Max fixedpoint.Q16
}

// Conditions is the ambient environment Execute is called with.
type Conditions struct {
	Temperature   fixedpoint.Q16
	Humidity      fixedpoint.Q16
	EnvironmentID uint32
}

// RecipeSpec is the authoring-time description of one recipe.
type RecipeSpec struct {
	RecipeID         uint32
	Inputs           []ItemReq
	Outputs          []ItemReq
	Byproducts       []ItemReq
	Tools            []ToolRequirement
	Temperature      ConditionRange
	Humidity         ConditionRange
	EnvironmentID    uint32
	OutputIntegrity  fixedpoint.Q16
	RecycleLoss      fixedpoint.Q16
	ToolWear         fixedpoint.Q16
	FailureMode      FailureMode
	Flags            RecipeFlags
	MaturityTag      uint32
}

// SurfaceDesc is the immutable authoring descriptor a domain is
// initialized from.
type SurfaceDesc struct {
	DomainID              uint64
	WorldSeed             uint64
	CraftCostBase         uint32
	CraftCostPerInput     uint32
	CraftCostPerOutput    uint32
	CraftCostPerTool      uint32
	InventoryCapacity     uint32
	ToolCapacity          uint32
	LawAllowCrafting      bool
	MetalawAllowCrafting  bool
	Recipes               []RecipeSpec
}

// DefaultSurfaceDesc returns a descriptor matching
// dom_craft_surface_desc_init's defaults.
func DefaultSurfaceDesc() SurfaceDesc {
	return SurfaceDesc{
		DomainID:             1,
		WorldSeed:            1,
		CraftCostBase:        10,
		CraftCostPerInput:    2,
		CraftCostPerOutput:   3,
		CraftCostPerTool:     1,
		InventoryCapacity:    64,
		ToolCapacity:         16,
		LawAllowCrafting:     true,
		MetalawAllowCrafting: true,
	}
}

// ExecuteResult is what Execute returns.
type ExecuteResult struct {
	Ok                 bool
	RefusalReason      domain.RefusalReason
	Flags              ResultFlags
	RecipeID           uint32
	InputsConsumed     uint32
	OutputsProduced    uint32
	ByproductsProduced uint32
	ToolDamage         uint32
	InventoryCount     uint32
	ToolCount          uint32
	ProcessID          uint32
	EventID            uint32
}

// Domain owns one crafting surface: its immutable recipe table, lifecycle
// state, and the live inventory/tool arrays Execute mutates. Iteration is
// always in declaration order; the inventory is a bounded slice that is
// compacted in place on removal, never reordered or looked up through a
// map.
type Domain struct {
	Policy           domain.Policy
	State            domain.State
	AuthoringVersion uint32
	Surface          SurfaceDesc
	Inventory        []ItemStack
	Tools            []ToolInstance
}
