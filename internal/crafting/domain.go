package crafting

import (
	"github.com/domino-sim/domino/internal/domain"
	"github.com/domino-sim/domino/internal/fixedpoint"
)

// Init copies desc into a freshly zeroed domain: the recipe table is kept
// on Surface (recipes are read-only reference data, never copied into a
// separate live array), inventory/tools start empty, existence realized
// and archival live. Oversized recipe lists are truncated to MaxRecipes
// rather than rejected.
func (d *Domain) Init(desc SurfaceDesc) {
	*d = Domain{}
	if len(desc.Recipes) > MaxRecipes {
		desc.Recipes = desc.Recipes[:MaxRecipes]
	}
	d.Surface = desc
	d.Policy = domain.DefaultPolicy()
	d.State = domain.State{Existence: domain.ExistenceRealized, Archival: domain.ArchivalLive}
	d.AuthoringVersion = 1
}

// Free empties the live inventory and tools. The surface descriptor and
// policy are left untouched.
func (d *Domain) Free() {
	d.Inventory = nil
	d.Tools = nil
}

// SetState overwrites the domain's lifecycle state.
func (d *Domain) SetState(existence domain.Existence, archival domain.Archival) {
	d.State.Existence = existence
	d.State.Archival = archival
}

// SetPolicy overwrites the domain's cost policy.
func (d *Domain) SetPolicy(p domain.Policy) {
	d.Policy = p
}

func (d *Domain) isActive() bool {
	return d.State.Active()
}

// inventoryFind returns the index of the first stack matching itemID/kind
// whose quantity is at least minQuantity, or -1.
func (d *Domain) inventoryFind(itemID uint32, kind ItemKind, minQuantity fixedpoint.Q16) int {
	for i := range d.Inventory {
		stack := &d.Inventory[i]
		if stack.ItemID != itemID || stack.Kind != kind {
			continue
		}
		if stack.Quantity >= minQuantity {
			return i
		}
	}
	return -1
}

// inventoryFindMerge returns the index of a stack that a new delivery of
// itemID/kind/integrity should merge into. Assemblies and tools only merge
// with a stack of identical integrity — two items with different wear are
// not the same stack.
func (d *Domain) inventoryFindMerge(itemID uint32, kind ItemKind, integrity fixedpoint.Q16) int {
	for i := range d.Inventory {
		stack := &d.Inventory[i]
		if stack.ItemID != itemID || stack.Kind != kind {
			continue
		}
		if kind == ItemAssembly || kind == ItemTool {
			if stack.Integrity != integrity {
				continue
			}
		}
		return i
	}
	return -1
}

// inventoryRemoveAt removes the stack at index, compacting the slice to
// preserve declaration order among the survivors.
func (d *Domain) inventoryRemoveAt(index int) {
	if index < 0 || index >= len(d.Inventory) {
		return
	}
	d.Inventory = append(d.Inventory[:index], d.Inventory[index+1:]...)
}

// inventoryAdd merges quantity into an existing matching stack, or appends
// a new one if the inventory has room. Reports whether the delivery was
// applied — false means the inventory is full and the item was lost.
func (d *Domain) inventoryAdd(itemID uint32, kind ItemKind, quantity, integrity fixedpoint.Q16, flags ItemFlags) bool {
	if quantity <= 0 {
		return true
	}
	if kind == ItemMaterial || kind == ItemPart {
		integrity = 0
	}
	if mergeIndex := d.inventoryFindMerge(itemID, kind, integrity); mergeIndex >= 0 {
		d.Inventory[mergeIndex].Quantity = d.Inventory[mergeIndex].Quantity.Add(quantity)
		return true
	}
	capacity := int(d.Surface.InventoryCapacity)
	if capacity > MaxInventory {
		capacity = MaxInventory
	}
	if len(d.Inventory) >= capacity {
		return false
	}
	d.Inventory = append(d.Inventory, ItemStack{
		ItemID:    itemID,
		Kind:      kind,
		Quantity:  quantity,
		Integrity: integrity,
		Flags:     flags,
	})
	return true
}

// toolFind returns the index of the first tool matching toolID whose
// integrity is at least minIntegrity, or -1.
func (d *Domain) toolFind(toolID uint32, minIntegrity fixedpoint.Q16) int {
	for i := range d.Tools {
		tool := &d.Tools[i]
		if tool.ToolID != toolID {
			continue
		}
		if tool.Integrity >= minIntegrity {
			return i
		}
	}
	return -1
}

// conditionsOk reports whether conditions satisfies every requirement
// recipe's flags turn on. A recipe that requires any ambient condition but
// is called with a nil conditions pointer never passes.
func conditionsOk(recipe *RecipeSpec, conditions *Conditions) bool {
	requiresAny := recipe.Flags&(RecipeRequireTemp|RecipeRequireHumidity|RecipeRequireEnvironment) != 0
	if requiresAny && conditions == nil {
		return false
	}
	if recipe.Flags&RecipeRequireTemp != 0 && conditions != nil {
		if conditions.Temperature < recipe.Temperature.Min || conditions.Temperature > recipe.Temperature.Max {
			return false
		}
	}
	if recipe.Flags&RecipeRequireHumidity != 0 && conditions != nil {
		if conditions.Humidity < recipe.Humidity.Min || conditions.Humidity > recipe.Humidity.Max {
			return false
		}
	}
	if recipe.Flags&RecipeRequireEnvironment != 0 && conditions != nil {
		if conditions.EnvironmentID != recipe.EnvironmentID {
			return false
		}
	}
	return true
}

// costForRecipe sums the surface's per-entity cost tiers over one recipe's
// input/output/tool counts.
func costForRecipe(surface *SurfaceDesc, recipe *RecipeSpec) int {
	cost := int(surface.CraftCostBase)
	cost += len(recipe.Inputs) * int(surface.CraftCostPerInput)
	cost += len(recipe.Outputs) * int(surface.CraftCostPerOutput)
	cost += len(recipe.Tools) * int(surface.CraftCostPerTool)
	return cost
}

// applyLoss scales quantity down by loss clamped to [0,1] — used for a
// disassembly recipe's recycle_loss against its output quantities.
func applyLoss(quantity, loss fixedpoint.Q16) fixedpoint.Q16 {
	one := fixedpoint.FromInt(1)
	lossClamped := loss.Clamp(0, one)
	keep := one.Sub(lossClamped)
	return quantity.Mul(keep)
}
