package crafting

import (
	"github.com/domino-sim/domino/internal/domain"
	"github.com/domino-sim/domino/internal/rng"
)

// Execute runs one recipe atomically: it refuses outright if the domain is
// inactive, law/metalaw forbid crafting, a required input is missing, or
// the budget can't cover the recipe's cost — none of those refusals touch
// the inventory. Once past them, inputs are always consumed; if
// conditions or tools aren't satisfied, the recipe's failure_mode decides
// whether that refuses (FailureRefuse, checked before any consumption),
// wastes the inputs with no output (FailureWaste), or wastes them and
// additionally damages tools (FailureDamage). A successful, non-failed run
// produces every output (loss-adjusted first when the recipe is a
// disassembly) and every byproduct, then applies tool wear.
func (d *Domain) Execute(recipeIndex uint32, conditions *Conditions, tick uint64, budget *domain.Budget) ExecuteResult {
	var result ExecuteResult

	if recipeIndex >= uint32(len(d.Surface.Recipes)) {
		result.RefusalReason = domain.RefuseInternal
		return result
	}
	if !d.isActive() {
		result.RefusalReason = domain.RefuseDomainInactive
		return result
	}
	if !d.Surface.LawAllowCrafting {
		result.Flags |= ResultLawBlock
		result.RefusalReason = domain.RefusePolicy
		return result
	}
	if !d.Surface.MetalawAllowCrafting {
		result.Flags |= ResultMetalawBlock
		result.RefusalReason = domain.RefusePolicy
		return result
	}

	recipe := &d.Surface.Recipes[recipeIndex]
	conditionsMet := conditionsOk(recipe, conditions)
	toolsMet := true
	for i := range recipe.Tools {
		req := &recipe.Tools[i]
		if d.toolFind(req.ToolID, req.MinIntegrity) < 0 {
			toolsMet = false
			break
		}
	}

	allowFailure := false
	if !conditionsMet || !toolsMet {
		if recipe.FailureMode == FailureRefuse {
			result.RefusalReason = domain.RefusePolicy
			return result
		}
		allowFailure = true
	}

	for i := range recipe.Inputs {
		req := &recipe.Inputs[i]
		if d.inventoryFind(req.ItemID, req.Kind, req.Quantity) < 0 {
			result.RefusalReason = domain.RefusePolicy
			return result
		}
	}

	cost := costForRecipe(&d.Surface, recipe)
	if !budget.Consume(cost) {
		result.RefusalReason = domain.RefuseBudget
		return result
	}

	processID := rng.HashStr32("process.craft.execute")
	eventName := "event.craft.execute"
	if recipe.Flags&RecipeDisassembly != 0 {
		eventName = "event.craft.disassemble"
	}
	eventID := rng.HashStr32(eventName)

	// Everything below commits all-or-nothing: an internal refusal restores
	// the inventory as it was before any input was consumed.
	savedInventory := append([]ItemStack(nil), d.Inventory...)
	rollback := func() ExecuteResult {
		d.Inventory = savedInventory
		return ExecuteResult{RefusalReason: domain.RefuseInternal}
	}

	for i := range recipe.Inputs {
		req := &recipe.Inputs[i]
		idx := d.inventoryFind(req.ItemID, req.Kind, req.Quantity)
		if idx < 0 {
			return rollback()
		}
		stack := &d.Inventory[idx]
		stack.Quantity = stack.Quantity.Sub(req.Quantity)
		if stack.Quantity <= 0 {
			d.inventoryRemoveAt(idx)
		}
		result.InputsConsumed++
	}

	if allowFailure {
		result.Flags |= ResultFailure
		if recipe.FailureMode == FailureWaste || recipe.FailureMode == FailureDamage {
			result.Flags |= ResultWaste
		}
	}

	if !allowFailure {
		for i := range recipe.Outputs {
			out := &recipe.Outputs[i]
			quantity := out.Quantity
			integrity := recipe.OutputIntegrity
			if recipe.Flags&RecipeDisassembly != 0 {
				quantity = applyLoss(quantity, recipe.RecycleLoss)
			}
			if quantity <= 0 {
				continue
			}
			flags := ItemFlags(0)
			if out.Kind == ItemAssembly || out.Kind == ItemTool {
				flags = ItemDamageable
			}
			if !d.inventoryAdd(out.ItemID, out.Kind, quantity, integrity, flags) {
				return rollback()
			}
			result.OutputsProduced++
		}
	}

	for i := range recipe.Byproducts {
		byp := &recipe.Byproducts[i]
		if byp.Quantity <= 0 {
			continue
		}
		if !d.inventoryAdd(byp.ItemID, byp.Kind, byp.Quantity, 0, 0) {
			return rollback()
		}
		result.ByproductsProduced++
	}

	if !allowFailure || recipe.FailureMode == FailureDamage {
		for i := range recipe.Tools {
			req := &recipe.Tools[i]
			tindex := d.toolFind(req.ToolID, req.MinIntegrity)
			if tindex < 0 {
				continue
			}
			tool := &d.Tools[tindex]
			if recipe.ToolWear > 0 {
				tool.Integrity = tool.Integrity.Sub(recipe.ToolWear)
				if tool.Integrity < 0 {
					tool.Integrity = 0
				}
				result.ToolDamage++
				result.Flags |= ResultToolDamage
			}
		}
	}

	result.Ok = true
	result.RecipeID = recipe.RecipeID
	result.InventoryCount = uint32(len(d.Inventory))
	result.ToolCount = uint32(len(d.Tools))
	result.ProcessID = processID
	result.EventID = eventID
	if recipe.Flags&RecipeDisassembly != 0 {
		result.Flags |= ResultDisassembly
	}
	_ = tick
	return result
}
