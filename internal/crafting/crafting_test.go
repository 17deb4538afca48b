package crafting

import (
	"testing"

	"github.com/domino-sim/domino/internal/domain"
	"github.com/domino-sim/domino/internal/fixedpoint"
)

func smeltingRecipeDesc() SurfaceDesc {
	desc := DefaultSurfaceDesc()
	desc.Recipes = []RecipeSpec{
		{
			RecipeID: 1,
			Inputs:   []ItemReq{{ItemID: 10, Kind: ItemMaterial, Quantity: fixedpoint.FromInt(2)}},
			Outputs:  []ItemReq{{ItemID: 20, Kind: ItemPart, Quantity: fixedpoint.FromInt(1)}},
		},
	}
	return desc
}

func withOre(d *Domain, quantity int32) {
	d.Inventory = append(d.Inventory, ItemStack{ItemID: 10, Kind: ItemMaterial, Quantity: fixedpoint.FromInt(quantity)})
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

func TestExecuteRefusesInactiveDomain(t *testing.T) {
	var d Domain
	d.Init(smeltingRecipeDesc())
	d.SetState(domain.ExistenceDeclared, domain.ArchivalLive)
	withOre(&d, 5)
	b := domain.NewBudget(1000)
	result := d.Execute(0, nil, 1, &b)
	if result.Ok {
		t.Fatalf("expected refusal on inactive domain")
	}
	if result.RefusalReason != domain.RefuseDomainInactive {
		t.Fatalf("expected domain-inactive refusal, got %v", result.RefusalReason)
	}
}

func TestExecuteRefusesWhenLawBlocksCrafting(t *testing.T) {
	desc := smeltingRecipeDesc()
	desc.LawAllowCrafting = false
	var d Domain
	d.Init(desc)
	withOre(&d, 5)
	b := domain.NewBudget(1000)
	result := d.Execute(0, nil, 1, &b)
	if result.Flags&ResultLawBlock == 0 {
		t.Fatalf("expected ResultLawBlock, got %v", result.Flags)
	}
	if result.RefusalReason != domain.RefusePolicy {
		t.Fatalf("expected policy refusal, got %v", result.RefusalReason)
	}
}

func TestExecuteRefusesMissingInput(t *testing.T) {
	var d Domain
	d.Init(smeltingRecipeDesc())
	b := domain.NewBudget(1000)
	result := d.Execute(0, nil, 1, &b)
	if result.Ok {
		t.Fatalf("expected refusal with no ore in inventory")
	}
	if result.InputsConsumed != 0 {
		t.Fatalf("expected no inputs consumed on refusal, got %d", result.InputsConsumed)
	}
}

func TestExecuteConsumesInputsAndProducesOutput(t *testing.T) {
	var d Domain
	d.Init(smeltingRecipeDesc())
	withOre(&d, 5)
	b := domain.NewBudget(1000)
	result := d.Execute(0, nil, 1, &b)
	if !result.Ok {
		t.Fatalf("expected execute to succeed, got refusal %v", result.RefusalReason)
	}
	if result.InputsConsumed != 1 {
		t.Fatalf("expected one input line consumed, got %d", result.InputsConsumed)
	}
	if result.OutputsProduced != 1 {
		t.Fatalf("expected one output line produced, got %d", result.OutputsProduced)
	}
	if d.Inventory[0].Quantity != fixedpoint.FromInt(3) {
		t.Fatalf("expected remaining ore of 3, got %v", d.Inventory[0].Quantity)
	}
	found := false
	for i := range d.Inventory {
		if d.Inventory[i].ItemID == 20 {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected crafted part in inventory")
	}
}

func TestExecuteRemovesDepletedStack(t *testing.T) {
	var d Domain
	d.Init(smeltingRecipeDesc())
	withOre(&d, 2)
	b := domain.NewBudget(1000)
	result := d.Execute(0, nil, 1, &b)
	if !result.Ok {
		t.Fatalf("expected execute to succeed")
	}
	for i := range d.Inventory {
		if d.Inventory[i].ItemID == 10 {
			t.Fatalf("expected depleted ore stack to be removed")
		}
	}
}

func TestExecuteFailureModeRefuseBlocksWithoutConditions(t *testing.T) {
	desc := smeltingRecipeDesc()
	desc.Recipes[0].Flags = RecipeRequireTemp
	desc.Recipes[0].Temperature = ConditionRange{Min: fixedpoint.FromInt(10), Max: fixedpoint.FromInt(20)}
	desc.Recipes[0].FailureMode = FailureRefuse
	var d Domain
	d.Init(desc)
	withOre(&d, 5)
	b := domain.NewBudget(1000)
	result := d.Execute(0, nil, 1, &b)
	if result.Ok {
		t.Fatalf("expected refusal when required conditions aren't supplied")
	}
	if result.InputsConsumed != 0 {
		t.Fatalf("expected no inputs consumed on a FailureRefuse recipe, got %d", result.InputsConsumed)
	}
}

func TestExecuteFailureModeWasteConsumesWithoutOutput(t *testing.T) {
	desc := smeltingRecipeDesc()
	desc.Recipes[0].Flags = RecipeRequireTemp
	desc.Recipes[0].Temperature = ConditionRange{Min: fixedpoint.FromInt(10), Max: fixedpoint.FromInt(20)}
	desc.Recipes[0].FailureMode = FailureWaste
	var d Domain
	d.Init(desc)
	withOre(&d, 5)
	b := domain.NewBudget(1000)
	result := d.Execute(0, nil, 1, &b)
	if !result.Ok {
		t.Fatalf("expected FailureWaste to still report ok, got refusal %v", result.RefusalReason)
	}
	if result.Flags&ResultWaste == 0 {
		t.Fatalf("expected ResultWaste flag, got %v", result.Flags)
	}
	if result.OutputsProduced != 0 {
		t.Fatalf("expected no outputs on a wasted craft, got %d", result.OutputsProduced)
	}
	if result.InputsConsumed != 1 {
		t.Fatalf("expected inputs still consumed on waste, got %d", result.InputsConsumed)
	}
}

func TestExecuteDisassemblyAppliesRecycleLoss(t *testing.T) {
	desc := DefaultSurfaceDesc()
	desc.Recipes = []RecipeSpec{
		{
			RecipeID:    1,
			Flags:       RecipeDisassembly,
			Inputs:      []ItemReq{{ItemID: 20, Kind: ItemPart, Quantity: fixedpoint.FromInt(1)}},
			Outputs:     []ItemReq{{ItemID: 10, Kind: ItemMaterial, Quantity: fixedpoint.FromInt(10)}},
			RecycleLoss: fixedpoint.FromFloat64(0.5),
		},
	}
	var d Domain
	d.Init(desc)
	d.Inventory = append(d.Inventory, ItemStack{ItemID: 20, Kind: ItemPart, Quantity: fixedpoint.FromInt(1)})
	b := domain.NewBudget(1000)
	result := d.Execute(0, nil, 1, &b)
	if !result.Ok {
		t.Fatalf("expected disassembly to succeed, got refusal %v", result.RefusalReason)
	}
	if result.Flags&ResultDisassembly == 0 {
		t.Fatalf("expected ResultDisassembly flag, got %v", result.Flags)
	}
	var recovered fixedpoint.Q16
	for i := range d.Inventory {
		if d.Inventory[i].ItemID == 10 {
			recovered = d.Inventory[i].Quantity
		}
	}
	if recovered != fixedpoint.FromInt(5) {
		t.Fatalf("expected half recovered after 0.5 recycle loss, got %v", recovered)
	}
}

func TestExecuteDamagesToolOnWear(t *testing.T) {
	desc := smeltingRecipeDesc()
	desc.Recipes[0].Tools = []ToolRequirement{{ToolID: 99, MinIntegrity: 0}}
	desc.Recipes[0].ToolWear = fixedpoint.FromFloat64(0.1)
	var d Domain
	d.Init(desc)
	withOre(&d, 5)
	d.Tools = append(d.Tools, ToolInstance{ToolID: 99, Integrity: fixedpoint.FromInt(1)})
	b := domain.NewBudget(1000)
	result := d.Execute(0, nil, 1, &b)
	if !result.Ok {
		t.Fatalf("expected execute to succeed, got refusal %v", result.RefusalReason)
	}
	if result.ToolDamage != 1 {
		t.Fatalf("expected one tool damaged, got %d", result.ToolDamage)
	}
	if d.Tools[0].Integrity >= fixedpoint.FromInt(1) || d.Tools[0].Integrity <= 0 {
		t.Fatalf("expected tool integrity reduced by wear but still positive, got %v", d.Tools[0].Integrity)
	}
}

func TestExecuteRefusesMissingTool(t *testing.T) {
	desc := smeltingRecipeDesc()
	desc.Recipes[0].Tools = []ToolRequirement{{ToolID: 99, MinIntegrity: fixedpoint.FromInt(1)}}
	desc.Recipes[0].FailureMode = FailureRefuse
	var d Domain
	d.Init(desc)
	withOre(&d, 5)
	b := domain.NewBudget(1000)
	result := d.Execute(0, nil, 1, &b)
	if result.Ok {
		t.Fatalf("expected refusal without the required tool")
	}
}

func TestExecuteRefusesUnknownRecipeIndex(t *testing.T) {
	var d Domain
	d.Init(smeltingRecipeDesc())
	b := domain.NewBudget(1000)
	result := d.Execute(5, nil, 1, &b)
	if result.RefusalReason != domain.RefuseInternal {
		t.Fatalf("expected internal refusal for an out-of-range recipe index, got %v", result.RefusalReason)
	}
}

// TestExecuteIDsIndependentOfTick runs the same recipe against two
// identically built domains at different ticks and checks that both report
// the same process/event ids — the ids are a pure hash of fixed name
// strings, with no tick mixed in.
func TestExecuteIDsIndependentOfTick(t *testing.T) {
	var d1, d2 Domain
	d1.Init(smeltingRecipeDesc())
	d2.Init(smeltingRecipeDesc())
	withOre(&d1, 5)
	withOre(&d2, 5)

	b1 := domain.NewBudget(1000)
	b2 := domain.NewBudget(1000)
	r1 := d1.Execute(0, nil, 1, &b1)
	r2 := d2.Execute(0, nil, 7, &b2)

	if r1.ProcessID != r2.ProcessID || r1.EventID != r2.EventID {
		t.Fatalf("expected process/event ids independent of tick, got %+v vs %+v", r1, r2)
	}
}
