package service

import (
	"testing"

	"github.com/bitfantasy/nimo-mes/internal/mes/entity"
)

func TestExplodeBOMItems(t *testing.T) {
	items := []entity.BOMItem{
		{MaterialID: "m1", Quantity: 2, ScrapRate: 0.1},
		{MaterialID: "m2", Quantity: 0.5, ScrapRate: 0},
	}

	got := ExplodeBOMItems(items, 100)
	if len(got) != 2 {
		t.Fatalf("len = %d, want 2", len(got))
	}
	// 2 * 100 * 1.1 = 220
	if got[0].MaterialID != "m1" || got[0].RequiredQuantity != 220.0 {
		t.Errorf("m1 required = %v, want 220.0", got[0].RequiredQuantity)
	}
	if got[1].MaterialID != "m2" || got[1].RequiredQuantity != 50.0 {
		t.Errorf("m2 required = %v, want 50.0", got[1].RequiredQuantity)
	}
}

func TestExplodeBOMItemsZeroQty(t *testing.T) {
	items := []entity.BOMItem{{MaterialID: "m1", Quantity: 3, ScrapRate: 0.2}}
	got := ExplodeBOMItems(items, 0)
	if got[0].RequiredQuantity != 0 {
		t.Errorf("required = %v, want 0", got[0].RequiredQuantity)
	}
}

func TestExplodeRoutingItems(t *testing.T) {
	items := []entity.RoutingItem{
		{OperationID: "op1", Sequence: 10, EquipmentID: "eq1", StandardTime: 5, SetupTime: 30},
		{OperationID: "op2", Sequence: 20, StandardTime: 2},
	}

	got := ExplodeRoutingItems(items)
	if len(got) != 2 {
		t.Fatalf("len = %d, want 2", len(got))
	}
	if got[0].OperationID != "op1" || got[0].Sequence != 10 || got[0].EquipmentID != "eq1" ||
		got[0].StandardTime != 5 || got[0].SetupTime != 30 {
		t.Errorf("unexpected first template: %+v", got[0])
	}
	if got[1].OperationID != "op2" || got[1].Sequence != 20 || got[1].EquipmentID != "" {
		t.Errorf("unexpected second template: %+v", got[1])
	}
}
