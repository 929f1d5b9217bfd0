package service

import (
	"errors"
	"testing"

	"github.com/bitfantasy/nimo-mes/internal/mes/entity"
	"github.com/bitfantasy/nimo-mes/internal/mes/repository"
	"github.com/bitfantasy/nimo-mes/internal/mes/testutil"
	"gorm.io/gorm"
)

func setupInventoryService(t *testing.T) (*InventoryService, *gorm.DB) {
	t.Helper()
	db := testutil.SetupTestDB(t)
	repos := repository.NewRepositories(db)
	return NewInventoryService(repos.Inventory, repos.Master, db), db
}

func TestApplyTransactionReceiveCreatesRow(t *testing.T) {
	svc, db := setupInventoryService(t)
	wh := testutil.SeedWarehouse(t, db, "WH01", "原料仓", "B区一层")
	mat := testutil.SeedMaterial(t, db, "M001", "钢板", entity.MaterialTypeRaw)

	tx, err := svc.ApplyTransaction(CreateTransactionRequest{
		TransactionType: entity.TxTypeReceive,
		MaterialID:      mat.ID,
		WarehouseID:     wh.ID,
		BatchNumber:     "B20240601",
		Quantity:        100,
	})
	if err != nil {
		t.Fatalf("receive failed: %v", err)
	}
	if tx.TransactionType != entity.TxTypeReceive {
		t.Errorf("tx type = %s", tx.TransactionType)
	}

	var inv entity.Inventory
	if err := db.Where("warehouse_id = ? AND material_id = ? AND batch_number = ?",
		wh.ID, mat.ID, "B20240601").First(&inv).Error; err != nil {
		t.Fatalf("inventory row not created: %v", err)
	}
	if inv.Quantity != 100 || inv.AvailableQuantity != 100 {
		t.Errorf("quantity = %v/%v, want 100/100", inv.Quantity, inv.AvailableQuantity)
	}
	// 仓库区域 "B区一层" -> 首字符B -> B-01
	if inv.Location != "B-01" {
		t.Errorf("location = %s, want B-01", inv.Location)
	}
}

func TestApplyTransactionReceiveIncrementsSameRow(t *testing.T) {
	svc, db := setupInventoryService(t)
	wh := testutil.SeedWarehouse(t, db, "WH01", "原料仓", "A区")
	mat := testutil.SeedMaterial(t, db, "M001", "钢板", entity.MaterialTypeRaw)

	for i := 0; i < 2; i++ {
		if _, err := svc.ApplyTransaction(CreateTransactionRequest{
			TransactionType: entity.TxTypeReceive,
			MaterialID:      mat.ID,
			WarehouseID:     wh.ID,
			BatchNumber:     "B01",
			Quantity:        50,
		}); err != nil {
			t.Fatalf("receive %d failed: %v", i, err)
		}
	}

	var count int64
	db.Model(&entity.Inventory{}).Count(&count)
	if count != 1 {
		t.Fatalf("inventory rows = %d, want 1", count)
	}
	var inv entity.Inventory
	db.First(&inv)
	if inv.Quantity != 100 || inv.AvailableQuantity != 100 {
		t.Errorf("quantity = %v/%v, want 100/100", inv.Quantity, inv.AvailableQuantity)
	}
}

func TestAssignLocationSequenceAndReuse(t *testing.T) {
	svc, db := setupInventoryService(t)
	wh := testutil.SeedWarehouse(t, db, "WH01", "原料仓", "B区一层")
	mat1 := testutil.SeedMaterial(t, db, "M001", "钢板", entity.MaterialTypeRaw)
	mat2 := testutil.SeedMaterial(t, db, "M002", "铜线", entity.MaterialTypeRaw)

	receive := func(materialID, batch string) entity.Inventory {
		t.Helper()
		if _, err := svc.ApplyTransaction(CreateTransactionRequest{
			TransactionType: entity.TxTypeReceive,
			MaterialID:      materialID,
			WarehouseID:     wh.ID,
			BatchNumber:     batch,
			Quantity:        10,
		}); err != nil {
			t.Fatalf("receive failed: %v", err)
		}
		var inv entity.Inventory
		if err := db.Where("material_id = ? AND batch_number = ?", materialID, batch).
			First(&inv).Error; err != nil {
			t.Fatalf("inventory not found: %v", err)
		}
		return inv
	}

	first := receive(mat1.ID, "B01")
	if first.Location != "B-01" {
		t.Errorf("first location = %s, want B-01", first.Location)
	}
	second := receive(mat2.ID, "B01")
	if second.Location != "B-02" {
		t.Errorf("second location = %s, want B-02", second.Location)
	}
	// 同仓同料的新批次复用已有库位
	third := receive(mat1.ID, "B02")
	if third.Location != "B-01" {
		t.Errorf("same-material location = %s, want reuse B-01", third.Location)
	}
}

func TestApplyTransactionPickGuard(t *testing.T) {
	svc, db := setupInventoryService(t)
	wh := testutil.SeedWarehouse(t, db, "WH01", "原料仓", "A区")
	mat := testutil.SeedMaterial(t, db, "M001", "钢板", entity.MaterialTypeRaw)

	if _, err := svc.ApplyTransaction(CreateTransactionRequest{
		TransactionType: entity.TxTypeReceive,
		MaterialID:      mat.ID,
		WarehouseID:     wh.ID,
		BatchNumber:     "B01",
		Quantity:        30,
	}); err != nil {
		t.Fatalf("receive failed: %v", err)
	}

	// 超量领用被拒绝，库存不变
	_, err := svc.ApplyTransaction(CreateTransactionRequest{
		TransactionType: entity.TxTypePick,
		MaterialID:      mat.ID,
		WarehouseID:     wh.ID,
		BatchNumber:     "B01",
		Quantity:        50,
	})
	if !errors.Is(err, ErrInsufficientInventory) {
		t.Fatalf("err = %v, want ErrInsufficientInventory", err)
	}
	var inv entity.Inventory
	db.First(&inv)
	if inv.AvailableQuantity != 30 {
		t.Errorf("available after rejected pick = %v, want 30", inv.AvailableQuantity)
	}

	// 正常领用扣减
	if _, err := svc.ApplyTransaction(CreateTransactionRequest{
		TransactionType: entity.TxTypePick,
		MaterialID:      mat.ID,
		WarehouseID:     wh.ID,
		BatchNumber:     "B01",
		Quantity:        20,
	}); err != nil {
		t.Fatalf("pick failed: %v", err)
	}
	db.First(&inv)
	if inv.Quantity != 10 || inv.AvailableQuantity != 10 {
		t.Errorf("after pick = %v/%v, want 10/10", inv.Quantity, inv.AvailableQuantity)
	}
}

func TestApplyTransactionPickMissingRow(t *testing.T) {
	svc, db := setupInventoryService(t)
	wh := testutil.SeedWarehouse(t, db, "WH01", "原料仓", "A区")
	mat := testutil.SeedMaterial(t, db, "M001", "钢板", entity.MaterialTypeRaw)

	_, err := svc.ApplyTransaction(CreateTransactionRequest{
		TransactionType: entity.TxTypePick,
		MaterialID:      mat.ID,
		WarehouseID:     wh.ID,
		BatchNumber:     "NOPE",
		Quantity:        1,
	})
	if !errors.Is(err, ErrInsufficientInventory) {
		t.Fatalf("err = %v, want ErrInsufficientInventory", err)
	}
}

func TestApplyTransactionValidation(t *testing.T) {
	svc, _ := setupInventoryService(t)

	if _, err := svc.ApplyTransaction(CreateTransactionRequest{
		TransactionType: "teleport",
		MaterialID:      "m", WarehouseID: "w", Quantity: 1,
	}); !errors.Is(err, ErrValidation) {
		t.Errorf("unknown type err = %v, want ErrValidation", err)
	}

	if _, err := svc.ApplyTransaction(CreateTransactionRequest{
		TransactionType: entity.TxTypeReceive,
		MaterialID:      "m", WarehouseID: "w", Quantity: 0,
	}); !errors.Is(err, ErrValidation) {
		t.Errorf("zero quantity err = %v, want ErrValidation", err)
	}
}

func TestApplyTransactionAdjustRecordsOnly(t *testing.T) {
	svc, db := setupInventoryService(t)
	wh := testutil.SeedWarehouse(t, db, "WH01", "原料仓", "A区")
	mat := testutil.SeedMaterial(t, db, "M001", "钢板", entity.MaterialTypeRaw)

	if _, err := svc.ApplyTransaction(CreateTransactionRequest{
		TransactionType: entity.TxTypeAdjust,
		MaterialID:      mat.ID,
		WarehouseID:     wh.ID,
		Quantity:        5,
	}); err != nil {
		t.Fatalf("adjust failed: %v", err)
	}

	var invCount, txCount int64
	db.Model(&entity.Inventory{}).Count(&invCount)
	db.Model(&entity.MaterialTransaction{}).Count(&txCount)
	if invCount != 0 {
		t.Errorf("adjust should not touch inventory rows, got %d", invCount)
	}
	if txCount != 1 {
		t.Errorf("transaction rows = %d, want 1", txCount)
	}
}

func TestMaterialReturn(t *testing.T) {
	svc, db := setupInventoryService(t)
	wh := testutil.SeedWarehouse(t, db, "WH01", "原料仓", "A区")
	mat := testutil.SeedMaterial(t, db, "M001", "钢板", entity.MaterialTypeRaw)

	if _, err := svc.Return(MaterialReturnRequest{
		MaterialID:  mat.ID,
		WarehouseID: wh.ID,
		BatchNumber: "B01",
		Quantity:    15,
	}); err != nil {
		t.Fatalf("return failed: %v", err)
	}

	var inv entity.Inventory
	if err := db.First(&inv).Error; err != nil {
		t.Fatalf("inventory not created by return: %v", err)
	}
	if inv.Quantity != 15 || inv.AvailableQuantity != 15 {
		t.Errorf("after return = %v/%v, want 15/15", inv.Quantity, inv.AvailableQuantity)
	}
}
