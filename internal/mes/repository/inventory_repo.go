package repository

import (
	"github.com/bitfantasy/nimo-mes/internal/mes/entity"
	"gorm.io/gorm"
)

// InventoryRepository 库存/物料事务仓库
type InventoryRepository struct {
	db *gorm.DB
}

func NewInventoryRepository(db *gorm.DB) *InventoryRepository {
	return &InventoryRepository{db: db}
}

func (r *InventoryRepository) GetByID(id string) (*entity.Inventory, error) {
	var inv entity.Inventory
	err := r.db.Preload("Warehouse").Preload("Material").Where("id = ?", id).First(&inv).Error
	return &inv, err
}

func (r *InventoryRepository) Update(inv *entity.Inventory) error {
	return r.db.Save(inv).Error
}

type InventoryListParams struct {
	WarehouseID string
	MaterialID  string
	BatchNumber string
	Location    string
	Page        int
	Size        int
}

func (r *InventoryRepository) List(params InventoryListParams) ([]entity.Inventory, int64, error) {
	query := r.db.Model(&entity.Inventory{})
	if params.WarehouseID != "" {
		query = query.Where("warehouse_id = ?", params.WarehouseID)
	}
	if params.MaterialID != "" {
		query = query.Where("material_id = ?", params.MaterialID)
	}
	if params.BatchNumber != "" {
		query = query.Where("batch_number = ?", params.BatchNumber)
	}
	if params.Location != "" {
		query = query.Where("location ILIKE ?", "%"+params.Location+"%")
	}
	var total int64
	query.Count(&total)
	if params.Page <= 0 {
		params.Page = 1
	}
	if params.Size <= 0 {
		params.Size = 20
	}
	var items []entity.Inventory
	err := query.Preload("Warehouse").Preload("Material").Order("updated_at DESC").
		Offset((params.Page - 1) * params.Size).Limit(params.Size).Find(&items).Error
	return items, total, err
}

// WarehouseSummary 按仓库汇总
type WarehouseSummary struct {
	WarehouseID   string  `json:"warehouse_id"`
	WarehouseName string  `json:"warehouse_name"`
	ItemCount     int64   `json:"item_count"`
	TotalQuantity float64 `json:"total_quantity"`
}

func (r *InventoryRepository) SummaryByWarehouse() ([]WarehouseSummary, error) {
	var rows []WarehouseSummary
	err := r.db.Raw(`
		SELECT i.warehouse_id, w.name AS warehouse_name,
		       COUNT(i.id) AS item_count,
		       COALESCE(SUM(i.quantity), 0) AS total_quantity
		FROM mes_inventory i
		JOIN mes_warehouses w ON w.id = i.warehouse_id
		GROUP BY i.warehouse_id, w.name
	`).Scan(&rows).Error
	return rows, err
}

// MaterialSummary 按物料汇总
type MaterialSummary struct {
	MaterialID     string  `json:"material_id"`
	MaterialCode   string  `json:"material_code"`
	MaterialName   string  `json:"material_name"`
	TotalQuantity  float64 `json:"total_quantity"`
	TotalAvailable float64 `json:"total_available"`
}

func (r *InventoryRepository) SummaryByMaterial() ([]MaterialSummary, error) {
	var rows []MaterialSummary
	err := r.db.Raw(`
		SELECT i.material_id, m.code AS material_code, m.name AS material_name,
		       COALESCE(SUM(i.quantity), 0) AS total_quantity,
		       COALESCE(SUM(i.available_quantity), 0) AS total_available
		FROM mes_inventory i
		JOIN mes_materials m ON m.id = i.material_id
		GROUP BY i.material_id, m.code, m.name
	`).Scan(&rows).Error
	return rows, err
}

type TransactionListParams struct {
	MaterialID      string
	WarehouseID     string
	WorkOrderID     string
	TransactionType string
	Page            int
	Size            int
}

func (r *InventoryRepository) ListTransactions(params TransactionListParams) ([]entity.MaterialTransaction, int64, error) {
	query := r.db.Model(&entity.MaterialTransaction{})
	if params.MaterialID != "" {
		query = query.Where("material_id = ?", params.MaterialID)
	}
	if params.WarehouseID != "" {
		query = query.Where("warehouse_id = ?", params.WarehouseID)
	}
	if params.WorkOrderID != "" {
		query = query.Where("work_order_id = ?", params.WorkOrderID)
	}
	if params.TransactionType != "" {
		query = query.Where("transaction_type = ?", params.TransactionType)
	}
	var total int64
	query.Count(&total)
	if params.Page <= 0 {
		params.Page = 1
	}
	if params.Size <= 0 {
		params.Size = 20
	}
	var txs []entity.MaterialTransaction
	err := query.Order("transaction_date DESC").Offset((params.Page - 1) * params.Size).Limit(params.Size).Find(&txs).Error
	return txs, total, err
}

// DB 返回底层db用于事务
func (r *InventoryRepository) DB() *gorm.DB {
	return r.db
}
