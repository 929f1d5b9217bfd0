package service

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
	"unicode"

	"github.com/bitfantasy/nimo-mes/internal/mes/entity"
	"github.com/bitfantasy/nimo-mes/internal/mes/repository"
	"github.com/google/uuid"
	"github.com/xuri/excelize/v2"
	"gorm.io/gorm"
)

// InventoryService 库存台账：物料事务是唯一写入口，
// 库存行由事务在同一数据库事务内同步维护。
type InventoryService struct {
	invRepo    *repository.InventoryRepository
	masterRepo *repository.MasterRepository
	db         *gorm.DB
}

func NewInventoryService(invRepo *repository.InventoryRepository, masterRepo *repository.MasterRepository, db *gorm.DB) *InventoryService {
	return &InventoryService{invRepo: invRepo, masterRepo: masterRepo, db: db}
}

type CreateTransactionRequest struct {
	TransactionType string  `json:"transaction_type" binding:"required"`
	MaterialID      string  `json:"material_id" binding:"required"`
	WarehouseID     string  `json:"warehouse_id" binding:"required"`
	WorkOrderID     string  `json:"work_order_id"`
	BatchNumber     string  `json:"batch_number"`
	Quantity        float64 `json:"quantity" binding:"required"`
	UnitPrice       float64 `json:"unit_price"`
	FromLocation    string  `json:"from_location"`
	ToLocation      string  `json:"to_location"`
	OperatorID      string  `json:"operator_id"`
	ReferenceNo     string  `json:"reference_no"`
	Notes           string  `json:"notes"`
}

// ApplyTransaction 应用一条物料事务并同步库存行。
// pick/issue 扣减库存，余额不足整单拒绝；receive/return 增加库存，
// 不存在时新建并自动分配库位；adjust/transfer 仅记录流水。
func (s *InventoryService) ApplyTransaction(req CreateTransactionRequest) (*entity.MaterialTransaction, error) {
	var tx *entity.MaterialTransaction
	err := s.db.Transaction(func(dbTx *gorm.DB) error {
		var err error
		tx, err = s.applyTx(dbTx, req)
		return err
	})
	if err != nil {
		return nil, err
	}
	return tx, nil
}

// applyTx 在给定事务内应用物料事务，供领料完成等复合流程复用。
func (s *InventoryService) applyTx(dbTx *gorm.DB, req CreateTransactionRequest) (*entity.MaterialTransaction, error) {
	if !entity.ValidTransactionType(req.TransactionType) {
		return nil, fmt.Errorf("未知事务类型 %s: %w", req.TransactionType, ErrValidation)
	}
	if req.Quantity <= 0 {
		return nil, fmt.Errorf("事务数量必须大于0: %w", ErrValidation)
	}

	switch req.TransactionType {
	case entity.TxTypePick, entity.TxTypeIssue:
		if err := s.deductStock(dbTx, req); err != nil {
			return nil, err
		}
	case entity.TxTypeReceive, entity.TxTypeReturn:
		if err := s.addStock(dbTx, &req); err != nil {
			return nil, err
		}
	case entity.TxTypeAdjust, entity.TxTypeTransfer:
		// 仅记录流水，库存行不动
	}

	tx := &entity.MaterialTransaction{
		ID:              uuid.New().String(),
		TransactionType: req.TransactionType,
		MaterialID:      req.MaterialID,
		WarehouseID:     req.WarehouseID,
		WorkOrderID:     req.WorkOrderID,
		BatchNumber:     req.BatchNumber,
		Quantity:        req.Quantity,
		UnitPrice:       req.UnitPrice,
		FromLocation:    req.FromLocation,
		ToLocation:      req.ToLocation,
		OperatorID:      req.OperatorID,
		ReferenceNo:     req.ReferenceNo,
		Notes:           req.Notes,
		TransactionDate: time.Now(),
	}
	if err := dbTx.Create(tx).Error; err != nil {
		return nil, fmt.Errorf("写入物料事务失败: %w", err)
	}
	return tx, nil
}

// deductStock 扣减库存，行加 FOR UPDATE 锁后校验可用量。
func (s *InventoryService) deductStock(dbTx *gorm.DB, req CreateTransactionRequest) error {
	var inv entity.Inventory
	err := lockForUpdate(dbTx).
		Where("warehouse_id = ? AND material_id = ? AND batch_number = ?",
			req.WarehouseID, req.MaterialID, req.BatchNumber).
		First(&inv).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("库存记录不存在: %w", ErrInsufficientInventory)
		}
		return err
	}
	if inv.AvailableQuantity < req.Quantity {
		return fmt.Errorf("可用库存 %.4f 少于需求 %.4f: %w",
			inv.AvailableQuantity, req.Quantity, ErrInsufficientInventory)
	}
	inv.Quantity -= req.Quantity
	inv.AvailableQuantity -= req.Quantity
	return dbTx.Save(&inv).Error
}

// addStock 入库：存在则累加并回填空库位，不存在则新建并自动分配库位。
func (s *InventoryService) addStock(dbTx *gorm.DB, req *CreateTransactionRequest) error {
	var inv entity.Inventory
	err := lockForUpdate(dbTx).
		Where("warehouse_id = ? AND material_id = ? AND batch_number = ?",
			req.WarehouseID, req.MaterialID, req.BatchNumber).
		First(&inv).Error
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}
		location := req.ToLocation
		if location == "" {
			location, err = s.assignLocation(dbTx, req.WarehouseID, req.MaterialID)
			if err != nil {
				return err
			}
		}
		inv = entity.Inventory{
			ID:                uuid.New().String(),
			WarehouseID:       req.WarehouseID,
			MaterialID:        req.MaterialID,
			BatchNumber:       req.BatchNumber,
			Quantity:          req.Quantity,
			AvailableQuantity: req.Quantity,
			Location:          location,
			UnitPrice:         req.UnitPrice,
		}
		req.ToLocation = location
		return dbTx.Create(&inv).Error
	}

	inv.Quantity += req.Quantity
	inv.AvailableQuantity += req.Quantity
	if inv.Location == "" {
		location := req.ToLocation
		if location == "" {
			location, err = s.assignLocation(dbTx, req.WarehouseID, req.MaterialID)
			if err != nil {
				return err
			}
		}
		inv.Location = location
		req.ToLocation = location
	} else if req.ToLocation == "" {
		req.ToLocation = inv.Location
	}
	return dbTx.Save(&inv).Error
}

// assignLocation 自动分配库位：优先复用同仓同料已有库位，
// 否则按仓库区域首字符生成 <区>-<序号>。
func (s *InventoryService) assignLocation(dbTx *gorm.DB, warehouseID, materialID string) (string, error) {
	var existing entity.Inventory
	err := dbTx.Where("warehouse_id = ? AND material_id = ? AND location <> ''",
		warehouseID, materialID).
		Order("updated_at DESC").First(&existing).Error
	if err == nil {
		return existing.Location, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return "", err
	}

	prefix := "A"
	var warehouse entity.Warehouse
	if err := dbTx.Where("id = ?", warehouseID).First(&warehouse).Error; err == nil {
		if r := []rune(warehouse.Location); len(r) > 0 {
			prefix = string(unicode.ToUpper(r[0]))
		}
	}

	var locations []string
	if err := dbTx.Model(&entity.Inventory{}).
		Where("warehouse_id = ? AND location LIKE ?", warehouseID, prefix+"-%").
		Pluck("location", &locations).Error; err != nil {
		return "", err
	}
	maxSeq := 0
	for _, loc := range locations {
		parts := strings.Split(loc, "-")
		if len(parts) < 2 {
			continue
		}
		if n, err := strconv.Atoi(parts[len(parts)-1]); err == nil && n > maxSeq {
			maxSeq = n
		}
	}
	return fmt.Sprintf("%s-%02d", prefix, maxSeq+1), nil
}

func (s *InventoryService) GetByID(id string) (*entity.Inventory, error) {
	inv, err := s.invRepo.GetByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("库存记录不存在: %w", ErrNotFound)
		}
		return nil, err
	}
	return inv, nil
}

func (s *InventoryService) List(params repository.InventoryListParams) ([]entity.Inventory, int64, error) {
	return s.invRepo.List(params)
}

type UpdateInventoryRequest struct {
	Location  *string  `json:"location"`
	UnitPrice *float64 `json:"unit_price"`
}

// Update 只允许修改库位与单价，数量一律走物料事务。
func (s *InventoryService) Update(id string, req UpdateInventoryRequest) (*entity.Inventory, error) {
	inv, err := s.GetByID(id)
	if err != nil {
		return nil, err
	}
	if req.Location != nil {
		inv.Location = *req.Location
	}
	if req.UnitPrice != nil {
		if *req.UnitPrice < 0 {
			return nil, fmt.Errorf("单价不能为负: %w", ErrValidation)
		}
		inv.UnitPrice = *req.UnitPrice
	}
	if err := s.invRepo.Update(inv); err != nil {
		return nil, fmt.Errorf("更新库存记录失败: %w", err)
	}
	return inv, nil
}

func (s *InventoryService) SummaryByWarehouse() ([]repository.WarehouseSummary, error) {
	return s.invRepo.SummaryByWarehouse()
}

func (s *InventoryService) SummaryByMaterial() ([]repository.MaterialSummary, error) {
	return s.invRepo.SummaryByMaterial()
}

func (s *InventoryService) ListTransactions(params repository.TransactionListParams) ([]entity.MaterialTransaction, int64, error) {
	return s.invRepo.ListTransactions(params)
}

type MaterialReturnRequest struct {
	MaterialID  string  `json:"material_id" binding:"required"`
	WarehouseID string  `json:"warehouse_id" binding:"required"`
	WorkOrderID string  `json:"work_order_id"`
	BatchNumber string  `json:"batch_number"`
	Quantity    float64 `json:"quantity" binding:"required,gt=0"`
	OperatorID  string  `json:"operator_id"`
	Notes       string  `json:"notes"`
}

// Return 车间退料，落为 return 类型事务。
func (s *InventoryService) Return(req MaterialReturnRequest) (*entity.MaterialTransaction, error) {
	return s.ApplyTransaction(CreateTransactionRequest{
		TransactionType: entity.TxTypeReturn,
		MaterialID:      req.MaterialID,
		WarehouseID:     req.WarehouseID,
		WorkOrderID:     req.WorkOrderID,
		BatchNumber:     req.BatchNumber,
		Quantity:        req.Quantity,
		OperatorID:      req.OperatorID,
		Notes:           req.Notes,
	})
}

var inventoryExportHeaders = []string{"仓库", "物料编码", "物料名称", "批次", "库位", "数量", "可用数量", "单价"}

// ExportXLSX 导出当前库存为 xlsx 报表。
func (s *InventoryService) ExportXLSX(params repository.InventoryListParams) (*excelize.File, error) {
	params.Page = 1
	params.Size = 10000
	items, _, err := s.invRepo.List(params)
	if err != nil {
		return nil, err
	}

	f := excelize.NewFile()
	sheet := "库存"
	f.SetSheetName("Sheet1", sheet)
	for i, h := range inventoryExportHeaders {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		f.SetCellValue(sheet, cell, h)
	}
	for row, inv := range items {
		warehouseName := ""
		if inv.Warehouse != nil {
			warehouseName = inv.Warehouse.Name
		}
		materialCode, materialName := "", ""
		if inv.Material != nil {
			materialCode = inv.Material.Code
			materialName = inv.Material.Name
		}
		values := []interface{}{
			warehouseName, materialCode, materialName, inv.BatchNumber,
			inv.Location, inv.Quantity, inv.AvailableQuantity, inv.UnitPrice,
		}
		for col, v := range values {
			cell, _ := excelize.CoordinatesToCellName(col+1, row+2)
			f.SetCellValue(sheet, cell, v)
		}
	}
	return f, nil
}
