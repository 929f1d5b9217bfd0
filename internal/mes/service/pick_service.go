package service

import (
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/bitfantasy/nimo-mes/internal/mes/entity"
	"github.com/bitfantasy/nimo-mes/internal/mes/repository"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// PickService 领料单：draft -> confirmed -> completed (+cancelled)。
// 完成时逐条明细走库存事务扣减，任一明细不足整单回滚。
type PickService struct {
	pickRepo     *repository.PickRepository
	woRepo       *repository.WorkOrderRepository
	templateRepo *repository.TemplateRepository
	inventory    *InventoryService
	db           *gorm.DB
}

func NewPickService(pickRepo *repository.PickRepository, woRepo *repository.WorkOrderRepository,
	templateRepo *repository.TemplateRepository, inventory *InventoryService, db *gorm.DB) *PickService {
	return &PickService{
		pickRepo:     pickRepo,
		woRepo:       woRepo,
		templateRepo: templateRepo,
		inventory:    inventory,
		db:           db,
	}
}

type CreatePickItemRequest struct {
	MaterialID       string  `json:"material_id" binding:"required"`
	BatchNumber      string  `json:"batch_number"`
	RequiredQuantity float64 `json:"required_quantity" binding:"required,gt=0"`
	Notes            string  `json:"notes"`
}

type CreatePickRequest struct {
	WorkOrderID string                  `json:"work_order_id"`
	WarehouseID string                  `json:"warehouse_id" binding:"required"`
	RequesterID string                  `json:"requester_id"`
	Notes       string                  `json:"notes"`
	Items       []CreatePickItemRequest `json:"items" binding:"required,min=1,dive"`
}

// Create 手工创建领料单
func (s *PickService) Create(req CreatePickRequest) (*entity.MaterialPick, error) {
	codeBase := time.Now().Format("20060102")
	if req.WorkOrderID != "" {
		wo, err := s.woRepo.GetByID(req.WorkOrderID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, fmt.Errorf("工单不存在: %w", ErrNotFound)
			}
			return nil, err
		}
		codeBase = wo.Code
	}

	items := make([]entity.MaterialPickItem, 0, len(req.Items))
	for _, item := range req.Items {
		items = append(items, entity.MaterialPickItem{
			ID:               uuid.New().String(),
			MaterialID:       item.MaterialID,
			BatchNumber:      item.BatchNumber,
			RequiredQuantity: item.RequiredQuantity,
			Notes:            item.Notes,
		})
	}
	return s.createWithCode(codeBase, entity.PickTypeNormal, req.WorkOrderID, req.WarehouseID,
		req.RequesterID, req.Notes, items)
}

type CreateBOMPickRequest struct {
	WorkOrderID string `json:"work_order_id" binding:"required"`
	WarehouseID string `json:"warehouse_id" binding:"required"`
	RequesterID string `json:"requester_id"`
	Notes       string `json:"notes"`
}

// CreateFromBOM 按工单BOM展开生成领料单，
// 需求数量 = BOM用量 × 工单计划数量 × (1 + 损耗率)。
func (s *PickService) CreateFromBOM(req CreateBOMPickRequest) (*entity.MaterialPick, error) {
	wo, err := s.woRepo.GetByID(req.WorkOrderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("工单不存在: %w", ErrNotFound)
		}
		return nil, err
	}
	if wo.BOMID == "" {
		return nil, fmt.Errorf("工单 %s 未关联BOM: %w", wo.Code, ErrValidation)
	}
	bom, err := s.templateRepo.GetBOM(wo.BOMID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("BOM不存在: %w", ErrNotFound)
		}
		return nil, err
	}
	if len(bom.Items) == 0 {
		return nil, fmt.Errorf("BOM %s 没有明细: %w", bom.Code, ErrNotFound)
	}

	required := ExplodeBOMItems(bom.Items, wo.PlannedQuantity)
	items := make([]entity.MaterialPickItem, 0, len(required))
	for _, rm := range required {
		items = append(items, entity.MaterialPickItem{
			ID:               uuid.New().String(),
			MaterialID:       rm.MaterialID,
			RequiredQuantity: rm.RequiredQuantity,
		})
	}
	return s.createWithCode(wo.Code, entity.PickTypeBOM, wo.ID, req.WarehouseID,
		req.RequesterID, req.Notes, items)
}

// createWithCode 生成 PICK-<基码>-<4位随机数> 单号并落库，撞号重试。
func (s *PickService) createWithCode(codeBase, pickType, workOrderID, warehouseID,
	requesterID, notes string, items []entity.MaterialPickItem) (*entity.MaterialPick, error) {
	const maxAttempts = 3
	var lastErr error
	for attempt := 0; attempt < maxAttempts; attempt++ {
		pick := &entity.MaterialPick{
			ID:          uuid.New().String(),
			Code:        fmt.Sprintf("PICK-%s-%04d", codeBase, 1000+rand.Intn(9000)),
			WorkOrderID: workOrderID,
			WarehouseID: warehouseID,
			PickType:    pickType,
			Status:      entity.PickStatusDraft,
			RequesterID: requesterID,
			RequestDate: time.Now(),
			Notes:       notes,
		}
		pick.Items = make([]entity.MaterialPickItem, len(items))
		copy(pick.Items, items)
		for i := range pick.Items {
			pick.Items[i].ID = uuid.New().String()
			pick.Items[i].PickID = pick.ID
		}

		err := s.pickRepo.Create(pick)
		if err == nil {
			return pick, nil
		}
		if !errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, fmt.Errorf("创建领料单失败: %w", err)
		}
		lastErr = err
	}
	return nil, fmt.Errorf("领料单号生成冲突，已重试%d次: %w", maxAttempts, lastErr)
}

func (s *PickService) GetByID(id string) (*entity.MaterialPick, error) {
	pick, err := s.pickRepo.GetByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("领料单不存在: %w", ErrNotFound)
		}
		return nil, err
	}
	return pick, nil
}

func (s *PickService) List(params repository.PickListParams) ([]entity.MaterialPick, int64, error) {
	return s.pickRepo.List(params)
}

// Confirm 确认领料单
func (s *PickService) Confirm(id string) (*entity.MaterialPick, error) {
	return s.transition(id, entity.PickActionConfirm, "")
}

// Cancel 取消领料单
func (s *PickService) Cancel(id string) (*entity.MaterialPick, error) {
	return s.transition(id, entity.PickActionCancel, "")
}

func (s *PickService) transition(id, action, pickerID string) (*entity.MaterialPick, error) {
	var pick *entity.MaterialPick
	err := s.db.Transaction(func(tx *gorm.DB) error {
		var loaded entity.MaterialPick
		if err := lockForUpdate(tx).Where("id = ?", id).First(&loaded).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("领料单不存在: %w", ErrNotFound)
			}
			return err
		}
		next, ok := entity.MaterialPickTransition(loaded.Status, action)
		if !ok {
			return fmt.Errorf("领料单状态 %s 不允许 %s: %w", loaded.Status, action, ErrInvalidTransition)
		}
		loaded.Status = next
		if pickerID != "" {
			loaded.PickerID = pickerID
		}
		if err := tx.Save(&loaded).Error; err != nil {
			return err
		}
		pick = &loaded
		return nil
	})
	if err != nil {
		return nil, err
	}
	return pick, nil
}

type CompletePickRequest struct {
	PickerID   string `json:"picker_id"`
	OperatorID string `json:"operator_id"`
}

// Complete 完成领料：在单个事务内推进状态并逐条明细扣减库存。
// 每条明细都走物料事务入口，任一明细可用量不足整单回滚，
// 不会出现部分扣减。
func (s *PickService) Complete(id string, req CompletePickRequest) (*entity.MaterialPick, error) {
	var pick *entity.MaterialPick
	err := s.db.Transaction(func(tx *gorm.DB) error {
		var loaded entity.MaterialPick
		if err := lockForUpdate(tx).Preload("Items").Where("id = ?", id).First(&loaded).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("领料单不存在: %w", ErrNotFound)
			}
			return err
		}
		next, ok := entity.MaterialPickTransition(loaded.Status, entity.PickActionComplete)
		if !ok {
			return fmt.Errorf("领料单状态 %s 不允许完成: %w", loaded.Status, ErrInvalidTransition)
		}

		for i := range loaded.Items {
			item := &loaded.Items[i]
			if _, err := s.inventory.applyTx(tx, CreateTransactionRequest{
				TransactionType: entity.TxTypePick,
				MaterialID:      item.MaterialID,
				WarehouseID:     loaded.WarehouseID,
				WorkOrderID:     loaded.WorkOrderID,
				BatchNumber:     item.BatchNumber,
				Quantity:        item.RequiredQuantity,
				OperatorID:      req.OperatorID,
				ReferenceNo:     loaded.Code,
			}); err != nil {
				return fmt.Errorf("明细物料 %s 出库失败: %w", item.MaterialID, err)
			}
			item.PickedQuantity = item.RequiredQuantity
			if err := tx.Save(item).Error; err != nil {
				return err
			}
		}

		now := time.Now()
		loaded.Status = next
		loaded.PickDate = &now
		if req.PickerID != "" {
			loaded.PickerID = req.PickerID
		}
		if err := tx.Save(&loaded).Error; err != nil {
			return err
		}
		pick = &loaded
		return nil
	})
	if err != nil {
		return nil, err
	}
	return pick, nil
}
