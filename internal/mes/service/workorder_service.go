package service

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/bitfantasy/nimo-mes/internal/mes/entity"
	"github.com/bitfantasy/nimo-mes/internal/mes/repository"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// WorkOrderService 工单生命周期：创建、状态机迁移、工序生成
type WorkOrderService struct {
	woRepo       *repository.WorkOrderRepository
	masterRepo   *repository.MasterRepository
	templateRepo *repository.TemplateRepository
	db           *gorm.DB
}

func NewWorkOrderService(woRepo *repository.WorkOrderRepository, masterRepo *repository.MasterRepository, templateRepo *repository.TemplateRepository, db *gorm.DB) *WorkOrderService {
	return &WorkOrderService{woRepo: woRepo, masterRepo: masterRepo, templateRepo: templateRepo, db: db}
}

type WorkOrderOperationInput struct {
	OperationID     string  `json:"operation_id" binding:"required"`
	Sequence        int     `json:"sequence" binding:"required"`
	EquipmentID     string  `json:"equipment_id"`
	PlannedQuantity float64 `json:"planned_quantity"`
}

type CreateWorkOrderRequest struct {
	Code            string                    `json:"code"`
	ProductID       string                    `json:"product_id" binding:"required"`
	BOMID           string                    `json:"bom_id"`
	RoutingID       string                    `json:"routing_id"`
	PlannedQuantity float64                   `json:"planned_quantity" binding:"required,gt=0"`
	Priority        int                       `json:"priority"`
	PlannedStart    string                    `json:"planned_start"` // YYYY-MM-DD
	PlannedEnd      string                    `json:"planned_end"`
	Customer        string                    `json:"customer"`
	SalesOrder      string                    `json:"sales_order"`
	Notes           string                    `json:"notes"`
	Operations      []WorkOrderOperationInput `json:"operations"`
}

// Create 创建工单。未指定编号时在同一事务内生成 WOYYYYMMDDNNN 并插入，
// 编号唯一索引冲突则重新取号重试。
func (s *WorkOrderService) Create(req CreateWorkOrderRequest, userID string) (*entity.WorkOrder, error) {
	if req.Priority == 0 {
		req.Priority = 5
	}
	if req.Priority < 1 || req.Priority > 10 {
		return nil, fmt.Errorf("优先级必须在1-10之间: %w", ErrValidation)
	}

	product, err := s.masterRepo.GetMaterial(req.ProductID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("产品不存在: %w", ErrValidation)
		}
		return nil, fmt.Errorf("查询产品失败: %w", err)
	}
	if strings.TrimSpace(product.MaterialType) != entity.MaterialTypeFinished {
		return nil, fmt.Errorf("工单产品必须为成品物料: %w", ErrValidation)
	}

	var wo *entity.WorkOrder
	const maxAttempts = 3
	for attempt := 0; attempt < maxAttempts; attempt++ {
		wo = &entity.WorkOrder{
			ID:              uuid.New().String(),
			Code:            req.Code,
			ProductID:       req.ProductID,
			BOMID:           req.BOMID,
			RoutingID:       req.RoutingID,
			PlannedQuantity: req.PlannedQuantity,
			Status:          entity.WOStatusDraft,
			Priority:        req.Priority,
			Customer:        req.Customer,
			SalesOrder:      req.SalesOrder,
			Notes:           req.Notes,
			CreatedBy:       userID,
		}
		if req.PlannedStart != "" {
			if t, perr := time.Parse("2006-01-02", req.PlannedStart); perr == nil {
				wo.PlannedStartDate = &t
			}
		}
		if req.PlannedEnd != "" {
			if t, perr := time.Parse("2006-01-02", req.PlannedEnd); perr == nil {
				wo.PlannedEndDate = &t
			}
		}

		err = s.db.Transaction(func(tx *gorm.DB) error {
			// 未指定工艺路线/BOM时选择产品当前激活版本
			if wo.RoutingID == "" {
				var routing entity.Routing
				if rerr := tx.Where("product_id = ? AND is_active = true", wo.ProductID).
					Order("version DESC").First(&routing).Error; rerr == nil {
					wo.RoutingID = routing.ID
				}
			}
			if wo.BOMID == "" {
				var bom entity.BOM
				if berr := tx.Where("product_id = ? AND is_active = true", wo.ProductID).
					Order("version DESC").First(&bom).Error; berr == nil {
					wo.BOMID = bom.ID
				}
			}

			if wo.Code == "" {
				code, cerr := nextWorkOrderCode(tx, time.Now())
				if cerr != nil {
					return cerr
				}
				wo.Code = code
			}

			if len(req.Operations) > 0 {
				for _, in := range req.Operations {
					qty := in.PlannedQuantity
					if qty <= 0 {
						qty = wo.PlannedQuantity
					}
					wo.Operations = append(wo.Operations, entity.WorkOrderOperation{
						ID:              uuid.New().String(),
						OperationID:     in.OperationID,
						Sequence:        in.Sequence,
						EquipmentID:     in.EquipmentID,
						PlannedQuantity: qty,
						Status:          entity.WOOpStatusPending,
					})
				}
			} else if wo.RoutingID != "" {
				var items []entity.RoutingItem
				if rerr := tx.Where("routing_id = ?", wo.RoutingID).
					Order("sequence ASC").Find(&items).Error; rerr != nil {
					return fmt.Errorf("读取工艺路线明细失败: %w", rerr)
				}
				for _, tpl := range ExplodeRoutingItems(items) {
					wo.Operations = append(wo.Operations, entity.WorkOrderOperation{
						ID:               uuid.New().String(),
						OperationID:      tpl.OperationID,
						Sequence:         tpl.Sequence,
						EquipmentID:      tpl.EquipmentID,
						PlannedQuantity:  wo.PlannedQuantity,
						Status:           entity.WOOpStatusPending,
						PlannedStartDate: wo.PlannedStartDate,
					})
				}
			}

			return tx.Create(wo).Error
		})
		if err == nil {
			return wo, nil
		}
		// 编号被并发占用时重新取号；显式指定的编号冲突直接报错
		if errors.Is(err, gorm.ErrDuplicatedKey) && req.Code == "" {
			continue
		}
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, fmt.Errorf("工单编号已存在: %w", ErrValidation)
		}
		return nil, fmt.Errorf("创建工单失败: %w", err)
	}
	return nil, fmt.Errorf("生成工单编号冲突重试%d次仍失败: %w", maxAttempts, err)
}

// nextWorkOrderCode 取当日最大序号+1，格式 WOYYYYMMDDNNN
func nextWorkOrderCode(tx *gorm.DB, now time.Time) (string, error) {
	prefix := "WO" + now.Format("20060102")
	var last entity.WorkOrder
	err := tx.Where("code LIKE ?", prefix+"%").Order("code DESC").First(&last).Error
	seq := 1
	if err == nil {
		if n, perr := strconv.Atoi(strings.TrimPrefix(last.Code, prefix)); perr == nil {
			seq = n + 1
		}
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return "", fmt.Errorf("查询工单编号失败: %w", err)
	}
	return fmt.Sprintf("%s%03d", prefix, seq), nil
}

func (s *WorkOrderService) GetByID(id string) (*entity.WorkOrder, error) {
	wo, err := s.woRepo.GetByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("工单不存在: %w", ErrNotFound)
		}
		return nil, err
	}
	return wo, nil
}

func (s *WorkOrderService) List(params repository.WOListParams) ([]entity.WorkOrder, int64, error) {
	return s.woRepo.List(params)
}

type UpdateWorkOrderRequest struct {
	PlannedQuantity *float64 `json:"planned_quantity"`
	Priority        *int     `json:"priority"`
	PlannedStart    string   `json:"planned_start"`
	PlannedEnd      string   `json:"planned_end"`
	Customer        *string  `json:"customer"`
	SalesOrder      *string  `json:"sales_order"`
	Notes           *string  `json:"notes"`
}

func (s *WorkOrderService) Update(id string, req UpdateWorkOrderRequest) (*entity.WorkOrder, error) {
	wo, err := s.GetByID(id)
	if err != nil {
		return nil, err
	}
	if req.PlannedQuantity != nil {
		if *req.PlannedQuantity <= 0 {
			return nil, fmt.Errorf("计划数量必须大于0: %w", ErrValidation)
		}
		wo.PlannedQuantity = *req.PlannedQuantity
	}
	if req.Priority != nil {
		if *req.Priority < 1 || *req.Priority > 10 {
			return nil, fmt.Errorf("优先级必须在1-10之间: %w", ErrValidation)
		}
		wo.Priority = *req.Priority
	}
	if req.PlannedStart != "" {
		if t, perr := time.Parse("2006-01-02", req.PlannedStart); perr == nil {
			wo.PlannedStartDate = &t
		}
	}
	if req.PlannedEnd != "" {
		if t, perr := time.Parse("2006-01-02", req.PlannedEnd); perr == nil {
			wo.PlannedEndDate = &t
		}
	}
	if req.Customer != nil {
		wo.Customer = *req.Customer
	}
	if req.SalesOrder != nil {
		wo.SalesOrder = *req.SalesOrder
	}
	if req.Notes != nil {
		wo.Notes = *req.Notes
	}
	if err := s.woRepo.Update(wo); err != nil {
		return nil, fmt.Errorf("更新工单失败: %w", err)
	}
	return wo, nil
}

func (s *WorkOrderService) Delete(id string) error {
	if _, err := s.GetByID(id); err != nil {
		return err
	}
	return s.woRepo.Delete(id)
}

// Release 下达工单 draft -> released
func (s *WorkOrderService) Release(id string) (*entity.WorkOrder, error) {
	return s.transition(id, entity.WOActionRelease)
}

// Start 开工 released -> in_progress
func (s *WorkOrderService) Start(id string) (*entity.WorkOrder, error) {
	return s.transition(id, entity.WOActionStart)
}

// Complete 完工 in_progress -> completed
func (s *WorkOrderService) Complete(id string) (*entity.WorkOrder, error) {
	return s.transition(id, entity.WOActionComplete)
}

// Cancel 取消，任何非终态可取消
func (s *WorkOrderService) Cancel(id string) (*entity.WorkOrder, error) {
	return s.transition(id, entity.WOActionCancel)
}

func (s *WorkOrderService) transition(id, action string) (*entity.WorkOrder, error) {
	var wo entity.WorkOrder
	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := lockForUpdate(tx).Where("id = ?", id).First(&wo).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("工单不存在: %w", ErrNotFound)
			}
			return err
		}
		next, ok := entity.WorkOrderTransition(wo.Status, action)
		if !ok {
			return fmt.Errorf("工单 %s 状态为 %s，不允许 %s: %w", wo.Code, wo.Status, action, ErrInvalidTransition)
		}
		now := time.Now()
		wo.Status = next
		switch action {
		case entity.WOActionStart:
			if wo.ActualStartDate == nil {
				wo.ActualStartDate = &now
			}
		case entity.WOActionComplete:
			wo.ActualEndDate = &now
		}
		return tx.Save(&wo).Error
	})
	if err != nil {
		return nil, err
	}
	return &wo, nil
}

// GenerateOperations 根据工艺路线为工单生成工序。
// force=true 时先删除已有工序再重建，否则仅在无工序时创建。
// 返回当前工序数与本次是否生成。
func (s *WorkOrderService) GenerateOperations(id string, force bool) (int64, bool, error) {
	wo, err := s.GetByID(id)
	if err != nil {
		return 0, false, err
	}
	if wo.RoutingID == "" {
		return 0, false, fmt.Errorf("工单 %s 未关联工艺路线: %w", wo.Code, ErrValidation)
	}

	existing, err := s.woRepo.CountOperations(id)
	if err != nil {
		return 0, false, err
	}
	if existing > 0 && !force {
		return existing, false, nil
	}

	routing, err := s.templateRepo.GetRouting(wo.RoutingID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, false, fmt.Errorf("工艺路线不存在: %w", ErrValidation)
		}
		return 0, false, err
	}

	var count int64
	err = s.db.Transaction(func(tx *gorm.DB) error {
		if existing > 0 {
			if derr := tx.Where("work_order_id = ?", id).
				Delete(&entity.WorkOrderOperation{}).Error; derr != nil {
				return derr
			}
		}
		for _, tpl := range ExplodeRoutingItems(routing.Items) {
			op := entity.WorkOrderOperation{
				ID:               uuid.New().String(),
				WorkOrderID:      wo.ID,
				OperationID:      tpl.OperationID,
				Sequence:         tpl.Sequence,
				EquipmentID:      tpl.EquipmentID,
				PlannedQuantity:  wo.PlannedQuantity,
				Status:           entity.WOOpStatusPending,
				PlannedStartDate: wo.PlannedStartDate,
			}
			if cerr := tx.Create(&op).Error; cerr != nil {
				return cerr
			}
		}
		return tx.Model(&entity.WorkOrderOperation{}).
			Where("work_order_id = ?", id).Count(&count).Error
	})
	if err != nil {
		return 0, false, fmt.Errorf("生成工序失败: %w", err)
	}
	return count, true, nil
}
