package service

import (
	"errors"
	"fmt"
	"time"

	"github.com/bitfantasy/nimo-mes/internal/mes/entity"
	"github.com/bitfantasy/nimo-mes/internal/mes/repository"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// WorkReportService 报工处理：一条报工事件在单个事务内
// 写入不可变报工记录并推进工序/工单计数与状态。
type WorkReportService struct {
	woRepo *repository.WorkOrderRepository
	db     *gorm.DB
}

func NewWorkReportService(woRepo *repository.WorkOrderRepository, db *gorm.DB) *WorkReportService {
	return &WorkReportService{woRepo: woRepo, db: db}
}

type CreateWorkReportRequest struct {
	WorkOrderID          string  `json:"work_order_id" binding:"required"`
	WorkOrderOperationID string  `json:"work_order_operation_id"`
	ReportType           string  `json:"report_type" binding:"required"`
	Quantity             float64 `json:"quantity"`
	OperatorID           string  `json:"operator_id"`
	EquipmentID          string  `json:"equipment_id"`
	ShiftID              string  `json:"shift_id"`
	Barcode              string  `json:"barcode"`
	Notes                string  `json:"notes"`
	ReportTime           string  `json:"report_time"` // RFC3339，缺省取当前时间
}

// Submit 应用一条报工事件。
// start: 工序置 in_progress，首个 start 将 released 工单推进到 in_progress；
// complete/scrap: 累加工序与工单计数，工序达到计划数量即完工；
// pause/resume: 仅记录事件。
// 工单与工序行加 FOR UPDATE 锁，避免并发报工丢失更新。
func (s *WorkReportService) Submit(req CreateWorkReportRequest) (*entity.WorkReport, error) {
	if !entity.ValidReportType(req.ReportType) {
		return nil, fmt.Errorf("未知报工类型 %s: %w", req.ReportType, ErrValidation)
	}
	if (req.ReportType == entity.ReportTypeComplete || req.ReportType == entity.ReportTypeScrap) && req.Quantity <= 0 {
		return nil, fmt.Errorf("%s 报工数量必须大于0: %w", req.ReportType, ErrValidation)
	}
	if req.Quantity < 0 {
		return nil, fmt.Errorf("报工数量不能为负: %w", ErrValidation)
	}

	reportTime := time.Now()
	if req.ReportTime != "" {
		if t, err := time.Parse(time.RFC3339, req.ReportTime); err == nil {
			reportTime = t
		}
	}

	report := &entity.WorkReport{
		ID:                   uuid.New().String(),
		WorkOrderID:          req.WorkOrderID,
		WorkOrderOperationID: req.WorkOrderOperationID,
		ReportType:           req.ReportType,
		Quantity:             req.Quantity,
		OperatorID:           req.OperatorID,
		EquipmentID:          req.EquipmentID,
		ShiftID:              req.ShiftID,
		Barcode:              req.Barcode,
		Notes:                req.Notes,
		ReportTime:           reportTime,
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		var wo entity.WorkOrder
		if err := lockForUpdate(tx).Where("id = ?", req.WorkOrderID).First(&wo).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("工单不存在: %w", ErrNotFound)
			}
			return err
		}

		now := time.Now()

		var op *entity.WorkOrderOperation
		if req.WorkOrderOperationID != "" {
			var loaded entity.WorkOrderOperation
			if err := lockForUpdate(tx).Where("id = ? AND work_order_id = ?", req.WorkOrderOperationID, wo.ID).
				First(&loaded).Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return fmt.Errorf("工单工序不存在: %w", ErrNotFound)
				}
				return err
			}
			op = &loaded
		}

		switch req.ReportType {
		case entity.ReportTypeStart:
			if op != nil {
				op.Status = entity.WOOpStatusInProgress
				if op.ActualStartDate == nil {
					op.ActualStartDate = &now
				}
			}
			if wo.Status == entity.WOStatusReleased {
				wo.Status = entity.WOStatusInProgress
				if wo.ActualStartDate == nil {
					wo.ActualStartDate = &now
				}
			}
		case entity.ReportTypeComplete:
			wo.CompletedQuantity += req.Quantity
			if op != nil {
				op.CompletedQuantity += req.Quantity
				if op.CompletedQuantity >= op.PlannedQuantity && op.Status != entity.WOOpStatusCompleted {
					op.Status = entity.WOOpStatusCompleted
					op.ActualEndDate = &now
				}
			}
		case entity.ReportTypeScrap:
			wo.ScrappedQuantity += req.Quantity
			if op != nil {
				op.ScrappedQuantity += req.Quantity
			}
		case entity.ReportTypePause, entity.ReportTypeResume:
			// 仅记录事件，不推进状态与计数
		}

		if err := tx.Create(report).Error; err != nil {
			return fmt.Errorf("写入报工记录失败: %w", err)
		}
		if op != nil {
			if err := tx.Save(op).Error; err != nil {
				return err
			}
		}
		return tx.Save(&wo).Error
	})
	if err != nil {
		return nil, err
	}
	return report, nil
}

func (s *WorkReportService) GetByID(id string) (*entity.WorkReport, error) {
	report, err := s.woRepo.GetReport(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("报工记录不存在: %w", ErrNotFound)
		}
		return nil, err
	}
	return report, nil
}

func (s *WorkReportService) List(workOrderID string, page, size int) ([]entity.WorkReport, int64, error) {
	return s.woRepo.ListReports(workOrderID, page, size)
}

type CreateWIPRequest struct {
	WorkOrderID  string  `json:"work_order_id" binding:"required"`
	OperationID  string  `json:"operation_id"`
	MaterialID   string  `json:"material_id"`
	BatchNumber  string  `json:"batch_number"`
	SerialNumber string  `json:"serial_number"`
	Quantity     float64 `json:"quantity" binding:"required,gt=0"`
	Status       string  `json:"status"`
	Location     string  `json:"location"`
	OperatorID   string  `json:"operator_id"`
	EquipmentID  string  `json:"equipment_id"`
}

func (s *WorkReportService) CreateWIP(req CreateWIPRequest) (*entity.WIPTracking, error) {
	wip := &entity.WIPTracking{
		ID:           uuid.New().String(),
		WorkOrderID:  req.WorkOrderID,
		OperationID:  req.OperationID,
		MaterialID:   req.MaterialID,
		BatchNumber:  req.BatchNumber,
		SerialNumber: req.SerialNumber,
		Quantity:     req.Quantity,
		Status:       req.Status,
		Location:     req.Location,
		OperatorID:   req.OperatorID,
		EquipmentID:  req.EquipmentID,
	}
	if wip.Status == "" {
		wip.Status = entity.WIPStatusInProcess
	}
	if err := s.woRepo.CreateWIP(wip); err != nil {
		return nil, fmt.Errorf("创建在制品记录失败: %w", err)
	}
	return wip, nil
}

type UpdateWIPRequest struct {
	Quantity *float64 `json:"quantity"`
	Status   *string  `json:"status"`
	Location *string  `json:"location"`
}

func (s *WorkReportService) UpdateWIP(id string, req UpdateWIPRequest) (*entity.WIPTracking, error) {
	wip, err := s.woRepo.GetWIP(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("在制品记录不存在: %w", ErrNotFound)
		}
		return nil, err
	}
	if req.Quantity != nil {
		if *req.Quantity < 0 {
			return nil, fmt.Errorf("在制品数量不能为负: %w", ErrValidation)
		}
		wip.Quantity = *req.Quantity
	}
	if req.Status != nil {
		wip.Status = *req.Status
	}
	if req.Location != nil {
		wip.Location = *req.Location
	}
	if err := s.woRepo.UpdateWIP(wip); err != nil {
		return nil, fmt.Errorf("更新在制品记录失败: %w", err)
	}
	return wip, nil
}

func (s *WorkReportService) GetWIP(id string) (*entity.WIPTracking, error) {
	wip, err := s.woRepo.GetWIP(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("在制品记录不存在: %w", ErrNotFound)
		}
		return nil, err
	}
	return wip, nil
}

func (s *WorkReportService) ListWIP(params repository.WIPListParams) ([]entity.WIPTracking, int64, error) {
	return s.woRepo.ListWIP(params)
}

func (s *WorkReportService) TraceByBatch(batchNumber string) ([]entity.WIPTracking, error) {
	return s.woRepo.TraceWIPByBatch(batchNumber)
}

func (s *WorkReportService) TraceBySerial(serialNumber string) ([]entity.WIPTracking, error) {
	return s.woRepo.TraceWIPBySerial(serialNumber)
}
