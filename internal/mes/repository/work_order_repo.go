package repository

import (
	"github.com/bitfantasy/nimo-mes/internal/mes/entity"
	"gorm.io/gorm"
)

// WorkOrderRepository 工单/报工/在制品仓库
type WorkOrderRepository struct {
	db *gorm.DB
}

func NewWorkOrderRepository(db *gorm.DB) *WorkOrderRepository {
	return &WorkOrderRepository{db: db}
}

func (r *WorkOrderRepository) Create(wo *entity.WorkOrder) error {
	return r.db.Create(wo).Error
}

func (r *WorkOrderRepository) GetByID(id string) (*entity.WorkOrder, error) {
	var wo entity.WorkOrder
	err := r.db.Preload("Operations", func(db *gorm.DB) *gorm.DB {
		return db.Order("sequence ASC")
	}).Preload("Product").Where("id = ?", id).First(&wo).Error
	return &wo, err
}

func (r *WorkOrderRepository) Update(wo *entity.WorkOrder) error {
	return r.db.Save(wo).Error
}

func (r *WorkOrderRepository) Delete(id string) error {
	return r.db.Delete(&entity.WorkOrder{}, "id = ?", id).Error
}

type WOListParams struct {
	Status    string
	ProductID string
	Keyword   string
	Page      int
	Size      int
}

func (r *WorkOrderRepository) List(params WOListParams) ([]entity.WorkOrder, int64, error) {
	query := r.db.Model(&entity.WorkOrder{})
	if params.Status != "" {
		query = query.Where("status = ?", params.Status)
	}
	if params.ProductID != "" {
		query = query.Where("product_id = ?", params.ProductID)
	}
	if params.Keyword != "" {
		kw := "%" + params.Keyword + "%"
		query = query.Where("code ILIKE ? OR customer ILIKE ?", kw, kw)
	}
	var total int64
	query.Count(&total)
	if params.Page <= 0 {
		params.Page = 1
	}
	if params.Size <= 0 {
		params.Size = 20
	}
	var wos []entity.WorkOrder
	err := query.Order("created_at DESC").Offset((params.Page - 1) * params.Size).Limit(params.Size).Find(&wos).Error
	return wos, total, err
}

func (r *WorkOrderRepository) GetOperation(id string) (*entity.WorkOrderOperation, error) {
	var op entity.WorkOrderOperation
	err := r.db.Where("id = ?", id).First(&op).Error
	return &op, err
}

func (r *WorkOrderRepository) CountOperations(workOrderID string) (int64, error) {
	var count int64
	err := r.db.Model(&entity.WorkOrderOperation{}).
		Where("work_order_id = ?", workOrderID).Count(&count).Error
	return count, err
}

// ListSchedulableOperations 返回 released/in_progress 工单的全部工序，
// 按 (优先级, 工单ID, 工序序号) 升序——这是排程的全序与平手规则。
func (r *WorkOrderRepository) ListSchedulableOperations() ([]entity.WorkOrderOperation, []entity.WorkOrder, error) {
	var wos []entity.WorkOrder
	if err := r.db.Where("status IN ?", []string{entity.WOStatusReleased, entity.WOStatusInProgress}).
		Find(&wos).Error; err != nil {
		return nil, nil, err
	}
	if len(wos) == 0 {
		return nil, nil, nil
	}
	ids := make([]string, 0, len(wos))
	for _, wo := range wos {
		ids = append(ids, wo.ID)
	}
	var ops []entity.WorkOrderOperation
	err := r.db.
		Joins("JOIN mes_work_orders ON mes_work_orders.id = mes_work_order_operations.work_order_id").
		Where("mes_work_order_operations.work_order_id IN ?", ids).
		Order("mes_work_orders.priority ASC, mes_work_orders.id ASC, mes_work_order_operations.sequence ASC").
		Find(&ops).Error
	return ops, wos, err
}

func (r *WorkOrderRepository) CreateReport(report *entity.WorkReport) error {
	return r.db.Create(report).Error
}

func (r *WorkOrderRepository) GetReport(id string) (*entity.WorkReport, error) {
	var report entity.WorkReport
	err := r.db.Where("id = ?", id).First(&report).Error
	return &report, err
}

func (r *WorkOrderRepository) ListReports(workOrderID string, page, size int) ([]entity.WorkReport, int64, error) {
	query := r.db.Model(&entity.WorkReport{})
	if workOrderID != "" {
		query = query.Where("work_order_id = ?", workOrderID)
	}
	var total int64
	query.Count(&total)
	if page <= 0 {
		page = 1
	}
	if size <= 0 {
		size = 20
	}
	var reports []entity.WorkReport
	err := query.Order("report_time DESC").Offset((page - 1) * size).Limit(size).Find(&reports).Error
	return reports, total, err
}

func (r *WorkOrderRepository) CreateWIP(wip *entity.WIPTracking) error {
	return r.db.Create(wip).Error
}

func (r *WorkOrderRepository) GetWIP(id string) (*entity.WIPTracking, error) {
	var wip entity.WIPTracking
	err := r.db.Where("id = ?", id).First(&wip).Error
	return &wip, err
}

func (r *WorkOrderRepository) UpdateWIP(wip *entity.WIPTracking) error {
	return r.db.Save(wip).Error
}

type WIPListParams struct {
	WorkOrderID string
	Status      string
	Page        int
	Size        int
}

func (r *WorkOrderRepository) ListWIP(params WIPListParams) ([]entity.WIPTracking, int64, error) {
	query := r.db.Model(&entity.WIPTracking{})
	if params.WorkOrderID != "" {
		query = query.Where("work_order_id = ?", params.WorkOrderID)
	}
	if params.Status != "" {
		query = query.Where("status = ?", params.Status)
	}
	var total int64
	query.Count(&total)
	if params.Page <= 0 {
		params.Page = 1
	}
	if params.Size <= 0 {
		params.Size = 20
	}
	var items []entity.WIPTracking
	err := query.Order("created_at DESC").Offset((params.Page - 1) * params.Size).Limit(params.Size).Find(&items).Error
	return items, total, err
}

// TraceWIPByBatch 按批次号追溯
func (r *WorkOrderRepository) TraceWIPByBatch(batchNumber string) ([]entity.WIPTracking, error) {
	var items []entity.WIPTracking
	err := r.db.Where("batch_number = ?", batchNumber).Order("created_at ASC").Find(&items).Error
	return items, err
}

// TraceWIPBySerial 按序列号追溯
func (r *WorkOrderRepository) TraceWIPBySerial(serialNumber string) ([]entity.WIPTracking, error) {
	var items []entity.WIPTracking
	err := r.db.Where("serial_number = ?", serialNumber).Order("created_at ASC").Find(&items).Error
	return items, err
}

// DB 返回底层db用于事务
func (r *WorkOrderRepository) DB() *gorm.DB {
	return r.db
}
