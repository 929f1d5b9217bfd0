package entity

import (
	"time"
)

// WorkOrderStatus 工单状态
const (
	WOStatusDraft      = "draft"
	WOStatusReleased   = "released"
	WOStatusInProgress = "in_progress"
	WOStatusPaused     = "paused"
	WOStatusCompleted  = "completed"
	WOStatusCancelled  = "cancelled"
)

// WorkOrderAction 工单状态机动作
const (
	WOActionRelease  = "release"
	WOActionStart    = "start"
	WOActionComplete = "complete"
	WOActionCancel   = "cancel"
)

// workOrderTransitions 工单状态迁移表：动作 -> 允许的当前状态 -> 目标状态。
// cancel 允许任何非终态。
var workOrderTransitions = map[string]map[string]string{
	WOActionRelease: {
		WOStatusDraft: WOStatusReleased,
	},
	WOActionStart: {
		WOStatusReleased: WOStatusInProgress,
	},
	WOActionComplete: {
		WOStatusInProgress: WOStatusCompleted,
	},
	WOActionCancel: {
		WOStatusDraft:      WOStatusCancelled,
		WOStatusReleased:   WOStatusCancelled,
		WOStatusInProgress: WOStatusCancelled,
		WOStatusPaused:     WOStatusCancelled,
	},
}

// WorkOrderTransition 返回工单在当前状态下执行动作后的目标状态。
func WorkOrderTransition(status, action string) (string, bool) {
	next, ok := workOrderTransitions[action][status]
	return next, ok
}

// WorkOrder 生产工单
type WorkOrder struct {
	ID                string     `json:"id" gorm:"primaryKey;type:uuid;default:gen_random_uuid()"`
	Code              string     `json:"code" gorm:"size:50;not null;uniqueIndex"`
	ProductID         string     `json:"product_id" gorm:"type:uuid;not null;index"`
	BOMID             string     `json:"bom_id" gorm:"size:36"`
	RoutingID         string     `json:"routing_id" gorm:"size:36"`
	PlannedQuantity   float64    `json:"planned_quantity" gorm:"type:decimal(12,4);not null"`
	CompletedQuantity float64    `json:"completed_quantity" gorm:"type:decimal(12,4);default:0"`
	ScrappedQuantity  float64    `json:"scrapped_quantity" gorm:"type:decimal(12,4);default:0"`
	Status            string     `json:"status" gorm:"size:20;not null;default:draft"`
	Priority          int        `json:"priority" gorm:"default:5"` // 1-10, 越小优先级越高
	PlannedStartDate  *time.Time `json:"planned_start_date"`
	PlannedEndDate    *time.Time `json:"planned_end_date"`
	ActualStartDate   *time.Time `json:"actual_start_date"`
	ActualEndDate     *time.Time `json:"actual_end_date"`
	Customer          string     `json:"customer" gorm:"size:200"`
	SalesOrder        string     `json:"sales_order" gorm:"size:100"`
	Notes             string     `json:"notes" gorm:"type:text"`
	CreatedBy         string     `json:"created_by" gorm:"size:100"`
	CreatedAt         time.Time  `json:"created_at"`
	UpdatedAt         time.Time  `json:"updated_at"`

	Product    *Material            `json:"product,omitempty" gorm:"foreignKey:ProductID"`
	Operations []WorkOrderOperation `json:"operations,omitempty" gorm:"foreignKey:WorkOrderID;constraint:OnDelete:CASCADE"`
	Reports    []WorkReport         `json:"reports,omitempty" gorm:"foreignKey:WorkOrderID"`
}

func (WorkOrder) TableName() string {
	return "mes_work_orders"
}

// WorkOrderOperationStatus 工单工序状态
const (
	WOOpStatusPending    = "pending"
	WOOpStatusInProgress = "in_progress"
	WOOpStatusCompleted  = "completed"
)

// WorkOrderOperation 工单工序
type WorkOrderOperation struct {
	ID                string     `json:"id" gorm:"primaryKey;type:uuid;default:gen_random_uuid()"`
	WorkOrderID       string     `json:"work_order_id" gorm:"type:uuid;not null;index;uniqueIndex:idx_wo_op_sequence,priority:1"`
	OperationID       string     `json:"operation_id" gorm:"type:uuid;not null"`
	Sequence          int        `json:"sequence" gorm:"not null;uniqueIndex:idx_wo_op_sequence,priority:2"`
	EquipmentID       string     `json:"equipment_id" gorm:"size:36"`
	PlannedQuantity   float64    `json:"planned_quantity" gorm:"type:decimal(12,4);not null"`
	CompletedQuantity float64    `json:"completed_quantity" gorm:"type:decimal(12,4);default:0"`
	ScrappedQuantity  float64    `json:"scrapped_quantity" gorm:"type:decimal(12,4);default:0"`
	Status            string     `json:"status" gorm:"size:20;default:pending"`
	PlannedStartDate  *time.Time `json:"planned_start_date"`
	PlannedEndDate    *time.Time `json:"planned_end_date"`
	ActualStartDate   *time.Time `json:"actual_start_date"`
	ActualEndDate     *time.Time `json:"actual_end_date"`
	CreatedAt         time.Time  `json:"created_at"`
	UpdatedAt         time.Time  `json:"updated_at"`

	Operation *Operation `json:"operation,omitempty" gorm:"foreignKey:OperationID"`
	Equipment *Equipment `json:"equipment,omitempty" gorm:"foreignKey:EquipmentID"`
}

func (WorkOrderOperation) TableName() string {
	return "mes_work_order_operations"
}

// ReportType 报工类型
const (
	ReportTypeStart    = "start"
	ReportTypeComplete = "complete"
	ReportTypePause    = "pause"
	ReportTypeResume   = "resume"
	ReportTypeScrap    = "scrap"
)

// ValidReportType 校验报工类型
func ValidReportType(t string) bool {
	switch t {
	case ReportTypeStart, ReportTypeComplete, ReportTypePause, ReportTypeResume, ReportTypeScrap:
		return true
	}
	return false
}

// WorkReport 报工记录（扫码报工事件，只增不改）
type WorkReport struct {
	ID                   string    `json:"id" gorm:"primaryKey;type:uuid;default:gen_random_uuid()"`
	WorkOrderID          string    `json:"work_order_id" gorm:"type:uuid;not null;index"`
	WorkOrderOperationID string    `json:"work_order_operation_id" gorm:"size:36"`
	ReportType           string    `json:"report_type" gorm:"size:20;not null"`
	Quantity             float64   `json:"quantity" gorm:"type:decimal(12,4);default:0"`
	OperatorID           string    `json:"operator_id" gorm:"size:36"`
	EquipmentID          string    `json:"equipment_id" gorm:"size:36"`
	ShiftID              string    `json:"shift_id" gorm:"size:36"`
	Barcode              string    `json:"barcode" gorm:"size:200"`
	Notes                string    `json:"notes" gorm:"type:text"`
	ReportTime           time.Time `json:"report_time"`
	CreatedAt            time.Time `json:"created_at"`
}

func (WorkReport) TableName() string {
	return "mes_work_reports"
}

// WIPStatus 在制品状态
const (
	WIPStatusInProcess = "wip"
	WIPStatusCompleted = "completed"
	WIPStatusScrapped  = "scrapped"
)

// WIPTracking 在制品追溯记录
type WIPTracking struct {
	ID           string    `json:"id" gorm:"primaryKey;type:uuid;default:gen_random_uuid()"`
	WorkOrderID  string    `json:"work_order_id" gorm:"type:uuid;not null;index"`
	OperationID  string    `json:"operation_id" gorm:"size:36"`
	MaterialID   string    `json:"material_id" gorm:"size:36"`
	BatchNumber  string    `json:"batch_number" gorm:"size:100;index"`
	SerialNumber string    `json:"serial_number" gorm:"size:100;index"`
	Quantity     float64   `json:"quantity" gorm:"type:decimal(12,4);not null"`
	Status       string    `json:"status" gorm:"size:20;default:wip"`
	Location     string    `json:"location" gorm:"size:200"`
	OperatorID   string    `json:"operator_id" gorm:"size:36"`
	EquipmentID  string    `json:"equipment_id" gorm:"size:36"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

func (WIPTracking) TableName() string {
	return "mes_wip_tracking"
}
