package entity

import (
	"time"
)

// MaterialType 物料类型
const (
	MaterialTypeRaw      = "原料"
	MaterialTypeSemi     = "半成品"
	MaterialTypeFinished = "成品"
)

// UOM 计量单位
type UOM struct {
	ID          string    `json:"id" gorm:"primaryKey;type:uuid;default:gen_random_uuid()"`
	Code        string    `json:"code" gorm:"size:50;not null;uniqueIndex"`
	Name        string    `json:"name" gorm:"size:100;not null"`
	Description string    `json:"description" gorm:"type:text"`
	Precision   float64   `json:"precision" gorm:"type:decimal(12,4);default:0"`
	Active      bool      `json:"active" gorm:"default:true"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func (UOM) TableName() string {
	return "mes_uoms"
}

// Warehouse 仓库
type Warehouse struct {
	ID            string    `json:"id" gorm:"primaryKey;type:uuid;default:gen_random_uuid()"`
	Code          string    `json:"code" gorm:"size:50;not null;uniqueIndex"`
	Name          string    `json:"name" gorm:"size:100;not null"`
	Location      string    `json:"location" gorm:"size:200"` // 所在区域，如 "A区一层"
	WarehouseType string    `json:"warehouse_type" gorm:"size:50"`
	Manager       string    `json:"manager" gorm:"size:100"`
	Description   string    `json:"description" gorm:"type:text"`
	Active        bool      `json:"active" gorm:"default:true"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

func (Warehouse) TableName() string {
	return "mes_warehouses"
}

// Material 物料
type Material struct {
	ID            string    `json:"id" gorm:"primaryKey;type:uuid;default:gen_random_uuid()"`
	Code          string    `json:"code" gorm:"size:50;not null;uniqueIndex"`
	Name          string    `json:"name" gorm:"size:200;not null"`
	Specification string    `json:"specification" gorm:"size:200"`
	MaterialType  string    `json:"material_type" gorm:"size:50"` // 原料、半成品、成品
	UOMID         string    `json:"uom_id" gorm:"size:36"`
	UnitPrice     float64   `json:"unit_price" gorm:"type:decimal(12,4);default:0"`
	SafetyStock   float64   `json:"safety_stock" gorm:"type:decimal(12,4);default:0"`
	LeadTime      int       `json:"lead_time" gorm:"default:0"` // 提前期(天)
	Supplier      string    `json:"supplier" gorm:"size:200"`
	Description   string    `json:"description" gorm:"type:text"`
	Active        bool      `json:"active" gorm:"default:true"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`

	UOM *UOM `json:"uom,omitempty" gorm:"foreignKey:UOMID"`
}

func (Material) TableName() string {
	return "mes_materials"
}

// BOM 物料清单表头，同一产品至多一个激活版本
type BOM struct {
	ID          string    `json:"id" gorm:"primaryKey;type:uuid;default:gen_random_uuid()"`
	Code        string    `json:"code" gorm:"size:50;not null;uniqueIndex"`
	Name        string    `json:"name" gorm:"size:200;not null"`
	ProductID   string    `json:"product_id" gorm:"type:uuid;not null;index"`
	Version     string    `json:"version" gorm:"size:20;default:1.0"`
	Quantity    float64   `json:"quantity" gorm:"type:decimal(12,4);default:1"` // 产出数量
	IsActive    bool      `json:"is_active" gorm:"default:true"`
	Description string    `json:"description" gorm:"type:text"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`

	Items []BOMItem `json:"items,omitempty" gorm:"foreignKey:BOMID"`
}

func (BOM) TableName() string {
	return "mes_boms"
}

// BOMItem BOM明细
type BOMItem struct {
	ID          string    `json:"id" gorm:"primaryKey;type:uuid;default:gen_random_uuid()"`
	BOMID       string    `json:"bom_id" gorm:"type:uuid;not null;index"`
	MaterialID  string    `json:"material_id" gorm:"type:uuid;not null"`
	Quantity    float64   `json:"quantity" gorm:"type:decimal(12,4);not null"`
	Sequence    int       `json:"sequence" gorm:"default:0"`
	ScrapRate   float64   `json:"scrap_rate" gorm:"type:decimal(8,4);default:0"` // 损耗率
	Description string    `json:"description" gorm:"type:text"`
	CreatedAt   time.Time `json:"created_at"`

	Material *Material `json:"material,omitempty" gorm:"foreignKey:MaterialID"`
}

func (BOMItem) TableName() string {
	return "mes_bom_items"
}

// Operation 工序定义
type Operation struct {
	ID            string    `json:"id" gorm:"primaryKey;type:uuid;default:gen_random_uuid()"`
	Code          string    `json:"code" gorm:"size:50;not null;uniqueIndex"`
	Name          string    `json:"name" gorm:"size:100;not null"`
	OperationType string    `json:"operation_type" gorm:"size:50"` // 加工、装配、检验等
	StandardTime  float64   `json:"standard_time" gorm:"type:decimal(12,4);default:0"` // 标准工时(分钟/件)
	Description   string    `json:"description" gorm:"type:text"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

func (Operation) TableName() string {
	return "mes_operations"
}

// EquipmentStatus 设备状态
const (
	EquipmentStatusIdle        = "idle"
	EquipmentStatusRunning     = "running"
	EquipmentStatusMaintenance = "maintenance"
	EquipmentStatusFault       = "fault"
)

// Equipment 设备
type Equipment struct {
	ID            string    `json:"id" gorm:"primaryKey;type:uuid;default:gen_random_uuid()"`
	Code          string    `json:"code" gorm:"size:50;not null;uniqueIndex"`
	Name          string    `json:"name" gorm:"size:100;not null"`
	EquipmentType string    `json:"equipment_type" gorm:"size:50"`
	Model         string    `json:"model" gorm:"size:100"`
	Manufacturer  string    `json:"manufacturer" gorm:"size:200"`
	Capacity      float64   `json:"capacity" gorm:"type:decimal(12,4);default:0"` // 每日可用工时(小时)
	Status        string    `json:"status" gorm:"size:20;default:idle"`
	Location      string    `json:"location" gorm:"size:200"`
	Description   string    `json:"description" gorm:"type:text"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

func (Equipment) TableName() string {
	return "mes_equipment"
}

// Tooling 工装
type Tooling struct {
	ID            string    `json:"id" gorm:"primaryKey;type:uuid;default:gen_random_uuid()"`
	Code          string    `json:"code" gorm:"size:50;not null;uniqueIndex"`
	Name          string    `json:"name" gorm:"size:100;not null"`
	ToolingType   string    `json:"tooling_type" gorm:"size:50"`
	Specification string    `json:"specification" gorm:"size:200"`
	Quantity      int       `json:"quantity" gorm:"default:0"`
	Status        string    `json:"status" gorm:"size:20;default:available"` // available, in-use, maintenance
	Location      string    `json:"location" gorm:"size:200"`
	Description   string    `json:"description" gorm:"type:text"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

func (Tooling) TableName() string {
	return "mes_tooling"
}

// Personnel 人员
type Personnel struct {
	ID         string    `json:"id" gorm:"primaryKey;type:uuid;default:gen_random_uuid()"`
	Code       string    `json:"code" gorm:"size:50;not null;uniqueIndex"`
	Name       string    `json:"name" gorm:"size:100;not null"`
	Department string    `json:"department" gorm:"size:100"`
	Position   string    `json:"position" gorm:"size:100"`
	SkillLevel string    `json:"skill_level" gorm:"size:50"`
	Phone      string    `json:"phone" gorm:"size:20"`
	Email      string    `json:"email" gorm:"size:100"`
	ShiftCode  string    `json:"shift_code" gorm:"size:50"`
	Status     string    `json:"status" gorm:"size:20;default:active"` // active, inactive
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

func (Personnel) TableName() string {
	return "mes_personnel"
}

// Shift 班次
type Shift struct {
	ID          string    `json:"id" gorm:"primaryKey;type:uuid;default:gen_random_uuid()"`
	Code        string    `json:"code" gorm:"size:50;not null;uniqueIndex"`
	Name        string    `json:"name" gorm:"size:100;not null"`
	StartTime   string    `json:"start_time" gorm:"size:10;not null"` // HH:MM
	EndTime     string    `json:"end_time" gorm:"size:10;not null"`   // HH:MM
	Description string    `json:"description" gorm:"type:text"`
	Active      bool      `json:"active" gorm:"default:true"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func (Shift) TableName() string {
	return "mes_shifts"
}

// Routing 工艺路线表头，同一产品至多一个激活版本
type Routing struct {
	ID          string    `json:"id" gorm:"primaryKey;type:uuid;default:gen_random_uuid()"`
	Code        string    `json:"code" gorm:"size:50;not null;uniqueIndex"`
	Name        string    `json:"name" gorm:"size:200;not null"`
	ProductID   string    `json:"product_id" gorm:"type:uuid;not null;index"`
	Version     string    `json:"version" gorm:"size:20;default:1.0"`
	IsActive    bool      `json:"is_active" gorm:"default:true"`
	Description string    `json:"description" gorm:"type:text"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`

	Items []RoutingItem `json:"items,omitempty" gorm:"foreignKey:RoutingID"`
}

func (Routing) TableName() string {
	return "mes_routings"
}

// RoutingItem 工艺路线明细
type RoutingItem struct {
	ID           string    `json:"id" gorm:"primaryKey;type:uuid;default:gen_random_uuid()"`
	RoutingID    string    `json:"routing_id" gorm:"type:uuid;not null;index"`
	OperationID  string    `json:"operation_id" gorm:"type:uuid;not null"`
	Sequence     int       `json:"sequence" gorm:"not null"`
	EquipmentID  string    `json:"equipment_id" gorm:"size:36"`
	StandardTime float64   `json:"standard_time" gorm:"type:decimal(12,4);default:0"` // 标准工时(分钟/件)
	SetupTime    float64   `json:"setup_time" gorm:"type:decimal(12,4);default:0"`    // 准备时间(分钟)
	Description  string    `json:"description" gorm:"type:text"`
	CreatedAt    time.Time `json:"created_at"`

	Operation *Operation `json:"operation,omitempty" gorm:"foreignKey:OperationID"`
}

func (RoutingItem) TableName() string {
	return "mes_routing_items"
}
