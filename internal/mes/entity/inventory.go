package entity

import (
	"time"
)

// TransactionType 物料事务类型
const (
	TxTypePick     = "pick"     // 领料
	TxTypeReturn   = "return"   // 退料
	TxTypeIssue    = "issue"    // 发料
	TxTypeReceive  = "receive"  // 收货
	TxTypeAdjust   = "adjust"   // 调整
	TxTypeTransfer = "transfer" // 转移
)

// ValidTransactionType 校验事务类型
func ValidTransactionType(t string) bool {
	switch t {
	case TxTypePick, TxTypeReturn, TxTypeIssue, TxTypeReceive, TxTypeAdjust, TxTypeTransfer:
		return true
	}
	return false
}

// Inventory 库存记录，(warehouse_id, material_id, batch_number) 唯一
type Inventory struct {
	ID                string     `json:"id" gorm:"primaryKey;type:uuid;default:gen_random_uuid()"`
	WarehouseID       string     `json:"warehouse_id" gorm:"type:uuid;not null;index;uniqueIndex:idx_inventory_key,priority:1"`
	MaterialID        string     `json:"material_id" gorm:"type:uuid;not null;index;uniqueIndex:idx_inventory_key,priority:2"`
	BatchNumber       string     `json:"batch_number" gorm:"size:100;uniqueIndex:idx_inventory_key,priority:3"`
	Quantity          float64    `json:"quantity" gorm:"type:decimal(12,4);default:0"`
	AvailableQuantity float64    `json:"available_quantity" gorm:"type:decimal(12,4);default:0"`
	AllocatedQuantity float64    `json:"allocated_quantity" gorm:"type:decimal(12,4);default:0"`
	Location          string     `json:"location" gorm:"size:100"` // 库位
	UnitPrice         float64    `json:"unit_price" gorm:"type:decimal(12,4);default:0"`
	ProductionDate    *time.Time `json:"production_date"`
	ExpiryDate        *time.Time `json:"expiry_date"`
	CreatedAt         time.Time  `json:"created_at"`
	UpdatedAt         time.Time  `json:"updated_at"`

	Warehouse *Warehouse `json:"warehouse,omitempty" gorm:"foreignKey:WarehouseID"`
	Material  *Material  `json:"material,omitempty" gorm:"foreignKey:MaterialID"`
}

func (Inventory) TableName() string {
	return "mes_inventory"
}

// MaterialTransaction 物料事务（不可变流水，库存行是其物化视图）
type MaterialTransaction struct {
	ID              string    `json:"id" gorm:"primaryKey;type:uuid;default:gen_random_uuid()"`
	TransactionType string    `json:"transaction_type" gorm:"size:20;not null"`
	MaterialID      string    `json:"material_id" gorm:"type:uuid;not null;index"`
	WarehouseID     string    `json:"warehouse_id" gorm:"type:uuid;not null;index"`
	WorkOrderID     string    `json:"work_order_id" gorm:"size:36;index"`
	BatchNumber     string    `json:"batch_number" gorm:"size:100"`
	Quantity        float64   `json:"quantity" gorm:"type:decimal(12,4);not null"`
	UnitPrice       float64   `json:"unit_price" gorm:"type:decimal(12,4);default:0"`
	FromLocation    string    `json:"from_location" gorm:"size:100"`
	ToLocation      string    `json:"to_location" gorm:"size:100"`
	OperatorID      string    `json:"operator_id" gorm:"size:36"`
	ReferenceNo     string    `json:"reference_no" gorm:"size:100"` // 参考单号
	Notes           string    `json:"notes" gorm:"type:text"`
	TransactionDate time.Time `json:"transaction_date"`
	CreatedAt       time.Time `json:"created_at"`
}

func (MaterialTransaction) TableName() string {
	return "mes_material_transactions"
}

// MaterialPickStatus 领料单状态
const (
	PickStatusDraft     = "draft"
	PickStatusConfirmed = "confirmed"
	PickStatusCompleted = "completed"
	PickStatusCancelled = "cancelled"
)

// MaterialPickAction 领料单状态机动作
const (
	PickActionConfirm  = "confirm"
	PickActionComplete = "complete"
	PickActionCancel   = "cancel"
)

var materialPickTransitions = map[string]map[string]string{
	PickActionConfirm: {
		PickStatusDraft: PickStatusConfirmed,
	},
	PickActionComplete: {
		PickStatusConfirmed: PickStatusCompleted,
	},
	PickActionCancel: {
		PickStatusDraft:     PickStatusCancelled,
		PickStatusConfirmed: PickStatusCancelled,
	},
}

// MaterialPickTransition 返回领料单在当前状态下执行动作后的目标状态。
func MaterialPickTransition(status, action string) (string, bool) {
	next, ok := materialPickTransitions[action][status]
	return next, ok
}

// PickType 领料单类型
const (
	PickTypeNormal = "normal"
	PickTypeBOM    = "bom"
)

// MaterialPick 领料单
type MaterialPick struct {
	ID          string     `json:"id" gorm:"primaryKey;type:uuid;default:gen_random_uuid()"`
	Code        string     `json:"code" gorm:"size:50;not null;uniqueIndex"`
	WorkOrderID string     `json:"work_order_id" gorm:"size:36;index"`
	WarehouseID string     `json:"warehouse_id" gorm:"type:uuid;not null"`
	PickType    string     `json:"pick_type" gorm:"size:20;default:normal"` // normal, bom
	Status      string     `json:"status" gorm:"size:20;default:draft"`
	RequesterID string     `json:"requester_id" gorm:"size:36"`
	PickerID    string     `json:"picker_id" gorm:"size:36"`
	RequestDate time.Time  `json:"request_date"`
	PickDate    *time.Time `json:"pick_date"`
	Notes       string     `json:"notes" gorm:"type:text"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`

	Items []MaterialPickItem `json:"items,omitempty" gorm:"foreignKey:PickID;constraint:OnDelete:CASCADE"`
}

func (MaterialPick) TableName() string {
	return "mes_material_picks"
}

// MaterialPickItem 领料单明细
type MaterialPickItem struct {
	ID               string    `json:"id" gorm:"primaryKey;type:uuid;default:gen_random_uuid()"`
	PickID           string    `json:"pick_id" gorm:"type:uuid;not null;index"`
	MaterialID       string    `json:"material_id" gorm:"type:uuid;not null"`
	BatchNumber      string    `json:"batch_number" gorm:"size:100"`
	RequiredQuantity float64   `json:"required_quantity" gorm:"type:decimal(12,4);not null"`
	PickedQuantity   float64   `json:"picked_quantity" gorm:"type:decimal(12,4);default:0"`
	Location         string    `json:"location" gorm:"size:100"`
	Notes            string    `json:"notes" gorm:"type:text"`
	CreatedAt        time.Time `json:"created_at"`

	Material *Material `json:"material,omitempty" gorm:"foreignKey:MaterialID"`
}

func (MaterialPickItem) TableName() string {
	return "mes_material_pick_items"
}
