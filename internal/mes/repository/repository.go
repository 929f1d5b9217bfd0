package repository

import "gorm.io/gorm"

// Repositories MES 仓库集合
type Repositories struct {
	Master    *MasterRepository
	Template  *TemplateRepository
	WorkOrder *WorkOrderRepository
	Inventory *InventoryRepository
	Pick      *PickRepository
}

func NewRepositories(db *gorm.DB) *Repositories {
	return &Repositories{
		Master:    NewMasterRepository(db),
		Template:  NewTemplateRepository(db),
		WorkOrder: NewWorkOrderRepository(db),
		Inventory: NewInventoryRepository(db),
		Pick:      NewPickRepository(db),
	}
}
