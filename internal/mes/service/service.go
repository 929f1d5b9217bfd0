package service

import (
	"github.com/bitfantasy/nimo-mes/internal/mes/repository"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Services MES 服务集合
type Services struct {
	Master    *MasterService
	Explosion *ExplosionService
	WorkOrder *WorkOrderService
	Report    *WorkReportService
	Schedule  *ScheduleService
	Inventory *InventoryService
	Pick      *PickService
}

func NewServices(repos *repository.Repositories, db *gorm.DB, rdb *redis.Client) *Services {
	inventory := NewInventoryService(repos.Inventory, repos.Master, db)
	return &Services{
		Master:    NewMasterService(repos.Master, repos.Template),
		Explosion: NewExplosionService(repos.Template),
		WorkOrder: NewWorkOrderService(repos.WorkOrder, repos.Master, repos.Template, db),
		Report:    NewWorkReportService(repos.WorkOrder, db),
		Schedule:  NewScheduleService(repos.WorkOrder, repos.Master, rdb),
		Inventory: inventory,
		Pick:      NewPickService(repos.Pick, repos.WorkOrder, repos.Template, inventory, db),
	}
}

// lockForUpdate 行级锁，读-改-写期间阻止并发更新
func lockForUpdate(tx *gorm.DB) *gorm.DB {
	return tx.Clauses(clause.Locking{Strength: "UPDATE"})
}
