package entity

import "gorm.io/gorm"

// AutoMigrate 自动迁移所有MES表
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		// 基础数据
		&UOM{},
		&Warehouse{},
		&Material{},
		&BOM{},
		&BOMItem{},
		&Operation{},
		&Equipment{},
		&Tooling{},
		&Personnel{},
		&Shift{},
		&Routing{},
		&RoutingItem{},

		// 生产执行
		&WorkOrder{},
		&WorkOrderOperation{},
		&WorkReport{},
		&WIPTracking{},

		// 库存
		&Inventory{},
		&MaterialTransaction{},
		&MaterialPick{},
		&MaterialPickItem{},
	)
}
