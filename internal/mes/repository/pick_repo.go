package repository

import (
	"github.com/bitfantasy/nimo-mes/internal/mes/entity"
	"gorm.io/gorm"
)

// PickRepository 领料单仓库
type PickRepository struct {
	db *gorm.DB
}

func NewPickRepository(db *gorm.DB) *PickRepository {
	return &PickRepository{db: db}
}

func (r *PickRepository) Create(pick *entity.MaterialPick) error {
	return r.db.Create(pick).Error
}

func (r *PickRepository) GetByID(id string) (*entity.MaterialPick, error) {
	var pick entity.MaterialPick
	err := r.db.Preload("Items").Preload("Items.Material").Where("id = ?", id).First(&pick).Error
	return &pick, err
}

func (r *PickRepository) Update(pick *entity.MaterialPick) error {
	return r.db.Save(pick).Error
}

type PickListParams struct {
	Status      string
	WorkOrderID string
	Page        int
	Size        int
}

func (r *PickRepository) List(params PickListParams) ([]entity.MaterialPick, int64, error) {
	query := r.db.Model(&entity.MaterialPick{})
	if params.Status != "" {
		query = query.Where("status = ?", params.Status)
	}
	if params.WorkOrderID != "" {
		query = query.Where("work_order_id = ?", params.WorkOrderID)
	}
	var total int64
	query.Count(&total)
	if params.Page <= 0 {
		params.Page = 1
	}
	if params.Size <= 0 {
		params.Size = 20
	}
	var picks []entity.MaterialPick
	err := query.Order("request_date DESC").Offset((params.Page - 1) * params.Size).Limit(params.Size).Find(&picks).Error
	return picks, total, err
}

// DB 返回底层db用于事务
func (r *PickRepository) DB() *gorm.DB {
	return r.db
}
