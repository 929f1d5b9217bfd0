package repository

import (
	"github.com/bitfantasy/nimo-mes/internal/mes/entity"
	"gorm.io/gorm"
)

// TemplateRepository BOM/工艺路线模板仓库
type TemplateRepository struct {
	db *gorm.DB
}

func NewTemplateRepository(db *gorm.DB) *TemplateRepository {
	return &TemplateRepository{db: db}
}

func (r *TemplateRepository) CreateBOM(bom *entity.BOM) error {
	return r.db.Create(bom).Error
}

func (r *TemplateRepository) GetBOM(id string) (*entity.BOM, error) {
	var bom entity.BOM
	err := r.db.Preload("Items", func(db *gorm.DB) *gorm.DB {
		return db.Order("sequence ASC")
	}).Where("id = ?", id).First(&bom).Error
	return &bom, err
}

func (r *TemplateRepository) UpdateBOM(bom *entity.BOM) error {
	return r.db.Save(bom).Error
}

// GetActiveBOMByProduct 获取产品当前激活的BOM（版本号最高者）
func (r *TemplateRepository) GetActiveBOMByProduct(productID string) (*entity.BOM, error) {
	var bom entity.BOM
	err := r.db.Where("product_id = ? AND is_active = true", productID).
		Order("version DESC").First(&bom).Error
	return &bom, err
}

// CountActiveBOMs 统计产品激活BOM数量，excludeID 用于更新时排除自身
func (r *TemplateRepository) CountActiveBOMs(productID, excludeID string) (int64, error) {
	query := r.db.Model(&entity.BOM{}).Where("product_id = ? AND is_active = true", productID)
	if excludeID != "" {
		query = query.Where("id <> ?", excludeID)
	}
	var count int64
	err := query.Count(&count).Error
	return count, err
}

type BOMListParams struct {
	ProductID  string
	ActiveOnly bool
	Page       int
	Size       int
}

func (r *TemplateRepository) ListBOMs(params BOMListParams) ([]entity.BOM, int64, error) {
	query := r.db.Model(&entity.BOM{})
	if params.ProductID != "" {
		query = query.Where("product_id = ?", params.ProductID)
	}
	if params.ActiveOnly {
		query = query.Where("is_active = true")
	}
	var total int64
	query.Count(&total)
	if params.Page <= 0 {
		params.Page = 1
	}
	if params.Size <= 0 {
		params.Size = 20
	}
	var items []entity.BOM
	err := query.Order("code ASC, version DESC").
		Offset((params.Page - 1) * params.Size).Limit(params.Size).Find(&items).Error
	return items, total, err
}

func (r *TemplateRepository) CreateRouting(routing *entity.Routing) error {
	return r.db.Create(routing).Error
}

func (r *TemplateRepository) GetRouting(id string) (*entity.Routing, error) {
	var routing entity.Routing
	err := r.db.Preload("Items", func(db *gorm.DB) *gorm.DB {
		return db.Order("sequence ASC")
	}).Preload("Items.Operation").Where("id = ?", id).First(&routing).Error
	return &routing, err
}

func (r *TemplateRepository) UpdateRouting(routing *entity.Routing) error {
	return r.db.Save(routing).Error
}

// GetActiveRoutingByProduct 获取产品当前激活的工艺路线（版本号最高者）
func (r *TemplateRepository) GetActiveRoutingByProduct(productID string) (*entity.Routing, error) {
	var routing entity.Routing
	err := r.db.Where("product_id = ? AND is_active = true", productID).
		Order("version DESC").First(&routing).Error
	return &routing, err
}

// CountActiveRoutings 统计产品激活工艺路线数量，excludeID 用于更新时排除自身
func (r *TemplateRepository) CountActiveRoutings(productID, excludeID string) (int64, error) {
	query := r.db.Model(&entity.Routing{}).Where("product_id = ? AND is_active = true", productID)
	if excludeID != "" {
		query = query.Where("id <> ?", excludeID)
	}
	var count int64
	err := query.Count(&count).Error
	return count, err
}

type RoutingListParams struct {
	ProductID  string
	ActiveOnly bool
	Page       int
	Size       int
}

func (r *TemplateRepository) ListRoutings(params RoutingListParams) ([]entity.Routing, int64, error) {
	query := r.db.Model(&entity.Routing{})
	if params.ProductID != "" {
		query = query.Where("product_id = ?", params.ProductID)
	}
	if params.ActiveOnly {
		query = query.Where("is_active = true")
	}
	var total int64
	query.Count(&total)
	if params.Page <= 0 {
		params.Page = 1
	}
	if params.Size <= 0 {
		params.Size = 20
	}
	var items []entity.Routing
	err := query.Order("code ASC, version DESC").
		Offset((params.Page - 1) * params.Size).Limit(params.Size).Find(&items).Error
	return items, total, err
}

// DB 返回底层db用于事务
func (r *TemplateRepository) DB() *gorm.DB {
	return r.db
}
