package repository

import (
	"github.com/bitfantasy/nimo-mes/internal/mes/entity"
	"gorm.io/gorm"
)

// MasterRepository 基础数据只读/维护仓库
type MasterRepository struct {
	db *gorm.DB
}

func NewMasterRepository(db *gorm.DB) *MasterRepository {
	return &MasterRepository{db: db}
}

func (r *MasterRepository) GetMaterial(id string) (*entity.Material, error) {
	var m entity.Material
	err := r.db.Preload("UOM").Where("id = ?", id).First(&m).Error
	return &m, err
}

type MaterialListParams struct {
	MaterialType string
	Keyword      string
	Page         int
	Size         int
}

func (r *MasterRepository) ListMaterials(params MaterialListParams) ([]entity.Material, int64, error) {
	query := r.db.Model(&entity.Material{})
	if params.MaterialType != "" {
		query = query.Where("material_type = ?", params.MaterialType)
	}
	if params.Keyword != "" {
		kw := "%" + params.Keyword + "%"
		query = query.Where("code ILIKE ? OR name ILIKE ?", kw, kw)
	}
	var total int64
	query.Count(&total)
	if params.Page <= 0 {
		params.Page = 1
	}
	if params.Size <= 0 {
		params.Size = 20
	}
	var items []entity.Material
	err := query.Order("code ASC").Offset((params.Page - 1) * params.Size).Limit(params.Size).Find(&items).Error
	return items, total, err
}

func (r *MasterRepository) CreateMaterial(m *entity.Material) error {
	return r.db.Create(m).Error
}

func (r *MasterRepository) GetWarehouse(id string) (*entity.Warehouse, error) {
	var w entity.Warehouse
	err := r.db.Where("id = ?", id).First(&w).Error
	return &w, err
}

func (r *MasterRepository) ListWarehouses() ([]entity.Warehouse, error) {
	var items []entity.Warehouse
	err := r.db.Order("code ASC").Find(&items).Error
	return items, err
}

func (r *MasterRepository) CreateWarehouse(w *entity.Warehouse) error {
	return r.db.Create(w).Error
}

func (r *MasterRepository) GetEquipment(id string) (*entity.Equipment, error) {
	var e entity.Equipment
	err := r.db.Where("id = ?", id).First(&e).Error
	return &e, err
}

func (r *MasterRepository) ListEquipment() ([]entity.Equipment, error) {
	var items []entity.Equipment
	err := r.db.Order("code ASC").Find(&items).Error
	return items, err
}

func (r *MasterRepository) CreateEquipment(e *entity.Equipment) error {
	return r.db.Create(e).Error
}

func (r *MasterRepository) GetOperation(id string) (*entity.Operation, error) {
	var op entity.Operation
	err := r.db.Where("id = ?", id).First(&op).Error
	return &op, err
}

func (r *MasterRepository) ListOperations() ([]entity.Operation, error) {
	var items []entity.Operation
	err := r.db.Order("code ASC").Find(&items).Error
	return items, err
}

func (r *MasterRepository) CreateOperation(op *entity.Operation) error {
	return r.db.Create(op).Error
}

func (r *MasterRepository) GetPersonnel(id string) (*entity.Personnel, error) {
	var p entity.Personnel
	err := r.db.Where("id = ?", id).First(&p).Error
	return &p, err
}

func (r *MasterRepository) ListPersonnel() ([]entity.Personnel, error) {
	var items []entity.Personnel
	err := r.db.Order("code ASC").Find(&items).Error
	return items, err
}

func (r *MasterRepository) CreatePersonnel(p *entity.Personnel) error {
	return r.db.Create(p).Error
}

func (r *MasterRepository) GetShift(id string) (*entity.Shift, error) {
	var s entity.Shift
	err := r.db.Where("id = ?", id).First(&s).Error
	return &s, err
}

func (r *MasterRepository) ListShifts() ([]entity.Shift, error) {
	var items []entity.Shift
	err := r.db.Order("code ASC").Find(&items).Error
	return items, err
}

func (r *MasterRepository) CreateShift(s *entity.Shift) error {
	return r.db.Create(s).Error
}

func (r *MasterRepository) GetTooling(id string) (*entity.Tooling, error) {
	var t entity.Tooling
	err := r.db.Where("id = ?", id).First(&t).Error
	return &t, err
}

func (r *MasterRepository) ListTooling() ([]entity.Tooling, error) {
	var items []entity.Tooling
	err := r.db.Order("code ASC").Find(&items).Error
	return items, err
}

func (r *MasterRepository) CreateTooling(t *entity.Tooling) error {
	return r.db.Create(t).Error
}

func (r *MasterRepository) GetUOM(id string) (*entity.UOM, error) {
	var u entity.UOM
	err := r.db.Where("id = ?", id).First(&u).Error
	return &u, err
}

func (r *MasterRepository) ListUOMs() ([]entity.UOM, error) {
	var items []entity.UOM
	err := r.db.Order("code ASC").Find(&items).Error
	return items, err
}

func (r *MasterRepository) CreateUOM(u *entity.UOM) error {
	return r.db.Create(u).Error
}

// ListOperationsByIDs 批量查询工序定义，供排程解析标准工时
func (r *MasterRepository) ListOperationsByIDs(ids []string) ([]entity.Operation, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var items []entity.Operation
	err := r.db.Where("id IN ?", ids).Find(&items).Error
	return items, err
}

// ListEquipmentByIDs 批量查询设备，供排程解析日产能
func (r *MasterRepository) ListEquipmentByIDs(ids []string) ([]entity.Equipment, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var items []entity.Equipment
	err := r.db.Where("id IN ?", ids).Find(&items).Error
	return items, err
}

// DB 返回底层db用于事务
func (r *MasterRepository) DB() *gorm.DB {
	return r.db
}
