package service

import (
	"errors"
	"fmt"

	"github.com/bitfantasy/nimo-mes/internal/mes/entity"
	"github.com/bitfantasy/nimo-mes/internal/mes/repository"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// MasterService 基础数据维护：物料、仓库、设备、工序、人员、班次、
// 计量单位，以及 BOM/工艺路线模板（含单一激活版本约束）。
type MasterService struct {
	masterRepo   *repository.MasterRepository
	templateRepo *repository.TemplateRepository
}

func NewMasterService(masterRepo *repository.MasterRepository, templateRepo *repository.TemplateRepository) *MasterService {
	return &MasterService{masterRepo: masterRepo, templateRepo: templateRepo}
}

func notFoundOr(err error, msg string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("%s: %w", msg, ErrNotFound)
	}
	return err
}

type CreateMaterialRequest struct {
	Code          string  `json:"code" binding:"required"`
	Name          string  `json:"name" binding:"required"`
	Specification string  `json:"specification"`
	MaterialType  string  `json:"material_type" binding:"required"`
	UOMID         string  `json:"uom_id"`
	UnitPrice     float64 `json:"unit_price"`
	SafetyStock   float64 `json:"safety_stock"`
	LeadTime      int     `json:"lead_time"`
	Supplier      string  `json:"supplier"`
	Description   string  `json:"description"`
}

func (s *MasterService) CreateMaterial(req CreateMaterialRequest) (*entity.Material, error) {
	switch req.MaterialType {
	case entity.MaterialTypeRaw, entity.MaterialTypeSemi, entity.MaterialTypeFinished:
	default:
		return nil, fmt.Errorf("未知物料类型 %s: %w", req.MaterialType, ErrValidation)
	}
	if req.UOMID != "" {
		uom, err := s.masterRepo.GetUOM(req.UOMID)
		if err != nil {
			return nil, notFoundOr(err, "计量单位不存在")
		}
		if !uom.Active {
			return nil, fmt.Errorf("计量单位 %s 已停用: %w", uom.Code, ErrValidation)
		}
	}
	m := &entity.Material{
		ID:            uuid.New().String(),
		Code:          req.Code,
		Name:          req.Name,
		Specification: req.Specification,
		MaterialType:  req.MaterialType,
		UOMID:         req.UOMID,
		UnitPrice:     req.UnitPrice,
		SafetyStock:   req.SafetyStock,
		LeadTime:      req.LeadTime,
		Supplier:      req.Supplier,
		Description:   req.Description,
		Active:        true,
	}
	if err := s.masterRepo.CreateMaterial(m); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, fmt.Errorf("物料编码 %s 已存在: %w", req.Code, ErrValidation)
		}
		return nil, fmt.Errorf("创建物料失败: %w", err)
	}
	return m, nil
}

func (s *MasterService) GetMaterial(id string) (*entity.Material, error) {
	m, err := s.masterRepo.GetMaterial(id)
	if err != nil {
		return nil, notFoundOr(err, "物料不存在")
	}
	return m, nil
}

func (s *MasterService) ListMaterials(params repository.MaterialListParams) ([]entity.Material, int64, error) {
	return s.masterRepo.ListMaterials(params)
}

func (s *MasterService) CreateWarehouse(w *entity.Warehouse) error {
	if w.ID == "" {
		w.ID = uuid.New().String()
	}
	w.Active = true
	if err := s.masterRepo.CreateWarehouse(w); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return fmt.Errorf("仓库编码 %s 已存在: %w", w.Code, ErrValidation)
		}
		return fmt.Errorf("创建仓库失败: %w", err)
	}
	return nil
}

func (s *MasterService) GetWarehouse(id string) (*entity.Warehouse, error) {
	w, err := s.masterRepo.GetWarehouse(id)
	if err != nil {
		return nil, notFoundOr(err, "仓库不存在")
	}
	return w, nil
}

func (s *MasterService) ListWarehouses() ([]entity.Warehouse, error) {
	return s.masterRepo.ListWarehouses()
}

func (s *MasterService) CreateEquipment(e *entity.Equipment) error {
	if e.ID == "" {
		e.ID = uuid.New().String()
	}
	if e.Status == "" {
		e.Status = entity.EquipmentStatusIdle
	}
	if err := s.masterRepo.CreateEquipment(e); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return fmt.Errorf("设备编码 %s 已存在: %w", e.Code, ErrValidation)
		}
		return fmt.Errorf("创建设备失败: %w", err)
	}
	return nil
}

func (s *MasterService) GetEquipment(id string) (*entity.Equipment, error) {
	e, err := s.masterRepo.GetEquipment(id)
	if err != nil {
		return nil, notFoundOr(err, "设备不存在")
	}
	return e, nil
}

func (s *MasterService) ListEquipment() ([]entity.Equipment, error) {
	return s.masterRepo.ListEquipment()
}

func (s *MasterService) CreateOperation(op *entity.Operation) error {
	if op.ID == "" {
		op.ID = uuid.New().String()
	}
	if op.StandardTime < 0 {
		return fmt.Errorf("标准工时不能为负: %w", ErrValidation)
	}
	if err := s.masterRepo.CreateOperation(op); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return fmt.Errorf("工序编码 %s 已存在: %w", op.Code, ErrValidation)
		}
		return fmt.Errorf("创建工序失败: %w", err)
	}
	return nil
}

func (s *MasterService) GetOperation(id string) (*entity.Operation, error) {
	op, err := s.masterRepo.GetOperation(id)
	if err != nil {
		return nil, notFoundOr(err, "工序不存在")
	}
	return op, nil
}

func (s *MasterService) ListOperations() ([]entity.Operation, error) {
	return s.masterRepo.ListOperations()
}

func (s *MasterService) CreatePersonnel(p *entity.Personnel) error {
	if p.ID == "" {
		p.ID = uuid.New().String()
	}
	if err := s.masterRepo.CreatePersonnel(p); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return fmt.Errorf("人员编码 %s 已存在: %w", p.Code, ErrValidation)
		}
		return fmt.Errorf("创建人员失败: %w", err)
	}
	return nil
}

func (s *MasterService) GetPersonnel(id string) (*entity.Personnel, error) {
	p, err := s.masterRepo.GetPersonnel(id)
	if err != nil {
		return nil, notFoundOr(err, "人员不存在")
	}
	return p, nil
}

func (s *MasterService) ListPersonnel() ([]entity.Personnel, error) {
	return s.masterRepo.ListPersonnel()
}

func (s *MasterService) CreateShift(shift *entity.Shift) error {
	if shift.ID == "" {
		shift.ID = uuid.New().String()
	}
	shift.Active = true
	if err := s.masterRepo.CreateShift(shift); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return fmt.Errorf("班次编码 %s 已存在: %w", shift.Code, ErrValidation)
		}
		return fmt.Errorf("创建班次失败: %w", err)
	}
	return nil
}

func (s *MasterService) GetShift(id string) (*entity.Shift, error) {
	shift, err := s.masterRepo.GetShift(id)
	if err != nil {
		return nil, notFoundOr(err, "班次不存在")
	}
	return shift, nil
}

func (s *MasterService) ListShifts() ([]entity.Shift, error) {
	return s.masterRepo.ListShifts()
}

func (s *MasterService) CreateTooling(t *entity.Tooling) error {
	if t.ID == "" {
		t.ID = uuid.New().String()
	}
	if t.Status == "" {
		t.Status = "available"
	}
	if err := s.masterRepo.CreateTooling(t); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return fmt.Errorf("工装编码 %s 已存在: %w", t.Code, ErrValidation)
		}
		return fmt.Errorf("创建工装失败: %w", err)
	}
	return nil
}

func (s *MasterService) GetTooling(id string) (*entity.Tooling, error) {
	t, err := s.masterRepo.GetTooling(id)
	if err != nil {
		return nil, notFoundOr(err, "工装不存在")
	}
	return t, nil
}

func (s *MasterService) ListTooling() ([]entity.Tooling, error) {
	return s.masterRepo.ListTooling()
}

func (s *MasterService) CreateUOM(u *entity.UOM) error {
	if u.ID == "" {
		u.ID = uuid.New().String()
	}
	u.Active = true
	if err := s.masterRepo.CreateUOM(u); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return fmt.Errorf("计量单位编码 %s 已存在: %w", u.Code, ErrValidation)
		}
		return fmt.Errorf("创建计量单位失败: %w", err)
	}
	return nil
}

func (s *MasterService) ListUOMs() ([]entity.UOM, error) {
	return s.masterRepo.ListUOMs()
}

type BOMItemRequest struct {
	MaterialID  string  `json:"material_id" binding:"required"`
	Quantity    float64 `json:"quantity" binding:"required,gt=0"`
	Sequence    int     `json:"sequence"`
	ScrapRate   float64 `json:"scrap_rate"`
	Description string  `json:"description"`
}

type CreateBOMRequest struct {
	Code        string           `json:"code" binding:"required"`
	Name        string           `json:"name" binding:"required"`
	ProductID   string           `json:"product_id" binding:"required"`
	Version     string           `json:"version"`
	Quantity    float64          `json:"quantity"`
	IsActive    *bool            `json:"is_active"`
	Description string           `json:"description"`
	Items       []BOMItemRequest `json:"items" binding:"required,min=1,dive"`
}

// CreateBOM 创建BOM版本。同一产品同时只允许一个激活版本。
func (s *MasterService) CreateBOM(req CreateBOMRequest) (*entity.BOM, error) {
	if _, err := s.masterRepo.GetMaterial(req.ProductID); err != nil {
		return nil, notFoundOr(err, "产品不存在")
	}
	for _, item := range req.Items {
		if item.ScrapRate < 0 {
			return nil, fmt.Errorf("损耗率不能为负: %w", ErrValidation)
		}
	}

	active := true
	if req.IsActive != nil {
		active = *req.IsActive
	}
	if active {
		count, err := s.templateRepo.CountActiveBOMs(req.ProductID, "")
		if err != nil {
			return nil, err
		}
		if count > 0 {
			return nil, fmt.Errorf("产品已存在激活BOM: %w", ErrDuplicateActiveVersion)
		}
	}

	bom := &entity.BOM{
		ID:          uuid.New().String(),
		Code:        req.Code,
		Name:        req.Name,
		ProductID:   req.ProductID,
		Version:     req.Version,
		Quantity:    req.Quantity,
		IsActive:    active,
		Description: req.Description,
	}
	if bom.Version == "" {
		bom.Version = "1.0"
	}
	if bom.Quantity <= 0 {
		bom.Quantity = 1
	}
	for _, item := range req.Items {
		bom.Items = append(bom.Items, entity.BOMItem{
			ID:          uuid.New().String(),
			BOMID:       bom.ID,
			MaterialID:  item.MaterialID,
			Quantity:    item.Quantity,
			Sequence:    item.Sequence,
			ScrapRate:   item.ScrapRate,
			Description: item.Description,
		})
	}
	if err := s.templateRepo.CreateBOM(bom); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, fmt.Errorf("BOM编码 %s 已存在: %w", req.Code, ErrValidation)
		}
		return nil, fmt.Errorf("创建BOM失败: %w", err)
	}
	return bom, nil
}

func (s *MasterService) GetBOM(id string) (*entity.BOM, error) {
	bom, err := s.templateRepo.GetBOM(id)
	if err != nil {
		return nil, notFoundOr(err, "BOM不存在")
	}
	return bom, nil
}

func (s *MasterService) ListBOMs(params repository.BOMListParams) ([]entity.BOM, int64, error) {
	return s.templateRepo.ListBOMs(params)
}

type UpdateBOMRequest struct {
	Name        *string `json:"name"`
	Version     *string `json:"version"`
	IsActive    *bool   `json:"is_active"`
	Description *string `json:"description"`
}

// UpdateBOM 更新BOM表头。激活时校验同产品无其它激活版本。
func (s *MasterService) UpdateBOM(id string, req UpdateBOMRequest) (*entity.BOM, error) {
	bom, err := s.GetBOM(id)
	if err != nil {
		return nil, err
	}
	if req.IsActive != nil && *req.IsActive && !bom.IsActive {
		count, err := s.templateRepo.CountActiveBOMs(bom.ProductID, bom.ID)
		if err != nil {
			return nil, err
		}
		if count > 0 {
			return nil, fmt.Errorf("产品已存在激活BOM: %w", ErrDuplicateActiveVersion)
		}
	}
	if req.Name != nil {
		bom.Name = *req.Name
	}
	if req.Version != nil {
		bom.Version = *req.Version
	}
	if req.IsActive != nil {
		bom.IsActive = *req.IsActive
	}
	if req.Description != nil {
		bom.Description = *req.Description
	}
	if err := s.templateRepo.UpdateBOM(bom); err != nil {
		return nil, fmt.Errorf("更新BOM失败: %w", err)
	}
	return bom, nil
}

type RoutingItemRequest struct {
	OperationID  string  `json:"operation_id" binding:"required"`
	Sequence     int     `json:"sequence" binding:"required,gt=0"`
	EquipmentID  string  `json:"equipment_id"`
	StandardTime float64 `json:"standard_time"`
	SetupTime    float64 `json:"setup_time"`
	Description  string  `json:"description"`
}

type CreateRoutingRequest struct {
	Code        string               `json:"code" binding:"required"`
	Name        string               `json:"name" binding:"required"`
	ProductID   string               `json:"product_id" binding:"required"`
	Version     string               `json:"version"`
	IsActive    *bool                `json:"is_active"`
	Description string               `json:"description"`
	Items       []RoutingItemRequest `json:"items" binding:"required,min=1,dive"`
}

// CreateRouting 创建工艺路线版本。同一产品同时只允许一个激活版本。
func (s *MasterService) CreateRouting(req CreateRoutingRequest) (*entity.Routing, error) {
	if _, err := s.masterRepo.GetMaterial(req.ProductID); err != nil {
		return nil, notFoundOr(err, "产品不存在")
	}
	for _, item := range req.Items {
		if _, err := s.masterRepo.GetOperation(item.OperationID); err != nil {
			return nil, notFoundOr(err, "工序不存在")
		}
	}

	active := true
	if req.IsActive != nil {
		active = *req.IsActive
	}
	if active {
		count, err := s.templateRepo.CountActiveRoutings(req.ProductID, "")
		if err != nil {
			return nil, err
		}
		if count > 0 {
			return nil, fmt.Errorf("产品已存在激活工艺路线: %w", ErrDuplicateActiveVersion)
		}
	}

	routing := &entity.Routing{
		ID:          uuid.New().String(),
		Code:        req.Code,
		Name:        req.Name,
		ProductID:   req.ProductID,
		Version:     req.Version,
		IsActive:    active,
		Description: req.Description,
	}
	if routing.Version == "" {
		routing.Version = "1.0"
	}
	for _, item := range req.Items {
		routing.Items = append(routing.Items, entity.RoutingItem{
			ID:           uuid.New().String(),
			RoutingID:    routing.ID,
			OperationID:  item.OperationID,
			Sequence:     item.Sequence,
			EquipmentID:  item.EquipmentID,
			StandardTime: item.StandardTime,
			SetupTime:    item.SetupTime,
			Description:  item.Description,
		})
	}
	if err := s.templateRepo.CreateRouting(routing); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, fmt.Errorf("工艺路线编码 %s 已存在: %w", req.Code, ErrValidation)
		}
		return nil, fmt.Errorf("创建工艺路线失败: %w", err)
	}
	return routing, nil
}

func (s *MasterService) GetRouting(id string) (*entity.Routing, error) {
	routing, err := s.templateRepo.GetRouting(id)
	if err != nil {
		return nil, notFoundOr(err, "工艺路线不存在")
	}
	return routing, nil
}

func (s *MasterService) ListRoutings(params repository.RoutingListParams) ([]entity.Routing, int64, error) {
	return s.templateRepo.ListRoutings(params)
}

type UpdateRoutingRequest struct {
	Name        *string `json:"name"`
	Version     *string `json:"version"`
	IsActive    *bool   `json:"is_active"`
	Description *string `json:"description"`
}

// UpdateRouting 更新工艺路线表头。激活时校验同产品无其它激活版本。
func (s *MasterService) UpdateRouting(id string, req UpdateRoutingRequest) (*entity.Routing, error) {
	routing, err := s.GetRouting(id)
	if err != nil {
		return nil, err
	}
	if req.IsActive != nil && *req.IsActive && !routing.IsActive {
		count, err := s.templateRepo.CountActiveRoutings(routing.ProductID, routing.ID)
		if err != nil {
			return nil, err
		}
		if count > 0 {
			return nil, fmt.Errorf("产品已存在激活工艺路线: %w", ErrDuplicateActiveVersion)
		}
	}
	if req.Name != nil {
		routing.Name = *req.Name
	}
	if req.Version != nil {
		routing.Version = *req.Version
	}
	if req.IsActive != nil {
		routing.IsActive = *req.IsActive
	}
	if req.Description != nil {
		routing.Description = *req.Description
	}
	if err := s.templateRepo.UpdateRouting(routing); err != nil {
		return nil, fmt.Errorf("更新工艺路线失败: %w", err)
	}
	return routing, nil
}
