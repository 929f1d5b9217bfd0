package service

import (
	"errors"
	"fmt"

	"github.com/bitfantasy/nimo-mes/internal/mes/entity"
	"github.com/bitfantasy/nimo-mes/internal/mes/repository"
	"gorm.io/gorm"
)

// OperationTemplate 工艺路线展开后的工序模板
type OperationTemplate struct {
	OperationID  string  `json:"operation_id"`
	Sequence     int     `json:"sequence"`
	EquipmentID  string  `json:"equipment_id"`
	StandardTime float64 `json:"standard_time"`
	SetupTime    float64 `json:"setup_time"`
}

// RequiredMaterial BOM展开后的物料需求
type RequiredMaterial struct {
	MaterialID       string  `json:"material_id"`
	RequiredQuantity float64 `json:"required_quantity"`
}

// ExplosionService 模板展开：工艺路线 -> 工序模板，BOM -> 物料需求
type ExplosionService struct {
	templateRepo *repository.TemplateRepository
}

func NewExplosionService(templateRepo *repository.TemplateRepository) *ExplosionService {
	return &ExplosionService{templateRepo: templateRepo}
}

// ExplodeRouting 将工艺路线展开为按序工序模板
func (s *ExplosionService) ExplodeRouting(routingID string) ([]OperationTemplate, error) {
	routing, err := s.templateRepo.GetRouting(routingID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("工艺路线不存在: %w", ErrNotFound)
		}
		return nil, fmt.Errorf("读取工艺路线失败: %w", err)
	}
	if len(routing.Items) == 0 {
		return nil, fmt.Errorf("工艺路线 %s 没有工序明细: %w", routing.Code, ErrNotFound)
	}
	return ExplodeRoutingItems(routing.Items), nil
}

// ExplodeBOM 将BOM按订单数量展开为物料需求，
// required = item.quantity * orderQty * (1 + item.scrap_rate)
func (s *ExplosionService) ExplodeBOM(bomID string, orderQty float64) ([]RequiredMaterial, error) {
	bom, err := s.templateRepo.GetBOM(bomID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("BOM不存在: %w", ErrNotFound)
		}
		return nil, fmt.Errorf("读取BOM失败: %w", err)
	}
	if len(bom.Items) == 0 {
		return nil, fmt.Errorf("BOM %s 没有明细: %w", bom.Code, ErrNotFound)
	}
	return ExplodeBOMItems(bom.Items, orderQty), nil
}

// ExplodeRoutingItems 纯计算部分，供工单创建复用
func ExplodeRoutingItems(items []entity.RoutingItem) []OperationTemplate {
	templates := make([]OperationTemplate, 0, len(items))
	for _, item := range items {
		templates = append(templates, OperationTemplate{
			OperationID:  item.OperationID,
			Sequence:     item.Sequence,
			EquipmentID:  item.EquipmentID,
			StandardTime: item.StandardTime,
			SetupTime:    item.SetupTime,
		})
	}
	return templates
}

// ExplodeBOMItems 纯计算部分，供BOM领料复用
func ExplodeBOMItems(items []entity.BOMItem, orderQty float64) []RequiredMaterial {
	materials := make([]RequiredMaterial, 0, len(items))
	for _, item := range items {
		materials = append(materials, RequiredMaterial{
			MaterialID:       item.MaterialID,
			RequiredQuantity: item.Quantity * orderQty * (1 + item.ScrapRate),
		})
	}
	return materials
}
