package handler

import (
	"strconv"

	"github.com/bitfantasy/nimo-mes/internal/mes/entity"
	"github.com/bitfantasy/nimo-mes/internal/mes/repository"
	"github.com/bitfantasy/nimo-mes/internal/mes/service"
	"github.com/gin-gonic/gin"
)

// MasterHandler 基础数据处理器
type MasterHandler struct {
	svc       *service.MasterService
	explosion *service.ExplosionService
}

// NewMasterHandler 创建基础数据处理器
func NewMasterHandler(svc *service.MasterService, explosion *service.ExplosionService) *MasterHandler {
	return &MasterHandler{svc: svc, explosion: explosion}
}

// CreateMaterial 创建物料
func (h *MasterHandler) CreateMaterial(c *gin.Context) {
	var req service.CreateMaterialRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "请求参数错误: "+err.Error())
		return
	}
	m, err := h.svc.CreateMaterial(req)
	if err != nil {
		HandleError(c, err)
		return
	}
	Created(c, m)
}

// GetMaterial 获取物料
func (h *MasterHandler) GetMaterial(c *gin.Context) {
	m, err := h.svc.GetMaterial(c.Param("id"))
	if err != nil {
		HandleError(c, err)
		return
	}
	Success(c, m)
}

// ListMaterials 物料列表
func (h *MasterHandler) ListMaterials(c *gin.Context) {
	page, pageSize := GetPagination(c)
	items, total, err := h.svc.ListMaterials(repository.MaterialListParams{
		MaterialType: c.Query("material_type"),
		Keyword:      c.Query("keyword"),
		Page:         page,
		Size:         pageSize,
	})
	if err != nil {
		InternalError(c, err.Error())
		return
	}
	Success(c, NewListResponse(items, page, pageSize, total))
}

// CreateWarehouse 创建仓库
func (h *MasterHandler) CreateWarehouse(c *gin.Context) {
	var w entity.Warehouse
	if err := c.ShouldBindJSON(&w); err != nil {
		BadRequest(c, "请求参数错误: "+err.Error())
		return
	}
	if w.Code == "" || w.Name == "" {
		BadRequest(c, "仓库编码与名称不能为空")
		return
	}
	if err := h.svc.CreateWarehouse(&w); err != nil {
		HandleError(c, err)
		return
	}
	Created(c, w)
}

// ListWarehouses 仓库列表
func (h *MasterHandler) ListWarehouses(c *gin.Context) {
	items, err := h.svc.ListWarehouses()
	if err != nil {
		InternalError(c, err.Error())
		return
	}
	Success(c, items)
}

// CreateEquipment 创建设备
func (h *MasterHandler) CreateEquipment(c *gin.Context) {
	var e entity.Equipment
	if err := c.ShouldBindJSON(&e); err != nil {
		BadRequest(c, "请求参数错误: "+err.Error())
		return
	}
	if e.Code == "" || e.Name == "" {
		BadRequest(c, "设备编码与名称不能为空")
		return
	}
	if err := h.svc.CreateEquipment(&e); err != nil {
		HandleError(c, err)
		return
	}
	Created(c, e)
}

// ListEquipment 设备列表
func (h *MasterHandler) ListEquipment(c *gin.Context) {
	items, err := h.svc.ListEquipment()
	if err != nil {
		InternalError(c, err.Error())
		return
	}
	Success(c, items)
}

// CreateOperation 创建工序定义
func (h *MasterHandler) CreateOperation(c *gin.Context) {
	var op entity.Operation
	if err := c.ShouldBindJSON(&op); err != nil {
		BadRequest(c, "请求参数错误: "+err.Error())
		return
	}
	if op.Code == "" || op.Name == "" {
		BadRequest(c, "工序编码与名称不能为空")
		return
	}
	if err := h.svc.CreateOperation(&op); err != nil {
		HandleError(c, err)
		return
	}
	Created(c, op)
}

// ListOperations 工序列表
func (h *MasterHandler) ListOperations(c *gin.Context) {
	items, err := h.svc.ListOperations()
	if err != nil {
		InternalError(c, err.Error())
		return
	}
	Success(c, items)
}

// CreatePersonnel 创建人员
func (h *MasterHandler) CreatePersonnel(c *gin.Context) {
	var p entity.Personnel
	if err := c.ShouldBindJSON(&p); err != nil {
		BadRequest(c, "请求参数错误: "+err.Error())
		return
	}
	if p.Code == "" || p.Name == "" {
		BadRequest(c, "人员编码与姓名不能为空")
		return
	}
	if err := h.svc.CreatePersonnel(&p); err != nil {
		HandleError(c, err)
		return
	}
	Created(c, p)
}

// ListPersonnel 人员列表
func (h *MasterHandler) ListPersonnel(c *gin.Context) {
	items, err := h.svc.ListPersonnel()
	if err != nil {
		InternalError(c, err.Error())
		return
	}
	Success(c, items)
}

// CreateShift 创建班次
func (h *MasterHandler) CreateShift(c *gin.Context) {
	var s entity.Shift
	if err := c.ShouldBindJSON(&s); err != nil {
		BadRequest(c, "请求参数错误: "+err.Error())
		return
	}
	if s.Code == "" || s.Name == "" || s.StartTime == "" || s.EndTime == "" {
		BadRequest(c, "班次编码、名称与起止时间不能为空")
		return
	}
	if err := h.svc.CreateShift(&s); err != nil {
		HandleError(c, err)
		return
	}
	Created(c, s)
}

// ListShifts 班次列表
func (h *MasterHandler) ListShifts(c *gin.Context) {
	items, err := h.svc.ListShifts()
	if err != nil {
		InternalError(c, err.Error())
		return
	}
	Success(c, items)
}

// CreateTooling 创建工装
func (h *MasterHandler) CreateTooling(c *gin.Context) {
	var t entity.Tooling
	if err := c.ShouldBindJSON(&t); err != nil {
		BadRequest(c, "请求参数错误: "+err.Error())
		return
	}
	if t.Code == "" || t.Name == "" {
		BadRequest(c, "工装编码与名称不能为空")
		return
	}
	if err := h.svc.CreateTooling(&t); err != nil {
		HandleError(c, err)
		return
	}
	Created(c, t)
}

// ListTooling 工装列表
func (h *MasterHandler) ListTooling(c *gin.Context) {
	items, err := h.svc.ListTooling()
	if err != nil {
		InternalError(c, err.Error())
		return
	}
	Success(c, items)
}

// CreateUOM 创建计量单位
func (h *MasterHandler) CreateUOM(c *gin.Context) {
	var u entity.UOM
	if err := c.ShouldBindJSON(&u); err != nil {
		BadRequest(c, "请求参数错误: "+err.Error())
		return
	}
	if u.Code == "" || u.Name == "" {
		BadRequest(c, "单位编码与名称不能为空")
		return
	}
	if err := h.svc.CreateUOM(&u); err != nil {
		HandleError(c, err)
		return
	}
	Created(c, u)
}

// ListUOMs 计量单位列表
func (h *MasterHandler) ListUOMs(c *gin.Context) {
	items, err := h.svc.ListUOMs()
	if err != nil {
		InternalError(c, err.Error())
		return
	}
	Success(c, items)
}

// CreateBOM 创建BOM
func (h *MasterHandler) CreateBOM(c *gin.Context) {
	var req service.CreateBOMRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "请求参数错误: "+err.Error())
		return
	}
	bom, err := h.svc.CreateBOM(req)
	if err != nil {
		HandleError(c, err)
		return
	}
	Created(c, bom)
}

// GetBOM 获取BOM（含明细）
func (h *MasterHandler) GetBOM(c *gin.Context) {
	bom, err := h.svc.GetBOM(c.Param("id"))
	if err != nil {
		HandleError(c, err)
		return
	}
	Success(c, bom)
}

// ListBOMs BOM列表
func (h *MasterHandler) ListBOMs(c *gin.Context) {
	page, pageSize := GetPagination(c)
	items, total, err := h.svc.ListBOMs(repository.BOMListParams{
		ProductID:  c.Query("product_id"),
		ActiveOnly: c.Query("active_only") == "true",
		Page:       page,
		Size:       pageSize,
	})
	if err != nil {
		InternalError(c, err.Error())
		return
	}
	Success(c, NewListResponse(items, page, pageSize, total))
}

// UpdateBOM 更新BOM表头
func (h *MasterHandler) UpdateBOM(c *gin.Context) {
	var req service.UpdateBOMRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "请求参数错误: "+err.Error())
		return
	}
	bom, err := h.svc.UpdateBOM(c.Param("id"), req)
	if err != nil {
		HandleError(c, err)
		return
	}
	Success(c, bom)
}

// ExplodeBOM 按数量展开BOM为物料需求
func (h *MasterHandler) ExplodeBOM(c *gin.Context) {
	qty, err := strconv.ParseFloat(c.DefaultQuery("quantity", "1"), 64)
	if err != nil || qty <= 0 {
		BadRequest(c, "展开数量必须大于0")
		return
	}
	materials, err := h.explosion.ExplodeBOM(c.Param("id"), qty)
	if err != nil {
		HandleError(c, err)
		return
	}
	Success(c, materials)
}

// CreateRouting 创建工艺路线
func (h *MasterHandler) CreateRouting(c *gin.Context) {
	var req service.CreateRoutingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "请求参数错误: "+err.Error())
		return
	}
	routing, err := h.svc.CreateRouting(req)
	if err != nil {
		HandleError(c, err)
		return
	}
	Created(c, routing)
}

// GetRouting 获取工艺路线（含明细）
func (h *MasterHandler) GetRouting(c *gin.Context) {
	routing, err := h.svc.GetRouting(c.Param("id"))
	if err != nil {
		HandleError(c, err)
		return
	}
	Success(c, routing)
}

// ListRoutings 工艺路线列表
func (h *MasterHandler) ListRoutings(c *gin.Context) {
	page, pageSize := GetPagination(c)
	items, total, err := h.svc.ListRoutings(repository.RoutingListParams{
		ProductID:  c.Query("product_id"),
		ActiveOnly: c.Query("active_only") == "true",
		Page:       page,
		Size:       pageSize,
	})
	if err != nil {
		InternalError(c, err.Error())
		return
	}
	Success(c, NewListResponse(items, page, pageSize, total))
}

// UpdateRouting 更新工艺路线表头
func (h *MasterHandler) UpdateRouting(c *gin.Context) {
	var req service.UpdateRoutingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "请求参数错误: "+err.Error())
		return
	}
	routing, err := h.svc.UpdateRouting(c.Param("id"), req)
	if err != nil {
		HandleError(c, err)
		return
	}
	Success(c, routing)
}

// ExplodeRouting 展开工艺路线为工序模板
func (h *MasterHandler) ExplodeRouting(c *gin.Context) {
	templates, err := h.explosion.ExplodeRouting(c.Param("id"))
	if err != nil {
		HandleError(c, err)
		return
	}
	Success(c, templates)
}
