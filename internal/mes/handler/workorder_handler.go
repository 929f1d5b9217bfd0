package handler

import (
	"github.com/bitfantasy/nimo-mes/internal/mes/repository"
	"github.com/bitfantasy/nimo-mes/internal/mes/service"
	"github.com/gin-gonic/gin"
)

// WorkOrderHandler 工单处理器
type WorkOrderHandler struct {
	svc *service.WorkOrderService
}

// NewWorkOrderHandler 创建工单处理器
func NewWorkOrderHandler(svc *service.WorkOrderService) *WorkOrderHandler {
	return &WorkOrderHandler{svc: svc}
}

// Create 创建工单
func (h *WorkOrderHandler) Create(c *gin.Context) {
	var req service.CreateWorkOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "请求参数错误: "+err.Error())
		return
	}

	wo, err := h.svc.Create(req, GetUserID(c))
	if err != nil {
		HandleError(c, err)
		return
	}
	Created(c, wo)
}

// Get 获取工单详情（含工序与产品）
func (h *WorkOrderHandler) Get(c *gin.Context) {
	wo, err := h.svc.GetByID(c.Param("id"))
	if err != nil {
		HandleError(c, err)
		return
	}
	Success(c, wo)
}

// List 工单列表
func (h *WorkOrderHandler) List(c *gin.Context) {
	page, pageSize := GetPagination(c)
	items, total, err := h.svc.List(repository.WOListParams{
		Status:    c.Query("status"),
		ProductID: c.Query("product_id"),
		Keyword:   c.Query("keyword"),
		Page:      page,
		Size:      pageSize,
	})
	if err != nil {
		InternalError(c, err.Error())
		return
	}
	Success(c, NewListResponse(items, page, pageSize, total))
}

// Update 更新工单计划字段
func (h *WorkOrderHandler) Update(c *gin.Context) {
	var req service.UpdateWorkOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "请求参数错误: "+err.Error())
		return
	}

	wo, err := h.svc.Update(c.Param("id"), req)
	if err != nil {
		HandleError(c, err)
		return
	}
	Success(c, wo)
}

// Delete 删除工单
func (h *WorkOrderHandler) Delete(c *gin.Context) {
	if err := h.svc.Delete(c.Param("id")); err != nil {
		HandleError(c, err)
		return
	}
	Success(c, nil)
}

// Release 下达工单
func (h *WorkOrderHandler) Release(c *gin.Context) {
	wo, err := h.svc.Release(c.Param("id"))
	if err != nil {
		HandleError(c, err)
		return
	}
	Success(c, wo)
}

// Start 工单开工
func (h *WorkOrderHandler) Start(c *gin.Context) {
	wo, err := h.svc.Start(c.Param("id"))
	if err != nil {
		HandleError(c, err)
		return
	}
	Success(c, wo)
}

// Complete 工单完工
func (h *WorkOrderHandler) Complete(c *gin.Context) {
	wo, err := h.svc.Complete(c.Param("id"))
	if err != nil {
		HandleError(c, err)
		return
	}
	Success(c, wo)
}

// Cancel 取消工单
func (h *WorkOrderHandler) Cancel(c *gin.Context) {
	wo, err := h.svc.Cancel(c.Param("id"))
	if err != nil {
		HandleError(c, err)
		return
	}
	Success(c, wo)
}

// GenerateOperations 按工艺路线生成工单工序
func (h *WorkOrderHandler) GenerateOperations(c *gin.Context) {
	force := c.Query("force") == "true"
	count, generated, err := h.svc.GenerateOperations(c.Param("id"), force)
	if err != nil {
		HandleError(c, err)
		return
	}
	Success(c, gin.H{
		"operation_count": count,
		"generated":       generated,
	})
}
