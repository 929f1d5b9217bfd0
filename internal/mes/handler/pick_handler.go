package handler

import (
	"github.com/bitfantasy/nimo-mes/internal/mes/repository"
	"github.com/bitfantasy/nimo-mes/internal/mes/service"
	"github.com/gin-gonic/gin"
)

// PickHandler 领料单处理器
type PickHandler struct {
	svc *service.PickService
}

// NewPickHandler 创建领料单处理器
func NewPickHandler(svc *service.PickService) *PickHandler {
	return &PickHandler{svc: svc}
}

// Create 手工创建领料单
func (h *PickHandler) Create(c *gin.Context) {
	var req service.CreatePickRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "请求参数错误: "+err.Error())
		return
	}
	if req.RequesterID == "" {
		req.RequesterID = GetUserID(c)
	}

	pick, err := h.svc.Create(req)
	if err != nil {
		HandleError(c, err)
		return
	}
	Created(c, pick)
}

// CreateFromBOM 按工单BOM生成领料单
func (h *PickHandler) CreateFromBOM(c *gin.Context) {
	var req service.CreateBOMPickRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "请求参数错误: "+err.Error())
		return
	}
	if req.RequesterID == "" {
		req.RequesterID = GetUserID(c)
	}

	pick, err := h.svc.CreateFromBOM(req)
	if err != nil {
		HandleError(c, err)
		return
	}
	Created(c, pick)
}

// Get 获取领料单详情
func (h *PickHandler) Get(c *gin.Context) {
	pick, err := h.svc.GetByID(c.Param("id"))
	if err != nil {
		HandleError(c, err)
		return
	}
	Success(c, pick)
}

// List 领料单列表
func (h *PickHandler) List(c *gin.Context) {
	page, pageSize := GetPagination(c)
	items, total, err := h.svc.List(repository.PickListParams{
		Status:      c.Query("status"),
		WorkOrderID: c.Query("work_order_id"),
		Page:        page,
		Size:        pageSize,
	})
	if err != nil {
		InternalError(c, err.Error())
		return
	}
	Success(c, NewListResponse(items, page, pageSize, total))
}

// Confirm 确认领料单
func (h *PickHandler) Confirm(c *gin.Context) {
	pick, err := h.svc.Confirm(c.Param("id"))
	if err != nil {
		HandleError(c, err)
		return
	}
	Success(c, pick)
}

// Complete 完成领料，逐条明细扣减库存
func (h *PickHandler) Complete(c *gin.Context) {
	var req service.CompletePickRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			BadRequest(c, "请求参数错误: "+err.Error())
			return
		}
	}
	if req.OperatorID == "" {
		req.OperatorID = GetUserID(c)
	}

	pick, err := h.svc.Complete(c.Param("id"), req)
	if err != nil {
		HandleError(c, err)
		return
	}
	Success(c, pick)
}

// Cancel 取消领料单
func (h *PickHandler) Cancel(c *gin.Context) {
	pick, err := h.svc.Cancel(c.Param("id"))
	if err != nil {
		HandleError(c, err)
		return
	}
	Success(c, pick)
}
