package handler

import (
	"github.com/bitfantasy/nimo-mes/internal/mes/repository"
	"github.com/bitfantasy/nimo-mes/internal/mes/service"
	"github.com/gin-gonic/gin"
)

// WorkReportHandler 报工与在制品追溯处理器
type WorkReportHandler struct {
	svc *service.WorkReportService
}

// NewWorkReportHandler 创建报工处理器
func NewWorkReportHandler(svc *service.WorkReportService) *WorkReportHandler {
	return &WorkReportHandler{svc: svc}
}

// Create 提交报工事件
func (h *WorkReportHandler) Create(c *gin.Context) {
	var req service.CreateWorkReportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "请求参数错误: "+err.Error())
		return
	}
	if req.OperatorID == "" {
		req.OperatorID = GetUserID(c)
	}

	report, err := h.svc.Submit(req)
	if err != nil {
		HandleError(c, err)
		return
	}
	Created(c, report)
}

// Get 获取报工记录
func (h *WorkReportHandler) Get(c *gin.Context) {
	report, err := h.svc.GetByID(c.Param("id"))
	if err != nil {
		HandleError(c, err)
		return
	}
	Success(c, report)
}

// List 报工记录列表
func (h *WorkReportHandler) List(c *gin.Context) {
	page, pageSize := GetPagination(c)
	items, total, err := h.svc.List(c.Query("work_order_id"), page, pageSize)
	if err != nil {
		InternalError(c, err.Error())
		return
	}
	Success(c, NewListResponse(items, page, pageSize, total))
}

// CreateWIP 创建在制品记录
func (h *WorkReportHandler) CreateWIP(c *gin.Context) {
	var req service.CreateWIPRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "请求参数错误: "+err.Error())
		return
	}
	if req.OperatorID == "" {
		req.OperatorID = GetUserID(c)
	}

	wip, err := h.svc.CreateWIP(req)
	if err != nil {
		HandleError(c, err)
		return
	}
	Created(c, wip)
}

// UpdateWIP 更新在制品记录
func (h *WorkReportHandler) UpdateWIP(c *gin.Context) {
	var req service.UpdateWIPRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "请求参数错误: "+err.Error())
		return
	}

	wip, err := h.svc.UpdateWIP(c.Param("id"), req)
	if err != nil {
		HandleError(c, err)
		return
	}
	Success(c, wip)
}

// GetWIP 获取在制品记录
func (h *WorkReportHandler) GetWIP(c *gin.Context) {
	wip, err := h.svc.GetWIP(c.Param("id"))
	if err != nil {
		HandleError(c, err)
		return
	}
	Success(c, wip)
}

// ListWIP 在制品列表
func (h *WorkReportHandler) ListWIP(c *gin.Context) {
	page, pageSize := GetPagination(c)
	items, total, err := h.svc.ListWIP(repository.WIPListParams{
		WorkOrderID: c.Query("work_order_id"),
		Status:      c.Query("status"),
		Page:        page,
		Size:        pageSize,
	})
	if err != nil {
		InternalError(c, err.Error())
		return
	}
	Success(c, NewListResponse(items, page, pageSize, total))
}

// TraceByBatch 按批次号追溯在制品流转
func (h *WorkReportHandler) TraceByBatch(c *gin.Context) {
	items, err := h.svc.TraceByBatch(c.Param("batchNumber"))
	if err != nil {
		InternalError(c, err.Error())
		return
	}
	Success(c, items)
}

// TraceBySerial 按序列号追溯在制品流转
func (h *WorkReportHandler) TraceBySerial(c *gin.Context) {
	items, err := h.svc.TraceBySerial(c.Param("serialNumber"))
	if err != nil {
		InternalError(c, err.Error())
		return
	}
	Success(c, items)
}
