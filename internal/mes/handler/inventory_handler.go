package handler

import (
	"fmt"
	"time"

	"github.com/bitfantasy/nimo-mes/internal/mes/repository"
	"github.com/bitfantasy/nimo-mes/internal/mes/service"
	"github.com/gin-gonic/gin"
)

// InventoryHandler 库存与物料事务处理器
type InventoryHandler struct {
	svc *service.InventoryService
}

// NewInventoryHandler 创建库存处理器
func NewInventoryHandler(svc *service.InventoryService) *InventoryHandler {
	return &InventoryHandler{svc: svc}
}

// List 库存列表
func (h *InventoryHandler) List(c *gin.Context) {
	page, pageSize := GetPagination(c)
	items, total, err := h.svc.List(repository.InventoryListParams{
		WarehouseID: c.Query("warehouse_id"),
		MaterialID:  c.Query("material_id"),
		BatchNumber: c.Query("batch_number"),
		Location:    c.Query("location"),
		Page:        page,
		Size:        pageSize,
	})
	if err != nil {
		InternalError(c, err.Error())
		return
	}
	Success(c, NewListResponse(items, page, pageSize, total))
}

// Get 获取库存记录
func (h *InventoryHandler) Get(c *gin.Context) {
	inv, err := h.svc.GetByID(c.Param("id"))
	if err != nil {
		HandleError(c, err)
		return
	}
	Success(c, inv)
}

// Update 更新库位/单价（数量只能通过物料事务变动）
func (h *InventoryHandler) Update(c *gin.Context) {
	var req service.UpdateInventoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "请求参数错误: "+err.Error())
		return
	}

	inv, err := h.svc.Update(c.Param("id"), req)
	if err != nil {
		HandleError(c, err)
		return
	}
	Success(c, inv)
}

// SummaryByWarehouse 按仓库汇总库存
func (h *InventoryHandler) SummaryByWarehouse(c *gin.Context) {
	rows, err := h.svc.SummaryByWarehouse()
	if err != nil {
		InternalError(c, err.Error())
		return
	}
	Success(c, rows)
}

// SummaryByMaterial 按物料汇总库存
func (h *InventoryHandler) SummaryByMaterial(c *gin.Context) {
	rows, err := h.svc.SummaryByMaterial()
	if err != nil {
		InternalError(c, err.Error())
		return
	}
	Success(c, rows)
}

// Export 导出库存xlsx
func (h *InventoryHandler) Export(c *gin.Context) {
	f, err := h.svc.ExportXLSX(repository.InventoryListParams{
		WarehouseID: c.Query("warehouse_id"),
		MaterialID:  c.Query("material_id"),
	})
	if err != nil {
		InternalError(c, err.Error())
		return
	}

	filename := fmt.Sprintf("inventory_%s.xlsx", time.Now().Format("20060102150405"))
	c.Header("Content-Disposition", `attachment; filename="`+filename+`"`)
	c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	if err := f.Write(c.Writer); err != nil {
		InternalError(c, "导出失败: "+err.Error())
	}
}

// CreateTransaction 写入一条物料事务并同步库存
func (h *InventoryHandler) CreateTransaction(c *gin.Context) {
	var req service.CreateTransactionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "请求参数错误: "+err.Error())
		return
	}
	if req.OperatorID == "" {
		req.OperatorID = GetUserID(c)
	}

	tx, err := h.svc.ApplyTransaction(req)
	if err != nil {
		HandleError(c, err)
		return
	}
	Created(c, tx)
}

// ListTransactions 物料事务流水
func (h *InventoryHandler) ListTransactions(c *gin.Context) {
	page, pageSize := GetPagination(c)
	items, total, err := h.svc.ListTransactions(repository.TransactionListParams{
		MaterialID:      c.Query("material_id"),
		WarehouseID:     c.Query("warehouse_id"),
		WorkOrderID:     c.Query("work_order_id"),
		TransactionType: c.Query("transaction_type"),
		Page:            page,
		Size:            pageSize,
	})
	if err != nil {
		InternalError(c, err.Error())
		return
	}
	Success(c, NewListResponse(items, page, pageSize, total))
}

// CreateReturn 车间退料
func (h *InventoryHandler) CreateReturn(c *gin.Context) {
	var req service.MaterialReturnRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "请求参数错误: "+err.Error())
		return
	}
	if req.OperatorID == "" {
		req.OperatorID = GetUserID(c)
	}

	tx, err := h.svc.Return(req)
	if err != nil {
		HandleError(c, err)
		return
	}
	Created(c, tx)
}
