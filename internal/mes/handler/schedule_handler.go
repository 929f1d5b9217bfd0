package handler

import (
	"github.com/bitfantasy/nimo-mes/internal/mes/service"
	"github.com/gin-gonic/gin"
)

// ScheduleHandler 排程处理器
type ScheduleHandler struct {
	svc *service.ScheduleService
}

// NewScheduleHandler 创建排程处理器
func NewScheduleHandler(svc *service.ScheduleService) *ScheduleHandler {
	return &ScheduleHandler{svc: svc}
}

// Run 执行一次排程。precedence=strict 时同工单工序严格串行。
func (h *ScheduleHandler) Run(c *gin.Context) {
	strict := c.Query("precedence") == "strict"
	result, err := h.svc.Run(c.Request.Context(), strict)
	if err != nil {
		InternalError(c, err.Error())
		return
	}
	Success(c, result)
}

// Latest 返回最近一次排程结果，无缓存时重新排程。
func (h *ScheduleHandler) Latest(c *gin.Context) {
	result, err := h.svc.Latest(c.Request.Context())
	if err != nil {
		InternalError(c, err.Error())
		return
	}
	if result == nil {
		result, err = h.svc.Run(c.Request.Context(), false)
		if err != nil {
			InternalError(c, err.Error())
			return
		}
	}
	Success(c, result)
}
