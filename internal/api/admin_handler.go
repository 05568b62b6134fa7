package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/wfunc/floran-server/internal/service"
	"github.com/wfunc/floran-server/internal/telemetry"
)

// AdminHandler 管理端处理器
type AdminHandler struct {
	sink        *telemetry.Sink
	userService service.UserService
}

// NewAdminHandler 创建管理端处理器
func NewAdminHandler(sink *telemetry.Sink, userService service.UserService) *AdminHandler {
	return &AdminHandler{
		sink:        sink,
		userService: userService,
	}
}

// Telemetry 返回事件环与计数器快照
func (h *AdminHandler) Telemetry(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"events":   h.sink.Events(),
		"counters": h.sink.Counters(),
	})
}

// UpdateUserStatusRequest 用户状态变更请求
type UpdateUserStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

// UpdateUserStatus 管理员变更用户状态（封禁/冻结/解封）
func (h *AdminHandler) UpdateUserStatus(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Code:    "INVALID_REQUEST",
			Message: "无效的用户ID",
		})
		return
	}

	var req UpdateUserStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Code:    "INVALID_REQUEST",
			Message: "请求参数错误",
			Details: err.Error(),
		})
		return
	}

	if err := h.userService.UpdateUserStatus(c.Request.Context(), uint(id), req.Status); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Code:    "UPDATE_FAILED",
			Message: err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{
		Message: "状态已更新",
	})
}
