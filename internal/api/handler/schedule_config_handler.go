package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"oncall-scheduler/internal/dto"
	"oncall-scheduler/internal/service"
	"oncall-scheduler/pkg/response"
)

// ScheduleConfigHandler 排班配置模块 HTTP 处理器
type ScheduleConfigHandler struct {
	configSvc service.ScheduleConfigService
}

// NewScheduleConfigHandler 创建 ScheduleConfigHandler
func NewScheduleConfigHandler(configSvc service.ScheduleConfigService) *ScheduleConfigHandler {
	return &ScheduleConfigHandler{configSvc: configSvc}
}

// Get 获取团队排班配置
// GET /api/v1/schedule-config?team_id=xxx
func (h *ScheduleConfigHandler) Get(c *gin.Context) {
	teamID := c.Query("team_id")
	if teamID == "" {
		response.BadRequest(c, 13001, "team_id不能为空")
		return
	}

	cfg, err := h.configSvc.Get(c.Request.Context(), teamID)
	if err != nil {
		h.handleConfigError(c, err)
		return
	}

	response.OK(c, cfg)
}

// Upsert 创建或更新团队排班配置
// POST /api/v1/schedule-config?team_id=xxx
func (h *ScheduleConfigHandler) Upsert(c *gin.Context) {
	teamID := c.Query("team_id")
	if teamID == "" {
		response.BadRequest(c, 13001, "team_id不能为空")
		return
	}

	var req dto.UpsertScheduleConfigRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 13001, "参数校验失败")
		return
	}

	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	cfg, err := h.configSvc.Upsert(c.Request.Context(), teamID, &req, callerID)
	if err != nil {
		h.handleConfigError(c, err)
		return
	}

	response.OK(c, cfg)
}

// handleConfigError 统一处理排班配置模块业务错误
func (h *ScheduleConfigHandler) handleConfigError(c *gin.Context, err error) {
	var validationErr *service.ConfigValidationError
	switch {
	case errors.As(err, &validationErr):
		response.BadRequest(c, 14001, validationErr.Error())
	case errors.Is(err, service.ErrTeamNotFound):
		response.NotFound(c, 14004, "团队不存在")
	case errors.Is(err, service.ErrConfigNotFound):
		response.NotFound(c, 14004, "该团队尚未创建排班配置")
	default:
		response.InternalError(c)
	}
}
