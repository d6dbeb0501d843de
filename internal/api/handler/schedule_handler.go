package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"oncall-scheduler/internal/service"
	"oncall-scheduler/pkg/response"
)

// ScheduleHandler 排班模块 HTTP 处理器
type ScheduleHandler struct {
	scheduleSvc service.ScheduleService
}

// NewScheduleHandler 创建 ScheduleHandler
func NewScheduleHandler(scheduleSvc service.ScheduleService) *ScheduleHandler {
	return &ScheduleHandler{scheduleSvc: scheduleSvc}
}

// Generate 生成团队本周排班表
// POST /api/v1/schedules/generate/:team_id
func (h *ScheduleHandler) Generate(c *gin.Context) {
	teamID := c.Param("team_id")
	if teamID == "" {
		response.BadRequest(c, 13001, "团队ID不能为空")
		return
	}

	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	result, err := h.scheduleSvc.Generate(c.Request.Context(), teamID, callerID)
	if err != nil {
		h.handleScheduleError(c, err)
		return
	}

	response.Created(c, result)
}

// Publish 发布排班表
// POST /api/v1/schedules/:id/publish
func (h *ScheduleHandler) Publish(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		response.BadRequest(c, 13001, "排班表ID不能为空")
		return
	}

	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	schedule, err := h.scheduleSvc.Publish(c.Request.Context(), id, callerID)
	if err != nil {
		h.handleScheduleError(c, err)
		return
	}

	response.OK(c, schedule)
}

// GetTeamStatus 获取团队排班状态
// GET /api/v1/schedules/status/:team_id
func (h *ScheduleHandler) GetTeamStatus(c *gin.Context) {
	teamID := c.Param("team_id")
	if teamID == "" {
		response.BadRequest(c, 13001, "团队ID不能为空")
		return
	}

	status, err := h.scheduleSvc.GetTeamStatus(c.Request.Context(), teamID)
	if err != nil {
		h.handleScheduleError(c, err)
		return
	}

	response.OK(c, status)
}

// GetMemberSchedule 获取我的排班（按日期分组）
// GET /api/v1/schedules/member
func (h *ScheduleHandler) GetMemberSchedule(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	schedule, err := h.scheduleSvc.GetMemberSchedule(c.Request.Context(), userID)
	if err != nil {
		h.handleScheduleError(c, err)
		return
	}

	response.OK(c, schedule)
}

// GetTeamSchedule 获取团队完整排班视图
// GET /api/v1/schedules/team/:team_id
func (h *ScheduleHandler) GetTeamSchedule(c *gin.Context) {
	teamID := c.Param("team_id")
	if teamID == "" {
		response.BadRequest(c, 13001, "团队ID不能为空")
		return
	}

	viewerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	schedule, err := h.scheduleSvc.GetTeamSchedule(c.Request.Context(), teamID, viewerID)
	if err != nil {
		h.handleScheduleError(c, err)
		return
	}

	response.OK(c, schedule)
}

// handleScheduleError 统一处理排班模块业务错误
func (h *ScheduleHandler) handleScheduleError(c *gin.Context, err error) {
	var insufficientErr *service.InsufficientMembersError
	switch {
	case errors.As(err, &insufficientErr):
		response.BadRequest(c, 15001, insufficientErr.Error())
	case errors.Is(err, service.ErrSchedulePublished):
		response.BadRequest(c, 15002, "排班表已发布，不可执行此操作")
	case errors.Is(err, service.ErrScheduleInvalidState):
		response.BadRequest(c, 15003, "排班表当前状态不允许此操作")
	case errors.Is(err, service.ErrScheduleNotFound):
		response.NotFound(c, 15004, "排班表不存在")
	case errors.Is(err, service.ErrTeamNotFound):
		response.NotFound(c, 14004, "团队不存在")
	case errors.Is(err, service.ErrNotTeamMember):
		response.NotFound(c, 14004, "该用户不属于任何团队")
	default:
		response.InternalError(c)
	}
}
