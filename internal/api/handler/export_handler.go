package handler

import (
	"errors"
	"net/http"
	"net/url"

	"github.com/gin-gonic/gin"

	"oncall-scheduler/internal/service"
	"oncall-scheduler/pkg/response"
)

// ExportHandler 导出模块 HTTP 处理器
type ExportHandler struct {
	exportSvc service.ExportService
}

// NewExportHandler 创建 ExportHandler
func NewExportHandler(exportSvc service.ExportService) *ExportHandler {
	return &ExportHandler{exportSvc: exportSvc}
}

// ExportTeamScheduleXLSX 导出团队本周排班表为 Excel
// GET /api/v1/schedules/team/:team_id/export.xlsx
func (h *ExportHandler) ExportTeamScheduleXLSX(c *gin.Context) {
	teamID := c.Param("team_id")
	if teamID == "" {
		response.BadRequest(c, 13001, "团队ID不能为空")
		return
	}

	buf, filename, err := h.exportSvc.ExportTeamScheduleXLSX(c.Request.Context(), teamID)
	if err != nil {
		h.handleExportError(c, err)
		return
	}

	encodedFilename := url.QueryEscape(filename)
	c.Header("Content-Description", "File Transfer")
	c.Header("Content-Disposition", "attachment; filename*=UTF-8''"+encodedFilename)
	c.Data(http.StatusOK, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", buf.Bytes())
}

// ExportMemberScheduleICS 导出我的值班日历
// GET /api/v1/schedules/member/export.ics
func (h *ExportHandler) ExportMemberScheduleICS(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	buf, filename, err := h.exportSvc.ExportMemberScheduleICS(c.Request.Context(), userID)
	if err != nil {
		h.handleExportError(c, err)
		return
	}

	encodedFilename := url.QueryEscape(filename)
	c.Header("Content-Description", "File Transfer")
	c.Header("Content-Disposition", "attachment; filename*=UTF-8''"+encodedFilename)
	c.Data(http.StatusOK, "text/calendar; charset=utf-8", buf.Bytes())
}

func (h *ExportHandler) handleExportError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrExportNoSchedule):
		response.NotFound(c, 15004, "本周暂无排班表")
	case errors.Is(err, service.ErrExportNoSlots):
		response.BadRequest(c, 15003, "排班表中无时段")
	case errors.Is(err, service.ErrNotTeamMember):
		response.NotFound(c, 14004, "该用户不属于任何团队")
	default:
		response.InternalError(c)
	}
}
