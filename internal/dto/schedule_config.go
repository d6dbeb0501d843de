package dto

// ── 排班配置模块 DTO ──

// UpsertScheduleConfigRequest 创建/更新团队排班配置请求
type UpsertScheduleConfigRequest struct {
	TimeslotDurationHours int `json:"timeslot_duration_hours" binding:"required"`
	MinBreakHours         int `json:"min_break_hours"         binding:"required"`
}

// ScheduleConfigResponse 团队排班配置响应
type ScheduleConfigResponse struct {
	ID                    string `json:"id"`
	TeamID                string `json:"team_id"`
	TeamName              string `json:"team_name"`
	TimeslotDurationHours int    `json:"timeslot_duration_hours"`
	MinBreakHours         int    `json:"min_break_hours"`
	SlotsPerDay           int    `json:"slots_per_day"`
	CreatedAt             string `json:"created_at"`
	UpdatedAt             string `json:"updated_at"`
}
