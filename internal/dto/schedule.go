package dto

// ── 排班模块 DTO ──

// GenerateScheduleRequest 生成排班表请求
type GenerateScheduleRequest struct {
	TeamID string `json:"team_id" binding:"required,uuid"`
}

// PublishScheduleRequest 发布排班表请求
type PublishScheduleRequest struct {
	ScheduleID string `json:"schedule_id" binding:"required,uuid"`
}

// ── 响应 ──

// ScheduleResponse 排班表响应
type ScheduleResponse struct {
	ID            string             `json:"id"`
	TeamID        string             `json:"team_id"`
	Team          *TeamBrief         `json:"team,omitempty"`
	WeekStartDate string             `json:"week_start_date"`
	WeekEndDate   string             `json:"week_end_date"`
	Status        string             `json:"status"`
	PublishedAt   *string            `json:"published_at,omitempty"`
	Slots         []TimeSlotResponse `json:"slots,omitempty"`
	CreatedAt     string             `json:"created_at"`
	UpdatedAt     string             `json:"updated_at"`
}

// TimeSlotResponse 值班时段响应
type TimeSlotResponse struct {
	ID                 string  `json:"id"`
	StartDatetime      string  `json:"start_datetime"`
	EndDatetime        string  `json:"end_datetime"`
	DurationHours      float64 `json:"duration_hours"`
	AssignedMember     *string `json:"assigned_member"`
	AssignedMemberName string  `json:"assigned_member_name,omitempty"`
	IsBreak            bool    `json:"is_break"`
	CanSwap            bool    `json:"can_swap"`
	IsMySlot           bool    `json:"is_my_slot"`
	SwapStatus         *string `json:"swap_status"` // 该时段上待处理换班申请的状态
}

// GenerateScheduleResponse 生成排班结果响应
type GenerateScheduleResponse struct {
	Schedule    *ScheduleResponse `json:"schedule"`
	TotalSlots  int               `json:"total_slots"`
	FilledSlots int               `json:"filled_slots"`
	Warnings    []string          `json:"warnings,omitempty"`
}

// ScheduleValidationResponse 排班校验结果响应
type ScheduleValidationResponse struct {
	IsValid              bool     `json:"is_valid"`
	HasSufficientMembers bool     `json:"has_sufficient_members"`
	Errors               []string `json:"errors"`
	Warnings             []string `json:"warnings"`
}

// TeamStatusResponse 团队排班状态响应
type TeamStatusResponse struct {
	Team          *TeamBrief                  `json:"team"`
	MemberCount   int                         `json:"member_count"`
	HasConfig     bool                        `json:"has_config"`
	Config        *ScheduleConfigResponse     `json:"config,omitempty"`
	Schedule      *ScheduleResponse           `json:"schedule,omitempty"`
	Validation    *ScheduleValidationResponse `json:"validation,omitempty"`
	CanGenerate   bool                        `json:"can_generate"`
	MissingMember int                         `json:"missing_members"` // 距最低人数还差多少人
}

// DaySlotsResponse 按日期分组的时段视图
type DaySlotsResponse struct {
	Date  string             `json:"date"`
	Slots []TimeSlotResponse `json:"slots"`
}

// MemberScheduleResponse 成员个人排班视图响应
type MemberScheduleResponse struct {
	Team          *TeamBrief         `json:"team"`
	WeekStartDate string             `json:"week_start_date"`
	WeekEndDate   string             `json:"week_end_date"`
	Status        string             `json:"status"`
	Days          []DaySlotsResponse `json:"days"`
	MySlots       []TimeSlotResponse `json:"my_slots"` // 分配给查看者本人的时段，时间升序
}

// TeamScheduleResponse 团队完整排班视图响应
type TeamScheduleResponse struct {
	Schedule *ScheduleResponse `json:"schedule"`
	Members  []MemberBrief     `json:"members"`
}
