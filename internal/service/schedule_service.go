package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"oncall-scheduler/config"
	"oncall-scheduler/internal/dto"
	"oncall-scheduler/internal/model"
	"oncall-scheduler/internal/repository"
)

// ── 排班模块业务错误 ──

var (
	ErrScheduleNotFound     = errors.New("排班表不存在")
	ErrSchedulePublished    = errors.New("本周排班表已发布，不可重新生成")
	ErrScheduleInvalidState = errors.New("排班表当前状态不允许此操作")
	ErrNotTeamMember        = errors.New("该用户不属于任何团队")
)

// InsufficientMembersError 团队活跃成员数不足，禁止生成排班。
// Needed 是距最低人数的缺口（还差多少人），不是最低人数本身
type InsufficientMembersError struct {
	Needed  int
	Current int
}

func (e *InsufficientMembersError) Error() string {
	return fmt.Sprintf("团队成员不足：还需 %d 人，当前 %d 人", e.Needed, e.Current)
}

// ScheduleService 排班业务接口
type ScheduleService interface {
	// 生成排班表（贪心分配，draft 可反复重新生成）
	Generate(ctx context.Context, teamID, callerID string) (*dto.GenerateScheduleResponse, error)
	// 发布排班表（draft → published，每周一次，终态）
	Publish(ctx context.Context, scheduleID, callerID string) (*dto.ScheduleResponse, error)
	// 获取团队排班状态（成员数、配置、本周排班、校验结果）
	GetTeamStatus(ctx context.Context, teamID string) (*dto.TeamStatusResponse, error)
	// 获取成员个人排班视图（按日期分组）
	GetMemberSchedule(ctx context.Context, userID string) (*dto.MemberScheduleResponse, error)
	// 获取团队完整排班视图
	GetTeamSchedule(ctx context.Context, teamID, viewerID string) (*dto.TeamScheduleResponse, error)
}

type scheduleService struct {
	cfg    *config.SchedulingConfig
	repo   *repository.Repository
	locker *teamLocker
	logger *zap.Logger
}

// NewScheduleService 创建 ScheduleService 实例
func NewScheduleService(cfg *config.SchedulingConfig, repo *repository.Repository, locker *teamLocker, logger *zap.Logger) ScheduleService {
	return &scheduleService{cfg: cfg, repo: repo, locker: locker, logger: logger}
}

// ════════════════════════════════════════════════════════════
// Generate — 时段生成 + 贪心分配
// ════════════════════════════════════════════════════════════

func (s *scheduleService) Generate(ctx context.Context, teamID, callerID string) (*dto.GenerateScheduleResponse, error) {
	unlock := s.locker.Lock(teamID)
	defer unlock()

	// 0. 校验团队
	team, err := s.repo.Team.GetByID(ctx, teamID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTeamNotFound
		}
		s.logger.Error("查询团队失败", zap.Error(err))
		return nil, err
	}

	// 1. 前置条件：活跃成员数 ≥ 团队最低人数
	members, err := s.repo.TeamMember.ListActiveByTeam(ctx, teamID)
	if err != nil {
		s.logger.Error("查询团队成员失败", zap.Error(err))
		return nil, err
	}
	required := team.RequiredMembers
	if required <= 0 {
		required = s.cfg.MinTeamSize
	}
	if len(members) < required {
		return nil, &InsufficientMembersError{Needed: required - len(members), Current: len(members)}
	}

	// 2. 配置：无配置行则按默认值排班（4 小时时段 / 12 小时最小间隔）
	duration, minBreak := 4, 12
	if cfg, err := s.repo.ScheduleConfig.GetByTeam(ctx, teamID); err == nil {
		duration, minBreak = cfg.TimeslotDurationHours, cfg.MinBreakHours
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		s.logger.Error("查询排班配置失败", zap.Error(err))
		return nil, err
	}

	// 3. 锚点：今天或之前最近的周日，零点起算
	weekStart := mostRecentSunday(time.Now())
	weekEnd := weekStart.AddDate(0, 0, 6)

	// 4. 本周已有排班表：已发布则拒绝，草稿则整体替换
	existing, err := s.repo.Schedule.GetByTeamAndWeek(ctx, teamID, weekStart)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		s.logger.Error("查询已有排班表失败", zap.Error(err))
		return nil, err
	}
	if existing != nil {
		if existing.Status == model.ScheduleStatusPublished {
			return nil, ErrSchedulePublished
		}
		if err := s.repo.TimeSlot.DeleteBySchedule(ctx, existing.ScheduleID); err != nil {
			s.logger.Error("删除旧时段失败", zap.Error(err))
			return nil, err
		}
		if err := s.repo.Schedule.Delete(ctx, existing.ScheduleID); err != nil {
			s.logger.Error("删除旧排班表失败", zap.Error(err))
			return nil, err
		}
	}

	// 5. 生成时段边界：7 天 × (24/时长) 个连续时段，按时间升序
	type slotSpec struct {
		start time.Time
		end   time.Time
	}
	slotsPerDay := 24 / duration
	specs := make([]slotSpec, 0, 7*slotsPerDay)
	for day := 0; day < 7; day++ {
		dayStart := weekStart.AddDate(0, 0, day)
		for i := 0; i < slotsPerDay; i++ {
			start := dayStart.Add(time.Duration(i*duration) * time.Hour)
			specs = append(specs, slotSpec{start: start, end: start.Add(time.Duration(duration) * time.Hour)})
		}
	}

	// 6. 贪心分配
	// 成员按 ID 排序保证轮转顺序确定；同最少班次多人时从轮转指针起循环取第一个
	memberIDs := make([]string, 0, len(members))
	for _, m := range members {
		memberIDs = append(memberIDs, m.MemberID)
	}
	sort.Strings(memberIDs)

	assignCount := make(map[string]int)       // 本排班表内每人已分配班次
	lastEnd := make(map[string]time.Time)     // 每人最近一次班次的结束时间
	assigned := make([]*string, len(specs))   // 每个时段的分配结果
	warnings := make([]string, 0)
	rotation := 0

	for si, sp := range specs {
		minCount := -1
		for _, id := range memberIDs {
			end, ok := lastEnd[id]
			if ok && sp.start.Sub(end) < time.Duration(minBreak)*time.Hour {
				continue // 休息间隔不足
			}
			if minCount == -1 || assignCount[id] < minCount {
				minCount = assignCount[id]
			}
		}
		if minCount == -1 {
			// 无合格成员：宁可空置，不违反休息约束
			warnings = append(warnings, fmt.Sprintf("时段 %s ~ %s 无可分配成员",
				sp.start.Format("01-02 15:04"), sp.end.Format("01-02 15:04")))
			continue
		}

		chosen := ""
		for off := 0; off < len(memberIDs); off++ {
			id := memberIDs[(rotation+off)%len(memberIDs)]
			end, ok := lastEnd[id]
			if ok && sp.start.Sub(end) < time.Duration(minBreak)*time.Hour {
				continue
			}
			if assignCount[id] == minCount {
				chosen = id
				rotation = (rotation + off + 1) % len(memberIDs)
				break
			}
		}

		assignCount[chosen]++
		lastEnd[chosen] = sp.end
		id := chosen
		assigned[si] = &id
	}

	// 7. 落库：排班表 + 时段 + 校验记录
	schedule := &model.Schedule{
		TeamID:        teamID,
		WeekStartDate: weekStart,
		WeekEndDate:   weekEnd,
		Status:        model.ScheduleStatusDraft,
	}
	schedule.CreatedBy = &callerID
	schedule.UpdatedBy = &callerID
	if err := s.repo.Schedule.Create(ctx, schedule); err != nil {
		s.logger.Error("创建排班表失败", zap.Error(err))
		return nil, err
	}

	slots := make([]model.TimeSlot, 0, len(specs))
	filled := 0
	for si, sp := range specs {
		slot := model.TimeSlot{
			ScheduleID:       schedule.ScheduleID,
			StartDatetime:    sp.start,
			EndDatetime:      sp.end,
			AssignedMemberID: assigned[si],
		}
		slot.CreatedBy = &callerID
		slot.UpdatedBy = &callerID
		if assigned[si] != nil {
			filled++
		}
		slots = append(slots, slot)
	}
	if err := s.repo.TimeSlot.BatchCreate(ctx, slots); err != nil {
		s.logger.Error("批量创建时段失败", zap.Error(err))
		return nil, err
	}

	validation := &model.ScheduleValidation{
		ScheduleID:           schedule.ScheduleID,
		IsValid:              len(warnings) == 0,
		HasSufficientMembers: true,
		ValidationErrors:     model.StringArray{},
		ValidationWarnings:   model.StringArray(warnings),
	}
	if err := s.repo.ScheduleValidation.Upsert(ctx, validation); err != nil {
		s.logger.Error("保存排班校验结果失败", zap.Error(err))
		return nil, err
	}

	s.logger.Info("排班表已生成",
		zap.String("team_id", teamID),
		zap.String("schedule_id", schedule.ScheduleID),
		zap.Int("total_slots", len(slots)),
		zap.Int("filled_slots", filled),
		zap.Int("warnings", len(warnings)))

	scheduleResp, err := s.buildScheduleResponse(ctx, schedule, "")
	if err != nil {
		return nil, err
	}
	return &dto.GenerateScheduleResponse{
		Schedule:    scheduleResp,
		TotalSlots:  len(slots),
		FilledSlots: filled,
		Warnings:    warnings,
	}, nil
}

// ════════════════════════════════════════════════════════════
// Publish — 发布排班表
// ════════════════════════════════════════════════════════════

func (s *scheduleService) Publish(ctx context.Context, scheduleID, callerID string) (*dto.ScheduleResponse, error) {
	schedule, err := s.repo.Schedule.GetByID(ctx, scheduleID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrScheduleNotFound
		}
		s.logger.Error("查询排班表失败", zap.Error(err))
		return nil, err
	}

	if schedule.Status == model.ScheduleStatusPublished {
		return nil, ErrSchedulePublished
	}
	if schedule.Status != model.ScheduleStatusDraft {
		return nil, ErrScheduleInvalidState
	}

	now := time.Now()
	schedule.Status = model.ScheduleStatusPublished
	schedule.PublishedAt = &now
	schedule.UpdatedBy = &callerID

	if err := s.repo.Schedule.Update(ctx, schedule); err != nil {
		s.logger.Error("发布排班表失败", zap.Error(err))
		return nil, err
	}

	s.logger.Info("排班表已发布",
		zap.String("schedule_id", schedule.ScheduleID),
		zap.String("team_id", schedule.TeamID))

	return s.buildScheduleResponse(ctx, schedule, "")
}

// ════════════════════════════════════════════════════════════
// GetTeamStatus — 团队排班状态
// ════════════════════════════════════════════════════════════

func (s *scheduleService) GetTeamStatus(ctx context.Context, teamID string) (*dto.TeamStatusResponse, error) {
	team, err := s.repo.Team.GetByID(ctx, teamID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTeamNotFound
		}
		s.logger.Error("查询团队失败", zap.Error(err))
		return nil, err
	}

	memberCount, err := s.repo.TeamMember.CountActiveByTeam(ctx, teamID)
	if err != nil {
		s.logger.Error("查询成员数失败", zap.Error(err))
		return nil, err
	}

	required := team.RequiredMembers
	if required <= 0 {
		required = s.cfg.MinTeamSize
	}
	missing := required - int(memberCount)
	if missing < 0 {
		missing = 0
	}

	resp := &dto.TeamStatusResponse{
		Team: &dto.TeamBrief{
			ID:              team.TeamID,
			Name:            team.TeamName,
			RequiredMembers: required,
		},
		MemberCount:   int(memberCount),
		CanGenerate:   int(memberCount) >= required,
		MissingMember: missing,
	}

	if cfg, err := s.repo.ScheduleConfig.GetByTeam(ctx, teamID); err == nil {
		resp.HasConfig = true
		resp.Config = toScheduleConfigResponse(cfg)
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		s.logger.Error("查询排班配置失败", zap.Error(err))
		return nil, err
	}

	weekStart := mostRecentSunday(time.Now())
	schedule, err := s.repo.Schedule.GetByTeamAndWeek(ctx, teamID, weekStart)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return resp, nil
		}
		s.logger.Error("查询排班表失败", zap.Error(err))
		return nil, err
	}

	scheduleResp, err := s.buildScheduleResponse(ctx, schedule, "")
	if err != nil {
		return nil, err
	}
	resp.Schedule = scheduleResp

	if v, err := s.repo.ScheduleValidation.GetBySchedule(ctx, schedule.ScheduleID); err == nil {
		resp.Validation = &dto.ScheduleValidationResponse{
			IsValid:              v.IsValid,
			HasSufficientMembers: v.HasSufficientMembers,
			Errors:               v.ValidationErrors,
			Warnings:             v.ValidationWarnings,
		}
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		s.logger.Error("查询排班校验结果失败", zap.Error(err))
		return nil, err
	}

	return resp, nil
}

// ════════════════════════════════════════════════════════════
// GetMemberSchedule — 成员个人视图（按日期分组）
// ════════════════════════════════════════════════════════════

func (s *scheduleService) GetMemberSchedule(ctx context.Context, userID string) (*dto.MemberScheduleResponse, error) {
	membership, err := s.repo.TeamMember.GetActiveByMember(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotTeamMember
		}
		s.logger.Error("查询成员身份失败", zap.Error(err))
		return nil, err
	}

	weekStart := mostRecentSunday(time.Now())
	schedule, err := s.repo.Schedule.GetByTeamAndWeek(ctx, membership.TeamID, weekStart)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrScheduleNotFound
		}
		s.logger.Error("查询排班表失败", zap.Error(err))
		return nil, err
	}

	slots, err := s.slotViews(ctx, schedule, userID)
	if err != nil {
		return nil, err
	}

	// 按日期（时段起点所在日）分组，日期升序；同时抽出本人班次列表
	byDate := make(map[string][]dto.TimeSlotResponse)
	mySlots := make([]dto.TimeSlotResponse, 0)
	for _, sv := range slots {
		date := sv.StartDatetime[:10]
		byDate[date] = append(byDate[date], sv)
		if sv.IsMySlot {
			mySlots = append(mySlots, sv)
		}
	}
	dates := make([]string, 0, len(byDate))
	for d := range byDate {
		dates = append(dates, d)
	}
	sort.Strings(dates)

	days := make([]dto.DaySlotsResponse, 0, len(dates))
	for _, d := range dates {
		days = append(days, dto.DaySlotsResponse{Date: d, Slots: byDate[d]})
	}

	resp := &dto.MemberScheduleResponse{
		WeekStartDate: schedule.WeekStartDate.Format("2006-01-02"),
		WeekEndDate:   schedule.WeekEndDate.Format("2006-01-02"),
		Status:        schedule.Status,
		Days:          days,
		MySlots:       mySlots,
	}
	if membership.Team != nil {
		resp.Team = &dto.TeamBrief{
			ID:              membership.Team.TeamID,
			Name:            membership.Team.TeamName,
			RequiredMembers: membership.Team.RequiredMembers,
		}
	}
	return resp, nil
}

// ════════════════════════════════════════════════════════════
// GetTeamSchedule — 团队完整视图
// ════════════════════════════════════════════════════════════

func (s *scheduleService) GetTeamSchedule(ctx context.Context, teamID, viewerID string) (*dto.TeamScheduleResponse, error) {
	weekStart := mostRecentSunday(time.Now())
	schedule, err := s.repo.Schedule.GetByTeamAndWeek(ctx, teamID, weekStart)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrScheduleNotFound
		}
		s.logger.Error("查询排班表失败", zap.Error(err))
		return nil, err
	}

	scheduleResp, err := s.buildScheduleResponse(ctx, schedule, viewerID)
	if err != nil {
		return nil, err
	}

	members, err := s.repo.TeamMember.ListActiveByTeam(ctx, teamID)
	if err != nil {
		s.logger.Error("查询团队成员失败", zap.Error(err))
		return nil, err
	}
	briefs := make([]dto.MemberBrief, 0, len(members))
	for _, m := range members {
		b := dto.MemberBrief{ID: m.MemberID}
		if m.Member != nil {
			b.Name = m.Member.Name
			b.Email = m.Member.Email
		}
		briefs = append(briefs, b)
	}

	return &dto.TeamScheduleResponse{Schedule: scheduleResp, Members: briefs}, nil
}

// ════════════════════════════════════════════════════════════
// 内部辅助方法
// ════════════════════════════════════════════════════════════

// mostRecentSunday 返回 t 当天或之前最近的周日（零点，本地时区）
func mostRecentSunday(t time.Time) time.Time {
	day := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
	return day.AddDate(0, 0, -int(day.Weekday()))
}

// slotViews 构建带视角标注（can_swap / is_my_slot / swap_status）的时段视图
func (s *scheduleService) slotViews(ctx context.Context, schedule *model.Schedule, viewerID string) ([]dto.TimeSlotResponse, error) {
	slots, err := s.repo.TimeSlot.ListBySchedule(ctx, schedule.ScheduleID)
	if err != nil {
		s.logger.Error("查询时段失败", zap.Error(err))
		return nil, err
	}

	slotIDs := make([]string, 0, len(slots))
	for _, sl := range slots {
		slotIDs = append(slotIDs, sl.TimeSlotID)
	}
	pending, err := s.repo.SwapRequest.ListPendingBySlots(ctx, slotIDs)
	if err != nil {
		s.logger.Error("查询待处理换班申请失败", zap.Error(err))
		return nil, err
	}
	pendingBySlot := make(map[string]*model.SwapRequest, len(pending)*2)
	for i := range pending {
		pendingBySlot[pending[i].RequesterSlotID] = &pending[i]
		pendingBySlot[pending[i].ResponderSlotID] = &pending[i]
	}

	now := time.Now()
	views := make([]dto.TimeSlotResponse, 0, len(slots))
	for i := range slots {
		views = append(views, toTimeSlotResponse(&slots[i], schedule, viewerID, now, pendingBySlot))
	}
	return views, nil
}

// toTimeSlotResponse 转换时段为视角相关的响应
func toTimeSlotResponse(slot *model.TimeSlot, schedule *model.Schedule, viewerID string, now time.Time, pendingBySlot map[string]*model.SwapRequest) dto.TimeSlotResponse {
	resp := dto.TimeSlotResponse{
		ID:             slot.TimeSlotID,
		StartDatetime:  slot.StartDatetime.Format("2006-01-02T15:04:05Z07:00"),
		EndDatetime:    slot.EndDatetime.Format("2006-01-02T15:04:05Z07:00"),
		DurationHours:  slot.DurationHours(),
		AssignedMember: slot.AssignedMemberID,
		IsBreak:        slot.IsBreak,
	}
	if slot.AssignedMember != nil {
		resp.AssignedMemberName = slot.AssignedMember.Name
	}
	if viewerID != "" {
		resp.IsMySlot = slot.AssignedMemberID != nil && *slot.AssignedMemberID == viewerID
	}
	// 可换班：已发布 + 分配给查看者本人 + 未开始 + 非休息时段 + 无待处理换班申请
	resp.CanSwap = schedule.Status == model.ScheduleStatusPublished &&
		resp.IsMySlot &&
		slot.StartDatetime.After(now) &&
		!slot.IsBreak &&
		pendingBySlot[slot.TimeSlotID] == nil
	// 换班状态按查看者角色标注：发起方看 pending，接收方看 received，无关人不展示
	if req, ok := pendingBySlot[slot.TimeSlotID]; ok && viewerID != "" {
		switch {
		case slot.TimeSlotID == req.RequesterSlotID && viewerID == req.RequesterID:
			st := "pending"
			resp.SwapStatus = &st
		case slot.TimeSlotID == req.ResponderSlotID && viewerID == req.ResponderID:
			st := "received"
			resp.SwapStatus = &st
		}
	}
	return resp
}

// buildScheduleResponse 构建排班表完整响应
func (s *scheduleService) buildScheduleResponse(ctx context.Context, schedule *model.Schedule, viewerID string) (*dto.ScheduleResponse, error) {
	slots, err := s.slotViews(ctx, schedule, viewerID)
	if err != nil {
		return nil, err
	}

	resp := &dto.ScheduleResponse{
		ID:            schedule.ScheduleID,
		TeamID:        schedule.TeamID,
		WeekStartDate: schedule.WeekStartDate.Format("2006-01-02"),
		WeekEndDate:   schedule.WeekEndDate.Format("2006-01-02"),
		Status:        schedule.Status,
		Slots:         slots,
		CreatedAt:     schedule.CreatedAt.Format("2006-01-02T15:04:05Z"),
		UpdatedAt:     schedule.UpdatedAt.Format("2006-01-02T15:04:05Z"),
	}
	if schedule.PublishedAt != nil {
		t := schedule.PublishedAt.Format("2006-01-02T15:04:05Z")
		resp.PublishedAt = &t
	}
	if schedule.Team != nil {
		resp.Team = &dto.TeamBrief{
			ID:              schedule.Team.TeamID,
			Name:            schedule.Team.TeamName,
			RequiredMembers: schedule.Team.RequiredMembers,
		}
	}
	return resp, nil
}
