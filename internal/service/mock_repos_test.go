package service

import (
	"context"
	"fmt"
	"sort"
	"time"

	"gorm.io/gorm"

	"oncall-scheduler/internal/model"
	"oncall-scheduler/internal/repository"
	pkgerrors "oncall-scheduler/pkg/errors"
)

// ── Mock UserRepository ──

type mockUserRepo struct {
	users map[string]*model.User
}

func newMockUserRepo() *mockUserRepo {
	return &mockUserRepo{users: make(map[string]*model.User)}
}

func (m *mockUserRepo) Create(_ context.Context, user *model.User) error {
	if user.UserID == "" {
		user.UserID = "user-" + user.Email
	}
	m.users[user.UserID] = user
	return nil
}

func (m *mockUserRepo) GetByID(_ context.Context, id string) (*model.User, error) {
	if u, ok := m.users[id]; ok {
		return u, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockUserRepo) GetByEmail(_ context.Context, email string) (*model.User, error) {
	for _, u := range m.users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockUserRepo) Update(_ context.Context, user *model.User) error {
	m.users[user.UserID] = user
	return nil
}

func (m *mockUserRepo) List(_ context.Context, offset, limit int) ([]model.User, int64, error) {
	var result []model.User
	for _, u := range m.users {
		result = append(result, *u)
	}
	return result, int64(len(result)), nil
}

// ── Mock TeamRepository ──

type mockTeamRepo struct {
	teams map[string]*model.Team
}

func newMockTeamRepo() *mockTeamRepo {
	return &mockTeamRepo{teams: make(map[string]*model.Team)}
}

func (m *mockTeamRepo) Create(_ context.Context, team *model.Team) error {
	if team.TeamID == "" {
		team.TeamID = "team-" + team.TeamName
	}
	m.teams[team.TeamID] = team
	return nil
}

func (m *mockTeamRepo) GetByID(_ context.Context, id string) (*model.Team, error) {
	if t, ok := m.teams[id]; ok {
		return t, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockTeamRepo) Update(_ context.Context, team *model.Team) error {
	m.teams[team.TeamID] = team
	return nil
}

func (m *mockTeamRepo) ListByOrganization(_ context.Context, orgID string, offset, limit int) ([]model.Team, int64, error) {
	var result []model.Team
	for _, t := range m.teams {
		if t.OrganizationID == orgID {
			result = append(result, *t)
		}
	}
	return result, int64(len(result)), nil
}

// ── Mock TeamMemberRepository ──

type mockTeamMemberRepo struct {
	members map[string]*model.TeamMember
	nextID  int
}

func newMockTeamMemberRepo() *mockTeamMemberRepo {
	return &mockTeamMemberRepo{members: make(map[string]*model.TeamMember)}
}

func (m *mockTeamMemberRepo) Create(_ context.Context, member *model.TeamMember) error {
	if member.TeamMemberID == "" {
		m.nextID++
		member.TeamMemberID = fmt.Sprintf("tm-%d", m.nextID)
	}
	m.members[member.TeamMemberID] = member
	return nil
}

func (m *mockTeamMemberRepo) GetByID(_ context.Context, id string) (*model.TeamMember, error) {
	if tm, ok := m.members[id]; ok {
		return tm, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockTeamMemberRepo) GetActiveByMember(_ context.Context, memberID string) (*model.TeamMember, error) {
	for _, tm := range m.members {
		if tm.MemberID == memberID && tm.IsActive {
			return tm, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockTeamMemberRepo) GetActiveByTeamAndMember(_ context.Context, teamID, memberID string) (*model.TeamMember, error) {
	for _, tm := range m.members {
		if tm.TeamID == teamID && tm.MemberID == memberID && tm.IsActive {
			return tm, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockTeamMemberRepo) ListActiveByTeam(_ context.Context, teamID string) ([]model.TeamMember, error) {
	var result []model.TeamMember
	for _, tm := range m.members {
		if tm.TeamID == teamID && tm.IsActive {
			result = append(result, *tm)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].TeamMemberID < result[j].TeamMemberID })
	return result, nil
}

func (m *mockTeamMemberRepo) CountActiveByTeam(ctx context.Context, teamID string) (int64, error) {
	members, _ := m.ListActiveByTeam(ctx, teamID)
	return int64(len(members)), nil
}

func (m *mockTeamMemberRepo) Update(_ context.Context, member *model.TeamMember) error {
	m.members[member.TeamMemberID] = member
	return nil
}

// ── Mock InvitationRepository ──

type mockInvitationRepo struct {
	invitations map[string]*model.Invitation
	nextID      int
}

func newMockInvitationRepo() *mockInvitationRepo {
	return &mockInvitationRepo{invitations: make(map[string]*model.Invitation)}
}

func (m *mockInvitationRepo) Create(_ context.Context, inv *model.Invitation) error {
	if inv.InvitationID == "" {
		m.nextID++
		inv.InvitationID = fmt.Sprintf("inv-%d", m.nextID)
	}
	inv.CreatedAt = time.Now()
	m.invitations[inv.InvitationID] = inv
	return nil
}

func (m *mockInvitationRepo) GetByToken(_ context.Context, token string) (*model.Invitation, error) {
	for _, inv := range m.invitations {
		if inv.Token == token {
			return inv, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockInvitationRepo) GetPendingByEmailAndTeam(_ context.Context, email, teamID string) (*model.Invitation, error) {
	for _, inv := range m.invitations {
		if inv.Email == email && inv.TeamID == teamID && inv.Status == model.InvitationStatusPending {
			return inv, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockInvitationRepo) GetAcceptedByEmailAndTeam(_ context.Context, email, teamID string) (*model.Invitation, error) {
	for _, inv := range m.invitations {
		if inv.Email == email && inv.TeamID == teamID && inv.Status == model.InvitationStatusAccepted {
			return inv, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockInvitationRepo) ListByTeam(_ context.Context, teamID string, offset, limit int) ([]model.Invitation, int64, error) {
	var result []model.Invitation
	for _, inv := range m.invitations {
		if inv.TeamID == teamID {
			result = append(result, *inv)
		}
	}
	return result, int64(len(result)), nil
}

func (m *mockInvitationRepo) Update(_ context.Context, inv *model.Invitation) error {
	m.invitations[inv.InvitationID] = inv
	return nil
}

// ── Mock ScheduleConfigRepository ──

type mockScheduleConfigRepo struct {
	configs map[string]*model.TeamScheduleConfig // teamID → config
	teams   *mockTeamRepo                        // 模拟 Preload("Team")
}

func newMockScheduleConfigRepo(teams *mockTeamRepo) *mockScheduleConfigRepo {
	return &mockScheduleConfigRepo{configs: make(map[string]*model.TeamScheduleConfig), teams: teams}
}

func (m *mockScheduleConfigRepo) GetByTeam(_ context.Context, teamID string) (*model.TeamScheduleConfig, error) {
	if cfg, ok := m.configs[teamID]; ok {
		if t, found := m.teams.teams[teamID]; found {
			cfg.Team = t
		}
		return cfg, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockScheduleConfigRepo) Upsert(_ context.Context, cfg *model.TeamScheduleConfig) error {
	if existing, ok := m.configs[cfg.TeamID]; ok {
		existing.TimeslotDurationHours = cfg.TimeslotDurationHours
		existing.MinBreakHours = cfg.MinBreakHours
		existing.Version++
		return nil
	}
	if cfg.ConfigID == "" {
		cfg.ConfigID = "cfg-" + cfg.TeamID
	}
	cfg.Version = 1
	m.configs[cfg.TeamID] = cfg
	return nil
}

// ── Mock ScheduleRepository ──

type mockScheduleRepo struct {
	schedules map[string]*model.Schedule
	nextID    int
}

func newMockScheduleRepo() *mockScheduleRepo {
	return &mockScheduleRepo{schedules: make(map[string]*model.Schedule)}
}

func (m *mockScheduleRepo) Create(_ context.Context, schedule *model.Schedule) error {
	if schedule.ScheduleID == "" {
		m.nextID++
		schedule.ScheduleID = fmt.Sprintf("sch-%d", m.nextID)
	}
	schedule.Version = 1
	m.schedules[schedule.ScheduleID] = schedule
	return nil
}

func (m *mockScheduleRepo) GetByID(_ context.Context, id string) (*model.Schedule, error) {
	if s, ok := m.schedules[id]; ok {
		return s, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockScheduleRepo) GetByTeamAndWeek(_ context.Context, teamID string, weekStart time.Time) (*model.Schedule, error) {
	for _, s := range m.schedules {
		if s.TeamID == teamID && s.WeekStartDate.Format("2006-01-02") == weekStart.Format("2006-01-02") {
			return s, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockScheduleRepo) GetLatestByTeam(_ context.Context, teamID string) (*model.Schedule, error) {
	var latest *model.Schedule
	for _, s := range m.schedules {
		if s.TeamID != teamID || s.Status == model.ScheduleStatusArchived {
			continue
		}
		if latest == nil || s.WeekStartDate.After(latest.WeekStartDate) {
			latest = s
		}
	}
	if latest == nil {
		return nil, gorm.ErrRecordNotFound
	}
	return latest, nil
}

func (m *mockScheduleRepo) Update(_ context.Context, schedule *model.Schedule) error {
	existing, ok := m.schedules[schedule.ScheduleID]
	if !ok || existing.Version != schedule.Version {
		return pkgerrors.ErrOptimisticLock
	}
	schedule.Version++
	m.schedules[schedule.ScheduleID] = schedule
	return nil
}

func (m *mockScheduleRepo) Delete(_ context.Context, id string) error {
	delete(m.schedules, id)
	return nil
}

// ── Mock TimeSlotRepository ──

type mockTimeSlotRepo struct {
	slots  map[string]*model.TimeSlot
	nextID int
	// swapConflict 置为 true 时 SwapAssignments 返回乐观锁冲突
	swapConflict bool
}

func newMockTimeSlotRepo() *mockTimeSlotRepo {
	return &mockTimeSlotRepo{slots: make(map[string]*model.TimeSlot)}
}

func (m *mockTimeSlotRepo) BatchCreate(_ context.Context, slots []model.TimeSlot) error {
	for i := range slots {
		if slots[i].TimeSlotID == "" {
			m.nextID++
			slots[i].TimeSlotID = fmt.Sprintf("slot-%d", m.nextID)
		}
		slots[i].Version = 1
		copied := slots[i]
		m.slots[copied.TimeSlotID] = &copied
	}
	return nil
}

func (m *mockTimeSlotRepo) GetByID(_ context.Context, id string) (*model.TimeSlot, error) {
	if s, ok := m.slots[id]; ok {
		copied := *s
		return &copied, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockTimeSlotRepo) ListBySchedule(_ context.Context, scheduleID string) ([]model.TimeSlot, error) {
	var result []model.TimeSlot
	for _, s := range m.slots {
		if s.ScheduleID == scheduleID {
			result = append(result, *s)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].StartDatetime.Before(result[j].StartDatetime) })
	return result, nil
}

func (m *mockTimeSlotRepo) ListByScheduleAndMember(ctx context.Context, scheduleID, memberID string) ([]model.TimeSlot, error) {
	all, _ := m.ListBySchedule(ctx, scheduleID)
	var result []model.TimeSlot
	for _, s := range all {
		if s.AssignedMemberID != nil && *s.AssignedMemberID == memberID {
			result = append(result, s)
		}
	}
	return result, nil
}

func (m *mockTimeSlotRepo) Update(_ context.Context, slot *model.TimeSlot) error {
	existing, ok := m.slots[slot.TimeSlotID]
	if !ok || existing.Version != slot.Version {
		return pkgerrors.ErrOptimisticLock
	}
	slot.Version++
	copied := *slot
	m.slots[slot.TimeSlotID] = &copied
	return nil
}

func (m *mockTimeSlotRepo) SwapAssignments(_ context.Context, a, b *model.TimeSlot) error {
	if m.swapConflict {
		return pkgerrors.ErrOptimisticLock
	}
	for _, slot := range []*model.TimeSlot{a, b} {
		existing, ok := m.slots[slot.TimeSlotID]
		if !ok || existing.Version != slot.Version {
			return pkgerrors.ErrOptimisticLock
		}
		slot.Version++
		copied := *slot
		m.slots[slot.TimeSlotID] = &copied
	}
	return nil
}

func (m *mockTimeSlotRepo) DeleteBySchedule(_ context.Context, scheduleID string) error {
	for id, s := range m.slots {
		if s.ScheduleID == scheduleID {
			delete(m.slots, id)
		}
	}
	return nil
}

// ── Mock ScheduleValidationRepository ──

type mockScheduleValidationRepo struct {
	validations map[string]*model.ScheduleValidation // scheduleID → validation
}

func newMockScheduleValidationRepo() *mockScheduleValidationRepo {
	return &mockScheduleValidationRepo{validations: make(map[string]*model.ScheduleValidation)}
}

func (m *mockScheduleValidationRepo) Upsert(_ context.Context, v *model.ScheduleValidation) error {
	if v.ValidationID == "" {
		v.ValidationID = "val-" + v.ScheduleID
	}
	m.validations[v.ScheduleID] = v
	return nil
}

func (m *mockScheduleValidationRepo) GetBySchedule(_ context.Context, scheduleID string) (*model.ScheduleValidation, error) {
	if v, ok := m.validations[scheduleID]; ok {
		return v, nil
	}
	return nil, gorm.ErrRecordNotFound
}

// ── Mock SwapRequestRepository ──

type mockSwapRequestRepo struct {
	requests map[string]*model.SwapRequest
	nextID   int
}

func newMockSwapRequestRepo() *mockSwapRequestRepo {
	return &mockSwapRequestRepo{requests: make(map[string]*model.SwapRequest)}
}

func (m *mockSwapRequestRepo) Create(_ context.Context, req *model.SwapRequest) error {
	if req.SwapRequestID == "" {
		m.nextID++
		req.SwapRequestID = fmt.Sprintf("swap-%d", m.nextID)
	}
	req.Version = 1
	req.CreatedAt = time.Now()
	m.requests[req.SwapRequestID] = req
	return nil
}

func (m *mockSwapRequestRepo) GetByID(_ context.Context, id string) (*model.SwapRequest, error) {
	if r, ok := m.requests[id]; ok {
		copied := *r
		return &copied, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockSwapRequestRepo) ListByRequester(_ context.Context, requesterID, status string, offset, limit int) ([]model.SwapRequest, int64, error) {
	var result []model.SwapRequest
	for _, r := range m.requests {
		if r.RequesterID == requesterID && (status == "" || r.Status == status) {
			result = append(result, *r)
		}
	}
	return result, int64(len(result)), nil
}

func (m *mockSwapRequestRepo) ListByResponder(_ context.Context, responderID, status string, offset, limit int) ([]model.SwapRequest, int64, error) {
	var result []model.SwapRequest
	for _, r := range m.requests {
		if r.ResponderID == responderID && (status == "" || r.Status == status) {
			result = append(result, *r)
		}
	}
	return result, int64(len(result)), nil
}

func (m *mockSwapRequestRepo) PendingExistsForSlot(_ context.Context, slotID string) (bool, error) {
	for _, r := range m.requests {
		if r.Status == model.SwapStatusPending && (r.RequesterSlotID == slotID || r.ResponderSlotID == slotID) {
			return true, nil
		}
	}
	return false, nil
}

func (m *mockSwapRequestRepo) ListPendingBySlots(_ context.Context, slotIDs []string) ([]model.SwapRequest, error) {
	idSet := make(map[string]bool, len(slotIDs))
	for _, id := range slotIDs {
		idSet[id] = true
	}
	var result []model.SwapRequest
	for _, r := range m.requests {
		if r.Status == model.SwapStatusPending && (idSet[r.RequesterSlotID] || idSet[r.ResponderSlotID]) {
			result = append(result, *r)
		}
	}
	return result, nil
}

func (m *mockSwapRequestRepo) Update(_ context.Context, req *model.SwapRequest) error {
	existing, ok := m.requests[req.SwapRequestID]
	if !ok || existing.Version != req.Version {
		return pkgerrors.ErrOptimisticLock
	}
	req.Version++
	copied := *req
	m.requests[req.SwapRequestID] = &copied
	return nil
}

// ── 测试用 Repository 聚合 ──

type testRepos struct {
	user        *mockUserRepo
	team        *mockTeamRepo
	teamMember  *mockTeamMemberRepo
	invitation  *mockInvitationRepo
	config      *mockScheduleConfigRepo
	schedule    *mockScheduleRepo
	timeSlot    *mockTimeSlotRepo
	validation  *mockScheduleValidationRepo
	swapRequest *mockSwapRequestRepo
}

func newTestRepos() *testRepos {
	team := newMockTeamRepo()
	return &testRepos{
		user:        newMockUserRepo(),
		team:        team,
		teamMember:  newMockTeamMemberRepo(),
		invitation:  newMockInvitationRepo(),
		config:      newMockScheduleConfigRepo(team),
		schedule:    newMockScheduleRepo(),
		timeSlot:    newMockTimeSlotRepo(),
		validation:  newMockScheduleValidationRepo(),
		swapRequest: newMockSwapRequestRepo(),
	}
}

func (r *testRepos) toRepository() *repository.Repository {
	return &repository.Repository{
		User:               r.user,
		Team:               r.team,
		TeamMember:         r.teamMember,
		Invitation:         r.invitation,
		ScheduleConfig:     r.config,
		Schedule:           r.schedule,
		TimeSlot:           r.timeSlot,
		ScheduleValidation: r.validation,
		SwapRequest:        r.swapRequest,
	}
}
