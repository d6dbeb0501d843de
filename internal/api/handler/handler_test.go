package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"oncall-scheduler/internal/dto"
	"oncall-scheduler/internal/service"
	"oncall-scheduler/pkg/response"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// ── 可注入返回值的 Service 替身 ──

type fakeScheduleService struct {
	generateErr error
	publishErr  error
}

func (f *fakeScheduleService) Generate(context.Context, string, string) (*dto.GenerateScheduleResponse, error) {
	if f.generateErr != nil {
		return nil, f.generateErr
	}
	return &dto.GenerateScheduleResponse{TotalSlots: 42, FilledSlots: 42}, nil
}

func (f *fakeScheduleService) Publish(context.Context, string, string) (*dto.ScheduleResponse, error) {
	if f.publishErr != nil {
		return nil, f.publishErr
	}
	return &dto.ScheduleResponse{Status: "published"}, nil
}

func (f *fakeScheduleService) GetTeamStatus(context.Context, string) (*dto.TeamStatusResponse, error) {
	return &dto.TeamStatusResponse{}, nil
}

func (f *fakeScheduleService) GetMemberSchedule(context.Context, string) (*dto.MemberScheduleResponse, error) {
	return &dto.MemberScheduleResponse{}, nil
}

func (f *fakeScheduleService) GetTeamSchedule(context.Context, string, string) (*dto.TeamScheduleResponse, error) {
	return &dto.TeamScheduleResponse{}, nil
}

type fakeSwapService struct {
	createErr error
	acceptErr error
	rejectErr error
}

func (f *fakeSwapService) Create(context.Context, *dto.CreateSwapRequest, string) (*dto.SwapRequestResponse, error) {
	if f.createErr != nil {
		return nil, f.createErr
	}
	return &dto.SwapRequestResponse{Status: "pending"}, nil
}

func (f *fakeSwapService) Accept(context.Context, string, string) (*dto.SwapRequestResponse, error) {
	if f.acceptErr != nil {
		return nil, f.acceptErr
	}
	return &dto.SwapRequestResponse{Status: "accepted"}, nil
}

func (f *fakeSwapService) Reject(context.Context, string, *dto.RejectSwapRequest, string) (*dto.SwapRequestResponse, error) {
	if f.rejectErr != nil {
		return nil, f.rejectErr
	}
	return &dto.SwapRequestResponse{Status: "rejected"}, nil
}

func (f *fakeSwapService) ListSent(context.Context, string, *dto.SwapRequestListRequest) ([]dto.SwapRequestResponse, int64, error) {
	return []dto.SwapRequestResponse{}, 0, nil
}

func (f *fakeSwapService) ListReceived(context.Context, string, *dto.SwapRequestListRequest) ([]dto.SwapRequestResponse, int64, error) {
	return []dto.SwapRequestResponse{}, 0, nil
}

type fakeMembershipService struct {
	inviteErr error
	acceptErr error
}

func (f *fakeMembershipService) Invite(context.Context, string, *dto.InviteMemberRequest, string) (*dto.InvitationResponse, error) {
	if f.inviteErr != nil {
		return nil, f.inviteErr
	}
	return &dto.InvitationResponse{Status: "pending"}, nil
}

func (f *fakeMembershipService) AcceptInvitation(context.Context, *dto.AcceptInvitationRequest, string) (*dto.AcceptInvitationResponse, error) {
	if f.acceptErr != nil {
		return nil, f.acceptErr
	}
	return &dto.AcceptInvitationResponse{MemberID: "tm-1"}, nil
}

func (f *fakeMembershipService) ListTeamMembers(context.Context, string) ([]dto.TeamMemberResponse, error) {
	return []dto.TeamMemberResponse{}, nil
}

// ── 测试辅助 ──

// withUser 模拟认证中间件注入的用户身份
func withUser(userID string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set("user_id", userID)
		c.Set("role", "member")
		c.Next()
	}
}

func doRequest(r *gin.Engine, method, path string, body interface{}) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func parseResponse(t *testing.T, w *httptest.ResponseRecorder) response.Response {
	t.Helper()
	var resp response.Response
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("响应解析失败: %v, body: %s", err, w.Body.String())
	}
	return resp
}

// ── 排班模块 ──

func TestScheduleHandler_Generate(t *testing.T) {
	cases := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   int
	}{
		{"成功", nil, http.StatusCreated, 0},
		{"成员不足", &service.InsufficientMembersError{Needed: 2, Current: 3}, http.StatusBadRequest, 15001},
		{"已发布", service.ErrSchedulePublished, http.StatusBadRequest, 15002},
		{"团队不存在", service.ErrTeamNotFound, http.StatusNotFound, 14004},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			h := NewScheduleHandler(&fakeScheduleService{generateErr: tc.err})
			r := gin.New()
			r.POST("/schedules/generate/:team_id", withUser("manager-1"), h.Generate)

			w := doRequest(r, http.MethodPost, "/schedules/generate/team-1", nil)
			if w.Code != tc.wantStatus {
				t.Errorf("HTTP 状态码不正确: 期望 %d, 实际 %d", tc.wantStatus, w.Code)
			}
			if resp := parseResponse(t, w); resp.Code != tc.wantCode {
				t.Errorf("业务码不正确: 期望 %d, 实际 %d", tc.wantCode, resp.Code)
			}
		})
	}
}

func TestScheduleHandler_Generate_未认证(t *testing.T) {
	h := NewScheduleHandler(&fakeScheduleService{})
	r := gin.New()
	r.POST("/schedules/generate/:team_id", h.Generate)

	w := doRequest(r, http.MethodPost, "/schedules/generate/team-1", nil)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("未注入用户身份应返回 401，实际 %d", w.Code)
	}
	if resp := parseResponse(t, w); resp.Code != 10002 {
		t.Errorf("业务码应为 10002，实际 %d", resp.Code)
	}
}

func TestScheduleHandler_Publish(t *testing.T) {
	cases := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   int
	}{
		{"成功", nil, http.StatusOK, 0},
		{"重复发布", service.ErrSchedulePublished, http.StatusBadRequest, 15002},
		{"状态不允许", service.ErrScheduleInvalidState, http.StatusBadRequest, 15003},
		{"不存在", service.ErrScheduleNotFound, http.StatusNotFound, 15004},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			h := NewScheduleHandler(&fakeScheduleService{publishErr: tc.err})
			r := gin.New()
			r.POST("/schedules/:id/publish", withUser("manager-1"), h.Publish)

			w := doRequest(r, http.MethodPost, "/schedules/sch-1/publish", nil)
			if w.Code != tc.wantStatus {
				t.Errorf("HTTP 状态码不正确: 期望 %d, 实际 %d", tc.wantStatus, w.Code)
			}
			if resp := parseResponse(t, w); resp.Code != tc.wantCode {
				t.Errorf("业务码不正确: 期望 %d, 实际 %d", tc.wantCode, resp.Code)
			}
		})
	}
}

// ── 换班模块 ──

func TestSwapHandler_Accept(t *testing.T) {
	cases := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   int
	}{
		{"成功", nil, http.StatusOK, 0},
		{"无权操作", service.ErrSwapForbidden, http.StatusForbidden, 16002},
		{"已处理", service.ErrSwapInvalidState, http.StatusBadRequest, 16003},
		{"分配冲突", service.ErrSwapConflict, http.StatusConflict, 16009},
		{"不存在", service.ErrSwapNotFound, http.StatusNotFound, 16004},
		{"不合法", &service.InvalidSwapError{Reason: "已超过换班截止时间"}, http.StatusBadRequest, 16001},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			h := NewSwapHandler(&fakeSwapService{acceptErr: tc.err})
			r := gin.New()
			r.POST("/swap-requests/:id/accept", withUser("u2"), h.Accept)

			w := doRequest(r, http.MethodPost, "/swap-requests/swap-1/accept", nil)
			if w.Code != tc.wantStatus {
				t.Errorf("HTTP 状态码不正确: 期望 %d, 实际 %d", tc.wantStatus, w.Code)
			}
			if resp := parseResponse(t, w); resp.Code != tc.wantCode {
				t.Errorf("业务码不正确: 期望 %d, 实际 %d", tc.wantCode, resp.Code)
			}
		})
	}
}

func TestSwapHandler_Create_参数校验(t *testing.T) {
	h := NewSwapHandler(&fakeSwapService{})
	r := gin.New()
	r.POST("/swap-requests", withUser("u1"), h.Create)

	// 缺失必填字段
	w := doRequest(r, http.MethodPost, "/swap-requests", gin.H{"requester_slot_id": ""})
	if w.Code != http.StatusBadRequest {
		t.Errorf("参数缺失应返回 400，实际 %d", w.Code)
	}
	if resp := parseResponse(t, w); resp.Code != 13001 {
		t.Errorf("业务码应为 13001，实际 %d", resp.Code)
	}
}

// ── 团队/邀请模块 ──

func TestTeamHandler_Invite(t *testing.T) {
	cases := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   int
	}{
		{"成功", nil, http.StatusCreated, 0},
		{"已是成员", &service.AlreadyMemberError{TeamName: "A 组"}, http.StatusBadRequest, 17001},
		{"已接受邀请", service.ErrInviteAlreadyAccepted, http.StatusBadRequest, 17002},
		{"已有待处理邀请", service.ErrInviteAlreadyPending, http.StatusBadRequest, 17003},
		{"团队不存在", service.ErrTeamNotFound, http.StatusNotFound, 14004},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			h := NewTeamHandler(&fakeMembershipService{inviteErr: tc.err})
			r := gin.New()
			r.POST("/teams/:id/invitations", withUser("manager-1"), h.Invite)

			w := doRequest(r, http.MethodPost, "/teams/team-1/invitations", gin.H{"email": "x@example.com"})
			if w.Code != tc.wantStatus {
				t.Errorf("HTTP 状态码不正确: 期望 %d, 实际 %d", tc.wantStatus, w.Code)
			}
			if resp := parseResponse(t, w); resp.Code != tc.wantCode {
				t.Errorf("业务码不正确: 期望 %d, 实际 %d", tc.wantCode, resp.Code)
			}
		})
	}
}

func TestTeamHandler_Invite_邮箱格式(t *testing.T) {
	h := NewTeamHandler(&fakeMembershipService{})
	r := gin.New()
	r.POST("/teams/:id/invitations", withUser("manager-1"), h.Invite)

	w := doRequest(r, http.MethodPost, "/teams/team-1/invitations", gin.H{"email": "不是邮箱"})
	if w.Code != http.StatusBadRequest {
		t.Errorf("非法邮箱应返回 400，实际 %d", w.Code)
	}
}

func TestTeamHandler_AcceptInvitation(t *testing.T) {
	cases := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   int
	}{
		{"成功", nil, http.StatusOK, 0},
		{"邀请不存在", service.ErrInvitationNotFound, http.StatusNotFound, 17004},
		{"邀请已过期", service.ErrInvitationExpired, http.StatusNotFound, 17004},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			h := NewTeamHandler(&fakeMembershipService{acceptErr: tc.err})
			r := gin.New()
			r.POST("/invitations/accept", withUser("u1"), h.AcceptInvitation)

			w := doRequest(r, http.MethodPost, "/invitations/accept", gin.H{"token": "e2a1c7de-9f10-4b57-8d43-1f6c6c2c1a11"})
			if w.Code != tc.wantStatus {
				t.Errorf("HTTP 状态码不正确: 期望 %d, 实际 %d", tc.wantStatus, w.Code)
			}
			if resp := parseResponse(t, w); resp.Code != tc.wantCode {
				t.Errorf("业务码不正确: 期望 %d, 实际 %d", tc.wantCode, resp.Code)
			}
		})
	}
}
