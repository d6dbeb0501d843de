package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"oncall-scheduler/internal/dto"
	"oncall-scheduler/internal/service"
	"oncall-scheduler/pkg/response"
)

// TeamHandler 团队/邀请模块 HTTP 处理器
type TeamHandler struct {
	membershipSvc service.MembershipService
}

// NewTeamHandler 创建 TeamHandler
func NewTeamHandler(membershipSvc service.MembershipService) *TeamHandler {
	return &TeamHandler{membershipSvc: membershipSvc}
}

// Invite 邀请成员加入团队
// POST /api/v1/teams/:id/invitations
func (h *TeamHandler) Invite(c *gin.Context) {
	teamID := c.Param("id")
	if teamID == "" {
		response.BadRequest(c, 13001, "团队ID不能为空")
		return
	}

	var req dto.InviteMemberRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 13001, "参数校验失败")
		return
	}

	inviterID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	inv, err := h.membershipSvc.Invite(c.Request.Context(), teamID, &req, inviterID)
	if err != nil {
		h.handleMembershipError(c, err)
		return
	}

	response.Created(c, inv)
}

// AcceptInvitation 接受邀请
// POST /api/v1/invitations/accept
func (h *TeamHandler) AcceptInvitation(c *gin.Context) {
	var req dto.AcceptInvitationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 13001, "参数校验失败")
		return
	}

	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	result, err := h.membershipSvc.AcceptInvitation(c.Request.Context(), &req, userID)
	if err != nil {
		h.handleMembershipError(c, err)
		return
	}

	response.OK(c, result)
}

// ListMembers 获取团队成员列表
// GET /api/v1/teams/:id/members
func (h *TeamHandler) ListMembers(c *gin.Context) {
	teamID := c.Param("id")
	if teamID == "" {
		response.BadRequest(c, 13001, "团队ID不能为空")
		return
	}

	members, err := h.membershipSvc.ListTeamMembers(c.Request.Context(), teamID)
	if err != nil {
		h.handleMembershipError(c, err)
		return
	}

	response.OK(c, gin.H{"list": members})
}

// handleMembershipError 统一处理成员/邀请模块业务错误
func (h *TeamHandler) handleMembershipError(c *gin.Context, err error) {
	var alreadyMemberErr *service.AlreadyMemberError
	switch {
	case errors.As(err, &alreadyMemberErr):
		response.BadRequest(c, 17001, alreadyMemberErr.Error())
	case errors.Is(err, service.ErrInviteAlreadyAccepted):
		response.BadRequest(c, 17002, "该邮箱已接受本团队邀请")
	case errors.Is(err, service.ErrInviteAlreadyPending):
		response.BadRequest(c, 17003, "该邮箱已有本团队待处理邀请")
	case errors.Is(err, service.ErrInvitationNotFound), errors.Is(err, service.ErrInvitationExpired):
		response.NotFound(c, 17004, "邀请不存在或已过期")
	case errors.Is(err, service.ErrTeamNotFound):
		response.NotFound(c, 14004, "团队不存在")
	default:
		response.InternalError(c)
	}
}
