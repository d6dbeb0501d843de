package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"oncall-scheduler/config"
	"oncall-scheduler/internal/dto"
	"oncall-scheduler/internal/model"
	"oncall-scheduler/internal/repository"
)

// ── 成员/邀请模块业务错误 ──

var (
	ErrInviteAlreadyAccepted = errors.New("该邮箱已接受本团队邀请")
	ErrInviteAlreadyPending  = errors.New("该邮箱已有本团队待处理邀请")
	ErrInvitationNotFound    = errors.New("邀请不存在或已失效")
	ErrInvitationExpired     = errors.New("邀请已过期")
)

// AlreadyMemberError 被邀请人已是某团队活跃成员（全局单团队约束）
type AlreadyMemberError struct {
	TeamName string
}

func (e *AlreadyMemberError) Error() string {
	return fmt.Sprintf("该用户已是团队 %s 的成员", e.TeamName)
}

// MembershipService 成员/邀请业务接口
type MembershipService interface {
	// 邀请成员加入团队。守卫检查顺序：
	// 已是任意团队成员 → 已接受本团队邀请 → 已有本团队待处理邀请
	Invite(ctx context.Context, teamID string, req *dto.InviteMemberRequest, inviterID string) (*dto.InvitationResponse, error)
	// 接受邀请（事务性：复查单团队约束后激活成员身份）
	AcceptInvitation(ctx context.Context, req *dto.AcceptInvitationRequest, userID string) (*dto.AcceptInvitationResponse, error)
	// 获取团队成员列表
	ListTeamMembers(ctx context.Context, teamID string) ([]dto.TeamMemberResponse, error)
}

type membershipService struct {
	cfg    *config.SchedulingConfig
	repo   *repository.Repository
	logger *zap.Logger
}

// NewMembershipService 创建 MembershipService 实例
func NewMembershipService(cfg *config.SchedulingConfig, repo *repository.Repository, logger *zap.Logger) MembershipService {
	return &membershipService{cfg: cfg, repo: repo, logger: logger}
}

func (s *membershipService) Invite(ctx context.Context, teamID string, req *dto.InviteMemberRequest, inviterID string) (*dto.InvitationResponse, error) {
	team, err := s.repo.Team.GetByID(ctx, teamID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTeamNotFound
		}
		s.logger.Error("查询团队失败", zap.Error(err))
		return nil, err
	}

	// 守卫 1：该邮箱对应用户已是任意团队的活跃成员
	user, err := s.repo.User.GetByEmail(ctx, req.Email)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		s.logger.Error("查询用户失败", zap.Error(err))
		return nil, err
	}
	if user != nil {
		membership, err := s.repo.TeamMember.GetActiveByMember(ctx, user.UserID)
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			s.logger.Error("查询成员身份失败", zap.Error(err))
			return nil, err
		}
		if membership != nil {
			teamName := membership.TeamID
			if membership.Team != nil {
				teamName = membership.Team.TeamName
			}
			return nil, &AlreadyMemberError{TeamName: teamName}
		}
	}

	// 守卫 2：本团队已接受的邀请
	if _, err := s.repo.Invitation.GetAcceptedByEmailAndTeam(ctx, req.Email, teamID); err == nil {
		return nil, ErrInviteAlreadyAccepted
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		s.logger.Error("查询邀请失败", zap.Error(err))
		return nil, err
	}

	// 守卫 3：本团队待处理的邀请
	if _, err := s.repo.Invitation.GetPendingByEmailAndTeam(ctx, req.Email, teamID); err == nil {
		return nil, ErrInviteAlreadyPending
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		s.logger.Error("查询邀请失败", zap.Error(err))
		return nil, err
	}

	inv := &model.Invitation{
		Email:          req.Email,
		Token:          uuid.NewString(),
		TeamID:         teamID,
		OrganizationID: team.OrganizationID,
		InvitedBy:      inviterID,
		Status:         model.InvitationStatusPending,
		ExpiresAt:      time.Now().AddDate(0, 0, s.cfg.InviteExpiryDays),
	}
	inv.CreatedBy = &inviterID
	inv.UpdatedBy = &inviterID

	if err := s.repo.Invitation.Create(ctx, inv); err != nil {
		s.logger.Error("创建邀请失败", zap.Error(err))
		return nil, err
	}

	s.logger.Info("已创建邀请",
		zap.String("team_id", teamID),
		zap.String("email", req.Email),
		zap.Time("expires_at", inv.ExpiresAt))

	return toInvitationResponse(inv), nil
}

func (s *membershipService) AcceptInvitation(ctx context.Context, req *dto.AcceptInvitationRequest, userID string) (*dto.AcceptInvitationResponse, error) {
	inv, err := s.repo.Invitation.GetByToken(ctx, req.Token)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvitationNotFound
		}
		s.logger.Error("查询邀请失败", zap.Error(err))
		return nil, err
	}

	if inv.Status != model.InvitationStatusPending {
		return nil, ErrInvitationNotFound
	}
	if time.Now().After(inv.ExpiresAt) {
		inv.Status = model.InvitationStatusExpired
		inv.UpdatedBy = &userID
		if err := s.repo.Invitation.Update(ctx, inv); err != nil {
			s.logger.Error("标记邀请过期失败", zap.Error(err))
		}
		return nil, ErrInvitationExpired
	}

	// 复查单团队约束（部分唯一索引兜底）
	existing, err := s.repo.TeamMember.GetActiveByMember(ctx, userID)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		s.logger.Error("查询成员身份失败", zap.Error(err))
		return nil, err
	}
	if existing != nil {
		teamName := existing.TeamID
		if existing.Team != nil {
			teamName = existing.Team.TeamName
		}
		return nil, &AlreadyMemberError{TeamName: teamName}
	}

	now := time.Now()
	member := &model.TeamMember{
		TeamID:   inv.TeamID,
		MemberID: userID,
		JoinedAt: now,
		IsActive: true,
	}
	member.CreatedBy = &userID
	member.UpdatedBy = &userID
	if err := s.repo.TeamMember.Create(ctx, member); err != nil {
		s.logger.Error("激活成员身份失败", zap.Error(err))
		return nil, err
	}

	inv.Status = model.InvitationStatusAccepted
	inv.AcceptedAt = &now
	inv.UpdatedBy = &userID
	if err := s.repo.Invitation.Update(ctx, inv); err != nil {
		s.logger.Error("更新邀请状态失败", zap.Error(err))
		return nil, err
	}

	s.logger.Info("邀请已接受",
		zap.String("team_id", inv.TeamID),
		zap.String("user_id", userID))

	resp := &dto.AcceptInvitationResponse{
		MemberID: member.TeamMemberID,
		JoinedAt: now.Format("2006-01-02T15:04:05Z"),
	}
	if inv.Team != nil {
		resp.Team = &dto.TeamBrief{
			ID:              inv.Team.TeamID,
			Name:            inv.Team.TeamName,
			RequiredMembers: inv.Team.RequiredMembers,
		}
	}
	return resp, nil
}

func (s *membershipService) ListTeamMembers(ctx context.Context, teamID string) ([]dto.TeamMemberResponse, error) {
	if _, err := s.repo.Team.GetByID(ctx, teamID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTeamNotFound
		}
		s.logger.Error("查询团队失败", zap.Error(err))
		return nil, err
	}

	members, err := s.repo.TeamMember.ListActiveByTeam(ctx, teamID)
	if err != nil {
		s.logger.Error("查询团队成员失败", zap.Error(err))
		return nil, err
	}

	result := make([]dto.TeamMemberResponse, 0, len(members))
	for _, m := range members {
		r := dto.TeamMemberResponse{
			ID:       m.TeamMemberID,
			MemberID: m.MemberID,
			JoinedAt: m.JoinedAt.Format("2006-01-02T15:04:05Z"),
		}
		if m.Member != nil {
			r.Name = m.Member.Name
			r.Email = m.Member.Email
		}
		result = append(result, r)
	}
	return result, nil
}

// toInvitationResponse 转换邀请为响应
func toInvitationResponse(inv *model.Invitation) *dto.InvitationResponse {
	return &dto.InvitationResponse{
		ID:        inv.InvitationID,
		Email:     inv.Email,
		Token:     inv.Token,
		TeamID:    inv.TeamID,
		Status:    inv.Status,
		ExpiresAt: inv.ExpiresAt.Format("2006-01-02T15:04:05Z"),
		CreatedAt: inv.CreatedAt.Format("2006-01-02T15:04:05Z"),
	}
}
