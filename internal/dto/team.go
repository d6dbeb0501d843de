package dto

// ── 团队/邀请模块 DTO ──

// CreateTeamRequest 创建团队请求
type CreateTeamRequest struct {
	TeamName        string `json:"team_name"        binding:"required,min=2,max=100"`
	OrganizationID  string `json:"organization_id"  binding:"required,uuid"`
	RequiredMembers int    `json:"required_members" binding:"omitempty,min=1,max=50"`
}

// InviteMemberRequest 邀请成员请求
type InviteMemberRequest struct {
	Email string `json:"email" binding:"required,email"`
}

// AcceptInvitationRequest 接受邀请请求
type AcceptInvitationRequest struct {
	Token string `json:"token" binding:"required,uuid"`
}

// ── 响应 ──

// TeamResponse 团队响应
type TeamResponse struct {
	ID              string             `json:"id"`
	Name            string             `json:"name"`
	Organization    *OrganizationBrief `json:"organization,omitempty"`
	RequiredMembers int                `json:"required_members"`
	MemberCount     int                `json:"member_count"`
	CreatedAt       string             `json:"created_at"`
}

// TeamMemberResponse 团队成员响应
type TeamMemberResponse struct {
	ID       string `json:"id"`
	MemberID string `json:"member_id"`
	Name     string `json:"name"`
	Email    string `json:"email"`
	JoinedAt string `json:"joined_at"`
}

// InvitationResponse 邀请响应
type InvitationResponse struct {
	ID        string `json:"id"`
	Email     string `json:"email"`
	Token     string `json:"token"`
	TeamID    string `json:"team_id"`
	Status    string `json:"status"`
	ExpiresAt string `json:"expires_at"`
	CreatedAt string `json:"created_at"`
}

// AcceptInvitationResponse 接受邀请结果响应
type AcceptInvitationResponse struct {
	Team     *TeamBrief `json:"team"`
	MemberID string     `json:"member_id"`
	JoinedAt string     `json:"joined_at"`
}
