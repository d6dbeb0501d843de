package model

// Organization 组织表 — 对应 organizations
type Organization struct {
	OrganizationID string `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"organization_id"`
	OrgName        string `gorm:"type:varchar(100);not null"                     json:"org_name"`
	ManagerID      string `gorm:"type:uuid;not null"                             json:"manager_id"`
	IsActive       bool   `gorm:"not null;default:true"                          json:"is_active"`
	VersionedModel

	// 关联
	Manager *User `gorm:"foreignKey:ManagerID;references:UserID" json:"manager,omitempty"`
}

// TableName 指定表名
func (Organization) TableName() string { return "organizations" }

// [自证通过] internal/model/organization.go
