package service

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"oncall-scheduler/internal/dto"
	"oncall-scheduler/internal/model"
	"oncall-scheduler/internal/repository"
)

// ── 排班配置模块业务错误 ──

var (
	ErrTeamNotFound   = errors.New("团队不存在")
	ErrConfigNotFound = errors.New("该团队尚未创建排班配置")
)

// ConfigValidationError 配置项不在合法集合内
type ConfigValidationError struct {
	Field   string
	Value   int
	Options []int
}

func (e *ConfigValidationError) Error() string {
	return fmt.Sprintf("配置项 %s 的值 %d 不合法，可选值: %v", e.Field, e.Value, e.Options)
}

// ScheduleConfigService 排班配置业务接口
type ScheduleConfigService interface {
	// 获取团队排班配置
	Get(ctx context.Context, teamID string) (*dto.ScheduleConfigResponse, error)
	// 创建或更新团队排班配置（upsert）
	Upsert(ctx context.Context, teamID string, req *dto.UpsertScheduleConfigRequest, callerID string) (*dto.ScheduleConfigResponse, error)
}

type scheduleConfigService struct {
	repo   *repository.Repository
	logger *zap.Logger
}

// NewScheduleConfigService 创建 ScheduleConfigService 实例
func NewScheduleConfigService(repo *repository.Repository, logger *zap.Logger) ScheduleConfigService {
	return &scheduleConfigService{repo: repo, logger: logger}
}

func (s *scheduleConfigService) Get(ctx context.Context, teamID string) (*dto.ScheduleConfigResponse, error) {
	if _, err := s.repo.Team.GetByID(ctx, teamID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTeamNotFound
		}
		s.logger.Error("查询团队失败", zap.Error(err))
		return nil, err
	}

	cfg, err := s.repo.ScheduleConfig.GetByTeam(ctx, teamID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrConfigNotFound
		}
		s.logger.Error("查询排班配置失败", zap.Error(err))
		return nil, err
	}

	return toScheduleConfigResponse(cfg), nil
}

func (s *scheduleConfigService) Upsert(ctx context.Context, teamID string, req *dto.UpsertScheduleConfigRequest, callerID string) (*dto.ScheduleConfigResponse, error) {
	if !model.IsValidTimeslotDuration(req.TimeslotDurationHours) {
		return nil, &ConfigValidationError{
			Field:   "timeslot_duration_hours",
			Value:   req.TimeslotDurationHours,
			Options: model.TimeslotDurationOptions,
		}
	}
	if !model.IsValidMinBreak(req.MinBreakHours) {
		return nil, &ConfigValidationError{
			Field:   "min_break_hours",
			Value:   req.MinBreakHours,
			Options: model.MinBreakOptions,
		}
	}

	if _, err := s.repo.Team.GetByID(ctx, teamID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTeamNotFound
		}
		s.logger.Error("查询团队失败", zap.Error(err))
		return nil, err
	}

	cfg := &model.TeamScheduleConfig{
		TeamID:                teamID,
		TimeslotDurationHours: req.TimeslotDurationHours,
		MinBreakHours:         req.MinBreakHours,
	}
	cfg.CreatedBy = &callerID
	cfg.UpdatedBy = &callerID

	if err := s.repo.ScheduleConfig.Upsert(ctx, cfg); err != nil {
		s.logger.Error("保存排班配置失败", zap.Error(err))
		return nil, err
	}

	// upsert 后重新查询，拿到最终落库状态
	saved, err := s.repo.ScheduleConfig.GetByTeam(ctx, teamID)
	if err != nil {
		s.logger.Error("查询排班配置失败", zap.Error(err))
		return nil, err
	}

	s.logger.Info("排班配置已保存",
		zap.String("team_id", teamID),
		zap.Int("timeslot_duration_hours", saved.TimeslotDurationHours),
		zap.Int("min_break_hours", saved.MinBreakHours))

	return toScheduleConfigResponse(saved), nil
}

// toScheduleConfigResponse 转换配置为响应
func toScheduleConfigResponse(cfg *model.TeamScheduleConfig) *dto.ScheduleConfigResponse {
	teamName := ""
	if cfg.Team != nil {
		teamName = cfg.Team.TeamName
	}
	return &dto.ScheduleConfigResponse{
		ID:                    cfg.ConfigID,
		TeamID:                cfg.TeamID,
		TeamName:              teamName,
		TimeslotDurationHours: cfg.TimeslotDurationHours,
		MinBreakHours:         cfg.MinBreakHours,
		SlotsPerDay:           24 / cfg.TimeslotDurationHours,
		CreatedAt:             cfg.CreatedAt.Format("2006-01-02T15:04:05Z"),
		UpdatedAt:             cfg.UpdatedAt.Format("2006-01-02T15:04:05Z"),
	}
}
