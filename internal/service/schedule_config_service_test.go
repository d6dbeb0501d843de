package service

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/zap"

	"oncall-scheduler/internal/dto"
	"oncall-scheduler/internal/model"
)

func setupTestConfigService(repos *testRepos) ScheduleConfigService {
	return NewScheduleConfigService(repos.toRepository(), zap.NewNop())
}

func TestConfigUpsert_创建后更新(t *testing.T) {
	repos := newTestRepos()
	svc := setupTestConfigService(repos)
	ctx := context.Background()

	team := &model.Team{TeamName: "一组", OrganizationID: "org-1", RequiredMembers: 5, IsActive: true}
	_ = repos.team.Create(ctx, team)

	created, err := svc.Upsert(ctx, team.TeamID, &dto.UpsertScheduleConfigRequest{
		TimeslotDurationHours: 4,
		MinBreakHours:         12,
	}, "manager-1")
	if err != nil {
		t.Fatalf("创建配置失败: %v", err)
	}
	if created.SlotsPerDay != 6 {
		t.Errorf("4 小时时段每天应为 6 段，实际 %d", created.SlotsPerDay)
	}
	if created.TeamName != "一组" {
		t.Errorf("响应应携带团队名，实际 %q", created.TeamName)
	}

	// 同团队再次 upsert → 更新而非新建
	updated, err := svc.Upsert(ctx, team.TeamID, &dto.UpsertScheduleConfigRequest{
		TimeslotDurationHours: 8,
		MinBreakHours:         24,
	}, "manager-1")
	if err != nil {
		t.Fatalf("更新配置失败: %v", err)
	}
	if updated.ID != created.ID {
		t.Error("upsert 不应产生新配置记录")
	}
	if updated.TimeslotDurationHours != 8 || updated.SlotsPerDay != 3 {
		t.Errorf("配置未更新: %+v", updated)
	}

	got, err := svc.Get(ctx, team.TeamID)
	if err != nil {
		t.Fatalf("查询配置失败: %v", err)
	}
	if got.MinBreakHours != 24 {
		t.Errorf("查询结果应为更新后的值，实际 %d", got.MinBreakHours)
	}
}

func TestConfigUpsert_非法取值(t *testing.T) {
	repos := newTestRepos()
	svc := setupTestConfigService(repos)
	ctx := context.Background()

	team := &model.Team{TeamName: "一组", OrganizationID: "org-1", RequiredMembers: 5, IsActive: true}
	_ = repos.team.Create(ctx, team)

	cases := []struct {
		name     string
		duration int
		minBreak int
		field    string
	}{
		{"时段时长 5 小时不整除", 5, 12, "timeslot_duration_hours"},
		{"时段时长为 0", 0, 12, "timeslot_duration_hours"},
		{"休息时长 3 小时不在集合内", 4, 3, "min_break_hours"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Upsert(ctx, team.TeamID, &dto.UpsertScheduleConfigRequest{
				TimeslotDurationHours: tc.duration,
				MinBreakHours:         tc.minBreak,
			}, "manager-1")
			var vErr *ConfigValidationError
			if !errors.As(err, &vErr) {
				t.Fatalf("应返回配置校验错误，实际: %v", err)
			}
			if vErr.Field != tc.field {
				t.Errorf("错误字段不正确: 期望 %s, 实际 %s", tc.field, vErr.Field)
			}
		})
	}

	// 非法取值不应落库
	if _, err := repos.config.GetByTeam(ctx, team.TeamID); err == nil {
		t.Error("校验失败时不应写入配置")
	}
}

func TestConfigGet_未创建(t *testing.T) {
	repos := newTestRepos()
	svc := setupTestConfigService(repos)
	ctx := context.Background()

	team := &model.Team{TeamName: "一组", OrganizationID: "org-1", RequiredMembers: 5, IsActive: true}
	_ = repos.team.Create(ctx, team)

	if _, err := svc.Get(ctx, team.TeamID); !errors.Is(err, ErrConfigNotFound) {
		t.Errorf("未创建配置应返回对应错误，实际: %v", err)
	}
	if _, err := svc.Get(ctx, "team-不存在"); !errors.Is(err, ErrTeamNotFound) {
		t.Errorf("团队不存在应返回对应错误，实际: %v", err)
	}
}

func TestConfigUpsert_团队不存在(t *testing.T) {
	repos := newTestRepos()
	svc := setupTestConfigService(repos)

	_, err := svc.Upsert(context.Background(), "team-不存在", &dto.UpsertScheduleConfigRequest{
		TimeslotDurationHours: 4,
		MinBreakHours:         12,
	}, "manager-1")
	if !errors.Is(err, ErrTeamNotFound) {
		t.Errorf("团队不存在应返回对应错误，实际: %v", err)
	}
}
