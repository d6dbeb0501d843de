package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"

	"oncall-scheduler/internal/model"
)

func setupTestExportService(repos *testRepos) ExportService {
	return NewExportService(repos.toRepository(), zap.NewNop())
}

// seedCurrentWeekSchedule 为导出测试准备本周已发布排班表
func seedCurrentWeekSchedule(t *testing.T, repos *testRepos, teamID, memberID string) string {
	t.Helper()
	ctx := context.Background()

	weekStart := mostRecentSunday(time.Now())
	schedule := &model.Schedule{
		TeamID:        teamID,
		WeekStartDate: weekStart,
		WeekEndDate:   weekStart.AddDate(0, 0, 6),
		Status:        model.ScheduleStatusPublished,
	}
	_ = repos.schedule.Create(ctx, schedule)

	id := memberID
	slots := make([]model.TimeSlot, 0, 14)
	for day := 0; day < 7; day++ {
		for i := 0; i < 2; i++ {
			start := weekStart.AddDate(0, 0, day).Add(time.Duration(i*12) * time.Hour)
			slot := model.TimeSlot{
				ScheduleID:    schedule.ScheduleID,
				StartDatetime: start,
				EndDatetime:   start.Add(12 * time.Hour),
			}
			if i == 0 {
				slot.AssignedMemberID = &id
			}
			slots = append(slots, slot)
		}
	}
	_ = repos.timeSlot.BatchCreate(ctx, slots)
	return schedule.ScheduleID
}

func TestExportTeamScheduleXLSX(t *testing.T) {
	repos := newTestRepos()
	svc := setupTestExportService(repos)
	seedCurrentWeekSchedule(t, repos, "team-1", "u1")

	buf, filename, err := svc.ExportTeamScheduleXLSX(context.Background(), "team-1")
	if err != nil {
		t.Fatalf("导出 Excel 失败: %v", err)
	}
	if !strings.HasSuffix(filename, ".xlsx") {
		t.Errorf("文件名应以 .xlsx 结尾: %s", filename)
	}
	// xlsx 是 zip 容器，以 PK 开头
	if data := buf.Bytes(); len(data) < 2 || data[0] != 'P' || data[1] != 'K' {
		t.Error("导出内容不是合法的 xlsx 文件")
	}
}

func TestExportTeamScheduleXLSX_无排班表(t *testing.T) {
	repos := newTestRepos()
	svc := setupTestExportService(repos)

	if _, _, err := svc.ExportTeamScheduleXLSX(context.Background(), "team-空"); !errors.Is(err, ErrExportNoSchedule) {
		t.Errorf("无排班表应返回对应错误，实际: %v", err)
	}
}

func TestExportMemberScheduleICS(t *testing.T) {
	repos := newTestRepos()
	svc := setupTestExportService(repos)
	ctx := context.Background()

	_ = repos.teamMember.Create(ctx, &model.TeamMember{
		TeamID: "team-1", MemberID: "u1", JoinedAt: time.Now(), IsActive: true,
	})
	seedCurrentWeekSchedule(t, repos, "team-1", "u1")

	buf, filename, err := svc.ExportMemberScheduleICS(ctx, "u1")
	if err != nil {
		t.Fatalf("导出 ICS 失败: %v", err)
	}
	content := buf.String()
	if !strings.Contains(content, "BEGIN:VCALENDAR") || !strings.Contains(content, "END:VCALENDAR") {
		t.Error("导出内容不是合法的 iCalendar")
	}
	// 每天 1 个已分配班次，共 7 个事件
	if n := strings.Count(content, "BEGIN:VEVENT"); n != 7 {
		t.Errorf("事件数应为 7，实际 %d", n)
	}
	if !strings.HasSuffix(filename, ".ics") {
		t.Errorf("文件名应以 .ics 结尾: %s", filename)
	}
}

func TestExportMemberScheduleICS_非团队成员(t *testing.T) {
	repos := newTestRepos()
	svc := setupTestExportService(repos)

	if _, _, err := svc.ExportMemberScheduleICS(context.Background(), "u-游离"); !errors.Is(err, ErrNotTeamMember) {
		t.Errorf("非团队成员应返回对应错误，实际: %v", err)
	}
}
