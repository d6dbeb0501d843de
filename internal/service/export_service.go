package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"time"

	ics "github.com/arran4/golang-ical"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"oncall-scheduler/internal/repository"
)

// ── 导出模块业务错误 ──

var (
	ErrExportNoSchedule   = errors.New("本周暂无排班表")
	ErrExportNoSlots      = errors.New("排班表中无时段")
	ErrExportGenerateFail = errors.New("生成导出文件失败")
)

// ExportService 导出业务接口
//
// 设计说明：
//   - Excel 导出当前周团队排班网格（行=时段序号，列=周日~周六）
//   - ICS 导出成员个人未来班次（RFC 5545），可订阅到日历客户端
//   - 导出以 bytes.Buffer 返回，由 Handler 层设置 HTTP 响应头后写入 Response
type ExportService interface {
	// ExportTeamScheduleXLSX 导出团队本周排班表为 Excel
	ExportTeamScheduleXLSX(ctx context.Context, teamID string) (*bytes.Buffer, string, error)
	// ExportMemberScheduleICS 导出成员已分配的未来班次为 iCalendar
	ExportMemberScheduleICS(ctx context.Context, userID string) (*bytes.Buffer, string, error)
}

type exportService struct {
	repo   *repository.Repository
	logger *zap.Logger
}

// NewExportService 创建 ExportService 实例
func NewExportService(repo *repository.Repository, logger *zap.Logger) ExportService {
	return &exportService{repo: repo, logger: logger}
}

// ═══════════════════════════════════════════════════════════
// ExportTeamScheduleXLSX — 团队周排班 Excel
// ═══════════════════════════════════════════════════════════

func (s *exportService) ExportTeamScheduleXLSX(ctx context.Context, teamID string) (*bytes.Buffer, string, error) {
	weekStart := mostRecentSunday(time.Now())
	schedule, err := s.repo.Schedule.GetByTeamAndWeek(ctx, teamID, weekStart)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, "", ErrExportNoSchedule
		}
		s.logger.Error("查询排班表失败", zap.Error(err))
		return nil, "", err
	}

	slots, err := s.repo.TimeSlot.ListBySchedule(ctx, schedule.ScheduleID)
	if err != nil {
		s.logger.Error("查询时段失败", zap.Error(err))
		return nil, "", err
	}
	if len(slots) == 0 {
		return nil, "", ErrExportNoSlots
	}

	teamName := teamID
	if schedule.Team != nil {
		teamName = schedule.Team.TeamName
	}

	// 索引: "day:rowIdx" → 单元格文本（day 0=周日 … 6=周六）
	cellIndex := make(map[string]string)
	rowTimes := make(map[int]string) // rowIdx → "HH:MM-HH:MM"
	maxRow := 0
	for _, slot := range slots {
		day := int(slot.StartDatetime.Sub(schedule.WeekStartDate).Hours()) / 24
		rowIdx := slot.StartDatetime.Hour()
		if rowIdx > maxRow {
			maxRow = rowIdx
		}

		text := "未分配"
		if slot.IsBreak {
			text = "休息"
		} else if slot.AssignedMember != nil {
			text = slot.AssignedMember.Name
		} else if slot.AssignedMemberID != nil {
			text = *slot.AssignedMemberID
		}
		cellIndex[fmt.Sprintf("%d:%d", day, rowIdx)] = text
		rowTimes[rowIdx] = fmt.Sprintf("%s-%s",
			slot.StartDatetime.Format("15:04"), slot.EndDatetime.Format("15:04"))
	}

	dayNames := []string{"周日", "周一", "周二", "周三", "周四", "周五", "周六"}

	f := excelize.NewFile()
	defer f.Close()

	sheetName := "值班表"
	idx, _ := f.NewSheet(sheetName)
	f.SetActiveSheet(idx)
	f.DeleteSheet("Sheet1")

	f.SetColWidth(sheetName, "A", "A", 14)
	f.SetColWidth(sheetName, "B", "H", 16)

	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 11},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#4472C4"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})

	// 标题行
	f.SetCellValue(sheetName, "A1", fmt.Sprintf("%s — 值班表 (%s ~ %s)",
		teamName,
		schedule.WeekStartDate.Format("2006-01-02"),
		schedule.WeekEndDate.Format("2006-01-02")))
	f.MergeCell(sheetName, "A1", "H1")
	f.SetCellStyle(sheetName, "A1", "A1", headerStyle)

	// 表头：时间 | 周日 … 周六
	row := 2
	f.SetCellValue(sheetName, cell("A", row), "时间")
	for day, name := range dayNames {
		col, _ := excelize.ColumnNumberToName(2 + day)
		f.SetCellValue(sheetName, cell(col, row), fmt.Sprintf("%s %s",
			name, schedule.WeekStartDate.AddDate(0, 0, day).Format("01-02")))
	}

	// 数据行：每个起始小时一行
	row = 3
	for hour := 0; hour <= maxRow; hour++ {
		times, ok := rowTimes[hour]
		if !ok {
			continue
		}
		f.SetCellValue(sheetName, cell("A", row), times)
		for day := 0; day < 7; day++ {
			col, _ := excelize.ColumnNumberToName(2 + day)
			if text, ok := cellIndex[fmt.Sprintf("%d:%d", day, hour)]; ok {
				f.SetCellValue(sheetName, cell(col, row), text)
			} else {
				f.SetCellValue(sheetName, cell(col, row), "-")
			}
		}
		row++
	}

	buf := new(bytes.Buffer)
	if err := f.Write(buf); err != nil {
		s.logger.Error("写入 Excel 失败", zap.Error(err))
		return nil, "", ErrExportGenerateFail
	}

	filename := fmt.Sprintf("值班表_%s_%s.xlsx", teamName, schedule.WeekStartDate.Format("20060102"))
	return buf, filename, nil
}

// ═══════════════════════════════════════════════════════════
// ExportMemberScheduleICS — 个人班次日历
// ═══════════════════════════════════════════════════════════

func (s *exportService) ExportMemberScheduleICS(ctx context.Context, userID string) (*bytes.Buffer, string, error) {
	membership, err := s.repo.TeamMember.GetActiveByMember(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, "", ErrNotTeamMember
		}
		s.logger.Error("查询成员身份失败", zap.Error(err))
		return nil, "", err
	}

	weekStart := mostRecentSunday(time.Now())
	schedule, err := s.repo.Schedule.GetByTeamAndWeek(ctx, membership.TeamID, weekStart)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, "", ErrExportNoSchedule
		}
		s.logger.Error("查询排班表失败", zap.Error(err))
		return nil, "", err
	}

	slots, err := s.repo.TimeSlot.ListByScheduleAndMember(ctx, schedule.ScheduleID, userID)
	if err != nil {
		s.logger.Error("查询时段失败", zap.Error(err))
		return nil, "", err
	}

	teamName := membership.TeamID
	if membership.Team != nil {
		teamName = membership.Team.TeamName
	}

	cal := ics.NewCalendar()
	cal.SetMethod(ics.MethodPublish)
	cal.SetProductId("-//oncall-scheduler//on-call feed//CN")
	cal.SetName(fmt.Sprintf("%s 值班", teamName))

	now := time.Now()
	for _, slot := range slots {
		if slot.IsBreak {
			continue
		}
		event := cal.AddEvent(fmt.Sprintf("%s@oncall-scheduler", slot.TimeSlotID))
		event.SetCreatedTime(now)
		event.SetDtStampTime(now)
		event.SetStartAt(slot.StartDatetime)
		event.SetEndAt(slot.EndDatetime)
		event.SetSummary(fmt.Sprintf("值班 — %s", teamName))
		event.SetDescription(fmt.Sprintf("%s 值班时段 %.0f 小时", teamName, slot.DurationHours()))
	}

	buf := new(bytes.Buffer)
	if err := cal.SerializeTo(buf); err != nil {
		s.logger.Error("序列化 ICS 失败", zap.Error(err))
		return nil, "", ErrExportGenerateFail
	}

	filename := fmt.Sprintf("值班_%s.ics", weekStart.Format("20060102"))
	return buf, filename, nil
}

// ── 辅助函数 ──

func cell(col string, row int) string {
	return fmt.Sprintf("%s%d", col, row)
}
