package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"capstone-hub/backend/internal/model"
	"capstone-hub/backend/internal/repository"
)

// ── 导出模块业务错误 ──

var (
	ErrExportNoProjects   = errors.New("该学期暂无项目")
	ErrExportGenerateFail = errors.New("生成 Excel 文件失败")
)

// ExportService 导出业务接口
//
// 设计说明：
//   - 成绩单按学期导出为 Excel (.xlsx)，一学期一份
//   - 导出以 bytes.Buffer 返回，由 Handler 层设置 HTTP 响应头后写入 Response
//   - 行按学号升序排列，未出分的项目以 "-" 占位
type ExportService interface {
	// ExportGrades 导出学期成绩单为 Excel
	ExportGrades(ctx context.Context, semester string) (*bytes.Buffer, string, error)
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
// ExportGrades — 导出学期成绩单为 Excel
// ═══════════════════════════════════════════════════════════
//
// 输出格式：
//   - 单 Sheet "成绩单"
//   - 列：学号 | 姓名 | 课题 | 状态 | 指导评分 | 评阅评分 | 答辩评分 | 总评分 | 等级
//
// 返回值：buf（Excel 内容）, filename（建议文件名）, error

func (s *exportService) ExportGrades(ctx context.Context, semester string) (*bytes.Buffer, string, error) {
	projects, err := s.repo.Project.ListBySemester(ctx, semester)
	if err != nil {
		s.logger.Error("查询学期项目失败", zap.String("semester", semester), zap.Error(err))
		return nil, "", err
	}
	if len(projects) == 0 {
		return nil, "", ErrExportNoProjects
	}

	// 行按学号升序
	sort.Slice(projects, func(i, j int) bool {
		return studentCode(&projects[i]) < studentCode(&projects[j])
	})

	f := excelize.NewFile()
	defer f.Close()

	sheetName := "成绩单"
	idx, _ := f.NewSheet(sheetName)
	f.SetActiveSheet(idx)
	f.DeleteSheet("Sheet1")

	// 列宽
	f.SetColWidth(sheetName, "A", "A", 14)
	f.SetColWidth(sheetName, "B", "B", 12)
	f.SetColWidth(sheetName, "C", "C", 40)
	f.SetColWidth(sheetName, "D", "D", 12)
	f.SetColWidth(sheetName, "E", "I", 10)

	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 11},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#4472C4"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})

	// 标题行
	f.SetCellValue(sheetName, "A1", fmt.Sprintf("%s — 毕业设计成绩单", semester))
	f.MergeCell(sheetName, "A1", "I1")
	f.SetCellStyle(sheetName, "A1", "A1", headerStyle)

	// 表头
	headers := []string{"学号", "姓名", "课题", "状态", "指导评分", "评阅评分", "答辩评分", "总评分", "等级"}
	for i, h := range headers {
		f.SetCellValue(sheetName, cell(colName(i), 2), h)
	}

	// 数据行
	row := 3
	for i := range projects {
		p := &projects[i]
		name := ""
		if p.Student != nil && p.Student.User != nil {
			name = p.Student.User.Name
		}
		title := ""
		if p.Topic != nil {
			title = p.Topic.Title
		}

		f.SetCellValue(sheetName, cell("A", row), studentCode(p))
		f.SetCellValue(sheetName, cell("B", row), name)
		f.SetCellValue(sheetName, cell("C", row), title)
		f.SetCellValue(sheetName, cell("D", row), projectStatusText(p.Status))
		setScoreCell(f, sheetName, cell("E", row), p.SupervisorScore)
		setScoreCell(f, sheetName, cell("F", row), p.ReviewerScore)
		setScoreCell(f, sheetName, cell("G", row), p.CouncilScore)
		setScoreCell(f, sheetName, cell("H", row), p.FinalScore)
		if p.Grade != "" {
			f.SetCellValue(sheetName, cell("I", row), p.Grade)
		} else {
			f.SetCellValue(sheetName, cell("I", row), "-")
		}
		row++
	}

	buf := new(bytes.Buffer)
	if err := f.Write(buf); err != nil {
		s.logger.Error("写入 Excel 失败", zap.Error(err))
		return nil, "", ErrExportGenerateFail
	}

	filename := fmt.Sprintf("成绩单_%s.xlsx", semester)
	return buf, filename, nil
}

// ── 辅助函数 ──

func studentCode(p *model.Project) string {
	if p.Student != nil {
		return p.Student.Code
	}
	return ""
}

func setScoreCell(f *excelize.File, sheet, cellRef string, score *float64) {
	if score != nil {
		f.SetCellValue(sheet, cellRef, *score)
		return
	}
	f.SetCellValue(sheet, cellRef, "-")
}

func projectStatusText(status string) string {
	switch status {
	case model.ProjectStatusRegistered:
		return "已注册"
	case model.ProjectStatusInProgress:
		return "进行中"
	case model.ProjectStatusSubmitted:
		return "已提交"
	case model.ProjectStatusReviewed:
		return "已评审"
	case model.ProjectStatusCompleted:
		return "已完成"
	case model.ProjectStatusFailed:
		return "未通过"
	default:
		return status
	}
}

func colName(idx int) string {
	name, _ := excelize.ColumnNumberToName(idx + 1)
	return name
}

func cell(col string, row int) string {
	return fmt.Sprintf("%s%d", col, row)
}
