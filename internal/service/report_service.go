package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"capstone-hub/backend/internal/dto"
	"capstone-hub/backend/internal/model"
	"capstone-hub/backend/internal/repository"
	"capstone-hub/backend/pkg/storage"
)

// ── 进度报告模块业务错误 ──

var (
	ErrReportNotFound    = errors.New("进度报告不存在")
	ErrReportForbidden   = errors.New("无权操作该进度报告")
	ErrReportWeekExists  = errors.New("该周的进度报告已提交")
	ErrProjectNotActive  = errors.New("项目不在进行中，不能提交报告")
	ErrReportAlreadyDone = errors.New("进度报告已批阅")
)

// ReportService 周进度报告与论文提交业务接口
type ReportService interface {
	SubmitReport(ctx context.Context, operatorID, projectID string, req *dto.SubmitReportRequest) (*dto.ProgressReportResponse, error)
	ListReports(ctx context.Context, operatorID, role, projectID string) ([]*dto.ProgressReportResponse, error)
	ReviewReport(ctx context.Context, operatorID, reportID string, req *dto.ReviewReportRequest) (*dto.ProgressReportResponse, error)
	AttachFile(ctx context.Context, operatorID, reportID, filename, contentType string, body io.Reader) (*dto.ProgressReportResponse, error)
	UploadFinalReport(ctx context.Context, operatorID, projectID, filename, contentType string, body io.Reader) (*dto.ProjectResponse, error)
}

type reportService struct {
	repo   *repository.Repository
	store  storage.Storage
	logger *zap.Logger
}

// NewReportService 创建 ReportService 实例
func NewReportService(repo *repository.Repository, store storage.Storage, logger *zap.Logger) ReportService {
	return &reportService{repo: repo, store: store, logger: logger}
}

// ────────────────────── SubmitReport ──────────────────────

func (s *reportService) SubmitReport(ctx context.Context, operatorID, projectID string, req *dto.SubmitReportRequest) (*dto.ProgressReportResponse, error) {
	project, err := s.ownedProject(ctx, operatorID, projectID)
	if err != nil {
		return nil, err
	}
	if !isActiveStatus(project.Status) {
		return nil, ErrProjectNotActive
	}

	// 同一周只允许一份报告（唯一索引兜底）
	existing, err := s.repo.Report.ListByProject(ctx, projectID)
	if err != nil {
		s.logger.Error("查询进度报告失败", zap.String("project_id", projectID), zap.Error(err))
		return nil, err
	}
	for i := range existing {
		if existing[i].WeekNo == req.WeekNo {
			return nil, ErrReportWeekExists
		}
	}

	report := &model.ProgressReport{
		ProjectID: projectID,
		WeekNo:    req.WeekNo,
		Content:   req.Content,
		Status:    "submitted",
	}
	if err := s.repo.Report.Create(ctx, report); err != nil {
		s.logger.Error("创建进度报告失败", zap.Error(err))
		return nil, err
	}

	s.logger.Info("进度报告已提交",
		zap.String("report_id", report.ReportID),
		zap.Int("week_no", req.WeekNo),
	)

	return toReportResponse(report), nil
}

// ────────────────────── ListReports ──────────────────────

func (s *reportService) ListReports(ctx context.Context, operatorID, role, projectID string) ([]*dto.ProgressReportResponse, error) {
	project, err := s.repo.Project.GetByID(ctx, projectID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProjectNotFound
		}
		s.logger.Error("查询项目失败", zap.String("id", projectID), zap.Error(err))
		return nil, err
	}

	switch role {
	case model.RoleStudent:
		student, err := s.repo.Student.GetByUserID(ctx, operatorID)
		if err != nil || project.StudentID != student.StudentID {
			return nil, ErrReportForbidden
		}
	case model.RoleTeacher:
		teacher, err := s.repo.Teacher.GetByUserID(ctx, operatorID)
		if err != nil {
			return nil, ErrReportForbidden
		}
		supervisor := project.SupervisorID != nil && *project.SupervisorID == teacher.TeacherID
		reviewer := project.ReviewerID != nil && *project.ReviewerID == teacher.TeacherID
		if !supervisor && !reviewer {
			return nil, ErrReportForbidden
		}
	}

	reports, err := s.repo.Report.ListByProject(ctx, projectID)
	if err != nil {
		s.logger.Error("查询进度报告失败", zap.String("project_id", projectID), zap.Error(err))
		return nil, err
	}

	resp := make([]*dto.ProgressReportResponse, 0, len(reports))
	for i := range reports {
		resp = append(resp, toReportResponse(&reports[i]))
	}
	return resp, nil
}

// ────────────────────── ReviewReport ──────────────────────

func (s *reportService) ReviewReport(ctx context.Context, operatorID, reportID string, req *dto.ReviewReportRequest) (*dto.ProgressReportResponse, error) {
	report, err := s.repo.Report.GetByID(ctx, reportID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrReportNotFound
		}
		s.logger.Error("查询进度报告失败", zap.String("id", reportID), zap.Error(err))
		return nil, err
	}

	project, err := s.repo.Project.GetByID(ctx, report.ProjectID)
	if err != nil {
		s.logger.Error("查询项目失败", zap.String("id", report.ProjectID), zap.Error(err))
		return nil, err
	}

	teacher, err := s.repo.Teacher.GetByUserID(ctx, operatorID)
	if err != nil {
		return nil, ErrReportForbidden
	}
	if project.SupervisorID == nil || *project.SupervisorID != teacher.TeacherID {
		return nil, ErrReportForbidden
	}

	if report.Status == "reviewed" {
		return nil, ErrReportAlreadyDone
	}

	report.SupervisorComment = req.Comment
	report.Status = "reviewed"
	if err := s.repo.Report.Update(ctx, report); err != nil {
		s.logger.Error("更新进度报告失败", zap.String("id", reportID), zap.Error(err))
		return nil, err
	}

	s.logger.Info("进度报告已批阅", zap.String("report_id", reportID))
	return toReportResponse(report), nil
}

// ────────────────────── AttachFile ──────────────────────

func (s *reportService) AttachFile(ctx context.Context, operatorID, reportID, filename, contentType string, body io.Reader) (*dto.ProgressReportResponse, error) {
	report, err := s.repo.Report.GetByID(ctx, reportID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrReportNotFound
		}
		s.logger.Error("查询进度报告失败", zap.String("id", reportID), zap.Error(err))
		return nil, err
	}

	if _, err := s.ownedProject(ctx, operatorID, report.ProjectID); err != nil {
		return nil, ErrReportForbidden
	}

	key := fmt.Sprintf("reports/%s/%s%s", report.ProjectID, uuid.NewString(), filepath.Ext(filename))
	url, err := s.store.Store(ctx, key, contentType, body)
	if err != nil {
		s.logger.Error("上传附件失败", zap.String("key", key), zap.Error(err))
		return nil, err
	}

	report.AttachmentURL = url
	if err := s.repo.Report.Update(ctx, report); err != nil {
		s.logger.Error("更新进度报告失败", zap.String("id", reportID), zap.Error(err))
		return nil, err
	}

	return toReportResponse(report), nil
}

// ────────────────────── UploadFinalReport ──────────────────────
//
// 学生上传论文终稿。上传成功后项目从 in_progress 进入 submitted。

func (s *reportService) UploadFinalReport(ctx context.Context, operatorID, projectID, filename, contentType string, body io.Reader) (*dto.ProjectResponse, error) {
	project, err := s.ownedProject(ctx, operatorID, projectID)
	if err != nil {
		return nil, err
	}
	if project.Status != model.ProjectStatusInProgress {
		return nil, ErrInvalidProjectTransition
	}

	key := fmt.Sprintf("theses/%s/%s%s", projectID, uuid.NewString(), filepath.Ext(filename))
	url, err := s.store.Store(ctx, key, contentType, body)
	if err != nil {
		s.logger.Error("上传论文失败", zap.String("key", key), zap.Error(err))
		return nil, err
	}

	project.ReportURL = url
	project.Status = model.ProjectStatusSubmitted
	project.UpdatedBy = &operatorID
	if err := s.repo.Project.Update(ctx, project); err != nil {
		s.logger.Error("更新项目失败", zap.String("id", projectID), zap.Error(err))
		return nil, err
	}

	s.logger.Info("论文已提交",
		zap.String("project_id", projectID),
		zap.String("report_url", url),
	)
	return toProjectResponse(project), nil
}

// ── 内部辅助方法 ──

func (s *reportService) ownedProject(ctx context.Context, operatorID, projectID string) (*model.Project, error) {
	project, err := s.repo.Project.GetByID(ctx, projectID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProjectNotFound
		}
		s.logger.Error("查询项目失败", zap.String("id", projectID), zap.Error(err))
		return nil, err
	}

	student, err := s.repo.Student.GetByUserID(ctx, operatorID)
	if err != nil {
		return nil, ErrProjectForbidden
	}
	if project.StudentID != student.StudentID {
		return nil, ErrProjectForbidden
	}
	return project, nil
}

func isActiveStatus(status string) bool {
	for _, s := range model.ActiveProjectStatuses {
		if s == status {
			return true
		}
	}
	return false
}

// ── 转换辅助函数 ──

func toReportResponse(r *model.ProgressReport) *dto.ProgressReportResponse {
	return &dto.ProgressReportResponse{
		ID:                r.ReportID,
		ProjectID:         r.ProjectID,
		WeekNo:            r.WeekNo,
		Content:           r.Content,
		AttachmentURL:     r.AttachmentURL,
		SupervisorComment: r.SupervisorComment,
		Status:            r.Status,
		CreatedAt:         r.CreatedAt.Format(time.RFC3339),
	}
}
