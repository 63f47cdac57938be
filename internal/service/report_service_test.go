package service

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"go.uber.org/zap"

	"capstone-hub/backend/internal/dto"
	"capstone-hub/backend/internal/model"
)

// ── 测试辅助 ──

// memStorage 内存版附件存储，记录写入的 key
type memStorage struct {
	keys []string
}

func (m *memStorage) Store(_ context.Context, key string, _ string, body io.Reader) (string, error) {
	if _, err := io.Copy(io.Discard, body); err != nil {
		return "", err
	}
	m.keys = append(m.keys, key)
	return "/uploads/" + key, nil
}

func setupTestReportService() (ReportService, *memStorage, *testRepos) {
	repos := newTestRepos()
	store := &memStorage{}
	svc := NewReportService(repos.repo, store, zap.NewNop())
	return svc, store, repos
}

func seedActiveProject(repos *testRepos, projectID, studentID, supervisorID, status string) *model.Project {
	project := &model.Project{
		ProjectID: projectID, TopicID: "topic-1", StudentID: studentID,
		Status: status,
	}
	if supervisorID != "" {
		project.SupervisorID = &supervisorID
	}
	repos.projects.projects[projectID] = project
	return project
}

// ── SubmitReport 测试 ──

func TestReportService_SubmitReport_Success(t *testing.T) {
	svc, _, repos := setupTestReportService()
	seedStudent(repos, "s-001", "u-s-001", "S001")
	seedActiveProject(repos, "p-1", "s-001", "", model.ProjectStatusInProgress)

	result, err := svc.SubmitReport(context.Background(), "u-s-001", "p-1",
		&dto.SubmitReportRequest{WeekNo: 3, Content: "完成了需求分析与系统设计"})
	if err != nil {
		t.Fatalf("SubmitReport 应成功: %v", err)
	}
	if result.WeekNo != 3 || result.Status != "submitted" {
		t.Errorf("报告字段不符: week=%d status=%s", result.WeekNo, result.Status)
	}
}

func TestReportService_SubmitReport_WeekExists(t *testing.T) {
	svc, _, repos := setupTestReportService()
	seedStudent(repos, "s-001", "u-s-001", "S001")
	seedActiveProject(repos, "p-1", "s-001", "", model.ProjectStatusInProgress)

	if _, err := svc.SubmitReport(context.Background(), "u-s-001", "p-1",
		&dto.SubmitReportRequest{WeekNo: 3, Content: "第一次"}); err != nil {
		t.Fatalf("首次提交应成功: %v", err)
	}
	if _, err := svc.SubmitReport(context.Background(), "u-s-001", "p-1",
		&dto.SubmitReportRequest{WeekNo: 3, Content: "重复"}); !errors.Is(err, ErrReportWeekExists) {
		t.Errorf("期望 ErrReportWeekExists，实际: %v", err)
	}
}

func TestReportService_SubmitReport_ProjectNotActive(t *testing.T) {
	svc, _, repos := setupTestReportService()
	seedStudent(repos, "s-001", "u-s-001", "S001")
	seedActiveProject(repos, "p-1", "s-001", "", model.ProjectStatusCompleted)

	_, err := svc.SubmitReport(context.Background(), "u-s-001", "p-1",
		&dto.SubmitReportRequest{WeekNo: 1, Content: "内容"})
	if !errors.Is(err, ErrProjectNotActive) {
		t.Errorf("期望 ErrProjectNotActive，实际: %v", err)
	}
}

func TestReportService_SubmitReport_OnlyOwnProject(t *testing.T) {
	svc, _, repos := setupTestReportService()
	seedStudent(repos, "s-001", "u-s-001", "S001")
	seedStudent(repos, "s-002", "u-s-002", "S002")
	seedActiveProject(repos, "p-1", "s-001", "", model.ProjectStatusInProgress)

	_, err := svc.SubmitReport(context.Background(), "u-s-002", "p-1",
		&dto.SubmitReportRequest{WeekNo: 1, Content: "内容"})
	if !errors.Is(err, ErrProjectForbidden) {
		t.Errorf("期望 ErrProjectForbidden，实际: %v", err)
	}
}

// ── ReviewReport 测试 ──

func TestReportService_ReviewReport_BySupervisor(t *testing.T) {
	svc, _, repos := setupTestReportService()
	seedTeacher(repos, "t-001", "u-t-001", "T001", true)
	seedStudent(repos, "s-001", "u-s-001", "S001")
	seedActiveProject(repos, "p-1", "s-001", "t-001", model.ProjectStatusInProgress)

	report, err := svc.SubmitReport(context.Background(), "u-s-001", "p-1",
		&dto.SubmitReportRequest{WeekNo: 1, Content: "内容"})
	if err != nil {
		t.Fatalf("提交应成功: %v", err)
	}

	result, err := svc.ReviewReport(context.Background(), "u-t-001", report.ID,
		&dto.ReviewReportRequest{Comment: "进度正常，继续推进"})
	if err != nil {
		t.Fatalf("ReviewReport 应成功: %v", err)
	}
	if result.Status != "reviewed" || result.SupervisorComment != "进度正常，继续推进" {
		t.Errorf("批阅结果不符: status=%s comment=%s", result.Status, result.SupervisorComment)
	}
}

func TestReportService_ReviewReport_OnlySupervisor(t *testing.T) {
	svc, _, repos := setupTestReportService()
	seedTeacher(repos, "t-001", "u-t-001", "T001", true)
	seedTeacher(repos, "t-002", "u-t-002", "T002", true)
	seedStudent(repos, "s-001", "u-s-001", "S001")
	seedActiveProject(repos, "p-1", "s-001", "t-001", model.ProjectStatusInProgress)

	report, err := svc.SubmitReport(context.Background(), "u-s-001", "p-1",
		&dto.SubmitReportRequest{WeekNo: 1, Content: "内容"})
	if err != nil {
		t.Fatalf("提交应成功: %v", err)
	}

	_, err = svc.ReviewReport(context.Background(), "u-t-002", report.ID,
		&dto.ReviewReportRequest{Comment: "评语"})
	if !errors.Is(err, ErrReportForbidden) {
		t.Errorf("期望 ErrReportForbidden，实际: %v", err)
	}
}

func TestReportService_ReviewReport_AlreadyReviewed(t *testing.T) {
	svc, _, repos := setupTestReportService()
	seedTeacher(repos, "t-001", "u-t-001", "T001", true)
	seedStudent(repos, "s-001", "u-s-001", "S001")
	seedActiveProject(repos, "p-1", "s-001", "t-001", model.ProjectStatusInProgress)

	report, err := svc.SubmitReport(context.Background(), "u-s-001", "p-1",
		&dto.SubmitReportRequest{WeekNo: 1, Content: "内容"})
	if err != nil {
		t.Fatalf("提交应成功: %v", err)
	}
	if _, err := svc.ReviewReport(context.Background(), "u-t-001", report.ID,
		&dto.ReviewReportRequest{Comment: "第一次批阅"}); err != nil {
		t.Fatalf("首次批阅应成功: %v", err)
	}

	_, err = svc.ReviewReport(context.Background(), "u-t-001", report.ID,
		&dto.ReviewReportRequest{Comment: "再次批阅"})
	if !errors.Is(err, ErrReportAlreadyDone) {
		t.Errorf("期望 ErrReportAlreadyDone，实际: %v", err)
	}
}

// ── AttachFile 测试 ──

func TestReportService_AttachFile(t *testing.T) {
	svc, store, repos := setupTestReportService()
	seedStudent(repos, "s-001", "u-s-001", "S001")
	seedActiveProject(repos, "p-1", "s-001", "", model.ProjectStatusInProgress)

	report, err := svc.SubmitReport(context.Background(), "u-s-001", "p-1",
		&dto.SubmitReportRequest{WeekNo: 1, Content: "内容"})
	if err != nil {
		t.Fatalf("提交应成功: %v", err)
	}

	result, err := svc.AttachFile(context.Background(), "u-s-001", report.ID,
		"周报.pdf", "application/pdf", strings.NewReader("pdf-bytes"))
	if err != nil {
		t.Fatalf("AttachFile 应成功: %v", err)
	}
	if result.AttachmentURL == "" {
		t.Error("附件地址应写回报告")
	}
	if len(store.keys) != 1 || !strings.HasPrefix(store.keys[0], "reports/p-1/") {
		t.Errorf("存储 key 应落在 reports/p-1/ 下，实际=%v", store.keys)
	}
	if !strings.HasSuffix(store.keys[0], ".pdf") {
		t.Errorf("存储 key 应保留扩展名，实际=%s", store.keys[0])
	}
}

func TestReportService_AttachFile_NotOwner(t *testing.T) {
	svc, _, repos := setupTestReportService()
	seedStudent(repos, "s-001", "u-s-001", "S001")
	seedStudent(repos, "s-002", "u-s-002", "S002")
	seedActiveProject(repos, "p-1", "s-001", "", model.ProjectStatusInProgress)

	report, err := svc.SubmitReport(context.Background(), "u-s-001", "p-1",
		&dto.SubmitReportRequest{WeekNo: 1, Content: "内容"})
	if err != nil {
		t.Fatalf("提交应成功: %v", err)
	}

	_, err = svc.AttachFile(context.Background(), "u-s-002", report.ID,
		"周报.pdf", "application/pdf", strings.NewReader("pdf-bytes"))
	if !errors.Is(err, ErrReportForbidden) {
		t.Errorf("期望 ErrReportForbidden，实际: %v", err)
	}
}

// ── UploadFinalReport 测试 ──

func TestReportService_UploadFinalReport(t *testing.T) {
	svc, store, repos := setupTestReportService()
	seedStudent(repos, "s-001", "u-s-001", "S001")
	project := seedActiveProject(repos, "p-1", "s-001", "", model.ProjectStatusInProgress)

	result, err := svc.UploadFinalReport(context.Background(), "u-s-001", "p-1",
		"毕业论文终稿.pdf", "application/pdf", strings.NewReader("thesis-bytes"))
	if err != nil {
		t.Fatalf("UploadFinalReport 应成功: %v", err)
	}
	if result.Status != model.ProjectStatusSubmitted {
		t.Errorf("上传后项目应进入 submitted，实际=%s", result.Status)
	}
	if project.ReportURL == "" {
		t.Error("论文地址应写回项目")
	}
	if len(store.keys) != 1 || !strings.HasPrefix(store.keys[0], "theses/p-1/") {
		t.Errorf("存储 key 应落在 theses/p-1/ 下，实际=%v", store.keys)
	}
}

func TestReportService_UploadFinalReport_WrongStatus(t *testing.T) {
	svc, _, repos := setupTestReportService()
	seedStudent(repos, "s-001", "u-s-001", "S001")
	seedActiveProject(repos, "p-1", "s-001", "", model.ProjectStatusRegistered)

	_, err := svc.UploadFinalReport(context.Background(), "u-s-001", "p-1",
		"论文.pdf", "application/pdf", strings.NewReader("bytes"))
	if !errors.Is(err, ErrInvalidProjectTransition) {
		t.Errorf("期望 ErrInvalidProjectTransition，实际: %v", err)
	}
}

// ── ListReports 测试 ──

func TestReportService_ListReports_SortedByWeek(t *testing.T) {
	svc, _, repos := setupTestReportService()
	seedStudent(repos, "s-001", "u-s-001", "S001")
	seedActiveProject(repos, "p-1", "s-001", "", model.ProjectStatusInProgress)

	for _, week := range []int{5, 2, 8} {
		if _, err := svc.SubmitReport(context.Background(), "u-s-001", "p-1",
			&dto.SubmitReportRequest{WeekNo: week, Content: "内容"}); err != nil {
			t.Fatalf("提交第 %d 周应成功: %v", week, err)
		}
	}

	result, err := svc.ListReports(context.Background(), "u-s-001", model.RoleStudent, "p-1")
	if err != nil {
		t.Fatalf("ListReports 应成功: %v", err)
	}
	if len(result) != 3 {
		t.Fatalf("期望 3 份报告，实际=%d", len(result))
	}
	if result[0].WeekNo != 2 || result[1].WeekNo != 5 || result[2].WeekNo != 8 {
		t.Error("报告应按周次排序")
	}
}

func TestReportService_ListReports_ReviewerCanRead(t *testing.T) {
	svc, _, repos := setupTestReportService()
	seedTeacher(repos, "t-001", "u-t-001", "T001", true)
	seedTeacher(repos, "t-002", "u-t-002", "T002", true)
	seedStudent(repos, "s-001", "u-s-001", "S001")
	project := seedActiveProject(repos, "p-1", "s-001", "t-001", model.ProjectStatusInProgress)
	reviewerID := "t-002"
	project.ReviewerID = &reviewerID

	if _, err := svc.ListReports(context.Background(), "u-t-002", model.RoleTeacher, "p-1"); err != nil {
		t.Errorf("评阅教师查看报告应成功: %v", err)
	}

	seedTeacher(repos, "t-003", "u-t-003", "T003", true)
	if _, err := svc.ListReports(context.Background(), "u-t-003", model.RoleTeacher, "p-1"); !errors.Is(err, ErrReportForbidden) {
		t.Errorf("无关教师期望 ErrReportForbidden，实际: %v", err)
	}
}
