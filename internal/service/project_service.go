package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"capstone-hub/backend/internal/dto"
	"capstone-hub/backend/internal/model"
	"capstone-hub/backend/internal/repository"
)

// ── 项目模块业务错误 ──

var (
	ErrProjectNotFound          = errors.New("项目不存在")
	ErrProjectForbidden         = errors.New("无权操作该项目")
	ErrStudentHasActiveProject  = errors.New("学生已有进行中的项目")
	ErrTopicFull                = errors.New("课题名额已满")
	ErrRegistrationDeadline     = errors.New("选题注册已截止")
	ErrInvalidProjectTransition = errors.New("项目状态不允许该变更")
	ErrProjectNotWithdrawable   = errors.New("项目当前状态不允许退选")
	ErrStudentIDRequired        = errors.New("管理员代注册必须指定学生")
)

// projectTransitions 项目状态迁移表：completed / failed 为终态
var projectTransitions = map[string][]string{
	model.ProjectStatusRegistered: {model.ProjectStatusInProgress},
	model.ProjectStatusInProgress: {model.ProjectStatusSubmitted},
	model.ProjectStatusSubmitted:  {model.ProjectStatusReviewed, model.ProjectStatusInProgress},
	model.ProjectStatusReviewed:   {model.ProjectStatusCompleted, model.ProjectStatusFailed},
	model.ProjectStatusCompleted:  {},
	model.ProjectStatusFailed:     {},
}

func projectTransitionAllowed(from, to string) bool {
	for _, s := range projectTransitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// ProjectService 项目（选题注册）业务接口
type ProjectService interface {
	Register(ctx context.Context, operatorID, role string, req *dto.RegisterProjectRequest) (*dto.ProjectResponse, error)
	Withdraw(ctx context.Context, operatorID, role, projectID string) error
	GetProject(ctx context.Context, projectID string) (*dto.ProjectResponse, error)
	ListProjects(ctx context.Context, req *dto.ProjectListRequest) ([]*dto.ProjectResponse, int64, error)
	ListMyProjects(ctx context.Context, operatorID string) ([]*dto.ProjectResponse, error)
	UpdateStatus(ctx context.Context, operatorID, role, projectID string, req *dto.UpdateProjectStatusRequest) (*dto.ProjectResponse, error)
}

type projectService struct {
	repo         *repository.Repository
	notification NotificationService
	logger       *zap.Logger
}

// NewProjectService 创建 ProjectService 实例
func NewProjectService(repo *repository.Repository, notification NotificationService, logger *zap.Logger) ProjectService {
	return &projectService{repo: repo, notification: notification, logger: logger}
}

// ────────────────────── Register ──────────────────────
//
// 选题注册。名额判定完全依赖条件更新的命中行数，并发下超出
// 名额的请求拿到 0 行命中后整体回滚，不产生超额注册。

func (s *projectService) Register(ctx context.Context, operatorID, role string, req *dto.RegisterProjectRequest) (*dto.ProjectResponse, error) {
	studentID, err := s.resolveStudentID(ctx, operatorID, role, req.StudentID)
	if err != nil {
		return nil, err
	}

	topic, err := s.repo.Topic.GetByID(ctx, req.TopicID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTopicNotFound
		}
		s.logger.Error("查询课题失败", zap.String("id", req.TopicID), zap.Error(err))
		return nil, err
	}
	if topic.Status != model.TopicStatusApproved {
		return nil, ErrTopicNotApproved
	}

	// 公告承载的注册截止时间，管理员代注册不受限
	if role != model.RoleAdmin {
		if err := s.checkRegistrationDeadline(ctx, topic.Semester); err != nil {
			return nil, err
		}
	}

	tx, err := s.repo.BeginTx(ctx)
	if err != nil {
		s.logger.Error("开启事务失败", zap.Error(err))
		return nil, err
	}
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
			panic(r)
		}
	}()

	txRepo := s.repo.WithTx(tx)

	// 一人同时只能有一个进行中的项目
	active, err := txRepo.Project.CountActiveByStudent(ctx, studentID)
	if err != nil {
		tx.Rollback()
		s.logger.Error("统计学生项目数失败", zap.String("student_id", studentID), zap.Error(err))
		return nil, err
	}
	if active > 0 {
		tx.Rollback()
		return nil, ErrStudentHasActiveProject
	}

	// 名额占用：条件更新未命中即为满
	ok, err := txRepo.Topic.IncrementStudents(ctx, req.TopicID)
	if err != nil {
		tx.Rollback()
		s.logger.Error("占用课题名额失败", zap.String("topic_id", req.TopicID), zap.Error(err))
		return nil, err
	}
	if !ok {
		tx.Rollback()
		return nil, ErrTopicFull
	}

	project := &model.Project{
		TopicID:      req.TopicID,
		StudentID:    studentID,
		SupervisorID: topic.SupervisorID,
		ReviewerID:   topic.ReviewerID,
		Status:       model.ProjectStatusRegistered,
	}
	project.CreatedBy = &operatorID
	if err := txRepo.Project.Create(ctx, project); err != nil {
		tx.Rollback()
		s.logger.Error("创建项目失败", zap.Error(err))
		return nil, err
	}

	if topic.SupervisorID != nil {
		if err := txRepo.Teacher.IncrementGuiding(ctx, *topic.SupervisorID); err != nil {
			tx.Rollback()
			s.logger.Error("更新教师指导人数失败", zap.String("teacher_id", *topic.SupervisorID), zap.Error(err))
			return nil, err
		}
	}

	if err := tx.Commit(); err != nil {
		s.logger.Error("提交事务失败", zap.Error(err))
		return nil, err
	}

	s.logger.Info("选题注册成功",
		zap.String("project_id", project.ProjectID),
		zap.String("topic_id", req.TopicID),
		zap.String("student_id", studentID),
	)

	if topic.Supervisor != nil {
		s.notification.Notify(ctx, topic.Supervisor.UserID, EventProjectRegistered,
			"新的选题注册",
			fmt.Sprintf("您的课题《%s》有新的学生选题注册。", topic.Title))
	}

	return s.GetProject(ctx, project.ProjectID)
}

// ────────────────────── Withdraw ──────────────────────
//
// 退选。仅 registered 状态允许；名额与指导人数同事务回退。

func (s *projectService) Withdraw(ctx context.Context, operatorID, role, projectID string) error {
	project, err := s.repo.Project.GetByID(ctx, projectID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrProjectNotFound
		}
		s.logger.Error("查询项目失败", zap.String("id", projectID), zap.Error(err))
		return err
	}

	if role == model.RoleStudent {
		student, err := s.repo.Student.GetByUserID(ctx, operatorID)
		if err != nil {
			return ErrProjectForbidden
		}
		if project.StudentID != student.StudentID {
			return ErrProjectForbidden
		}
	} else if role != model.RoleAdmin {
		return ErrProjectForbidden
	}

	if project.Status != model.ProjectStatusRegistered {
		return ErrProjectNotWithdrawable
	}

	tx, err := s.repo.BeginTx(ctx)
	if err != nil {
		s.logger.Error("开启事务失败", zap.Error(err))
		return err
	}
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
			panic(r)
		}
	}()

	txRepo := s.repo.WithTx(tx)

	if err := txRepo.Project.Delete(ctx, projectID, operatorID); err != nil {
		tx.Rollback()
		s.logger.Error("删除项目失败", zap.String("id", projectID), zap.Error(err))
		return err
	}

	if _, err := txRepo.Topic.DecrementStudents(ctx, project.TopicID); err != nil {
		tx.Rollback()
		s.logger.Error("回退课题名额失败", zap.String("topic_id", project.TopicID), zap.Error(err))
		return err
	}

	if project.SupervisorID != nil {
		if err := txRepo.Teacher.DecrementGuiding(ctx, *project.SupervisorID); err != nil {
			tx.Rollback()
			s.logger.Error("回退教师指导人数失败", zap.String("teacher_id", *project.SupervisorID), zap.Error(err))
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		s.logger.Error("提交事务失败", zap.Error(err))
		return err
	}

	s.logger.Info("退选成功", zap.String("project_id", projectID))

	if project.SupervisorID != nil {
		if teacher, err := s.repo.Teacher.GetByID(ctx, *project.SupervisorID); err == nil {
			title := ""
			if project.Topic != nil {
				title = project.Topic.Title
			}
			s.notification.Notify(ctx, teacher.UserID, EventProjectWithdrawn,
				"学生退选",
				fmt.Sprintf("课题《%s》有学生退选。", title))
		}
	}

	return nil
}

// ────────────────────── GetProject / ListProjects ──────────────────────

func (s *projectService) GetProject(ctx context.Context, projectID string) (*dto.ProjectResponse, error) {
	project, err := s.repo.Project.GetByID(ctx, projectID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProjectNotFound
		}
		s.logger.Error("查询项目失败", zap.String("id", projectID), zap.Error(err))
		return nil, err
	}
	return toProjectResponse(project), nil
}

func (s *projectService) ListProjects(ctx context.Context, req *dto.ProjectListRequest) ([]*dto.ProjectResponse, int64, error) {
	offset, limit := pageToRange(req.Page, req.PageSize)

	projects, total, err := s.repo.Project.List(ctx, repository.ProjectFilter{
		Status:       req.Status,
		Semester:     req.Semester,
		SupervisorID: req.SupervisorID,
		Offset:       offset,
		Limit:        limit,
	})
	if err != nil {
		s.logger.Error("查询项目列表失败", zap.Error(err))
		return nil, 0, err
	}

	resp := make([]*dto.ProjectResponse, 0, len(projects))
	for i := range projects {
		resp = append(resp, toProjectResponse(&projects[i]))
	}
	return resp, total, nil
}

func (s *projectService) ListMyProjects(ctx context.Context, operatorID string) ([]*dto.ProjectResponse, error) {
	student, err := s.repo.Student.GetByUserID(ctx, operatorID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrStudentNotFound
		}
		s.logger.Error("查询学生档案失败", zap.String("user_id", operatorID), zap.Error(err))
		return nil, err
	}

	projects, err := s.repo.Project.ListByStudent(ctx, student.StudentID)
	if err != nil {
		s.logger.Error("查询学生项目失败", zap.String("student_id", student.StudentID), zap.Error(err))
		return nil, err
	}

	resp := make([]*dto.ProjectResponse, 0, len(projects))
	for i := range projects {
		resp = append(resp, toProjectResponse(&projects[i]))
	}
	return resp, nil
}

// ────────────────────── UpdateStatus ──────────────────────
//
// 迁移表之外的变更一律拒绝。进入终态时回退指导人数占用。

func (s *projectService) UpdateStatus(ctx context.Context, operatorID, role, projectID string, req *dto.UpdateProjectStatusRequest) (*dto.ProjectResponse, error) {
	project, err := s.repo.Project.GetByID(ctx, projectID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProjectNotFound
		}
		s.logger.Error("查询项目失败", zap.String("id", projectID), zap.Error(err))
		return nil, err
	}

	if role == model.RoleTeacher {
		teacher, err := s.repo.Teacher.GetByUserID(ctx, operatorID)
		if err != nil {
			return nil, ErrProjectForbidden
		}
		if project.SupervisorID == nil || *project.SupervisorID != teacher.TeacherID {
			return nil, ErrProjectForbidden
		}
	} else if role != model.RoleAdmin {
		return nil, ErrProjectForbidden
	}

	if !projectTransitionAllowed(project.Status, req.Status) {
		return nil, ErrInvalidProjectTransition
	}

	entersTerminal := req.Status == model.ProjectStatusCompleted || req.Status == model.ProjectStatusFailed

	tx, err := s.repo.BeginTx(ctx)
	if err != nil {
		s.logger.Error("开启事务失败", zap.Error(err))
		return nil, err
	}
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
			panic(r)
		}
	}()

	txRepo := s.repo.WithTx(tx)

	project.Status = req.Status
	project.UpdatedBy = &operatorID
	if err := txRepo.Project.Update(ctx, project); err != nil {
		tx.Rollback()
		s.logger.Error("更新项目状态失败", zap.String("id", projectID), zap.Error(err))
		return nil, err
	}

	// 终态不再占用指导名额
	if entersTerminal && project.SupervisorID != nil {
		if err := txRepo.Teacher.DecrementGuiding(ctx, *project.SupervisorID); err != nil {
			tx.Rollback()
			s.logger.Error("回退教师指导人数失败", zap.String("teacher_id", *project.SupervisorID), zap.Error(err))
			return nil, err
		}
	}

	if err := tx.Commit(); err != nil {
		s.logger.Error("提交事务失败", zap.Error(err))
		return nil, err
	}

	s.logger.Info("项目状态已变更",
		zap.String("project_id", projectID),
		zap.String("status", req.Status),
	)

	return toProjectResponse(project), nil
}

// ── 内部辅助方法 ──

func (s *projectService) resolveStudentID(ctx context.Context, operatorID, role, requested string) (string, error) {
	if role == model.RoleAdmin {
		if requested == "" {
			return "", ErrStudentIDRequired
		}
		if _, err := s.repo.Student.GetByID(ctx, requested); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return "", ErrStudentNotFound
			}
			s.logger.Error("查询学生失败", zap.String("id", requested), zap.Error(err))
			return "", err
		}
		return requested, nil
	}

	student, err := s.repo.Student.GetByUserID(ctx, operatorID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", ErrStudentNotFound
		}
		s.logger.Error("查询学生档案失败", zap.String("user_id", operatorID), zap.Error(err))
		return "", err
	}
	return student.StudentID, nil
}

func (s *projectService) checkRegistrationDeadline(ctx context.Context, semester string) error {
	announcement, err := s.repo.Announcement.GetCurrentPublished(ctx, semester)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil // 没有公告时不限制
		}
		s.logger.Error("查询公告失败", zap.Error(err))
		return err
	}
	if announcement.RegistrationDeadline != nil && time.Now().After(*announcement.RegistrationDeadline) {
		return ErrRegistrationDeadline
	}
	return nil
}

// ── 转换辅助函数 ──

func toProjectResponse(p *model.Project) *dto.ProjectResponse {
	resp := &dto.ProjectResponse{
		ID:              p.ProjectID,
		TopicID:         p.TopicID,
		StudentID:       p.StudentID,
		Status:          p.Status,
		SupervisorScore: p.SupervisorScore,
		ReviewerScore:   p.ReviewerScore,
		CouncilScore:    p.CouncilScore,
		FinalScore:      p.FinalScore,
		Grade:           p.Grade,
		ReportURL:       p.ReportURL,
		CreatedAt:       p.CreatedAt.Format(time.RFC3339),
		UpdatedAt:       p.UpdatedAt.Format(time.RFC3339),
	}
	if p.Topic != nil {
		resp.TopicTitle = p.Topic.Title
	}
	if p.Student != nil {
		resp.StudentCode = p.Student.Code
		if p.Student.User != nil {
			resp.StudentName = p.Student.User.Name
		}
	}
	if p.SupervisorID != nil {
		resp.SupervisorID = *p.SupervisorID
	}
	if p.ReviewerID != nil {
		resp.ReviewerID = *p.ReviewerID
	}
	if p.DefenseAt != nil {
		resp.DefenseAt = p.DefenseAt.Format(time.RFC3339)
	}
	return resp
}
