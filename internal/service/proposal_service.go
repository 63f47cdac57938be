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

// ── 选题申请模块业务错误 ──

var (
	ErrProposalNotFound       = errors.New("选题申请不存在")
	ErrProposalForbidden      = errors.New("无权操作该选题申请")
	ErrProposalExists         = errors.New("已有待处理或已通过的选题申请")
	ErrProposalDeadline       = errors.New("选题申请已截止")
	ErrProposalNotPending     = errors.New("选题申请已被处理")
	ErrTeacherCannotSupervise = errors.New("该教师当前不接收选题申请")
	ErrFeedbackRequired       = errors.New("驳回或要求修改必须填写反馈")
)

// ProposalService 学生自拟选题申请业务接口
type ProposalService interface {
	CreateProposal(ctx context.Context, operatorID string, req *dto.CreateProposalRequest) (*dto.ProposalResponse, error)
	GetProposal(ctx context.Context, operatorID, role, proposalID string) (*dto.ProposalResponse, error)
	ListMyProposals(ctx context.Context, operatorID, role string, req *dto.ProposalListRequest) ([]*dto.ProposalResponse, int64, error)
	ReviewProposal(ctx context.Context, operatorID, proposalID string, req *dto.ReviewProposalRequest) (*dto.ProposalApproveResponse, error)
	DeleteProposal(ctx context.Context, operatorID, proposalID string) error
}

type proposalService struct {
	repo         *repository.Repository
	notification NotificationService
	logger       *zap.Logger
}

// NewProposalService 创建 ProposalService 实例
func NewProposalService(repo *repository.Repository, notification NotificationService, logger *zap.Logger) ProposalService {
	return &proposalService{repo: repo, notification: notification, logger: logger}
}

// ────────────────────── CreateProposal ──────────────────────
//
// 学生同时只能有一份待处理或已通过的申请；要求修改后可重新提交。

func (s *proposalService) CreateProposal(ctx context.Context, operatorID string, req *dto.CreateProposalRequest) (*dto.ProposalResponse, error) {
	student, err := s.repo.Student.GetByUserID(ctx, operatorID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrStudentNotFound
		}
		s.logger.Error("查询学生档案失败", zap.String("user_id", operatorID), zap.Error(err))
		return nil, err
	}

	if err := s.checkProposalDeadline(ctx); err != nil {
		return nil, err
	}

	// 互斥校验：pending / approved 占用唯一名额
	open, err := s.repo.Proposal.CountOpenByStudent(ctx, student.StudentID)
	if err != nil {
		s.logger.Error("统计学生申请数失败", zap.String("student_id", student.StudentID), zap.Error(err))
		return nil, err
	}
	if open > 0 {
		return nil, ErrProposalExists
	}

	// 已有进行中项目的学生不能再自拟课题
	active, err := s.repo.Project.CountActiveByStudent(ctx, student.StudentID)
	if err != nil {
		s.logger.Error("统计学生项目数失败", zap.String("student_id", student.StudentID), zap.Error(err))
		return nil, err
	}
	if active > 0 {
		return nil, ErrStudentHasActiveProject
	}

	teacher, err := s.repo.Teacher.GetByID(ctx, req.TeacherID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTeacherNotFound
		}
		s.logger.Error("查询教师失败", zap.String("id", req.TeacherID), zap.Error(err))
		return nil, err
	}
	if !teacher.CanSupervise {
		return nil, ErrTeacherCannotSupervise
	}

	proposal := &model.TopicProposal{
		StudentID:      student.StudentID,
		TeacherID:      teacher.TeacherID,
		Title:          req.Title,
		Description:    req.Description,
		ExpectedResult: req.ExpectedResult,
		Status:         model.ProposalStatusPending,
	}
	if err := s.repo.Proposal.Create(ctx, proposal); err != nil {
		s.logger.Error("创建选题申请失败", zap.Error(err))
		return nil, err
	}

	s.logger.Info("选题申请已提交",
		zap.String("proposal_id", proposal.ProposalID),
		zap.String("student_id", student.StudentID),
	)

	s.notification.Notify(ctx, teacher.UserID, EventProposalReviewed,
		"收到新的选题申请",
		fmt.Sprintf("学生提交了自拟课题《%s》的申请，请及时审核。", req.Title))

	return s.loadProposalResponse(ctx, proposal.ProposalID)
}

// ────────────────────── GetProposal ──────────────────────

func (s *proposalService) GetProposal(ctx context.Context, operatorID, role, proposalID string) (*dto.ProposalResponse, error) {
	proposal, err := s.getOwned(ctx, operatorID, role, proposalID)
	if err != nil {
		return nil, err
	}
	return toProposalResponse(proposal), nil
}

// ────────────────────── ListMyProposals ──────────────────────

func (s *proposalService) ListMyProposals(ctx context.Context, operatorID, role string, req *dto.ProposalListRequest) ([]*dto.ProposalResponse, int64, error) {
	offset, limit := pageToRange(req.Page, req.PageSize)

	var (
		proposals []model.TopicProposal
		total     int64
		err       error
	)
	switch role {
	case model.RoleStudent:
		student, serr := s.repo.Student.GetByUserID(ctx, operatorID)
		if serr != nil {
			if errors.Is(serr, gorm.ErrRecordNotFound) {
				return nil, 0, ErrStudentNotFound
			}
			return nil, 0, serr
		}
		proposals, total, err = s.repo.Proposal.ListByStudent(ctx, student.StudentID, req.Status, offset, limit)
	case model.RoleTeacher:
		teacher, terr := s.repo.Teacher.GetByUserID(ctx, operatorID)
		if terr != nil {
			if errors.Is(terr, gorm.ErrRecordNotFound) {
				return nil, 0, ErrTeacherNotFound
			}
			return nil, 0, terr
		}
		proposals, total, err = s.repo.Proposal.ListByTeacher(ctx, teacher.TeacherID, req.Status, offset, limit)
	default:
		proposals, total, err = s.repo.Proposal.ListAll(ctx, req.Status, offset, limit)
	}
	if err != nil {
		s.logger.Error("查询申请列表失败", zap.Error(err))
		return nil, 0, err
	}

	resp := make([]*dto.ProposalResponse, 0, len(proposals))
	for i := range proposals {
		resp = append(resp, toProposalResponse(&proposals[i]))
	}
	return resp, total, nil
}

// ────────────────────── ReviewProposal ──────────────────────
//
// 只有被申请的指导教师可审核。通过时在同一事务内生成已有学生
// 占位的课题（待管理员终审）与项目，并占用教师指导名额。

func (s *proposalService) ReviewProposal(ctx context.Context, operatorID, proposalID string, req *dto.ReviewProposalRequest) (*dto.ProposalApproveResponse, error) {
	proposal, err := s.repo.Proposal.GetByID(ctx, proposalID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProposalNotFound
		}
		s.logger.Error("查询选题申请失败", zap.String("id", proposalID), zap.Error(err))
		return nil, err
	}

	teacher, err := s.repo.Teacher.GetByUserID(ctx, operatorID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProposalForbidden
		}
		s.logger.Error("查询教师档案失败", zap.String("user_id", operatorID), zap.Error(err))
		return nil, err
	}
	if proposal.TeacherID != teacher.TeacherID {
		return nil, ErrProposalForbidden
	}

	if proposal.Status != model.ProposalStatusPending {
		return nil, ErrProposalNotPending
	}

	if req.Action != "approve" && req.Feedback == "" {
		return nil, ErrFeedbackRequired
	}

	now := time.Now()
	proposal.Feedback = req.Feedback
	proposal.ReviewedAt = &now

	resp := &dto.ProposalApproveResponse{ProposalID: proposalID}

	switch req.Action {
	case "reject":
		proposal.Status = model.ProposalStatusRejected
		if err := s.repo.Proposal.Update(ctx, proposal); err != nil {
			s.logger.Error("更新选题申请失败", zap.String("id", proposalID), zap.Error(err))
			return nil, err
		}
	case "request_revision":
		proposal.Status = model.ProposalStatusRevisionRequested
		if err := s.repo.Proposal.Update(ctx, proposal); err != nil {
			s.logger.Error("更新选题申请失败", zap.String("id", proposalID), zap.Error(err))
			return nil, err
		}
	case "approve":
		topicID, projectID, err := s.approveInTx(ctx, proposal, teacher, operatorID)
		if err != nil {
			return nil, err
		}
		resp.TopicID = topicID
		resp.ProjectID = projectID
	}

	s.logger.Info("选题申请审核完成",
		zap.String("proposal_id", proposalID),
		zap.String("status", proposal.Status),
	)

	if proposal.Student != nil {
		s.notification.Notify(ctx, proposal.Student.UserID, EventProposalReviewed,
			"选题申请已审核",
			fmt.Sprintf("您的自拟课题《%s》审核结果：%s。", proposal.Title, proposalStatusText(proposal.Status)))
	}

	return resp, nil
}

// ────────────────────── DeleteProposal ──────────────────────

func (s *proposalService) DeleteProposal(ctx context.Context, operatorID, proposalID string) error {
	proposal, err := s.repo.Proposal.GetByID(ctx, proposalID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrProposalNotFound
		}
		s.logger.Error("查询选题申请失败", zap.String("id", proposalID), zap.Error(err))
		return err
	}

	student, err := s.repo.Student.GetByUserID(ctx, operatorID)
	if err != nil {
		return ErrProposalForbidden
	}
	if proposal.StudentID != student.StudentID {
		return ErrProposalForbidden
	}
	// 已被处理的申请不可撤回
	if proposal.Status != model.ProposalStatusPending {
		return ErrProposalNotPending
	}

	if err := s.repo.Proposal.Delete(ctx, proposalID); err != nil {
		s.logger.Error("删除选题申请失败", zap.String("id", proposalID), zap.Error(err))
		return err
	}

	s.logger.Info("选题申请已撤回", zap.String("proposal_id", proposalID))
	return nil
}

// ── 内部辅助方法 ──

// approveInTx 通过申请：生成课题与项目、占用指导名额，单事务完成
func (s *proposalService) approveInTx(ctx context.Context, proposal *model.TopicProposal, teacher *model.Teacher, operatorID string) (string, string, error) {
	// 学生在等待审核期间可能已注册其他课题
	active, err := s.repo.Project.CountActiveByStudent(ctx, proposal.StudentID)
	if err != nil {
		s.logger.Error("统计学生项目数失败", zap.String("student_id", proposal.StudentID), zap.Error(err))
		return "", "", err
	}
	if active > 0 {
		return "", "", ErrStudentHasActiveProject
	}

	tx, err := s.repo.BeginTx(ctx)
	if err != nil {
		s.logger.Error("开启事务失败", zap.Error(err))
		return "", "", err
	}
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
			panic(r)
		}
	}()

	txRepo := s.repo.WithTx(tx)

	proposal.Status = model.ProposalStatusApproved
	if err := txRepo.Proposal.Update(ctx, proposal); err != nil {
		tx.Rollback()
		s.logger.Error("更新选题申请失败", zap.String("id", proposal.ProposalID), zap.Error(err))
		return "", "", err
	}

	// 自拟课题：名额固定 1 人且创建即被申请学生占用，仍需管理员终审
	topic := &model.Topic{
		Title:           proposal.Title,
		Description:     proposal.Description,
		ExpectedResult:  proposal.ExpectedResult,
		MaxStudents:     1,
		CurrentStudents: 1,
		SupervisorID:    &teacher.TeacherID,
		Status:          model.TopicStatusPending,
		ProposalID:      &proposal.ProposalID,
	}
	topic.CreatedBy = &operatorID
	if err := txRepo.Topic.Create(ctx, topic); err != nil {
		tx.Rollback()
		s.logger.Error("创建自拟课题失败", zap.Error(err))
		return "", "", err
	}

	project := &model.Project{
		TopicID:      topic.TopicID,
		StudentID:    proposal.StudentID,
		SupervisorID: &teacher.TeacherID,
		Status:       model.ProjectStatusRegistered,
	}
	project.CreatedBy = &operatorID
	if err := txRepo.Project.Create(ctx, project); err != nil {
		tx.Rollback()
		s.logger.Error("创建项目失败", zap.Error(err))
		return "", "", err
	}

	if err := txRepo.Teacher.IncrementGuiding(ctx, teacher.TeacherID); err != nil {
		tx.Rollback()
		s.logger.Error("更新教师指导人数失败", zap.String("teacher_id", teacher.TeacherID), zap.Error(err))
		return "", "", err
	}

	if err := tx.Commit(); err != nil {
		s.logger.Error("提交事务失败", zap.Error(err))
		return "", "", err
	}

	return topic.TopicID, project.ProjectID, nil
}

func (s *proposalService) getOwned(ctx context.Context, operatorID, role, proposalID string) (*model.TopicProposal, error) {
	proposal, err := s.repo.Proposal.GetByID(ctx, proposalID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProposalNotFound
		}
		s.logger.Error("查询选题申请失败", zap.String("id", proposalID), zap.Error(err))
		return nil, err
	}

	switch role {
	case model.RoleAdmin:
		return proposal, nil
	case model.RoleStudent:
		student, err := s.repo.Student.GetByUserID(ctx, operatorID)
		if err != nil || proposal.StudentID != student.StudentID {
			return nil, ErrProposalForbidden
		}
	case model.RoleTeacher:
		teacher, err := s.repo.Teacher.GetByUserID(ctx, operatorID)
		if err != nil || proposal.TeacherID != teacher.TeacherID {
			return nil, ErrProposalForbidden
		}
	}
	return proposal, nil
}

func (s *proposalService) loadProposalResponse(ctx context.Context, proposalID string) (*dto.ProposalResponse, error) {
	proposal, err := s.repo.Proposal.GetByID(ctx, proposalID)
	if err != nil {
		s.logger.Error("查询选题申请失败", zap.String("id", proposalID), zap.Error(err))
		return nil, err
	}
	return toProposalResponse(proposal), nil
}

func (s *proposalService) checkProposalDeadline(ctx context.Context) error {
	announcement, err := s.repo.Announcement.GetCurrentPublished(ctx, "")
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		s.logger.Error("查询公告失败", zap.Error(err))
		return err
	}
	if announcement.ProposalDeadline != nil && time.Now().After(*announcement.ProposalDeadline) {
		return ErrProposalDeadline
	}
	return nil
}

func proposalStatusText(status string) string {
	switch status {
	case model.ProposalStatusApproved:
		return "通过"
	case model.ProposalStatusRejected:
		return "驳回"
	case model.ProposalStatusRevisionRequested:
		return "要求修改"
	default:
		return "待处理"
	}
}

// ── 转换辅助函数 ──

func toProposalResponse(p *model.TopicProposal) *dto.ProposalResponse {
	resp := &dto.ProposalResponse{
		ID:             p.ProposalID,
		StudentID:      p.StudentID,
		TeacherID:      p.TeacherID,
		Title:          p.Title,
		Description:    p.Description,
		ExpectedResult: p.ExpectedResult,
		Status:         p.Status,
		Feedback:       p.Feedback,
		CreatedAt:      p.CreatedAt.Format(time.RFC3339),
	}
	if p.ReviewedAt != nil {
		resp.ReviewedAt = p.ReviewedAt.Format(time.RFC3339)
	}
	if p.Student != nil && p.Student.User != nil {
		resp.StudentName = p.Student.User.Name
	}
	if p.Teacher != nil && p.Teacher.User != nil {
		resp.TeacherName = p.Teacher.User.Name
	}
	return resp
}
