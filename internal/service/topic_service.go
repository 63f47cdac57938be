package service

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"capstone-hub/backend/internal/dto"
	"capstone-hub/backend/internal/model"
	"capstone-hub/backend/internal/repository"
)

// ── 课题模块业务错误 ──

var (
	ErrTopicNotFound          = errors.New("课题不存在")
	ErrTopicForbidden         = errors.New("无权操作该课题")
	ErrInvalidTopicTransition = errors.New("课题状态不允许该变更")
	ErrTopicHasProjects       = errors.New("课题下存在进行中的项目，不能删除")
	ErrTopicNotApproved       = errors.New("课题尚未通过审核")
	ErrReviewerIsSupervisor   = errors.New("评阅教师不能是指导教师本人")
	ErrReviewerNotEligible    = errors.New("该教师不具备评阅资格")
)

// defaultRejectReason 驳回时未填写理由的占位文案
const defaultRejectReason = "未填写驳回理由"

// topicTransitions 课题状态迁移表：驳回后可修改重新送审，
// 已通过的课题允许管理员撤回重审（approved → pending）
var topicTransitions = map[string][]string{
	model.TopicStatusPending:  {model.TopicStatusApproved, model.TopicStatusRejected},
	model.TopicStatusRejected: {model.TopicStatusPending},
	model.TopicStatusApproved: {model.TopicStatusPending},
}

func topicTransitionAllowed(from, to string) bool {
	for _, s := range topicTransitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// TopicService 课题业务接口
type TopicService interface {
	CreateTopic(ctx context.Context, operatorID, role string, req *dto.CreateTopicRequest) (*dto.TopicResponse, error)
	GetTopic(ctx context.Context, id string) (*dto.TopicResponse, error)
	ListTopics(ctx context.Context, req *dto.TopicListRequest) ([]*dto.TopicResponse, int64, error)
	UpdateTopic(ctx context.Context, operatorID, role, id string, req *dto.UpdateTopicRequest) (*dto.TopicResponse, error)
	DeleteTopic(ctx context.Context, operatorID, role, id string) error
	SetTopicStatus(ctx context.Context, operatorID, id string, req *dto.SetTopicStatusRequest) (*dto.TopicResponse, error)
	AssignReviewer(ctx context.Context, operatorID, id string, req *dto.AssignReviewerRequest) (*dto.TopicResponse, error)
	AutoAssignReviewers(ctx context.Context, operatorID string) (*dto.AutoAssignResponse, error)
	ResetCounters(ctx context.Context) (*dto.ResetCountersResponse, error)
}

type topicService struct {
	repo         *repository.Repository
	notification NotificationService
	rng          *rand.Rand
	logger       *zap.Logger
}

// NewTopicService 创建 TopicService 实例
// rng 由调用方注入，批量分配评阅教师时使用
func NewTopicService(repo *repository.Repository, notification NotificationService, rng *rand.Rand, logger *zap.Logger) TopicService {
	return &topicService{repo: repo, notification: notification, rng: rng, logger: logger}
}

// ────────────────────── CreateTopic ──────────────────────

func (s *topicService) CreateTopic(ctx context.Context, operatorID, role string, req *dto.CreateTopicRequest) (*dto.TopicResponse, error) {
	topic := &model.Topic{
		Title:          req.Title,
		Description:    req.Description,
		Requirements:   req.Requirements,
		ExpectedResult: req.ExpectedResult,
		Field:          req.Field,
		Semester:       req.Semester,
		AcademicYear:   req.AcademicYear,
		MaxStudents:    req.MaxStudents,
		Status:         model.TopicStatusPending,
	}
	if topic.MaxStudents <= 0 {
		topic.MaxStudents = 1
	}
	topic.CreatedBy = &operatorID

	// 教师建题：指导教师即本人。管理员代录时暂不绑定指导教师
	if role == model.RoleTeacher {
		teacher, err := s.repo.Teacher.GetByUserID(ctx, operatorID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, ErrTeacherNotFound
			}
			s.logger.Error("查询教师档案失败", zap.String("user_id", operatorID), zap.Error(err))
			return nil, err
		}
		topic.SupervisorID = &teacher.TeacherID
	}

	if err := s.repo.Topic.Create(ctx, topic); err != nil {
		s.logger.Error("创建课题失败", zap.Error(err))
		return nil, err
	}

	s.logger.Info("课题已创建",
		zap.String("topic_id", topic.TopicID),
		zap.String("title", topic.Title),
	)

	return s.GetTopic(ctx, topic.TopicID)
}

// ────────────────────── GetTopic / ListTopics ──────────────────────

func (s *topicService) GetTopic(ctx context.Context, id string) (*dto.TopicResponse, error) {
	topic, err := s.repo.Topic.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTopicNotFound
		}
		s.logger.Error("查询课题失败", zap.String("id", id), zap.Error(err))
		return nil, err
	}
	return toTopicResponse(topic), nil
}

func (s *topicService) ListTopics(ctx context.Context, req *dto.TopicListRequest) ([]*dto.TopicResponse, int64, error) {
	offset, limit := pageToRange(req.Page, req.PageSize)

	topics, total, err := s.repo.Topic.List(ctx, repository.TopicFilter{
		Status:       req.Status,
		Semester:     req.Semester,
		Field:        req.Field,
		SupervisorID: req.SupervisorID,
		Keyword:      req.Keyword,
		Offset:       offset,
		Limit:        limit,
	})
	if err != nil {
		s.logger.Error("查询课题列表失败", zap.Error(err))
		return nil, 0, err
	}

	resp := make([]*dto.TopicResponse, 0, len(topics))
	for i := range topics {
		resp = append(resp, toTopicResponse(&topics[i]))
	}
	return resp, total, nil
}

// ────────────────────── UpdateTopic ──────────────────────
//
// 指导教师只能改自己的课题；已通过的课题内容冻结。
// 驳回的课题修改后自动回到待审状态。

func (s *topicService) UpdateTopic(ctx context.Context, operatorID, role, id string, req *dto.UpdateTopicRequest) (*dto.TopicResponse, error) {
	topic, err := s.repo.Topic.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTopicNotFound
		}
		s.logger.Error("查询课题失败", zap.String("id", id), zap.Error(err))
		return nil, err
	}

	if role != model.RoleAdmin {
		if err := s.ensureSupervisor(ctx, operatorID, topic); err != nil {
			return nil, err
		}
	}
	if topic.Status == model.TopicStatusApproved {
		return nil, ErrInvalidTopicTransition
	}

	if req.Title != nil {
		topic.Title = *req.Title
	}
	if req.Description != nil {
		topic.Description = *req.Description
	}
	if req.Requirements != nil {
		topic.Requirements = *req.Requirements
	}
	if req.ExpectedResult != nil {
		topic.ExpectedResult = *req.ExpectedResult
	}
	if req.Field != nil {
		topic.Field = *req.Field
	}
	if req.Semester != nil {
		topic.Semester = *req.Semester
	}
	if req.AcademicYear != nil {
		topic.AcademicYear = *req.AcademicYear
	}
	if req.MaxStudents != nil {
		topic.MaxStudents = *req.MaxStudents
	}

	if topic.Status == model.TopicStatusRejected {
		topic.Status = model.TopicStatusPending
		topic.RejectReason = ""
	}
	topic.UpdatedBy = &operatorID

	if err := s.repo.Topic.Update(ctx, topic); err != nil {
		s.logger.Error("更新课题失败", zap.String("id", id), zap.Error(err))
		return nil, err
	}

	return toTopicResponse(topic), nil
}

// ────────────────────── DeleteTopic ──────────────────────

func (s *topicService) DeleteTopic(ctx context.Context, operatorID, role, id string) error {
	topic, err := s.repo.Topic.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrTopicNotFound
		}
		s.logger.Error("查询课题失败", zap.String("id", id), zap.Error(err))
		return err
	}

	if role != model.RoleAdmin {
		if err := s.ensureSupervisor(ctx, operatorID, topic); err != nil {
			return err
		}
	}

	// 有进行中的项目挂在课题上时拒绝删除
	active, err := s.repo.Project.CountActiveByTopic(ctx, id)
	if err != nil {
		s.logger.Error("统计课题项目数失败", zap.String("id", id), zap.Error(err))
		return err
	}
	if active > 0 {
		return ErrTopicHasProjects
	}

	if err := s.repo.Topic.Delete(ctx, id, operatorID); err != nil {
		s.logger.Error("删除课题失败", zap.String("id", id), zap.Error(err))
		return err
	}

	s.logger.Info("课题已删除", zap.String("topic_id", id))
	return nil
}

// ────────────────────── SetTopicStatus ──────────────────────

func (s *topicService) SetTopicStatus(ctx context.Context, operatorID, id string, req *dto.SetTopicStatusRequest) (*dto.TopicResponse, error) {
	topic, err := s.repo.Topic.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTopicNotFound
		}
		s.logger.Error("查询课题失败", zap.String("id", id), zap.Error(err))
		return nil, err
	}

	if !topicTransitionAllowed(topic.Status, req.Status) {
		return nil, ErrInvalidTopicTransition
	}

	switch req.Status {
	case model.TopicStatusApproved:
		now := time.Now()
		topic.Status = model.TopicStatusApproved
		topic.RejectReason = ""
		topic.ApprovedAt = &now
		topic.ApprovedBy = &operatorID
	case model.TopicStatusRejected:
		reason := req.RejectReason
		if reason == "" {
			reason = defaultRejectReason
		}
		topic.Status = model.TopicStatusRejected
		topic.RejectReason = reason
	case model.TopicStatusPending:
		// 撤回重审：清除审批痕迹
		topic.Status = model.TopicStatusPending
		topic.RejectReason = ""
		topic.ApprovedAt = nil
		topic.ApprovedBy = nil
	}
	topic.UpdatedBy = &operatorID

	if err := s.repo.Topic.Update(ctx, topic); err != nil {
		s.logger.Error("更新课题状态失败", zap.String("id", id), zap.Error(err))
		return nil, err
	}

	s.logger.Info("课题审核完成",
		zap.String("topic_id", id),
		zap.String("status", topic.Status),
	)
	s.notifySupervisor(ctx, topic)

	return toTopicResponse(topic), nil
}

// ────────────────────── AssignReviewer ──────────────────────

func (s *topicService) AssignReviewer(ctx context.Context, operatorID, id string, req *dto.AssignReviewerRequest) (*dto.TopicResponse, error) {
	topic, err := s.repo.Topic.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTopicNotFound
		}
		s.logger.Error("查询课题失败", zap.String("id", id), zap.Error(err))
		return nil, err
	}
	if topic.Status != model.TopicStatusApproved {
		return nil, ErrTopicNotApproved
	}
	if topic.SupervisorID != nil && *topic.SupervisorID == req.ReviewerID {
		return nil, ErrReviewerIsSupervisor
	}

	reviewer, err := s.repo.Teacher.GetByID(ctx, req.ReviewerID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTeacherNotFound
		}
		s.logger.Error("查询教师失败", zap.String("id", req.ReviewerID), zap.Error(err))
		return nil, err
	}
	if !reviewer.CanReview {
		return nil, ErrReviewerNotEligible
	}

	if err := s.repo.Topic.SetReviewer(ctx, id, req.ReviewerID, operatorID); err != nil {
		s.logger.Error("写入评阅教师失败", zap.String("topic_id", id), zap.Error(err))
		return nil, err
	}

	s.notification.Notify(ctx, reviewer.UserID, EventReviewerAssigned,
		"您被指定为评阅教师",
		fmt.Sprintf("课题《%s》已指定您为评阅教师。", topic.Title))

	return s.GetTopic(ctx, id)
}

// ────────────────────── AutoAssignReviewers ──────────────────────
//
// 对全部已通过课题整体重排：每个课题从可评阅教师中随机抽取一名
// 非指导教师的评阅人。单事务执行，失败整体回滚。

func (s *topicService) AutoAssignReviewers(ctx context.Context, operatorID string) (*dto.AutoAssignResponse, error) {
	topics, err := s.repo.Topic.ListByStatus(ctx, model.TopicStatusApproved)
	if err != nil {
		s.logger.Error("查询已通过课题失败", zap.Error(err))
		return nil, err
	}

	reviewers, err := s.repo.Teacher.ListActiveReviewers(ctx)
	if err != nil {
		s.logger.Error("查询评阅教师失败", zap.Error(err))
		return nil, err
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

	assigned := 0
	type notice struct {
		userID string
		title  string
	}
	var notices []notice

	for i := range topics {
		topic := &topics[i]

		// 先剔除指导教师本人，再从候选集中等概率抽取
		candidates := make([]*model.Teacher, 0, len(reviewers))
		for j := range reviewers {
			if topic.SupervisorID != nil && *topic.SupervisorID == reviewers[j].TeacherID {
				continue
			}
			candidates = append(candidates, &reviewers[j])
		}
		if len(candidates) == 0 {
			continue // 无可选评阅人，留空待人工处理
		}
		picked := candidates[s.rng.Intn(len(candidates))]

		if err := txRepo.Topic.SetReviewer(ctx, topic.TopicID, picked.TeacherID, operatorID); err != nil {
			tx.Rollback()
			s.logger.Error("批量分配评阅教师失败", zap.String("topic_id", topic.TopicID), zap.Error(err))
			return nil, err
		}
		assigned++
		notices = append(notices, notice{userID: picked.UserID, title: topic.Title})
	}

	if err := tx.Commit(); err != nil {
		s.logger.Error("提交事务失败", zap.Error(err))
		return nil, err
	}

	for _, n := range notices {
		s.notification.Notify(ctx, n.userID, EventReviewerAssigned,
			"您被指定为评阅教师",
			fmt.Sprintf("课题《%s》已指定您为评阅教师。", n.title))
	}

	s.logger.Info("批量分配评阅教师完成",
		zap.Int("processed", len(topics)),
		zap.Int("assigned", assigned),
	)

	return &dto.AutoAssignResponse{Processed: len(topics), Assigned: assigned}, nil
}

// ────────────────────── ResetCounters ──────────────────────
//
// 冗余计数修复：按进行中项目重算课题选题人数与教师指导人数。
// 只修不一致的行，返回修复数量。

func (s *topicService) ResetCounters(ctx context.Context) (*dto.ResetCountersResponse, error) {
	resp := &dto.ResetCountersResponse{}

	topics, err := s.repo.Topic.ListAll(ctx)
	if err != nil {
		s.logger.Error("查询课题失败", zap.Error(err))
		return nil, err
	}
	for i := range topics {
		topic := &topics[i]
		actual, err := s.repo.Project.CountActiveByTopic(ctx, topic.TopicID)
		if err != nil {
			s.logger.Error("统计课题项目数失败", zap.String("id", topic.TopicID), zap.Error(err))
			return nil, err
		}
		if int(actual) != topic.CurrentStudents {
			if err := s.repo.Topic.SetStudentCount(ctx, topic.TopicID, int(actual)); err != nil {
				s.logger.Error("修复课题计数失败", zap.String("id", topic.TopicID), zap.Error(err))
				return nil, err
			}
			resp.TopicsFixed++
		}
	}

	teachers, err := s.repo.Teacher.ListAll(ctx)
	if err != nil {
		s.logger.Error("查询教师失败", zap.Error(err))
		return nil, err
	}
	for i := range teachers {
		teacher := &teachers[i]
		actual, err := s.repo.Project.CountActiveBySupervisor(ctx, teacher.TeacherID)
		if err != nil {
			s.logger.Error("统计教师项目数失败", zap.String("id", teacher.TeacherID), zap.Error(err))
			return nil, err
		}
		if int(actual) != teacher.GuidingCount {
			if err := s.repo.Teacher.SetGuidingCount(ctx, teacher.TeacherID, int(actual)); err != nil {
				s.logger.Error("修复教师计数失败", zap.String("id", teacher.TeacherID), zap.Error(err))
				return nil, err
			}
			resp.TeachersFixed++
		}
	}

	s.logger.Info("计数修复完成",
		zap.Int("topics_fixed", resp.TopicsFixed),
		zap.Int("teachers_fixed", resp.TeachersFixed),
	)
	return resp, nil
}

// ── 内部辅助方法 ──

// ensureSupervisor 校验操作者是课题的指导教师
func (s *topicService) ensureSupervisor(ctx context.Context, operatorID string, topic *model.Topic) error {
	teacher, err := s.repo.Teacher.GetByUserID(ctx, operatorID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrTopicForbidden
		}
		s.logger.Error("查询教师档案失败", zap.String("user_id", operatorID), zap.Error(err))
		return err
	}
	if topic.SupervisorID == nil || *topic.SupervisorID != teacher.TeacherID {
		return ErrTopicForbidden
	}
	return nil
}

func (s *topicService) notifySupervisor(ctx context.Context, topic *model.Topic) {
	if topic.Supervisor == nil {
		return
	}
	switch topic.Status {
	case model.TopicStatusApproved:
		s.notification.Notify(ctx, topic.Supervisor.UserID, EventTopicApproved,
			"课题审核通过",
			fmt.Sprintf("您的课题《%s》已通过审核。", topic.Title))
	case model.TopicStatusRejected:
		s.notification.Notify(ctx, topic.Supervisor.UserID, EventTopicRejected,
			"课题被驳回",
			fmt.Sprintf("您的课题《%s》未通过审核：%s", topic.Title, topic.RejectReason))
	}
}

// ── 转换辅助函数 ──

func toTopicResponse(t *model.Topic) *dto.TopicResponse {
	resp := &dto.TopicResponse{
		ID:              t.TopicID,
		Title:           t.Title,
		Description:     t.Description,
		Requirements:    t.Requirements,
		ExpectedResult:  t.ExpectedResult,
		Field:           t.Field,
		Semester:        t.Semester,
		AcademicYear:    t.AcademicYear,
		MaxStudents:     t.MaxStudents,
		CurrentStudents: t.CurrentStudents,
		Status:          t.Status,
		RejectReason:    t.RejectReason,
		CreatedAt:       t.CreatedAt.Format(time.RFC3339),
		UpdatedAt:       t.UpdatedAt.Format(time.RFC3339),
	}
	if t.ApprovedAt != nil {
		resp.ApprovedAt = t.ApprovedAt.Format(time.RFC3339)
	}
	if t.ProposalID != nil {
		resp.ProposalID = *t.ProposalID
	}
	if t.SupervisorID != nil {
		resp.SupervisorID = *t.SupervisorID
	}
	if t.Supervisor != nil && t.Supervisor.User != nil {
		resp.SupervisorName = t.Supervisor.User.Name
	}
	if t.ReviewerID != nil {
		resp.ReviewerID = *t.ReviewerID
	}
	if t.Reviewer != nil && t.Reviewer.User != nil {
		resp.ReviewerName = t.Reviewer.User.Name
	}
	return resp
}
