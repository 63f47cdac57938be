package repository

import (
	"context"

	"gorm.io/gorm"

	"capstone-hub/backend/internal/model"
)

// ProposalRepository 选题申请数据访问接口
type ProposalRepository interface {
	Create(ctx context.Context, proposal *model.TopicProposal) error
	GetByID(ctx context.Context, id string) (*model.TopicProposal, error)
	ListByStudent(ctx context.Context, studentID string, status string, offset, limit int) ([]model.TopicProposal, int64, error)
	ListByTeacher(ctx context.Context, teacherID string, status string, offset, limit int) ([]model.TopicProposal, int64, error)
	ListAll(ctx context.Context, status string, offset, limit int) ([]model.TopicProposal, int64, error)
	CountOpenByStudent(ctx context.Context, studentID string) (int64, error)
	Update(ctx context.Context, proposal *model.TopicProposal) error
	Delete(ctx context.Context, id string) error
}

type proposalRepo struct {
	db *gorm.DB
}

// NewProposalRepo 创建 ProposalRepository 实例
func NewProposalRepo(db *gorm.DB) ProposalRepository {
	return &proposalRepo{db: db}
}

func (r *proposalRepo) Create(ctx context.Context, proposal *model.TopicProposal) error {
	return r.db.WithContext(ctx).Create(proposal).Error
}

func (r *proposalRepo) GetByID(ctx context.Context, id string) (*model.TopicProposal, error) {
	var proposal model.TopicProposal
	err := r.db.WithContext(ctx).
		Preload("Student.User").
		Preload("Teacher.User").
		Where("proposal_id = ?", id).
		First(&proposal).Error
	if err != nil {
		return nil, err
	}
	return &proposal, nil
}

func (r *proposalRepo) ListByStudent(ctx context.Context, studentID string, status string, offset, limit int) ([]model.TopicProposal, int64, error) {
	return r.list(ctx, "student_id = ?", studentID, status, offset, limit)
}

func (r *proposalRepo) ListByTeacher(ctx context.Context, teacherID string, status string, offset, limit int) ([]model.TopicProposal, int64, error) {
	return r.list(ctx, "teacher_id = ?", teacherID, status, offset, limit)
}

func (r *proposalRepo) ListAll(ctx context.Context, status string, offset, limit int) ([]model.TopicProposal, int64, error) {
	return r.list(ctx, "", "", status, offset, limit)
}

func (r *proposalRepo) list(ctx context.Context, cond string, arg string, status string, offset, limit int) ([]model.TopicProposal, int64, error) {
	var proposals []model.TopicProposal
	var total int64

	db := r.db.WithContext(ctx).Model(&model.TopicProposal{})
	if cond != "" {
		db = db.Where(cond, arg)
	}
	if status != "" {
		db = db.Where("status = ?", status)
	}

	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if err := db.Preload("Student.User").Preload("Teacher.User").
		Offset(offset).Limit(limit).
		Order("created_at DESC").
		Find(&proposals).Error; err != nil {
		return nil, 0, err
	}

	return proposals, total, nil
}

// CountOpenByStudent 统计学生占用申请名额的记录数（pending 或 approved）
func (r *proposalRepo) CountOpenByStudent(ctx context.Context, studentID string) (int64, error) {
	var total int64
	err := r.db.WithContext(ctx).
		Model(&model.TopicProposal{}).
		Where("student_id = ? AND status IN ?", studentID,
			[]string{model.ProposalStatusPending, model.ProposalStatusApproved}).
		Count(&total).Error
	return total, err
}

func (r *proposalRepo) Update(ctx context.Context, proposal *model.TopicProposal) error {
	return r.db.WithContext(ctx).Save(proposal).Error
}

func (r *proposalRepo) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).
		Where("proposal_id = ?", id).
		Delete(&model.TopicProposal{}).Error
}
