package repository

import (
	"context"

	"gorm.io/gorm"

	"capstone-hub/backend/internal/model"
)

// EvaluationRepository 评审记录数据访问接口
type EvaluationRepository interface {
	GetByProjectAndRole(ctx context.Context, projectID, role string) (*model.Evaluation, error)
	ListByProject(ctx context.Context, projectID string) ([]model.Evaluation, error)
	Create(ctx context.Context, evaluation *model.Evaluation) error
	Update(ctx context.Context, evaluation *model.Evaluation) error
}

type evaluationRepo struct {
	db *gorm.DB
}

// NewEvaluationRepo 创建 EvaluationRepository 实例
func NewEvaluationRepo(db *gorm.DB) EvaluationRepository {
	return &evaluationRepo{db: db}
}

func (r *evaluationRepo) GetByProjectAndRole(ctx context.Context, projectID, role string) (*model.Evaluation, error) {
	var evaluation model.Evaluation
	err := r.db.WithContext(ctx).
		Where("project_id = ? AND evaluator_role = ?", projectID, role).
		First(&evaluation).Error
	if err != nil {
		return nil, err
	}
	return &evaluation, nil
}

func (r *evaluationRepo) ListByProject(ctx context.Context, projectID string) ([]model.Evaluation, error) {
	var evaluations []model.Evaluation
	err := r.db.WithContext(ctx).
		Where("project_id = ?", projectID).
		Order("created_at").
		Find(&evaluations).Error
	return evaluations, err
}

func (r *evaluationRepo) Create(ctx context.Context, evaluation *model.Evaluation) error {
	return r.db.WithContext(ctx).Create(evaluation).Error
}

func (r *evaluationRepo) Update(ctx context.Context, evaluation *model.Evaluation) error {
	return r.db.WithContext(ctx).Save(evaluation).Error
}
