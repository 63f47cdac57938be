package repository

import (
	"context"

	"gorm.io/gorm"

	"capstone-hub/backend/internal/model"
)

// ProgressReportRepository 进度报告数据访问接口
type ProgressReportRepository interface {
	Create(ctx context.Context, report *model.ProgressReport) error
	GetByID(ctx context.Context, id string) (*model.ProgressReport, error)
	ListByProject(ctx context.Context, projectID string) ([]model.ProgressReport, error)
	Update(ctx context.Context, report *model.ProgressReport) error
}

type progressReportRepo struct {
	db *gorm.DB
}

// NewProgressReportRepo 创建 ProgressReportRepository 实例
func NewProgressReportRepo(db *gorm.DB) ProgressReportRepository {
	return &progressReportRepo{db: db}
}

func (r *progressReportRepo) Create(ctx context.Context, report *model.ProgressReport) error {
	return r.db.WithContext(ctx).Create(report).Error
}

func (r *progressReportRepo) GetByID(ctx context.Context, id string) (*model.ProgressReport, error) {
	var report model.ProgressReport
	err := r.db.WithContext(ctx).
		Where("report_id = ?", id).
		First(&report).Error
	if err != nil {
		return nil, err
	}
	return &report, nil
}

func (r *progressReportRepo) ListByProject(ctx context.Context, projectID string) ([]model.ProgressReport, error) {
	var reports []model.ProgressReport
	err := r.db.WithContext(ctx).
		Where("project_id = ?", projectID).
		Order("week_no").
		Find(&reports).Error
	return reports, err
}

func (r *progressReportRepo) Update(ctx context.Context, report *model.ProgressReport) error {
	return r.db.WithContext(ctx).Save(report).Error
}
