package repository

import (
	"context"

	"gorm.io/gorm"

	"capstone-hub/backend/internal/model"
	pkgerrors "capstone-hub/backend/pkg/errors"
)

// ProjectFilter 项目列表过滤条件
type ProjectFilter struct {
	Status       string
	Semester     string
	SupervisorID string
	Offset       int
	Limit        int
}

// ProjectRepository 项目数据访问接口
type ProjectRepository interface {
	Create(ctx context.Context, project *model.Project) error
	GetByID(ctx context.Context, id string) (*model.Project, error)
	List(ctx context.Context, filter ProjectFilter) ([]model.Project, int64, error)
	ListByStudent(ctx context.Context, studentID string) ([]model.Project, error)
	ListBySemester(ctx context.Context, semester string) ([]model.Project, error)
	CountActiveByStudent(ctx context.Context, studentID string) (int64, error)
	CountActiveByTopic(ctx context.Context, topicID string) (int64, error)
	CountActiveBySupervisor(ctx context.Context, teacherID string) (int64, error)
	Update(ctx context.Context, project *model.Project) error
	Delete(ctx context.Context, id string, deletedBy string) error
}

type projectRepo struct {
	db *gorm.DB
}

// NewProjectRepo 创建 ProjectRepository 实例
func NewProjectRepo(db *gorm.DB) ProjectRepository {
	return &projectRepo{db: db}
}

func (r *projectRepo) Create(ctx context.Context, project *model.Project) error {
	return r.db.WithContext(ctx).Create(project).Error
}

func (r *projectRepo) GetByID(ctx context.Context, id string) (*model.Project, error) {
	var project model.Project
	err := r.db.WithContext(ctx).
		Preload("Topic").
		Preload("Student.User").
		Where("project_id = ?", id).
		First(&project).Error
	if err != nil {
		return nil, err
	}
	return &project, nil
}

func (r *projectRepo) List(ctx context.Context, filter ProjectFilter) ([]model.Project, int64, error) {
	var projects []model.Project
	var total int64

	db := r.db.WithContext(ctx).Model(&model.Project{})
	if filter.Status != "" {
		db = db.Where("status = ?", filter.Status)
	}
	if filter.SupervisorID != "" {
		db = db.Where("supervisor_id = ?", filter.SupervisorID)
	}
	if filter.Semester != "" {
		db = db.Joins("JOIN topics ON topics.topic_id = projects.topic_id").
			Where("topics.semester = ?", filter.Semester)
	}

	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if err := db.Preload("Topic").Preload("Student.User").
		Offset(filter.Offset).Limit(filter.Limit).
		Order("projects.created_at DESC").
		Find(&projects).Error; err != nil {
		return nil, 0, err
	}

	return projects, total, nil
}

func (r *projectRepo) ListByStudent(ctx context.Context, studentID string) ([]model.Project, error) {
	var projects []model.Project
	err := r.db.WithContext(ctx).
		Preload("Topic").
		Where("student_id = ?", studentID).
		Order("created_at DESC").
		Find(&projects).Error
	return projects, err
}

func (r *projectRepo) ListBySemester(ctx context.Context, semester string) ([]model.Project, error) {
	var projects []model.Project
	err := r.db.WithContext(ctx).
		Preload("Topic").
		Preload("Student.User").
		Joins("JOIN topics ON topics.topic_id = projects.topic_id").
		Where("topics.semester = ?", semester).
		Order("projects.created_at").
		Find(&projects).Error
	return projects, err
}

// CountActiveByStudent 统计学生进行中项目数（用于"一人一进行中项目"校验）
func (r *projectRepo) CountActiveByStudent(ctx context.Context, studentID string) (int64, error) {
	var total int64
	err := r.db.WithContext(ctx).
		Model(&model.Project{}).
		Where("student_id = ? AND status IN ?", studentID, model.ActiveProjectStatuses).
		Count(&total).Error
	return total, err
}

// CountActiveByTopic 统计课题下进行中项目数（删除课题前的依赖检查）
func (r *projectRepo) CountActiveByTopic(ctx context.Context, topicID string) (int64, error) {
	var total int64
	err := r.db.WithContext(ctx).
		Model(&model.Project{}).
		Where("topic_id = ? AND status IN ?", topicID, model.ActiveProjectStatuses).
		Count(&total).Error
	return total, err
}

// CountActiveBySupervisor 统计教师名下进行中项目数（guiding_count 修复时重算）
func (r *projectRepo) CountActiveBySupervisor(ctx context.Context, teacherID string) (int64, error) {
	var total int64
	err := r.db.WithContext(ctx).
		Model(&model.Project{}).
		Where("supervisor_id = ? AND status IN ?", teacherID, model.ActiveProjectStatuses).
		Count(&total).Error
	return total, err
}

// Update 乐观锁更新，语义同 topicRepo.Update
func (r *projectRepo) Update(ctx context.Context, project *model.Project) error {
	current := project.Version
	project.Version = current + 1
	result := r.db.WithContext(ctx).
		Model(&model.Project{}).
		Where("project_id = ? AND version = ?", project.ProjectID, current).
		Select("*").
		Omit("project_id", "created_at").
		Updates(project)
	if result.Error != nil {
		project.Version = current
		return result.Error
	}
	if result.RowsAffected == 0 {
		project.Version = current
		return pkgerrors.ErrStaleWrite
	}
	return nil
}

func (r *projectRepo) Delete(ctx context.Context, id string, deletedBy string) error {
	// 软删除作用域保证只命中存活行，0 行说明已被并发删除
	result := r.db.WithContext(ctx).
		Model(&model.Project{}).
		Where("project_id = ?", id).
		Updates(map[string]interface{}{
			"deleted_by": deletedBy,
			"deleted_at": gorm.Expr("NOW()"),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return pkgerrors.ErrStaleWrite
	}
	return nil
}
