package repository

import (
	"context"

	"gorm.io/gorm"

	"capstone-hub/backend/internal/model"
)

// TeacherRepository 教师档案数据访问接口
// GuidingCount 只通过 IncrementGuiding / DecrementGuiding 修改
type TeacherRepository interface {
	Create(ctx context.Context, teacher *model.Teacher) error
	GetByID(ctx context.Context, id string) (*model.Teacher, error)
	GetByUserID(ctx context.Context, userID string) (*model.Teacher, error)
	Update(ctx context.Context, teacher *model.Teacher) error
	ListActiveReviewers(ctx context.Context) ([]model.Teacher, error)
	ListAll(ctx context.Context) ([]model.Teacher, error)
	IncrementGuiding(ctx context.Context, teacherID string) error
	DecrementGuiding(ctx context.Context, teacherID string) error
	SetGuidingCount(ctx context.Context, teacherID string, count int) error
}

type teacherRepo struct {
	db *gorm.DB
}

// NewTeacherRepo 创建 TeacherRepository 实例
func NewTeacherRepo(db *gorm.DB) TeacherRepository {
	return &teacherRepo{db: db}
}

func (r *teacherRepo) Create(ctx context.Context, teacher *model.Teacher) error {
	return r.db.WithContext(ctx).Create(teacher).Error
}

func (r *teacherRepo) GetByID(ctx context.Context, id string) (*model.Teacher, error) {
	var teacher model.Teacher
	err := r.db.WithContext(ctx).
		Preload("User").
		Where("teacher_id = ?", id).
		First(&teacher).Error
	if err != nil {
		return nil, err
	}
	return &teacher, nil
}

func (r *teacherRepo) GetByUserID(ctx context.Context, userID string) (*model.Teacher, error) {
	var teacher model.Teacher
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		First(&teacher).Error
	if err != nil {
		return nil, err
	}
	return &teacher, nil
}

func (r *teacherRepo) Update(ctx context.Context, teacher *model.Teacher) error {
	return r.db.WithContext(ctx).Save(teacher).Error
}

// ListActiveReviewers 列出可担任评阅人的在职教师
// 账号停用的教师不参与分配
func (r *teacherRepo) ListActiveReviewers(ctx context.Context) ([]model.Teacher, error) {
	var teachers []model.Teacher
	err := r.db.WithContext(ctx).
		Joins("JOIN users ON users.user_id = teachers.user_id AND users.deleted_at IS NULL").
		Where("teachers.can_review = ? AND users.is_active = ?", true, true).
		Order("teachers.code").
		Find(&teachers).Error
	return teachers, err
}

// ListAll 全量教师（计数修复专用）
func (r *teacherRepo) ListAll(ctx context.Context) ([]model.Teacher, error) {
	var teachers []model.Teacher
	err := r.db.WithContext(ctx).Order("code").Find(&teachers).Error
	return teachers, err
}

// IncrementGuiding 指导人数 +1
func (r *teacherRepo) IncrementGuiding(ctx context.Context, teacherID string) error {
	return r.db.WithContext(ctx).
		Model(&model.Teacher{}).
		Where("teacher_id = ?", teacherID).
		Updates(map[string]interface{}{
			"guiding_count": gorm.Expr("guiding_count + 1"),
			"updated_at":    gorm.Expr("NOW()"),
		}).Error
}

// DecrementGuiding 指导人数 -1（不低于 0）
func (r *teacherRepo) DecrementGuiding(ctx context.Context, teacherID string) error {
	return r.db.WithContext(ctx).
		Model(&model.Teacher{}).
		Where("teacher_id = ? AND guiding_count > 0", teacherID).
		Updates(map[string]interface{}{
			"guiding_count": gorm.Expr("guiding_count - 1"),
			"updated_at":    gorm.Expr("NOW()"),
		}).Error
}

// SetGuidingCount 计数修复专用：直接写入重算后的值
func (r *teacherRepo) SetGuidingCount(ctx context.Context, teacherID string, count int) error {
	return r.db.WithContext(ctx).
		Model(&model.Teacher{}).
		Where("teacher_id = ?", teacherID).
		Update("guiding_count", count).Error
}
