package repository

import (
	"context"

	"gorm.io/gorm"

	"capstone-hub/backend/internal/model"
	pkgerrors "capstone-hub/backend/pkg/errors"
)

// TopicFilter 课题列表过滤条件
type TopicFilter struct {
	Status       string
	Semester     string
	Field        string
	SupervisorID string
	Keyword      string
	Offset       int
	Limit        int
}

// TopicRepository 课题数据访问接口
// CurrentStudents 只通过 IncrementStudents / DecrementStudents 修改，
// 条件更新的命中行数是容量判定的唯一依据
type TopicRepository interface {
	Create(ctx context.Context, topic *model.Topic) error
	GetByID(ctx context.Context, id string) (*model.Topic, error)
	List(ctx context.Context, filter TopicFilter) ([]model.Topic, int64, error)
	ListByStatus(ctx context.Context, status string) ([]model.Topic, error)
	ListAll(ctx context.Context) ([]model.Topic, error)
	Update(ctx context.Context, topic *model.Topic) error
	Delete(ctx context.Context, id string, deletedBy string) error
	IncrementStudents(ctx context.Context, topicID string) (bool, error)
	DecrementStudents(ctx context.Context, topicID string) (bool, error)
	SetStudentCount(ctx context.Context, topicID string, count int) error
	SetReviewer(ctx context.Context, topicID string, reviewerID string, updatedBy string) error
}

type topicRepo struct {
	db *gorm.DB
}

// NewTopicRepo 创建 TopicRepository 实例
func NewTopicRepo(db *gorm.DB) TopicRepository {
	return &topicRepo{db: db}
}

func (r *topicRepo) Create(ctx context.Context, topic *model.Topic) error {
	return r.db.WithContext(ctx).Create(topic).Error
}

func (r *topicRepo) GetByID(ctx context.Context, id string) (*model.Topic, error) {
	var topic model.Topic
	err := r.db.WithContext(ctx).
		Preload("Supervisor.User").
		Preload("Reviewer.User").
		Where("topic_id = ?", id).
		First(&topic).Error
	if err != nil {
		return nil, err
	}
	return &topic, nil
}

func (r *topicRepo) List(ctx context.Context, filter TopicFilter) ([]model.Topic, int64, error) {
	var topics []model.Topic
	var total int64

	db := r.db.WithContext(ctx).Model(&model.Topic{})
	if filter.Status != "" {
		db = db.Where("status = ?", filter.Status)
	}
	if filter.Semester != "" {
		db = db.Where("semester = ?", filter.Semester)
	}
	if filter.Field != "" {
		db = db.Where("field = ?", filter.Field)
	}
	if filter.SupervisorID != "" {
		db = db.Where("supervisor_id = ?", filter.SupervisorID)
	}
	if filter.Keyword != "" {
		db = db.Where("title ILIKE ?", "%"+filter.Keyword+"%")
	}

	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if err := db.Preload("Supervisor.User").Preload("Reviewer.User").
		Offset(filter.Offset).Limit(filter.Limit).
		Order("created_at DESC").
		Find(&topics).Error; err != nil {
		return nil, 0, err
	}

	return topics, total, nil
}

func (r *topicRepo) ListByStatus(ctx context.Context, status string) ([]model.Topic, error) {
	var topics []model.Topic
	err := r.db.WithContext(ctx).
		Where("status = ?", status).
		Order("created_at").
		Find(&topics).Error
	return topics, err
}

// ListAll 全量课题（计数修复专用，不分页）
func (r *topicRepo) ListAll(ctx context.Context) ([]model.Topic, error) {
	var topics []model.Topic
	err := r.db.WithContext(ctx).Order("created_at").Find(&topics).Error
	return topics, err
}

// Update 乐观锁更新：version 不匹配说明读到写回之间被并发修改
func (r *topicRepo) Update(ctx context.Context, topic *model.Topic) error {
	current := topic.Version
	topic.Version = current + 1
	result := r.db.WithContext(ctx).
		Model(&model.Topic{}).
		Where("topic_id = ? AND version = ?", topic.TopicID, current).
		Select("*").
		Omit("topic_id", "created_at").
		Updates(topic)
	if result.Error != nil {
		topic.Version = current
		return result.Error
	}
	if result.RowsAffected == 0 {
		topic.Version = current
		return pkgerrors.ErrStaleWrite
	}
	return nil
}

func (r *topicRepo) Delete(ctx context.Context, id string, deletedBy string) error {
	// 软删除作用域保证只命中存活行，0 行说明已被并发删除
	result := r.db.WithContext(ctx).
		Model(&model.Topic{}).
		Where("topic_id = ?", id).
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

// IncrementStudents 选题人数 +1
// 仅当尚有名额时命中；返回 false 表示名额已满（或并发下被抢占）
func (r *topicRepo) IncrementStudents(ctx context.Context, topicID string) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&model.Topic{}).
		Where("topic_id = ? AND current_students < max_students", topicID).
		Updates(map[string]interface{}{
			"current_students": gorm.Expr("current_students + 1"),
			"updated_at":       gorm.Expr("NOW()"),
		})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

// DecrementStudents 选题人数 -1（不低于 0）
func (r *topicRepo) DecrementStudents(ctx context.Context, topicID string) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&model.Topic{}).
		Where("topic_id = ? AND current_students > 0", topicID).
		Updates(map[string]interface{}{
			"current_students": gorm.Expr("current_students - 1"),
			"updated_at":       gorm.Expr("NOW()"),
		})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

// SetStudentCount 计数修复专用：直接写入重算后的值
func (r *topicRepo) SetStudentCount(ctx context.Context, topicID string, count int) error {
	return r.db.WithContext(ctx).
		Model(&model.Topic{}).
		Where("topic_id = ?", topicID).
		Update("current_students", count).Error
}

// SetReviewer 写入评阅教师（覆盖原有分配）
func (r *topicRepo) SetReviewer(ctx context.Context, topicID string, reviewerID string, updatedBy string) error {
	return r.db.WithContext(ctx).
		Model(&model.Topic{}).
		Where("topic_id = ?", topicID).
		Updates(map[string]interface{}{
			"reviewer_id": reviewerID,
			"updated_by":  updatedBy,
			"updated_at":  gorm.Expr("NOW()"),
		}).Error
}
