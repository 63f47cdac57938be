package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"capstone-hub/backend/internal/model"
)

// SystemStateRepository 系统初始化标志数据访问接口
// 单行表：initialized 只允许 false → true 翻转一次
type SystemStateRepository interface {
	Get(ctx context.Context) (*model.SystemState, error)
	MarkInitialized(ctx context.Context) (bool, error)
}

type systemStateRepo struct {
	db *gorm.DB
}

// NewSystemStateRepo 创建 SystemStateRepository 实例
func NewSystemStateRepo(db *gorm.DB) SystemStateRepository {
	return &systemStateRepo{db: db}
}

func (r *systemStateRepo) Get(ctx context.Context) (*model.SystemState, error) {
	var state model.SystemState
	err := r.db.WithContext(ctx).First(&state).Error
	if err != nil {
		return nil, err
	}
	return &state, nil
}

// MarkInitialized 一次性翻转初始化标志
// 条件更新保证并发首次注册只有一个请求命中；返回 false 表示已被初始化
func (r *systemStateRepo) MarkInitialized(ctx context.Context) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&model.SystemState{}).
		Where("id = 1 AND initialized = ?", false).
		Updates(map[string]interface{}{
			"initialized":    true,
			"initialized_at": time.Now(),
		})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}
