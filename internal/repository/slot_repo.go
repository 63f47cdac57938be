package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"capstone-hub/backend/internal/model"
)

// SlotFilter 时段列表过滤条件
type SlotFilter struct {
	TeacherID string
	Status    string
	From      *time.Time
	To        *time.Time
}

// MeetingSlotRepository 会面时段数据访问接口
// BookedCount 只通过 IncrementBooked / DecrementBooked 修改，
// 条件更新的命中行数是席位判定的唯一依据
type MeetingSlotRepository interface {
	Create(ctx context.Context, slot *model.MeetingSlot) error
	GetByID(ctx context.Context, id string) (*model.MeetingSlot, error)
	List(ctx context.Context, filter SlotFilter) ([]model.MeetingSlot, error)
	Update(ctx context.Context, slot *model.MeetingSlot) error
	Delete(ctx context.Context, id string) error
	IncrementBooked(ctx context.Context, slotID string) (bool, error)
	DecrementBooked(ctx context.Context, slotID string) (bool, error)
	CloseExpired(ctx context.Context, before time.Time) (int64, error)
}

type meetingSlotRepo struct {
	db *gorm.DB
}

// NewMeetingSlotRepo 创建 MeetingSlotRepository 实例
func NewMeetingSlotRepo(db *gorm.DB) MeetingSlotRepository {
	return &meetingSlotRepo{db: db}
}

func (r *meetingSlotRepo) Create(ctx context.Context, slot *model.MeetingSlot) error {
	return r.db.WithContext(ctx).Create(slot).Error
}

func (r *meetingSlotRepo) GetByID(ctx context.Context, id string) (*model.MeetingSlot, error) {
	var slot model.MeetingSlot
	err := r.db.WithContext(ctx).
		Preload("Teacher.User").
		Where("slot_id = ?", id).
		First(&slot).Error
	if err != nil {
		return nil, err
	}
	return &slot, nil
}

func (r *meetingSlotRepo) List(ctx context.Context, filter SlotFilter) ([]model.MeetingSlot, error) {
	var slots []model.MeetingSlot

	db := r.db.WithContext(ctx).Model(&model.MeetingSlot{})
	if filter.TeacherID != "" {
		db = db.Where("teacher_id = ?", filter.TeacherID)
	}
	if filter.Status != "" {
		db = db.Where("status = ?", filter.Status)
	}
	if filter.From != nil {
		db = db.Where("starts_at >= ?", *filter.From)
	}
	if filter.To != nil {
		db = db.Where("starts_at < ?", *filter.To)
	}

	err := db.Preload("Teacher.User").Order("starts_at").Find(&slots).Error
	return slots, err
}

func (r *meetingSlotRepo) Update(ctx context.Context, slot *model.MeetingSlot) error {
	return r.db.WithContext(ctx).Save(slot).Error
}

func (r *meetingSlotRepo) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).
		Where("slot_id = ?", id).
		Delete(&model.MeetingSlot{}).Error
}

// IncrementBooked 占用一个席位
// 仅当时段开放且有剩余席位时命中；返回 false 表示席位已满或时段已关闭
func (r *meetingSlotRepo) IncrementBooked(ctx context.Context, slotID string) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&model.MeetingSlot{}).
		Where("slot_id = ? AND status = ? AND booked_count < max_students", slotID, model.SlotStatusOpen).
		Updates(map[string]interface{}{
			"booked_count": gorm.Expr("booked_count + 1"),
			"updated_at":   gorm.Expr("NOW()"),
		})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

// DecrementBooked 释放一个席位（不低于 0）
func (r *meetingSlotRepo) DecrementBooked(ctx context.Context, slotID string) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&model.MeetingSlot{}).
		Where("slot_id = ? AND booked_count > 0", slotID).
		Updates(map[string]interface{}{
			"booked_count": gorm.Expr("booked_count - 1"),
			"updated_at":   gorm.Expr("NOW()"),
		})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

// CloseExpired 批量关闭已过结束时间的开放时段，返回关闭数量
func (r *meetingSlotRepo) CloseExpired(ctx context.Context, before time.Time) (int64, error) {
	result := r.db.WithContext(ctx).
		Model(&model.MeetingSlot{}).
		Where("status = ? AND ends_at < ?", model.SlotStatusOpen, before).
		Updates(map[string]interface{}{
			"status":     model.SlotStatusClosed,
			"updated_at": gorm.Expr("NOW()"),
		})
	return result.RowsAffected, result.Error
}
