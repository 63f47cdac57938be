package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"capstone-hub/backend/internal/model"
)

// SlotBookingRepository 时段预约数据访问接口
type SlotBookingRepository interface {
	Create(ctx context.Context, booking *model.SlotBooking) error
	GetByID(ctx context.Context, id string) (*model.SlotBooking, error)
	GetActiveBySlotAndStudent(ctx context.Context, slotID, studentID string) (*model.SlotBooking, error)
	CountActiveOverlapping(ctx context.Context, studentID string, start, end time.Time) (int64, error)
	ListByStudent(ctx context.Context, studentID string) ([]model.SlotBooking, error)
	ListBySlot(ctx context.Context, slotID string) ([]model.SlotBooking, error)
	Update(ctx context.Context, booking *model.SlotBooking) error
}

type slotBookingRepo struct {
	db *gorm.DB
}

// NewSlotBookingRepo 创建 SlotBookingRepository 实例
func NewSlotBookingRepo(db *gorm.DB) SlotBookingRepository {
	return &slotBookingRepo{db: db}
}

func (r *slotBookingRepo) Create(ctx context.Context, booking *model.SlotBooking) error {
	return r.db.WithContext(ctx).Create(booking).Error
}

func (r *slotBookingRepo) GetByID(ctx context.Context, id string) (*model.SlotBooking, error) {
	var booking model.SlotBooking
	err := r.db.WithContext(ctx).
		Preload("Slot.Teacher.User").
		Preload("Student.User").
		Where("booking_id = ?", id).
		First(&booking).Error
	if err != nil {
		return nil, err
	}
	return &booking, nil
}

// GetActiveBySlotAndStudent 查询学生对某时段的未取消预约
func (r *slotBookingRepo) GetActiveBySlotAndStudent(ctx context.Context, slotID, studentID string) (*model.SlotBooking, error) {
	var booking model.SlotBooking
	err := r.db.WithContext(ctx).
		Where("slot_id = ? AND student_id = ? AND status = ?",
			slotID, studentID, model.BookingStatusBooked).
		First(&booking).Error
	if err != nil {
		return nil, err
	}
	return &booking, nil
}

// CountActiveOverlapping 统计学生在给定时间段内已有的未取消预约
func (r *slotBookingRepo) CountActiveOverlapping(ctx context.Context, studentID string, start, end time.Time) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&model.SlotBooking{}).
		Joins("JOIN meeting_slots ON meeting_slots.slot_id = slot_bookings.slot_id").
		Where("slot_bookings.student_id = ? AND slot_bookings.status = ?",
			studentID, model.BookingStatusBooked).
		Where("meeting_slots.starts_at < ? AND meeting_slots.ends_at > ?", end, start).
		Count(&count).Error
	return count, err
}

func (r *slotBookingRepo) ListByStudent(ctx context.Context, studentID string) ([]model.SlotBooking, error) {
	var bookings []model.SlotBooking
	err := r.db.WithContext(ctx).
		Preload("Slot.Teacher.User").
		Where("student_id = ?", studentID).
		Order("created_at DESC").
		Find(&bookings).Error
	return bookings, err
}

func (r *slotBookingRepo) ListBySlot(ctx context.Context, slotID string) ([]model.SlotBooking, error) {
	var bookings []model.SlotBooking
	err := r.db.WithContext(ctx).
		Preload("Student.User").
		Where("slot_id = ?", slotID).
		Order("created_at").
		Find(&bookings).Error
	return bookings, err
}

func (r *slotBookingRepo) Update(ctx context.Context, booking *model.SlotBooking) error {
	return r.db.WithContext(ctx).Save(booking).Error
}
