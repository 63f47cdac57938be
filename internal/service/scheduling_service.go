package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	ics "github.com/arran4/golang-ical"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"capstone-hub/backend/internal/dto"
	"capstone-hub/backend/internal/model"
	"capstone-hub/backend/internal/repository"
)

// ── 预约调度模块业务错误 ──

var (
	ErrSlotNotFound         = errors.New("预约时段不存在")
	ErrSlotForbidden        = errors.New("无权操作该时段")
	ErrSlotTimeInvalid      = errors.New("时段结束时间必须晚于开始时间")
	ErrSlotInPast           = errors.New("不能发布已过去的时段")
	ErrSlotFull             = errors.New("该时段席位已满或已关闭")
	ErrSlotHasBookings      = errors.New("时段已有预约，不能删除")
	ErrBookingNotFound      = errors.New("预约不存在")
	ErrBookingForbidden     = errors.New("无权操作该预约")
	ErrAlreadyBooked        = errors.New("您已预约该时段")
	ErrBookingOverlap       = errors.New("与已有预约时间冲突")
	ErrBookingNotCancelable = errors.New("预约当前状态不允许取消")
	ErrBookingNotClosable   = errors.New("预约当前状态不允许标记出席")
)

// SchedulingService 会面时段与预约业务接口
type SchedulingService interface {
	CreateSlot(ctx context.Context, operatorID string, req *dto.CreateSlotRequest) (*dto.SlotResponse, error)
	ListSlots(ctx context.Context, req *dto.SlotListRequest) ([]*dto.SlotResponse, error)
	DeleteSlot(ctx context.Context, operatorID, role, slotID string) error
	BookSlot(ctx context.Context, operatorID string, req *dto.CreateBookingRequest) (*dto.BookingResponse, error)
	UpdateBooking(ctx context.Context, operatorID, role, bookingID string, req *dto.UpdateBookingRequest) (*dto.BookingResponse, error)
	ListMyBookings(ctx context.Context, operatorID string) ([]*dto.BookingResponse, error)
	ListSlotBookings(ctx context.Context, operatorID, role, slotID string) ([]*dto.BookingResponse, error)
	ExportCalendar(ctx context.Context, operatorID string) (string, error)
}

type schedulingService struct {
	repo         *repository.Repository
	notification NotificationService
	logger       *zap.Logger
}

// NewSchedulingService 创建 SchedulingService 实例
func NewSchedulingService(repo *repository.Repository, notification NotificationService, logger *zap.Logger) SchedulingService {
	return &schedulingService{repo: repo, notification: notification, logger: logger}
}

// ────────────────────── CreateSlot ──────────────────────

func (s *schedulingService) CreateSlot(ctx context.Context, operatorID string, req *dto.CreateSlotRequest) (*dto.SlotResponse, error) {
	teacher, err := s.repo.Teacher.GetByUserID(ctx, operatorID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTeacherNotFound
		}
		s.logger.Error("查询教师档案失败", zap.String("user_id", operatorID), zap.Error(err))
		return nil, err
	}

	startsAt, err := time.Parse(time.RFC3339, req.StartsAt)
	if err != nil {
		return nil, ErrSlotTimeInvalid
	}
	endsAt, err := time.Parse(time.RFC3339, req.EndsAt)
	if err != nil {
		return nil, ErrSlotTimeInvalid
	}
	if !endsAt.After(startsAt) {
		return nil, ErrSlotTimeInvalid
	}
	if startsAt.Before(time.Now()) {
		return nil, ErrSlotInPast
	}

	slot := &model.MeetingSlot{
		TeacherID:   teacher.TeacherID,
		StartsAt:    startsAt,
		EndsAt:      endsAt,
		Location:    req.Location,
		Purpose:     req.Purpose,
		MaxStudents: req.MaxStudents,
		Status:      model.SlotStatusOpen,
	}
	if slot.Purpose == "" {
		slot.Purpose = model.SlotPurposeGuidance
	}
	if slot.MaxStudents <= 0 {
		slot.MaxStudents = 1
	}

	if err := s.repo.Slot.Create(ctx, slot); err != nil {
		s.logger.Error("创建时段失败", zap.Error(err))
		return nil, err
	}

	s.logger.Info("时段已发布",
		zap.String("slot_id", slot.SlotID),
		zap.Time("starts_at", startsAt),
	)

	return toSlotResponse(slot), nil
}

// ────────────────────── ListSlots ──────────────────────

func (s *schedulingService) ListSlots(ctx context.Context, req *dto.SlotListRequest) ([]*dto.SlotResponse, error) {
	filter := repository.SlotFilter{
		TeacherID: req.TeacherID,
		Status:    req.Status,
	}
	if req.From != "" {
		if t, err := time.Parse(time.RFC3339, req.From); err == nil {
			filter.From = &t
		}
	}
	if req.To != "" {
		if t, err := time.Parse(time.RFC3339, req.To); err == nil {
			filter.To = &t
		}
	}

	slots, err := s.repo.Slot.List(ctx, filter)
	if err != nil {
		s.logger.Error("查询时段列表失败", zap.Error(err))
		return nil, err
	}

	resp := make([]*dto.SlotResponse, 0, len(slots))
	for i := range slots {
		resp = append(resp, toSlotResponse(&slots[i]))
	}
	return resp, nil
}

// ────────────────────── DeleteSlot ──────────────────────

func (s *schedulingService) DeleteSlot(ctx context.Context, operatorID, role, slotID string) error {
	slot, err := s.repo.Slot.GetByID(ctx, slotID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrSlotNotFound
		}
		s.logger.Error("查询时段失败", zap.String("id", slotID), zap.Error(err))
		return err
	}

	if role != model.RoleAdmin {
		teacher, err := s.repo.Teacher.GetByUserID(ctx, operatorID)
		if err != nil || slot.TeacherID != teacher.TeacherID {
			return ErrSlotForbidden
		}
	}

	if slot.BookedCount > 0 {
		return ErrSlotHasBookings
	}

	if err := s.repo.Slot.Delete(ctx, slotID); err != nil {
		s.logger.Error("删除时段失败", zap.String("id", slotID), zap.Error(err))
		return err
	}
	return nil
}

// ────────────────────── BookSlot ──────────────────────
//
// 席位判定依赖条件更新的命中行数，满员并发下后到的请求回滚。

func (s *schedulingService) BookSlot(ctx context.Context, operatorID string, req *dto.CreateBookingRequest) (*dto.BookingResponse, error) {
	student, err := s.repo.Student.GetByUserID(ctx, operatorID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrStudentNotFound
		}
		s.logger.Error("查询学生档案失败", zap.String("user_id", operatorID), zap.Error(err))
		return nil, err
	}

	slot, err := s.repo.Slot.GetByID(ctx, req.SlotID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSlotNotFound
		}
		s.logger.Error("查询时段失败", zap.String("id", req.SlotID), zap.Error(err))
		return nil, err
	}

	// 同一学生对同一时段只能有一个有效预约
	if _, err := s.repo.Booking.GetActiveBySlotAndStudent(ctx, req.SlotID, student.StudentID); err == nil {
		return nil, ErrAlreadyBooked
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		s.logger.Error("查询预约失败", zap.Error(err))
		return nil, err
	}

	// 与学生其他有效预约的时间段不允许重叠
	overlapping, err := s.repo.Booking.CountActiveOverlapping(ctx, student.StudentID, slot.StartsAt, slot.EndsAt)
	if err != nil {
		s.logger.Error("查询重叠预约失败", zap.Error(err))
		return nil, err
	}
	if overlapping > 0 {
		return nil, ErrBookingOverlap
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

	ok, err := txRepo.Slot.IncrementBooked(ctx, req.SlotID)
	if err != nil {
		tx.Rollback()
		s.logger.Error("占用席位失败", zap.String("slot_id", req.SlotID), zap.Error(err))
		return nil, err
	}
	if !ok {
		tx.Rollback()
		return nil, ErrSlotFull
	}

	booking := &model.SlotBooking{
		SlotID:    req.SlotID,
		StudentID: student.StudentID,
		Note:      req.Note,
		Status:    model.BookingStatusBooked,
	}
	if err := txRepo.Booking.Create(ctx, booking); err != nil {
		tx.Rollback()
		// 并发下同一学生的重复预约由唯一索引兜底
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrAlreadyBooked
		}
		s.logger.Error("创建预约失败", zap.Error(err))
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		s.logger.Error("提交事务失败", zap.Error(err))
		return nil, err
	}

	s.logger.Info("预约成功",
		zap.String("booking_id", booking.BookingID),
		zap.String("slot_id", req.SlotID),
	)

	if slot.Teacher != nil {
		s.notification.Notify(ctx, slot.Teacher.UserID, EventSlotBooked,
			"新的时段预约",
			fmt.Sprintf("%s 的时段有新的预约。", slot.StartsAt.Format("2006-01-02 15:04")))
	}

	booking.Slot = slot
	return toBookingResponse(booking), nil
}

// ────────────────────── UpdateBooking ──────────────────────
//
// 学生只能取消自己的预约；出席/缺席由时段所属教师标记。

func (s *schedulingService) UpdateBooking(ctx context.Context, operatorID, role, bookingID string, req *dto.UpdateBookingRequest) (*dto.BookingResponse, error) {
	booking, err := s.repo.Booking.GetByID(ctx, bookingID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrBookingNotFound
		}
		s.logger.Error("查询预约失败", zap.String("id", bookingID), zap.Error(err))
		return nil, err
	}

	switch req.Status {
	case model.BookingStatusCancelled:
		return s.cancelBooking(ctx, operatorID, role, booking)
	case model.BookingStatusAttended, model.BookingStatusMissed:
		return s.markAttendance(ctx, operatorID, role, booking, req.Status)
	}
	return nil, ErrBookingNotCancelable
}

func (s *schedulingService) cancelBooking(ctx context.Context, operatorID, role string, booking *model.SlotBooking) (*dto.BookingResponse, error) {
	if role == model.RoleStudent {
		student, err := s.repo.Student.GetByUserID(ctx, operatorID)
		if err != nil || booking.StudentID != student.StudentID {
			return nil, ErrBookingForbidden
		}
	} else if role != model.RoleAdmin {
		return nil, ErrBookingForbidden
	}

	if booking.Status != model.BookingStatusBooked {
		return nil, ErrBookingNotCancelable
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

	booking.Status = model.BookingStatusCancelled
	if err := txRepo.Booking.Update(ctx, booking); err != nil {
		tx.Rollback()
		s.logger.Error("更新预约失败", zap.String("id", booking.BookingID), zap.Error(err))
		return nil, err
	}

	if _, err := txRepo.Slot.DecrementBooked(ctx, booking.SlotID); err != nil {
		tx.Rollback()
		s.logger.Error("释放席位失败", zap.String("slot_id", booking.SlotID), zap.Error(err))
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		s.logger.Error("提交事务失败", zap.Error(err))
		return nil, err
	}

	s.logger.Info("预约已取消", zap.String("booking_id", booking.BookingID))

	if booking.Slot != nil && booking.Slot.Teacher != nil {
		s.notification.Notify(ctx, booking.Slot.Teacher.UserID, EventSlotCancelled,
			"预约已取消",
			fmt.Sprintf("%s 的时段有预约被取消。", booking.Slot.StartsAt.Format("2006-01-02 15:04")))
	}

	return toBookingResponse(booking), nil
}

func (s *schedulingService) markAttendance(ctx context.Context, operatorID, role string, booking *model.SlotBooking, status string) (*dto.BookingResponse, error) {
	if role != model.RoleAdmin {
		teacher, err := s.repo.Teacher.GetByUserID(ctx, operatorID)
		if err != nil || booking.Slot == nil || booking.Slot.TeacherID != teacher.TeacherID {
			return nil, ErrBookingForbidden
		}
	}

	if booking.Status != model.BookingStatusBooked {
		return nil, ErrBookingNotClosable
	}

	booking.Status = status
	if err := s.repo.Booking.Update(ctx, booking); err != nil {
		s.logger.Error("更新预约失败", zap.String("id", booking.BookingID), zap.Error(err))
		return nil, err
	}
	return toBookingResponse(booking), nil
}

// ────────────────────── ListMyBookings / ListSlotBookings ──────────────────────

func (s *schedulingService) ListMyBookings(ctx context.Context, operatorID string) ([]*dto.BookingResponse, error) {
	student, err := s.repo.Student.GetByUserID(ctx, operatorID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrStudentNotFound
		}
		s.logger.Error("查询学生档案失败", zap.String("user_id", operatorID), zap.Error(err))
		return nil, err
	}

	bookings, err := s.repo.Booking.ListByStudent(ctx, student.StudentID)
	if err != nil {
		s.logger.Error("查询预约列表失败", zap.Error(err))
		return nil, err
	}

	resp := make([]*dto.BookingResponse, 0, len(bookings))
	for i := range bookings {
		resp = append(resp, toBookingResponse(&bookings[i]))
	}
	return resp, nil
}

func (s *schedulingService) ListSlotBookings(ctx context.Context, operatorID, role, slotID string) ([]*dto.BookingResponse, error) {
	slot, err := s.repo.Slot.GetByID(ctx, slotID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSlotNotFound
		}
		s.logger.Error("查询时段失败", zap.String("id", slotID), zap.Error(err))
		return nil, err
	}

	if role != model.RoleAdmin {
		teacher, err := s.repo.Teacher.GetByUserID(ctx, operatorID)
		if err != nil || slot.TeacherID != teacher.TeacherID {
			return nil, ErrSlotForbidden
		}
	}

	bookings, err := s.repo.Booking.ListBySlot(ctx, slotID)
	if err != nil {
		s.logger.Error("查询时段预约失败", zap.Error(err))
		return nil, err
	}

	resp := make([]*dto.BookingResponse, 0, len(bookings))
	for i := range bookings {
		resp = append(resp, toBookingResponse(&bookings[i]))
	}
	return resp, nil
}

// ────────────────────── ExportCalendar ──────────────────────
//
// 导出学生有效预约为 iCalendar 文本，可直接导入日历客户端。

func (s *schedulingService) ExportCalendar(ctx context.Context, operatorID string) (string, error) {
	student, err := s.repo.Student.GetByUserID(ctx, operatorID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", ErrStudentNotFound
		}
		s.logger.Error("查询学生档案失败", zap.String("user_id", operatorID), zap.Error(err))
		return "", err
	}

	bookings, err := s.repo.Booking.ListByStudent(ctx, student.StudentID)
	if err != nil {
		s.logger.Error("查询预约列表失败", zap.Error(err))
		return "", err
	}

	cal := ics.NewCalendar()
	cal.SetMethod(ics.MethodPublish)
	cal.SetProductId("-//capstone-hub//scheduling//CN")

	for i := range bookings {
		booking := &bookings[i]
		if booking.Status != model.BookingStatusBooked || booking.Slot == nil {
			continue
		}
		event := cal.AddEvent(booking.BookingID)
		event.SetCreatedTime(booking.CreatedAt)
		event.SetStartAt(booking.Slot.StartsAt)
		event.SetEndAt(booking.Slot.EndsAt)
		summary := "指导会面"
		if booking.Slot.Purpose == model.SlotPurposeDefense {
			summary = "答辩"
		}
		if booking.Slot.Teacher != nil && booking.Slot.Teacher.User != nil {
			summary = fmt.Sprintf("%s（%s）", summary, booking.Slot.Teacher.User.Name)
		}
		event.SetSummary(summary)
		if booking.Slot.Location != "" {
			event.SetLocation(booking.Slot.Location)
		}
		if booking.Note != "" {
			event.SetDescription(booking.Note)
		}
	}

	return cal.Serialize(), nil
}

// ── 转换辅助函数 ──

func toSlotResponse(slot *model.MeetingSlot) *dto.SlotResponse {
	resp := &dto.SlotResponse{
		ID:          slot.SlotID,
		TeacherID:   slot.TeacherID,
		StartsAt:    slot.StartsAt.Format(time.RFC3339),
		EndsAt:      slot.EndsAt.Format(time.RFC3339),
		Location:    slot.Location,
		Purpose:     slot.Purpose,
		MaxStudents: slot.MaxStudents,
		BookedCount: slot.BookedCount,
		IsFull:      slot.IsFull(),
		Status:      slot.Status,
	}
	if slot.Teacher != nil && slot.Teacher.User != nil {
		resp.TeacherName = slot.Teacher.User.Name
	}
	return resp
}

func toBookingResponse(b *model.SlotBooking) *dto.BookingResponse {
	resp := &dto.BookingResponse{
		ID:        b.BookingID,
		SlotID:    b.SlotID,
		StudentID: b.StudentID,
		Note:      b.Note,
		Status:    b.Status,
		CreatedAt: b.CreatedAt.Format(time.RFC3339),
	}
	if b.Slot != nil {
		resp.StartsAt = b.Slot.StartsAt.Format(time.RFC3339)
		resp.EndsAt = b.Slot.EndsAt.Format(time.RFC3339)
		resp.Location = b.Slot.Location
	}
	if b.Student != nil && b.Student.User != nil {
		resp.StudentName = b.Student.User.Name
	}
	return resp
}
