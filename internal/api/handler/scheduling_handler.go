package handler

import (
	"errors"
	"net/http"
	"net/url"

	"github.com/gin-gonic/gin"

	"capstone-hub/backend/internal/dto"
	"capstone-hub/backend/internal/service"
	"capstone-hub/backend/pkg/response"
)

// SchedulingHandler 会面预约模块 HTTP 处理器
type SchedulingHandler struct {
	schedulingSvc service.SchedulingService
}

// NewSchedulingHandler 创建 SchedulingHandler
func NewSchedulingHandler(schedulingSvc service.SchedulingService) *SchedulingHandler {
	return &SchedulingHandler{schedulingSvc: schedulingSvc}
}

// CreateSlot 发布可约时段（教师）
// POST /api/v1/scheduling/slots
func (h *SchedulingHandler) CreateSlot(c *gin.Context) {
	var req dto.CreateSlotRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	slot, err := h.schedulingSvc.CreateSlot(c.Request.Context(), callerID, &req)
	if err != nil {
		h.handleSchedulingError(c, err)
		return
	}

	response.Created(c, slot)
}

// ListSlots 时段列表
// GET /api/v1/scheduling/slots
func (h *SchedulingHandler) ListSlots(c *gin.Context) {
	var req dto.SlotListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	slots, err := h.schedulingSvc.ListSlots(c.Request.Context(), &req)
	if err != nil {
		h.handleSchedulingError(c, err)
		return
	}

	response.OK(c, slots)
}

// DeleteSlot 删除时段（教师/管理员）
// DELETE /api/v1/scheduling/slots/:id
func (h *SchedulingHandler) DeleteSlot(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		response.BadRequest(c, 10001, "时段ID不能为空")
		return
	}

	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}
	role, ok := MustGetRole(c)
	if !ok {
		return
	}

	if err := h.schedulingSvc.DeleteSlot(c.Request.Context(), callerID, role, id); err != nil {
		h.handleSchedulingError(c, err)
		return
	}

	response.OK(c, nil)
}

// ListSlotBookings 查看时段下的预约（时段教师/管理员）
// GET /api/v1/scheduling/slots/:id/bookings
func (h *SchedulingHandler) ListSlotBookings(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		response.BadRequest(c, 10001, "时段ID不能为空")
		return
	}

	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}
	role, ok := MustGetRole(c)
	if !ok {
		return
	}

	bookings, err := h.schedulingSvc.ListSlotBookings(c.Request.Context(), callerID, role, id)
	if err != nil {
		h.handleSchedulingError(c, err)
		return
	}

	response.OK(c, bookings)
}

// BookSlot 学生预约时段
// POST /api/v1/scheduling/bookings
func (h *SchedulingHandler) BookSlot(c *gin.Context) {
	var req dto.CreateBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	booking, err := h.schedulingSvc.BookSlot(c.Request.Context(), callerID, &req)
	if err != nil {
		h.handleSchedulingError(c, err)
		return
	}

	response.Created(c, booking)
}

// UpdateBooking 取消预约 / 记录出勤
// PUT /api/v1/scheduling/bookings/:id
func (h *SchedulingHandler) UpdateBooking(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		response.BadRequest(c, 10001, "预约ID不能为空")
		return
	}

	var req dto.UpdateBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}
	role, ok := MustGetRole(c)
	if !ok {
		return
	}

	booking, err := h.schedulingSvc.UpdateBooking(c.Request.Context(), callerID, role, id, &req)
	if err != nil {
		h.handleSchedulingError(c, err)
		return
	}

	response.OK(c, booking)
}

// ListMyBookings 我的预约
// GET /api/v1/scheduling/bookings/my
func (h *SchedulingHandler) ListMyBookings(c *gin.Context) {
	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	bookings, err := h.schedulingSvc.ListMyBookings(c.Request.Context(), callerID)
	if err != nil {
		h.handleSchedulingError(c, err)
		return
	}

	response.OK(c, bookings)
}

// ExportCalendar 导出个人日程（ICS）
// GET /api/v1/scheduling/bookings/calendar.ics
func (h *SchedulingHandler) ExportCalendar(c *gin.Context) {
	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	ics, err := h.schedulingSvc.ExportCalendar(c.Request.Context(), callerID)
	if err != nil {
		h.handleSchedulingError(c, err)
		return
	}

	filename := "我的日程.ics"
	c.Header("Content-Disposition", "attachment; filename*=UTF-8''"+url.QueryEscape(filename))
	c.Data(http.StatusOK, "text/calendar; charset=utf-8", []byte(ics))
}

func (h *SchedulingHandler) handleSchedulingError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrSlotNotFound):
		response.NotFound(c, 16001, "时段不存在")
	case errors.Is(err, service.ErrSlotForbidden):
		response.Forbidden(c, 16002, "无权操作该时段")
	case errors.Is(err, service.ErrSlotTimeInvalid):
		response.BadRequest(c, 16003, "时段时间无效")
	case errors.Is(err, service.ErrSlotInPast):
		response.BadRequest(c, 16004, "不能发布过去的时段")
	case errors.Is(err, service.ErrSlotFull):
		response.Conflict(c, 16005, "时段名额已满")
	case errors.Is(err, service.ErrSlotHasBookings):
		response.Conflict(c, 16006, "时段下存在预约，不能删除")
	case errors.Is(err, service.ErrBookingNotFound):
		response.NotFound(c, 16007, "预约不存在")
	case errors.Is(err, service.ErrBookingForbidden):
		response.Forbidden(c, 16008, "无权操作该预约")
	case errors.Is(err, service.ErrAlreadyBooked):
		response.Conflict(c, 16009, "已预约该时段")
	case errors.Is(err, service.ErrBookingNotCancelable):
		response.Conflict(c, 16010, "当前状态不允许取消")
	case errors.Is(err, service.ErrBookingNotClosable):
		response.Conflict(c, 16011, "当前状态不允许记录出勤")
	case errors.Is(err, service.ErrBookingOverlap):
		response.Conflict(c, 16012, "与已有预约时间冲突")
	case errors.Is(err, service.ErrStudentNotFound):
		response.NotFound(c, 11008, "学生不存在")
	case errors.Is(err, service.ErrTeacherNotFound):
		response.NotFound(c, 11007, "教师不存在")
	default:
		response.InternalError(c)
	}
}
