package dto

// ── 预约调度模块 DTO ──

// CreateSlotRequest 教师发布时段请求
type CreateSlotRequest struct {
	StartsAt    string `json:"starts_at"    binding:"required"` // RFC3339
	EndsAt      string `json:"ends_at"      binding:"required"`
	Location    string `json:"location"     binding:"omitempty,max=200"`
	Purpose     string `json:"purpose"      binding:"omitempty,oneof=guidance defense"`
	MaxStudents int    `json:"max_students" binding:"omitempty,gte=1,lte=10"`
}

// SlotListRequest 时段列表查询
type SlotListRequest struct {
	TeacherID string `form:"teacher_id" binding:"omitempty,uuid"`
	Status    string `form:"status"     binding:"omitempty,oneof=open closed"`
	From      string `form:"from"       binding:"omitempty"`
	To        string `form:"to"         binding:"omitempty"`
}

// CreateBookingRequest 学生预约时段请求
type CreateBookingRequest struct {
	SlotID string `json:"slot_id" binding:"required,uuid"`
	Note   string `json:"note"    binding:"omitempty"`
}

// UpdateBookingRequest 预约状态变更请求
// 学生可取消，教师可标记出席/缺席
type UpdateBookingRequest struct {
	Status string `json:"status" binding:"required,oneof=cancelled attended missed"`
}

// SlotResponse 时段响应
type SlotResponse struct {
	ID          string `json:"id"`
	TeacherID   string `json:"teacher_id"`
	TeacherName string `json:"teacher_name,omitempty"`
	StartsAt    string `json:"starts_at"`
	EndsAt      string `json:"ends_at"`
	Location    string `json:"location,omitempty"`
	Purpose     string `json:"purpose"`
	MaxStudents int    `json:"max_students"`
	BookedCount int    `json:"booked_count"`
	IsFull      bool   `json:"is_full"`
	Status      string `json:"status"`
}

// BookingResponse 预约响应
type BookingResponse struct {
	ID          string `json:"id"`
	SlotID      string `json:"slot_id"`
	StudentID   string `json:"student_id"`
	StudentName string `json:"student_name,omitempty"`
	Note        string `json:"note,omitempty"`
	Status      string `json:"status"`
	StartsAt    string `json:"starts_at,omitempty"`
	EndsAt      string `json:"ends_at,omitempty"`
	Location    string `json:"location,omitempty"`
	CreatedAt   string `json:"created_at"`
}
