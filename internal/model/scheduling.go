package model

import "time"

// ── 预约时段状态常量 ──

const (
	SlotStatusOpen   = "open"
	SlotStatusClosed = "closed"

	SlotPurposeGuidance = "guidance"
	SlotPurposeDefense  = "defense"

	BookingStatusBooked    = "booked"
	BookingStatusCancelled = "cancelled"
	BookingStatusAttended  = "attended"
	BookingStatusMissed    = "missed"
)

// MeetingSlot 教师发布的会面时段 — 对应 meeting_slots
// BookedCount 为冗余计数，只允许通过条件更新修改；席位是否占满由计数推导
type MeetingSlot struct {
	SlotID      string    `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"slot_id"`
	TeacherID   string    `gorm:"type:uuid;not null"                             json:"teacher_id"`
	StartsAt    time.Time `gorm:"not null"                                       json:"starts_at"`
	EndsAt      time.Time `gorm:"not null"                                       json:"ends_at"`
	Location    string    `gorm:"type:varchar(200)"                              json:"location"`
	Purpose     string    `gorm:"type:varchar(20);not null;default:'guidance'"   json:"purpose"`
	MaxStudents int       `gorm:"not null;default:1"                             json:"max_students"`
	BookedCount int       `gorm:"not null;default:0"                             json:"booked_count"`
	Status      string    `gorm:"type:varchar(20);not null;default:'open'"       json:"status"`
	CreatedAt   time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt   time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`

	Teacher *Teacher `gorm:"foreignKey:TeacherID;references:TeacherID" json:"teacher,omitempty"`
}

// TableName 指定表名
func (MeetingSlot) TableName() string { return "meeting_slots" }

// IsFull 席位是否已满
func (s *MeetingSlot) IsFull() bool { return s.BookedCount >= s.MaxStudents }

// SlotBooking 学生对时段的预约 — 对应 slot_bookings
type SlotBooking struct {
	BookingID string    `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"booking_id"`
	SlotID    string    `gorm:"type:uuid;not null"                             json:"slot_id"`
	StudentID string    `gorm:"type:uuid;not null"                             json:"student_id"`
	Note      string    `gorm:"type:text"                                      json:"note,omitempty"`
	Status    string    `gorm:"type:varchar(20);not null;default:'booked'"     json:"status"`
	CreatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`

	Slot    *MeetingSlot `gorm:"foreignKey:SlotID;references:SlotID"       json:"slot,omitempty"`
	Student *Student     `gorm:"foreignKey:StudentID;references:StudentID" json:"student,omitempty"`
}

// TableName 指定表名
func (SlotBooking) TableName() string { return "slot_bookings" }
