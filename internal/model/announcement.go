package model

import "time"

// Announcement 选题批次公告 — 对应 announcements
// 申请/注册截止时间由公告承载，选题申请在截止后拒绝提交
type Announcement struct {
	AnnouncementID       string     `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"announcement_id"`
	Title                string     `gorm:"type:varchar(255);not null"                     json:"title"`
	Body                 string     `gorm:"type:text"                                      json:"body"`
	Semester             string     `gorm:"type:varchar(20)"                               json:"semester"`
	ProposalDeadline     *time.Time `json:"proposal_deadline,omitempty"`
	RegistrationDeadline *time.Time `json:"registration_deadline,omitempty"`
	Published            bool       `gorm:"not null;default:false" json:"published"`
	PublishedAt          *time.Time `json:"published_at,omitempty"`
	VersionedModel
}

// TableName 指定表名
func (Announcement) TableName() string { return "announcements" }

// Notification 站内通知 — 对应 notifications
type Notification struct {
	NotificationID string    `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"notification_id"`
	UserID         string    `gorm:"type:uuid;not null"                             json:"user_id"`
	EventType      string    `gorm:"type:varchar(50);not null"                      json:"event_type"`
	Title          string    `gorm:"type:varchar(255);not null"                     json:"title"`
	Body           string    `gorm:"type:text"                                      json:"body,omitempty"`
	IsRead         bool      `gorm:"not null;default:false"                         json:"is_read"`
	CreatedAt      time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"             json:"created_at"`
}

// TableName 指定表名
func (Notification) TableName() string { return "notifications" }
