package model

import (
	"time"

	"gorm.io/gorm"
)

// ── 选题申请状态常量 ──

const (
	ProposalStatusPending           = "pending"
	ProposalStatusApproved          = "approved"
	ProposalStatusRejected          = "rejected"
	ProposalStatusRevisionRequested = "revision_requested"
)

// TopicProposal 学生选题申请表 — 对应 topic_proposals
// 通过后生成的课题经 ProposalID 回链到本记录
type TopicProposal struct {
	ProposalID     string         `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"proposal_id"`
	StudentID      string         `gorm:"type:uuid;not null"                             json:"student_id"`
	TeacherID      string         `gorm:"type:uuid;not null"                             json:"teacher_id"`
	Title          string         `gorm:"type:varchar(255);not null"                     json:"title"`
	Description    string         `gorm:"type:text;not null"                             json:"description"`
	ExpectedResult string         `gorm:"type:text"                                      json:"expected_result"`
	Status         string         `gorm:"type:varchar(30);not null;default:'pending'"    json:"status"`
	Feedback       string         `gorm:"type:text"                                      json:"feedback,omitempty"`
	ReviewedAt     *time.Time     `json:"reviewed_at,omitempty"`
	CreatedAt      time.Time      `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt      time.Time      `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
	DeletedAt      gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`

	// 关联
	Student *Student `gorm:"foreignKey:StudentID;references:StudentID" json:"student,omitempty"`
	Teacher *Teacher `gorm:"foreignKey:TeacherID;references:TeacherID" json:"teacher,omitempty"`
}

// TableName 指定表名
func (TopicProposal) TableName() string { return "topic_proposals" }
