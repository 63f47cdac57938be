package model

import "time"

// ── 课题状态常量 ──

const (
	TopicStatusPending  = "pending"
	TopicStatusApproved = "approved"
	TopicStatusRejected = "rejected"
)

// Topic 课题表 — 对应 topics
// CurrentStudents 为冗余计数，只允许通过条件更新修改
type Topic struct {
	TopicID         string     `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"topic_id"`
	Title           string     `gorm:"type:varchar(255);not null"                     json:"title"`
	Description     string     `gorm:"type:text;not null"                             json:"description"`
	Requirements    string     `gorm:"type:text"                                      json:"requirements"`
	ExpectedResult  string     `gorm:"type:text"                                      json:"expected_result"`
	Field           string     `gorm:"type:varchar(100)"                              json:"field"`
	Semester        string     `gorm:"type:varchar(20)"                               json:"semester"`
	AcademicYear    string     `gorm:"type:varchar(20)"                               json:"academic_year"`
	MaxStudents     int        `gorm:"not null;default:1"                             json:"max_students"`
	CurrentStudents int        `gorm:"not null;default:0"                             json:"current_students"`
	SupervisorID    *string    `gorm:"type:uuid"                                      json:"supervisor_id,omitempty"`
	ReviewerID      *string    `gorm:"type:uuid"                                      json:"reviewer_id,omitempty"`
	Status          string     `gorm:"type:varchar(20);not null;default:'pending'"    json:"status"`
	RejectReason    string     `gorm:"type:text"                                      json:"reject_reason,omitempty"`
	ApprovedAt      *time.Time `json:"approved_at,omitempty"`
	ApprovedBy      *string    `gorm:"type:uuid" json:"approved_by,omitempty"`
	ProposalID      *string    `gorm:"type:uuid" json:"proposal_id,omitempty"`
	VersionedModel

	// 关联
	Supervisor *Teacher `gorm:"foreignKey:SupervisorID;references:TeacherID" json:"supervisor,omitempty"`
	Reviewer   *Teacher `gorm:"foreignKey:ReviewerID;references:TeacherID"   json:"reviewer,omitempty"`
}

// TableName 指定表名
func (Topic) TableName() string { return "topics" }
