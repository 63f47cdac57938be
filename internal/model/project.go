package model

import "time"

// ── 项目状态常量 ──

const (
	ProjectStatusRegistered = "registered"
	ProjectStatusInProgress = "in_progress"
	ProjectStatusSubmitted  = "submitted"
	ProjectStatusReviewed   = "reviewed"
	ProjectStatusCompleted  = "completed"
	ProjectStatusFailed     = "failed"
)

// ActiveProjectStatuses 占用学生"唯一进行中项目"名额的状态集合
var ActiveProjectStatuses = []string{
	ProjectStatusRegistered,
	ProjectStatusInProgress,
	ProjectStatusSubmitted,
	ProjectStatusReviewed,
}

// Project 项目表（学生与课题的绑定） — 对应 projects
// SupervisorID 在创建时从课题复制，之后不再跟随课题变化
type Project struct {
	ProjectID       string     `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"project_id"`
	TopicID         string     `gorm:"type:uuid;not null"                             json:"topic_id"`
	StudentID       string     `gorm:"type:uuid;not null"                             json:"student_id"`
	SupervisorID    *string    `gorm:"type:uuid"                                      json:"supervisor_id,omitempty"`
	ReviewerID      *string    `gorm:"type:uuid"                                      json:"reviewer_id,omitempty"`
	Status          string     `gorm:"type:varchar(20);not null;default:'registered'" json:"status"`
	SupervisorScore *float64   `gorm:"type:numeric(4,2)"                              json:"supervisor_score,omitempty"`
	ReviewerScore   *float64   `gorm:"type:numeric(4,2)"                              json:"reviewer_score,omitempty"`
	CouncilScore    *float64   `gorm:"type:numeric(4,2)"                              json:"council_score,omitempty"`
	FinalScore      *float64   `gorm:"type:numeric(4,2)"                              json:"final_score,omitempty"`
	Grade           string     `gorm:"type:varchar(4)"                                json:"grade,omitempty"`
	DefenseAt       *time.Time `json:"defense_at,omitempty"`
	ReportURL       string     `gorm:"type:text" json:"report_url,omitempty"`
	VersionedModel

	// 关联
	Topic   *Topic   `gorm:"foreignKey:TopicID;references:TopicID"       json:"topic,omitempty"`
	Student *Student `gorm:"foreignKey:StudentID;references:StudentID"   json:"student,omitempty"`
}

// TableName 指定表名
func (Project) TableName() string { return "projects" }

// Evaluation 评审记录表 — 对应 evaluations
// (project_id, evaluator_role) 唯一，重复提交视为覆盖
type Evaluation struct {
	EvaluationID      string    `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"evaluation_id"`
	ProjectID         string    `gorm:"type:uuid;not null"                             json:"project_id"`
	EvaluatorID       string    `gorm:"type:uuid;not null"                             json:"evaluator_id"`
	EvaluatorRole     string    `gorm:"type:varchar(20);not null"                      json:"evaluator_role"` // supervisor | reviewer
	ContentScore      float64   `gorm:"type:numeric(4,2);not null;default:0"           json:"content_score"`
	TechnicalScore    float64   `gorm:"type:numeric(4,2);not null;default:0"           json:"technical_score"`
	PresentationScore float64   `gorm:"type:numeric(4,2);not null;default:0"           json:"presentation_score"`
	DefenseScore      float64   `gorm:"type:numeric(4,2);not null;default:0"           json:"defense_score"`
	TotalScore        float64   `gorm:"type:numeric(4,2);not null;default:0"           json:"total_score"`
	Comments          string    `gorm:"type:text" json:"comments,omitempty"`
	Strengths         string    `gorm:"type:text" json:"strengths,omitempty"`
	Weaknesses        string    `gorm:"type:text" json:"weaknesses,omitempty"`
	Suggestions       string    `gorm:"type:text" json:"suggestions,omitempty"`
	CreatedAt         time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt         time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

// TableName 指定表名
func (Evaluation) TableName() string { return "evaluations" }

// ProgressReport 周进度报告表 — 对应 progress_reports
type ProgressReport struct {
	ReportID          string    `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"report_id"`
	ProjectID         string    `gorm:"type:uuid;not null"                             json:"project_id"`
	WeekNo            int       `gorm:"not null"                                       json:"week_no"`
	Content           string    `gorm:"type:text;not null"                             json:"content"`
	AttachmentURL     string    `gorm:"type:text"                                      json:"attachment_url,omitempty"`
	SupervisorComment string    `gorm:"type:text"                                      json:"supervisor_comment,omitempty"`
	Status            string    `gorm:"type:varchar(20);not null;default:'submitted'"  json:"status"` // submitted | reviewed
	CreatedAt         time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt         time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

// TableName 指定表名
func (ProgressReport) TableName() string { return "progress_reports" }
