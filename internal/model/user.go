package model

import "time"

// ── 角色常量 ──

const (
	RoleStudent = "student"
	RoleTeacher = "teacher"
	RoleAdmin   = "admin"
)

// User 用户表 — 对应 users
type User struct {
	UserID             string `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"user_id"`
	Name               string `gorm:"type:varchar(100);not null"                     json:"name"`
	Email              string `gorm:"type:varchar(255);not null"                     json:"email"`
	PasswordHash       string `gorm:"type:varchar(255);not null"                     json:"-"`
	Role               string `gorm:"type:varchar(20);not null;default:'student'"    json:"role"`
	IsActive           bool   `gorm:"not null;default:true"                          json:"is_active"`
	MustChangePassword bool   `gorm:"not null;default:false"                         json:"must_change_password"`
	VersionedModel

	// 关联（按角色至多存在其一）
	Student *Student `gorm:"foreignKey:UserID;references:UserID" json:"student,omitempty"`
	Teacher *Teacher `gorm:"foreignKey:UserID;references:UserID" json:"teacher,omitempty"`
}

// TableName 指定表名
func (User) TableName() string { return "users" }

// Student 学生扩展表 — 对应 students
type Student struct {
	StudentID  string    `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"student_id"`
	UserID     string    `gorm:"type:uuid;not null;uniqueIndex"                 json:"user_id"`
	Code       string    `gorm:"type:varchar(20);not null;uniqueIndex"          json:"code"`
	ClassCode  string    `gorm:"type:varchar(20)"                               json:"class_code"`
	Major      string    `gorm:"type:varchar(100)"                              json:"major"`
	EnrollYear int       `json:"enroll_year"`
	CreatedAt  time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt  time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`

	User *User `gorm:"foreignKey:UserID;references:UserID" json:"user,omitempty"`
}

// TableName 指定表名
func (Student) TableName() string { return "students" }

// Teacher 教师扩展表 — 对应 teachers
// GuidingCount 为冗余计数，只允许通过条件更新修改
type Teacher struct {
	TeacherID    string    `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"teacher_id"`
	UserID       string    `gorm:"type:uuid;not null;uniqueIndex"                 json:"user_id"`
	Code         string    `gorm:"type:varchar(20);not null;uniqueIndex"          json:"code"`
	Department   string    `gorm:"type:varchar(100)"                              json:"department"`
	MaxStudents  int       `gorm:"not null;default:8"                             json:"max_students"`
	GuidingCount int       `gorm:"not null;default:0"                             json:"guiding_count"`
	CanSupervise bool      `gorm:"not null;default:true"                          json:"can_supervise"`
	CanReview    bool      `gorm:"not null;default:true"                          json:"can_review"`
	CreatedAt    time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt    time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`

	User *User `gorm:"foreignKey:UserID;references:UserID" json:"user,omitempty"`
}

// TableName 指定表名
func (Teacher) TableName() string { return "teachers" }

// SystemState 系统初始化一次性标志 — 对应 system_state（单行表）
type SystemState struct {
	ID            int        `gorm:"primaryKey" json:"id"`
	Initialized   bool       `gorm:"not null;default:false" json:"initialized"`
	InitializedAt *time.Time `json:"initialized_at,omitempty"`
}

// TableName 指定表名
func (SystemState) TableName() string { return "system_state" }
