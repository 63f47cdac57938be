package dto

// ── 用户模块 DTO ──

// CreateUserRequest 管理员创建用户请求
// role=student 时 student 字段必填，role=teacher 时 teacher 字段必填
type CreateUserRequest struct {
	Name     string `json:"name"     binding:"required,min=2,max=100"`
	Email    string `json:"email"    binding:"required,email"`
	Password string `json:"password" binding:"required,min=8,max=72"`
	Role     string `json:"role"     binding:"required,oneof=student teacher admin"`

	Student *StudentProfileRequest `json:"student" binding:"omitempty"`
	Teacher *TeacherProfileRequest `json:"teacher" binding:"omitempty"`
}

// StudentProfileRequest 学生档案
type StudentProfileRequest struct {
	Code       string `json:"code"        binding:"required,max=20"`
	ClassCode  string `json:"class_code"  binding:"omitempty,max=20"`
	Major      string `json:"major"       binding:"omitempty,max=100"`
	EnrollYear int    `json:"enroll_year" binding:"omitempty,gte=2000,lte=2100"`
}

// TeacherProfileRequest 教师档案
type TeacherProfileRequest struct {
	Code         string `json:"code"          binding:"required,max=20"`
	Department   string `json:"department"    binding:"omitempty,max=100"`
	MaxStudents  int    `json:"max_students"  binding:"omitempty,gte=1,lte=30"`
	CanSupervise *bool  `json:"can_supervise"`
	CanReview    *bool  `json:"can_review"`
}

// UpdateUserRequest 更新用户请求
type UpdateUserRequest struct {
	Name     *string `json:"name"      binding:"omitempty,min=2,max=100"`
	Email    *string `json:"email"     binding:"omitempty,email"`
	IsActive *bool   `json:"is_active"`

	Student *StudentProfileRequest `json:"student" binding:"omitempty"`
	Teacher *TeacherProfileRequest `json:"teacher" binding:"omitempty"`
}

// UserListRequest 用户列表查询
type UserListRequest struct {
	Role     string `form:"role"      binding:"omitempty,oneof=student teacher admin"`
	Keyword  string `form:"keyword"   binding:"omitempty,max=100"`
	Page     int    `form:"page"      binding:"omitempty,gte=1"`
	PageSize int    `form:"page_size" binding:"omitempty,gte=1,lte=100"`
}

// UserResponse 用户信息响应（脱敏）
type UserResponse struct {
	ID                 string           `json:"id"`
	Name               string           `json:"name"`
	Email              string           `json:"email"`
	Role               string           `json:"role"`
	IsActive           bool             `json:"is_active"`
	MustChangePassword bool             `json:"must_change_password"`
	Student            *StudentResponse `json:"student,omitempty"`
	Teacher            *TeacherResponse `json:"teacher,omitempty"`
}

// StudentResponse 学生档案响应
type StudentResponse struct {
	ID         string `json:"id"`
	Code       string `json:"code"`
	ClassCode  string `json:"class_code,omitempty"`
	Major      string `json:"major,omitempty"`
	EnrollYear int    `json:"enroll_year,omitempty"`
	Name       string `json:"name,omitempty"`
}

// TeacherResponse 教师档案响应
type TeacherResponse struct {
	ID           string `json:"id"`
	Code         string `json:"code"`
	Department   string `json:"department,omitempty"`
	MaxStudents  int    `json:"max_students"`
	GuidingCount int    `json:"guiding_count"`
	CanSupervise bool   `json:"can_supervise"`
	CanReview    bool   `json:"can_review"`
	Name         string `json:"name,omitempty"`
}
