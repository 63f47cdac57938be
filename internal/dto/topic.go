package dto

// ── 课题模块 DTO ──

// CreateTopicRequest 创建课题请求
// 教师创建时指导教师即为本人；管理员代录时 supervisor_id 可空（待分配）
type CreateTopicRequest struct {
	Title          string `json:"title"           binding:"required,min=4,max=255"`
	Description    string `json:"description"     binding:"required"`
	Requirements   string `json:"requirements"    binding:"omitempty"`
	ExpectedResult string `json:"expected_result" binding:"omitempty"`
	Field          string `json:"field"           binding:"omitempty,max=100"`
	Semester       string `json:"semester"        binding:"omitempty,max=20"`
	AcademicYear   string `json:"academic_year"   binding:"omitempty,max=20"`
	MaxStudents    int    `json:"max_students"    binding:"omitempty,oneof=1 2"`
}

// UpdateTopicRequest 更新课题请求
type UpdateTopicRequest struct {
	Title          *string `json:"title"           binding:"omitempty,min=4,max=255"`
	Description    *string `json:"description"`
	Requirements   *string `json:"requirements"`
	ExpectedResult *string `json:"expected_result"`
	Field          *string `json:"field"           binding:"omitempty,max=100"`
	Semester       *string `json:"semester"        binding:"omitempty,max=20"`
	AcademicYear   *string `json:"academic_year"   binding:"omitempty,max=20"`
	MaxStudents    *int    `json:"max_students"    binding:"omitempty,oneof=1 2"`
}

// TopicListRequest 课题列表查询
type TopicListRequest struct {
	Status       string `form:"status"        binding:"omitempty,oneof=pending approved rejected"`
	Semester     string `form:"semester"      binding:"omitempty,max=20"`
	Field        string `form:"field"         binding:"omitempty,max=100"`
	SupervisorID string `form:"supervisor_id" binding:"omitempty,uuid"`
	Keyword      string `form:"keyword"       binding:"omitempty,max=100"`
	Page         int    `form:"page"          binding:"omitempty,gte=1"`
	PageSize     int    `form:"page_size"     binding:"omitempty,gte=1,lte=100"`
}

// SetTopicStatusRequest 审核课题请求（仅管理员）
type SetTopicStatusRequest struct {
	Status       string `json:"status"        binding:"required,oneof=pending approved rejected"`
	RejectReason string `json:"reject_reason" binding:"omitempty"`
}

// AssignReviewerRequest 指定评阅教师请求（仅管理员）
type AssignReviewerRequest struct {
	ReviewerID string `json:"reviewer_id" binding:"required,uuid"`
}

// TopicResponse 课题信息响应
type TopicResponse struct {
	ID              string `json:"id"`
	Title           string `json:"title"`
	Description     string `json:"description"`
	Requirements    string `json:"requirements,omitempty"`
	ExpectedResult  string `json:"expected_result,omitempty"`
	Field           string `json:"field,omitempty"`
	Semester        string `json:"semester,omitempty"`
	AcademicYear    string `json:"academic_year,omitempty"`
	MaxStudents     int    `json:"max_students"`
	CurrentStudents int    `json:"current_students"`
	Status          string `json:"status"`
	RejectReason    string `json:"reject_reason,omitempty"`
	ApprovedAt      string `json:"approved_at,omitempty"`
	ProposalID      string `json:"proposal_id,omitempty"`
	SupervisorID    string `json:"supervisor_id,omitempty"`
	SupervisorName  string `json:"supervisor_name,omitempty"`
	ReviewerID      string `json:"reviewer_id,omitempty"`
	ReviewerName    string `json:"reviewer_name,omitempty"`
	CreatedAt       string `json:"created_at"`
	UpdatedAt       string `json:"updated_at"`
}

// AutoAssignResponse 批量分配评阅教师结果
type AutoAssignResponse struct {
	Processed int `json:"processed"` // 处理的已通过课题数
	Assigned  int `json:"assigned"`  // 成功分配评阅教师的课题数
}

// ResetCountersResponse 计数修复结果
type ResetCountersResponse struct {
	TopicsFixed   int `json:"topics_fixed"`
	TeachersFixed int `json:"teachers_fixed"`
}
