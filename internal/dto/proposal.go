package dto

// ── 选题申请模块 DTO ──

// CreateProposalRequest 学生提交选题申请请求
type CreateProposalRequest struct {
	TeacherID      string `json:"teacher_id"      binding:"required,uuid"` // 期望的指导教师
	Title          string `json:"title"           binding:"required,min=4,max=255"`
	Description    string `json:"description"     binding:"required"`
	ExpectedResult string `json:"expected_result" binding:"omitempty"`
}

// ReviewProposalRequest 教师审核选题申请请求
type ReviewProposalRequest struct {
	Action   string `json:"action"   binding:"required,oneof=approve reject request_revision"`
	Feedback string `json:"feedback" binding:"omitempty"`
}

// ProposalListRequest 选题申请列表查询
type ProposalListRequest struct {
	Status   string `form:"status"    binding:"omitempty,oneof=pending approved rejected revision_requested"`
	Page     int    `form:"page"      binding:"omitempty,gte=1"`
	PageSize int    `form:"page_size" binding:"omitempty,gte=1,lte=100"`
}

// ProposalResponse 选题申请响应
type ProposalResponse struct {
	ID             string `json:"id"`
	StudentID      string `json:"student_id"`
	StudentName    string `json:"student_name,omitempty"`
	TeacherID      string `json:"teacher_id"`
	TeacherName    string `json:"teacher_name,omitempty"`
	Title          string `json:"title"`
	Description    string `json:"description"`
	ExpectedResult string `json:"expected_result,omitempty"`
	Status         string `json:"status"`
	Feedback       string `json:"feedback,omitempty"`
	ReviewedAt     string `json:"reviewed_at,omitempty"`
	CreatedAt      string `json:"created_at"`
}

// ProposalApproveResponse 申请通过后生成的课题与项目
type ProposalApproveResponse struct {
	ProposalID string `json:"proposal_id"`
	TopicID    string `json:"topic_id,omitempty"`
	ProjectID  string `json:"project_id,omitempty"`
}
