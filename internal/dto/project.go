package dto

// ── 项目模块 DTO ──

// RegisterProjectRequest 选题注册请求
// student_id 仅管理员代注册时可指定；学生本人注册时以登录身份为准
type RegisterProjectRequest struct {
	TopicID   string `json:"topic_id"   binding:"required,uuid"`
	StudentID string `json:"student_id" binding:"omitempty,uuid"`
}

// UpdateProjectStatusRequest 项目状态变更请求
type UpdateProjectStatusRequest struct {
	Status string `json:"status" binding:"required,oneof=registered in_progress submitted reviewed completed failed"`
}

// ProjectListRequest 项目列表查询
type ProjectListRequest struct {
	Status       string `form:"status"        binding:"omitempty,oneof=registered in_progress submitted reviewed completed failed"`
	Semester     string `form:"semester"      binding:"omitempty,max=20"`
	SupervisorID string `form:"supervisor_id" binding:"omitempty,uuid"`
	Page         int    `form:"page"          binding:"omitempty,gte=1"`
	PageSize     int    `form:"page_size"     binding:"omitempty,gte=1,lte=100"`
}

// SubmitEvaluationRequest 提交评审请求
// 缺失的评分项按 0 分计入加权总分
type SubmitEvaluationRequest struct {
	EvaluatorRole string             `json:"evaluator_type" binding:"required,oneof=supervisor reviewer"`
	CriteriaScore map[string]float64 `json:"criteria_score" binding:"required"`
	Comments      string             `json:"comments"       binding:"omitempty"`
	Strengths     string             `json:"strengths"      binding:"omitempty"`
	Weaknesses    string             `json:"weaknesses"     binding:"omitempty"`
	Suggestions   string             `json:"suggestions"    binding:"omitempty"`
}

// SetCouncilScoreRequest 录入答辩委员会评分请求（仅管理员）
type SetCouncilScoreRequest struct {
	CouncilScore float64 `json:"council_score" binding:"gte=0,lte=10"`
}

// EvaluationResponse 评审提交结果
type EvaluationResponse struct {
	EvaluationID string  `json:"evaluation_id"`
	TotalScore   float64 `json:"total_score"`
}

// EvaluationDetailResponse 评审记录详情
type EvaluationDetailResponse struct {
	ID                string  `json:"id"`
	ProjectID         string  `json:"project_id"`
	EvaluatorRole     string  `json:"evaluator_type"`
	ContentScore      float64 `json:"content_score"`
	TechnicalScore    float64 `json:"technical_score"`
	PresentationScore float64 `json:"presentation_score"`
	DefenseScore      float64 `json:"defense_score"`
	TotalScore        float64 `json:"total_score"`
	Comments          string  `json:"comments,omitempty"`
	Strengths         string  `json:"strengths,omitempty"`
	Weaknesses        string  `json:"weaknesses,omitempty"`
	Suggestions       string  `json:"suggestions,omitempty"`
	UpdatedAt         string  `json:"updated_at"`
}

// ProjectResponse 项目信息响应
type ProjectResponse struct {
	ID              string   `json:"id"`
	TopicID         string   `json:"topic_id"`
	TopicTitle      string   `json:"topic_title,omitempty"`
	StudentID       string   `json:"student_id"`
	StudentName     string   `json:"student_name,omitempty"`
	StudentCode     string   `json:"student_code,omitempty"`
	SupervisorID    string   `json:"supervisor_id,omitempty"`
	ReviewerID      string   `json:"reviewer_id,omitempty"`
	Status          string   `json:"status"`
	SupervisorScore *float64 `json:"supervisor_score,omitempty"`
	ReviewerScore   *float64 `json:"reviewer_score,omitempty"`
	CouncilScore    *float64 `json:"council_score,omitempty"`
	FinalScore      *float64 `json:"final_score,omitempty"`
	Grade           string   `json:"grade,omitempty"`
	DefenseAt       string   `json:"defense_at,omitempty"`
	ReportURL       string   `json:"report_url,omitempty"`
	CreatedAt       string   `json:"created_at"`
	UpdatedAt       string   `json:"updated_at"`
}

// ── 进度报告 DTO ──

// SubmitReportRequest 提交周进度报告请求
type SubmitReportRequest struct {
	WeekNo  int    `json:"week_no" binding:"required,gte=1,lte=30"`
	Content string `json:"content" binding:"required"`
}

// ReviewReportRequest 指导教师批阅进度报告请求
type ReviewReportRequest struct {
	Comment string `json:"comment" binding:"required"`
}

// ProgressReportResponse 进度报告响应
type ProgressReportResponse struct {
	ID                string `json:"id"`
	ProjectID         string `json:"project_id"`
	WeekNo            int    `json:"week_no"`
	Content           string `json:"content"`
	AttachmentURL     string `json:"attachment_url,omitempty"`
	SupervisorComment string `json:"supervisor_comment,omitempty"`
	Status            string `json:"status"`
	CreatedAt         string `json:"created_at"`
}
