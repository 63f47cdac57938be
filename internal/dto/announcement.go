package dto

// ── 公告模块 DTO ──

// CreateAnnouncementRequest 创建公告请求
type CreateAnnouncementRequest struct {
	Title                string `json:"title"                 binding:"required,min=2,max=255"`
	Body                 string `json:"body"                  binding:"omitempty"`
	Semester             string `json:"semester"              binding:"omitempty,max=20"`
	ProposalDeadline     string `json:"proposal_deadline"     binding:"omitempty"` // RFC3339
	RegistrationDeadline string `json:"registration_deadline" binding:"omitempty"`
}

// UpdateAnnouncementRequest 更新公告请求
type UpdateAnnouncementRequest struct {
	Title                *string `json:"title"                 binding:"omitempty,min=2,max=255"`
	Body                 *string `json:"body"`
	Semester             *string `json:"semester"              binding:"omitempty,max=20"`
	ProposalDeadline     *string `json:"proposal_deadline"`
	RegistrationDeadline *string `json:"registration_deadline"`
}

// AnnouncementResponse 公告响应
type AnnouncementResponse struct {
	ID                   string `json:"id"`
	Title                string `json:"title"`
	Body                 string `json:"body,omitempty"`
	Semester             string `json:"semester,omitempty"`
	ProposalDeadline     string `json:"proposal_deadline,omitempty"`
	RegistrationDeadline string `json:"registration_deadline,omitempty"`
	Published            bool   `json:"published"`
	PublishedAt          string `json:"published_at,omitempty"`
	CreatedAt            string `json:"created_at"`
}

// ── 通知模块 DTO ──

// NotificationListRequest 通知列表查询
type NotificationListRequest struct {
	UnreadOnly bool `form:"unread_only"`
	Page       int  `form:"page"      binding:"omitempty,gte=1"`
	PageSize   int  `form:"page_size" binding:"omitempty,gte=1,lte=100"`
}

// NotificationResponse 通知响应
type NotificationResponse struct {
	ID        string `json:"id"`
	EventType string `json:"event_type"`
	Title     string `json:"title"`
	Body      string `json:"body,omitempty"`
	IsRead    bool   `json:"is_read"`
	CreatedAt string `json:"created_at"`
}
