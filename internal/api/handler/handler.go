package handler

import "capstone-hub/backend/internal/service"

// Handler 所有 Handler 的聚合入口
type Handler struct {
	Auth         *AuthHandler
	User         *UserHandler
	Topic        *TopicHandler
	Project      *ProjectHandler
	Evaluation   *EvaluationHandler
	Proposal     *ProposalHandler
	Scheduling   *SchedulingHandler
	Report       *ReportHandler
	Announcement *AnnouncementHandler
	Notification *NotificationHandler
	Export       *ExportHandler
}

// NewHandler 创建 Handler 聚合
func NewHandler(svc *service.Service) *Handler {
	return &Handler{
		Auth:         NewAuthHandler(svc.Auth),
		User:         NewUserHandler(svc.User),
		Topic:        NewTopicHandler(svc.Topic),
		Project:      NewProjectHandler(svc.Project),
		Evaluation:   NewEvaluationHandler(svc.Evaluation),
		Proposal:     NewProposalHandler(svc.Proposal),
		Scheduling:   NewSchedulingHandler(svc.Scheduling),
		Report:       NewReportHandler(svc.Report),
		Announcement: NewAnnouncementHandler(svc.Announcement),
		Notification: NewNotificationHandler(svc.Notification),
		Export:       NewExportHandler(svc.Export),
	}
}
