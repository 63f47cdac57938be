package service

import (
	"math/rand"
	"time"

	"go.uber.org/zap"

	"capstone-hub/backend/config"
	"capstone-hub/backend/internal/repository"
	"capstone-hub/backend/pkg/jwt"
	"capstone-hub/backend/pkg/redis"
	"capstone-hub/backend/pkg/storage"
)

// Service 所有 Service 的聚合入口
type Service struct {
	Auth         AuthService
	User         UserService
	Topic        TopicService
	Project      ProjectService
	Evaluation   EvaluationService
	Proposal     ProposalService
	Scheduling   SchedulingService
	Report       ReportService
	Announcement AnnouncementService
	Notification NotificationService
	Export       ExportService
}

// NewService 创建 Service 聚合
func NewService(
	cfg *config.Config,
	repo *repository.Repository,
	jwtMgr *jwt.Manager,
	rdb *redis.Client,
	store storage.Storage,
	logger *zap.Logger,
) *Service {
	notification := NewNotificationService(repo, logger)
	// 评阅人随机分配使用时间种子；测试中注入固定种子
	rng := rand.New(rand.NewSource(time.Now().UnixNano()))

	return &Service{
		Auth:         NewAuthService(cfg, repo, jwtMgr, rdb, logger),
		User:         NewUserService(repo, logger),
		Topic:        NewTopicService(repo, notification, rng, logger),
		Project:      NewProjectService(repo, notification, logger),
		Evaluation:   NewEvaluationService(repo, notification, logger),
		Proposal:     NewProposalService(repo, notification, logger),
		Scheduling:   NewSchedulingService(repo, notification, logger),
		Report:       NewReportService(repo, store, logger),
		Announcement: NewAnnouncementService(repo, logger),
		Notification: notification,
		Export:       NewExportService(repo, logger),
	}
}
