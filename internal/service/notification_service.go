package service

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"capstone-hub/backend/internal/dto"
	"capstone-hub/backend/internal/model"
	"capstone-hub/backend/internal/repository"
)

// ── 通知事件类型 ──

const (
	EventTopicApproved     = "topic_approved"
	EventTopicRejected     = "topic_rejected"
	EventReviewerAssigned  = "reviewer_assigned"
	EventProjectRegistered = "project_registered"
	EventProjectWithdrawn  = "project_withdrawn"
	EventScoreSubmitted    = "score_submitted"
	EventGradeFinalized    = "grade_finalized"
	EventProposalReviewed  = "proposal_reviewed"
	EventSlotBooked        = "slot_booked"
	EventSlotCancelled     = "slot_cancelled"
	EventReportReviewed    = "report_reviewed"
)

var ErrNotificationNotFound = errors.New("通知不存在")

// NotificationService 站内通知业务接口
// Notify 为尽力投递：失败只记日志，不影响触发它的业务操作
type NotificationService interface {
	Notify(ctx context.Context, userID, eventType, title, body string)
	ListNotifications(ctx context.Context, userID string, req *dto.NotificationListRequest) ([]*dto.NotificationResponse, int64, error)
	MarkRead(ctx context.Context, userID, notificationID string) error
	MarkAllRead(ctx context.Context, userID string) error
}

type notificationService struct {
	repo   *repository.Repository
	logger *zap.Logger
}

// NewNotificationService 创建 NotificationService 实例
func NewNotificationService(repo *repository.Repository, logger *zap.Logger) NotificationService {
	return &notificationService{repo: repo, logger: logger}
}

func (s *notificationService) Notify(ctx context.Context, userID, eventType, title, body string) {
	if userID == "" {
		return
	}
	n := &model.Notification{
		UserID:    userID,
		EventType: eventType,
		Title:     title,
		Body:      body,
	}
	if err := s.repo.Notification.Create(ctx, n); err != nil {
		s.logger.Warn("写入通知失败",
			zap.String("user_id", userID),
			zap.String("event_type", eventType),
			zap.Error(err),
		)
	}
}

func (s *notificationService) ListNotifications(ctx context.Context, userID string, req *dto.NotificationListRequest) ([]*dto.NotificationResponse, int64, error) {
	offset, limit := pageToRange(req.Page, req.PageSize)

	items, total, err := s.repo.Notification.ListByUser(ctx, userID, req.UnreadOnly, offset, limit)
	if err != nil {
		s.logger.Error("查询通知列表失败", zap.String("user_id", userID), zap.Error(err))
		return nil, 0, err
	}

	resp := make([]*dto.NotificationResponse, 0, len(items))
	for i := range items {
		resp = append(resp, toNotificationResponse(&items[i]))
	}
	return resp, total, nil
}

func (s *notificationService) MarkRead(ctx context.Context, userID, notificationID string) error {
	n, err := s.repo.Notification.GetByID(ctx, notificationID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotificationNotFound
		}
		s.logger.Error("查询通知失败", zap.String("id", notificationID), zap.Error(err))
		return err
	}
	// 只能读自己的通知
	if n.UserID != userID {
		return ErrNotificationNotFound
	}
	return s.repo.Notification.MarkRead(ctx, notificationID)
}

func (s *notificationService) MarkAllRead(ctx context.Context, userID string) error {
	return s.repo.Notification.MarkAllRead(ctx, userID)
}

func toNotificationResponse(n *model.Notification) *dto.NotificationResponse {
	return &dto.NotificationResponse{
		ID:        n.NotificationID,
		EventType: n.EventType,
		Title:     n.Title,
		Body:      n.Body,
		IsRead:    n.IsRead,
		CreatedAt: n.CreatedAt.Format(time.RFC3339),
	}
}
