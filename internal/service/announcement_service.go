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

// ── 公告模块业务错误 ──

var (
	ErrAnnouncementNotFound = errors.New("公告不存在")
	ErrDeadlineInvalid      = errors.New("截止时间格式不正确")
)

// AnnouncementService 选题批次公告业务接口
type AnnouncementService interface {
	CreateAnnouncement(ctx context.Context, operatorID string, req *dto.CreateAnnouncementRequest) (*dto.AnnouncementResponse, error)
	UpdateAnnouncement(ctx context.Context, operatorID, id string, req *dto.UpdateAnnouncementRequest) (*dto.AnnouncementResponse, error)
	PublishAnnouncement(ctx context.Context, operatorID, id string) (*dto.AnnouncementResponse, error)
	GetCurrentAnnouncement(ctx context.Context, semester string) (*dto.AnnouncementResponse, error)
	ListAnnouncements(ctx context.Context, role string) ([]*dto.AnnouncementResponse, error)
	DeleteAnnouncement(ctx context.Context, operatorID, id string) error
}

type announcementService struct {
	repo   *repository.Repository
	logger *zap.Logger
}

// NewAnnouncementService 创建 AnnouncementService 实例
func NewAnnouncementService(repo *repository.Repository, logger *zap.Logger) AnnouncementService {
	return &announcementService{repo: repo, logger: logger}
}

// ────────────────────── CreateAnnouncement ──────────────────────

func (s *announcementService) CreateAnnouncement(ctx context.Context, operatorID string, req *dto.CreateAnnouncementRequest) (*dto.AnnouncementResponse, error) {
	announcement := &model.Announcement{
		Title:    req.Title,
		Body:     req.Body,
		Semester: req.Semester,
	}
	announcement.CreatedBy = &operatorID

	var err error
	if announcement.ProposalDeadline, err = parseDeadline(req.ProposalDeadline); err != nil {
		return nil, err
	}
	if announcement.RegistrationDeadline, err = parseDeadline(req.RegistrationDeadline); err != nil {
		return nil, err
	}

	if err := s.repo.Announcement.Create(ctx, announcement); err != nil {
		s.logger.Error("创建公告失败", zap.Error(err))
		return nil, err
	}

	s.logger.Info("公告已创建", zap.String("announcement_id", announcement.AnnouncementID))
	return toAnnouncementResponse(announcement), nil
}

// ────────────────────── UpdateAnnouncement ──────────────────────

func (s *announcementService) UpdateAnnouncement(ctx context.Context, operatorID, id string, req *dto.UpdateAnnouncementRequest) (*dto.AnnouncementResponse, error) {
	announcement, err := s.getByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Title != nil {
		announcement.Title = *req.Title
	}
	if req.Body != nil {
		announcement.Body = *req.Body
	}
	if req.Semester != nil {
		announcement.Semester = *req.Semester
	}
	if req.ProposalDeadline != nil {
		if announcement.ProposalDeadline, err = parseDeadline(*req.ProposalDeadline); err != nil {
			return nil, err
		}
	}
	if req.RegistrationDeadline != nil {
		if announcement.RegistrationDeadline, err = parseDeadline(*req.RegistrationDeadline); err != nil {
			return nil, err
		}
	}
	announcement.UpdatedBy = &operatorID

	if err := s.repo.Announcement.Update(ctx, announcement); err != nil {
		s.logger.Error("更新公告失败", zap.String("id", id), zap.Error(err))
		return nil, err
	}
	return toAnnouncementResponse(announcement), nil
}

// ────────────────────── PublishAnnouncement ──────────────────────

func (s *announcementService) PublishAnnouncement(ctx context.Context, operatorID, id string) (*dto.AnnouncementResponse, error) {
	announcement, err := s.getByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if !announcement.Published {
		now := time.Now()
		announcement.Published = true
		announcement.PublishedAt = &now
		announcement.UpdatedBy = &operatorID
		if err := s.repo.Announcement.Update(ctx, announcement); err != nil {
			s.logger.Error("发布公告失败", zap.String("id", id), zap.Error(err))
			return nil, err
		}
		s.logger.Info("公告已发布", zap.String("announcement_id", id))
	}
	return toAnnouncementResponse(announcement), nil
}

// ────────────────────── GetCurrentAnnouncement ──────────────────────

func (s *announcementService) GetCurrentAnnouncement(ctx context.Context, semester string) (*dto.AnnouncementResponse, error) {
	announcement, err := s.repo.Announcement.GetCurrentPublished(ctx, semester)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrAnnouncementNotFound
		}
		s.logger.Error("查询公告失败", zap.Error(err))
		return nil, err
	}
	return toAnnouncementResponse(announcement), nil
}

// ────────────────────── ListAnnouncements ──────────────────────

func (s *announcementService) ListAnnouncements(ctx context.Context, role string) ([]*dto.AnnouncementResponse, error) {
	// 非管理员只能看到已发布的公告
	announcements, err := s.repo.Announcement.List(ctx, role != model.RoleAdmin)
	if err != nil {
		s.logger.Error("查询公告列表失败", zap.Error(err))
		return nil, err
	}

	resp := make([]*dto.AnnouncementResponse, 0, len(announcements))
	for i := range announcements {
		resp = append(resp, toAnnouncementResponse(&announcements[i]))
	}
	return resp, nil
}

// ────────────────────── DeleteAnnouncement ──────────────────────

func (s *announcementService) DeleteAnnouncement(ctx context.Context, operatorID, id string) error {
	if _, err := s.getByID(ctx, id); err != nil {
		return err
	}
	if err := s.repo.Announcement.Delete(ctx, id, operatorID); err != nil {
		s.logger.Error("删除公告失败", zap.String("id", id), zap.Error(err))
		return err
	}
	return nil
}

// ── 内部辅助方法 ──

func (s *announcementService) getByID(ctx context.Context, id string) (*model.Announcement, error) {
	announcement, err := s.repo.Announcement.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrAnnouncementNotFound
		}
		s.logger.Error("查询公告失败", zap.String("id", id), zap.Error(err))
		return nil, err
	}
	return announcement, nil
}

func parseDeadline(value string) (*time.Time, error) {
	if value == "" {
		return nil, nil
	}
	t, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return nil, ErrDeadlineInvalid
	}
	return &t, nil
}

// ── 转换辅助函数 ──

func toAnnouncementResponse(a *model.Announcement) *dto.AnnouncementResponse {
	resp := &dto.AnnouncementResponse{
		ID:        a.AnnouncementID,
		Title:     a.Title,
		Body:      a.Body,
		Semester:  a.Semester,
		Published: a.Published,
		CreatedAt: a.CreatedAt.Format(time.RFC3339),
	}
	if a.ProposalDeadline != nil {
		resp.ProposalDeadline = a.ProposalDeadline.Format(time.RFC3339)
	}
	if a.RegistrationDeadline != nil {
		resp.RegistrationDeadline = a.RegistrationDeadline.Format(time.RFC3339)
	}
	if a.PublishedAt != nil {
		resp.PublishedAt = a.PublishedAt.Format(time.RFC3339)
	}
	return resp
}
