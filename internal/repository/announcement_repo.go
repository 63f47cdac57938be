package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"capstone-hub/backend/internal/model"
)

// AnnouncementRepository 公告数据访问接口
type AnnouncementRepository interface {
	Create(ctx context.Context, announcement *model.Announcement) error
	GetByID(ctx context.Context, id string) (*model.Announcement, error)
	GetCurrentPublished(ctx context.Context, semester string) (*model.Announcement, error)
	List(ctx context.Context, publishedOnly bool) ([]model.Announcement, error)
	Update(ctx context.Context, announcement *model.Announcement) error
	Delete(ctx context.Context, id string, deletedBy string) error
}

type announcementRepo struct {
	db *gorm.DB
}

// NewAnnouncementRepo 创建 AnnouncementRepository 实例
func NewAnnouncementRepo(db *gorm.DB) AnnouncementRepository {
	return &announcementRepo{db: db}
}

func (r *announcementRepo) Create(ctx context.Context, announcement *model.Announcement) error {
	return r.db.WithContext(ctx).Create(announcement).Error
}

func (r *announcementRepo) GetByID(ctx context.Context, id string) (*model.Announcement, error) {
	var announcement model.Announcement
	err := r.db.WithContext(ctx).
		Where("announcement_id = ?", id).
		First(&announcement).Error
	if err != nil {
		return nil, err
	}
	return &announcement, nil
}

// GetCurrentPublished 获取指定学期最新发布的公告；semester 为空时取全局最新
func (r *announcementRepo) GetCurrentPublished(ctx context.Context, semester string) (*model.Announcement, error) {
	var announcement model.Announcement
	db := r.db.WithContext(ctx).Where("published = ?", true)
	if semester != "" {
		db = db.Where("semester = ?", semester)
	}
	err := db.Order("published_at DESC").First(&announcement).Error
	if err != nil {
		return nil, err
	}
	return &announcement, nil
}

func (r *announcementRepo) List(ctx context.Context, publishedOnly bool) ([]model.Announcement, error) {
	var announcements []model.Announcement
	db := r.db.WithContext(ctx)
	if publishedOnly {
		db = db.Where("published = ?", true)
	}
	err := db.Order("created_at DESC").Find(&announcements).Error
	return announcements, err
}

func (r *announcementRepo) Update(ctx context.Context, announcement *model.Announcement) error {
	return r.db.WithContext(ctx).Save(announcement).Error
}

func (r *announcementRepo) Delete(ctx context.Context, id string, deletedBy string) error {
	return r.db.WithContext(ctx).
		Model(&model.Announcement{}).
		Where("announcement_id = ?", id).
		Updates(map[string]interface{}{
			"deleted_by": deletedBy,
			"deleted_at": time.Now(),
		}).Error
}
