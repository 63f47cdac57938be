package repository

import (
	"context"

	"gorm.io/gorm"
)

// Repository 所有 Repository 的聚合入口
type Repository struct {
	db *gorm.DB

	User         UserRepository
	Student      StudentRepository
	Teacher      TeacherRepository
	Topic        TopicRepository
	Project      ProjectRepository
	Evaluation   EvaluationRepository
	Proposal     ProposalRepository
	Report       ProgressReportRepository
	Slot         MeetingSlotRepository
	Booking      SlotBookingRepository
	Announcement AnnouncementRepository
	Notification NotificationRepository
	SystemState  SystemStateRepository
}

// NewRepository 创建 Repository 聚合
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{
		db:           db,
		User:         NewUserRepo(db),
		Student:      NewStudentRepo(db),
		Teacher:      NewTeacherRepo(db),
		Topic:        NewTopicRepo(db),
		Project:      NewProjectRepo(db),
		Evaluation:   NewEvaluationRepo(db),
		Proposal:     NewProposalRepo(db),
		Report:       NewProgressReportRepo(db),
		Slot:         NewMeetingSlotRepo(db),
		Booking:      NewSlotBookingRepo(db),
		Announcement: NewAnnouncementRepo(db),
		Notification: NewNotificationRepo(db),
		SystemState:  NewSystemStateRepo(db),
	}
}

// Tx 数据库事务句柄
// db 为空时（单测注入 mock 的场景）Commit/Rollback 均为空操作
type Tx struct {
	db *gorm.DB
}

// Rollback 回滚事务
func (t *Tx) Rollback() {
	if t != nil && t.db != nil {
		t.db.Rollback()
	}
}

// Commit 提交事务
func (t *Tx) Commit() error {
	if t == nil || t.db == nil {
		return nil
	}
	return t.db.Commit().Error
}

// BeginTx 开启数据库事务
// 返回的事务句柄须经 WithTx 重新绑定后使用，并由调用方负责 Commit/Rollback
func (r *Repository) BeginTx(ctx context.Context) (*Tx, error) {
	if r.db == nil {
		return &Tx{}, nil
	}
	tx := r.db.WithContext(ctx).Begin()
	if tx.Error != nil {
		return nil, tx.Error
	}
	return &Tx{db: tx}, nil
}

// WithTx 返回绑定到指定事务连接的 Repository 副本
func (r *Repository) WithTx(tx *Tx) *Repository {
	if tx == nil || tx.db == nil {
		return r
	}
	return NewRepository(tx.db)
}
