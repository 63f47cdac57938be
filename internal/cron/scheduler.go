package cron

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"capstone-hub/backend/internal/repository"
	"capstone-hub/backend/internal/service"
)

// Scheduler 后台定时维护任务
type Scheduler struct {
	cron     *cron.Cron
	repo     *repository.Repository
	topicSvc service.TopicService
	logger   *zap.Logger
}

// NewScheduler 创建 Scheduler
func NewScheduler(repo *repository.Repository, topicSvc service.TopicService, logger *zap.Logger) *Scheduler {
	return &Scheduler{
		cron:     cron.New(),
		repo:     repo,
		topicSvc: topicSvc,
		logger:   logger,
	}
}

// Start 注册任务并启动调度
func (s *Scheduler) Start() error {
	// 每 10 分钟关闭已过期的会面时段
	if _, err := s.cron.AddFunc("*/10 * * * *", s.closeExpiredSlots); err != nil {
		return err
	}

	// 每天凌晨 3 点修复冗余计数
	if _, err := s.cron.AddFunc("0 3 * * *", s.resetCounters); err != nil {
		return err
	}

	s.cron.Start()
	s.logger.Info("定时任务已启动")
	return nil
}

// Stop 停止调度，等待运行中的任务结束
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.logger.Info("定时任务已停止")
}

func (s *Scheduler) closeExpiredSlots() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	closed, err := s.repo.Slot.CloseExpired(ctx, time.Now())
	if err != nil {
		s.logger.Error("关闭过期时段失败", zap.Error(err))
		return
	}
	if closed > 0 {
		s.logger.Info("已关闭过期时段", zap.Int64("count", closed))
	}
}

func (s *Scheduler) resetCounters() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	result, err := s.topicSvc.ResetCounters(ctx)
	if err != nil {
		s.logger.Error("冗余计数修复失败", zap.Error(err))
		return
	}
	s.logger.Info("冗余计数修复完成",
		zap.Int("topics_fixed", result.TopicsFixed),
		zap.Int("teachers_fixed", result.TeachersFixed))
}
