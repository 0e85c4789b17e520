package service

import (
	"context"
	"errors"
	"time"

	"github.com/sirupsen/logrus"
)

// CycleRunner 可被定时触发的周期任务
type CycleRunner interface {
	RunCycle(ctx context.Context) (*CycleReport, error)
}

// Scheduler 按固定间隔触发周期；启动时立即执行一次
// 同一 goroutine 串行执行，周期超时未完成时 ticker 会丢弃中间的 tick
type Scheduler struct {
	runner   CycleRunner
	interval time.Duration
	logger   *logrus.Logger
}

func NewScheduler(runner CycleRunner, interval time.Duration, logger *logrus.Logger) *Scheduler {
	return &Scheduler{runner: runner, interval: interval, logger: logger}
}

// Run 阻塞直到 ctx 取消
func (s *Scheduler) Run(ctx context.Context) {
	s.logger.WithField("interval", s.interval).Info("播报调度器已启动")
	s.tick(ctx)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			s.tick(ctx)
		case <-ctx.Done():
			s.logger.Info("播报调度器已停止")
			return
		}
	}
}

func (s *Scheduler) tick(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}
	if _, err := s.runner.RunCycle(ctx); err != nil {
		if errors.Is(err, ErrCycleInProgress) {
			s.logger.Info("上一个周期尚未结束，跳过本次")
			return
		}
		s.logger.WithError(err).Error("播报周期失败")
	}
}
