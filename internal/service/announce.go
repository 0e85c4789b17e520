package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"MatchAnnounce/internal/config"
	"MatchAnnounce/internal/interfaces"
	"MatchAnnounce/internal/model"
	"MatchAnnounce/internal/repository"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// ErrCycleInProgress 上一个周期尚未结束（本进程或其他实例持有锁）
var ErrCycleInProgress = errors.New("announce cycle already in progress")

// CycleReport 单个周期的处理统计
type CycleReport struct {
	Rows          int           `json:"rows"`          // 数据源返回的比赛数
	Merged        int           `json:"merged"`        // 成功写回的快照数
	Skipped       int           `json:"skipped"`       // 无快照或数据不完整而跳过
	Failed        int           `json:"failed"`        // 读写或解析失败
	Notifications int           `json:"notifications"` // 成功投递的通知数
	Duration      time.Duration `json:"duration"`
}

// AnnounceService 比分播报：拉取数据源 → 逐场比较 → 发送通知 → 写回快照
type AnnounceService struct {
	fetcher   interfaces.FeedFetcher
	matchRepo repository.MatchRepository
	notifier  interfaces.Notifier
	locker    interfaces.JobLocker
	engine    *DiffEngine
	cfg       *config.Config
	logger    *logrus.Logger
	owner     string
	guard     sync.Mutex
	now       func() time.Time
}

// NewAnnounceService 创建播报服务
func NewAnnounceService(
	fetcher interfaces.FeedFetcher,
	matchRepo repository.MatchRepository,
	notifier interfaces.Notifier,
	locker interfaces.JobLocker,
	cfg *config.Config,
	logger *logrus.Logger,
) *AnnounceService {
	return &AnnounceService{
		fetcher:   fetcher,
		matchRepo: matchRepo,
		notifier:  notifier,
		locker:    locker,
		engine:    NewDiffEngine(DiffOptions{NotifyEveryEvent: cfg.Announce.NotifyEveryEvent}),
		cfg:       cfg,
		logger:    logger,
		owner:     uuid.NewString(),
		now:       time.Now,
	}
}

// RunCycle 执行一个完整周期。进程内互斥 + 数据库租约双重保证周期不重叠；
// 单场比赛失败只记录日志，不影响后续比赛。
func (s *AnnounceService) RunCycle(ctx context.Context) (*CycleReport, error) {
	if !s.guard.TryLock() {
		cyclesTotal.WithLabelValues("locked").Inc()
		return nil, ErrCycleInProgress
	}
	defer s.guard.Unlock()

	jobName, ttl := s.cfg.Announce.JobName, s.cfg.Announce.LockTTL
	acquired, err := s.locker.TryAcquire(ctx, jobName, s.owner, ttl)
	if err != nil {
		cyclesTotal.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("获取任务锁失败: %w", err)
	}
	if !acquired {
		cyclesTotal.WithLabelValues("locked").Inc()
		return nil, ErrCycleInProgress
	}
	defer func() {
		// 调用方的 ctx 可能已取消，释放锁用独立的 ctx
		releaseCtx, cancel := context.WithTimeout(context.Background(), s.queryTimeout())
		defer cancel()
		if err := s.locker.Release(releaseCtx, jobName, s.owner); err != nil {
			s.logger.WithError(err).WithField("job", jobName).Warn("释放任务锁失败，等待租约过期")
		}
	}()

	// 周期不能比租约活得久，否则其他实例可能在本周期结束前拿到锁
	ctx, cancel := withTimeout(ctx, ttl)
	defer cancel()

	start := time.Now()
	report, err := s.runLocked(ctx)
	report.Duration = time.Since(start)
	cycleDuration.Observe(report.Duration.Seconds())
	if err != nil {
		cyclesTotal.WithLabelValues("error").Inc()
		return report, err
	}
	cyclesTotal.WithLabelValues("ok").Inc()
	s.logger.WithFields(logrus.Fields{
		"rows":          report.Rows,
		"merged":        report.Merged,
		"skipped":       report.Skipped,
		"failed":        report.Failed,
		"notifications": report.Notifications,
		"duration":      report.Duration,
	}).Info("播报周期完成")
	return report, nil
}

func (s *AnnounceService) runLocked(ctx context.Context) (*CycleReport, error) {
	report := &CycleReport{}

	fetchCtx, cancel := withTimeout(ctx, s.cfg.Feed.Timeout)
	rows, err := s.fetcher.FetchMatches(fetchCtx)
	cancel()
	if err != nil {
		return report, fmt.Errorf("%s拉取比赛失败: %w", s.fetcher.GetName(), err)
	}
	report.Rows = len(rows)

	for _, row := range rows {
		if err := ctx.Err(); err != nil {
			// 已写回的比赛保持提交，剩余的下个周期用最后一次快照重新比较
			s.logger.WithError(err).Warnf("周期被中断，剩余%d场比赛留待下个周期", report.Rows-report.Merged-report.Skipped-report.Failed)
			return report, err
		}
		s.processRow(ctx, row, report)
	}
	return report, nil
}

// processRow 单场比赛：校验 → 读快照 → 比较 → 先发通知 → 再写回
// 先通知后写回：两步之间崩溃最多重复通知，不会漏发
func (s *AnnounceService) processRow(ctx context.Context, row *model.FeedMatch, report *CycleReport) {
	if row == nil {
		report.Skipped++
		rowsTotal.WithLabelValues("malformed").Inc()
		s.logger.Warn("数据源返回空比赛行，跳过")
		return
	}
	entry := s.logger.WithFields(logrus.Fields{"fifa_id": row.FifaID, "status": row.Status})
	if err := row.Validate(); err != nil {
		report.Skipped++
		rowsTotal.WithLabelValues("malformed").Inc()
		entry.WithError(err).Warn("比赛数据不完整，跳过")
		return
	}

	prev, err := s.getSnapshot(ctx, row.FifaID)
	if err != nil {
		if errors.Is(err, repository.ErrMatchNotFound) {
			report.Skipped++
			rowsTotal.WithLabelValues("not_found").Inc()
			entry.Warn("数据一致性警告：库中没有该比赛的快照，跳过")
			return
		}
		report.Failed++
		rowsTotal.WithLabelValues("failed").Inc()
		entry.WithError(err).Error("读取比赛快照失败")
		return
	}

	decision, err := s.engine.Evaluate(prev, row, s.now())
	if err != nil {
		report.Failed++
		rowsTotal.WithLabelValues("failed").Inc()
		entry.WithError(err).Error("比较比赛状态失败")
		return
	}

	for _, n := range decision.Notifications {
		if err := s.notifier.Send(ctx, n.Text); err != nil {
			if errors.Is(err, interfaces.ErrNoDestinations) {
				notificationsTotal.WithLabelValues(n.Kind, "skipped").Inc()
				entry.WithField("kind", n.Kind).Infof("未配置通知目标，仅记录 - %s", n.Text)
				continue
			}
			notificationsTotal.WithLabelValues(n.Kind, "failed").Inc()
			entry.WithError(err).WithField("message", n.Text).Warn("通知发送失败")
			continue
		}
		notificationsTotal.WithLabelValues(n.Kind, "sent").Inc()
		report.Notifications++
		entry.WithField("kind", n.Kind).Infof("notification sent - %s", n.Text)
	}

	saveCtx, cancel := context.WithTimeout(ctx, s.queryTimeout())
	defer cancel()
	if err := s.matchRepo.SaveSnapshot(saveCtx, decision.Merged); err != nil {
		report.Failed++
		rowsTotal.WithLabelValues("failed").Inc()
		entry.WithError(err).Error("写回比赛快照失败")
		return
	}
	report.Merged++
	rowsTotal.WithLabelValues("merged").Inc()
}

func (s *AnnounceService) getSnapshot(ctx context.Context, fifaID string) (*model.Match, error) {
	ctx, cancel := context.WithTimeout(ctx, s.queryTimeout())
	defer cancel()
	return s.matchRepo.GetByFifaID(ctx, fifaID)
}

func (s *AnnounceService) queryTimeout() time.Duration {
	if s.cfg.Database.QueryTimeout > 0 {
		return s.cfg.Database.QueryTimeout
	}
	return 5 * time.Second
}

// withTimeout d<=0 时不加超时
func withTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, d)
}
