package interfaces

import (
	"context"
	"errors"
	"time"

	"MatchAnnounce/internal/model"
)

// FeedFetcher 比赛数据源：每个轮询周期调用一次，返回当前关注的全部比赛
type FeedFetcher interface {
	// GetName 数据源名称
	GetName() string
	// FetchMatches 拉取比赛列表
	FetchMatches(ctx context.Context) ([]*model.FeedMatch, error)
}

// ErrNoDestinations 没有任何可用的投递目标，消息未发出
var ErrNoDestinations = errors.New("no notification destination configured")

// Notifier 通知出口：尽力投递，单个目标失败不影响其他目标
// 没有可用目标时返回 ErrNoDestinations
type Notifier interface {
	Send(ctx context.Context, text string) error
}

// JobLocker 定时任务互斥锁（按任务名，而不是按比赛）
type JobLocker interface {
	// TryAcquire 尝试获取租约，已被他人持有且未过期时返回 false
	TryAcquire(ctx context.Context, jobName, owner string, ttl time.Duration) (bool, error)
	// Release 释放自己持有的租约
	Release(ctx context.Context, jobName, owner string) error
}
