package service

import (
	"context"
	"fmt"
	"time"

	"MatchAnnounce/internal/interfaces"
	"MatchAnnounce/internal/model"
	"MatchAnnounce/internal/repository"

	"github.com/sirupsen/logrus"
)

// SeedService 为数据源中尚无快照的比赛建立初始快照（播报任务只更新不新建）
type SeedService struct {
	fetcher   interfaces.FeedFetcher
	matchRepo repository.MatchRepository
	logger    *logrus.Logger
}

func NewSeedService(fetcher interfaces.FeedFetcher, matchRepo repository.MatchRepository, logger *logrus.Logger) *SeedService {
	return &SeedService{fetcher: fetcher, matchRepo: matchRepo, logger: logger}
}

// Run 拉取数据源并插入缺失的快照；已存在的快照保持不变，避免吞掉尚未播报的状态变化
func (s *SeedService) Run(ctx context.Context) (int64, error) {
	rows, err := s.fetcher.FetchMatches(ctx)
	if err != nil {
		return 0, fmt.Errorf("%s拉取比赛失败: %w", s.fetcher.GetName(), err)
	}

	now := time.Now()
	matches := make([]*model.Match, 0, len(rows))
	for _, row := range rows {
		if row == nil {
			continue
		}
		if err := row.Validate(); err != nil {
			s.logger.WithError(err).WithField("fifa_id", row.FifaID).Warn("比赛数据不完整，不建快照")
			continue
		}
		matches = append(matches, mergeSnapshot(&model.Match{}, row, now))
	}

	inserted, err := s.matchRepo.SeedMatches(ctx, matches)
	if err != nil {
		return 0, err
	}
	s.logger.Infof("初始化快照完成：数据源%d场，新增%d场", len(rows), inserted)
	return inserted, nil
}
