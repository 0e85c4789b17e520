package repository

import (
	"context"
	"errors"
	"fmt"

	"MatchAnnounce/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ErrMatchNotFound 数据源中的比赛在库中没有对应快照
var ErrMatchNotFound = errors.New("match snapshot not found")

// MatchFilter 列表筛选条件
type MatchFilter struct {
	Status string // future / in progress / completed
}

// MatchRepository 比赛快照仓储，按 fifa_id 读写
type MatchRepository interface {
	// GetByFifaID 读取快照，不存在时返回 ErrMatchNotFound
	GetByFifaID(ctx context.Context, fifaID string) (*model.Match, error)
	// SaveSnapshot 用合并结果整体覆盖快照（单条 UPDATE，要么全成功要么不变）
	SaveSnapshot(ctx context.Context, m *model.Match) error
	// SeedMatches 为尚无快照的比赛插入初始快照，已有的不动；返回新插入条数
	SeedMatches(ctx context.Context, matches []*model.Match) (int64, error)
	// ListMatches 分页查询快照
	ListMatches(ctx context.Context, filter MatchFilter, page, pageSize int) ([]*model.Match, int64, error)
}

type matchRepository struct {
	db *gorm.DB
}

// NewMatchRepository 创建 MatchRepository 实例
func NewMatchRepository(db *gorm.DB) MatchRepository {
	return &matchRepository{db: db}
}

func (r *matchRepository) GetByFifaID(ctx context.Context, fifaID string) (*model.Match, error) {
	var m model.Match
	if err := r.db.WithContext(ctx).Where("fifa_id = ?", fifaID).First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: fifa_id=%s", ErrMatchNotFound, fifaID)
		}
		return nil, err
	}
	return &m, nil
}

func (r *matchRepository) SaveSnapshot(ctx context.Context, m *model.Match) error {
	res := r.db.WithContext(ctx).Model(&model.Match{}).
		Where("fifa_id = ?", m.FifaID).
		Updates(m.SnapshotAssignments())
	if res.Error != nil {
		return fmt.Errorf("更新快照失败: %w, fifa_id: %s", res.Error, m.FifaID)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("%w: fifa_id=%s", ErrMatchNotFound, m.FifaID)
	}
	return nil
}

func (r *matchRepository) SeedMatches(ctx context.Context, matches []*model.Match) (int64, error) {
	if len(matches) == 0 {
		return 0, nil
	}
	res := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "fifa_id"}},
		DoNothing: true,
	}).Create(&matches)
	if res.Error != nil {
		return 0, fmt.Errorf("插入初始快照失败: %w", res.Error)
	}
	return res.RowsAffected, nil
}

func (r *matchRepository) ListMatches(ctx context.Context, filter MatchFilter, page, pageSize int) ([]*model.Match, int64, error) {
	if page <= 0 {
		page = 1
	}
	if pageSize <= 0 || pageSize > 100 {
		pageSize = 20
	}
	db := r.db.WithContext(ctx).Model(&model.Match{})
	if filter.Status != "" {
		db = db.Where("status = ?", filter.Status)
	}
	var total int64
	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var list []*model.Match
	if err := db.Order("datetime ASC").Order("id ASC").Offset((page - 1) * pageSize).Limit(pageSize).Find(&list).Error; err != nil {
		return nil, 0, err
	}
	return list, total, nil
}
