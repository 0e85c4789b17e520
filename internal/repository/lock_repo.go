package repository

import (
	"context"
	"time"

	"MatchAnnounce/internal/interfaces"
	"MatchAnnounce/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type lockRepository struct {
	db  *gorm.DB
	now func() time.Time
}

// NewLockRepository 基于 job_locks 表的租约锁
func NewLockRepository(db *gorm.DB) interfaces.JobLocker {
	return &lockRepository{db: db, now: func() time.Time { return time.Now().UTC() }}
}

// TryAcquire 插入租约行；冲突时只有租约已过期或本来就是自己持有才覆盖
func (r *lockRepository) TryAcquire(ctx context.Context, jobName, owner string, ttl time.Duration) (bool, error) {
	now := r.now()
	lock := &model.JobLock{JobName: jobName, Owner: owner, ExpiresAt: now.Add(ttl)}
	res := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "job_name"}},
		DoUpdates: clause.AssignmentColumns([]string{"owner", "expires_at"}),
		Where: clause.Where{Exprs: []clause.Expression{clause.Or(
			clause.Expr{SQL: "job_locks.expires_at < ?", Vars: []interface{}{now}},
			clause.Expr{SQL: "job_locks.owner = ?", Vars: []interface{}{owner}},
		)}},
	}).Create(lock)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// Release 只删除自己持有的租约，别人抢占后的租约不受影响
func (r *lockRepository) Release(ctx context.Context, jobName, owner string) error {
	return r.db.WithContext(ctx).
		Where("job_name = ? AND owner = ?", jobName, owner).
		Delete(&model.JobLock{}).Error
}
