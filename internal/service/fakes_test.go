package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"MatchAnnounce/internal/config"
	"MatchAnnounce/internal/interfaces"
	"MatchAnnounce/internal/model"
	"MatchAnnounce/internal/repository"

	"github.com/sirupsen/logrus"
)

func quietLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

func testConfig() *config.Config {
	return &config.Config{
		Database: config.DatabaseConfig{QueryTimeout: time.Second},
		Feed:     config.FeedConfig{Timeout: time.Second},
		Announce: config.AnnounceConfig{
			Enabled:  true,
			Interval: time.Minute,
			JobName:  "match:announce",
			LockTTL:  5 * time.Minute,
		},
	}
}

// journal 记录通知与写回的先后顺序
type journal struct {
	mu      sync.Mutex
	entries []string
}

func (j *journal) add(format string, args ...interface{}) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.entries = append(j.entries, fmt.Sprintf(format, args...))
}

func (j *journal) list() []string {
	j.mu.Lock()
	defer j.mu.Unlock()
	return append([]string(nil), j.entries...)
}

type fakeFetcher struct {
	rows  []*model.FeedMatch
	err   error
	calls int
}

func (f *fakeFetcher) GetName() string { return "Fake" }

func (f *fakeFetcher) FetchMatches(ctx context.Context) ([]*model.FeedMatch, error) {
	f.calls++
	return f.rows, f.err
}

type fakeMatchRepo struct {
	mu        sync.Mutex
	snapshots map[string]*model.Match
	getErr    map[string]error
	saveErr   map[string]error
	seeded    []*model.Match
	log       *journal
}

func newFakeMatchRepo(log *journal, snapshots ...*model.Match) *fakeMatchRepo {
	r := &fakeMatchRepo{
		snapshots: map[string]*model.Match{},
		getErr:    map[string]error{},
		saveErr:   map[string]error{},
		log:       log,
	}
	for _, s := range snapshots {
		r.snapshots[s.FifaID] = s
	}
	return r
}

func (r *fakeMatchRepo) GetByFifaID(ctx context.Context, fifaID string) (*model.Match, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.getErr[fifaID]; err != nil {
		return nil, err
	}
	m, ok := r.snapshots[fifaID]
	if !ok {
		return nil, fmt.Errorf("%w: fifa_id=%s", repository.ErrMatchNotFound, fifaID)
	}
	cp := *m
	return &cp, nil
}

func (r *fakeMatchRepo) SaveSnapshot(ctx context.Context, m *model.Match) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.saveErr[m.FifaID]; err != nil {
		return err
	}
	if _, ok := r.snapshots[m.FifaID]; !ok {
		return repository.ErrMatchNotFound
	}
	r.snapshots[m.FifaID] = m
	if r.log != nil {
		r.log.add("save %s %s", m.FifaID, m.Status)
	}
	return nil
}

func (r *fakeMatchRepo) SeedMatches(ctx context.Context, matches []*model.Match) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var inserted int64
	for _, m := range matches {
		if _, ok := r.snapshots[m.FifaID]; ok {
			continue
		}
		r.snapshots[m.FifaID] = m
		r.seeded = append(r.seeded, m)
		inserted++
	}
	return inserted, nil
}

func (r *fakeMatchRepo) ListMatches(ctx context.Context, filter repository.MatchFilter, page, pageSize int) ([]*model.Match, int64, error) {
	return nil, 0, errors.New("not implemented")
}

func (r *fakeMatchRepo) get(fifaID string) *model.Match {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.snapshots[fifaID]
}

type fakeNotifier struct {
	mu     sync.Mutex
	sent   []string
	failOn map[string]bool
	noDest bool
	hook   func(text string)
	log    *journal
}

func (n *fakeNotifier) Send(ctx context.Context, text string) error {
	if n.hook != nil {
		n.hook(text)
	}
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.noDest {
		return interfaces.ErrNoDestinations
	}
	if n.failOn[text] {
		return errors.New("webhook unavailable")
	}
	n.sent = append(n.sent, text)
	if n.log != nil {
		n.log.add("notify %s", text)
	}
	return nil
}

func (n *fakeNotifier) texts() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]string(nil), n.sent...)
}

type fakeLocker struct {
	mu         sync.Mutex
	held       bool
	deny       bool
	err        error
	acquires   int
	releases   int
	lastOwner  string
	lastJob    string
	releaseErr error
}

func (l *fakeLocker) TryAcquire(ctx context.Context, jobName, owner string, ttl time.Duration) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.acquires++
	if l.err != nil {
		return false, l.err
	}
	if l.deny || l.held {
		return false, nil
	}
	l.held = true
	l.lastOwner, l.lastJob = owner, jobName
	return true, nil
}

func (l *fakeLocker) Release(ctx context.Context, jobName, owner string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.releases++
	l.releaseErr = ctx.Err()
	if owner == l.lastOwner {
		l.held = false
	}
	return nil
}
