package service

import (
	"fmt"
	"time"

	"MatchAnnounce/internal/model"
)

// 通知类型，用于日志与指标
const (
	KindKickoff  = "kickoff"
	KindFullTime = "fulltime"
	KindScore    = "score"
	KindEvent    = "event"
)

// Notification 一条待发送的通知
type Notification struct {
	Kind string
	Text string
}

// Decision 一场比赛一次比较的结果：按顺序发送的通知 + 要写回的快照
type Decision struct {
	Notifications []Notification
	Merged        *model.Match
}

// Texts 只取通知文本
func (d *Decision) Texts() []string {
	texts := make([]string, 0, len(d.Notifications))
	for _, n := range d.Notifications {
		texts = append(texts, n.Text)
	}
	return texts
}

// DiffOptions 比较策略
type DiffOptions struct {
	// NotifyEveryEvent 为 true 时每条新增事件各发一条；默认只发每侧最后一条
	NotifyEveryEvent bool
}

// DiffEngine 比较库中快照与数据源新数据，纯函数，无 IO
type DiffEngine struct {
	opts DiffOptions
}

func NewDiffEngine(opts DiffOptions) *DiffEngine {
	return &DiffEngine{opts: opts}
}

// sideState 参与比较的一侧状态
type sideState struct {
	team   *model.TeamScore
	events []model.TeamEvent
}

// matchState 比较基准
type matchState struct {
	home, away sideState
}

// Evaluate 判定状态变化并生成合并快照。判定顺序固定：
// 开赛/完赛（二选一，按库中旧状态判断）→ 比分变化 → 主队事件 → 客队事件。
// 只有数据结构无法解析时才返回错误。
func (e *DiffEngine) Evaluate(prev *model.Match, row *model.FeedMatch, now time.Time) (*Decision, error) {
	incoming, err := stateOf(row.HomeTeam, row.AwayTeam, row.HomeTeamEvents, row.AwayTeamEvents)
	if err != nil {
		return nil, fmt.Errorf("解析数据源比赛失败: %w", err)
	}
	home, away := incoming.home.team, incoming.away.team

	var notes []Notification
	kickoff := prev.Status == model.StatusScheduled && row.Status == model.StatusLive
	fullTime := !kickoff && prev.Status == model.StatusLive && row.Status == model.StatusCompleted
	if kickoff {
		notes = append(notes, Notification{
			Kind: KindKickoff,
			Text: fmt.Sprintf("MATCH STARTED | %s - %s", home.Country, away.Country),
		})
	} else if fullTime {
		notes = append(notes, Notification{
			Kind: KindFullTime,
			Text: fmt.Sprintf("MATCH ENDED | %s %d - %d %s", home.Country, home.Goals, away.Goals, away.Country),
		})
	}

	if row.Status == model.StatusLive {
		// 刚开赛的这一轮以新数据本身为基准，避免开赛同一轮误报比分/事件
		baseline := incoming
		if !kickoff {
			baseline, err = stateOf(prev.HomeTeam, prev.AwayTeam, prev.HomeTeamEvents, prev.AwayTeamEvents)
			if err != nil {
				return nil, fmt.Errorf("解析库中快照失败: %w", err)
			}
		}

		if home.Goals != baseline.home.team.Goals || away.Goals != baseline.away.team.Goals {
			notes = append(notes, Notification{
				Kind: KindScore,
				Text: fmt.Sprintf("%s | %s %d - %d %s", deref(row.Time), home.Country, home.Goals, away.Goals, away.Country),
			})
		}
		notes = append(notes, e.eventNotes(incoming.home, baseline.home)...)
		notes = append(notes, e.eventNotes(incoming.away, baseline.away)...)
	}

	return &Decision{Notifications: notes, Merged: mergeSnapshot(prev, row, now)}, nil
}

// eventNotes 比较一侧事件数量，只看长度，不按事件ID比对
func (e *DiffEngine) eventNotes(incoming, baseline sideState) []Notification {
	if len(incoming.events) <= len(baseline.events) {
		return nil
	}
	fresh := incoming.events[len(incoming.events)-1:]
	if e.opts.NotifyEveryEvent {
		fresh = incoming.events[len(baseline.events):]
	}
	notes := make([]Notification, 0, len(fresh))
	for _, ev := range fresh {
		notes = append(notes, Notification{
			Kind: KindEvent,
			Text: fmt.Sprintf("%s | %s | %s - %s", incoming.team.Country, ev.Time, ev.TypeOfEvent, ev.Player),
		})
	}
	return notes
}

func stateOf(homeTeam, awayTeam, homeEvents, awayEvents []byte) (matchState, error) {
	var st matchState
	var err error
	if st.home.team, err = model.DecodeTeam(homeTeam); err != nil {
		return st, fmt.Errorf("home_team: %w", err)
	}
	if st.away.team, err = model.DecodeTeam(awayTeam); err != nil {
		return st, fmt.Errorf("away_team: %w", err)
	}
	if st.home.events, err = model.DecodeEvents(homeEvents); err != nil {
		return st, fmt.Errorf("home_team_events: %w", err)
	}
	if st.away.events, err = model.DecodeEvents(awayEvents); err != nil {
		return st, fmt.Errorf("away_team_events: %w", err)
	}
	return st, nil
}

// mergeSnapshot 用新数据整体替换快照字段；缺失字段写空，不保留旧值
// 只沿用主键、fifa_id 与创建时间
func mergeSnapshot(prev *model.Match, row *model.FeedMatch, now time.Time) *model.Match {
	return &model.Match{
		ID:                 prev.ID,
		FifaID:             row.FifaID,
		Venue:              row.Venue,
		Location:           row.Location,
		Datetime:           row.Datetime,
		Status:             row.Status,
		Time:               row.Time,
		StageName:          row.StageName,
		Weather:            model.NullableJSON(row.Weather),
		Attendance:         row.Attendance,
		Officials:          model.NullableJSON(row.Officials),
		HomeTeam:           model.NullableJSON(row.HomeTeam),
		AwayTeam:           model.NullableJSON(row.AwayTeam),
		HomeTeamEvents:     model.NullableJSON(row.HomeTeamEvents),
		AwayTeamEvents:     model.NullableJSON(row.AwayTeamEvents),
		HomeTeamStatistics: model.NullableJSON(row.HomeTeamStatistics),
		AwayTeamStatistics: model.NullableJSON(row.AwayTeamStatistics),
		HomeTeamCountry:    row.HomeTeamCountry,
		AwayTeamCountry:    row.AwayTeamCountry,
		Winner:             row.Winner,
		WinnerCode:         row.WinnerCode,
		LastEventUpdateAt:  row.LastEventUpdateAt,
		LastScoreUpdateAt:  row.LastScoreUpdateAt,
		CreatedAt:          prev.CreatedAt,
		UpdatedAt:          now,
	}
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
