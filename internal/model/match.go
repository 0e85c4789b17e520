package model

import (
	"time"

	"gorm.io/datatypes"
)

// 赛事状态（数据源原始取值）
const (
	StatusScheduled = "future"      // 未开赛
	StatusLive      = "in progress" // 进行中
	StatusCompleted = "completed"   // 已结束
)

// Match 对应 matches 表，保存单场比赛最近一次合并后的快照
// 球队、事件、统计等嵌套结构原样以 jsonb 存储，不做解释
type Match struct {
	ID                 uint64         `json:"id" gorm:"column:id;primaryKey;autoIncrement;comment:自增主键ID"`
	FifaID             string         `json:"fifa_id" gorm:"column:fifa_id;type:varchar(64);uniqueIndex;not null;comment:数据源比赛ID"`
	Venue              string         `json:"venue" gorm:"column:venue;type:varchar(128);comment:场馆"`
	Location           string         `json:"location" gorm:"column:location;type:varchar(128);comment:城市"`
	Datetime           string         `json:"datetime" gorm:"column:datetime;type:varchar(64);comment:开赛时间（原始字符串）"`
	Status             string         `json:"status" gorm:"column:status;type:varchar(32);not null;comment:状态：future/in progress/completed"`
	Time               *string        `json:"time" gorm:"column:time;type:varchar(32);comment:比赛进行时间"`
	StageName          string         `json:"stage_name" gorm:"column:stage_name;type:varchar(64);comment:阶段名称"`
	Weather            datatypes.JSON `json:"weather" gorm:"column:weather;type:jsonb;comment:天气"`
	Attendance         *string        `json:"attendance" gorm:"column:attendance;type:varchar(32);comment:观众人数"`
	Officials          datatypes.JSON `json:"officials" gorm:"column:officials;type:jsonb;comment:裁判组"`
	HomeTeam           datatypes.JSON `json:"home_team" gorm:"column:home_team;type:jsonb;not null;comment:主队信息"`
	AwayTeam           datatypes.JSON `json:"away_team" gorm:"column:away_team;type:jsonb;not null;comment:客队信息"`
	HomeTeamEvents     datatypes.JSON `json:"home_team_events" gorm:"column:home_team_events;type:jsonb;comment:主队事件"`
	AwayTeamEvents     datatypes.JSON `json:"away_team_events" gorm:"column:away_team_events;type:jsonb;comment:客队事件"`
	HomeTeamStatistics datatypes.JSON `json:"home_team_statistics" gorm:"column:home_team_statistics;type:jsonb;comment:主队统计"`
	AwayTeamStatistics datatypes.JSON `json:"away_team_statistics" gorm:"column:away_team_statistics;type:jsonb;comment:客队统计"`
	HomeTeamCountry    *string        `json:"home_team_country" gorm:"column:home_team_country;type:varchar(64);comment:主队国家"`
	AwayTeamCountry    *string        `json:"away_team_country" gorm:"column:away_team_country;type:varchar(64);comment:客队国家"`
	Winner             *string        `json:"winner" gorm:"column:winner;type:varchar(64);comment:胜者"`
	WinnerCode         *string        `json:"winner_code" gorm:"column:winner_code;type:varchar(16);comment:胜者代码"`
	LastEventUpdateAt  *string        `json:"last_event_update_at" gorm:"column:last_event_update_at;type:varchar(64);comment:数据源最后事件更新时间"`
	LastScoreUpdateAt  *string        `json:"last_score_update_at" gorm:"column:last_score_update_at;type:varchar(64);comment:数据源最后比分更新时间"`
	CreatedAt          time.Time      `json:"created_at" gorm:"column:created_at;autoCreateTime;comment:创建时间"`
	UpdatedAt          time.Time      `json:"updated_at" gorm:"column:updated_at;autoUpdateTime:false;comment:最后合并时间"`
}

func (Match) TableName() string { return "matches" }

// SnapshotAssignments 每次合并都要整体覆盖的列（空值同样写入，避免残留旧数据）
func (m *Match) SnapshotAssignments() map[string]interface{} {
	return map[string]interface{}{
		"venue":                m.Venue,
		"location":             m.Location,
		"datetime":             m.Datetime,
		"status":               m.Status,
		"time":                 m.Time,
		"stage_name":           m.StageName,
		"weather":              m.Weather,
		"attendance":           m.Attendance,
		"officials":            m.Officials,
		"home_team":            m.HomeTeam,
		"away_team":            m.AwayTeam,
		"home_team_events":     m.HomeTeamEvents,
		"away_team_events":     m.AwayTeamEvents,
		"home_team_statistics": m.HomeTeamStatistics,
		"away_team_statistics": m.AwayTeamStatistics,
		"home_team_country":    m.HomeTeamCountry,
		"away_team_country":    m.AwayTeamCountry,
		"winner":               m.Winner,
		"winner_code":          m.WinnerCode,
		"last_event_update_at": m.LastEventUpdateAt,
		"last_score_update_at": m.LastScoreUpdateAt,
		"updated_at":           m.UpdatedAt,
	}
}

// JobLock 对应 job_locks 表，定时任务的分布式租约锁
// 过期时间到了即可被其他实例抢占，持有者崩溃时不会永久卡死
type JobLock struct {
	JobName   string    `gorm:"column:job_name;type:varchar(64);primaryKey;comment:任务名"`
	Owner     string    `gorm:"column:owner;type:varchar(64);not null;comment:持有者"`
	ExpiresAt time.Time `gorm:"column:expires_at;not null;comment:租约到期时间"`
}

func (JobLock) TableName() string { return "job_locks" }
