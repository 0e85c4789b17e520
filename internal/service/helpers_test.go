package service

import (
	"encoding/json"
	"time"

	"MatchAnnounce/internal/model"

	"gorm.io/datatypes"
)

var t0 = time.Date(2018, 6, 17, 15, 0, 0, 0, time.UTC)

func strPtr(s string) *string { return &s }

func teamJSON(country, code string, goals int) datatypes.JSON {
	raw, _ := json.Marshal(map[string]interface{}{"country": country, "code": code, "goals": goals})
	return raw
}

func eventsJSON(events ...model.TeamEvent) datatypes.JSON {
	if len(events) == 0 {
		return datatypes.JSON("[]")
	}
	raw, _ := json.Marshal(events)
	return raw
}

func ev(typ, player, minute string) model.TeamEvent {
	return model.TeamEvent{TypeOfEvent: typ, Player: player, Time: minute}
}

// feedRow 巴西 vs 德国
type feedRow struct {
	status     string
	clock      string
	homeGoals  int
	awayGoals  int
	homeEvents []model.TeamEvent
	awayEvents []model.TeamEvent
}

func (r feedRow) build() *model.FeedMatch {
	m := &model.FeedMatch{
		Venue:           "Rostov-on-Don",
		Location:        "Rostov Arena",
		Status:          r.status,
		FifaID:          "300331503",
		StageName:       "First stage",
		Datetime:        "2018-06-17T18:00:00Z",
		HomeTeamCountry: strPtr("Brazil"),
		AwayTeamCountry: strPtr("Germany"),
		HomeTeam:        teamJSON("Brazil", "BRA", r.homeGoals),
		AwayTeam:        teamJSON("Germany", "GER", r.awayGoals),
		HomeTeamEvents:  eventsJSON(r.homeEvents...),
		AwayTeamEvents:  eventsJSON(r.awayEvents...),
	}
	if r.clock != "" {
		m.Time = strPtr(r.clock)
	}
	return m
}

// snapshotOf 模拟库中已合并过该行的快照
func snapshotOf(r feedRow) *model.Match {
	base := &model.Match{ID: 7, FifaID: "300331503", CreatedAt: t0.Add(-24 * time.Hour)}
	return mergeSnapshot(base, r.build(), t0.Add(-time.Minute))
}
