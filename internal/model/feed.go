package model

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
	"gorm.io/datatypes"
)

// ErrMalformedRow 数据源行缺少必需结构（状态、球队信息等）
var ErrMalformedRow = errors.New("malformed match row")

var feedValidate *validator.Validate

func init() {
	feedValidate = validator.New()
}

// FeedMatch 数据源返回的单场比赛（GET matches/today 的数组元素）
type FeedMatch struct {
	Venue              string         `json:"venue"`
	Location           string         `json:"location"`
	Status             string         `json:"status" validate:"required"`
	Time               *string        `json:"time"`
	FifaID             string         `json:"fifa_id" validate:"required"`
	Weather            datatypes.JSON `json:"weather"`
	Attendance         *string        `json:"attendance"`
	Officials          datatypes.JSON `json:"officials"`
	StageName          string         `json:"stage_name"`
	HomeTeamCountry    *string        `json:"home_team_country"`
	AwayTeamCountry    *string        `json:"away_team_country"`
	Datetime           string         `json:"datetime"`
	Winner             *string        `json:"winner"`
	WinnerCode         *string        `json:"winner_code"`
	HomeTeam           datatypes.JSON `json:"home_team" validate:"required"`
	AwayTeam           datatypes.JSON `json:"away_team" validate:"required"`
	HomeTeamEvents     datatypes.JSON `json:"home_team_events"`
	AwayTeamEvents     datatypes.JSON `json:"away_team_events"`
	HomeTeamStatistics datatypes.JSON `json:"home_team_statistics"`
	AwayTeamStatistics datatypes.JSON `json:"away_team_statistics"`
	LastEventUpdateAt  *string        `json:"last_event_update_at"`
	LastScoreUpdateAt  *string        `json:"last_score_update_at"`
}

// TeamScore 球队信息中参与比较的部分，其余字段保留在原始 JSON 中
type TeamScore struct {
	Country string `json:"country" validate:"required"`
	Code    string `json:"code"`
	Goals   int    `json:"goals"`
}

// TeamEvent 时间线事件（进球、红黄牌、换人等）
// 只解析比较用到的字段；id 等其他字段类型不固定，原样保留在 JSON 中
type TeamEvent struct {
	TypeOfEvent string `json:"type_of_event"`
	Player      string `json:"player"`
	Time        string `json:"time"`
}

// Validate 校验数据源行的必需字段，失败时返回包装了 ErrMalformedRow 的错误
func (f *FeedMatch) Validate() error {
	if err := feedValidate.Struct(f); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedRow, err)
	}
	sides := []struct {
		name string
		raw  datatypes.JSON
	}{{"home_team", f.HomeTeam}, {"away_team", f.AwayTeam}}
	for _, side := range sides {
		team, err := DecodeTeam(side.raw)
		if err != nil {
			return fmt.Errorf("%w: %s: %v", ErrMalformedRow, side.name, err)
		}
		if err := feedValidate.Struct(team); err != nil {
			return fmt.Errorf("%w: %s: %v", ErrMalformedRow, side.name, err)
		}
	}
	return nil
}

// DecodeTeam 解析球队 JSON；null 视为错误
func DecodeTeam(raw datatypes.JSON) (*TeamScore, error) {
	if isNullJSON(raw) {
		return nil, errors.New("team block is empty")
	}
	var team TeamScore
	if err := json.Unmarshal(raw, &team); err != nil {
		return nil, fmt.Errorf("解析球队信息失败: %w", err)
	}
	return &team, nil
}

// DecodeEvents 解析事件数组；null 或缺失视为空列表
func DecodeEvents(raw datatypes.JSON) ([]TeamEvent, error) {
	if isNullJSON(raw) {
		return nil, nil
	}
	var events []TeamEvent
	if err := json.Unmarshal(raw, &events); err != nil {
		return nil, fmt.Errorf("解析事件列表失败: %w", err)
	}
	return events, nil
}

func isNullJSON(raw datatypes.JSON) bool {
	return len(raw) == 0 || string(raw) == "null"
}

// NullableJSON 把缺失或 JSON null 统一成 SQL NULL
func NullableJSON(raw datatypes.JSON) datatypes.JSON {
	if isNullJSON(raw) {
		return nil
	}
	return raw
}
