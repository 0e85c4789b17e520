package repository

import (
	"context"
	"testing"
	"time"

	"MatchAnnounce/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
)

func strPtr(s string) *string { return &s }

func sampleMatch(fifaID, status, datetime string) *model.Match {
	return &model.Match{
		FifaID:             fifaID,
		Venue:              "Kazan",
		Location:           "Kazan Arena",
		Datetime:           datetime,
		Status:             status,
		StageName:          "First stage",
		HomeTeam:           datatypes.JSON(`{"country":"Brazil","code":"BRA","goals":0}`),
		AwayTeam:           datatypes.JSON(`{"country":"Germany","code":"GER","goals":0}`),
		HomeTeamEvents:     datatypes.JSON(`[]`),
		AwayTeamEvents:     datatypes.JSON(`[]`),
		HomeTeamStatistics: datatypes.JSON(`{"ball_possession":50}`),
		HomeTeamCountry:    strPtr("Brazil"),
		AwayTeamCountry:    strPtr("Germany"),
		UpdatedAt:          time.Date(2018, 6, 17, 12, 0, 0, 0, time.UTC),
	}
}

func TestMatchRepository_SeedAndGet(t *testing.T) {
	repo := NewMatchRepository(newTestDB(t))
	ctx := context.Background()

	_, err := repo.GetByFifaID(ctx, "300331503")
	assert.ErrorIs(t, err, ErrMatchNotFound)

	inserted, err := repo.SeedMatches(ctx, []*model.Match{
		sampleMatch("300331503", model.StatusScheduled, "2018-06-17T18:00:00Z"),
		sampleMatch("300331504", model.StatusScheduled, "2018-06-17T21:00:00Z"),
	})
	require.NoError(t, err)
	assert.EqualValues(t, 2, inserted)

	// 重复初始化只插入新比赛，不覆盖已有快照
	again := sampleMatch("300331503", model.StatusLive, "2018-06-17T18:00:00Z")
	inserted, err = repo.SeedMatches(ctx, []*model.Match{
		again,
		sampleMatch("300331505", model.StatusScheduled, "2018-06-18T15:00:00Z"),
	})
	require.NoError(t, err)
	assert.EqualValues(t, 1, inserted)

	got, err := repo.GetByFifaID(ctx, "300331503")
	require.NoError(t, err)
	assert.Equal(t, model.StatusScheduled, got.Status)
	assert.JSONEq(t, `{"country":"Brazil","code":"BRA","goals":0}`, string(got.HomeTeam))
	assert.NotZero(t, got.ID)

	n, err := repo.SeedMatches(ctx, nil)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestMatchRepository_SaveSnapshotOverwritesEverything(t *testing.T) {
	repo := NewMatchRepository(newTestDB(t))
	ctx := context.Background()
	_, err := repo.SeedMatches(ctx, []*model.Match{sampleMatch("300331503", model.StatusScheduled, "2018-06-17T18:00:00Z")})
	require.NoError(t, err)
	before, err := repo.GetByFifaID(ctx, "300331503")
	require.NoError(t, err)

	mergedAt := time.Date(2018, 6, 17, 18, 55, 0, 0, time.UTC)
	merged := &model.Match{
		ID:             before.ID,
		FifaID:         "300331503",
		Venue:          "Kazan",
		Location:       "Kazan Arena",
		Datetime:       "2018-06-17T18:00:00Z",
		Status:         model.StatusLive,
		Time:           strPtr("55'"),
		StageName:      "First stage",
		HomeTeam:       datatypes.JSON(`{"country":"Brazil","code":"BRA","goals":2}`),
		AwayTeam:       datatypes.JSON(`{"country":"Germany","code":"GER","goals":0}`),
		HomeTeamEvents: datatypes.JSON(`[{"id":1,"type_of_event":"goal","player":"Neymar","time":"12'"}]`),
		AwayTeamEvents: datatypes.JSON(`[]`),
		CreatedAt:      before.CreatedAt,
		UpdatedAt:      mergedAt,
	}
	require.NoError(t, repo.SaveSnapshot(ctx, merged))

	after, err := repo.GetByFifaID(ctx, "300331503")
	require.NoError(t, err)
	assert.Equal(t, before.ID, after.ID)
	assert.Equal(t, model.StatusLive, after.Status)
	require.NotNil(t, after.Time)
	assert.Equal(t, "55'", *after.Time)
	assert.JSONEq(t, string(merged.HomeTeam), string(after.HomeTeam))
	assert.JSONEq(t, string(merged.HomeTeamEvents), string(after.HomeTeamEvents))
	// 新数据中缺失的字段写空
	assert.Empty(t, after.HomeTeamStatistics)
	assert.Nil(t, after.HomeTeamCountry)
	assert.True(t, mergedAt.Equal(after.UpdatedAt), "updated_at = %s", after.UpdatedAt)
	assert.True(t, before.CreatedAt.Equal(after.CreatedAt))
}

func TestMatchRepository_SaveSnapshotUnknownMatch(t *testing.T) {
	repo := NewMatchRepository(newTestDB(t))
	err := repo.SaveSnapshot(context.Background(), sampleMatch("missing", model.StatusLive, ""))
	assert.ErrorIs(t, err, ErrMatchNotFound)
}

func TestMatchRepository_ListMatches(t *testing.T) {
	repo := NewMatchRepository(newTestDB(t))
	ctx := context.Background()
	_, err := repo.SeedMatches(ctx, []*model.Match{
		sampleMatch("3", model.StatusScheduled, "2018-06-19T15:00:00Z"),
		sampleMatch("1", model.StatusLive, "2018-06-17T18:00:00Z"),
		sampleMatch("2", model.StatusScheduled, "2018-06-18T15:00:00Z"),
	})
	require.NoError(t, err)

	list, total, err := repo.ListMatches(ctx, MatchFilter{}, 1, 2)
	require.NoError(t, err)
	assert.EqualValues(t, 3, total)
	require.Len(t, list, 2)
	assert.Equal(t, "1", list[0].FifaID)
	assert.Equal(t, "2", list[1].FifaID)

	list, _, err = repo.ListMatches(ctx, MatchFilter{}, 2, 2)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "3", list[0].FifaID)

	list, total, err = repo.ListMatches(ctx, MatchFilter{Status: model.StatusScheduled}, 0, 0)
	require.NoError(t, err)
	assert.EqualValues(t, 2, total)
	assert.Len(t, list, 2)
}
