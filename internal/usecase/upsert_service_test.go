package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/riskibarqy/sportsfeed/internal/domain/batch"
	"github.com/riskibarqy/sportsfeed/internal/domain/fixture"
	"github.com/riskibarqy/sportsfeed/internal/domain/match"
	"github.com/riskibarqy/sportsfeed/internal/domain/matchdetail"
	"github.com/riskibarqy/sportsfeed/internal/domain/rawdata"
	"github.com/riskibarqy/sportsfeed/internal/infrastructure/repository/memory"
	fixturemock "github.com/riskibarqy/sportsfeed/internal/mocks/domain/fixture"
	"github.com/riskibarqy/sportsfeed/internal/platform/logging"
	"github.com/riskibarqy/sportsfeed/internal/record"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type upsertFixture struct {
	service  *UpsertService
	fixtures *memory.FixtureRepository
	matches  *memory.MatchRepository
	scores   *memory.ScoreRepository
	details  *memory.MatchDetailRepository
	raw      *memory.RawDataRepository
}

func newUpsertFixture() upsertFixture {
	f := upsertFixture{
		fixtures: memory.NewFixtureRepository(),
		matches:  memory.NewMatchRepository(),
		scores:   memory.NewScoreRepository(),
		details:  memory.NewMatchDetailRepository(),
		raw:      memory.NewRawDataRepository(),
	}
	f.service = NewUpsertService(f.fixtures, f.matches, f.scores, f.details, f.raw, nil, UpsertConfig{BatchSize: 2, Workers: 2}, logging.NewNop())
	return f
}

func TestUpsertService_UpsertMatch_TwiceLeavesOneRow(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	f := newUpsertFixture()
	start := time.Date(2026, 7, 5, 9, 30, 0, 0, time.UTC)
	input := MatchInput{SportID: 1, ExternalMatchID: "99812", HomeTeam: "India", AwayTeam: "Australia", Status: match.StatusScheduled, StartTime: &start}

	first, created, err := f.service.UpsertMatch(ctx, input, nil)
	require.NoError(t, err)
	assert.True(t, created)

	input.Status = match.StatusLive
	second, created, err := f.service.UpsertMatch(ctx, input, nil)
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, match.StatusLive, second.Status)
	assert.Len(t, f.matches.All(), 1)
}

func TestUpsertService_UpsertMatch_FallbackUpdatesInPlace(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	f := newUpsertFixture()
	kickoff := time.Date(2026, 7, 5, 9, 30, 0, 0, time.UTC)
	shifted := kickoff.Add(3 * time.Hour)

	scraped, _, err := f.service.UpsertMatch(ctx, MatchInput{SportID: 2, HomeTeam: "India", AwayTeam: "Australia", StartTime: &kickoff}, nil)
	require.NoError(t, err)

	live, created, err := f.service.UpsertMatch(ctx, MatchInput{SportID: 2, ExternalMatchID: "g-1", HomeTeam: "India", AwayTeam: "Australia", Status: match.StatusLive, StartTime: &shifted}, nil)
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, scraped.ID, live.ID)
	assert.Equal(t, "g-1", live.ExternalMatchID)
	assert.Len(t, f.matches.All(), 1)
}

func TestUpsertService_UpsertMatch_OutsideWindowCreatesSecond(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	f := newUpsertFixture()
	kickoff := time.Date(2026, 7, 5, 9, 30, 0, 0, time.UTC)
	later := kickoff.Add(8 * time.Hour)

	_, _, err := f.service.UpsertMatch(ctx, MatchInput{SportID: 2, ExternalMatchID: "a", HomeTeam: "India", AwayTeam: "Australia", StartTime: &kickoff}, nil)
	require.NoError(t, err)
	_, created, err := f.service.UpsertMatch(ctx, MatchInput{SportID: 2, ExternalMatchID: "b", HomeTeam: "India", AwayTeam: "Australia", StartTime: &later}, nil)
	require.NoError(t, err)
	assert.True(t, created)
	assert.Len(t, f.matches.All(), 2)
}

func TestUpsertService_UpsertMatch_RejectsInvalid(t *testing.T) {
	t.Parallel()

	f := newUpsertFixture()
	_, _, err := f.service.UpsertMatch(context.Background(), MatchInput{SportID: 1, HomeTeam: "India"}, nil)
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestUpsertService_UpsertMatches_BatchIsIdempotent(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	f := newUpsertFixture()
	fixtureRef := int64(7)
	kickoff := time.Date(2026, 7, 5, 9, 30, 0, 0, time.UTC)
	inputs := []MatchInput{
		{SportID: 1, ExternalMatchID: "1", HomeTeam: "A", AwayTeam: "B"},
		{SportID: 1, ExternalMatchID: "2", HomeTeam: "C", AwayTeam: "D"},
		{SportID: 1, ExternalMatchID: "3", HomeTeam: "E", AwayTeam: "F"},
		{SportID: 1, HomeTeam: "G", AwayTeam: "H", StartTime: &kickoff},
		{SportID: 1, ExternalMatchID: "5", HomeTeam: "missing away"},
	}

	first, err := f.service.UpsertMatches(ctx, inputs, &fixtureRef)
	require.NoError(t, err)
	assert.Equal(t, 4, first.Written)
	assert.Equal(t, 1, first.Failed)

	second, err := f.service.UpsertMatches(ctx, inputs, &fixtureRef)
	require.NoError(t, err)
	assert.Equal(t, 4, second.Written)
	assert.Len(t, f.matches.All(), 4)

	for _, item := range f.matches.All() {
		require.NotNil(t, item.FixtureID)
		assert.Equal(t, fixtureRef, *item.FixtureID)
	}
}

func TestUpsertService_UpsertFixtures_ChunkFailureFallsBackPerRow(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	fixtureRepo := fixturemock.NewRepository(t)
	service := NewUpsertService(fixtureRepo, memory.NewMatchRepository(), memory.NewScoreRepository(), memory.NewMatchDetailRepository(), nil, nil, UpsertConfig{BatchSize: 10, Workers: 1}, logging.NewNop())

	fixtureRepo.On("UpsertMany", mock.Anything, mock.Anything).Return(batch.Result{}, errors.New("deadlock detected")).Once()
	fixtureRepo.On("Upsert", mock.Anything, mock.MatchedBy(func(item fixture.Fixture) bool { return item.ExternalID == "good" })).
		Return(fixture.Fixture{ID: 1}, true, nil).
		Once()
	fixtureRepo.On("Upsert", mock.Anything, mock.MatchedBy(func(item fixture.Fixture) bool { return item.ExternalID == "bad" })).
		Return(fixture.Fixture{}, false, errors.New("value too long")).
		Once()

	result, err := service.UpsertFixtures(ctx, []FixtureInput{
		{SportID: 2, ExternalID: "good", Name: "Good League"},
		{SportID: 2, ExternalID: "bad", Name: "Bad League"},
		{SportID: 2, ExternalID: "", Name: "Skipped"},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, result.Written)
	assert.Equal(t, 2, result.Failed)
	require.Len(t, result.Errors, 2)
	assert.ErrorIs(t, result.Errors[0], ErrInvalidInput)
	assert.ErrorIs(t, result.Errors[1], ErrPersistence)
}

func TestUpsertService_UpsertFixtures_DedupesByKey(t *testing.T) {
	t.Parallel()

	f := newUpsertFixture()
	inputs := []FixtureInput{
		{SportID: 2, ExternalID: "7607", Name: "IPL"},
		{SportID: 2, ExternalID: "7607", Name: "IPL"},
		{SportID: 2, ExternalID: "7700", Name: "Asia Cup"},
	}
	_, err := f.service.UpsertFixtures(context.Background(), inputs)
	require.NoError(t, err)
	_, err = f.service.UpsertFixtures(context.Background(), inputs)
	require.NoError(t, err)
	assert.Equal(t, 2, f.fixtures.Count())
}

func TestUpsertService_UpsertScore_FullReplace(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	f := newUpsertFixture()

	_, created, err := f.service.UpsertScore(ctx, 11, map[string]any{"match_status": "live", "home_score": 1, "events": []any{"goal"}}, nil)
	require.NoError(t, err)
	assert.True(t, created)

	_, created, err = f.service.UpsertScore(ctx, 11, map[string]any{"match_status": "finished", "home_score": 2}, nil)
	require.NoError(t, err)
	assert.False(t, created)

	stored, ok, err := f.scores.GetByMatchID(ctx, 11)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "finished", stored.ScoreData["match_status"])
	assert.NotContains(t, stored.ScoreData, "events")
}

func TestUpsertService_UpsertScore_Validation(t *testing.T) {
	t.Parallel()

	f := newUpsertFixture()
	_, _, err := f.service.UpsertScore(context.Background(), 0, map[string]any{"match_status": "live"}, nil)
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, _, err = f.service.UpsertScore(context.Background(), 1, map[string]any{"home_score": 1}, nil)
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestUpsertService_UpsertSquads(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	f := newUpsertFixture()
	stored, _, err := f.matches.Upsert(ctx, match.Match{SportID: 2, ExternalMatchID: "99812", HomeTeam: "India", AwayTeam: "Australia"})
	require.NoError(t, err)

	squads := []matchdetail.Squad{{Team: "India", Players: []matchdetail.Player{{Name: "Virat Kohli", Role: "Batter"}}}}
	detail, err := f.service.UpsertSquads(ctx, "99812", squads)
	require.NoError(t, err)
	assert.Equal(t, stored.ID, detail.MatchID)
	assert.Equal(t, 1, f.details.Count())

	_, err = f.service.UpsertSquads(ctx, "404", squads)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestUpsertService_UpsertScorecard_UsesMatchStatus(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	f := newUpsertFixture()
	stored, _, err := f.matches.Upsert(ctx, match.Match{SportID: 2, ExternalMatchID: "99812", HomeTeam: "India", AwayTeam: "Australia", Status: match.StatusFinished})
	require.NoError(t, err)

	card := record.Scorecard{
		Result:  "India won by 6 wkts",
		Innings: []record.ScorecardInnings{{Team: "Australia", Score: "187-7 (20 Ov)"}},
	}
	saved, err := f.service.UpsertScorecard(ctx, 2, "99812", card, "cricbuzz")
	require.NoError(t, err)
	assert.Equal(t, stored.ID, saved.MatchID)
	assert.Equal(t, "finished", saved.ScoreData["match_status"])
	assert.Equal(t, "India won by 6 wkts", saved.ScoreData["result"])
	assert.Equal(t, "cricbuzz", saved.Metadata["source"])

	_, err = f.service.UpsertScorecard(ctx, 1, "99812", card, "cricbuzz")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestUpsertService_ArchiveRawFillsHash(t *testing.T) {
	t.Parallel()

	f := newUpsertFixture()
	err := f.service.ArchiveRaw(context.Background(), []rawdata.Payload{{
		Source:     "cricbuzz",
		EntityType: "series_list",
		EntityKey:  "all",
		Payload:    "<html></html>",
	}})
	require.NoError(t, err)

	stored, ok := f.raw.Get("cricbuzz", "series_list", "all")
	require.True(t, ok)
	assert.Equal(t, rawdata.Hash("<html></html>"), stored.PayloadHash)
	assert.False(t, stored.FetchedAt.IsZero())
}
