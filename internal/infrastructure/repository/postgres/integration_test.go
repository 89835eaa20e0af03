package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/golang-migrate/migrate/v4"
	migratepg "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/riskibarqy/sportsfeed/internal/domain/fixture"
	"github.com/riskibarqy/sportsfeed/internal/domain/jobscheduler"
	"github.com/riskibarqy/sportsfeed/internal/domain/match"
	"github.com/riskibarqy/sportsfeed/internal/domain/matchdetail"
	"github.com/riskibarqy/sportsfeed/internal/domain/rawdata"
	"github.com/riskibarqy/sportsfeed/internal/domain/score"
	"github.com/riskibarqy/sportsfeed/internal/domain/sport"
)

func setupTestDB(ctx context.Context, t *testing.T) *sqlx.DB {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping postgres integration test in short mode")
	}
	testcontainers.SkipIfProviderIsNotHealthy(t)

	container, err := tcpostgres.Run(ctx,
		"postgres:16-alpine",
		tcpostgres.WithDatabase("sportsfeed_test"),
		tcpostgres.WithUsername("test"),
		tcpostgres.WithPassword("test"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(120*time.Second),
		),
	)
	require.NoError(t, err, "start postgres container")
	t.Cleanup(func() {
		_ = testcontainers.TerminateContainer(container)
	})

	connStr, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	db, err := sqlx.Open("postgres", connStr)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	driver, err := migratepg.WithInstance(db.DB, &migratepg.Config{})
	require.NoError(t, err)
	m, err := migrate.NewWithDatabaseInstance("file://../../../../db/migrations", "postgres", driver)
	require.NoError(t, err)
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		t.Fatalf("run migrations: %v", err)
	}

	return db
}

func TestRepositories_Postgres(t *testing.T) {
	ctx := context.Background()
	db := setupTestDB(ctx, t)

	sports := NewSportRepository(db)
	fixtures := NewFixtureRepository(db)
	matches := NewMatchRepository(db)
	scores := NewScoreRepository(db)
	details := NewMatchDetailRepository(db)
	raw := NewRawDataRepository(db)
	dispatches := NewJobDispatchRepository(db)

	cricket, err := sports.Upsert(ctx, sport.Sport{Slug: "cricket", Name: "Cricket", Kind: sport.KindCricket, LiveFormat: sport.FormatJSON, LiveEnabled: true})
	require.NoError(t, err)
	require.NotZero(t, cricket.ID)

	t.Run("fixture upsert refreshes fields", func(t *testing.T) {
		first, created, err := fixtures.Upsert(ctx, fixture.Fixture{SportID: cricket.ID, ExternalID: "9237", Name: "IPL 2026", Season: "2026/2027"})
		require.NoError(t, err)
		assert.True(t, created)

		second, created, err := fixtures.Upsert(ctx, fixture.Fixture{SportID: cricket.ID, ExternalID: "9237", Name: "Indian Premier League 2026", Country: "India"})
		require.NoError(t, err)
		assert.False(t, created)
		assert.Equal(t, first.ID, second.ID)
		assert.Equal(t, "Indian Premier League 2026", second.Name)
		assert.Equal(t, "India", second.Country)

		result, err := fixtures.UpsertMany(ctx, []fixture.Fixture{
			{SportID: cricket.ID, ExternalID: "9240", Name: "England tour of India"},
			{SportID: cricket.ID, ExternalID: "9240", Name: "England tour of India, 2026"},
			{SportID: cricket.ID, ExternalID: "9237", Name: "IPL"},
		})
		require.NoError(t, err)
		assert.Equal(t, 2, result.Written)

		got, ok, err := fixtures.FindByExternalID(ctx, cricket.ID, "9240")
		require.NoError(t, err)
		require.True(t, ok)
		assert.Equal(t, "England tour of India, 2026", got.Name)
	})

	t.Run("match upsert is idempotent on external id", func(t *testing.T) {
		start := time.Date(2026, 7, 5, 9, 30, 0, 0, time.UTC)
		item := match.Match{
			SportID:         cricket.ID,
			ExternalMatchID: "99812",
			HomeTeam:        "India",
			AwayTeam:        "Australia",
			Status:          match.StatusScheduled,
			StartTime:       &start,
			League:          "Australia tour of India",
			Metadata:        map[string]any{"venue": "Wankhede Stadium", "url": "/live/99812"},
		}

		first, created, err := matches.Upsert(ctx, item)
		require.NoError(t, err)
		assert.True(t, created)

		item.Status = match.StatusLive
		item.StartTime = nil
		item.League = ""
		item.Metadata = map[string]any{"url": "/live/99812/ind-vs-aus"}
		second, created, err := matches.Upsert(ctx, item)
		require.NoError(t, err)
		assert.False(t, created)
		assert.Equal(t, first.ID, second.ID)
		assert.Equal(t, match.StatusLive, second.Status)
		require.NotNil(t, second.StartTime)
		assert.True(t, second.StartTime.Equal(start))
		assert.Equal(t, "Australia tour of India", second.League)
		assert.Equal(t, "Wankhede Stadium", second.Metadata["venue"])
		assert.Equal(t, "/live/99812/ind-vs-aus", second.Metadata["url"])

		found, err := matches.FindByTeamsWithin(ctx, cricket.ID, "India", "Australia", start.Add(3*time.Hour), 6*time.Hour)
		require.NoError(t, err)
		require.Len(t, found, 1)

		found, err = matches.FindByTeamsWithin(ctx, cricket.ID, "India", "Australia", start.Add(8*time.Hour), 6*time.Hour)
		require.NoError(t, err)
		assert.Empty(t, found)
	})

	t.Run("backfill conflict is reported", func(t *testing.T) {
		orphan, _, err := matches.Upsert(ctx, match.Match{SportID: cricket.ID, HomeTeam: "Nepal", AwayTeam: "Oman", Status: match.StatusScheduled})
		require.NoError(t, err)
		require.NoError(t, matches.BackfillExternalID(ctx, orphan.ID, "77001"))

		other, _, err := matches.Upsert(ctx, match.Match{SportID: cricket.ID, HomeTeam: "Nepal", AwayTeam: "Oman", Status: match.StatusScheduled})
		require.NoError(t, err)
		err = matches.BackfillExternalID(ctx, other.ID, "77001")
		assert.ErrorIs(t, err, match.ErrExternalIDConflict)
	})

	t.Run("score upsert replaces the document", func(t *testing.T) {
		m, ok, err := matches.FindByExternalID(ctx, "99812")
		require.NoError(t, err)
		require.True(t, ok)

		_, created, err := scores.Upsert(ctx, score.Score{MatchID: m.ID, ScoreData: map[string]any{"match_status": "live", "innings": []any{"a"}}})
		require.NoError(t, err)
		assert.True(t, created)

		_, created, err = scores.Upsert(ctx, score.Score{MatchID: m.ID, ScoreData: map[string]any{"match_status": "finished"}})
		require.NoError(t, err)
		assert.False(t, created)

		got, ok, err := scores.GetByMatchID(ctx, m.ID)
		require.NoError(t, err)
		require.True(t, ok)
		assert.Equal(t, "finished", got.MatchStatus())
		assert.NotContains(t, got.ScoreData, "innings")
	})

	t.Run("match detail keeps squads", func(t *testing.T) {
		m, _, err := matches.FindByExternalID(ctx, "99812")
		require.NoError(t, err)

		_, _, err = details.Upsert(ctx, matchdetail.Detail{
			MatchID: m.ID,
			Squads: []matchdetail.Squad{
				{Team: "India", Players: []matchdetail.Player{{Name: "Rohit Sharma", Role: "Batter"}}},
				{Team: "Australia", Players: []matchdetail.Player{{Name: "Pat Cummins", Role: "Bowler"}}},
			},
		})
		require.NoError(t, err)

		got, ok, err := details.GetByMatchID(ctx, m.ID)
		require.NoError(t, err)
		require.True(t, ok)
		require.Len(t, got.Squads, 2)
		assert.Equal(t, "Pat Cummins", got.Squads[1].Players[0].Name)
	})

	t.Run("raw payload archive is idempotent", func(t *testing.T) {
		payload := rawdata.Payload{Source: "cricbuzz", EntityType: "series_list", EntityKey: "schedule", Payload: "<html></html>", PayloadHash: "abc", ContentType: "html"}
		require.NoError(t, raw.UpsertMany(ctx, []rawdata.Payload{payload}))
		require.NoError(t, raw.UpsertMany(ctx, []rawdata.Payload{payload}))

		var count int
		require.NoError(t, db.GetContext(ctx, &count, "SELECT COUNT(*) FROM raw_data_payloads"))
		assert.Equal(t, 1, count)
	})

	t.Run("dispatch audit never reopens a finished unit", func(t *testing.T) {
		base := jobscheduler.DispatchEvent{
			DispatchID:  "dispatch-1",
			JobName:     "live.scores",
			Queue:       "live",
			MaxAttempts: 3,
			Payload:     map[string]any{"sport": "soccer"},
		}
		completed := base
		completed.Status = jobscheduler.StatusCompleted
		require.NoError(t, dispatches.UpsertEvent(ctx, completed))

		queued := base
		queued.Status = jobscheduler.StatusQueued
		require.NoError(t, dispatches.UpsertEvent(ctx, queued))

		var status string
		require.NoError(t, db.GetContext(ctx, &status, "SELECT status FROM job_dispatches WHERE dispatch_id = $1", "dispatch-1"))
		assert.Equal(t, string(jobscheduler.StatusCompleted), status)
	})
}
