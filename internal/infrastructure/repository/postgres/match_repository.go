package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/riskibarqy/sportsfeed/internal/domain/batch"
	"github.com/riskibarqy/sportsfeed/internal/domain/match"
	qb "github.com/riskibarqy/sportsfeed/internal/platform/querybuilder"
)

type matchTableModel struct {
	ID              int64          `db:"id"`
	SportID         int64          `db:"sport_id"`
	FixtureID       sql.NullInt64  `db:"fixture_id"`
	ExternalMatchID sql.NullString `db:"external_match_id"`
	HomeTeam        string         `db:"home_team"`
	AwayTeam        string         `db:"away_team"`
	Status          string         `db:"status"`
	Result          sql.NullString `db:"result"`
	StartTime       sql.NullTime   `db:"start_time"`
	League          sql.NullString `db:"league"`
	Metadata        string         `db:"metadata"`
	CreatedAt       time.Time      `db:"created_at"`
	UpdatedAt       time.Time      `db:"updated_at"`
	Inserted        bool           `db:"inserted"`
}

type matchInsertModel struct {
	SportID         int64      `db:"sport_id"`
	FixtureID       *int64     `db:"fixture_id"`
	ExternalMatchID *string    `db:"external_match_id"`
	HomeTeam        string     `db:"home_team"`
	AwayTeam        string     `db:"away_team"`
	Status          string     `db:"status"`
	Result          *string    `db:"result"`
	StartTime       *time.Time `db:"start_time"`
	League          *string    `db:"league"`
	Metadata        string     `db:"metadata"`
}

var matchColumns = []string{
	"id", "sport_id", "fixture_id", "external_match_id", "home_team", "away_team",
	"status", "result", "start_time", "league", "metadata", "created_at", "updated_at",
}

// Optional values from a sparser source never erase what a richer one wrote:
// empty columns keep the stored value and metadata keys are merged, the new
// value winning per key. No sighting can clear a column.
const matchOnConflict = `ON CONFLICT (external_match_id)
DO UPDATE SET
    sport_id = EXCLUDED.sport_id,
    fixture_id = COALESCE(EXCLUDED.fixture_id, matches.fixture_id),
    home_team = EXCLUDED.home_team,
    away_team = EXCLUDED.away_team,
    status = EXCLUDED.status,
    result = COALESCE(EXCLUDED.result, matches.result),
    start_time = COALESCE(EXCLUDED.start_time, matches.start_time),
    league = COALESCE(EXCLUDED.league, matches.league),
    metadata = matches.metadata || EXCLUDED.metadata,
    updated_at = NOW()`

type MatchRepository struct {
	db *sqlx.DB
}

func NewMatchRepository(db *sqlx.DB) *MatchRepository {
	return &MatchRepository{db: db}
}

func (r *MatchRepository) FindByExternalID(ctx context.Context, externalMatchID string) (match.Match, bool, error) {
	externalMatchID = strings.TrimSpace(externalMatchID)
	if externalMatchID == "" {
		return match.Match{}, false, nil
	}

	query, args, err := qb.Select(matchColumns...).From("matches").
		Where(qb.Eq("external_match_id", externalMatchID)).
		Limit(1).
		ToSQL()
	if err != nil {
		return match.Match{}, false, fmt.Errorf("build select match by external id query: %w", err)
	}

	var row matchTableModel
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		if isNotFound(err) {
			return match.Match{}, false, nil
		}
		return match.Match{}, false, fmt.Errorf("select match external_match_id=%s: %w", externalMatchID, err)
	}
	return matchFromRow(row), true, nil
}

func (r *MatchRepository) FindByTeamsWithin(ctx context.Context, sportID int64, home, away string, at time.Time, window time.Duration) ([]match.Match, error) {
	query, args, err := qb.Select(matchColumns...).From("matches").
		Where(
			qb.Eq("sport_id", sportID),
			qb.Eq("home_team", strings.TrimSpace(home)),
			qb.Eq("away_team", strings.TrimSpace(away)),
			qb.Between("start_time", at.Add(-window), at.Add(window)),
		).
		OrderBy("start_time", "id").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build select matches by teams query: %w", err)
	}

	var rows []matchTableModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("select matches home=%s away=%s: %w", home, away, err)
	}

	out := make([]match.Match, 0, len(rows))
	for _, row := range rows {
		out = append(out, matchFromRow(row))
	}
	return out, nil
}

// Upsert inserts or updates by external_match_id. Items without an external id
// are always inserted.
func (r *MatchRepository) Upsert(ctx context.Context, item match.Match) (match.Match, bool, error) {
	suffix := "RETURNING " + strings.Join(matchColumns, ", ") + ", (xmax = 0) AS inserted"
	if strings.TrimSpace(item.ExternalMatchID) != "" {
		suffix = matchOnConflict + "\n" + suffix
	}

	query, args, err := qb.InsertModel("matches", matchInsertFromDomain(item), suffix)
	if err != nil {
		return match.Match{}, false, fmt.Errorf("build upsert match query: %w", err)
	}

	var row matchTableModel
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		return match.Match{}, false, fmt.Errorf("upsert match external_match_id=%s: %w", item.ExternalMatchID, err)
	}
	return matchFromRow(row), row.Inserted, nil
}

// UpsertMany writes items that carry an external id in one statement.
func (r *MatchRepository) UpsertMany(ctx context.Context, items []match.Match) (batch.Result, error) {
	var result batch.Result
	seen := make(map[string]int, len(items))
	models := make([]matchInsertModel, 0, len(items))
	for _, item := range items {
		key := strings.TrimSpace(item.ExternalMatchID)
		if key == "" {
			result.Fail(fmt.Sprintf("%s vs %s", item.HomeTeam, item.AwayTeam), fmt.Errorf("external match id is required for batch upsert"))
			continue
		}
		if idx, ok := seen[key]; ok {
			models[idx] = matchInsertFromDomain(item)
			continue
		}
		seen[key] = len(models)
		models = append(models, matchInsertFromDomain(item))
	}
	if len(models) == 0 {
		return result, nil
	}

	query, args, err := qb.InsertModels("matches", models, matchOnConflict)
	if err != nil {
		return result, fmt.Errorf("build upsert matches query: %w", err)
	}
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return result, fmt.Errorf("upsert %d matches: %w", len(models), err)
	}
	result.Written = len(models)
	return result, nil
}

func (r *MatchRepository) Update(ctx context.Context, item match.Match) (match.Match, error) {
	builder := qb.Update("matches").
		Set("sport_id", item.SportID).
		Set("home_team", strings.TrimSpace(item.HomeTeam)).
		Set("away_team", strings.TrimSpace(item.AwayTeam)).
		Set("status", string(item.Status)).
		SetExpr("fixture_id", "COALESCE(?::bigint, fixture_id)", item.FixtureID).
		SetExpr("result", "COALESCE(?::text, result)", optionalString(item.Result)).
		SetExpr("start_time", "COALESCE(?::timestamptz, start_time)", item.StartTime).
		SetExpr("league", "COALESCE(?::text, league)", optionalString(item.League)).
		SetExpr("metadata", "metadata || ?::jsonb", encodeJSONMap(item.Metadata)).
		SetExpr("updated_at", "NOW()")
	if id := optionalString(item.ExternalMatchID); id != nil {
		builder.Set("external_match_id", *id)
	}

	query, args, err := builder.
		Where(qb.Eq("id", item.ID)).
		Returning(matchColumns...).
		ToSQL()
	if err != nil {
		return match.Match{}, fmt.Errorf("build update match query: %w", err)
	}

	var row matchTableModel
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		if isUniqueViolation(err) {
			return match.Match{}, fmt.Errorf("update match id=%d: %w", item.ID, match.ErrExternalIDConflict)
		}
		return match.Match{}, fmt.Errorf("update match id=%d: %w", item.ID, err)
	}
	return matchFromRow(row), nil
}

func (r *MatchRepository) BackfillExternalID(ctx context.Context, id int64, externalMatchID string) error {
	query, args, err := qb.Update("matches").
		Set("external_match_id", strings.TrimSpace(externalMatchID)).
		SetExpr("updated_at", "NOW()").
		Where(qb.Eq("id", id)).
		ToSQL()
	if err != nil {
		return fmt.Errorf("build backfill external match id query: %w", err)
	}

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("backfill match id=%d external_match_id=%s: %w", id, externalMatchID, match.ErrExternalIDConflict)
		}
		return fmt.Errorf("backfill match id=%d external_match_id=%s: %w", id, externalMatchID, err)
	}
	return nil
}

func (r *MatchRepository) UpdateLiveState(ctx context.Context, id int64, status match.Status, metadata map[string]any) error {
	query, args, err := qb.Update("matches").
		Set("status", string(status)).
		SetExpr("metadata", "metadata || ?::jsonb", encodeJSONMap(metadata)).
		SetExpr("updated_at", "NOW()").
		Where(qb.Eq("id", id)).
		ToSQL()
	if err != nil {
		return fmt.Errorf("build update match live state query: %w", err)
	}

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("update match live state id=%d: %w", id, err)
	}
	return nil
}

func matchInsertFromDomain(item match.Match) matchInsertModel {
	status := item.Status
	if status == "" {
		status = match.StatusUnknown
	}
	return matchInsertModel{
		SportID:         item.SportID,
		FixtureID:       item.FixtureID,
		ExternalMatchID: optionalString(item.ExternalMatchID),
		HomeTeam:        strings.TrimSpace(item.HomeTeam),
		AwayTeam:        strings.TrimSpace(item.AwayTeam),
		Status:          string(status),
		Result:          optionalString(item.Result),
		StartTime:       item.StartTime,
		League:          optionalString(item.League),
		Metadata:        encodeJSONMap(item.Metadata),
	}
}

func matchFromRow(row matchTableModel) match.Match {
	return match.Match{
		ID:              row.ID,
		SportID:         row.SportID,
		FixtureID:       nullInt64Ptr(row.FixtureID),
		ExternalMatchID: row.ExternalMatchID.String,
		HomeTeam:        row.HomeTeam,
		AwayTeam:        row.AwayTeam,
		Status:          match.ParseStatus(row.Status),
		Result:          row.Result.String,
		StartTime:       nullTimePtr(row.StartTime),
		League:          row.League.String,
		Metadata:        decodeJSONMap(row.Metadata),
		CreatedAt:       row.CreatedAt,
		UpdatedAt:       row.UpdatedAt,
	}
}
