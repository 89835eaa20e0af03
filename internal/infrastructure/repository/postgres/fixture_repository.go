package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/riskibarqy/sportsfeed/internal/domain/batch"
	"github.com/riskibarqy/sportsfeed/internal/domain/fixture"
	qb "github.com/riskibarqy/sportsfeed/internal/platform/querybuilder"
)

type fixtureTableModel struct {
	ID         int64          `db:"id"`
	SportID    int64          `db:"sport_id"`
	ExternalID string         `db:"external_id"`
	Name       string         `db:"name"`
	Country    sql.NullString `db:"country"`
	Season     sql.NullString `db:"season"`
	Metadata   string         `db:"metadata"`
	CreatedAt  time.Time      `db:"created_at"`
	UpdatedAt  time.Time      `db:"updated_at"`
	Inserted   bool           `db:"inserted"`
}

type fixtureInsertModel struct {
	SportID    int64   `db:"sport_id"`
	ExternalID string  `db:"external_id"`
	Name       string  `db:"name"`
	Country    *string `db:"country"`
	Season     *string `db:"season"`
	Metadata   string  `db:"metadata"`
}

var fixtureColumns = []string{"id", "sport_id", "external_id", "name", "country", "season", "metadata", "created_at", "updated_at"}

var fixtureUpdateColumns = []string{"name", "country", "season", "metadata"}

type FixtureRepository struct {
	db *sqlx.DB
}

func NewFixtureRepository(db *sqlx.DB) *FixtureRepository {
	return &FixtureRepository{db: db}
}

func (r *FixtureRepository) FindByExternalID(ctx context.Context, sportID int64, externalID string) (fixture.Fixture, bool, error) {
	query, args, err := qb.Select(fixtureColumns...).From("fixtures").
		Where(
			qb.Eq("sport_id", sportID),
			qb.Eq("external_id", fixture.NormalizeExternalID(externalID)),
		).
		Limit(1).
		ToSQL()
	if err != nil {
		return fixture.Fixture{}, false, fmt.Errorf("build select fixture by external id query: %w", err)
	}

	var row fixtureTableModel
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		if isNotFound(err) {
			return fixture.Fixture{}, false, nil
		}
		return fixture.Fixture{}, false, fmt.Errorf("select fixture external_id=%s: %w", externalID, err)
	}
	return fixtureFromRow(row), true, nil
}

func (r *FixtureRepository) Upsert(ctx context.Context, item fixture.Fixture) (fixture.Fixture, bool, error) {
	suffix := qb.OnConflict([]string{"sport_id", "external_id"}, fixtureUpdateColumns, append(fixtureColumns, "(xmax = 0) AS inserted")...)
	query, args, err := qb.InsertModel("fixtures", fixtureInsertFromDomain(item), suffix)
	if err != nil {
		return fixture.Fixture{}, false, fmt.Errorf("build upsert fixture query: %w", err)
	}

	var row fixtureTableModel
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		return fixture.Fixture{}, false, fmt.Errorf("upsert fixture external_id=%s: %w", item.ExternalID, err)
	}
	return fixtureFromRow(row), row.Inserted, nil
}

// UpsertMany writes items in one statement. Duplicate keys keep the last item.
func (r *FixtureRepository) UpsertMany(ctx context.Context, items []fixture.Fixture) (batch.Result, error) {
	if len(items) == 0 {
		return batch.Result{}, nil
	}

	seen := make(map[fixture.Key]int, len(items))
	models := make([]fixtureInsertModel, 0, len(items))
	for _, item := range items {
		if idx, ok := seen[item.Key()]; ok {
			models[idx] = fixtureInsertFromDomain(item)
			continue
		}
		seen[item.Key()] = len(models)
		models = append(models, fixtureInsertFromDomain(item))
	}

	query, args, err := qb.InsertModels("fixtures", models, qb.OnConflict([]string{"sport_id", "external_id"}, fixtureUpdateColumns))
	if err != nil {
		return batch.Result{}, fmt.Errorf("build upsert fixtures query: %w", err)
	}
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return batch.Result{}, fmt.Errorf("upsert %d fixtures: %w", len(models), err)
	}
	return batch.Result{Written: len(models)}, nil
}

func fixtureInsertFromDomain(item fixture.Fixture) fixtureInsertModel {
	return fixtureInsertModel{
		SportID:    item.SportID,
		ExternalID: fixture.NormalizeExternalID(item.ExternalID),
		Name:       item.Name,
		Country:    optionalString(item.Country),
		Season:     optionalString(item.Season),
		Metadata:   encodeJSONMap(item.Metadata),
	}
}

func fixtureFromRow(row fixtureTableModel) fixture.Fixture {
	return fixture.Fixture{
		ID:         row.ID,
		SportID:    row.SportID,
		ExternalID: row.ExternalID,
		Name:       row.Name,
		Country:    row.Country.String,
		Season:     row.Season.String,
		Metadata:   decodeJSONMap(row.Metadata),
		CreatedAt:  row.CreatedAt,
		UpdatedAt:  row.UpdatedAt,
	}
}
