package postgres

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/riskibarqy/sportsfeed/internal/domain/sport"
	qb "github.com/riskibarqy/sportsfeed/internal/platform/querybuilder"
)

type sportTableModel struct {
	ID          int64     `db:"id,readonly"`
	Slug        string    `db:"slug"`
	Name        string    `db:"name"`
	Kind        string    `db:"kind"`
	LiveFormat  string    `db:"live_format"`
	LiveEnabled bool      `db:"live_enabled"`
	CreatedAt   time.Time `db:"created_at,readonly"`
	UpdatedAt   time.Time `db:"updated_at,readonly"`
}

var sportColumns = []string{"id", "slug", "name", "kind", "live_format", "live_enabled", "created_at", "updated_at"}

type SportRepository struct {
	db *sqlx.DB
}

func NewSportRepository(db *sqlx.DB) *SportRepository {
	return &SportRepository{db: db}
}

func (r *SportRepository) List(ctx context.Context) ([]sport.Sport, error) {
	query, args, err := qb.Select(sportColumns...).From("sports").OrderBy("id").ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build select sports query: %w", err)
	}

	var rows []sportTableModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("select sports: %w", err)
	}

	out := make([]sport.Sport, 0, len(rows))
	for _, row := range rows {
		out = append(out, sportFromRow(row))
	}
	return out, nil
}

func (r *SportRepository) GetBySlug(ctx context.Context, slug string) (sport.Sport, bool, error) {
	query, args, err := qb.Select(sportColumns...).From("sports").
		Where(qb.Eq("slug", strings.ToLower(strings.TrimSpace(slug)))).
		Limit(1).
		ToSQL()
	if err != nil {
		return sport.Sport{}, false, fmt.Errorf("build select sport by slug query: %w", err)
	}

	var row sportTableModel
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		if isNotFound(err) {
			return sport.Sport{}, false, nil
		}
		return sport.Sport{}, false, fmt.Errorf("select sport slug=%s: %w", slug, err)
	}
	return sportFromRow(row), true, nil
}

func (r *SportRepository) Upsert(ctx context.Context, item sport.Sport) (sport.Sport, error) {
	model := sportTableModel{
		Slug:        strings.ToLower(strings.TrimSpace(item.Slug)),
		Name:        strings.TrimSpace(item.Name),
		Kind:        string(item.Kind),
		LiveFormat:  string(item.LiveFormat),
		LiveEnabled: item.LiveEnabled,
	}
	suffix := qb.OnConflict([]string{"slug"}, []string{"name", "kind", "live_format", "live_enabled"}, sportColumns...)
	query, args, err := qb.InsertModel("sports", model, suffix)
	if err != nil {
		return sport.Sport{}, fmt.Errorf("build upsert sport query: %w", err)
	}

	var row sportTableModel
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		return sport.Sport{}, fmt.Errorf("upsert sport slug=%s: %w", model.Slug, err)
	}
	return sportFromRow(row), nil
}

func sportFromRow(row sportTableModel) sport.Sport {
	return sport.Sport{
		ID:          row.ID,
		Slug:        row.Slug,
		Name:        row.Name,
		Kind:        sport.ParseKind(row.Kind),
		LiveFormat:  sport.ParseFeedFormat(row.LiveFormat),
		LiveEnabled: row.LiveEnabled,
	}
}
