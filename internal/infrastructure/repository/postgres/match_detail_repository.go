package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/bytedance/sonic"
	"github.com/jmoiron/sqlx"
	"github.com/riskibarqy/sportsfeed/internal/domain/matchdetail"
	qb "github.com/riskibarqy/sportsfeed/internal/platform/querybuilder"
)

type matchDetailTableModel struct {
	ID             int64     `db:"id"`
	MatchID        int64     `db:"match_id"`
	Squad          string    `db:"squad"`
	AdditionalInfo string    `db:"additional_info"`
	CreatedAt      time.Time `db:"created_at"`
	UpdatedAt      time.Time `db:"updated_at"`
	Inserted       bool      `db:"inserted"`
}

type matchDetailInsertModel struct {
	MatchID        int64  `db:"match_id"`
	Squad          string `db:"squad"`
	AdditionalInfo string `db:"additional_info"`
}

var matchDetailColumns = []string{"id", "match_id", "squad", "additional_info", "created_at", "updated_at"}

type MatchDetailRepository struct {
	db *sqlx.DB
}

func NewMatchDetailRepository(db *sqlx.DB) *MatchDetailRepository {
	return &MatchDetailRepository{db: db}
}

func (r *MatchDetailRepository) GetByMatchID(ctx context.Context, matchID int64) (matchdetail.Detail, bool, error) {
	query, args, err := qb.Select(matchDetailColumns...).From("match_details").
		Where(qb.Eq("match_id", matchID)).
		Limit(1).
		ToSQL()
	if err != nil {
		return matchdetail.Detail{}, false, fmt.Errorf("build select match detail query: %w", err)
	}

	var row matchDetailTableModel
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		if isNotFound(err) {
			return matchdetail.Detail{}, false, nil
		}
		return matchdetail.Detail{}, false, fmt.Errorf("select match detail match_id=%d: %w", matchID, err)
	}
	return matchDetailFromRow(row), true, nil
}

func (r *MatchDetailRepository) Upsert(ctx context.Context, item matchdetail.Detail) (matchdetail.Detail, bool, error) {
	model := matchDetailInsertModel{
		MatchID:        item.MatchID,
		Squad:          encodeJSON(item.Squads, "[]"),
		AdditionalInfo: encodeJSONMap(item.AdditionalInfo),
	}
	suffix := qb.OnConflict([]string{"match_id"}, []string{"squad", "additional_info"}, append(matchDetailColumns, "(xmax = 0) AS inserted")...)
	query, args, err := qb.InsertModel("match_details", model, suffix)
	if err != nil {
		return matchdetail.Detail{}, false, fmt.Errorf("build upsert match detail query: %w", err)
	}

	var row matchDetailTableModel
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		return matchdetail.Detail{}, false, fmt.Errorf("upsert match detail match_id=%d: %w", item.MatchID, err)
	}
	return matchDetailFromRow(row), row.Inserted, nil
}

func matchDetailFromRow(row matchDetailTableModel) matchdetail.Detail {
	var squads []matchdetail.Squad
	if err := sonic.UnmarshalString(row.Squad, &squads); err != nil {
		squads = nil
	}
	return matchdetail.Detail{
		ID:             row.ID,
		MatchID:        row.MatchID,
		Squads:         squads,
		AdditionalInfo: decodeJSONMap(row.AdditionalInfo),
		CreatedAt:      row.CreatedAt,
		UpdatedAt:      row.UpdatedAt,
	}
}
