package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/riskibarqy/sportsfeed/internal/domain/score"
	qb "github.com/riskibarqy/sportsfeed/internal/platform/querybuilder"
)

type scoreTableModel struct {
	ID        int64     `db:"id"`
	MatchID   int64     `db:"match_id"`
	ScoreData string    `db:"score_data"`
	Metadata  string    `db:"metadata"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
	Inserted  bool      `db:"inserted"`
}

type scoreInsertModel struct {
	MatchID   int64  `db:"match_id"`
	ScoreData string `db:"score_data"`
	Metadata  string `db:"metadata"`
}

var scoreColumns = []string{"id", "match_id", "score_data", "metadata", "created_at", "updated_at"}

type ScoreRepository struct {
	db *sqlx.DB
}

func NewScoreRepository(db *sqlx.DB) *ScoreRepository {
	return &ScoreRepository{db: db}
}

func (r *ScoreRepository) GetByMatchID(ctx context.Context, matchID int64) (score.Score, bool, error) {
	query, args, err := qb.Select(scoreColumns...).From("scores").
		Where(qb.Eq("match_id", matchID)).
		Limit(1).
		ToSQL()
	if err != nil {
		return score.Score{}, false, fmt.Errorf("build select score query: %w", err)
	}

	var row scoreTableModel
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		if isNotFound(err) {
			return score.Score{}, false, nil
		}
		return score.Score{}, false, fmt.Errorf("select score match_id=%d: %w", matchID, err)
	}
	return scoreFromRow(row), true, nil
}

func (r *ScoreRepository) Upsert(ctx context.Context, item score.Score) (score.Score, bool, error) {
	model := scoreInsertModel{
		MatchID:   item.MatchID,
		ScoreData: encodeJSONMap(item.ScoreData),
		Metadata:  encodeJSONMap(item.Metadata),
	}
	suffix := qb.OnConflict([]string{"match_id"}, []string{"score_data", "metadata"}, append(scoreColumns, "(xmax = 0) AS inserted")...)
	query, args, err := qb.InsertModel("scores", model, suffix)
	if err != nil {
		return score.Score{}, false, fmt.Errorf("build upsert score query: %w", err)
	}

	var row scoreTableModel
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		return score.Score{}, false, fmt.Errorf("upsert score match_id=%d: %w", item.MatchID, err)
	}
	return scoreFromRow(row), row.Inserted, nil
}

func scoreFromRow(row scoreTableModel) score.Score {
	return score.Score{
		ID:        row.ID,
		MatchID:   row.MatchID,
		ScoreData: decodeJSONMap(row.ScoreData),
		Metadata:  decodeJSONMap(row.Metadata),
		CreatedAt: row.CreatedAt,
		UpdatedAt: row.UpdatedAt,
	}
}
