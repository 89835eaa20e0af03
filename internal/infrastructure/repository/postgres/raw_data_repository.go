package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/riskibarqy/sportsfeed/internal/domain/rawdata"
	qb "github.com/riskibarqy/sportsfeed/internal/platform/querybuilder"
)

type RawDataRepository struct {
	db *sqlx.DB
}

func NewRawDataRepository(db *sqlx.DB) *RawDataRepository {
	return &RawDataRepository{db: db}
}

func (r *RawDataRepository) UpsertMany(ctx context.Context, items []rawdata.Payload) error {
	if len(items) == 0 {
		return nil
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx upsert raw payloads: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	now := time.Now()
	for _, item := range items {
		item = item.Prepare(now)

		insertModel := rawDataPayloadInsertModel{
			Source:      item.Source,
			EntityType:  item.EntityType,
			EntityKey:   item.EntityKey,
			SportSlug:   optionalString(item.SportSlug),
			ContentType: item.ContentType,
			Payload:     item.Payload,
			PayloadHash: item.PayloadHash,
			ParseError:  optionalString(item.ParseError),
			FetchedAt:   item.FetchedAt,
		}

		query, args, err := qb.InsertModel("raw_data_payloads", insertModel, `ON CONFLICT (source, entity_type, entity_key)
DO UPDATE SET
    sport_slug = EXCLUDED.sport_slug,
    content_type = EXCLUDED.content_type,
    payload = EXCLUDED.payload,
    payload_hash = EXCLUDED.payload_hash,
    parse_error = EXCLUDED.parse_error,
    fetched_at = EXCLUDED.fetched_at,
    ingested_at = NOW()
WHERE raw_data_payloads.payload_hash <> EXCLUDED.payload_hash
   OR raw_data_payloads.parse_error IS DISTINCT FROM EXCLUDED.parse_error`)
		if err != nil {
			return fmt.Errorf("build upsert raw payload query: %w", err)
		}
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return fmt.Errorf("upsert raw payload entity=%s key=%s: %w", item.EntityType, item.EntityKey, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit upsert raw payloads tx: %w", err)
	}

	return nil
}

type rawDataPayloadInsertModel struct {
	Source      string    `db:"source"`
	EntityType  string    `db:"entity_type"`
	EntityKey   string    `db:"entity_key"`
	SportSlug   *string   `db:"sport_slug"`
	ContentType string    `db:"content_type"`
	Payload     string    `db:"payload"`
	PayloadHash string    `db:"payload_hash"`
	ParseError  *string   `db:"parse_error"`
	FetchedAt   time.Time `db:"fetched_at"`
}
