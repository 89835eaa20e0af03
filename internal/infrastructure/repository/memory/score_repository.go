package memory

import (
	"context"
	"maps"
	"sync"
	"time"

	"github.com/riskibarqy/sportsfeed/internal/domain/score"
)

type ScoreRepository struct {
	mu     sync.RWMutex
	nextID int64
	items  map[int64]score.Score
}

func NewScoreRepository() *ScoreRepository {
	return &ScoreRepository{items: make(map[int64]score.Score)}
}

func (r *ScoreRepository) GetByMatchID(_ context.Context, matchID int64) (score.Score, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	item, ok := r.items[matchID]
	return item, ok, nil
}

func (r *ScoreRepository) Upsert(_ context.Context, item score.Score) (score.Score, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now()
	existing, ok := r.items[item.MatchID]
	if ok {
		item.ID = existing.ID
		item.CreatedAt = existing.CreatedAt
	} else {
		r.nextID++
		item.ID = r.nextID
		item.CreatedAt = now
	}
	item.ScoreData = maps.Clone(item.ScoreData)
	item.Metadata = maps.Clone(item.Metadata)
	item.UpdatedAt = now
	r.items[item.MatchID] = item
	return item, !ok, nil
}
