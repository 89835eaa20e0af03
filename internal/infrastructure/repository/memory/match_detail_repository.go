package memory

import (
	"context"
	"maps"
	"slices"
	"sync"
	"time"

	"github.com/riskibarqy/sportsfeed/internal/domain/matchdetail"
)

type MatchDetailRepository struct {
	mu     sync.RWMutex
	nextID int64
	items  map[int64]matchdetail.Detail
}

func NewMatchDetailRepository() *MatchDetailRepository {
	return &MatchDetailRepository{items: make(map[int64]matchdetail.Detail)}
}

func (r *MatchDetailRepository) GetByMatchID(_ context.Context, matchID int64) (matchdetail.Detail, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	item, ok := r.items[matchID]
	return item, ok, nil
}

func (r *MatchDetailRepository) Upsert(_ context.Context, item matchdetail.Detail) (matchdetail.Detail, bool, error) {
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
	item.Squads = slices.Clone(item.Squads)
	item.AdditionalInfo = maps.Clone(item.AdditionalInfo)
	item.UpdatedAt = now
	r.items[item.MatchID] = item
	return item, !ok, nil
}

func (r *MatchDetailRepository) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.items)
}
