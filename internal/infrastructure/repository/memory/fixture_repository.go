package memory

import (
	"context"
	"maps"
	"sync"
	"time"

	"github.com/riskibarqy/sportsfeed/internal/domain/batch"
	"github.com/riskibarqy/sportsfeed/internal/domain/fixture"
)

type FixtureRepository struct {
	mu     sync.RWMutex
	nextID int64
	items  map[fixture.Key]fixture.Fixture
	now    func() time.Time
}

func NewFixtureRepository() *FixtureRepository {
	return &FixtureRepository{
		items: make(map[fixture.Key]fixture.Fixture),
		now:   time.Now,
	}
}

func (r *FixtureRepository) FindByExternalID(_ context.Context, sportID int64, externalID string) (fixture.Fixture, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	item, ok := r.items[fixture.Key{SportID: sportID, ExternalID: fixture.NormalizeExternalID(externalID)}]
	return item, ok, nil
}

func (r *FixtureRepository) Upsert(_ context.Context, item fixture.Fixture) (fixture.Fixture, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	saved, created := r.upsertLocked(item)
	return saved, created, nil
}

func (r *FixtureRepository) UpsertMany(_ context.Context, items []fixture.Fixture) (batch.Result, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	seen := make(map[fixture.Key]struct{}, len(items))
	for _, item := range items {
		r.upsertLocked(item)
		seen[item.Key()] = struct{}{}
	}
	return batch.Result{Written: len(seen)}, nil
}

// Count reports stored fixtures.
func (r *FixtureRepository) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.items)
}

func (r *FixtureRepository) upsertLocked(item fixture.Fixture) (fixture.Fixture, bool) {
	now := r.now()
	key := item.Key()
	item.ExternalID = key.ExternalID
	item.Metadata = maps.Clone(item.Metadata)

	existing, ok := r.items[key]
	if ok {
		item.ID = existing.ID
		item.CreatedAt = existing.CreatedAt
	} else {
		r.nextID++
		item.ID = r.nextID
		item.CreatedAt = now
	}
	item.UpdatedAt = now
	r.items[key] = item
	return item, !ok
}
