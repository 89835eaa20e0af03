package memory

import (
	"context"
	"strings"
	"sync"

	"github.com/riskibarqy/sportsfeed/internal/domain/sport"
)

type SportRepository struct {
	mu     sync.RWMutex
	nextID int64
	items  map[string]sport.Sport
	orders []string
}

func NewSportRepository(sports []sport.Sport) *SportRepository {
	repo := &SportRepository{items: make(map[string]sport.Sport, len(sports))}
	for _, item := range sports {
		_, _ = repo.Upsert(context.Background(), item)
	}
	return repo
}

func (r *SportRepository) List(_ context.Context) ([]sport.Sport, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]sport.Sport, 0, len(r.orders))
	for _, slug := range r.orders {
		out = append(out, r.items[slug])
	}
	return out, nil
}

func (r *SportRepository) GetBySlug(_ context.Context, slug string) (sport.Sport, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	item, ok := r.items[strings.ToLower(strings.TrimSpace(slug))]
	return item, ok, nil
}

func (r *SportRepository) Upsert(_ context.Context, item sport.Sport) (sport.Sport, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	item.Slug = strings.ToLower(strings.TrimSpace(item.Slug))
	if existing, ok := r.items[item.Slug]; ok {
		item.ID = existing.ID
	} else {
		r.nextID++
		item.ID = r.nextID
		r.orders = append(r.orders, item.Slug)
	}
	r.items[item.Slug] = item
	return item, nil
}
