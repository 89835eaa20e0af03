package cache

import (
	"context"
	"strings"
	"time"

	"github.com/riskibarqy/sportsfeed/internal/domain/sport"
	basecache "github.com/riskibarqy/sportsfeed/internal/platform/cache"
)

// SportRepository is a read-through cache in front of the sport catalog.
type SportRepository struct {
	next    sport.Repository
	backend basecache.Backend
	ttl     time.Duration
}

func NewSportRepository(next sport.Repository, backend basecache.Backend, ttl time.Duration) *SportRepository {
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	return &SportRepository{next: next, backend: backend, ttl: ttl}
}

func (r *SportRepository) List(ctx context.Context) ([]sport.Sport, error) {
	items, err := basecache.Remember(ctx, r.backend, basecache.Key("sport", "list"), r.ttl, r.next.List)
	if err != nil {
		return nil, err
	}
	return append([]sport.Sport(nil), items...), nil
}

func (r *SportRepository) GetBySlug(ctx context.Context, slug string) (sport.Sport, bool, error) {
	slug = strings.ToLower(strings.TrimSpace(slug))
	cached, err := basecache.Remember(ctx, r.backend, basecache.Key("sport", "slug", slug), r.ttl, func(ctx context.Context) (cachedSport, error) {
		item, exists, err := r.next.GetBySlug(ctx, slug)
		if err != nil {
			return cachedSport{}, err
		}
		return cachedSport{Value: item, Exists: exists}, nil
	})
	if err != nil {
		return sport.Sport{}, false, err
	}
	return cached.Value, cached.Exists, nil
}

// Upsert writes through and drops the cached entries of the slug.
func (r *SportRepository) Upsert(ctx context.Context, item sport.Sport) (sport.Sport, error) {
	saved, err := r.next.Upsert(ctx, item)
	if err != nil {
		return sport.Sport{}, err
	}
	_ = r.backend.Delete(ctx, basecache.Key("sport", "list"))
	_ = r.backend.Delete(ctx, basecache.Key("sport", "slug", saved.Slug))
	return saved, nil
}

type cachedSport struct {
	Value  sport.Sport `json:"value"`
	Exists bool        `json:"exists"`
}
