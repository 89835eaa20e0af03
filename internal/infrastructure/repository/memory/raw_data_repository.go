package memory

import (
	"context"
	"sync"

	"github.com/riskibarqy/sportsfeed/internal/domain/rawdata"
)

type rawDataKey struct {
	source     string
	entityType string
	entityKey  string
}

type RawDataRepository struct {
	mu    sync.RWMutex
	items map[rawDataKey]rawdata.Payload
}

func NewRawDataRepository() *RawDataRepository {
	return &RawDataRepository{items: make(map[rawDataKey]rawdata.Payload)}
}

func (r *RawDataRepository) UpsertMany(_ context.Context, items []rawdata.Payload) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, item := range items {
		r.items[rawDataKey{source: item.Source, entityType: item.EntityType, entityKey: item.EntityKey}] = item
	}
	return nil
}

func (r *RawDataRepository) Get(source, entityType, entityKey string) (rawdata.Payload, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	item, ok := r.items[rawDataKey{source: source, entityType: entityType, entityKey: entityKey}]
	return item, ok
}
