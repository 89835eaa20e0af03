package memory

import (
	"context"
	"sync"
	"time"

	"github.com/riskibarqy/sportsfeed/internal/domain/jobscheduler"
)

// JobDispatchRepository keeps the dispatch audit trail in process.
type JobDispatchRepository struct {
	mu     sync.RWMutex
	events map[string]jobscheduler.DispatchEvent
	now    func() time.Time
}

func NewJobDispatchRepository() *JobDispatchRepository {
	return &JobDispatchRepository{
		events: make(map[string]jobscheduler.DispatchEvent),
		now:    time.Now,
	}
}

func (r *JobDispatchRepository) UpsertEvent(_ context.Context, event jobscheduler.DispatchEvent) error {
	event, err := event.Normalize(r.now())
	if err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if prev, ok := r.events[event.DispatchID]; ok {
		event = event.Merge(prev)
	}
	r.events[event.DispatchID] = event
	return nil
}

func (r *JobDispatchRepository) Get(dispatchID string) (jobscheduler.DispatchEvent, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	event, ok := r.events[dispatchID]
	return event, ok
}

func (r *JobDispatchRepository) ByStatus(status jobscheduler.DispatchStatus) []jobscheduler.DispatchEvent {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []jobscheduler.DispatchEvent
	for _, event := range r.events {
		if event.Status == status {
			out = append(out, event)
		}
	}
	return out
}
