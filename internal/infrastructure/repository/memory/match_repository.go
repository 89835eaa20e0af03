package memory

import (
	"context"
	"fmt"
	"maps"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/riskibarqy/sportsfeed/internal/domain/batch"
	"github.com/riskibarqy/sportsfeed/internal/domain/match"
)

type MatchRepository struct {
	mu         sync.RWMutex
	nextID     int64
	items      map[int64]match.Match
	byExternal map[string]int64
	now        func() time.Time
}

func NewMatchRepository() *MatchRepository {
	return &MatchRepository{
		items:      make(map[int64]match.Match),
		byExternal: make(map[string]int64),
		now:        time.Now,
	}
}

func (r *MatchRepository) FindByExternalID(_ context.Context, externalMatchID string) (match.Match, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := r.byExternal[strings.TrimSpace(externalMatchID)]
	if !ok {
		return match.Match{}, false, nil
	}
	return cloneMatch(r.items[id]), true, nil
}

func (r *MatchRepository) FindByTeamsWithin(_ context.Context, sportID int64, home, away string, at time.Time, window time.Duration) ([]match.Match, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	lo, hi := at.Add(-window), at.Add(window)
	var out []match.Match
	for _, item := range r.items {
		if item.SportID != sportID || item.StartTime == nil || !item.SameTeams(home, away) {
			continue
		}
		if item.StartTime.Before(lo) || item.StartTime.After(hi) {
			continue
		}
		out = append(out, cloneMatch(item))
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].StartTime.Equal(*out[j].StartTime) {
			return out[i].StartTime.Before(*out[j].StartTime)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (r *MatchRepository) Upsert(_ context.Context, item match.Match) (match.Match, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	saved, created := r.upsertLocked(item)
	return cloneMatch(saved), created, nil
}

func (r *MatchRepository) UpsertMany(_ context.Context, items []match.Match) (batch.Result, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var result batch.Result
	seen := make(map[string]struct{}, len(items))
	for _, item := range items {
		key := strings.TrimSpace(item.ExternalMatchID)
		if key == "" {
			result.Fail(fmt.Sprintf("%s vs %s", item.HomeTeam, item.AwayTeam), fmt.Errorf("external match id is required for batch upsert"))
			continue
		}
		r.upsertLocked(item)
		seen[key] = struct{}{}
	}
	result.Written = len(seen)
	return result, nil
}

func (r *MatchRepository) Update(_ context.Context, item match.Match) (match.Match, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	existing, ok := r.items[item.ID]
	if !ok {
		return match.Match{}, fmt.Errorf("match id=%d not found", item.ID)
	}
	if ext := strings.TrimSpace(item.ExternalMatchID); ext != "" && ext != existing.ExternalMatchID {
		if owner, taken := r.byExternal[ext]; taken && owner != item.ID {
			return match.Match{}, fmt.Errorf("update match id=%d: %w", item.ID, match.ErrExternalIDConflict)
		}
	}

	merged := mergeMatch(existing, item, r.now())
	r.index(existing.ExternalMatchID, merged)
	return cloneMatch(merged), nil
}

func (r *MatchRepository) BackfillExternalID(_ context.Context, id int64, externalMatchID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	existing, ok := r.items[id]
	if !ok {
		return fmt.Errorf("match id=%d not found", id)
	}
	externalMatchID = strings.TrimSpace(externalMatchID)
	if owner, taken := r.byExternal[externalMatchID]; taken && owner != id {
		return fmt.Errorf("backfill match id=%d external_match_id=%s: %w", id, externalMatchID, match.ErrExternalIDConflict)
	}

	previous := existing.ExternalMatchID
	existing.ExternalMatchID = externalMatchID
	existing.UpdatedAt = r.now()
	r.index(previous, existing)
	return nil
}

func (r *MatchRepository) UpdateLiveState(_ context.Context, id int64, status match.Status, metadata map[string]any) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	existing, ok := r.items[id]
	if !ok {
		return fmt.Errorf("match id=%d not found", id)
	}
	existing.Status = status
	existing.Metadata = mergeMetadata(existing.Metadata, metadata)
	existing.UpdatedAt = r.now()
	r.items[id] = existing
	return nil
}

// All returns every stored match ordered by id.
func (r *MatchRepository) All() []match.Match {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]match.Match, 0, len(r.items))
	for _, item := range r.items {
		out = append(out, cloneMatch(item))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (r *MatchRepository) upsertLocked(item match.Match) (match.Match, bool) {
	now := r.now()
	if item.Status == "" {
		item.Status = match.StatusUnknown
	}
	ext := strings.TrimSpace(item.ExternalMatchID)
	if ext != "" {
		if id, ok := r.byExternal[ext]; ok {
			existing := r.items[id]
			item.ID = id
			merged := mergeMatch(existing, item, now)
			r.index(existing.ExternalMatchID, merged)
			return merged, false
		}
	}

	r.nextID++
	item.ID = r.nextID
	item.ExternalMatchID = ext
	item.Metadata = maps.Clone(item.Metadata)
	item.CreatedAt = now
	item.UpdatedAt = now
	r.index("", item)
	return item, true
}

func (r *MatchRepository) index(previousExternalID string, item match.Match) {
	if previousExternalID != "" && previousExternalID != item.ExternalMatchID {
		delete(r.byExternal, previousExternalID)
	}
	if item.ExternalMatchID != "" {
		r.byExternal[item.ExternalMatchID] = item.ID
	}
	r.items[item.ID] = item
}

// mergeMatch applies the same rules as the SQL upsert: optional values only
// overwrite when present and metadata keys are merged.
func mergeMatch(existing, incoming match.Match, now time.Time) match.Match {
	out := existing
	out.SportID = incoming.SportID
	out.HomeTeam = strings.TrimSpace(incoming.HomeTeam)
	out.AwayTeam = strings.TrimSpace(incoming.AwayTeam)
	out.Status = incoming.Status
	if ext := strings.TrimSpace(incoming.ExternalMatchID); ext != "" {
		out.ExternalMatchID = ext
	}
	if incoming.FixtureID != nil {
		out.FixtureID = incoming.FixtureID
	}
	if strings.TrimSpace(incoming.Result) != "" {
		out.Result = incoming.Result
	}
	if incoming.StartTime != nil {
		out.StartTime = incoming.StartTime
	}
	if strings.TrimSpace(incoming.League) != "" {
		out.League = incoming.League
	}
	out.Metadata = mergeMetadata(existing.Metadata, incoming.Metadata)
	out.UpdatedAt = now
	return out
}

func mergeMetadata(base, overlay map[string]any) map[string]any {
	out := maps.Clone(base)
	if out == nil {
		out = make(map[string]any, len(overlay))
	}
	maps.Copy(out, overlay)
	return out
}

func cloneMatch(item match.Match) match.Match {
	item.Metadata = maps.Clone(item.Metadata)
	return item
}
