package jobscheduler

import "context"

// Repository stores the dispatch audit trail. UpsertEvent normalizes the
// event and merges it into any stored row with the same DispatchID.
type Repository interface {
	UpsertEvent(ctx context.Context, event DispatchEvent) error
}
