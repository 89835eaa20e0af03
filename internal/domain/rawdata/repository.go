package rawdata

import "context"

// Repository archives payloads keyed by (Source, EntityType, EntityKey). A
// payload whose hash and parse error match the stored row leaves it untouched.
type Repository interface {
	UpsertMany(ctx context.Context, items []Payload) error
}
