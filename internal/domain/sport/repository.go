package sport

import "context"

type Repository interface {
	List(ctx context.Context) ([]Sport, error)
	GetBySlug(ctx context.Context, slug string) (Sport, bool, error)
	Upsert(ctx context.Context, item Sport) (Sport, error)
}
