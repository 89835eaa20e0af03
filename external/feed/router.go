package feed

import (
	"context"

	crerr "github.com/cockroachdb/errors"
)

// Router sends html sources to the renderer and xml/json sources to the HTTP
// fetcher.
type Router struct {
	HTTP   Fetcher
	Render Fetcher
}

func (r *Router) Fetch(ctx context.Context, src Source) (RawPayload, error) {
	var target Fetcher
	switch src.Kind {
	case KindHTML:
		target = r.Render
	case KindXML, KindJSON:
		target = r.HTTP
	default:
		return RawPayload{}, &FetchError{Kind: ErrorTransport, URL: src.URL, Err: crerr.Newf("unsupported source kind %q", src.Kind)}
	}
	if target == nil {
		return RawPayload{}, &FetchError{Kind: ErrorTransport, URL: src.URL, Err: crerr.Newf("no fetcher configured for kind %q", src.Kind)}
	}
	return target.Fetch(ctx, src)
}

// Close releases the renderer's browser when it holds one.
func (r *Router) Close() {
	if closer, ok := r.Render.(interface{ Close() }); ok {
		closer.Close()
	}
}
