package feed

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubFetcher struct {
	calls  int
	closed bool
}

func (s *stubFetcher) Fetch(_ context.Context, src Source) (RawPayload, error) {
	s.calls++
	return RawPayload{Body: []byte(src.URL), Kind: src.Kind}, nil
}

func (s *stubFetcher) Close() { s.closed = true }

func TestRouter_DispatchesByKind(t *testing.T) {
	t.Parallel()

	httpStub := &stubFetcher{}
	renderStub := &stubFetcher{}
	router := &Router{HTTP: httpStub, Render: renderStub}

	for _, kind := range []Kind{KindXML, KindJSON} {
		_, err := router.Fetch(context.Background(), Source{URL: "http://feed", Kind: kind})
		require.NoError(t, err)
	}
	_, err := router.Fetch(context.Background(), Source{URL: "http://page", Kind: KindHTML})
	require.NoError(t, err)

	assert.Equal(t, 2, httpStub.calls)
	assert.Equal(t, 1, renderStub.calls)

	_, err = router.Fetch(context.Background(), Source{URL: "http://x", Kind: "csv"})
	var fetchErr *FetchError
	require.True(t, errors.As(err, &fetchErr))
	assert.True(t, fetchErr.IsTransport())

	router.Close()
	assert.True(t, renderStub.closed)
}

func TestRouter_MissingFetcher(t *testing.T) {
	t.Parallel()

	router := &Router{HTTP: &stubFetcher{}}
	_, err := router.Fetch(context.Background(), Source{URL: "http://page", Kind: KindHTML})
	assert.Error(t, err)
	router.Close()
}

func TestParseKind(t *testing.T) {
	t.Parallel()

	kind, ok := ParseKind(" XML ")
	assert.True(t, ok)
	assert.Equal(t, KindXML, kind)
	_, ok = ParseKind("csv")
	assert.False(t, ok)
}
