package feed

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/chromedp/chromedp"
	crerr "github.com/cockroachdb/errors"
	"golang.org/x/time/rate"

	"github.com/riskibarqy/sportsfeed/internal/platform/logging"
)

type RenderConfig struct {
	UserAgent string
	// Settle is waited after body is ready so client-side rendering finishes.
	Settle time.Duration
	// RatePerSecond caps page renders against the scrape target.
	RatePerSecond float64
	Burst         int
	ExecPath      string
	Logger        *logging.Logger
}

// RenderFetcher renders HTML pages in a shared headless Chrome, one tab per
// fetch.
type RenderFetcher struct {
	allocCancel   context.CancelFunc
	browserCtx    context.Context
	browserCancel context.CancelFunc
	limiter       *rate.Limiter
	settle        time.Duration
	logger        *logging.Logger
	now           func() time.Time
	closeOnce     sync.Once

	mu      sync.Mutex
	started bool

	// render is swapped in tests that run without a browser.
	render func(ctx context.Context, url string) (renderedPage, error)
}

// renderedPage is one navigation: the main document status, the URL after
// redirects and the DOM once rendering settled. HTML is empty for a
// status of 400 or more.
type renderedPage struct {
	Status int
	URL    string
	HTML   string
}

func NewRenderFetcher(cfg RenderConfig) *RenderFetcher {
	logger := cfg.Logger
	if logger == nil {
		logger = logging.Default()
	}
	userAgent := strings.TrimSpace(cfg.UserAgent)
	if userAgent == "" {
		userAgent = DefaultUserAgent
	}
	settle := cfg.Settle
	if settle <= 0 {
		settle = 2 * time.Second
	}
	limit := rate.Limit(cfg.RatePerSecond)
	if cfg.RatePerSecond <= 0 {
		limit = rate.Every(2 * time.Second)
	}
	burst := cfg.Burst
	if burst < 1 {
		burst = 1
	}

	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.UserAgent(userAgent),
	)
	if path := strings.TrimSpace(cfg.ExecPath); path != "" {
		opts = append(opts, chromedp.ExecPath(path))
	}
	allocCtx, allocCancel := chromedp.NewExecAllocator(context.Background(), opts...)
	browserCtx, browserCancel := chromedp.NewContext(allocCtx)

	f := &RenderFetcher{
		allocCancel:   allocCancel,
		browserCtx:    browserCtx,
		browserCancel: browserCancel,
		limiter:       rate.NewLimiter(limit, burst),
		settle:        settle,
		logger:        logger.Named("feed.render"),
		now:           time.Now,
	}
	f.render = f.renderPage
	return f
}

// Close shuts the browser down. It is safe to call more than once.
func (f *RenderFetcher) Close() {
	f.closeOnce.Do(func() {
		if f.browserCancel != nil {
			f.browserCancel()
		}
		if f.allocCancel != nil {
			f.allocCancel()
		}
	})
}

func (f *RenderFetcher) Fetch(ctx context.Context, src Source) (RawPayload, error) {
	if strings.TrimSpace(src.URL) == "" {
		return RawPayload{}, &FetchError{Kind: ErrorTransport, Err: crerr.New("source url is required")}
	}

	var page renderedPage
	err := retry(ctx, src, func(attempt int) error {
		if err := f.limiter.Wait(ctx); err != nil {
			return &FetchError{Kind: ErrorTimeout, URL: src.URL, Err: err}
		}

		tabCtx, cancel := context.WithTimeout(ctx, src.timeout())
		defer cancel()

		rendered, err := f.render(tabCtx, src.URL)
		if err != nil {
			fetchErr := classifyRenderError(tabCtx, src.URL, err)
			f.logger.WarnContext(ctx, "render attempt failed", "url", src.URL, "attempt", attempt, "error", fetchErr)
			return fetchErr
		}
		if rendered.Status >= http.StatusBadRequest {
			f.logger.WarnContext(ctx, "render attempt got non-ok status", "url", src.URL, "attempt", attempt, "status", rendered.Status)
			return &FetchError{Kind: ErrorNonOKStatus, URL: src.URL, Status: rendered.Status}
		}
		if strings.TrimSpace(rendered.HTML) == "" {
			return &FetchError{Kind: ErrorTransport, URL: src.URL, Err: crerr.New("empty html returned")}
		}
		page = rendered
		return nil
	})
	if err != nil {
		return RawPayload{}, err
	}

	status := page.Status
	if status == 0 {
		status = http.StatusOK
	}
	finalURL := page.URL
	if finalURL == "" {
		finalURL = src.URL
	}
	return RawPayload{
		Body:      []byte(page.HTML),
		Status:    status,
		FinalURL:  finalURL,
		Kind:      src.Kind,
		FetchedAt: f.now().UTC(),
	}, nil
}

// ensureBrowser starts the shared browser on first use so every later
// context opens a tab in it instead of a new browser.
func (f *RenderFetcher) ensureBrowser() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.started {
		return nil
	}
	if err := chromedp.Run(f.browserCtx); err != nil {
		return crerr.Wrap(err, "start browser")
	}
	f.started = true
	return nil
}

func (f *RenderFetcher) renderPage(ctx context.Context, url string) (renderedPage, error) {
	if err := f.ensureBrowser(); err != nil {
		return renderedPage{}, err
	}
	tab, cancel := chromedp.NewContext(f.browserCtx)
	defer cancel()

	// The tab must stop when either the caller or the browser goes away.
	stop := context.AfterFunc(ctx, cancel)
	defer stop()

	resp, err := chromedp.RunResponse(tab, chromedp.Navigate(url))
	if err != nil {
		return renderedPage{}, err
	}
	page := renderedPage{URL: url}
	if resp != nil {
		page.Status = int(resp.Status)
		if resp.URL != "" {
			page.URL = resp.URL
		}
	}
	if page.Status >= http.StatusBadRequest {
		return page, nil
	}

	err = chromedp.Run(tab,
		chromedp.WaitReady("body", chromedp.ByQuery),
		chromedp.Sleep(f.settle),
		chromedp.OuterHTML("html", &page.HTML, chromedp.ByQuery),
	)
	if err != nil {
		return renderedPage{}, err
	}
	return page, nil
}

func classifyRenderError(ctx context.Context, url string, err error) *FetchError {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return &FetchError{Kind: ErrorTimeout, URL: url, Err: err}
	}
	return &FetchError{Kind: ErrorTransport, URL: url, Err: err}
}
