package jobqueue

import (
	"bytes"
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	sonic "github.com/bytedance/sonic"
	crerr "github.com/cockroachdb/errors"
	"github.com/riskibarqy/sportsfeed/internal/domain/jobscheduler"
	"github.com/riskibarqy/sportsfeed/internal/platform/id"
	"github.com/riskibarqy/sportsfeed/internal/platform/logging"
	"github.com/riskibarqy/sportsfeed/internal/platform/resilience"
	"github.com/valyala/bytebufferpool"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// JobPathPrefix is where QStash delivers jobs on the ops API.
const JobPathPrefix = "/v1/internal/jobs/"

// InternalJobTokenHeader carries the shared secret QStash forwards on every
// callback.
const InternalJobTokenHeader = "X-Internal-Job-Token"

const maxLoggedBody = 4096

var errQStashTransient = crerr.New("qstash transient failure")

type QStashConfig struct {
	BaseURL          string
	Token            string
	TargetBaseURL    string
	InternalJobToken string
	Timeout          time.Duration
	Publish          resilience.RetryPolicy
	CircuitBreaker   resilience.CircuitBreakerConfig
}

// Envelope is the body QStash carries from publish to delivery.
type Envelope struct {
	DispatchID  string            `json:"dispatch_id"`
	Name        string            `json:"name"`
	Queue       string            `json:"queue"`
	DedupKey    string            `json:"dedup_key,omitempty"`
	MaxAttempts int               `json:"max_attempts"`
	Payload     map[string]string `json:"payload"`
}

// QStashQueue publishes jobs to Upstash QStash, which POSTs them back to
// JobPathPrefix+name. QStash owns redelivery: Upstash-Retries is the job's
// remaining attempts and its own backoff replaces the job backoff.
type QStashQueue struct {
	client           *http.Client
	publishBase      string
	targetBase       string
	token            string
	internalJobToken string
	publish          resilience.RetryPolicy
	audit            jobscheduler.Repository
	ids              id.Generator
	logger           *logging.Logger
	breaker          *resilience.CircuitBreaker
	now              func() time.Time
}

// NewQStashQueue validates both base URLs up front so a misconfigured
// deployment fails at startup rather than on the first scheduled run.
func NewQStashQueue(cfg QStashConfig, audit jobscheduler.Repository, ids id.Generator, logger *logging.Logger) (*QStashQueue, error) {
	publishBase, err := httpBaseURL(cfg.BaseURL)
	if err != nil {
		return nil, crerr.Wrap(err, "invalid QSTASH_BASE_URL")
	}
	targetBase, err := httpBaseURL(cfg.TargetBaseURL)
	if err != nil {
		return nil, crerr.Wrap(err, "invalid QSTASH_TARGET_BASE_URL")
	}

	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	if cfg.Publish.Attempts <= 0 {
		cfg.Publish = resilience.DefaultRetryPolicy()
	}
	if logger == nil {
		logger = logging.Default()
	}
	if ids == nil {
		ids = id.NewUUIDGenerator()
	}

	q := &QStashQueue{
		client:           &http.Client{Timeout: cfg.Timeout},
		publishBase:      publishBase,
		targetBase:       targetBase,
		token:            strings.TrimSpace(cfg.Token),
		internalJobToken: strings.TrimSpace(cfg.InternalJobToken),
		publish:          cfg.Publish,
		audit:            audit,
		ids:              ids,
		logger:           logger.Named("qstash"),
		now:              time.Now,
	}
	if cfg.CircuitBreaker.Enabled {
		q.breaker = resilience.NewCircuitBreaker(cfg.CircuitBreaker)
	}
	return q, nil
}

func (p *QStashQueue) Enqueue(ctx context.Context, job jobscheduler.Job) error {
	job.Name = strings.TrimSpace(job.Name)
	if job.Name == "" {
		return crerr.New("job name is required")
	}
	dispatchID, err := p.ids.NewID()
	if err != nil {
		return crerr.Wrap(err, "generate dispatch id")
	}
	delivery := jobscheduler.Delivery{DispatchID: dispatchID, Job: job, Attempt: 1}

	req, err := p.newPublishRequest(delivery)
	if err != nil {
		recordEvent(ctx, p.audit, p.logger, delivery, jobscheduler.StatusFailed, err, p.now())
		return err
	}

	err = resilience.Retry(ctx, p.publish, isQStashTransient, func(int) error {
		return p.send(ctx, req)
	})
	status := jobscheduler.StatusQueued
	if err != nil {
		status = jobscheduler.StatusFailed
	}
	recordEvent(ctx, p.audit, p.logger, delivery, status, err, p.now())
	if err != nil {
		return err
	}

	p.logger.InfoContext(ctx, "qstash job published",
		"job", job.Name,
		"dispatch_id", dispatchID,
		"delay", req.header("Upstash-Delay"),
		"retries", req.header("Upstash-Retries"),
		"deduplication_id", job.DedupKey,
	)
	return nil
}

type publishHeader struct {
	name   string
	value  string
	secret bool
}

// publishRequest is one QStash publish call. It is built once per job and
// replayed on each retry.
type publishRequest struct {
	url     string
	target  string
	body    []byte
	headers []publishHeader
}

func (p *QStashQueue) newPublishRequest(delivery jobscheduler.Delivery) (publishRequest, error) {
	job := delivery.Job
	payload := job.Payload
	if payload == nil {
		payload = map[string]string{}
	}
	body, err := sonic.Marshal(Envelope{
		DispatchID:  delivery.DispatchID,
		Name:        job.Name,
		Queue:       job.Queue,
		DedupKey:    job.DedupKey,
		MaxAttempts: job.Attempts(),
		Payload:     payload,
	})
	if err != nil {
		return publishRequest{}, crerr.Wrap(err, "marshal job envelope")
	}

	target := p.targetBase + JobPathPrefix + url.PathEscape(job.Name)
	req := publishRequest{
		url:    p.publishBase + "/v2/publish/" + target,
		target: target,
		body:   body,
		headers: []publishHeader{
			{name: "Authorization", value: "Bearer " + p.token, secret: true},
			{name: "Content-Type", value: "application/json"},
			{name: "Upstash-Method", value: http.MethodPost},
			{name: "Upstash-Retries", value: strconv.Itoa(job.Attempts() - 1)},
		},
	}
	if job.Delay > 0 {
		req.headers = append(req.headers, publishHeader{name: "Upstash-Delay", value: delaySeconds(job.Delay)})
	}
	if job.DedupKey != "" {
		req.headers = append(req.headers, publishHeader{name: "Upstash-Deduplication-Id", value: job.DedupKey})
	}
	if p.internalJobToken != "" {
		req.headers = append(req.headers, publishHeader{
			name:   "Upstash-Forward-" + InternalJobTokenHeader,
			value:  p.internalJobToken,
			secret: true,
		})
	}
	return req, nil
}

func (r publishRequest) header(name string) string {
	for _, h := range r.headers {
		if h.name == name {
			return h.value
		}
	}
	return ""
}

// curl renders the request as a shell command with secrets masked.
func (r publishRequest) curl() string {
	buf := bytebufferpool.Get()
	defer bytebufferpool.Put(buf)

	_, _ = buf.WriteString("curl -X POST ")
	_, _ = buf.WriteString(shellQuote(r.url))
	for _, h := range r.headers {
		value := h.value
		if h.secret {
			value = maskSecret(h.name, value)
		}
		_, _ = buf.WriteString(" -H ")
		_, _ = buf.WriteString(shellQuote(h.name + ": " + value))
	}
	_, _ = buf.WriteString(" -d ")
	_, _ = buf.WriteString(shellQuote(truncateForLog(string(r.body), maxLoggedBody)))
	return buf.String()
}

func (p *QStashQueue) send(ctx context.Context, req publishRequest) error {
	if p.breaker != nil {
		if err := p.breaker.Allow(); err != nil {
			p.logger.WarnContext(ctx, "qstash circuit breaker rejected request", "state", p.breaker.State())
			return crerr.Wrap(err, "qstash is temporarily unavailable")
		}
	}

	if span := trace.SpanFromContext(ctx); span.IsRecording() {
		span.SetAttributes(
			attribute.String("qstash.publish_url", req.url),
			attribute.String("qstash.target_url", req.target),
			attribute.String("qstash.request_curl_preview", req.curl()),
		)
	}
	if p.logger.Enabled(logging.LevelDebug) {
		p.logger.DebugContext(ctx, "qstash publish request", "target_url", req.target, "curl_preview", req.curl())
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, req.url, bytes.NewReader(req.body))
	if err != nil {
		return crerr.Wrap(err, "create qstash request")
	}
	for _, h := range req.headers {
		httpReq.Header.Set(h.name, h.value)
	}

	resp, err := p.client.Do(httpReq)
	if err != nil {
		err = fmt.Errorf("%w: publish qstash job target_url=%s: %v", errQStashTransient, req.target, err)
		p.recordCircuitResult(err)
		return err
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	err = publishStatusError(resp, req.target)
	p.recordCircuitResult(err)
	return err
}

// publishStatusError maps a non-2xx publish response to an error. Timeouts,
// throttling and 5xx are transient; anything else is final.
func publishStatusError(resp *http.Response, target string) error {
	if resp.StatusCode/100 == 2 {
		return nil
	}
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxLoggedBody))
	detail := fmt.Sprintf("publish qstash job status=%d target_url=%s body=%s", resp.StatusCode, target, strings.TrimSpace(string(raw)))

	switch {
	case resp.StatusCode == http.StatusRequestTimeout,
		resp.StatusCode == http.StatusTooManyRequests,
		resp.StatusCode >= http.StatusInternalServerError:
		return fmt.Errorf("%w: %s", errQStashTransient, detail)
	default:
		return crerr.New(detail)
	}
}

// DecodeDelivery rebuilds a delivery from a QStash callback. retried is the
// Upstash-Retried header, so the attempt is retried+1.
func DecodeDelivery(name string, body []byte, retried int) (jobscheduler.Delivery, error) {
	var env Envelope
	if len(bytes.TrimSpace(body)) > 0 {
		if err := sonic.Unmarshal(body, &env); err != nil {
			return jobscheduler.Delivery{}, crerr.Wrap(err, "decode job envelope")
		}
	}
	name = strings.TrimSpace(name)
	if env.Name != "" && env.Name != name {
		return jobscheduler.Delivery{}, crerr.Newf("job envelope name=%s does not match path name=%s", env.Name, name)
	}
	return jobscheduler.Delivery{
		DispatchID: env.DispatchID,
		Job: jobscheduler.Job{
			Name:        name,
			Queue:       env.Queue,
			Payload:     env.Payload,
			MaxAttempts: env.MaxAttempts,
			DedupKey:    env.DedupKey,
		},
		Attempt: max(retried, 0) + 1,
	}, nil
}

// delaySeconds renders a positive delay in whole seconds, the unit
// Upstash-Delay accepts.
func delaySeconds(delay time.Duration) string {
	return strconv.Itoa(int(delay.Round(time.Second)/time.Second)) + "s"
}

func httpBaseURL(raw string) (string, error) {
	candidate := strings.TrimRight(strings.TrimSpace(raw), "/")
	if candidate == "" {
		return "", crerr.New("value is empty")
	}
	parsed, err := url.Parse(candidate)
	if err != nil {
		return "", crerr.Wrapf(err, "parse %q", candidate)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return "", crerr.Newf("%q uses unsupported scheme=%q; expected http or https", candidate, parsed.Scheme)
	}
	if parsed.Host == "" {
		return "", crerr.Newf("%q has empty host", candidate)
	}
	return candidate, nil
}

func maskSecret(name, value string) string {
	if scheme, _, ok := strings.Cut(value, " "); ok && name == "Authorization" {
		return scheme + " ***"
	}
	return "***"
}

func shellQuote(value string) string {
	return "'" + strings.ReplaceAll(value, "'", `'"'"'`) + "'"
}

func truncateForLog(value string, limit int) string {
	if limit <= 0 || len(value) <= limit {
		return value
	}
	return value[:limit] + "...(truncated)"
}

func (p *QStashQueue) recordCircuitResult(err error) {
	if p.breaker == nil {
		return
	}
	if isQStashTransient(err) {
		p.breaker.RecordFailure()
		return
	}
	p.breaker.RecordSuccess()
}

func isQStashTransient(err error) bool {
	return err != nil && stderrors.Is(err, errQStashTransient)
}
