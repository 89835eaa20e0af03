package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/riskibarqy/sportsfeed/external/feed"
	"github.com/riskibarqy/sportsfeed/internal/domain/batch"
	"github.com/riskibarqy/sportsfeed/internal/domain/jobscheduler"
	"github.com/riskibarqy/sportsfeed/internal/domain/rawdata"
	"github.com/riskibarqy/sportsfeed/internal/domain/sport"
	"github.com/riskibarqy/sportsfeed/internal/normalize"
	"github.com/riskibarqy/sportsfeed/internal/parser"
	"github.com/riskibarqy/sportsfeed/internal/platform/logging"
	"github.com/riskibarqy/sportsfeed/internal/record"
	"go.opentelemetry.io/otel/attribute"
)

// ScrapeSource builds the page descriptors of the rendered cricket portal.
type ScrapeSource interface {
	Name() string
	SeriesList() feed.Source
	SeriesMatches(seriesID, slug string) feed.Source
	Squads(matchID, slug string) feed.Source
	Scorecard(matchID, slug string) feed.Source
}

type PipelineConfig struct {
	SportSlug       string
	Location        *time.Location
	DedupBucket     time.Duration
	SeriesList      JobPolicy
	SeriesMatches   JobPolicy
	MatchSquad      JobPolicy
	MatchScorecard  JobPolicy
	SquadDelay      time.Duration
	ScorecardDelay  time.Duration
	ArchiveMaxBytes int
}

func DefaultPipelineConfig() PipelineConfig {
	return PipelineConfig{
		SportSlug:   "cricket",
		Location:    time.UTC,
		DedupBucket: 5 * time.Minute,
		SeriesList:  JobPolicy{MaxAttempts: 3, Backoff: []time.Duration{60 * time.Second}},
		SeriesMatches: JobPolicy{
			MaxAttempts: 5,
			Backoff:     []time.Duration{60 * time.Second, 120 * time.Second, 300 * time.Second},
		},
		MatchSquad:      JobPolicy{MaxAttempts: 3, Backoff: []time.Duration{60 * time.Second}},
		MatchScorecard:  JobPolicy{MaxAttempts: 3, Backoff: []time.Duration{60 * time.Second}},
		SquadDelay:      5 * time.Second,
		ScorecardDelay:  10 * time.Second,
		ArchiveMaxBytes: 4096,
	}
}

func (c PipelineConfig) withDefaults() PipelineConfig {
	def := DefaultPipelineConfig()
	if strings.TrimSpace(c.SportSlug) == "" {
		c.SportSlug = def.SportSlug
	}
	if c.Location == nil {
		c.Location = def.Location
	}
	if c.DedupBucket <= 0 {
		c.DedupBucket = def.DedupBucket
	}
	if c.SeriesList.MaxAttempts <= 0 {
		c.SeriesList = def.SeriesList
	}
	if c.SeriesMatches.MaxAttempts <= 0 {
		c.SeriesMatches = def.SeriesMatches
	}
	if c.MatchSquad.MaxAttempts <= 0 {
		c.MatchSquad = def.MatchSquad
	}
	if c.MatchScorecard.MaxAttempts <= 0 {
		c.MatchScorecard = def.MatchScorecard
	}
	if c.SquadDelay <= 0 {
		c.SquadDelay = def.SquadDelay
	}
	if c.ScorecardDelay <= 0 {
		c.ScorecardDelay = def.ScorecardDelay
	}
	if c.ArchiveMaxBytes <= 0 {
		c.ArchiveMaxBytes = def.ArchiveMaxBytes
	}
	return c
}

// StageResult summarizes one pipeline stage run.
type StageResult struct {
	Records int
	Written int
	Failed  int
	Queued  int
	Skipped bool
}

// PipelineService runs the series -> matches -> squad/scorecard scrape. Every
// stage is a queue unit whose only input is the identifiers its producer
// emitted.
type PipelineService struct {
	fetcher  feed.Fetcher
	source   ScrapeSource
	sports   sport.Repository
	upserter *UpsertService
	resolver *ResolverService
	queue    JobQueue
	cfg      PipelineConfig
	logger   *logging.Logger
	now      func() time.Time
}

func NewPipelineService(
	fetcher feed.Fetcher,
	source ScrapeSource,
	sports sport.Repository,
	upserter *UpsertService,
	resolver *ResolverService,
	queue JobQueue,
	cfg PipelineConfig,
	logger *logging.Logger,
) *PipelineService {
	if queue == nil {
		queue = NewNoopJobQueue()
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &PipelineService{
		fetcher:  fetcher,
		source:   source,
		sports:   sports,
		upserter: upserter,
		resolver: resolver,
		queue:    queue,
		cfg:      cfg.withDefaults(),
		logger:   logger.Named("pipeline"),
		now:      time.Now,
	}
}

// Handlers maps every scrape job name to its stage.
func (s *PipelineService) Handlers() map[string]jobscheduler.Handler {
	return map[string]jobscheduler.Handler{
		JobSeriesList: func(ctx context.Context, d jobscheduler.Delivery) error {
			_, err := s.HandleSeriesList(ctx, d)
			return err
		},
		JobSeriesMatches: func(ctx context.Context, d jobscheduler.Delivery) error {
			_, err := s.HandleSeriesMatches(ctx, d)
			return err
		},
		JobMatchSquad: func(ctx context.Context, d jobscheduler.Delivery) error {
			_, err := s.HandleMatchSquad(ctx, d)
			return err
		},
		JobMatchScorecard: func(ctx context.Context, d jobscheduler.Delivery) error {
			_, err := s.HandleMatchScorecard(ctx, d)
			return err
		},
	}
}

// TriggerSeriesList queues the head of the scrape pipeline.
func (s *PipelineService) TriggerSeriesList(ctx context.Context) (string, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.PipelineService.TriggerSeriesList")
	defer span.End()

	key := dedupKey(JobSeriesList, s.cfg.SportSlug, s.now(), s.cfg.DedupBucket)
	job := s.cfg.SeriesList.apply(jobscheduler.Job{
		Name:     JobSeriesList,
		Queue:    QueueScrape,
		Payload:  map[string]string{"sport": s.cfg.SportSlug},
		DedupKey: key,
	})
	if err := s.queue.Enqueue(ctx, job); err != nil {
		return "", fmt.Errorf("%w: enqueue %s: %w", ErrDependencyUnavailable, JobSeriesList, err)
	}
	return key, nil
}

func (s *PipelineService) HandleSeriesList(ctx context.Context, _ jobscheduler.Delivery) (StageResult, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.PipelineService.HandleSeriesList")
	defer span.End()

	item, err := s.sport(ctx)
	if err != nil {
		return StageResult{}, err
	}

	src := s.source.SeriesList()
	payload, ok, err := s.fetch(ctx, JobSeriesList, src)
	if err != nil || !ok {
		return StageResult{Skipped: !ok}, err
	}

	series, err := parser.ParseSeriesList(payload.Body, payload.FinalURL)
	if err != nil {
		s.archiveParseFailure(ctx, item, "series_list", "all", payload, err)
		return StageResult{Skipped: true}, nil
	}
	s.archivePage(ctx, item, "series_list", "all", payload)

	inputs := make([]FixtureInput, 0, len(series))
	for _, entry := range series {
		if entry.ID == "" {
			s.logger.WarnContext(ctx, "series without id skipped", "name", entry.Name, "url", entry.URL)
			continue
		}
		inputs = append(inputs, FixtureInput{
			SportID:    item.ID,
			ExternalID: entry.ID,
			Name:       entry.Name,
			Country:    normalize.CountryFromLeague(entry.Name),
			Season:     firstNonBlank(normalize.SeasonFromText(entry.DateRange), normalize.SeasonFromText(entry.Name)),
			Metadata: map[string]any{
				"series_slug": entry.Slug,
				"url":         entry.URL,
				"date_range":  entry.DateRange,
				"month":       entry.Month,
			},
		})
	}

	written, err := s.upserter.UpsertFixtures(ctx, inputs)
	if err != nil {
		return StageResult{}, err
	}
	result := StageResult{Records: len(series), Written: written.Written, Failed: written.Failed}
	if err := persistenceFailure(written); err != nil {
		return result, fmt.Errorf("upsert series fixtures: %w", err)
	}

	for _, entry := range series {
		if entry.ID == "" || entry.Slug == "" {
			continue
		}
		job := s.cfg.SeriesMatches.apply(jobscheduler.Job{
			Name:     JobSeriesMatches,
			Queue:    QueueScrape,
			Payload:  map[string]string{"series_id": entry.ID, "slug": entry.Slug},
			DedupKey: dedupKey(JobSeriesMatches, entry.ID, s.now(), s.cfg.DedupBucket),
		})
		if err := s.queue.Enqueue(ctx, job); err != nil {
			return result, fmt.Errorf("enqueue %s series_id=%s: %w", JobSeriesMatches, entry.ID, err)
		}
		result.Queued++
	}

	s.logger.InfoContext(ctx, "series list processed",
		"series", len(series),
		"fixtures_written", written.Written,
		"fixtures_failed", written.Failed,
		"queued", result.Queued,
	)
	return result, nil
}

func (s *PipelineService) HandleSeriesMatches(ctx context.Context, d jobscheduler.Delivery) (StageResult, error) {
	seriesID, slug := d.Job.Param("series_id"), d.Job.Param("slug")
	ctx, span := startUsecaseSpan(ctx, "usecase.PipelineService.HandleSeriesMatches",
		attribute.String("series_id", seriesID),
		attribute.Int("attempt", d.Attempt),
	)
	defer span.End()

	if seriesID == "" || slug == "" {
		s.logger.ErrorContext(ctx, "series matches job without identifiers", "payload", d.Job.Payload)
		return StageResult{Skipped: true}, nil
	}

	item, err := s.sport(ctx)
	if err != nil {
		return StageResult{}, err
	}

	payload, ok, err := s.fetch(ctx, JobSeriesMatches, s.source.SeriesMatches(seriesID, slug))
	if err != nil || !ok {
		return StageResult{Skipped: !ok}, err
	}

	matches, err := parser.ParseMatchList(payload.Body, payload.FinalURL)
	if err != nil {
		s.archiveParseFailure(ctx, item, "series_matches", seriesID, payload, err)
		return StageResult{Skipped: true}, nil
	}
	s.archivePage(ctx, item, "series_matches", seriesID, payload)

	fx, _, err := s.resolver.ResolveFixture(ctx, FixtureCandidate{
		SportID:    item.ID,
		ExternalID: seriesID,
		Name:       nameFromSlug(slug),
		Metadata:   map[string]any{"series_slug": slug},
	})
	if err != nil {
		return StageResult{}, err
	}
	fixtureRef := &fx.ID

	result := StageResult{Records: len(matches)}
	now := s.now()
	var persistErrs []error
	for _, entry := range matches {
		if entry.HomeTeam == "" || entry.AwayTeam == "" {
			s.logger.WarnContext(ctx, "match without teams skipped", "series_id", seriesID, "title", entry.Title)
			result.Failed++
			continue
		}

		status := normalize.ScrapeStatus(entry.Phrase)
		when := scheduleText(entry)
		start, err := normalize.Time("", "", when, sport.KindCricket, s.cfg.Location, now)
		if err != nil {
			s.logger.WarnContext(ctx, "match start time not parsed", "match_id", entry.ID, "date_time", when, "error", err)
		}

		_, _, err = s.upserter.UpsertMatch(ctx, MatchInput{
			SportID:         item.ID,
			ExternalMatchID: entry.ID,
			HomeTeam:        entry.HomeTeam,
			AwayTeam:        entry.AwayTeam,
			Status:          status,
			Result:          entry.StatusText,
			StartTime:       start,
			Metadata: map[string]any{
				"match_slug":    entry.Slug,
				"url":           entry.URL,
				"squad_url":     entry.SquadURL,
				"scorecard_url": entry.ScorecardURL,
				"venue":         entry.Venue,
			},
		}, fixtureRef)
		if err != nil {
			result.Failed++
			if errors.Is(err, ErrPersistence) {
				s.logger.ErrorContext(ctx, "match upsert failed", "match_id", entry.ID, "title", entry.Title, "error", err)
				persistErrs = append(persistErrs, fmt.Errorf("upsert match external_match_id=%s: %w", entry.ID, err))
				continue
			}
			s.logger.ErrorContext(ctx, "match upsert rejected", "match_id", entry.ID, "title", entry.Title, "error", err)
			continue
		}
		result.Written++

		if entry.ID == "" || entry.Slug == "" || status.IsFinished() {
			continue
		}
		queued, err := s.enqueueMatchDetails(ctx, entry, now)
		result.Queued += queued
		if err != nil {
			return result, err
		}
	}

	s.logger.InfoContext(ctx, "series matches processed",
		"series_id", seriesID,
		"matches", len(matches),
		"written", result.Written,
		"failed", result.Failed,
		"queued", result.Queued,
	)
	if len(persistErrs) > 0 {
		return result, failSpan(span, fmt.Errorf("series_id=%s: %d of %d matches not stored: %w", seriesID, len(persistErrs), len(matches), errors.Join(persistErrs...)))
	}
	return result, nil
}

// scheduleText joins the date column with the time column ("Jul 05, Sat, 9:30
// AM / 3:15 PM LOCAL"). An unannounced time yields "".
func scheduleText(entry record.HTMLMatch) string {
	timeText := strings.TrimSpace(entry.TimeText)
	if timeText == "" || strings.EqualFold(timeText, "n/a") {
		return ""
	}
	if entry.DateTime != "" {
		return entry.DateTime
	}
	return timeText
}

func (s *PipelineService) enqueueMatchDetails(ctx context.Context, entry record.HTMLMatch, now time.Time) (int, error) {
	payload := map[string]string{"match_id": entry.ID, "slug": entry.Slug}
	jobs := []jobscheduler.Job{
		s.cfg.MatchSquad.apply(jobscheduler.Job{
			Name:     JobMatchSquad,
			Queue:    QueueScrape,
			Payload:  payload,
			Delay:    s.cfg.SquadDelay,
			DedupKey: dedupKey(JobMatchSquad, entry.ID, now, s.cfg.DedupBucket),
		}),
		s.cfg.MatchScorecard.apply(jobscheduler.Job{
			Name:     JobMatchScorecard,
			Queue:    QueueScrape,
			Payload:  payload,
			Delay:    s.cfg.ScorecardDelay,
			DedupKey: dedupKey(JobMatchScorecard, entry.ID, now, s.cfg.DedupBucket),
		}),
	}
	queued := 0
	for _, job := range jobs {
		if err := s.queue.Enqueue(ctx, job); err != nil {
			return queued, fmt.Errorf("enqueue %s match_id=%s: %w", job.Name, entry.ID, err)
		}
		queued++
	}
	return queued, nil
}

func (s *PipelineService) HandleMatchSquad(ctx context.Context, d jobscheduler.Delivery) (StageResult, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.PipelineService.HandleMatchSquad")
	defer span.End()

	matchID, slug := d.Job.Param("match_id"), d.Job.Param("slug")
	if matchID == "" || slug == "" {
		s.logger.ErrorContext(ctx, "match squad job without identifiers", "payload", d.Job.Payload)
		return StageResult{Skipped: true}, nil
	}

	item, err := s.sport(ctx)
	if err != nil {
		return StageResult{}, err
	}

	payload, ok, err := s.fetch(ctx, JobMatchSquad, s.source.Squads(matchID, slug))
	if err != nil || !ok {
		return StageResult{Skipped: !ok}, err
	}

	squads, err := parser.ParseSquads(payload.Body)
	if err != nil {
		s.archiveParseFailure(ctx, item, "match_squad", matchID, payload, err)
		return StageResult{Skipped: true}, nil
	}
	if len(squads) == 0 {
		s.logger.InfoContext(ctx, "no squads published yet", "match_id", matchID)
		return StageResult{Skipped: true}, nil
	}

	if _, err := s.upserter.UpsertSquads(ctx, matchID, squads); err != nil {
		if errors.Is(err, ErrNotFound) {
			s.logger.WarnContext(ctx, "squads for unknown match skipped", "match_id", matchID)
			return StageResult{Records: len(squads), Skipped: true}, nil
		}
		return StageResult{}, err
	}
	return StageResult{Records: len(squads), Written: 1}, nil
}

func (s *PipelineService) HandleMatchScorecard(ctx context.Context, d jobscheduler.Delivery) (StageResult, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.PipelineService.HandleMatchScorecard")
	defer span.End()

	matchID, slug := d.Job.Param("match_id"), d.Job.Param("slug")
	if matchID == "" || slug == "" {
		s.logger.ErrorContext(ctx, "match scorecard job without identifiers", "payload", d.Job.Payload)
		return StageResult{Skipped: true}, nil
	}

	item, err := s.sport(ctx)
	if err != nil {
		return StageResult{}, err
	}

	payload, ok, err := s.fetch(ctx, JobMatchScorecard, s.source.Scorecard(matchID, slug))
	if err != nil || !ok {
		return StageResult{Skipped: !ok}, err
	}

	card, err := parser.ParseScorecard(payload.Body)
	if err != nil {
		s.archiveParseFailure(ctx, item, "match_scorecard", matchID, payload, err)
		return StageResult{Skipped: true}, nil
	}
	if len(card.Innings) == 0 && card.Result == "" {
		s.logger.InfoContext(ctx, "scorecard not available yet", "match_id", matchID)
		return StageResult{Skipped: true}, nil
	}

	if _, err := s.upserter.UpsertScorecard(ctx, item.ID, matchID, card, s.source.Name()); err != nil {
		if errors.Is(err, ErrNotFound) {
			s.logger.WarnContext(ctx, "scorecard for unknown match skipped", "match_id", matchID)
			return StageResult{Records: len(card.Innings), Skipped: true}, nil
		}
		return StageResult{}, err
	}
	return StageResult{Records: len(card.Innings), Written: 1}, nil
}

func (s *PipelineService) sport(ctx context.Context) (sport.Sport, error) {
	item, ok, err := s.sports.GetBySlug(ctx, s.cfg.SportSlug)
	if err != nil {
		return sport.Sport{}, fmt.Errorf("%w: get sport slug=%s: %w", ErrPersistence, s.cfg.SportSlug, err)
	}
	if !ok {
		return sport.Sport{}, fmt.Errorf("%w: sport slug=%s", ErrNotFound, s.cfg.SportSlug)
	}
	return item, nil
}

// fetch reports an upstream failure that survived the fetcher's own retries as
// a skipped stage rather than an error.
func (s *PipelineService) fetch(ctx context.Context, stage string, src feed.Source) (feed.RawPayload, bool, error) {
	payload, err := s.fetcher.Fetch(ctx, src)
	if err == nil {
		return payload, true, nil
	}
	var fetchErr *feed.FetchError
	if errors.As(err, &fetchErr) {
		s.logger.WarnContext(ctx, "upstream fetch failed, stage skipped",
			"stage", stage,
			"url", src.URL,
			"kind", fetchErr.Kind,
			"status", fetchErr.Status,
			"error", err,
		)
		return feed.RawPayload{}, false, nil
	}
	return feed.RawPayload{}, false, err
}

func (s *PipelineService) archivePage(ctx context.Context, item sport.Sport, entityType, key string, payload feed.RawPayload) {
	err := s.upserter.ArchiveRaw(ctx, []rawdata.Payload{{
		Source:      s.source.Name(),
		EntityType:  entityType,
		EntityKey:   key,
		SportSlug:   item.Slug,
		ContentType: contentType(payload.Kind),
		Payload:     string(payload.Body),
		FetchedAt:   payload.FetchedAt,
	}})
	if err != nil {
		s.logger.WarnContext(ctx, "archive raw page failed", "entity_type", entityType, "entity_key", key, "error", err)
	}
}

func (s *PipelineService) archiveParseFailure(ctx context.Context, item sport.Sport, entityType, key string, payload feed.RawPayload, parseErr error) {
	sample := truncate(string(payload.Body), s.cfg.ArchiveMaxBytes)
	s.logger.ErrorContext(ctx, "payload parse failed",
		"source", s.source.Name(),
		"entity_type", entityType,
		"entity_key", key,
		"url", payload.FinalURL,
		"sample", truncate(sample, 512),
		"error", parseErr,
	)
	err := s.upserter.ArchiveRaw(ctx, []rawdata.Payload{{
		Source:      s.source.Name(),
		EntityType:  entityType + ".parse_error",
		EntityKey:   key,
		SportSlug:   item.Slug,
		ContentType: contentType(payload.Kind),
		Payload:     sample,
		ParseError:  parseErr.Error(),
		FetchedAt:   payload.FetchedAt,
	}})
	if err != nil {
		s.logger.WarnContext(ctx, "archive parse failure sample failed", "entity_type", entityType, "entity_key", key, "error", err)
	}
}

func persistenceFailure(result batch.Result) error {
	for _, err := range result.Errors {
		if errors.Is(err, ErrPersistence) {
			return err
		}
	}
	return nil
}

func contentType(kind feed.Kind) string {
	switch kind {
	case feed.KindHTML:
		return "text/html"
	case feed.KindJSON:
		return "application/json"
	default:
		return "application/xml"
	}
}

func nameFromSlug(slug string) string {
	words := strings.Fields(strings.ReplaceAll(slug, "-", " "))
	for i, word := range words {
		words[i] = strings.ToUpper(word[:1]) + word[1:]
	}
	return strings.Join(words, " ")
}

func truncate(value string, max int) string {
	if max <= 0 || len(value) <= max {
		return value
	}
	cut := max
	for cut > 0 && !utf8.RuneStart(value[cut]) {
		cut--
	}
	return value[:cut]
}
