package usecase

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"github.com/riskibarqy/sportsfeed/external/feed"
	"github.com/riskibarqy/sportsfeed/internal/domain/jobscheduler"
	"github.com/riskibarqy/sportsfeed/internal/domain/match"
	"github.com/riskibarqy/sportsfeed/internal/domain/rawdata"
	"github.com/riskibarqy/sportsfeed/internal/domain/score"
	"github.com/riskibarqy/sportsfeed/internal/domain/sport"
	"github.com/riskibarqy/sportsfeed/internal/normalize"
	"github.com/riskibarqy/sportsfeed/internal/parser"
	"github.com/riskibarqy/sportsfeed/internal/platform/cache"
	"github.com/riskibarqy/sportsfeed/internal/platform/logging"
	"github.com/riskibarqy/sportsfeed/internal/record"
	"github.com/sourcegraph/conc/pool"
	"go.opentelemetry.io/otel/attribute"
)

const EventMatchesUpdated = "matches.updated"

// LiveSource builds the descriptors of the live-data provider feeds.
type LiveSource interface {
	Name() string
	LeagueMappings(item sport.Sport) feed.Source
	LiveScores(item sport.Sport) feed.Source
}

// ChangeEvent tells subscribers that a sport's matches changed.
type ChangeEvent struct {
	Event      string    `json:"event"`
	Sport      string    `json:"sport"`
	Count      int       `json:"count"`
	OccurredAt time.Time `json:"occurred_at"`
}

type ChangeNotifier interface {
	Notify(ctx context.Context, event ChangeEvent) error
}

type LiveScoreConfig struct {
	MappingTTL  time.Duration
	Workers     int
	Location    *time.Location
	Policy      JobPolicy
	DedupBucket time.Duration
}

func (c LiveScoreConfig) withDefaults() LiveScoreConfig {
	if c.MappingTTL <= 0 {
		c.MappingTTL = 24 * time.Hour
	}
	if c.Workers <= 0 {
		c.Workers = 8
	}
	if c.Location == nil {
		c.Location = time.UTC
	}
	if c.Policy.MaxAttempts <= 0 {
		c.Policy = JobPolicy{MaxAttempts: 3, Backoff: []time.Duration{60 * time.Second}}
	}
	if c.DedupBucket <= 0 {
		c.DedupBucket = time.Minute
	}
	return c
}

type LiveResult struct {
	Sport     string `json:"sport"`
	Records   int    `json:"records"`
	Processed int    `json:"processed"`
	Skipped   int    `json:"skipped"`
	Failed    int    `json:"failed"`
}

// LiveScoreService runs one live cycle per sport. It only creates fixtures it
// has never seen and only moves match status and score forward.
type LiveScoreService struct {
	fetcher   feed.Fetcher
	source    LiveSource
	sports    sport.Repository
	matchRepo match.Repository
	upserter  *UpsertService
	resolver  *ResolverService
	cache     cache.Backend
	notifier  ChangeNotifier
	queue     JobQueue
	cfg       LiveScoreConfig
	logger    *logging.Logger
	now       func() time.Time
}

func NewLiveScoreService(
	fetcher feed.Fetcher,
	source LiveSource,
	sports sport.Repository,
	matchRepo match.Repository,
	upserter *UpsertService,
	resolver *ResolverService,
	cacheBackend cache.Backend,
	notifier ChangeNotifier,
	queue JobQueue,
	cfg LiveScoreConfig,
	logger *logging.Logger,
) *LiveScoreService {
	if queue == nil {
		queue = NewNoopJobQueue()
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &LiveScoreService{
		fetcher:   fetcher,
		source:    source,
		sports:    sports,
		matchRepo: matchRepo,
		upserter:  upserter,
		resolver:  resolver,
		cache:     cacheBackend,
		notifier:  notifier,
		queue:     queue,
		cfg:       cfg.withDefaults(),
		logger:    logger.Named("live"),
		now:       time.Now,
	}
}

func (s *LiveScoreService) Handlers() map[string]jobscheduler.Handler {
	return map[string]jobscheduler.Handler{
		JobLiveScores: func(ctx context.Context, d jobscheduler.Delivery) error {
			slug := d.Job.Param("sport")
			if slug == "" {
				s.logger.ErrorContext(ctx, "live job without sport", "payload", d.Job.Payload)
				return nil
			}
			_, err := s.Run(ctx, slug)
			return err
		},
	}
}

// Trigger queues a live cycle for one sport.
func (s *LiveScoreService) Trigger(ctx context.Context, slug string) (string, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.LiveScoreService.Trigger", attribute.String("sport", slug))
	defer span.End()

	slug = strings.ToLower(strings.TrimSpace(slug))
	if slug == "" {
		return "", fmt.Errorf("%w: sport is required", ErrInvalidInput)
	}
	if _, ok, err := s.sports.GetBySlug(ctx, slug); err != nil {
		return "", fmt.Errorf("%w: get sport slug=%s: %w", ErrPersistence, slug, err)
	} else if !ok {
		return "", fmt.Errorf("%w: sport slug=%s", ErrNotFound, slug)
	}

	key := dedupKey(JobLiveScores, slug, s.now(), s.cfg.DedupBucket)
	job := s.cfg.Policy.apply(jobscheduler.Job{
		Name:     JobLiveScores,
		Queue:    QueueLive,
		Payload:  map[string]string{"sport": slug},
		DedupKey: key,
	})
	if err := s.queue.Enqueue(ctx, job); err != nil {
		return "", failSpan(span, fmt.Errorf("%w: enqueue %s sport=%s: %w", ErrDependencyUnavailable, JobLiveScores, slug, err))
	}
	return key, nil
}

// TriggerAll queues a live cycle for every sport with live ingestion enabled.
func (s *LiveScoreService) TriggerAll(ctx context.Context) ([]string, error) {
	items, err := s.sports.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: list sports: %w", ErrPersistence, err)
	}
	keys := make([]string, 0, len(items))
	var errs []error
	for _, item := range items {
		if !item.LiveEnabled {
			continue
		}
		key, err := s.Trigger(ctx, item.Slug)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		keys = append(keys, key)
	}
	return keys, errors.Join(errs...)
}

// Run fetches the sport's live feed and writes every record. A record failure
// never aborts its siblings; persistence failures fail the cycle afterwards so
// the queue retries it.
func (s *LiveScoreService) Run(ctx context.Context, slug string) (LiveResult, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.LiveScoreService.Run", attribute.String("sport", slug))
	defer span.End()

	item, ok, err := s.sports.GetBySlug(ctx, slug)
	if err != nil {
		return LiveResult{}, failSpan(span, fmt.Errorf("%w: get sport slug=%s: %w", ErrPersistence, slug, err))
	}
	if !ok {
		return LiveResult{}, fmt.Errorf("%w: sport slug=%s", ErrNotFound, slug)
	}
	result := LiveResult{Sport: item.Slug}

	leagues := s.leagueNames(ctx, item)

	src := s.source.LiveScores(item)
	payload, err := s.fetcher.Fetch(ctx, src)
	if err != nil {
		var fetchErr *feed.FetchError
		if errors.As(err, &fetchErr) {
			s.logger.WarnContext(ctx, "live feed fetch failed, cycle skipped", "sport", item.Slug, "kind", fetchErr.Kind, "status", fetchErr.Status, "error", err)
			return result, nil
		}
		return result, err
	}

	records, err := s.parseLive(item, payload)
	if err != nil {
		s.archiveParseFailure(ctx, item, "live_scores", payload, err)
		return result, nil
	}
	result.Records = len(records)

	var processed, skipped, failed atomic.Int32
	p := pool.New().WithErrors().WithMaxGoroutines(s.cfg.Workers)
	for _, rec := range records {
		p.Go(func() error {
			written, err := s.processRecord(ctx, item, leagues, rec)
			switch {
			case err != nil:
				failed.Add(1)
				s.logger.ErrorContext(ctx, "live record failed", "sport", item.Slug, "match_id", rec.ID, "record", rec.Attributes, "error", err)
				if errors.Is(err, ErrPersistence) {
					return err
				}
			case written:
				processed.Add(1)
			default:
				skipped.Add(1)
			}
			return nil
		})
	}
	poolErr := p.Wait()

	result.Processed = int(processed.Load())
	result.Skipped = int(skipped.Load())
	result.Failed = int(failed.Load())

	if result.Processed > 0 && s.notifier != nil {
		event := ChangeEvent{Event: EventMatchesUpdated, Sport: item.Slug, Count: result.Processed, OccurredAt: s.now().UTC()}
		if err := s.notifier.Notify(ctx, event); err != nil {
			s.logger.WarnContext(ctx, "notify matches updated failed", "sport", item.Slug, "error", err)
		}
	}

	s.logger.InfoContext(ctx, "live cycle completed",
		"sport", item.Slug,
		"records", result.Records,
		"processed", result.Processed,
		"skipped", result.Skipped,
		"failed", result.Failed,
	)
	if poolErr != nil {
		return result, fmt.Errorf("live cycle sport=%s: %w", item.Slug, poolErr)
	}
	return result, nil
}

// leagueNames returns league id -> display name. Mapping failures degrade to
// category names from the live feed.
func (s *LiveScoreService) leagueNames(ctx context.Context, item sport.Sport) map[string]record.LeagueMapping {
	key := cache.Key("league_mappings", s.source.Name(), item.Slug)
	mappings, err := cache.Remember(ctx, s.cache, key, s.cfg.MappingTTL, func(ctx context.Context) ([]record.LeagueMapping, error) {
		return s.refreshMappings(ctx, item)
	})
	if err != nil {
		s.logger.WarnContext(ctx, "league mappings unavailable", "sport", item.Slug, "error", err)
	}

	out := make(map[string]record.LeagueMapping, len(mappings))
	for _, mapping := range mappings {
		out[mapping.ID] = mapping
	}
	return out
}

// refreshMappings runs on a cache miss: it fetches the mapping table and
// refreshes the fixture rows it names.
func (s *LiveScoreService) refreshMappings(ctx context.Context, item sport.Sport) ([]record.LeagueMapping, error) {
	payload, err := s.fetcher.Fetch(ctx, s.source.LeagueMappings(item))
	if err != nil {
		return nil, fmt.Errorf("fetch league mappings: %w", err)
	}
	mappings, err := parser.ParseLeagueMappingXML(payload.Body)
	if err != nil {
		s.archiveParseFailure(ctx, item, "league_mappings", payload, err)
		return nil, err
	}

	inputs := make([]FixtureInput, 0, len(mappings))
	for _, mapping := range mappings {
		inputs = append(inputs, FixtureInput{
			SportID:    item.ID,
			ExternalID: mapping.ID,
			Name:       mapping.Name,
			Country:    firstNonBlank(mapping.Country, normalize.CountryFromLeague(mapping.Name)),
			Season:     firstNonBlank(mapping.Season, normalize.SeasonFromText(mapping.Name)),
			Metadata:   map[string]any{"source": s.source.Name()},
		})
	}
	written, err := s.upserter.UpsertFixtures(ctx, inputs)
	if err != nil {
		return nil, err
	}
	if err := persistenceFailure(written); err != nil {
		return nil, fmt.Errorf("refresh fixtures from league mappings: %w", err)
	}
	s.logger.InfoContext(ctx, "league mappings refreshed", "sport", item.Slug, "mappings", len(mappings), "fixtures_written", written.Written)
	return mappings, nil
}

func (s *LiveScoreService) parseLive(item sport.Sport, payload feed.RawPayload) ([]record.LiveMatch, error) {
	if payload.Kind == feed.KindJSON || item.LiveFormat == sport.FormatJSON {
		return parser.ParseLiveJSON(payload.Body)
	}
	return parser.ParseScoresXML(payload.Body)
}

// processRecord reports false without error for records it deliberately skips.
func (s *LiveScoreService) processRecord(ctx context.Context, item sport.Sport, leagues map[string]record.LeagueMapping, rec record.LiveMatch) (bool, error) {
	matchID := strings.TrimSpace(rec.ID)
	leagueID := strings.TrimSpace(rec.CategoryID)
	fixID := strings.TrimSpace(rec.FixID)
	if matchID == "" || fixID == "" || leagueID == "" {
		s.logger.WarnContext(ctx, "live record without identifiers skipped",
			"sport", item.Slug,
			"match_id", matchID,
			"fix_id", fixID,
			"league_id", leagueID,
		)
		return false, nil
	}

	leagueName := firstNonBlank(leagues[leagueID].Name, rec.CategoryName, "Unknown League")
	fx, _, err := s.resolver.ResolveFixture(ctx, FixtureCandidate{
		SportID:    item.ID,
		ExternalID: leagueID,
		Name:       leagueName,
		Country:    normalize.CountryFromLeague(rec.CategoryName),
		Date:       rec.Date,
		Metadata:   map[string]any{"source": s.source.Name()},
	})
	if err != nil {
		return false, err
	}

	now := s.now()
	status := normalize.Status(rec.Status, item.Kind)
	start, err := normalize.Time(rec.Date, rec.FormattedDate, rec.Time, item.Kind, s.cfg.Location, now)
	if err != nil {
		s.logger.WarnContext(ctx, "live match time not parsed", "match_id", matchID, "date", rec.Date, "time", rec.Time, "error", err)
	}
	liveStats, err := normalize.DecodeLiveStats(rec.LiveStats)
	if err != nil {
		s.logger.WarnContext(ctx, "live stats not decoded", "match_id", matchID, "error", err)
	}
	metadata := map[string]any{
		"venue":      rec.Venue,
		"live_stats": liveStats,
		"fix_id":     fixID,
		"source":     s.source.Name(),
	}

	saved, err := s.writeMatch(ctx, MatchInput{
		SportID:         item.ID,
		ExternalMatchID: matchID,
		HomeTeam:        firstNonBlank(rec.LocalTeam.Name, "Unknown"),
		AwayTeam:        firstNonBlank(rec.VisitorTeam.Name, "Unknown"),
		Status:          status,
		StartTime:       start,
		League:          leagueName,
		Metadata:        metadata,
	}, fx.ID)
	if err != nil {
		return false, err
	}

	data, err := liveScoreData(item, rec, status)
	if err != nil {
		return false, fmt.Errorf("%w: encode score match_id=%s: %v", ErrInvalidInput, matchID, err)
	}
	if _, _, err := s.upserter.UpsertScore(ctx, saved.ID, data, map[string]any{
		"source":     s.source.Name(),
		"record":     string(rec.Kind()),
		"updated_at": now.UTC().Format(time.RFC3339),
	}); err != nil {
		return false, err
	}
	return true, nil
}

// writeMatch creates unseen matches; known matches only get status and live
// metadata so the schedule scrape stays the owner of everything else.
func (s *LiveScoreService) writeMatch(ctx context.Context, input MatchInput, fixtureID int64) (match.Match, error) {
	resolution, err := s.resolver.ResolveMatch(ctx, input.candidate())
	if err != nil {
		return match.Match{}, err
	}
	if resolution.Match == nil {
		fixtureRef := fixtureID
		saved, _, err := s.upserter.UpsertMatch(ctx, input, &fixtureRef)
		return saved, err
	}

	existing := *resolution.Match
	if err := s.matchRepo.UpdateLiveState(ctx, existing.ID, input.Status, input.Metadata); err != nil {
		return match.Match{}, fmt.Errorf("%w: update live state match_id=%d: %w", ErrPersistence, existing.ID, err)
	}
	existing.Status = input.Status
	return existing, nil
}

func liveScoreData(item sport.Sport, rec record.LiveMatch, status match.Status) (map[string]any, error) {
	if item.IsCricket() {
		innings := make([]score.Innings, 0, len(rec.Innings))
		for _, inn := range rec.Innings {
			innings = append(innings, score.Innings{Team: inn.Team, Runs: inn.Runs, Wickets: inn.Wickets, Overs: inn.Overs})
		}
		events := make([]map[string]string, 0, len(rec.Events))
		for _, ev := range rec.Events {
			events = append(events, ev.Attributes)
		}
		return score.Encode(score.CricketScore{
			Innings:     innings,
			MatchStatus: string(status),
			Events:      events,
		})
	}

	return score.Encode(score.InvasionScore{
		HomeScore:          goals(rec.LocalTeam.Goals),
		AwayScore:          goals(rec.VisitorTeam.Goals),
		HalfTimeScore:      normalize.SanitizeScore(rec.HT),
		FullTimeScore:      normalize.SanitizeScore(rec.FT),
		ExtraTimeScore:     normalize.SanitizeScore(rec.ET),
		Periods:            rec.Periods,
		MatchStatus:        string(status),
		GoalEvents:         normalize.EventsByType(rec.Events, "goal"),
		RedCardEvents:      normalize.EventsByType(rec.Events, "redcard"),
		YellowCardEvents:   normalize.EventsByType(rec.Events, "yellowcard"),
		SubstitutionEvents: normalize.EventsByType(rec.Events, "substitution"),
	})
}

func goals(raw string) int {
	value, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || value < 0 {
		return 0
	}
	return value
}

func (s *LiveScoreService) archiveParseFailure(ctx context.Context, item sport.Sport, entityType string, payload feed.RawPayload, parseErr error) {
	sample := truncate(string(payload.Body), 4096)
	s.logger.ErrorContext(ctx, "payload parse failed",
		"source", s.source.Name(),
		"sport", item.Slug,
		"entity_type", entityType,
		"sample", truncate(sample, 512),
		"error", parseErr,
	)
	err := s.upserter.ArchiveRaw(ctx, []rawdata.Payload{{
		Source:      s.source.Name(),
		EntityType:  entityType + ".parse_error",
		EntityKey:   item.Slug,
		SportSlug:   item.Slug,
		ContentType: contentType(payload.Kind),
		Payload:     sample,
		ParseError:  parseErr.Error(),
		FetchedAt:   payload.FetchedAt,
	}})
	if err != nil {
		s.logger.WarnContext(ctx, "archive parse failure sample failed", "entity_type", entityType, "error", err)
	}
}
