package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/riskibarqy/sportsfeed/internal/domain/batch"
	"github.com/riskibarqy/sportsfeed/internal/domain/fixture"
	"github.com/riskibarqy/sportsfeed/internal/domain/match"
	"github.com/riskibarqy/sportsfeed/internal/domain/matchdetail"
	"github.com/riskibarqy/sportsfeed/internal/domain/rawdata"
	"github.com/riskibarqy/sportsfeed/internal/domain/score"
	"github.com/riskibarqy/sportsfeed/internal/platform/logging"
	"github.com/riskibarqy/sportsfeed/internal/record"
	"github.com/sourcegraph/conc/pool"
)

type FixtureInput struct {
	SportID    int64  `validate:"gt=0"`
	ExternalID string `validate:"required"`
	Name       string `validate:"required"`
	Country    string
	Season     string
	Metadata   map[string]any
}

type MatchInput struct {
	SportID         int64  `validate:"gt=0"`
	ExternalMatchID string `validate:"omitempty,max=64"`
	HomeTeam        string `validate:"required"`
	AwayTeam        string `validate:"required"`
	Status          match.Status
	Result          string
	StartTime       *time.Time
	League          string
	Metadata        map[string]any
}

func (in MatchInput) candidate() MatchCandidate {
	return MatchCandidate{
		SportID:         in.SportID,
		ExternalMatchID: in.ExternalMatchID,
		HomeTeam:        in.HomeTeam,
		AwayTeam:        in.AwayTeam,
		StartTime:       in.StartTime,
	}
}

func (in MatchInput) toDomain(fixtureRef *int64) match.Match {
	status := in.Status
	if status == "" {
		status = match.StatusUnknown
	}
	return match.Match{
		SportID:         in.SportID,
		FixtureID:       fixtureRef,
		ExternalMatchID: strings.TrimSpace(in.ExternalMatchID),
		HomeTeam:        strings.TrimSpace(in.HomeTeam),
		AwayTeam:        strings.TrimSpace(in.AwayTeam),
		Status:          status,
		Result:          strings.TrimSpace(in.Result),
		StartTime:       in.StartTime,
		League:          strings.TrimSpace(in.League),
		Metadata:        in.Metadata,
	}
}

type UpsertConfig struct {
	BatchSize int
	Workers   int
}

type UpsertService struct {
	fixtureRepo fixture.Repository
	matchRepo   match.Repository
	scoreRepo   score.Repository
	detailRepo  matchdetail.Repository
	rawRepo     rawdata.Repository
	resolver    *ResolverService
	validator   *validator.Validate
	cfg         UpsertConfig
	logger      *logging.Logger
	now         func() time.Time
}

func NewUpsertService(
	fixtureRepo fixture.Repository,
	matchRepo match.Repository,
	scoreRepo score.Repository,
	detailRepo matchdetail.Repository,
	rawRepo rawdata.Repository,
	resolver *ResolverService,
	cfg UpsertConfig,
	logger *logging.Logger,
) *UpsertService {
	if logger == nil {
		logger = logging.Default()
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 100
	}
	if cfg.Workers <= 0 {
		cfg.Workers = 4
	}
	if resolver == nil {
		resolver = NewResolverService(matchRepo, fixtureRepo, DefaultResolverWindow, logger)
	}
	return &UpsertService{
		fixtureRepo: fixtureRepo,
		matchRepo:   matchRepo,
		scoreRepo:   scoreRepo,
		detailRepo:  detailRepo,
		rawRepo:     rawRepo,
		resolver:    resolver,
		validator:   validator.New(),
		cfg:         cfg,
		logger:      logger,
		now:         time.Now,
	}
}

func (s *UpsertService) validate(ctx context.Context, input any) error {
	if err := s.validator.StructCtx(ctx, input); err != nil {
		return fmt.Errorf("%w: validation failed: %v", ErrInvalidInput, err)
	}
	return nil
}

// UpsertFixture creates the fixture or refreshes its name, country, season and
// metadata.
func (s *UpsertService) UpsertFixture(ctx context.Context, input FixtureInput) (fixture.Fixture, bool, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.UpsertService.UpsertFixture")
	defer span.End()

	if err := s.validate(ctx, input); err != nil {
		return fixture.Fixture{}, false, err
	}
	item, created, err := s.fixtureRepo.Upsert(ctx, fixtureFromInput(input))
	if err != nil {
		return fixture.Fixture{}, false, fmt.Errorf("%w: upsert fixture external_id=%s: %w", ErrPersistence, input.ExternalID, err)
	}
	return item, created, nil
}

// UpsertFixtures writes fixtures in set-based chunks. A failing chunk is
// retried row by row so one bad row never blocks its siblings.
func (s *UpsertService) UpsertFixtures(ctx context.Context, inputs []FixtureInput) (batch.Result, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.UpsertService.UpsertFixtures")
	defer span.End()

	var result batch.Result
	valid := make([]fixture.Fixture, 0, len(inputs))
	for _, input := range inputs {
		if err := s.validate(ctx, input); err != nil {
			s.logger.WarnContext(ctx, "skip invalid fixture", "external_id", input.ExternalID, "name", input.Name, "error", err)
			result.Fail("fixture "+input.ExternalID, err)
			continue
		}
		valid = append(valid, fixtureFromInput(input))
	}

	written := runChunks(ctx, valid, s.cfg.BatchSize, s.cfg.Workers, func(ctx context.Context, chunk []fixture.Fixture) batch.Result {
		out, err := s.fixtureRepo.UpsertMany(ctx, chunk)
		if err == nil {
			return out
		}
		s.logger.WarnContext(ctx, "fixture chunk upsert failed, retrying per row", "rows", len(chunk), "error", err)
		var rows batch.Result
		for _, item := range chunk {
			if _, _, err := s.fixtureRepo.Upsert(ctx, item); err != nil {
				s.logger.ErrorContext(ctx, "fixture row upsert failed", "external_id", item.ExternalID, "row", item, "error", err)
				rows.Fail("fixture "+item.ExternalID, fmt.Errorf("%w: %w", ErrPersistence, err))
				continue
			}
			rows.Written++
		}
		return rows
	})
	result.Merge(written)
	return result, nil
}

// UpsertMatch resolves the candidate first so a match found by the team/time
// fallback is updated in place instead of duplicated.
func (s *UpsertService) UpsertMatch(ctx context.Context, input MatchInput, fixtureRef *int64) (match.Match, bool, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.UpsertService.UpsertMatch")
	defer span.End()

	if err := s.validate(ctx, input); err != nil {
		return match.Match{}, false, err
	}

	item, created, err := s.upsertMatch(ctx, input, fixtureRef)
	if errors.Is(err, match.ErrExternalIDConflict) {
		// A concurrent writer claimed the external id between resolve and write.
		item, created, err = s.upsertMatch(ctx, input, fixtureRef)
	}
	if err != nil {
		return match.Match{}, false, err
	}
	return item, created, nil
}

func (s *UpsertService) upsertMatch(ctx context.Context, input MatchInput, fixtureRef *int64) (match.Match, bool, error) {
	resolution, err := s.resolver.ResolveMatch(ctx, input.candidate())
	if err != nil {
		return match.Match{}, false, err
	}

	item := input.toDomain(fixtureRef)
	if resolution.Match != nil {
		item.ID = resolution.Match.ID
		if item.ExternalMatchID == "" {
			item.ExternalMatchID = resolution.Match.ExternalMatchID
		}
		updated, err := s.matchRepo.Update(ctx, item)
		if err != nil {
			if errors.Is(err, match.ErrExternalIDConflict) {
				return match.Match{}, false, err
			}
			return match.Match{}, false, fmt.Errorf("%w: update match id=%d: %w", ErrPersistence, item.ID, err)
		}
		return updated, false, nil
	}

	saved, created, err := s.matchRepo.Upsert(ctx, item)
	if err != nil {
		return match.Match{}, false, fmt.Errorf("%w: upsert match external_match_id=%s: %w", ErrPersistence, item.ExternalMatchID, err)
	}
	return saved, created, nil
}

// UpsertMatches resolves every row, then writes rows keyed by external id in
// chunks. Rows without an external id cannot be batched and go through
// UpsertMatch one at a time.
func (s *UpsertService) UpsertMatches(ctx context.Context, inputs []MatchInput, fixtureRef *int64) (batch.Result, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.UpsertService.UpsertMatches")
	defer span.End()

	var result batch.Result
	keyed := make([]match.Match, 0, len(inputs))
	for _, input := range inputs {
		key := matchRowKey(input)
		if err := s.validate(ctx, input); err != nil {
			s.logger.WarnContext(ctx, "skip invalid match", "match", key, "error", err)
			result.Fail(key, err)
			continue
		}
		if strings.TrimSpace(input.ExternalMatchID) == "" {
			if _, _, err := s.UpsertMatch(ctx, input, fixtureRef); err != nil {
				s.logger.ErrorContext(ctx, "match row upsert failed", "match", key, "row", input, "error", err)
				result.Fail(key, err)
				continue
			}
			result.Written++
			continue
		}
		// Adopts the external id on a fallback hit so the batch conflicts on it.
		if _, err := s.resolver.ResolveMatch(ctx, input.candidate()); err != nil {
			s.logger.ErrorContext(ctx, "resolve match failed", "match", key, "error", err)
			result.Fail(key, err)
			continue
		}
		keyed = append(keyed, input.toDomain(fixtureRef))
	}

	written := runChunks(ctx, keyed, s.cfg.BatchSize, s.cfg.Workers, func(ctx context.Context, chunk []match.Match) batch.Result {
		out, err := s.matchRepo.UpsertMany(ctx, chunk)
		if err == nil {
			return out
		}
		s.logger.WarnContext(ctx, "match chunk upsert failed, retrying per row", "rows", len(chunk), "error", err)
		var rows batch.Result
		for _, item := range chunk {
			if _, _, err := s.matchRepo.Upsert(ctx, item); err != nil {
				s.logger.ErrorContext(ctx, "match row upsert failed", "external_match_id", item.ExternalMatchID, "row", item, "error", err)
				rows.Fail("match "+item.ExternalMatchID, fmt.Errorf("%w: %w", ErrPersistence, err))
				continue
			}
			rows.Written++
		}
		return rows
	})
	result.Merge(written)
	return result, nil
}

// UpsertScore replaces the score of a match. score_data is never merged.
func (s *UpsertService) UpsertScore(ctx context.Context, matchID int64, data map[string]any, metadata map[string]any) (score.Score, bool, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.UpsertService.UpsertScore")
	defer span.End()

	if matchID <= 0 {
		return score.Score{}, false, fmt.Errorf("%w: match_id is required", ErrInvalidInput)
	}
	if _, ok := data["match_status"].(string); !ok {
		return score.Score{}, false, fmt.Errorf("%w: score_data.match_status is required", ErrInvalidInput)
	}

	item, created, err := s.scoreRepo.Upsert(ctx, score.Score{MatchID: matchID, ScoreData: data, Metadata: metadata})
	if err != nil {
		return score.Score{}, false, fmt.Errorf("%w: upsert score match_id=%d: %w", ErrPersistence, matchID, err)
	}
	return item, created, nil
}

// UpsertSquads stores the squads of an already known match.
func (s *UpsertService) UpsertSquads(ctx context.Context, externalMatchID string, squads []matchdetail.Squad) (matchdetail.Detail, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.UpsertService.UpsertSquads")
	defer span.End()

	item, err := s.matchByExternalID(ctx, 0, externalMatchID)
	if err != nil {
		return matchdetail.Detail{}, err
	}

	detail, _, err := s.detailRepo.Upsert(ctx, matchdetail.Detail{
		MatchID: item.ID,
		Squads:  squads,
		AdditionalInfo: map[string]any{
			"squads_updated_at": s.now().UTC().Format(time.RFC3339),
		},
	})
	if err != nil {
		return matchdetail.Detail{}, fmt.Errorf("%w: upsert squads match_id=%d: %w", ErrPersistence, item.ID, err)
	}
	return detail, nil
}

// UpsertScorecard stores a scraped scorecard as the match's score, stamped
// with the match's current status.
func (s *UpsertService) UpsertScorecard(ctx context.Context, sportID int64, externalMatchID string, card record.Scorecard, source string) (score.Score, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.UpsertService.UpsertScorecard")
	defer span.End()

	item, err := s.matchByExternalID(ctx, sportID, externalMatchID)
	if err != nil {
		return score.Score{}, err
	}

	data, err := score.Encode(score.Scorecard{
		Result:      card.Result,
		MatchStatus: string(item.Status),
		Innings:     card.Innings,
	})
	if err != nil {
		return score.Score{}, fmt.Errorf("%w: encode scorecard match_id=%d: %v", ErrInvalidInput, item.ID, err)
	}
	saved, _, err := s.UpsertScore(ctx, item.ID, data, map[string]any{
		"source":     source,
		"scraped_at": s.now().UTC().Format(time.RFC3339),
	})
	return saved, err
}

// ArchiveRaw keeps upstream documents for replay.
func (s *UpsertService) ArchiveRaw(ctx context.Context, payloads []rawdata.Payload) error {
	ctx, span := startUsecaseSpan(ctx, "usecase.UpsertService.ArchiveRaw")
	defer span.End()

	if len(payloads) == 0 || s.rawRepo == nil {
		return nil
	}
	now := s.now()
	for idx := range payloads {
		payloads[idx] = payloads[idx].Prepare(now)
	}
	if err := s.rawRepo.UpsertMany(ctx, payloads); err != nil {
		return fmt.Errorf("%w: archive %d raw payloads: %w", ErrPersistence, len(payloads), err)
	}
	return nil
}

func (s *UpsertService) matchByExternalID(ctx context.Context, sportID int64, externalMatchID string) (match.Match, error) {
	externalMatchID = strings.TrimSpace(externalMatchID)
	if externalMatchID == "" {
		return match.Match{}, fmt.Errorf("%w: external_match_id is required", ErrInvalidInput)
	}
	item, ok, err := s.matchRepo.FindByExternalID(ctx, externalMatchID)
	if err != nil {
		return match.Match{}, fmt.Errorf("%w: find match external_match_id=%s: %w", ErrPersistence, externalMatchID, err)
	}
	if !ok || (sportID > 0 && item.SportID != sportID) {
		return match.Match{}, fmt.Errorf("%w: match external_match_id=%s", ErrNotFound, externalMatchID)
	}
	return item, nil
}

func runChunks[T any](ctx context.Context, items []T, size, workers int, write func(context.Context, []T) batch.Result) batch.Result {
	var (
		mu     sync.Mutex
		result batch.Result
	)
	if len(items) == 0 {
		return result
	}

	p := pool.New().WithMaxGoroutines(workers)
	for start := 0; start < len(items); start += size {
		end := min(start+size, len(items))
		chunk := items[start:end]
		p.Go(func() {
			out := write(ctx, chunk)
			mu.Lock()
			result.Merge(out)
			mu.Unlock()
		})
	}
	p.Wait()
	return result
}

func fixtureFromInput(input FixtureInput) fixture.Fixture {
	return fixture.Fixture{
		SportID:    input.SportID,
		ExternalID: fixture.NormalizeExternalID(input.ExternalID),
		Name:       strings.TrimSpace(input.Name),
		Country:    strings.TrimSpace(input.Country),
		Season:     strings.TrimSpace(input.Season),
		Metadata:   input.Metadata,
	}
}

func matchRowKey(input MatchInput) string {
	if id := strings.TrimSpace(input.ExternalMatchID); id != "" {
		return "match " + id
	}
	return fmt.Sprintf("match %s vs %s", input.HomeTeam, input.AwayTeam)
}
