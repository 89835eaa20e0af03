package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/riskibarqy/sportsfeed/internal/domain/fixture"
	"github.com/riskibarqy/sportsfeed/internal/domain/match"
	"github.com/riskibarqy/sportsfeed/internal/normalize"
	"github.com/riskibarqy/sportsfeed/internal/platform/logging"
)

const DefaultResolverWindow = 6 * time.Hour

type ResolveVia string

const (
	ResolvedByExternalID  ResolveVia = "external_id"
	ResolvedByTeamsWindow ResolveVia = "teams_window"
	ResolvedNone          ResolveVia = "none"
)

// MatchCandidate is what a source knows about a match before it is persisted.
type MatchCandidate struct {
	SportID         int64
	ExternalMatchID string
	HomeTeam        string
	AwayTeam        string
	StartTime       *time.Time
}

// Resolution reports the existing match a candidate maps to. Match is nil when
// Via is ResolvedNone and the caller should create one.
type Resolution struct {
	Match *match.Match
	Via   ResolveVia
}

type FixtureCandidate struct {
	SportID    int64
	ExternalID string
	Name       string
	Country    string
	Season     string
	// Date seeds the season when the name carries no year.
	Date     string
	Metadata map[string]any
}

type ResolverService struct {
	matchRepo   match.Repository
	fixtureRepo fixture.Repository
	window      time.Duration
	logger      *logging.Logger
	now         func() time.Time
}

func NewResolverService(matchRepo match.Repository, fixtureRepo fixture.Repository, window time.Duration, logger *logging.Logger) *ResolverService {
	if window <= 0 {
		window = DefaultResolverWindow
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &ResolverService{
		matchRepo:   matchRepo,
		fixtureRepo: fixtureRepo,
		window:      window,
		logger:      logger,
		now:         time.Now,
	}
}

// ResolveMatch finds the stored match for a candidate: exact external id first,
// then identical team names with a start time inside the window. A window hit
// adopts the candidate's external id so later lookups take the fast path.
func (s *ResolverService) ResolveMatch(ctx context.Context, candidate MatchCandidate) (Resolution, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.ResolverService.ResolveMatch")
	defer span.End()

	externalID := strings.TrimSpace(candidate.ExternalMatchID)
	if externalID != "" {
		item, ok, err := s.matchRepo.FindByExternalID(ctx, externalID)
		if err != nil {
			return Resolution{}, fmt.Errorf("%w: find match external_match_id=%s: %w", ErrPersistence, externalID, err)
		}
		if ok {
			return Resolution{Match: &item, Via: ResolvedByExternalID}, nil
		}
	}

	home := strings.TrimSpace(candidate.HomeTeam)
	away := strings.TrimSpace(candidate.AwayTeam)
	if home == "" || away == "" || candidate.StartTime == nil {
		return Resolution{Via: ResolvedNone}, nil
	}

	at := *candidate.StartTime
	found, err := s.matchRepo.FindByTeamsWithin(ctx, candidate.SportID, home, away, at, s.window)
	if err != nil {
		return Resolution{}, fmt.Errorf("%w: find match home=%s away=%s: %w", ErrPersistence, home, away, err)
	}
	best, ok := closestStart(found, at)
	if !ok {
		return Resolution{Via: ResolvedNone}, nil
	}

	if externalID != "" && best.ExternalMatchID != externalID {
		if err := s.matchRepo.BackfillExternalID(ctx, best.ID, externalID); err != nil {
			if errors.Is(err, match.ErrExternalIDConflict) {
				// Another worker attached the id first; its row is the match.
				if item, ok, findErr := s.matchRepo.FindByExternalID(ctx, externalID); findErr == nil && ok {
					return Resolution{Match: &item, Via: ResolvedByExternalID}, nil
				}
			}
			return Resolution{}, fmt.Errorf("%w: backfill external_match_id=%s match_id=%d: %w", ErrPersistence, externalID, best.ID, err)
		}
		s.logger.InfoContext(ctx, "backfilled external match id",
			"match_id", best.ID,
			"previous_external_match_id", best.ExternalMatchID,
			"external_match_id", externalID,
		)
		best.ExternalMatchID = externalID
	}
	return Resolution{Match: &best, Via: ResolvedByTeamsWindow}, nil
}

// ResolveFixture returns the fixture keyed by (sport, external id), creating it
// on first sighting. An existing fixture is returned untouched.
func (s *ResolverService) ResolveFixture(ctx context.Context, candidate FixtureCandidate) (fixture.Fixture, bool, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.ResolverService.ResolveFixture")
	defer span.End()

	externalID := fixture.NormalizeExternalID(candidate.ExternalID)
	if candidate.SportID <= 0 || externalID == "" {
		return fixture.Fixture{}, false, fmt.Errorf("%w: fixture sport_id and external_id are required", ErrInvalidInput)
	}

	item, ok, err := s.fixtureRepo.FindByExternalID(ctx, candidate.SportID, externalID)
	if err != nil {
		return fixture.Fixture{}, false, fmt.Errorf("%w: find fixture external_id=%s: %w", ErrPersistence, externalID, err)
	}
	if ok {
		return item, false, nil
	}

	name := strings.TrimSpace(candidate.Name)
	if name == "" {
		name = "Unknown League"
	}
	created, inserted, err := s.fixtureRepo.Upsert(ctx, fixture.Fixture{
		SportID:    candidate.SportID,
		ExternalID: externalID,
		Name:       name,
		Country:    firstNonBlank(candidate.Country, normalize.CountryFromLeague(name)),
		Season:     firstNonBlank(candidate.Season, normalize.SeasonFromText(name), normalize.SeasonFromDate(candidate.Date, s.now())),
		Metadata:   candidate.Metadata,
	})
	if err != nil {
		return fixture.Fixture{}, false, fmt.Errorf("%w: create fixture external_id=%s: %w", ErrPersistence, externalID, err)
	}
	if inserted {
		s.logger.InfoContext(ctx, "fixture created", "fixture_id", created.ID, "external_id", externalID, "name", name)
	}
	return created, inserted, nil
}

func closestStart(items []match.Match, at time.Time) (match.Match, bool) {
	var (
		best     match.Match
		bestDiff time.Duration
		found    bool
	)
	for _, item := range items {
		if item.StartTime == nil {
			continue
		}
		diff := item.StartTime.Sub(at)
		if diff < 0 {
			diff = -diff
		}
		if !found || diff < bestDiff {
			best, bestDiff, found = item, diff, true
		}
	}
	return best, found
}

func firstNonBlank(values ...string) string {
	for _, value := range values {
		if trimmed := strings.TrimSpace(value); trimmed != "" {
			return trimmed
		}
	}
	return ""
}
