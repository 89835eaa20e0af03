package normalize

import (
	"errors"
	"testing"
	"time"

	"github.com/riskibarqy/sportsfeed/internal/domain/sport"
)

func TestTime(t *testing.T) {
	t.Parallel()

	kathmandu, err := time.LoadLocation("Asia/Kathmandu")
	if err != nil {
		t.Skipf("tzdata unavailable: %v", err)
	}
	now := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name          string
		date          string
		formattedDate string
		clock         string
		kind          sport.Kind
		want          time.Time
		wantNil       bool
		wantErr       bool
	}{
		{
			name:          "formatted date wins",
			date:          "Jan 01",
			formattedDate: "05.07.2026",
			clock:         "14:00",
			kind:          sport.KindInvasion,
			want:          time.Date(2026, 7, 5, 14, 0, 0, 0, time.UTC),
		},
		{
			name:  "month day date uses current year",
			date:  "Jul 05",
			clock: "19:45",
			kind:  sport.KindInvasion,
			want:  time.Date(2026, 7, 5, 19, 45, 0, 0, time.UTC),
		},
		{
			name:  "cricket scrape composite",
			clock: "Jul 05, Sat, 9:30 AM / 3:15 PM LOCAL",
			kind:  sport.KindCricket,
			want:  time.Date(2026, 7, 5, 9, 30, 0, 0, time.UTC),
		},
		{
			name:    "missing time is absent",
			date:    "Jul 05",
			kind:    sport.KindInvasion,
			wantNil: true,
		},
		{
			name:    "placeholder time is absent",
			clock:   "N/A",
			kind:    sport.KindCricket,
			wantNil: true,
		},
		{
			name:    "composite is not tried for invasion sports",
			clock:   "Jul 05, Sat, 9:30 AM",
			kind:    sport.KindInvasion,
			wantNil: true,
			wantErr: true,
		},
		{
			name:          "malformed formatted date",
			formattedDate: "2026-07-05",
			clock:         "14:00",
			kind:          sport.KindInvasion,
			wantNil:       true,
			wantErr:       true,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := Time(tc.date, tc.formattedDate, tc.clock, tc.kind, kathmandu, now)
			if tc.wantErr {
				if !errors.Is(err, ErrTimeFormat) {
					t.Fatalf("expected ErrTimeFormat, got %v", err)
				}
			} else if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if tc.wantNil {
				if got != nil {
					t.Fatalf("expected nil time, got %v", got)
				}
				return
			}
			if got == nil {
				t.Fatalf("expected time, got nil")
			}
			if !got.Equal(tc.want) {
				t.Fatalf("got %v, want %v", got, tc.want)
			}
			if got.Location() != kathmandu {
				t.Fatalf("expected result in target zone, got %v", got.Location())
			}
		})
	}
}
