package normalize

import (
	"strings"

	"github.com/bytedance/sonic"
	"github.com/cockroachdb/errors"

	"github.com/riskibarqy/sportsfeed/internal/domain/score"
	"github.com/riskibarqy/sportsfeed/internal/record"
)

// DecodeLiveStats decodes the JSON live_stats attribute. An empty value is nil
// without error.
func DecodeLiveStats(raw string) (any, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	var out any
	if err := sonic.UnmarshalString(raw, &out); err != nil {
		return nil, errors.Wrap(err, "decode live_stats")
	}
	return out, nil
}

// EventsByType keeps the events of one type (goal, redcard, yellowcard,
// substitution) in their score shape. The result is never nil.
func EventsByType(events []record.Event, eventType string) []score.Event {
	out := make([]score.Event, 0)
	for _, ev := range events {
		if !strings.EqualFold(strings.TrimSpace(ev.Type), eventType) {
			continue
		}
		out = append(out, score.Event{
			Minute:   ev.Minute,
			Team:     ev.Team,
			Player:   ev.Player,
			Result:   ev.Result,
			PlayerID: ev.PlayerID,
			Assist:   ev.Assist,
			AssistID: ev.AssistID,
			EventID:  ev.EventID,
		})
	}
	return out
}
