package observability

import (
	"errors"
	"strings"
	"testing"

	otellog "go.opentelemetry.io/otel/log"
)

func TestShouldSkipUptraceLog(t *testing.T) {
	cases := []struct {
		name string
		msg  string
		args []any
		want bool
	}{
		{name: "health probe", msg: "http request", args: []any{"method", "GET", "path", "/healthz"}, want: true},
		{name: "readiness probe", msg: "http request", args: []any{"path", "/readyz"}, want: true},
		{name: "websocket stream", msg: "http request", args: []any{"path", "/v1/ws/matches"}, want: true},
		{name: "job delivery", msg: "http request", args: []any{"path", "/v1/internal/jobs/live.scores"}},
		{name: "other event", msg: "qstash publish request", args: []any{"path", "/healthz"}},
		{name: "non string path", msg: "http request", args: []any{"path", 42}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := shouldSkipUptraceLog(tc.msg, tc.args); got != tc.want {
				t.Fatalf("expected %v, got %v", tc.want, got)
			}
		})
	}
}

func TestBuildOTelLogAttributes(t *testing.T) {
	attrs := buildOTelLogAttributes([]any{"sport", "soccer", "attempt", 2, "api_key", "secret", "payload"})
	if len(attrs) != 4 {
		t.Fatalf("expected 4 attributes, got %d", len(attrs))
	}
	if attrs[0].Key != "sport" || attrs[0].Value.AsString() != "soccer" {
		t.Fatalf("unexpected sport attribute")
	}
	if attrs[1].Key != "attempt" || attrs[1].Value.AsInt64() != 2 {
		t.Fatalf("unexpected attempt attribute")
	}
	if attrs[2].Value.AsString() != redactedLogValue {
		t.Fatalf("expected api_key to be redacted, got %q", attrs[2].Value.AsString())
	}
	if attrs[3].Key != "payload" || attrs[3].Value.Kind() != otellog.KindEmpty {
		t.Fatalf("unexpected payload attribute")
	}
}

func TestToOTelLogValue(t *testing.T) {
	t.Run("map redacts nested credentials", func(t *testing.T) {
		v := toOTelLogValue(map[string]any{
			"goals":  2,
			"status": "halftime",
			"token":  "internal",
		}, 0)
		if v.Kind() != otellog.KindMap {
			t.Fatalf("expected map value, got %s", v.Kind())
		}
		items := v.AsMap()
		if len(items) != 3 {
			t.Fatalf("expected 3 map items, got %d", len(items))
		}
		if items[2].Key != "token" || items[2].Value.AsString() != redactedLogValue {
			t.Fatalf("expected token to be redacted, got %+v", items[2])
		}
	})

	t.Run("payload samples are truncated", func(t *testing.T) {
		sample := []byte("<scores>" + strings.Repeat("x", maxLogStringBytes) + "</scores>")
		got := toOTelLogValue(sample, 0).AsString()
		if !strings.HasPrefix(got, "<scores>") || !strings.HasSuffix(got, "bytes)") {
			t.Fatalf("unexpected truncated value: %.40q", got)
		}
	})

	t.Run("scalars", func(t *testing.T) {
		if got := toOTelLogValue(uint16(7), 0).AsInt64(); got != 7 {
			t.Fatalf("unexpected uint value %d", got)
		}
		if got := toOTelLogValue(errors.New("feed timeout"), 0).AsString(); got != "feed timeout" {
			t.Fatalf("unexpected error value %q", got)
		}
		var missing *int
		if got := toOTelLogValue(missing, 0); got.Kind() != otellog.KindEmpty {
			t.Fatalf("expected nil pointer to be empty, got %s", got.Kind())
		}
	})
}
