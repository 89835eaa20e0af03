package app

import (
	"net/url"
	"strings"

	"github.com/riskibarqy/sportsfeed/internal/config"
)

type dbURLOptions struct {
	DisablePreparedBinary bool
	ApplicationName       string
}

// normalizeDBURL fills connection parameters the ingester relies on without
// overriding anything set explicitly in DB_URL. Key/value DSNs pass through.
func normalizeDBURL(raw string, opts dbURLOptions) string {
	parsed, err := url.Parse(strings.TrimSpace(raw))
	if err != nil || parsed == nil || parsed.Scheme == "" {
		return raw
	}

	query := parsed.Query()
	changed := false
	if opts.DisablePreparedBinary && query.Get("disable_prepared_binary_result") == "" {
		query.Set("disable_prepared_binary_result", "yes")
		changed = true
	}
	if opts.ApplicationName != "" && query.Get("application_name") == "" {
		query.Set("application_name", opts.ApplicationName)
		changed = true
	}
	if !changed {
		return raw
	}
	parsed.RawQuery = query.Encode()
	return parsed.String()
}

func dbNameFromURL(raw string) string {
	trimmed := strings.TrimSpace(raw)
	parsed, err := url.Parse(trimmed)
	if err == nil && parsed != nil && parsed.Scheme != "" {
		if name := strings.TrimSpace(strings.TrimPrefix(parsed.Path, "/")); name != "" {
			return name
		}
	}

	for _, token := range strings.Fields(trimmed) {
		name, ok := strings.CutPrefix(token, "dbname=")
		if !ok {
			continue
		}
		if name = strings.Trim(strings.TrimSpace(name), `"'`); name != "" {
			return name
		}
	}
	return ""
}

// DatabaseURL is the DSN the ingester and the migration CLI connect with.
func DatabaseURL(cfg config.Config) string {
	return normalizeDBURL(cfg.DBURL, dbURLOptions{
		DisablePreparedBinary: cfg.DBDisablePreparedBinary,
		ApplicationName:       cfg.ServiceName,
	})
}
