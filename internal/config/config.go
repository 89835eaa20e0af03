package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/joho/godotenv"

	"github.com/riskibarqy/sportsfeed/internal/domain/sport"
	"github.com/riskibarqy/sportsfeed/internal/platform/logging"
)

const (
	QueueDriverMemory = "memory"
	QueueDriverQStash = "qstash"

	NotifyDriverLog       = "log"
	NotifyDriverRedis     = "redis"
	NotifyDriverKafka     = "kafka"
	NotifyDriverWebSocket = "websocket"
)

// Config stores runtime configuration for the ingester.
type Config struct {
	AppEnv             string
	ServiceName        string
	ServiceVersion     string
	HTTPAddr           string
	ReadTimeout        time.Duration
	WriteTimeout       time.Duration
	CORSAllowedOrigins []string
	LogLevel           logging.Level
	Location           *time.Location

	DBURL                   string
	DBMaxOpenConns          int
	DBDisablePreparedBinary bool
	RedisURL                string
	CachePrefix             string
	CacheTTLLeagueMappings  time.Duration
	CacheTTLSports          time.Duration

	SportsCatalogFile string
	Sports            []sport.Sport

	FeedBaseURL             string
	FeedAPIKey              string
	FeedTimeout             time.Duration
	FeedRetryAttempts       int
	FeedRetryDelay          time.Duration
	FeedMaxBodyBytes        int
	FeedCircuitEnabled      bool
	FeedCircuitFailureCount int
	FeedCircuitOpenTimeout  time.Duration
	FeedCircuitHalfOpenMax  int

	ScrapeBaseURL     string
	ScrapeUserAgent   string
	ScrapeTimeout     time.Duration
	ScrapeSettleDelay time.Duration
	ScrapeRPS         float64
	ScrapeChromePath  string

	QueueDriver                 string
	QueueWorkers                int
	JobTimeout                  time.Duration
	InternalJobToken            string
	QStashBaseURL               string
	QStashToken                 string
	QStashTargetBaseURL         string
	QStashPublishRetries        int
	QStashCircuitEnabled        bool
	QStashCircuitFailureCount   int
	QStashCircuitOpenTimeout    time.Duration
	QStashCircuitHalfOpenMaxReq int

	NotifyDrivers      []string
	NotifyStream       string
	NotifyStreamMaxLen int64
	KafkaBrokers       []string
	KafkaTopic         string
	WSAllowedOrigins   []string

	ResolverWindow  time.Duration
	UpsertBatchSize int
	UpsertWorkers   int
	LiveWorkers     int

	ScheduleSeriesCron string
	ScheduleLiveCron   string

	UptraceEnabled             bool
	UptraceDSN                 string
	UptraceLogsEnabled         bool
	PyroscopeEnabled           bool
	PyroscopeServerAddress     string
	PyroscopeAppName           string
	PyroscopeAuthToken         string
	PyroscopeBasicAuthUser     string
	PyroscopeBasicAuthPassword string
	PyroscopeUploadRate        time.Duration
	PprofEnabled               bool
	PprofAddr                  string
}

// Load reads the environment. A .env file (or ENV_FILE) is applied first and
// never overrides variables that are already set.
func Load() (Config, error) {
	if err := loadDotEnv(getEnv("ENV_FILE", ".env")); err != nil {
		return Config{}, err
	}

	appEnv, err := parseAppEnv(getEnv("APP_ENV", EnvDev))
	if err != nil {
		return Config{}, err
	}

	location, err := time.LoadLocation(strings.TrimSpace(getEnv("TIMEZONE", "Asia/Kathmandu")))
	if err != nil {
		return Config{}, fmt.Errorf("parse TIMEZONE: %w", err)
	}

	cfg := Config{
		AppEnv:             appEnv,
		ServiceName:        getEnv("SERVICE_NAME", "sportsfeed-ingester"),
		ServiceVersion:     getEnv("SERVICE_VERSION", "dev"),
		HTTPAddr:           getEnv("HTTP_ADDR", ":8080"),
		CORSAllowedOrigins: splitCSV(getEnv("CORS_ALLOWED_ORIGINS", "*")),
		LogLevel:           parseLogLevel(getEnv("LOG_LEVEL", "info")),
		Location:           location,

		DBURL:       strings.TrimSpace(getEnv("DB_URL", "")),
		RedisURL:    strings.TrimSpace(getEnv("REDIS_URL", "")),
		CachePrefix: getEnv("CACHE_PREFIX", "sportsfeed:"),

		SportsCatalogFile: strings.TrimSpace(getEnv("SPORTS_CATALOG_FILE", "")),

		FeedBaseURL: strings.TrimSpace(getEnv("FEED_BASE_URL", "https://www.goalserve.com/getfeed")),
		FeedAPIKey:  strings.TrimSpace(getEnv("FEED_API_KEY", "")),

		ScrapeBaseURL:    strings.TrimSpace(getEnv("SCRAPE_BASE_URL", "https://www.cricbuzz.com")),
		ScrapeUserAgent:  strings.TrimSpace(getEnv("SCRAPE_USER_AGENT", "")),
		ScrapeChromePath: strings.TrimSpace(getEnv("SCRAPE_CHROME_PATH", "")),

		QueueDriver:         strings.ToLower(strings.TrimSpace(getEnv("QUEUE_DRIVER", QueueDriverMemory))),
		InternalJobToken:    strings.TrimSpace(getEnv("INTERNAL_JOB_TOKEN", "")),
		QStashBaseURL:       strings.TrimSpace(getEnv("QSTASH_BASE_URL", "https://qstash.upstash.io")),
		QStashToken:         strings.TrimSpace(getEnv("QSTASH_TOKEN", "")),
		QStashTargetBaseURL: strings.TrimSpace(getEnv("QSTASH_TARGET_BASE_URL", "")),

		NotifyDrivers:    splitCSV(strings.ToLower(getEnv("NOTIFY_DRIVER", NotifyDriverLog))),
		NotifyStream:     strings.TrimSpace(getEnv("NOTIFY_STREAM", "sportsfeed:matches")),
		KafkaBrokers:     splitCSV(getEnv("KAFKA_BROKERS", "")),
		KafkaTopic:       strings.TrimSpace(getEnv("KAFKA_TOPIC", "sportsfeed.matches")),
		WSAllowedOrigins: splitCSV(getEnv("WS_ALLOWED_ORIGINS", "")),

		ScheduleSeriesCron: strings.TrimSpace(getEnv("SCHEDULE_SERIES_CRON", "*/5 * * * *")),
		ScheduleLiveCron:   strings.TrimSpace(getEnv("SCHEDULE_LIVE_CRON", "* * * * *")),

		PyroscopeServerAddress:     strings.TrimSpace(getEnv("PYROSCOPE_SERVER_ADDRESS", "")),
		PyroscopeAuthToken:         strings.TrimSpace(getEnv("PYROSCOPE_AUTH_TOKEN", "")),
		PyroscopeBasicAuthUser:     strings.TrimSpace(getEnv("PYROSCOPE_BASIC_AUTH_USER", "")),
		PyroscopeBasicAuthPassword: strings.TrimSpace(getEnv("PYROSCOPE_BASIC_AUTH_PASSWORD", "")),
		PprofAddr:                  strings.TrimSpace(getEnv("PPROF_ADDR", ":6060")),
	}
	cfg.PyroscopeAppName = strings.TrimSpace(getEnv("PYROSCOPE_APP_NAME", cfg.ServiceName))

	p := &parser{}
	cfg.ReadTimeout = p.positiveDuration("HTTP_READ_TIMEOUT", "10s")
	cfg.WriteTimeout = p.positiveDuration("HTTP_WRITE_TIMEOUT", "30s")

	cfg.DBMaxOpenConns = p.intAtLeast("DB_MAX_OPEN_CONNS", 10, 1)
	cfg.DBDisablePreparedBinary = p.boolean("DB_DISABLE_PREPARED_BINARY_RESULT", true)
	cfg.CacheTTLLeagueMappings = p.positiveDuration("CACHE_TTL_LEAGUE_MAPPINGS", "24h")
	cfg.CacheTTLSports = p.positiveDuration("CACHE_TTL_SPORTS", "10m")

	cfg.FeedTimeout = p.positiveDuration("FEED_TIMEOUT", "15s")
	cfg.FeedRetryAttempts = p.intAtLeast("FEED_RETRY_ATTEMPTS", 3, 1)
	cfg.FeedRetryDelay = p.positiveDuration("FEED_RETRY_DELAY", "1s")
	cfg.FeedMaxBodyBytes = p.intAtLeast("FEED_MAX_BODY_BYTES", 16<<20, 1024)
	cfg.FeedCircuitEnabled = p.boolean("FEED_CIRCUIT_ENABLED", true)
	cfg.FeedCircuitFailureCount = p.intAtLeast("FEED_CIRCUIT_FAILURE_COUNT", 5, 1)
	cfg.FeedCircuitOpenTimeout = p.positiveDuration("FEED_CIRCUIT_OPEN_TIMEOUT", "30s")
	cfg.FeedCircuitHalfOpenMax = p.intAtLeast("FEED_CIRCUIT_HALF_OPEN_MAX_REQ", 1, 1)

	cfg.ScrapeTimeout = p.positiveDuration("SCRAPE_TIMEOUT", "45s")
	cfg.ScrapeSettleDelay = p.positiveDuration("SCRAPE_SETTLE_DELAY", "2s")
	cfg.ScrapeRPS = p.positiveFloat("SCRAPE_RPS", 0.5)

	cfg.QueueWorkers = p.intAtLeast("QUEUE_WORKERS", 8, 1)
	cfg.JobTimeout = p.positiveDuration("JOB_TIMEOUT", "2m")
	cfg.QStashPublishRetries = p.intAtLeast("QSTASH_PUBLISH_RETRIES", 3, 1)
	cfg.QStashCircuitEnabled = p.boolean("QSTASH_CIRCUIT_ENABLED", true)
	cfg.QStashCircuitFailureCount = p.intAtLeast("QSTASH_CIRCUIT_FAILURE_COUNT", 5, 1)
	cfg.QStashCircuitOpenTimeout = p.positiveDuration("QSTASH_CIRCUIT_OPEN_TIMEOUT", "15s")
	cfg.QStashCircuitHalfOpenMaxReq = p.intAtLeast("QSTASH_CIRCUIT_HALF_OPEN_MAX_REQ", 2, 1)

	cfg.NotifyStreamMaxLen = int64(p.intAtLeast("NOTIFY_STREAM_MAXLEN", 10000, 0))

	cfg.ResolverWindow = p.positiveDuration("RESOLVER_WINDOW", "6h")
	cfg.UpsertBatchSize = p.intAtLeast("UPSERT_BATCH_SIZE", 200, 1)
	cfg.UpsertWorkers = p.intAtLeast("UPSERT_WORKERS", 4, 1)
	cfg.LiveWorkers = p.intAtLeast("LIVE_WORKERS", 8, 1)

	cfg.UptraceEnabled = p.boolean("UPTRACE_ENABLED", false)
	cfg.UptraceLogsEnabled = p.boolean("UPTRACE_LOGS_ENABLED", true)
	cfg.PyroscopeEnabled = p.boolean("PYROSCOPE_ENABLED", false)
	cfg.PyroscopeUploadRate = p.positiveDuration("PYROSCOPE_UPLOAD_RATE", "15s")
	cfg.PprofEnabled = p.boolean("PPROF_ENABLED", false)
	if p.err != nil {
		return Config{}, p.err
	}

	cfg.UptraceDSN = strings.TrimSpace(getEnv("UPTRACE_DSN", ""))
	if cfg.UptraceDSN == "" {
		cfg.UptraceDSN = parseUptraceDSNFromOTLPHeaders(getEnv("OTEL_EXPORTER_OTLP_HEADERS", ""))
	}

	if cfg.SportsCatalogFile != "" {
		cfg.Sports, err = LoadSportsCatalog(cfg.SportsCatalogFile)
		if err != nil {
			return Config{}, fmt.Errorf("SPORTS_CATALOG_FILE: %w", err)
		}
	} else {
		cfg.Sports = DefaultSportsCatalog()
	}

	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) validate() error {
	if strings.TrimSpace(c.HTTPAddr) == "" {
		return fmt.Errorf("HTTP_ADDR cannot be empty")
	}
	if len(c.CORSAllowedOrigins) == 0 {
		return fmt.Errorf("CORS_ALLOWED_ORIGINS cannot be empty")
	}
	if c.ScheduleSeriesCron == "" || c.ScheduleLiveCron == "" {
		return fmt.Errorf("SCHEDULE_SERIES_CRON and SCHEDULE_LIVE_CRON cannot be empty")
	}

	switch c.QueueDriver {
	case QueueDriverMemory:
	case QueueDriverQStash:
		if c.QStashToken == "" {
			return fmt.Errorf("QSTASH_TOKEN is required when QUEUE_DRIVER=qstash")
		}
		if c.QStashTargetBaseURL == "" {
			return fmt.Errorf("QSTASH_TARGET_BASE_URL is required when QUEUE_DRIVER=qstash")
		}
		if c.InternalJobToken == "" {
			return fmt.Errorf("INTERNAL_JOB_TOKEN is required when QUEUE_DRIVER=qstash")
		}
	default:
		return fmt.Errorf("invalid QUEUE_DRIVER %q: valid values are %s, %s", c.QueueDriver, QueueDriverMemory, QueueDriverQStash)
	}

	if len(c.NotifyDrivers) == 0 {
		return fmt.Errorf("NOTIFY_DRIVER cannot be empty")
	}
	for _, driver := range c.NotifyDrivers {
		switch driver {
		case NotifyDriverLog, NotifyDriverWebSocket:
		case NotifyDriverRedis:
			if c.RedisURL == "" {
				return fmt.Errorf("REDIS_URL is required when NOTIFY_DRIVER includes redis")
			}
		case NotifyDriverKafka:
			if len(c.KafkaBrokers) == 0 || c.KafkaTopic == "" {
				return fmt.Errorf("KAFKA_BROKERS and KAFKA_TOPIC are required when NOTIFY_DRIVER includes kafka")
			}
		default:
			return fmt.Errorf("invalid NOTIFY_DRIVER %q: valid values are %s, %s, %s, %s",
				driver, NotifyDriverLog, NotifyDriverRedis, NotifyDriverKafka, NotifyDriverWebSocket)
		}
	}

	if c.UptraceEnabled && c.UptraceDSN == "" {
		return fmt.Errorf("UPTRACE_DSN is required when UPTRACE_ENABLED=true")
	}
	if c.PyroscopeEnabled {
		if c.PyroscopeServerAddress == "" {
			return fmt.Errorf("PYROSCOPE_SERVER_ADDRESS is required when PYROSCOPE_ENABLED=true")
		}
		if c.PyroscopeAppName == "" {
			return fmt.Errorf("PYROSCOPE_APP_NAME cannot be empty when PYROSCOPE_ENABLED=true")
		}
	}
	if c.PprofEnabled && c.PprofAddr == "" {
		return fmt.Errorf("PPROF_ADDR is required when PPROF_ENABLED=true")
	}
	return nil
}

// HasNotifyDriver reports whether driver is one of the configured sinks.
func (c Config) HasNotifyDriver(driver string) bool {
	for _, d := range c.NotifyDrivers {
		if d == driver {
			return true
		}
	}
	return false
}

func loadDotEnv(path string) error {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("load %s: %w", path, err)
	}
	return nil
}

// parser keeps the first parse error so Load reads as a flat list of keys.
type parser struct {
	err error
}

func (p *parser) fail(err error) {
	if p.err == nil {
		p.err = err
	}
}

func (p *parser) boolean(key string, fallback bool) bool {
	out, err := strconv.ParseBool(getEnv(key, strconv.FormatBool(fallback)))
	if err != nil {
		p.fail(fmt.Errorf("parse %s: %w", key, err))
		return fallback
	}
	return out
}

func (p *parser) positiveDuration(key, fallback string) time.Duration {
	out, err := time.ParseDuration(getEnv(key, fallback))
	if err != nil {
		p.fail(fmt.Errorf("parse %s: %w", key, err))
		return 0
	}
	if out <= 0 {
		p.fail(fmt.Errorf("%s must be > 0", key))
	}
	return out
}

func (p *parser) intAtLeast(key string, fallback, floor int) int {
	out, err := getEnvAsInt(key, fallback)
	if err != nil {
		p.fail(fmt.Errorf("parse %s: %w", key, err))
		return fallback
	}
	if out < floor {
		p.fail(fmt.Errorf("%s must be >= %d", key, floor))
	}
	return out
}

func (p *parser) positiveFloat(key string, fallback float64) float64 {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback
	}
	out, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		p.fail(fmt.Errorf("parse %s: %w", key, err))
		return fallback
	}
	if out <= 0 {
		p.fail(fmt.Errorf("%s must be > 0", key))
	}
	return out
}

func parseLogLevel(v string) logging.Level {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "debug":
		return logging.LevelDebug
	case "warn", "warning":
		return logging.LevelWarn
	case "error":
		return logging.LevelError
	default:
		return logging.LevelInfo
	}
}

func getEnv(key, fallback string) string {
	value := os.Getenv(key)
	if strings.TrimSpace(value) == "" {
		return fallback
	}

	return value
}

func getEnvAsInt(key string, fallback int) (int, error) {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback, nil
	}

	out, err := strconv.Atoi(value)
	if err != nil {
		return 0, err
	}

	return out, nil
}

func splitCSV(v string) []string {
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		item := strings.TrimSpace(part)
		if item == "" {
			continue
		}
		out = append(out, item)
	}

	return out
}

func parseUptraceDSNFromOTLPHeaders(raw string) string {
	if strings.TrimSpace(raw) == "" {
		return ""
	}

	items := strings.Split(raw, ",")
	for _, item := range items {
		parts := strings.SplitN(strings.TrimSpace(item), "=", 2)
		if len(parts) != 2 {
			continue
		}
		if strings.EqualFold(strings.TrimSpace(parts[0]), "uptrace-dsn") {
			value := strings.TrimSpace(parts[1])
			return strings.Trim(value, "\"'")
		}
	}

	return ""
}

const (
	EnvDev   = "dev"
	EnvStage = "stage"
	EnvProd  = "prod"
)

func parseAppEnv(v string) (string, error) {
	value := strings.ToLower(strings.TrimSpace(v))
	switch value {
	case EnvDev, EnvStage, EnvProd:
		return value, nil
	default:
		return "", fmt.Errorf("invalid APP_ENV %q: valid values are %s, %s, %s", v, EnvDev, EnvStage, EnvProd)
	}
}
