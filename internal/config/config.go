// Package config provides application configuration loaded from environment
// variables with defaults and validation. Values may additionally be seeded
// from a flat YAML file named by CONFIG_FILE; the process environment always
// wins over file values.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// CORSConfig defines Cross-Origin Resource Sharing settings.
type CORSConfig struct {
	AllowedOrigins []string
}

// SecurityConfig defines security-related settings such as HSTS.
type SecurityConfig struct {
	EnableHSTS bool
	HSTSMaxAge time.Duration
}

// OTELConfig defines OpenTelemetry observability settings.
type OTELConfig struct {
	Enabled     bool    // OTEL_ENABLED
	Endpoint    string  // OTEL_EXPORTER_OTLP_ENDPOINT (e.g. "otel:4317")
	Insecure    bool    // OTEL_EXPORTER_OTLP_INSECURE (true if no TLS)
	ServiceName string  // OTEL_SERVICE_NAME
	SampleRatio float64 // OTEL_TRACES_SAMPLER_ARG in [0..1]
}

// LineConfig holds the LINE Messaging API channel credentials and the public
// base URL used to build LIFF form links.
type LineConfig struct {
	ChannelSecret      string
	ChannelAccessToken string
	BaseURL            string
	LIFFID             string
}

// OrgConfig describes the organisation shown in bot replies.
type OrgConfig struct {
	Name         string
	ContactPhone string
	ContactEmail string
	Timezone     string
}

// TelegramConfig is the bootstrap staff channel. Values stored in the
// telegram_config table override these at runtime.
type TelegramConfig struct {
	BotToken string
	ChatID   string
	Enabled  bool
	APIBase  string
}

// AuthConfig controls admin session tokens.
type AuthConfig struct {
	JWTSecret string
	JWTTTL    time.Duration
}

// RedisConfig is shared by the redis-backed stores.
type RedisConfig struct {
	Addr     string
	Password string
	Prefix   string
}

// StoreConfig selects the conversation and counter store backends.
type StoreConfig struct {
	State           string        // memory|redis
	StateTTL        time.Duration // idle conversations expire after this
	StateMaxEntries int           // memory store capacity
	Counter         string        // sql|redis
}

// ObjectStoreConfig configures S3-compatible storage for photos and
// signatures. Storage is disabled when Endpoint is empty.
type ObjectStoreConfig struct {
	Endpoint   string
	AccessKey  string
	SecretKey  string
	Bucket     string
	UseSSL     bool
	PresignTTL time.Duration
}

// Enabled reports whether an object store endpoint is configured.
func (o ObjectStoreConfig) Enabled() bool { return strings.TrimSpace(o.Endpoint) != "" }

// Config holds all configuration values for the application.
type Config struct {
	// Server
	Port              string        // just the number
	ReadTimeout       time.Duration // e.g. 15s
	ReadHeaderTimeout time.Duration // e.g. 10s
	WriteTimeout      time.Duration // e.g. 20s
	IdleTimeout       time.Duration // e.g. 60s
	MaxHeaderBytes    int           // bytes
	MaxBodyBytes      int64         // request body cap (photos travel as base64)
	GinMode           string        // debug|release|test

	// Logging / Docs
	LogLevel       string // debug|info|warn|error|fatal|panic
	LogPretty      bool   // pretty console logs in dev
	SwaggerEnabled bool   // enable Swagger UI route
	APIBasePath    string // base path for API routes

	// Database
	DBDriver    string // sqlite|postgres
	DBPath      string // SQLite path
	DatabaseURL string // Postgres DSN

	Line     LineConfig
	Org      OrgConfig
	Telegram TelegramConfig
	Auth     AuthConfig
	Redis    RedisConfig
	Stores   StoreConfig
	Objects  ObjectStoreConfig

	// Rate limiting
	RateRPS   float64 // tokens per second (>= 0)
	RateBurst int     // bucket size (>= 1)

	// Web protection
	CORS     CORSConfig
	Security SecurityConfig

	// Idempotency
	IdempotencyTTL time.Duration // how long a given Idempotency-Key is valid

	// Observability
	OTEL OTELConfig
}

// Location resolves the configured timezone, falling back to UTC.
func (c Config) Location() *time.Location {
	if loc, err := time.LoadLocation(c.Org.Timezone); err == nil {
		return loc
	}
	return time.UTC
}

// MustLoad loads the configuration and panics if validation fails.
func MustLoad() Config {
	cfg, err := Load()
	if err != nil {
		panic(err)
	}
	return cfg
}

// Load reads configuration from environment variables (and CONFIG_FILE when
// set), applies defaults, normalizes values, and validates the result.
func Load() (Config, error) {
	src, err := newSource(os.Getenv("CONFIG_FILE"))
	if err != nil {
		return Config{}, err
	}

	cfg := Config{
		// Server
		Port:              src.getenv("PORT", "8080"),
		ReadTimeout:       src.getdur("READ_TIMEOUT", 15*time.Second),
		ReadHeaderTimeout: src.getdur("READ_HEADER_TIMEOUT", 10*time.Second),
		WriteTimeout:      src.getdur("WRITE_TIMEOUT", 20*time.Second),
		IdleTimeout:       src.getdur("IDLE_TIMEOUT", 60*time.Second),
		MaxHeaderBytes:    src.getint("MAX_HEADER_BYTES", 1<<20),
		MaxBodyBytes:      int64(src.getint("MAX_BODY_BYTES", 10<<20)),
		GinMode:           strings.ToLower(src.getenv("GIN_MODE", "release")),

		// Logging / Docs
		LogLevel:       strings.ToLower(src.getenv("LOG_LEVEL", "info")),
		LogPretty:      src.getbool("LOG_PRETTY", false),
		SwaggerEnabled: src.getbool("SWAGGER_ENABLED", false),
		APIBasePath:    normalizeBasePath(src.getenv("API_BASE_PATH", "/api")),

		// Database
		DBDriver:    strings.ToLower(src.getenv("DB_DRIVER", "sqlite")),
		DBPath:      src.getenv("DB_PATH", "app.db"),
		DatabaseURL: src.getenv("DATABASE_URL", ""),

		Line: LineConfig{
			ChannelSecret:      src.getenv("LINE_CHANNEL_SECRET", ""),
			ChannelAccessToken: src.getenv("LINE_CHANNEL_ACCESS_TOKEN", ""),
			BaseURL:            strings.TrimRight(src.getenv("BASE_URL", "http://localhost:8080"), "/"),
			LIFFID:             src.getenv("LIFF_ID", ""),
		},
		Org: OrgConfig{
			Name:         src.getenv("ORG_NAME", "องค์การบริหารส่วนตำบลข่าใหญ่"),
			ContactPhone: src.getenv("CONTACT_PHONE", "042-000-000"),
			ContactEmail: src.getenv("CONTACT_EMAIL", "contact@khayai.go.th"),
			Timezone:     src.getenv("TIMEZONE", "Asia/Bangkok"),
		},
		Telegram: TelegramConfig{
			BotToken: src.getenv("TELEGRAM_BOT_TOKEN", ""),
			ChatID:   src.getenv("TELEGRAM_CHAT_ID", ""),
			Enabled:  src.getbool("TELEGRAM_ENABLED", false),
			APIBase:  strings.TrimRight(src.getenv("TELEGRAM_API_BASE", "https://api.telegram.org"), "/"),
		},
		Auth: AuthConfig{
			JWTSecret: src.getenv("JWT_SECRET", ""),
			JWTTTL:    src.getdur("JWT_TTL", 8*time.Hour),
		},
		Redis: RedisConfig{
			Addr:     src.getenv("REDIS_ADDR", ""),
			Password: src.getenv("REDIS_PASSWORD", ""),
			Prefix:   src.getenv("REDIS_PREFIX", "repairbot"),
		},
		Stores: StoreConfig{
			State:           strings.ToLower(src.getenv("STATE_STORE", "memory")),
			StateTTL:        src.getdur("STATE_TTL", 24*time.Hour),
			StateMaxEntries: src.getint("STATE_MAX_ENTRIES", 10000),
			Counter:         strings.ToLower(src.getenv("COUNTER_STORE", "sql")),
		},
		Objects: ObjectStoreConfig{
			Endpoint:   src.getenv("S3_ENDPOINT", ""),
			AccessKey:  src.getenv("S3_ACCESS_KEY", ""),
			SecretKey:  src.getenv("S3_SECRET_KEY", ""),
			Bucket:     src.getenv("S3_BUCKET", "repairbot"),
			UseSSL:     src.getbool("S3_USE_SSL", false),
			PresignTTL: src.getdur("S3_PRESIGN_TTL", 24*time.Hour),
		},

		// Rate limiting
		RateRPS:   src.getfloat("RATE_RPS", 5.0),
		RateBurst: src.getint("RATE_BURST", 10),

		// Web protection
		CORS: CORSConfig{
			AllowedOrigins: splitCSV(src.getenv("CORS_ALLOWED_ORIGINS", "")),
		},
		Security: SecurityConfig{
			EnableHSTS: src.getbool("ENABLE_HSTS", false),
			HSTSMaxAge: src.getdur("HSTS_MAX_AGE", 180*24*time.Hour),
		},

		IdempotencyTTL: src.getdur("IDEMPOTENCY_TTL", 24*time.Hour),

		OTEL: OTELConfig{
			Enabled:     src.getbool("OTEL_ENABLED", false),
			Endpoint:    src.getenv("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4317"),
			Insecure:    src.getbool("OTEL_EXPORTER_OTLP_INSECURE", true),
			ServiceName: src.getenv("OTEL_SERVICE_NAME", "repairbot"),
			SampleRatio: src.getfloat("OTEL_TRACES_SAMPLER_ARG", 1.0),
		},
	}

	// --- normalization ---
	if cfg.LogLevel == "warning" {
		cfg.LogLevel = "warn"
	}
	switch cfg.GinMode {
	case "debug", "release", "test":
	default:
		cfg.GinMode = "release"
	}

	return cfg, cfg.validate()
}

func (cfg Config) validate() error {
	switch cfg.LogLevel {
	case "debug", "info", "warn", "error", "fatal", "panic":
	default:
		return errors.New("LOG_LEVEL must be one of: debug, info, warn, error, fatal, panic")
	}
	if strings.TrimSpace(cfg.Port) == "" {
		return errors.New("PORT must not be empty")
	}
	if cfg.ReadTimeout <= 0 || cfg.ReadHeaderTimeout <= 0 || cfg.WriteTimeout <= 0 || cfg.IdleTimeout <= 0 {
		return errors.New("timeouts must be positive durations")
	}
	if cfg.MaxHeaderBytes <= 0 {
		return errors.New("MAX_HEADER_BYTES must be > 0")
	}
	if cfg.MaxBodyBytes <= 0 {
		return errors.New("MAX_BODY_BYTES must be > 0")
	}

	switch cfg.DBDriver {
	case "sqlite":
		if strings.TrimSpace(cfg.DBPath) == "" {
			return errors.New("DB_PATH must not be empty")
		}
	case "postgres":
		if strings.TrimSpace(cfg.DatabaseURL) == "" {
			return errors.New("DATABASE_URL is required when DB_DRIVER=postgres")
		}
	default:
		return errors.New("DB_DRIVER must be one of: sqlite, postgres")
	}

	switch cfg.Stores.State {
	case "memory", "redis":
	default:
		return errors.New("STATE_STORE must be one of: memory, redis")
	}
	switch cfg.Stores.Counter {
	case "sql", "redis":
	default:
		return errors.New("COUNTER_STORE must be one of: sql, redis")
	}
	if (cfg.Stores.State == "redis" || cfg.Stores.Counter == "redis") && strings.TrimSpace(cfg.Redis.Addr) == "" {
		return errors.New("REDIS_ADDR is required for redis-backed stores")
	}
	if cfg.Stores.StateTTL <= 0 {
		return errors.New("STATE_TTL must be > 0")
	}
	if cfg.Stores.StateMaxEntries < 1 {
		return errors.New("STATE_MAX_ENTRIES must be >= 1")
	}

	if cfg.GinMode != "debug" && cfg.GinMode != "test" && strings.TrimSpace(cfg.Auth.JWTSecret) == "" {
		return errors.New("JWT_SECRET must be set outside debug mode")
	}
	if cfg.Auth.JWTTTL <= 0 {
		return errors.New("JWT_TTL must be > 0")
	}
	if _, err := time.LoadLocation(cfg.Org.Timezone); err != nil {
		return fmt.Errorf("TIMEZONE is invalid: %w", err)
	}
	if cfg.Objects.Enabled() && strings.TrimSpace(cfg.Objects.Bucket) == "" {
		return errors.New("S3_BUCKET must not be empty when S3_ENDPOINT is set")
	}

	if cfg.RateRPS < 0 {
		return errors.New("RATE_RPS must be >= 0")
	}
	if cfg.RateBurst < 1 {
		return errors.New("RATE_BURST must be >= 1")
	}
	if cfg.Security.HSTSMaxAge < 0 {
		return errors.New("HSTS_MAX_AGE must be >= 0")
	}
	if cfg.IdempotencyTTL <= 0 {
		return errors.New("IDEMPOTENCY_TTL must be > 0")
	}
	if cfg.OTEL.SampleRatio < 0 || cfg.OTEL.SampleRatio > 1 {
		return errors.New("OTEL_TRACES_SAMPLER_ARG must be in [0,1]")
	}
	return nil
}

// ---- helpers ----

// source resolves keys from the environment first, then from the optional
// YAML file.
type source struct {
	file map[string]string
}

func newSource(path string) (source, error) {
	src := source{file: map[string]string{}}
	if strings.TrimSpace(path) == "" {
		return src, nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return src, fmt.Errorf("read CONFIG_FILE: %w", err)
	}
	var vals map[string]any
	if err := yaml.Unmarshal(raw, &vals); err != nil {
		return src, fmt.Errorf("parse CONFIG_FILE: %w", err)
	}
	for k, v := range vals {
		if v == nil {
			continue
		}
		src.file[strings.ToUpper(strings.TrimSpace(k))] = fmt.Sprint(v)
	}
	return src, nil
}

func (s source) lookup(k string) (string, bool) {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		return v, true
	}
	if v, ok := s.file[k]; ok && v != "" {
		return v, true
	}
	return "", false
}

func (s source) getenv(k, def string) string {
	if v, ok := s.lookup(k); ok {
		return v
	}
	return def
}

func (s source) getfloat(k string, def float64) float64 {
	if v, ok := s.lookup(k); ok {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return def
}

func (s source) getint(k string, def int) int {
	if v, ok := s.lookup(k); ok {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return def
}

func (s source) getbool(k string, def bool) bool {
	if v, ok := s.lookup(k); ok {
		switch strings.ToLower(strings.TrimSpace(v)) {
		case "1", "true", "yes", "y", "on":
			return true
		case "0", "false", "no", "n", "off":
			return false
		}
	}
	return def
}

func (s source) getdur(k string, def time.Duration) time.Duration {
	if v, ok := s.lookup(k); ok {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}

func splitCSV(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		t := strings.TrimSpace(p)
		if t != "" {
			out = append(out, t)
		}
	}
	return out
}

// normalizeBasePath ensures leading '/' and strips trailing '/' (except root).
func normalizeBasePath(p string) string {
	p = strings.TrimSpace(p)
	if p == "" {
		return "/"
	}
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	if len(p) > 1 && strings.HasSuffix(p, "/") {
		p = strings.TrimRight(p, "/")
	}
	return p
}
