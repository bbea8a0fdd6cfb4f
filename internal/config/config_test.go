package config

import (
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"
)

// Ensure a baseline env so defaults validate (release mode needs a JWT secret).
func TestMain(m *testing.M) {
	os.Unsetenv("PORT")
	os.Unsetenv("CONFIG_FILE")
	os.Setenv("JWT_SECRET", "test-secret")
	os.Exit(m.Run())
}

// --- MustLoad ---

func TestMustLoad_PanicsOnInvalidConfig(t *testing.T) {
	t.Setenv("LOG_LEVEL", "verbose")
	defer func() {
		if r := recover(); r == nil {
			t.Fatalf("MustLoad should panic on invalid config")
		}
	}()
	_ = MustLoad()
}

func TestMustLoad_Success_NoPanic(t *testing.T) {
	defer func() {
		if r := recover(); r != nil {
			t.Fatalf("MustLoad should not panic on valid defaults, got: %v", r)
		}
	}()
	cfg := MustLoad()
	if cfg.APIBasePath != "/api" {
		t.Fatalf("API_BASE_PATH default expected '/api', got %q", cfg.APIBasePath)
	}
}

// --- Load success + normalization + parsing ---

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.DBDriver != "sqlite" || cfg.DBPath != "app.db" {
		t.Fatalf("db defaults unexpected: %q %q", cfg.DBDriver, cfg.DBPath)
	}
	if cfg.Org.Name != "องค์การบริหารส่วนตำบลข่าใหญ่" || cfg.Org.Timezone != "Asia/Bangkok" {
		t.Fatalf("org defaults unexpected: %+v", cfg.Org)
	}
	if cfg.Stores.State != "memory" || cfg.Stores.Counter != "sql" || cfg.Stores.StateTTL != 24*time.Hour {
		t.Fatalf("store defaults unexpected: %+v", cfg.Stores)
	}
	if cfg.MaxBodyBytes != 10<<20 {
		t.Fatalf("MaxBodyBytes default = %d", cfg.MaxBodyBytes)
	}
	if cfg.Objects.Enabled() {
		t.Fatalf("object store should be disabled without S3_ENDPOINT")
	}
	if cfg.Auth.JWTTTL != 8*time.Hour {
		t.Fatalf("JWT TTL default = %v", cfg.Auth.JWTTTL)
	}
	if cfg.Location().String() != "Asia/Bangkok" {
		t.Fatalf("Location() = %v", cfg.Location())
	}
}

func TestLoad_Success_Overrides(t *testing.T) {
	t.Setenv("PORT", "8088")
	t.Setenv("READ_TIMEOUT", "2s")
	t.Setenv("GIN_MODE", "weird") // normalizes to "release"
	t.Setenv("LOG_LEVEL", "warning")
	t.Setenv("LOG_PRETTY", "yes")
	t.Setenv("API_BASE_PATH", "api/v1/")
	t.Setenv("BASE_URL", "https://bot.example.com/")
	t.Setenv("LINE_CHANNEL_SECRET", "s3cret")
	t.Setenv("STATE_STORE", "REDIS")
	t.Setenv("COUNTER_STORE", "redis")
	t.Setenv("REDIS_ADDR", "localhost:6379")
	t.Setenv("S3_ENDPOINT", "minio:9000")
	t.Setenv("RATE_RPS", "x")
	t.Setenv("CORS_ALLOWED_ORIGINS", " https://a.com , , http://b ")
	t.Setenv("ENABLE_HSTS", "TRUE")
	t.Setenv("OTEL_TRACES_SAMPLER_ARG", "0.75")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.Port != "8088" || cfg.ReadTimeout != 2*time.Second || cfg.GinMode != "release" {
		t.Fatalf("server fields unexpected: %+v", cfg)
	}
	if cfg.LogLevel != "warn" || !cfg.LogPretty || cfg.APIBasePath != "/api/v1" {
		t.Fatalf("logging/docs unexpected: %+v", cfg)
	}
	if cfg.Line.BaseURL != "https://bot.example.com" || cfg.Line.ChannelSecret != "s3cret" {
		t.Fatalf("line config unexpected: %+v", cfg.Line)
	}
	if cfg.Stores.State != "redis" || cfg.Stores.Counter != "redis" {
		t.Fatalf("stores unexpected: %+v", cfg.Stores)
	}
	if !cfg.Objects.Enabled() || cfg.Objects.Bucket != "repairbot" {
		t.Fatalf("objects unexpected: %+v", cfg.Objects)
	}
	if cfg.RateRPS != 5.0 {
		t.Fatalf("RATE_RPS should fall back to default, got %v", cfg.RateRPS)
	}
	if !reflect.DeepEqual(cfg.CORS.AllowedOrigins, []string{"https://a.com", "http://b"}) {
		t.Fatalf("cors origins unexpected: %#v", cfg.CORS.AllowedOrigins)
	}
	if !cfg.Security.EnableHSTS || cfg.OTEL.SampleRatio != 0.75 {
		t.Fatalf("security/otel unexpected: %+v %+v", cfg.Security, cfg.OTEL)
	}
}

func TestLoad_ConfigFile_EnvWins(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	body := "ORG_NAME: เทศบาลทดสอบ\nport: 9000\nTELEGRAM_ENABLED: true\nRATE_BURST: 3\n"
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("CONFIG_FILE", path)
	t.Setenv("RATE_BURST", "7")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.Org.Name != "เทศบาลทดสอบ" {
		t.Fatalf("file value not applied: %q", cfg.Org.Name)
	}
	if cfg.Port != "9000" {
		t.Fatalf("lower-case key should be normalized, got port %q", cfg.Port)
	}
	if !cfg.Telegram.Enabled {
		t.Fatalf("TELEGRAM_ENABLED from file should be true")
	}
	if cfg.RateBurst != 7 {
		t.Fatalf("env should win over file, got %d", cfg.RateBurst)
	}
}

func TestLoad_ConfigFile_Errors(t *testing.T) {
	t.Run("missing file", func(t *testing.T) {
		t.Setenv("CONFIG_FILE", filepath.Join(t.TempDir(), "nope.yaml"))
		if _, err := Load(); err == nil || !containsErr(err, "read CONFIG_FILE") {
			t.Fatalf("expected read error, got %v", err)
		}
	})
	t.Run("bad yaml", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "bad.yaml")
		_ = os.WriteFile(path, []byte("key: [unclosed\n"), 0o600)
		t.Setenv("CONFIG_FILE", path)
		if _, err := Load(); err == nil || !containsErr(err, "parse CONFIG_FILE") {
			t.Fatalf("expected parse error, got %v", err)
		}
	})
}

// --- Load validations (each case triggers exactly one validation error) ---

func TestLoad_ValidationErrors(t *testing.T) {
	cases := []struct {
		name string
		env  map[string]string
		want string
	}{
		{"invalid LOG_LEVEL", map[string]string{"LOG_LEVEL": "verbose"}, "LOG_LEVEL"},
		{"empty PORT", map[string]string{"PORT": "   "}, "PORT must not be empty"},
		{"non-positive timeouts", map[string]string{"READ_TIMEOUT": "0s"}, "timeouts must be positive"},
		{"max header bytes", map[string]string{"MAX_HEADER_BYTES": "0"}, "MAX_HEADER_BYTES"},
		{"max body bytes", map[string]string{"MAX_BODY_BYTES": "-1"}, "MAX_BODY_BYTES"},
		{"empty DB_PATH", map[string]string{"DB_PATH": "   "}, "DB_PATH must not be empty"},
		{"unknown driver", map[string]string{"DB_DRIVER": "mysql"}, "DB_DRIVER"},
		{"postgres without url", map[string]string{"DB_DRIVER": "postgres"}, "DATABASE_URL"},
		{"unknown state store", map[string]string{"STATE_STORE": "disk"}, "STATE_STORE"},
		{"unknown counter store", map[string]string{"COUNTER_STORE": "file"}, "COUNTER_STORE"},
		{"redis without addr", map[string]string{"STATE_STORE": "redis"}, "REDIS_ADDR"},
		{"state max entries", map[string]string{"STATE_MAX_ENTRIES": "0"}, "STATE_MAX_ENTRIES"},
		{"missing jwt secret", map[string]string{"JWT_SECRET": ""}, "JWT_SECRET"},
		{"bad timezone", map[string]string{"TIMEZONE": "Mars/Olympus"}, "TIMEZONE"},
		{"rate rps negative", map[string]string{"RATE_RPS": "-1"}, "RATE_RPS"},
		{"rate burst < 1", map[string]string{"RATE_BURST": "0"}, "RATE_BURST"},
		{"hsts max age negative", map[string]string{"HSTS_MAX_AGE": "-1s"}, "HSTS_MAX_AGE"},
		{"idempotency ttl", map[string]string{"IDEMPOTENCY_TTL": "0s"}, "IDEMPOTENCY_TTL"},
		{"otel ratio", map[string]string{"OTEL_TRACES_SAMPLER_ARG": "1.5"}, "OTEL_TRACES_SAMPLER_ARG"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			for k, v := range tc.env {
				t.Setenv(k, v)
			}
			if _, err := Load(); err == nil || !containsErr(err, tc.want) {
				t.Fatalf("expected %q validation error, got: %v", tc.want, err)
			}
		})
	}
}

func TestLoad_JWTSecretOptionalInDebug(t *testing.T) {
	t.Setenv("JWT_SECRET", "")
	t.Setenv("GIN_MODE", "debug")
	if _, err := Load(); err != nil {
		t.Fatalf("debug mode should not require JWT_SECRET: %v", err)
	}
}

// --- helpers ---

func TestSource_Getters(t *testing.T) {
	src := source{file: map[string]string{"FROM_FILE": "file", "F_FILE": "2.5"}}

	t.Setenv("X_EMPTY", "")
	if src.getenv("X_EMPTY", "d") != "d" {
		t.Fatalf("getenv should fall back to default on empty var")
	}
	if src.getenv("FROM_FILE", "d") != "file" {
		t.Fatalf("getenv should read file value")
	}
	if src.getfloat("F_FILE", 0) != 2.5 {
		t.Fatalf("getfloat should parse file value")
	}
	t.Setenv("I_BAD", "x")
	if src.getint("I_BAD", 7) != 7 {
		t.Fatalf("getint default on bad parse failed")
	}
	t.Setenv("D_VALID", "150ms")
	if src.getdur("D_VALID", time.Second) != 150*time.Millisecond {
		t.Fatalf("getdur parse failed")
	}
	for _, v := range []string{"1", "TRUE", " yes ", "On"} {
		t.Setenv("B_T", v)
		if !src.getbool("B_T", false) {
			t.Fatalf("getbool(%q) = false; want true", v)
		}
	}
	for _, v := range []string{"0", "false", " no ", "Off"} {
		t.Setenv("B_F", v)
		if src.getbool("B_F", true) {
			t.Fatalf("getbool(%q) = true; want false", v)
		}
	}
}

func TestHelpers_splitCSV_and_normalizeBasePath(t *testing.T) {
	if out := splitCSV(""); out != nil {
		t.Fatalf("splitCSV empty should return nil")
	}
	if got := splitCSV(" a, ,b ,  c  ,"); !reflect.DeepEqual(got, []string{"a", "b", "c"}) {
		t.Fatalf("splitCSV mismatch: got %#v", got)
	}
	for in, want := range map[string]string{"": "/", "v1": "/v1", "/v1/": "/v1", " / ": "/"} {
		if got := normalizeBasePath(in); got != want {
			t.Fatalf("normalizeBasePath(%q) = %q; want %q", in, got, want)
		}
	}
}

// containsErr reports whether err's message contains the given substring.
func containsErr(err error, want string) bool {
	if err == nil {
		return false
	}
	return strings.Contains(err.Error(), want)
}
