// Package config provides application configuration loaded from environment
// variables with defaults and validation. It centralizes application settings
// such as server timeouts, logging, database paths, catalog and pricing
// endpoints, rate limiting, and observability.
package config

import (
	"errors"
	"os"
	"strconv"
	"strings"
	"time"
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
	ServiceName string  // OTEL_SERVICE_NAME (e.g. "go-reprice-backend")
	SampleRatio float64 // OTEL_TRACES_SAMPLER_ARG in [0..1]
}

// PricingConfig defines the upstream AI pricing service endpoints and the
// retry/backoff policy used when fetching quotes.
type PricingConfig struct {
	BaseURL       string        // AI_BASE_URL
	FallbackURL   string        // AI_FALLBACK_URL, tried once after a 404 on BaseURL
	HealthTimeout time.Duration // request timeout for the health probe
	PriceTimeout  time.Duration // request timeout for the price call
	MaxAttempts   int           // quote attempts before giving up
	BackoffBase   time.Duration // first retry delay, doubled per attempt
	BackoffMax    time.Duration // ceiling on the retry delay
}

// CatalogConfig defines the local phone catalog and search cache settings.
type CatalogConfig struct {
	CSVPath      string        // CATALOG_CSV_PATH
	TTL          time.Duration // how long a loaded catalog (or a failed load) is reused
	SearchURL    string        // PHONE_SEARCH_URL, remote search endpoint ("" disables)
	CacheVersion int           // bump to invalidate every persisted search result
	CacheTTL     time.Duration // lifetime of a persisted search result
}

// AuthConfig defines password hashing and token settings.
type AuthConfig struct {
	JWTSecret  string        // JWT_SECRET, required outside debug mode
	TokenTTL   time.Duration // bearer token lifetime
	BcryptCost int           // bcrypt work factor
}

// Config holds all configuration values for the application.
type Config struct {
	// Server
	Port              string        // just the number
	ReadTimeout       time.Duration // e.g. 15s
	ReadHeaderTimeout time.Duration // e.g. 10s
	WriteTimeout      time.Duration // e.g. 20s
	IdleTimeout       time.Duration // e.g. 60s
	MaxHeaderBytes    int           // bytes
	GinMode           string        // debug|release|test

	// Logging / Docs
	LogLevel       string // debug|info|warn|error|fatal|panic
	LogPretty      bool   // pretty console logs in dev
	SwaggerEnabled bool   // enable Swagger UI route
	APIBasePath    string // base path for API routes

	// App
	DBPath  string // SQLite path
	Catalog CatalogConfig
	Pricing PricingConfig
	Auth    AuthConfig

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

// MustLoad loads the configuration and panics if validation fails.
func MustLoad() Config {
	cfg, err := Load()
	if err != nil {
		panic(err)
	}
	return cfg
}

// Load reads configuration from environment variables,
// applies defaults, normalizes values, and validates the result.
func Load() (Config, error) {
	cfg := Config{
		// Server
		Port:              getenv("PORT", "8080"),
		ReadTimeout:       getdur("READ_TIMEOUT", 15*time.Second),
		ReadHeaderTimeout: getdur("READ_HEADER_TIMEOUT", 10*time.Second),
		WriteTimeout:      getdur("WRITE_TIMEOUT", 30*time.Second),
		IdleTimeout:       getdur("IDLE_TIMEOUT", 60*time.Second),
		MaxHeaderBytes:    getint("MAX_HEADER_BYTES", 1<<20),
		GinMode:           strings.ToLower(getenv("GIN_MODE", "release")),

		// Logging / Docs
		LogLevel:       strings.ToLower(getenv("LOG_LEVEL", "info")),
		LogPretty:      getbool("LOG_PRETTY", false),
		SwaggerEnabled: getbool("SWAGGER_ENABLED", false),
		APIBasePath:    normalizeBasePath(getenv("API_BASE_PATH", "/api/v1")),

		// App
		DBPath: getenv("DB_PATH", "reprice.db"),
		Catalog: CatalogConfig{
			CSVPath:      getenv("CATALOG_CSV_PATH", "data/phones.csv"),
			TTL:          getdur("CATALOG_TTL", 24*time.Hour),
			SearchURL:    getenv("PHONE_SEARCH_URL", ""),
			CacheVersion: getint("PHONE_CACHE_VERSION", 1),
			CacheTTL:     getdur("PHONE_CACHE_TTL", 24*time.Hour),
		},
		Pricing: PricingConfig{
			BaseURL:       getenv("AI_BASE_URL", "https://reprice-ml3.onrender.com"),
			FallbackURL:   getenv("AI_FALLBACK_URL", ""),
			HealthTimeout: getdur("AI_HEALTH_TIMEOUT", 4*time.Second),
			PriceTimeout:  getdur("AI_PRICE_TIMEOUT", 25*time.Second),
			MaxAttempts:   getint("QUOTE_MAX_ATTEMPTS", 6),
			BackoffBase:   getdur("QUOTE_BACKOFF_BASE", 2*time.Second),
			BackoffMax:    getdur("QUOTE_BACKOFF_MAX", 30*time.Second),
		},
		Auth: AuthConfig{
			JWTSecret:  getenv("JWT_SECRET", ""),
			TokenTTL:   getdur("JWT_TTL", 7*24*time.Hour),
			BcryptCost: getint("BCRYPT_COST", 10),
		},

		// Rate limiting
		RateRPS:   getfloat("RATE_RPS", 5.0),
		RateBurst: getint("RATE_BURST", 10),

		// Web protection
		CORS: CORSConfig{
			AllowedOrigins: splitCSV(getenv("CORS_ALLOWED_ORIGINS", "")),
		},
		Security: SecurityConfig{
			EnableHSTS: getbool("ENABLE_HSTS", false),
			HSTSMaxAge: getdur("HSTS_MAX_AGE", 180*24*time.Hour),
		},

		// Idempotency
		IdempotencyTTL: getdur("IDEMPOTENCY_TTL", 24*time.Hour),

		// Observability (OpenTelemetry)
		OTEL: OTELConfig{
			Enabled:     getbool("OTEL_ENABLED", false),
			Endpoint:    getenv("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4317"),
			Insecure:    getbool("OTEL_EXPORTER_OTLP_INSECURE", true),
			ServiceName: getenv("OTEL_SERVICE_NAME", "go-reprice-backend"),
			SampleRatio: getfloat("OTEL_TRACES_SAMPLER_ARG", 1.0),
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
	// Dev runs reload the catalog frequently, so keep the window short.
	if cfg.GinMode == "debug" {
		if _, ok := os.LookupEnv("CATALOG_TTL"); !ok {
			cfg.Catalog.TTL = 30 * time.Second
		}
	}
	cfg.Pricing.BaseURL = strings.TrimRight(strings.TrimSpace(cfg.Pricing.BaseURL), "/")
	cfg.Pricing.FallbackURL = strings.TrimRight(strings.TrimSpace(cfg.Pricing.FallbackURL), "/")

	// --- validation ---
	switch cfg.LogLevel {
	case "debug", "info", "warn", "error", "fatal", "panic":
	default:
		return cfg, errors.New("LOG_LEVEL must be one of: debug, info, warn, error, fatal, panic")
	}
	if strings.TrimSpace(cfg.Port) == "" {
		return cfg, errors.New("PORT must not be empty")
	}
	if cfg.ReadTimeout <= 0 || cfg.ReadHeaderTimeout <= 0 || cfg.WriteTimeout <= 0 || cfg.IdleTimeout <= 0 {
		return cfg, errors.New("timeouts must be positive durations")
	}
	if cfg.MaxHeaderBytes <= 0 {
		return cfg, errors.New("MAX_HEADER_BYTES must be > 0")
	}
	if strings.TrimSpace(cfg.DBPath) == "" {
		return cfg, errors.New("DB_PATH must not be empty")
	}
	if strings.TrimSpace(cfg.Catalog.CSVPath) == "" {
		return cfg, errors.New("CATALOG_CSV_PATH must not be empty")
	}
	if cfg.Catalog.TTL <= 0 {
		return cfg, errors.New("CATALOG_TTL must be > 0")
	}
	if cfg.Catalog.CacheVersion < 1 {
		return cfg, errors.New("PHONE_CACHE_VERSION must be >= 1")
	}
	if cfg.Catalog.CacheTTL <= 0 {
		return cfg, errors.New("PHONE_CACHE_TTL must be > 0")
	}
	if cfg.Pricing.HealthTimeout <= 0 || cfg.Pricing.PriceTimeout <= 0 {
		return cfg, errors.New("pricing timeouts must be positive durations")
	}
	if cfg.Pricing.MaxAttempts < 1 {
		return cfg, errors.New("QUOTE_MAX_ATTEMPTS must be >= 1")
	}
	if cfg.Pricing.BackoffBase <= 0 || cfg.Pricing.BackoffMax < cfg.Pricing.BackoffBase {
		return cfg, errors.New("QUOTE_BACKOFF_MAX must be >= QUOTE_BACKOFF_BASE > 0")
	}
	if cfg.Auth.JWTSecret == "" && cfg.GinMode != "debug" {
		return cfg, errors.New("JWT_SECRET must be set outside debug mode")
	}
	if cfg.Auth.TokenTTL <= 0 {
		return cfg, errors.New("JWT_TTL must be > 0")
	}
	if cfg.Auth.BcryptCost < 4 || cfg.Auth.BcryptCost > 31 {
		return cfg, errors.New("BCRYPT_COST must be in [4,31]")
	}
	if cfg.RateRPS < 0 {
		return cfg, errors.New("RATE_RPS must be >= 0")
	}
	if cfg.RateBurst < 1 {
		return cfg, errors.New("RATE_BURST must be >= 1")
	}
	if cfg.Security.HSTSMaxAge < 0 {
		return cfg, errors.New("HSTS_MAX_AGE must be >= 0")
	}
	if cfg.IdempotencyTTL <= 0 {
		return cfg, errors.New("IDEMPOTENCY_TTL must be > 0")
	}
	if cfg.OTEL.SampleRatio < 0 || cfg.OTEL.SampleRatio > 1 {
		return cfg, errors.New("OTEL_TRACES_SAMPLER_ARG must be in [0,1]")
	}

	return cfg, nil
}

// ---- helpers (no external deps) ----

func getenv(k, def string) string {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		return v
	}
	return def
}

func getfloat(k string, def float64) float64 {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return def
}

func getint(k string, def int) int {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return def
}

func getbool(k string, def bool) bool {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		switch strings.ToLower(strings.TrimSpace(v)) {
		case "1", "true", "yes", "y", "on":
			return true
		case "0", "false", "no", "n", "off":
			return false
		}
	}
	return def
}

func getdur(k string, def time.Duration) time.Duration {
	if v, ok := os.LookupEnv(k); ok && v != "" {
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
