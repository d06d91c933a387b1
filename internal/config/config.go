// Package config provides application configuration loaded from environment
// variables with defaults and validation. It centralizes application settings
// such as server timeouts, logging, storage backends, identity verification,
// rate limiting, and observability.
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
	ServiceName string  // OTEL_SERVICE_NAME (e.g. "studyvault")
	SampleRatio float64 // OTEL_TRACES_SAMPLER_ARG in [0..1]
}

// DBConfig selects the relational store behind the entitlement ledger.
type DBConfig struct {
	Driver string // DB_DRIVER: sqlite|postgres
	Path   string // DB_PATH (sqlite)
	URL    string // DATABASE_URL (postgres DSN)
}

// BlobConfig points at the S3-compatible object store holding unit PDFs.
type BlobConfig struct {
	Endpoint  string // BLOB_ENDPOINT host:port
	AccessKey string
	SecretKey string
	Bucket    string
	Region    string
	UseSSL    bool
}

// AuthConfig configures bearer-token verification.
type AuthConfig struct {
	JWKSURL      string   // AUTH_JWKS_URL
	Issuer       string   // AUTH_ISSUER (optional)
	Audience     string   // AUTH_AUDIENCE (optional)
	AdminUserIDs []string // ADMIN_USER_IDS (CSV)
}

// DeliveryConfig controls download URL issuance and the note watermark.
type DeliveryConfig struct {
	SignedURLTTL  time.Duration // SIGNED_URL_TTL
	PublicBaseURL string        // PUBLIC_BASE_URL, prefix of /download links
	TicketSecret  string        // DOWNLOAD_TICKET_SECRET (HS256)
	WatermarkText string        // WATERMARK_TEXT
}

// RedeemLimitConfig bounds access-key redemption attempts per user.
type RedeemLimitConfig struct {
	RedisAddr     string        // REDIS_ADDR; empty disables the limiter
	RedisPassword string        // REDIS_PASSWORD
	Limit         int           // REDEEM_LIMIT attempts per window
	Window        time.Duration // REDEEM_WINDOW
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

	// Storage
	DB   DBConfig
	Blob BlobConfig

	// Identity
	Auth AuthConfig

	// Delivery
	Delivery DeliveryConfig

	// Rate limiting
	RateRPS   float64 // tokens per second (>= 0)
	RateBurst int     // bucket size (>= 1)
	Redeem    RedeemLimitConfig

	// Web protection
	CORS     CORSConfig
	Security SecurityConfig

	// Observability
	OTEL OTELConfig
}

// IsAdmin reports whether userID is listed in ADMIN_USER_IDS.
func (c Config) IsAdmin(userID string) bool {
	for _, id := range c.Auth.AdminUserIDs {
		if id == userID {
			return true
		}
	}
	return false
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
		WriteTimeout:      getdur("WRITE_TIMEOUT", 60*time.Second),
		IdleTimeout:       getdur("IDLE_TIMEOUT", 60*time.Second),
		MaxHeaderBytes:    getint("MAX_HEADER_BYTES", 1<<20),
		GinMode:           strings.ToLower(getenv("GIN_MODE", "release")),

		// Logging / Docs
		LogLevel:       strings.ToLower(getenv("LOG_LEVEL", "info")),
		LogPretty:      getbool("LOG_PRETTY", false),
		SwaggerEnabled: getbool("SWAGGER_ENABLED", false),
		APIBasePath:    normalizeBasePath(getenv("API_BASE_PATH", "/")),

		// Storage
		DB: DBConfig{
			Driver: strings.ToLower(getenv("DB_DRIVER", "sqlite")),
			Path:   getenv("DB_PATH", "studyvault.db"),
			URL:    getenv("DATABASE_URL", ""),
		},
		Blob: BlobConfig{
			Endpoint:  getenv("BLOB_ENDPOINT", "localhost:9000"),
			AccessKey: getenv("BLOB_ACCESS_KEY", ""),
			SecretKey: getenv("BLOB_SECRET_KEY", ""),
			Bucket:    getenv("BLOB_BUCKET", "study-materials"),
			Region:    getenv("BLOB_REGION", "us-east-1"),
			UseSSL:    getbool("BLOB_USE_SSL", false),
		},

		// Identity
		Auth: AuthConfig{
			JWKSURL:      getenv("AUTH_JWKS_URL", ""),
			Issuer:       getenv("AUTH_ISSUER", ""),
			Audience:     getenv("AUTH_AUDIENCE", ""),
			AdminUserIDs: splitCSV(getenv("ADMIN_USER_IDS", "")),
		},

		// Delivery
		Delivery: DeliveryConfig{
			SignedURLTTL:  getdur("SIGNED_URL_TTL", 15*time.Minute),
			PublicBaseURL: strings.TrimRight(getenv("PUBLIC_BASE_URL", "http://localhost:8080"), "/"),
			TicketSecret:  getenv("DOWNLOAD_TICKET_SECRET", ""),
			WatermarkText: getenv("WATERMARK_TEXT", "StudyVault"),
		},

		// Rate limiting
		RateRPS:   getfloat("RATE_RPS", 5.0),
		RateBurst: getint("RATE_BURST", 10),
		Redeem: RedeemLimitConfig{
			RedisAddr:     getenv("REDIS_ADDR", ""),
			RedisPassword: getenv("REDIS_PASSWORD", ""),
			Limit:         getint("REDEEM_LIMIT", 10),
			Window:        getdur("REDEEM_WINDOW", 15*time.Minute),
		},

		// Web protection
		CORS: CORSConfig{
			AllowedOrigins: splitCSV(getenv("CORS_ALLOWED_ORIGINS", "")),
		},
		Security: SecurityConfig{
			EnableHSTS: getbool("ENABLE_HSTS", false),
			HSTSMaxAge: getdur("HSTS_MAX_AGE", 180*24*time.Hour),
		},

		// Observability (OpenTelemetry)
		OTEL: OTELConfig{
			Enabled:     getbool("OTEL_ENABLED", false),
			Endpoint:    getenv("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4317"),
			Insecure:    getbool("OTEL_EXPORTER_OTLP_INSECURE", true),
			ServiceName: getenv("OTEL_SERVICE_NAME", "studyvault"),
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
	if cfg.DB.Driver == "postgresql" {
		cfg.DB.Driver = "postgres"
	}

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
	switch cfg.DB.Driver {
	case "sqlite":
		if strings.TrimSpace(cfg.DB.Path) == "" {
			return cfg, errors.New("DB_PATH must not be empty")
		}
	case "postgres":
		if strings.TrimSpace(cfg.DB.URL) == "" {
			return cfg, errors.New("DATABASE_URL must be set when DB_DRIVER=postgres")
		}
	default:
		return cfg, errors.New("DB_DRIVER must be one of: sqlite, postgres")
	}
	if strings.TrimSpace(cfg.Blob.Bucket) == "" {
		return cfg, errors.New("BLOB_BUCKET must not be empty")
	}
	if cfg.Delivery.SignedURLTTL <= 0 || cfg.Delivery.SignedURLTTL > 7*24*time.Hour {
		return cfg, errors.New("SIGNED_URL_TTL must be in (0, 168h]")
	}
	if !strings.HasPrefix(cfg.Delivery.PublicBaseURL, "http://") && !strings.HasPrefix(cfg.Delivery.PublicBaseURL, "https://") {
		return cfg, errors.New("PUBLIC_BASE_URL must be an http(s) URL")
	}
	if s := cfg.Delivery.TicketSecret; s != "" && len(s) < 32 {
		return cfg, errors.New("DOWNLOAD_TICKET_SECRET must be at least 32 bytes")
	}
	if strings.TrimSpace(cfg.Delivery.WatermarkText) == "" {
		return cfg, errors.New("WATERMARK_TEXT must not be empty")
	}
	if cfg.RateRPS < 0 {
		return cfg, errors.New("RATE_RPS must be >= 0")
	}
	if cfg.RateBurst < 1 {
		return cfg, errors.New("RATE_BURST must be >= 1")
	}
	if cfg.Redeem.Limit < 1 {
		return cfg, errors.New("REDEEM_LIMIT must be >= 1")
	}
	if cfg.Redeem.Window <= 0 {
		return cfg, errors.New("REDEEM_WINDOW must be > 0")
	}
	if cfg.Security.HSTSMaxAge < 0 {
		return cfg, errors.New("HSTS_MAX_AGE must be >= 0")
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
