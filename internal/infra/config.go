package infra

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/francesca-tabor-ai/commerce-pix-sub001/internal/domain"
)

// Config represents application configuration loaded from environment variables.
type Config struct {
	AppEnv      string
	Port        string
	DatabaseURL string
	JWTSecret   string
	RedisAddr   string

	// Storage
	StorageBackend      string // "s3" or "local"
	S3Bucket            string
	S3Region            string
	S3Endpoint          string
	S3AccessKeyID       string
	S3SecretKey         string
	S3UsePathStyle      bool
	LocalStoragePath    string
	LocalStorageBaseURL string
	SignedURLTTL        time.Duration

	// Image provider
	ImageProvider   string // "gemini", "openai", "noop"
	GeminiAPIKey    string
	GeminiModel     string
	OpenAIAPIKey    string
	OpenAIModel     string
	ProviderTimeout time.Duration

	// Limits & billing
	RateLimitPerMinute int
	RateLimitPerDay    int
	IPRateLimitPerMin  int
	FreeCreditCents    int
	ModeCostCents      map[domain.Mode]int

	// Misc
	CORSAllowedOrigins []string
	GeoIPDBPath        string
	WorkerPollInterval time.Duration
	CounterRetention   time.Duration
	HTTPReadTimeout    time.Duration
	HTTPWriteTimeout   time.Duration
	HTTPIdleTimeout    time.Duration
}

// LoadConfig loads configuration from environment variables and applies
// defaults where needed. The per-mode generation costs live here so there is
// exactly one authoritative source for pricing.
func LoadConfig() (*Config, error) {
	cfg := &Config{
		AppEnv:      getEnv("APP_ENV", "development"),
		Port:        getEnv("PORT", "8080"),
		DatabaseURL: os.Getenv("DATABASE_URL"),
		JWTSecret:   os.Getenv("JWT_SECRET"),
		RedisAddr:   os.Getenv("REDIS_ADDR"),

		StorageBackend:      getEnv("STORAGE_BACKEND", "local"),
		S3Bucket:            os.Getenv("S3_BUCKET"),
		S3Region:            getEnv("S3_REGION", "us-east-1"),
		S3Endpoint:          os.Getenv("S3_ENDPOINT"),
		S3AccessKeyID:       os.Getenv("S3_ACCESS_KEY_ID"),
		S3SecretKey:         os.Getenv("S3_SECRET_ACCESS_KEY"),
		S3UsePathStyle:      getEnvBool("S3_USE_PATH_STYLE", false),
		LocalStoragePath:    getEnv("LOCAL_STORAGE_PATH", "./storage"),
		LocalStorageBaseURL: getEnv("LOCAL_STORAGE_BASE_URL", "http://localhost:8080/static"),
		SignedURLTTL:        time.Second * time.Duration(getEnvInt("SIGNED_URL_TTL_SECONDS", 900)),

		ImageProvider:   getEnv("IMAGE_PROVIDER", "gemini"),
		GeminiAPIKey:    os.Getenv("GEMINI_API_KEY"),
		GeminiModel:     getEnv("GEMINI_MODEL", "gemini-2.5-flash-image"),
		OpenAIAPIKey:    os.Getenv("OPENAI_API_KEY"),
		OpenAIModel:     getEnv("OPENAI_MODEL", "gpt-image-1"),
		ProviderTimeout: time.Second * time.Duration(getEnvInt("PROVIDER_TIMEOUT_SECONDS", 120)),

		RateLimitPerMinute: getEnvInt("RATE_LIMIT_PER_MINUTE", 5),
		RateLimitPerDay:    getEnvInt("RATE_LIMIT_PER_DAY", 50),
		IPRateLimitPerMin:  getEnvInt("IP_RATE_LIMIT_PER_MINUTE", 120),
		FreeCreditCents:    getEnvInt("FREE_CREDIT_CENTS", 100),
		ModeCostCents: map[domain.Mode]int{
			domain.ModeMainWhite:      getEnvInt("COST_MAIN_WHITE_CENTS", 2),
			domain.ModeLifestyle:      getEnvInt("COST_LIFESTYLE_CENTS", 4),
			domain.ModeFeatureCallout: getEnvInt("COST_FEATURE_CALLOUT_CENTS", 4),
			domain.ModePackaging:      getEnvInt("COST_PACKAGING_CENTS", 4),
		},

		CORSAllowedOrigins: splitList(getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:3000")),
		GeoIPDBPath:        os.Getenv("GEOIP_DB_PATH"),
		WorkerPollInterval: time.Second * time.Duration(getEnvInt("WORKER_POLL_INTERVAL_SECONDS", 2)),
		CounterRetention:   time.Hour * time.Duration(getEnvInt("COUNTER_RETENTION_HOURS", 48)),
		HTTPReadTimeout:    time.Second * time.Duration(getEnvInt("HTTP_READ_TIMEOUT_SECONDS", 15)),
		HTTPWriteTimeout:   time.Second * time.Duration(getEnvInt("HTTP_WRITE_TIMEOUT_SECONDS", 30)),
		HTTPIdleTimeout:    time.Second * time.Duration(getEnvInt("HTTP_IDLE_TIMEOUT_SECONDS", 60)),
	}

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}
	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required")
	}
	if cfg.StorageBackend == "s3" && cfg.S3Bucket == "" {
		return nil, fmt.Errorf("S3_BUCKET is required when STORAGE_BACKEND=s3")
	}

	return cfg, nil
}

// CostFor returns the configured cost of one generation in the given mode.
func (c *Config) CostFor(mode domain.Mode) int {
	if cost, ok := c.ModeCostCents[mode]; ok {
		return cost
	}
	return 0
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}
