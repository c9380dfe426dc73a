package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"repo-analyzer-client/internal/shared/telemetry"
)

// Config holds application configuration.
type Config struct {
	Port              string
	Env               string
	CORSAllowOrigin   []string
	AnalyzerURL       string
	AnalyzerToken     string
	AnalyzerTimeout   time.Duration
	SessionSecret     string
	SessionTTL        time.Duration
	DatabaseURL       string
	ObjectStoreType   string
	LocalStoreDir     string
	AWSRegion         string
	S3Bucket          string
	S3Prefix          string
	SSEKMSKeyID       string
	AnalyzeRatePerMin float64
	ChatRatePerMin    float64
	ExportRatePerMin  float64
}

// Load reads configuration from environment variables with sensible defaults.
func Load() Config {
	// Best-effort load of local env files for dev convenience.
	loadEnvFiles(".env", "cmd/.env")

	env := normalizeEnv(getEnv("ENV", "dev"))
	secret := os.Getenv("SESSION_SECRET")
	if env == "production" && secret == "" {
		telemetry.Warn("config.session_secret_missing", map[string]any{"env": env})
	}
	if secret == "" {
		secret = "dev-session-secret"
	}

	return Config{
		Port:              getEnv("PORT", "8080"),
		Env:               env,
		CORSAllowOrigin:   splitAndTrim(getEnv("CORS_ALLOW_ORIGINS", "http://localhost:5173,http://localhost:3000")),
		AnalyzerURL:       strings.TrimRight(getEnv("ANALYZER_API_URL", "http://localhost:8000"), "/"),
		AnalyzerToken:     os.Getenv("ANALYZER_API_TOKEN"),
		AnalyzerTimeout:   getSeconds("ANALYZER_TIMEOUT_SECONDS", 120*time.Second),
		SessionSecret:     secret,
		SessionTTL:        getDuration("SESSION_TTL", 24*time.Hour),
		DatabaseURL:       os.Getenv("DATABASE_URL"),
		ObjectStoreType:   normalizeStoreType(getEnv("OBJECT_STORE", "local")),
		LocalStoreDir:     getEnv("LOCAL_STORE_DIR", "./data"),
		AWSRegion:         getEnv("AWS_REGION", ""),
		S3Bucket:          getEnv("S3_BUCKET", ""),
		S3Prefix:          getEnv("S3_PREFIX", "exports/"),
		SSEKMSKeyID:       getEnv("SSE_KMS_KEY_ID", ""),
		AnalyzeRatePerMin: getFloat("RATE_LIMIT_ANALYZE_PER_MIN", 6),
		ChatRatePerMin:    getFloat("RATE_LIMIT_CHAT_PER_MIN", 30),
		ExportRatePerMin:  getFloat("RATE_LIMIT_EXPORT_PER_MIN", 12),
	}
}

// SecureCookies reports whether session cookies should carry the Secure flag.
func (c Config) SecureCookies() bool {
	return c.Env == "production" || c.Env == "staging"
}

func getEnv(key, def string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return def
}

func getSeconds(key string, def time.Duration) time.Duration {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def
	}
	parsed, err := strconv.Atoi(raw)
	if err != nil || parsed <= 0 {
		telemetry.Warn("config.invalid_value", map[string]any{"key": key, "value": raw, "want": "seconds"})
		return def
	}
	return time.Duration(parsed) * time.Second
}

func getDuration(key string, def time.Duration) time.Duration {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def
	}
	parsed, err := time.ParseDuration(raw)
	if err != nil || parsed <= 0 {
		telemetry.Warn("config.invalid_value", map[string]any{"key": key, "value": raw, "want": "duration"})
		return def
	}
	return parsed
}

func getFloat(key string, def float64) float64 {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def
	}
	parsed, err := strconv.ParseFloat(raw, 64)
	if err != nil || parsed < 0 {
		telemetry.Warn("config.invalid_value", map[string]any{"key": key, "value": raw, "want": "number"})
		return def
	}
	return parsed
}

func splitAndTrim(raw string) []string {
	parts := strings.Split(raw, ",")
	var out []string
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func normalizeEnv(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "production", "prod":
		return "production"
	case "staging":
		return "staging"
	case "local":
		return "local"
	case "development", "dev":
		return "dev"
	default:
		return "dev"
	}
}

func normalizeStoreType(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "s3":
		return "s3"
	default:
		return "local"
	}
}
