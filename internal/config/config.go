package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds everything both binaries read from the environment. Fields
// that only one binary cares about are simply ignored by the other.
type Config struct {
	// HTTP
	ChatPort   string
	LedgerPort string

	// Boundary base URL the chat core talks to, e.g. "http://localhost:8082".
	LedgerBaseURL string

	// HTTP client timeout for boundary calls.
	BoundaryTimeout time.Duration

	// Identity of the signed-in user and the active tracker.
	UserID    string
	TrackerID string
	PlanTier  string

	// Monthly turn ceilings per plan tier.
	QuotaFree int
	QuotaPlus int
	QuotaPro  int

	// Usage-record store: "memory" or "sqlite".
	UsageBackend string
	SQLitePath   string

	// Extraction model.
	GeminiModel string

	// Ledger storage.
	BigQueryProject string
	BigQueryDataset string
	GCSBucket       string

	// Optional AMQP fanout for change notifications.
	AMQPURL      string
	AMQPExchange string

	LogLevel string
}

// Load reads configuration from the environment, first loading a .env file
// if one is present next to the binary.
func Load() *Config {
	_ = godotenv.Load()

	return &Config{
		ChatPort:   getEnv("CHAT_PORT", "8081"),
		LedgerPort: getEnv("LEDGER_PORT", "8082"),

		LedgerBaseURL:   getEnv("LEDGER_BASE_URL", "http://localhost:8082"),
		BoundaryTimeout: getEnvDuration("BOUNDARY_TIMEOUT", 30*time.Second),

		UserID:    getEnv("USER_ID", "local"),
		TrackerID: getEnv("TRACKER_ID", "default"),
		PlanTier:  getEnv("PLAN_TIER", "free"),

		QuotaFree: getEnvInt("QUOTA_FREE", 10),
		QuotaPlus: getEnvInt("QUOTA_PLUS", 100),
		QuotaPro:  getEnvInt("QUOTA_PRO", 1000),

		UsageBackend: getEnv("USAGE_BACKEND", "sqlite"),
		SQLitePath:   getEnv("SQLITE_DB_PATH", "./data/ledgerchat.db"),

		GeminiModel: getEnv("GEMINI_MODEL", "gemini-2.5-flash"),

		BigQueryProject: getEnv("BIGQUERY_PROJECT", ""),
		BigQueryDataset: getEnv("BIGQUERY_DATASET", "finance"),
		GCSBucket:       getEnv("GCS_BUCKET", ""),

		AMQPURL:      getEnv("AMQP_URL", ""),
		AMQPExchange: getEnv("AMQP_EXCHANGE", "ledgerchat"),

		LogLevel: getEnv("LOG_LEVEL", "info"),
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fallback
	}
	return d
}
