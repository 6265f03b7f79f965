package infra

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// Session store backends accepted by SESSION_STORE.
const (
	SessionStoreFile     = "file"
	SessionStoreSQLite   = "sqlite"
	SessionStorePostgres = "postgres"
	SessionStoreMemory   = "memory"
)

// Config represents application configuration loaded from environment variables.
type Config struct {
	AppEnv              string
	Port                string
	ListenHost          string
	PublicURL           string
	APIBaseURL          string
	AuthBaseURL         string
	SessionStore        string
	SessionDir          string
	SessionNamespace    string
	DatabaseURL         string
	ExportDir           string
	GeoIPDBPath         string
	DefaultLocale       string
	RequestTimeout      time.Duration
	PaymentPollAttempts int
	PaymentPollInterval time.Duration
	HTTPReadTimeout     time.Duration
	HTTPWriteTimeout    time.Duration
	HTTPIdleTimeout     time.Duration
	RateLimitPerMin     int
}

// LoadConfig loads configuration from environment variables and applies defaults where needed.
func LoadConfig() (*Config, error) {
	port := getEnv("PORT", "8080")
	cfg := &Config{
		AppEnv:              getEnv("APP_ENV", "development"),
		Port:                port,
		ListenHost:          getEnv("LISTEN_HOST", "127.0.0.1"),
		PublicURL:           strings.TrimRight(getEnv("PUBLIC_URL", "http://localhost:"+port), "/"),
		APIBaseURL:          strings.TrimRight(getEnv("API_BASE_URL", "http://localhost:8000/api/v1"), "/"),
		AuthBaseURL:         strings.TrimRight(getEnv("AUTH_BASE_URL", "https://api.densematrix.ai"), "/"),
		SessionStore:        strings.ToLower(getEnv("SESSION_STORE", SessionStoreFile)),
		SessionDir:          getEnv("SESSION_DIR", defaultSessionDir()),
		SessionNamespace:    getEnv("SESSION_NAMESPACE", "default"),
		DatabaseURL:         os.Getenv("DATABASE_URL"),
		ExportDir:           getEnv("EXPORT_DIR", "./exports"),
		GeoIPDBPath:         os.Getenv("GEOIP_DB_PATH"),
		DefaultLocale:       strings.ToLower(getEnv("DEFAULT_LOCALE", "en")),
		RequestTimeout:      time.Second * time.Duration(getEnvInt("REQUEST_TIMEOUT_SECONDS", 60)),
		PaymentPollAttempts: getEnvInt("PAYMENT_POLL_ATTEMPTS", 10),
		PaymentPollInterval: time.Millisecond * time.Duration(getEnvInt("PAYMENT_POLL_INTERVAL_MS", 1000)),
		HTTPReadTimeout:     time.Second * time.Duration(getEnvInt("HTTP_READ_TIMEOUT_SECONDS", 15)),
		HTTPWriteTimeout:    time.Second * time.Duration(getEnvInt("HTTP_WRITE_TIMEOUT_SECONDS", 60)),
		HTTPIdleTimeout:     time.Second * time.Duration(getEnvInt("HTTP_IDLE_TIMEOUT_SECONDS", 60)),
		RateLimitPerMin:     getEnvInt("RATE_LIMIT_PER_MINUTE", 30),
	}

	switch cfg.SessionStore {
	case SessionStoreFile, SessionStoreSQLite, SessionStoreMemory:
	case SessionStorePostgres:
		if cfg.DatabaseURL == "" {
			return nil, fmt.Errorf("DATABASE_URL is required when SESSION_STORE=postgres")
		}
	default:
		return nil, fmt.Errorf("unsupported SESSION_STORE %q", cfg.SessionStore)
	}

	if cfg.PaymentPollAttempts <= 0 {
		return nil, fmt.Errorf("PAYMENT_POLL_ATTEMPTS must be positive")
	}
	if cfg.PaymentPollInterval < 0 {
		cfg.PaymentPollInterval = 0
	}

	return cfg, nil
}

// ListenAddr returns the host:port the web client binds to.
func (c *Config) ListenAddr() string {
	return c.ListenHost + ":" + c.Port
}

func defaultSessionDir() string {
	if dir, err := os.UserConfigDir(); err == nil && dir != "" {
		return filepath.Join(dir, "ocrweb")
	}
	return ".ocrweb"
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
