package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"time"
)

const (
	BackendSQLite = "sqlite"
	BackendFile   = "file"
	BackendMemory = "memory"
)

type Config struct {
	// HTTP Server
	Port           string
	MaxUploadBytes int64

	// State persistence
	StateBackend string
	SQLiteDBPath string
	StateFile    string
	StateKey     string

	// AMQP SMS relay, disabled when AMQPURL is empty
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string

	// Capture
	GeminiAPIKey   string
	GeminiModel    string
	TTSLanguage    string
	TTSVoice       string
	CaptureTimeout time.Duration

	// Background work and notifications
	ImpulseScanInterval time.Duration
	BannerTTL           time.Duration

	LogLevel string
}

func Load() *Config {
	return &Config{
		Port:           getEnv("PORT", "8081"),
		MaxUploadBytes: int64(getEnvInt("MAX_UPLOAD_BYTES", 10<<20)),

		StateBackend: getEnv("STATE_BACKEND", BackendSQLite),
		SQLiteDBPath: getEnv("SQLITE_DB_PATH", "./data/finhealth.db"),
		StateFile:    getEnv("STATE_FILE", "./data/state.json"),
		StateKey:     getEnv("STATE_KEY", "gemini_finance_state"),

		AMQPURL:      getEnv("AMQP_URL", ""),
		AMQPExchange: getEnv("AMQP_EXCHANGE", "finhealth"),
		AMQPQueue:    getEnv("AMQP_QUEUE", "sms_notifications"),

		GeminiAPIKey:   getEnv("GEMINI_API_KEY", ""),
		GeminiModel:    getEnv("GEMINI_MODEL", "gemini-2.5-flash"),
		TTSLanguage:    getEnv("TTS_LANGUAGE", "en-US"),
		TTSVoice:       getEnv("TTS_VOICE", ""),
		CaptureTimeout: getEnvDuration("CAPTURE_TIMEOUT", 30*time.Second),

		ImpulseScanInterval: getEnvDuration("IMPULSE_SCAN_INTERVAL", time.Minute),
		BannerTTL:           getEnvDuration("BANNER_TTL", 5*time.Second),

		LogLevel: getEnv("LOG_LEVEL", "info"),
	}
}

// AMQPEnabled reports whether notifications are relayed through a broker.
func (c *Config) AMQPEnabled() bool {
	return c.AMQPURL != ""
}

// CaptureEnabled reports whether the Gemini adapters can be built.
func (c *Config) CaptureEnabled() bool {
	return c.GeminiAPIKey != ""
}

// Validate validates the configuration and returns an error if invalid
func (c *Config) Validate() error {
	var errs []string

	if port, err := strconv.Atoi(c.Port); err != nil {
		errs = append(errs, fmt.Sprintf("invalid port '%s': must be a number", c.Port))
	} else if port < 1 || port > 65535 {
		errs = append(errs, fmt.Sprintf("invalid port %d: must be between 1 and 65535", port))
	}

	if c.MaxUploadBytes < 1024 {
		errs = append(errs, fmt.Sprintf("invalid max upload size %d: must be at least 1024 bytes", c.MaxUploadBytes))
	}

	validBackends := []string{BackendSQLite, BackendFile, BackendMemory}
	if !slices.Contains(validBackends, c.StateBackend) {
		errs = append(errs, fmt.Sprintf("invalid state backend '%s': must be one of %v", c.StateBackend, validBackends))
	}

	switch c.StateBackend {
	case BackendSQLite:
		if c.SQLiteDBPath == "" {
			errs = append(errs, "SQLite database path cannot be empty when using sqlite backend")
		} else if err := ensureDir(c.SQLiteDBPath); err != nil {
			errs = append(errs, fmt.Sprintf("cannot create SQLite database directory: %v", err))
		}
		if strings.TrimSpace(c.StateKey) == "" {
			errs = append(errs, "state key cannot be empty when using sqlite backend")
		}
	case BackendFile:
		if c.StateFile == "" {
			errs = append(errs, "state file path cannot be empty when using file backend")
		} else if err := ensureDir(c.StateFile); err != nil {
			errs = append(errs, fmt.Sprintf("cannot create state file directory: %v", err))
		}
	}

	if c.AMQPURL != "" {
		if parsedURL, err := url.Parse(c.AMQPURL); err != nil {
			errs = append(errs, fmt.Sprintf("invalid AMQP URL '%s': %v", c.AMQPURL, err))
		} else if parsedURL.Scheme != "amqp" && parsedURL.Scheme != "amqps" {
			errs = append(errs, fmt.Sprintf("invalid AMQP URL scheme '%s': must be 'amqp' or 'amqps'", parsedURL.Scheme))
		}
		if c.AMQPExchange == "" {
			errs = append(errs, "AMQP exchange name cannot be empty when AMQP URL is provided")
		}
		if c.AMQPQueue == "" {
			errs = append(errs, "AMQP queue name cannot be empty when AMQP URL is provided")
		}
	}

	if c.CaptureTimeout < time.Second || c.CaptureTimeout > 5*time.Minute {
		errs = append(errs, fmt.Sprintf("invalid capture timeout %v: must be between 1 second and 5 minutes", c.CaptureTimeout))
	}
	if c.ImpulseScanInterval < time.Second {
		errs = append(errs, fmt.Sprintf("invalid impulse scan interval %v: must be at least 1 second", c.ImpulseScanInterval))
	} else if c.ImpulseScanInterval > time.Hour {
		errs = append(errs, fmt.Sprintf("invalid impulse scan interval %v: must be at most 1 hour", c.ImpulseScanInterval))
	}
	if c.BannerTTL < 100*time.Millisecond {
		errs = append(errs, fmt.Sprintf("invalid banner ttl %v: must be at least 100ms", c.BannerTTL))
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errs, "\n- "))
	}
	return nil
}

func ensureDir(path string) error {
	dir := filepath.Dir(path)
	if dir == "." || dir == "" {
		return nil
	}
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		return os.MkdirAll(dir, 0o755)
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
