package common

import (
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application configuration
type Config struct {
	Store  StoreConfig
	Server ServerConfig
	Docs   DocsConfig
	LLM    LLMConfig
	Log    LogConfig
}

// StoreConfig holds session store configuration
type StoreConfig struct {
	Driver           string // memory | sqlite | postgres
	DSN              string
	MaxConns         int32
	MinConns         int32
	MaxConnLifetime  time.Duration
	MaxConnIdleTime  time.Duration
	DialTimeout      time.Duration
	StatementTimeout time.Duration
}

// ServerConfig holds server-related configuration
type ServerConfig struct {
	GRPCAddr string
}

// DocsConfig holds document extraction configuration
type DocsConfig struct {
	Pdftotext      string
	Pdftoppm       string
	Tesseract      string
	TesseractLang  string
	PDFOCRFallback bool
}

// LLMConfig holds LLM-related configuration
type LLMConfig struct {
	Provider    string // gemini | openai
	Model       string
	APIKey      string
	BaseURL     string
	Temperature float32
	Timeout     time.Duration // 0 = wait for the provider
	Lenient     bool
	SecretsFile string
}

// LogConfig holds logger configuration
type LogConfig struct {
	Level  string
	Format string // text | json
}

// LoadConfig loads configuration from environment variables, after an optional .env file.
func LoadConfig() *Config {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		slog.Debug("config.dotenv.skipped", "error", err)
	}

	provider := strings.ToLower(getEnv("LLM_PROVIDER", "gemini"))
	defaultModel := "gemini-1.5-flash-latest"
	apiKey := getEnv("GOOGLE_API_KEY", "")
	if provider == "openai" {
		defaultModel = "gpt-4o-mini"
		apiKey = getEnv("OPENAI_API_KEY", "")
	}

	return &Config{
		Store: StoreConfig{
			Driver:           strings.ToLower(getEnv("STORE_DRIVER", "memory")),
			DSN:              getEnv("DB_URL", ""),
			MaxConns:         getEnvAsInt32("DB_MAX_CONNS", 10),
			MinConns:         getEnvAsInt32("DB_MIN_CONNS", 1),
			MaxConnLifetime:  getEnvAsDuration("DB_MAX_CONN_LIFETIME", 30*time.Minute),
			MaxConnIdleTime:  getEnvAsDuration("DB_MAX_CONN_IDLE_TIME", 5*time.Minute),
			DialTimeout:      getEnvAsDuration("DB_DIAL_TIMEOUT", 3*time.Second),
			StatementTimeout: getEnvAsDuration("DB_STATEMENT_TIMEOUT", 0),
		},
		Server: ServerConfig{
			GRPCAddr: getEnv("GRPC_ADDR", ":8080"),
		},
		Docs: DocsConfig{
			Pdftotext:      getEnv("PDFTOTEXT", "pdftotext"),
			Pdftoppm:       getEnv("PDFTOPPM", "pdftoppm"),
			Tesseract:      getEnv("TESSERACT", "tesseract"),
			TesseractLang:  getEnv("TESSERACT_LANG", "spa+eng"),
			PDFOCRFallback: getEnvAsBool("PDF_OCR_FALLBACK", false),
		},
		LLM: LLMConfig{
			Provider:    provider,
			Model:       getEnv("LLM_MODEL", defaultModel),
			APIKey:      apiKey,
			BaseURL:     getEnv("OPENAI_BASE_URL", ""),
			Temperature: getEnvAsFloat32("LLM_TEMPERATURE", 0.0),
			Timeout:     getEnvAsDuration("LLM_TIMEOUT", 0),
			Lenient:     getEnvAsBool("LLM_LENIENT", false),
			SecretsFile: getEnv("SECRETS_FILE", "secrets.yaml"),
		},
		Log: LogConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "text"),
		},
	}
}

// APIKeyEnvName returns the environment variable holding the key for the provider.
func (c LLMConfig) APIKeyEnvName() string {
	if c.Provider == "openai" {
		return "OPENAI_API_KEY"
	}
	return "GOOGLE_API_KEY"
}

// Helper functions for environment variable parsing
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt32(key string, defaultValue int32) int32 {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.ParseInt(value, 10, 32); err == nil {
			return int32(intVal)
		}
	}
	return defaultValue
}

func getEnvAsFloat32(key string, defaultValue float32) float32 {
	if value := os.Getenv(key); value != "" {
		if floatVal, err := strconv.ParseFloat(value, 32); err == nil {
			return float32(floatVal)
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

// Validate validates the loaded configuration. The API key is checked separately
// by ResolveAPIKey because it may still come from the secrets file or a prompt.
func (c *Config) Validate() error {
	switch c.Store.Driver {
	case "memory":
	case "sqlite", "postgres":
		if c.Store.DSN == "" {
			return NewAppError("CONFIG_ERROR", "DB_URL is required for store driver "+c.Store.Driver, ErrConfiguration)
		}
	default:
		return NewAppError("CONFIG_ERROR", "unknown STORE_DRIVER "+c.Store.Driver, ErrConfiguration)
	}
	switch c.LLM.Provider {
	case "gemini", "openai":
	default:
		return NewAppError("CONFIG_ERROR", "unknown LLM_PROVIDER "+c.LLM.Provider, ErrConfiguration)
	}
	if c.Server.GRPCAddr == "" {
		return NewAppError("CONFIG_ERROR", "GRPC_ADDR is required", ErrConfiguration)
	}
	return nil
}
