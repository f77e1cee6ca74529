package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds all application configuration. Values come from an optional
// YAML file (CONFIG_FILE), then from the environment, which wins.
type Config struct {
	Database DatabaseConfig `yaml:"database"`
	HTTP     HTTPConfig     `yaml:"http"`
	GRPC     GRPCConfig     `yaml:"grpc"`
	Auth     AuthConfig     `yaml:"auth"`
	Push     PushConfig     `yaml:"push"`
	Sheets   SheetsConfig   `yaml:"sheets"`
	// Seed loads the demo club into an empty database at startup.
	Seed bool `yaml:"seed"`
}

// DatabaseConfig contains database-related settings.
type DatabaseConfig struct {
	Path string `yaml:"path"` // SQLite database file path
}

type HTTPConfig struct {
	Address string `yaml:"address"`
	// RateLimit is the number of requests per minute allowed per client IP. Zero disables it.
	RateLimit int `yaml:"rate_limit"`
}

// GRPCConfig contains gRPC server settings.
type GRPCConfig struct {
	Address string `yaml:"address"` // empty falls back to :50051
}

// AuthConfig contains authentication settings.
type AuthConfig struct {
	JWTSecret  string        `yaml:"jwt_secret"`
	SessionTTL time.Duration `yaml:"session_ttl"`
}

// PushConfig selects the notification gateway. Provider "" or "none" leaves
// notifications disabled.
type PushConfig struct {
	Provider string         `yaml:"provider"` // fcm | telegram | stub | none
	Timeout  time.Duration  `yaml:"timeout"`
	FCM      FCMConfig      `yaml:"fcm"`
	Telegram TelegramConfig `yaml:"telegram"`
	Stub     StubConfig     `yaml:"stub"`
}

type FCMConfig struct {
	ProjectID       string `yaml:"project_id"`
	CredentialsFile string `yaml:"credentials_file"`
	CredentialsJSON string `yaml:"credentials_json"`
	Endpoint        string `yaml:"endpoint"` // overrides the public API, used by tests
}

func (c FCMConfig) Configured() bool {
	return c.ProjectID != "" && (c.CredentialsFile != "" || c.CredentialsJSON != "" || c.Endpoint != "")
}

type TelegramConfig struct {
	BotToken string `yaml:"bot_token"`
}

type StubConfig struct {
	// Reject lists tokens the stub gateway reports as invalid.
	Reject []string `yaml:"reject"`
}

type SheetsConfig struct {
	SpreadsheetID   string `yaml:"spreadsheet_id"`
	CredentialsFile string `yaml:"credentials_file"`
	Endpoint        string `yaml:"endpoint"`
}

func (c SheetsConfig) Configured() bool {
	return c.SpreadsheetID != "" && (c.CredentialsFile != "" || c.Endpoint != "")
}

func defaults() *Config {
	return &Config{
		Database: DatabaseConfig{Path: "skiclub.db"},
		HTTP:     HTTPConfig{Address: ":8080", RateLimit: 120},
		GRPC:     GRPCConfig{Address: ":50051"},
		Auth:     AuthConfig{SessionTTL: 12 * time.Hour},
		Push:     PushConfig{Timeout: 5 * time.Second},
	}
}

// Load loads configuration and requires JWT_SECRET.
func Load() (*Config, error) {
	cfg, err := load()
	if err != nil {
		return nil, err
	}
	if cfg.Auth.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET environment variable is not set; required for production")
	}
	return cfg, nil
}

// LoadWithDefaults is like Load but uses a safe default for JWT_SECRET in development.
// WARNING: Only use in development! Use Load() in production.
func LoadWithDefaults() (*Config, error) {
	cfg, err := load()
	if err != nil {
		return nil, err
	}
	if cfg.Auth.JWTSecret == "" {
		cfg.Auth.JWTSecret = "dev-secret-change-me"
	}
	return cfg, nil
}

func load() (*Config, error) {
	// A missing .env is normal outside development.
	if err := godotenv.Load(getEnv("DOTENV_FILE", ".env")); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load dotenv: %w", err)
	}

	cfg := defaults()
	if path := getEnv("CONFIG_FILE", ""); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config file %s: %w", path, err)
		}
	}

	cfg.Database.Path = getEnv("DB_PATH", cfg.Database.Path)
	cfg.HTTP.Address = getEnv("HTTP_ADDRESS", cfg.HTTP.Address)
	cfg.GRPC.Address = getEnv("GRPC_ADDRESS", cfg.GRPC.Address)
	cfg.Auth.JWTSecret = getEnv("JWT_SECRET", cfg.Auth.JWTSecret)
	cfg.Push.Provider = strings.ToLower(getEnv("PUSH_PROVIDER", cfg.Push.Provider))
	cfg.Push.FCM.ProjectID = getEnv("FCM_PROJECT_ID", cfg.Push.FCM.ProjectID)
	cfg.Push.FCM.CredentialsFile = getEnv("FCM_CREDENTIALS_FILE", cfg.Push.FCM.CredentialsFile)
	cfg.Push.FCM.CredentialsJSON = getEnv("FCM_CREDENTIALS_JSON", cfg.Push.FCM.CredentialsJSON)
	cfg.Push.Telegram.BotToken = getEnv("TELEGRAM_BOT_TOKEN", cfg.Push.Telegram.BotToken)
	cfg.Sheets.SpreadsheetID = getEnv("SHEETS_SPREADSHEET_ID", cfg.Sheets.SpreadsheetID)
	cfg.Sheets.CredentialsFile = getEnv("SHEETS_CREDENTIALS_FILE", cfg.Sheets.CredentialsFile)

	var err error
	if cfg.HTTP.RateLimit, err = getEnvInt("HTTP_RATE_LIMIT", cfg.HTTP.RateLimit); err != nil {
		return nil, err
	}
	if cfg.Push.Timeout, err = getEnvDuration("PUSH_TIMEOUT", cfg.Push.Timeout); err != nil {
		return nil, err
	}
	if cfg.Auth.SessionTTL, err = getEnvDuration("SESSION_TTL", cfg.Auth.SessionTTL); err != nil {
		return nil, err
	}
	if cfg.Seed, err = getEnvBool("SEED_DEMO", cfg.Seed); err != nil {
		return nil, err
	}
	if cfg.Push.Timeout <= 0 {
		return nil, fmt.Errorf("push timeout must be positive, got %s", cfg.Push.Timeout)
	}
	return cfg, nil
}

// getEnv retrieves an environment variable with a default fallback.
func getEnv(key, defaultVal string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultVal
}

// getEnvInt retrieves an environment variable as an integer with a default fallback.
func getEnvInt(key string, defaultVal int) (int, error) {
	if value, exists := os.LookupEnv(key); exists {
		intVal, err := strconv.Atoi(value)
		if err != nil {
			return 0, fmt.Errorf("invalid integer for %s: %w", key, err)
		}
		return intVal, nil
	}
	return defaultVal, nil
}

func getEnvDuration(key string, defaultVal time.Duration) (time.Duration, error) {
	if value, exists := os.LookupEnv(key); exists {
		d, err := time.ParseDuration(value)
		if err != nil {
			return 0, fmt.Errorf("invalid duration for %s: %w", key, err)
		}
		return d, nil
	}
	return defaultVal, nil
}

func getEnvBool(key string, defaultVal bool) (bool, error) {
	if value, exists := os.LookupEnv(key); exists {
		b, err := strconv.ParseBool(value)
		if err != nil {
			return false, fmt.Errorf("invalid boolean for %s: %w", key, err)
		}
		return b, nil
	}
	return defaultVal, nil
}

// String returns a string representation of the config (sensitive values are masked).
func (c *Config) String() string {
	provider := c.Push.Provider
	if provider == "" {
		provider = "none"
	}
	return fmt.Sprintf("Config{DB: %s, HTTP: %s, gRPC: %s, Push: %s, Sheets: %t, Auth: *** (masked) ***}",
		c.Database.Path, c.HTTP.Address, c.GRPC.Address, provider, c.Sheets.Configured())
}
