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

	"github.com/hitoshi/aquire/internal/login"
	"github.com/hitoshi/aquire/internal/platform"
)

// dotEnvFile は起動ディレクトリから読み込む任意の.envファイル。
const dotEnvFile = ".env"

// Config はアプリケーション全体の設定を保持する。
// 環境変数から起動時に1回読み込み、イミュータブルとして扱う。
type Config struct {
	// Database。空の場合はインメモリのストレージとサンプルカタログで起動する
	DatabaseURL string

	// Shell
	ShellPlatform      string
	RootIdleTimeout    time.Duration
	TransitionDuration time.Duration
	BrowseLimit        int

	// Device
	DeviceCookieMaxAge time.Duration

	// Login
	LoginAccounts login.Accounts

	// Rate Limit（req/min/device）
	RateLimitGeneral int
	RateLimitLogin   int

	// Storage cleanup
	StorageRetentionDays int
	CleanupInterval      time.Duration

	// Logging
	LogLevel string

	// Server
	ServerPort string
	BaseURL    string

	// Cookie
	CookieSecure bool
	CookieDomain string

	// CORS。空の場合は/api/*にCORSヘッダーを付与しない
	CORSAllowedOrigin string
}

// StorageRetention はデバイスの保存値を保持する期間を返す。
func (c *Config) StorageRetention() time.Duration {
	return time.Duration(c.StorageRetentionDays) * 24 * time.Hour
}

// UsesDatabase はPostgreSQLを使う構成かどうかを返す。
func (c *Config) UsesDatabase() bool {
	return c.DatabaseURL != ""
}

// Load は環境変数からConfigを読み込む。
// カレントディレクトリに.envがあれば先に読み込む（既存の環境変数は上書きしない）。
// 必須環境変数が未設定、または値が不正な場合はエラーを返す。
func Load() (*Config, error) {
	if err := godotenv.Load(dotEnvFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load %s: %w", dotEnvFile, err)
	}

	cfg := &Config{}

	// Required fields
	var missing []string

	cfg.BaseURL = os.Getenv("BASE_URL")
	if cfg.BaseURL == "" {
		missing = append(missing, "BASE_URL")
	}

	if len(missing) > 0 {
		return nil, fmt.Errorf("required environment variables are not set: %v", missing)
	}

	// Validated fields
	cfg.ShellPlatform = getEnvString("SHELL_PLATFORM", "auto")
	if _, _, err := platform.ParseOverride(cfg.ShellPlatform); err != nil {
		return nil, fmt.Errorf("invalid SHELL_PLATFORM: %w", err)
	}

	accounts, err := login.ParseAccounts(os.Getenv("LOGIN_ACCOUNTS"))
	if err != nil {
		return nil, fmt.Errorf("invalid LOGIN_ACCOUNTS: %w", err)
	}
	cfg.LoginAccounts = accounts

	// Optional fields with defaults
	cfg.DatabaseURL = os.Getenv("DATABASE_URL")
	cfg.RootIdleTimeout = getEnvDuration("ROOT_IDLE_TIMEOUT", 30*time.Minute)
	cfg.TransitionDuration = getEnvDuration("TRANSITION_DURATION", 300*time.Millisecond)
	cfg.BrowseLimit = getEnvInt("BROWSE_LIMIT", 50)
	cfg.DeviceCookieMaxAge = getEnvDuration("DEVICE_COOKIE_MAX_AGE", 365*24*time.Hour)
	cfg.RateLimitGeneral = getEnvInt("RATE_LIMIT_GENERAL", 120)
	cfg.RateLimitLogin = getEnvInt("RATE_LIMIT_LOGIN", 10)
	cfg.StorageRetentionDays = getEnvInt("STORAGE_RETENTION_DAYS", 90)
	cfg.CleanupInterval = getEnvDuration("CLEANUP_INTERVAL", 24*time.Hour)
	cfg.LogLevel = getEnvString("LOG_LEVEL", "info")
	cfg.ServerPort = getEnvString("SERVER_PORT", "8080")
	cfg.CookieSecure = strings.HasPrefix(cfg.BaseURL, "https://")
	cfg.CookieDomain = getEnvString("COOKIE_DOMAIN", "")
	cfg.CORSAllowedOrigin = getEnvString("CORS_ALLOWED_ORIGIN", "")

	return cfg, nil
}

func getEnvString(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return defaultVal
	}
	return i
}

func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return defaultVal
	}
	return d
}
