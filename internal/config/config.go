package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config はアプリケーション全体の設定を保持する。
// 環境変数から起動時に1回読み込み、イミュータブルとして扱う。
type Config struct {
	// Source
	SourceURL         string
	SourceResults     int
	SourceNationality string

	// Fetch
	FetchTimeout time.Duration
	FetchMaxSize int64

	// Status
	StatusActiveRatio float64
	StatusSeed        int64 // 0の場合は起動時刻から決める

	// RefreshOnStart がtrueの場合、起動時に1回リフレッシュしてからリクエストを受け付ける。
	RefreshOnStart bool

	// Refresh
	RefreshInterval    time.Duration // 0の場合は定期リフレッシュしない
	RefreshMaxAttempts int
	RefreshBackoff     time.Duration

	// Rate Limit（req/min/IP）
	RateLimitGeneral int

	// Server
	ServerPort string

	// LogLevel はdebug/info/warn/errorのいずれか。
	LogLevel string

	// CORS
	CORSAllowedOrigin string

	// SSRFGuard がtrueの場合、取得元への通信をSSRF対策済みのクライアントで行う。
	SSRFGuard bool
}

// maxSourceResults は取得元が1回に返せる最大件数。
const maxSourceResults = 5000

// Load は環境変数からConfigを読み込む。
// ENV_FILE（既定は .env）が存在すればその内容も環境変数として読み込む。既に設定済みの環境変数は上書きしない。
func Load() (*Config, error) {
	return LoadWithEnvFile(getEnvString("ENV_FILE", ".env"))
}

// LoadWithEnvFile は指定した.envファイルを読み込んだうえで環境変数からConfigを読み込む。
// ファイルが存在しない場合は無視する。値が不正な場合はエラーを返す。
func LoadWithEnvFile(envFile string) (*Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("failed to load env file %s: %w", envFile, err)
		}
	}

	cfg := &Config{
		SourceURL:          getEnvString("SOURCE_URL", "https://randomuser.me/api/"),
		SourceResults:      getEnvInt("SOURCE_RESULTS", 5),
		SourceNationality:  getEnvString("SOURCE_NAT", "us"),
		FetchTimeout:       getEnvDuration("FETCH_TIMEOUT", 10*time.Second),
		FetchMaxSize:       getEnvInt64("FETCH_MAX_SIZE", 1048576),
		StatusActiveRatio:  getEnvFloat("STATUS_ACTIVE_RATIO", 0.7),
		StatusSeed:         getEnvInt64("STATUS_SEED", 0),
		RefreshOnStart:     getEnvBool("REFRESH_ON_START", true),
		RefreshInterval:    getEnvDuration("REFRESH_INTERVAL", 0),
		RefreshMaxAttempts: getEnvInt("REFRESH_MAX_ATTEMPTS", 3),
		RefreshBackoff:     getEnvDuration("REFRESH_BACKOFF", time.Second),
		RateLimitGeneral:   getEnvInt("RATE_LIMIT_GENERAL", 120),
		ServerPort:         getEnvString("SERVER_PORT", "8080"),
		LogLevel:           getEnvString("LOG_LEVEL", "info"),
		CORSAllowedOrigin:  getEnvString("CORS_ALLOWED_ORIGIN", "http://localhost:5173"),
		SSRFGuard:          getEnvBool("SSRF_GUARD", true),
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	var problems []string

	u, err := url.Parse(c.SourceURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		problems = append(problems, fmt.Sprintf("SOURCE_URL must be an absolute http(s) URL: %q", c.SourceURL))
	}
	if c.SourceResults < 1 || c.SourceResults > maxSourceResults {
		problems = append(problems, fmt.Sprintf("SOURCE_RESULTS must be between 1 and %d: %d", maxSourceResults, c.SourceResults))
	}
	if c.StatusActiveRatio < 0 || c.StatusActiveRatio > 1 {
		problems = append(problems, fmt.Sprintf("STATUS_ACTIVE_RATIO must be between 0 and 1: %v", c.StatusActiveRatio))
	}
	if c.FetchTimeout <= 0 {
		problems = append(problems, fmt.Sprintf("FETCH_TIMEOUT must be positive: %v", c.FetchTimeout))
	}

	if c.RefreshInterval < 0 {
		problems = append(problems, fmt.Sprintf("REFRESH_INTERVAL must not be negative: %v", c.RefreshInterval))
	}
	if c.RefreshMaxAttempts < 1 {
		problems = append(problems, fmt.Sprintf("REFRESH_MAX_ATTEMPTS must be at least 1: %d", c.RefreshMaxAttempts))
	}

	if len(problems) > 0 {
		return fmt.Errorf("invalid configuration: %v", problems)
	}
	return nil
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

func getEnvInt64(key string, defaultVal int64) int64 {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	i, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return defaultVal
	}
	return i
}

func getEnvFloat(key string, defaultVal float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return defaultVal
	}
	return f
}

func getEnvBool(key string, defaultVal bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return defaultVal
	}
	return b
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
