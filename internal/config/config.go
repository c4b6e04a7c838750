package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	StoreMemory   = "memory"
	StoreFile     = "file"
	StorePostgres = "postgres"

	FetchHTTP     = "http"
	FetchHeadless = "headless"
)

type Config struct {
	App      AppConfig
	Database DatabaseConfig
	Redis    RedisConfig
	Scraper  ScraperConfig
	Reminder ReminderConfig
	Token    TokenConfig
}

type AppConfig struct {
	AppName      string
	Environment  string
	HTTPPort     string
	LogLevel     string
	StoreBackend string
	StorePath    string
}

type DatabaseConfig struct {
	DBHost     string
	DBPort     string
	DBName     string
	DBUser     string
	DBPassword string
	DBSSLMode  string

	ConnectTimeout        time.Duration
	PoolMaxConns          int32
	PoolMinConns          int32
	PoolMaxConnLifetime   time.Duration
	PoolMaxConnIdleTime   time.Duration
	PoolHealthCheckPeriod time.Duration
}

type RedisConfig struct {
	Host       string
	Port       string
	Password   string
	SessionTTL time.Duration
}

type ScraperConfig struct {
	FetchMode    string
	FetchTimeout time.Duration
	SkillsFile   string
	Workers      int
	RatePerSec   int
}

type ReminderConfig struct {
	Schedule       string
	StaleAfterDays int
}

type TokenConfig struct {
	Secret string
	TTL    time.Duration
}

var (
	errMissingRequiredEnv = errors.New("missing required environment variables")
	errInvalidEnv         = errors.New("invalid environment variables")
)

// LoadDotEnv reads .env files into the process environment without
// overriding variables that are already set. Missing files are ignored.
func LoadDotEnv(paths ...string) {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, p := range paths {
		if _, err := os.Stat(p); err != nil {
			continue
		}
		_ = godotenv.Load(p)
	}
}

func Load() (Config, error) {
	cfg := Config{}

	var missing, invalid []string
	req := func(key string) string {
		v := strings.TrimSpace(os.Getenv(key))
		if v == "" {
			missing = append(missing, key)
		}
		return v
	}
	opt := func(key, def string) string {
		v := strings.TrimSpace(os.Getenv(key))
		if v == "" {
			return def
		}
		return v
	}
	dur := func(key string, def time.Duration) time.Duration {
		raw := opt(key, "")
		if raw == "" {
			return def
		}
		d, err := time.ParseDuration(raw)
		if err != nil || d <= 0 {
			invalid = append(invalid, key)
			return def
		}
		return d
	}
	num := func(key string, def int) int {
		raw := opt(key, "")
		if raw == "" {
			return def
		}
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			invalid = append(invalid, key)
			return def
		}
		return n
	}
	oneOf := func(key, def string, allowed ...string) string {
		v := strings.ToLower(opt(key, def))
		for _, a := range allowed {
			if v == a {
				return v
			}
		}
		invalid = append(invalid, key)
		return def
	}

	cfg.App = AppConfig{
		AppName:      opt("APP_NAME", "job-tracker"),
		Environment:  opt("APP_ENV", "development"),
		HTTPPort:     opt("HTTP_PORT", "8080"),
		LogLevel:     opt("LOG_LEVEL", "info"),
		StoreBackend: oneOf("STORE_BACKEND", StoreFile, StoreMemory, StoreFile, StorePostgres),
		StorePath:    opt("STORE_PATH", "job-tracker.json"),
	}

	if cfg.App.StoreBackend == StorePostgres {
		cfg.Database = DatabaseConfig{
			DBHost:     req("DB_HOST"),
			DBPort:     req("DB_PORT"),
			DBName:     req("DB_NAME"),
			DBUser:     req("DB_USER"),
			DBPassword: opt("DB_PASSWORD", ""),
			DBSSLMode:  opt("DB_SSL_MODE", "disable"),
		}
	} else {
		cfg.Database = DatabaseConfig{
			DBHost:     opt("DB_HOST", ""),
			DBPort:     opt("DB_PORT", ""),
			DBName:     opt("DB_NAME", ""),
			DBUser:     opt("DB_USER", ""),
			DBPassword: opt("DB_PASSWORD", ""),
			DBSSLMode:  opt("DB_SSL_MODE", "disable"),
		}
	}
	cfg.Database.ConnectTimeout = dur("DB_CONNECT_TIMEOUT", 5*time.Second)
	cfg.Database.PoolMaxConns = int32(num("DB_POOL_MAX_CONNS", 0))

	cfg.Redis = RedisConfig{
		Host:       opt("REDIS_HOST", ""),
		Port:       opt("REDIS_PORT", "6379"),
		Password:   opt("REDIS_PASSWORD", ""),
		SessionTTL: dur("SESSION_TTL", time.Hour),
	}

	cfg.Scraper = ScraperConfig{
		FetchMode:    oneOf("FETCH_MODE", FetchHTTP, FetchHTTP, FetchHeadless),
		FetchTimeout: dur("FETCH_TIMEOUT", 25*time.Second),
		SkillsFile:   opt("SKILLS_FILE", ""),
		Workers:      num("SCRAPE_WORKERS", 4),
		RatePerSec:   num("SCRAPE_RATE_PER_SEC", 3),
	}

	cfg.Reminder = ReminderConfig{
		Schedule:       opt("REMINDER_SCHEDULE", "@daily"),
		StaleAfterDays: num("STALE_AFTER_DAYS", 7),
	}

	cfg.Token = TokenConfig{
		Secret: opt("API_TOKEN_SECRET", ""),
		TTL:    dur("API_TOKEN_TTL", 24*time.Hour),
	}

	if len(missing) > 0 {
		return Config{}, fmt.Errorf("%w: %s", errMissingRequiredEnv, strings.Join(missing, ", "))
	}
	if len(invalid) > 0 {
		return Config{}, fmt.Errorf("%w: %s", errInvalidEnv, strings.Join(invalid, ", "))
	}

	return cfg, nil
}

// IsDevelopment reports whether the app runs in a development environment.
func (c AppConfig) IsDevelopment() bool {
	switch strings.ToLower(c.Environment) {
	case "development", "dev", "local":
		return true
	}
	return false
}
