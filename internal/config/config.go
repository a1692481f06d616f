package config // package config loads application configuration from environment variables

import (
	"errors"  // errors.Join collects every missing key into one report
	"fmt"     // fmt formats validation messages
	"os"      // os provides access to environment variables
	"strconv" // strconv converts strings to other types
	"strings" // strings normalizes driver and env names
	"time"    // time parses request timeouts

	"github.com/joho/godotenv" // godotenv loads an optional .env file before reading the environment
)

// Supported values of DB_DRIVER.
const (
	DriverMySQL  = "mysql"
	DriverSQLite = "sqlite"
)

// Config holds all runtime configuration values.  Each field corresponds to
// an environment variable.  The struct is built once in cmd/server and handed
// to constructors explicitly; no package reads the environment after startup.
type Config struct {
	Env  string // application environment (e.g. "dev", "prod")
	Port string // HTTP port to listen on

	DB DatabaseConfig // connection settings for the primary store

	JWTSecret      string // secret used to sign access tokens
	RefreshSecret  string // separate secret used to sign refresh tokens
	AccessTTLMin   int    // access token time-to-live in minutes
	RefreshTTLDays int    // refresh token time-to-live in days
	BcryptCost     int    // bcrypt cost for password hashing

	RequestTimeout time.Duration // upper bound applied to every store call made by a handler
	MaxPageSize    int           // hard cap on the limit query parameter
	HistoryLimit   int           // maximum number of watch-history entries returned

	RateLimit RateLimitConfig // token bucket settings
	Redis     RedisConfig     // redis connection used by the rate limiter
	Storage   StorageConfig   // object storage for video and image uploads
	Queue     QueueConfig     // engagement event broker settings
}

// DatabaseConfig describes how to reach the SQL store.  MySQL uses the
// host/port/user fields while SQLite only needs Path.
type DatabaseConfig struct {
	Driver string // "mysql" or "sqlite"
	User   string // database username
	Pass   string // database password (optional)
	Host   string // database host address
	Port   string // database port number
	Name   string // database name
	Path   string // sqlite file path
}

// Production reports whether the service runs with production settings.
// Cookies are marked Secure and internal error details are hidden when true.
func (c Config) Production() bool {
	switch strings.ToLower(c.Env) {
	case "prod", "production":
		return true
	}
	return false
}

// CookieSecure reports whether auth cookies carry the Secure attribute.
func (c Config) CookieSecure() bool { return c.Production() }

// Load reads configuration values from environment variables and returns a
// Config.  A .env file in the working directory is loaded first when present.
// Every required variable that is missing is reported in the returned error.
func Load() (Config, error) {
	_ = godotenv.Load() // a missing .env file is not an error

	var missing []error
	must := func(key string) string {
		v, ok := os.LookupEnv(key)
		if !ok || strings.TrimSpace(v) == "" {
			missing = append(missing, fmt.Errorf("missing required env var: %s", key))
		}
		return v
	}

	cfg := Config{
		Env:            envStr("APP_ENV", "dev"),                  // environment (dev/test/prod)
		Port:           envStr("APP_PORT", "8000"),                // port to bind the HTTP server
		JWTSecret:      must("JWT_SECRET"),                        // secret used for signing access tokens
		RefreshSecret:  must("REFRESH_TOKEN_SECRET"),              // secret used for signing refresh tokens
		AccessTTLMin:   envInt("ACCESS_TOKEN_TTL_MIN", 15),        // TTL for access tokens in minutes
		RefreshTTLDays: envInt("REFRESH_TOKEN_TTL_DAYS", 10),      // TTL for refresh tokens in days
		BcryptCost:     envInt("BCRYPT_COST", 10),                 // bcrypt cost factor
		RequestTimeout: envDur("REQUEST_TIMEOUT", 5*time.Second),  // per-request store deadline
		MaxPageSize:    envInt("MAX_PAGE_SIZE", 100),              // pagination cap
		HistoryLimit:   envInt("HISTORY_LIMIT", 200),              // watch history cap
		RateLimit:      LoadRateLimitConfig(),
		Redis:          LoadRedisConfig(),
		Storage:        LoadStorageConfig(),
		Queue:          LoadQueueConfig(),
	}

	cfg.DB = DatabaseConfig{Driver: strings.ToLower(envStr("DB_DRIVER", DriverMySQL))}
	switch cfg.DB.Driver {
	case DriverMySQL:
		cfg.DB.User = must("DB_USER")
		cfg.DB.Pass = os.Getenv("DB_PASS") // empty allowed
		cfg.DB.Host = must("DB_HOST")
		cfg.DB.Port = must("DB_PORT")
		cfg.DB.Name = must("DB_NAME")
	case DriverSQLite:
		cfg.DB.Path = envStr("DB_PATH", "streamhub.db")
	default:
		missing = append(missing, fmt.Errorf("unsupported DB_DRIVER %q", cfg.DB.Driver))
	}

	if cfg.BcryptCost < 4 || cfg.BcryptCost > 31 {
		missing = append(missing, fmt.Errorf("invalid BCRYPT_COST %d", cfg.BcryptCost))
	}
	if cfg.MaxPageSize < 1 {
		cfg.MaxPageSize = 100
	}
	if cfg.HistoryLimit < 1 {
		cfg.HistoryLimit = 200
	}
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = 5 * time.Second
	}

	if err := errors.Join(missing...); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// envStr returns the value of k or d when the variable is unset or empty.
func envStr(k, d string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return d
}

// envBool accepts the usual spellings of true and false.  Anything else
// falls back to d.
func envBool(k string, d bool) bool {
	switch strings.ToLower(os.Getenv(k)) {
	case "1", "true", "yes", "on":
		return true
	case "0", "false", "no", "off":
		return false
	}
	return d
}

func envInt(k string, d int) int {
	v := os.Getenv(k)
	if v == "" {
		return d
	}
	if n, err := strconv.Atoi(v); err == nil {
		return n
	}
	return d
}

func envDur(k string, d time.Duration) time.Duration {
	v := os.Getenv(k)
	if v == "" {
		return d
	}
	if dur, err := time.ParseDuration(v); err == nil {
		return dur
	}
	return d
}
