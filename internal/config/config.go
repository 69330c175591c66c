package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/subosito/gotenv"
	"golang.org/x/crypto/bcrypt"
)

const (
	DriverMySQL    = "mysql"
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

type Config struct {
	AppEnv   string
	Port     string
	LogLevel string
	LogDir   string

	DB DBConfig

	AllowedOrigins      []string
	RequestTimeout      time.Duration
	RequireExpenseOwner bool
	BcryptCost          int
}

type DBConfig struct {
	Driver   string
	Host     string
	Port     int
	User     string
	Password string
	Name     string

	MaxConns              int
	QueueLimit            int
	AcquireTimeout        time.Duration
	KeepAliveInitialDelay time.Duration
	KeepAliveInterval     time.Duration
	ConnMaxIdleTime       time.Duration
	AutoSchema            bool
}

// Load reads .env (when present) and then the process environment.
// Database credentials have no fallbacks and must be configured explicitly.
func Load() (*Config, error) {
	if err := gotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load env variables: %w", err)
	}
	return FromEnv()
}

func FromEnv() (*Config, error) {
	p := &envParser{}

	cfg := &Config{
		AppEnv:              strings.ToLower(getenv("APP_ENV", "development")),
		Port:                getenv("APP_PORT", "8008"),
		LogLevel:            getenv("LOG_LEVEL", "info"),
		LogDir:              os.Getenv("LOG_DIR"),
		AllowedOrigins:      splitList(getenv("CORS_ALLOWED_ORIGINS", "*")),
		RequestTimeout:      p.duration("REQUEST_TIMEOUT", 0),
		RequireExpenseOwner: p.boolean("REQUIRE_EXPENSE_OWNER", false),
		BcryptCost:          p.integer("BCRYPT_COST", bcrypt.DefaultCost),
	}

	driver := strings.ToLower(getenv("DB_DRIVER", DriverMySQL))
	cfg.DB = DBConfig{
		Driver:                driver,
		Host:                  os.Getenv("DB_HOST"),
		User:                  os.Getenv("DB_USER"),
		Name:                  os.Getenv("DB_NAME"),
		Port:                  p.integer("DB_PORT", defaultPort(driver)),
		MaxConns:              p.integer("DB_MAX_CONNS", 10),
		QueueLimit:            p.integer("DB_QUEUE_LIMIT", 0),
		AcquireTimeout:        p.duration("DB_ACQUIRE_TIMEOUT", 0),
		KeepAliveInitialDelay: p.duration("DB_KEEPALIVE_INITIAL_DELAY", 10*time.Second),
		KeepAliveInterval:     p.duration("DB_KEEPALIVE_INTERVAL", time.Minute),
		ConnMaxIdleTime:       p.duration("DB_CONN_MAX_IDLE", 5*time.Minute),
		AutoSchema:            p.boolean("DB_AUTO_SCHEMA", false),
	}
	password, hasPassword := os.LookupEnv("DB_PASSWORD")
	cfg.DB.Password = password

	if p.err != nil {
		return nil, p.err
	}

	switch driver {
	case DriverMySQL, DriverPostgres:
		var missing []string
		if cfg.DB.Host == "" {
			missing = append(missing, "DB_HOST")
		}
		if cfg.DB.User == "" {
			missing = append(missing, "DB_USER")
		}
		if !hasPassword {
			missing = append(missing, "DB_PASSWORD")
		}
		if cfg.DB.Name == "" {
			missing = append(missing, "DB_NAME")
		}
		if len(missing) > 0 {
			return nil, fmt.Errorf("missing required DB environment variables: %s", strings.Join(missing, ", "))
		}
	case DriverSQLite:
		if cfg.DB.Name == "" {
			return nil, fmt.Errorf("missing required DB environment variables: DB_NAME")
		}
	default:
		return nil, fmt.Errorf("unsupported DB_DRIVER %q, expected one of: mysql, postgres, sqlite", driver)
	}

	if cfg.DB.MaxConns <= 0 {
		return nil, fmt.Errorf("DB_MAX_CONNS should be greater than 0")
	}
	if cfg.DB.QueueLimit < 0 {
		return nil, fmt.Errorf("DB_QUEUE_LIMIT should be positive or 0 for unbounded")
	}

	return cfg, nil
}

func defaultPort(driver string) int {
	if driver == DriverPostgres {
		return 5432
	}
	return 3306
}

// getenv returns the value of the named environment variable, or fallback
// if the variable is not set or is empty.
func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func splitList(raw string) []string {
	var out []string
	for _, item := range strings.Split(raw, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

// envParser keeps the first conversion error so Load can report it once.
type envParser struct {
	err error
}

func (p *envParser) integer(key string, fallback int) int {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil && p.err == nil {
		p.err = fmt.Errorf("invalid %s %q: expected an integer", key, raw)
	}
	return v
}

func (p *envParser) duration(key string, fallback time.Duration) time.Duration {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback
	}
	v, err := time.ParseDuration(raw)
	if err != nil && p.err == nil {
		p.err = fmt.Errorf("invalid %s %q: expected a duration like 500ms or 10s", key, raw)
	}
	return v
}

func (p *envParser) boolean(key string, fallback bool) bool {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback
	}
	v, err := strconv.ParseBool(raw)
	if err != nil && p.err == nil {
		p.err = fmt.Errorf("invalid %s %q: expected true or false", key, raw)
	}
	return v
}
