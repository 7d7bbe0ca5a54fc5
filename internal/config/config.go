package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config aggregates application configuration values.
type Config struct {
	HTTP    HTTPConfig    `yaml:"http"`
	Store   StoreConfig   `yaml:"store"`
	Auth    AuthConfig    `yaml:"auth"`
	Email   EmailConfig   `yaml:"email"`
	Guard   GuardConfig   `yaml:"guard"`
	Logging LoggingConfig `yaml:"logging"`
}

// HTTPConfig governs HTTP server behaviour.
type HTTPConfig struct {
	Host            string        `yaml:"host"`
	Port            int           `yaml:"port"`
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	IdleTimeout     time.Duration `yaml:"idle_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	AllowedOrigins  []string      `yaml:"allowed_origins"`
}

// StoreConfig selects and configures the record store backend.
type StoreConfig struct {
	Driver      string `yaml:"driver"` // mongo|postgres|memory
	MongoURI    string `yaml:"mongo_uri"`
	DBName      string `yaml:"db_name"`
	PostgresDSN string `yaml:"postgres_dsn"`
	MaxConns    int32  `yaml:"max_conns"`
}

type AuthConfig struct {
	JWTSecret      string        `yaml:"jwt_secret"`
	SessionTTL     time.Duration `yaml:"session_ttl"`
	LoginTokenTTL  time.Duration `yaml:"login_token_ttl"`
	ServiceKey     string        `yaml:"service_key"`
	BaseURL        string        `yaml:"base_url"`
	DeepLinkScheme string        `yaml:"deep_link_scheme"`
}

type EmailConfig struct {
	ResendAPIKey string `yaml:"resend_api_key"`
	From         string `yaml:"from"`
}

// GuardConfig tunes the onboarding guard.
type GuardConfig struct {
	RedirectDelay time.Duration `yaml:"redirect_delay"`
}

// LoggingConfig controls structured logging settings.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"` // json|console
}

const (
	DriverMongo    = "mongo"
	DriverPostgres = "postgres"
	DriverMemory   = "memory"
)

const (
	defaultHost            = "0.0.0.0"
	defaultPort            = 8080
	defaultReadTimeout     = 10 * time.Second
	defaultWriteTimeout    = 15 * time.Second
	defaultIdleTimeout     = 60 * time.Second
	defaultShutdownTimeout = 10 * time.Second
	defaultDBName          = "haven"
	defaultMaxConns        = 10
	defaultSessionTTL      = 30 * 24 * time.Hour
	defaultLoginTokenTTL   = 15 * time.Minute
	defaultDeepLinkScheme  = "haven"
	defaultRedirectDelay   = 400 * time.Millisecond
)

// Default returns the configuration used before any file or environment overrides.
func Default() Config {
	return Config{
		HTTP: HTTPConfig{
			Host:            defaultHost,
			Port:            defaultPort,
			ReadTimeout:     defaultReadTimeout,
			WriteTimeout:    defaultWriteTimeout,
			IdleTimeout:     defaultIdleTimeout,
			ShutdownTimeout: defaultShutdownTimeout,
			AllowedOrigins:  []string{"*"},
		},
		Store: StoreConfig{
			Driver:   DriverMongo,
			DBName:   defaultDBName,
			MaxConns: defaultMaxConns,
		},
		Auth: AuthConfig{
			SessionTTL:     defaultSessionTTL,
			LoginTokenTTL:  defaultLoginTokenTTL,
			DeepLinkScheme: defaultDeepLinkScheme,
		},
		Guard: GuardConfig{
			RedirectDelay: defaultRedirectDelay,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// Load builds the configuration from defaults, the optional YAML file named by
// CONFIG_FILE, and finally environment variables.
func Load() (Config, error) {
	cfg := Default()

	if path := os.Getenv("CONFIG_FILE"); path != "" {
		if err := loadFile(path, &cfg); err != nil {
			return Config{}, err
		}
	}

	if err := applyEnv(&cfg); err != nil {
		return Config{}, err
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func loadFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}
	return nil
}

func applyEnv(cfg *Config) error {
	cfg.HTTP.Host = valueOrDefault("SERVER_HOST", cfg.HTTP.Host)

	port, err := parsePort("PORT", cfg.HTTP.Port)
	if err != nil {
		return err
	}
	cfg.HTTP.Port = port

	durations := []struct {
		key string
		dst *time.Duration
	}{
		{"SERVER_READ_TIMEOUT", &cfg.HTTP.ReadTimeout},
		{"SERVER_WRITE_TIMEOUT", &cfg.HTTP.WriteTimeout},
		{"SERVER_IDLE_TIMEOUT", &cfg.HTTP.IdleTimeout},
		{"SERVER_SHUTDOWN_TIMEOUT", &cfg.HTTP.ShutdownTimeout},
		{"SESSION_TTL", &cfg.Auth.SessionTTL},
		{"LOGIN_TOKEN_TTL", &cfg.Auth.LoginTokenTTL},
		{"GUARD_REDIRECT_DELAY", &cfg.Guard.RedirectDelay},
	}
	for _, d := range durations {
		if err := parseDuration(d.key, d.dst); err != nil {
			return err
		}
	}

	if v := os.Getenv("CORS_ALLOWED_ORIGINS"); v != "" {
		cfg.HTTP.AllowedOrigins = splitCSV(v)
	}

	cfg.Store.Driver = strings.ToLower(valueOrDefault("STORE_DRIVER", cfg.Store.Driver))
	cfg.Store.MongoURI = valueOrDefault("MONGODB_URI", cfg.Store.MongoURI)
	cfg.Store.DBName = valueOrDefault("DB_NAME", cfg.Store.DBName)
	cfg.Store.PostgresDSN = valueOrDefault("DATABASE_URL", cfg.Store.PostgresDSN)
	cfg.Store.MaxConns = int32(parseIntWithDefault("DB_MAX_CONNS", int(cfg.Store.MaxConns)))

	cfg.Auth.JWTSecret = valueOrDefault("JWT_SECRET", cfg.Auth.JWTSecret)
	cfg.Auth.ServiceKey = valueOrDefault("SERVICE_ROLE_KEY", cfg.Auth.ServiceKey)
	cfg.Auth.BaseURL = valueOrDefault("BASE_URL", cfg.Auth.BaseURL)
	cfg.Auth.DeepLinkScheme = valueOrDefault("DEEP_LINK_SCHEME", cfg.Auth.DeepLinkScheme)

	cfg.Email.ResendAPIKey = valueOrDefault("RESEND_API_KEY", cfg.Email.ResendAPIKey)
	cfg.Email.From = valueOrDefault("FROM_EMAIL", cfg.Email.From)

	cfg.Logging.Level = valueOrDefault("LOG_LEVEL", cfg.Logging.Level)
	cfg.Logging.Format = valueOrDefault("LOG_FORMAT", cfg.Logging.Format)
	return nil
}

// Validate reports missing required settings.
func (c Config) Validate() error {
	var errs []error
	if c.Auth.JWTSecret == "" {
		errs = append(errs, errors.New("JWT_SECRET is required"))
	}
	switch c.Store.Driver {
	case DriverMongo:
		if c.Store.MongoURI == "" {
			errs = append(errs, errors.New("MONGODB_URI is required for the mongo store"))
		}
	case DriverPostgres:
		if c.Store.PostgresDSN == "" {
			errs = append(errs, errors.New("DATABASE_URL is required for the postgres store"))
		}
	case DriverMemory:
	default:
		errs = append(errs, fmt.Errorf("unknown STORE_DRIVER %q", c.Store.Driver))
	}
	if c.Guard.RedirectDelay < 0 {
		errs = append(errs, errors.New("GUARD_REDIRECT_DELAY must not be negative"))
	}
	return errors.Join(errs...)
}

// Addr is the listen address for the HTTP server.
func (c HTTPConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

func valueOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func parseIntWithDefault(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if val, err := strconv.Atoi(v); err == nil {
			return val
		}
	}
	return fallback
}

func parseDuration(key string, dst *time.Duration) error {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fmt.Errorf("invalid %s: %w", key, err)
	}
	*dst = d
	return nil
}

func parsePort(key string, fallback int) (int, error) {
	if v := os.Getenv(key); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return 0, fmt.Errorf("invalid %s value %q: %w", key, v, err)
		}
		if port <= 0 || port > 65535 {
			return 0, fmt.Errorf("port %d is out of range", port)
		}
		return port, nil
	}
	return fallback, nil
}

func splitCSV(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
