package config

import (
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// Config is loaded once at startup and never mutated afterwards.
type Config struct {
	ServerPort     string `json:"server_port"`
	Production     bool   `json:"production"`
	AllowedOrigins string `json:"allowed_origins"`

	DatabaseDriver   string `json:"database_driver"`
	DatabasePath     string `json:"database_path"`
	DatabaseHost     string `json:"database_host"`
	DatabasePort     string `json:"database_port"`
	DatabaseName     string `json:"database_name"`
	DatabaseUser     string `json:"database_user"`
	DatabasePassword string `json:"database_password"`
	DatabaseSSLMode  string `json:"database_sslmode"`
	MaxOpenConns     int    `json:"max_open_conns"`
	MaxIdleConns     int    `json:"max_idle_conns"`

	JWTSecret       string        `json:"jwt_secret"`
	SessionDuration time.Duration `json:"session_duration"`
	BcryptCost      int           `json:"bcrypt_cost"`
	RequestTimeout  time.Duration `json:"request_timeout"`

	RedisAddr       string        `json:"redis_addr"`
	RedisPassword   string        `json:"redis_password"`
	RedisDB         int           `json:"redis_db"`
	ProfileCacheTTL time.Duration `json:"profile_cache_ttl"`

	LogLevel string `json:"log_level"`

	path string
}

func generateSecret(length int) (string, error) {
	bytes := make([]byte, length)
	if _, err := rand.Read(bytes); err != nil {
		return "", err
	}
	return hex.EncodeToString(bytes), nil
}

func configPath() string {
	configDir := os.Getenv("RALLYPOINT_CONFIG_DIR")
	if configDir == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			configDir = "."
		} else {
			configDir = filepath.Join(homeDir, ".rallypoint")
		}
	}
	return filepath.Join(configDir, "config.json")
}

// Defaults returns the configuration used when neither the config file nor
// the environment say otherwise.
func Defaults() *Config {
	return &Config{
		ServerPort:      "8080",
		DatabaseDriver:  DriverSQLite,
		DatabasePort:    "5432",
		DatabaseSSLMode: "disable",
		MaxOpenConns:    20,
		MaxIdleConns:    5,
		SessionDuration: time.Hour,
		BcryptCost:      10,
		RequestTimeout:  10 * time.Second,
		ProfileCacheTTL: 5 * time.Minute,
		LogLevel:        "info",
	}
}

// Load reads .env, the JSON config file and the process environment, in that
// order of increasing precedence. A JWT secret is generated and written back
// to the config file when none is configured.
func Load() (*Config, error) {
	// .env is optional
	_ = godotenv.Load()

	cfg := Defaults()
	cfg.path = configPath()

	if data, err := os.ReadFile(cfg.path); err == nil {
		if err := json.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse %s: %w", cfg.path, err)
		}
	} else if !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("read %s: %w", cfg.path, err)
	}

	// persisted is what goes back to disk: file values plus anything
	// generated below, never the environment overrides.
	persisted := *cfg

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}

	needsSave := false
	if cfg.JWTSecret == "" {
		secret, err := generateSecret(32)
		if err != nil {
			return nil, fmt.Errorf("generate jwt secret: %w", err)
		}
		cfg.JWTSecret = secret
		persisted.JWTSecret = secret
		needsSave = true
	}
	if cfg.DatabaseDriver == DriverSQLite && cfg.DatabasePath == "" {
		cfg.DatabasePath = filepath.Join(filepath.Dir(cfg.path), "rallypoint.db")
		persisted.DatabasePath = cfg.DatabasePath
		needsSave = true
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	if needsSave {
		if err := persisted.Save(); err != nil {
			return nil, fmt.Errorf("save %s: %w", cfg.path, err)
		}
	}

	return cfg, nil
}

func (c *Config) applyEnv() error {
	str := map[string]*string{
		"PORT":            &c.ServerPort,
		"ALLOWED_ORIGINS": &c.AllowedOrigins,
		"DB_DRIVER":       &c.DatabaseDriver,
		"DB_PATH":         &c.DatabasePath,
		"DB_HOST":         &c.DatabaseHost,
		"DB_PORT":         &c.DatabasePort,
		"DB_NAME":         &c.DatabaseName,
		"DB_USER":         &c.DatabaseUser,
		"DB_PASSWORD":     &c.DatabasePassword,
		"DB_SSLMODE":      &c.DatabaseSSLMode,
		"JWT_SECRET":      &c.JWTSecret,
		"REDIS_ADDR":      &c.RedisAddr,
		"REDIS_PASSWORD":  &c.RedisPassword,
		"LOG_LEVEL":       &c.LogLevel,
	}
	for key, dst := range str {
		if v := os.Getenv(key); v != "" {
			*dst = v
		}
	}

	ints := map[string]*int{
		"BCRYPT_COST":    &c.BcryptCost,
		"REDIS_DB":       &c.RedisDB,
		"MAX_OPEN_CONNS": &c.MaxOpenConns,
		"MAX_IDLE_CONNS": &c.MaxIdleConns,
	}
	for key, dst := range ints {
		if v := os.Getenv(key); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil {
				return fmt.Errorf("%s: %w", key, err)
			}
			*dst = n
		}
	}

	durations := map[string]*time.Duration{
		"SESSION_DURATION":  &c.SessionDuration,
		"REQUEST_TIMEOUT":   &c.RequestTimeout,
		"PROFILE_CACHE_TTL": &c.ProfileCacheTTL,
	}
	for key, dst := range durations {
		if v := os.Getenv(key); v != "" {
			d, err := time.ParseDuration(v)
			if err != nil {
				return fmt.Errorf("%s: %w", key, err)
			}
			*dst = d
		}
	}

	if env := strings.ToLower(os.Getenv("APP_ENV")); env != "" {
		c.Production = env == "production"
	}

	return nil
}

// Validate rejects configurations the server cannot start with.
func (c *Config) Validate() error {
	switch c.DatabaseDriver {
	case DriverSQLite:
		if c.DatabasePath == "" {
			return errors.New("sqlite driver requires a database path")
		}
	case DriverPostgres:
		if c.DatabaseHost == "" || c.DatabaseName == "" {
			return errors.New("postgres driver requires DB_HOST and DB_NAME")
		}
	default:
		return fmt.Errorf("unknown database driver %q", c.DatabaseDriver)
	}
	if c.JWTSecret == "" {
		return errors.New("jwt secret is required")
	}
	if c.SessionDuration <= 0 {
		return errors.New("session duration must be positive")
	}
	// bcrypt.MinCost..bcrypt.MaxCost
	if c.BcryptCost < 4 || c.BcryptCost > 31 {
		return fmt.Errorf("bcrypt cost %d out of range", c.BcryptCost)
	}
	if c.RequestTimeout <= 0 {
		return errors.New("request timeout must be positive")
	}
	return nil
}

// PostgresDSN builds a libpq keyword/value connection string.
func (c *Config) PostgresDSN() string {
	return fmt.Sprintf(
		"host=%s user=%s password=%s dbname=%s port=%s sslmode=%s",
		c.DatabaseHost,
		c.DatabaseUser,
		c.DatabasePassword,
		c.DatabaseName,
		c.DatabasePort,
		c.DatabaseSSLMode,
	)
}

func (c *Config) Save() error {
	path := c.path
	if path == "" {
		path = configPath()
	}

	// Create config directory if it doesn't exist
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return err
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0600)
}
