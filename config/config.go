/*
config.go - Server configuration

PURPOSE:
  Loads the server configuration. Sources, lowest precedence first:
    1. built-in defaults
    2. the YAML file named by --config or PROJETRH_CONFIG
    3. a .env file in the working directory (missing is fine)
    4. PROJETRH_* environment variables
  Command-line flags are applied on top by cmd/server.

SEE ALSO:
  - cmd/server/main.go: flag parsing and wiring
*/
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

// EnvPrefix starts every environment override.
const EnvPrefix = "PROJETRH_"

type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Database  DatabaseConfig  `yaml:"database"`
	Log       LogConfig       `yaml:"log"`
	Authz     AuthzConfig     `yaml:"authz"`
	Scheduler SchedulerConfig `yaml:"scheduler"`
	Payroll   PayrollConfig   `yaml:"payroll"`
}

type ServerConfig struct {
	Port            int           `yaml:"port"`
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	IdleTimeout     time.Duration `yaml:"idle_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	// CORSOrigins lists the browser origins allowed to call the API.
	CORSOrigins []string `yaml:"cors_origins"`
}

type DatabaseConfig struct {
	// Path of the SQLite file; ":memory:" keeps everything in RAM.
	Path string `yaml:"path"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

type AuthzConfig struct {
	// Mode is enforce, shadow or disabled.
	Mode string `yaml:"mode"`
}

type SchedulerConfig struct {
	Enabled  bool          `yaml:"enabled"`
	Interval time.Duration `yaml:"interval"`
}

type PayrollConfig struct {
	DefaultWorkedDays  int             `yaml:"default_worked_days"`
	DefaultWorkedHours decimal.Decimal `yaml:"default_worked_hours"`
	Currency           string          `yaml:"currency"`
}

// Default returns the configuration used when nothing overrides it.
func Default() Config {
	return Config{
		Server: ServerConfig{
			Port:            8080,
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    30 * time.Second,
			IdleTimeout:     60 * time.Second,
			ShutdownTimeout: 10 * time.Second,
			CORSOrigins:     []string{"http://localhost:3000", "http://localhost:5173"},
		},
		Database:  DatabaseConfig{Path: "projet-rh.db"},
		Log:       LogConfig{Level: "info", Format: "text"},
		Authz:     AuthzConfig{Mode: "enforce"},
		Scheduler: SchedulerConfig{Enabled: true, Interval: time.Hour},
		Payroll: PayrollConfig{
			DefaultWorkedDays:  30,
			DefaultWorkedHours: decimal.RequireFromString("173.33"),
			Currency:           "CDF",
		},
	}
}

// =============================================================================
// LOADING
// =============================================================================

// Load builds the configuration from path (may be empty) and the
// environment. A path that does not exist is an error; an empty path
// falls back to PROJETRH_CONFIG and then to defaults.
func Load(path string, logger *slog.Logger) (Config, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if err := godotenv.Load(); err != nil {
		logger.Debug("no .env file loaded", "error", err)
	}

	cfg := Default()
	if path == "" {
		path = os.Getenv(EnvPrefix + "CONFIG")
	}
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("failed to read config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("failed to parse config %s: %w", path, err)
		}
	}

	if err := cfg.applyEnv(os.LookupEnv); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
	get := func(key string) (string, bool) {
		v, ok := lookup(EnvPrefix + key)
		return strings.TrimSpace(v), ok && strings.TrimSpace(v) != ""
	}

	if v, ok := get("PORT"); ok {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%sPORT: %w", EnvPrefix, err)
		}
		c.Server.Port = port
	}
	if v, ok := get("DB"); ok {
		c.Database.Path = v
	}
	if v, ok := get("LOG_LEVEL"); ok {
		c.Log.Level = strings.ToLower(v)
	}
	if v, ok := get("LOG_FORMAT"); ok {
		c.Log.Format = strings.ToLower(v)
	}
	if v, ok := get("AUTHZ_MODE"); ok {
		c.Authz.Mode = strings.ToLower(v)
	}
	if v, ok := get("SCHEDULER_ENABLED"); ok {
		enabled, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("%sSCHEDULER_ENABLED: %w", EnvPrefix, err)
		}
		c.Scheduler.Enabled = enabled
	}
	if v, ok := get("CORS_ORIGINS"); ok {
		var origins []string
		for _, o := range strings.Split(v, ",") {
			if o = strings.TrimSpace(o); o != "" {
				origins = append(origins, o)
			}
		}
		c.Server.CORSOrigins = origins
	}
	return nil
}

// =============================================================================
// VALIDATION
// =============================================================================

// Validate reports every invalid setting at once.
func (c Config) Validate() error {
	var errs []error
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Errorf("server.port %d out of range", c.Server.Port))
	}
	if c.Database.Path == "" {
		errs = append(errs, errors.New("database.path is required"))
	}
	if _, err := c.Log.SlogLevel(); err != nil {
		errs = append(errs, err)
	}
	switch c.Log.Format {
	case "text", "json":
	default:
		errs = append(errs, fmt.Errorf("log.format %q must be text or json", c.Log.Format))
	}
	switch c.Authz.Mode {
	case "enforce", "shadow", "disabled":
	default:
		errs = append(errs, fmt.Errorf("authz.mode %q must be enforce, shadow or disabled", c.Authz.Mode))
	}
	if c.Scheduler.Enabled && c.Scheduler.Interval <= 0 {
		errs = append(errs, errors.New("scheduler.interval must be positive"))
	}
	if c.Payroll.DefaultWorkedDays < 1 || c.Payroll.DefaultWorkedDays > 31 {
		errs = append(errs, fmt.Errorf("payroll.default_worked_days %d must be between 1 and 31", c.Payroll.DefaultWorkedDays))
	}
	if !c.Payroll.DefaultWorkedHours.IsPositive() {
		errs = append(errs, errors.New("payroll.default_worked_hours must be positive"))
	}
	return errors.Join(errs...)
}

// SlogLevel maps the configured level name.
func (l LogConfig) SlogLevel() (slog.Level, error) {
	switch strings.ToLower(l.Level) {
	case "debug":
		return slog.LevelDebug, nil
	case "info", "":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	}
	return slog.LevelInfo, fmt.Errorf("log.level %q must be debug, info, warn or error", l.Level)
}

// NewLogger builds the process logger writing to stderr.
func (l LogConfig) NewLogger() *slog.Logger {
	level, _ := l.SlogLevel()
	opts := &slog.HandlerOptions{Level: level}
	if l.Format == "json" {
		return slog.New(slog.NewJSONHandler(os.Stderr, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stderr, opts))
}

// Addr is the listen address for the HTTP server.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf(":%d", s.Port)
}
