package config

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func discard() *slog.Logger { return slog.New(slog.NewTextHandler(io.Discard, nil)) }

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "projet-rh.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestDefault_IsValid(t *testing.T) {
	require.NoError(t, Default().Validate())
}

func TestLoad_YAMLOverridesDefaults(t *testing.T) {
	path := writeConfig(t, `
server:
  port: 9090
  read_timeout: 5s
  cors_origins: ["https://rh.example.cd"]
database:
  path: /var/lib/projet-rh/data.db
log:
  level: debug
  format: json
scheduler:
  enabled: false
payroll:
  default_worked_days: 26
  default_worked_hours: "160.5"
`)

	cfg, err := Load(path, discard())
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, 5*time.Second, cfg.Server.ReadTimeout)
	assert.Equal(t, 30*time.Second, cfg.Server.WriteTimeout, "unset keys keep their default")
	assert.Equal(t, []string{"https://rh.example.cd"}, cfg.Server.CORSOrigins)
	assert.Equal(t, "/var/lib/projet-rh/data.db", cfg.Database.Path)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.False(t, cfg.Scheduler.Enabled)
	assert.Equal(t, 26, cfg.Payroll.DefaultWorkedDays)
	assert.True(t, decimal.RequireFromString("160.5").Equal(cfg.Payroll.DefaultWorkedHours))
	assert.Equal(t, "CDF", cfg.Payroll.Currency)
}

func TestLoad_EnvironmentWinsOverFile(t *testing.T) {
	path := writeConfig(t, "server:\n  port: 9090\n")
	t.Setenv("PROJETRH_PORT", "7070")
	t.Setenv("PROJETRH_AUTHZ_MODE", "SHADOW")
	t.Setenv("PROJETRH_SCHEDULER_ENABLED", "false")
	t.Setenv("PROJETRH_CORS_ORIGINS", "https://a.cd, https://b.cd")

	cfg, err := Load(path, discard())
	require.NoError(t, err)

	assert.Equal(t, 7070, cfg.Server.Port)
	assert.Equal(t, "shadow", cfg.Authz.Mode)
	assert.False(t, cfg.Scheduler.Enabled)
	assert.Equal(t, []string{"https://a.cd", "https://b.cd"}, cfg.Server.CORSOrigins)
}

func TestLoad_ConfigPathFromEnvironment(t *testing.T) {
	path := writeConfig(t, "database:\n  path: from-env.db\n")
	t.Setenv("PROJETRH_CONFIG", path)

	cfg, err := Load("", discard())
	require.NoError(t, err)
	assert.Equal(t, "from-env.db", cfg.Database.Path)
}

func TestLoad_Errors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"), discard())
	assert.Error(t, err)

	_, err = Load(writeConfig(t, "server: [not, a, map]"), discard())
	assert.Error(t, err)

	t.Setenv("PROJETRH_PORT", "eighty")
	_, err = Load("", discard())
	assert.ErrorContains(t, err, "PROJETRH_PORT")
}

func TestValidate_ReportsEveryProblem(t *testing.T) {
	cfg := Default()
	cfg.Server.Port = 70000
	cfg.Log.Level = "loud"
	cfg.Log.Format = "xml"
	cfg.Authz.Mode = "maybe"
	cfg.Scheduler.Interval = 0
	cfg.Payroll.DefaultWorkedDays = 40

	err := cfg.Validate()
	require.Error(t, err)
	for _, want := range []string{"server.port", "log.level", "log.format", "authz.mode", "scheduler.interval", "default_worked_days"} {
		assert.ErrorContains(t, err, want)
	}
}

func TestValidate_WorkedTimeMustBePositive(t *testing.T) {
	cfg := Default()
	cfg.Payroll.DefaultWorkedDays = 0
	cfg.Payroll.DefaultWorkedHours = decimal.Zero

	err := cfg.Validate()
	require.Error(t, err)
	assert.ErrorContains(t, err, "default_worked_days")
	assert.ErrorContains(t, err, "default_worked_hours")

	cfg.Payroll.DefaultWorkedDays = 1
	cfg.Payroll.DefaultWorkedHours = decimal.NewFromInt(8)
	assert.NoError(t, cfg.Validate())
}

func TestSlogLevel(t *testing.T) {
	level, err := LogConfig{Level: "WARN"}.SlogLevel()
	require.NoError(t, err)
	assert.Equal(t, slog.LevelWarn, level)

	_, err = LogConfig{Level: "trace"}.SlogLevel()
	assert.Error(t, err)
}
