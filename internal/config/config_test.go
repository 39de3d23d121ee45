package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func chdirTemp(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	origDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(origDir) }) //nolint:errcheck
	return dir
}

func TestLoadDefaults(t *testing.T) {
	// Change to temp dir so no config.yaml is found
	chdirTemp(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "models", cfg.Models.Dir)
	assert.Empty(t, cfg.Models.ClassifierFile)
	assert.Equal(t, ".", cfg.Insights.FiguresDir)
	assert.Equal(t, 5, cfg.Insights.TopFeatures)
	assert.Equal(t, "reg_pipeline", cfg.Insights.Model)
	assert.Equal(t, "static", cfg.Store.Driver)
	assert.Equal(t, int32(4), cfg.Store.MaxConns)
	assert.Equal(t, 8501, cfg.Server.Port)
	assert.InDelta(t, 5.0, cfg.Server.RateLimitRPS, 0.001)
	assert.Equal(t, 10, cfg.Server.RateLimitBurst)
	assert.Equal(t, []string{"*"}, cfg.Server.AllowedOrigins)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Empty(t, cfg.Log.File)
	assert.Equal(t, 100, cfg.Log.MaxSizeMB)
}

func TestLoadFromYAML(t *testing.T) {
	dir := chdirTemp(t)

	yaml := `
models:
  dir: /srv/models
  classifier_file: cls_v3.json
store:
  driver: sqlite
  database_url: insights.db
log:
  level: debug
  format: console
server:
  port: 9090
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0644))

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "/srv/models", cfg.Models.Dir)
	assert.Equal(t, "cls_v3.json", cfg.Models.ClassifierFile)
	assert.Equal(t, "sqlite", cfg.Store.Driver)
	assert.Equal(t, "insights.db", cfg.Store.DatabaseURL)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "console", cfg.Log.Format)
	assert.Equal(t, 9090, cfg.Server.Port)
	// Defaults still apply for unset values
	assert.Equal(t, 5, cfg.Insights.TopFeatures)
}

func TestLoadEnvOverridesFile(t *testing.T) {
	dir := chdirTemp(t)

	yaml := `
store:
  driver: sqlite
log:
  level: debug
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0644))

	t.Setenv("ADVISOR_STORE_DRIVER", "postgres")
	t.Setenv("ADVISOR_LOG_LEVEL", "warn")

	cfg, err := Load()
	require.NoError(t, err)

	// Env overrides file
	assert.Equal(t, "postgres", cfg.Store.Driver)
	assert.Equal(t, "warn", cfg.Log.Level)
}

func TestLoadEnvOverridesDefaults(t *testing.T) {
	chdirTemp(t)

	t.Setenv("ADVISOR_SERVER_PORT", "3000")
	t.Setenv("ADVISOR_MODELS_DIR", "/opt/models")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 3000, cfg.Server.Port)
	assert.Equal(t, "/opt/models", cfg.Models.Dir)
}

func TestLoadDotEnv(t *testing.T) {
	dir := chdirTemp(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("ADVISOR_INSIGHTS_TOP_FEATURES=3\n"), 0644))
	t.Cleanup(func() { os.Unsetenv("ADVISOR_INSIGHTS_TOP_FEATURES") }) //nolint:errcheck

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 3, cfg.Insights.TopFeatures)
}

func TestLoadDotEnvDoesNotOverrideEnv(t *testing.T) {
	dir := chdirTemp(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("ADVISOR_LOG_FORMAT=console\n"), 0644))
	t.Setenv("ADVISOR_LOG_FORMAT", "json")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "json", cfg.Log.Format)
}

func TestInitLoggerConsole(t *testing.T) {
	err := InitLogger(LogConfig{Level: "debug", Format: "console"})
	require.NoError(t, err)
	assert.NotNil(t, zap.L())
}

func TestInitLoggerJSON(t *testing.T) {
	err := InitLogger(LogConfig{Level: "info", Format: "json"})
	require.NoError(t, err)
	assert.NotNil(t, zap.L())
}

func TestInitLoggerInvalidLevel(t *testing.T) {
	err := InitLogger(LogConfig{Level: "invalid", Format: "json"})
	assert.Error(t, err)
}

func TestInitLoggerRotatedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "advisor.log")
	err := InitLogger(LogConfig{Level: "info", Format: "json", File: path, MaxSizeMB: 1, MaxBackups: 1, MaxAgeDays: 1})
	require.NoError(t, err)

	zap.L().Info("rotated logger ready")
	require.NoError(t, zap.L().Sync())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "rotated logger ready")
}

// validDefaults returns a Config with all defaults populated for validation tests.
func validDefaults() *Config {
	cfg := &Config{}
	cfg.Models.Dir = "models"
	cfg.Store.Driver = "static"
	cfg.Insights.TopFeatures = 5
	cfg.Server.Port = 8501
	cfg.Server.RateLimitRPS = 5
	cfg.Server.RateLimitBurst = 10
	return cfg
}

func TestValidateServe_Defaults(t *testing.T) {
	assert.NoError(t, validDefaults().Validate("serve"))
}

func TestValidateServe_InvalidPort(t *testing.T) {
	cfg := validDefaults()
	cfg.Server.Port = 0

	err := cfg.Validate("serve")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "server.port must be > 0")
}

func TestValidateServe_RateLimit(t *testing.T) {
	cfg := validDefaults()
	cfg.Server.RateLimitRPS = 0
	cfg.Server.RateLimitBurst = 0

	err := cfg.Validate("serve")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "rate_limit_rps")
	assert.Contains(t, err.Error(), "rate_limit_burst")

	// Rate limits only matter for serve.
	assert.NoError(t, cfg.Validate("predict"))
}

func TestValidateModelsDir(t *testing.T) {
	cfg := validDefaults()
	cfg.Models.Dir = ""

	err := cfg.Validate("score")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "models.dir is required")

	cfg.Models.ClassifierFile = "/a/cls.json"
	cfg.Models.RegressorFile = "/a/reg.json"
	assert.NoError(t, cfg.Validate("score"))

	// The insights command never touches the models.
	cfg.Models.ClassifierFile = ""
	assert.NoError(t, cfg.Validate("insights"))
}

func TestValidateStore(t *testing.T) {
	cfg := validDefaults()
	cfg.Store.Driver = "postgres"

	err := cfg.Validate("insights")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "store.database_url is required for driver postgres")

	cfg.Store.DatabaseURL = "postgres://localhost/advisor"
	assert.NoError(t, cfg.Validate("insights"))

	cfg.Store.Driver = "mysql"
	err = cfg.Validate("insights")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "store.driver must be one of")
}

func TestValidateTopFeatures(t *testing.T) {
	cfg := validDefaults()
	cfg.Insights.TopFeatures = 0
	assert.ErrorContains(t, cfg.Validate("predict"), "insights.top_features")

	cfg.Insights.TopFeatures = 51
	assert.ErrorContains(t, cfg.Validate("predict"), "insights.top_features")
}

func TestValidateUnknownMode(t *testing.T) {
	cfg := validDefaults()
	err := cfg.Validate("unknown")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "unknown mode")
}
