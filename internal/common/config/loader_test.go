// internal/common/config/loader_test.go
package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfigFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

const minimalConfig = `
app:
  name: "diagnosis-pipeline"
  environment: "test"
database:
  postgres:
    host: "localhost"
    port: 5432
    database: "diagnosis"
    user: "app"
  elasticsearch:
    addresses: ["http://localhost:9200"]
  redis:
    address: "localhost:6379"
apis:
  genai:
    base_url: "http://localhost:9999/v1"
`

func TestLoadFromFile_AppliesDefaults(t *testing.T) {
	cfg, err := LoadFromFile(writeConfigFile(t, minimalConfig))
	require.NoError(t, err)

	assert.Equal(t, 25, cfg.Database.Postgres.MaxConnections)
	assert.Equal(t, "disable", cfg.Database.Postgres.SSLMode)
	assert.Equal(t, "reports", cfg.Database.Elasticsearch.ReportIndex)
	assert.Equal(t, 600, cfg.Database.Redis.CacheTTL)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, "json", cfg.Logging.Format)
	assert.Equal(t, 5000, cfg.Pipeline.AverageStageDuration)
	assert.Equal(t, 16, cfg.Pipeline.ProgressBuffer)
	assert.Equal(t, "configs/stage-catalog.json", cfg.Pipeline.CatalogPath)
	assert.Equal(t, "configs/framework.json", cfg.Framework.Path)
	assert.Equal(t, 60000, cfg.APIs.GenAI.Timeout)
	assert.Equal(t, 2048, cfg.APIs.GenAI.MaxTokens)
	assert.InDelta(t, 0.4, cfg.APIs.GenAI.Temperature, 1e-9)
}

func TestLoadFromFile_RejectsMissingRequiredFields(t *testing.T) {
	const noGenAI = `
database:
  postgres:
    host: "localhost"
    database: "diagnosis"
    user: "app"
  elasticsearch:
    addresses: ["http://localhost:9200"]
  redis:
    address: "localhost:6379"
`
	_, err := LoadFromFile(writeConfigFile(t, noGenAI))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "genai.base_url")
}

func TestLoadFromFile_EnvSecretFallback(t *testing.T) {
	t.Setenv("GENAI_API_KEY", "sk-test-123")
	t.Setenv("DB_PASSWORD", "hunter2")

	cfg, err := LoadFromFile(writeConfigFile(t, minimalConfig))
	require.NoError(t, err)

	assert.Equal(t, "sk-test-123", cfg.APIs.GenAI.APIKey)
	assert.Equal(t, "hunter2", cfg.Database.Postgres.Password)
}

func TestPostgresDSN(t *testing.T) {
	dsn := PostgresConfig{
		Host: "db", Port: 5432, User: "app", Password: "pw",
		Database: "diagnosis", SSLMode: "disable",
	}.GetDSN()
	assert.Equal(t, "host=db port=5432 user=app password=pw dbname=diagnosis sslmode=disable", dsn)
}

func TestGetStageConfig_Fallback(t *testing.T) {
	cfg := &Config{Stages: map[string]StageConfig{
		"analyze": {Timeout: 60000, MaxAttempts: 3, Delay: 1000, ExponentialBackoff: true},
	}}

	analyze := GetStageConfig(cfg, "analyze")
	assert.Equal(t, 60000, analyze.Timeout)

	unknown := GetStageConfig(cfg, "does-not-exist")
	assert.Equal(t, 30000, unknown.Timeout)
	assert.Equal(t, 3, unknown.MaxAttempts)
	assert.True(t, unknown.ExponentialBackoff)
}
