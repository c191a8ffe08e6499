// internal/common/config/config.go
package config

import "fmt"

// Config is the main application configuration struct.
type Config struct {
	App          AppConfig              `mapstructure:"app"`
	Database     DatabaseConfig         `mapstructure:"database"`
	Pipeline     PipelineConfig         `mapstructure:"pipeline"`
	Stages       map[string]StageConfig `mapstructure:"stages"`
	Framework    FrameworkConfig        `mapstructure:"framework"`
	Integrations IntegrationConfig      `mapstructure:"integrations"`
	APIs         APIsConfig             `mapstructure:"apis"`
	Logging      LoggingConfig          `mapstructure:"logging"`
}

// --- Core App/Infrastructure Config ---
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Version     string `mapstructure:"version"`
	Environment string `mapstructure:"environment"`
}

type DatabaseConfig struct {
	Postgres      PostgresConfig      `mapstructure:"postgres"`
	Elasticsearch ElasticsearchConfig `mapstructure:"elasticsearch"`
	Redis         RedisConfig         `mapstructure:"redis"`
}

type PostgresConfig struct {
	Host           string `mapstructure:"host"`
	Port           int    `mapstructure:"port"`
	Database       string `mapstructure:"database"`
	User           string `mapstructure:"user"`
	Password       string `mapstructure:"password"`
	MaxConnections int    `mapstructure:"max_connections"`
	MaxIdle        int    `mapstructure:"max_idle"`
	SSLMode        string `mapstructure:"sslmode"`
}

// GetDSN returns the PostgreSQL connection string.
func (p PostgresConfig) GetDSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		p.Host, p.Port, p.User, p.Password, p.Database, p.SSLMode,
	)
}

type ElasticsearchConfig struct {
	Addresses   []string `mapstructure:"addresses"`
	Username    string   `mapstructure:"username"`
	Password    string   `mapstructure:"password"`
	ReportIndex string   `mapstructure:"report_index"`
}

type RedisConfig struct {
	Address  string `mapstructure:"address"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	CacheTTL int    `mapstructure:"cache_ttl"` // seconds, benchmark rows
}

// --- Pipeline Configuration ---

// PipelineConfig holds orchestrator-level settings.
type PipelineConfig struct {
	CatalogPath          string `mapstructure:"catalog_path"`
	AverageStageDuration int    `mapstructure:"average_stage_duration"` // milliseconds
	ProgressBuffer       int    `mapstructure:"progress_buffer"`
}

// StageConfig holds the core settings applicable to every stage.
type StageConfig struct {
	Timeout            int  `mapstructure:"timeout"`  // milliseconds, per attempt
	MaxAttempts        int  `mapstructure:"max_attempts"`
	Delay              int  `mapstructure:"delay"` // milliseconds, base retry delay
	ExponentialBackoff bool `mapstructure:"exponential_backoff"`
}

// FrameworkConfig points at the static competency/benchmark reference data.
type FrameworkConfig struct {
	Path string `mapstructure:"path"`
}

// --- Integration Configuration ---

// IntegrationConfig holds settings for delivery and notification services.
type IntegrationConfig struct {
	AWS struct {
		Region string `mapstructure:"region"`
		SES    struct {
			Enabled   bool   `mapstructure:"enabled"`
			FromEmail string `mapstructure:"from_email"`
		} `mapstructure:"ses"`
		SNS struct {
			Enabled  bool   `mapstructure:"enabled"`
			TopicARN string `mapstructure:"topic_arn"`
		} `mapstructure:"sns"`
	} `mapstructure:"aws"`
}

// APIsConfig holds settings for external API integrations.
type APIsConfig struct {
	GenAI GenAIConfig `mapstructure:"genai"`
}

// GenAIConfig points at the chat-completion inference service.
type GenAIConfig struct {
	BaseURL     string  `mapstructure:"base_url"`
	APIKey      string  `mapstructure:"api_key"`
	Timeout     int     `mapstructure:"timeout"` // milliseconds
	MaxTokens   int     `mapstructure:"max_tokens"`
	Temperature float64 `mapstructure:"temperature"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	Output string `mapstructure:"output"`
}
