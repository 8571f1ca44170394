// internal/common/config/config.go
package config

import "fmt"

// Config is the main application configuration struct.
type Config struct {
	App           AppConfig               `mapstructure:"app"`
	Camunda       CamundaConfig           `mapstructure:"camunda"`
	Database      DatabaseConfig          `mapstructure:"database"`
	Workers       map[string]WorkerConfig `mapstructure:"workers"`
	Ranking       RankingConfig           `mapstructure:"ranking"`
	Integrations  IntegrationConfig       `mapstructure:"integrations"`
	Logging       LoggingConfig           `mapstructure:"logging"`
	Notifications NotificationConfig      `mapstructure:"notifications"`
}

// --- Core App/Infrastructure Config ---
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Version     string `mapstructure:"version"`
	Environment string `mapstructure:"environment"`
	HealthPort  int    `mapstructure:"health_port"`
}

type CamundaConfig struct {
	BrokerAddress  string `mapstructure:"broker_address"`
	MaxJobsActive  int    `mapstructure:"max_jobs_active"`
	Timeout        int    `mapstructure:"timeout"`         // milliseconds
	RequestTimeout int    `mapstructure:"request_timeout"` // milliseconds
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

// GetDSN returns the PostgreSQL connection string
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
	SSLEnabled  bool     `mapstructure:"ssl_enabled"`
	URL         string   `mapstructure:"url"`
	SchemeIndex string   `mapstructure:"scheme_index"`
}

// GetURL returns the first address or the URL field
func (e ElasticsearchConfig) GetURL() string {
	if e.URL != "" {
		return e.URL
	}
	if len(e.Addresses) > 0 {
		return e.Addresses[0]
	}
	return ""
}

type RedisConfig struct {
	Address  string `mapstructure:"address"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// WorkerConfig holds the core settings applicable to every worker.
type WorkerConfig struct {
	Enabled       bool `mapstructure:"enabled"`
	MaxJobsActive int  `mapstructure:"max_jobs_active"`
	Timeout       int  `mapstructure:"timeout"`     // milliseconds
	MaxRetries    int  `mapstructure:"max_retries"` // For error handling
}

// --- Ranking engine ---

// RankingConfig tunes the shared scheme ranking engine.
type RankingConfig struct {
	FetchTimeout      int                      `mapstructure:"fetch_timeout"` // milliseconds
	ParallelThreshold int                      `mapstructure:"parallel_threshold"`
	PoolSize          int                      `mapstructure:"pool_size"`
	RecencyWindowDays int                      `mapstructure:"recency_window_days"`
	CorpusBackend     string                   `mapstructure:"corpus_backend"` // postgres | elasticsearch
	CacheTTL          int                      `mapstructure:"cache_ttl"`      // seconds
	ProfileCacheTTL   int                      `mapstructure:"profile_cache_ttl"`
	Surfaces          map[string]SurfaceConfig `mapstructure:"surfaces"`
	TermBanks         TermBanksConfig          `mapstructure:"term_banks"`
	SuggestionPhrases map[string][]string      `mapstructure:"suggestion_phrases"` // keyed by language
	Notifications     SmartNotificationConfig  `mapstructure:"notifications"`
}

// SurfaceConfig holds the composite weights for one calling surface.
type SurfaceConfig struct {
	RelevanceWeight   float64 `mapstructure:"relevance_weight"`
	EligibilityWeight float64 `mapstructure:"eligibility_weight"`
	Limit             int     `mapstructure:"limit"`
}

type TermBanksConfig struct {
	Senior               []string            `mapstructure:"senior"`
	Youth                []string            `mapstructure:"youth"`
	Female               []string            `mapstructure:"female"`
	Poverty              []string            `mapstructure:"poverty"`
	OccupationCategories map[string][]string `mapstructure:"occupation_categories"`
}

type SmartNotificationConfig struct {
	DeadlineWindowDays int  `mapstructure:"deadline_window_days"`
	Dispatch           bool `mapstructure:"dispatch"`
}

// IntegrationConfig holds settings for the AWS messaging services.
type IntegrationConfig struct {
	AWS struct {
		Region string `mapstructure:"region"`
		SES    struct {
			Enabled   bool   `mapstructure:"enabled"`
			FromEmail string `mapstructure:"from_email"`
		} `mapstructure:"ses"`
		SNS struct {
			Enabled            bool   `mapstructure:"enabled"`
			DefaultSMSSenderID string `mapstructure:"default_sms_sender_id"`
		} `mapstructure:"sns"`
	} `mapstructure:"aws"`
}

// NotificationConfig is the channel policy for smart notification dispatch. An unset
// enabled flag leaves the channel on.
type NotificationConfig struct {
	Email struct {
		Enabled   *bool  `mapstructure:"enabled"`
		FromEmail string `mapstructure:"from_email"`
	} `mapstructure:"email"`
	SMS struct {
		Enabled *bool `mapstructure:"enabled"`
		// PriorityThreshold is the lowest tier sent by SMS: high, medium or low.
		PriorityThreshold string `mapstructure:"priority_threshold"`
	} `mapstructure:"sms"`
}

func (n NotificationConfig) EmailEnabled() bool {
	return n.Email.Enabled == nil || *n.Email.Enabled
}

func (n NotificationConfig) SMSEnabled() bool {
	return n.SMS.Enabled == nil || *n.SMS.Enabled
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	Output string `mapstructure:"output"`
}
