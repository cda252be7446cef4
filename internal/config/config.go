// Package config loads service configuration from config.yaml and the
// environment and sets up the global logger.
package config

import (
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type Config struct {
	Server     ServerConfig     `mapstructure:"server"`
	Log        LogConfig        `mapstructure:"log"`
	Store      StoreConfig      `mapstructure:"store"`
	Database   DatabaseConfig   `mapstructure:"database"`
	SQLite     SQLiteConfig     `mapstructure:"sqlite"`
	Extraction ExtractionConfig `mapstructure:"extraction"`
	OpenAI     OpenAIConfig     `mapstructure:"openai"`
	Anthropic  AnthropicConfig  `mapstructure:"anthropic"`
	ElevenLabs ElevenLabsConfig `mapstructure:"elevenlabs"`
	Intake     IntakeConfig     `mapstructure:"intake"`
	Persist    PersistConfig    `mapstructure:"persist"`
	RabbitMQ   RabbitMQConfig   `mapstructure:"rabbitmq"`
	Redis      RedisConfig      `mapstructure:"redis"`
	Kommo      KommoConfig      `mapstructure:"kommo"`
	Mail       MailConfig       `mapstructure:"mail"`
	WhatsApp   WhatsAppConfig   `mapstructure:"whatsapp"`
	RateLimit  RateLimitConfig  `mapstructure:"ratelimit"`
	Stats      StatsConfig      `mapstructure:"stats"`
	Shutdown   ShutdownConfig   `mapstructure:"shutdown"`
}

type ServerConfig struct {
	Port int `mapstructure:"port"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// StoreConfig selects the lead store: "postgres" or "sqlite".
type StoreConfig struct {
	Driver string `mapstructure:"driver"`
}

type DatabaseConfig struct {
	URL string `mapstructure:"url"`
}

type SQLiteConfig struct {
	Path string `mapstructure:"path"`
}

// ExtractionConfig selects the language-model backend: "openai" or "anthropic".
type ExtractionConfig struct {
	Provider    string `mapstructure:"provider"`
	Model       string `mapstructure:"model"`
	TimeoutSecs int    `mapstructure:"timeout_secs"`
}

type OpenAIConfig struct {
	APIKey  string `mapstructure:"api_key"`
	BaseURL string `mapstructure:"base_url"`
}

type AnthropicConfig struct {
	APIKey  string `mapstructure:"api_key"`
	BaseURL string `mapstructure:"base_url"`
}

type ElevenLabsConfig struct {
	APIKey        string `mapstructure:"api_key"`
	AgentID       string `mapstructure:"agent_id"`
	BaseURL       string `mapstructure:"base_url"`
	WebhookSecret string `mapstructure:"webhook_secret"`
}

type IntakeConfig struct {
	MinDurationSecs int `mapstructure:"min_duration_secs"`
	MaxNoiseTurns   int `mapstructure:"max_noise_turns"`
}

type PersistConfig struct {
	MaxAttempts      int `mapstructure:"max_attempts"`
	InitialBackoffMs int `mapstructure:"initial_backoff_ms"`
	MaxBackoffMs     int `mapstructure:"max_backoff_ms"`
}

type RabbitMQConfig struct {
	URL string `mapstructure:"url"`
}

type RedisConfig struct {
	URL           string `mapstructure:"url"`
	DedupTTLHours int    `mapstructure:"dedup_ttl_hours"`
}

type KommoConfig struct {
	APIToken string `mapstructure:"api_token"`
	BaseURL  string `mapstructure:"base_url"`
	StatusID int    `mapstructure:"status_id"`
}

type MailConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	From     string `mapstructure:"from"`
	SalesTo  string `mapstructure:"sales_to"`
}

// Enabled reports whether SMTP notifications are configured.
func (m MailConfig) Enabled() bool {
	return m.Host != "" && m.SalesTo != ""
}

type WhatsAppConfig struct {
	Token         string `mapstructure:"token"`
	PhoneNumberID string `mapstructure:"phone_number_id"`
	BaseURL       string `mapstructure:"base_url"`
	SalesPhone    string `mapstructure:"sales_phone"`
	TemplateName  string `mapstructure:"template_name"`
}

func (w WhatsAppConfig) Enabled() bool {
	return w.Token != "" && w.PhoneNumberID != "" && w.SalesPhone != ""
}

type RateLimitConfig struct {
	PerMinute int `mapstructure:"per_minute"`
}

type StatsConfig struct {
	IntervalSecs int `mapstructure:"interval_secs"`
}

// ShutdownConfig bounds how long in-flight calls may keep the process alive.
// Zero means the window is derived from the extraction and retry budgets.
type ShutdownConfig struct {
	DrainSecs int `mapstructure:"drain_secs"`
}

// Load reads configuration from config.yaml (optional) and the environment.
// Keys map to upper-case env vars with dots replaced by underscores, so
// database.url is DATABASE_URL.
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("server.port", 8080)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("store.driver", "postgres")
	v.SetDefault("database.url", "")
	v.SetDefault("sqlite.path", "callbridge.db")
	v.SetDefault("extraction.provider", "openai")
	v.SetDefault("extraction.model", "")
	v.SetDefault("extraction.timeout_secs", 30)
	v.SetDefault("openai.api_key", "")
	v.SetDefault("openai.base_url", "https://api.openai.com/v1")
	v.SetDefault("anthropic.api_key", "")
	v.SetDefault("anthropic.base_url", "")
	v.SetDefault("elevenlabs.api_key", "")
	v.SetDefault("elevenlabs.agent_id", "")
	v.SetDefault("elevenlabs.base_url", "https://api.elevenlabs.io")
	v.SetDefault("elevenlabs.webhook_secret", "")
	v.SetDefault("intake.min_duration_secs", 20)
	v.SetDefault("intake.max_noise_turns", 2)
	v.SetDefault("persist.max_attempts", 3)
	v.SetDefault("persist.initial_backoff_ms", 1000)
	v.SetDefault("persist.max_backoff_ms", 8000)
	v.SetDefault("rabbitmq.url", "")
	v.SetDefault("redis.url", "")
	v.SetDefault("redis.dedup_ttl_hours", 24)
	v.SetDefault("kommo.api_token", "")
	v.SetDefault("kommo.base_url", "")
	v.SetDefault("kommo.status_id", 0)
	v.SetDefault("mail.host", "")
	v.SetDefault("mail.port", 587)
	v.SetDefault("mail.user", "")
	v.SetDefault("mail.password", "")
	v.SetDefault("mail.from", "")
	v.SetDefault("mail.sales_to", "")
	v.SetDefault("whatsapp.token", "")
	v.SetDefault("whatsapp.phone_number_id", "")
	v.SetDefault("whatsapp.base_url", "https://graph.facebook.com/v18.0")
	v.SetDefault("whatsapp.sales_phone", "")
	v.SetDefault("whatsapp.template_name", "new_lead_alert")
	v.SetDefault("ratelimit.per_minute", 30)
	v.SetDefault("stats.interval_secs", 60)
	v.SetDefault("shutdown.drain_secs", 0)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// Validate checks the settings needed to start the API.
func (c *Config) Validate() error {
	switch c.Store.Driver {
	case "postgres":
		if c.Database.URL == "" {
			return eris.New("config: database.url is required for the postgres store")
		}
	case "sqlite":
		if c.SQLite.Path == "" {
			return eris.New("config: sqlite.path is required for the sqlite store")
		}
	default:
		return eris.Errorf("config: unknown store.driver %q", c.Store.Driver)
	}

	switch c.Extraction.Provider {
	case "openai", "anthropic":
	default:
		return eris.Errorf("config: unknown extraction.provider %q", c.Extraction.Provider)
	}

	if c.Server.Port <= 0 {
		return eris.New("config: server.port must be positive")
	}
	return nil
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
