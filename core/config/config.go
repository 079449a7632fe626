package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

// LineConfig holds LINE Messaging API credentials and delivery settings.
type LineConfig struct {
	ChannelToken  string `yaml:"channel_token" envconfig:"LINE_CHANNEL_ACCESS_TOKEN"`
	ChannelSecret string `yaml:"channel_secret" envconfig:"LINE_CHANNEL_SECRET"`
	CallbackPath  string `yaml:"callback_path" envconfig:"LINE_CALLBACK_PATH"`
	// PushFallback enables pushing the reply when the reply token was rejected.
	PushFallback bool `yaml:"push_fallback" envconfig:"LINE_PUSH_FALLBACK"`
	// DedupeWindowSeconds controls how long handled webhook event ids are remembered.
	DedupeWindowSeconds int `yaml:"dedupe_window_seconds" envconfig:"LINE_DEDUPE_WINDOW_SECONDS"`
}

// ServerConfig specifies the HTTP listener serving the webhook, health and metrics endpoints.
type ServerConfig struct {
	Listen string `yaml:"listen" envconfig:"SERVER_LISTEN"`
	Port   int    `yaml:"port" envconfig:"PORT"`
	// ShutdownTimeoutSeconds bounds graceful shutdown; 0 -> default
	ShutdownTimeoutSeconds int `yaml:"shutdown_timeout_seconds" envconfig:"SERVER_SHUTDOWN_TIMEOUT_SECONDS"`
}

// PlacesConfig configures the venue search provider.
type PlacesConfig struct {
	APIKey     string `yaml:"api_key" envconfig:"GOOGLE_MAPS_API_KEY"`
	RadiusM    int    `yaml:"radius_m" envconfig:"PLACES_RADIUS_M"`
	Language   string `yaml:"language" envconfig:"PLACES_LANGUAGE"`
	OpenNow    bool   `yaml:"open_now" envconfig:"PLACES_OPEN_NOW"`
	MaxResults int    `yaml:"max_results" envconfig:"PLACES_MAX_RESULTS"`
	TimeoutMS  int    `yaml:"timeout_ms" envconfig:"PLACES_TIMEOUT_MS"`
}

// RedisConfig holds connection settings for the redis session backend.
type RedisConfig struct {
	Addr      string `yaml:"addr" envconfig:"REDIS_ADDR"`
	Password  string `yaml:"password" envconfig:"REDIS_PASSWORD"`
	DB        int    `yaml:"db" envconfig:"REDIS_DB"`
	KeyPrefix string `yaml:"key_prefix" envconfig:"REDIS_KEY_PREFIX"`
}

// SessionConfig selects where per-user roulette state is kept.
type SessionConfig struct {
	Backend    string      `yaml:"backend" envconfig:"SESSION_BACKEND"`
	TTLSeconds int         `yaml:"ttl_seconds" envconfig:"SESSION_TTL_SECONDS"`
	Redis      RedisConfig `yaml:"redis"`
}

// DatabaseConfig holds postgres connection settings used by the postgres session backend.
type DatabaseConfig struct {
	Host           string `yaml:"host" envconfig:"DB_HOST"`
	Port           string `yaml:"port" envconfig:"DB_PORT"`
	User           string `yaml:"user" envconfig:"DB_USER"`
	Password       string `yaml:"password" envconfig:"DB_PASSWORD"`
	Name           string `yaml:"name" envconfig:"DB_NAME"`
	SSLMode        string `yaml:"sslmode" envconfig:"DB_SSLMODE"`
	MaxConnections int    `yaml:"max_connections" envconfig:"DB_MAX_CONNECTIONS"`
	MigrationsDir  string `yaml:"migrations_dir" envconfig:"DB_MIGRATIONS_DIR"`
}

// TelegramConfig holds settings of the optional Telegram channel.
type TelegramConfig struct {
	Token   string `yaml:"token" envconfig:"BOT_TOKEN"`
	RunMode string `yaml:"run_mode" envconfig:"TELEGRAM_RUN_MODE"`
	// LongPollTimeoutSeconds defines long polling timeout; 0 -> default
	LongPollTimeoutSeconds int `yaml:"longpoll_timeout_seconds" envconfig:"TELEGRAM_LONGPOLL_TIMEOUT_SECONDS"`
}

// WebhookConfig specifies Telegram webhook settings.
type WebhookConfig struct {
	URL    string `yaml:"url" envconfig:"WEBHOOK_URL"`
	Listen string `yaml:"listen" envconfig:"WEBHOOK_LISTEN"`
	Port   int    `yaml:"port" envconfig:"WEBHOOK_PORT"`
}

// AuditConfig configures publishing of handled conversation events to Kafka.
type AuditConfig struct {
	Brokers []string `yaml:"brokers" envconfig:"AUDIT_KAFKA_BROKERS"`
	Topic   string   `yaml:"topic" envconfig:"AUDIT_KAFKA_TOPIC"`
}

// CatalogConfig points at an optional catalog override file.
type CatalogConfig struct {
	Path string `yaml:"path" envconfig:"CATALOG_PATH"`
}

// LoggingConfig defines logging related configuration.
type LoggingConfig struct {
	Level       string `yaml:"level" envconfig:"LOG_LEVEL"`
	Format      string `yaml:"format" envconfig:"LOG_FORMAT"`
	KeysOrder   string `yaml:"keys_order"`
	DebugSample string `yaml:"debug_sample"`
	Dir         string `yaml:"dir"`
	BotFile     string `yaml:"bot_file"`
	// Profile indicates environment profile such as "debug" or "prod".
	Profile string `yaml:"profile" envconfig:"LOG_PROFILE"`
}

// RateLimitConfig holds settings for per-user rate limiting on the Telegram channel.
// ExcludeUpdates accepts update types to bypass limiting:
// - "callback": inline button presses
// - "message": text and location messages
type RateLimitConfig struct {
	IntervalMS     int      `yaml:"interval_ms" envconfig:"RATE_LIMIT_INTERVAL_MS"`
	ExcludeUpdates []string `yaml:"exclude_updates" envconfig:"RATE_LIMIT_EXCLUDE_UPDATES"`
}

// SenderConfig tunes the asynchronous outbound dispatcher.
type SenderConfig struct {
	QueueSize      int `yaml:"queue_size" envconfig:"SENDER_QUEUE_SIZE"`
	Workers        int `yaml:"workers" envconfig:"SENDER_WORKERS"`
	MaxRetries     int `yaml:"max_retries" envconfig:"SENDER_MAX_RETRIES"`
	RetryBackoffMS int `yaml:"retry_backoff_ms" envconfig:"SENDER_RETRY_BACKOFF_MS"`
}

// MetricsConfig toggles the Prometheus endpoint.
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled" envconfig:"METRICS_ENABLED"`
	Path    string `yaml:"path" envconfig:"METRICS_PATH"`
}

const (
	// RunModeWebhook selects webhook mode for Telegram updates.
	RunModeWebhook = "webhook"
	// RunModeLongpoll selects long-polling mode for Telegram updates.
	RunModeLongpoll = "longpoll"
)

const (
	// SessionMemory keeps sessions in process memory.
	SessionMemory = "memory"
	// SessionRedis keeps sessions in redis.
	SessionRedis = "redis"
	// SessionPostgres keeps sessions in postgres.
	SessionPostgres = "postgres"
)

const (
	// UpdateCallback identifies callback updates for rate limit exclusions.
	UpdateCallback = "callback"
	// UpdateMessage identifies message updates for rate limit exclusions.
	UpdateMessage = "message"
)

const (
	defaultPort            = 5000
	defaultCallbackPath    = "/callback"
	defaultDedupeWindow    = 300
	defaultRadiusM         = 1000
	defaultLanguage        = "zh-TW"
	defaultMaxResults      = 5
	defaultPlacesTimeoutMS = 5000
	defaultMetricsPath     = "/metrics"
	defaultRedisKeyPrefix  = "roulette:"
	defaultAuditTopic      = "roulette-events"
)

// Config aggregates the application configuration.
type Config struct {
	Line      LineConfig      `yaml:"line"`
	Server    ServerConfig    `yaml:"server"`
	Places    PlacesConfig    `yaml:"places"`
	Session   SessionConfig   `yaml:"session"`
	Database  DatabaseConfig  `yaml:"database"`
	Telegram  TelegramConfig  `yaml:"telegram"`
	Webhook   WebhookConfig   `yaml:"webhook"`
	Audit     AuditConfig     `yaml:"audit"`
	Catalog   CatalogConfig   `yaml:"catalog"`
	Logging   LoggingConfig   `yaml:"logging"`
	RateLimit RateLimitConfig `yaml:"rate_limit"`
	Sender    SenderConfig    `yaml:"sender"`
	Metrics   MetricsConfig   `yaml:"metrics"`
}

// CoreConfig satisfies the runner's config carrier contract.
func (c *Config) CoreConfig() *Config { return c }

// TelegramEnabled reports whether the optional Telegram channel should run.
func (c *Config) TelegramEnabled() bool {
	return c != nil && strings.TrimSpace(c.Telegram.Token) != ""
}

// Load reads configuration from an optional YAML file and environment variables.
// A missing file is tolerated when allowMissing is set so that env-only deployments work.
func Load(path string, allowMissing bool) (*Config, error) {
	cfg := Config{
		Line:    LineConfig{PushFallback: true},
		Metrics: MetricsConfig{Enabled: true},
	}

	if strings.TrimSpace(path) != "" {
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return nil, fmt.Errorf("failed to parse YAML config: %w", err)
			}
		case allowMissing && errors.Is(err, os.ErrNotExist):
		default:
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process env: %w", err)
	}

	if err := Normalize(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Normalize performs basic validation of required configuration fields and adjusts defaults.
func Normalize(cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("nil config")
	}

	if strings.TrimSpace(cfg.Line.ChannelToken) == "" {
		return fmt.Errorf("line channel access token is required")
	}
	if strings.TrimSpace(cfg.Line.ChannelSecret) == "" {
		return fmt.Errorf("line channel secret is required")
	}
	if strings.TrimSpace(cfg.Places.APIKey) == "" {
		return fmt.Errorf("places api key is required")
	}

	if cfg.Line.CallbackPath == "" {
		cfg.Line.CallbackPath = defaultCallbackPath
	}
	if !strings.HasPrefix(cfg.Line.CallbackPath, "/") {
		cfg.Line.CallbackPath = "/" + cfg.Line.CallbackPath
	}
	if cfg.Line.DedupeWindowSeconds == 0 {
		cfg.Line.DedupeWindowSeconds = defaultDedupeWindow
	}
	if cfg.Line.DedupeWindowSeconds < 0 {
		cfg.Line.DedupeWindowSeconds = 0
	}

	if cfg.Server.Port == 0 {
		cfg.Server.Port = defaultPort
	}
	if cfg.Server.Port < 0 || cfg.Server.Port > 65535 {
		return fmt.Errorf("server.port must be within 1..65535, got %d", cfg.Server.Port)
	}

	if err := normalizePlaces(&cfg.Places); err != nil {
		return err
	}
	if err := normalizeSession(cfg); err != nil {
		return err
	}
	if err := normalizeTelegram(cfg); err != nil {
		return err
	}

	if len(cfg.Audit.Brokers) > 0 && strings.TrimSpace(cfg.Audit.Topic) == "" {
		cfg.Audit.Topic = defaultAuditTopic
	}
	if cfg.Metrics.Path == "" {
		cfg.Metrics.Path = defaultMetricsPath
	}
	return nil
}

func normalizePlaces(p *PlacesConfig) error {
	if p.RadiusM == 0 {
		p.RadiusM = defaultRadiusM
	}
	if p.RadiusM < 0 || p.RadiusM > 50000 {
		return fmt.Errorf("places.radius_m must be within 1..50000, got %d", p.RadiusM)
	}
	if strings.TrimSpace(p.Language) == "" {
		p.Language = defaultLanguage
	}
	if p.MaxResults == 0 {
		p.MaxResults = defaultMaxResults
	}
	if p.MaxResults < 0 || p.MaxResults > 20 {
		return fmt.Errorf("places.max_results must be within 1..20, got %d", p.MaxResults)
	}
	if p.TimeoutMS <= 0 {
		p.TimeoutMS = defaultPlacesTimeoutMS
	}
	return nil
}

func normalizeSession(cfg *Config) error {
	backend := strings.ToLower(strings.TrimSpace(cfg.Session.Backend))
	if backend == "" {
		backend = SessionMemory
	}
	switch backend {
	case SessionMemory:
	case SessionRedis:
		if strings.TrimSpace(cfg.Session.Redis.Addr) == "" {
			return fmt.Errorf("session.redis.addr is required when session.backend is 'redis'")
		}
		if cfg.Session.Redis.KeyPrefix == "" {
			cfg.Session.Redis.KeyPrefix = defaultRedisKeyPrefix
		}
	case SessionPostgres:
		if strings.TrimSpace(cfg.Database.Host) == "" || strings.TrimSpace(cfg.Database.Name) == "" {
			return fmt.Errorf("database.host and database.name are required when session.backend is 'postgres'")
		}
		if cfg.Database.SSLMode == "" {
			cfg.Database.SSLMode = "disable"
		}
		if cfg.Database.Port == "" {
			cfg.Database.Port = "5432"
		}
		if cfg.Database.MaxConnections <= 0 {
			cfg.Database.MaxConnections = 5
		}
	default:
		return fmt.Errorf("invalid session.backend %q; allowed: memory, redis, postgres", cfg.Session.Backend)
	}
	cfg.Session.Backend = backend
	if cfg.Session.TTLSeconds < 0 {
		return fmt.Errorf("session.ttl_seconds must be >= 0")
	}
	return nil
}

func normalizeTelegram(cfg *Config) error {
	if !cfg.TelegramEnabled() {
		return nil
	}
	rm := strings.ToLower(strings.TrimSpace(cfg.Telegram.RunMode))
	if rm == "" {
		rm = RunModeLongpoll
	}
	if rm == "polling" { // accept alias
		rm = RunModeLongpoll
	}
	switch rm {
	case RunModeWebhook:
		if strings.TrimSpace(cfg.Webhook.URL) == "" {
			return fmt.Errorf("webhook.url is required when telegram.run_mode is 'webhook'")
		}
		if strings.TrimSpace(cfg.Webhook.Listen) == "" {
			return fmt.Errorf("webhook.listen is required when telegram.run_mode is 'webhook'")
		}
		if cfg.Webhook.Port <= 0 {
			return fmt.Errorf("webhook.port must be > 0 when telegram.run_mode is 'webhook'")
		}
		if cfg.Webhook.Port == cfg.Server.Port {
			return fmt.Errorf("webhook.port must differ from server.port")
		}
	case RunModeLongpoll:
		if cfg.Telegram.LongPollTimeoutSeconds < 0 {
			return fmt.Errorf("telegram.longpoll_timeout_seconds must be >= 0")
		}
	default:
		return fmt.Errorf("invalid telegram.run_mode %q; allowed: webhook, longpoll", cfg.Telegram.RunMode)
	}
	cfg.Telegram.RunMode = rm

	allowed := map[string]struct{}{
		UpdateCallback: {},
		UpdateMessage:  {},
	}
	for i, v := range cfg.RateLimit.ExcludeUpdates {
		key := strings.ToLower(strings.TrimSpace(v))
		if key == "" {
			continue
		}
		if _, ok := allowed[key]; !ok {
			return fmt.Errorf("invalid rate_limit.exclude_updates value %q; allowed: callback, message", v)
		}
		cfg.RateLimit.ExcludeUpdates[i] = key
	}
	return nil
}
