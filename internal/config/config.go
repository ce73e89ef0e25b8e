// ABOUTME: Configuration loading and parsing for the storefront gateway.
// ABOUTME: Supports YAML files with environment variable expansion, plus a pure-env fallback.

package config

import (
	"fmt"
	"os"
	"regexp"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the complete gateway configuration.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Telegram TelegramConfig `yaml:"telegram"`
	LLM      LLMConfig      `yaml:"llm"`
	Stripe   StripeConfig   `yaml:"stripe"`
	Session  SessionConfig  `yaml:"session"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// ServerConfig holds the HTTP listener configuration.
type ServerConfig struct {
	HTTPAddr string `yaml:"http_addr"`
}

// TelegramConfig holds the bot credentials and the notification destination.
// An empty BotToken disables the bot and notification paths; an empty
// NotifyChatID disables only commerce notifications.
type TelegramConfig struct {
	BotToken     string `yaml:"bot_token"`
	NotifyChatID string `yaml:"notify_chat_id"`
}

// LLMConfig holds the completion backend credentials. An empty APIKey
// degrades both chat surfaces to a fixed unavailability notice.
type LLMConfig struct {
	APIKey  string `yaml:"api_key"`
	Model   string `yaml:"model"`
	BaseURL string `yaml:"base_url"`
}

// StripeConfig holds the payment provider credentials. An empty
// WebhookSecret causes every webhook delivery to be rejected; an empty
// SecretKey disables checkout creation.
type StripeConfig struct {
	SecretKey     string `yaml:"secret_key"`
	WebhookSecret string `yaml:"webhook_secret"`
	SuccessURL    string `yaml:"success_url"`
	CancelURL     string `yaml:"cancel_url"`
}

// SessionConfig holds conversation session tuning.
type SessionConfig struct {
	TTL      time.Duration `yaml:"-"`
	MaxTurns int           `yaml:"max_turns"`

	// Raw string value for YAML unmarshaling
	TTLRaw string `yaml:"ttl"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

const (
	defaultHTTPAddr   = "0.0.0.0:8080"
	defaultSessionTTL = 30 * time.Minute
	defaultMaxTurns   = 20
)

// Load reads a configuration file from the given path and returns a parsed
// Config. Environment variables in the format ${VAR_NAME} are expanded.
// Duration strings are parsed into time.Duration values.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	// Expand environment variables in the raw YAML content
	expandedData := expandEnvVars(string(data))

	var cfg Config
	if err := yaml.Unmarshal([]byte(expandedData), &cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	if err := parseDurations(&cfg); err != nil {
		return nil, fmt.Errorf("parsing durations: %w", err)
	}

	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return &cfg, nil
}

// LoadFromEnv builds a Config purely from environment variables, for
// deployments without a config file. Recognized variables:
//
//	TELEGRAM_BOT_TOKEN, NOTIFY_CHAT_ID, OPENAI_API_KEY, OPENAI_MODEL,
//	OPENAI_BASE_URL, STRIPE_SECRET_KEY, STRIPE_WEBHOOK_SECRET,
//	CHECKOUT_SUCCESS_URL, CHECKOUT_CANCEL_URL, HTTP_ADDR,
//	LOG_LEVEL, LOG_FORMAT, SESSION_TTL, SESSION_MAX_TURNS
//
// Every credential is optional; the dependent feature degrades when its
// variable is absent. SESSION_TTL takes a Go duration string; unparseable
// tuning values fall back to the defaults.
func LoadFromEnv() *Config {
	cfg := &Config{
		Server: ServerConfig{HTTPAddr: os.Getenv("HTTP_ADDR")},
		Telegram: TelegramConfig{
			BotToken:     os.Getenv("TELEGRAM_BOT_TOKEN"),
			NotifyChatID: os.Getenv("NOTIFY_CHAT_ID"),
		},
		LLM: LLMConfig{
			APIKey:  os.Getenv("OPENAI_API_KEY"),
			Model:   os.Getenv("OPENAI_MODEL"),
			BaseURL: os.Getenv("OPENAI_BASE_URL"),
		},
		Stripe: StripeConfig{
			SecretKey:     os.Getenv("STRIPE_SECRET_KEY"),
			WebhookSecret: os.Getenv("STRIPE_WEBHOOK_SECRET"),
			SuccessURL:    os.Getenv("CHECKOUT_SUCCESS_URL"),
			CancelURL:     os.Getenv("CHECKOUT_CANCEL_URL"),
		},
		Logging: LoggingConfig{
			Level:  os.Getenv("LOG_LEVEL"),
			Format: os.Getenv("LOG_FORMAT"),
		},
	}

	if raw := os.Getenv("SESSION_TTL"); raw != "" {
		if ttl, err := time.ParseDuration(raw); err == nil {
			cfg.Session.TTL = ttl
		}
	}
	if raw := os.Getenv("SESSION_MAX_TURNS"); raw != "" {
		if turns, err := strconv.Atoi(raw); err == nil {
			cfg.Session.MaxTurns = turns
		}
	}

	cfg.applyDefaults()
	return cfg
}

// applyDefaults fills in the values that must always be present.
func (c *Config) applyDefaults() {
	if c.Server.HTTPAddr == "" {
		c.Server.HTTPAddr = defaultHTTPAddr
	}
	if c.Session.TTL == 0 {
		c.Session.TTL = defaultSessionTTL
	}
	if c.Session.MaxTurns == 0 {
		c.Session.MaxTurns = defaultMaxTurns
	}
}

// expandEnvVars replaces ${VAR_NAME} patterns with the corresponding environment variable values.
// If the environment variable is not set, it is replaced with an empty string.
func expandEnvVars(s string) string {
	re := regexp.MustCompile(`\$\{([^}]+)\}`)

	return re.ReplaceAllStringFunc(s, func(match string) string {
		varName := re.FindStringSubmatch(match)[1]
		return os.Getenv(varName)
	})
}

// Validate checks that the configuration is internally consistent. Missing
// credentials are not errors; they degrade features at runtime.
func (c *Config) Validate() error {
	if c.Server.HTTPAddr == "" {
		return fmt.Errorf("server.http_addr is required")
	}
	if c.Session.TTL < 0 {
		return fmt.Errorf("session.ttl must not be negative")
	}
	if c.Session.MaxTurns < 2 {
		return fmt.Errorf("session.max_turns must be at least 2")
	}
	if c.Telegram.NotifyChatID != "" && c.Telegram.BotToken == "" {
		return fmt.Errorf("telegram.notify_chat_id is set but telegram.bot_token is empty")
	}
	return nil
}

// parseDurations converts the raw duration strings into time.Duration values
func parseDurations(cfg *Config) error {
	if cfg.Session.TTLRaw != "" {
		ttl, err := time.ParseDuration(cfg.Session.TTLRaw)
		if err != nil {
			return fmt.Errorf("parsing session.ttl %q: %w", cfg.Session.TTLRaw, err)
		}
		cfg.Session.TTL = ttl
	}
	return nil
}
