// Package config provides application configuration.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

var (
	// ErrMissing marks a required setting that is absent or empty.
	ErrMissing = errors.New("missing required setting")
	// ErrInvalid marks a setting that is present but unusable.
	ErrInvalid = errors.New("invalid setting")
)

// Config holds all application configuration.
type Config struct {
	Port               string
	FrontendURL        string
	DBPath             string
	SessionTTL         time.Duration
	VisitorTTL         time.Duration
	AllowedOrigins     []string
	AdminToken         string
	MaxRequestBodySize int64
	Model              ModelConfig
	Mail               MailConfig
	RateLimit          RateLimitConfig
	ConversationLog    ConversationLogConfig
}

// ModelConfig configures the hosted language model.
type ModelConfig struct {
	APIKey     string
	Candidates []string
	Timeout    time.Duration
}

// MailConfig configures the lead notification mail.
type MailConfig struct {
	Host      string
	Port      int
	Sender    string
	Password  string
	Recipient string
	Subject   string
	Timeout   time.Duration
}

// RateLimitConfig throttles chat submissions per visitor.
type RateLimitConfig struct {
	RequestsPerWindow int
	WindowDuration    time.Duration
}

// ConversationLogConfig controls JSON conversation logging.
type ConversationLogConfig struct {
	Enabled   bool
	Dir       string
	QueueSize int
}

// Load reads configuration from environment variables. Missing credentials
// are fatal: the model key and every mail setting have no defaults.
func Load() (*Config, error) {
	var errs []error

	smtpPort := 0
	if raw, ok := lookupNonEmpty("SMTP_PORT"); ok {
		p, err := strconv.Atoi(raw)
		if err != nil {
			errs = append(errs, fmt.Errorf("%w: SMTP_PORT %q is not a number", ErrInvalid, raw))
		}
		smtpPort = p
	}

	cfg := &Config{
		Port:               getEnv("PORT", "8080"),
		FrontendURL:        getEnv("FRONTEND_URL", ""),
		DBPath:             getEnv("DB_PATH", "./data/leads.db"),
		SessionTTL:         getEnvDuration("SESSION_TTL", 60*time.Minute),
		VisitorTTL:         getEnvDuration("VISITOR_TTL", 30*24*time.Hour),
		AllowedOrigins:     getEnvList("ALLOWED_ORIGINS", []string{"*"}),
		AdminToken:         getEnv("ADMIN_TOKEN", ""),
		MaxRequestBodySize: int64(getEnvInt("MAX_REQUEST_BODY_SIZE", 64<<10)),
		Model: ModelConfig{
			APIKey:     strings.TrimSpace(os.Getenv("GOOGLE_API_KEY")),
			Candidates: getEnvList("MODEL_CANDIDATES", []string{"gemini-2.5-flash", "gemini-1.5-flash"}),
			Timeout:    getEnvDuration("MODEL_TIMEOUT", 60*time.Second),
		},
		Mail: MailConfig{
			Host:      strings.TrimSpace(os.Getenv("SMTP_HOST")),
			Port:      smtpPort,
			Sender:    strings.TrimSpace(os.Getenv("MAIL_SENDER")),
			Password:  os.Getenv("MAIL_PASSWORD"),
			Recipient: strings.TrimSpace(os.Getenv("MAIL_RECIPIENT")),
			Subject:   getEnv("MAIL_SUBJECT", "Neuer Lead: Unfall-Notdienst Rump"),
			Timeout:   getEnvDuration("MAIL_TIMEOUT", 30*time.Second),
		},
		RateLimit: RateLimitConfig{
			RequestsPerWindow: getEnvInt("RATE_LIMIT_REQUESTS", 20),
			WindowDuration:    getEnvDuration("RATE_LIMIT_WINDOW", time.Minute),
		},
		ConversationLog: ConversationLogConfig{
			Enabled:   getEnvBool("CONVERSATION_LOG_ENABLED", true),
			Dir:       getEnv("CONVERSATION_LOG_DIR", "./data/logs/conversations"),
			QueueSize: getEnvInt("CONVERSATION_LOG_QUEUE_SIZE", 1000),
		},
	}

	if err := cfg.Validate(); err != nil {
		errs = append(errs, err)
	}
	if len(errs) > 0 {
		return nil, fmt.Errorf("invalid configuration: %w", errors.Join(errs...))
	}

	return cfg, nil
}

// Validate checks that all required configuration fields are set.
func (c *Config) Validate() error {
	var errs []error
	missing := func(key, value string) {
		if value == "" {
			errs = append(errs, fmt.Errorf("%w: %s", ErrMissing, key))
		}
	}

	missing("GOOGLE_API_KEY", c.Model.APIKey)
	missing("MAIL_SENDER", c.Mail.Sender)
	missing("MAIL_PASSWORD", c.Mail.Password)
	missing("MAIL_RECIPIENT", c.Mail.Recipient)
	missing("SMTP_HOST", c.Mail.Host)
	if c.Mail.Port == 0 {
		errs = append(errs, fmt.Errorf("%w: SMTP_PORT", ErrMissing))
	} else if c.Mail.Port < 0 || c.Mail.Port > 65535 {
		errs = append(errs, fmt.Errorf("%w: SMTP_PORT %d out of range", ErrInvalid, c.Mail.Port))
	}

	if c.Port == "" {
		errs = append(errs, fmt.Errorf("%w: PORT cannot be empty", ErrInvalid))
	}
	if c.DBPath == "" {
		errs = append(errs, fmt.Errorf("%w: DB_PATH cannot be empty", ErrInvalid))
	}
	if len(c.Model.Candidates) == 0 {
		errs = append(errs, fmt.Errorf("%w: MODEL_CANDIDATES cannot be empty", ErrInvalid))
	}
	if c.RateLimit.RequestsPerWindow <= 0 || c.RateLimit.WindowDuration <= 0 {
		errs = append(errs, fmt.Errorf("%w: RATE_LIMIT_REQUESTS and RATE_LIMIT_WINDOW must be > 0", ErrInvalid))
	}
	if c.MaxRequestBodySize <= 0 {
		errs = append(errs, fmt.Errorf("%w: MAX_REQUEST_BODY_SIZE must be > 0", ErrInvalid))
	}
	if c.ConversationLog.Enabled && c.ConversationLog.Dir == "" {
		errs = append(errs, fmt.Errorf("%w: CONVERSATION_LOG_DIR cannot be empty", ErrInvalid))
	}
	if c.ConversationLog.QueueSize <= 0 {
		errs = append(errs, fmt.Errorf("%w: CONVERSATION_LOG_QUEUE_SIZE must be > 0", ErrInvalid))
	}
	return errors.Join(errs...)
}

// IsDevelopment returns true if running in development mode.
func (c *Config) IsDevelopment() bool {
	return c.FrontendURL == "" ||
		strings.Contains(c.FrontendURL, "localhost") ||
		strings.Contains(c.FrontendURL, "127.0.0.1")
}

func lookupNonEmpty(key string) (string, bool) {
	value, ok := os.LookupEnv(key)
	value = strings.TrimSpace(value)
	return value, ok && value != ""
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "1", "true", "yes", "on":
		return true
	case "0", "false", "no", "off":
		return false
	default:
		return fallback
	}
}

func getEnvInt(key string, fallback int) int {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	n, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return fallback
	}
	return n
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	value, ok := lookupNonEmpty(key)
	if !ok {
		return fallback
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return fallback
	}
	return d
}

func getEnvList(key string, fallback []string) []string {
	value, ok := lookupNonEmpty(key)
	if !ok {
		return fallback
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
