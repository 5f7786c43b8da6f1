// Package config provides configuration management for the CleanEdge forms API.
//
// Configuration is loaded from:
// 1. config.yaml file (optional)
// 2. Environment variables (standard names like DATABASE_URL, SERVER_PORT)
// 3. Default values
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config is the root configuration structure.
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Redis     RedisConfig     `mapstructure:"redis"`
	RateLimit RateLimitConfig `mapstructure:"ratelimit"`
	Mail      MailConfig      `mapstructure:"mail"`
	Sentry    SentryConfig    `mapstructure:"sentry"`
	Retention RetentionConfig `mapstructure:"retention"`
	Log       LogConfig       `mapstructure:"log"`
	Worker    WorkerConfig    `mapstructure:"worker"`
}

// ServerConfig contains HTTP server settings.
type ServerConfig struct {
	Port            int           `mapstructure:"port"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`

	// AllowedOrigins is the CORS allow-list for the marketing site frontends.
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// DatabaseConfig contains PostgreSQL connection settings.
// A single pgxpool is shared by the repositories and River.
type DatabaseConfig struct {
	URL string `mapstructure:"url"`

	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	Database string `mapstructure:"database"`
	SSLMode  string `mapstructure:"sslmode"`

	MaxConns        int32         `mapstructure:"max_conns"`
	MinConns        int32         `mapstructure:"min_conns"`
	MaxConnLifetime time.Duration `mapstructure:"max_conn_lifetime"`
	MaxConnIdleTime time.Duration `mapstructure:"max_conn_idle_time"`

	AutoMigrate bool `mapstructure:"auto_migrate"`
}

// DSN returns the PostgreSQL connection string.
// Priority: DATABASE_URL > constructed from individual fields.
func (c DatabaseConfig) DSN() string {
	if c.URL != "" {
		return c.URL
	}
	sslmode := c.SSLMode
	if sslmode == "" {
		sslmode = "disable"
	}
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.User, c.Password, c.Host, c.Port, c.Database, sslmode,
	)
}

// RedisConfig contains settings for the shared rate-limit store.
// Only consulted when ratelimit.backend is "redis".
type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// RateLimitConfig contains per-form admission budgets.
type RateLimitConfig struct {
	// Backend selects the counter store: "memory" (single instance)
	// or "redis" (shared across instances).
	Backend string `mapstructure:"backend"`

	// SweepInterval is how often the memory backend purges expired windows.
	SweepInterval time.Duration `mapstructure:"sweep_interval"`

	Contact    RateLimitRule `mapstructure:"contact"`
	Quote      RateLimitRule `mapstructure:"quote"`
	Newsletter RateLimitRule `mapstructure:"newsletter"`
	Careers    RateLimitRule `mapstructure:"careers"`
}

// RateLimitRule is one form's fixed-window budget.
type RateLimitRule struct {
	Limit  int           `mapstructure:"limit"`
	Window time.Duration `mapstructure:"window"`
}

// MailConfig contains outbound SMTP gateway settings.
type MailConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`

	// From is the envelope sender for notification mail.
	From string `mapstructure:"from"`
	// To receives form notifications (office inbox).
	To string `mapstructure:"to"`
	// CareersTo receives career applications; falls back to To when empty.
	CareersTo string `mapstructure:"careers_to"`

	// Enabled gates all outbound mail. Off by default so local
	// development never dials an SMTP host.
	Enabled bool `mapstructure:"enabled"`
}

// NotifyTo returns the recipient for a form's notification mail.
func (c MailConfig) NotifyTo(form string) string {
	if form == "careers" && c.CareersTo != "" {
		return c.CareersTo
	}
	return c.To
}

// SentryConfig contains error-reporting settings. Empty DSN disables Sentry
// and the sink degrades to structured logging only.
type SentryConfig struct {
	DSN         string `mapstructure:"dsn"`
	Environment string `mapstructure:"environment"`
}

// RetentionConfig controls the periodic purge of stored submissions.
type RetentionConfig struct {
	Enabled bool          `mapstructure:"enabled"`
	Period  time.Duration `mapstructure:"period"`
}

// LogConfig contains logging settings.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"` // json or console
}

// WorkerConfig contains worker pool settings.
type WorkerConfig struct {
	GeneralPoolSize int `mapstructure:"general_pool_size"`
	MailPoolSize    int `mapstructure:"mail_pool_size"`
}

// Load reads configuration from file and environment variables.
// Standard environment variables without prefix (DATABASE_URL, SERVER_PORT, etc.).
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("/etc/cleanedge-forms")

	// Maps nested config: ratelimit.contact.limit → RATELIMIT_CONTACT_LIMIT
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("read config: %w", err)
		}
		// Config file is optional, use defaults and env vars
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return &cfg, nil
}

// Rule returns the admission budget for a form name. Unknown names fall
// back to the contact budget, the most conservative general rule.
func (c RateLimitConfig) Rule(form string) RateLimitRule {
	switch form {
	case "quote":
		return c.Quote
	case "newsletter":
		return c.Newsletter
	case "careers":
		return c.Careers
	default:
		return c.Contact
	}
}

// Validate checks for critical configuration errors.
func (c *Config) Validate() error {
	switch c.RateLimit.Backend {
	case "memory", "redis":
	default:
		return fmt.Errorf("ratelimit.backend must be memory or redis, got %q", c.RateLimit.Backend)
	}
	if c.RateLimit.Backend == "redis" && c.Redis.Addr == "" {
		return fmt.Errorf("redis.addr is required when ratelimit.backend is redis")
	}
	rules := []struct {
		name string
		r    RateLimitRule
	}{
		{"contact", c.RateLimit.Contact},
		{"quote", c.RateLimit.Quote},
		{"newsletter", c.RateLimit.Newsletter},
		{"careers", c.RateLimit.Careers},
	}
	for _, rule := range rules {
		if rule.r.Limit <= 0 || rule.r.Window <= 0 {
			return fmt.Errorf("ratelimit.%s: limit and window must be positive", rule.name)
		}
	}
	if c.Mail.Enabled {
		if c.Mail.Host == "" {
			return fmt.Errorf("mail.host is required when mail.enabled is true")
		}
		if c.Mail.From == "" || c.Mail.To == "" {
			return fmt.Errorf("mail.from and mail.to are required when mail.enabled is true")
		}
	}
	if c.Retention.Enabled && c.Retention.Period <= 0 {
		return fmt.Errorf("retention.period must be positive when retention.enabled is true")
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	// Server
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", "30s")
	v.SetDefault("server.write_timeout", "30s")
	v.SetDefault("server.shutdown_timeout", "30s")
	v.SetDefault("server.allowed_origins", []string{"https://www.cleanedge.io"})

	// Database (shared pool)
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "forms")
	v.SetDefault("database.password", "")
	v.SetDefault("database.database", "forms")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.max_conns", 20)
	v.SetDefault("database.min_conns", 2)
	v.SetDefault("database.max_conn_lifetime", "1h")
	v.SetDefault("database.max_conn_idle_time", "10m")
	v.SetDefault("database.auto_migrate", false)

	// Redis
	v.SetDefault("redis.addr", "")
	v.SetDefault("redis.db", 0)

	// Rate limits: careers carries a file upload, so its budget is tighter.
	v.SetDefault("ratelimit.backend", "memory")
	v.SetDefault("ratelimit.sweep_interval", "1m")
	v.SetDefault("ratelimit.contact.limit", 3)
	v.SetDefault("ratelimit.contact.window", "10m")
	v.SetDefault("ratelimit.quote.limit", 3)
	v.SetDefault("ratelimit.quote.window", "10m")
	v.SetDefault("ratelimit.newsletter.limit", 3)
	v.SetDefault("ratelimit.newsletter.window", "10m")
	v.SetDefault("ratelimit.careers.limit", 2)
	v.SetDefault("ratelimit.careers.window", "15m")

	// Mail
	v.SetDefault("mail.enabled", false)
	v.SetDefault("mail.port", 587)
	v.SetDefault("mail.from", "no-reply@cleanedge.io")
	v.SetDefault("mail.to", "office@cleanedge.io")

	// Sentry
	v.SetDefault("sentry.dsn", "")
	v.SetDefault("sentry.environment", "production")

	// Retention: purge stored submissions after one year.
	v.SetDefault("retention.enabled", true)
	v.SetDefault("retention.period", "8760h")

	// Log
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	// Worker pools
	v.SetDefault("worker.general_pool_size", 50)
	v.SetDefault("worker.mail_pool_size", 10)
}
