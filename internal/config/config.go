// Package config handles application configuration loading and validation using Viper.
package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config represents the application configuration.
type Config struct {
	Server        ServerConfig        `mapstructure:"server"`
	Backend       BackendConfig       `mapstructure:"backend"`
	Session       SessionConfig       `mapstructure:"session"`
	Database      DatabaseConfig      `mapstructure:"database"`
	Directory     DirectoryConfig     `mapstructure:"directory"`
	Scheduler     SchedulerConfig     `mapstructure:"scheduler"`
	Notifications NotificationsConfig `mapstructure:"notifications"`
	Metrics       MetricsConfig       `mapstructure:"metrics"`
	Logging       LoggingConfig       `mapstructure:"logging"`
}

// ServerConfig contains HTTP server configuration.
type ServerConfig struct {
	Port        int    `mapstructure:"port"`
	Environment string `mapstructure:"environment"`
}

// BackendConfig describes the remote REST API that owns employee and activity records.
type BackendConfig struct {
	BaseURL string        `mapstructure:"base_url"`
	Timeout time.Duration `mapstructure:"timeout"`
	// UpdateVerbs is the ordered fallback chain used to write an employee record.
	// Each entry is PUT, PATCH or POST (POST targets the collection endpoint).
	UpdateVerbs     []string      `mapstructure:"update_verbs"`
	SyncConcurrency int           `mapstructure:"sync_concurrency"`
	SyncTimeout     time.Duration `mapstructure:"sync_timeout"`
}

// SessionConfig contains bearer token and session cache settings.
type SessionConfig struct {
	JWTSecret string        `mapstructure:"jwt_secret"`
	Issuer    string        `mapstructure:"issuer"`
	TTL       time.Duration `mapstructure:"ttl"`
	KeyPrefix string        `mapstructure:"key_prefix"`
}

// DatabaseConfig contains connection settings for Redis and the preferences store.
type DatabaseConfig struct {
	Redis       RedisConfig       `mapstructure:"redis"`
	Preferences PreferencesConfig `mapstructure:"preferences"`
}

// PreferencesConfig selects the gorm driver for client preference flags.
type PreferencesConfig struct {
	Driver     string         `mapstructure:"driver"` // postgres or sqlite
	SQLitePath string         `mapstructure:"sqlite_path"`
	Postgres   PostgresConfig `mapstructure:"postgres"`
}

// PostgresConfig contains PostgreSQL database connection and pool settings.
type PostgresConfig struct {
	Host            string `mapstructure:"host"`
	Port            int    `mapstructure:"port"`
	Database        string `mapstructure:"database"`
	User            string `mapstructure:"user"`
	Password        string `mapstructure:"password"`
	SSLMode         string `mapstructure:"ssl_mode"`
	MaxOpenConns    int    `mapstructure:"max_open_conns"`
	MaxIdleConns    int    `mapstructure:"max_idle_conns"`
	ConnMaxLifetime int    `mapstructure:"conn_max_lifetime"`
}

// RedisConfig contains Redis connection and pool settings.
type RedisConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	PoolSize int    `mapstructure:"pool_size"`
}

// DirectoryConfig contains organisation-specific directory rules.
type DirectoryConfig struct {
	EmailDomain string `mapstructure:"email_domain"`
	Timezone    string `mapstructure:"timezone"`
	CatalogPath string `mapstructure:"catalog_path"`
}

// SchedulerConfig contains the periodic expiry sweep settings.
type SchedulerConfig struct {
	Enabled     bool   `mapstructure:"enabled"`
	ExpirySweep string `mapstructure:"expiry_sweep"` // cron expression
	Timezone    string `mapstructure:"timezone"`
}

// NotificationsConfig contains web push settings.
type NotificationsConfig struct {
	VAPIDPublicKey string `mapstructure:"vapid_public_key"`
}

// MetricsConfig contains metrics settings.
type MetricsConfig struct {
	Prometheus PrometheusConfig `mapstructure:"prometheus"`
}

// PrometheusConfig contains Prometheus metrics exporter settings.
type PrometheusConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path"`
}

// LoggingConfig contains application logging settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	Output string `mapstructure:"output"`
}

// Load reads configuration from file and environment variables.
func Load(configPath string) (*Config, error) {
	v := viper.New()

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
		v.AddConfigPath("/etc/staff-directory/")
	}

	setDefaults(v)

	// Server configuration
	_ = v.BindEnv("server.port", "SERVER_PORT")
	_ = v.BindEnv("server.environment", "SERVER_ENVIRONMENT")

	// Backend configuration
	_ = v.BindEnv("backend.base_url", "BACKEND_BASE_URL", "API_BASE_URL")
	_ = v.BindEnv("backend.timeout", "BACKEND_TIMEOUT")
	_ = v.BindEnv("backend.sync_concurrency", "BACKEND_SYNC_CONCURRENCY")

	// Session configuration
	_ = v.BindEnv("session.jwt_secret", "SESSION_JWT_SECRET", "JWT_SECRET")
	_ = v.BindEnv("session.ttl", "SESSION_TTL")

	// Redis configuration
	_ = v.BindEnv("database.redis.host", "REDIS_HOST")
	_ = v.BindEnv("database.redis.port", "REDIS_PORT")
	_ = v.BindEnv("database.redis.password", "REDIS_PASSWORD")
	_ = v.BindEnv("database.redis.db", "REDIS_DB")
	_ = v.BindEnv("database.redis.pool_size", "REDIS_POOL_SIZE")

	// Preferences store configuration
	_ = v.BindEnv("database.preferences.driver", "PREFERENCES_DRIVER")
	_ = v.BindEnv("database.preferences.sqlite_path", "PREFERENCES_SQLITE_PATH")
	_ = v.BindEnv("database.preferences.postgres.host", "POSTGRES_HOST")
	_ = v.BindEnv("database.preferences.postgres.port", "POSTGRES_PORT")
	_ = v.BindEnv("database.preferences.postgres.database", "POSTGRES_DB")
	_ = v.BindEnv("database.preferences.postgres.user", "POSTGRES_USER")
	_ = v.BindEnv("database.preferences.postgres.password", "POSTGRES_PASSWORD")
	_ = v.BindEnv("database.preferences.postgres.ssl_mode", "POSTGRES_SSL_MODE")

	// Directory configuration
	_ = v.BindEnv("directory.email_domain", "DIRECTORY_EMAIL_DOMAIN")
	_ = v.BindEnv("directory.timezone", "DIRECTORY_TIMEZONE", "TZ")
	_ = v.BindEnv("directory.catalog_path", "DIRECTORY_CATALOG_PATH")

	// Scheduler configuration
	_ = v.BindEnv("scheduler.enabled", "SCHEDULER_ENABLED")
	_ = v.BindEnv("scheduler.expiry_sweep", "SCHEDULER_EXPIRY_SWEEP")
	_ = v.BindEnv("scheduler.timezone", "SCHEDULER_TIMEZONE")

	_ = v.BindEnv("notifications.vapid_public_key", "VAPID_PUBLIC_KEY")

	// Logging configuration
	_ = v.BindEnv("logging.level", "LOG_LEVEL")
	_ = v.BindEnv("logging.format", "LOG_FORMAT")
	_ = v.BindEnv("logging.output", "LOG_OUTPUT")

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.environment", "development")

	v.SetDefault("backend.timeout", 10*time.Second)
	v.SetDefault("backend.update_verbs", []string{"PUT", "PATCH", "POST"})
	v.SetDefault("backend.sync_concurrency", 8)
	v.SetDefault("backend.sync_timeout", 15*time.Second)

	v.SetDefault("session.issuer", "staff-directory")
	v.SetDefault("session.ttl", 8*time.Hour)
	v.SetDefault("session.key_prefix", "session:")

	v.SetDefault("database.redis.port", 6379)
	v.SetDefault("database.redis.pool_size", 10)
	v.SetDefault("database.preferences.driver", "sqlite")
	v.SetDefault("database.preferences.sqlite_path", "preferences.db")
	v.SetDefault("database.preferences.postgres.port", 5432)
	v.SetDefault("database.preferences.postgres.ssl_mode", "disable")

	v.SetDefault("directory.email_domain", "tatatechnologies.com")
	v.SetDefault("directory.timezone", "Local")

	v.SetDefault("scheduler.enabled", false)
	v.SetDefault("scheduler.expiry_sweep", "0 6 * * 1-5")
	v.SetDefault("scheduler.timezone", "UTC")

	v.SetDefault("metrics.prometheus.enabled", true)
	v.SetDefault("metrics.prometheus.path", "/metrics")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
	v.SetDefault("logging.output", "stdout")
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.Backend.BaseURL == "" {
		return fmt.Errorf("backend.base_url is required")
	}
	if u, err := url.Parse(c.Backend.BaseURL); err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("backend.base_url must be an absolute URL")
	}
	for _, verb := range c.Backend.UpdateVerbs {
		switch strings.ToUpper(verb) {
		case "PUT", "PATCH", "POST":
		default:
			return fmt.Errorf("backend.update_verbs: unsupported verb %q", verb)
		}
	}
	if len(c.Backend.UpdateVerbs) == 0 {
		return fmt.Errorf("backend.update_verbs must name at least one verb")
	}
	if c.Session.JWTSecret == "" {
		return fmt.Errorf("session.jwt_secret is required")
	}
	if c.Session.TTL <= 0 {
		return fmt.Errorf("session.ttl must be positive")
	}
	if c.Database.Redis.Host == "" {
		return fmt.Errorf("database.redis.host is required")
	}
	switch c.Database.Preferences.Driver {
	case "sqlite":
		if c.Database.Preferences.SQLitePath == "" {
			return fmt.Errorf("database.preferences.sqlite_path is required for sqlite")
		}
	case "postgres":
		if c.Database.Preferences.Postgres.Host == "" {
			return fmt.Errorf("database.preferences.postgres.host is required")
		}
		if c.Database.Preferences.Postgres.Database == "" {
			return fmt.Errorf("database.preferences.postgres.database is required")
		}
	default:
		return fmt.Errorf("database.preferences.driver must be postgres or sqlite, got %q", c.Database.Preferences.Driver)
	}
	if c.Directory.EmailDomain == "" {
		return fmt.Errorf("directory.email_domain is required")
	}
	if _, err := c.Directory.GetLocation(); err != nil {
		return fmt.Errorf("directory.timezone: %w", err)
	}
	if c.Scheduler.Enabled {
		if c.Scheduler.ExpirySweep == "" {
			return fmt.Errorf("scheduler.expiry_sweep is required when the scheduler is enabled")
		}
		if _, err := c.Scheduler.GetLocation(); err != nil {
			return fmt.Errorf("scheduler.timezone: %w", err)
		}
	}

	return nil
}

// GetLocation returns the timezone location.
func (c *SchedulerConfig) GetLocation() (*time.Location, error) {
	return time.LoadLocation(c.Timezone)
}

// GetLocation returns the timezone that defines "today" for date validation.
func (c *DirectoryConfig) GetLocation() (*time.Location, error) {
	if c.Timezone == "" {
		return time.Local, nil
	}
	return time.LoadLocation(c.Timezone)
}

// Verbs returns the update verb chain in upper case.
func (c *BackendConfig) Verbs() []string {
	verbs := make([]string, 0, len(c.UpdateVerbs))
	for _, verb := range c.UpdateVerbs {
		verbs = append(verbs, strings.ToUpper(strings.TrimSpace(verb)))
	}
	return verbs
}

// RedisAddr returns host:port for the Redis client.
func (c *RedisConfig) RedisAddr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}
