package config

import (
	"errors"
	"fmt"
	"os"
	"regexp"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Notifier modes.
const (
	ModeLogOnly    = "log_only"
	ModeProduction = "production"
)

// Config is the main struct that holds all configuration for the application.
type Config struct {
	Logger    LoggerConfig    `mapstructure:"logger"`
	HTTP      HTTPConfig      `mapstructure:"http"`
	Postgres  PostgresConfig  `mapstructure:"postgres"`
	RabbitMQ  RabbitMQConfig  `mapstructure:"rabbitmq"`
	Redis     RedisConfig     `mapstructure:"redis"`
	Templates TemplatesConfig `mapstructure:"templates"`
	Notifiers NotifiersConfig `mapstructure:"notifiers"`
}

// LoggerConfig holds logging-specific settings.
type LoggerConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"` // "console" or "json"
}

// HTTPConfig holds HTTP server-specific settings.
type HTTPConfig struct {
	Port    string `mapstructure:"port"`
	GinMode string `mapstructure:"gin_mode"`
}

// PostgresConfig holds all settings for the PostgreSQL database connection.
type PostgresConfig struct {
	MasterDSN string     `mapstructure:"master_dsn"`
	Pool      PoolConfig `mapstructure:"pool"`
}

// PoolConfig defines the connection pool settings for the database.
type PoolConfig struct {
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
}

// RabbitMQConfig holds all settings for the RabbitMQ connection.
type RabbitMQConfig struct {
	DSN     string `mapstructure:"dsn"`
	Workers int    `mapstructure:"workers"`
}

// RedisConfig holds all settings for the Redis connection.
type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// TemplatesConfig selects where templates are persisted.
type TemplatesConfig struct {
	// Backend is "memory" or "postgres".
	Backend  string        `mapstructure:"backend"`
	Cache    bool          `mapstructure:"cache"`
	CacheTTL time.Duration `mapstructure:"cache_ttl"`
}

// NotifiersConfig holds configurations for all notification channels.
type NotifiersConfig struct {
	// Mode can be "log_only" or "production".
	// In "log_only" mode every provider transport is replaced by a log sink.
	Mode  string      `mapstructure:"mode"`
	Email EmailConfig `mapstructure:"email"`
	Push  PushConfig  `mapstructure:"push"`
	SMS   SMSConfig   `mapstructure:"sms"`
}

// EmailConfig holds settings for the email adapter and its transport.
type EmailConfig struct {
	// Transport is "smtp" or "ses".
	Transport   string        `mapstructure:"transport"`
	Host        string        `mapstructure:"host"`
	Port        int           `mapstructure:"port"`
	Username    string        `mapstructure:"username"`
	Password    string        `mapstructure:"password"`
	SSL         bool          `mapstructure:"ssl"`
	Region      string        `mapstructure:"region"`
	FromAddress string        `mapstructure:"from_address"`
	FromName    string        `mapstructure:"from_name"`
	Timeout     time.Duration `mapstructure:"timeout"`
}

// PushConfig holds settings for the push adapter and its gateway.
type PushConfig struct {
	// Gateway is "sns" or "telegram".
	Gateway                string             `mapstructure:"gateway"`
	Region                 string             `mapstructure:"region"`
	PlatformApplicationARN string             `mapstructure:"platform_application_arn"`
	BotToken               string             `mapstructure:"bot_token"`
	Timeout                time.Duration      `mapstructure:"timeout"`
	Policies               PushPoliciesConfig `mapstructure:"policies"`
}

// PushPoliciesConfig overrides the built-in push policy table.
type PushPoliciesConfig struct {
	Default    *PushPolicyConfig           `mapstructure:"default"`
	Categories map[string]PushPolicyConfig `mapstructure:"categories"`
	Templates  map[string]PushPolicyConfig `mapstructure:"templates"`
}

// PushPolicyConfig is a single row of the push policy table.
type PushPolicyConfig struct {
	Priority string        `mapstructure:"priority"`
	TTL      time.Duration `mapstructure:"ttl"`
	Sound    string        `mapstructure:"sound"`
}

// SMSConfig holds settings for the SMS adapter and its gateway.
type SMSConfig struct {
	// Gateway is "sns".
	Gateway   string        `mapstructure:"gateway"`
	Region    string        `mapstructure:"region"`
	From      string        `mapstructure:"from"`
	MaxLength int           `mapstructure:"max_length"`
	Timeout   time.Duration `mapstructure:"timeout"`
}

const defaultConfigPath = "configs/config.yaml"

// NewConfig loads an optional .env file, then reads the YAML file named by CONFIG_PATH
// (configs/config.yaml by default) and environment variables.
func NewConfig() (*Config, error) {
	_ = godotenv.Load()

	path := os.Getenv("CONFIG_PATH")
	if path == "" {
		path = defaultConfigPath
	}
	return Load(path)
}

// Load parses the YAML file at path, applies defaults and environment overrides, and validates the result.
func Load(path string) (*Config, error) {
	v := viper.New()

	v.SetConfigFile(path)

	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.format", "console")
	v.SetDefault("http.port", ":8080")
	v.SetDefault("http.gin_mode", "release")
	v.SetDefault("rabbitmq.workers", 5)
	v.SetDefault("templates.backend", "memory")
	v.SetDefault("templates.cache_ttl", 24*time.Hour)
	v.SetDefault("notifiers.mode", ModeLogOnly)
	v.SetDefault("notifiers.email.transport", "smtp")
	v.SetDefault("notifiers.email.port", 587)
	v.SetDefault("notifiers.email.timeout", 10*time.Second)
	v.SetDefault("notifiers.push.gateway", "sns")
	v.SetDefault("notifiers.push.timeout", 10*time.Second)
	v.SetDefault("notifiers.sms.gateway", "sns")
	v.SetDefault("notifiers.sms.max_length", 1600)
	v.SetDefault("notifiers.sms.timeout", 10*time.Second)

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		return nil, err
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

var e164Re = regexp.MustCompile(`^\+[1-9]\d{1,14}$`)

// Validate checks the settings that would otherwise only fail on the first send.
func (c *Config) Validate() error {
	var errs []error

	switch c.Templates.Backend {
	case "memory":
	case "postgres":
		if c.Postgres.MasterDSN == "" {
			errs = append(errs, errors.New("postgres.master_dsn is required for the postgres template backend"))
		}
	default:
		errs = append(errs, fmt.Errorf("templates.backend must be memory or postgres, got %q", c.Templates.Backend))
	}
	if c.Templates.Cache && c.Redis.Addr == "" {
		errs = append(errs, errors.New("redis.addr is required when templates.cache is enabled"))
	}

	n := c.Notifiers
	if n.Email.Timeout <= 0 || n.Push.Timeout <= 0 || n.SMS.Timeout <= 0 {
		errs = append(errs, errors.New("notifier timeouts must be positive"))
	}
	if n.SMS.MaxLength < 4 {
		errs = append(errs, errors.New("notifiers.sms.max_length must be at least 4"))
	}

	switch n.Mode {
	case ModeLogOnly:
	case ModeProduction:
		errs = append(errs, n.validateProduction()...)
	default:
		errs = append(errs, fmt.Errorf("notifiers.mode must be %s or %s, got %q", ModeLogOnly, ModeProduction, n.Mode))
	}

	return errors.Join(errs...)
}

func (n NotifiersConfig) validateProduction() []error {
	var errs []error

	if n.Email.FromAddress == "" {
		errs = append(errs, errors.New("notifiers.email.from_address is required"))
	}
	switch n.Email.Transport {
	case "smtp":
		if n.Email.Host == "" {
			errs = append(errs, errors.New("notifiers.email.host is required for smtp transport"))
		}
	case "ses":
		if n.Email.Region == "" {
			errs = append(errs, errors.New("notifiers.email.region is required for ses transport"))
		}
	default:
		errs = append(errs, fmt.Errorf("notifiers.email.transport must be smtp or ses, got %q", n.Email.Transport))
	}

	switch n.Push.Gateway {
	case "sns":
		if n.Push.PlatformApplicationARN == "" {
			errs = append(errs, errors.New("notifiers.push.platform_application_arn is required for sns gateway"))
		}
	case "telegram":
		if n.Push.BotToken == "" {
			errs = append(errs, errors.New("notifiers.push.bot_token is required for telegram gateway"))
		}
	default:
		errs = append(errs, fmt.Errorf("notifiers.push.gateway must be sns or telegram, got %q", n.Push.Gateway))
	}

	if n.SMS.Gateway != "sns" {
		errs = append(errs, fmt.Errorf("notifiers.sms.gateway must be sns, got %q", n.SMS.Gateway))
	}
	if !e164Re.MatchString(n.SMS.From) {
		errs = append(errs, fmt.Errorf("notifiers.sms.from must be an E.164 number, got %q", n.SMS.From))
	}

	return errs
}
