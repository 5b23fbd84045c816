package config

import (
	"errors"
	"fmt"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	EnvPrefix = "DELIVERYDESK"

	defaultJWTSecret = "change-me-in-production"
)

type Config struct {
	Server struct {
		Port int    `mapstructure:"port"`
		Mode string `mapstructure:"mode"`
	} `mapstructure:"server"`
	Database struct {
		Path string `mapstructure:"path"`
	} `mapstructure:"database"`
	Auth struct {
		JWTSecret     string        `mapstructure:"jwt_secret"`
		TokenTTL      time.Duration `mapstructure:"token_ttl"`
		APIKey        string        `mapstructure:"api_key"`
		AdminEmail    string        `mapstructure:"admin_email"`
		AdminPassword string        `mapstructure:"admin_password"`
	} `mapstructure:"auth"`
	Report struct {
		OutputDir string `mapstructure:"output_dir"`
		Timezone  string `mapstructure:"timezone"`
	} `mapstructure:"report"`
	Email struct {
		SMTPHost string `mapstructure:"smtp_host"`
		SMTPPort int    `mapstructure:"smtp_port"`
		From     string `mapstructure:"from"`
		Username string `mapstructure:"username"`
		Password string `mapstructure:"password"`
	} `mapstructure:"email"`
	Slack struct {
		Token   string `mapstructure:"token"`
		Channel string `mapstructure:"channel"`
	} `mapstructure:"slack"`
	Scheduler struct {
		PollInterval time.Duration `mapstructure:"poll_interval"`
		Concurrency  int64         `mapstructure:"concurrency"`
	} `mapstructure:"scheduler"`
	Log struct {
		Level  string `mapstructure:"level"`
		Format string `mapstructure:"format"`
	} `mapstructure:"log"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.mode", "release")
	v.SetDefault("database.path", "data/deliverydesk.db")
	v.SetDefault("auth.jwt_secret", defaultJWTSecret)
	v.SetDefault("auth.token_ttl", 24*time.Hour)
	v.SetDefault("auth.api_key", "")
	v.SetDefault("auth.admin_email", "")
	v.SetDefault("auth.admin_password", "")
	v.SetDefault("report.output_dir", "data/reports")
	v.SetDefault("report.timezone", "Europe/Istanbul")
	v.SetDefault("email.smtp_host", "localhost")
	v.SetDefault("email.smtp_port", 587)
	v.SetDefault("email.from", "reports@deliverydesk.local")
	v.SetDefault("email.username", "")
	v.SetDefault("email.password", "")
	v.SetDefault("slack.token", "")
	v.SetDefault("slack.channel", "")
	v.SetDefault("scheduler.poll_interval", time.Duration(0))
	v.SetDefault("scheduler.concurrency", 1)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
}

// Load reads config.yaml from path (or the working directory when path is
// empty), then applies DELIVERYDESK_* environment overrides. A missing
// config file is not an error; every key has a default.
func Load(path string) (*Config, error) {
	// .env is optional
	_ = godotenv.Load()

	v := viper.New()
	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server.port: %d", c.Server.Port)
	}
	if c.Scheduler.Concurrency < 1 {
		return fmt.Errorf("invalid scheduler.concurrency: %d", c.Scheduler.Concurrency)
	}
	if c.Scheduler.PollInterval < 0 {
		return fmt.Errorf("invalid scheduler.poll_interval: %s", c.Scheduler.PollInterval)
	}
	if _, err := c.Location(); err != nil {
		return err
	}
	return nil
}

// Location resolves report.timezone.
func (c *Config) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.Report.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid report.timezone %q: %w", c.Report.Timezone, err)
	}
	return loc, nil
}

// InsecureSecret reports whether the built-in JWT secret is still in use.
func (c *Config) InsecureSecret() bool {
	return c.Auth.JWTSecret == defaultJWTSecret
}
