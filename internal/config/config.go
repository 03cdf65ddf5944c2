package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// DefaultEnvFile is the optional dotenv file read before the environment.
const DefaultEnvFile = "configs/.env"

// Config holds the application configuration loaded from files and environment variables.
type Config struct {
	AppName              string        `mapstructure:"app_name"`
	Env                  string        `mapstructure:"app_env"`
	LogLevel             string        `mapstructure:"log_level"`
	ProvidersFile        string        `mapstructure:"providers_file"`
	PublishersFile       string        `mapstructure:"publishers_file"`
	CrawlIntervalSeconds int64         `mapstructure:"crawl_interval"`
	CrawlInterval        time.Duration `mapstructure:"-"`

	HTTPTimeoutSeconds int64         `mapstructure:"http_timeout_seconds"`
	HTTPTimeout        time.Duration `mapstructure:"-"`
	HostDelayMs        int64         `mapstructure:"host_delay_ms"`
	HostDelay          time.Duration `mapstructure:"-"`
	ParseWorkers       int           `mapstructure:"parse_workers"`

	StorageType            string        `mapstructure:"storage_type"`
	BBoltPath              string        `mapstructure:"bbolt_path"`
	StorageTTLSeconds      int64         `mapstructure:"storage_ttl_seconds"`
	StorageCleanupSeconds  int64         `mapstructure:"storage_cleanup_interval_seconds"`
	StorageTTL             time.Duration `mapstructure:"-"`
	StorageCleanupInterval time.Duration `mapstructure:"-"`
}

// Load reads configuration from environment variables and config files.
func Load() (*Config, error) {
	return LoadFrom(DefaultEnvFile)
}

// LoadFrom is Load with an explicit dotenv file. A missing file is ignored.
func LoadFrom(envFile string) (*Config, error) {
	if envFile != "" {
		_ = godotenv.Load(envFile)
	}

	v := viper.New()

	v.SetDefault("app_name", "preview-harvester")
	v.SetDefault("app_env", "development")
	v.SetDefault("log_level", "info")
	v.SetDefault("providers_file", "./configs/providers.yaml")
	v.SetDefault("publishers_file", "./configs/publishers.yaml")
	v.SetDefault("crawl_interval", 900) // seconds
	v.SetDefault("http_timeout_seconds", 15)
	v.SetDefault("host_delay_ms", 5000)
	v.SetDefault("parse_workers", 4)
	v.SetDefault("storage_type", "bbolt")
	v.SetDefault("bbolt_path", "./data/cache.db")
	v.SetDefault("storage_ttl_seconds", int64((5*24*time.Hour)/time.Second))
	v.SetDefault("storage_cleanup_interval_seconds", int64((12*time.Hour)/time.Second))

	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.resolve(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// resolve validates the raw values and derives the duration fields.
func (cfg *Config) resolve() error {
	var errs []error
	if cfg.CrawlIntervalSeconds <= 0 {
		errs = append(errs, errors.New("invalid crawl_interval (must be positive seconds)"))
	}
	if cfg.HTTPTimeoutSeconds <= 0 {
		errs = append(errs, errors.New("invalid http_timeout_seconds (must be positive seconds)"))
	}
	if cfg.HostDelayMs < 0 {
		errs = append(errs, errors.New("invalid host_delay_ms (must not be negative)"))
	}
	if cfg.ParseWorkers <= 0 {
		errs = append(errs, errors.New("invalid parse_workers (must be positive)"))
	}
	if cfg.StorageTTLSeconds <= 0 {
		errs = append(errs, errors.New("invalid storage_ttl_seconds (must be positive seconds)"))
	}
	if cfg.StorageCleanupSeconds <= 0 {
		errs = append(errs, errors.New("invalid storage_cleanup_interval_seconds (must be positive seconds)"))
	}
	if err := errors.Join(errs...); err != nil {
		return err
	}

	cfg.CrawlInterval = time.Duration(cfg.CrawlIntervalSeconds) * time.Second
	cfg.HTTPTimeout = time.Duration(cfg.HTTPTimeoutSeconds) * time.Second
	cfg.HostDelay = time.Duration(cfg.HostDelayMs) * time.Millisecond
	cfg.StorageTTL = time.Duration(cfg.StorageTTLSeconds) * time.Second
	cfg.StorageCleanupInterval = time.Duration(cfg.StorageCleanupSeconds) * time.Second
	return nil
}
