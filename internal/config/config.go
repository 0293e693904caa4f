package config

import (
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server struct {
		Port int `yaml:"port"`
	} `yaml:"server"`

	Database struct {
		Path string `yaml:"path"`
	} `yaml:"database"`

	Backup struct {
		Enabled       bool   `yaml:"enabled"`
		IntervalHours int    `yaml:"interval_hours"`
		Path          string `yaml:"path"`
		RetentionDays int    `yaml:"retention_days"`
	} `yaml:"backup"`

	Redis struct {
		Address         string `yaml:"address"`
		Password        string `yaml:"password"`
		DB              int    `yaml:"db"`
		CacheTTLSeconds int    `yaml:"cache_ttl_seconds"`
	} `yaml:"redis"`

	Monitoring struct {
		HealthCheckPort   int  `yaml:"health_check_port"`
		PrometheusEnabled bool `yaml:"prometheus_enabled"`
		PrometheusPort    int  `yaml:"prometheus_port"`
	} `yaml:"monitoring"`

	Reconcile struct {
		BatchDays   int    `yaml:"batch_days"`
		HorizonDays int    `yaml:"horizon_days"`
		CronSpec    string `yaml:"cron_spec"`
	} `yaml:"reconcile"`

	RateLimit struct {
		RequestsPerSecond float64 `yaml:"requests_per_second"`
		Burst             int     `yaml:"burst"`
	} `yaml:"rate_limit"`
}

func Load(path string) (*Config, error) {
	if path == "" {
		path = "configs/config.yaml"
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	// Support ${ENV_VAR} placeholders in YAML config.
	data = []byte(os.ExpandEnv(string(data)))

	var cfg Config
	if err = yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Database.Path == "" {
		cfg.Database.Path = "data/aquavik.db"
	}

	if err = os.MkdirAll(filepath.Dir(cfg.Database.Path), 0o755); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (c *Config) CacheTTL() time.Duration {
	if c.Redis.CacheTTLSeconds <= 0 {
		return 0
	}
	return time.Duration(c.Redis.CacheTTLSeconds) * time.Second
}

func (c *Config) ReconcileBatchDays() int {
	if c.Reconcile.BatchDays <= 0 {
		return 31
	}
	return c.Reconcile.BatchDays
}

func (c *Config) ReconcileHorizonDays() int {
	if c.Reconcile.HorizonDays <= 0 {
		return 60
	}
	return c.Reconcile.HorizonDays
}

func (c *Config) ReconcileCronSpec() string {
	if c.Reconcile.CronSpec == "" {
		return "0 3 * * *" // nightly at 03:00
	}
	return c.Reconcile.CronSpec
}

func (c *Config) RateLimitRPS() float64 {
	if c.RateLimit.RequestsPerSecond <= 0 {
		return 20.0
	}
	return c.RateLimit.RequestsPerSecond
}

func (c *Config) RateLimitBurst() int {
	if c.RateLimit.Burst <= 0 {
		return 40
	}
	return c.RateLimit.Burst
}
