package main

import (
	"strings"
	"time"

	"github.com/hashicorp/go-multierror"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	"github.com/pkg/errors"
)

const envPrefix = "THROTTLE_"

type config struct {
	ListenAddr string `koanf:"listen-addr"`

	RedisAddr     string `koanf:"redis-addr"`
	RedisPassword string `koanf:"redis-password"`
	RedisDB       int    `koanf:"redis-db"`

	QueuePrefix string `koanf:"queue-prefix"`
	QueueMax    int64  `koanf:"queue-max"`

	RateRPS   float64 `koanf:"rate-rps"`
	RateBurst int     `koanf:"rate-burst"`

	ConcurrencyMax     int           `koanf:"concurrency-max"`
	ConcurrencyTimeout time.Duration `koanf:"concurrency-timeout"`

	MaxLoadAvg float64 `koanf:"max-load-avg"`
	LoadPerCPU bool    `koanf:"load-per-cpu"`

	StatsEnabled bool          `koanf:"stats-enabled"`
	StatsPrefix  string        `koanf:"stats-prefix"`
	StatsTTL     time.Duration `koanf:"stats-ttl"`

	RetryAfter   time.Duration `koanf:"retry-after"`
	ClassHeader  string        `koanf:"class-header"`
	FilterTable  string        `koanf:"filter-table"`
	FilterColumn string        `koanf:"filter-column"`
}

func defaultConfig() config {
	return config{
		ListenAddr:         ":8080",
		RedisAddr:          "localhost:6379",
		QueuePrefix:        "jobs:queue",
		QueueMax:           1000,
		RateRPS:            10,
		RateBurst:          20,
		ConcurrencyMax:     100,
		ConcurrencyTimeout: 0,
		MaxLoadAvg:         0,
		StatsPrefix:        "throttle:stats",
		StatsTTL:           24 * time.Hour,
		RetryAfter:         1 * time.Second,
		ClassHeader:        "X-Job-Class",
		FilterTable:        "jobs",
		FilterColumn:       "job_class",
	}
}

// loadConfig aplica, nesta ordem: defaults, arquivo YAML (se path != "") e
// variáveis THROTTLE_* (ex: THROTTLE_QUEUE_MAX -> queue-max).
func loadConfig(path string) (config, error) {
	k := koanf.New(".")

	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return config{}, errors.Wrapf(err, "load config file %s", path)
		}
	}

	err := k.Load(env.Provider(envPrefix, ".", func(s string) string {
		key := strings.ToLower(strings.TrimPrefix(s, envPrefix))
		return strings.ReplaceAll(key, "_", "-")
	}), nil)
	if err != nil {
		return config{}, errors.Wrap(err, "load env config")
	}

	cfg := defaultConfig()
	if err := k.Unmarshal("", &cfg); err != nil {
		return config{}, errors.Wrap(err, "decode config")
	}
	return cfg, cfg.Validate()
}

func (c config) Validate() error {
	var result *multierror.Error
	if strings.TrimSpace(c.ListenAddr) == "" {
		result = multierror.Append(result, errors.New("listen-addr is required"))
	}
	if strings.TrimSpace(c.RedisAddr) == "" {
		result = multierror.Append(result, errors.New("redis-addr is required"))
	}
	if c.QueueMax <= 0 {
		result = multierror.Append(result, errors.New("queue-max must be > 0"))
	}
	if c.RateRPS <= 0 {
		result = multierror.Append(result, errors.New("rate-rps must be > 0"))
	}
	if c.RateBurst <= 0 {
		result = multierror.Append(result, errors.New("rate-burst must be > 0"))
	}
	if c.ConcurrencyMax < 0 {
		result = multierror.Append(result, errors.New("concurrency-max must be >= 0"))
	}
	if c.MaxLoadAvg < 0 {
		result = multierror.Append(result, errors.New("max-load-avg must be >= 0"))
	}
	return result.ErrorOrNil()
}
