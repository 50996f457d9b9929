package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/creasty/defaults"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Environment string `yaml:"environment" default:"development"`
	Server      struct {
		Host            string        `yaml:"host" default:"0.0.0.0"`
		Port            int           `yaml:"port" default:"8080"`
		ReadTimeout     time.Duration `yaml:"read_timeout" default:"10s"`
		WriteTimeout    time.Duration `yaml:"write_timeout" default:"30s"`
		ShutdownTimeout time.Duration `yaml:"shutdown_timeout" default:"10s"`
		SlowThreshold   time.Duration `yaml:"slow_threshold" default:"500ms"`
		CORS            bool          `yaml:"cors" default:"true"`
	} `yaml:"server"`
	Metrics struct {
		Enabled bool `yaml:"enabled" default:"true"`
	} `yaml:"metrics"`
	Logging struct {
		Level     string `yaml:"level" default:"info"`
		Format    string `yaml:"format" default:"json"`
		Output    string `yaml:"output" default:"stdout"`
		Collector struct {
			Enabled   bool          `yaml:"enabled"`
			Interval  time.Duration `yaml:"interval" default:"30s"`
			Threshold int           `yaml:"threshold" default:"100"`
			Topic     string        `yaml:"topic" default:"errors"`
		} `yaml:"collector"`
	} `yaml:"logging"`
	Store struct {
		// Backend is memory or clickhouse.
		Backend string `yaml:"backend" default:"memory"`
	} `yaml:"store"`
	Ingest struct {
		// Backend is store (append directly) or kafka (publish, consumer appends).
		Backend    string  `yaml:"backend" default:"store"`
		MaxRPS     float64 `yaml:"max_rps" default:"20"`
		BufferSize int     `yaml:"buffer_size" default:"1000"`
	} `yaml:"ingest"`
	Feed struct {
		Enabled        bool          `yaml:"enabled"`
		URL            string        `yaml:"url"`
		Token          string        `yaml:"token"`
		Assets         []string      `yaml:"assets"`
		ReconnectDelay time.Duration `yaml:"reconnect_delay" default:"5s"`
		PingInterval   time.Duration `yaml:"ping_interval" default:"30s"`
	} `yaml:"feed"`
	Kafka struct {
		Enabled      bool     `yaml:"enabled"`
		Brokers      []string `yaml:"brokers"`
		SamplesTopic string   `yaml:"samples_topic" default:"carbon.samples"`
		AuditTopic   string   `yaml:"audit_topic" default:"carbon.audit"`
		FillTopic    string   `yaml:"fill_topic" default:"carbon.fills"`
		RequiredAcks int      `yaml:"required_acks" default:"-1"`
		Compression  string   `yaml:"compression" default:"snappy"`
		Producer     struct {
			BatchSize    int           `yaml:"batch_size" default:"100"`
			BatchTimeout time.Duration `yaml:"batch_timeout" default:"50ms"`
			Async        bool          `yaml:"async"`
		} `yaml:"producer"`
		Consumer struct {
			GroupID    string        `yaml:"group_id" default:"carbondesk"`
			Workers    int           `yaml:"workers" default:"4"`
			BufferSize int           `yaml:"buffer_size" default:"100"`
			RetryMax   int           `yaml:"retry_max" default:"3"`
			BackoffMin time.Duration `yaml:"backoff_min" default:"50ms"`
			BackoffMax time.Duration `yaml:"backoff_max" default:"2s"`
			DLQTopic   string        `yaml:"dlq_topic" default:"carbon.samples.dlq"`
		} `yaml:"consumer"`
	} `yaml:"kafka"`
	ClickHouse struct {
		Host             string        `yaml:"host"`
		Port             int           `yaml:"port" default:"9000"`
		Database         string        `yaml:"database" default:"carbondesk"`
		User             string        `yaml:"user" default:"default"`
		Password         string        `yaml:"password"`
		UseHTTP          bool          `yaml:"use_http"`
		MaxOpenConns     int           `yaml:"max_open_conns" default:"10"`
		MaxIdleConns     int           `yaml:"max_idle_conns" default:"5"`
		DialTimeout      time.Duration `yaml:"dial_timeout" default:"5s"`
		ReadTimeout      time.Duration `yaml:"read_timeout" default:"10s"`
		MaxExecutionTime time.Duration `yaml:"max_execution_time" default:"30s"`
	} `yaml:"clickhouse"`
	Redis struct {
		Enabled  bool   `yaml:"enabled"`
		Host     string `yaml:"host" default:"localhost"`
		Port     int    `yaml:"port" default:"6379"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
		PoolSize int    `yaml:"pool_size" default:"10"`
		Prefix   string `yaml:"prefix" default:"carbondesk"`
	} `yaml:"redis"`
	Cache struct {
		Enabled bool          `yaml:"enabled" default:"true"`
		TTL     time.Duration `yaml:"ttl" default:"5m"`
		L1Size  int           `yaml:"l1_size" default:"1000"`
		L1TTL   time.Duration `yaml:"l1_ttl" default:"30s"`
	} `yaml:"cache"`
	Orders struct {
		RatePerSecond float64 `yaml:"rate_per_second" default:"5"`
		Burst         int     `yaml:"burst" default:"10"`
	} `yaml:"orders"`
	Users struct {
		BaseURL string        `yaml:"base_url"`
		Token   string        `yaml:"token"`
		Timeout time.Duration `yaml:"timeout" default:"5s"`
	} `yaml:"users"`
}

// Load reads a YAML file over the defaults and validates the result.
func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	c, err := Parse(b)
	if err != nil {
		return nil, err
	}
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return c, nil
}

// Parse decodes YAML over the defaults without validating.
func Parse(b []byte) (*Config, error) {
	var c Config
	if err := defaults.Set(&c); err != nil {
		return nil, fmt.Errorf("config defaults: %w", err)
	}
	if err := yaml.Unmarshal(b, &c); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	return &c, nil
}

// LoadWithEnv loads the file, then applies CARBON_* overrides and validates again.
func LoadWithEnv(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	c, err := Parse(b)
	if err != nil {
		return nil, err
	}
	if err := c.applyEnv(os.LookupEnv); err != nil {
		return nil, err
	}
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return c, nil
}

func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
	str := func(key string, dst *string) {
		if v, ok := lookup(key); ok && v != "" {
			*dst = v
		}
	}
	list := func(key string, dst *[]string) {
		if v, ok := lookup(key); ok && v != "" {
			*dst = splitList(v)
		}
	}
	str("CARBON_ENV", &c.Environment)
	str("CARBON_LOG_LEVEL", &c.Logging.Level)
	str("CARBON_STORE_BACKEND", &c.Store.Backend)
	str("CARBON_INGEST_BACKEND", &c.Ingest.Backend)
	str("CARBON_FEED_URL", &c.Feed.URL)
	str("CARBON_FEED_TOKEN", &c.Feed.Token)
	list("CARBON_FEED_ASSETS", &c.Feed.Assets)
	list("CARBON_KAFKA_BROKERS", &c.Kafka.Brokers)
	str("CARBON_CLICKHOUSE_HOST", &c.ClickHouse.Host)
	str("CARBON_CLICKHOUSE_PASSWORD", &c.ClickHouse.Password)
	str("CARBON_REDIS_HOST", &c.Redis.Host)
	str("CARBON_REDIS_PASSWORD", &c.Redis.Password)
	str("CARBON_USERS_URL", &c.Users.BaseURL)
	str("CARBON_USERS_TOKEN", &c.Users.Token)
	if v, ok := lookup("CARBON_HTTP_PORT"); ok && v != "" {
		p, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("CARBON_HTTP_PORT: %w", err)
		}
		c.Server.Port = p
	}
	return nil
}

func splitList(v string) []string {
	var out []string
	for _, s := range strings.Split(v, ",") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// Validate checks cross-field consistency.
func (c *Config) Validate() error {
	var errs []error
	if c.Environment == "" {
		errs = append(errs, errors.New("environment is required"))
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Errorf("server.port %d out of range", c.Server.Port))
	}
	switch c.Store.Backend {
	case "memory":
	case "clickhouse":
		if c.ClickHouse.Host == "" {
			errs = append(errs, errors.New("clickhouse.host is required for store.backend=clickhouse"))
		}
	default:
		errs = append(errs, fmt.Errorf("store.backend must be 'memory' or 'clickhouse', got %q", c.Store.Backend))
	}
	switch c.Ingest.Backend {
	case "store":
	case "kafka":
		if !c.Kafka.Enabled {
			errs = append(errs, errors.New("ingest.backend=kafka requires kafka.enabled"))
		}
	default:
		errs = append(errs, fmt.Errorf("ingest.backend must be 'store' or 'kafka', got %q", c.Ingest.Backend))
	}
	if c.Kafka.Enabled && len(c.Kafka.Brokers) == 0 {
		errs = append(errs, errors.New("kafka.brokers cannot be empty when kafka is enabled"))
	}
	if c.Feed.Enabled {
		if c.Feed.URL == "" {
			errs = append(errs, errors.New("feed.url is required when the feed is enabled"))
		}
		if len(c.Feed.Assets) == 0 {
			errs = append(errs, errors.New("feed.assets cannot be empty when the feed is enabled"))
		}
	}
	if c.Logging.Collector.Enabled && !c.Redis.Enabled {
		errs = append(errs, errors.New("logging.collector requires redis.enabled"))
	}
	if c.Orders.RatePerSecond <= 0 || c.Orders.Burst < 1 {
		errs = append(errs, errors.New("orders.rate_per_second and orders.burst must be positive"))
	}
	return errors.Join(errs...)
}
