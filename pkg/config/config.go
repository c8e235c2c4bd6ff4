package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/creasty/defaults"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Environment string `yaml:"environment" default:"development"`
	Server      struct {
		Port            int           `yaml:"port" default:"8080"`
		ReadTimeout     time.Duration `yaml:"read_timeout" default:"15s"`
		WriteTimeout    time.Duration `yaml:"write_timeout" default:"30s"`
		ShutdownTimeout time.Duration `yaml:"shutdown_timeout" default:"10s"`
		CORSOrigins     []string      `yaml:"cors_origins"`
	} `yaml:"server"`
	Log struct {
		Level  string `yaml:"level" default:"info"`
		Format string `yaml:"format" default:"console"`
	} `yaml:"log"`
	Metrics struct {
		Enabled bool   `yaml:"enabled" default:"true"`
		Path    string `yaml:"path" default:"/metrics"`
	} `yaml:"metrics"`
	FRED      FREDConfig      `yaml:"fred"`
	Overlay   OverlayConfig   `yaml:"overlay"`
	Liquidity LiquidityConfig `yaml:"liquidity"`
	Scheduler struct {
		Enabled bool   `yaml:"enabled" default:"true"`
		Spec    string `yaml:"spec" default:"0 */10 * * * *"`
		// Per-run deadline for a scheduled refresh.
		Timeout time.Duration `yaml:"timeout" default:"2m"`
	} `yaml:"scheduler"`
	Redis struct {
		Addr         string        `yaml:"addr" default:"localhost:6379"`
		Password     string        `yaml:"password"`
		DB           int           `yaml:"db"`
		Prefix       string        `yaml:"prefix" default:"liqpull"`
		PoolSize     int           `yaml:"pool_size" default:"10"`
		MinIdleConns int           `yaml:"min_idle_conns" default:"2"`
		PoolTimeout  time.Duration `yaml:"pool_timeout" default:"30s"`
	} `yaml:"redis"`
	Kafka struct {
		Enabled      bool          `yaml:"enabled"`
		Brokers      []string      `yaml:"brokers"`
		Topic        string        `yaml:"topic" default:"liquidity.snapshots"`
		RequiredAcks int           `yaml:"required_acks" default:"1"`
		Compression  string        `yaml:"compression" default:"snappy"`
		MaxAttempts  int           `yaml:"max_attempts" default:"3"`
		WriteTimeout time.Duration `yaml:"write_timeout" default:"10s"`
	} `yaml:"kafka"`
	ClickHouse struct {
		Enabled          bool          `yaml:"enabled"`
		Host             string        `yaml:"host" default:"localhost"`
		Port             int           `yaml:"port" default:"9000"`
		Database         string        `yaml:"database" default:"liqpull"`
		User             string        `yaml:"user" default:"default"`
		Password         string        `yaml:"password"`
		UseHTTP          bool          `yaml:"use_http"`
		AsyncInsert      bool          `yaml:"async_insert"`
		WaitForAsync     bool          `yaml:"wait_for_async_insert"`
		DialTimeout      time.Duration `yaml:"dial_timeout" default:"5s"`
		ReadTimeout      time.Duration `yaml:"read_timeout" default:"10s"`
		MaxExecutionTime time.Duration `yaml:"max_execution_time" default:"60s"`
	} `yaml:"clickhouse"`
	Websocket struct {
		Enabled bool `yaml:"enabled" default:"true"`
	} `yaml:"websocket"`
}

// FREDConfig configures the statistical series provider.
type FREDConfig struct {
	BaseURL string        `yaml:"base_url" default:"https://api.stlouisfed.org/fred"`
	APIKey  string        `yaml:"api_key"`
	Timeout time.Duration `yaml:"timeout" default:"15s"`
	// Requests per second across all series fetches.
	RateLimit float64 `yaml:"rate_limit" default:"10"`
	Burst     int     `yaml:"burst" default:"13"`
}

// OverlayConfig configures the reference asset price provider.
type OverlayConfig struct {
	Enabled   bool          `yaml:"enabled" default:"true"`
	BaseURL   string        `yaml:"base_url" default:"https://api.coingecko.com/api/v3"`
	APIKey    string        `yaml:"api_key"`
	AssetID   string        `yaml:"asset_id" default:"bitcoin"`
	Timeout   time.Duration `yaml:"timeout" default:"10s"`
	RateLimit float64       `yaml:"rate_limit" default:"1"`
}

// LiquidityConfig configures the engine.
type LiquidityConfig struct {
	CacheTTL       time.Duration `yaml:"cache_ttl" default:"10m"`
	CacheBackend   string        `yaml:"cache_backend" default:"memory"`
	// Upper bound for one full refresh cycle.
	CycleTimeout   time.Duration `yaml:"cycle_timeout" default:"45s"`
	// Budget for delivering one snapshot to all sinks.
	PublishTimeout time.Duration `yaml:"publish_timeout" default:"15s"`
	Thresholds     Thresholds    `yaml:"thresholds"`
}

// Thresholds holds every tunable rule boundary of the analytics stage.
// Growth rates are YoY percent; net liquidity values are billions USD.
type Thresholds struct {
	M2Expanding      float64 `yaml:"m2_expanding" default:"3"`
	FedBSExpanding   float64 `yaml:"fed_bs_expanding" default:"5"`
	RRPDraining      float64 `yaml:"rrp_draining" default:"-20"`
	NetLiquidityHigh float64 `yaml:"net_liquidity_high" default:"5000"`
	M2Contracting    float64 `yaml:"m2_contracting" default:"-2"`
	FedBSContracting float64 `yaml:"fed_bs_contracting" default:"-3"`
	NetLiquidityLow  float64 `yaml:"net_liquidity_low" default:"3000"`

	NetLiquidityFloor    float64 `yaml:"net_liquidity_floor" default:"4000"`
	NetLiquidityCritical float64 `yaml:"net_liquidity_critical" default:"3000"`
	MultiplierLow        float64 `yaml:"multiplier_low" default:"3.5"`
	MultiplierHigh       float64 `yaml:"multiplier_high" default:"4.5"`
	ReserveRatioLow      float64 `yaml:"reserve_ratio_low" default:"30"`
	ReserveRatioHigh     float64 `yaml:"reserve_ratio_high" default:"50"`

	// USD of M2 per reference asset unit, long-run average.
	OverlayAverage  float64 `yaml:"overlay_average" default:"350000000"`
	OverlayElevated float64 `yaml:"overlay_elevated" default:"1.2"`
}

// DefaultThresholds returns thresholds populated from their default tags.
func DefaultThresholds() Thresholds {
	var t Thresholds
	_ = defaults.Set(&t)
	return t
}

// Default returns a configuration populated only from default tags.
func Default() *Config {
	var c Config
	_ = defaults.Set(&c)
	return &c
}

// Load reads and parses a YAML configuration file, filling unset fields from defaults.
func Load(path string) (*Config, error) {
	c, err := read(path)
	if err != nil {
		return nil, err
	}

	// Validate required fields
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return c, nil
}

// LoadWithEnv loads config from YAML and overrides with environment variables.
func LoadWithEnv(path string) (*Config, error) {
	c, err := read(path)
	if err != nil {
		return nil, err
	}

	c.applyEnv()

	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return c, nil
}

func read(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var c Config
	if err := defaults.Set(&c); err != nil {
		return nil, fmt.Errorf("apply defaults: %w", err)
	}
	if err := yaml.Unmarshal(b, &c); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	return &c, nil
}

func (c *Config) applyEnv() {
	if v := os.Getenv("FRED_API_KEY"); v != "" {
		c.FRED.APIKey = v
	}
	if v := os.Getenv("COINGECKO_API_KEY"); v != "" {
		c.Overlay.APIKey = v
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		c.Redis.Addr = v
	}
	if v := os.Getenv("KAFKA_BROKERS"); v != "" {
		c.Kafka.Brokers = strings.Split(v, ",")
	}
	if v := os.Getenv("CLICKHOUSE_HOST"); v != "" {
		c.ClickHouse.Host = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		c.Log.Level = v
	}
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.Environment == "" {
		return fmt.Errorf("environment is required")
	}
	if c.FRED.APIKey == "" {
		return fmt.Errorf("fred.api_key is required")
	}
	if c.FRED.BaseURL == "" {
		return fmt.Errorf("fred.base_url is required")
	}
	if c.Liquidity.CacheTTL <= 0 {
		return fmt.Errorf("liquidity.cache_ttl must be positive")
	}
	if c.Liquidity.CacheBackend != "memory" && c.Liquidity.CacheBackend != "redis" {
		return fmt.Errorf("liquidity.cache_backend must be 'memory' or 'redis', got '%s'", c.Liquidity.CacheBackend)
	}
	t := c.Liquidity.Thresholds
	if t.NetLiquidityCritical > t.NetLiquidityFloor {
		return fmt.Errorf("liquidity.thresholds.net_liquidity_critical must not exceed net_liquidity_floor")
	}
	if t.NetLiquidityLow < t.NetLiquidityCritical {
		return fmt.Errorf("liquidity.thresholds.net_liquidity_low must not be below net_liquidity_critical")
	}
	if t.MultiplierLow >= t.MultiplierHigh {
		return fmt.Errorf("liquidity.thresholds.multiplier_low must be below multiplier_high")
	}
	if t.ReserveRatioLow >= t.ReserveRatioHigh {
		return fmt.Errorf("liquidity.thresholds.reserve_ratio_low must be below reserve_ratio_high")
	}
	if t.OverlayAverage <= 0 {
		return fmt.Errorf("liquidity.thresholds.overlay_average must be positive")
	}
	if c.Kafka.Enabled && len(c.Kafka.Brokers) == 0 {
		return fmt.Errorf("kafka.brokers cannot be empty when kafka is enabled")
	}
	return nil
}
