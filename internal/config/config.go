// Package config loads and validates service configuration via Viper.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/readergate/readergate/internal/strategy"
)

// Config captures all service configuration knobs loaded via Viper.
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	HTTP     HTTPConfig     `mapstructure:"http"`
	Cache    CacheConfig    `mapstructure:"cache"`
	Upstream UpstreamConfig `mapstructure:"upstream"`
	Logging  LoggingConfig  `mapstructure:"logging"`
}

// ServerConfig controls HTTP server behavior.
type ServerConfig struct {
	Port           int `mapstructure:"port"`
	RequestTimeout int `mapstructure:"request_timeout_seconds"`
}

// HTTPConfig bounds outbound strategy requests.
type HTTPConfig struct {
	TimeoutSeconds int `mapstructure:"timeout_seconds"`
}

// CacheConfig sizes the in-memory URL cache.
type CacheConfig struct {
	TTLMinutes int `mapstructure:"ttl_minutes"`
	MaxEntries int `mapstructure:"max_entries"`
}

// UpstreamConfig overrides the third-party service endpoints, mainly so the
// adapters can be pointed at local servers under test.
type UpstreamConfig struct {
	WaybackAvailabilityURL string `mapstructure:"wayback_availability_url"`
	WaybackSnapshotBase    string `mapstructure:"wayback_snapshot_base"`
	TwelveftProxyURL       string `mapstructure:"twelveft_proxy_url"`
	JinaReaderBase         string `mapstructure:"jina_reader_base"`
	ExaMCPURL              string `mapstructure:"exa_mcp_url"`
}

// LoggingConfig toggles zap development features.
type LoggingConfig struct {
	Development bool `mapstructure:"development"`
}

// Load builds a Config from disk/environment.
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("READERGATE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.request_timeout_seconds", 120)
	v.SetDefault("http.timeout_seconds", 20)
	v.SetDefault("cache.ttl_minutes", 10)
	v.SetDefault("cache.max_entries", 100)
	v.SetDefault("logging.development", true)
}

// Validate enforces required values and reasonable limits.
func (c Config) Validate() error {
	if c.Server.Port <= 0 {
		return fmt.Errorf("server.port must be > 0")
	}
	if c.Server.RequestTimeout <= 0 {
		return fmt.Errorf("server.request_timeout_seconds must be > 0")
	}
	if c.HTTP.TimeoutSeconds <= 0 {
		return fmt.Errorf("http.timeout_seconds must be > 0")
	}
	if c.Cache.TTLMinutes <= 0 {
		return fmt.Errorf("cache.ttl_minutes must be > 0")
	}
	if c.Cache.MaxEntries <= 0 {
		return fmt.Errorf("cache.max_entries must be > 0")
	}
	return nil
}

// StrategyConfig maps the loaded settings onto the strategy layer's config.
func (c Config) StrategyConfig() strategy.Config {
	return strategy.Config{
		Timeout:                time.Duration(c.HTTP.TimeoutSeconds) * time.Second,
		WaybackAvailabilityURL: c.Upstream.WaybackAvailabilityURL,
		WaybackSnapshotBase:    c.Upstream.WaybackSnapshotBase,
		TwelveftProxyURL:       c.Upstream.TwelveftProxyURL,
		JinaReaderBase:         c.Upstream.JinaReaderBase,
		ExaMCPURL:              c.Upstream.ExaMCPURL,
	}
}

// CacheTTL converts the cache TTL setting into a duration.
func (c Config) CacheTTL() time.Duration {
	return time.Duration(c.Cache.TTLMinutes) * time.Minute
}
