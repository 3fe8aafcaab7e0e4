package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment override, e.g. SALESDASH_SERVER_ADDR.
const EnvPrefix = "SALESDASH"

type Config struct {
	Server ServerConfig `mapstructure:"server"`
	Data   DataConfig   `mapstructure:"data"`
	Log    LogConfig    `mapstructure:"log"`
}

type ServerConfig struct {
	Addr            string        `mapstructure:"addr"`
	RateLimit       float64       `mapstructure:"rate_limit"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// DataConfig locates the sales dataset. Source is a local path or an
// http(s) URL; URLs are downloaded once to Cache.
type DataConfig struct {
	Source  string        `mapstructure:"source"`
	Cache   string        `mapstructure:"cache"`
	Format  string        `mapstructure:"format"`
	Sheet   string        `mapstructure:"sheet"`
	Query   string        `mapstructure:"query"`
	Timeout time.Duration `mapstructure:"timeout"`
}

type LogConfig struct {
	Level string `mapstructure:"level"`
}

// New returns a viper instance with defaults and environment overrides.
// Callers bind flags to it before Load.
func New() *viper.Viper {
	v := viper.New()
	v.SetDefault("server.addr", ":8080")
	v.SetDefault("server.rate_limit", 20)
	v.SetDefault("server.shutdown_timeout", 10*time.Second)
	v.SetDefault("data.source", "data.csv")
	v.SetDefault("data.cache", "data.csv")
	v.SetDefault("data.format", "")
	v.SetDefault("data.sheet", "")
	v.SetDefault("data.query", "")
	v.SetDefault("data.timeout", 60*time.Second)
	v.SetDefault("log.level", "info")

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

// Load reads the optional config file at path into v and decodes it.
func Load(v *viper.Viper, path string) (*Config, error) {
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

var formats = map[string]bool{"": true, "csv": true, "xlsx": true, "duckdb": true}

func (c *Config) Validate() error {
	if c.Data.Source == "" {
		return fmt.Errorf("config: data.source is required")
	}
	if !formats[strings.ToLower(c.Data.Format)] {
		return fmt.Errorf("config: unsupported data.format %q", c.Data.Format)
	}
	if c.Server.RateLimit < 0 {
		return fmt.Errorf("config: server.rate_limit must not be negative")
	}
	return nil
}
