package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"

	"github.com/reoring/pulsarschema/compression"
)

// Config represents the pulsarschema CLI configuration
type Config struct {
	Language    string      `mapstructure:"language"`
	Compression string      `mapstructure:"compression"`
	Verbose     bool        `mapstructure:"verbose"`
	Redis       RedisConfig `mapstructure:"redis"`
}

// RedisConfig represents the shared schema version table
type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	Prefix   string `mapstructure:"prefix"`
}

// Load loads the configuration from pulsarschema.yaml in dir (or the file
// named by path when set) and PULSARSCHEMA_* environment variables.
func Load(path string) (*Config, error) {
	v := viper.New()

	v.SetDefault("language", "en")
	v.SetDefault("compression", "none")
	v.SetDefault("verbose", false)
	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.prefix", "pulsarschema:")

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("pulsarschema")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}

	v.SetEnvPrefix("PULSARSCHEMA")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok || path != "" {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := validateConfig(&config); err != nil {
		return nil, err
	}
	return &config, nil
}

// CompressionType returns the configured payload compression.
func (c *Config) CompressionType() compression.Type {
	t, _ := compression.ParseType(c.Compression)
	return t
}

func validateConfig(cfg *Config) error {
	if _, err := compression.ParseType(cfg.Compression); err != nil {
		return fmt.Errorf("compression: %w", err)
	}
	switch cfg.Language {
	case "en", "ja":
	default:
		return fmt.Errorf("language must be en or ja, got: %s", cfg.Language)
	}
	return nil
}
