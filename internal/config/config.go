// Package config loads the application configuration from the embedded
// defaults and an optional YAML file.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/spf13/viper"

	"github.com/lepinkainen/nsite-directory/configs"
	"github.com/lepinkainen/nsite-directory/pkg/filesystem"
	"github.com/lepinkainen/nsite-directory/pkg/nostr"
)

// DefaultPath is the config file looked up when none is given
const DefaultPath = "config.yaml"

// Config holds the central application configuration
type Config struct {
	Database struct {
		Path        string        `mapstructure:"path"`
		BusyTimeout time.Duration `mapstructure:"busy_timeout"`
	} `mapstructure:"database"`

	OpenGraph struct {
		CacheTTL     time.Duration `mapstructure:"cache_ttl"` // 0 = never expire
		Timeout      time.Duration `mapstructure:"timeout"`
		MaxRetries   int           `mapstructure:"max_retries"`
		MaxBodyBytes int64         `mapstructure:"max_body_bytes"`
		UserAgent    string        `mapstructure:"user_agent"`

		AllowPrivateNetworks bool `mapstructure:"allow_private_networks"`
	} `mapstructure:"opengraph"`

	Directory struct {
		GatewayHost      string             `mapstructure:"gateway_host"`
		Scheme           string             `mapstructure:"scheme"`
		HideUnknown      bool               `mapstructure:"hide_unknown"`
		Concurrency      int                `mapstructure:"concurrency"`
		MinFetchInterval time.Duration      `mapstructure:"min_fetch_interval"`
		Featured         nostr.FeaturedList `mapstructure:"featured"`
	} `mapstructure:"directory"`

	Server struct {
		Addr string `mapstructure:"addr"`
	} `mapstructure:"server"`

	Feed struct {
		Title       string `mapstructure:"title"`
		Description string `mapstructure:"description"`
		Link        string `mapstructure:"link"`
		Author      string `mapstructure:"author"`
	} `mapstructure:"feed"`
}

// Gateway returns the configured site gateway
func (c *Config) Gateway() nostr.Gateway {
	return nostr.Gateway{Scheme: c.Directory.Scheme, Host: c.Directory.GatewayHost}
}

// LoadConfig reads the embedded defaults and merges the file at path over
// them. A missing file is not an error.
func LoadConfig(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")

	defaults, err := fs.ReadFile(configs.EmbeddedConfigs, configs.DefaultFile)
	if err != nil {
		return nil, fmt.Errorf("error reading default config: %w", err)
	}
	if err := v.ReadConfig(bytes.NewReader(defaults)); err != nil {
		return nil, fmt.Errorf("error parsing default config: %w", err)
	}

	if path == "" {
		path = DefaultPath
	}
	path = filesystem.ResolvePath(path)
	v.SetConfigFile(path)

	if err := v.MergeInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("error reading config file %s: %w", path, err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	return &config, nil
}
