package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
	"github.com/tanq16/dltime/internal/estimate"
	"github.com/tanq16/dltime/internal/probe"
	"github.com/tanq16/dltime/internal/utils"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Probe   ProbeConfig   `mapstructure:"probe" yaml:"probe"`
	Server  ServerConfig  `mapstructure:"server" yaml:"server"`
	Display DisplayConfig `mapstructure:"display" yaml:"display"`
	Log     LogConfig     `mapstructure:"log" yaml:"log"`
}

type ProbeConfig struct {
	URL          string        `mapstructure:"url" yaml:"url"`
	PayloadBytes int64         `mapstructure:"payload_bytes" yaml:"payload_bytes"`
	Timeout      time.Duration `mapstructure:"timeout" yaml:"timeout"`
	UserAgent    string        `mapstructure:"user_agent" yaml:"user_agent"`
	Proxy        string        `mapstructure:"proxy" yaml:"proxy"`
}

type ServerConfig struct {
	Addr           string   `mapstructure:"addr" yaml:"addr"`
	AllowedOrigins []string `mapstructure:"allowed_origins" yaml:"allowed_origins"`
}

type DisplayConfig struct {
	// Timezone is "local", "utc" or an IANA zone name.
	Timezone string `mapstructure:"timezone" yaml:"timezone"`
}

type LogConfig struct {
	Debug bool `mapstructure:"debug" yaml:"debug"`
}

// Load reads path (optional; "" means defaults plus environment) and applies
// DLTIME_* environment overrides, e.g. DLTIME_PROBE_URL.
func Load(path string) (*Config, error) {
	v := viper.New()

	v.SetDefault("probe.url", probe.DefaultURL)
	v.SetDefault("probe.payload_bytes", probe.DefaultPayloadBytes)
	v.SetDefault("probe.timeout", "2m")
	v.SetDefault("probe.user_agent", utils.ToolUserAgent)
	v.SetDefault("probe.proxy", "")
	v.SetDefault("server.addr", "127.0.0.1:7878")
	v.SetDefault("server.allowed_origins", []string{"http://localhost:*", "http://127.0.0.1:*", "tauri://localhost"})
	v.SetDefault("display.timezone", "local")
	v.SetDefault("log.debug", false)

	if path != "" {
		if _, err := os.Stat(path); os.IsNotExist(err) {
			return nil, fmt.Errorf("config file not found: %s", path)
		}
		v.SetConfigFile(path)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("error reading config file %s: %w", path, err)
		}
	}

	v.SetEnvPrefix("DLTIME")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	if c.Probe.URL == "" {
		return errors.New("probe.url is required")
	}
	if c.Probe.PayloadBytes <= 0 {
		return fmt.Errorf("probe.payload_bytes must be positive, got %d", c.Probe.PayloadBytes)
	}
	if c.Probe.Timeout < 0 {
		return fmt.Errorf("probe.timeout must not be negative, got %s", c.Probe.Timeout)
	}
	if c.Server.Addr == "" {
		return errors.New("server.addr is required")
	}
	if _, err := c.Location(); err != nil {
		return err
	}
	return nil
}

func (c *Config) Location() (*time.Location, error) {
	return estimate.ParseLocation(c.Display.Timezone)
}

func (c *Config) ProbeConfig() probe.Config {
	return probe.Config{
		URL:          c.Probe.URL,
		PayloadBytes: c.Probe.PayloadBytes,
		HTTPClientConfig: utils.HTTPClientConfig{
			Timeout:   c.Probe.Timeout,
			ProxyURL:  c.Probe.Proxy,
			UserAgent: c.Probe.UserAgent,
		},
	}
}

func (c *Config) YAML() ([]byte, error) {
	return yaml.Marshal(c)
}
