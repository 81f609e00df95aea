package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Device   DeviceConfig   `yaml:"device"`
	HTTP     HTTPConfig     `yaml:"http"`
	MQTT     MQTTConfig     `yaml:"mqtt"`
	Pushover PushoverConfig `yaml:"pushover"`
	Journal  JournalConfig  `yaml:"journal"`
	Retry    RetryConfig    `yaml:"retry"`
	Log      LogConfig      `yaml:"log"`
}

type DeviceConfig struct {
	Name    string `yaml:"name"`
	Host    string `yaml:"host"`
	Port    int    `yaml:"port"`
	Timeout string `yaml:"timeout"`
}

type HTTPConfig struct {
	Enabled   bool   `yaml:"enabled"`
	Addr      string `yaml:"addr"`
	AuthToken string `yaml:"auth_token"`
	// RateLimit is requests per minute per client. Unset means 60; a negative
	// value disables limiting.
	RateLimit int `yaml:"rate_limit"`
}

type MQTTConfig struct {
	Enabled     bool   `yaml:"enabled"`
	Broker      string `yaml:"broker"`
	Port        int    `yaml:"port"`
	Username    string `yaml:"username"`
	Password    string `yaml:"password"`
	ClientID    string `yaml:"client_id"`
	TopicPrefix string `yaml:"topic_prefix"`
	QoS         int    `yaml:"qos"`
}

type PushoverConfig struct {
	Token   string `yaml:"token"`
	UserKey string `yaml:"user_key"`
	Title   string `yaml:"title"`
	Enabled bool   `yaml:"enabled"`
}

type JournalConfig struct {
	Enabled bool   `yaml:"enabled"`
	Table   string `yaml:"table"`
	Region  string `yaml:"region"`
	TTL     string `yaml:"ttl"`
}

type RetryConfig struct {
	MaxAttempts  int     `yaml:"max_attempts"`
	InitialDelay string  `yaml:"initial_delay"`
	MaxDelay     string  `yaml:"max_delay"`
	Multiplier   float64 `yaml:"multiplier"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Load reads the YAML file at path, expanding ${VAR} references first. A
// missing file yields the defaults so one-shot commands work with flags only.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		data = nil
	} else if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	expanded := os.ExpandEnv(string(data))

	var cfg Config
	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	cfg.setDefaults()

	return &cfg, nil
}

func (c *Config) setDefaults() {
	if c.Device.Port == 0 {
		c.Device.Port = 80
	}
	if c.Device.Timeout == "" {
		c.Device.Timeout = "10s"
	}
	if c.Device.Name == "" {
		c.Device.Name = c.Device.Host
	}
	if c.HTTP.Addr == "" {
		c.HTTP.Addr = ":8080"
	}
	if c.HTTP.RateLimit == 0 {
		c.HTTP.RateLimit = 60
	}
	if c.MQTT.Broker == "" {
		c.MQTT.Broker = "localhost"
	}
	if c.MQTT.Port == 0 {
		c.MQTT.Port = 1883
	}
	if c.MQTT.TopicPrefix == "" {
		c.MQTT.TopicPrefix = "timesgate"
	}
	if c.Pushover.Title == "" {
		c.Pushover.Title = "Times Gate"
	}
	if c.Journal.Table == "" {
		c.Journal.Table = "timesgate-journal"
	}
	if c.Journal.TTL == "" {
		c.Journal.TTL = "720h"
	}
	if c.Retry.MaxAttempts == 0 {
		c.Retry.MaxAttempts = 1
	}
	if c.Retry.InitialDelay == "" {
		c.Retry.InitialDelay = "200ms"
	}
	if c.Retry.MaxDelay == "" {
		c.Retry.MaxDelay = "5s"
	}
	if c.Retry.Multiplier == 0 {
		c.Retry.Multiplier = 2.0
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "text"
	}
}

// Validate checks the values the device client cannot run without.
func (c *Config) Validate() error {
	if c.Device.Host == "" {
		return fmt.Errorf("device.host is required")
	}
	if c.Device.Port < 1 || c.Device.Port > 65535 {
		return fmt.Errorf("device.port %d out of range", c.Device.Port)
	}
	if _, err := c.Device.TimeoutDuration(); err != nil {
		return err
	}
	if c.MQTT.QoS < 0 || c.MQTT.QoS > 2 {
		return fmt.Errorf("mqtt.qos %d must be 0, 1 or 2", c.MQTT.QoS)
	}
	return nil
}

func (d DeviceConfig) TimeoutDuration() (time.Duration, error) {
	timeout, err := time.ParseDuration(d.Timeout)
	if err != nil {
		return 0, fmt.Errorf("parsing device.timeout: %w", err)
	}
	if timeout <= 0 {
		return 0, fmt.Errorf("device.timeout must be positive, got %s", d.Timeout)
	}
	return timeout, nil
}

func (j JournalConfig) TTLDuration() (time.Duration, error) {
	ttl, err := time.ParseDuration(j.TTL)
	if err != nil {
		return 0, fmt.Errorf("parsing journal.ttl: %w", err)
	}
	return ttl, nil
}
