package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Storage  StorageConfig  `yaml:"storage"`
	Weather  WeatherConfig  `yaml:"weather"`
	Listen   ListenConfig   `yaml:"listen"`
	Dialogue DialogueConfig `yaml:"dialogue"`
	Log      LogConfig      `yaml:"log"`
}

type ServerConfig struct {
	Addr string `yaml:"addr"`
}

type StorageConfig struct {
	Backend      string `yaml:"backend"`
	DevicesFile  string `yaml:"devices_file"`
	CommandsFile string `yaml:"commands_file"`
	DSN          string `yaml:"dsn"`
}

type WeatherConfig struct {
	APIKey string `yaml:"api_key"`
	City   string `yaml:"city"`
}

type ListenConfig struct {
	Source     string `yaml:"source"`
	HTTPAddr   string `yaml:"http_addr"`
	FileDir    string `yaml:"file_dir"`
	SampleRate int    `yaml:"sample_rate"`
}

type DialogueConfig struct {
	WakeWords     []string `yaml:"wake_words"`
	UserName      string   `yaml:"user_name"`
	ListenTimeout string   `yaml:"listen_timeout"`
	ListenRetries int      `yaml:"listen_retries"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
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

// Default returns the configuration used when no config file exists.
func Default() *Config {
	cfg := &Config{}
	cfg.setDefaults()
	return cfg
}

func (c *Config) setDefaults() {
	if c.Server.Addr == "" {
		c.Server.Addr = ":5000"
	}
	if c.Storage.Backend == "" {
		c.Storage.Backend = "file"
	}
	if c.Storage.DevicesFile == "" {
		c.Storage.DevicesFile = "devices.json"
	}
	if c.Storage.CommandsFile == "" {
		c.Storage.CommandsFile = "commands.json"
	}
	if c.Weather.City == "" {
		c.Weather.City = "Kolkata"
	}
	if c.Listen.Source == "" {
		c.Listen.Source = "console"
	}
	if c.Listen.HTTPAddr == "" {
		c.Listen.HTTPAddr = ":8080"
	}
	if c.Listen.FileDir == "" {
		c.Listen.FileDir = "./inputs"
	}
	if c.Listen.SampleRate == 0 {
		c.Listen.SampleRate = 16000
	}
	if len(c.Dialogue.WakeWords) == 0 {
		c.Dialogue.WakeWords = []string{"sheila", "sheela"}
	}
	if c.Dialogue.UserName == "" {
		c.Dialogue.UserName = "User"
	}
	if c.Dialogue.ListenTimeout == "" {
		c.Dialogue.ListenTimeout = "30s"
	}
	if c.Dialogue.ListenRetries == 0 {
		c.Dialogue.ListenRetries = 3
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "text"
	}
}
