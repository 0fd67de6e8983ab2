package config

import (
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server struct {
		Port string `yaml:"port"`
	} `yaml:"server"`
	Redis struct {
		Addr     string `yaml:"addr"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
		TTL      string `yaml:"ttl"`
	} `yaml:"redis"`
	Postgres struct {
		URL string `yaml:"url"`
	} `yaml:"postgres"`
	PropertyTypes struct {
		TTL string `yaml:"ttl"`
	} `yaml:"propertyTypes"`
	Evaluation struct {
		MaxSessionAge string `yaml:"maxSessionAge"`
		SaveWorkers   int    `yaml:"saveWorkers"`
		SaveQueueSize int    `yaml:"saveQueueSize"`
		SaveTimeout   string `yaml:"saveTimeout"`
	} `yaml:"evaluation"`
	Log Log `yaml:"log"`
}

// Log configures the service logger.
type Log struct {
	Level string `yaml:"level"`
	File  string `yaml:"file"`
}

// Load reads YAML config from path.
func Load(path string) (Config, error) {
	cfg := Config{}
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// TTLDuration parses a duration string or returns the fallback if empty.
func TTLDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}
	if d, err := time.ParseDuration(raw); err == nil {
		return d
	}
	return fallback
}
