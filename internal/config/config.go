package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

const configPathEnv = "CONFIG_FILE"

// Config holds everything both binaries need. Values come from an
// optional YAML file named by CONFIG_FILE, overridden per field by
// environment variables.
type Config struct {
	MQTT struct {
		Broker   string `yaml:"broker"`
		ClientID string `yaml:"client_id"`
		Username string `yaml:"username"`
		Password string `yaml:"password"`
	} `yaml:"mqtt"`
	Database struct {
		DSN string `yaml:"dsn"`
	} `yaml:"database"`
	Redis struct {
		Addr     string `yaml:"addr"`
		Password string `yaml:"password"`
	} `yaml:"redis"`
}

// Load reads the YAML file if present, applies env overrides and
// defaults, and validates required fields.
func Load() (*Config, error) {
	cfg := &Config{}
	cfg.MQTT.Broker = "tcp://localhost:1883"
	cfg.MQTT.ClientID = "cranewatch"
	cfg.Redis.Addr = "localhost:6379"

	if path := os.Getenv(configPathEnv); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("config: read file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("config: decode yaml: %w", err)
		}
	}

	override(&cfg.MQTT.Broker, "MQTT_BROKER")
	override(&cfg.MQTT.ClientID, "MQTT_CLIENT_ID")
	override(&cfg.MQTT.Username, "MQTT_USERNAME")
	override(&cfg.MQTT.Password, "MQTT_PASSWORD")
	override(&cfg.Database.DSN, "POSTGRES_DSN")
	override(&cfg.Redis.Addr, "REDIS_ADDR")
	override(&cfg.Redis.Password, "REDIS_PASSWORD")

	if strings.TrimSpace(cfg.Database.DSN) == "" {
		return nil, errors.New("config: database dsn required")
	}
	return cfg, nil
}

func override(target *string, key string) {
	if v, ok := os.LookupEnv(key); ok {
		*target = v
	}
}
