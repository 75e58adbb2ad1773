package main

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the service configuration. Values come from an optional YAML
// file; environment variables win over both the file and the defaults.
type Config struct {
	Server struct {
		Port string `yaml:"port"`
	} `yaml:"server"`

	Sync struct {
		// Mode selects the cross-context channel: "relay" runs everything
		// over this process's websocket relay, "nats" uses a local broker.
		Mode    string `yaml:"mode"`
		NATSURL string `yaml:"nats_url"`
		Subject string `yaml:"subject"`
	} `yaml:"sync"`

	Auction struct {
		StateFile     string        `yaml:"state_file"`
		SoldOverlay   time.Duration `yaml:"sold_overlay"`
		UnsoldOverlay time.Duration `yaml:"unsold_overlay"`
	} `yaml:"auction"`
}

func defaultConfig() *Config {
	cfg := &Config{}
	cfg.Server.Port = "8080"
	cfg.Sync.Mode = "relay"
	cfg.Sync.Subject = "auction.sync"
	cfg.Auction.StateFile = "auction-state.json"
	return cfg
}

func loadConfig(path string) (*Config, error) {
	cfg := defaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		if err == nil {
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("failed to parse config: %w", err)
			}
		} else if !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	cfg.Server.Port = getEnv("PORT", cfg.Server.Port)
	cfg.Sync.Mode = getEnv("SYNC_MODE", cfg.Sync.Mode)
	cfg.Sync.NATSURL = getEnv("NATS_URL", cfg.Sync.NATSURL)
	cfg.Sync.Subject = getEnv("SYNC_SUBJECT", cfg.Sync.Subject)
	cfg.Auction.StateFile = getEnv("AUCTION_STATE_FILE", cfg.Auction.StateFile)
	if ms := getEnvAsInt("SOLD_OVERLAY_MS", 0); ms > 0 {
		cfg.Auction.SoldOverlay = time.Duration(ms) * time.Millisecond
	}
	if ms := getEnvAsInt("UNSOLD_OVERLAY_MS", 0); ms > 0 {
		cfg.Auction.UnsoldOverlay = time.Duration(ms) * time.Millisecond
	}
	return cfg, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}
