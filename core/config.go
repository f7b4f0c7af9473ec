package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-softwarelab/common/pkg/slogx"
)

// Config is the JSON structure of the verifier config file.
type Config struct {
	Network    string `json:"network"`
	WocAPIKey  string `json:"wocApiKey"`
	ListenAddr string `json:"listenAddr"`
	LogLevel   string `json:"logLevel"`
	// RedisURL enables the header cache when set
	RedisURL string `json:"redisUrl,omitempty"`
}

func defaultConfig() Config {
	return Config{
		Network:    "main",
		ListenAddr: "127.0.0.1:3322",
		LogLevel:   "info",
	}
}

// loadConfig builds the config from defaults, a JSON file and SPV_* env vars.
// Env vars win over the file. The file is configFile when set, otherwise
// ~/.gebunden/spv-config.json if it exists.
func loadConfig(configFile string) (Config, error) {
	cfg := defaultConfig()

	path := configFile
	if path == "" {
		if homeDir, err := os.UserHomeDir(); err == nil {
			candidate := filepath.Join(homeDir, ".gebunden", "spv-config.json")
			if _, statErr := os.Stat(candidate); statErr == nil {
				path = candidate
			}
		}
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
		if err := json.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	}

	if v := os.Getenv("SPV_NETWORK"); v != "" {
		cfg.Network = v
	}
	if v := os.Getenv("SPV_WOC_API_KEY"); v != "" {
		cfg.WocAPIKey = v
	}
	if v := os.Getenv("SPV_LISTEN_ADDR"); v != "" {
		cfg.ListenAddr = v
	}
	if v := os.Getenv("SPV_LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}
	if v := os.Getenv("SPV_REDIS_URL"); v != "" {
		cfg.RedisURL = v
	}

	net, err := normalizeNetwork(cfg.Network)
	if err != nil {
		return Config{}, err
	}
	cfg.Network = net

	level, err := slogx.ParseLogLevel(cfg.LogLevel)
	if err != nil {
		return Config{}, fmt.Errorf("invalid logLevel %q: %w", cfg.LogLevel, err)
	}
	cfg.LogLevel = string(level)

	return cfg, nil
}

func normalizeNetwork(network string) (string, error) {
	switch strings.ToLower(network) {
	case "", "main", "mainnet":
		return "main", nil
	case "test", "testnet":
		return "test", nil
	default:
		return "", fmt.Errorf("unknown network %q", network)
	}
}
