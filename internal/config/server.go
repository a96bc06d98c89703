package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// ServerConfig holds process-level settings for the bridge, loaded from an
// optional YAML file. Credential material never lives here; it comes from the
// environment or per-session configuration.
type ServerConfig struct {
	// Transport is "stdio" (single local caller) or "http" (network-exposed
	// multi-user mode).
	Transport string `yaml:"transport"`
	Port      int    `yaml:"port"`

	SessionTTLMinutes    int `yaml:"session_ttl_minutes"`
	SweepIntervalSeconds int `yaml:"sweep_interval_seconds"`
}

// LoadServerConfig reads a server config YAML. An empty path returns the
// defaults; a missing or malformed file is an error.
func LoadServerConfig(path string) (*ServerConfig, error) {
	cfg := &ServerConfig{
		Transport:            "stdio",
		Port:                 8089,
		SessionTTLMinutes:    60,
		SweepIntervalSeconds: 60,
	}
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}

	switch cfg.Transport {
	case "stdio", "http":
	default:
		return nil, fmt.Errorf("config %s: unsupported transport %q", path, cfg.Transport)
	}
	if cfg.SessionTTLMinutes <= 0 || cfg.SweepIntervalSeconds <= 0 {
		return nil, fmt.Errorf("config %s: session_ttl_minutes and sweep_interval_seconds must be positive", path)
	}
	return cfg, nil
}
