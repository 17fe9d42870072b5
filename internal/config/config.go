// Package config loads the kernel's own YAML configuration. Kept the
// teacher's nested-struct-with-Default*Config()-constructor idiom and
// os.ExpandEnv-before-unmarshal behavior (internal/config/config.go's Load),
// but rewritten much smaller: the teacher's 476-line config.go aggregates a
// dozen unrelated subsystems (adapters, budget, alerts, tunnel, teams) that
// have no home in this tree. Only the fields the kernel's own ambient stack
// needs survive: gateway, logging, maintenance, and workspace layout.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/hatch-sh/workspace-kernel/internal/logging"
)

// Config is the kernel's top-level configuration.
type Config struct {
	Version     string             `yaml:"version"`
	Gateway     *GatewayConfig     `yaml:"gateway"`
	Logging     *logging.Config    `yaml:"logging"`
	Maintenance *MaintenanceConfig `yaml:"maintenance"`
	Workspaces  *WorkspacesConfig  `yaml:"workspaces"`
}

// GatewayConfig configures the HTTP+WS control plane in internal/gateway.
type GatewayConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// MaintenanceConfig configures the periodic repair sweep in
// internal/maintenance.
type MaintenanceConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Schedule string `yaml:"schedule"` // cron expression, robfig/cron syntax
}

// WorkspacesConfig points at the on-disk layout spec.md §6 defines.
type WorkspacesConfig struct {
	Root string `yaml:"root"` // defaults to <home>/.hatch/workspaces
}

// DefaultConfig returns sensible defaults: gateway on 127.0.0.1:9090, a
// 10-minute maintenance sweep, and the spec-mandated workspaces root.
func DefaultConfig() *Config {
	return &Config{
		Version: "1.0",
		Gateway: &GatewayConfig{
			Host: "127.0.0.1",
			Port: 9090,
		},
		Logging: logging.DefaultConfig(),
		Maintenance: &MaintenanceConfig{
			Enabled:  true,
			Schedule: "@every 10m",
		},
		Workspaces: &WorkspacesConfig{
			Root: DefaultWorkspacesRoot(),
		},
	}
}

// DefaultWorkspacesRoot returns <home>/.hatch/workspaces, per spec.md §6's
// on-disk layout.
func DefaultWorkspacesRoot() string {
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".hatch", "workspaces")
}

// Load reads and parses YAML configuration from path, expanding environment
// variables first. A missing file yields DefaultConfig, matching the
// teacher's graceful-degradation behavior.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("read config: %w", err)
	}

	expanded := os.ExpandEnv(string(data))
	if err := yaml.Unmarshal([]byte(expanded), cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	if cfg.Workspaces != nil {
		cfg.Workspaces.Root = expandHome(cfg.Workspaces.Root)
	}

	return cfg, nil
}

// Save writes cfg as YAML to path, creating parent directories as needed.
func Save(cfg *Config, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}

	return nil
}

// DefaultConfigPath returns <home>/.hatch/config.yaml.
func DefaultConfigPath() string {
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".hatch", "config.yaml")
}

// expandHome expands a leading ~ to the user's home directory.
func expandHome(path string) string {
	if strings.HasPrefix(path, "~") {
		home, _ := os.UserHomeDir()
		return filepath.Join(home, path[1:])
	}
	return path
}
