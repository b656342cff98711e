// Package config loads the YAML configuration shared by all binaries.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"draft-strategy-lab/internal/domain"
	"draft-strategy-lab/internal/graph"
	"draft-strategy-lab/internal/replay"
	"draft-strategy-lab/internal/simulation"
)

// ErrInvalid is returned when a loaded configuration fails validation.
var ErrInvalid = errors.New("invalid configuration")

// Environment variable names.
const (
	EnvPostgresDSN    = "POSTGRES_DSN"
	EnvClickhouseDSN  = "CLICKHOUSE_DSN"
	EnvDataDir        = "DATA_DIR"
	EnvServerAddr     = "SERVER_ADDR"
	EnvReplayInterval = "REPLAY_INTERVAL"
	EnvConfigFile     = "CONFIG_FILE"
)

// ReplayConfig controls live replays.
type ReplayConfig struct {
	Interval  time.Duration `yaml:"interval"`
	MatchFile string        `yaml:"match_file"` // optional JSON feed; fixtures when empty
}

// StorageConfig holds database connection strings. Empty means in-memory.
type StorageConfig struct {
	PostgresDSN   string `yaml:"postgres_dsn"`
	ClickhouseDSN string `yaml:"clickhouse_dsn"`

	// Pool tuning; zero keeps the driver defaults.
	PostgresMaxConns       int32         `yaml:"postgres_max_conns"`
	PostgresConnectTimeout time.Duration `yaml:"postgres_connect_timeout"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Addr string `yaml:"addr"`
}

// Config is the full application configuration.
type Config struct {
	Graph   graph.Config             `yaml:"graph"`
	Replay  ReplayConfig             `yaml:"replay"`
	Sampler simulation.SamplerConfig `yaml:"sampler"`
	Toggles []domain.ScenarioToggle  `yaml:"toggles"`
	Rollout simulation.RolloutConfig `yaml:"rollout"`
	Storage StorageConfig            `yaml:"storage"`
	Server  ServerConfig             `yaml:"server"`
	Teams   domain.TeamNames         `yaml:"teams"`
	DataDir string                   `yaml:"data_dir"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Graph:   graph.DefaultConfig(),
		Replay:  ReplayConfig{Interval: replay.DefaultInterval},
		Sampler: simulation.DefaultSamplerConfig(),
		Toggles: domain.DefaultToggles(),
		Rollout: simulation.DefaultRolloutConfig(),
		Server:  ServerConfig{Addr: ":8080"},
		Teams:   domain.DefaultTeamNames(),
	}
}

// Load reads path over the defaults. An empty path or a missing file yields
// the defaults. The result is validated.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, os.ErrNotExist):
			// defaults
		case err != nil:
			return Config{}, fmt.Errorf("read config %s: %w", path, err)
		default:
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return Config{}, fmt.Errorf("parse config %s: %w", path, err)
			}
		}
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// ApplyEnv overrides fields from non-empty environment variables.
func (c *Config) ApplyEnv() error {
	if v := os.Getenv(EnvPostgresDSN); v != "" {
		c.Storage.PostgresDSN = v
	}
	if v := os.Getenv(EnvClickhouseDSN); v != "" {
		c.Storage.ClickhouseDSN = v
	}
	if v := os.Getenv(EnvDataDir); v != "" {
		c.DataDir = v
	}
	if v := os.Getenv(EnvServerAddr); v != "" {
		c.Server.Addr = v
	}
	if v := os.Getenv(EnvReplayInterval); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("%w: %s: %v", ErrInvalid, EnvReplayInterval, err)
		}
		c.Replay.Interval = d
	}
	return nil
}

// Validate checks every section.
func (c Config) Validate() error {
	if err := c.Graph.Validate(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	if err := c.Sampler.Validate(); err != nil {
		return fmt.Errorf("%w: sampler: %v", ErrInvalid, err)
	}
	if err := c.Rollout.Validate(); err != nil {
		return fmt.Errorf("%w: rollout: %v", ErrInvalid, err)
	}
	if c.Replay.Interval <= 0 {
		return fmt.Errorf("%w: replay interval must be positive", ErrInvalid)
	}
	seen := make(map[string]bool, len(c.Toggles))
	for _, t := range c.Toggles {
		if t.ID == "" || seen[t.ID] {
			return fmt.Errorf("%w: toggle ids must be unique and non-empty", ErrInvalid)
		}
		seen[t.ID] = true
	}
	if strings.TrimSpace(c.Teams.Home) == "" || strings.TrimSpace(c.Teams.Opponent) == "" {
		return fmt.Errorf("%w: team names must not be blank", ErrInvalid)
	}
	return nil
}

// LoadEnvFile loads KEY=VALUE lines from path into the environment.
// Existing variables are never overridden; a missing file is ignored.
func LoadEnvFile(path string) {
	data, err := os.ReadFile(path)
	if err != nil {
		return
	}

	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		parts := strings.SplitN(line, "=", 2)
		if len(parts) != 2 {
			continue
		}

		key := strings.TrimSpace(parts[0])
		value := strings.Trim(strings.TrimSpace(parts[1]), `"'`)

		if os.Getenv(key) == "" {
			os.Setenv(key, value)
		}
	}
}
