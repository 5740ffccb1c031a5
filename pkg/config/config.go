// Package config manages the persistent caselode configuration: a config.toml
// file resolved through dotdir, layered under environment variables and CLI
// flags via viper.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/caselode/caselode/pkg/dotdir"
	"github.com/caselode/caselode/pkg/vector"
)

const (
	configFile = "config.toml"

	// v0 is the alpha version of the config
	v0 = 0

	// CurrentV is the currently supported version, points to v0
	CurrentV = v0
)

type Configer struct {
	ddm        *dotdir.Manager
	targetPath string
}

func NewConfiger(override string) (*Configer, error) {
	cfger := &Configer{}

	cfger.ddm = dotdir.NewManager()
	target, err := cfger.ddm.Target(override)
	if err != nil {
		return nil, err
	}

	// If no .caselode/ directory was resolved, targetPath stays empty;
	// LoadConfig will return defaults and SaveConfig will error clearly.
	if target == "" {
		return cfger, nil
	}

	path := filepath.Join(target, configFile)
	_, err = os.Stat(path)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	// Always set targetPath when the directory exists so SaveConfig
	// can create or overwrite the file.
	cfger.targetPath = path

	return cfger, nil
}

// ValidConfigKeys returns the list of all supported configuration key names
// in a stable order matching the TOML section layout.
func ValidConfigKeys() []string {
	ordered := []string{
		"store.provider",
		"store.url",
		"store.api_key",
		"store.use_tls",
		"embedding.provider",
		"embedding.target",
		"embedding.model",
		"embedding.dimensions",
		"collection.name",
		"collection.distance",
		"dataset.source",
		"dataset.name",
		"dataset.config",
		"dataset.split",
		"dataset.path",
		"upload.batch_size",
		"upload.parallel",
		"readiness.poll_seconds",
		"readiness.timeout_seconds",
		"api.listen",
		"events.enabled",
		"events.brokers",
		"events.topic",
		"memory.collection",
		"memory.top_k",
	}

	result := make([]string, 0, len(ordered))
	seen := make(map[string]bool, len(ordered))
	for _, k := range ordered {
		if _, ok := configKeys[k]; ok {
			result = append(result, k)
			seen[k] = true
		}
	}

	// Append any keys in the map that we missed in the ordered list.
	for k := range configKeys {
		if !seen[k] {
			result = append(result, k)
		}
	}

	return result
}

// IsValidConfigKey returns true if the given key is a supported configuration key.
func IsValidConfigKey(key string) bool {
	_, ok := configKeys[key]
	return ok
}

func (c *Configer) GetTarget() string {
	return c.targetPath
}

// LoadConfig loads the configuration from config.toml in the target
// .caselode/ directory. If the file does not exist, returns NewDefaultConfig()
// so callers always receive a fully-populated Config with sane defaults.
// Fields explicitly set in the file override the defaults.
func (c *Configer) LoadConfig() (*Config, error) {
	if c.targetPath == "" {
		return NewDefaultConfig(), nil
	}

	data, err := os.ReadFile(c.targetPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return NewDefaultConfig(), nil
		}
		return nil, fmt.Errorf("reading config: %w", err)
	}

	cfg, err := ParseConfigTOML(data)
	if err != nil {
		return nil, err
	}

	// Merge in defaults: fill in any zero-value fields from the loaded config
	applyDefaults(cfg)

	return cfg, nil
}

// applyDefaults fills zero-value fields in cfg with values from NewDefaultConfig().
func applyDefaults(cfg *Config) {
	defaults := NewDefaultConfig()

	if cfg.Version == 0 {
		cfg.Version = defaults.Version
	}

	if cfg.Store.Provider == "" {
		cfg.Store.Provider = defaults.Store.Provider
	}
	if cfg.Store.URL == "" {
		cfg.Store.URL = defaults.Store.URL
	}

	if cfg.Embedding.Provider == "" {
		cfg.Embedding.Provider = defaults.Embedding.Provider
	}
	if cfg.Embedding.Target == "" {
		cfg.Embedding.Target = defaults.Embedding.Target
	}
	if cfg.Embedding.Model == "" {
		cfg.Embedding.Model = defaults.Embedding.Model
	}
	if cfg.Embedding.Dimensions == 0 {
		cfg.Embedding.Dimensions = defaults.Embedding.Dimensions
	}

	if cfg.Collection.Name == "" {
		cfg.Collection.Name = defaults.Collection.Name
	}
	if cfg.Collection.Distance == "" {
		cfg.Collection.Distance = defaults.Collection.Distance
	}

	if cfg.Dataset.Source == "" {
		cfg.Dataset.Source = defaults.Dataset.Source
	}
	if cfg.Dataset.Config == "" {
		cfg.Dataset.Config = defaults.Dataset.Config
	}
	if cfg.Dataset.Split == "" {
		cfg.Dataset.Split = defaults.Dataset.Split
	}

	if cfg.Upload.BatchSize == 0 {
		cfg.Upload.BatchSize = defaults.Upload.BatchSize
	}
	if cfg.Upload.Parallel == 0 {
		cfg.Upload.Parallel = defaults.Upload.Parallel
	}

	if cfg.Readiness.PollSeconds == 0 {
		cfg.Readiness.PollSeconds = defaults.Readiness.PollSeconds
	}
	if cfg.Readiness.TimeoutSeconds == 0 {
		cfg.Readiness.TimeoutSeconds = defaults.Readiness.TimeoutSeconds
	}

	if cfg.API.Listen == "" {
		cfg.API.Listen = defaults.API.Listen
	}

	if cfg.Events.Brokers == "" {
		cfg.Events.Brokers = defaults.Events.Brokers
	}
	if cfg.Events.Topic == "" {
		cfg.Events.Topic = defaults.Events.Topic
	}

	if cfg.Memory.Collection == "" {
		cfg.Memory.Collection = defaults.Memory.Collection
	}
	if cfg.Memory.TopK == 0 {
		cfg.Memory.TopK = defaults.Memory.TopK
	}
}

// SaveConfig persists the configuration to config.toml in the target
// .caselode/ directory.
func (c *Configer) SaveConfig(cfg *Config) error {
	if cfg == nil {
		return errors.New("cannot save nil config")
	}

	if c.targetPath == "" {
		return errors.New("cannot save empty target path")
	}

	var buf bytes.Buffer
	encoder := toml.NewEncoder(&buf)
	if err := encoder.Encode(cfg); err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}

	if err := os.WriteFile(c.targetPath, buf.Bytes(), 0o600); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}

	return nil
}

// SetConfigValue loads the config, sets the given key to the given value, and saves it.
// Returns an error if the key is not a valid config key.
func (c *Configer) SetConfigValue(key string, value string) error {
	info, ok := configKeys[key]
	if !ok {
		return fmt.Errorf("unknown config key: %q", key)
	}

	cfg, err := c.LoadConfig()
	if err != nil {
		return err
	}

	if err := info.set(cfg, value); err != nil {
		return err
	}

	return c.SaveConfig(cfg)
}

// GetConfigValue loads the config and returns the string representation of the given key.
// Returns an error if the key is not a valid config key.
func (c *Configer) GetConfigValue(key string) (string, error) {
	info, ok := configKeys[key]
	if !ok {
		return "", fmt.Errorf("unknown config key: %q", key)
	}

	cfg, err := c.LoadConfig()
	if err != nil {
		return "", err
	}

	return info.get(cfg), nil
}

// ParseConfigTOML parses raw TOML bytes into a Config.
// Returns an error if the version field is present and not equal to CurrentV.
func ParseConfigTOML(data []byte) (*Config, error) {
	cfg := &Config{}
	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config TOML: %w", err)
	}

	if cfg.Version != 0 && cfg.Version != CurrentV {
		return nil, fmt.Errorf("unsupported config version %d (expected %d)", cfg.Version, CurrentV)
	}

	return cfg, nil
}

// ValidateIngest checks that the config describes a runnable ingestion:
// a reachable store, a dataset to read, and a valid collection schema.
// It fails fast so a misconfigured run aborts before touching the store.
func (c *Config) ValidateIngest() error {
	if c.Store.URL == "" {
		return errors.New("store.url is required")
	}
	if c.Embedding.Model == "" {
		return errors.New("embedding.model is required")
	}
	if c.Embedding.Dimensions == 0 {
		return errors.New("embedding.dimensions is required")
	}
	if c.Collection.Name == "" {
		return errors.New("collection.name is required")
	}
	if _, err := vector.ParseDistance(c.Collection.Distance); err != nil {
		return fmt.Errorf("collection.distance: %w", err)
	}

	switch c.Dataset.Source {
	case "hub":
		if c.Dataset.Name == "" {
			return errors.New("dataset.name is required for the hub source")
		}
	case "jsonl":
		if c.Dataset.Path == "" {
			return errors.New("dataset.path is required for the jsonl source")
		}
	default:
		return fmt.Errorf("unknown dataset source: %q (available: hub, jsonl)", c.Dataset.Source)
	}

	return nil
}

// BrokerList splits the configured comma-separated broker addresses.
func (c *Config) BrokerList() []string {
	var brokers []string
	for _, b := range strings.Split(c.Events.Brokers, ",") {
		if b = strings.TrimSpace(b); b != "" {
			brokers = append(brokers, b)
		}
	}
	return brokers
}
