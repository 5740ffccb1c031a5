package config

import (
	"fmt"
	"strconv"
)

// Config represents the persistent caselode configuration stored as
// config.toml in the .caselode/ directory. The TOML layout uses sections for
// logical grouping.
type Config struct {
	Version    int              `toml:"version"`
	Store      StoreConfig      `toml:"store"`
	Embedding  EmbeddingConfig  `toml:"embedding"`
	Collection CollectionConfig `toml:"collection"`
	Dataset    DatasetConfig    `toml:"dataset"`
	Upload     UploadConfig     `toml:"upload"`
	Readiness  ReadinessConfig  `toml:"readiness"`
	API        APIConfig        `toml:"api"`
	Events     EventsConfig     `toml:"events"`
	Memory     MemoryConfig     `toml:"memory"`
}

// StoreConfig holds vector store connection settings.
type StoreConfig struct {
	Provider string `toml:"provider,omitempty"`
	URL      string `toml:"url,omitempty"`
	APIKey   string `toml:"api_key,omitempty"`
	UseTLS   bool   `toml:"use_tls,omitempty"`
}

// EmbeddingConfig holds embedding provider settings.
type EmbeddingConfig struct {
	Provider   string `toml:"provider,omitempty"`
	Target     string `toml:"target,omitempty"`
	Model      string `toml:"model,omitempty"`
	Dimensions uint   `toml:"dimensions,omitempty"`
}

// CollectionConfig holds settings for the ingestion target collection.
type CollectionConfig struct {
	Name     string `toml:"name,omitempty"`
	Distance string `toml:"distance,omitempty"`
}

// DatasetConfig holds dataset source settings. Source selects between the
// hub rows API ("hub") and a local JSONL file ("jsonl").
type DatasetConfig struct {
	Source string `toml:"source,omitempty"`
	Name   string `toml:"name,omitempty"`
	Config string `toml:"config,omitempty"`
	Split  string `toml:"split,omitempty"`
	Path   string `toml:"path,omitempty"`
}

// UploadConfig holds batching settings for point upload.
type UploadConfig struct {
	BatchSize uint `toml:"batch_size,omitempty"`
	Parallel  uint `toml:"parallel,omitempty"`
}

// ReadinessConfig holds readiness polling settings.
type ReadinessConfig struct {
	PollSeconds    uint `toml:"poll_seconds,omitempty"`
	TimeoutSeconds uint `toml:"timeout_seconds,omitempty"`
}

// APIConfig holds API server settings.
type APIConfig struct {
	Listen string `toml:"listen,omitempty"`
}

// EventsConfig holds ingestion event stream settings. Brokers is a
// comma-separated list of Kafka broker addresses.
type EventsConfig struct {
	Enabled bool   `toml:"enabled,omitempty"`
	Brokers string `toml:"brokers,omitempty"`
	Topic   string `toml:"topic,omitempty"`
}

// MemoryConfig holds memory layer settings.
type MemoryConfig struct {
	Collection string `toml:"collection,omitempty"`
	TopK       uint   `toml:"top_k,omitempty"`
}

// configKeyInfo maps a user-facing dotted key name to a getter and setter on *Config.
type configKeyInfo struct {
	get func(c *Config) string
	set func(c *Config, v string) error
}

// configKeys is the authoritative map of all supported config keys.
// Keys use dotted notation matching the TOML section structure.
var configKeys = map[string]configKeyInfo{
	"store.provider": {
		get: func(c *Config) string { return c.Store.Provider },
		set: func(c *Config, v string) error { c.Store.Provider = v; return nil },
	},
	"store.url": {
		get: func(c *Config) string { return c.Store.URL },
		set: func(c *Config, v string) error { c.Store.URL = v; return nil },
	},
	"store.api_key": {
		get: func(c *Config) string { return c.Store.APIKey },
		set: func(c *Config, v string) error { c.Store.APIKey = v; return nil },
	},
	"store.use_tls": {
		get: func(c *Config) string { return strconv.FormatBool(c.Store.UseTLS) },
		set: func(c *Config, v string) error {
			b, err := strconv.ParseBool(v)
			if err != nil {
				return fmt.Errorf("invalid value for store.use_tls: %w", err)
			}
			c.Store.UseTLS = b
			return nil
		},
	},
	"embedding.provider": {
		get: func(c *Config) string { return c.Embedding.Provider },
		set: func(c *Config, v string) error { c.Embedding.Provider = v; return nil },
	},
	"embedding.target": {
		get: func(c *Config) string { return c.Embedding.Target },
		set: func(c *Config, v string) error { c.Embedding.Target = v; return nil },
	},
	"embedding.model": {
		get: func(c *Config) string { return c.Embedding.Model },
		set: func(c *Config, v string) error { c.Embedding.Model = v; return nil },
	},
	"embedding.dimensions": {
		get: func(c *Config) string {
			if c.Embedding.Dimensions == 0 {
				return ""
			}
			return strconv.FormatUint(uint64(c.Embedding.Dimensions), 10)
		},
		set: func(c *Config, v string) error {
			n, err := strconv.ParseUint(v, 10, 64)
			if err != nil {
				return fmt.Errorf("invalid value for embedding.dimensions: %w", err)
			}
			c.Embedding.Dimensions = uint(n)
			return nil
		},
	},
	"collection.name": {
		get: func(c *Config) string { return c.Collection.Name },
		set: func(c *Config, v string) error { c.Collection.Name = v; return nil },
	},
	"collection.distance": {
		get: func(c *Config) string { return c.Collection.Distance },
		set: func(c *Config, v string) error { c.Collection.Distance = v; return nil },
	},
	"dataset.source": {
		get: func(c *Config) string { return c.Dataset.Source },
		set: func(c *Config, v string) error { c.Dataset.Source = v; return nil },
	},
	"dataset.name": {
		get: func(c *Config) string { return c.Dataset.Name },
		set: func(c *Config, v string) error { c.Dataset.Name = v; return nil },
	},
	"dataset.config": {
		get: func(c *Config) string { return c.Dataset.Config },
		set: func(c *Config, v string) error { c.Dataset.Config = v; return nil },
	},
	"dataset.split": {
		get: func(c *Config) string { return c.Dataset.Split },
		set: func(c *Config, v string) error { c.Dataset.Split = v; return nil },
	},
	"dataset.path": {
		get: func(c *Config) string { return c.Dataset.Path },
		set: func(c *Config, v string) error { c.Dataset.Path = v; return nil },
	},
	"upload.batch_size": {
		get: func(c *Config) string { return strconv.FormatUint(uint64(c.Upload.BatchSize), 10) },
		set: func(c *Config, v string) error {
			n, err := strconv.ParseUint(v, 10, 64)
			if err != nil {
				return fmt.Errorf("invalid value for upload.batch_size: %w", err)
			}
			c.Upload.BatchSize = uint(n)
			return nil
		},
	},
	"upload.parallel": {
		get: func(c *Config) string { return strconv.FormatUint(uint64(c.Upload.Parallel), 10) },
		set: func(c *Config, v string) error {
			n, err := strconv.ParseUint(v, 10, 64)
			if err != nil {
				return fmt.Errorf("invalid value for upload.parallel: %w", err)
			}
			c.Upload.Parallel = uint(n)
			return nil
		},
	},
	"readiness.poll_seconds": {
		get: func(c *Config) string { return strconv.FormatUint(uint64(c.Readiness.PollSeconds), 10) },
		set: func(c *Config, v string) error {
			n, err := strconv.ParseUint(v, 10, 64)
			if err != nil {
				return fmt.Errorf("invalid value for readiness.poll_seconds: %w", err)
			}
			c.Readiness.PollSeconds = uint(n)
			return nil
		},
	},
	"readiness.timeout_seconds": {
		get: func(c *Config) string { return strconv.FormatUint(uint64(c.Readiness.TimeoutSeconds), 10) },
		set: func(c *Config, v string) error {
			n, err := strconv.ParseUint(v, 10, 64)
			if err != nil {
				return fmt.Errorf("invalid value for readiness.timeout_seconds: %w", err)
			}
			c.Readiness.TimeoutSeconds = uint(n)
			return nil
		},
	},
	"api.listen": {
		get: func(c *Config) string { return c.API.Listen },
		set: func(c *Config, v string) error { c.API.Listen = v; return nil },
	},
	"events.enabled": {
		get: func(c *Config) string { return strconv.FormatBool(c.Events.Enabled) },
		set: func(c *Config, v string) error {
			b, err := strconv.ParseBool(v)
			if err != nil {
				return fmt.Errorf("invalid value for events.enabled: %w", err)
			}
			c.Events.Enabled = b
			return nil
		},
	},
	"events.brokers": {
		get: func(c *Config) string { return c.Events.Brokers },
		set: func(c *Config, v string) error { c.Events.Brokers = v; return nil },
	},
	"events.topic": {
		get: func(c *Config) string { return c.Events.Topic },
		set: func(c *Config, v string) error { c.Events.Topic = v; return nil },
	},
	"memory.collection": {
		get: func(c *Config) string { return c.Memory.Collection },
		set: func(c *Config, v string) error { c.Memory.Collection = v; return nil },
	},
	"memory.top_k": {
		get: func(c *Config) string { return strconv.FormatUint(uint64(c.Memory.TopK), 10) },
		set: func(c *Config, v string) error {
			n, err := strconv.ParseUint(v, 10, 64)
			if err != nil {
				return fmt.Errorf("invalid value for memory.top_k: %w", err)
			}
			c.Memory.TopK = uint(n)
			return nil
		},
	},
}
