package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"

	"github.com/caselode/caselode/pkg/dotdir"
)

// InitViper creates and returns a configured *viper.Viper.
// It sets defaults from NewDefaultConfig(), reads the config.toml file
// (if found via dotdir resolution), and binds environment variables
// with the CASELODE_ prefix.
//
// Config precedence (highest to lowest):
//  1. CLI flags (once bound via BindRegisteredFlags)
//  2. Environment variables (CASELODE_STORE_URL, CASELODE_COLLECTION_NAME, etc.)
//  3. config.toml file values
//  4. Defaults from NewDefaultConfig()
func InitViper(configDir string) (*viper.Viper, error) {
	v := viper.New()

	// 1. Register all defaults from NewDefaultConfig().
	setViperDefaults(v)

	// 2. Config file discovery via dotdir resolution.
	v.SetConfigName("config")
	v.SetConfigType("toml")

	ddm := dotdir.NewManager()
	target, err := ddm.Target(configDir)
	if err != nil {
		return nil, fmt.Errorf("resolving config dir: %w", err)
	}

	if target != "" {
		v.AddConfigPath(target)
	}

	if err := v.ReadInConfig(); err != nil {
		// Config file not found errors are fine, defaults will apply.
		if !errors.As(err, &viper.ConfigFileNotFoundError{}) {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	// 3. Environment variables: CASELODE_STORE_URL, CASELODE_UPLOAD_BATCH_SIZE, etc.
	v.SetEnvPrefix("CASELODE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	return v, nil
}

// setViperDefaults registers defaults from NewDefaultConfig() into viper
// using dotted-key notation. This keeps defaults.go as the single source of truth.
func setViperDefaults(v *viper.Viper) {
	d := NewDefaultConfig()

	v.SetDefault("version", d.Version)

	// Store
	v.SetDefault("store.provider", d.Store.Provider)
	v.SetDefault("store.url", d.Store.URL)
	v.SetDefault("store.api_key", d.Store.APIKey)
	v.SetDefault("store.use_tls", d.Store.UseTLS)

	// Embedding
	v.SetDefault("embedding.provider", d.Embedding.Provider)
	v.SetDefault("embedding.target", d.Embedding.Target)
	v.SetDefault("embedding.model", d.Embedding.Model)
	v.SetDefault("embedding.dimensions", d.Embedding.Dimensions)

	// Collection
	v.SetDefault("collection.name", d.Collection.Name)
	v.SetDefault("collection.distance", d.Collection.Distance)

	// Dataset
	v.SetDefault("dataset.source", d.Dataset.Source)
	v.SetDefault("dataset.name", d.Dataset.Name)
	v.SetDefault("dataset.config", d.Dataset.Config)
	v.SetDefault("dataset.split", d.Dataset.Split)
	v.SetDefault("dataset.path", d.Dataset.Path)

	// Upload
	v.SetDefault("upload.batch_size", d.Upload.BatchSize)
	v.SetDefault("upload.parallel", d.Upload.Parallel)

	// Readiness
	v.SetDefault("readiness.poll_seconds", d.Readiness.PollSeconds)
	v.SetDefault("readiness.timeout_seconds", d.Readiness.TimeoutSeconds)

	// API
	v.SetDefault("api.listen", d.API.Listen)

	// Events
	v.SetDefault("events.enabled", d.Events.Enabled)
	v.SetDefault("events.brokers", d.Events.Brokers)
	v.SetDefault("events.topic", d.Events.Topic)

	// Memory
	v.SetDefault("memory.collection", d.Memory.Collection)
	v.SetDefault("memory.top_k", d.Memory.TopK)
}

// ConfigFromViper materializes a Config from the resolved viper state.
func ConfigFromViper(v *viper.Viper) *Config {
	return &Config{
		Version: v.GetInt("version"),
		Store: StoreConfig{
			Provider: v.GetString("store.provider"),
			URL:      v.GetString("store.url"),
			APIKey:   v.GetString("store.api_key"),
			UseTLS:   v.GetBool("store.use_tls"),
		},
		Embedding: EmbeddingConfig{
			Provider:   v.GetString("embedding.provider"),
			Target:     v.GetString("embedding.target"),
			Model:      v.GetString("embedding.model"),
			Dimensions: v.GetUint("embedding.dimensions"),
		},
		Collection: CollectionConfig{
			Name:     v.GetString("collection.name"),
			Distance: v.GetString("collection.distance"),
		},
		Dataset: DatasetConfig{
			Source: v.GetString("dataset.source"),
			Name:   v.GetString("dataset.name"),
			Config: v.GetString("dataset.config"),
			Split:  v.GetString("dataset.split"),
			Path:   v.GetString("dataset.path"),
		},
		Upload: UploadConfig{
			BatchSize: v.GetUint("upload.batch_size"),
			Parallel:  v.GetUint("upload.parallel"),
		},
		Readiness: ReadinessConfig{
			PollSeconds:    v.GetUint("readiness.poll_seconds"),
			TimeoutSeconds: v.GetUint("readiness.timeout_seconds"),
		},
		API: APIConfig{
			Listen: v.GetString("api.listen"),
		},
		Events: EventsConfig{
			Enabled: v.GetBool("events.enabled"),
			Brokers: v.GetString("events.brokers"),
			Topic:   v.GetString("events.topic"),
		},
		Memory: MemoryConfig{
			Collection: v.GetString("memory.collection"),
			TopK:       v.GetUint("memory.top_k"),
		},
	}
}
