package config

const (
	defaultStoreProvider = "qdrant"
	defaultStoreURL      = "localhost:6334"

	defaultEmbeddingProvider   = "ollama"
	defaultEmbeddingTarget     = "http://localhost:11434"
	defaultEmbeddingModel      = "nomic-embed-text"
	defaultEmbeddingDimensions = 768

	defaultCollectionName     = "legal-cases"
	defaultCollectionDistance = "cosine"

	defaultDatasetSource = "hub"
	defaultDatasetConfig = "default"
	defaultDatasetSplit  = "train"

	defaultUploadBatchSize = 64
	defaultUploadParallel  = 16

	defaultReadinessPollSeconds    = 1
	defaultReadinessTimeoutSeconds = 300

	defaultAPIListen = ":8081"

	defaultEventsBrokers = "localhost:9092"
	defaultEventsTopic   = "caselode.ingest"

	defaultMemoryCollection = "agent-memory"
	defaultMemoryTopK       = 3
)

// NewDefaultConfig returns a Config with sane defaults for all fields.
// This is the single source of truth for default values.
func NewDefaultConfig() *Config {
	return &Config{
		Version: CurrentV,
		Store: StoreConfig{
			Provider: defaultStoreProvider,
			URL:      defaultStoreURL,
		},
		Embedding: EmbeddingConfig{
			Provider:   defaultEmbeddingProvider,
			Target:     defaultEmbeddingTarget,
			Model:      defaultEmbeddingModel,
			Dimensions: defaultEmbeddingDimensions,
		},
		Collection: CollectionConfig{
			Name:     defaultCollectionName,
			Distance: defaultCollectionDistance,
		},
		Dataset: DatasetConfig{
			Source: defaultDatasetSource,
			Config: defaultDatasetConfig,
			Split:  defaultDatasetSplit,
		},
		Upload: UploadConfig{
			BatchSize: defaultUploadBatchSize,
			Parallel:  defaultUploadParallel,
		},
		Readiness: ReadinessConfig{
			PollSeconds:    defaultReadinessPollSeconds,
			TimeoutSeconds: defaultReadinessTimeoutSeconds,
		},
		API: APIConfig{
			Listen: defaultAPIListen,
		},
		Events: EventsConfig{
			Brokers: defaultEventsBrokers,
			Topic:   defaultEventsTopic,
		},
		Memory: MemoryConfig{
			Collection: defaultMemoryCollection,
			TopK:       defaultMemoryTopK,
		},
	}
}
