// Package ingestcmder provides the ingest command that full-refreshes a
// dataset into a vector store collection.
package ingestcmder

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/caselode/caselode/pkg/config"
	"github.com/caselode/caselode/pkg/dataset"
	"github.com/caselode/caselode/pkg/dataset/hub"
	"github.com/caselode/caselode/pkg/dataset/jsonl"
	embeddingutils "github.com/caselode/caselode/pkg/embeddings/utils"
	"github.com/caselode/caselode/pkg/eventstream"
	"github.com/caselode/caselode/pkg/eventstream/kafka"
	"github.com/caselode/caselode/pkg/eventstream/nop"
	"github.com/caselode/caselode/pkg/ingest"
	"github.com/caselode/caselode/pkg/logger"
	"github.com/caselode/caselode/pkg/vector"
	vectorutils "github.com/caselode/caselode/pkg/vector/utils"
)

const ingestLongDesc string = `Full-refresh a dataset into a vector store collection.

The target collection is dropped and recreated, every dataset record is
transformed into a point and uploaded in parallel batches, and the run ends
with a readiness wait and a verification probe. The collection is only
considered loaded once the probe query returns the expected point.

Examples:
  caselode ingest --dataset owner/case-summaries --collection legal-cases
  caselode ingest --dataset-source jsonl --dataset-path ./cases.jsonl`

const ingestShortDesc string = "Full-refresh a dataset into a collection"

// ingestFlags is the flag registry for the ingest command.
var ingestFlags = config.FlagSet{
	config.FlagStoreProvider: {
		Name: "store-provider", ViperKey: "store.provider",
		Description: "Vector store provider (qdrant, sqlitevec, memory)",
	},
	config.FlagStoreURL: {
		Name: "store-url", ViperKey: "store.url",
		Description: "Vector store address",
	},
	config.FlagStoreAPIKey: {
		Name: "store-api-key", ViperKey: "store.api_key",
		Description: "Vector store API key",
	},
	config.FlagEmbeddingProv: {
		Name: "embedding-provider", ViperKey: "embedding.provider",
		Description: "Embedding provider (ollama)",
	},
	config.FlagEmbeddingTgt: {
		Name: "embedding-target", ViperKey: "embedding.target",
		Description: "Embedding provider URL",
	},
	config.FlagEmbeddingModel: {
		Name: "embedding-model", ViperKey: "embedding.model",
		Description: "Embedding model name",
	},
	config.FlagEmbeddingDims: {
		Name: "embedding-dimensions", ViperKey: "embedding.dimensions",
		Description: "Embedding vector dimensionality",
	},
	config.FlagCollection: {
		Name: "collection", Shorthand: "c", ViperKey: "collection.name",
		Description: "Target collection name",
	},
	config.FlagDistance: {
		Name: "distance", ViperKey: "collection.distance",
		Description: "Similarity metric (cosine, euclid, dot)",
	},
	config.FlagDatasetSource: {
		Name: "dataset-source", ViperKey: "dataset.source",
		Description: "Dataset source (hub, jsonl)",
	},
	config.FlagDataset: {
		Name: "dataset", ViperKey: "dataset.name",
		Description: "Hub dataset name (e.g. owner/corpus)",
	},
	config.FlagDatasetConfig: {
		Name: "dataset-config", ViperKey: "dataset.config",
		Description: "Hub dataset configuration name",
	},
	config.FlagDatasetSplit: {
		Name: "dataset-split", ViperKey: "dataset.split",
		Description: "Hub dataset split",
	},
	config.FlagDatasetPath: {
		Name: "dataset-path", ViperKey: "dataset.path",
		Description: "Path to a local JSONL dataset file",
	},
	config.FlagBatchSize: {
		Name: "batch-size", ViperKey: "upload.batch_size",
		Description: "Points per upload batch",
	},
	config.FlagParallel: {
		Name: "parallel", ViperKey: "upload.parallel",
		Description: "Maximum batches uploaded concurrently",
	},
	config.FlagBrokers: {
		Name: "brokers", ViperKey: "events.brokers",
		Description: "Comma-separated Kafka broker addresses for ingest events",
	},
	config.FlagTopic: {
		Name: "topic", ViperKey: "events.topic",
		Description: "Kafka topic for ingest events",
	},
}

var ingestFlagKeys = []string{
	config.FlagStoreProvider,
	config.FlagStoreURL,
	config.FlagStoreAPIKey,
	config.FlagEmbeddingProv,
	config.FlagEmbeddingTgt,
	config.FlagEmbeddingModel,
	config.FlagEmbeddingDims,
	config.FlagCollection,
	config.FlagDistance,
	config.FlagDatasetSource,
	config.FlagDataset,
	config.FlagDatasetConfig,
	config.FlagDatasetSplit,
	config.FlagDatasetPath,
	config.FlagBatchSize,
	config.FlagParallel,
	config.FlagBrokers,
	config.FlagTopic,
}

type IngestCommander struct {
	storeProvider string
	storeURL      string
	storeAPIKey   string
	embeddingProv string
	embeddingTgt  string
	embeddingMdl  string
	embeddingDims uint
	collection    string
	distance      string
	datasetSource string
	datasetName   string
	datasetConfig string
	datasetSplit  string
	datasetPath   string
	batchSize     uint
	parallel      uint
	brokers       string
	topic         string
	events        bool
	debug         bool

	cfg    *config.Config
	logger *zap.Logger
}

func NewIngestCmd() *cobra.Command {
	cmder := &IngestCommander{}

	cmd := &cobra.Command{
		Use:   "ingest",
		Short: ingestShortDesc,
		Long:  ingestLongDesc,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var err error
			cmder.debug, err = cmd.Flags().GetBool("debug")
			if err != nil {
				return fmt.Errorf("could not get debug flag: %v", err)
			}

			configDir, _ := cmd.Flags().GetString("config-dir")
			v, err := config.InitViper(configDir)
			if err != nil {
				return err
			}
			config.BindRegisteredFlags(v, cmd, ingestFlags, ingestFlagKeys)

			cmder.cfg = config.ConfigFromViper(v)
			if cmder.events {
				cmder.cfg.Events.Enabled = true
			}
			return cmder.run(cmd.Context())
		},
	}

	config.AddStringFlag(cmd, ingestFlags, config.FlagStoreProvider, &cmder.storeProvider)
	config.AddStringFlag(cmd, ingestFlags, config.FlagStoreURL, &cmder.storeURL)
	config.AddStringFlag(cmd, ingestFlags, config.FlagStoreAPIKey, &cmder.storeAPIKey)
	config.AddStringFlag(cmd, ingestFlags, config.FlagEmbeddingProv, &cmder.embeddingProv)
	config.AddStringFlag(cmd, ingestFlags, config.FlagEmbeddingTgt, &cmder.embeddingTgt)
	config.AddStringFlag(cmd, ingestFlags, config.FlagEmbeddingModel, &cmder.embeddingMdl)
	config.AddUintFlag(cmd, ingestFlags, config.FlagEmbeddingDims, &cmder.embeddingDims)
	config.AddStringFlag(cmd, ingestFlags, config.FlagCollection, &cmder.collection)
	config.AddStringFlag(cmd, ingestFlags, config.FlagDistance, &cmder.distance)
	config.AddStringFlag(cmd, ingestFlags, config.FlagDatasetSource, &cmder.datasetSource)
	config.AddStringFlag(cmd, ingestFlags, config.FlagDataset, &cmder.datasetName)
	config.AddStringFlag(cmd, ingestFlags, config.FlagDatasetConfig, &cmder.datasetConfig)
	config.AddStringFlag(cmd, ingestFlags, config.FlagDatasetSplit, &cmder.datasetSplit)
	config.AddStringFlag(cmd, ingestFlags, config.FlagDatasetPath, &cmder.datasetPath)
	config.AddUintFlag(cmd, ingestFlags, config.FlagBatchSize, &cmder.batchSize)
	config.AddUintFlag(cmd, ingestFlags, config.FlagParallel, &cmder.parallel)
	config.AddStringFlag(cmd, ingestFlags, config.FlagBrokers, &cmder.brokers)
	config.AddStringFlag(cmd, ingestFlags, config.FlagTopic, &cmder.topic)
	cmd.Flags().BoolVar(&cmder.events, "events", false, "Publish ingest events to Kafka")

	return cmd
}

func (c *IngestCommander) run(ctx context.Context) error {
	c.logger = logger.NewLogger(c.debug)
	defer c.logger.Sync()

	if err := c.cfg.ValidateIngest(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	driver, err := vectorutils.NewVectorDriver(&vectorutils.NewVectorDriverOpts{
		ProviderType: c.cfg.Store.Provider,
		Target:       c.cfg.Store.URL,
		APIKey:       c.cfg.Store.APIKey,
		UseTLS:       c.cfg.Store.UseTLS,
		Logger:       c.logger,
	})
	if err != nil {
		return fmt.Errorf("creating vector driver: %w", err)
	}
	defer driver.Close()

	embedder, err := embeddingutils.NewEmbedder(&embeddingutils.NewEmbedderOpts{
		ProviderType: c.cfg.Embedding.Provider,
		TargetURL:    c.cfg.Embedding.Target,
		Model:        c.cfg.Embedding.Model,
	})
	if err != nil {
		return fmt.Errorf("creating embedder: %w", err)
	}
	defer embedder.Close()

	source, err := c.createSource()
	if err != nil {
		return err
	}
	defer source.Close()

	publisher, err := c.createPublisher()
	if err != nil {
		return err
	}
	defer publisher.Close()

	distance, err := vector.ParseDistance(c.cfg.Collection.Distance)
	if err != nil {
		return err
	}

	pipeline, err := ingest.NewPipeline(driver, embedder, source, publisher, c.logger, ingest.PipelineOpts{
		Collection:   c.cfg.Collection.Name,
		Dimensions:   uint64(c.cfg.Embedding.Dimensions),
		Distance:     distance,
		BatchSize:    int(c.cfg.Upload.BatchSize),
		Parallel:     int(c.cfg.Upload.Parallel),
		PollInterval: time.Duration(c.cfg.Readiness.PollSeconds) * time.Second,
		ReadyTimeout: time.Duration(c.cfg.Readiness.TimeoutSeconds) * time.Second,
	})
	if err != nil {
		return err
	}

	summary, err := pipeline.Run(ctx)
	if err != nil {
		return err
	}

	fmt.Printf("Loaded %d points into %q in %d batches (probe score %.4f)\n",
		summary.PointCount, summary.Collection, summary.Batches, summary.Probe.Score)
	return nil
}

func (c *IngestCommander) createSource() (dataset.Source, error) {
	switch c.cfg.Dataset.Source {
	case "hub":
		return hub.NewSource(hub.Config{
			Dataset: c.cfg.Dataset.Name,
			Config:  c.cfg.Dataset.Config,
			Split:   c.cfg.Dataset.Split,
		})
	case "jsonl":
		return jsonl.NewSource(c.cfg.Dataset.Path)
	default:
		return nil, fmt.Errorf("unknown dataset source: %q", c.cfg.Dataset.Source)
	}
}

func (c *IngestCommander) createPublisher() (eventstream.Publisher, error) {
	if !c.cfg.Events.Enabled {
		return nop.NewPublisher(), nil
	}

	publisher, err := kafka.NewPublisher(kafka.Config{
		Brokers: c.cfg.BrokerList(),
		Topic:   c.cfg.Events.Topic,
	}, c.logger)
	if err != nil {
		return nil, fmt.Errorf("creating kafka publisher: %w", err)
	}

	c.logger.Info("publishing ingest events",
		zap.Strings("brokers", c.cfg.BrokerList()),
		zap.String("topic", c.cfg.Events.Topic),
	)
	return publisher, nil
}
