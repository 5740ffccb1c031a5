// Package servecmder provides the serve command for running the API server
// with the memory MCP endpoint.
package servecmder

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/caselode/caselode/api"
	"github.com/caselode/caselode/api/mcp"
	"github.com/caselode/caselode/pkg/config"
	embeddingutils "github.com/caselode/caselode/pkg/embeddings/utils"
	"github.com/caselode/caselode/pkg/logger"
	"github.com/caselode/caselode/pkg/memory/vectorstore"
	"github.com/caselode/caselode/pkg/vector"
	vectorutils "github.com/caselode/caselode/pkg/vector/utils"
)

const serveLongDesc string = `Run the caselode API server.

The server exposes collection inspection endpoints and hosts the memory MCP
endpoint at /mcp. Agents connect to /mcp to store and recall facts; memory
persists in the vector store across sessions.`

const serveShortDesc string = "Run the caselode API server"

// serveFlags is the flag registry for the serve command.
var serveFlags = config.FlagSet{
	config.FlagAPIListen: {
		Name: "listen", Shorthand: "l", ViperKey: "api.listen",
		Description: "Address for the API server to listen on",
	},
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
}

var serveFlagKeys = []string{
	config.FlagAPIListen,
	config.FlagStoreProvider,
	config.FlagStoreURL,
	config.FlagStoreAPIKey,
	config.FlagEmbeddingProv,
	config.FlagEmbeddingTgt,
	config.FlagEmbeddingModel,
	config.FlagEmbeddingDims,
}

type ServeCommander struct {
	listen        string
	storeProvider string
	storeURL      string
	storeAPIKey   string
	embeddingProv string
	embeddingTgt  string
	embeddingMdl  string
	embeddingDims uint
	debug         bool

	cfg    *config.Config
	logger *zap.Logger
}

func NewServeCmd() *cobra.Command {
	cmder := &ServeCommander{}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: serveShortDesc,
		Long:  serveLongDesc,
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
			config.BindRegisteredFlags(v, cmd, serveFlags, serveFlagKeys)

			cmder.cfg = config.ConfigFromViper(v)
			return cmder.run(cmd.Context())
		},
	}

	config.AddStringFlag(cmd, serveFlags, config.FlagAPIListen, &cmder.listen)
	config.AddStringFlag(cmd, serveFlags, config.FlagStoreProvider, &cmder.storeProvider)
	config.AddStringFlag(cmd, serveFlags, config.FlagStoreURL, &cmder.storeURL)
	config.AddStringFlag(cmd, serveFlags, config.FlagStoreAPIKey, &cmder.storeAPIKey)
	config.AddStringFlag(cmd, serveFlags, config.FlagEmbeddingProv, &cmder.embeddingProv)
	config.AddStringFlag(cmd, serveFlags, config.FlagEmbeddingTgt, &cmder.embeddingTgt)
	config.AddStringFlag(cmd, serveFlags, config.FlagEmbeddingModel, &cmder.embeddingMdl)
	config.AddUintFlag(cmd, serveFlags, config.FlagEmbeddingDims, &cmder.embeddingDims)

	return cmd
}

func (c *ServeCommander) run(ctx context.Context) error {
	c.logger = logger.NewLogger(c.debug)
	defer c.logger.Sync()

	// Create shared vector driver
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

	memoryDriver, err := vectorstore.NewDriver(ctx, driver, embedder, c.logger, vectorstore.Opts{
		Collection: c.cfg.Memory.Collection,
		Dimensions: uint64(c.cfg.Embedding.Dimensions),
		Distance:   vector.DistanceCosine,
	})
	if err != nil {
		return fmt.Errorf("creating memory driver: %w", err)
	}

	mcpServer, err := mcp.NewServer(mcp.Config{
		MemoryDriver: memoryDriver,
		Logger:       c.logger,
	})
	if err != nil {
		return fmt.Errorf("creating MCP server: %w", err)
	}

	apiServer := api.NewServer(api.Config{
		ListenAddr: c.cfg.API.Listen,
	}, driver, mcpServer.Handler(), c.logger)

	c.logger.Info("starting api server",
		zap.String("listen", c.cfg.API.Listen),
		zap.String("memory_collection", c.cfg.Memory.Collection),
	)

	errChan := make(chan error, 1)
	go func() {
		if err := apiServer.Run(); err != nil {
			errChan <- fmt.Errorf("API server error: %w", err)
		}
	}()

	// Wait for interrupt signal or error
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errChan:
		return err
	case sig := <-sigChan:
		c.logger.Info("received signal, shutting down", zap.String("signal", sig.String()))
		return apiServer.Shutdown()
	case <-ctx.Done():
		return apiServer.Shutdown()
	}
}
