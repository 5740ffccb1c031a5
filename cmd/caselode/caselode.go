// Package caselodecmder
package caselodecmder

import (
	"github.com/spf13/cobra"

	configcmder "github.com/caselode/caselode/cmd/caselode/config"
	democmder "github.com/caselode/caselode/cmd/caselode/demo"
	ingestcmder "github.com/caselode/caselode/cmd/caselode/ingest"
	servecmder "github.com/caselode/caselode/cmd/caselode/serve"
	versioncmder "github.com/caselode/caselode/cmd/version"
)

const caselodeLongDesc string = `Caselode loads structured text corpora into a vector store and serves
an agent memory layer over the same store.

Run workloads using:
  caselode ingest      Full-refresh a dataset into a collection
  caselode serve       Run the API server with the memory MCP endpoint
  caselode demo        Demonstrate cross-session memory over MCP`

const caselodeShortDesc string = "Caselode - Vector corpus loader and agent memory"

func NewCaselodeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "caselode",
		Short: caselodeShortDesc,
		Long:  caselodeLongDesc,
	}

	// Global flags
	cmd.PersistentFlags().BoolP("debug", "d", false, "Enable debug logging")
	cmd.PersistentFlags().String("config-dir", "", "Override the .caselode/ config directory")

	// Add subcommands
	cmd.AddCommand(ingestcmder.NewIngestCmd())
	cmd.AddCommand(servecmder.NewServeCmd())
	cmd.AddCommand(democmder.NewDemoCmd())
	cmd.AddCommand(configcmder.NewConfigCmd())
	cmd.AddCommand(versioncmder.NewVersionCmd())

	return cmd
}
