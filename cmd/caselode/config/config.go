// Package configcmder provides the config command for managing persistent
// caselode configuration stored in the .caselode/ directory.
package configcmder

import (
	"github.com/spf13/cobra"
)

const configLongDesc string = `Manage persistent caselode configuration.

Configuration is stored as config.toml in the .caselode/ directory and
provides default values for command flags. CLI flags always take precedence
over config file values.

Keys use dotted notation matching the TOML section structure:
  store.provider, store.url, store.api_key, store.use_tls,
  embedding.provider, embedding.target, embedding.model, embedding.dimensions,
  collection.name, collection.distance,
  dataset.source, dataset.name, dataset.config, dataset.split, dataset.path,
  upload.batch_size, upload.parallel,
  readiness.poll_seconds, readiness.timeout_seconds,
  api.listen, events.enabled, events.brokers, events.topic,
  memory.collection, memory.top_k

Use subcommands to get, set, or list configuration values:
  caselode config set <key> <value>    Set a configuration value
  caselode config get <key>            Get a configuration value
  caselode config list                 List all configuration values

Examples:
  caselode config set store.url qdrant.internal:6334
  caselode config set embedding.model nomic-embed-text
  caselode config get collection.name
  caselode config list`

const configShortDesc string = "Manage persistent caselode configuration"

func NewConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: configShortDesc,
		Long:  configLongDesc,
	}

	cmd.AddCommand(newSetCmd())
	cmd.AddCommand(newGetCmd())
	cmd.AddCommand(newListCmd())

	return cmd
}
