// Package cli provides the chunklink command-line interface.
package cli

import (
	"github.com/spf13/cobra"

	"github.com/custodia-labs/chunklink-cli/internal/logger"
)

// version is set at build time.
var version = "dev"

var (
	verbose   bool
	configDir string
)

var rootCmd = &cobra.Command{
	Use:   "chunklink",
	Short: "Add shallow chunk tags to parsed documents",
	Long: `chunklink converts the constituency parse of every sentence into B-I-O
chunk tags with the CoNLL-2000 chunklink script and stores them as a new
CHUNK tagging layer in the document.

Documents are read and written as JSON, YAML or MessagePack.`,
	SilenceUsage: true,
	PersistentPreRun: func(_ *cobra.Command, _ []string) {
		logger.SetVerbose(verbose)
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	rootCmd.PersistentFlags().StringVar(&configDir, "config-dir", "", "configuration directory (default ~/.chunklink)")
}

// SetVersion sets the version reported by the version command.
func SetVersion(v string) {
	if v != "" {
		version = v
	}
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
