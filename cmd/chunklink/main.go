// Command chunklink adds shallow chunk tags to parsed documents.
package main

import (
	"os"

	"github.com/custodia-labs/chunklink-cli/internal/adapters/driving/cli"
)

// version is set with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	cli.SetVersion(version)
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
