// kdlgen converts YAML, JSON, TOML and MessagePack documents to KDL.
package main

import (
	"os"

	"github.com/hupe1980/kdlgen/internal/cli"
)

func main() {
	os.Exit(cli.Execute())
}
