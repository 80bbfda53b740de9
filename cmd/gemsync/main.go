// Command gemsync synchronizes jewelry SKU groups from the warranty
// database into the catalog platform.
package main

import (
	"os"

	"github.com/mjardine/gemsync/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
