// bookstore CLI - mock REST backend and lazy object store demo
package main

import (
	"os"

	"github.com/getmockd/lazystore/pkg/cli"
)

// Build-time variables set via ldflags
var (
	Version   = "dev"
	Commit    = "unknown"
	BuildDate = "unknown"
)

func main() {
	cli.Version, cli.Commit, cli.BuildDate = Version, Commit, BuildDate
	os.Exit(cli.Main())
}
