// Command r5lrpcctl is the r5lrpc client: a thin ping/call tool for
// exercising a running r5lrpcd server from the command line.
package main

import (
	"fmt"
	"os"

	"github.com/matteobertozzi/r5lrpc/cmd/r5lrpcctl/commands"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	commands.Version = version
	commands.Commit = commit
	commands.Date = date

	if err := commands.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
