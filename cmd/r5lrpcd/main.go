// Command r5lrpcd is the r5lrpc server daemon: it loads an IDL schema
// file, compiles it into a runtime registry, and serves the resulting
// RPC services over TCP.
package main

import (
	"fmt"
	"os"

	"github.com/matteobertozzi/r5lrpc/cmd/r5lrpcd/commands"
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
