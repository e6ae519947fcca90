// Package commands implements the CLI commands for the r5lrpcctl client.
package commands

import (
	"time"

	"github.com/spf13/cobra"
)

var (
	// Version information injected at build time.
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"

	serverAddr  string
	dialTimeout time.Duration
)

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "r5lrpcctl",
	Short: "r5lrpcctl - r5lrpc client",
	Long: `r5lrpcctl dials a running r5lrpcd server and issues RPC calls
against it: a built-in health-check ping, or an arbitrary call
described by an IDL schema file.

Use "r5lrpcctl [command] --help" for more information about a command.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute adds all child commands to the root command and runs it.
func Execute() error {
	return rootCmd.Execute()
}

// GetRootCmd returns the root command for testing purposes.
func GetRootCmd() *cobra.Command {
	return rootCmd
}

func init() {
	rootCmd.PersistentFlags().StringVar(&serverAddr, "addr", "127.0.0.1:9070", "r5lrpcd server address")
	rootCmd.PersistentFlags().DurationVar(&dialTimeout, "dial-timeout", 5*time.Second, "TCP dial timeout")

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(pingCmd)
	rootCmd.AddCommand(callCmd)
}
