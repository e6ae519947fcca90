package commands

import (
	"fmt"
	"os"

	"github.com/matteobertozzi/r5lrpc/pkg/config"
	"github.com/spf13/cobra"
)

var initForce bool

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize a sample configuration file",
	Long: `Initialize a sample r5lrpcd configuration file.

By default, the configuration file is created at
$XDG_CONFIG_HOME/r5lrpc/config.yaml. Use --config to specify a custom
path.

Examples:
  # Initialize with default location
  r5lrpcd init

  # Initialize with custom path
  r5lrpcd init --config /etc/r5lrpc/config.yaml

  # Force overwrite existing config
  r5lrpcd init --force`,
	RunE: runInit,
}

func init() {
	initCmd.Flags().BoolVar(&initForce, "force", false, "Force overwrite existing config file")
}

func runInit(cmd *cobra.Command, args []string) error {
	path := GetConfigFile()
	if path == "" {
		path = config.GetDefaultConfigPath()
	}

	if !initForce {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("configuration file already exists at %s (use --force to overwrite)", path)
		}
	}

	if err := config.SaveConfig(config.GetDefaultConfig(), path); err != nil {
		return fmt.Errorf("failed to initialize config: %w", err)
	}

	fmt.Printf("Configuration file created at: %s\n", path)
	fmt.Println("\nNext steps:")
	fmt.Println("  1. Edit the configuration file to customize your setup")
	fmt.Println("  2. Validate an IDL schema file: r5lrpcd schema check <file.idl>")
	fmt.Printf("  3. Start the server: r5lrpcd serve --schema <file.idl> --config %s\n", path)
	return nil
}
