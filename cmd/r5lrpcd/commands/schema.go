package commands

import (
	"fmt"
	"os"
	"sort"

	"github.com/matteobertozzi/r5lrpc/pkg/schema"
	"github.com/matteobertozzi/r5lrpc/pkg/schema/idl"
	"github.com/spf13/cobra"
)

var schemaCmd = &cobra.Command{
	Use:   "schema",
	Short: "Inspect and validate IDL schema files",
}

var schemaCheckCmd = &cobra.Command{
	Use:   "check <file.idl>",
	Short: "Parse and validate an IDL file, printing its derived dispatch table",
	Long: `Parse and compile an IDL file, the Go-native analogue of the
original rpc-compiler.py: it reports every struct's bitmap width and
every rpc service's call table instead of emitting generated source.`,
	Args: cobra.ExactArgs(1),
	RunE: runSchemaCheck,
}

func init() {
	schemaCmd.AddCommand(schemaCheckCmd)
}

func runSchemaCheck(cmd *cobra.Command, args []string) error {
	src, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", args[0], err)
	}

	file, err := idl.Parse(string(src))
	if err != nil {
		return err
	}

	reg, err := idl.Compile(file)
	if err != nil {
		return err
	}

	structNames := make([]string, 0, len(reg.Structs))
	for name := range reg.Structs {
		structNames = append(structNames, name)
	}
	sort.Strings(structNames)

	fmt.Printf("%s: %d struct(s), %d service(s)\n\n", args[0], len(structNames), len(reg.Services))

	for _, name := range structNames {
		s, _ := reg.Struct(name)
		fmt.Printf("struct %-24s fields=%-3d bitmap_bytes=%d\n", name, len(s.Fields), s.BitmapBytes())
	}

	serviceNames := make([]string, 0, len(reg.Services))
	for name := range reg.Services {
		serviceNames = append(serviceNames, name)
	}
	sort.Strings(serviceNames)

	for _, name := range serviceNames {
		svc, _ := reg.Service(name)
		fmt.Printf("\nrpc %s\n", svc.Name)

		calls := append([]schema.RpcCall(nil), svc.Calls...)
		sort.Slice(calls, func(i, j int) bool { return calls[i].UID < calls[j].UID })
		for _, call := range calls {
			mode := "sync"
			if call.Async {
				mode = "async"
			}
			fmt.Printf("  %5d: %-6s %s (%s -> %s)\n", call.UID, mode, call.Name, call.Request.Name, call.Response.Name)
		}
	}

	return nil
}
