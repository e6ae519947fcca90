package commands

import (
	"context"
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/matteobertozzi/r5lrpc/internal/bufpool"
	"github.com/matteobertozzi/r5lrpc/pkg/rpcclient"
	"github.com/matteobertozzi/r5lrpc/pkg/schema"
	"github.com/matteobertozzi/r5lrpc/pkg/schema/fieldstruct"
	"github.com/matteobertozzi/r5lrpc/pkg/schema/idl"
	"github.com/spf13/cobra"
)

var (
	callSchemaFile string
	callService    string
	callName       string
	callFields     []string
	callReplyWait  time.Duration
)

var callCmd = &cobra.Command{
	Use:   "call",
	Short: "Issue one RPC call described by an IDL schema file",
	Long: `call compiles an IDL schema file, looks up one rpc service's
call by name, and issues it with scalar field values supplied on the
command line.

Only bool/int/uint/string scalar fields can be set this way; list and
nested-struct fields are left at their schema default.

Examples:
  r5lrpcctl call --schema health.idl --service Health --call Echo --field 0=hello`,
	RunE: runCall,
}

func init() {
	callCmd.Flags().StringVar(&callSchemaFile, "schema", "", "Path to an IDL schema file (required)")
	callCmd.Flags().StringVar(&callService, "service", "", "rpc service name (required if the schema declares more than one)")
	callCmd.Flags().StringVar(&callName, "call", "", "call name to invoke (required)")
	callCmd.Flags().StringArrayVar(&callFields, "field", nil, "request field assignment uid=value, repeatable")
	callCmd.Flags().DurationVar(&callReplyWait, "reply-max-wait", 5*time.Second, "How long to wait for a reply")
	_ = callCmd.MarkFlagRequired("schema")
	_ = callCmd.MarkFlagRequired("call")
}

func runCall(cmd *cobra.Command, args []string) error {
	src, err := os.ReadFile(callSchemaFile)
	if err != nil {
		return fmt.Errorf("failed to read schema file: %w", err)
	}
	file, err := idl.Parse(string(src))
	if err != nil {
		return fmt.Errorf("failed to parse schema file: %w", err)
	}
	reg, err := idl.Compile(file)
	if err != nil {
		return fmt.Errorf("failed to compile schema file: %w", err)
	}

	svc, err := resolveService(reg)
	if err != nil {
		return err
	}

	var call *schema.RpcCall
	for i := range svc.Calls {
		if svc.Calls[i].Name == callName {
			call = &svc.Calls[i]
			break
		}
	}
	if call == nil {
		return fmt.Errorf("service %q has no call %q", svc.Name, callName)
	}

	req := fieldstruct.NewInstance(call.Request)
	if err := applyFieldAssignments(req, callFields); err != nil {
		return err
	}

	conn, err := net.DialTimeout("tcp", serverAddr, dialTimeout)
	if err != nil {
		return fmt.Errorf("failed to connect to %s: %w", serverAddr, err)
	}

	client := rpcclient.New(conn, svc, rpcclient.Config{
		ReplyMaxWait:    callReplyWait,
		MaxFramePayload: bufpool.DefaultLargeSize,
	}, nil)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	clientDone := make(chan error, 1)
	go func() { clientDone <- client.Run(ctx) }()

	resp, callErr := client.Call(context.Background(), callName, req)

	cancel()
	<-clientDone

	if callErr != nil {
		return fmt.Errorf("call failed: %w", callErr)
	}

	printResponse(resp)
	return nil
}

func resolveService(reg *schema.Registry) (*schema.RpcService, error) {
	if callService != "" {
		svc, ok := reg.Service(callService)
		if !ok {
			return nil, fmt.Errorf("schema file has no service %q", callService)
		}
		return svc, nil
	}
	if len(reg.Services) != 1 {
		return nil, fmt.Errorf("schema file declares %d services; specify one with --service", len(reg.Services))
	}
	for _, svc := range reg.Services {
		return svc, nil
	}
	return nil, fmt.Errorf("schema file declares no services")
}

func applyFieldAssignments(inst *fieldstruct.Instance, assignments []string) error {
	for _, a := range assignments {
		uidStr, raw, ok := strings.Cut(a, "=")
		if !ok {
			return fmt.Errorf("malformed --field %q, expected uid=value", a)
		}
		uid, err := strconv.ParseUint(uidStr, 10, 64)
		if err != nil {
			return fmt.Errorf("malformed field uid %q: %w", uidStr, err)
		}
		fd := inst.Schema.FieldByUID(uid)
		if fd == nil {
			return fmt.Errorf("schema %q has no field uid %d", inst.Schema.Name, uid)
		}
		if fd.Repeated {
			return fmt.Errorf("field %q: list fields cannot be set from the command line", fd.Name)
		}
		v, err := parseScalar(fd.ElemType, raw)
		if err != nil {
			return fmt.Errorf("field %q: %w", fd.Name, err)
		}
		inst.Set(uid, v)
	}
	return nil
}

func parseScalar(t schema.Type, raw string) (any, error) {
	switch {
	case t == schema.TypeBool:
		return strconv.ParseBool(raw)
	case t == schema.TypeString:
		return raw, nil
	case t.IsSignedInt():
		return strconv.ParseInt(raw, 10, 64)
	case t.IsUnsignedInt():
		return strconv.ParseUint(raw, 10, 64)
	default:
		return nil, fmt.Errorf("type %s cannot be set from the command line", t)
	}
}

func printResponse(resp *fieldstruct.Instance) {
	fmt.Println("response:")
	resp.ForEachPresent(func(uid uint64, v any) {
		fd := resp.Schema.FieldByUID(uid)
		name := fmt.Sprintf("uid%d", uid)
		if fd != nil {
			name = fd.Name
		}
		fmt.Printf("  %-16s = %v\n", name, v)
	})
}
