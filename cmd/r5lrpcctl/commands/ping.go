package commands

import (
	"context"
	"fmt"
	"net"
	"time"

	"github.com/matteobertozzi/r5lrpc/internal/bufpool"
	"github.com/matteobertozzi/r5lrpc/pkg/rpcclient"
	"github.com/matteobertozzi/r5lrpc/pkg/schema/fieldstruct"
	"github.com/matteobertozzi/r5lrpc/pkg/schema/wellknown"
	"github.com/spf13/cobra"
)

var pingReplyWait time.Duration

var pingCmd = &cobra.Command{
	Use:   "ping",
	Short: "Send the built-in health-check call and report the round trip",
	Long: `ping dials the server, issues the reserved msg_type=90 health-check
call (the Go-native analogue of the original client test suite's
msg-test.py), and reports the round-trip latency.

Examples:
  r5lrpcctl ping
  r5lrpcctl ping --addr 10.0.0.5:9070`,
	RunE: runPing,
}

func init() {
	pingCmd.Flags().DurationVar(&pingReplyWait, "reply-max-wait", 5*time.Second, "How long to wait for a reply")
}

func runPing(cmd *cobra.Command, args []string) error {
	conn, err := net.DialTimeout("tcp", serverAddr, dialTimeout)
	if err != nil {
		return fmt.Errorf("failed to connect to %s: %w", serverAddr, err)
	}

	svc := wellknown.PingService()
	pingCall, _ := svc.CallByUID(wellknown.PingMsgType)

	client := rpcclient.New(conn, svc, rpcclient.Config{
		ReplyMaxWait:    pingReplyWait,
		MaxFramePayload: bufpool.DefaultLargeSize,
	}, nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	clientDone := make(chan error, 1)
	go func() { clientDone <- client.Run(ctx) }()

	start := time.Now()
	_, err = client.Call(context.Background(), "Ping", fieldstruct.NewInstance(pingCall.Request))
	elapsed := time.Since(start)

	cancel()
	<-clientDone

	if err != nil {
		return fmt.Errorf("ping failed: %w", err)
	}

	fmt.Printf("pong from %s in %s\n", serverAddr, elapsed)
	return nil
}
