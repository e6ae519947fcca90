package commands

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/matteobertozzi/r5lrpc/internal/iopump"
	"github.com/matteobertozzi/r5lrpc/internal/logger"
	"github.com/matteobertozzi/r5lrpc/pkg/config"
	"github.com/matteobertozzi/r5lrpc/pkg/metrics"
	"github.com/matteobertozzi/r5lrpc/pkg/metrics/prometheus"
	"github.com/matteobertozzi/r5lrpc/pkg/rpcerr"
	"github.com/matteobertozzi/r5lrpc/pkg/rpcserver"
	"github.com/matteobertozzi/r5lrpc/pkg/schema"
	"github.com/matteobertozzi/r5lrpc/pkg/schema/fieldstruct"
	"github.com/matteobertozzi/r5lrpc/pkg/schema/idl"
	"github.com/matteobertozzi/r5lrpc/pkg/schema/wellknown"
	promhttp "github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
)

var schemaFile string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the r5lrpc server",
	Long: `Start the r5lrpc server: compile the IDL schema file into a
runtime registry, bind every declared call to a not-yet-implemented
status handler (real handlers are wired in by embedding r5lrpc as a
library; this binary alone can only echo the built-in Ping call), and
serve connections until an interrupt signal arrives.

Examples:
  # Start with the default config location
  r5lrpcd serve --schema health.idl

  # Start with a custom config
  r5lrpcd serve --schema health.idl --config /etc/r5lrpc/config.yaml`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&schemaFile, "schema", "", "Path to an IDL schema file (optional; omit to serve only the built-in Ping call; if the file declares several rpc services, only one of them, chosen arbitrarily, is served)")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadServeConfig()
	if err != nil {
		return err
	}

	if err := logger.Init(logger.Config{Level: cfg.Logging.Level, Format: cfg.Logging.Format, Output: cfg.Logging.Output}); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	svc, err := buildService(cfg)
	if err != nil {
		return err
	}

	var rpcMetrics metrics.RpcMetrics
	if cfg.Metrics.Enabled {
		metrics.InitRegistry()
		rpcMetrics = prometheus.NewRpcMetrics()
		startMetricsServer(cfg.Metrics.Port)
	}

	server := rpcserver.New(cfg.Server.ListenAddr, svc, rpcserver.Config{
		MaxRequestsPerConnection: cfg.Server.MaxRequestsPerConnection,
		MaxFramePayload:          uint32(cfg.Wire.MaxFramePayload),
		IOPump: iopump.Config{
			TickMin:               cfg.IOPump.TickMin,
			TickMax:               cfg.IOPump.TickMax,
			OutboundHighWaterMark: uint64(cfg.Server.OutboundHighWaterMark),
			OutboundLowWaterMark:  uint64(cfg.Server.OutboundLowWaterMark),
		},
	}, rpcMetrics)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	serverDone := make(chan error, 1)
	go func() { serverDone <- server.Serve(ctx) }()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	logger.Info("r5lrpcd listening", "addr", cfg.Server.ListenAddr, "services", svc.Schema.Name)

	select {
	case <-sigCh:
		signal.Stop(sigCh)
		logger.Info("shutdown signal received")
		cancel()
		if err := server.Close(); err != nil {
			logger.Error("error closing server", "error", err)
		}
		<-serverDone
		logger.Info("server stopped gracefully")
	case err := <-serverDone:
		signal.Stop(sigCh)
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
	}
	return nil
}

func loadServeConfig() (*config.Config, error) {
	path := GetConfigFile()
	if path == "" && !config.DefaultConfigExists() {
		return config.GetDefaultConfig(), nil
	}
	return config.MustLoad(path)
}

// buildService compiles the optional IDL schema file and merges the
// built-in Ping call into it, binding every call to a placeholder
// handler except Ping, which this process can answer on its own.
func buildService(cfg *config.Config) (*rpcserver.Service, error) {
	calls := []schema.RpcCall{wellknown.PingCall()}
	serviceName := wellknown.PingServiceName

	if schemaFile != "" {
		src, err := os.ReadFile(schemaFile)
		if err != nil {
			return nil, fmt.Errorf("failed to read schema file: %w", err)
		}
		file, err := idl.Parse(string(src))
		if err != nil {
			return nil, fmt.Errorf("failed to parse schema file: %w", err)
		}
		reg, err := idl.Compile(file)
		if err != nil {
			return nil, fmt.Errorf("failed to compile schema file: %w", err)
		}
		for name, svc := range reg.Services {
			calls = append(calls, svc.Calls...)
			serviceName = name
			break
		}
	}

	rpcSvc, err := schema.NewRpcService(serviceName, calls)
	if err != nil {
		return nil, err
	}

	svc := rpcserver.NewService(rpcSvc)
	pingCall, _ := rpcSvc.CallByUID(wellknown.PingMsgType)
	if err := svc.Handle("Ping", pingHandler(pingCall.Response)); err != nil {
		return nil, err
	}
	for _, call := range rpcSvc.Calls {
		if call.Name == "Ping" {
			continue
		}
		_ = svc.Handle(call.Name, unimplementedHandler(call.Name))
	}
	return svc, nil
}

func pingHandler(respSchema *schema.Schema) rpcserver.HandlerFunc {
	return func(ctx context.Context, req *fieldstruct.Instance) (*fieldstruct.Instance, *rpcerr.Error) {
		return fieldstruct.NewInstance(respSchema), nil
	}
}

func unimplementedHandler(name string) rpcserver.HandlerFunc {
	return func(ctx context.Context, req *fieldstruct.Instance) (*fieldstruct.Instance, *rpcerr.Error) {
		return nil, rpcerr.New(rpcerr.Unknown, name, 0, 0, "call has no server-side implementation wired in")
	}
}

func startMetricsServer(port int) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(metrics.GetRegistry(), promhttp.HandlerOpts{}))
	srv := &http.Server{Addr: fmt.Sprintf(":%d", port), Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("metrics server error", "error", err)
		}
	}()
	logger.Info("metrics server listening", "port", port)
}
