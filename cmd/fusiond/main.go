// Command fusiond runs an mcp-fusion server.
//
// It hosts a set of tools compiled from declarative builder descriptions,
// communicating over stdio or Streamable HTTP using JSON-RPC 2.0 (MCP
// protocol). Tool calls are decorated with state-sync cache-invalidation
// metadata and contract-drift self-healing hints before crossing the wire.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/vinkius-labs/mcp-fusion/internal/config"
	"github.com/vinkius-labs/mcp-fusion/internal/content"
	"github.com/vinkius-labs/mcp-fusion/internal/demo"
	"github.com/vinkius-labs/mcp-fusion/internal/fusion"
	"github.com/vinkius-labs/mcp-fusion/internal/introspect"
	"github.com/vinkius-labs/mcp-fusion/internal/mcp"
	"github.com/vinkius-labs/mcp-fusion/internal/sandbox"
	"github.com/vinkius-labs/mcp-fusion/internal/scheduler"
	"github.com/vinkius-labs/mcp-fusion/internal/statesync"
)

// Version is set via ldflags at build time.
var Version = "dev"

func main() {
	if len(os.Args) > 1 && os.Args[1] == "info" {
		runInfo(os.Args[2:])
		return
	}

	fs := flag.NewFlagSet("fusiond", flag.ExitOnError)
	configPath := fs.String("config", "", "path to mcp-fusion.toml")
	fs.Parse(os.Args[1:])

	if err := run(*configPath); err != nil {
		fmt.Fprintf(os.Stderr, "fusiond: %v\n", err)
		os.Exit(1)
	}
}

func run(configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: parseLogLevel(cfg.Log.Level),
	}))

	version := cfg.Server.Version
	if Version != "dev" {
		version = Version
	}
	logger.Info("starting fusiond", "version", version, "transport", cfg.Transport.Mode)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	registry := fusion.NewRegistry(nil)
	contentRegistry := mcp.NewContentRegistry()

	sandboxEngine := sandbox.NewEngine(sandbox.Config{
		TimeoutMS:      cfg.Sandbox.TimeoutMS,
		MemoryMB:       cfg.Sandbox.MemoryMB,
		MaxOutputBytes: cfg.Sandbox.MaxOutputByte,
	})
	defer sandboxEngine.Dispose()

	if err := registry.Register(demo.NewUsersTool()); err != nil {
		return fmt.Errorf("registering users tool: %w", err)
	}
	if err := registry.Register(demo.NewBillingTool()); err != nil {
		return fmt.Errorf("registering billing tool: %w", err)
	}
	if err := registry.Register(demo.NewSandboxTool(sandboxEngine)); err != nil {
		return fmt.Errorf("registering sandbox tool: %w", err)
	}

	contentRegistry.RegisterPrompt(&content.GuidePrompt{})
	contentRegistry.RegisterResource(&content.FrameworkGuideResource{})
	contentRegistry.RegisterResource(content.NewManifestResource(registry))

	server := mcp.NewServer(registry, contentRegistry, mcp.ServerInfo{Name: cfg.Server.Name, Version: version}, logger)
	registry.SetSink(server)

	policies := statesync.BuildPolicies(registry.Tools())
	decorator := statesync.NewDecorator(policies, server)
	server.AddDecorator(decorator.Decorate)

	// Nothing in this server fills the self-healing delta map: it starts
	// empty and stays empty, so SelfHeal passes every response through
	// unchanged. `fusionctl diff` prints deltas but does not feed them here.
	deltas := make(map[string][]introspect.Delta)
	server.AddDecorator(func(toolName, action string, resp fusion.Response) fusion.Response {
		return introspect.SelfHeal(resp, action, deltas[toolName], 0)
	})

	runLockfileWatcher(ctx, logger, cfg.Lockfile.Path, registry)

	switch cfg.Transport.Mode {
	case "http":
		return runHTTP(ctx, cfg, server, logger)
	default:
		return server.Run(ctx)
	}
}

func runHTTP(ctx context.Context, cfg *config.Config, server *mcp.Server, logger *slog.Logger) error {
	httpServer := mcp.NewHTTPServer(server, cfg.Transport.CORSOrigins, logger)
	addr := cfg.Transport.Host + ":" + cfg.Transport.Port
	srv := &http.Server{Addr: addr, Handler: httpServer.Handler()}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	logger.Info("fusiond listening", "addr", addr)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("http server: %w", err)
	}
	return nil
}

// lockfileCheckJob periodically regenerates contracts for the registry's
// current tool set and logs a warning when they drift from the on-disk
// lockfile, adapted from the teacher's scheduler package as a background
// CI-adjacent sanity check rather than a data-sync poller.
type lockfileCheckJob struct {
	path     string
	registry *fusion.Registry
	logger   *slog.Logger
}

func (j *lockfileCheckJob) Name() string { return "lockfile-drift-check" }

func (j *lockfileCheckJob) Run(ctx context.Context) error {
	data, err := os.ReadFile(j.path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return err
	}
	lock, err := introspect.Parse(data)
	if err != nil {
		return err
	}
	contracts := make(map[string]introspect.Contract)
	for _, t := range j.registry.Tools() {
		contracts[t.Definition.Name] = introspect.Derive(t, nil)
	}
	result := introspect.Check(lock, contracts)
	if !result.OK {
		j.logger.Warn("fusion lock drift detected", "added", result.Added, "removed", result.Removed, "changed", result.Changed)
	}
	return nil
}

func runLockfileWatcher(ctx context.Context, logger *slog.Logger, path string, registry *fusion.Registry) {
	if path == "" {
		return
	}
	sched := scheduler.NewScheduler(logger)
	sched.AddJob(&lockfileCheckJob{path: path, registry: registry, logger: logger}, 5*time.Minute)
	sched.Start(ctx)
	go func() {
		<-ctx.Done()
		sched.Stop()
	}()
}

func parseLogLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
