package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"mime"
	"os"
	"os/signal"
	"path/filepath"
	"runtime"
	"strings"
	"syscall"

	"github.com/spf13/pflag"

	"github.com/inkwell-ai/docsense/internal/config"
	"github.com/inkwell-ai/docsense/internal/extraction"
	"github.com/inkwell-ai/docsense/internal/mcp"
	"github.com/inkwell-ai/docsense/internal/pipeline"
)

var (
	version   = "dev"     // This will be set by build flags
	buildTime = "unknown" // This will be set by build flags
	gitCommit = "unknown" // This will be set by build flags
)

// setupLogging builds the process logger. In stdio mode logs must go to
// stderr so they do not interfere with the MCP protocol on stdout.
func setupLogging(cfg *config.Config) *slog.Logger {
	var level slog.Level
	switch cfg.LogLevel {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	logger := slog.New(handler)
	slog.SetDefault(logger)
	return logger
}

// runStdioMode serves the pipeline over MCP standard I/O with graceful
// shutdown on SIGINT/SIGTERM.
func runStdioMode(ctx context.Context, cancel context.CancelFunc, server *mcp.Server, logger *slog.Logger) {
	signalCh := make(chan os.Signal, 1)
	signal.Notify(signalCh, syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)

	serverErrCh := make(chan error, 1)
	go func() {
		serverErrCh <- server.Run(ctx)
	}()

	select {
	case sig := <-signalCh:
		logger.Info("received signal, shutting down", "signal", sig.String())
		cancel()
		if err := <-serverErrCh; err != nil {
			logger.Error("server shutdown with error", "error", err)
			os.Exit(1)
		}
	case err := <-serverErrCh:
		if err != nil {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}

	logger.Info("server stopped")
}

// runFileMode extracts and analyzes a single document and prints the
// combined result as JSON to stdout.
func runFileMode(ctx context.Context, service *pipeline.Service, path string, logger *slog.Logger) {
	data, err := os.ReadFile(path)
	if err != nil {
		logger.Error("failed to read document", "path", path, "error", err)
		os.Exit(1)
	}

	mimeType := mime.TypeByExtension(filepath.Ext(path))
	if idx := strings.IndexByte(mimeType, ';'); idx >= 0 {
		mimeType = mimeType[:idx]
	}

	buf := &extraction.DocumentBuffer{
		Data:     data,
		MIMEType: mimeType,
		Filename: filepath.Base(path),
	}

	result := service.RunFullPipeline(ctx, buf)

	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(result); err != nil {
		logger.Error("failed to encode result", "error", err)
		os.Exit(1)
	}
}

func main() {
	// Check for version flag before parsing other flags
	for _, arg := range os.Args[1:] {
		if arg == "-version" || arg == "--version" || arg == "-v" {
			printVersion()
			return
		}
	}

	cfg, err := config.LoadFromFlags()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logger := setupLogging(cfg)

	// Set version if it was provided during build
	if version != "dev" {
		cfg.Version = version
	}

	service := pipeline.NewFromConfig(cfg, logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if cfg.IsFileMode() {
		args := pflag.Args()
		if len(args) != 1 {
			fmt.Fprintln(os.Stderr, "file mode requires exactly one document path")
			os.Exit(1)
		}
		runFileMode(ctx, service, args[0], logger)
		return
	}

	server, err := mcp.NewServer(cfg, service, logger)
	if err != nil {
		logger.Error("failed to create MCP server", "error", err)
		os.Exit(1)
	}

	runStdioMode(ctx, cancel, server, logger)
}

// printVersion prints version information
func printVersion() {
	fmt.Printf("Docsense\n")
	fmt.Printf("Version: %s\n", version)
	fmt.Printf("Build Time: %s\n", buildTime)
	fmt.Printf("Git Commit: %s\n", gitCommit)
	fmt.Printf("Built with: %s\n", runtime.Version())
}
