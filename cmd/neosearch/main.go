package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/fatih/color"
	"github.com/ganot/neosearch/internal/config"
	"github.com/ganot/neosearch/internal/domain/activity"
	"github.com/ganot/neosearch/internal/domain/message"
	"github.com/ganot/neosearch/internal/domain/search"
	"github.com/ganot/neosearch/internal/domain/session"
	"github.com/ganot/neosearch/internal/domain/upload"
	"github.com/ganot/neosearch/internal/mcp"
	"github.com/ganot/neosearch/internal/repl"
	"github.com/ganot/neosearch/internal/sqlite"
	"github.com/ganot/neosearch/internal/transport"
	"github.com/joho/godotenv"
	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
	"gopkg.in/natefinch/lumberjack.v2"
)

var version = "dev"

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config error: %v\n", err)
		os.Exit(1)
	}

	// stdout belongs to the REPL or to JSON-RPC, so logs never go there.
	logWriter := io.Writer(os.Stderr)
	if cfg.Log.Path != "" {
		if err := ensureDir(cfg.Log.Path); err != nil {
			fmt.Fprintf(os.Stderr, "log file error: %v\n", err)
		} else {
			rotator := &lumberjack.Logger{
				Filename:   cfg.Log.Path,
				MaxSize:    cfg.Log.MaxSizeMB,
				MaxBackups: cfg.Log.MaxBackups,
				MaxAge:     30,
				Compress:   true,
			}
			defer rotator.Close()
			logWriter = rotator
		}
	}
	logger := slog.New(slog.NewTextHandler(logWriter, &slog.HandlerOptions{
		Level: parseLogLevel(cfg.Log.Level),
	}))

	if err := ensureDir(cfg.Journal.Path); err != nil {
		logger.Error("failed to prepare journal path", "error", err)
		os.Exit(1)
	}
	db, err := sqlite.New(cfg.Journal.Path)
	if err != nil {
		logger.Error("failed to open journal", "error", err)
		os.Exit(1)
	}
	defer db.Close()
	if err := db.RunMigrations(); err != nil {
		logger.Error("failed to run migrations", "error", err)
		os.Exit(1)
	}
	journal := activity.NewService(sqlite.NewActivityRepository(db), logger)

	client, err := transport.NewClient(transport.Config{
		BaseURL:     cfg.API.URL,
		Token:       cfg.API.Token,
		Timeout:     cfg.API.Timeout,
		UploadField: cfg.API.UploadField,
	}, logger)
	if err != nil {
		logger.Error("invalid backend configuration", "error", err)
		os.Exit(1)
	}

	conversation := message.NewLog()
	store := session.NewStore(client, conversation, journal, logger)
	uploads := upload.NewCoordinator(client, store, conversation, journal, logger)
	orchestrator := search.NewOrchestrator(client, store, conversation, journal, logger, cfg.Search.TopK)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := store.Hydrate(ctx); err != nil {
		logger.Warn("could not load chat windows; starting empty", "error", err)
	}

	switch cfg.Mode {
	case config.ModeMCP:
		server := mcp.NewServer(mcp.Config{
			Services: mcp.Services{
				Sessions:     store,
				Uploads:      uploads,
				Search:       orchestrator,
				Conversation: conversation,
				Activity:     journal,
			},
			Version: version,
			Logger:  logger,
		})
		runStdioMode(ctx, cancel, logger, server)
	default:
		console := repl.New(repl.Config{
			Sessions:     store,
			Uploads:      uploads,
			Search:       orchestrator,
			Conversation: conversation,
			Journal:      journal,
			In:           os.Stdin,
			Out:          color.Output,
			Color:        !color.NoColor,
			Logger:       logger,
		})
		runREPLMode(ctx, cancel, logger, console)
	}

	waitForBackground(logger, store)
}

func runStdioMode(ctx context.Context, cancel context.CancelFunc, logger *slog.Logger, server *sdkmcp.Server) {
	logger.Info("starting stdio transport", "version", version)

	go cancelOnSignal(logger, cancel)

	// Run blocks until stdin closes or context is canceled
	if err := server.Run(ctx, &sdkmcp.StdioTransport{}); err != nil && ctx.Err() == nil {
		logger.Error("stdio server error", "error", err)
	}
}

func runREPLMode(ctx context.Context, cancel context.CancelFunc, logger *slog.Logger, console *repl.REPL) {
	go cancelOnSignal(logger, cancel)

	done := make(chan error, 1)
	go func() { done <- console.Run(ctx) }()

	select {
	case err := <-done:
		if err != nil {
			logger.Error("repl error", "error", err)
		}
	case <-ctx.Done():
		// A blocked stdin read cannot be interrupted; leave it behind.
	}
}

func cancelOnSignal(logger *slog.Logger, cancel context.CancelFunc) {
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop
	logger.Info("shutting down")
	cancel()
}

// waitForBackground lets pending title renames finish before exit.
func waitForBackground(logger *slog.Logger, store *session.Store) {
	done := make(chan struct{})
	go func() {
		store.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		logger.Warn("exiting with background renames still running")
	}
}

func ensureDir(path string) error {
	if path == ":memory:" || path == "" {
		return nil
	}
	dir := filepath.Dir(path)
	if dir == "." {
		return nil
	}
	return os.MkdirAll(dir, 0o755)
}

func parseLogLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
