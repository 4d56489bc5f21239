package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/chaz8081/blenumerator/internal/ble"
	"github.com/chaz8081/blenumerator/internal/config"
	"github.com/chaz8081/blenumerator/internal/console"
	"github.com/chaz8081/blenumerator/internal/logsink"
	"github.com/chaz8081/blenumerator/internal/purpose"
	"github.com/chaz8081/blenumerator/internal/session"
)

func main() {
	os.Exit(run())
}

func run() int {
	// CLI flags
	configPath := flag.String("config", "", "path to config file (default: ~/.config/blenumerator/config.yaml)")
	scanTimeout := flag.Duration("scan-timeout", 0, "device discovery window (overrides scan.timeout)")
	logDir := flag.String("log-dir", "", "directory for the session log (overrides log.dir)")
	flag.Parse()

	// Load configuration
	cfg, err := loadConfig(*configPath)
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	if *scanTimeout != 0 {
		cfg.Scan.Timeout = *scanTimeout
	}
	if *logDir != "" {
		cfg.Log.Dir = *logDir
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("config validation: %v", err)
	}

	con, err := console.New(console.Options{})
	if err != nil {
		log.Fatalf("console: %v", err)
	}
	defer con.Close()

	renderer := lipgloss.NewRenderer(os.Stdout)
	sink, err := logsink.Open(logsink.Options{
		Dir:      cfg.Log.Dir,
		Prefix:   cfg.Log.Prefix,
		Ext:      cfg.Log.Ext,
		Level:    cfg.Log.SlogLevel(),
		Name:     "BLEnumerator",
		Console:  con.Stdout(),
		Color:    cfg.Log.Color,
		Renderer: renderer,
	})
	if err != nil {
		fmt.Fprintf(con.Stderr(), "Failed to open session log: %v\n", err)
		return 1
	}
	defer sink.Close()
	logger := sink.Logger()

	printBanner(con.Stdout(), renderer, cfg)
	logger.Info(fmt.Sprintf("Starting BLEnumerator. Log file: %s", sink.Path()))

	reg, err := purpose.NewRegistry(cfg.UUIDs)
	if err != nil {
		logger.Error(fmt.Sprintf("Unexpected error: %v", err))
		return 1
	}
	if len(cfg.UUIDs) > 0 {
		logger.Debug(fmt.Sprintf("Loaded %d extra UUID names", len(cfg.UUIDs)))
	}

	adapter := ble.NewSystemAdapter()
	if err := adapter.Enable(); err != nil {
		logger.Error(fmt.Sprintf("Unexpected error: %v", err))
		return 1
	}

	// Signal handling for graceful shutdown. Closing the console unblocks a
	// pending prompt.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	go func() {
		<-ctx.Done()
		_ = con.Close()
	}()

	sess := session.New(adapter, purpose.NewEngine(reg), con, con.Stdout(), logger, session.Options{
		ScanWindow: cfg.Scan.Timeout,
	})

	return finish(ctx, logger, sess.Run(ctx))
}

// finish logs the final line for the outcome of a session run and returns
// the process exit code.
func finish(ctx context.Context, logger *slog.Logger, err error) int {
	switch {
	case err == nil, errors.Is(err, io.EOF) && ctx.Err() == nil:
		return 0
	case errors.Is(err, console.ErrInterrupted), ctx.Err() != nil:
		logger.Info("Terminated by user.")
		return 0
	default:
		logger.Error(fmt.Sprintf("Unexpected error: %v", err))
		return 1
	}
}

// loadConfig loads the config from the specified path, or falls back to
// the default config path, or uses built-in defaults.
func loadConfig(path string) (*config.Config, error) {
	if path != "" {
		return config.Load(path)
	}

	// Try default config path
	defaultPath := config.DefaultConfigPath()
	if _, err := os.Stat(defaultPath); err == nil {
		cfg, err := config.Load(defaultPath)
		if err != nil {
			return nil, fmt.Errorf("loading %s: %w", defaultPath, err)
		}
		return cfg, nil
	}

	// No config file, use defaults
	return config.Default(), nil
}

// printBanner displays the tool name, author line and startup settings.
func printBanner(w io.Writer, r *lipgloss.Renderer, cfg *config.Config) {
	title := r.NewStyle().Bold(true)
	author := r.NewStyle().Foreground(lipgloss.Color("1"))
	if !cfg.Log.Color {
		title, author = r.NewStyle(), r.NewStyle()
	}

	fmt.Fprintln(w, title.Render("=== BLEnumerator ==="))
	fmt.Fprintln(w, author.Render("Author: Darkmatter91 (https://github.com/darkmatter91)"))
	fmt.Fprintf(w, "  Scan:    %s\n", cfg.Scan.Timeout.Round(time.Millisecond))
	fmt.Fprintf(w, "  Log:     %s (%s)\n", cfg.Log.Dir, cfg.Log.Level)
	fmt.Fprintln(w, "===================")
}
