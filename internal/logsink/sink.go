// Package logsink provides the process-wide session log: every record goes to
// a level-colored console handler and to a plain-text, append-only file that
// is opened once at startup and kept for the life of the process.
package logsink

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/charmbracelet/lipgloss"
)

// Options configures Open.
type Options struct {
	Dir    string // directory for the log file, created if missing
	Prefix string // file name prefix, e.g. "ble_dump"
	Ext    string // file extension without dot, e.g. "txt"
	Level  slog.Level
	Name   string // logger name shown on the console

	Console  io.Writer          // defaults to os.Stderr
	Color    bool               // color console lines by level
	Renderer *lipgloss.Renderer // color profile detection; defaults to lipgloss.DefaultRenderer()
	Now      func() time.Time   // clock for the file name; defaults to time.Now
}

// Sink owns the log file and the logger writing to it.
type Sink struct {
	logger *slog.Logger
	file   *os.File
	path   string
}

// FileName returns "<prefix>_<YYYYMMDD_HHMMSS>.<ext>".
func FileName(prefix, ext string, t time.Time) string {
	return fmt.Sprintf("%s_%s.%s", prefix, t.Format("20060102_150405"), ext)
}

// Open creates the log file and the fan-out logger.
func Open(opts Options) (*Sink, error) {
	if opts.Prefix == "" {
		opts.Prefix = "ble_dump"
	}
	if opts.Ext == "" {
		opts.Ext = "txt"
	}
	if opts.Console == nil {
		opts.Console = os.Stderr
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Dir == "" {
		opts.Dir = "."
	}

	if err := os.MkdirAll(opts.Dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating log dir: %w", err)
	}
	path := filepath.Join(opts.Dir, FileName(opts.Prefix, opts.Ext, opts.Now()))
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("opening log file: %w", err)
	}

	consoleOpts := HandlerOptions{Level: opts.Level, Name: opts.Name}
	if opts.Color {
		r := opts.Renderer
		if r == nil {
			r = lipgloss.DefaultRenderer()
		}
		consoleOpts.Styles = ConsoleStyles(r)
	}

	handler := Fanout(
		NewHandler(opts.Console, consoleOpts),
		NewHandler(f, HandlerOptions{Level: opts.Level}),
	)

	return &Sink{
		logger: slog.New(handler),
		file:   f,
		path:   path,
	}, nil
}

// Logger returns the logger that writes to console and file.
func (s *Sink) Logger() *slog.Logger {
	return s.logger
}

// Path returns the log file path.
func (s *Sink) Path() string {
	return s.path
}

// Close flushes and closes the log file.
func (s *Sink) Close() error {
	if err := s.file.Sync(); err != nil {
		_ = s.file.Close()
		return fmt.Errorf("syncing log file: %w", err)
	}
	return s.file.Close()
}

// ConsoleStyles returns the per-level console colors.
func ConsoleStyles(r *lipgloss.Renderer) map[slog.Level]lipgloss.Style {
	return map[slog.Level]lipgloss.Style{
		slog.LevelDebug: r.NewStyle().Faint(true),
		slog.LevelInfo:  r.NewStyle().Foreground(lipgloss.Color("2")),
		slog.LevelWarn:  r.NewStyle().Foreground(lipgloss.Color("3")),
		slog.LevelError: r.NewStyle().Foreground(lipgloss.Color("1")),
	}
}
