package logger

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
)

// Logger wraps zerolog.Logger with application-specific methods
type Logger struct {
	zerolog.Logger
}

// Options configures a Logger
type Options struct {
	Level  string
	Format string
	// File, when set, receives JSON log lines in addition to stdout
	File string
	// Out overrides stdout, mainly for tests
	Out io.Writer
}

// New creates a new Logger instance. The returned close func releases the log file.
func New(opts Options) (*Logger, func() error, error) {
	lvl, err := zerolog.ParseLevel(opts.Level)
	if err != nil || opts.Level == "" {
		lvl = zerolog.InfoLevel
	}

	out := opts.Out
	if out == nil {
		out = os.Stdout
	}

	var console io.Writer = out
	if opts.Format == "text" || opts.Format == "console" {
		// Human-readable output for development
		console = zerolog.ConsoleWriter{
			Out:        out,
			TimeFormat: time.RFC3339,
		}
	}

	closeFn := func() error { return nil }
	writer := console

	if opts.File != "" {
		if err := os.MkdirAll(filepath.Dir(opts.File), 0o755); err != nil {
			return nil, nil, fmt.Errorf("failed to create log directory: %w", err)
		}
		f, err := os.OpenFile(opts.File, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open log file: %w", err)
		}
		writer = zerolog.MultiLevelWriter(console, f)
		closeFn = f.Close
	}

	logger := zerolog.New(writer).Level(lvl).With().Timestamp().Logger()

	return &Logger{Logger: logger}, closeFn, nil
}

// Nop returns a logger that discards everything
func Nop() *Logger {
	return &Logger{Logger: zerolog.Nop()}
}

// WithComponent returns a new logger with the component name attached
func (l *Logger) WithComponent(component string) *Logger {
	return &Logger{
		Logger: l.With().Str("component", component).Logger(),
	}
}

// WithRunID returns a new logger with the run ID attached
func (l *Logger) WithRunID(runID string) *Logger {
	return &Logger{
		Logger: l.With().Str("run_id", runID).Logger(),
	}
}

// WithRecipient returns a new logger with the recipient and batch attached
func (l *Logger) WithRecipient(email string, batch int) *Logger {
	return &Logger{
		Logger: l.With().Str("recipient", email).Int("batch", batch).Logger(),
	}
}
