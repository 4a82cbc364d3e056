package logger

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Setup builds a logger writing to w and installs it as the global logger.
// Console output is used when dev is set.
func Setup(w io.Writer, dev bool) zerolog.Logger {
	level := zerolog.InfoLevel
	if dev {
		level = zerolog.DebugLevel
	}

	logger := zerolog.New(w).Level(level).With().Timestamp().Caller().Logger()

	if dev {
		logger = logger.Output(zerolog.ConsoleWriter{
			Out:        w,
			NoColor:    w != os.Stderr,
			TimeFormat: time.RFC3339,
		}).Level(level).With().Stack().Logger()
	}

	log.Logger = logger
	return logger
}

// SetupFile opens path for appending and routes the global logger to it.
// The terminal UI owns stdout/stderr, so the TUI logs only here.
func SetupFile(path string, dev bool) (io.Closer, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("creating log dir: %w", err)
	}
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o600)
	if err != nil {
		return nil, fmt.Errorf("opening log file: %w", err)
	}
	Setup(f, dev)
	return f, nil
}
