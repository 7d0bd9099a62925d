package logger

import (
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"gopkg.in/natefinch/lumberjack.v2"

	"recyclebot/internal/config"
)

const (
	maxLogSizeMB  = 5
	maxLogBackups = 5
	maxLogAgeDays = 14
)

// New constructs a zerolog logger based on level and format configuration.
// When cfg.File is set, output goes to a rotating file instead of stdout.
func New(cfg config.LogConfig) (zerolog.Logger, io.Closer, error) {
	lvl, err := zerolog.ParseLevel(strings.ToLower(cfg.Level))
	if err != nil {
		return zerolog.Logger{}, nil, err
	}

	var out io.Writer = os.Stdout
	var closer io.Closer = nopCloser{}
	if path := strings.TrimSpace(cfg.File); path != "" {
		if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
			return zerolog.Logger{}, nil, err
		}
		rotating := &lumberjack.Logger{
			Filename:   path,
			MaxSize:    maxLogSizeMB,
			MaxBackups: maxLogBackups,
			MaxAge:     maxLogAgeDays,
			Compress:   true,
		}
		out, closer = rotating, rotating
	}

	logger, err := build(out, cfg.Format, cfg.File != "")
	if err != nil {
		return zerolog.Logger{}, nil, err
	}
	return logger.Level(lvl), closer, nil
}

// DefaultFile is where the terminal UI logs when no file is configured,
// since the UI owns stdout.
func DefaultFile() string {
	home, err := os.UserHomeDir()
	if err != nil || strings.TrimSpace(home) == "" {
		return filepath.Join(".recyclebot", "logs", "recyclebot.log")
	}
	return filepath.Join(home, ".recyclebot", "logs", "recyclebot.log")
}

func build(out io.Writer, format string, toFile bool) (zerolog.Logger, error) {
	switch strings.ToLower(format) {
	case "json":
		return zerolog.New(out).With().Timestamp().Logger(), nil
	case "console":
		consoleWriter := zerolog.ConsoleWriter{
			Out:        out,
			TimeFormat: time.RFC3339,
			NoColor:    toFile,
		}
		return zerolog.New(consoleWriter).With().Timestamp().Logger(), nil
	default:
		return zerolog.Logger{}, errors.New("unsupported log format")
	}
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
