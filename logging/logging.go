// Package logging builds the process logger from LogConfig.
package logging

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/warp/job-tracker/config"
	"gopkg.in/lumberjack.v2"
)

// New returns a logrus logger writing to stdout and, when cfg.File is
// set, to a size-rotated file.
func New(cfg config.LogConfig) (*logrus.Logger, error) {
	return NewWithWriter(cfg, os.Stdout)
}

// NewWithWriter is New with the console writer replaced.
func NewWithWriter(cfg config.LogConfig, console io.Writer) (*logrus.Logger, error) {
	level := logrus.InfoLevel
	if cfg.Level != "" {
		parsed, err := logrus.ParseLevel(cfg.Level)
		if err != nil {
			return nil, fmt.Errorf("invalid log level %q: %w", cfg.Level, err)
		}
		level = parsed
	}

	logger := logrus.New()
	logger.SetLevel(level)

	switch strings.ToLower(cfg.Format) {
	case "json":
		logger.SetFormatter(&logrus.JSONFormatter{})
	default:
		logger.SetFormatter(&logrus.TextFormatter{
			FullTimestamp: true,
		})
	}

	writers := []io.Writer{console}
	if cfg.File != "" {
		writers = append(writers, &lumberjack.Logger{
			Filename:   cfg.File,
			MaxSize:    cfg.MaxSizeMB,
			MaxBackups: cfg.MaxBackups,
			MaxAge:     cfg.MaxAgeDays,
			LocalTime:  true,
		})
	}
	logger.SetOutput(io.MultiWriter(writers...))

	return logger, nil
}
