// Package logging builds the application logrus logger. Console output is
// always on; a rotating log file is added when a file path is configured.
package logging

import (
	"io"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"

	"background-remover/internal/config"
)

// New initializes the logger with the appropriate level and formatter.
// The returned close function flushes the log file, if any.
func New(cfg config.LogConfig, debugMode bool) (*logrus.Logger, func() error, error) {
	return newLogger(cfg, debugMode, os.Stdout)
}

func newLogger(cfg config.LogConfig, debugMode bool, console io.Writer) (*logrus.Logger, func() error, error) {
	logger := logrus.New()
	closeFn := func() error { return nil }

	out := console
	if cfg.File != "" {
		if err := os.MkdirAll(filepath.Dir(cfg.File), 0755); err != nil {
			return nil, nil, err
		}
		lj := &lumberjack.Logger{
			Filename:   cfg.File,
			MaxSize:    cfg.MaxSizeMB,
			MaxBackups: cfg.MaxBackups,
			MaxAge:     cfg.MaxAgeDays,
			Compress:   true,
			LocalTime:  true,
		}
		out = io.MultiWriter(console, lj)
		closeFn = lj.Close
	}
	logger.SetOutput(out)

	if debugMode {
		logger.SetLevel(logrus.DebugLevel)
		logger.SetFormatter(&logrus.TextFormatter{
			FullTimestamp: true,
			ForceColors:   true,
		})
		return logger, closeFn, nil
	}

	level, err := logrus.ParseLevel(cfg.Level)
	if err != nil {
		level = logrus.InfoLevel
	}
	logger.SetLevel(level)
	logger.SetFormatter(&logrus.JSONFormatter{
		TimestampFormat: "2006-01-02 15:04:05",
	})

	return logger, closeFn, nil
}

// Discard returns a logger that writes nowhere, for tests and headless use
func Discard() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}
