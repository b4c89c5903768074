// AI Background Remover
// Removes image backgrounds one file at a time or for a whole folder.

package main

import (
	"flag"
	"fmt"
	"os"

	"fyne.io/fyne/v2/app"
	"fyne.io/fyne/v2/theme"
	"github.com/sirupsen/logrus"

	"background-remover/internal/config"
	"background-remover/internal/gui"
	"background-remover/internal/logging"
	"background-remover/internal/remover"
	"background-remover/internal/remover/u2net"
)

const (
	AppName    = "AI Background Remover"
	AppID      = "com.background-remover.app"
	AppVersion = "1.0.0"
)

func main() {
	// Parse command line flags
	debugMode := flag.Bool("debug", false, "Enable debug mode with verbose logging")
	configPath := flag.String("config", "", "Path to a config file (default: ./config.yaml or the user config dir)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logger, closeLog, err := logging.New(cfg.Log, *debugMode)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize logging: %v\n", err)
		os.Exit(1)
	}

	logger.WithFields(logrus.Fields{
		"version":    AppVersion,
		"debug_mode": *debugMode,
		"backend":    cfg.Remover.Backend,
	}).Info("Starting " + AppName)

	rm, closeRemover, err := buildRemover(cfg, logger)
	if err != nil {
		logger.WithError(err).Error("Failed to initialize background remover")
		closeLog()
		os.Exit(1)
	}

	myApp := app.NewWithID(AppID)
	myApp.SetIcon(theme.DocumentIcon())
	myApp.Settings().SetTheme(theme.DefaultTheme())

	mainApp := gui.NewApplication(myApp, rm, cfg, logger)
	mainApp.ShowAndRun()

	if err := closeRemover(); err != nil {
		logger.WithError(err).Warn("Failed to release background remover")
	}
	logger.Info("Application shutting down gracefully")
	closeLog()
	os.Exit(0)
}

// buildRemover picks the backend named in the config. The returned close
// function releases model resources.
func buildRemover(cfg *config.Config, logger *logrus.Logger) (remover.Remover, func() error, error) {
	switch cfg.Remover.Backend {
	case config.BackendU2Net:
		model, err := u2net.New(u2net.Options{
			ModelPath:     cfg.Remover.ModelPath,
			InputSize:     cfg.Remover.InputSize,
			Threshold:     cfg.Remover.Threshold,
			AutoThreshold: cfg.Remover.AutoThreshold,
			CleanupKernel: cfg.Remover.MaskCleanup,
		}, logger)
		if err != nil {
			return nil, nil, err
		}
		return model, model.Close, nil
	case config.BackendCommand:
		cmd := remover.NewCommand(cfg.Remover.Command, cfg.Remover.Args, logger)
		return cmd, func() error { return nil }, nil
	default:
		return nil, nil, fmt.Errorf("unknown remover backend %q", cfg.Remover.Backend)
	}
}
