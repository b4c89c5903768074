// Application settings loaded through viper
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

const (
	AppDirName = "background-remover"
	EnvPrefix  = "BGREMOVER"

	BackendCommand = "command"
	BackendU2Net   = "u2net"
)

// Config is the typed view of all settings
type Config struct {
	Remover RemoverConfig `mapstructure:"remover"`
	UI      UIConfig      `mapstructure:"ui"`
	Log     LogConfig     `mapstructure:"log"`
}

// RemoverConfig selects and parameterises the background removal backend
type RemoverConfig struct {
	Backend       string   `mapstructure:"backend"`
	Command       string   `mapstructure:"command"`
	Args          []string `mapstructure:"args"`
	ModelPath     string   `mapstructure:"model_path"`
	InputSize     int      `mapstructure:"input_size"`
	Threshold     float64  `mapstructure:"threshold"`
	AutoThreshold bool     `mapstructure:"auto_threshold"`
	MaskCleanup   int      `mapstructure:"mask_cleanup"`
}

type UIConfig struct {
	PreviewWidth  int `mapstructure:"preview_width"`
	PreviewHeight int `mapstructure:"preview_height"`
}

type LogConfig struct {
	Level      string `mapstructure:"level"`
	File       string `mapstructure:"file"`
	MaxSizeMB  int    `mapstructure:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAgeDays int    `mapstructure:"max_age_days"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("remover.backend", BackendCommand)
	v.SetDefault("remover.command", "rembg")
	v.SetDefault("remover.args", []string{"i", "-", "-"})
	v.SetDefault("remover.model_path", filepath.Join("models", "u2net.onnx"))
	v.SetDefault("remover.input_size", 320)
	v.SetDefault("remover.threshold", 0.0)
	v.SetDefault("remover.auto_threshold", false)
	v.SetDefault("remover.mask_cleanup", 0)

	v.SetDefault("ui.preview_width", 440)
	v.SetDefault("ui.preview_height", 480)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.file", "")
	v.SetDefault("log.max_size_mb", 50)
	v.SetDefault("log.max_backups", 5)
	v.SetDefault("log.max_age_days", 14)
}

// Load reads settings from path when given, otherwise looks for an optional
// config.yaml in the working directory and the user config directory.
// A missing file is not an error; defaults and environment still apply.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if dir, err := os.UserConfigDir(); err == nil {
			v.AddConfigPath(filepath.Join(dir, AppDirName))
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Default returns the built-in settings without touching disk or environment
func Default() *Config {
	v := viper.New()
	setDefaults(v)

	var cfg Config
	_ = v.Unmarshal(&cfg)
	return &cfg
}

func (c *Config) Validate() error {
	switch c.Remover.Backend {
	case BackendCommand:
		if c.Remover.Command == "" {
			return fmt.Errorf("remover.command is required for the %q backend", BackendCommand)
		}
	case BackendU2Net:
		if c.Remover.ModelPath == "" {
			return fmt.Errorf("remover.model_path is required for the %q backend", BackendU2Net)
		}
		if c.Remover.InputSize <= 0 {
			return fmt.Errorf("invalid remover.input_size: %d", c.Remover.InputSize)
		}
	default:
		return fmt.Errorf("unknown remover backend: %q", c.Remover.Backend)
	}

	if c.Remover.Threshold < 0 || c.Remover.Threshold >= 1 {
		return fmt.Errorf("remover.threshold must be in [0, 1): %v", c.Remover.Threshold)
	}
	if c.Remover.MaskCleanup < 0 {
		return fmt.Errorf("remover.mask_cleanup must not be negative: %d", c.Remover.MaskCleanup)
	}

	if c.UI.PreviewWidth <= 0 || c.UI.PreviewHeight <= 0 {
		return fmt.Errorf("invalid preview size: %dx%d", c.UI.PreviewWidth, c.UI.PreviewHeight)
	}
	return nil
}
