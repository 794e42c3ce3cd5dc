package config

import (
	"fmt"

	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// Config is the top-level configuration struct.  Default() fills every field
// from its `default` tag; Load overlays a config file, IMGC_* environment
// variables and command-line flags on top.
type Config struct {
	// Worker pool controls.
	WorkerCount int `mapstructure:"workers" yaml:"workers" validate:"gte=0"` // 0 = runtime.NumCPU()
	QueueSize   int `mapstructure:"queue_size" yaml:"queue_size" default:"256" validate:"gte=1"`

	// Processing parameters applied to every file of a batch.
	Quality      int    `mapstructure:"quality" yaml:"quality" default:"80" validate:"gte=0,lte=100"`
	MaxDimension int    `mapstructure:"max_dimension" yaml:"max_dimension" validate:"gte=0"` // 0 = no resizing
	Format       string `mapstructure:"format" yaml:"format" default:"original" validate:"oneof=original jpeg png webp"`

	// Codec tuning.
	Resampler      string `mapstructure:"resampler" yaml:"resampler" default:"catmullrom" validate:"oneof=bilinear catmullrom lanczos3"`
	PNGCompression string `mapstructure:"png_compression" yaml:"png_compression" default:"default" validate:"oneof=default none speed best"`

	// Input limits.
	MaxImageBytes int64 `mapstructure:"max_image_bytes" yaml:"max_image_bytes" validate:"gte=0"` // 0 = no limit
	ChunkSize     int   `mapstructure:"chunk_size" yaml:"chunk_size" default:"32768" validate:"gt=0"`

	// Output sink used by the CLI.
	OutputDir string `mapstructure:"output_dir" yaml:"output_dir" default:"compressed"`
	WriteMeta bool   `mapstructure:"write_meta" yaml:"write_meta"`

	Log LogConfig `mapstructure:"log" yaml:"log"`
}

// LogConfig configures the zap logger built by hooks.NewLogger.
type LogConfig struct {
	Level      string `mapstructure:"level" yaml:"level" default:"info" validate:"oneof=debug info warn error"`
	Format     string `mapstructure:"format" yaml:"format" default:"console" validate:"oneof=console json"`
	File       string `mapstructure:"file" yaml:"file"` // empty = stderr only
	MaxSizeMB  int    `mapstructure:"max_size_mb" yaml:"max_size_mb" default:"100" validate:"gte=0"`
	MaxBackups int    `mapstructure:"max_backups" yaml:"max_backups" default:"5" validate:"gte=0"`
	MaxAgeDays int    `mapstructure:"max_age_days" yaml:"max_age_days" default:"7" validate:"gte=0"`
	Compress   bool   `mapstructure:"compress" yaml:"compress"`
}

// Default returns a Config populated with sensible production defaults.
func Default() Config {
	var c Config
	if err := defaults.Set(&c); err != nil {
		// Only reachable when a default tag is malformed.
		panic(fmt.Sprintf("config: invalid default tag: %v", err))
	}
	return c
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate returns an error if the configuration is inconsistent.
func Validate(c Config) error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	return nil
}

// Dump renders c as YAML.
func Dump(c Config) ([]byte, error) {
	return yaml.Marshal(c)
}
