package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// EnvPrefix is the prefix of environment overrides, e.g. IMGC_QUALITY or
// IMGC_LOG_LEVEL.
const EnvPrefix = "IMGC"

// FlagKeys maps config keys to the CLI flag names bound by Load.
var FlagKeys = map[string]string{
	"workers":         "workers",
	"quality":         "quality",
	"max_dimension":   "max-size",
	"format":          "format",
	"resampler":       "resampler",
	"png_compression": "png-compression",
	"max_image_bytes": "max-bytes",
	"output_dir":      "out",
	"write_meta":      "meta",
	"log.level":       "log-level",
	"log.format":      "log-format",
	"log.file":        "log-file",
}

// Load builds a Config from defaults, an optional config file, a .env file
// in the working directory, IMGC_* environment variables and flags, in
// increasing order of precedence.  Only flags the user actually set override
// the other sources.
func Load(path string, flags *pflag.FlagSet) (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("config: load .env: %w", err)
	}

	cfg := Default()
	v := viper.New()
	setDefaults(v, cfg)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("config: read %s: %w", path, err)
		}
	}

	if flags != nil {
		for key, name := range FlagKeys {
			if f := flags.Lookup(name); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return Config{}, fmt.Errorf("config: bind flag %s: %w", name, err)
				}
			}
		}
	}

	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("config: unmarshal: %w", err)
	}
	if err := Validate(cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// setDefaults registers every key so environment variables resolve even when
// no config file mentions them.
func setDefaults(v *viper.Viper, c Config) {
	v.SetDefault("workers", c.WorkerCount)
	v.SetDefault("queue_size", c.QueueSize)
	v.SetDefault("quality", c.Quality)
	v.SetDefault("max_dimension", c.MaxDimension)
	v.SetDefault("format", c.Format)
	v.SetDefault("resampler", c.Resampler)
	v.SetDefault("png_compression", c.PNGCompression)
	v.SetDefault("max_image_bytes", c.MaxImageBytes)
	v.SetDefault("chunk_size", c.ChunkSize)
	v.SetDefault("output_dir", c.OutputDir)
	v.SetDefault("write_meta", c.WriteMeta)
	v.SetDefault("log.level", c.Log.Level)
	v.SetDefault("log.format", c.Log.Format)
	v.SetDefault("log.file", c.Log.File)
	v.SetDefault("log.max_size_mb", c.Log.MaxSizeMB)
	v.SetDefault("log.max_backups", c.Log.MaxBackups)
	v.SetDefault("log.max_age_days", c.Log.MaxAgeDays)
	v.SetDefault("log.compress", c.Log.Compress)
}
