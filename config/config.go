// SPDX-License-Identifier: EPL-2.0

package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/go-playground/validator/v10"
	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/viper"

	"github.com/ik5/audcache/cache"
)

// EnvPrefix prefixes every environment override, e.g.
// AUDCACHE_CACHE_POOL_CHUNKS=512.
const EnvPrefix = "AUDCACHE"

// Config is the application configuration of the audcache CLI.
//
// Sources in order of precedence:
//  1. Environment variables (AUDCACHE_*)
//  2. Configuration file (YAML)
//  3. Default values
type Config struct {
	Logging LoggingConfig `mapstructure:"logging" yaml:"logging"`

	Cache CacheConfig `mapstructure:"cache" yaml:"cache"`

	Playback PlaybackConfig `mapstructure:"playback" yaml:"playback"`

	Metrics MetricsConfig `mapstructure:"metrics" yaml:"metrics"`
}

// LoggingConfig controls logging behavior.
type LoggingConfig struct {
	// Level is the minimum level: DEBUG, INFO, WARN or ERROR
	// (case-insensitive, normalized to uppercase)
	Level string `mapstructure:"level" validate:"required,oneof=DEBUG INFO WARN ERROR" yaml:"level"`

	// Format is text, json or logfmt
	Format string `mapstructure:"format" validate:"required,oneof=text json logfmt" yaml:"format"`

	// Output is stdout, stderr or a file path
	Output string `mapstructure:"output" validate:"required" yaml:"output"`
}

// CacheConfig sizes the chunk cache.
type CacheConfig struct {
	// MemoryLimit bounds the sample arena. When set it replaces
	// PoolChunks. Accepts sizes such as "64MiB" or "100 MB".
	MemoryLimit ByteSize `mapstructure:"memory_limit" yaml:"memory_limit,omitempty"`

	PoolChunks int `mapstructure:"pool_chunks" validate:"min=0" yaml:"pool_chunks"`

	FramesPerChunk int `mapstructure:"frames_per_chunk" validate:"min=1" yaml:"frames_per_chunk"`

	// HintFrames is the read-ahead window of a default hint
	HintFrames int64 `mapstructure:"hint_frames" validate:"min=1" yaml:"hint_frames"`

	MaxChunksPerHint int `mapstructure:"max_chunks_per_hint" validate:"min=1" yaml:"max_chunks_per_hint"`

	// StatusDrainLimit of 0 derives the limit from the queue size
	StatusDrainLimit int `mapstructure:"status_drain_limit" validate:"min=0" yaml:"status_drain_limit"`
}

// PlaybackConfig drives the simulated audio callback of the render
// command.
type PlaybackConfig struct {
	// BufferFrames is the size of one audio callback
	BufferFrames int `mapstructure:"buffer_frames" validate:"min=1" yaml:"buffer_frames"`

	// Reverse plays from the end of the track to the start
	Reverse bool `mapstructure:"reverse" yaml:"reverse"`

	// Realtime paces callbacks at the track's sample rate
	Realtime bool `mapstructure:"realtime" yaml:"realtime"`

	// LoadTimeout bounds the wait for the worker to open a track
	LoadTimeout time.Duration `mapstructure:"load_timeout" validate:"gt=0" yaml:"load_timeout"`
}

// MetricsConfig configures the Prometheus metrics HTTP server. When
// Enabled is false nothing is collected.
type MetricsConfig struct {
	Enabled bool `mapstructure:"enabled" yaml:"enabled"`

	// Port defaults to 9090 when enabled
	Port int `mapstructure:"port" validate:"omitempty,min=1,max=65535" yaml:"port"`
}

// ByteSize is a byte count that decodes from human-readable strings.
type ByteSize uint64

// ParseByteSize accepts SI and IEC units ("1.5GB", "512MiB") and bare
// byte counts.
func ParseByteSize(s string) (ByteSize, error) {
	n, err := humanize.ParseBytes(s)
	if err != nil {
		return 0, fmt.Errorf("parse byte size %q: %w", s, err)
	}
	return ByteSize(n), nil
}

func (b ByteSize) String() string { return humanize.IBytes(uint64(b)) }

// ReaderConfig converts c into the cache reader configuration.
func (c CacheConfig) ReaderConfig() cache.Config {
	cfg := cache.Config{
		PoolChunks:        c.PoolChunks,
		FramesPerChunk:    c.FramesPerChunk,
		DefaultHintFrames: c.HintFrames,
		MaxChunksPerHint:  c.MaxChunksPerHint,
		StatusDrainLimit:  c.StatusDrainLimit,
	}
	if c.MemoryLimit > 0 && c.FramesPerChunk > 0 {
		chunkBytes := uint64(c.FramesPerChunk) * cache.Channels * 4
		cfg.PoolChunks = int(max(uint64(c.MemoryLimit)/chunkBytes, 1))
	}
	return cfg
}

// Load reads configPath (or the default search path when empty),
// applies environment overrides and defaults, and validates the result.
func Load(configPath string) (*Config, error) {
	if configPath != "" {
		if _, err := os.Stat(configPath); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrConfigNotFound, err)
		}
	}

	v := viper.New()
	setupViper(v, configPath)
	setDefaults(v)

	if err := readConfigFile(v); err != nil {
		return nil, err
	}

	var cfg Config
	if err := v.Unmarshal(&cfg, viper.DecodeHook(configDecodeHooks())); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	ApplyDefaults(&cfg)

	if err := Validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate checks struct constraints and the derived cache config.
func Validate(cfg *Config) error {
	if err := validator.New().Struct(cfg); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	if err := cfg.Cache.ReaderConfig().Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	return nil
}

func setupViper(v *viper.Viper, configPath string) {
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configPath != "" {
		v.SetConfigFile(configPath)
		return
	}

	v.SetConfigName("audcache")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	if dir, err := os.UserConfigDir(); err == nil {
		v.AddConfigPath(filepath.Join(dir, "audcache"))
	}
}

// readConfigFile tolerates a missing file on the default search path.
func readConfigFile(v *viper.Viper) error {
	err := v.ReadInConfig()
	if err == nil {
		return nil
	}

	var notFound viper.ConfigFileNotFoundError
	if errors.As(err, &notFound) {
		return nil
	}
	return fmt.Errorf("failed to read config file: %w", err)
}

func configDecodeHooks() mapstructure.DecodeHookFunc {
	return mapstructure.ComposeDecodeHookFunc(
		byteSizeDecodeHook(),
		mapstructure.StringToTimeDurationHookFunc(),
	)
}

// byteSizeDecodeHook converts strings and numbers to ByteSize.
func byteSizeDecodeHook() mapstructure.DecodeHookFunc {
	return func(_ reflect.Type, to reflect.Type, data any) (any, error) {
		if to != reflect.TypeOf(ByteSize(0)) {
			return data, nil
		}

		switch v := data.(type) {
		case string:
			return ParseByteSize(v)
		case int:
			return ByteSize(max(v, 0)), nil
		case int64:
			return ByteSize(max(v, 0)), nil
		case uint64:
			return ByteSize(v), nil
		case float64:
			// YAML numbers may decode as float64
			return ByteSize(max(v, 0)), nil
		default:
			return data, nil
		}
	}
}
