// SPDX-License-Identifier: EPL-2.0

package config

import (
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/ik5/audcache/cache"
)

const (
	DefaultMetricsPort  = 9090
	DefaultBufferFrames = 1024
	DefaultLoadTimeout  = 10 * time.Second
)

// setDefaults registers every key so environment variables are seen by
// Unmarshal even without a config file.
func setDefaults(v *viper.Viper) {
	c := cache.DefaultConfig()

	v.SetDefault("logging.level", "INFO")
	v.SetDefault("logging.format", "text")
	v.SetDefault("logging.output", "stderr")

	v.SetDefault("cache.memory_limit", 0)
	v.SetDefault("cache.pool_chunks", c.PoolChunks)
	v.SetDefault("cache.frames_per_chunk", c.FramesPerChunk)
	v.SetDefault("cache.hint_frames", c.DefaultHintFrames)
	v.SetDefault("cache.max_chunks_per_hint", c.MaxChunksPerHint)
	v.SetDefault("cache.status_drain_limit", 0)

	v.SetDefault("playback.buffer_frames", DefaultBufferFrames)
	v.SetDefault("playback.reverse", false)
	v.SetDefault("playback.realtime", false)
	v.SetDefault("playback.load_timeout", DefaultLoadTimeout)

	v.SetDefault("metrics.enabled", false)
	v.SetDefault("metrics.port", 0)
}

// ApplyDefaults fills zero values and normalizes the rest. Explicit
// values are kept.
func ApplyDefaults(cfg *Config) {
	applyLoggingDefaults(&cfg.Logging)
	applyCacheDefaults(&cfg.Cache)
	applyPlaybackDefaults(&cfg.Playback)
	applyMetricsDefaults(&cfg.Metrics)
}

func applyLoggingDefaults(cfg *LoggingConfig) {
	if cfg.Level == "" {
		cfg.Level = "INFO"
	}
	cfg.Level = strings.ToUpper(cfg.Level)

	if cfg.Format == "" {
		cfg.Format = "text"
	}
	cfg.Format = strings.ToLower(cfg.Format)

	if cfg.Output == "" {
		cfg.Output = "stderr"
	}
}

func applyCacheDefaults(cfg *CacheConfig) {
	d := cache.DefaultConfig()

	if cfg.PoolChunks == 0 && cfg.MemoryLimit == 0 {
		cfg.PoolChunks = d.PoolChunks
	}
	if cfg.FramesPerChunk == 0 {
		cfg.FramesPerChunk = d.FramesPerChunk
	}
	if cfg.HintFrames == 0 {
		cfg.HintFrames = d.DefaultHintFrames
	}
	if cfg.MaxChunksPerHint == 0 {
		cfg.MaxChunksPerHint = d.MaxChunksPerHint
	}
}

func applyPlaybackDefaults(cfg *PlaybackConfig) {
	if cfg.BufferFrames == 0 {
		cfg.BufferFrames = DefaultBufferFrames
	}
	if cfg.LoadTimeout == 0 {
		cfg.LoadTimeout = DefaultLoadTimeout
	}
}

func applyMetricsDefaults(cfg *MetricsConfig) {
	if cfg.Enabled && cfg.Port == 0 {
		cfg.Port = DefaultMetricsPort
	}
}

// GetDefaultConfig returns the configuration used without any file or
// environment overrides.
func GetDefaultConfig() *Config {
	cfg := &Config{}
	ApplyDefaults(cfg)
	return cfg
}
