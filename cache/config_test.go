// SPDX-License-Identifier: EPL-2.0

package cache

import (
	"testing"

	tassert "github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfig_Validate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		modify  func(*Config)
		wantErr bool
	}{
		{"defaults", func(*Config) {}, false},
		{"single chunk", func(c *Config) { c.PoolChunks = 1 }, false},
		{"explicit drain limit", func(c *Config) { c.StatusDrainLimit = 3 }, false},
		{"no chunks", func(c *Config) { c.PoolChunks = 0 }, true},
		{"negative chunk size", func(c *Config) { c.FramesPerChunk = -1 }, true},
		{"no hint window", func(c *Config) { c.DefaultHintFrames = 0 }, true},
		{"no hint batch", func(c *Config) { c.MaxChunksPerHint = 0 }, true},
		{"negative drain limit", func(c *Config) { c.StatusDrainLimit = -1 }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			cfg := DefaultConfig()
			tt.modify(&cfg)

			err := cfg.Validate()
			if tt.wantErr {
				require.ErrorIs(t, err, ErrInvalidConfig)
				return
			}
			require.NoError(t, err)
		})
	}
}

func TestConfig_Sizing(t *testing.T) {
	t.Parallel()

	cfg := DefaultConfig()
	tassert.Equal(t, uint64(256*8192*2*4), cfg.MemoryBytes())
	tassert.Equal(t, 264, cfg.statusCapacity())
	tassert.Equal(t, 128, cfg.drainLimit(512))

	cfg.StatusDrainLimit = 5
	tassert.Equal(t, 5, cfg.drainLimit(512))

	cfg.StatusDrainLimit = 0
	tassert.Equal(t, 1, cfg.drainLimit(2))
}
