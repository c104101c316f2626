// SPDX-License-Identifier: EPL-2.0

package cache

import (
	"fmt"

	"github.com/go-playground/validator/v10"
)

const (
	DefaultPoolChunks        = 256
	DefaultHintFrames  int64 = 1024
	DefaultMaxChunksPerHint  = 64
	statusSlack              = 8
)

// Config sizes the chunk pool and bounds per-call work on the
// real-time path.
type Config struct {
	// PoolChunks is the fixed number of chunks. Memory use is
	// PoolChunks * FramesPerChunk * 2 float32 samples.
	PoolChunks int `mapstructure:"pool_chunks" validate:"required,min=1" yaml:"pool_chunks"`

	FramesPerChunk int `mapstructure:"frames_per_chunk" validate:"required,min=1" yaml:"frames_per_chunk"`

	// DefaultHintFrames is the window used by FrameCountForward and
	// FrameCountBackward hints.
	DefaultHintFrames int64 `mapstructure:"default_hint_frames" validate:"required,min=1" yaml:"default_hint_frames"`

	// MaxChunksPerHint caps how many chunks one HintAndMaybeWake call
	// may hand to the worker.
	MaxChunksPerHint int `mapstructure:"max_chunks_per_hint" validate:"required,min=1" yaml:"max_chunks_per_hint"`

	// StatusDrainLimit caps status updates processed per Read.
	// Zero means a quarter of the status queue.
	StatusDrainLimit int `mapstructure:"status_drain_limit" validate:"min=0" yaml:"status_drain_limit"`
}

func DefaultConfig() Config {
	return Config{
		PoolChunks:        DefaultPoolChunks,
		FramesPerChunk:    DefaultFramesPerChunk,
		DefaultHintFrames: DefaultHintFrames,
		MaxChunksPerHint:  DefaultMaxChunksPerHint,
	}
}

func (c Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	return nil
}

// MemoryBytes is the size of the sample arena.
func (c Config) MemoryBytes() uint64 {
	return uint64(c.PoolChunks) * uint64(c.FramesPerChunk) * Channels * 4
}

func (c Config) statusCapacity() int {
	return c.PoolChunks + statusSlack
}

func (c Config) drainLimit(statusCap int) int {
	if c.StatusDrainLimit > 0 {
		return c.StatusDrainLimit
	}
	return max(statusCap/4, 1)
}
