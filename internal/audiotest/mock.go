// SPDX-License-Identifier: EPL-2.0

package audiotest

import (
	"errors"
	"io"
	"math"
)

// ErrSeekOutOfRange is returned by MockSource.SeekFrame for negative frames.
var ErrSeekOutOfRange = errors.New("audiotest: seek out of range")

// MockSource is a test helper that generates audio data for testing.
// It implements audio.Source, audio.FrameSeeker and audio.FrameCounter
// (without importing audio to avoid cycles).
type MockSource struct {
	sampleRate  int
	channels    int
	totalFrames int // Total frames to generate
	generated   int // Frames generated so far
	waveform    func(frame int, channel int) float32

	// SeekDrift is added to every seek target, emulating files whose
	// seek tables are slightly off.
	SeekDrift int
	// Truncate makes the stream end early while Frames still reports
	// the full length, emulating a corrupt file with a lying header.
	Truncate int
	// Closed reports whether Close was called.
	Closed bool
}

// NewMockSource creates a new mock audio source.
// totalFrames is the total number of frames to generate.
// waveform is a function that generates sample values given frame index and channel.
func NewMockSource(sampleRate, channels, totalFrames int, waveform func(frame int, channel int) float32) *MockSource {
	return &MockSource{
		sampleRate:  sampleRate,
		channels:    channels,
		totalFrames: totalFrames,
		waveform:    waveform,
	}
}

// NewSilentSource creates a mock source that generates silence (all zeros).
func NewSilentSource(sampleRate, channels, totalFrames int) *MockSource {
	return NewMockSource(sampleRate, channels, totalFrames, func(int, int) float32 {
		return 0.0
	})
}

// NewSineSource creates a mock source that generates a sine wave.
func NewSineSource(sampleRate, channels, totalFrames int, frequency float64) *MockSource {
	return NewMockSource(sampleRate, channels, totalFrames, func(frame int, channel int) float32 {
		t := float64(frame) / float64(sampleRate)
		return float32(math.Sin(2 * math.Pi * frequency * t))
	})
}

// NewConstantSource creates a mock source with constant value.
func NewConstantSource(sampleRate, channels, totalFrames int, value float32) *MockSource {
	return NewMockSource(sampleRate, channels, totalFrames, func(int, int) float32 {
		return value
	})
}

// NewRampSource creates a mock source whose samples encode their own
// position: frame f on channel c carries f*channels+c, scaled by scale.
// Useful for checking that data lands at the right offsets.
func NewRampSource(sampleRate, channels, totalFrames int, scale float32) *MockSource {
	return NewMockSource(sampleRate, channels, totalFrames, func(frame int, channel int) float32 {
		return float32(frame*channels+channel) * scale
	})
}

func (m *MockSource) SampleRate() int { return m.sampleRate }
func (m *MockSource) Channels() int   { return m.channels }
func (m *MockSource) BufSize() int    { return 4096 }

func (m *MockSource) Close() error {
	m.Closed = true
	return nil
}

// Frames reports the advertised length, ignoring Truncate.
func (m *MockSource) Frames() int64 { return int64(m.totalFrames) }

// Position returns the current frame cursor.
func (m *MockSource) Position() int { return m.generated }

// Reset resets the generated frame counter to allow re-reading
func (m *MockSource) Reset() {
	m.generated = 0
}

func (m *MockSource) SeekFrame(frame int64) (int64, error) {
	if frame < 0 {
		return int64(m.generated), ErrSeekOutOfRange
	}
	target := int(frame) + m.SeekDrift
	target = max(0, min(target, m.end()))
	m.generated = target
	return int64(target), nil
}

func (m *MockSource) end() int {
	if m.Truncate > 0 && m.Truncate < m.totalFrames {
		return m.Truncate
	}
	return m.totalFrames
}

func (m *MockSource) ReadSamples(dst []float32) (int, error) {
	end := m.end()
	if m.generated >= end {
		return 0, io.EOF
	}

	framesToWrite := min(len(dst)/m.channels, end-m.generated)

	for frame := range framesToWrite {
		index := m.generated + frame
		for ch := range m.channels {
			dst[frame*m.channels+ch] = m.waveform(index, ch)
		}
	}

	m.generated += framesToWrite
	samplesWritten := framesToWrite * m.channels

	if m.generated >= end {
		return samplesWritten, io.EOF
	}

	return samplesWritten, nil
}

// StreamOnly hides the seek and length capabilities of a source,
// leaving a plain forward-only stream.
type StreamOnly struct {
	Src interface {
		SampleRate() int
		Channels() int
		BufSize() int
		Close() error
		ReadSamples(dst []float32) (int, error)
	}
}

func (s StreamOnly) SampleRate() int                        { return s.Src.SampleRate() }
func (s StreamOnly) Channels() int                          { return s.Src.Channels() }
func (s StreamOnly) BufSize() int                           { return s.Src.BufSize() }
func (s StreamOnly) Close() error                           { return s.Src.Close() }
func (s StreamOnly) ReadSamples(dst []float32) (int, error) { return s.Src.ReadSamples(dst) }
