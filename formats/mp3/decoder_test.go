// SPDX-License-Identifier: EPL-2.0

package mp3

import (
	"bytes"
	"encoding/binary"
	"errors"
	"io"
	"math"
	"testing"

	"github.com/ik5/audcache/audio"
)

// mockMP3Reader simulates the gomp3.Decoder for testing
type mockMP3Reader struct {
	sampleRate   int
	samples      []int16 // interleaved stereo PCM
	offset       int     // in samples
	returnErrors bool
	unseekable   bool
}

func (m *mockMP3Reader) SampleRate() int {
	return m.sampleRate
}

func (m *mockMP3Reader) Length() int64 {
	if m.unseekable {
		return -1
	}
	return int64(len(m.samples) * 2)
}

func (m *mockMP3Reader) Seek(offset int64, whence int) (int64, error) {
	if whence != io.SeekStart {
		return 0, errors.New("mock: only io.SeekStart")
	}
	m.offset = int(offset / 2)
	return offset, nil
}

func (m *mockMP3Reader) Read(buf []byte) (int, error) {
	if m.returnErrors {
		return 0, io.ErrUnexpectedEOF
	}

	if m.offset >= len(m.samples) {
		return 0, io.EOF
	}

	samplesToRead := min(len(buf)/2, len(m.samples)-m.offset)
	for i := range samplesToRead {
		binary.LittleEndian.PutUint16(buf[i*2:i*2+2], uint16(m.samples[m.offset+i]))
	}
	m.offset += samplesToRead

	if m.offset >= len(m.samples) {
		return samplesToRead * 2, io.EOF
	}
	return samplesToRead * 2, nil
}

func rampSamples(frames int) []int16 {
	s := make([]int16, frames*channels)
	for i := range s {
		s[i] = int16(i * 10)
	}
	return s
}

func TestDecoder_InvalidInput(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		data []byte
	}{
		{"garbage", []byte("This is not MP3 data")},
		{"empty", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if _, err := (Decoder{}).Decode(bytes.NewReader(tt.data)); err == nil {
				t.Error("Decode() error = nil, want error")
			}
		})
	}
}

func TestSource_Metadata(t *testing.T) {
	t.Parallel()

	src := newSource(&mockMP3Reader{sampleRate: 44100, samples: rampSamples(100)}, true)

	if src.SampleRate() != 44100 {
		t.Errorf("SampleRate() = %d, want 44100", src.SampleRate())
	}
	if src.Channels() != 2 {
		t.Errorf("Channels() = %d, want 2", src.Channels())
	}
	if src.Frames() != 100 {
		t.Errorf("Frames() = %d, want 100", src.Frames())
	}
	if src.BufSize() != 4096 {
		t.Errorf("BufSize() = %d, want 4096", src.BufSize())
	}
	if err := src.Close(); err != nil {
		t.Errorf("Close() error = %v", err)
	}
}

func TestSource_ReadSamples(t *testing.T) {
	t.Parallel()

	samples := []int16{0, 16384, -16384, math.MaxInt16, math.MinInt16, 100}
	src := newSource(&mockMP3Reader{sampleRate: 44100, samples: samples}, true)

	dst := make([]float32, 4)
	n, err := src.ReadSamples(dst)
	if err != nil {
		t.Fatalf("ReadSamples() error = %v", err)
	}
	if n != 4 {
		t.Fatalf("ReadSamples() n = %d, want 4", n)
	}

	want := []float32{0, 0.5, -0.5, float32(math.MaxInt16) / 32768.0}
	for i := range want {
		if dst[i] != want[i] {
			t.Errorf("dst[%d] = %v, want %v", i, dst[i], want[i])
		}
	}

	n, err = src.ReadSamples(dst)
	if n != 2 || err != io.EOF {
		t.Errorf("ReadSamples() tail = %d, %v, want 2, io.EOF", n, err)
	}
	if dst[0] != -1 {
		t.Errorf("dst[0] = %v, want -1", dst[0])
	}
}

func TestSource_ReadSamples_Errors(t *testing.T) {
	t.Parallel()

	src := newSource(&mockMP3Reader{sampleRate: 44100, returnErrors: true}, true)
	n, err := src.ReadSamples(make([]float32, 8))
	if n != 0 || !errors.Is(err, io.ErrUnexpectedEOF) {
		t.Errorf("ReadSamples() = %d, %v, want 0, io.ErrUnexpectedEOF", n, err)
	}
}

func TestSource_SeekFrame(t *testing.T) {
	t.Parallel()

	src := newSource(&mockMP3Reader{sampleRate: 44100, samples: rampSamples(50)}, true)

	tests := []struct {
		frame int64
		want  int64
	}{
		{10, 10},
		{0, 0},
		{-5, 0},
		{49, 49},
		{1000, 50},
	}

	for _, tt := range tests {
		got, err := src.SeekFrame(tt.frame)
		if err != nil {
			t.Fatalf("SeekFrame(%d) error = %v", tt.frame, err)
		}
		if got != tt.want {
			t.Errorf("SeekFrame(%d) = %d, want %d", tt.frame, got, tt.want)
		}
	}

	if _, err := src.SeekFrame(20); err != nil {
		t.Fatalf("SeekFrame(20) error = %v", err)
	}
	dst := make([]float32, 2)
	if _, err := src.ReadSamples(dst); err != nil {
		t.Fatalf("ReadSamples() error = %v", err)
	}
	if want := float32(400) / 32768.0; dst[0] != want {
		t.Errorf("first sample after seek = %v, want %v", dst[0], want)
	}
}

func TestSource_NotSeekable(t *testing.T) {
	t.Parallel()

	src := newSource(&mockMP3Reader{sampleRate: 44100, samples: rampSamples(10), unseekable: true}, false)

	if got := src.Frames(); got != -1 {
		t.Errorf("Frames() = %d, want -1", got)
	}
	if _, err := src.SeekFrame(3); !errors.Is(err, audio.ErrNotSeekable) {
		t.Errorf("SeekFrame() error = %v, want audio.ErrNotSeekable", err)
	}
}

func TestSource_AsSoundSource(t *testing.T) {
	t.Parallel()

	src := newSource(&mockMP3Reader{sampleRate: 48000, samples: rampSamples(64)}, true)
	ss, err := audio.NewSoundSource(src)
	if err != nil {
		t.Fatalf("NewSoundSource() error = %v", err)
	}

	if got := ss.MaxFrameIndex(); got != 64 {
		t.Errorf("MaxFrameIndex() = %d, want 64", got)
	}
	if got := ss.SeekToFrame(32); got != 32 {
		t.Errorf("SeekToFrame(32) = %d, want 32", got)
	}

	dst := make([]float32, 8)
	if n := ss.ReadStereoFrames(4, dst); n != 4 {
		t.Fatalf("ReadStereoFrames() = %d, want 4", n)
	}
	if want := float32(640) / 32768.0; dst[0] != want {
		t.Errorf("dst[0] = %v, want %v", dst[0], want)
	}
}

func BenchmarkSource_ReadSamples(b *testing.B) {
	mock := &mockMP3Reader{sampleRate: 44100, samples: rampSamples(44100)}
	src := newSource(mock, true)
	dst := make([]float32, 4096)

	b.ReportAllocs()

	for b.Loop() {
		mock.offset = 0
		_, _ = src.ReadSamples(dst)
	}
}
