// SPDX-License-Identifier: EPL-2.0

package aiff

import (
	"bytes"
	"errors"
	"io"
	"math"
	"testing"

	goaudio "github.com/go-audio/audio"

	"github.com/ik5/audcache/audio"
)

// mockAiffReader simulates the aiff.Decoder for testing
type mockAiffReader struct {
	sampleRate   int
	channels     int
	samples      []int
	offset       int
	returnErrors bool
}

func (m *mockAiffReader) Format() *goaudio.Format {
	return &goaudio.Format{
		SampleRate:  m.sampleRate,
		NumChannels: m.channels,
	}
}

func (m *mockAiffReader) PCMBuffer(buf *goaudio.IntBuffer) (int, error) {
	if m.returnErrors {
		return 0, io.ErrUnexpectedEOF
	}

	if m.offset >= len(m.samples) {
		return 0, io.EOF
	}

	n := copy(buf.Data, m.samples[m.offset:])
	m.offset += n

	if m.offset >= len(m.samples) {
		return n, io.EOF
	}
	return n, nil
}

// newMockSource builds a source whose samples are the interleaved
// index, so a value identifies its own position.
func newMockSource(channels, frames int) (*source, *int) {
	samples := make([]int, channels*frames)
	for i := range samples {
		samples[i] = i
	}
	opens := 0
	reopen := func() (aiffReader, error) {
		opens++
		return &mockAiffReader{sampleRate: 44100, channels: channels, samples: samples}, nil
	}
	dec, _ := reopen()
	opens = 0

	return &source{
		dec:        dec,
		reopen:     reopen,
		sampleRate: 44100,
		channels:   channels,
		frames:     int64(frames),
	}, &opens
}

func TestDecoder_InvalidInput(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		data []byte
	}{
		{"garbage", []byte("This is not AIFF data")},
		{"empty", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, err := (Decoder{}).Decode(bytes.NewReader(tt.data))
			if !errors.Is(err, ErrNotAiffFile) {
				t.Errorf("Decode() error = %v, want ErrNotAiffFile", err)
			}
		})
	}
}

func TestSource_Metadata(t *testing.T) {
	t.Parallel()

	src, _ := newMockSource(2, 100)

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
		t.Errorf("BufSize() = %d, want 4096 before the first read", src.BufSize())
	}
	if err := src.Close(); err != nil {
		t.Errorf("Close() error = %v", err)
	}
}

func TestSource_ReadSamples_Conversion(t *testing.T) {
	t.Parallel()

	src := &source{
		dec: &mockAiffReader{
			sampleRate: 44100,
			channels:   1,
			samples:    []int{0, 16384, -16384, math.MinInt16},
		},
		sampleRate: 44100,
		channels:   1,
		frames:     4,
	}

	dst := make([]float32, 4)
	n, err := src.ReadSamples(dst)
	if n != 4 {
		t.Fatalf("ReadSamples() n = %d, want 4", n)
	}
	if err != io.EOF {
		t.Errorf("ReadSamples() error = %v, want io.EOF with the last block", err)
	}

	want := []float32{0, 0.5, -0.5, -1}
	for i := range want {
		if dst[i] != want[i] {
			t.Errorf("dst[%d] = %v, want %v", i, dst[i], want[i])
		}
	}
}

func TestSource_ReadSamples_Errors(t *testing.T) {
	t.Parallel()

	src := &source{
		dec:      &mockAiffReader{channels: 2, returnErrors: true},
		channels: 2,
	}

	n, err := src.ReadSamples(make([]float32, 4))
	if n != 0 || !errors.Is(err, io.ErrUnexpectedEOF) {
		t.Errorf("ReadSamples() = %d, %v, want 0, io.ErrUnexpectedEOF", n, err)
	}

	if n, err := src.ReadSamples(nil); n != 0 || err != nil {
		t.Errorf("ReadSamples(nil) = %d, %v, want 0, nil", n, err)
	}
}

func TestSource_SeekFrame(t *testing.T) {
	t.Parallel()

	src, opens := newMockSource(2, 3000)
	dst := make([]float32, 2)

	tests := []struct {
		name      string
		frame     int64
		want      int64
		wantOpens int
	}{
		{"forward across skip blocks", 2500, 2500, 0},
		{"backward reopens", 100, 100, 1},
		{"forward from there", 200, 200, 1},
		{"negative", -4, 0, 2},
		{"past end", 9000, 3000, 2},
	}

	for _, tt := range tests {
		got, err := src.SeekFrame(tt.frame)
		if err != nil {
			t.Fatalf("%s: SeekFrame(%d) error = %v", tt.name, tt.frame, err)
		}
		if got != tt.want {
			t.Errorf("%s: SeekFrame(%d) = %d, want %d", tt.name, tt.frame, got, tt.want)
		}
		if *opens != tt.wantOpens {
			t.Errorf("%s: reopened %d times, want %d", tt.name, *opens, tt.wantOpens)
		}
	}

	src.SeekFrame(7)
	if _, err := src.ReadSamples(dst); err != nil {
		t.Fatalf("ReadSamples() error = %v", err)
	}
	if want := float32(14) / 32768.0; dst[0] != want {
		t.Errorf("first sample after seek = %v, want %v", dst[0], want)
	}
}

func TestSource_AsSoundSource(t *testing.T) {
	t.Parallel()

	src, _ := newMockSource(1, 64)
	ss, err := audio.NewSoundSource(src)
	if err != nil {
		t.Fatalf("NewSoundSource() error = %v", err)
	}

	if got := ss.MaxFrameIndex(); got != 64 {
		t.Errorf("MaxFrameIndex() = %d, want 64", got)
	}
	if got := ss.SeekToFrame(10); got != 10 {
		t.Errorf("SeekToFrame(10) = %d, want 10", got)
	}
	dst := make([]float32, 2)
	ss.ReadStereoFrames(1, dst)
	if want := float32(10) / 32768.0; dst[0] != want || dst[1] != want {
		t.Errorf("frame = (%v, %v), want (%v, %v)", dst[0], dst[1], want, want)
	}
}

func BenchmarkSource_ReadSamples(b *testing.B) {
	src, _ := newMockSource(2, 44100)
	dst := make([]float32, 4096)

	b.ReportAllocs()

	for b.Loop() {
		if _, err := src.ReadSamples(dst); err == io.EOF {
			src.SeekFrame(0)
		}
	}
}
