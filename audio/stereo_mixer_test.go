// SPDX-License-Identifier: EPL-2.0

package audio

import (
	"errors"
	"testing"

	"github.com/ik5/audcache/internal/audiotest"
)

func TestStereoMixer_StereoPassthrough(t *testing.T) {
	t.Parallel()

	src := audiotest.NewMockSource(8000, 2, 100, func(frame int, channel int) float32 {
		if channel == 0 {
			return 0.25
		}
		return -0.25
	})
	mixer := NewStereoMixer(src)

	if mixer.Channels() != 2 {
		t.Errorf("StereoMixer.Channels() = %d, want 2", mixer.Channels())
	}

	buf := make([]float32, 10)
	n, err := mixer.ReadSamples(buf)
	if err != nil {
		t.Fatalf("ReadSamples() error = %v", err)
	}
	if n != 10 {
		t.Fatalf("ReadSamples() n = %d, want 10", n)
	}

	for i := 0; i < n; i += 2 {
		if buf[i] != 0.25 || buf[i+1] != -0.25 {
			t.Errorf("frame %d = (%v, %v), want (0.25, -0.25)", i/2, buf[i], buf[i+1])
		}
	}
}

func TestStereoMixer_MonoUpmix(t *testing.T) {
	t.Parallel()

	src := audiotest.NewRampSource(8000, 1, 100, 0.01)
	mixer := NewStereoMixer(src)

	buf := make([]float32, 8)
	n, err := mixer.ReadSamples(buf)
	if err != nil {
		t.Fatalf("ReadSamples() error = %v", err)
	}
	if n != 8 {
		t.Fatalf("ReadSamples() n = %d, want 8", n)
	}

	for f := range 4 {
		want := float32(f) * 0.01
		if buf[2*f] != want || buf[2*f+1] != want {
			t.Errorf("frame %d = (%v, %v), want (%v, %v)", f, buf[2*f], buf[2*f+1], want, want)
		}
	}
}

func TestStereoMixer_MultichannelFold(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		channels  int
		wantLeft  float32
		wantRight float32
	}{
		// channel c carries value c: left averages even channels, right odd ones
		{"quad", 4, 1, 2},
		{"5.0", 5, 2, 2},
		{"5.1", 6, 2, 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			src := audiotest.NewMockSource(48000, tt.channels, 10, func(frame int, channel int) float32 {
				return float32(channel)
			})
			mixer := NewStereoMixer(src)

			buf := make([]float32, 4)
			n, err := mixer.ReadSamples(buf)
			if err != nil {
				t.Fatalf("ReadSamples() error = %v", err)
			}
			if n != 4 {
				t.Fatalf("ReadSamples() n = %d, want 4", n)
			}
			if buf[0] != tt.wantLeft || buf[1] != tt.wantRight {
				t.Errorf("frame 0 = (%v, %v), want (%v, %v)", buf[0], buf[1], tt.wantLeft, tt.wantRight)
			}
		})
	}
}

// choppySource hands out at most limit samples per read, splitting frames.
type choppySource struct {
	Source
	limit int
	buf   []float32
	err   error
}

func (s *choppySource) ReadSamples(dst []float32) (int, error) {
	if len(s.buf) == 0 {
		if s.err != nil {
			return 0, s.err
		}
		tmp := make([]float32, 64*s.Channels())
		n, err := s.Source.ReadSamples(tmp)
		s.buf, s.err = tmp[:n], err
		if n == 0 {
			return 0, err
		}
	}

	n := copy(dst[:min(len(dst), s.limit)], s.buf)
	s.buf = s.buf[n:]
	if len(s.buf) == 0 && s.err != nil {
		return n, s.err
	}
	return n, nil
}

func TestStereoMixer_SplitFrames(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		channels int
		limit    int
	}{
		{"stereo odd reads", 2, 3},
		{"stereo single samples", 2, 1},
		{"three channels", 3, 4},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			// frame f carries f on even channels and -f on odd ones
			src := audiotest.NewMockSource(8000, tt.channels, 40, func(frame int, channel int) float32 {
				if channel%2 == 1 {
					return -float32(frame)
				}
				return float32(frame)
			})
			ss, err := NewSoundSource(&choppySource{Source: src, limit: tt.limit})
			if err != nil {
				t.Fatalf("NewSoundSource() error = %v", err)
			}

			dst := make([]float32, 2*40)
			if n := ss.ReadStereoFrames(40, dst); n != 40 {
				t.Fatalf("ReadStereoFrames() = %d, want 40", n)
			}
			for f := range 40 {
				if dst[2*f] != float32(f) || dst[2*f+1] != -float32(f) {
					t.Fatalf("frame %d = (%v, %v), want (%v, %v)", f, dst[2*f], dst[2*f+1], float32(f), -float32(f))
				}
			}
		})
	}
}

func TestStereoMixer_OddDst(t *testing.T) {
	t.Parallel()

	mixer := NewStereoMixer(audiotest.NewSilentSource(8000, 1, 10))

	_, err := mixer.ReadSamples(make([]float32, 3))
	if !errors.Is(err, ErrInvalidDstSize) {
		t.Errorf("ReadSamples() error = %v, want ErrInvalidDstSize", err)
	}
}

func TestStereoMixer_Close(t *testing.T) {
	t.Parallel()

	src := audiotest.NewSilentSource(8000, 1, 10)
	mixer := NewStereoMixer(src)

	if err := mixer.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if !src.Closed {
		t.Error("Close() did not close the wrapped source")
	}
}

func BenchmarkStereoMixer_Mono(b *testing.B) {
	buf := make([]float32, 4096)

	b.ReportAllocs()

	for b.Loop() {
		b.StopTimer()
		mixer := NewStereoMixer(audiotest.NewSineSource(44100, 1, 2048, 440))
		b.StartTimer()
		_, _ = mixer.ReadSamples(buf)
	}
}
