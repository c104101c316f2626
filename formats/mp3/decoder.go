// SPDX-License-Identifier: EPL-2.0

package mp3

import (
	"fmt"
	"io"

	gomp3 "github.com/hajimehoshi/go-mp3"

	"github.com/ik5/audcache/audio"
	"github.com/ik5/audcache/utils"
)

// go-mp3 always emits 16-bit little-endian stereo
const (
	channels      = 2
	bytesPerFrame = channels * 2
)

// mp3Reader is an interface for gomp3.Decoder to allow testing
type mp3Reader interface {
	Read([]byte) (int, error)
	Seek(offset int64, whence int) (int64, error)
	SampleRate() int
	Length() int64
}

type source struct {
	dec        mp3Reader
	sampleRate int
	seekable   bool
	buf        []byte
}

func (s *source) SampleRate() int { return s.sampleRate }
func (s *source) Channels() int   { return channels }
func (s *source) Close() error    { return nil }
func (s *source) BufSize() int    { return cap(s.buf) / 2 } // return sample capacity, not bytes

// Frames reports the decoded length, or -1 when the input cannot seek.
func (s *source) Frames() int64 {
	n := s.dec.Length()
	if n < 0 {
		return -1
	}
	return n / bytesPerFrame
}

func (s *source) SeekFrame(frame int64) (int64, error) {
	if !s.seekable {
		return 0, audio.ErrNotSeekable
	}

	frame = max(frame, 0)
	if total := s.Frames(); total >= 0 {
		frame = min(frame, total)
	}

	pos, err := s.dec.Seek(frame*bytesPerFrame, io.SeekStart)
	if err != nil {
		return 0, fmt.Errorf("seek frame %d: %w", frame, err)
	}
	return pos / bytesPerFrame, nil
}

func (s *source) ReadSamples(dst []float32) (int, error) {
	// Each sample is 2 bytes, so we need len(dst) * 2 bytes
	bytesNeeded := len(dst) * 2
	if cap(s.buf) < bytesNeeded {
		s.buf = make([]byte, bytesNeeded)
	}
	s.buf = s.buf[:bytesNeeded]

	n, err := s.dec.Read(s.buf)
	if n == 0 {
		if err != nil {
			return 0, err
		}
		return 0, nil
	}

	samples := n / 2
	for i := range samples {
		low := uint16(s.buf[2*i])
		high := uint16(s.buf[2*i+1])
		dst[i] = utils.Int16ToFloat32(int16(low | (high << 8)))
	}

	return samples, err
}

type Decoder struct{}

// Decode wraps go-mp3. Seeking and Frames are only available when r
// is an io.Seeker.
func (Decoder) Decode(r io.Reader) (audio.Source, error) {
	dec, err := gomp3.NewDecoder(r)
	if err != nil {
		return nil, fmt.Errorf("%w", err)
	}

	return newSource(dec, isSeeker(r)), nil
}

func newSource(dec mp3Reader, seekable bool) *source {
	return &source{
		dec:        dec,
		sampleRate: dec.SampleRate(),
		seekable:   seekable,
		buf:        make([]byte, 8192),
	}
}

func isSeeker(r io.Reader) bool {
	_, ok := r.(io.Seeker)
	return ok
}
