// SPDX-License-Identifier: EPL-2.0

package vorbis

import (
	"fmt"
	"io"

	"github.com/jfreymuth/oggvorbis"

	"github.com/ik5/audcache/audio"
)

// oggReader is an interface for oggvorbis.Reader to allow testing
type oggReader interface {
	SampleRate() int
	Channels() int
	Read([]float32) (int, error)
	Length() int64
	SetPosition(pos int64) error
}

type source struct {
	dec        oggReader
	sampleRate int
	channels   int
	seekable   bool
}

func (s *source) SampleRate() int { return s.sampleRate }
func (s *source) Channels() int   { return s.channels }
func (s *source) Close() error    { return nil }
func (s *source) BufSize() int    { return 4096 }

// Frames reports the stream length in frames, or -1 when unknown.
func (s *source) Frames() int64 {
	if !s.seekable {
		return -1
	}
	return s.dec.Length()
}

func (s *source) SeekFrame(frame int64) (int64, error) {
	if !s.seekable {
		return 0, audio.ErrNotSeekable
	}

	frame = min(max(frame, 0), s.dec.Length())
	if err := s.dec.SetPosition(frame); err != nil {
		return 0, fmt.Errorf("seek frame %d: %w", frame, err)
	}
	return frame, nil
}

// ReadSamples decodes interleaved values straight into dst. The length
// is trimmed to whole frames.
func (s *source) ReadSamples(dst []float32) (int, error) {
	whole := len(dst) - len(dst)%s.channels
	if whole == 0 {
		return 0, nil
	}

	n, err := s.dec.Read(dst[:whole])
	if n == 0 {
		if err != nil {
			return 0, err
		}
		return 0, nil
	}

	return n, err
}

type Decoder struct{}

func (Decoder) Decode(r io.Reader) (audio.Source, error) {
	dec, err := oggvorbis.NewReader(r)
	if err != nil {
		return nil, fmt.Errorf("%w", err)
	}

	_, seekable := r.(io.Seeker)
	return newSource(dec, seekable), nil
}

func newSource(dec oggReader, seekable bool) *source {
	return &source{
		dec:        dec,
		sampleRate: dec.SampleRate(),
		channels:   dec.Channels(),
		seekable:   seekable,
	}
}
