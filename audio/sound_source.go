// SPDX-License-Identifier: EPL-2.0

package audio

import (
	"fmt"
	"math"
)

// SoundSource is a frame-addressable stereo view of a decoded stream.
//
// It is driven from a single goroutine (the cache worker) and never
// reports errors directly: failures show up as a seek landing somewhere
// other than requested or as a short read, which callers detect by
// comparing the returned counts.
type SoundSource interface {
	SampleRate() int
	// SeekToFrame moves the read cursor to frame and returns the frame
	// actually reached.
	SeekToFrame(frame int64) int64
	// SkipFrames discards up to n frames and returns how many were skipped.
	SkipFrames(n int64) int64
	// ReadStereoFrames decodes up to n stereo frames into dst and returns
	// the number of frames written. dst must hold at least 2*n samples.
	ReadStereoFrames(n int, dst []float32) int
	// MaxFrameIndex is the exclusive upper bound of readable frames.
	MaxFrameIndex() int64
	Close() error
}

// UnknownLength is reported by MaxFrameIndex when the stream does not
// know its own length. Reads past the real end come back short and the
// cache shrinks its bound accordingly.
const UnknownLength int64 = math.MaxInt64

type soundSource struct {
	src     Source
	seeker  FrameSeeker
	stereo  *StereoMixer
	pos     int64
	max     int64
	scratch []float32
}

// NewSoundSource wraps src so it can be read by frame position.
// Seeking uses FrameSeeker when src provides it; otherwise only forward
// seeks are possible, by decoding and discarding frames.
func NewSoundSource(src Source) (SoundSource, error) {
	if src.Channels() <= 0 {
		return nil, fmt.Errorf("new sound source: %w", ErrNoChannels)
	}

	s := &soundSource{
		src:     src,
		stereo:  NewStereoMixer(src),
		max:     UnknownLength,
		scratch: make([]float32, 4096),
	}
	if seeker, ok := src.(FrameSeeker); ok {
		s.seeker = seeker
	}
	if counter, ok := src.(FrameCounter); ok {
		if frames := counter.Frames(); frames >= 0 {
			s.max = frames
		}
	}

	return s, nil
}

func (s *soundSource) SampleRate() int      { return s.src.SampleRate() }
func (s *soundSource) MaxFrameIndex() int64 { return s.max }

func (s *soundSource) Close() error {
	if err := s.stereo.Close(); err != nil {
		return fmt.Errorf("close sound source: %w", err)
	}
	return nil
}

func (s *soundSource) SeekToFrame(frame int64) int64 {
	if frame == s.pos {
		return s.pos
	}

	if s.seeker != nil {
		actual, err := s.seeker.SeekFrame(frame)
		if err == nil {
			s.pos = actual
		}
		return s.pos
	}

	if frame > s.pos {
		s.SkipFrames(frame - s.pos)
	}
	return s.pos
}

func (s *soundSource) SkipFrames(n int64) int64 {
	var skipped int64
	for skipped < n {
		chunk := min(n-skipped, int64(len(s.scratch)/2))
		got := s.ReadStereoFrames(int(chunk), s.scratch)
		if got == 0 {
			break
		}
		skipped += int64(got)
	}
	return skipped
}

func (s *soundSource) ReadStereoFrames(n int, dst []float32) int {
	n = min(n, len(dst)/2)

	read := 0
	for read < n {
		got, err := s.stereo.ReadSamples(dst[read*2 : n*2])
		read += got / 2
		if err != nil || got == 0 {
			break
		}
	}

	s.pos += int64(read)
	return read
}
