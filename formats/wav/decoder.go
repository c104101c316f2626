// SPDX-License-Identifier: EPL-2.0

package wav

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"

	"github.com/ik5/audcache/audio"
	"github.com/ik5/audcache/utils"
)

const (
	riffHeaderSize  = 12
	chunkHeaderSize = 8
	bytesPerSample  = 2
	// streaming writers leave the data size at 0 or all ones
	unknownDataSize = 0xFFFFFFFF
)

type wavSource struct {
	r          io.Reader
	seeker     io.Seeker // nil when r cannot seek
	sampleRate int
	channels   int
	dataOffset int64 // absolute offset of the first PCM byte
	frames     int64 // -1 when unknown
	remaining  int64 // PCM bytes left in the data chunk, -1 when unknown
	// assume PCM 16-bit
	buf []byte
}

func (s *wavSource) SampleRate() int { return s.sampleRate }
func (s *wavSource) Channels() int   { return s.channels }
func (s *wavSource) Close() error    { return nil }
func (s *wavSource) BufSize() int    { return cap(s.buf) / bytesPerSample }
func (s *wavSource) Frames() int64   { return s.frames }

// SeekFrame positions the reader at frame, clamped to the data chunk.
func (s *wavSource) SeekFrame(frame int64) (int64, error) {
	if s.seeker == nil {
		return 0, audio.ErrNotSeekable
	}

	frame = max(frame, 0)
	if s.frames >= 0 {
		frame = min(frame, s.frames)
	}

	blockAlign := int64(s.channels * bytesPerSample)
	if _, err := s.seeker.Seek(s.dataOffset+frame*blockAlign, io.SeekStart); err != nil {
		return 0, fmt.Errorf("seek frame %d: %w", frame, err)
	}
	if s.frames >= 0 {
		s.remaining = (s.frames - frame) * blockAlign
	}

	return frame, nil
}

func (s *wavSource) ReadSamples(dst []float32) (int, error) {
	if len(dst) == 0 {
		return 0, nil
	}

	// Read frames of int16 interleaved, convert to float32
	need := len(dst) * bytesPerSample
	if s.remaining >= 0 {
		need = min(need, int(s.remaining)&^1)
		if need == 0 {
			return 0, io.EOF
		}
	}
	if cap(s.buf) < need {
		s.buf = make([]byte, need)
	}
	s.buf = s.buf[:need]

	n, err := io.ReadFull(s.r, s.buf)
	if err != nil && err != io.EOF && err != io.ErrUnexpectedEOF {
		return 0, fmt.Errorf("%w", err)
	}

	if s.remaining >= 0 {
		s.remaining -= int64(n)
	}
	samples := n / bytesPerSample

	for i := range samples {
		dst[i] = utils.Int16ToFloat32(int16(binary.LittleEndian.Uint16(s.buf[2*i : 2*i+2])))
	}

	if samples == 0 && err != nil {
		return 0, io.EOF
	}
	return samples, nil
}

type Decoder struct{}

// Decode parses the RIFF header and walks chunks until "data".
// When r is an io.ReadSeeker the returned source supports
// audio.FrameSeeker.
func (Decoder) Decode(r io.Reader) (audio.Source, error) {
	header := make([]byte, riffHeaderSize)
	if _, err := io.ReadFull(r, header); err != nil {
		return nil, fmt.Errorf("%w", err)
	}

	if !bytes.Equal(header[:4], []byte("RIFF")) || !bytes.Equal(header[8:12], []byte("WAVE")) {
		return nil, ErrNotWavFile
	}

	var (
		offset     = int64(riffHeaderSize)
		channels   int
		sampleRate int
		haveFmt    bool
		chunk      = make([]byte, chunkHeaderSize)
	)

	for {
		if _, err := io.ReadFull(r, chunk); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrUnsupportedWavChunks, err)
		}
		offset += chunkHeaderSize

		id := string(chunk[:4])
		size := int64(binary.LittleEndian.Uint32(chunk[4:8]))

		switch id {
		case "fmt ":
			if size < 16 {
				return nil, ErrUnsupportedWavLayout
			}
			body := make([]byte, size+size&1)
			if _, err := io.ReadFull(r, body); err != nil {
				return nil, fmt.Errorf("%w: %w", ErrUnsupportedWavLayout, err)
			}
			offset += int64(len(body))

			audioFormat := binary.LittleEndian.Uint16(body[0:2])
			channels = int(binary.LittleEndian.Uint16(body[2:4]))
			sampleRate = int(binary.LittleEndian.Uint32(body[4:8]))
			bitsPerSample := int(binary.LittleEndian.Uint16(body[14:16]))

			if audioFormat != 1 || bitsPerSample != 16 {
				return nil, ErrOnlyPCM16bitSupported
			}
			if channels == 0 {
				return nil, ErrUnsupportedWavLayout
			}
			haveFmt = true

		case "data":
			if !haveFmt {
				return nil, ErrUnsupportedWavLayout
			}

			frames, remaining := int64(-1), int64(-1)
			if size != 0 && size != unknownDataSize {
				frames = size / int64(channels*bytesPerSample)
				remaining = size
			}

			src := &wavSource{
				r:          r,
				sampleRate: sampleRate,
				channels:   channels,
				dataOffset: offset,
				frames:     frames,
				remaining:  remaining,
				buf:        make([]byte, 4096),
			}
			if rs, ok := r.(io.Seeker); ok {
				src.seeker = rs
			}
			return src, nil

		default:
			// Chunks are word aligned
			skip := size + size&1
			if _, err := io.CopyN(io.Discard, r, skip); err != nil {
				return nil, fmt.Errorf("%w: %w", ErrUnsupportedWavChunks, err)
			}
			offset += skip
		}
	}
}
