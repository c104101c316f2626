// SPDX-License-Identifier: EPL-2.0

package wav

import (
	"fmt"
	"io"

	goaudio "github.com/go-audio/audio"
	gowav "github.com/go-audio/wav"

	"github.com/ik5/audcache/utils"
)

const pcmFormat = 1

// Writer streams interleaved float32 samples into a 16-bit PCM WAV file.
// The header sizes are patched on Close, so w must be seekable.
type Writer struct {
	enc      *gowav.Encoder
	channels int
	buf      *goaudio.IntBuffer
}

func NewWriter(w io.WriteSeeker, sampleRate, channels int) (*Writer, error) {
	if channels <= 0 {
		return nil, ErrUnsupportedWavLayout
	}

	return &Writer{
		enc:      gowav.NewEncoder(w, sampleRate, 16, channels, pcmFormat),
		channels: channels,
		buf: &goaudio.IntBuffer{
			Format: &goaudio.Format{
				NumChannels: channels,
				SampleRate:  sampleRate,
			},
			SourceBitDepth: 16,
		},
	}, nil
}

// Write appends samples. len(samples) must be a multiple of the channel count.
func (w *Writer) Write(samples []float32) error {
	if len(samples)%w.channels != 0 {
		return ErrUnalignedSamples
	}
	if len(samples) == 0 {
		return nil
	}

	if cap(w.buf.Data) < len(samples) {
		w.buf.Data = make([]int, len(samples))
	}
	w.buf.Data = w.buf.Data[:len(samples)]

	for i, s := range samples {
		w.buf.Data[i] = int(utils.Float32ToInt16(s))
	}

	if err := w.enc.Write(w.buf); err != nil {
		return fmt.Errorf("write wav samples: %w", err)
	}
	return nil
}

// Close finalizes the header. It does not close the underlying writer.
func (w *Writer) Close() error {
	if err := w.enc.Close(); err != nil {
		return fmt.Errorf("close wav encoder: %w", err)
	}
	return nil
}

// WriteWAV16 writes interleaved samples as a 16-bit PCM WAV in one call.
func WriteWAV16(w io.WriteSeeker, sampleRate, channels int, samples []float32) error {
	wr, err := NewWriter(w, sampleRate, channels)
	if err != nil {
		return err
	}
	if err := wr.Write(samples); err != nil {
		return err
	}
	return wr.Close()
}
