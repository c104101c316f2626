// SPDX-License-Identifier: EPL-2.0

package audio

import "fmt"

// StereoMixer converts a source with any channel count into interleaved
// stereo. Mono is duplicated to both sides; sources with more than two
// channels are folded by averaging even channels into left and odd
// channels into right.
type StereoMixer struct {
	src Source
	tmp []float32
	// samples of an incomplete frame held at the start of tmp
	partial int
}

func NewStereoMixer(src Source) *StereoMixer {
	return &StereoMixer{
		src: src,
		tmp: make([]float32, 4096),
	}
}

func (m *StereoMixer) SampleRate() int { return m.src.SampleRate() }
func (m *StereoMixer) Channels() int   { return 2 }
func (m *StereoMixer) BufSize() int    { return m.src.BufSize() }
func (m *StereoMixer) Close() error {
	err := m.src.Close()
	if err != nil {
		return fmt.Errorf("%w", err)
	}

	return nil
}

// ReadSamples fills dst with whole stereo frames. len(dst) must be even.
// A source read that ends inside a frame keeps the partial frame until
// the rest of it arrives.
func (m *StereoMixer) ReadSamples(dst []float32) (int, error) {
	if len(dst)%2 != 0 {
		return 0, ErrInvalidDstSize
	}
	if len(dst) == 0 {
		return 0, nil
	}

	channels := m.src.Channels()
	if channels <= 0 {
		return 0, ErrNoChannels
	}

	// Grow tmp buffer if needed but never shrink it
	samplesNeeded := len(dst) / 2 * channels
	if cap(m.tmp) < samplesNeeded {
		tmp := make([]float32, max(samplesNeeded, 8192))
		copy(tmp, m.tmp[:m.partial])
		m.tmp = tmp
	}
	m.tmp = m.tmp[:samplesNeeded]

	for {
		n, err := m.src.ReadSamples(m.tmp[m.partial:])
		avail := m.partial + n
		got := avail / channels

		m.mix(dst, got, channels)
		m.partial = copy(m.tmp, m.tmp[got*channels:avail])

		if got > 0 || n == 0 || err != nil {
			return got * 2, err
		}
	}
}

// mix writes frames complete frames from tmp into dst as stereo.
func (m *StereoMixer) mix(dst []float32, frames, channels int) {
	switch channels {
	case 2:
		copy(dst, m.tmp[:frames*2])
		return
	case 1:
		for f := range frames {
			v := m.tmp[f]
			dst[f<<1] = v
			dst[f<<1+1] = v
		}
		return
	}

	left := float32(1.0) / float32((channels+1)/2)
	right := float32(1.0) / float32(channels/2)
	for f := range frames {
		base := f * channels
		var l, r float32
		for c := 0; c < channels; c += 2 {
			l += m.tmp[base+c]
		}
		for c := 1; c < channels; c += 2 {
			r += m.tmp[base+c]
		}
		dst[f<<1] = l * left
		dst[f<<1+1] = r * right
	}
}
