// SPDX-License-Identifier: EPL-2.0

// Package audio provides the decoding primitives the chunk cache reads from.
//
// # Source Interface
//
// Decoders produce a Source, a forward stream of interleaved float32
// samples:
//
//	type Source interface {
//	    SampleRate() int
//	    Channels() int
//	    ReadSamples(dst []float32) (int, error)
//	    BufSize() int
//	    Close() error
//	}
//
// Sources may additionally implement FrameSeeker for random access and
// FrameCounter when their length is known up front.
//
// # Sound Sources
//
// NewSoundSource turns any Source into a SoundSource: a stereo view that
// is addressed by frame. Mono input is duplicated to both channels and
// wider layouts are folded down by StereoMixer:
//
//	ss, err := audio.NewSoundSource(src)
//	ss.SeekToFrame(44100)
//	n := ss.ReadStereoFrames(1024, buf)
//
// A SoundSource never returns errors. A seek that lands short or a read
// that returns fewer frames than asked is how callers learn the stream
// ended early. MaxFrameIndex reports UnknownLength for streams that
// cannot tell their length.
//
// # Format Registry
//
// The registry maps file extensions to decoders:
//
//	registry := audio.NewRegistry()
//	registry.Register("wav", wav.Decoder{})
//	decoder, err := registry.ForPath("track.wav")
//
// # Sample Format
//
// Samples are float32 in the range [-1.0, 1.0], with 0.0 as silence.
//
// # Error Handling
//
// ReadSamples returns io.EOF when the stream is exhausted. It may return
// the final samples together with io.EOF.
package audio
