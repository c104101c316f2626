// SPDX-License-Identifier: EPL-2.0

// Package wav decodes and encodes 16-bit PCM WAV files.
//
// The decoder walks RIFF chunks until it finds "data", so files with
// LIST, fact or other metadata chunks before or after the audio are
// accepted. When the input is an io.ReadSeeker the returned source also
// implements audio.FrameSeeker and audio.FrameCounter, which lets the
// cache seek by frame without decoding.
//
//	f, _ := os.Open("track.wav")
//	src, err := wav.Decoder{}.Decode(f)
//
// Writer and WriteWAV16 encode interleaved float32 samples through
// github.com/go-audio/wav:
//
//	out, _ := os.Create("out.wav")
//	err := wav.WriteWAV16(out, 44100, 2, samples)
package wav
