// SPDX-License-Identifier: EPL-2.0

// Package audcache wires the bundled codecs to the chunk cache.
//
// The cache itself lives in the cache subpackage: a fixed pool of
// decoded stereo chunks shared between a real-time reader and a
// background decode worker. This package only supplies the glue that
// turns a file path into something the worker can open.
//
// # Supported Formats
//
//   - WAV (PCM 16-bit) via formats/wav
//   - MP3 via formats/mp3
//   - Ogg Vorbis via formats/vorbis
//   - AIFF (PCM 16-bit) via formats/aiff
//
// # Quick Start
//
//	r, err := cache.New(cache.DefaultConfig())
//	if err != nil {
//	    return err
//	}
//	defer r.Close()
//
//	r.LoadTrack(audcache.FileOpener(audcache.NewRegistry(), "song.mp3"))
//
//	// on the audio callback goroutine
//	r.HintAndMaybeWake([]cache.Hint{{Frame: pos, FrameCount: cache.FrameCountForward}})
//	n, result := r.Read(pos*2, len(buf), false, buf)
//
// Read never blocks. Until the worker has decoded the requested frames
// it returns silence and reports cache.Unavailable or
// cache.PartiallyAvailable.
package audcache
