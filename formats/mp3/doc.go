// SPDX-License-Identifier: EPL-2.0

// Package mp3 decodes MPEG-1/2 Layer III audio through
// github.com/hajimehoshi/go-mp3.
//
// Output is always 16-bit stereo at the stream's sample rate. When the
// input is an io.ReadSeeker the source reports its length in frames and
// seeks by frame, which is what the cache worker needs for random access.
package mp3
