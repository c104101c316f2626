// SPDX-License-Identifier: EPL-2.0

// Package vorbis decodes Ogg Vorbis through github.com/jfreymuth/oggvorbis.
//
// Seeking and length reporting are available when the input is an
// io.ReadSeeker.
package vorbis
