// SPDX-License-Identifier: EPL-2.0

// Package aiff decodes 16-bit PCM AIFF through github.com/go-audio/aiff.
//
// The frame count comes from the COMM chunk. go-audio/aiff only decodes
// forward, so a backward seek rewinds the input and decodes up to the
// target frame.
package aiff
