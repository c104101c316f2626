// SPDX-License-Identifier: EPL-2.0

package cache

import (
	"sync/atomic"

	"github.com/ik5/audcache/audio"
)

const (
	// InvalidIndex marks a chunk that is not bound to any position.
	InvalidIndex int64 = -1
	// Channels is fixed: chunks always hold interleaved stereo.
	Channels = 2
	// DefaultFramesPerChunk covers roughly 170 ms at 48 kHz.
	DefaultFramesPerChunk = 8192

	noChunk int32 = -1
)

// ChunkState tracks who owns a chunk. The reader owns FREE and READY
// chunks; the worker owns READ_PENDING chunks.
type ChunkState int32

const (
	StateFree ChunkState = iota
	StateReady
	StateReadPending
)

func (s ChunkState) String() string {
	switch s {
	case StateFree:
		return "FREE"
	case StateReady:
		return "READY"
	case StateReadPending:
		return "READ_PENDING"
	default:
		return "UNKNOWN"
	}
}

// Chunk is a fixed window of decoded stereo frames. Chunks live in an
// arena and refer to their list neighbours by arena id.
type Chunk struct {
	id         int32
	index      int64
	frameCount int
	samples    []float32
	// only the owner writes state; either side may read it
	state atomic.Int32

	prev, next int32
}

func (c *Chunk) Index() int64      { return c.index }
func (c *Chunk) FrameCount() int   { return c.frameCount }
func (c *Chunk) State() ChunkState { return ChunkState(c.state.Load()) }

// framesPerChunk is the capacity of the chunk in frames.
func (c *Chunk) framesPerChunk() int { return len(c.samples) / Channels }

func (c *Chunk) init(index int64) {
	if debugging {
		assert(c.State() != StateReadPending, "init of a pending chunk")
	}
	c.index = index
	c.frameCount = 0
	c.state.Store(int32(StateReady))
}

func (c *Chunk) free() {
	if debugging {
		assert(c.State() != StateReadPending, "free of a pending chunk")
	}
	c.index = InvalidIndex
	c.frameCount = 0
	c.state.Store(int32(StateFree))
}

func (c *Chunk) giveToWorker() {
	if debugging {
		assert(c.State() == StateReady, "chunk handed to worker is not ready")
	}
	c.state.Store(int32(StateReadPending))
}

func (c *Chunk) takeFromWorker() {
	if debugging {
		assert(c.State() == StateReadPending, "chunk taken from worker is not pending")
	}
	c.state.Store(int32(StateReady))
}

// copySamples copies count samples starting at sample offset into dst.
func (c *Chunk) copySamples(dst []float32, offset, count int) {
	if debugging {
		assert(offset >= 0 && count >= 0, "negative copy range")
		assert(offset+count <= c.frameCount*Channels, "copy beyond decoded frames")
	}
	copy(dst[:count], c.samples[offset:offset+count])
}

// copySamplesReverse copies the same range as copySamples with the
// frame order reversed. Left and right stay in place within a frame.
func (c *Chunk) copySamplesReverse(dst []float32, offset, count int) {
	if debugging {
		assert(offset >= 0 && count >= 0, "negative copy range")
		assert(offset+count <= c.frameCount*Channels, "copy beyond decoded frames")
	}
	src := c.samples[offset : offset+count]
	for i, j := 0, count-Channels; j >= 0; i, j = i+Channels, j-Channels {
		dst[i] = src[j]
		dst[i+1] = src[j+1]
	}
}

// readSampleFrames decodes this chunk's frames from src. It runs on the
// worker while the chunk is pending and returns the number of frames
// decoded. maxReadable is lowered when the source turns out to be
// shorter than announced.
func (c *Chunk) readSampleFrames(src audio.SoundSource, maxReadable *int64) int {
	fpc := c.framesPerChunk()
	frame := FrameForIndex(c.index, fpc)
	remaining := *maxReadable - frame
	toRead := int(min(int64(fpc), remaining))
	if toRead <= 0 {
		c.frameCount = 0
		return 0
	}

	seeked := src.SeekToFrame(frame)
	if seeked != frame {
		// Small seek inaccuracies in damaged files are repaired by
		// decoding forward, but never more than twice the read size.
		if seeked < frame && frame-seeked <= int64(2*toRead) {
			seeked += src.SkipFrames(frame - seeked)
		}
		if seeked != frame {
			*maxReadable = min(seeked, *maxReadable)
			c.frameCount = 0
			return 0
		}
	}

	c.frameCount = src.ReadStereoFrames(toRead, c.samples)
	if c.frameCount < toRead {
		*maxReadable = frame + int64(c.frameCount)
	}
	return c.frameCount
}

// IndexForFrame returns the chunk holding frame. Negative frames map to
// negative indices.
func IndexForFrame(frame int64, framesPerChunk int) int64 {
	fpc := int64(framesPerChunk)
	idx := frame / fpc
	if frame%fpc != 0 && frame < 0 {
		idx--
	}
	return idx
}

// FrameForIndex returns the first frame of chunk index.
func FrameForIndex(index int64, framesPerChunk int) int64 {
	return index * int64(framesPerChunk)
}

// chunkList is the intrusive MRU/LRU list over the chunk arena. head is
// the most recently used chunk.
type chunkList struct {
	arena []Chunk
	head  int32
	tail  int32
}

func newChunkList(arena []Chunk) chunkList {
	return chunkList{arena: arena, head: noChunk, tail: noChunk}
}

func (l *chunkList) linked(id int32) bool {
	c := &l.arena[id]
	return c.prev != noChunk || c.next != noChunk || l.head == id
}

// insertBefore links id in front of before. Passing noChunk appends at
// the tail, which on an empty list makes id the only element.
func (l *chunkList) insertBefore(id, before int32) {
	c := &l.arena[id]
	if debugging {
		assert(!l.linked(id), "insert of a linked chunk")
	}

	if before == noChunk {
		c.prev = l.tail
		c.next = noChunk
		if l.tail != noChunk {
			l.arena[l.tail].next = id
		}
		l.tail = id
		if l.head == noChunk {
			l.head = id
		}
		return
	}

	b := &l.arena[before]
	c.prev = b.prev
	c.next = before
	if b.prev != noChunk {
		l.arena[b.prev].next = id
	} else {
		l.head = id
	}
	b.prev = id
}

// unlink removes id from the list. Unlinked chunks are left alone.
func (l *chunkList) unlink(id int32) {
	if !l.linked(id) {
		return
	}
	c := &l.arena[id]

	if c.prev != noChunk {
		l.arena[c.prev].next = c.next
	} else {
		l.head = c.next
	}
	if c.next != noChunk {
		l.arena[c.next].prev = c.prev
	} else {
		l.tail = c.prev
	}
	c.prev, c.next = noChunk, noChunk
}

func (l *chunkList) reset() {
	for i := range l.arena {
		l.arena[i].prev, l.arena[i].next = noChunk, noChunk
	}
	l.head, l.tail = noChunk, noChunk
}
