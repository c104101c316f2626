// SPDX-License-Identifier: EPL-2.0

package cache

// ReaderStatus is the kind of a StatusUpdate sent by the worker.
type ReaderStatus int32

const (
	TrackNotLoaded ReaderStatus = iota
	TrackLoaded
	ChunkReadSuccess
	ChunkReadEOF
	ChunkReadInvalid
	// ChunkReadDiscarded is reported for requests dropped because a new
	// track was loaded before they were read.
	ChunkReadDiscarded
)

func (s ReaderStatus) String() string {
	switch s {
	case TrackNotLoaded:
		return "track_not_loaded"
	case TrackLoaded:
		return "track_loaded"
	case ChunkReadSuccess:
		return "chunk_read_success"
	case ChunkReadEOF:
		return "chunk_read_eof"
	case ChunkReadInvalid:
		return "chunk_read_invalid"
	case ChunkReadDiscarded:
		return "chunk_read_discarded"
	default:
		return "unknown"
	}
}

func (s ReaderStatus) isChunkStatus() bool {
	return s >= ChunkReadSuccess
}

// StatusUpdate travels from the worker to the reader. For chunk
// statuses it returns ownership of Chunk.
type StatusUpdate struct {
	Status ReaderStatus
	// Chunk is an arena id, noChunk for track statuses
	Chunk int32
	// MaxReadableFrameIndex is the worker's exclusive end of readable
	// frames after handling this update
	MaxReadableFrameIndex int64
	TrackID               uint64
}

// ReadResult classifies the samples returned by Read.
type ReadResult int

const (
	// Unavailable: nothing came from the cache, output is silence.
	Unavailable ReadResult = iota
	// PartiallyAvailable: a cache miss cut the read short.
	PartiallyAvailable
	// Available: every frame was served. Preroll and frames past the
	// end of the track count as available silence.
	Available
)

func (r ReadResult) String() string {
	switch r {
	case Unavailable:
		return "unavailable"
	case PartiallyAvailable:
		return "partially_available"
	case Available:
		return "available"
	default:
		return "unknown"
	}
}
