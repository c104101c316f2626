// SPDX-License-Identifier: EPL-2.0

package cache

import "time"

// Metrics receives cache events. Pass nil to disable collection; the
// reader then skips every call.
//
// Methods other than ObserveDecode run on the real-time goroutine and
// must not block.
type Metrics interface {
	// RecordRead records the availability of one Read call
	RecordRead(result ReadResult)

	// RecordLookup records a chunk lookup made by Read
	RecordLookup(hit bool)

	// RecordEviction records an LRU chunk evicted to make room
	RecordEviction()

	// RecordBackpressure records a hint that could not be staged
	RecordBackpressure(reason BackpressureReason)

	// RecordStatus records a status update drained from the worker
	RecordStatus(status ReaderStatus)

	// SetResidentChunks records the number of chunks bound to an index
	SetResidentChunks(n int)

	// ObserveDecode records one chunk decode on the worker
	ObserveDecode(frames int, duration time.Duration)
}

// BackpressureReason says why a hinted chunk was not requested.
type BackpressureReason string

const (
	// BackpressurePoolExhausted means every chunk was pending.
	BackpressurePoolExhausted BackpressureReason = "pool_exhausted"
	// BackpressureBatchFull means the per-call staging batch was full.
	BackpressureBatchFull BackpressureReason = "batch_full"
)
