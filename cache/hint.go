// SPDX-License-Identifier: EPL-2.0

package cache

import (
	"cmp"
	"slices"
)

const (
	// FrameCountForward asks for the default window after Frame.
	FrameCountForward int64 = 0
	// FrameCountBackward asks for the default window before Frame.
	FrameCountBackward int64 = -1
)

// Hint names frames that will likely be read soon. A negative
// FrameCount looks backward from Frame by |FrameCount| frames.
type Hint struct {
	Frame      int64
	FrameCount int64
}

// interval resolves h to [lo, hi) clamped to [0, maxReadable).
func (h Hint) interval(defaultFrames, maxReadable int64) (lo, hi int64) {
	count := h.FrameCount
	switch count {
	case FrameCountForward:
		count = defaultFrames
	case FrameCountBackward:
		count = -defaultFrames
	}

	if count >= 0 {
		lo, hi = h.Frame, h.Frame+count
	} else {
		lo, hi = h.Frame+count, h.Frame
	}

	return max(lo, 0), min(hi, maxReadable)
}

// HintAndMaybeWake makes sure the chunks covering hints are cached or
// requested, and wakes the worker once if anything new was requested.
// It never blocks. Must be called from the goroutine that calls Read.
func (r *Reader) HintAndMaybeWake(hints []Hint) {
	if !r.loaded {
		return
	}

	r.staged = r.staged[:0]
	fpc := r.cfg.FramesPerChunk

scan:
	for _, h := range hints {
		lo, hi := h.interval(r.cfg.DefaultHintFrames, r.maxReadable)
		if lo >= hi {
			continue
		}

		last := IndexForFrame(hi-1, fpc)
		for idx := IndexForFrame(lo, fpc); idx <= last; idx++ {
			if c := r.pool.lookup(idx); c != nil {
				// pending chunks are already on their way
				if c.State() == StateReady {
					r.pool.freshen(c)
				}
				continue
			}

			if len(r.staged) == cap(r.staged) {
				r.log.Debug("hint batch full, dropping remaining hints", "chunk", idx, "batch", len(r.staged))
				r.backpressure(BackpressureBatchFull)
				break scan
			}

			c := r.pool.allocateExpiringLRU(idx)
			if c == nil {
				r.log.Debug("no evictable chunk for hint", "chunk", idx)
				r.backpressure(BackpressurePoolExhausted)
				continue
			}
			c.giveToWorker()
			r.staged = append(r.staged, c.id)
		}
	}

	if len(r.staged) == 0 {
		return
	}

	slices.SortFunc(r.staged, func(a, b int32) int {
		return cmp.Compare(r.pool.chunk(a).index, r.pool.chunk(b).index)
	})
	for _, id := range r.staged {
		ok := r.requests.Push(id)
		if debugging {
			assert(ok, "request queue overflow")
		}
	}
	r.updateResident()
	r.worker.wake()
}

func (r *Reader) backpressure(reason BackpressureReason) {
	r.stats.backpressure.Add(1)
	if r.metrics != nil {
		r.metrics.RecordBackpressure(reason)
	}
}
