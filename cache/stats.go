// SPDX-License-Identifier: EPL-2.0

package cache

import "sync/atomic"

// Stats is a snapshot of reader counters.
type Stats struct {
	Hits           uint64
	Misses         uint64
	Evictions      uint64
	Backpressure   uint64
	ResidentChunks int
	PoolChunks     int
}

type counters struct {
	hits         atomic.Uint64
	misses       atomic.Uint64
	evictions    atomic.Uint64
	backpressure atomic.Uint64
	resident     atomic.Int64
}

// Stats is safe to call from any goroutine.
func (r *Reader) Stats() Stats {
	return Stats{
		Hits:           r.stats.hits.Load(),
		Misses:         r.stats.misses.Load(),
		Evictions:      r.stats.evictions.Load(),
		Backpressure:   r.stats.backpressure.Load(),
		ResidentChunks: int(r.stats.resident.Load()),
		PoolChunks:     r.cfg.PoolChunks,
	}
}
