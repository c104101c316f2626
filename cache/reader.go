// SPDX-License-Identifier: EPL-2.0

package cache

import (
	"context"
	"sync"

	"github.com/charmbracelet/log"

	"github.com/ik5/audcache/internal/fifo"
)

// trackWorker is the decode side as seen by the reader.
type trackWorker interface {
	wake()
	loadTrack(open OpenFunc)
	unloadTrack()
}

// Reader serves decoded stereo samples from a fixed pool of chunks
// filled by a background worker.
//
// Read and HintAndMaybeWake belong to a single real-time goroutine and
// never block. LoadTrack, UnloadTrack, Stats and Close may be called
// from any goroutine; Close must not race with Read.
type Reader struct {
	cfg     Config
	log     *log.Logger
	metrics Metrics

	pool     *pool
	requests *fifo.Ring[int32]
	statuses *fifo.Ring[StatusUpdate]
	staged   []int32

	drainLimit  int
	loaded      bool
	trackID     uint64
	maxReadable int64

	worker trackWorker
	stats  counters

	cancel    context.CancelFunc
	done      chan struct{}
	closeOnce sync.Once
}

// New allocates the chunk pool and starts the decode worker.
func New(cfg Config, opts ...Option) (*Reader, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	r := newReader(cfg, opts...)
	w := newWorker(r.pool.chunks, r.requests, r.statuses, r.log, r.metrics)
	r.worker = w

	ctx, cancel := context.WithCancel(context.Background())
	r.cancel = cancel
	r.done = make(chan struct{})
	go func() {
		defer close(r.done)
		w.Run(ctx)
	}()

	r.log.Debug("cache started",
		"chunks", cfg.PoolChunks,
		"frames_per_chunk", cfg.FramesPerChunk,
		"bytes", cfg.MemoryBytes())

	return r, nil
}

// newReader builds a reader without a worker. cfg must be valid.
func newReader(cfg Config, opts ...Option) *Reader {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	statuses := fifo.New[StatusUpdate](cfg.statusCapacity())
	r := &Reader{
		cfg:        cfg,
		log:        o.logger,
		metrics:    o.metrics,
		pool:       newPool(cfg.PoolChunks, cfg.FramesPerChunk),
		requests:   fifo.New[int32](cfg.PoolChunks),
		statuses:   statuses,
		staged:     make([]int32, 0, cfg.MaxChunksPerHint),
		drainLimit: cfg.drainLimit(statuses.Cap()),
	}
	r.pool.onEvict = r.evicted

	return r
}

// LoadTrack asks the worker to open a new track. Cached audio of the
// previous track is dropped once the worker confirms the load.
func (r *Reader) LoadTrack(open OpenFunc) {
	r.worker.loadTrack(open)
}

// UnloadTrack asks the worker to close the current track.
func (r *Reader) UnloadTrack() {
	r.worker.unloadTrack()
}

// Loaded reports whether the reader has seen a track load. Reader
// goroutine only.
func (r *Reader) Loaded() bool { return r.loaded }

// MaxReadableFrameIndex is the exclusive end of frames the reader will
// try to serve. Reader goroutine only.
func (r *Reader) MaxReadableFrameIndex() int64 { return r.maxReadable }

// Read fills out[:numSamples] with interleaved stereo samples starting
// at startSample and returns the number of samples written, which is
// numSamples after normalization. A reverse read covers the same frames
// written back to front. Frames that are not cached come back as
// silence.
func (r *Reader) Read(startSample, numSamples int, reverse bool, out []float32) (int, ReadResult) {
	if startSample%Channels != 0 {
		r.log.Debug("read start not frame aligned", "sample", startSample)
		startSample--
	}
	if numSamples%Channels != 0 {
		r.log.Debug("read count not frame aligned", "samples", numSamples)
		numSamples--
	}
	if numSamples < 0 {
		return 0, Unavailable
	}
	if numSamples > len(out) {
		r.log.Debug("read count exceeds buffer", "samples", numSamples, "buffer", len(out))
		numSamples = len(out) - len(out)%Channels
	}
	out = out[:numSamples]

	r.drainStatuses()

	if !r.loaded || numSamples == 0 {
		clear(out)
		r.recordRead(Unavailable)
		return numSamples, Unavailable
	}

	start := int64(startSample / Channels)
	end := start + int64(numSamples/Channels)
	dst := func(f0, f1 int64) []float32 {
		if reverse {
			return out[(end-f1)*Channels : (end-f0)*Channels]
		}
		return out[(f0-start)*Channels : (f1-start)*Channels]
	}

	frame := start
	if frame < 0 {
		preroll := min(end, 0)
		clear(dst(frame, preroll))
		frame = preroll
	}

	fpc := r.cfg.FramesPerChunk
	limit := min(end, r.maxReadable)
	missed := false
	for frame < limit {
		idx := IndexForFrame(frame, fpc)
		c := r.pool.lookup(idx)
		if c == nil || c.State() != StateReady {
			missed = true
			r.lookup(false)
			break
		}
		r.lookup(true)
		r.pool.freshen(c)

		chunkStart := FrameForIndex(idx, fpc)
		segEnd := min(limit, chunkStart+int64(c.frameCount))
		if segEnd <= frame {
			// short chunk ending before the requested frame
			missed = true
			break
		}

		offset := int(frame-chunkStart) * Channels
		count := int(segEnd-frame) * Channels
		if reverse {
			c.copySamplesReverse(dst(frame, segEnd), offset, count)
		} else {
			c.copySamples(dst(frame, segEnd), offset, count)
		}
		frame = segEnd
	}

	// past the end of the track, or after a miss
	if frame < end {
		clear(dst(frame, end))
	}

	result := Available
	if missed {
		result = PartiallyAvailable
		if frame == start {
			result = Unavailable
		}
	}
	r.recordRead(result)

	return numSamples, result
}

// drainStatuses handles at most drainLimit updates so a deep queue
// cannot stretch a single Read.
func (r *Reader) drainStatuses() {
	for range r.drainLimit {
		u, ok := r.statuses.Pop()
		if !ok {
			return
		}
		r.handleStatus(u)
	}
}

func (r *Reader) handleStatus(u StatusUpdate) {
	if r.metrics != nil {
		r.metrics.RecordStatus(u.Status)
	}

	switch u.Status {
	case TrackLoaded:
		r.pool.freeAll()
		r.loaded = true
		r.trackID = u.TrackID
		r.maxReadable = u.MaxReadableFrameIndex
		r.updateResident()
		return
	case TrackNotLoaded:
		r.pool.freeAll()
		r.loaded = false
		r.trackID = u.TrackID
		r.maxReadable = 0
		r.updateResident()
		return
	}

	if debugging {
		assert(u.Status.isChunkStatus(), "unknown reader status")
	}

	c := r.pool.chunk(u.Chunk)
	c.takeFromWorker()

	current := r.loaded && u.TrackID == r.trackID
	if current {
		r.maxReadable = min(r.maxReadable, u.MaxReadableFrameIndex)
	}

	if u.Status == ChunkReadSuccess && current && r.pool.lookup(c.index) == c {
		r.pool.freshen(c)
	} else {
		r.pool.free(c)
	}
	r.updateResident()
}

func (r *Reader) evicted(*Chunk) {
	r.stats.evictions.Add(1)
	if r.metrics != nil {
		r.metrics.RecordEviction()
	}
}

func (r *Reader) lookup(hit bool) {
	if hit {
		r.stats.hits.Add(1)
	} else {
		r.stats.misses.Add(1)
	}
	if r.metrics != nil {
		r.metrics.RecordLookup(hit)
	}
}

func (r *Reader) recordRead(result ReadResult) {
	if r.metrics != nil {
		r.metrics.RecordRead(result)
	}
}

func (r *Reader) updateResident() {
	n := r.pool.resident()
	r.stats.resident.Store(int64(n))
	if r.metrics != nil {
		r.metrics.SetResidentChunks(n)
	}
}

// Close stops the worker and releases every chunk. Reads after Close
// return silence.
func (r *Reader) Close() error {
	r.closeOnce.Do(func() {
		if r.cancel != nil {
			r.cancel()
			<-r.done
		}

		for {
			if _, ok := r.requests.Pop(); !ok {
				break
			}
		}
		for {
			if _, ok := r.statuses.Pop(); !ok {
				break
			}
		}
		r.pool.releaseAll()
		r.loaded = false
		r.maxReadable = 0
		r.updateResident()
	})
	return nil
}
