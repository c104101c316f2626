// SPDX-License-Identifier: EPL-2.0

package cache

import (
	"context"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/ik5/audcache/audio"
	"github.com/ik5/audcache/internal/fifo"
)

// OpenFunc opens the track to decode. It runs on the worker goroutine
// and may block.
type OpenFunc func() (audio.SoundSource, error)

const (
	minStatusBackoff = 100 * time.Microsecond
	maxStatusBackoff = 10 * time.Millisecond
)

// trackRequest is a pending load; a nil open unloads.
type trackRequest struct {
	open OpenFunc
}

// worker decodes requested chunks on its own goroutine. It only touches
// chunks it received through the request queue and the decoder.
type worker struct {
	log     *log.Logger
	metrics Metrics

	chunks   []Chunk
	requests *fifo.Ring[int32]
	statuses *fifo.Ring[StatusUpdate]
	wakeCh   chan struct{}

	mu      sync.Mutex
	pending *trackRequest

	src         audio.SoundSource
	trackID     uint64
	maxReadable int64
}

func newWorker(chunks []Chunk, requests *fifo.Ring[int32], statuses *fifo.Ring[StatusUpdate], logger *log.Logger, m Metrics) *worker {
	return &worker{
		log:      logger,
		metrics:  m,
		chunks:   chunks,
		requests: requests,
		statuses: statuses,
		wakeCh:   make(chan struct{}, 1),
	}
}

// wake never blocks; wakes coalesce while the worker is busy.
func (w *worker) wake() {
	select {
	case w.wakeCh <- struct{}{}:
	default:
	}
}

func (w *worker) loadTrack(open OpenFunc) {
	if open == nil {
		w.unloadTrack()
		return
	}
	w.setPending(&trackRequest{open: open})
}

func (w *worker) unloadTrack() {
	w.setPending(&trackRequest{})
}

func (w *worker) setPending(req *trackRequest) {
	w.mu.Lock()
	w.pending = req
	w.mu.Unlock()
	w.wake()
}

func (w *worker) takePending() *trackRequest {
	w.mu.Lock()
	defer w.mu.Unlock()
	req := w.pending
	w.pending = nil
	return req
}

// Run processes track changes and chunk requests until ctx is done.
func (w *worker) Run(ctx context.Context) {
	defer w.closeSource()

	for {
		select {
		case <-ctx.Done():
			return
		case <-w.wakeCh:
		}

		for ctx.Err() == nil {
			if req := w.takePending(); req != nil {
				w.switchTrack(ctx, req)
				continue
			}

			id, ok := w.requests.Pop()
			if !ok {
				break
			}
			w.readChunk(ctx, id)
		}
	}
}

func (w *worker) switchTrack(ctx context.Context, req *trackRequest) {
	// requests queued for the old track are returned unread
	for {
		id, ok := w.requests.Pop()
		if !ok {
			break
		}
		w.chunks[id].frameCount = 0
		w.report(ctx, StatusUpdate{
			Status:                ChunkReadDiscarded,
			Chunk:                 id,
			MaxReadableFrameIndex: w.maxReadable,
			TrackID:               w.trackID,
		})
	}

	w.closeSource()
	w.trackID++
	w.maxReadable = 0

	if req.open == nil {
		w.log.Debug("track unloaded", "track", w.trackID)
		w.report(ctx, StatusUpdate{Status: TrackNotLoaded, Chunk: noChunk, TrackID: w.trackID})
		return
	}

	src, err := req.open()
	if err != nil {
		w.log.Error("failed to open track", "track", w.trackID, "err", err)
		w.report(ctx, StatusUpdate{Status: TrackNotLoaded, Chunk: noChunk, TrackID: w.trackID})
		return
	}

	w.src = src
	w.maxReadable = max(src.MaxFrameIndex(), 0)
	w.log.Info("track loaded", "track", w.trackID, "frames", w.maxReadable, "rate", src.SampleRate())
	w.report(ctx, StatusUpdate{
		Status:                TrackLoaded,
		Chunk:                 noChunk,
		MaxReadableFrameIndex: w.maxReadable,
		TrackID:               w.trackID,
	})
}

func (w *worker) readChunk(ctx context.Context, id int32) {
	c := &w.chunks[id]
	if debugging {
		assert(c.State() == StateReadPending, "worker received a chunk it does not own")
	}

	start := time.Now()
	status := w.fill(c)
	if w.metrics != nil && status == ChunkReadSuccess {
		w.metrics.ObserveDecode(c.frameCount, time.Since(start))
	}

	w.report(ctx, StatusUpdate{
		Status:                status,
		Chunk:                 id,
		MaxReadableFrameIndex: w.maxReadable,
		TrackID:               w.trackID,
	})
}

func (w *worker) fill(c *Chunk) ReaderStatus {
	c.frameCount = 0
	if w.src == nil || c.index < 0 {
		return ChunkReadInvalid
	}

	frame := FrameForIndex(c.index, c.framesPerChunk())
	if frame >= w.maxReadable {
		return ChunkReadEOF
	}

	before := w.maxReadable
	if n := c.readSampleFrames(w.src, &w.maxReadable); n > 0 {
		if w.maxReadable < before {
			w.log.Warn("short chunk read", "chunk", c.index, "frames", n, "max_frame", w.maxReadable)
		}
		return ChunkReadSuccess
	}

	w.log.Warn("chunk read failed", "chunk", c.index, "frame", frame, "max_frame", w.maxReadable)
	if frame >= w.maxReadable {
		return ChunkReadEOF
	}
	return ChunkReadInvalid
}

// report pushes u, backing off while the reader catches up.
func (w *worker) report(ctx context.Context, u StatusUpdate) {
	backoff := minStatusBackoff
	for !w.statuses.Push(u) {
		select {
		case <-ctx.Done():
			return
		case <-time.After(backoff):
		}
		backoff = min(backoff*2, maxStatusBackoff)
	}
}

func (w *worker) closeSource() {
	if w.src == nil {
		return
	}
	if err := w.src.Close(); err != nil {
		w.log.Warn("failed to close track", "track", w.trackID, "err", err)
	}
	w.src = nil
}
