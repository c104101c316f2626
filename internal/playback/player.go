// SPDX-License-Identifier: EPL-2.0

// Package playback drives a cache reader the way an audio callback
// would: fixed-size reads at a steady position, hinting ahead of the
// play head.
package playback

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/charmbracelet/log"

	"github.com/ik5/audcache/audio"
	"github.com/ik5/audcache/cache"
)

var (
	ErrLoadTimeout   = errors.New("track did not load in time")
	ErrUnknownLength = errors.New("reverse playback needs a track of known length")
)

// retryInterval spaces repeated reads while an offline render waits
// for the worker.
const retryInterval = time.Millisecond

// Sink receives interleaved stereo output.
type Sink interface {
	Write(samples []float32) error
}

// SinkFactory creates the sink once the track's sample rate is known.
type SinkFactory func(sampleRate int) (Sink, error)

type Options struct {
	BufferFrames int
	Reverse      bool
	// Realtime paces callbacks at the track's sample rate and keeps
	// whatever the cache returns, silence included. Otherwise each
	// callback waits until the cache can serve it in full.
	Realtime    bool
	LoadTimeout time.Duration
}

// Result summarizes one playback run.
type Result struct {
	SampleRate int
	Frames     int64
	Callbacks  int
	// Underruns counts callbacks that were not served in full
	Underruns int
}

type player struct {
	reader *cache.Reader
	log    *log.Logger
	opts   Options
	buf    []float32
	hints  []cache.Hint
	result Result
}

// Play loads open into r and plays the whole track into the sink
// returned by newSink. r must not be used by another goroutine while
// Play runs.
func Play(ctx context.Context, r *cache.Reader, open cache.OpenFunc, newSink SinkFactory, opts Options, logger *log.Logger) (Result, error) {
	if opts.BufferFrames <= 0 {
		return Result{}, fmt.Errorf("play: buffer of %d frames", opts.BufferFrames)
	}

	p := &player{
		reader: r,
		log:    logger,
		opts:   opts,
		buf:    make([]float32, opts.BufferFrames*cache.Channels),
		hints:  make([]cache.Hint, 2),
	}

	sampleRate, err := p.load(ctx, open)
	if err != nil {
		return Result{}, err
	}
	p.result.SampleRate = sampleRate

	sink, err := newSink(sampleRate)
	if err != nil {
		return Result{}, fmt.Errorf("play: create sink: %w", err)
	}

	if err := p.run(ctx, sink); err != nil {
		return p.result, err
	}
	return p.result, nil
}

// load hands open to the worker and waits for the reader to see the
// track.
func (p *player) load(ctx context.Context, open cache.OpenFunc) (int, error) {
	type opened struct {
		rate int
		err  error
	}
	done := make(chan opened, 1)

	p.reader.LoadTrack(func() (audio.SoundSource, error) {
		src, err := open()
		if err != nil {
			done <- opened{err: err}
			return nil, err
		}
		done <- opened{rate: src.SampleRate()}
		return src, nil
	})

	timeout := time.NewTimer(p.opts.LoadTimeout)
	defer timeout.Stop()

	var o opened
	select {
	case o = <-done:
	case <-ctx.Done():
		return 0, ctx.Err()
	case <-timeout.C:
		return 0, ErrLoadTimeout
	}
	if o.err != nil {
		return 0, fmt.Errorf("play: open track: %w", o.err)
	}

	for !p.reader.Loaded() {
		select {
		case <-ctx.Done():
			return 0, ctx.Err()
		case <-timeout.C:
			return 0, ErrLoadTimeout
		case <-time.After(retryInterval):
		}
		p.reader.Read(0, 0, false, nil)
	}

	p.log.Info("track ready", "frames", p.reader.MaxReadableFrameIndex(), "rate", o.rate)
	return o.rate, nil
}

func (p *player) run(ctx context.Context, sink Sink) error {
	var (
		ticker *time.Ticker
		tick   <-chan time.Time
	)
	if p.opts.Realtime {
		period := time.Duration(float64(time.Second) * float64(p.opts.BufferFrames) / float64(p.result.SampleRate))
		ticker = time.NewTicker(period)
		defer ticker.Stop()
		tick = ticker.C
	}

	pos := int64(0)
	if p.opts.Reverse {
		pos = p.reader.MaxReadableFrameIndex()
		if pos == audio.UnknownLength {
			return ErrUnknownLength
		}
	}

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		start, frames := p.next(pos)
		if frames <= 0 {
			return nil
		}

		if tick != nil {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-tick:
			}
		}

		out := p.buf[:frames*cache.Channels]
		if err := p.callback(ctx, pos, start, out); err != nil {
			return err
		}
		if err := sink.Write(out); err != nil {
			return fmt.Errorf("play: write output: %w", err)
		}

		p.result.Frames += int64(frames)
		if p.opts.Reverse {
			pos = start
		} else {
			pos = start + int64(frames)
		}
	}
}

// next returns the first frame and length of the callback at pos. The
// end of the track is re-read on every call since it can shrink.
func (p *player) next(pos int64) (start int64, frames int) {
	size := int64(p.opts.BufferFrames)
	if p.opts.Reverse {
		start = max(pos-size, 0)
		return start, int(pos - start)
	}

	end := min(pos+size, p.reader.MaxReadableFrameIndex())
	return pos, int(max(end-pos, 0))
}

// callback performs one audio callback. Offline renders retry until
// the cache serves every frame.
func (p *player) callback(ctx context.Context, pos, start int64, out []float32) error {
	p.result.Callbacks++

	// the callback's own frames first, then the look-ahead past them
	frames := int64(len(out) / cache.Channels)
	if p.opts.Reverse {
		p.hints[0] = cache.Hint{Frame: pos, FrameCount: -frames}
		p.hints[1] = cache.Hint{Frame: start, FrameCount: cache.FrameCountBackward}
	} else {
		p.hints[0] = cache.Hint{Frame: start, FrameCount: frames}
		p.hints[1] = cache.Hint{Frame: start + frames, FrameCount: cache.FrameCountForward}
	}

	underrun := false
	for {
		p.reader.HintAndMaybeWake(p.hints)
		_, res := p.reader.Read(int(start)*cache.Channels, len(out), p.opts.Reverse, out)
		if res == cache.Available {
			break
		}
		underrun = true
		if p.opts.Realtime {
			break
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(retryInterval):
		}
	}

	if underrun {
		p.result.Underruns++
		p.log.Debug("underrun", "frame", start, "frames", len(out)/cache.Channels)
	}
	return nil
}
