// SPDX-License-Identifier: EPL-2.0

package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/ik5/audcache"
	"github.com/ik5/audcache/cache"
	"github.com/ik5/audcache/config"
	"github.com/ik5/audcache/formats/wav"
	"github.com/ik5/audcache/internal/playback"
	promcache "github.com/ik5/audcache/metrics/prometheus"
)

const shutdownTimeout = 5 * time.Second

var (
	renderReverse  bool
	renderRealtime bool
	renderFrames   int
)

var renderCmd = &cobra.Command{
	Use:   "render <input> <output.wav>",
	Short: "Play a track through the cache into a WAV file",
	Long: `render loads the input track into the chunk cache and reads it back
the way an audio callback would, hinting ahead of the play head. The
output is written as 16-bit stereo PCM.

Without --realtime every callback waits for the cache, so the output is
a faithful copy of the input. With --realtime callbacks are paced at the
track's sample rate and cache misses come out as silence.`,
	Args: cobra.ExactArgs(2),
	RunE: runRender,
}

func init() {
	renderCmd.Flags().BoolVar(&renderReverse, "reverse", false, "play from the end of the track to the start")
	renderCmd.Flags().BoolVar(&renderRealtime, "realtime", false, "pace callbacks at the track's sample rate")
	renderCmd.Flags().IntVar(&renderFrames, "buffer-frames", 0, "frames per callback (default from config)")
}

func runRender(cmd *cobra.Command, args []string) error {
	inPath, outPath := args[0], args[1]

	cfg, err := config.Load(cfgFile)
	if err != nil {
		return err
	}
	applyRenderFlags(cmd, cfg)

	logger, logCloser, err := config.NewLogger(cfg.Logging)
	if err != nil {
		return err
	}
	defer logCloser.Close()

	var (
		reg     *prometheus.Registry
		metrics cache.Metrics
	)
	if cfg.Metrics.Enabled {
		reg = prometheus.NewRegistry()
		reg.MustRegister(collectors.NewGoCollector())
		metrics = promcache.NewCacheMetrics(reg)
	}

	rc := cfg.Cache.ReaderConfig()
	r, err := cache.New(rc, cache.WithLogger(logger.WithPrefix("cache")), cache.WithMetrics(metrics))
	if err != nil {
		return err
	}
	defer r.Close()

	logger.Info("cache ready",
		"chunks", rc.PoolChunks,
		"frames_per_chunk", rc.FramesPerChunk,
		"memory", humanize.IBytes(rc.MemoryBytes()))

	out, err := os.Create(outPath)
	if err != nil {
		return fmt.Errorf("create output: %w", err)
	}
	defer out.Close()

	var writer *wav.Writer
	newSink := func(sampleRate int) (playback.Sink, error) {
		w, err := wav.NewWriter(out, sampleRate, cache.Channels)
		if err != nil {
			return nil, err
		}
		writer = w
		return w, nil
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)
	played := make(chan struct{})

	if reg != nil {
		srv := &http.Server{
			Addr:              fmt.Sprintf(":%d", cfg.Metrics.Port),
			Handler:           promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}),
			ReadHeaderTimeout: 5 * time.Second,
		}
		logger.Info("serving metrics", "addr", srv.Addr)

		g.Go(func() error {
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("metrics server: %w", err)
			}
			return nil
		})
		g.Go(func() error {
			select {
			case <-gctx.Done():
			case <-played:
			}
			sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			return srv.Shutdown(sctx)
		})
	}

	var result playback.Result
	g.Go(func() error {
		defer close(played)

		opts := playback.Options{
			BufferFrames: cfg.Playback.BufferFrames,
			Reverse:      cfg.Playback.Reverse,
			Realtime:     cfg.Playback.Realtime,
			LoadTimeout:  cfg.Playback.LoadTimeout,
		}
		var err error
		result, err = playback.Play(gctx, r, audcache.FileOpener(audcache.NewRegistry(), inPath), newSink, opts, logger)
		return err
	})

	start := time.Now()
	if err := g.Wait(); err != nil {
		return err
	}
	if writer != nil {
		if err := writer.Close(); err != nil {
			return err
		}
	}

	printSummary(cmd.OutOrStdout(), outPath, result, r.Stats(), time.Since(start))
	return nil
}

// applyRenderFlags lets explicit flags override the loaded config.
func applyRenderFlags(cmd *cobra.Command, cfg *config.Config) {
	flags := cmd.Flags()
	if flags.Changed("reverse") {
		cfg.Playback.Reverse = renderReverse
	}
	if flags.Changed("realtime") {
		cfg.Playback.Realtime = renderRealtime
	}
	if flags.Changed("buffer-frames") && renderFrames > 0 {
		cfg.Playback.BufferFrames = renderFrames
	}
}

func printSummary(w io.Writer, outPath string, res playback.Result, stats cache.Stats, elapsed time.Duration) {
	bytes := uint64(res.Frames) * cache.Channels * 2
	fmt.Fprintf(w, "wrote %s: %s frames at %d Hz (%s) in %s\n",
		outPath, humanize.Comma(res.Frames), res.SampleRate, humanize.Bytes(bytes), elapsed.Round(time.Millisecond))
	fmt.Fprintf(w, "callbacks: %s, underruns: %s\n",
		humanize.Comma(int64(res.Callbacks)), humanize.Comma(int64(res.Underruns)))
	fmt.Fprintf(w, "cache: %s hits, %s misses, %s evictions, %s backpressure\n",
		humanize.Comma(int64(stats.Hits)), humanize.Comma(int64(stats.Misses)),
		humanize.Comma(int64(stats.Evictions)), humanize.Comma(int64(stats.Backpressure)))
}
