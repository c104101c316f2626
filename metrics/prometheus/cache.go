// SPDX-License-Identifier: EPL-2.0

// Package prometheus exports cache events as Prometheus metrics.
package prometheus

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/ik5/audcache/cache"
)

const namespace = "audcache"

// cacheMetrics is the Prometheus implementation of cache.Metrics.
type cacheMetrics struct {
	reads          *prometheus.CounterVec
	lookups        *prometheus.CounterVec
	evictions      prometheus.Counter
	backpressure   *prometheus.CounterVec
	statuses       *prometheus.CounterVec
	residentChunks prometheus.Gauge
	decodeDuration prometheus.Histogram
	decodedFrames  prometheus.Counter
}

var _ cache.Metrics = (*cacheMetrics)(nil)

// NewCacheMetrics registers the cache collectors with reg. A nil reg
// returns nil, which the reader treats as disabled.
func NewCacheMetrics(reg prometheus.Registerer) cache.Metrics {
	if reg == nil {
		return nil
	}

	return &cacheMetrics{
		reads: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "reads_total",
				Help:      "Total number of Read calls by availability of the returned audio",
			},
			[]string{"result"}, // "available", "partially_available", "unavailable"
		),
		lookups: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "chunk_lookups_total",
				Help:      "Total number of chunk lookups made by Read",
			},
			[]string{"hit"},
		),
		evictions: promauto.With(reg).NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "chunk_evictions_total",
				Help:      "Total number of least recently used chunks evicted for new hints",
			},
		),
		backpressure: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "hint_backpressure_total",
				Help:      "Total number of hinted chunks that could not be requested",
			},
			[]string{"reason"}, // "pool_exhausted", "batch_full"
		),
		statuses: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "worker_statuses_total",
				Help:      "Total number of worker status updates drained by the reader",
			},
			[]string{"status"},
		),
		residentChunks: promauto.With(reg).NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "resident_chunks",
				Help:      "Current number of chunks bound to a chunk index",
			},
		),
		decodeDuration: promauto.With(reg).NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "chunk_decode_duration_milliseconds",
				Help:      "Duration of one chunk decode on the worker in milliseconds",
				Buckets: []float64{
					0.1, // 100us - uncompressed PCM
					0.5,
					1,
					5,
					10, // typical compressed chunk
					50,
					100,
					500, // cold seek in a large file
				},
			},
		),
		decodedFrames: promauto.With(reg).NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "decoded_frames_total",
				Help:      "Total number of stereo frames decoded by the worker",
			},
		),
	}
}

func (m *cacheMetrics) RecordRead(result cache.ReadResult) {
	if m == nil {
		return
	}
	m.reads.WithLabelValues(result.String()).Inc()
}

func (m *cacheMetrics) RecordLookup(hit bool) {
	if m == nil {
		return
	}
	m.lookups.WithLabelValues(strconv.FormatBool(hit)).Inc()
}

func (m *cacheMetrics) RecordEviction() {
	if m == nil {
		return
	}
	m.evictions.Inc()
}

func (m *cacheMetrics) RecordBackpressure(reason cache.BackpressureReason) {
	if m == nil {
		return
	}
	m.backpressure.WithLabelValues(string(reason)).Inc()
}

func (m *cacheMetrics) RecordStatus(status cache.ReaderStatus) {
	if m == nil {
		return
	}
	m.statuses.WithLabelValues(status.String()).Inc()
}

func (m *cacheMetrics) SetResidentChunks(n int) {
	if m == nil {
		return
	}
	m.residentChunks.Set(float64(n))
}

func (m *cacheMetrics) ObserveDecode(frames int, duration time.Duration) {
	if m == nil {
		return
	}
	m.decodeDuration.Observe(float64(duration) / float64(time.Millisecond))
	m.decodedFrames.Add(float64(frames))
}
