// SPDX-License-Identifier: EPL-2.0

package cache

import "github.com/charmbracelet/log"

type Option func(*options)

type options struct {
	logger  *log.Logger
	metrics Metrics
}

func defaultOptions() options {
	return options{
		logger: log.Default().WithPrefix("audcache"),
	}
}

// WithLogger replaces the default logger.
func WithLogger(l *log.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithMetrics enables metrics collection. A nil Metrics disables it.
func WithMetrics(m Metrics) Option {
	return func(o *options) { o.metrics = m }
}
