package repository

import "time"

// Option applies a configuration option to an instrumented store.
type Option func(*instrumented)

// WithMetricsUpdateInterval sets the interval for background record-count updates.
func WithMetricsUpdateInterval(interval time.Duration) Option {
	return func(s *instrumented) {
		if interval > 0 {
			s.metricsUpdateInterval = interval
		}
	}
}
