package repository

import "time"

// Option applies a configuration option to the TreapStore.
type Option func(*TreapStore)

// WithMetricsUpdateInterval sets the interval for background metrics updates.
func WithMetricsUpdateInterval(interval time.Duration) Option {
	return func(s *TreapStore) {
		if interval > 0 {
			s.metricsUpdateInterval = interval
		}
	}
}

// ResultOption applies a configuration option to the ResultStore.
type ResultOption func(*ResultStore)

// WithHistorySize caps how many results are kept. Zero or less keeps all.
func WithHistorySize(n int) ResultOption {
	return func(s *ResultStore) {
		s.limit = n
	}
}
