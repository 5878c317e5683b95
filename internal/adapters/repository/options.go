package repository

import "time"

// Option applies a configuration option to the MemoryStore.
type Option func(*MemoryStore)

// WithMetricsUpdateInterval sets the interval for background metrics updates.
func WithMetricsUpdateInterval(interval time.Duration) Option {
	return func(s *MemoryStore) {
		if interval > 0 {
			s.metricsUpdateInterval = interval
		}
	}
}

// WithSequence replaces the default insertion sequence generator.
func WithSequence(seq Sequence) Option {
	return func(s *MemoryStore) {
		if seq != nil {
			s.seq = seq
		}
	}
}
