package repository

import "time"

type settings struct {
	metricsUpdateInterval time.Duration
	busyTimeout           time.Duration
	maxOpenConns          int
}

func defaultSettings() settings {
	return settings{
		busyTimeout:  5 * time.Second,
		maxOpenConns: 4,
	}
}

// Option configures a store.
type Option func(*settings)

// WithMetricsUpdateInterval enables a background loop that publishes the user
// count gauge at the given interval.
func WithMetricsUpdateInterval(interval time.Duration) Option {
	return func(s *settings) {
		if interval > 0 {
			s.metricsUpdateInterval = interval
		}
	}
}

// WithBusyTimeout sets how long SQLite waits on a locked database.
func WithBusyTimeout(d time.Duration) Option {
	return func(s *settings) {
		if d >= 0 {
			s.busyTimeout = d
		}
	}
}

// WithMaxOpenConns caps the SQLite connection pool.
func WithMaxOpenConns(n int) Option {
	return func(s *settings) {
		if n > 0 {
			s.maxOpenConns = n
		}
	}
}
