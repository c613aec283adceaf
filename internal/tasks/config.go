package tasks

import "time"

// Config tunes the queue runner. The library generates little background
// work (one notice task per overdue loan per sweep), so the knobs here
// cover the runner only; retry and retention policy for the notice queue
// is fixed on OverdueNoticeTask.Config.
type Config struct {
	// Workers is the number of concurrent notice workers. Two is plenty
	// for a sweep that enqueues at most a few dozen notices.
	Workers int

	// ReleaseAfter is how long a claimed task may sit without completing
	// before it is handed back to the queue, e.g. after a crash mid-delivery.
	ReleaseAfter time.Duration

	// CleanupInterval is how often delivered notices past their retention
	// window are purged from the tasks database.
	CleanupInterval time.Duration
}

// DefaultConfig returns the runner settings used when no environment
// overrides are present.
func DefaultConfig() Config {
	return Config{
		Workers:         2,
		ReleaseAfter:    15 * time.Minute,
		CleanupInterval: 1 * time.Hour,
	}
}

// normalized fills zero fields with defaults so a partially populated
// Config (e.g. from a CLI path that skips viper) still yields a working
// runner.
func (c Config) normalized() Config {
	def := DefaultConfig()
	if c.Workers <= 0 {
		c.Workers = def.Workers
	}
	if c.ReleaseAfter <= 0 {
		c.ReleaseAfter = def.ReleaseAfter
	}
	if c.CleanupInterval <= 0 {
		c.CleanupInterval = def.CleanupInterval
	}
	return c
}
