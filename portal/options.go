package portal

import (
	"time"

	"portalfetch/logger"
	"portalfetch/metrics"
	"portalfetch/models"
)

// Options holds what a run needs to know about the portal and the filesystem.
type Options struct {
	Plan models.Plan

	DownloadDir string
	OutputPath  string
	MarkerPath  string
	// MetricsPath is optional; no textfile is written when empty.
	MetricsPath string

	ElementTimeout  time.Duration
	DownloadTimeout time.Duration
	PollInterval    time.Duration
}

// Option applies a configuration option to the Fetcher.
type Option func(*Fetcher)

// WithLogger sets the logger; the default discards output.
func WithLogger(log logger.Logger) Option {
	return func(f *Fetcher) {
		if log != nil {
			f.log = log
		}
	}
}

// WithMetrics records run metrics into m.
func WithMetrics(m *metrics.Manager) Option {
	return func(f *Fetcher) {
		f.metrics = m
	}
}

// WithPublisher adds the Publish stage.
func WithPublisher(p Publisher) Option {
	return func(f *Fetcher) {
		f.publisher = p
	}
}

// WithClock replaces time.Now, for tests.
func WithClock(now func() time.Time) Option {
	return func(f *Fetcher) {
		if now != nil {
			f.now = now
		}
	}
}

// WithRunID fixes the run identifier instead of generating one.
func WithRunID(id string) Option {
	return func(f *Fetcher) {
		f.runID = id
	}
}
