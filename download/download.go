// Package download waits for the browser to finish saving an export.
package download

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// ErrTimeout is returned when no finished file shows up in time.
var ErrTimeout = errors.New("file not downloaded in time")

// Default polling bounds.
const (
	DefaultInterval = time.Second
	DefaultTimeout  = 120 * time.Second
)

// partialExtensions mark files a browser is still writing.
var partialExtensions = map[string]bool{
	".crdownload": true,
	".part":       true,
	".tmp":        true,
	".download":   true,
}

// Snapshot records file modification times in a directory.
type Snapshot map[string]time.Time

// Take records the modification time of every regular file in dir.
// A missing directory yields an empty snapshot.
func Take(dir string) (Snapshot, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Snapshot{}, nil
		}
		return nil, fmt.Errorf("error listing download directory: %w", err)
	}
	snap := make(Snapshot, len(entries))
	for _, entry := range entries {
		info, err := entry.Info()
		if err != nil || !info.Mode().IsRegular() {
			continue
		}
		snap[entry.Name()] = info.ModTime()
	}
	return snap, nil
}

// Options bounds the wait and filters candidate files.
type Options struct {
	Interval time.Duration
	Timeout  time.Duration
	// Ignore lists base names that never count as a download (our own outputs).
	Ignore []string
	// Baseline, when set, excludes files unchanged since it was taken.
	Baseline Snapshot
}

func (o Options) withDefaults() Options {
	if o.Interval <= 0 {
		o.Interval = DefaultInterval
	}
	if o.Timeout <= 0 {
		o.Timeout = DefaultTimeout
	}
	return o
}

// IsPartial reports whether name carries an in-progress download extension.
func IsPartial(name string) bool {
	return partialExtensions[strings.ToLower(filepath.Ext(name))]
}

// Latest returns the newest qualifying file in dir, or "" when there is none.
func Latest(dir string, opts Options) (string, error) {
	current, err := Take(dir)
	if err != nil {
		return "", err
	}

	ignore := make(map[string]bool, len(opts.Ignore))
	for _, name := range opts.Ignore {
		ignore[name] = true
	}

	var (
		newest     string
		newestTime time.Time
	)
	for name, modTime := range current {
		if IsPartial(name) || ignore[name] || strings.HasPrefix(name, ".") {
			continue
		}
		if before, ok := opts.Baseline[name]; ok && !modTime.After(before) {
			continue
		}
		if newest == "" || modTime.After(newestTime) || (modTime.Equal(newestTime) && name > newest) {
			newest, newestTime = name, modTime
		}
	}
	if newest == "" {
		return "", nil
	}
	return filepath.Join(dir, newest), nil
}

// Wait polls dir every opts.Interval until a qualifying file appears and
// returns its path. It gives up with ErrTimeout after opts.Timeout.
func Wait(ctx context.Context, dir string, opts Options) (string, error) {
	opts = opts.withDefaults()

	deadline := time.NewTimer(opts.Timeout)
	defer deadline.Stop()
	ticker := time.NewTicker(opts.Interval)
	defer ticker.Stop()

	for {
		path, err := Latest(dir, opts)
		if err != nil {
			return "", err
		}
		if path != "" {
			return path, nil
		}

		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-deadline.C:
			return "", fmt.Errorf("%w: nothing in %s after %s", ErrTimeout, dir, opts.Timeout)
		case <-ticker.C:
		}
	}
}
