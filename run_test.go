package main

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"portalfetch/config"
)

func TestChromeOptionsFromConfig(t *testing.T) {
	cfg := config.New()
	cfg.Headless = false
	cfg.ChromePath = "/usr/bin/chromium"
	cfg.SettleDelay = 0

	opts := chromeOptions(cfg)
	assert.False(t, opts.Headless)
	assert.Equal(t, "/usr/bin/chromium", opts.ExecPath)
	assert.Equal(t, 1920, opts.WindowWidth)
	assert.Equal(t, 1080, opts.WindowHeight)
	assert.Equal(t, 500*time.Millisecond, opts.SettleDelay)

	cfg.SettleDelay = 2 * time.Second
	assert.Equal(t, 2*time.Second, chromeOptions(cfg).SettleDelay)
}
