package logger

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"

	pkgerrors "github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoggerInit(t *testing.T) {
	require.NoError(t, Init())
	assert.NotNil(t, Get())
	assert.NotNil(t, Named("portal"))
}

func TestLoggerWritesFieldsAndComponent(t *testing.T) {
	SetLevel(slog.LevelInfo)
	var buf bytes.Buffer
	log := New(&buf).Named("download")

	log.Info(context.Background(), "waiting for download", String("dir", "/tmp/x"), Int("attempt", 3))

	out := buf.String()
	assert.Contains(t, out, "component=download")
	assert.Contains(t, out, `msg="waiting for download"`)
	assert.Contains(t, out, "dir=/tmp/x")
	assert.Contains(t, out, "attempt=3")
	assert.Contains(t, out, "source=")
	assert.Contains(t, out, "logger_test.go")
}

func TestLoggerRespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	log := New(&buf)

	require.NoError(t, SetLevelString("warn"))
	defer SetLevel(slog.LevelInfo)

	log.Info(context.Background(), "hidden")
	log.Warn(context.Background(), "shown", Error(errors.New("boom")))

	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "shown")
	assert.Contains(t, buf.String(), "error=boom")
}

func TestConsoleLogger(t *testing.T) {
	SetLevel(slog.LevelInfo)
	var buf bytes.Buffer
	log := NewConsole(&buf).Named("browser")

	log.Debug(context.Background(), "hidden")
	log.Info(context.Background(), "chrome started", String("dir", "/tmp/dl"))

	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "chrome started")
	assert.Contains(t, buf.String(), "/tmp/dl")
	assert.Contains(t, buf.String(), "browser")
}

func TestSetLevelStringRejectsUnknown(t *testing.T) {
	assert.Error(t, SetLevelString("loud"))
	assert.NoError(t, SetLevelString("WARNING"))
	assert.NoError(t, SetLevelString(""))
}

func TestStackFieldIncludesTrace(t *testing.T) {
	err := pkgerrors.New("navigation failed")
	field := Stack(err)
	assert.Equal(t, "stack", field.Key)
	assert.Contains(t, field.Value, "navigation failed")
	assert.Contains(t, field.Value, "TestStackFieldIncludesTrace")
}
