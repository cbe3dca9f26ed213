package executor

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"portalfetch/logger"
)

func stage(name string, calls *[]string, err error) Stage {
	return Stage{Name: name, Run: func(context.Context) error {
		*calls = append(*calls, name)
		return err
	}}
}

func TestExecuteRunsStagesInOrder(t *testing.T) {
	var calls []string
	var observed []string
	ex := &Executor{Log: logger.Nop(), Observer: func(timing StageTiming, err error) {
		observed = append(observed, timing.Name)
	}}

	cleaned := false
	result := ex.Execute(context.Background(), []Stage{
		stage("Init", &calls, nil),
		stage("Navigate", &calls, nil),
		{Name: "Publish", Run: func(context.Context) error { t.Fatal("skipped stage ran"); return nil }, Skip: func() bool { return true }},
		stage("Normalize", &calls, nil),
	}, func(_ context.Context, r *ExecutionResult) {
		cleaned = true
		assert.False(t, r.Failed())
	})

	require.NoError(t, result.Err)
	assert.True(t, cleaned)
	assert.Equal(t, []string{"Init", "Navigate", "Normalize"}, calls)
	assert.Equal(t, calls, observed)
	assert.Equal(t, "Normalize", result.Stage)
	assert.Len(t, result.Timings, 3)
}

func TestExecuteStopsAtFirstErrorAndCleansUp(t *testing.T) {
	var calls []string
	boom := errors.New("boom")
	ex := &Executor{Log: logger.Nop()}

	var cleanupSaw error
	result := ex.Execute(context.Background(), []Stage{
		stage("Init", &calls, nil),
		stage("Navigate", &calls, boom),
		stage("Submit", &calls, nil),
	}, func(_ context.Context, r *ExecutionResult) {
		cleanupSaw = r.Err
	})

	assert.Equal(t, []string{"Init", "Navigate"}, calls)
	assert.Equal(t, "Navigate", result.Stage)
	assert.ErrorIs(t, result.Err, boom)
	assert.ErrorIs(t, cleanupSaw, boom)
	assert.Contains(t, result.Err.Error(), "stage Navigate: boom")
	assert.Contains(t, fmt.Sprintf("%+v", result.Err), "executor_test.go")
}

func TestExecuteRecoversPanics(t *testing.T) {
	ex := &Executor{Log: logger.Nop()}
	cleaned := false

	result := ex.Execute(context.Background(), []Stage{
		{Name: "Normalize", Run: func(context.Context) error { panic("nil table") }},
	}, func(context.Context, *ExecutionResult) { cleaned = true })

	assert.True(t, cleaned)
	require.Error(t, result.Err)
	assert.Contains(t, result.Err.Error(), "stage Normalize panicked: nil table")
}

func TestExecuteStopsWhenContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	var calls []string
	ex := &Executor{Log: logger.Nop()}

	result := ex.Execute(ctx, []Stage{
		{Name: "Init", Run: func(context.Context) error { calls = append(calls, "Init"); cancel(); return nil }},
		stage("Navigate", &calls, nil),
	}, nil)

	assert.Equal(t, []string{"Init"}, calls)
	assert.ErrorIs(t, result.Err, context.Canceled)
}
