// Package executor runs a fixed sequence of named stages, one after the
// other, and always runs a cleanup hook afterwards
package executor

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"portalfetch/logger"
)

// Stage is one step of a run
type Stage struct {
	Name string
	Run  func(ctx context.Context) error
	// Skip, when set and returning true, bypasses the stage
	Skip func() bool
}

// StageTiming records how long a stage took
type StageTiming struct {
	Name     string
	Duration time.Duration
}

// ExecutionResult describes how far a run got
type ExecutionResult struct {
	// Stage is the last stage entered; on failure, the one that failed
	Stage   string
	Timings []StageTiming
	Err     error
	Elapsed time.Duration
}

// Failed reports whether a stage returned an error
func (r *ExecutionResult) Failed() bool {
	return r.Err != nil
}

// Cleanup runs after the stages, whatever happened to them
type Cleanup func(ctx context.Context, result *ExecutionResult)

// Observer is told about every finished stage
type Observer func(timing StageTiming, err error)

// Executor runs stages in order
type Executor struct {
	Log      logger.Logger
	Observer Observer
}

// Execute runs stages in order and stops at the first error. cleanup always
// runs, also when a stage panics; the panic is turned into the run's error.
func (e *Executor) Execute(ctx context.Context, stages []Stage, cleanup Cleanup) (result *ExecutionResult) {
	startTime := time.Now()
	result = &ExecutionResult{}

	defer func() {
		if r := recover(); r != nil {
			result.Err = errors.Errorf("stage %s panicked: %v", result.Stage, r)
		}
		result.Elapsed = time.Since(startTime)
		if cleanup != nil {
			cleanup(ctx, result)
		}
	}()

	for _, stage := range stages {
		if stage.Skip != nil && stage.Skip() {
			e.Log.Debug(ctx, "skipping stage", logger.String("stage", stage.Name))
			continue
		}
		result.Stage = stage.Name
		e.Log.Info(ctx, "stage started", logger.String("stage", stage.Name))

		stageStart := time.Now()
		err := stage.Run(ctx)
		if err == nil && ctx.Err() != nil {
			err = ctx.Err()
		}
		timing := StageTiming{Name: stage.Name, Duration: time.Since(stageStart)}
		result.Timings = append(result.Timings, timing)
		if e.Observer != nil {
			e.Observer(timing, err)
		}

		if err != nil {
			result.Err = errors.WithMessagef(withStack(err), "stage %s", stage.Name)
			e.Log.Error(ctx, "stage failed", logger.String("stage", stage.Name), logger.Duration("took", timing.Duration), logger.Error(err))
			return result
		}
		e.Log.Info(ctx, "stage finished", logger.String("stage", stage.Name), logger.Duration("took", timing.Duration))
	}

	return result
}

type stackTracer interface {
	StackTrace() errors.StackTrace
}

// withStack attaches a stack trace unless err already carries one
func withStack(err error) error {
	var st stackTracer
	if errors.As(err, &st) {
		return err
	}
	return errors.WithStack(err)
}
