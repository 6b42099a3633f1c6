// Package supervisor runs a pipeline under a hard wall-clock deadline
// and classifies the outcome. A run either completes, fails with a stage
// error, times out, or collapses; it is never retried.
package supervisor

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/GriffinCanCode/recordflow/internal/logging"
	"github.com/GriffinCanCode/recordflow/internal/record"
)

var (
	// ErrTimeout means the run produced no result within the deadline.
	ErrTimeout = errors.New("pipeline timed out")
	// ErrCollapsed means the worker's signaling channel was torn down
	// without delivering a result: a panic escaped the pipeline.
	ErrCollapsed = errors.New("pipeline worker collapsed without a result")
)

// Status classifies how a supervised run ended.
type Status int

const (
	StatusCompleted Status = iota
	StatusFailed
	StatusTimedOut
	StatusCollapsed
)

// String returns the string representation of the status.
func (s Status) String() string {
	switch s {
	case StatusCompleted:
		return "completed"
	case StatusFailed:
		return "failed"
	case StatusTimedOut:
		return "timed-out"
	case StatusCollapsed:
		return "collapsed"
	default:
		return "unknown"
	}
}

// Outcome is the result of one supervised run.
type Outcome struct {
	Status  Status
	RunID   string
	Results []record.Record
	Err     error
}

// Fatal reports whether the outcome must abort the process with a
// non-zero exit. Audit findings are warnings and never make a completed
// run fatal.
func (o Outcome) Fatal() bool {
	return o.Status != StatusCompleted
}

// Runner is one pipeline execution. The supervisor does not cancel the
// context on timeout: there is no preemption, and timed-out workers are
// abandoned to process exit rather than joined.
type Runner func(ctx context.Context) ([]record.Record, error)

// Supervise runs fn on its own goroutine and blocks for a result or the
// deadline, whichever comes first.
func Supervise(ctx context.Context, fn Runner, timeout time.Duration, log *logging.Logger) Outcome {
	if log == nil {
		log = logging.NewNop()
	}
	runID := uuid.NewString()
	log = log.WithRun(runID)

	type result struct {
		records []record.Record
		err     error
	}
	ch := make(chan result, 1)

	go func() {
		defer close(ch)
		defer func() {
			// Recover at the top of the worker so an escaped panic
			// closes the channel without a value instead of killing
			// the process: the supervisor observes that as a collapse.
			if r := recover(); r != nil {
				log.Error("pipeline worker panicked", zap.Any("panic", r))
			}
		}()
		records, err := fn(ctx)
		ch <- result{records: records, err: err}
	}()

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case res, ok := <-ch:
		if !ok {
			return Outcome{Status: StatusCollapsed, RunID: runID, Err: ErrCollapsed}
		}
		if res.err != nil {
			return Outcome{Status: StatusFailed, RunID: runID, Err: res.err}
		}
		log.Debug("run completed", zap.Int("records", len(res.records)))
		return Outcome{Status: StatusCompleted, RunID: runID, Results: res.records}
	case <-timer.C:
		log.Warn("run deadline exceeded", zap.Duration("timeout", timeout))
		return Outcome{
			Status: StatusTimedOut,
			RunID:  runID,
			Err:    fmt.Errorf("%w after %s", ErrTimeout, timeout),
		}
	}
}
