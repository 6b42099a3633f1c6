// Package pipeline implements the three-stage, bounded-capacity record
// pipeline with a cyclic feedback path between its first two stages.
//
// Topology:
//
//	producer --> [input] --> stage1 --> [s1to2] --> stage2 --> [s2to3] --> stage3 --> results
//	                            ^                      |
//	                            +----- [feedback] -----+
//
// All four channels are bounded. Close of a channel's send side is the
// only end-of-stream signal; there is no sentinel-value convention.
package pipeline

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/GriffinCanCode/recordflow/internal/config"
	"github.com/GriffinCanCode/recordflow/internal/logging"
	"github.com/GriffinCanCode/recordflow/internal/monitoring"
	"github.com/GriffinCanCode/recordflow/internal/record"
)

// StageError reports a fatal failure inside a named stage. It aborts the
// whole run; the supervisor uses it to distinguish a crashed pipeline
// from a hung one.
type StageError struct {
	Stage string
	Err   error
}

// Error implements the error interface.
func (e *StageError) Error() string {
	return fmt.Sprintf("stage %s failed: %v", e.Stage, e.Err)
}

// Unwrap returns the underlying cause.
func (e *StageError) Unwrap() error {
	return e.Err
}

// Hooks customize stage behavior. Zero-value hooks select the defaults;
// tests use them to inject predicates, failures, and hangs.
type Hooks struct {
	// Requeue decides which first-pass records are routed to feedback.
	// It is never consulted for records that already made the round trip.
	// Default: ID divisible by 7.
	Requeue func(record.Record) bool

	// Transform1 is stage1's per-record processing. Default: normalize
	// Value to ID*10 and count the hop. Must be idempotent, since
	// requeued records pass through twice.
	Transform1 func(*record.Record) error

	// Transform2 is stage2's forward processing. Default: Value*2+1 and
	// checksum.
	Transform2 func(*record.Record) error

	// Seed, when set, is applied by the producer to each fresh record
	// before it enters the pipeline (used to tag records with parsed
	// input provenance).
	Seed func(i int, r *record.Record)
}

// Pipeline wires the channels and stages for one run configuration.
// Configuration is explicit per instance, so independent runs do not
// interfere.
type Pipeline struct {
	cfg     config.PipelineConfig
	hooks   Hooks
	log     *logging.Logger
	metrics *monitoring.Metrics
}

// New creates a pipeline. A nil logger discards logs; nil metrics get a
// private registry.
func New(cfg config.PipelineConfig, log *logging.Logger, metrics *monitoring.Metrics, hooks Hooks) *Pipeline {
	if log == nil {
		log = logging.NewNop()
	}
	if metrics == nil {
		metrics = monitoring.New()
	}
	if hooks.Requeue == nil {
		hooks.Requeue = defaultRequeue
	}
	if hooks.Transform1 == nil {
		hooks.Transform1 = defaultTransform1
	}
	if hooks.Transform2 == nil {
		hooks.Transform2 = defaultTransform2
	}
	return &Pipeline{cfg: cfg, hooks: hooks, log: log, metrics: metrics}
}

// Run drives one complete pipeline execution and returns every record
// collected by stage3, in collection order (producer order is not
// preserved across the feedback path).
//
// The producer sends ids 1..N into the input channel, blocking on
// backpressure, then closes it. Run returns once all three stages reach
// Done, or with a StageError if any stage fails. The context is checked
// at stage-loop boundaries so a stage failure unwinds the others instead
// of leaving them blocked; the supervisor's timeout deliberately does
// not cancel it (timed-out workers are abandoned).
func (p *Pipeline) Run(ctx context.Context) ([]record.Record, error) {
	bound := p.cfg.Buffer
	if bound < 1 {
		return nil, fmt.Errorf("channel capacity must be >= 1, got %d", bound)
	}

	start := time.Now()

	input := make(chan record.Record, bound)
	s1to2 := make(chan record.Record, bound)
	s2to3 := make(chan record.Record, bound)
	feedback := make(chan record.Record, bound)

	s1 := &stage1{
		in:        input,
		feedback:  feedback,
		out:       s1to2,
		transform: p.hooks.Transform1,
		metrics:   p.metrics,
		log:       p.log,
	}
	s2 := &stage2{
		in:        s1to2,
		out:       s2to3,
		feedback:  feedback,
		expect:    p.cfg.Records,
		requeue:   p.hooks.Requeue,
		transform: p.hooks.Transform2,
		metrics:   p.metrics,
		log:       p.log,
	}
	s3 := &stage3{
		in:      s2to3,
		metrics: p.metrics,
		log:     p.log,
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(p.guard(ctx, "stage1", s1.run))
	g.Go(p.guard(ctx, "stage2", s2.run))
	g.Go(p.guard(ctx, "stage3", s3.run))
	g.Go(p.guard(ctx, "producer", func(ctx context.Context) error {
		return p.produce(ctx, input)
	}))

	if err := g.Wait(); err != nil {
		return nil, err
	}

	elapsed := time.Since(start)
	p.metrics.ObserveRun(elapsed)
	p.log.Info("pipeline run complete",
		zap.Int("records", len(s3.results)),
		zap.Duration("elapsed", elapsed))
	return s3.results, nil
}

// produce synchronously feeds ids 1..N into the input channel and closes
// it. The close is the explicit end-of-stream signal.
func (p *Pipeline) produce(ctx context.Context, input chan<- record.Record) error {
	defer close(input)

	var limiter *rate.Limiter
	if p.cfg.Rate > 0 {
		limiter = rate.NewLimiter(rate.Limit(p.cfg.Rate), 1)
	}

	for i := 1; i <= p.cfg.Records; i++ {
		if limiter != nil {
			if err := limiter.Wait(ctx); err != nil {
				return err
			}
		}
		rec := record.New(i)
		if p.hooks.Seed != nil {
			p.hooks.Seed(i, &rec)
		}
		select {
		case input <- rec:
			p.metrics.RecordsProduced.Inc()
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return nil
}

// guard wraps a stage body with panic recovery and StageError tagging,
// so an unrecoverable failure is surfaced rather than silently swallowed
// or escalated to a process crash.
func (p *Pipeline) guard(ctx context.Context, name string, fn func(context.Context) error) func() error {
	return func() (err error) {
		defer func() {
			if r := recover(); r != nil {
				err = &StageError{Stage: name, Err: fmt.Errorf("panic: %v", r)}
			}
			if err != nil {
				p.metrics.StageErrors.WithLabelValues(name).Inc()
				p.log.Error("stage failed", zap.String("stage", name), zap.Error(err))
			}
		}()

		if err := fn(ctx); err != nil {
			return &StageError{Stage: name, Err: err}
		}
		return nil
	}
}

func defaultRequeue(r record.Record) bool {
	return r.ID%7 == 0
}

func defaultTransform1(r *record.Record) error {
	r.Hops++
	r.Value = int64(r.ID) * 10
	return nil
}

func defaultTransform2(r *record.Record) error {
	r.Value = r.Value*2 + 1
	r.Checksum = record.Sum(r.ID, r.Value)
	return nil
}

func sinceEnqueue(r record.Record) time.Duration {
	if r.EnqueuedAt.IsZero() {
		return 0
	}
	return time.Since(r.EnqueuedAt)
}
