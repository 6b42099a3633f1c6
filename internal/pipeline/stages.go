package pipeline

import (
	"context"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/GriffinCanCode/recordflow/internal/logging"
	"github.com/GriffinCanCode/recordflow/internal/monitoring"
	"github.com/GriffinCanCode/recordflow/internal/record"
)

// State represents a stage's lifecycle state. Transitions are monotonic:
// Running -> Draining -> Done. A stage never re-enters Running.
type State int32

const (
	StateRunning State = iota
	StateDraining
	StateDone
)

// String returns the string representation of the state.
func (s State) String() string {
	switch s {
	case StateRunning:
		return "running"
	case StateDraining:
		return "draining"
	case StateDone:
		return "done"
	default:
		return "unknown"
	}
}

// stageState tracks a stage's lifecycle with monotonic transitions.
type stageState struct {
	v atomic.Int32
}

func (s *stageState) advance(to State) bool {
	for {
		cur := s.v.Load()
		if cur >= int32(to) {
			return false
		}
		if s.v.CompareAndSwap(cur, int32(to)) {
			return true
		}
	}
}

func (s *stageState) get() State {
	return State(s.v.Load())
}

// stage1 consumes the pipeline's primary input and the feedback channel,
// applies its transform, and forwards every record downstream.
//
// Both inbound sources are serviced through a single select, so neither
// can starve the other, and processed records are parked on a local
// pending queue so the stage never holds a record while blocked on a
// send when a receive could proceed. That property breaks the circular
// wait between a full forward channel and a full feedback channel.
type stage1 struct {
	in        <-chan record.Record
	feedback  <-chan record.Record
	out       chan<- record.Record
	transform func(*record.Record) error
	metrics   *monitoring.Metrics
	log       *logging.Logger
	state     stageState
}

func (s *stage1) run(ctx context.Context) error {
	defer close(s.out)
	defer s.setState(StateDone)

	var pending []record.Record
	in, fb := s.in, s.feedback

	for in != nil || fb != nil || len(pending) > 0 {
		// The send case is disabled (nil channel) while nothing is
		// pending; receive cases are disabled once their source closes.
		var out chan<- record.Record
		var head record.Record
		if len(pending) > 0 {
			out = s.out
			head = pending[0]
		}

		select {
		case out <- head:
			pending = pending[1:]
			s.metrics.StageProcessed.WithLabelValues("stage1").Inc()
		case rec, ok := <-in:
			if !ok {
				in = nil
				s.setState(StateDraining)
				continue
			}
			if err := s.transform(&rec); err != nil {
				return err
			}
			pending = append(pending, rec)
		case rec, ok := <-fb:
			if !ok {
				fb = nil
				continue
			}
			if err := s.transform(&rec); err != nil {
				return err
			}
			pending = append(pending, rec)
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return nil
}

func (s *stage1) setState(st State) {
	if s.state.advance(st) {
		s.log.Debug("stage state", zap.String("stage", "stage1"), zap.Stringer("state", st))
	}
}

// stage2 consumes stage1's output, requeues a data-dependent subset of
// first-pass records through the feedback channel, and forwards the rest
// (transformed and checksummed) downstream.
//
// It is the sole owner of the feedback channel's send side. The channel
// is closed exactly when no further feedback can ever be produced: all
// expect first-pass records have been seen and every requeued record has
// come back around. Closing earlier would drop records inside the loop;
// never closing would leave stage1 blocked forever.
type stage2 struct {
	in        <-chan record.Record
	out       chan<- record.Record
	feedback  chan<- record.Record
	expect    int
	requeue   func(record.Record) bool
	transform func(*record.Record) error
	metrics   *monitoring.Metrics
	log       *logging.Logger
	state     stageState

	primarySeen int
	inflight    int
	fbClosed    bool
}

func (s *stage2) run(ctx context.Context) error {
	defer close(s.out)
	defer s.setState(StateDone)
	defer s.closeFeedback() // no-op when already closed on the happy path

	s.maybeCloseFeedback() // expect == 0: no feedback will ever exist

	in := s.in
	for {
		var rec record.Record
		var ok bool
		select {
		case rec, ok = <-in:
		case <-ctx.Done():
			return ctx.Err()
		}
		if !ok {
			s.setState(StateDraining)
			return nil
		}

		if rec.Requeued {
			s.inflight--
		} else {
			s.primarySeen++
		}

		if !rec.Requeued && s.requeue(rec) {
			rec.Requeued = true
			s.inflight++
			s.metrics.RecordsRequeued.Inc()
			select {
			case s.feedback <- rec:
			case <-ctx.Done():
				return ctx.Err()
			}
		} else {
			if err := s.transform(&rec); err != nil {
				return err
			}
			s.metrics.StageProcessed.WithLabelValues("stage2").Inc()
			select {
			case s.out <- rec:
			case <-ctx.Done():
				return ctx.Err()
			}
		}

		s.maybeCloseFeedback()
	}
}

func (s *stage2) maybeCloseFeedback() {
	if !s.fbClosed && s.primarySeen == s.expect && s.inflight == 0 {
		s.closeFeedback()
	}
}

func (s *stage2) closeFeedback() {
	if s.fbClosed {
		return
	}
	s.fbClosed = true
	close(s.feedback)
	s.log.Debug("feedback channel closed",
		zap.Int("primary_seen", s.primarySeen),
		zap.Int("inflight", s.inflight))
}

func (s *stage2) setState(st State) {
	if s.state.advance(st) {
		s.log.Debug("stage state", zap.String("stage", "stage2"), zap.Stringer("state", st))
	}
}

// stage3 drains stage2's forward output into the result collection.
type stage3 struct {
	in      <-chan record.Record
	metrics *monitoring.Metrics
	log     *logging.Logger
	state   stageState

	results []record.Record
}

func (s *stage3) run(ctx context.Context) error {
	defer s.setState(StateDone)

	for {
		select {
		case rec, ok := <-s.in:
			if !ok {
				s.setState(StateDraining)
				return nil
			}
			rec.Latency = sinceEnqueue(rec)
			s.results = append(s.results, rec)
			s.metrics.StageProcessed.WithLabelValues("stage3").Inc()
			s.metrics.RecordsCollected.Inc()
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

func (s *stage3) setState(st State) {
	if s.state.advance(st) {
		s.log.Debug("stage state", zap.String("stage", "stage3"), zap.Stringer("state", st))
	}
}
