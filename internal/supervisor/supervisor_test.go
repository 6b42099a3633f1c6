package supervisor

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GriffinCanCode/recordflow/internal/record"
)

func TestSuperviseCompleted(t *testing.T) {
	want := []record.Record{{ID: 1}, {ID: 2}}
	outcome := Supervise(context.Background(), func(context.Context) ([]record.Record, error) {
		return want, nil
	}, time.Second, nil)

	assert.Equal(t, StatusCompleted, outcome.Status)
	assert.False(t, outcome.Fatal())
	assert.Equal(t, want, outcome.Results)
	assert.NoError(t, outcome.Err)
	assert.NotEmpty(t, outcome.RunID)
}

func TestSuperviseStageFailure(t *testing.T) {
	boom := errors.New("stage exploded")
	outcome := Supervise(context.Background(), func(context.Context) ([]record.Record, error) {
		return nil, boom
	}, time.Second, nil)

	assert.Equal(t, StatusFailed, outcome.Status)
	assert.True(t, outcome.Fatal())
	assert.ErrorIs(t, outcome.Err, boom)
}

func TestSuperviseTimeoutOnHungPipeline(t *testing.T) {
	hang := make(chan struct{})
	t.Cleanup(func() { close(hang) })

	start := time.Now()
	outcome := Supervise(context.Background(), func(context.Context) ([]record.Record, error) {
		<-hang // simulated hung stage; abandoned, not joined
		return nil, nil
	}, 50*time.Millisecond, nil)
	elapsed := time.Since(start)

	assert.Equal(t, StatusTimedOut, outcome.Status)
	assert.True(t, outcome.Fatal())
	assert.ErrorIs(t, outcome.Err, ErrTimeout)
	// Must report within deadline + epsilon, not hang the process.
	assert.Less(t, elapsed, 2*time.Second)
}

func TestSuperviseCollapseOnEscapedPanic(t *testing.T) {
	outcome := Supervise(context.Background(), func(context.Context) ([]record.Record, error) {
		panic("unhandled")
	}, time.Second, nil)

	require.Equal(t, StatusCollapsed, outcome.Status)
	assert.True(t, outcome.Fatal())
	assert.ErrorIs(t, outcome.Err, ErrCollapsed)
}

func TestStatusString(t *testing.T) {
	assert.Equal(t, "completed", StatusCompleted.String())
	assert.Equal(t, "failed", StatusFailed.String())
	assert.Equal(t, "timed-out", StatusTimedOut.String())
	assert.Equal(t, "collapsed", StatusCollapsed.String())
}
