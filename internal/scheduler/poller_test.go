package scheduler

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type countingRunner struct {
	calls atomic.Int32
	err   error
}

func (r *countingRunner) RunDue(context.Context) (*Summary, error) {
	r.calls.Add(1)
	if r.err != nil {
		return nil, r.err
	}
	return &Summary{ReportsRun: 2, SuccessCount: 2}, nil
}

func TestPollerRunsUntilStopped(t *testing.T) {
	runner := &countingRunner{}
	p := NewPoller(runner, 10*time.Millisecond, nil)

	p.Start(context.Background())
	p.Start(context.Background()) // second start is a no-op
	assert.Eventually(t, func() bool { return runner.calls.Load() >= 3 }, time.Second, 5*time.Millisecond)
	p.Stop()
	p.Stop()

	stopped := runner.calls.Load()
	time.Sleep(30 * time.Millisecond)
	assert.Equal(t, stopped, runner.calls.Load())

	m := p.Metrics()
	assert.Equal(t, uint64(stopped), m.TotalRuns)
	assert.Equal(t, uint64(stopped)*2, m.ReportsRun)
	assert.Zero(t, m.FailedRuns)
}

func TestPollerCountsFailedRuns(t *testing.T) {
	runner := &countingRunner{err: errors.New("database is locked")}
	p := NewPoller(runner, time.Hour, nil)

	p.Start(context.Background())
	assert.Eventually(t, func() bool { return p.Metrics().FailedRuns == 1 }, time.Second, 5*time.Millisecond)
	p.Stop()
	assert.Zero(t, p.Metrics().ReportsRun)
}

func TestPollerStopsWithContext(t *testing.T) {
	runner := &countingRunner{}
	p := NewPoller(runner, 5*time.Millisecond, nil)
	ctx, cancel := context.WithCancel(context.Background())

	p.Start(ctx)
	assert.Eventually(t, func() bool { return runner.calls.Load() >= 1 }, time.Second, 5*time.Millisecond)
	cancel()
	p.Stop()
}
