package scheduler

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// BatchRunner is what the poller triggers on every tick.
type BatchRunner interface {
	RunDue(ctx context.Context) (*Summary, error)
}

// PollerMetrics counts batches run by a Poller.
type PollerMetrics struct {
	TotalRuns           uint64
	FailedRuns          uint64
	ReportsRun          uint64
	TotalProcessingTime time.Duration
}

// Poller runs due scheduled reports on a fixed interval inside the server
// process, as an alternative to an external trigger calling the run
// endpoint.
type Poller struct {
	runner   BatchRunner
	interval time.Duration
	logger   *slog.Logger

	mutex    sync.RWMutex
	metrics  PollerMetrics
	stopChan chan struct{}
	done     chan struct{}
	running  bool
}

func NewPoller(runner BatchRunner, interval time.Duration, logger *slog.Logger) *Poller {
	if logger == nil {
		logger = slog.Default()
	}
	return &Poller{
		runner:   runner,
		interval: interval,
		logger:   logger.With("component", "poller"),
	}
}

// Start runs one batch immediately and then one per interval until Stop.
func (p *Poller) Start(ctx context.Context) {
	p.mutex.Lock()
	if p.running {
		p.mutex.Unlock()
		return
	}
	p.running = true
	p.stopChan = make(chan struct{})
	p.done = make(chan struct{})
	stop, done := p.stopChan, p.done
	p.mutex.Unlock()

	go func() {
		defer close(done)
		ticker := time.NewTicker(p.interval)
		defer ticker.Stop()

		p.tick(ctx)
		for {
			select {
			case <-ticker.C:
				p.tick(ctx)
			case <-stop:
				return
			case <-ctx.Done():
				return
			}
		}
	}()
}

// Stop halts the poller and waits for an in-flight batch to finish.
func (p *Poller) Stop() {
	p.mutex.Lock()
	if !p.running {
		p.mutex.Unlock()
		return
	}
	p.running = false
	close(p.stopChan)
	done := p.done
	p.mutex.Unlock()
	<-done
}

func (p *Poller) Metrics() PollerMetrics {
	p.mutex.RLock()
	defer p.mutex.RUnlock()
	return p.metrics
}

func (p *Poller) tick(ctx context.Context) {
	startTime := time.Now()
	summary, err := p.runner.RunDue(ctx)

	p.mutex.Lock()
	p.metrics.TotalRuns++
	p.metrics.TotalProcessingTime += time.Since(startTime)
	if err != nil {
		p.metrics.FailedRuns++
	} else {
		p.metrics.ReportsRun += uint64(summary.ReportsRun)
	}
	p.mutex.Unlock()

	if err != nil {
		p.logger.Error("scheduled run failed", "error", err)
	}
}
