package job

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/go-kratos/kratos/v2/log"
)

// TickerJob provides common ticker-based background job lifecycle management.
// Embed this in concrete job types to get Start/Stop for free.
// Stop is safe to call multiple times (protected by sync.Once).
//
// A run that returns an error or panics is logged and the next tick runs
// again. Each run is bounded by the interval, so a stuck run cannot overlap
// the next one, and Stop cancels a run in flight.
type TickerJob struct {
	name             string
	log              *log.Helper
	interval         time.Duration
	stopCh           chan struct{}
	stopOnce         sync.Once
	cancelMu         sync.Mutex
	cancelRun        context.CancelFunc
	executeImmediate bool
	executeFn        func(ctx context.Context) error
	wg               sync.WaitGroup
}

func newTickerJob(name string, interval time.Duration, logger log.Logger, executeFn func(ctx context.Context) error, executeImmediate bool) TickerJob {
	return TickerJob{
		name:             name,
		log:              log.NewHelper(log.With(logger, "job", name)),
		interval:         interval,
		stopCh:           make(chan struct{}),
		executeFn:        executeFn,
		executeImmediate: executeImmediate,
	}
}

// Start implements transport.Server.
func (j *TickerJob) Start(ctx context.Context) error {
	j.log.Infof("%s started, interval: %s", j.name, j.interval)

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	j.cancelMu.Lock()
	j.cancelRun = cancel
	j.cancelMu.Unlock()

	// The first run finishes before the ticker starts, so it cannot overlap
	// the first tick.
	if j.executeImmediate {
		j.run(runCtx)
	}

	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			j.log.Infof("%s stopped by context", j.name)
			j.wg.Wait()
			return ctx.Err()
		case <-j.stopCh:
			j.log.Infof("%s stopped", j.name)
			j.wg.Wait()
			return nil
		case <-ticker.C:
			j.wg.Add(1)
			func() {
				defer j.wg.Done()
				j.run(runCtx)
			}()
		}
	}
}

// Stop implements transport.Server. Safe to call multiple times.
func (j *TickerJob) Stop(_ context.Context) error {
	j.stopOnce.Do(func() {
		close(j.stopCh)
		j.cancelMu.Lock()
		if j.cancelRun != nil {
			j.cancelRun()
		}
		j.cancelMu.Unlock()
	})
	return nil
}

func (j *TickerJob) run(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, j.interval)
	defer cancel()
	start := time.Now()
	if err := j.safeExecute(ctx); err != nil {
		j.log.WithContext(ctx).Errorf("%s failed after %s: %v", j.name, time.Since(start), err)
		return
	}
	j.log.WithContext(ctx).Debugf("%s finished in %s", j.name, time.Since(start))
}

func (j *TickerJob) safeExecute(ctx context.Context) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return j.executeFn(ctx)
}
