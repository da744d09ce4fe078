/*
scheduler.go - Automated pay period scheduler

PURPOSE:
  Makes sure a pay period exists for the current month. A background
  goroutine checks on start and then on every tick, opening the month's
  period when it is missing. Periods are never closed or archived
  automatically: those steps stay with a person.

CONFIGURATION:
  - Interval: how often to check (config scheduler.interval, default 1h)
  - Enabled:  whether the scheduler runs (config scheduler.enabled)

USAGE:
  scheduler := NewPeriodScheduler(paySvc, logger)
  scheduler.Start()
  // ... later
  scheduler.Stop()

SEE ALSO:
  - payroll/service.go: EnsurePeriod
*/
package api

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/Mohamedkandolo/Projet-RH/payroll"
)

// PeriodScheduler opens the current month's pay period.
type PeriodScheduler struct {
	Payroll  *payroll.Service
	Logger   *slog.Logger
	Interval time.Duration
	Enabled  bool
	// Now is the clock; tests replace it.
	Now func() time.Time

	ticker *time.Ticker
	stop   chan struct{}
	wg     sync.WaitGroup
	mu     sync.Mutex
}

func NewPeriodScheduler(paySvc *payroll.Service, logger *slog.Logger) *PeriodScheduler {
	if logger == nil {
		logger = slog.Default()
	}
	return &PeriodScheduler{
		Payroll:  paySvc,
		Logger:   logger,
		Interval: time.Hour,
		Enabled:  true,
		Now:      time.Now,
	}
}

// Start begins the scheduler. It is a no-op when disabled or already running.
func (ps *PeriodScheduler) Start() {
	ps.mu.Lock()
	defer ps.mu.Unlock()

	if !ps.Enabled {
		ps.Logger.Info("period scheduler disabled")
		return
	}
	if ps.ticker != nil {
		return
	}

	ps.ticker = time.NewTicker(ps.Interval)
	ps.stop = make(chan struct{})
	ps.wg.Add(1)
	go ps.run(ps.ticker, ps.stop)

	ps.Logger.Info("period scheduler started", "interval", ps.Interval)
}

// Stop stops the scheduler and waits for a running check to finish.
func (ps *PeriodScheduler) Stop() {
	ps.mu.Lock()
	defer ps.mu.Unlock()

	if ps.ticker == nil {
		return
	}
	ps.ticker.Stop()
	close(ps.stop)
	ps.wg.Wait()
	ps.ticker = nil
	ps.Logger.Info("period scheduler stopped")
}

func (ps *PeriodScheduler) run(ticker *time.Ticker, stop <-chan struct{}) {
	defer ps.wg.Done()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() {
		<-stop
		cancel()
	}()

	// Run immediately on start
	ps.RunNow(ctx)

	for {
		select {
		case <-ticker.C:
			ps.RunNow(ctx)
		case <-stop:
			return
		}
	}
}

// RunNow ensures the current month has a pay period and reports whether
// one was opened.
func (ps *PeriodScheduler) RunNow(ctx context.Context) (bool, error) {
	now := ps.Now().UTC()
	p, created, err := ps.Payroll.EnsurePeriod(ctx, now.Year(), int(now.Month()))
	if err != nil {
		ps.Logger.Error("period scheduler check failed", "error", err)
		return false, err
	}
	if created {
		ps.Logger.Info("period scheduler opened pay period", "period", p.Label())
	}
	return created, nil
}
