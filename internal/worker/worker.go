package worker

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/testpulse/dashboard/internal/settings"
)

// DefaultInterval matches the dashboard's documented auto-refresh period.
const DefaultInterval = 5 * time.Second

// FetchFunc runs one telemetry fetch cycle. It receives the scheduler's
// context, which is cancelled when the ticket is.
type FetchFunc func(ctx context.Context)

// Scheduler drives periodic telemetry refreshes.
type Scheduler struct {
	fetch FetchFunc
}

func NewScheduler(fetch FetchFunc) *Scheduler {
	return &Scheduler{fetch: fetch}
}

// Ticket controls one running schedule.
type Ticket struct {
	cancel context.CancelFunc
	done   chan struct{}
}

// Cancel stops the schedule and waits for its loop to exit. A fetch already
// in flight runs to completion but no further fetch is issued. Safe to call
// more than once.
func (t *Ticket) Cancel() {
	t.cancel()
	<-t.done
}

// Done is closed once the loop has exited.
func (t *Ticket) Done() <-chan struct{} {
	return t.done
}

// Start fetches once immediately and then every interval while enabled holds.
// enabled is fixed for the lifetime of the ticket; toggling it means starting
// a new schedule. A non-positive interval behaves like enabled=false.
func (s *Scheduler) Start(ctx context.Context, interval time.Duration, enabled bool) *Ticket {
	ctx, cancel := context.WithCancel(ctx)
	t := &Ticket{cancel: cancel, done: make(chan struct{})}
	go s.run(ctx, interval, enabled, t.done)
	return t
}

// StartFromSettings reads the auto-refresh switch and interval once and starts
// a schedule. Auto-refresh is on unless explicitly disabled.
func (s *Scheduler) StartFromSettings(ctx context.Context, p settings.Provider) *Ticket {
	enabled := settings.Bool(p, settings.KeyAutoRefresh, true)
	interval := settings.Duration(p, settings.KeyRefreshInterval, DefaultInterval)
	return s.Start(ctx, interval, enabled)
}

func (s *Scheduler) run(ctx context.Context, interval time.Duration, enabled bool, done chan struct{}) {
	defer close(done)

	s.fetch(ctx)

	if !enabled || interval <= 0 {
		slog.Debug("Scheduler: auto-refresh disabled")
		return
	}

	slog.Info("Starting refresh scheduler", "interval", interval)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.Info("Stopping refresh scheduler")
			return
		case <-ticker.C:
			// Both cases can be ready at once; cancellation wins.
			if ctx.Err() != nil {
				slog.Info("Stopping refresh scheduler")
				return
			}
			s.fetch(ctx)
		}
	}
}

// Supervisor owns the current schedule and replaces it when the refresh
// settings change.
type Supervisor struct {
	mu     sync.Mutex
	sched  *Scheduler
	prefs  settings.Provider
	ticket *Ticket
}

func NewSupervisor(sched *Scheduler, prefs settings.Provider) *Supervisor {
	return &Supervisor{sched: sched, prefs: prefs}
}

// Restart cancels the running schedule, if any, and starts a new one from the
// current settings.
func (v *Supervisor) Restart(ctx context.Context) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.ticket != nil {
		v.ticket.Cancel()
	}
	v.ticket = v.sched.StartFromSettings(ctx, v.prefs)
}

func (v *Supervisor) Stop() {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.ticket != nil {
		v.ticket.Cancel()
		v.ticket = nil
	}
}
