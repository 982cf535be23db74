// Package dashboard holds the view models behind the overview, results and
// history pages.
package dashboard

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/testpulse/dashboard/internal/database"
	"github.com/testpulse/dashboard/internal/notify"
	"github.com/testpulse/dashboard/internal/stats"
	"github.com/testpulse/dashboard/internal/telemetry"
)

// RecentLimit is how many recent results the overview shows.
const RecentLimit = 5

// ErrClosed is returned when a fetch completes after the view was closed.
var ErrClosed = errors.New("dashboard: view closed")

// lifetime gates state updates on the owning view still being open.
type lifetime struct {
	mu     sync.Mutex
	closed bool
}

// apply runs fn under the gate. fn is skipped once the view is closed or
// ctx is done.
func (l *lifetime) apply(ctx context.Context, fn func()) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return ErrClosed
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	fn()
	return nil
}

func (l *lifetime) close() {
	l.mu.Lock()
	l.closed = true
	l.mu.Unlock()
}

// State is what the overview page renders.
type State struct {
	Stats     telemetry.DashboardStats `json:"stats"`
	Recent    []telemetry.TestResult   `json:"recent"`
	Suites    []telemetry.SuiteCount   `json:"suites"`
	Loaded    bool                     `json:"loaded"`
	UpdatedAt time.Time                `json:"updatedAt"`
}

type Dashboard struct {
	client   telemetry.Client
	store    database.SnapshotStore
	notifier notify.Notifier
	suites   []string
	now      func() time.Time

	life  lifetime
	mu    sync.RWMutex
	state State
}

type Option func(*Dashboard)

// WithSnapshotStore records every live stats refresh into store.
func WithSnapshotStore(store database.SnapshotStore) Option {
	return func(d *Dashboard) { d.store = store }
}

func WithNotifier(n notify.Notifier) Option {
	return func(d *Dashboard) { d.notifier = n }
}

// WithSuites overrides the suites used for the even-split breakdown.
func WithSuites(suites []string) Option {
	return func(d *Dashboard) { d.suites = suites }
}

func WithClock(now func() time.Time) Option {
	return func(d *Dashboard) { d.now = now }
}

func New(client telemetry.Client, opts ...Option) *Dashboard {
	d := &Dashboard{
		client: client,
		suites: stats.DefaultSuites,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(d)
	}
	d.notifier = notify.OrDiscard(d.notifier)
	return d
}

// Refresh fetches stats and recent results concurrently and applies them
// together. Overlapping refreshes are not sequenced; the last to finish wins.
func (d *Dashboard) Refresh(ctx context.Context) error {
	var (
		s      telemetry.DashboardStats
		recent []telemetry.TestResult
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		s = d.client.FetchStats(gctx)
		return nil
	})
	g.Go(func() error {
		recent = d.client.FetchRecent(gctx, RecentLimit)
		return nil
	})
	if err := g.Wait(); err != nil {
		return err
	}

	now := d.now()
	s = stats.Normalize(s, now)
	next := State{
		Stats:     s,
		Recent:    recent,
		Suites:    stats.Breakdown(s, d.suites),
		Loaded:    true,
		UpdatedAt: now,
	}

	err := d.life.apply(ctx, func() {
		d.mu.Lock()
		d.state = next
		d.mu.Unlock()
	})
	if err != nil {
		slog.Debug("dashboard: discarding refresh", "error", err)
		return err
	}

	if d.store != nil && !s.Placeholder {
		if err := d.store.RecordSnapshot(ctx, database.SnapshotFromStats(s, now)); err != nil {
			slog.Warn("dashboard: failed to record snapshot", "error", err)
		}
	}
	return nil
}

// ManualRefresh is a user-triggered Refresh that reports its outcome.
func (d *Dashboard) ManualRefresh(ctx context.Context) error {
	if err := d.Refresh(ctx); err != nil {
		if !errors.Is(err, ErrClosed) {
			d.notifier.Notify(notify.Error, "Refresh failed")
		}
		return err
	}
	if d.State().Stats.Placeholder {
		d.notifier.Notify(notify.Warning, "Backend unavailable, showing placeholder data")
		return nil
	}
	d.notifier.Notify(notify.Success, "Dashboard refreshed")
	return nil
}

// State returns a copy of the current overview state.
func (d *Dashboard) State() State {
	d.mu.RLock()
	defer d.mu.RUnlock()
	out := d.state
	out.Recent = append([]telemetry.TestResult(nil), d.state.Recent...)
	out.Suites = append([]telemetry.SuiteCount(nil), d.state.Suites...)
	out.Stats.Suites = append([]telemetry.SuiteCount(nil), d.state.Stats.Suites...)
	return out
}

// Close ends the view's lifetime. Fetches still in flight are discarded.
func (d *Dashboard) Close() {
	d.life.close()
}
