package dashboard

import (
	"context"

	"github.com/testpulse/dashboard/internal/filter"
	"github.com/testpulse/dashboard/internal/notify"
	"github.com/testpulse/dashboard/internal/stats"
	"github.com/testpulse/dashboard/internal/telemetry"
	"github.com/testpulse/dashboard/internal/viewstate"
)

// Results is the filterable results page. Its filter lives in the
// location's query string.
type Results struct {
	client telemetry.Client
	sync   *viewstate.Synchronizer
	life   lifetime
}

func NewResults(client telemetry.Client, loc viewstate.Location, n notify.Notifier) *Results {
	return &Results{
		client: client,
		sync:   viewstate.NewSynchronizer(loc, n),
	}
}

// Load fetches every result and replaces the page's data set.
func (r *Results) Load(ctx context.Context) error {
	all := r.client.FetchAll(ctx)
	return r.life.apply(ctx, func() {
		r.sync.SetResults(all)
	})
}

func (r *Results) Sync() *viewstate.Synchronizer { return r.sync }

func (r *Results) Query() filter.Query { return r.sync.Query() }

func (r *Results) View() []telemetry.TestResult { return r.sync.View() }

// Summary aggregates the filtered view.
func (r *Results) Summary() telemetry.DashboardStats {
	return stats.Aggregate(r.sync.View())
}

// Breakdown counts the filtered view per suite.
func (r *Results) Breakdown() []telemetry.SuiteCount {
	return stats.BreakdownFromResults(r.sync.View())
}

// Suites lists the suite filter options from the unfiltered data set.
func (r *Results) Suites() []string {
	return filter.Suites(r.sync.Results())
}

func (r *Results) Close() {
	r.life.close()
}
