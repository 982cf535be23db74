package viewstate

import (
	"fmt"
	"sync"

	"github.com/testpulse/dashboard/internal/filter"
	"github.com/testpulse/dashboard/internal/notify"
	"github.com/testpulse/dashboard/internal/telemetry"
)

// Synchronizer owns the canonical filter query for one results view and keeps
// three things consistent: the in-memory query, the Location's query string
// and the filtered view. Every write is equality-checked, so a stable input
// converges after at most one reconciliation step.
type Synchronizer struct {
	mu       sync.Mutex
	loc      Location
	notifier notify.Notifier

	query   filter.Query
	results []telemetry.TestResult
	view    []telemetry.TestResult

	// fieldWrites counts individual query field assignments.
	fieldWrites int
}

// NewSynchronizer adopts the location's current query without notifying.
func NewSynchronizer(loc Location, n notify.Notifier) *Synchronizer {
	if loc == nil {
		loc = NewMemoryLocation("")
	}
	s := &Synchronizer{
		loc:      loc,
		notifier: notify.OrDiscard(n),
		query:    filter.Default(),
		view:     []telemetry.TestResult{},
	}
	s.mu.Lock()
	s.adopt(Decode(loc.Query()))
	s.mu.Unlock()
	return s
}

// adopt copies only the fields of incoming that differ. Caller holds mu.
func (s *Synchronizer) adopt(incoming filter.Query) bool {
	changed := false
	if incoming.Text != s.query.Text {
		s.query.Text = incoming.Text
		s.fieldWrites++
		changed = true
	}
	if incoming.Status != s.query.Status {
		s.query.Status = incoming.Status
		s.fieldWrites++
		changed = true
	}
	if incoming.Suite != s.query.Suite {
		s.query.Suite = incoming.Suite
		s.fieldWrites++
		changed = true
	}
	if changed {
		s.refilter()
	}
	return changed
}

func (s *Synchronizer) refilter() {
	s.view = filter.Apply(s.results, s.query)
}

// Reconcile adopts an externally changed location (a deep link was opened).
// It reports whether the in-memory query changed.
func (s *Synchronizer) Reconcile() bool {
	s.mu.Lock()
	changed := s.adopt(Decode(s.loc.Query()))
	q := s.query
	s.mu.Unlock()

	if changed {
		s.notifier.Notify(notify.Info, fmt.Sprintf("Showing results filtered by %s", describe(q)))
	}
	return changed
}

// Navigate writes raw to the location on behalf of another component, then
// reconciles.
func (s *Synchronizer) Navigate(raw string) bool {
	s.mu.Lock()
	if s.loc.Query() != raw {
		s.loc.Replace(raw)
	}
	s.mu.Unlock()
	return s.Reconcile()
}

// SetQuery applies a user edit and re-derives the location. The location is
// written only when its text would change; the return value reports whether
// it was written.
func (s *Synchronizer) SetQuery(q filter.Query) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.adopt(q.Normalize())
	encoded := Encode(s.query)
	if encoded == s.loc.Query() {
		return false
	}
	s.loc.Replace(encoded)
	return true
}

func (s *Synchronizer) SetText(text string) bool {
	q := s.Query()
	q.Text = text
	return s.SetQuery(q)
}

func (s *Synchronizer) SetStatus(status string) bool {
	q := s.Query()
	q.Status = status
	return s.SetQuery(q)
}

func (s *Synchronizer) SetSuite(suite string) bool {
	q := s.Query()
	q.Suite = suite
	return s.SetQuery(q)
}

// Reset clears every filter.
func (s *Synchronizer) Reset() bool {
	return s.SetQuery(filter.Default())
}

// SetResults replaces the owned result snapshot and re-runs the filter.
func (s *Synchronizer) SetResults(results []telemetry.TestResult) {
	owned := make([]telemetry.TestResult, len(results))
	copy(owned, results)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.results = owned
	s.refilter()
}

func (s *Synchronizer) Query() filter.Query {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.query
}

// View returns a copy of the filtered results.
func (s *Synchronizer) View() []telemetry.TestResult {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]telemetry.TestResult, len(s.view))
	copy(out, s.view)
	return out
}

// Results returns a copy of the unfiltered snapshot.
func (s *Synchronizer) Results() []telemetry.TestResult {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]telemetry.TestResult, len(s.results))
	copy(out, s.results)
	return out
}

// Link returns a shareable deep link to path for the current query.
func (s *Synchronizer) Link(path string) string {
	return Link(path, s.Query())
}

// FieldWrites reports how many query fields have been assigned so far.
func (s *Synchronizer) FieldWrites() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.fieldWrites
}

func describe(q filter.Query) string {
	if q.IsDefault() {
		return "nothing"
	}
	var parts []string
	if q.Text != "" {
		parts = append(parts, fmt.Sprintf("%q", q.Text))
	}
	if q.Status != filter.All {
		parts = append(parts, "status "+q.Status)
	}
	if q.Suite != filter.All {
		parts = append(parts, "suite "+q.Suite)
	}
	out := parts[0]
	for _, p := range parts[1:] {
		out += ", " + p
	}
	return out
}
