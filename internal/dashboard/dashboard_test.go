package dashboard

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testpulse/dashboard/internal/database"
	"github.com/testpulse/dashboard/internal/filter"
	"github.com/testpulse/dashboard/internal/notify"
	"github.com/testpulse/dashboard/internal/telemetry"
	"github.com/testpulse/dashboard/internal/viewstate"
)

var fixedNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

// stubClient serves mock data but lets tests swap the stats and hold fetches.
type stubClient struct {
	*telemetry.MockClient
	stats   *telemetry.DashboardStats
	release chan struct{}
}

func newStub() *stubClient {
	return &stubClient{MockClient: telemetry.NewMockClientAt(fixedNow)}
}

func (c *stubClient) FetchStats(ctx context.Context) telemetry.DashboardStats {
	if c.release != nil {
		<-c.release
	}
	if c.stats != nil {
		return *c.stats
	}
	return c.MockClient.FetchStats(ctx)
}

func TestRefresh(t *testing.T) {
	store := database.NewMockDatabase()
	d := New(newStub(), WithSnapshotStore(store), WithClock(func() time.Time { return fixedNow }))

	require.NoError(t, d.Refresh(context.Background()))

	st := d.State()
	assert.True(t, st.Loaded)
	assert.Equal(t, 42, st.Stats.TotalTests)
	assert.Len(t, st.Recent, RecentLimit)
	require.Len(t, st.Suites, 4)
	assert.Equal(t, "SauceDemo", st.Suites[0].Suite)
	assert.Equal(t, fixedNow, st.UpdatedAt)

	snaps, err := store.RecentSnapshots(context.Background(), 0)
	require.NoError(t, err)
	require.Len(t, snaps, 1)
	assert.Equal(t, 83.3, snaps[0].PassRate)
}

func TestRefresh_PlaceholderIsNotRecorded(t *testing.T) {
	store := database.NewMockDatabase()
	rec := notify.NewRecorder(0)
	c := newStub()
	ph := telemetry.PlaceholderStats(fixedNow)
	c.stats = &ph

	d := New(c, WithSnapshotStore(store), WithNotifier(rec))
	require.NoError(t, d.ManualRefresh(context.Background()))

	snaps, _ := store.RecentSnapshots(context.Background(), 0)
	assert.Empty(t, snaps)

	events := rec.Events()
	require.Len(t, events, 1)
	assert.Equal(t, notify.Warning, events[0].Kind)
}

func TestManualRefresh_NotifiesSuccess(t *testing.T) {
	rec := notify.NewRecorder(0)
	d := New(newStub(), WithNotifier(rec))

	require.NoError(t, d.ManualRefresh(context.Background()))

	events := rec.Events()
	require.Len(t, events, 1)
	assert.Equal(t, notify.Success, events[0].Kind)
}

func TestRefresh_DiscardedAfterClose(t *testing.T) {
	c := newStub()
	c.release = make(chan struct{})
	store := database.NewMockDatabase()
	rec := notify.NewRecorder(0)
	d := New(c, WithSnapshotStore(store), WithNotifier(rec))

	errc := make(chan error, 1)
	go func() { errc <- d.ManualRefresh(context.Background()) }()

	d.Close()
	close(c.release)

	assert.ErrorIs(t, <-errc, ErrClosed)
	assert.False(t, d.State().Loaded)
	assert.Empty(t, rec.Events())

	snaps, _ := store.RecentSnapshots(context.Background(), 0)
	assert.Empty(t, snaps)
}

func TestRefresh_CancelledContext(t *testing.T) {
	d := New(newStub())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.ErrorIs(t, d.Refresh(ctx), context.Canceled)
	assert.False(t, d.State().Loaded)
}

func TestState_ReturnsCopy(t *testing.T) {
	d := New(newStub())
	require.NoError(t, d.Refresh(context.Background()))

	st := d.State()
	st.Recent[0].Name = "changed"
	st.Suites[0].Passed = -1

	again := d.State()
	assert.NotEqual(t, "changed", again.Recent[0].Name)
	assert.NotEqual(t, -1, again.Suites[0].Passed)
}

func TestResults_DeepLink(t *testing.T) {
	loc := viewstate.NewMemoryLocation("?status=failed")
	r := NewResults(newStub(), loc, nil)

	require.NoError(t, r.Load(context.Background()))

	assert.Equal(t, "FAILED", r.Query().Status)
	view := r.View()
	require.Len(t, view, 5)
	for _, res := range view {
		assert.Equal(t, telemetry.StatusFailed, res.Status)
	}

	sum := r.Summary()
	assert.Equal(t, 5, sum.TotalTests)
	assert.Equal(t, 5, sum.Failed)
	assert.Equal(t, 0, sum.Passed)

	assert.Equal(t, []telemetry.SuiteCount{{Suite: "OrangeHRM", Failed: 5}}, r.Breakdown())
	assert.Equal(t, []string{"BlazeDemo", "OrangeHRM", "API", "SauceDemo"}, r.Suites())
}

func TestResults_EditUpdatesLocation(t *testing.T) {
	loc := viewstate.NewMemoryLocation("")
	r := NewResults(newStub(), loc, nil)
	require.NoError(t, r.Load(context.Background()))
	assert.Len(t, r.View(), 20)

	r.Sync().SetQuery(filter.Query{Text: "case 1", Status: "PASSED", Suite: filter.All})
	assert.Equal(t, "status=PASSED&test=case+1", loc.Query())
	for _, res := range r.View() {
		assert.Contains(t, res.Name, "Case 1")
	}
}

func TestResults_LoadAfterClose(t *testing.T) {
	r := NewResults(newStub(), nil, nil)
	r.Close()

	assert.ErrorIs(t, r.Load(context.Background()), ErrClosed)
	assert.Empty(t, r.View())
}

func TestHistory(t *testing.T) {
	h := History(context.Background(), newStub())
	assert.Equal(t, 3, h.Total)
	assert.Equal(t, 2, h.Succeeded)
	assert.Equal(t, 1, h.Failed)
	assert.Equal(t, 0, h.Running)
	assert.Equal(t, 35, h.Tests)
}

// suitelessClient serves results where some records carry no suite.
type suitelessClient struct {
	*telemetry.MockClient
}

func (suitelessClient) FetchAll(ctx context.Context) []telemetry.TestResult {
	return []telemetry.TestResult{
		{ID: "1", Name: "Orphan", Status: telemetry.StatusFailed},
		{ID: "2", Name: "Login", Suite: "SauceDemo", Status: telemetry.StatusPassed},
	}
}

func TestResults_UnknownSuiteIsFilterable(t *testing.T) {
	r := NewResults(suitelessClient{telemetry.NewMockClientAt(fixedNow)}, nil, nil)
	require.NoError(t, r.Load(context.Background()))

	for _, c := range r.Breakdown() {
		assert.Contains(t, r.Suites(), c.Suite)
	}

	r.Sync().SetSuite(telemetry.UnknownSuite)
	view := r.View()
	require.Len(t, view, 1)
	assert.Equal(t, "1", view[0].ID)
	assert.Equal(t, []telemetry.SuiteCount{{Suite: telemetry.UnknownSuite, Failed: 1}}, r.Breakdown())
}
