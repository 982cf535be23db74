package database

import (
	"context"
	"time"

	"github.com/testpulse/dashboard/internal/telemetry"
)

// Snapshot is one recorded stats refresh, used for trend charts.
type Snapshot struct {
	TakenAt     time.Time `json:"takenAt"`
	TotalTests  int       `json:"totalTests"`
	Passed      int       `json:"passed"`
	Failed      int       `json:"failed"`
	Skipped     int       `json:"skipped"`
	PassRate    float64   `json:"passRate"`
	TotalSuites int       `json:"totalSuites"`
}

// SnapshotFromStats captures s at takenAt.
func SnapshotFromStats(s telemetry.DashboardStats, takenAt time.Time) Snapshot {
	return Snapshot{
		TakenAt:     takenAt,
		TotalTests:  s.TotalTests,
		Passed:      s.Passed,
		Failed:      s.Failed,
		Skipped:     s.Skipped,
		PassRate:    s.PassRate,
		TotalSuites: s.TotalSuites,
	}
}

type SnapshotStore interface {
	RecordSnapshot(ctx context.Context, snap Snapshot) error
	// RecentSnapshots returns up to limit snapshots, oldest first.
	RecentSnapshots(ctx context.Context, limit int) ([]Snapshot, error)
}
