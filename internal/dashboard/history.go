package dashboard

import (
	"context"

	"github.com/testpulse/dashboard/internal/telemetry"
)

type HistorySummary struct {
	Runs      []telemetry.HistoryRun `json:"runs"`
	Total     int                    `json:"total"`
	Succeeded int                    `json:"succeeded"`
	Failed    int                    `json:"failed"`
	Running   int                    `json:"running"`
	Tests     int                    `json:"tests"`
}

// History fetches past runs and tallies them by status. Pending runs count
// as running.
func History(ctx context.Context, client telemetry.Client) HistorySummary {
	runs := client.FetchHistory(ctx)
	if runs == nil {
		runs = []telemetry.HistoryRun{}
	}
	h := HistorySummary{Runs: runs, Total: len(runs)}
	for _, run := range runs {
		h.Tests += run.TotalTests
		switch run.Status {
		case telemetry.RunSuccess:
			h.Succeeded++
		case telemetry.RunFailed:
			h.Failed++
		case telemetry.RunRunning, telemetry.RunPending:
			h.Running++
		}
	}
	return h
}
