// Package analytics derives summary statistics from a command history
// snapshot. Everything is recomputed per call; the log is small enough that
// correctness over a mutating log beats caching.
package analytics

import (
	"math"
	"time"

	"sheila/internal/domain"
)

type Report struct {
	TotalCommands      int                   `json:"totalCommands"`
	SuccessfulCommands int                   `json:"successfulCommands"`
	AverageLatencyMs   int                   `json:"averageLatencyMs"`
	LastFiveCommands   []domain.CommandEntry `json:"lastFiveCommands"`
	CommandFrequency   []CommandCount        `json:"commandFrequency"`
	HistoricalLatency  []LatencyPoint        `json:"historicalLatency"`
}

type CommandCount struct {
	Command string `json:"command"`
	Count   int    `json:"count"`
}

type LatencyPoint struct {
	Timestamp time.Time `json:"timestamp"`
	LatencyMs int       `json:"latency"`
}

// Compute aggregates a point-in-time snapshot of the log.
func Compute(entries []domain.CommandEntry) Report {
	report := Report{
		TotalCommands:    len(entries),
		LastFiveCommands: lastFive(entries),
	}

	var latencySum, latencyCount int
	counts := map[string]int{}
	order := make([]string, 0)

	for _, e := range entries {
		if e.Status == domain.StatusSuccess {
			report.SuccessfulCommands++
			latencySum += e.ResponseTimeMs
			latencyCount++
		}

		if _, seen := counts[e.Cmd]; !seen {
			order = append(order, e.Cmd)
		}
		counts[e.Cmd]++

		report.HistoricalLatency = append(report.HistoricalLatency, LatencyPoint{
			Timestamp: e.Timestamp,
			LatencyMs: e.ResponseTimeMs,
		})
	}

	if latencyCount > 0 {
		report.AverageLatencyMs = int(math.Round(float64(latencySum) / float64(latencyCount)))
	}

	report.CommandFrequency = make([]CommandCount, 0, len(order))
	for _, cmd := range order {
		report.CommandFrequency = append(report.CommandFrequency, CommandCount{
			Command: cmd,
			Count:   counts[cmd],
		})
	}

	return report
}

func lastFive(entries []domain.CommandEntry) []domain.CommandEntry {
	start := len(entries) - 5
	if start < 0 {
		start = 0
	}
	result := make([]domain.CommandEntry, len(entries)-start)
	copy(result, entries[start:])
	return result
}
