package analytics_test

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sheila/internal/analytics"
	"sheila/internal/domain"
)

func entry(cmd string, status domain.CommandStatus, latency int) domain.CommandEntry {
	return domain.CommandEntry{
		Cmd:            cmd,
		Status:         status,
		Timestamp:      time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
		ResponseTimeMs: latency,
		User:           domain.DefaultUser,
	}
}

func TestComputeEmptyLog(t *testing.T) {
	report := analytics.Compute(nil)

	assert.Zero(t, report.TotalCommands)
	assert.Zero(t, report.SuccessfulCommands)
	assert.Zero(t, report.AverageLatencyMs)
	assert.Empty(t, report.LastFiveCommands)
	assert.Empty(t, report.CommandFrequency)
	assert.Empty(t, report.HistoricalLatency)
}

func TestComputeCounts(t *testing.T) {
	entries := []domain.CommandEntry{
		entry("on", domain.StatusSuccess, 100),
		entry("off", domain.StatusFailed, 400),
		entry("on", domain.StatusSuccess, 200),
	}

	report := analytics.Compute(entries)

	assert.Equal(t, 3, report.TotalCommands)
	assert.Equal(t, 2, report.SuccessfulCommands)

	failed := report.TotalCommands - report.SuccessfulCommands
	assert.Equal(t, 1, failed)
}

func TestAverageLatencyOverSuccessfulOnly(t *testing.T) {
	entries := []domain.CommandEntry{
		entry("on", domain.StatusSuccess, 100),
		entry("off", domain.StatusSuccess, 201),
		entry("2", domain.StatusFailed, 9000),
	}

	report := analytics.Compute(entries)
	assert.Equal(t, 151, report.AverageLatencyMs, "rounded mean of 100 and 201")
}

func TestAverageLatencyAllFailedIsZero(t *testing.T) {
	entries := []domain.CommandEntry{
		entry("on", domain.StatusFailed, 100),
		entry("off", domain.StatusFailed, 200),
	}

	report := analytics.Compute(entries)
	assert.Zero(t, report.AverageLatencyMs)
}

func TestLastFiveCommands(t *testing.T) {
	var entries []domain.CommandEntry
	for i := 0; i < 7; i++ {
		entries = append(entries, entry(fmt.Sprintf("cmd-%d", i), domain.StatusSuccess, 10))
	}

	report := analytics.Compute(entries)
	require.Len(t, report.LastFiveCommands, 5)
	assert.Equal(t, "cmd-2", report.LastFiveCommands[0].Cmd)
	assert.Equal(t, "cmd-6", report.LastFiveCommands[4].Cmd)

	short := analytics.Compute(entries[:2])
	assert.Len(t, short.LastFiveCommands, 2)
}

func TestCommandFrequency(t *testing.T) {
	entries := []domain.CommandEntry{
		entry("on", domain.StatusSuccess, 10),
		entry("off", domain.StatusFailed, 10),
		entry("on", domain.StatusSuccess, 10),
		entry("on", domain.StatusSuccess, 10),
	}

	report := analytics.Compute(entries)

	counts := map[string]int{}
	for _, c := range report.CommandFrequency {
		counts[c.Command] = c.Count
	}
	assert.Equal(t, map[string]int{"on": 3, "off": 1}, counts)
}

func TestHistoricalLatencyOrder(t *testing.T) {
	entries := []domain.CommandEntry{
		entry("a", domain.StatusSuccess, 10),
		entry("b", domain.StatusFailed, 20),
		entry("c", domain.StatusSuccess, 30),
	}

	report := analytics.Compute(entries)
	require.Len(t, report.HistoricalLatency, 3)
	assert.Equal(t, 10, report.HistoricalLatency[0].LatencyMs)
	assert.Equal(t, 20, report.HistoricalLatency[1].LatencyMs)
	assert.Equal(t, 30, report.HistoricalLatency[2].LatencyMs)
}
