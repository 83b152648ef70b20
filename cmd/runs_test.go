package main

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/sells-group/calcdata/internal/model"
)

func timePtr(t time.Time) *time.Time { return &t }

func sampleRuns(now time.Time) []model.Run {
	return []model.Run{
		{
			ID:         "abc12345-6789-0000-0000-000000000000",
			Pass:       model.PassReconcile,
			Written:    true,
			Changes:    7,
			Summary:    "reconcile: 2 renamed, 5 fields updated",
			StartedAt:  now,
			FinishedAt: timePtr(now.Add(4 * time.Second)),
		},
		{
			ID:         "def12345-6789-0000-0000-000000000000",
			Pass:       model.PassCleanup,
			DryRun:     true,
			Changes:    2,
			Summary:    "cleanup: removed 2 placeholder DNA entries, kept 1",
			StartedAt:  now.Add(-time.Hour),
			FinishedAt: timePtr(now.Add(-time.Hour + 2*time.Second)),
		},
		{
			ID:        "0123",
			Pass:      model.PassExtract,
			StartedAt: now.Add(-30 * 24 * time.Hour),
		},
	}
}

func TestFormatRunsList(t *testing.T) {
	now := time.Date(2025, 6, 15, 10, 30, 0, 0, time.UTC)

	var buf bytes.Buffer
	formatRunsList(&buf, sampleRuns(now))

	output := buf.String()
	assert.Contains(t, output, "PASS")
	assert.Contains(t, output, "WRITTEN")
	assert.Contains(t, output, "abc12345")
	assert.NotContains(t, output, "abc12345-6789")
	assert.Contains(t, output, "reconcile")
	assert.Contains(t, output, "yes")
	assert.Contains(t, output, "dry")
	assert.Contains(t, output, "2025-06-15 10:30")
	assert.Contains(t, output, "4s")
	assert.Contains(t, output, "0123")
}

func TestFormatRunsList_TruncatesSummary(t *testing.T) {
	long := "reconcile: " + string(bytes.Repeat([]byte("x"), 80))
	var buf bytes.Buffer
	formatRunsList(&buf, []model.Run{{ID: "r1", Pass: model.PassReconcile, Summary: long}})
	assert.Contains(t, buf.String(), "...")
	assert.NotContains(t, buf.String(), long)
}

func TestComputeRunStats(t *testing.T) {
	now := time.Date(2025, 6, 15, 10, 30, 0, 0, time.UTC)
	runs := sampleRuns(now)

	all := computeRunStats(runs, time.Time{})
	assert.Equal(t, 3, all.Total)
	assert.Equal(t, 1, all.ByPass[model.PassReconcile])
	assert.Equal(t, 1, all.ByPass[model.PassCleanup])
	assert.Equal(t, 1, all.ByPass[model.PassExtract])
	assert.Equal(t, 1, all.DryRuns)
	assert.Equal(t, 1, all.Written)
	assert.Equal(t, 1, all.Unfinished)
	assert.Equal(t, 9, all.Changes)
	assert.InDelta(t, 3.0, all.AvgDurSecs, 0.001)

	recent := computeRunStats(runs, now.Add(-24*time.Hour))
	assert.Equal(t, 2, recent.Total)
	assert.Equal(t, 0, recent.Unfinished)
}

func TestFormatRunStats(t *testing.T) {
	var buf bytes.Buffer
	formatRunStats(&buf, runStats{
		Total:      3,
		ByPass:     map[model.Pass]int{model.PassReconcile: 2, model.PassCleanup: 1},
		Written:    2,
		Changes:    9,
		AvgDurSecs: 1.5,
	})
	output := buf.String()
	assert.Contains(t, output, "Total runs:")
	assert.Contains(t, output, "reconcile:")
	assert.Contains(t, output, "Avg duration:")
	assert.Contains(t, output, "1.5s")
}

func TestTruncateID(t *testing.T) {
	assert.Equal(t, "abc12345", truncateID("abc12345-6789"))
	assert.Equal(t, "short", truncateID("short"))
}
