package scoring

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gtarallo/assistenza-tecnica/internal/model"
)

func record(sev model.Severity, reports int) model.Malfunction {
	now := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	return model.Malfunction{
		Severity:    sev,
		Difficulty:  model.DifficultyMedia,
		ReportCount: reports,
		FirstSeen:   now.AddDate(0, 0, -10),
		LastSeen:    now,
	}
}

func TestPriority(t *testing.T) {
	cases := []struct {
		name     string
		severity model.Severity
		reports  int
		want     int
	}{
		{"critica with zero reports scores bare severity", model.SeverityCritica, 0, 100},
		{"frequency is capped at 50", model.SeverityBassa, 100, 75},
		{"alta accumulates frequency", model.SeverityAlta, 5, 85},
		{"media", model.SeverityMedia, 1, 52},
		{"unknown severity scores zero points", model.Severity("grave"), 3, 6},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, Priority(record(tc.severity, tc.reports)))
		})
	}
}

func TestIsUrgent(t *testing.T) {
	assert.True(t, IsUrgent(record(model.SeverityCritica, 0)))
	assert.True(t, IsUrgent(record(model.SeverityAlta, 10)))
	assert.False(t, IsUrgent(record(model.SeverityAlta, 9)))
	assert.False(t, IsUrgent(record(model.SeverityMedia, 500)))
}

func TestRequiresExpert(t *testing.T) {
	m := record(model.SeverityMedia, 1)

	m.Difficulty = model.DifficultyEsperto
	m.EstimatedMinutes = 5
	assert.True(t, RequiresExpert(m))

	m.Difficulty = model.DifficultyDifficile
	m.EstimatedMinutes = 91
	assert.True(t, RequiresExpert(m))

	m.EstimatedMinutes = 90
	assert.False(t, RequiresExpert(m), "exactly 90 minutes does not require an expert")

	m.Difficulty = model.DifficultyFacile
	m.EstimatedMinutes = 500
	assert.False(t, RequiresExpert(m))
}

func TestTrendClassification(t *testing.T) {
	now := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	m := record(model.SeverityMedia, 1)

	m.LastSeen = now.AddDate(0, 0, -10)
	assert.Equal(t, TrendRising, TrendAt(m, now))

	m.LastSeen = now.AddDate(0, 0, -45)
	assert.Equal(t, TrendStable, TrendAt(m, now))

	m.LastSeen = now.AddDate(0, 0, -200)
	assert.Equal(t, TrendDeclining, TrendAt(m, now))
}

// The comparison is a strict After: a record seen exactly at a window
// boundary falls outside the window.
func TestTrendBoundariesAreExclusive(t *testing.T) {
	now := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	m := record(model.SeverityMedia, 1)

	m.LastSeen = now.AddDate(0, -1, 0)
	assert.Equal(t, TrendStable, TrendAt(m, now), "exactly one month ago is not rising")

	m.LastSeen = now.AddDate(0, -1, 0).Add(time.Second)
	assert.Equal(t, TrendRising, TrendAt(m, now))

	m.LastSeen = now.AddDate(0, -3, 0)
	assert.Equal(t, TrendDeclining, TrendAt(m, now), "exactly three months ago is not stable")

	m.LastSeen = now.AddDate(0, -3, 0).Add(time.Second)
	assert.Equal(t, TrendStable, TrendAt(m, now))
}

func TestFrequencyRate(t *testing.T) {
	m := record(model.SeverityMedia, 3)
	m.FirstSeen = time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC)
	m.LastSeen = m.FirstSeen.AddDate(0, 0, 9)
	assert.InDelta(t, 0.33, FrequencyRate(m), 0.0001)

	// Same-day span reports 0 instead of dividing by zero.
	m.LastSeen = m.FirstSeen
	assert.Zero(t, FrequencyRate(m))

	m.ReportCount = 10
	m.LastSeen = m.FirstSeen.AddDate(0, 0, 4)
	assert.InDelta(t, 2.5, FrequencyRate(m), 0.0001)
}

func TestValidateSurfacesDefects(t *testing.T) {
	good := record(model.SeverityMedia, 1)
	require.NoError(t, Validate(good))

	bad := good
	bad.LastSeen = bad.FirstSeen.AddDate(0, 0, -1)
	err := Validate(bad)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalidRecord))

	bad = good
	bad.ReportCount = 0
	err = Validate(bad)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalidRecord))
}
