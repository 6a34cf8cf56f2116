// Package scoring computes priority, urgency and trend classification for
// malfunction records.  Every function here is pure and operates on a single
// record; callers supply the clock where one is needed.
package scoring

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/gtarallo/assistenza-tecnica/internal/model"
)

// ErrInvalidRecord marks a malfunction whose fields violate the data model
// invariants.  Scores computed from such a record would be meaningless, so
// the engine surfaces the defect instead of clamping.
var ErrInvalidRecord = errors.New("scoring: invalid malfunction record")

// Validate checks the invariants scoring relies on: LastSeen never precedes
// FirstSeen and ReportCount is at least 1.
func Validate(m model.Malfunction) error {
	if m.LastSeen.Before(m.FirstSeen) {
		return fmt.Errorf("%w: last_seen %s precedes first_seen %s",
			ErrInvalidRecord, m.LastSeen.Format(time.RFC3339), m.FirstSeen.Format(time.RFC3339))
	}
	if m.ReportCount < 1 {
		return fmt.Errorf("%w: report_count %d below 1", ErrInvalidRecord, m.ReportCount)
	}
	return nil
}

// severityPoints is the fixed point table behind Priority.  Unknown
// severities score zero rather than failing: an unclassified record should
// sink to the bottom of the queue, not break it.
func severityPoints(s model.Severity) int {
	switch s {
	case model.SeverityCritica:
		return 100
	case model.SeverityAlta:
		return 75
	case model.SeverityMedia:
		return 50
	case model.SeverityBassa:
		return 25
	default:
		return 0
	}
}

// frequencyPoints rewards repeat reports, capped at 50 so a noisy record
// cannot outrank a critical one on volume alone.
func frequencyPoints(reportCount int) int {
	pts := reportCount * 2
	if pts > 50 {
		return 50
	}
	if pts < 0 {
		return 0
	}
	return pts
}

// Priority returns the routing score in the range 0–150: severity points
// plus capped frequency points.
func Priority(m model.Malfunction) int {
	return severityPoints(m.Severity) + frequencyPoints(m.ReportCount)
}

// IsUrgent reports whether the malfunction should jump the queue: every
// critical record is urgent, and a high-severity record becomes urgent once
// it has accumulated ten reports.
func IsUrgent(m model.Malfunction) bool {
	if m.Severity == model.SeverityCritica {
		return true
	}
	return m.Severity == model.SeverityAlta && m.ReportCount >= 10
}

// RequiresExpert reports whether the repair must be routed to an expert
// technician: expert-difficulty always, hard-difficulty when the estimated
// intervention exceeds 90 minutes.
func RequiresExpert(m model.Malfunction) bool {
	if m.Difficulty == model.DifficultyEsperto {
		return true
	}
	return m.Difficulty == model.DifficultyDifficile && m.EstimatedMinutes > 90
}

// Trend classifies how recently a malfunction has been observed.
type Trend string

const (
	TrendRising    Trend = "rising"
	TrendStable    Trend = "stable"
	TrendDeclining Trend = "declining"
)

// TrendAt classifies the record relative to now.  The comparison is a strict
// After against calendar-month boundaries: a record last seen exactly one
// month ago is NOT rising, and one last seen exactly three months ago is NOT
// stable.  The boundary tests pin this down.
func TrendAt(m model.Malfunction, now time.Time) Trend {
	switch {
	case m.LastSeen.After(now.AddDate(0, -1, 0)):
		return TrendRising
	case m.LastSeen.After(now.AddDate(0, -3, 0)):
		return TrendStable
	default:
		return TrendDeclining
	}
}

// FrequencyRate is the reports-per-day statistic used in listings, rounded
// to two decimals.  A record first and last seen on the same day has an
// undefined rate and reports 0 instead of dividing by zero.
func FrequencyRate(m model.Malfunction) float64 {
	days := int(m.LastSeen.Sub(m.FirstSeen).Hours() / 24)
	if days <= 0 {
		return 0
	}
	return math.Round(float64(m.ReportCount)/float64(days)*100) / 100
}
