package model

import (
	"strings"
	"time"
)

// Severity classifies how serious a malfunction is.  The values are ordered
// low→high and match the `malfunctions.severity` column exactly.
type Severity string

const (
	SeverityBassa   Severity = "bassa"
	SeverityMedia   Severity = "media"
	SeverityAlta    Severity = "alta"
	SeverityCritica Severity = "critica"
)

// ParseSeverity normalizes a raw token into a Severity.  Unknown tokens are
// returned as-is with ok=false so callers can decide between rejecting and
// the scoring engine's zero-point fallback.
func ParseSeverity(s string) (Severity, bool) {
	sev := Severity(strings.ToLower(strings.TrimSpace(s)))
	switch sev {
	case SeverityBassa, SeverityMedia, SeverityAlta, SeverityCritica:
		return sev, true
	}
	return sev, false
}

// Difficulty classifies the repair effort of a malfunction.
type Difficulty string

const (
	DifficultyFacile    Difficulty = "facile"
	DifficultyMedia     Difficulty = "media"
	DifficultyDifficile Difficulty = "difficile"
	DifficultyEsperto   Difficulty = "esperto"
)

// ParseDifficulty normalizes a raw token into a Difficulty.
func ParseDifficulty(s string) (Difficulty, bool) {
	d := Difficulty(strings.ToLower(strings.TrimSpace(s)))
	switch d {
	case DifficultyFacile, DifficultyMedia, DifficultyDifficile, DifficultyEsperto:
		return d, true
	}
	return d, false
}

// Malfunction mirrors the `malfunctions` table.  Each record is tied to
// exactly one product.  ReportCount starts at 1 and only ever grows:
// duplicate reports bump the count and LastSeen instead of creating a new
// row.  Invariant: LastSeen >= FirstSeen.
type Malfunction struct {
	ID               uint64     // malfunctions.id
	ProductID        uint64     // malfunctions.product_id
	Title            string     // malfunctions.title
	Description      string     // malfunctions.description
	Severity         Severity   // malfunctions.severity
	Difficulty       Difficulty // malfunctions.difficulty
	ReportCount      int        // malfunctions.report_count (>= 1)
	EstimatedMinutes int        // malfunctions.estimated_minutes
	FirstSeen        time.Time  // malfunctions.first_seen
	LastSeen         time.Time  // malfunctions.last_seen
	CreatedBy        uint64     // malfunctions.created_by (identity id)
	LastEditedBy     *uint64    // malfunctions.last_edited_by, nullable
	CreatedAt        time.Time  // malfunctions.created_at
	UpdatedAt        time.Time  // malfunctions.updated_at
}
