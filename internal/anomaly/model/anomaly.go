// Package model defines the anomaly registry's domain records and the
// validated attribute set that feeds the threat scorer.
package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/odme-systems/sentinel/internal/threat"
)

// Status is an anomaly's lifecycle state. Transitions are one-directional:
// active → resolved, never back.
type Status string

const (
	StatusActive   Status = "active"
	StatusResolved Status = "resolved"
)

// ParseStatus validates a status string from a query parameter.
func ParseStatus(s string) (Status, bool) {
	switch Status(s) {
	case StatusActive, StatusResolved:
		return Status(s), true
	}
	return "", false
}

// Anomaly is one tracked event. CurrentLevel/CurrentScore always reflect the
// assessment of the most recently accepted report under the configured
// aggregation policy, or the ingestion assessment when no reports exist.
type Anomaly struct {
	ID           uuid.UUID    `json:"id"            db:"id"`
	Status       Status       `json:"status"        db:"status"`
	Category     Category     `json:"category,omitempty" db:"category"`
	Location     string       `json:"location,omitempty" db:"location"`
	CurrentLevel threat.Level `json:"current_level" db:"current_level"`
	CurrentScore float64      `json:"current_score" db:"current_score"`
	CreatedAt    time.Time    `json:"created_at"    db:"created_at"`

	// Reports is populated only by single-anomaly lookups.
	Reports []*Report `json:"reports,omitempty"`
}

// ListFilter narrows List queries. Zero values mean "no constraint".
type ListFilter struct {
	Status   Status
	Category Category

	// MinLevel keeps anomalies whose current level is at or above the bound.
	MinLevel *threat.Level
}

// Summary aggregates registry-wide statistics for the operations dashboard.
type Summary struct {
	TotalAnomalies     int      `json:"total_anomalies"`
	UnresolvedCount    int      `json:"unresolved_count"`
	MostCommonCategory string   `json:"most_common_category,omitempty"`
	AvgUnresolvedScore *float64 `json:"avg_unresolved_score,omitempty"`
}
