package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/odme-systems/sentinel/internal/threat"
)

// Report is one agent's evidentiary submission against an existing anomaly.
// Reports are append-only: once written they are never edited or removed,
// and each keeps the assessment computed for its own attribute set so the
// scoring history stays auditable.
type Report struct {
	ID         uuid.UUID    `json:"id"         db:"id"`
	AnomalyID  uuid.UUID    `json:"anomaly_id" db:"anomaly_id"`
	AgentName  string       `json:"agent_name" db:"agent_name"`
	Attributes AttributeSet `json:"attributes" db:"attributes"`
	Level      threat.Level `json:"level"      db:"level"`
	Score      float64      `json:"score"      db:"score"`
	CreatedAt  time.Time    `json:"created_at" db:"created_at"`
}
