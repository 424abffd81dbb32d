package model

import (
	"fmt"

	"github.com/odme-systems/sentinel/internal/threat"
)

// Category is the closed set of anomaly classifications field agents may
// report. Unknown categories are rejected at validation time instead of
// being scored at a default, so a typo never feeds the scorer silently.
type Category string

const (
	CategoryShapeshifter Category = "shapeshifter"
	CategoryElemental    Category = "elemental"
	CategoryPhantom      Category = "phantom"
)

// knownCategories is the validation set for Category.
var knownCategories = map[Category]bool{
	CategoryShapeshifter: true,
	CategoryElemental:    true,
	CategoryPhantom:      true,
}

const (
	// MaxReading is the upper bound of the intensity and aggression scales.
	MaxReading = 100

	maxTextField = 500
	maxNotes     = 2000
)

// AttributeSet is one submission's raw evidence: the bounded numeric
// readings the scorer consumes plus optional descriptive fields. It is
// constructed fresh per submission and never mutated afterwards.
type AttributeSet struct {
	Intensity    float64  `json:"intensity"`
	Invisibility bool     `json:"invisibility"`
	Aggression   float64  `json:"aggression"`
	Category     Category `json:"category,omitempty"`
	Location     string   `json:"location,omitempty"`
	AgentName    string   `json:"agent_name,omitempty"`
	Notes        string   `json:"notes,omitempty"`
}

// Validate rejects out-of-range readings and unknown categories. Values are
// never clamped: the caller gets an explicit error and resubmits.
func (a AttributeSet) Validate() error {
	if a.Intensity < 0 || a.Intensity > MaxReading {
		return &ErrValidation{Msg: fmt.Sprintf("intensity must be between 0 and %d, got %v", MaxReading, a.Intensity)}
	}
	if a.Aggression < 0 || a.Aggression > MaxReading {
		return &ErrValidation{Msg: fmt.Sprintf("aggression must be between 0 and %d, got %v", MaxReading, a.Aggression)}
	}
	if a.Category != "" && !knownCategories[a.Category] {
		return &ErrValidation{Msg: fmt.Sprintf("unknown category %q", a.Category)}
	}
	if len(a.Location) > maxTextField {
		return &ErrValidation{Msg: "location exceeds 500 characters"}
	}
	if len(a.AgentName) > maxTextField {
		return &ErrValidation{Msg: "agent_name exceeds 500 characters"}
	}
	if len(a.Notes) > maxNotes {
		return &ErrValidation{Msg: "notes exceeds 2000 characters"}
	}
	return nil
}

// ScoringInput converts the attribute set into the scorer's input view.
func (a AttributeSet) ScoringInput() threat.Input {
	return threat.Input{
		Category:   string(a.Category),
		Intensity:  a.Intensity,
		Invisible:  a.Invisibility,
		Aggression: a.Aggression,
	}
}

// ErrValidation is returned when a caller supplies a malformed or
// out-of-range attribute set. Handlers map it to HTTP 400.
type ErrValidation struct{ Msg string }

func (e *ErrValidation) Error() string { return e.Msg }
