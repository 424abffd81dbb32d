// Package threat scores anomaly attribute sets. It combines the reported
// attributes into a single 0–100 score via configurable weights and
// classifies the score into an ordered level band. Scoring is pure: the same
// input and configuration always produce the same assessment.
package threat

import "fmt"

// Input is the scorer's view of one submission. The anomaly model converts
// its validated attribute set into this shape before evaluation.
type Input struct {
	Category   string  `json:"category,omitempty"`
	Intensity  float64 `json:"intensity"`
	Invisible  bool    `json:"invisible"`
	Aggression float64 `json:"aggression"`
}

// Assessment is the outcome of evaluating one Input.
type Assessment struct {
	// Level is derived from Score and never disagrees with it.
	Level Level `json:"level"`

	// Score is the clamped 0–100 weighted sum.
	Score float64 `json:"score"`

	// Input is the attribute view that produced this assessment, kept for
	// auditability alongside each stored report.
	Input Input `json:"input"`
}

// Weights holds the per-attribute danger contributions.
type Weights struct {
	// Intensity multiplies the 0–100 magical intensity reading.
	Intensity float64

	// Aggression multiplies the 0–100 aggression reading. Weighted higher
	// than intensity by default: an aggressive entity is the operator's
	// first problem.
	Aggression float64

	// InvisibilityBonus is added once when the entity cannot be seen.
	InvisibilityBonus float64
}

// Thresholds are the inclusive lower bounds of each band above none.
// A score exactly equal to a threshold classifies into the higher band.
type Thresholds struct {
	Low      float64
	Moderate float64
	High     float64
	Critical float64
}

// Config is the full tunable scoring configuration, loaded once at startup
// and injected into the engine.
type Config struct {
	Weights    Weights
	Thresholds Thresholds

	// CategoryBase maps an anomaly category to its base score contribution.
	// Categories absent from the map contribute nothing.
	CategoryBase map[string]float64
}

// DefaultConfig returns the shipped calibration. Operators override any of
// these through the scoring.* configuration keys.
func DefaultConfig() Config {
	return Config{
		Weights: Weights{
			Intensity:         0.4,
			Aggression:        0.5,
			InvisibilityBonus: 15,
		},
		Thresholds: Thresholds{
			Low:      15,
			Moderate: 35,
			High:     65,
			Critical: 85,
		},
		CategoryBase: map[string]float64{
			"shapeshifter": 20,
			"elemental":    10,
			"phantom":      5,
		},
	}
}

// Validate checks that the threshold bands are strictly ascending.
func (c Config) Validate() error {
	t := c.Thresholds
	if !(t.Low < t.Moderate && t.Moderate < t.High && t.High < t.Critical) {
		return fmt.Errorf("thresholds must be strictly ascending: low=%v moderate=%v high=%v critical=%v",
			t.Low, t.Moderate, t.High, t.Critical)
	}
	return nil
}

// Engine evaluates anomaly submissions against one immutable Config.
type Engine struct {
	cfg Config
}

// NewEngine creates an Engine. The config is copied; later mutation of the
// caller's Config does not affect the engine.
func NewEngine(cfg Config) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	base := make(map[string]float64, len(cfg.CategoryBase))
	for k, v := range cfg.CategoryBase {
		base[k] = v
	}
	cfg.CategoryBase = base
	return &Engine{cfg: cfg}, nil
}

// Evaluate computes the assessment for one submission. It never fails: range
// validation happens in the attribute model before inputs reach the engine.
func (e *Engine) Evaluate(in Input) Assessment {
	score := e.cfg.CategoryBase[in.Category]
	score += e.cfg.Weights.Intensity * in.Intensity
	score += e.cfg.Weights.Aggression * in.Aggression
	if in.Invisible {
		score += e.cfg.Weights.InvisibilityBonus
	}

	if score < 0 {
		score = 0
	}
	if score > 100 {
		score = 100
	}

	return Assessment{
		Level: e.Classify(score),
		Score: score,
		Input: in,
	}
}

// Classify maps a score to its band. Comparisons are inclusive on the lower
// bound, so a score equal to a threshold belongs to the higher band.
func (e *Engine) Classify(score float64) Level {
	t := e.cfg.Thresholds
	switch {
	case score >= t.Critical:
		return LevelCritical
	case score >= t.High:
		return LevelHigh
	case score >= t.Moderate:
		return LevelModerate
	case score >= t.Low:
		return LevelLow
	default:
		return LevelNone
	}
}
