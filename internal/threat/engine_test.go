package threat_test

import (
	"sort"
	"testing"

	"github.com/odme-systems/sentinel/internal/threat"
)

func newEngine(t *testing.T) *threat.Engine {
	t.Helper()
	e, err := threat.NewEngine(threat.DefaultConfig())
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}
	return e
}

func TestEvaluate_deterministic(t *testing.T) {
	e := newEngine(t)
	in := threat.Input{Category: "phantom", Intensity: 42, Invisible: true, Aggression: 17}

	first := e.Evaluate(in)
	second := e.Evaluate(in)
	if first != second {
		t.Errorf("same input produced different assessments: %+v vs %+v", first, second)
	}
}

func TestEvaluate_scenarioLevels(t *testing.T) {
	e := newEngine(t)

	tests := []struct {
		name string
		in   threat.Input
		want threat.Level
	}{
		{"hostile invisible entity", threat.Input{Intensity: 90, Invisible: true, Aggression: 80}, threat.LevelCritical},
		{"calm residual trace", threat.Input{Intensity: 10, Invisible: false, Aggression: 5}, threat.LevelNone},
		{"moderate elemental", threat.Input{Category: "elemental", Intensity: 50, Aggression: 30}, threat.LevelModerate},
		{"zero readings", threat.Input{}, threat.LevelNone},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := e.Evaluate(tt.in)
			if got.Level != tt.want {
				t.Errorf("Evaluate(%+v).Level = %s, want %s (score %.1f)", tt.in, got.Level, tt.want, got.Score)
			}
		})
	}
}

func TestEvaluate_scoreClamped(t *testing.T) {
	e := newEngine(t)
	got := e.Evaluate(threat.Input{Category: "shapeshifter", Intensity: 100, Invisible: true, Aggression: 100})
	if got.Score != 100 {
		t.Errorf("Score = %v, want clamped to 100", got.Score)
	}
	if got.Level != threat.LevelCritical {
		t.Errorf("Level = %s, want critical", got.Level)
	}
}

func TestEvaluate_monotonic(t *testing.T) {
	e := newEngine(t)

	inputs := []threat.Input{
		{},
		{Intensity: 10, Aggression: 5},
		{Category: "phantom", Intensity: 20, Aggression: 10},
		{Category: "elemental", Intensity: 40, Aggression: 30},
		{Intensity: 60, Invisible: true, Aggression: 50},
		{Category: "shapeshifter", Intensity: 80, Invisible: true, Aggression: 70},
		{Intensity: 100, Invisible: true, Aggression: 100},
	}

	assessments := make([]threat.Assessment, len(inputs))
	for i, in := range inputs {
		assessments[i] = e.Evaluate(in)
	}
	sort.Slice(assessments, func(i, j int) bool { return assessments[i].Score < assessments[j].Score })

	for i := 1; i < len(assessments); i++ {
		if assessments[i].Level < assessments[i-1].Level {
			t.Errorf("higher score %.1f got level %s, below level %s at score %.1f",
				assessments[i].Score, assessments[i].Level,
				assessments[i-1].Level, assessments[i-1].Score)
		}
	}
}

// TestClassify_boundaryInclusive verifies a score exactly equal to a
// threshold classifies into the higher band.
func TestClassify_boundaryInclusive(t *testing.T) {
	cfg := threat.DefaultConfig()
	e, err := threat.NewEngine(cfg)
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}

	tests := []struct {
		score float64
		want  threat.Level
	}{
		{cfg.Thresholds.Low, threat.LevelLow},
		{cfg.Thresholds.Low - 0.001, threat.LevelNone},
		{cfg.Thresholds.Moderate, threat.LevelModerate},
		{cfg.Thresholds.Moderate - 0.001, threat.LevelLow},
		{cfg.Thresholds.High, threat.LevelHigh},
		{cfg.Thresholds.Critical, threat.LevelCritical},
		{cfg.Thresholds.Critical - 0.001, threat.LevelHigh},
		{0, threat.LevelNone},
		{100, threat.LevelCritical},
	}
	for _, tt := range tests {
		if got := e.Classify(tt.score); got != tt.want {
			t.Errorf("Classify(%v) = %s, want %s", tt.score, got, tt.want)
		}
	}
}

func TestNewEngine_rejectsUnorderedThresholds(t *testing.T) {
	cfg := threat.DefaultConfig()
	cfg.Thresholds.High = cfg.Thresholds.Moderate
	if _, err := threat.NewEngine(cfg); err == nil {
		t.Error("expected error for non-ascending thresholds")
	}
}

func TestParseLevel(t *testing.T) {
	for _, l := range []threat.Level{threat.LevelNone, threat.LevelLow, threat.LevelModerate, threat.LevelHigh, threat.LevelCritical} {
		got, err := threat.ParseLevel(l.String())
		if err != nil || got != l {
			t.Errorf("ParseLevel(%q) = %v, %v; want %v", l.String(), got, err, l)
		}
	}
	if _, err := threat.ParseLevel("apocalyptic"); err == nil {
		t.Error("expected error for unknown level name")
	}
}

func TestAggregate_recent(t *testing.T) {
	high := threat.Assessment{Level: threat.LevelCritical, Score: 91}
	low := threat.Assessment{Level: threat.LevelNone, Score: 6.5}

	got := threat.Aggregate(threat.PolicyRecent, high, low)
	if got != low {
		t.Errorf("recent policy should adopt the latest assessment, got %+v", got)
	}
}

func TestAggregate_max(t *testing.T) {
	high := threat.Assessment{Level: threat.LevelCritical, Score: 91}
	low := threat.Assessment{Level: threat.LevelNone, Score: 6.5}

	if got := threat.Aggregate(threat.PolicyMax, high, low); got != high {
		t.Errorf("max policy should keep the higher score, got %+v", got)
	}
	if got := threat.Aggregate(threat.PolicyMax, low, high); got != high {
		t.Errorf("max policy should adopt a higher new score, got %+v", got)
	}
}

func TestParsePolicy(t *testing.T) {
	if _, err := threat.ParsePolicy("recent"); err != nil {
		t.Errorf("ParsePolicy(recent): %v", err)
	}
	if _, err := threat.ParsePolicy("max"); err != nil {
		t.Errorf("ParsePolicy(max): %v", err)
	}
	if _, err := threat.ParsePolicy("worst"); err == nil {
		t.Error("expected error for unknown policy")
	}
}
