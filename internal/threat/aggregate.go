package threat

import "fmt"

// Policy selects how a new report's assessment combines with an anomaly's
// current assessment.
type Policy string

const (
	// PolicyRecent makes the anomaly always display the latest report's
	// assessment. Situations can de-escalate as agents gather better data.
	PolicyRecent Policy = "recent"

	// PolicyMax keeps the highest score ever observed. The displayed level
	// never decreases until the anomaly is resolved.
	PolicyMax Policy = "max"
)

// ParsePolicy validates a policy name from configuration.
func ParsePolicy(s string) (Policy, error) {
	switch Policy(s) {
	case PolicyRecent, PolicyMax:
		return Policy(s), nil
	}
	return "", fmt.Errorf("unknown aggregation policy %q (want %q or %q)", s, PolicyRecent, PolicyMax)
}

// Aggregate returns the anomaly's new current assessment after accepting a
// report. Past report records are never touched; only the anomaly's pointer
// to its current assessment moves.
func Aggregate(p Policy, current, next Assessment) Assessment {
	if p == PolicyMax && current.Score > next.Score {
		return current
	}
	return next
}
