package threat

import (
	"encoding/json"
	"fmt"
)

// Level is an ordered threat classification band. Higher values always mean
// a more dangerous anomaly, so levels can be compared with < and >.
type Level int

const (
	LevelNone Level = iota
	LevelLow
	LevelModerate
	LevelHigh
	LevelCritical
)

var levelNames = map[Level]string{
	LevelNone:     "none",
	LevelLow:      "low",
	LevelModerate: "moderate",
	LevelHigh:     "high",
	LevelCritical: "critical",
}

func (l Level) String() string {
	if name, ok := levelNames[l]; ok {
		return name
	}
	return fmt.Sprintf("level(%d)", int(l))
}

// ParseLevel converts a level name ("none" … "critical") back to a Level.
func ParseLevel(s string) (Level, error) {
	for l, name := range levelNames {
		if name == s {
			return l, nil
		}
	}
	return LevelNone, fmt.Errorf("unknown threat level %q", s)
}

// MarshalJSON encodes the level as its string name.
func (l Level) MarshalJSON() ([]byte, error) {
	return json.Marshal(l.String())
}

// UnmarshalJSON decodes a level from its string name.
func (l *Level) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := ParseLevel(s)
	if err != nil {
		return err
	}
	*l = parsed
	return nil
}
