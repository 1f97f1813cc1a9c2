package quiz

import (
	"fmt"
	"strings"
)

// Level is a difficulty tier of a session. Levels are strictly ordered.
type Level int

const (
	LevelBeginner Level = iota
	LevelIntermediate
	LevelAdvanced
)

// Levels lists every level in progression order.
var Levels = []Level{LevelBeginner, LevelIntermediate, LevelAdvanced}

func (l Level) String() string {
	switch l {
	case LevelBeginner:
		return "beginner"
	case LevelIntermediate:
		return "intermediate"
	case LevelAdvanced:
		return "advanced"
	default:
		return fmt.Sprintf("level(%d)", int(l))
	}
}

// Valid reports whether l is one of the known levels.
func (l Level) Valid() bool {
	return l >= Levels[0] && l <= Levels[len(Levels)-1]
}

// IsLast reports whether l is the final level of the progression.
func (l Level) IsLast() bool {
	return l == Levels[len(Levels)-1]
}

// Next returns the level after l. ok is false when l is already the last level.
func (l Level) Next() (next Level, ok bool) {
	if l.IsLast() || !l.Valid() {
		return l, false
	}
	return l + 1, true
}

// ParseLevel parses a level name (case-insensitive).
func ParseLevel(s string) (Level, error) {
	name := strings.TrimSpace(s)
	for _, l := range Levels {
		if strings.EqualFold(name, l.String()) {
			return l, nil
		}
	}
	return 0, fmt.Errorf("unknown level %q", s)
}

func (l Level) MarshalText() ([]byte, error) {
	if !l.Valid() {
		return nil, fmt.Errorf("invalid level %d", int(l))
	}
	return []byte(l.String()), nil
}

func (l *Level) UnmarshalText(b []byte) error {
	parsed, err := ParseLevel(string(b))
	if err != nil {
		return err
	}
	*l = parsed
	return nil
}
