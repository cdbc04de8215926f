package model

import (
	"fmt"
	"strings"
)

// Level is an org-hierarchy level. LevelNone means "see everything".
type Level int

const (
	LevelNone Level = iota
	Level1          // director
	Level2          // regional manager
	Level3          // manager
	Level4          // supervisor
	Level5          // coordinator
	Level6          // consultant
	Level7          // salesperson
)

var levelNames = map[Level]string{
	LevelNone: "none",
	Level1:    "director",
	Level2:    "regional_manager",
	Level3:    "manager",
	Level4:    "supervisor",
	Level5:    "coordinator",
	Level6:    "consultant",
	Level7:    "salesperson",
}

func (l Level) String() string {
	if name, ok := levelNames[l]; ok {
		return name
	}
	return fmt.Sprintf("level(%d)", int(l))
}

// Role returns the semantic role bound to this level.
func (l Level) Role() Role {
	switch l {
	case Level1:
		return RoleL1
	case Level2:
		return RoleL2
	case Level3:
		return RoleL3
	case Level4:
		return RoleL4
	case Level5:
		return RoleL5
	case Level6:
		return RoleL6
	case Level7:
		return RoleL7
	}
	return ""
}

// ParseLevel accepts either a level name ("regional_manager") or the short
// form "l1".."l7"; "" and "none" both mean LevelNone.
func ParseLevel(s string) (Level, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return LevelNone, nil
	}
	for l, name := range levelNames {
		if s == name {
			return l, nil
		}
	}
	if len(s) == 2 && s[0] == 'l' && s[1] >= '1' && s[1] <= '7' {
		return Level(s[1] - '0'), nil
	}
	return LevelNone, fmt.Errorf("unknown hierarchy level %q", s)
}

// Assertion restricts a user's visible rows to those whose value at Level
// is in Allowed. A LevelNone assertion admits everything.
type Assertion struct {
	Level   Level
	Allowed map[string]struct{}
}

// Admin reports whether the assertion admits every row.
func (a Assertion) Admin() bool {
	return a.Level == LevelNone
}

// Admits reports whether a value at the assertion's level is visible.
func (a Assertion) Admits(value string) bool {
	if a.Level == LevelNone {
		return true
	}
	_, ok := a.Allowed[value]
	return ok
}

// NewAssertion builds an assertion from a level and its allowed values.
func NewAssertion(level Level, values []string) Assertion {
	a := Assertion{Level: level}
	if level == LevelNone {
		return a
	}
	a.Allowed = make(map[string]struct{}, len(values))
	for _, v := range values {
		a.Allowed[v] = struct{}{}
	}
	return a
}
