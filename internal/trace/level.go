package trace

import (
	"fmt"
	"strings"
)

// Level controls tracing verbosity.
type Level uint8

const (
	LevelOff     Level = iota // no tracing
	LevelStep                 // run and pipeline steps
	LevelCommand              // plus external commands
	LevelDebug                // plus points and heartbeats
)

var levelNames = [...]string{LevelOff: "off", LevelStep: "step", LevelCommand: "command", LevelDebug: "debug"}

func (l Level) String() string {
	if int(l) < len(levelNames) {
		return levelNames[l]
	}
	return "unknown"
}

// ParseLevel accepts the names printed by String; empty means off.
func ParseLevel(s string) (Level, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return LevelOff, nil
	}
	for l, name := range levelNames {
		if name == s {
			return Level(l), nil
		}
	}
	return LevelOff, fmt.Errorf("invalid trace level: %q (expected: off|step|command|debug)", s)
}

// ShouldEmit reports whether l records an event of kind at scope. Below
// debug only spans are kept, down to the finest scope the level allows.
func (l Level) ShouldEmit(kind Kind, scope Scope) bool {
	switch {
	case l == LevelOff:
		return false
	case l >= LevelDebug:
		return true
	case kind == KindPoint || kind == KindHeartbeat:
		return false
	}
	finest := ScopeStep
	if l == LevelCommand {
		finest = ScopeCommand
	}
	return scope <= finest
}
