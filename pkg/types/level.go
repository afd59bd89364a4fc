package types

import (
	"fmt"
	"strings"
)

// Level is the ordered severity of a log event.
type Level int

// Log levels, lowest to highest.
const (
	LevelTrace Level = iota
	LevelDebug
	LevelInfo
	LevelWarning
	LevelError
	LevelFatal
)

// MinimumLevel is the lowest level a pipeline can be restricted to.
const MinimumLevel = LevelTrace

// String returns the full name of the level ("Information", "Warning", ...).
func (l Level) String() string {
	switch l {
	case LevelTrace:
		return "Verbose"
	case LevelDebug:
		return "Debug"
	case LevelInfo:
		return "Information"
	case LevelWarning:
		return "Warning"
	case LevelError:
		return "Error"
	case LevelFatal:
		return "Fatal"
	default:
		return fmt.Sprintf("Level(%d)", int(l))
	}
}

// ShortName returns the three letter upper-case abbreviation used by
// output templates ("INF", "WRN", ...).
func (l Level) ShortName() string {
	switch l {
	case LevelTrace:
		return "VRB"
	case LevelDebug:
		return "DBG"
	case LevelInfo:
		return "INF"
	case LevelWarning:
		return "WRN"
	case LevelError:
		return "ERR"
	case LevelFatal:
		return "FTL"
	default:
		return "???"
	}
}

// Valid reports whether l is one of the known levels.
func (l Level) Valid() bool {
	return l >= LevelTrace && l <= LevelFatal
}

// ParseLevel converts a level name to a Level. Matching is case-insensitive
// and accepts the common aliases used in configuration files.
func ParseLevel(s string) (Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "trace", "verbose", "vrb":
		return LevelTrace, nil
	case "debug", "dbg":
		return LevelDebug, nil
	case "info", "information", "inf":
		return LevelInfo, nil
	case "warn", "warning", "wrn":
		return LevelWarning, nil
	case "error", "err":
		return LevelError, nil
	case "fatal", "ftl", "critical":
		return LevelFatal, nil
	default:
		return LevelInfo, InvalidArgument("parse level", "level", fmt.Sprintf("unknown level %q", s))
	}
}
