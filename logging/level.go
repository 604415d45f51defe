package logging

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/ethereum/go-ethereum/log"
)

// Level is the verbosity of the sink. Each level includes the ones before it.
type Level int

const (
	LevelNone Level = iota
	LevelError
	LevelOK
	LevelWarning
	LevelDebug
)

// DefaultLevel is used until a level is read from the config.
const DefaultLevel = LevelWarning

func (l Level) String() string {
	switch l {
	case LevelNone:
		return "None"
	case LevelError:
		return "Error"
	case LevelOK:
		return "OK"
	case LevelWarning:
		return "Warning"
	case LevelDebug:
		return "Debug"
	default:
		return fmt.Sprintf("Level(%d)", int(l))
	}
}

// ParseLevel parses a level name as written in the config file.
func ParseLevel(s string) (Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "none", "off":
		return LevelNone, nil
	case "error":
		return LevelError, nil
	case "ok", "info":
		return LevelOK, nil
	case "warning", "warn":
		return LevelWarning, nil
	case "debug":
		return LevelDebug, nil
	default:
		return DefaultLevel, fmt.Errorf("unknown log level %q", s)
	}
}

// Allows reports whether a record at lvl is emitted. Levels are ranked by
// verbosity, so OK admits info records but not warnings.
func (l Level) Allows(lvl slog.Level) bool {
	return rank(lvl) <= l
}

func rank(lvl slog.Level) Level {
	switch {
	case lvl >= log.LevelError:
		return LevelError
	case lvl >= log.LevelWarn:
		return LevelWarning
	case lvl >= log.LevelInfo:
		return LevelOK
	default:
		return LevelDebug
	}
}

// tag returns the label and CSS class for a record level.
func tag(lvl slog.Level) (label string, class string) {
	switch {
	case lvl >= log.LevelError:
		return "ERROR", "error"
	case lvl >= log.LevelWarn:
		return "WARNING", "warning"
	case lvl >= log.LevelInfo:
		return "OK", "ok"
	default:
		return "DEBUG", "debug"
	}
}
