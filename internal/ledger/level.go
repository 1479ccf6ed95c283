package ledger

import (
	"errors"

	"fincal/internal/core"
)

// Level is the severity a UI should show an error with.
type Level string

const (
	LevelError   Level = "error"
	LevelWarning Level = "warning"
	LevelInfo    Level = "info"
)

// LevelOf classifies err. Conflicts and self-merges are warnings, missing
// entities are informational, everything else is an error.
func LevelOf(err error) Level {
	switch {
	case err == nil:
		return LevelInfo
	case errors.Is(err, core.ErrCategoryExists),
		errors.Is(err, core.ErrDuplicateID),
		errors.Is(err, core.ErrSameCategory):
		return LevelWarning
	case errors.Is(err, core.ErrNotFound),
		errors.Is(err, core.ErrCategoryNotFound):
		return LevelInfo
	default:
		return LevelError
	}
}
