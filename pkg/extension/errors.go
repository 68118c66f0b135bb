package extension

import (
	"errors"
	"fmt"
	"strings"
)

// ErrExtensionNotFound is matched by every NotFoundError via errors.Is
var ErrExtensionNotFound = errors.New("extension not found")

// NotFoundError is returned when no registered extension has the requested id.
// Available is the roster at the time of the lookup.
type NotFoundError struct {
	ID        string
	Available []Info
}

func (e *NotFoundError) Error() string {
	pairs := make([]string, 0, len(e.Available))
	for _, info := range e.Available {
		pairs = append(pairs, fmt.Sprintf("(%q, %q)", info.ID, info.Name))
	}

	return fmt.Sprintf(
		"Extension '%s' not found. Available extensions: [%s]. Try using '%s' for testing.",
		e.ID, strings.Join(pairs, ", "), EchoID,
	)
}

// Is reports whether target is ErrExtensionNotFound
func (e *NotFoundError) Is(target error) bool {
	return target == ErrExtensionNotFound
}

// IsNotFound reports whether err is, or wraps, a NotFoundError
func IsNotFound(err error) bool {
	return errors.Is(err, ErrExtensionNotFound)
}
