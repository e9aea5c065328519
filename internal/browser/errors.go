package browser

import (
	"errors"
	"fmt"
)

// ErrAPIFailure is matched by every error that came back from the storage API.
var ErrAPIFailure = errors.New("storage api failure")

// APIError records a failed storage API call.
type APIError struct {
	Op   string // list_folder, get_temporary_link
	Path string
	Err  error
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s %q: %v", e.Op, e.Path, e.Err)
}

func (e *APIError) Unwrap() []error {
	return []error{ErrAPIFailure, e.Err}
}

// IsAPIFailure reports whether err came from the storage API.
func IsAPIFailure(err error) bool {
	return errors.Is(err, ErrAPIFailure)
}
