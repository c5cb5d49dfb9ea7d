package market

import (
	"errors"
	"fmt"
)

var (
	// ErrNetwork classifies failed requests and non-success responses.
	ErrNetwork = errors.New("market: network error")
	// ErrNotFound indicates a detail lookup for an unknown asset id.
	ErrNotFound = errors.New("market: asset not found")
)

// NetworkError describes a failed upstream call.
type NetworkError struct {
	Op         string
	StatusCode int
	Err        error
}

func (e *NetworkError) Error() string {
	switch {
	case e.StatusCode != 0 && e.Err != nil:
		return fmt.Sprintf("%s: status %d: %v", e.Op, e.StatusCode, e.Err)
	case e.StatusCode != 0:
		return fmt.Sprintf("%s: status %d", e.Op, e.StatusCode)
	case e.Err != nil:
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	default:
		return e.Op + ": network error"
	}
}

func (e *NetworkError) Unwrap() error { return e.Err }

// Is lets errors.Is(err, ErrNetwork) match any NetworkError.
func (e *NetworkError) Is(target error) bool {
	return target == ErrNetwork
}
