package clinicapi

import (
	"errors"
	"fmt"
	"strings"
)

// ErrNoRoute is matched by every NoRouteError.
var ErrNoRoute = errors.New("clinicapi: no matching route found")

// NoRouteError is returned when every candidate answered 404.
type NoRouteError struct {
	Operation Operation
	Attempted []Candidate
}

func (e *NoRouteError) Error() string {
	tried := make([]string, len(e.Attempted))
	for i, c := range e.Attempted {
		tried[i] = c.String()
	}
	return fmt.Sprintf("%s for %s (tried %s)", ErrNoRoute.Error(), e.Operation, strings.Join(tried, ", "))
}

func (e *NoRouteError) Unwrap() error { return ErrNoRoute }

// StatusError is a non-404 error response. Message is what the server said,
// or the status text when it said nothing readable.
type StatusError struct {
	Candidate  Candidate
	StatusCode int
	Message    string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("clinicapi: %s returned %d: %s", e.Candidate, e.StatusCode, e.Message)
}
