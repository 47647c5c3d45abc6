package gitter

import (
	"errors"
	"fmt"
)

var (
	// ErrAuthentication is returned by NewClient when the token cannot be
	// used to resolve the current user.
	ErrAuthentication = errors.New("gitter: authentication failed")

	// ErrNoData marks a request whose response carried no usable JSON:
	// empty body, invalid JSON, a non-2xx status, or a failed round trip.
	ErrNoData = errors.New("gitter: no data")

	// ErrTimeout is wrapped into the cause of a NoDataError when the
	// round trip hit the client timeout or a context deadline.
	ErrTimeout = errors.New("gitter: request timed out")

	// ErrRoomNotFound is returned when no room in the user's room list
	// has the requested name.
	ErrRoomNotFound = errors.New("gitter: room not found")
)

var (
	errEmptyBody = errors.New("empty response body")
	errNullBody  = errors.New("response body is null")
)

// APIError is the error body the service sends with non-2xx responses.
type APIError struct {
	StatusCode int    `json:"-"`
	Message    string `json:"error"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("gitter: api error (%d): %s", e.StatusCode, e.Message)
}

// NoDataError describes why a request produced no data. It matches
// ErrNoData under errors.Is, and also whatever its Cause matches, so
// callers can test for ErrTimeout or extract an *APIError:
//
//	var apiErr *gitter.APIError
//	if errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusUnauthorized { ... }
type NoDataError struct {
	Method     string
	Path       string
	StatusCode int
	Cause      error
}

func (e *NoDataError) Error() string {
	msg := fmt.Sprintf("gitter: no data from %s %s", e.Method, e.Path)
	if e.StatusCode != 0 {
		msg += fmt.Sprintf(" (status %d)", e.StatusCode)
	}
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

func (e *NoDataError) Unwrap() []error {
	if e.Cause == nil {
		return []error{ErrNoData}
	}
	return []error{ErrNoData, e.Cause}
}

// IsNoData reports whether err means "nothing returned".
func IsNoData(err error) bool {
	return errors.Is(err, ErrNoData)
}
