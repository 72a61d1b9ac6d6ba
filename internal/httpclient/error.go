package httpclient

import (
	goerrors "errors"
	"fmt"
)

// Error represents a non-2xx response from the provider. It is deliberately
// not marked as ErrHTTPClient: only connection-class failures are transient,
// a rejected request must surface as a terminal failure.
type Error struct {
	StatusCode int
	Response   []byte
}

func (e *Error) Error() string {
	return fmt.Sprintf("provider returned status %d", e.StatusCode)
}

// NewError creates a new HTTP response error
func NewError(statusCode int, response []byte) *Error {
	return &Error{
		StatusCode: statusCode,
		Response:   response,
	}
}

// IsHTTPError checks if an error is an HTTP response error
func IsHTTPError(err error) (*Error, bool) {
	var httpErr *Error
	if goerrors.As(err, &httpErr) {
		return httpErr, true
	}
	return nil, false
}
