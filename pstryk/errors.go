package pstryk

import (
	"errors"
	"fmt"
)

var (
	ErrUnauthorized = errors.New("pstryk: authentication failed, invalid API key")
	ErrForbidden    = errors.New("pstryk: access forbidden, check API key permissions")
	ErrRateLimited  = errors.New("pstryk: rate limit exceeded, try again later")
)

// NotFoundError carries the requested URL since a 404 here almost always
// means a misconfigured base URL or endpoint path.
type NotFoundError struct {
	URL string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("pstryk: endpoint not found: %s", e.URL)
}

// ApiError is any other non-200 response. Excerpt holds at most the first
// 100 characters of the response body.
type ApiError struct {
	Status  int
	Excerpt string
}

func (e *ApiError) Error() string {
	return fmt.Sprintf("pstryk: API error %d: %s", e.Status, e.Excerpt)
}

// NetworkError is a transport-level failure, distinct from an HTTP error
// response.
type NetworkError struct {
	Cause error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("pstryk: network error: %v", e.Cause)
}

func (e *NetworkError) Unwrap() error {
	return e.Cause
}

// TimeoutError is a request that exceeded the client timeout or context
// deadline.
type TimeoutError struct {
	Cause error
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("pstryk: request timed out: %v", e.Cause)
}

func (e *TimeoutError) Unwrap() error {
	return e.Cause
}
