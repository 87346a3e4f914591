package fetcher

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
)

// ErrorType classifies fetch failures for logging and the run summary.
type ErrorType string

const (
	ErrTypeRateLimited ErrorType = "rate_limited"
	ErrTypeForbidden   ErrorType = "forbidden"
	ErrTypeNotFound    ErrorType = "not_found"
	ErrTypeGone        ErrorType = "gone"
	ErrTypeUpstream    ErrorType = "upstream_failure"
	ErrTypeNetwork     ErrorType = "network"
	ErrTypeTimeout     ErrorType = "timeout"
	ErrTypeTooLarge    ErrorType = "too_large"
	ErrTypeUnexpected  ErrorType = "unexpected"
)

// LogLevel determines whether a FetchError is logged at WARN or ERROR.
type LogLevel int

const (
	LevelWarn LogLevel = iota
	LevelError
)

// FetchError is a classified failure to obtain a feed body. Every
// FetchError means the feed is unavailable for this run.
type FetchError struct {
	Type       ErrorType
	Level      LogLevel
	StatusCode int
	Location   string
	Cause      error
}

func (e *FetchError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("fetch %s: HTTP %d for %s", e.Type, e.StatusCode, e.Location)
	}
	return fmt.Sprintf("fetch %s: %s for %s", e.Type, e.Cause, e.Location)
}

func (e *FetchError) Unwrap() error { return e.Cause }

// ClassifyHTTPStatus creates a FetchError from a non-2xx status code.
func ClassifyHTTPStatus(statusCode int, location string) *FetchError {
	cause := fmt.Errorf("HTTP %d", statusCode)
	e := &FetchError{Level: LevelWarn, StatusCode: statusCode, Location: location, Cause: cause}

	switch {
	case statusCode == http.StatusTooManyRequests:
		e.Type = ErrTypeRateLimited
	case statusCode == http.StatusForbidden, statusCode == http.StatusUnauthorized:
		e.Type = ErrTypeForbidden
	case statusCode == http.StatusNotFound:
		e.Type = ErrTypeNotFound
	case statusCode == http.StatusGone:
		e.Type = ErrTypeGone
	case statusCode >= http.StatusInternalServerError && statusCode <= 599:
		e.Type = ErrTypeUpstream
	default:
		e.Type = ErrTypeUnexpected
		e.Level = LevelError
	}

	return e
}

// ClassifyNetworkError creates a FetchError for transport failures,
// separating timeouts from other network errors.
func ClassifyNetworkError(cause error, location string) *FetchError {
	errType := ErrTypeNetwork

	var netErr net.Error
	if errors.Is(cause, context.DeadlineExceeded) || (errors.As(cause, &netErr) && netErr.Timeout()) {
		errType = ErrTypeTimeout
	}

	return &FetchError{Type: errType, Level: LevelWarn, Location: location, Cause: cause}
}

// ClassifyFileError creates a FetchError for a local feed that could not
// be read. A missing file is an ordinary unavailable feed.
func ClassifyFileError(cause error, path string) *FetchError {
	switch {
	case errors.Is(cause, os.ErrNotExist):
		return &FetchError{Type: ErrTypeNotFound, Level: LevelWarn, Location: path, Cause: cause}
	case errors.Is(cause, os.ErrPermission):
		return &FetchError{Type: ErrTypeForbidden, Level: LevelWarn, Location: path, Cause: cause}
	default:
		return &FetchError{Type: ErrTypeUnexpected, Level: LevelError, Location: path, Cause: cause}
	}
}
