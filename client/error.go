package client

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
)

// maxErrBodySize caps the amount of response body read when
// building an error for a failed status code. This prevents
// unbounded memory usage when a large response arrives with a
// failing status.
const maxErrBodySize = 4 << 10 // 4KB

// execFn represents a func to operate on a successful response.
type execFn func(response *http.Response) error

// Error kinds. Every error returned by [Client.Do] and [Client.Download]
// matches exactly one of these with [errors.Is], except that
// [ErrTimeout] also matches [ErrNetwork] and the specific 4xx kinds
// also match [ErrClient].
var (
	ErrConfiguration  = errors.New("configuration error")
	ErrNetwork        = errors.New("network error")
	ErrTimeout        = errors.New("timeout")
	ErrAuthentication = errors.New("authentication failed")
	ErrAuthorization  = errors.New("not authorized")
	ErrNotFound       = errors.New("not found")
	ErrValidation     = errors.New("validation failed")
	ErrConflict       = errors.New("conflict")
	ErrClient         = errors.New("client error")
	ErrServer         = errors.New("server error")
	ErrDecode         = errors.New("decode error")

	// ErrUnexpectedStatusCode is matched by every [StatusError].
	ErrUnexpectedStatusCode = errors.New("unexpected status code")
)

// StatusError is returned when the registry answers with a non-2xx status.
// Err holds the kind derived from StatusCode.
type StatusError struct {
	StatusCode int
	Body       string
	Err        error
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%v: %d, body: %s", e.Err, e.StatusCode, e.Body)
}

func (e *StatusError) Unwrap() error {
	return e.Err
}

// Is reports status-class matches that Unwrap alone can't express.
func (e *StatusError) Is(target error) bool {
	switch target {
	case ErrUnexpectedStatusCode:
		return true
	case ErrClient:
		return e.StatusCode < http.StatusInternalServerError
	}
	return false
}

// CheckStatus maps a completed response to an error kind. A nil return
// means the body may be decoded.
func CheckStatus(code int, body []byte) error {
	if code >= 200 && code < 300 {
		return nil
	}

	var kind error
	switch {
	case code == http.StatusUnauthorized:
		kind = ErrAuthentication
	case code == http.StatusForbidden:
		kind = ErrAuthorization
	case code == http.StatusNotFound:
		kind = ErrNotFound
	case code == http.StatusConflict:
		kind = ErrConflict
	case code == http.StatusUnprocessableEntity:
		kind = ErrValidation
	case code >= http.StatusInternalServerError:
		kind = ErrServer
	default:
		// 1xx, 3xx and the remaining 4xx.
		kind = ErrClient
	}

	return &StatusError{
		StatusCode: code,
		Body:       string(body),
		Err:        kind,
	}
}

// NetworkError is returned when the round trip itself fails: dialing,
// TLS, a dropped connection or an expired deadline.
type NetworkError struct {
	Method  string
	URL     string
	Timeout bool
	Err     error
}

func newNetworkError(method, url string, err error) *NetworkError {
	var ne net.Error
	timeout := errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &ne) && ne.Timeout())

	return &NetworkError{
		Method:  method,
		URL:     url,
		Timeout: timeout,
		Err:     err,
	}
}

func (e *NetworkError) Error() string {
	if e.Timeout {
		return fmt.Sprintf("%v: %s %s: %v: %v", ErrNetwork, e.Method, e.URL, ErrTimeout, e.Err)
	}
	return fmt.Sprintf("%v: %s %s: %v", ErrNetwork, e.Method, e.URL, e.Err)
}

func (e *NetworkError) Unwrap() error {
	return e.Err
}

func (e *NetworkError) Is(target error) bool {
	return target == ErrNetwork || (target == ErrTimeout && e.Timeout)
}

// DecodeError is returned when a successful body isn't valid for the
// format the caller expected.
type DecodeError struct {
	Format Format
	Err    error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("%v: %s: %v", ErrDecode, e.Format, e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

func (e *DecodeError) Is(target error) bool {
	return target == ErrDecode
}

// ConfigError is returned before any I/O when the configuration or the
// call can't produce a valid request.
type ConfigError struct {
	Field string
	Err   error
}

func (e *ConfigError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("%v: %v", ErrConfiguration, e.Err)
	}
	return fmt.Sprintf("%v: %s: %v", ErrConfiguration, e.Field, e.Err)
}

func (e *ConfigError) Unwrap() error {
	return e.Err
}

func (e *ConfigError) Is(target error) bool {
	return target == ErrConfiguration
}
