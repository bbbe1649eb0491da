package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
	"syscall"
)

// ErrBackendUnreachable matches (via errors.Is) any Error caused by the
// backend not being reachable at all: DNS failure, refused or reset connection.
var ErrBackendUnreachable = errors.New("backend unreachable")

// Error is the uniform failure shape of every Client operation
type Error struct {
	// Op names the operation, e.g. "Fetch domains".
	Op string

	// StatusCode and StatusText are set when the backend answered with a non-2xx status.
	StatusCode int
	StatusText string

	// Detail is the server-supplied explanation, if any.
	Detail string

	// Err is the underlying transport or decoding error.
	Err error

	// Unreachable is set when the transport could not reach BaseURL.
	Unreachable bool
	BaseURL     string
}

// Error renders the most specific message available: server detail, then
// "<op> failed: <status> <statusText>", then the transport error.
func (e *Error) Error() string {
	switch {
	case e.Detail != "":
		return e.Detail
	case e.StatusCode != 0:
		return fmt.Sprintf("%s failed: %d %s", e.Op, e.StatusCode, e.StatusText)
	case e.Unreachable:
		return fmt.Sprintf("%s failed: backend unreachable at %s", e.Op, e.BaseURL)
	case e.Err != nil:
		return fmt.Sprintf("%s failed: %s", e.Op, e.Err.Error())
	default:
		return e.Op + " failed"
	}
}

// Unwrap exposes the underlying error
func (e *Error) Unwrap() error {
	return e.Err
}

// Is reports ErrBackendUnreachable for unreachable failures
func (e *Error) Is(target error) bool {
	return target == ErrBackendUnreachable && e.Unreachable
}

// StatusCode returns the HTTP status carried by err, or 0.
func StatusCode(err error) int {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode
	}
	return 0
}

// IsUnauthorized reports whether the backend rejected the credentials or token.
func IsUnauthorized(err error) bool {
	code := StatusCode(err)
	return code == http.StatusUnauthorized || code == http.StatusForbidden
}

// IsNotFound reports a 404 response
func IsNotFound(err error) bool {
	return StatusCode(err) == http.StatusNotFound
}

// isUnreachable classifies transport errors that mean nothing answered.
// Timeouts and cancellations are not unreachability.
func isUnreachable(err error) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return true
	}
	if errors.Is(err, syscall.ECONNREFUSED) || errors.Is(err, syscall.ECONNRESET) ||
		errors.Is(err, syscall.EHOSTUNREACH) || errors.Is(err, syscall.ENETUNREACH) {
		return true
	}
	var opErr *net.OpError
	if errors.As(err, &opErr) && opErr.Op == "dial" && !opErr.Timeout() {
		return true
	}
	return false
}

// parseDetail extracts FastAPI's "detail" field. It is either a string or a
// list of validation errors carrying "msg" (and "loc"). Bodies without a
// detail fall back to a top-level "message".
func parseDetail(body []byte) string {
	var envelope struct {
		Detail  json.RawMessage `json:"detail"`
		Message string          `json:"message"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		return ""
	}
	if len(envelope.Detail) == 0 || string(envelope.Detail) == "null" {
		return strings.TrimSpace(envelope.Message)
	}

	var s string
	if err := json.Unmarshal(envelope.Detail, &s); err == nil {
		return strings.TrimSpace(s)
	}

	var items []struct {
		Loc []any  `json:"loc"`
		Msg string `json:"msg"`
	}
	if err := json.Unmarshal(envelope.Detail, &items); err == nil {
		msgs := make([]string, 0, len(items))
		for _, it := range items {
			if it.Msg == "" {
				continue
			}
			if field := locField(it.Loc); field != "" {
				msgs = append(msgs, field+": "+it.Msg)
			} else {
				msgs = append(msgs, it.Msg)
			}
		}
		return strings.Join(msgs, "; ")
	}

	return ""
}

// locField returns the last element of a validation error location, e.g.
// ["body", "domain_name"] -> "domain_name".
func locField(loc []any) string {
	if len(loc) == 0 {
		return ""
	}
	return fmt.Sprint(loc[len(loc)-1])
}
