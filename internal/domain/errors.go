package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound indicates the requested entity was not found.
	ErrNotFound = errors.New("not found")

	// ErrSubscriptionRequired indicates the shop holds no active recurring
	// charge. Gated requests fail closed with this error.
	ErrSubscriptionRequired = errors.New("active subscription required")

	// ErrVersionConflict indicates a stale update: the bundle changed since
	// the caller read it.
	ErrVersionConflict = errors.New("bundle version conflict")
)

// InvalidBundleError reports malformed bundle input (empty product list,
// negative price, zero quantity).
type InvalidBundleError struct {
	Reason string
}

func (e *InvalidBundleError) Error() string {
	return "invalid bundle: " + e.Reason
}

// InvalidDiscountError reports an unrecognized discount type or an
// out-of-range discount value.
type InvalidDiscountError struct {
	Reason string
}

func (e *InvalidDiscountError) Error() string {
	return "invalid discount: " + e.Reason
}

// PlatformError carries a non-2xx response from the commerce platform.
type PlatformError struct {
	Op         string
	StatusCode int
	Body       string
}

func (e *PlatformError) Error() string {
	return fmt.Sprintf("platform %s: status %d: %s", e.Op, e.StatusCode, e.Body)
}

// TimeoutError marks a collaborator call that did not answer in time.
// Safe to retry only for read-only or idempotent-by-key operations.
type TimeoutError struct {
	Op  string
	Err error
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("platform %s: timed out: %v", e.Op, e.Err)
}

func (e *TimeoutError) Unwrap() error { return e.Err }
