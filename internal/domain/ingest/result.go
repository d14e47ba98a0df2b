package ingest

import (
	"errors"
	"fmt"
)

// Reason classifies why one submitted item failed to ingest. The values are
// surfaced verbatim in API responses.
type Reason string

const (
	ReasonMalformedRequest       Reason = "malformed_request"
	ReasonInvalidDescriptor      Reason = "invalid_descriptor"
	ReasonEmptyPayload           Reason = "empty_payload"
	ReasonInvalidEncoding        Reason = "invalid_encoding"
	ReasonFetchTimeout           Reason = "fetch_timeout"
	ReasonFetchFailed            Reason = "fetch_failed"
	ReasonUnsupportedContentType Reason = "unsupported_content_type"
	ReasonPayloadTooLarge        Reason = "payload_too_large"
	ReasonStorageUnavailable     Reason = "storage_unavailable"
	ReasonWriteFailed            Reason = "write_failed"
)

// Error is an item-level ingestion failure carrying its classification.
type Error struct {
	Reason Reason
	Detail string
	Cause  error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Reason, e.Detail, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Reason, e.Detail)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

func newError(reason Reason, detail string, cause error) *Error {
	return &Error{Reason: reason, Detail: detail, Cause: cause}
}

// ReasonOf extracts the failure classification from an error chain,
// defaulting to write_failed for untyped errors.
func ReasonOf(err error) Reason {
	var typed *Error
	if errors.As(err, &typed) {
		return typed.Reason
	}
	return ReasonWriteFailed
}

// ResolvedImage is the transient product of resolving one descriptor; it is
// handed to the storage writer and not retained afterwards.
type ResolvedImage struct {
	Bytes             []byte
	ContentType       string
	SuggestedFilename string
}

// Result records the outcome for one submitted item.
type Result struct {
	Stored bool
	Path   string
	Reason Reason
	Detail string
}

// StoredResult builds a success result for a stored path.
func StoredResult(path string) Result {
	return Result{Stored: true, Path: path}
}

// FailedResult builds a failure result from an item-level error.
func FailedResult(err error) Result {
	var typed *Error
	if errors.As(err, &typed) {
		detail := typed.Detail
		if typed.Cause != nil {
			detail = fmt.Sprintf("%s: %v", detail, typed.Cause)
		}
		return Result{Stored: false, Reason: typed.Reason, Detail: detail}
	}
	return Result{Stored: false, Reason: ReasonWriteFailed, Detail: err.Error()}
}
