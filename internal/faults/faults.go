package faults

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrExtraction marks fingerprinting failures. Recorded per file; a scan
	// continues past them.
	ErrExtraction = errors.New("extraction error")
	// ErrParseAmbiguity marks an empty or low-confidence title parse. Fuzzy
	// grouping skips files carrying it.
	ErrParseAmbiguity = errors.New("parse ambiguity")
	// ErrStagingConflict marks a rejected staging operation: the file is
	// already staged, or the destination is occupied.
	ErrStagingConflict = errors.New("staging conflict")
	// ErrMoveFailure marks a filesystem error during stage, restore, or purge.
	// The operation aborts with the original state preserved.
	ErrMoveFailure = errors.New("move failure")
	// ErrInvariant marks a state that the schema and staging machine should
	// make impossible. Surfaced for manual inspection, never auto-recovered.
	ErrInvariant = errors.New("invariant violation")
	// ErrNotFound marks a missing entity referenced by identifier.
	ErrNotFound = errors.New("not found")
	// ErrValidation marks rejected input or configuration.
	ErrValidation = errors.New("validation error")
)

// Fault tags an error with a sentinel marker and component context. Error()
// renders the full context for logs; Message alone is the operator-facing
// text that Reason surfaces.
type Fault struct {
	Marker    error
	Component string
	Operation string
	Message   string
	Err       error
}

func (f *Fault) Error() string {
	detail := buildDetail(f.Component, f.Operation, f.Message)
	if f.Err != nil {
		return fmt.Sprintf("%v: %s: %v", f.Marker, detail, f.Err)
	}
	return fmt.Sprintf("%v: %s", f.Marker, detail)
}

func (f *Fault) Unwrap() []error {
	if f.Err != nil {
		return []error{f.Marker, f.Err}
	}
	return []error{f.Marker}
}

// Wrap builds an error that includes component context while tagging it with
// the provided marker for later classification. The marker should be one of
// the exported sentinel errors above.
func Wrap(marker error, component, operation, message string, err error) error {
	if marker == nil {
		marker = ErrValidation
	}
	return &Fault{
		Marker:    marker,
		Component: strings.TrimSpace(component),
		Operation: strings.TrimSpace(operation),
		Message:   strings.TrimSpace(message),
		Err:       err,
	}
}

// Reason extracts a display-ready reason from a rejected operation: the bare
// message of the outermost Fault in the chain, without the marker or the
// component context. Plain errors fall back to their full text.
func Reason(err error) string {
	if err == nil {
		return ""
	}
	var fault *Fault
	if errors.As(err, &fault) {
		if fault.Message != "" {
			return fault.Message
		}
		if fault.Err != nil {
			return Reason(fault.Err)
		}
		return fault.Marker.Error()
	}
	return err.Error()
}

// IsRejection reports whether an error represents a rejected request rather
// than an internal failure.
func IsRejection(err error) bool {
	return errors.Is(err, ErrStagingConflict) ||
		errors.Is(err, ErrValidation) ||
		errors.Is(err, ErrNotFound)
}

func buildDetail(component, operation, message string) string {
	parts := make([]string, 0, 3)
	if component != "" {
		parts = append(parts, component)
	}
	if operation != "" {
		parts = append(parts, operation)
	}
	if message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "operation failed"
	}
	return strings.Join(parts, ": ")
}
