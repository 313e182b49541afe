package domain

import (
	"errors"
	"fmt"
	"strings"
)

// Error taxonomy shared by all adapters. Match with errors.Is.
var (
	// ErrPermissionDenied means the caller lacks the required privilege. Not retried.
	ErrPermissionDenied = errors.New("permission denied")

	// ErrNotFound means the target entity is absent.
	// Apply treats it as already being in the desired state.
	ErrNotFound = errors.New("not found")

	// ErrExternalTool means an invoked OS utility exited non-zero.
	ErrExternalTool = errors.New("external tool failure")

	// ErrMalformedOutput means an OS utility or file returned content we cannot parse.
	ErrMalformedOutput = errors.New("malformed external output")

	// ErrUnsupported means the adapter cannot reach the requested state
	// (or the platform does not provide the backend at all).
	ErrUnsupported = errors.New("unsupported")

	// ErrUnexpected wraps anything else.
	ErrUnexpected = errors.New("unexpected error")
)

// OpError carries the operation, the item and captured diagnostic text.
type OpError struct {
	Op     string // e.g. "schtasks /Change"
	Item   string
	Kind   error // One of the taxonomy sentinels
	Detail string
	Err    error
}

func (e *OpError) Error() string {
	var b strings.Builder
	b.WriteString(e.Op)
	if e.Item != "" {
		b.WriteString(" ")
		b.WriteString(e.Item)
	}
	b.WriteString(": ")
	b.WriteString(e.Kind.Error())
	if e.Detail != "" {
		b.WriteString(": ")
		b.WriteString(e.Detail)
	} else if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

// Is makes errors.Is match the taxonomy kind.
func (e *OpError) Is(target error) bool {
	return e.Kind == target
}

func (e *OpError) Unwrap() error {
	return e.Err
}

// NewOpError builds an OpError. detail is trimmed.
func NewOpError(op, item string, kind error, detail string, err error) *OpError {
	if kind == nil {
		kind = ErrUnexpected
	}
	return &OpError{Op: op, Item: item, Kind: kind, Detail: strings.TrimSpace(detail), Err: err}
}

// Classify returns the taxonomy sentinel err belongs to.
func Classify(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, ErrPermissionDenied):
		return ErrPermissionDenied
	case errors.Is(err, ErrNotFound):
		return ErrNotFound
	case errors.Is(err, ErrExternalTool):
		return ErrExternalTool
	case errors.Is(err, ErrMalformedOutput):
		return ErrMalformedOutput
	case errors.Is(err, ErrUnsupported):
		return ErrUnsupported
	default:
		return ErrUnexpected
	}
}

// IgnoreNotFound turns ErrNotFound into success for apply paths.
func IgnoreNotFound(err error) error {
	if errors.Is(err, ErrNotFound) {
		return nil
	}
	return err
}

// Unexpectedf wraps an unclassified failure.
func Unexpectedf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrUnexpected, fmt.Sprintf(format, args...))
}
