package errors

import (
	"errors"
	"fmt"
	"maps"
	"slices"
	"strings"
)

type ErrorCode string

const (
	CodeNotFound        ErrorCode = "NOT_FOUND"
	CodeValidationError ErrorCode = "VALIDATION_ERROR"
	CodeInternal        ErrorCode = "INTERNAL_ERROR"
	CodeNotSupported    ErrorCode = "NOT_SUPPORTED"
	CodeParseFailed     ErrorCode = "PARSE_ERROR"
)

// Context keys understood by the CLI and the HTTP layer.
const (
	CtxPath      = "path"
	CtxOperation = "operation"
	CtxLanguage  = "language"
	CtxKey       = "key"
)

// DomainError carries a stable code plus key/value context. Context is
// rendered in key order so messages are reproducible.
type DomainError struct {
	Code    ErrorCode
	Message string
	Err     error
	Context map[string]any
}

func New(code ErrorCode, msg string) error {
	return &DomainError{Code: code, Message: msg}
}

func Errorf(code ErrorCode, format string, args ...any) error {
	return &DomainError{Code: code, Message: fmt.Sprintf(format, args...)}
}

func Wrap(err error, code ErrorCode, msg string) error {
	return &DomainError{Code: code, Message: msg, Err: err}
}

func (e *DomainError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "[%s] %s", e.Code, e.Message)
	if e.Err != nil {
		fmt.Fprintf(&b, ": %v", e.Err)
	}
	for i, key := range slices.Sorted(maps.Keys(e.Context)) {
		if i == 0 {
			b.WriteString(" (")
		} else {
			b.WriteString(", ")
		}
		fmt.Fprintf(&b, "%s=%v", key, e.Context[key])
	}
	if len(e.Context) > 0 {
		b.WriteString(")")
	}
	return b.String()
}

func (e *DomainError) Unwrap() error {
	return e.Err
}

// AddContext returns err with key set. Domain errors are copied rather than
// mutated, so a shared error value never accumulates context from callers.
// Plain errors are wrapped as internal errors.
func AddContext(err error, key string, value any) error {
	if err == nil {
		return nil
	}
	var de *DomainError
	if errors.As(err, &de) {
		next := *de
		next.Context = maps.Clone(de.Context)
		if next.Context == nil {
			next.Context = make(map[string]any, 1)
		}
		next.Context[key] = value
		return &next
	}
	return &DomainError{
		Code:    CodeInternal,
		Message: "wrapped error",
		Err:     err,
		Context: map[string]any{key: value},
	}
}

// CodeOf returns the code of the outermost domain error in err's chain,
// CodeInternal for any other non-nil error.
func CodeOf(err error) ErrorCode {
	var de *DomainError
	if errors.As(err, &de) {
		return de.Code
	}
	return CodeInternal
}

// IsCode checks if an error has a specific error code.
func IsCode(err error, code ErrorCode) bool {
	return err != nil && CodeOf(err) == code
}

// ContextValue looks up key on the outermost domain error.
func ContextValue(err error, key string) (any, bool) {
	var de *DomainError
	if !errors.As(err, &de) {
		return nil, false
	}
	v, ok := de.Context[key]
	return v, ok
}

// ExitCode maps an error to a process exit status: 0 for nil, 2 for bad
// configuration or input, 3 for missing files, 1 otherwise.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	switch CodeOf(err) {
	case CodeValidationError, CodeNotSupported:
		return 2
	case CodeNotFound:
		return 3
	}
	return 1
}
