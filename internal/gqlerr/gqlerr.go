package gqlerr

import "fmt"

// Kind classifies a gateway error by the phase that produced it.
type Kind string

const (
	// KindConfiguration marks composition-time failures: empty subgraph
	// lists, merge collisions, invalid transformers.
	KindConfiguration Kind = "CONFIGURATION"
	// KindExecution marks runtime resolution failures: missing subgraphs,
	// extractor type mismatches, transport errors, malformed responses.
	KindExecution Kind = "EXECUTION"
	// KindValidation marks failures surfaced by the parser/validator for the
	// inbound document. They are passed through unchanged.
	KindValidation Kind = "VALIDATION"
)

// Error is a GraphQL error with a gateway-specific kind.
type Error struct {
	Message    string         `json:"message"`
	Path       []any          `json:"path,omitempty"`
	Extensions map[string]any `json:"extensions,omitempty"`
	Kind       Kind           `json:"-"`
}

func (e *Error) Error() string { return e.Message }

// Configuration returns a composition-time error.
func Configuration(format string, args ...any) *Error {
	return &Error{Message: fmt.Sprintf(format, args...), Kind: KindConfiguration}
}

// Execution returns a runtime resolution error.
func Execution(format string, args ...any) *Error {
	return &Error{Message: fmt.Sprintf(format, args...), Kind: KindExecution}
}

// Validation returns a document validation error.
func Validation(format string, args ...any) *Error {
	return &Error{Message: fmt.Sprintf(format, args...), Kind: KindValidation}
}

// AsExecution wraps err as an execution error unless it already carries a kind.
func AsExecution(err error) *Error {
	if err == nil {
		return nil
	}
	if ge, ok := err.(*Error); ok {
		return ge
	}
	return &Error{Message: err.Error(), Kind: KindExecution}
}
