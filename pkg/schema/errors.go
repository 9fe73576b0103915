package schema

import "fmt"

// FieldError represents a single field-level schema failure.
type FieldError struct {
	Path   string // dotted location, e.g. "passos.2.opcoes.0.valor"
	Reason string // human-readable reason
}

func (e *FieldError) Error() string {
	if e.Path == "" {
		return e.Reason
	}
	return fmt.Sprintf("%s: %s", e.Path, e.Reason)
}

// AggregateError collects every schema failure found in one pass.
type AggregateError struct {
	Errors []*FieldError
}

func (e *AggregateError) Error() string {
	if len(e.Errors) == 1 {
		return e.Errors[0].Error()
	}
	msg := fmt.Sprintf("%d schema errors:", len(e.Errors))
	for _, err := range e.Errors {
		msg += "\n  - " + err.Error()
	}
	return msg
}

// FieldErrors unwraps err into its individual field errors, or nil when err
// is not an AggregateError.
func FieldErrors(err error) []*FieldError {
	if aggr, ok := err.(*AggregateError); ok {
		return aggr.Errors
	}
	return nil
}
