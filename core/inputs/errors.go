package inputs

import "fmt"

// ConfigurationError reports a malformed, missing or length-mismatched
// input parameter. It aborts the scenario it belongs to and is never
// retried.
type ConfigurationError struct {
	Field  string
	Reason string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("configuration error in %q: %s", e.Field, e.Reason)
}

func configErr(field, format string, args ...any) error {
	return &ConfigurationError{Field: field, Reason: fmt.Sprintf(format, args...)}
}
