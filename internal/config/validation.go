package config

import (
	"fmt"
	"strings"
)

// ValidationError names one rejected configuration value and why it was
// rejected. Field is the flag or environment variable name as the operator
// would type it.
type ValidationError struct {
	Field   string
	Value   interface{}
	Message string
}

func (ve ValidationError) Error() string {
	if ve.Field == "" {
		return ve.Message
	}
	return fmt.Sprintf("field '%s': %s", ve.Field, ve.Message)
}

// ValidationErrors accumulates every finding of one Load pass, so the
// operator sees the whole list instead of fixing one variable per restart.
type ValidationErrors []ValidationError

func (ve ValidationErrors) Error() string {
	switch len(ve) {
	case 0:
		return "no validation errors"
	case 1:
		return ve[0].Error()
	}

	messages := make([]string, len(ve))
	for i, err := range ve {
		messages[i] = err.Error()
	}
	return fmt.Sprintf("configuration invalid: %s", strings.Join(messages, "; "))
}

// HasErrors reports whether any finding was recorded.
func (ve ValidationErrors) HasErrors() bool {
	return len(ve) > 0
}

// Add records a finding. The optional value is the offending input, kept for
// error reports that want to echo it.
func (ve *ValidationErrors) Add(field, message string, value ...interface{}) {
	var val interface{}
	if len(value) > 0 {
		val = value[0]
	}
	*ve = append(*ve, ValidationError{Field: field, Value: val, Message: message})
}
