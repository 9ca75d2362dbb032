package utils

import (
	"errors"
	"fmt"
	"strings"
)

// ErrRange is returned (wrapped) when a capacity is exceeded or an index
// falls outside the committed range of a container.
var ErrRange = errors.New("out of range")

// ConfigurationError reports malformed or unsupported input: an illegal
// metadata value, a missing cell definition or a missing element property.
type ConfigurationError struct {
	Subject string // Offending integral, element or form
	Reason  string
}

func (e *ConfigurationError) Error() string {
	if e.Subject == "" {
		return "configuration error: " + e.Reason
	}
	return fmt.Sprintf("configuration error in %s: %s", e.Subject, e.Reason)
}

// NewConfigurationError creates a ConfigurationError with a formatted reason
func NewConfigurationError(subject, format string, args ...interface{}) *ConfigurationError {
	return &ConfigurationError{
		Subject: subject,
		Reason:  fmt.Sprintf(format, args...),
	}
}

// InconsistentDegreeError reports quadrature elements in one integrand that
// disagree on their degree.
type InconsistentDegreeError struct {
	Subject string
	Degrees []int
}

func (e *InconsistentDegreeError) Error() string {
	parts := make([]string, len(e.Degrees))
	for i, d := range e.Degrees {
		parts[i] = fmt.Sprintf("%d", d)
	}
	return fmt.Sprintf("all quadrature elements in %s must have the same degree: [%s]",
		e.Subject, strings.Join(parts, ", "))
}
