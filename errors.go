// Package sitetheory composes AWS resources into static website and serverless webapp
// constructs. The root package holds the error taxonomy shared by every assembler.
package sitetheory

import (
	"errors"
	"fmt"
	"strings"
)

// Error is a stable, code-carrying error raised while assembling or realising a deployment.
//
// Field names the offending configuration field (ConfigurationError) and Reference names the
// external resource that could not be located (DependencyResolutionError).
type Error struct {
	Code      string
	Field     string
	Reference string
	Message   string
	Err       error
}

func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString(e.Code)
	b.WriteString(": ")
	switch {
	case e.Field != "":
		b.WriteString(e.Field)
		b.WriteString(": ")
	case e.Reference != "":
		b.WriteString(e.Reference)
		b.WriteString(": ")
	}
	b.WriteString(e.Message)
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *Error) Unwrap() error {
	return e.Err
}

// ConfigurationError reports an invalid combination of inputs detected at assembly time.
func ConfigurationError(field, format string, args ...any) *Error {
	msg := errorMessageInvalidConfiguration
	if format != "" {
		msg = fmt.Sprintf(format, args...)
	}
	return &Error{Code: ErrorCodeConfiguration, Field: field, Message: msg}
}

// DependencyResolutionError reports a referenced external resource that cannot be located.
func DependencyResolutionError(reference string, cause error) *Error {
	return &Error{
		Code:      ErrorCodeDependencyResolve,
		Reference: reference,
		Message:   errorMessageUnresolvedReference,
		Err:       cause,
	}
}

// ProvisioningFailure wraps an error raised while the provisioning engine realises the graph.
func ProvisioningFailure(step string, cause error) *Error {
	return &Error{
		Code:    ErrorCodeProvisioningFailed,
		Field:   step,
		Message: errorMessageProvisioningFailed,
		Err:     cause,
	}
}

// IsCode reports whether err (or anything it wraps) is an *Error with the given code.
func IsCode(err error, code string) bool {
	if err == nil {
		return false
	}
	if joined, ok := err.(interface{ Unwrap() []error }); ok {
		for _, inner := range joined.Unwrap() {
			if IsCode(inner, code) {
				return true
			}
		}
		return false
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Code == code
	}
	return false
}

// IsConfigurationError reports whether err carries ErrorCodeConfiguration.
func IsConfigurationError(err error) bool {
	return IsCode(err, ErrorCodeConfiguration)
}

// IsDependencyResolutionError reports whether err carries ErrorCodeDependencyResolve.
func IsDependencyResolutionError(err error) bool {
	return IsCode(err, ErrorCodeDependencyResolve)
}

// Problems accumulates configuration problems so validation can report all of them at once.
type Problems []error

// Add appends err unless it is nil.
func (p *Problems) Add(err error) {
	if err == nil {
		return
	}
	*p = append(*p, err)
}

// Addf appends a ConfigurationError for field.
func (p *Problems) Addf(field, format string, args ...any) {
	p.Add(ConfigurationError(field, format, args...))
}

// Err returns nil when empty, the sole error when there is one, and a joined error otherwise.
func (p Problems) Err() error {
	switch len(p) {
	case 0:
		return nil
	case 1:
		return p[0]
	default:
		return errors.Join(p...)
	}
}
