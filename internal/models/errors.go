package models

import (
	"errors"
	"fmt"
)

// Error kinds for the compatibility layer. Handlers map these to HTTP
// statuses; nothing in this package retries or swallows them.
var (
	// ErrConfiguration marks a malformed or incomplete holiday
	// specification (missing required fields, inverted windows).
	ErrConfiguration = errors.New("configuration error")

	// ErrInvalidArgument marks a bad caller-supplied value such as a
	// non-positive horizon length or an unknown frequency token.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrPrerequisite marks an operation that requires prior state which
	// is absent, e.g. predicting before any fit.
	ErrPrerequisite = errors.New("prerequisite not met")

	// ErrUnsupportedFeature marks a legacy feature with no safe
	// equivalent in the underlying engine, e.g. saturating growth caps.
	ErrUnsupportedFeature = errors.New("unsupported feature")
)

// DomainError carries one of the error kinds above together with a
// caller-facing message. errors.Is(err, models.ErrConfiguration) etc. work
// through the Is method.
type DomainError struct {
	Kind    error
	Message string
}

func (e *DomainError) Error() string {
	return e.Kind.Error() + ": " + e.Message
}

func (e *DomainError) Is(target error) bool {
	return target == e.Kind
}

// NewConfigurationError builds a DomainError of kind ErrConfiguration.
func NewConfigurationError(format string, args ...any) error {
	return &DomainError{Kind: ErrConfiguration, Message: fmt.Sprintf(format, args...)}
}

// NewInvalidArgumentError builds a DomainError of kind ErrInvalidArgument.
func NewInvalidArgumentError(format string, args ...any) error {
	return &DomainError{Kind: ErrInvalidArgument, Message: fmt.Sprintf(format, args...)}
}

// NewPrerequisiteError builds a DomainError of kind ErrPrerequisite.
func NewPrerequisiteError(format string, args ...any) error {
	return &DomainError{Kind: ErrPrerequisite, Message: fmt.Sprintf(format, args...)}
}

// NewUnsupportedFeatureError builds a DomainError of kind ErrUnsupportedFeature.
func NewUnsupportedFeatureError(format string, args ...any) error {
	return &DomainError{Kind: ErrUnsupportedFeature, Message: fmt.Sprintf(format, args...)}
}
