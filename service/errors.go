package service

import (
	"errors"
	"fmt"
)

var (
	// ErrValidation marks malformed or empty caller input
	ErrValidation = errors.New("validation failed")
	// ErrConfiguration marks an operation that needs a provider or secret that is not configured
	ErrConfiguration = errors.New("not configured")
	// ErrAIProvider marks a failed or unparsable call to a configured AI provider
	ErrAIProvider = errors.New("ai provider failed")
	// ErrInvalidSignature marks a webhook that failed authentication
	ErrInvalidSignature = errors.New("invalid signature")
	// ErrMalformedPayload marks an authenticated webhook whose body cannot be interpreted
	ErrMalformedPayload = errors.New("malformed payload")
	// ErrNotFound marks an unknown topic or case
	ErrNotFound = errors.New("not found")
)

// ProviderError carries the provider name and whatever raw text it returned
type ProviderError struct {
	Provider string
	Raw      string
	Err      error
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("%s: %v", e.Provider, e.Err)
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}

// Is reports every ProviderError as ErrAIProvider
func (e *ProviderError) Is(target error) bool {
	return target == ErrAIProvider
}

func validationError(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}
