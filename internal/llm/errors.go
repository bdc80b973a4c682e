package llm

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

var (
	// ErrUnknownModel is returned for a model name outside the supported set.
	ErrUnknownModel = errors.New("invalid chat model")

	// ErrMissingCredentials is returned when the resolved provider has no key or URL.
	ErrMissingCredentials = errors.New("missing LLM credentials")

	// ErrProviderFallback is returned in strict mode when a model's provider
	// cannot be used.
	ErrProviderFallback = errors.New("provider unavailable for model")

	// ErrEmptyResponse means the provider answered without any content.
	ErrEmptyResponse = errors.New("empty completion")

	// ErrMalformedJSON means the completion could not be decoded into the expected shape.
	ErrMalformedJSON = errors.New("malformed JSON in completion")

	// ErrRateLimited indicates the provider rejected the call with HTTP 429.
	ErrRateLimited = errors.New("provider rate limited")

	// ErrInvalidAPIKey indicates the provider rejected the credentials.
	ErrInvalidAPIKey = errors.New("invalid API key")

	// ErrProviderUnavailable covers 5xx responses and transport failures.
	ErrProviderUnavailable = errors.New("provider unavailable")
)

// Error is a provider failure classified for logging.
type Error struct {
	Err        error
	StatusCode int
	Provider   Provider
	Model      Model
	Category   string
	Retryable  bool
}

func (e *Error) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("%s/%s: %s (HTTP %d)", e.Provider, e.Model, e.Err, e.StatusCode)
	}
	return fmt.Sprintf("%s/%s: %s", e.Provider, e.Model, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Classify maps a raw provider failure onto one of the sentinel errors.
func Classify(err error, provider Provider, model Model, status int) *Error {
	if err == nil {
		return nil
	}
	e := &Error{Err: err, StatusCode: status, Provider: provider, Model: model, Category: "provider_error"}
	msg := strings.ToLower(err.Error())

	switch {
	case status == http.StatusTooManyRequests || strings.Contains(msg, "rate limit"):
		e.Err, e.Category, e.Retryable = fmt.Errorf("%w: %v", ErrRateLimited, err), "rate_limit", true
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		e.Err, e.Category = fmt.Errorf("%w: %v", ErrInvalidAPIKey, err), "auth"
	case status >= 500 || status == 0:
		e.Err, e.Category, e.Retryable = fmt.Errorf("%w: %v", ErrProviderUnavailable, err), "unavailable", true
	case status == http.StatusNotFound && strings.Contains(msg, "model"):
		e.Category = "model_unavailable"
	}
	return e
}
