package calendar

import "fmt"

// CredentialError signals a missing or rejected provider token. Not
// retried; the caller has to re-authenticate.
type CredentialError struct {
	Provider ProviderTag
	Reason   string
}

func (e *CredentialError) Error() string {
	if e.Reason == "" {
		return fmt.Sprintf("%s: missing or invalid credential", e.Provider)
	}
	return fmt.Sprintf("%s: %s", e.Provider, e.Reason)
}

// NotFoundError signals that a mutation target id no longer exists.
type NotFoundError struct {
	Kind string
	ID   string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %q not found", e.Kind, e.ID)
}

// ProviderError carries an upstream provider failure verbatim. The core
// never retries these.
type ProviderError struct {
	Provider ProviderTag
	Status   int
	Message  string
}

func (e *ProviderError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("%s responded %d: %s", e.Provider, e.Status, e.Message)
	}
	return fmt.Sprintf("%s request failed: %s", e.Provider, e.Message)
}

// ValidationError signals missing or malformed action fields. Surfaced to
// the caller as a clarifying question rather than a hard failure.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}
