package auth

import "fmt"

// FailureReason classifies why a login attempt failed. None of these are
// retryable within the same attempt; the user must restart from the
// authorization redirect.
type FailureReason string

const (
	ReasonDiscovery          FailureReason = "discovery_failed"
	ReasonProviderError      FailureReason = "provider_error"
	ReasonInvalidState       FailureReason = "invalid_state"
	ReasonMissingVerifier    FailureReason = "missing_verifier"
	ReasonTokenExchange      FailureReason = "token_exchange_failed"
	ReasonUserinfo           FailureReason = "userinfo_failed"
	ReasonSessionPersistence FailureReason = "session_creation_failed"
)

// FlowError is a failed transition in the login flow. Status and Body carry
// the provider response for token exchange and userinfo failures.
type FlowError struct {
	Reason FailureReason
	Status int
	Body   string
	Err    error
}

func (e *FlowError) Error() string {
	switch {
	case e.Status != 0:
		return fmt.Sprintf("%s: provider returned %d: %s", e.Reason, e.Status, e.Body)
	case e.Err != nil:
		return fmt.Sprintf("%s: %v", e.Reason, e.Err)
	default:
		return string(e.Reason)
	}
}

func (e *FlowError) Unwrap() error { return e.Err }

func flowErr(reason FailureReason, err error) *FlowError {
	return &FlowError{Reason: reason, Err: err}
}
