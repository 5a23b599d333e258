package auth

import (
	"fmt"
	"time"
)

// FailureKind classifies the outcome of a failed credential exchange.
type FailureKind string

const (
	// FailureMissingCredentials means identifier or password was absent.
	FailureMissingCredentials FailureKind = "MISSING_CREDENTIALS"
	// FailureTwoFARequired is not a true error: credentials validated, OTP required.
	FailureTwoFARequired FailureKind = "TWO_FA_REQUIRED"
	// FailureAuthError means the provider rejected the credentials (HTTP 401).
	FailureAuthError FailureKind = "AUTH_ERROR"
	// FailureValidationError means the provider rejected the input shape (HTTP 400).
	FailureValidationError FailureKind = "VALIDATION_ERROR"
	// FailureAuthFailed covers any other provider rejection.
	FailureAuthFailed FailureKind = "AUTH_FAILED"
	// FailureMalformedResponse means the provider body did not match any known shape.
	FailureMalformedResponse FailureKind = "MALFORMED_RESPONSE"
	// FailureNetworkError means the provider call never completed.
	FailureNetworkError FailureKind = "NETWORK_ERROR"
)

// ChallengeAction is a channel/status tag attached to a two-factor challenge.
type ChallengeAction string

const (
	ActionSentEmail        ChallengeAction = "sent_email"
	ActionSentSMS          ChallengeAction = "sent_sms"
	ActionAlreadySentEmail ChallengeAction = "already_sent_email"
	ActionAlreadySentSMS   ChallengeAction = "already_sent_sms"
)

// Valid reports whether the action is one of the known channel/status tags.
func (a ChallengeAction) Valid() bool {
	switch a {
	case ActionSentEmail, ActionSentSMS, ActionAlreadySentEmail, ActionAlreadySentSMS:
		return true
	}
	return false
}

// TwoFactorChallenge is the transient "credentials validated, OTP required"
// state. It is never persisted; it travels back to the caller inside a
// Failure so the caller can present an OTP entry step and re-attempt
// authentication with the resulting token.
type TwoFactorChallenge struct {
	Message     string            `json:"message"`
	Actions     []ChallengeAction `json:"actions"`
	RetryAfter  *time.Time        `json:"retry_after,omitempty"`
	Identifier  string            `json:"identifier"`
	CountryCode string            `json:"country_code,omitempty"`
}

// Failure is the tagged result of a credential exchange that did not produce
// an Identity. It implements error so it can flow through ordinary error
// returns; callers recover the tag with errors.As.
type Failure struct {
	Kind      FailureKind
	Message   string
	Challenge *TwoFactorChallenge // set only when Kind is FailureTwoFARequired
}

func (f *Failure) Error() string {
	if f.Message == "" {
		return string(f.Kind)
	}
	return fmt.Sprintf("%s: %s", f.Kind, f.Message)
}

// NewFailure builds a Failure with the given kind and message.
func NewFailure(kind FailureKind, message string) *Failure {
	return &Failure{Kind: kind, Message: message}
}

// TwoFARequired builds the special next-step failure carrying the challenge.
func TwoFARequired(ch *TwoFactorChallenge) *Failure {
	msg := "two-factor authentication required"
	if ch != nil && ch.Message != "" {
		msg = ch.Message
	}
	return &Failure{Kind: FailureTwoFARequired, Message: msg, Challenge: ch}
}
