// Package provider defines the identity provider boundary the console
// authenticates against, and its Cognito implementation. The provider owns
// credential verification, challenge policy and token issuance; the
// console only orchestrates the exchange of opaque challenge tokens.
package provider

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// SignInStep is the provider's instruction for what the client must do
// next before authentication can complete. The set of values is owned by
// the provider; anything outside the constants below must be treated as
// unrecognized rather than an error, so provider-added steps fail safe.
type SignInStep string

const (
	StepDone                SignInStep = "DONE"
	StepResetPassword       SignInStep = "RESET_PASSWORD"
	StepNewPasswordRequired SignInStep = "CONFIRM_SIGN_IN_WITH_NEW_PASSWORD_REQUIRED"
	StepTotpSetup           SignInStep = "CONTINUE_SIGN_IN_WITH_TOTP_SETUP"
	StepTotpCode            SignInStep = "CONFIRM_SIGN_IN_WITH_TOTP_CODE"
)

// Known reports whether the step is part of the recognized enumeration.
func (s SignInStep) Known() bool {
	switch s {
	case StepDone, StepResetPassword, StepNewPasswordRequired, StepTotpSetup, StepTotpCode:
		return true
	}
	return false
}

// TotpSetup carries the shared secret issued during TOTP enrollment,
// base32-encoded as the provider returns it. It exists only while setup
// is in progress.
type TotpSetup struct {
	SharedSecret string
}

// NextStep is the provider's answer to a sign-in or challenge submission.
type NextStep struct {
	Step SignInStep

	// TotpSetup is populated only when Step is StepTotpSetup.
	TotpSetup *TotpSetup
}

// Provider is the identity provider boundary consumed by the console.
type Provider interface {
	// SignIn submits username/password and returns the next step. Any
	// challenge context from a previous attempt is discarded.
	SignIn(ctx context.Context, username, password string) (NextStep, error)

	// ConfirmSignIn submits one challenge answer (new password or TOTP
	// code, depending on the live challenge) and returns the next step.
	ConfirmSignIn(ctx context.Context, answer string) (NextStep, error)

	// CurrentUser reports the username of an existing valid session, or
	// an error when there is none.
	CurrentUser(ctx context.Context) (string, error)

	// ResetPassword starts the self-service reset flow: the provider
	// sends a verification code to the user.
	ResetPassword(ctx context.Context, username string) error

	// ConfirmResetPassword completes the reset with the delivered code.
	ConfirmResetPassword(ctx context.Context, username, code, newPassword string) error

	// SignOut invalidates the current session, if any.
	SignOut(ctx context.Context) error
}

// RejectedError is a structured provider rejection: the provider's error
// code plus its human-readable message, surfaced to the user verbatim
// unless it matches one of the recognized recovery patterns below.
type RejectedError struct {
	Code    string
	Message string
}

func (e *RejectedError) Error() string {
	if e.Message == "" {
		return e.Code
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

const notAuthorizedCode = "NotAuthorizedException"

// The two recovery branches below match against the provider's free-text
// error message because it exposes no structured code for either
// condition. Known fragility: the text is locale- and version-dependent.
// Both predicates live here so the brittleness stays in one file.

// IsTemporaryPasswordExpired reports the rejection that means an
// admin-issued temporary password has aged out and sign-in can never
// succeed until an administrator resets it.
func IsTemporaryPasswordExpired(err error) bool {
	var rej *RejectedError
	if !errors.As(err, &rej) {
		return false
	}
	return rej.Code == notAuthorizedCode &&
		strings.Contains(rej.Message, "Temporary password has expired")
}

// IsResetNotAllowed reports the rejection that means the account is
// mid-forced-password-change, so self-service reset is refused while the
// temporary password is still valid.
func IsResetNotAllowed(err error) bool {
	var rej *RejectedError
	if !errors.As(err, &rej) {
		return false
	}
	return rej.Code == notAuthorizedCode &&
		strings.Contains(rej.Message, "cannot be reset in the current state")
}
