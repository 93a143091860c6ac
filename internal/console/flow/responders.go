package flow

import (
	"context"
	"fmt"

	"github.com/aussiebroadwan/iothub/internal/console/provider"
)

// ConfirmNewPassword answers a forced password rotation challenge. A
// mismatched confirmation is rejected locally; a provider rejection
// leaves the state at StateNewPasswordRequired so the user can retry in
// place.
func (f *Flow) ConfirmNewPassword(ctx context.Context, newPassword, confirmPassword string) error {
	if newPassword == "" {
		return fmt.Errorf("%w: new password is required", ErrInvalidInput)
	}
	if newPassword != confirmPassword {
		return fmt.Errorf("%w: passwords do not match", ErrInvalidInput)
	}

	step, err := f.provider.ConfirmSignIn(ctx, newPassword)
	if err != nil {
		return err
	}
	return f.applyStep(ctx, step)
}

// SubmitTotpCode answers a TOTP challenge. The same submission serves
// first-time enrollment and steady-state verification; the provider's
// next step disambiguates the outcome. Lockout and backoff policy is the
// provider's, not ours.
func (f *Flow) SubmitTotpCode(ctx context.Context, code string) error {
	if !validTotpCode(code) {
		return fmt.Errorf("%w: code must be 6 digits", ErrInvalidInput)
	}

	step, err := f.provider.ConfirmSignIn(ctx, code)
	if err != nil {
		return err
	}
	return f.applyStep(ctx, step)
}

func validTotpCode(code string) bool {
	if len(code) != 6 {
		return false
	}
	for _, r := range code {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// StartReset asks the provider to send a password reset code. One
// rejection is recoverable: an account mid-forced-password-change
// refuses self-service reset, so it is escalated to an administrative
// reset first.
func (f *Flow) StartReset(ctx context.Context, username string) error {
	return f.startReset(ctx, username, true)
}

func (f *Flow) startReset(ctx context.Context, username string, allowEscalation bool) error {
	if username == "" {
		return fmt.Errorf("%w: username is required", ErrInvalidInput)
	}

	if err := f.provider.ResetPassword(ctx, username); err != nil {
		if allowEscalation && provider.IsResetNotAllowed(err) {
			return f.escalateReset(ctx, username)
		}
		return err
	}

	f.username = username
	f.state = StatePasswordResetInProgress
	return nil
}

// ConfirmReset completes a password reset with the delivered code. On
// success the state returns to StateUnauthenticated: a reset never
// authenticates, the user signs in again with the new password.
func (f *Flow) ConfirmReset(ctx context.Context, code, newPassword, confirmPassword string) error {
	if code == "" || newPassword == "" {
		return fmt.Errorf("%w: code and new password are required", ErrInvalidInput)
	}
	if newPassword != confirmPassword {
		return fmt.Errorf("%w: passwords do not match", ErrInvalidInput)
	}

	if err := f.provider.ConfirmResetPassword(ctx, f.username, code, newPassword); err != nil {
		return err
	}

	f.state = StateUnauthenticated
	f.enrollment = nil
	return nil
}
