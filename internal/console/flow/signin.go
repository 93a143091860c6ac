package flow

import (
	"context"
	"fmt"

	"github.com/aussiebroadwan/iothub/internal/console/provider"
)

// SignIn submits credentials and advances the state machine to whatever
// the provider demands next. A new attempt discards any challenge left
// over from a previous one.
//
// One rejection is recoverable: an expired temporary password can never
// authenticate again on its own, so it is escalated to an administrative
// reset and then funnelled into the self-service reset flow.
func (f *Flow) SignIn(ctx context.Context, username, password string) error {
	if username == "" || password == "" {
		return fmt.Errorf("%w: username and password are required", ErrInvalidInput)
	}

	// The provider drops any prior challenge on a fresh attempt, so the
	// enrollment tied to it is stale regardless of how this one ends.
	f.enrollment = nil

	step, err := f.provider.SignIn(ctx, username, password)
	if err != nil {
		if provider.IsTemporaryPasswordExpired(err) {
			if escErr := f.escalateReset(ctx, username); escErr != nil {
				f.failAttempt()
				return escErr
			}
			return nil
		}
		f.failAttempt()
		return err
	}

	// The username is committed only once the provider accepts the
	// attempt. When an authenticated session is already live, a stray
	// challenge step is ignored by the dispatcher and must not relabel
	// the session either.
	if f.state != StateAuthenticated || step.Step == provider.StepDone {
		f.username = username
	}
	return f.applyStep(ctx, step)
}

// failAttempt settles a rejected sign-in attempt. An existing
// authenticated session is left untouched; otherwise the flow lands in
// StateUnauthenticated.
func (f *Flow) failAttempt() {
	if f.state != StateAuthenticated {
		f.state = StateUnauthenticated
	}
}
