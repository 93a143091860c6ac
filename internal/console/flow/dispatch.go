package flow

import (
	"context"

	"github.com/aussiebroadwan/iothub/internal/console/provider"
)

// applyStep maps a provider next step onto the new State. It is the only
// place state is assigned after the startup probe, it is idempotent for
// a given step, and it never moves the state backward from
// StateAuthenticated.
func (f *Flow) applyStep(ctx context.Context, step provider.NextStep) error {
	if f.state == StateAuthenticated && step.Step != provider.StepDone {
		f.logger.Warn("ignoring sign-in step while authenticated", "step", string(step.Step))
		return nil
	}

	switch step.Step {
	case provider.StepDone:
		f.state = StateAuthenticated
		f.enrollment = nil
		return nil

	case provider.StepResetPassword:
		// Not a pure state assignment: the provider wants a reset, so the
		// verification code request is kicked off here.
		return f.startReset(ctx, f.username, true)

	case provider.StepNewPasswordRequired:
		f.state = StateNewPasswordRequired
		return nil

	case provider.StepTotpCode:
		f.state = StateTotpVerificationRequired
		return nil

	case provider.StepTotpSetup:
		enrollment, err := newEnrollment(f.issuer, f.username, step.TotpSetup)
		if err != nil {
			return err
		}
		f.enrollment = enrollment
		f.state = StateTotpSetupRequired
		return nil

	default:
		// Provider-added steps must not crash or mis-render the client.
		f.logger.Warn("unrecognized sign-in step, state unchanged", "step", string(step.Step))
		return nil
	}
}
