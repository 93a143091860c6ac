// Package flow is the client-side authentication state machine. It turns
// provider-returned next steps into a single current State, runs the
// challenge responders, and owns the two failure-recovery branches
// (expired temporary password, mid-flow forced reset) that escalate to
// the relay's admin-reset endpoint.
package flow

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/aussiebroadwan/iothub/internal/console/provider"
)

var (
	// ErrInvalidInput reports input rejected locally. Invalid input never
	// reaches the provider.
	ErrInvalidInput = errors.New("invalid input")

	// ErrEscalationFailed reports that the admin-reset fallback itself
	// failed. There is no further recovery branch behind it.
	ErrEscalationFailed = errors.New("automatic reset failed, contact support")
)

// Escalator triggers an administrative password reset for accounts whose
// temporary password can no longer be used. Satisfied by the relay
// client.
type Escalator interface {
	ResetExpiredPassword(ctx context.Context, username string) error
}

// Flow is the authentication orchestrator. It is single-threaded
// cooperative: callers run one action at a time, and the single State
// value serializes which responder may act next.
type Flow struct {
	provider provider.Provider
	escalate Escalator
	logger   *slog.Logger
	issuer   string

	state      State
	username   string
	enrollment *Enrollment
}

// New builds a Flow in StateUnknown. The issuer labels TOTP enrollment
// URIs so authenticator apps show which service the code belongs to.
func New(p provider.Provider, escalate Escalator, issuer string, logger *slog.Logger) *Flow {
	return &Flow{
		provider: p,
		escalate: escalate,
		logger:   logger,
		issuer:   issuer,
		state:    StateUnknown,
	}
}

// State reports the current authentication state.
func (f *Flow) State() State { return f.state }

// Username reports the username of the attempt or session in progress.
func (f *Flow) Username() string { return f.username }

// Enrollment reports the live TOTP enrollment, present only while the
// state is StateTotpSetupRequired.
func (f *Flow) Enrollment() *Enrollment { return f.enrollment }

// Probe asks the provider whether a valid session already exists. It
// resolves StateUnknown exactly once at startup; every failure collapses
// to StateUnauthenticated, with no distinction between "no session" and
// "session invalid".
func (f *Flow) Probe(ctx context.Context) State {
	username, err := f.provider.CurrentUser(ctx)
	if err != nil {
		f.state = StateUnauthenticated
		return f.state
	}

	f.username = username
	f.state = StateAuthenticated
	return f.state
}

// SignOut invalidates the session and returns to StateUnauthenticated.
func (f *Flow) SignOut(ctx context.Context) error {
	if err := f.provider.SignOut(ctx); err != nil {
		return err
	}
	f.state = StateUnauthenticated
	f.username = ""
	f.enrollment = nil
	return nil
}

// escalateReset runs the admin-reset fallback and, when it succeeds,
// starts the self-service reset flow for the same account.
func (f *Flow) escalateReset(ctx context.Context, username string) error {
	f.logger.Info("escalating to administrative password reset", "username", username)

	if err := f.escalate.ResetExpiredPassword(ctx, username); err != nil {
		f.logger.Error("administrative password reset failed", "error", err)
		return fmt.Errorf("%w: %v", ErrEscalationFailed, err)
	}
	return f.startReset(ctx, username, false)
}
