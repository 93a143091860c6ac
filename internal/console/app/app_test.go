package app

import (
	"bufio"
	"context"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/aussiebroadwan/iothub/internal/console/flow"
	"github.com/aussiebroadwan/iothub/internal/console/provider"
)

// challengeProvider answers every attempt with the same next step.
type challengeProvider struct {
	step provider.SignInStep
}

func (p *challengeProvider) SignIn(context.Context, string, string) (provider.NextStep, error) {
	return provider.NextStep{Step: p.step}, nil
}

func (p *challengeProvider) ConfirmSignIn(context.Context, string) (provider.NextStep, error) {
	return provider.NextStep{Step: p.step}, nil
}

func (p *challengeProvider) CurrentUser(context.Context) (string, error) {
	return "", provider.ErrNotSignedIn
}

func (p *challengeProvider) ResetPassword(context.Context, string) error { return nil }

func (p *challengeProvider) ConfirmResetPassword(context.Context, string, string, string) error {
	return nil
}

func (p *challengeProvider) SignOut(context.Context) error { return nil }

type nopEscalator struct{}

func (nopEscalator) ResetExpiredPassword(context.Context, string) error { return nil }

func newTestApp(input string, p provider.Provider) *Application {
	logger := slog.New(slog.DiscardHandler)
	return &Application{
		logger: logger,
		flow:   flow.New(p, nopEscalator{}, "IoTHub", logger),
		in:     bufio.NewReader(strings.NewReader(input)),
		out:    io.Discard,
	}
}

func TestSignInStopsWhenInputEnds(t *testing.T) {
	t.Parallel()

	// Credentials arrive, then the input closes before the forced
	// password rotation can be answered. The challenge walk must stop
	// rather than re-prompt a dead input forever.
	application := newTestApp(
		"alice@example.com\nhunter2\n",
		&challengeProvider{step: provider.StepNewPasswordRequired},
	)

	done := make(chan error, 1)
	go func() { done <- application.signIn(context.Background()) }()

	select {
	case err := <-done:
		require.ErrorIs(t, err, io.EOF)
	case <-time.After(2 * time.Second):
		t.Fatal("signIn did not return after input ended")
	}
}

func TestResolveChallengesStopsOnCanceledContext(t *testing.T) {
	t.Parallel()

	application := newTestApp(
		"123456\n123456\n123456\n",
		&challengeProvider{step: provider.StepTotpCode},
	)

	ctx, cancel := context.WithCancel(context.Background())
	require.NoError(t, application.flow.SignIn(ctx, "alice@example.com", "hunter2"))
	require.Equal(t, flow.StateTotpVerificationRequired, application.flow.State())

	cancel()
	require.ErrorIs(t, application.resolveChallenges(ctx), context.Canceled)
}
