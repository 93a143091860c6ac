package provider

import (
	"context"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/awserr"
	"github.com/aws/aws-sdk-go/aws/request"
	"github.com/aws/aws-sdk-go/service/cognitoidentityprovider"
	"github.com/aws/aws-sdk-go/service/cognitoidentityprovider/cognitoidentityprovideriface"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"

	consolesession "github.com/aussiebroadwan/iothub/internal/console/session"
)

// fakeIDP stubs only the operations the provider uses; everything else
// panics through the embedded interface.
type fakeIDP struct {
	cognitoidentityprovideriface.CognitoIdentityProviderAPI

	initiateAuth   func(*cognitoidentityprovider.InitiateAuthInput) (*cognitoidentityprovider.InitiateAuthOutput, error)
	respond        func(*cognitoidentityprovider.RespondToAuthChallengeInput) (*cognitoidentityprovider.RespondToAuthChallengeOutput, error)
	associateToken func(*cognitoidentityprovider.AssociateSoftwareTokenInput) (*cognitoidentityprovider.AssociateSoftwareTokenOutput, error)
	verifyToken    func(*cognitoidentityprovider.VerifySoftwareTokenInput) (*cognitoidentityprovider.VerifySoftwareTokenOutput, error)
	getUser        func(*cognitoidentityprovider.GetUserInput) (*cognitoidentityprovider.GetUserOutput, error)
	forgot         func(*cognitoidentityprovider.ForgotPasswordInput) (*cognitoidentityprovider.ForgotPasswordOutput, error)
	confirmForgot  func(*cognitoidentityprovider.ConfirmForgotPasswordInput) (*cognitoidentityprovider.ConfirmForgotPasswordOutput, error)
	globalSignOut  func(*cognitoidentityprovider.GlobalSignOutInput) (*cognitoidentityprovider.GlobalSignOutOutput, error)

	getUserCalls int
}

func (f *fakeIDP) InitiateAuthWithContext(_ aws.Context, in *cognitoidentityprovider.InitiateAuthInput, _ ...request.Option) (*cognitoidentityprovider.InitiateAuthOutput, error) {
	return f.initiateAuth(in)
}

func (f *fakeIDP) RespondToAuthChallengeWithContext(_ aws.Context, in *cognitoidentityprovider.RespondToAuthChallengeInput, _ ...request.Option) (*cognitoidentityprovider.RespondToAuthChallengeOutput, error) {
	return f.respond(in)
}

func (f *fakeIDP) AssociateSoftwareTokenWithContext(_ aws.Context, in *cognitoidentityprovider.AssociateSoftwareTokenInput, _ ...request.Option) (*cognitoidentityprovider.AssociateSoftwareTokenOutput, error) {
	return f.associateToken(in)
}

func (f *fakeIDP) VerifySoftwareTokenWithContext(_ aws.Context, in *cognitoidentityprovider.VerifySoftwareTokenInput, _ ...request.Option) (*cognitoidentityprovider.VerifySoftwareTokenOutput, error) {
	return f.verifyToken(in)
}

func (f *fakeIDP) GetUserWithContext(_ aws.Context, in *cognitoidentityprovider.GetUserInput, _ ...request.Option) (*cognitoidentityprovider.GetUserOutput, error) {
	f.getUserCalls++
	return f.getUser(in)
}

func (f *fakeIDP) ForgotPasswordWithContext(_ aws.Context, in *cognitoidentityprovider.ForgotPasswordInput, _ ...request.Option) (*cognitoidentityprovider.ForgotPasswordOutput, error) {
	return f.forgot(in)
}

func (f *fakeIDP) ConfirmForgotPasswordWithContext(_ aws.Context, in *cognitoidentityprovider.ConfirmForgotPasswordInput, _ ...request.Option) (*cognitoidentityprovider.ConfirmForgotPasswordOutput, error) {
	return f.confirmForgot(in)
}

func (f *fakeIDP) GlobalSignOutWithContext(_ aws.Context, in *cognitoidentityprovider.GlobalSignOutInput, _ ...request.Option) (*cognitoidentityprovider.GlobalSignOutOutput, error) {
	return f.globalSignOut(in)
}

func newTestProvider(t *testing.T, idp *fakeIDP) (*Cognito, *consolesession.Store) {
	t.Helper()

	dir := t.TempDir()
	store, err := consolesession.Open(filepath.Join(dir, "session.db"), filepath.Join(dir, "session.key"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	logger := slog.New(slog.DiscardHandler)
	return NewCognitoWithClient(idp, "test-client-id", store, logger), store
}

func authResult() *cognitoidentityprovider.AuthenticationResultType {
	return &cognitoidentityprovider.AuthenticationResultType{
		AccessToken:  aws.String("access-token"),
		IdToken:      aws.String("id-token"),
		RefreshToken: aws.String("refresh-token"),
		ExpiresIn:    aws.Int64(3600),
	}
}

func TestSignInDone(t *testing.T) {
	t.Parallel()

	idp := &fakeIDP{
		initiateAuth: func(in *cognitoidentityprovider.InitiateAuthInput) (*cognitoidentityprovider.InitiateAuthOutput, error) {
			require.Equal(t, cognitoidentityprovider.AuthFlowTypeUserPasswordAuth, aws.StringValue(in.AuthFlow))
			require.Equal(t, "test-client-id", aws.StringValue(in.ClientId))
			require.Equal(t, "alice@example.com", aws.StringValue(in.AuthParameters["USERNAME"]))
			require.Equal(t, "hunter2", aws.StringValue(in.AuthParameters["PASSWORD"]))
			return &cognitoidentityprovider.InitiateAuthOutput{AuthenticationResult: authResult()}, nil
		},
	}
	prov, store := newTestProvider(t, idp)

	step, err := prov.SignIn(context.Background(), "alice@example.com", "hunter2")
	require.NoError(t, err)
	require.Equal(t, StepDone, step.Step)

	sess, err := store.Load(context.Background())
	require.NoError(t, err)
	require.Equal(t, "alice@example.com", sess.Username)
	require.Equal(t, "access-token", sess.AccessToken)
	require.WithinDuration(t, time.Now().Add(time.Hour), sess.ExpiresAt, 5*time.Second)
}

func TestSignInPersistsAccessTokenExpiryClaim(t *testing.T) {
	t.Parallel()

	exp := time.Now().Add(45 * time.Minute).Truncate(time.Second)
	access, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"exp": exp.Unix()}).
		SignedString([]byte("test-key"))
	require.NoError(t, err)

	idp := &fakeIDP{
		initiateAuth: func(*cognitoidentityprovider.InitiateAuthInput) (*cognitoidentityprovider.InitiateAuthOutput, error) {
			return &cognitoidentityprovider.InitiateAuthOutput{
				AuthenticationResult: &cognitoidentityprovider.AuthenticationResultType{
					AccessToken:  aws.String(access),
					IdToken:      aws.String("id-token"),
					RefreshToken: aws.String("refresh-token"),
					// Deliberately disagrees with the token's exp claim.
					ExpiresIn: aws.Int64(3600),
				},
			}, nil
		},
	}
	prov, store := newTestProvider(t, idp)

	_, err = prov.SignIn(context.Background(), "alice@example.com", "hunter2")
	require.NoError(t, err)

	sess, err := store.Load(context.Background())
	require.NoError(t, err)
	require.True(t, exp.Equal(sess.ExpiresAt), "expiry must come from the token's exp claim")
}

func TestSignInNewPasswordChallenge(t *testing.T) {
	t.Parallel()

	idp := &fakeIDP{
		initiateAuth: func(*cognitoidentityprovider.InitiateAuthInput) (*cognitoidentityprovider.InitiateAuthOutput, error) {
			return &cognitoidentityprovider.InitiateAuthOutput{
				ChallengeName: aws.String(cognitoidentityprovider.ChallengeNameTypeNewPasswordRequired),
				Session:       aws.String("challenge-session-1"),
			}, nil
		},
		respond: func(in *cognitoidentityprovider.RespondToAuthChallengeInput) (*cognitoidentityprovider.RespondToAuthChallengeOutput, error) {
			require.Equal(t, cognitoidentityprovider.ChallengeNameTypeNewPasswordRequired, aws.StringValue(in.ChallengeName))
			require.Equal(t, "challenge-session-1", aws.StringValue(in.Session))
			require.Equal(t, "new-password", aws.StringValue(in.ChallengeResponses["NEW_PASSWORD"]))
			require.Equal(t, "alice@example.com", aws.StringValue(in.ChallengeResponses["USERNAME"]))
			return &cognitoidentityprovider.RespondToAuthChallengeOutput{AuthenticationResult: authResult()}, nil
		},
	}
	prov, _ := newTestProvider(t, idp)

	step, err := prov.SignIn(context.Background(), "alice@example.com", "temp-password")
	require.NoError(t, err)
	require.Equal(t, StepNewPasswordRequired, step.Step)

	step, err = prov.ConfirmSignIn(context.Background(), "new-password")
	require.NoError(t, err)
	require.Equal(t, StepDone, step.Step)
}

func TestSignInTotpCodeChallenge(t *testing.T) {
	t.Parallel()

	idp := &fakeIDP{
		initiateAuth: func(*cognitoidentityprovider.InitiateAuthInput) (*cognitoidentityprovider.InitiateAuthOutput, error) {
			return &cognitoidentityprovider.InitiateAuthOutput{
				ChallengeName: aws.String(cognitoidentityprovider.ChallengeNameTypeSoftwareTokenMfa),
				Session:       aws.String("challenge-session-1"),
			}, nil
		},
		respond: func(in *cognitoidentityprovider.RespondToAuthChallengeInput) (*cognitoidentityprovider.RespondToAuthChallengeOutput, error) {
			require.Equal(t, "123456", aws.StringValue(in.ChallengeResponses["SOFTWARE_TOKEN_MFA_CODE"]))
			return &cognitoidentityprovider.RespondToAuthChallengeOutput{AuthenticationResult: authResult()}, nil
		},
	}
	prov, _ := newTestProvider(t, idp)

	step, err := prov.SignIn(context.Background(), "alice@example.com", "hunter2")
	require.NoError(t, err)
	require.Equal(t, StepTotpCode, step.Step)

	step, err = prov.ConfirmSignIn(context.Background(), "123456")
	require.NoError(t, err)
	require.Equal(t, StepDone, step.Step)
}

func TestSignInTotpSetupChallenge(t *testing.T) {
	t.Parallel()

	idp := &fakeIDP{
		initiateAuth: func(*cognitoidentityprovider.InitiateAuthInput) (*cognitoidentityprovider.InitiateAuthOutput, error) {
			return &cognitoidentityprovider.InitiateAuthOutput{
				ChallengeName: aws.String(cognitoidentityprovider.ChallengeNameTypeMfaSetup),
				Session:       aws.String("session-1"),
			}, nil
		},
		associateToken: func(in *cognitoidentityprovider.AssociateSoftwareTokenInput) (*cognitoidentityprovider.AssociateSoftwareTokenOutput, error) {
			require.Equal(t, "session-1", aws.StringValue(in.Session))
			return &cognitoidentityprovider.AssociateSoftwareTokenOutput{
				SecretCode: aws.String("JBSWY3DPEHPK3PXP"),
				Session:    aws.String("session-2"),
			}, nil
		},
		verifyToken: func(in *cognitoidentityprovider.VerifySoftwareTokenInput) (*cognitoidentityprovider.VerifySoftwareTokenOutput, error) {
			require.Equal(t, "session-2", aws.StringValue(in.Session))
			require.Equal(t, "654321", aws.StringValue(in.UserCode))
			return &cognitoidentityprovider.VerifySoftwareTokenOutput{Session: aws.String("session-3")}, nil
		},
		respond: func(in *cognitoidentityprovider.RespondToAuthChallengeInput) (*cognitoidentityprovider.RespondToAuthChallengeOutput, error) {
			require.Equal(t, cognitoidentityprovider.ChallengeNameTypeMfaSetup, aws.StringValue(in.ChallengeName))
			require.Equal(t, "session-3", aws.StringValue(in.Session))
			return &cognitoidentityprovider.RespondToAuthChallengeOutput{AuthenticationResult: authResult()}, nil
		},
	}
	prov, _ := newTestProvider(t, idp)

	step, err := prov.SignIn(context.Background(), "alice@example.com", "hunter2")
	require.NoError(t, err)
	require.Equal(t, StepTotpSetup, step.Step)
	require.NotNil(t, step.TotpSetup)
	require.Equal(t, "JBSWY3DPEHPK3PXP", step.TotpSetup.SharedSecret)

	step, err = prov.ConfirmSignIn(context.Background(), "654321")
	require.NoError(t, err)
	require.Equal(t, StepDone, step.Step)
}

func TestSignInPasswordResetRequired(t *testing.T) {
	t.Parallel()

	idp := &fakeIDP{
		initiateAuth: func(*cognitoidentityprovider.InitiateAuthInput) (*cognitoidentityprovider.InitiateAuthOutput, error) {
			return nil, awserr.New(cognitoidentityprovider.ErrCodePasswordResetRequiredException, "Password reset required for the user", nil)
		},
	}
	prov, _ := newTestProvider(t, idp)

	step, err := prov.SignIn(context.Background(), "alice@example.com", "hunter2")
	require.NoError(t, err)
	require.Equal(t, StepResetPassword, step.Step)
}

func TestSignInRejected(t *testing.T) {
	t.Parallel()

	idp := &fakeIDP{
		initiateAuth: func(*cognitoidentityprovider.InitiateAuthInput) (*cognitoidentityprovider.InitiateAuthOutput, error) {
			return nil, awserr.New("NotAuthorizedException", "Incorrect username or password.", nil)
		},
	}
	prov, _ := newTestProvider(t, idp)

	_, err := prov.SignIn(context.Background(), "alice@example.com", "wrong")
	var rej *RejectedError
	require.ErrorAs(t, err, &rej)
	require.Equal(t, "NotAuthorizedException", rej.Code)
	require.Equal(t, "Incorrect username or password.", rej.Message)
}

func TestSignInUnrecognizedChallenge(t *testing.T) {
	t.Parallel()

	idp := &fakeIDP{
		initiateAuth: func(*cognitoidentityprovider.InitiateAuthInput) (*cognitoidentityprovider.InitiateAuthOutput, error) {
			return &cognitoidentityprovider.InitiateAuthOutput{
				ChallengeName: aws.String("CUSTOM_CHALLENGE"),
				Session:       aws.String("session-1"),
			}, nil
		},
	}
	prov, _ := newTestProvider(t, idp)

	step, err := prov.SignIn(context.Background(), "alice@example.com", "hunter2")
	require.NoError(t, err)
	require.False(t, step.Step.Known())
	require.Equal(t, SignInStep("CUSTOM_CHALLENGE"), step.Step)
}

func TestConfirmSignInWithoutChallenge(t *testing.T) {
	t.Parallel()

	prov, _ := newTestProvider(t, &fakeIDP{})

	_, err := prov.ConfirmSignIn(context.Background(), "123456")
	require.ErrorIs(t, err, ErrNoChallenge)
}

func TestCurrentUserNoSession(t *testing.T) {
	t.Parallel()

	prov, _ := newTestProvider(t, &fakeIDP{})

	_, err := prov.CurrentUser(context.Background())
	require.ErrorIs(t, err, ErrNotSignedIn)
}

func TestCurrentUserExpiredLocally(t *testing.T) {
	t.Parallel()

	idp := &fakeIDP{}
	prov, store := newTestProvider(t, idp)

	require.NoError(t, store.Save(context.Background(), consolesession.Session{
		Username:    "alice@example.com",
		AccessToken: "stale",
		IDToken:     "i", RefreshToken: "r",
		ExpiresAt: time.Now().Add(-time.Minute),
	}))

	_, err := prov.CurrentUser(context.Background())
	require.ErrorIs(t, err, ErrNotSignedIn)
	require.Zero(t, idp.getUserCalls)
}

func TestCurrentUserValid(t *testing.T) {
	t.Parallel()

	idp := &fakeIDP{
		getUser: func(in *cognitoidentityprovider.GetUserInput) (*cognitoidentityprovider.GetUserOutput, error) {
			require.Equal(t, "live-token", aws.StringValue(in.AccessToken))
			return &cognitoidentityprovider.GetUserOutput{Username: aws.String("alice")}, nil
		},
	}
	prov, store := newTestProvider(t, idp)

	require.NoError(t, store.Save(context.Background(), consolesession.Session{
		Username:    "alice@example.com",
		AccessToken: "live-token",
		IDToken:     "i", RefreshToken: "r",
		ExpiresAt: time.Now().Add(time.Hour),
	}))

	username, err := prov.CurrentUser(context.Background())
	require.NoError(t, err)
	require.Equal(t, "alice@example.com", username)
	require.Equal(t, 1, idp.getUserCalls)
}

func TestResetPassword(t *testing.T) {
	t.Parallel()

	var called bool
	idp := &fakeIDP{
		forgot: func(in *cognitoidentityprovider.ForgotPasswordInput) (*cognitoidentityprovider.ForgotPasswordOutput, error) {
			called = true
			require.Equal(t, "alice@example.com", aws.StringValue(in.Username))
			return &cognitoidentityprovider.ForgotPasswordOutput{}, nil
		},
	}
	prov, _ := newTestProvider(t, idp)

	require.NoError(t, prov.ResetPassword(context.Background(), "alice@example.com"))
	require.True(t, called)
}

func TestConfirmResetPassword(t *testing.T) {
	t.Parallel()

	idp := &fakeIDP{
		confirmForgot: func(in *cognitoidentityprovider.ConfirmForgotPasswordInput) (*cognitoidentityprovider.ConfirmForgotPasswordOutput, error) {
			require.Equal(t, "alice@example.com", aws.StringValue(in.Username))
			require.Equal(t, "123456", aws.StringValue(in.ConfirmationCode))
			require.Equal(t, "new-password", aws.StringValue(in.Password))
			return &cognitoidentityprovider.ConfirmForgotPasswordOutput{}, nil
		},
	}
	prov, _ := newTestProvider(t, idp)

	require.NoError(t, prov.ConfirmResetPassword(context.Background(), "alice@example.com", "123456", "new-password"))
}

func TestSignOutClearsSessionEvenWhenRemoteFails(t *testing.T) {
	t.Parallel()

	idp := &fakeIDP{
		globalSignOut: func(*cognitoidentityprovider.GlobalSignOutInput) (*cognitoidentityprovider.GlobalSignOutOutput, error) {
			return nil, awserr.New("NotAuthorizedException", "Access Token has been revoked", nil)
		},
	}
	prov, store := newTestProvider(t, idp)

	require.NoError(t, store.Save(context.Background(), consolesession.Session{
		Username:    "alice@example.com",
		AccessToken: "a", IDToken: "i", RefreshToken: "r",
		ExpiresAt: time.Now().Add(time.Hour),
	}))

	require.NoError(t, prov.SignOut(context.Background()))

	_, err := store.Load(context.Background())
	require.ErrorIs(t, err, consolesession.ErrNoSession)
}

func TestSignOutNoSession(t *testing.T) {
	t.Parallel()

	prov, _ := newTestProvider(t, &fakeIDP{})
	require.NoError(t, prov.SignOut(context.Background()))
}
