package provider

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/awserr"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/cognitoidentityprovider"
	"github.com/aws/aws-sdk-go/service/cognitoidentityprovider/cognitoidentityprovideriface"

	consolesession "github.com/aussiebroadwan/iothub/internal/console/session"
)

var (
	// ErrNoChallenge reports a challenge answer submitted when no
	// challenge is in progress.
	ErrNoChallenge = errors.New("no sign-in challenge in progress")

	// ErrNotSignedIn reports an operation that needs a live session when
	// there is none.
	ErrNotSignedIn = errors.New("not signed in")
)

// challenge is the live challenge context between a sign-in attempt and
// its confirmation. The session token is single-use and advances with
// every provider round trip.
type challenge struct {
	name     string
	session  string
	username string
}

// Cognito implements Provider against an AWS Cognito user pool using the
// USER_PASSWORD_AUTH flow. Issued tokens are persisted through the
// console session store so authentication survives restarts.
type Cognito struct {
	client   cognitoidentityprovideriface.CognitoIdentityProviderAPI
	clientID string
	store    *consolesession.Store
	logger   *slog.Logger

	challenge *challenge
}

// NewCognito builds a Cognito provider on the given AWS session.
func NewCognito(sess *session.Session, clientID string, store *consolesession.Store, logger *slog.Logger) *Cognito {
	return &Cognito{
		client:   cognitoidentityprovider.New(sess),
		clientID: clientID,
		store:    store,
		logger:   logger,
	}
}

// NewCognitoWithClient is NewCognito with an injected API client.
func NewCognitoWithClient(client cognitoidentityprovideriface.CognitoIdentityProviderAPI, clientID string, store *consolesession.Store, logger *slog.Logger) *Cognito {
	return &Cognito{
		client:   client,
		clientID: clientID,
		store:    store,
		logger:   logger,
	}
}

func (c *Cognito) SignIn(ctx context.Context, username, password string) (NextStep, error) {
	c.challenge = nil

	out, err := c.client.InitiateAuthWithContext(ctx, &cognitoidentityprovider.InitiateAuthInput{
		AuthFlow: aws.String(cognitoidentityprovider.AuthFlowTypeUserPasswordAuth),
		ClientId: aws.String(c.clientID),
		AuthParameters: map[string]*string{
			"USERNAME": aws.String(username),
			"PASSWORD": aws.String(password),
		},
	})
	if err != nil {
		var aerr awserr.Error
		if errors.As(err, &aerr) && aerr.Code() == cognitoidentityprovider.ErrCodePasswordResetRequiredException {
			// The account is flagged for reset; the password was not
			// actually checked, so no challenge context exists.
			return NextStep{Step: StepResetPassword}, nil
		}
		return NextStep{}, rejected(err)
	}

	return c.handleAuthOutcome(ctx, username, out.AuthenticationResult, out.ChallengeName, out.Session)
}

func (c *Cognito) ConfirmSignIn(ctx context.Context, answer string) (NextStep, error) {
	if c.challenge == nil {
		return NextStep{}, ErrNoChallenge
	}
	ch := *c.challenge

	switch ch.name {
	case cognitoidentityprovider.ChallengeNameTypeNewPasswordRequired:
		return c.respond(ctx, ch, map[string]*string{
			"USERNAME":     aws.String(ch.username),
			"NEW_PASSWORD": aws.String(answer),
		})

	case cognitoidentityprovider.ChallengeNameTypeSoftwareTokenMfa:
		return c.respond(ctx, ch, map[string]*string{
			"USERNAME":                aws.String(ch.username),
			"SOFTWARE_TOKEN_MFA_CODE": aws.String(answer),
		})

	case cognitoidentityprovider.ChallengeNameTypeMfaSetup:
		// Enrollment first binds the code to the shared secret, then the
		// original challenge is answered with the advanced session token.
		verify, err := c.client.VerifySoftwareTokenWithContext(ctx, &cognitoidentityprovider.VerifySoftwareTokenInput{
			Session:  aws.String(ch.session),
			UserCode: aws.String(answer),
		})
		if err != nil {
			return NextStep{}, rejected(err)
		}
		ch.session = aws.StringValue(verify.Session)
		c.challenge = &ch
		return c.respond(ctx, ch, map[string]*string{
			"USERNAME": aws.String(ch.username),
		})

	default:
		return NextStep{}, fmt.Errorf("unsupported challenge %q", ch.name)
	}
}

func (c *Cognito) respond(ctx context.Context, ch challenge, responses map[string]*string) (NextStep, error) {
	out, err := c.client.RespondToAuthChallengeWithContext(ctx, &cognitoidentityprovider.RespondToAuthChallengeInput{
		ClientId:           aws.String(c.clientID),
		ChallengeName:      aws.String(ch.name),
		Session:            aws.String(ch.session),
		ChallengeResponses: responses,
	})
	if err != nil {
		return NextStep{}, rejected(err)
	}
	return c.handleAuthOutcome(ctx, ch.username, out.AuthenticationResult, out.ChallengeName, out.Session)
}

// handleAuthOutcome translates one provider round trip into the next
// step, persisting tokens on completion and challenge context otherwise.
func (c *Cognito) handleAuthOutcome(ctx context.Context, username string, result *cognitoidentityprovider.AuthenticationResultType, challengeName, sessionToken *string) (NextStep, error) {
	if result != nil {
		c.challenge = nil
		if err := c.persistTokens(ctx, username, result); err != nil {
			return NextStep{}, err
		}
		return NextStep{Step: StepDone}, nil
	}

	name := aws.StringValue(challengeName)
	ch := challenge{name: name, session: aws.StringValue(sessionToken), username: username}

	switch name {
	case cognitoidentityprovider.ChallengeNameTypeNewPasswordRequired:
		c.challenge = &ch
		return NextStep{Step: StepNewPasswordRequired}, nil

	case cognitoidentityprovider.ChallengeNameTypeSoftwareTokenMfa:
		c.challenge = &ch
		return NextStep{Step: StepTotpCode}, nil

	case cognitoidentityprovider.ChallengeNameTypeMfaSetup:
		assoc, err := c.client.AssociateSoftwareTokenWithContext(ctx, &cognitoidentityprovider.AssociateSoftwareTokenInput{
			Session: aws.String(ch.session),
		})
		if err != nil {
			return NextStep{}, rejected(err)
		}
		ch.session = aws.StringValue(assoc.Session)
		c.challenge = &ch
		return NextStep{
			Step:      StepTotpSetup,
			TotpSetup: &TotpSetup{SharedSecret: aws.StringValue(assoc.SecretCode)},
		}, nil

	default:
		c.challenge = nil
		c.logger.Warn("unrecognized sign-in challenge", "challenge", name)
		return NextStep{Step: SignInStep(name)}, nil
	}
}

func (c *Cognito) persistTokens(ctx context.Context, username string, result *cognitoidentityprovider.AuthenticationResultType) error {
	sess := consolesession.Session{
		Username:     username,
		AccessToken:  aws.StringValue(result.AccessToken),
		IDToken:      aws.StringValue(result.IdToken),
		RefreshToken: aws.StringValue(result.RefreshToken),
		ExpiresAt:    time.Now().Add(time.Duration(aws.Int64Value(result.ExpiresIn)) * time.Second),
	}

	// The access token's own exp claim is authoritative; the relative
	// ExpiresIn only stands in when the token cannot be inspected.
	if exp, err := consolesession.TokenExpiry(sess.AccessToken); err == nil {
		sess.ExpiresAt = exp
	}

	// The ID token carries the canonical email; prefer it over whatever
	// form the user typed at the prompt.
	if email, err := consolesession.TokenEmail(sess.IDToken); err == nil && email != "" {
		sess.Username = email
	}

	if err := c.store.Save(ctx, sess); err != nil {
		return fmt.Errorf("failed to persist session: %w", err)
	}
	return nil
}

func (c *Cognito) CurrentUser(ctx context.Context) (string, error) {
	sess, err := c.store.Load(ctx)
	if err != nil {
		if errors.Is(err, consolesession.ErrNoSession) {
			return "", ErrNotSignedIn
		}
		return "", err
	}

	// Expired tokens are rejected locally so a dead session never costs
	// a network round trip.
	if sess.Expired() {
		return "", ErrNotSignedIn
	}

	// The token still looks live; let the provider confirm it has not
	// been revoked.
	if _, err := c.client.GetUserWithContext(ctx, &cognitoidentityprovider.GetUserInput{
		AccessToken: aws.String(sess.AccessToken),
	}); err != nil {
		return "", rejected(err)
	}

	return sess.Username, nil
}

func (c *Cognito) ResetPassword(ctx context.Context, username string) error {
	_, err := c.client.ForgotPasswordWithContext(ctx, &cognitoidentityprovider.ForgotPasswordInput{
		ClientId: aws.String(c.clientID),
		Username: aws.String(username),
	})
	if err != nil {
		return rejected(err)
	}
	return nil
}

func (c *Cognito) ConfirmResetPassword(ctx context.Context, username, code, newPassword string) error {
	_, err := c.client.ConfirmForgotPasswordWithContext(ctx, &cognitoidentityprovider.ConfirmForgotPasswordInput{
		ClientId:         aws.String(c.clientID),
		Username:         aws.String(username),
		ConfirmationCode: aws.String(code),
		Password:         aws.String(newPassword),
	})
	if err != nil {
		return rejected(err)
	}
	return nil
}

func (c *Cognito) SignOut(ctx context.Context) error {
	c.challenge = nil

	sess, err := c.store.Load(ctx)
	if err != nil {
		if errors.Is(err, consolesession.ErrNoSession) {
			return nil
		}
		return err
	}

	// Remote revocation is best effort; the local wipe happens regardless
	// so sign-out always leaves the console unauthenticated.
	if _, err := c.client.GlobalSignOutWithContext(ctx, &cognitoidentityprovider.GlobalSignOutInput{
		AccessToken: aws.String(sess.AccessToken),
	}); err != nil {
		c.logger.Warn("remote sign-out failed, clearing local session anyway", "error", err)
	}

	return c.store.Clear(ctx)
}

// rejected converts an AWS API error into a RejectedError so callers can
// branch on provider codes without importing the SDK.
func rejected(err error) error {
	var aerr awserr.Error
	if errors.As(err, &aerr) {
		return &RejectedError{Code: aerr.Code(), Message: aerr.Message()}
	}
	return err
}
