package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/service/cognitoidentityprovider"
	"github.com/aws/aws-sdk-go/service/cognitoidentityprovider/cognitoidentityprovideriface"
)

// ErrInvalidUsername reports an empty username in a reset request.
var ErrInvalidUsername = errors.New("missing 'username' in request body")

// ResetService forces a password reset for a user whose temporary password
// has expired. The identity provider refuses self-service reset in that
// state, so the console escalates here and this service performs the reset
// with administrative credentials.
type ResetService struct {
	Client     cognitoidentityprovideriface.CognitoIdentityProviderAPI
	UserPoolID string
	Logger     *slog.Logger
}

// ResetExpiredPassword puts the user back into the self-service reset path.
// After this succeeds the user can request a verification code normally.
func (s *ResetService) ResetExpiredPassword(ctx context.Context, username string) error {
	username = strings.TrimSpace(username)
	if username == "" {
		return ErrInvalidUsername
	}

	_, err := s.Client.AdminResetUserPasswordWithContext(ctx, &cognitoidentityprovider.AdminResetUserPasswordInput{
		UserPoolId: aws.String(s.UserPoolID),
		Username:   aws.String(username),
	})
	if err != nil {
		return fmt.Errorf("admin reset password: %w", err)
	}

	if s.Logger != nil {
		s.Logger.Info("expired password reset", "username", username)
	}
	return nil
}
