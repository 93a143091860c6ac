package flow

import (
	"encoding/base32"
	"errors"
	"fmt"
	"strings"

	"github.com/aussiebroadwan/iothub/internal/console/provider"
	"github.com/pquerna/otp"
	"github.com/pquerna/otp/totp"
)

// Enrollment is a live TOTP enrollment: the otpauth URI to provision an
// authenticator app with, and the shared secret it encodes for manual
// entry. It exists only while setup is in progress and is destroyed on
// verification or abandonment.
type Enrollment struct {
	URI          string
	SharedSecret string
}

// newEnrollment derives the provisioning URI from the provider's
// base32-encoded shared secret, labelled with the issuer and account.
func newEnrollment(issuer, username string, setup *provider.TotpSetup) (*Enrollment, error) {
	if setup == nil || setup.SharedSecret == "" {
		return nil, errors.New("provider returned no enrollment secret")
	}

	secret := strings.ToUpper(strings.TrimRight(setup.SharedSecret, "="))
	raw, err := base32.StdEncoding.WithPadding(base32.NoPadding).DecodeString(secret)
	if err != nil {
		return nil, fmt.Errorf("failed to decode enrollment secret: %w", err)
	}

	key, err := totp.Generate(totp.GenerateOpts{
		Issuer:      issuer,
		AccountName: username,
		Secret:      raw,
		Period:      30,
		Digits:      otp.DigitsSix,
		Algorithm:   otp.AlgorithmSHA1,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to build enrollment URI: %w", err)
	}

	return &Enrollment{
		URI:          key.URL(),
		SharedSecret: key.Secret(),
	}, nil
}
