package secrets

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/ssm"
	"github.com/aws/aws-sdk-go/service/ssm/ssmiface"
)

// ParameterStore resolves secrets from AWS SSM Parameter Store,
// decrypting SecureString values on read.
type ParameterStore struct {
	client ssmiface.SSMAPI
}

// NewParameterStore builds a ParameterStore on the given AWS session.
func NewParameterStore(sess *session.Session) *ParameterStore {
	return &ParameterStore{client: ssm.New(sess)}
}

// NewParameterStoreWithClient is used by tests to substitute the SSM client.
func NewParameterStoreWithClient(client ssmiface.SSMAPI) *ParameterStore {
	return &ParameterStore{client: client}
}

func (p *ParameterStore) Resolve(ctx context.Context, name string) (string, error) {
	out, err := p.client.GetParameterWithContext(ctx, &ssm.GetParameterInput{
		Name:           aws.String(name),
		WithDecryption: aws.Bool(true),
	})
	if err != nil {
		return "", fmt.Errorf("%w: get parameter %q: %v", ErrSecretUnavailable, name, err)
	}
	if out.Parameter == nil || aws.StringValue(out.Parameter.Value) == "" {
		return "", fmt.Errorf("%w: parameter %q has no value", ErrSecretUnavailable, name)
	}
	return aws.StringValue(out.Parameter.Value), nil
}
