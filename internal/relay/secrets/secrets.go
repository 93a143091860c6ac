// Package secrets resolves transport credentials from an external secret
// store. Values are fetched per invocation and never cached, so a rotated
// broker credential takes effect on the next relay request.
package secrets

import (
	"context"
	"errors"
)

// ErrSecretUnavailable reports that the store returned no value for a
// parameter, or could not be reached at all.
var ErrSecretUnavailable = errors.New("secret unavailable")

// Source resolves a named secret, decrypted.
type Source interface {
	Resolve(ctx context.Context, name string) (string, error)
}

// SourceFunc adapts a function to the Source interface.
type SourceFunc func(ctx context.Context, name string) (string, error)

func (f SourceFunc) Resolve(ctx context.Context, name string) (string, error) {
	return f(ctx, name)
}

// Static is a fixed name-to-value Source, used by tests and local runs.
type Static map[string]string

func (s Static) Resolve(_ context.Context, name string) (string, error) {
	v, ok := s[name]
	if !ok || v == "" {
		return "", ErrSecretUnavailable
	}
	return v, nil
}
