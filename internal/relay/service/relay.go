package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/aussiebroadwan/iothub/internal/relay/mqtt"
	"github.com/aussiebroadwan/iothub/internal/relay/secrets"
)

// ErrInvalidRequest reports a command request that failed local validation.
// Invalid requests never reach the secret store or the broker.
var ErrInvalidRequest = errors.New("missing 'topic' or 'message' in request body")

// CommandRequest is one device command to relay. Both fields are required.
type CommandRequest struct {
	Topic   string `json:"topic"`
	Message string `json:"message"`
}

// Published echoes what was accepted by the broker.
type Published struct {
	Topic   string `json:"topic"`
	Message string `json:"message"`
}

// SecretNames holds the store parameter names for the transport credentials.
type SecretNames struct {
	BrokerHost string
	Username   string
	Password   string
}

// RelayService turns one validated command request into one published
// broker message. It is single-shot and per-request: every invocation
// resolves its own secrets and owns its own transport session, so
// concurrent invocations share no mutable state.
type RelayService struct {
	Secrets   secrets.Source
	Publisher mqtt.Publisher
	Names     SecretNames
	Logger    *slog.Logger
}

// Relay validates req, resolves the transport secrets and publishes the
// command. Any failure after validation is returned wrapped so the HTTP
// layer can collapse it into a uniform failure response.
func (s *RelayService) Relay(ctx context.Context, req CommandRequest) (Published, error) {
	if req.Topic == "" || req.Message == "" {
		return Published{}, ErrInvalidRequest
	}

	host, err := s.Secrets.Resolve(ctx, s.Names.BrokerHost)
	if err != nil {
		return Published{}, fmt.Errorf("resolve broker host: %w", err)
	}
	username, err := s.Secrets.Resolve(ctx, s.Names.Username)
	if err != nil {
		return Published{}, fmt.Errorf("resolve transport username: %w", err)
	}
	password, err := s.Secrets.Resolve(ctx, s.Names.Password)
	if err != nil {
		return Published{}, fmt.Errorf("resolve transport password: %w", err)
	}

	conn := mqtt.Connection{Host: host, Username: username, Password: password}
	if err := s.Publisher.Publish(ctx, conn, req.Topic, req.Message); err != nil {
		return Published{}, fmt.Errorf("publish command: %w", err)
	}

	if s.Logger != nil {
		s.Logger.Info("command relayed", "topic", req.Topic)
	}
	return Published{Topic: req.Topic, Message: req.Message}, nil
}
