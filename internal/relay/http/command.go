package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/aussiebroadwan/iothub/internal/relay/mqtt"
	"github.com/aussiebroadwan/iothub/internal/relay/secrets"
	"github.com/aussiebroadwan/iothub/internal/relay/service"
	"github.com/aussiebroadwan/iothub/pkg/httpx"
	"github.com/aussiebroadwan/iothub/pkg/relaysdk"
	"github.com/aussiebroadwan/iothub/pkg/slogx"
)

// CommandHandler relays device commands to the control broker.
type CommandHandler struct {
	RelayService *service.RelayService
}

// HandleSetLED handles POST /set-led
//
//	@Summary		Relay a device command
//	@Description	Validates the command request, resolves transport credentials from the
//	@Description	secret store and publishes the message to the control broker over TLS.
//	@Tags			Commands
//	@Accept			json
//	@Produce		json
//	@Param			request	body		relaysdk.CommandRequest		true	"Topic and message to publish"
//	@Success		200		{object}	relaysdk.CommandResponse	"Echo of the published command"
//	@Failure		400		{object}	relaysdk.ErrorResponse		"Malformed or incomplete request"
//	@Failure		500		{object}	relaysdk.ErrorResponse		"Secret resolution or publish failure"
//	@Router			/set-led [post].
func (h *CommandHandler) HandleSetLED(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	var req relaysdk.CommandRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Warn("failed to parse command request", "err", err)
		httpx.WriteError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	published, err := h.RelayService.Relay(ctx, service.CommandRequest{
		Topic:   req.Topic,
		Message: req.Message,
	})
	if err != nil {
		writeRelayError(w, log, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, relaysdk.CommandResponse{
		Published: relaysdk.PublishedResult{
			Topic:   published.Topic,
			Message: published.Message,
		},
	})
}

// writeRelayError collapses relay failures into the uniform error body.
// Validation failures are the caller's fault; everything downstream of
// validation is a 500 with a human-readable summary.
func writeRelayError(w http.ResponseWriter, log *slog.Logger, err error) {
	switch {
	case errors.Is(err, service.ErrInvalidRequest):
		log.Warn("command request rejected", "err", err)
		httpx.WriteError(w, http.StatusBadRequest, service.ErrInvalidRequest.Error())
	case errors.Is(err, secrets.ErrSecretUnavailable):
		log.Error("secret resolution failed", "err", err)
		httpx.WriteError(w, http.StatusInternalServerError, "secret resolution failed")
	case errors.Is(err, mqtt.ErrConnectFailed):
		log.Error("broker connect failed", "err", err)
		httpx.WriteError(w, http.StatusInternalServerError, "MQTT connect failed")
	case errors.Is(err, mqtt.ErrPublishFailed):
		log.Error("broker publish failed", "err", err)
		httpx.WriteError(w, http.StatusInternalServerError, "MQTT publish failed")
	default:
		log.Error("relay failed", "err", err)
		httpx.WriteError(w, http.StatusInternalServerError, "command relay failed")
	}
}
