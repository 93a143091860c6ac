package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/aussiebroadwan/iothub/internal/relay/service"
	"github.com/aussiebroadwan/iothub/pkg/httpx"
	"github.com/aussiebroadwan/iothub/pkg/relaysdk"
	"github.com/aussiebroadwan/iothub/pkg/slogx"
)

// ResetHandler hosts the escalation endpoint the console calls when a
// temporary password has expired and self-service reset is refused.
type ResetHandler struct {
	ResetService *service.ResetService
}

// HandleReset handles POST /reset-expired-password
//
//	@Summary		Force-reset an expired temporary password
//	@Description	Resets the user's password through the identity provider's admin API so
//	@Description	the self-service reset flow becomes available again.
//	@Tags			Identity
//	@Accept			json
//	@Produce		json
//	@Param			request	body		relaysdk.ResetRequest	true	"Username to reset"
//	@Success		200		{object}	relaysdk.ResetResponse	"Echo of the reset username"
//	@Failure		400		{object}	relaysdk.ErrorResponse	"Malformed or incomplete request"
//	@Failure		500		{object}	relaysdk.ErrorResponse	"Identity provider rejected the reset"
//	@Router			/reset-expired-password [post].
func (h *ResetHandler) HandleReset(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	var req relaysdk.ResetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Warn("failed to parse reset request", "err", err)
		httpx.WriteError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	if err := h.ResetService.ResetExpiredPassword(ctx, req.Username); err != nil {
		if errors.Is(err, service.ErrInvalidUsername) {
			log.Warn("reset request rejected", "err", err)
			httpx.WriteError(w, http.StatusBadRequest, service.ErrInvalidUsername.Error())
			return
		}
		log.Error("admin reset failed", "username", req.Username, "err", err)
		httpx.WriteError(w, http.StatusInternalServerError, "password reset failed")
		return
	}

	httpx.WriteJSON(w, http.StatusOK, relaysdk.ResetResponse{
		Reset: relaysdk.ResetResult{Username: req.Username},
	})
}
