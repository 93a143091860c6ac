package http

import (
	"net/http"
	"time"

	"github.com/aussiebroadwan/iothub/internal/relay/secrets"
	"github.com/aussiebroadwan/iothub/pkg/httpx"
	"github.com/aussiebroadwan/iothub/pkg/relaysdk"
)

// ReadyzHandler godoc
//
//	@Summary		Readiness Check Endpoint
//	@Description	Readiness probe endpoint returning service health status and checks for critical dependencies
//	@Description	Verifies the secret store by resolving the broker host parameter
//	@Tags			Health
//	@Produce		json
//	@Success		200	{object}	relaysdk.HealthResponse	"status, uptime, version, checks"
//	@Failure		503	{object}	relaysdk.HealthResponse	"status, uptime, version, checks - service not ready"
//	@Router			/readyz [get].
func ReadyzHandler(
	startTime time.Time,
	version string,
	source secrets.Source,
	brokerParam string,
) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		checks := &relaysdk.HealthChecks{
			SecretStore: "ok",
		}
		overallStatus := "ok"
		statusCode := http.StatusOK

		// Resolving the broker host doubles as a reachability check for the
		// secret store; the value itself is discarded.
		if _, err := source.Resolve(r.Context(), brokerParam); err != nil {
			checks.SecretStore = "error: " + err.Error()
			overallStatus = "degraded"
			statusCode = http.StatusServiceUnavailable
		}

		httpx.WriteJSON(w, statusCode, relaysdk.HealthResponse{
			Status:  overallStatus,
			Uptime:  time.Since(startTime).String(),
			Version: version,
			Checks:  checks,
		})
	}
}
