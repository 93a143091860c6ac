// Package relaysdk holds the wire types of the IoT Hub relay API and a
// small HTTP client for them. The server handlers and the console share
// these types so the contract lives in one place.
package relaysdk

// CommandRequest asks the relay to publish one device command.
type CommandRequest struct {
	Topic   string `json:"topic"`
	Message string `json:"message"`
}

// PublishedResult echoes the command the broker accepted.
type PublishedResult struct {
	Topic   string `json:"topic"`
	Message string `json:"message"`
}

// CommandResponse is the success body of POST /set-led.
type CommandResponse struct {
	Published PublishedResult `json:"published"`
}

// ResetRequest asks the relay to force-reset an expired temporary password.
type ResetRequest struct {
	Username string `json:"username"`
}

// ResetResult echoes the username whose password was reset.
type ResetResult struct {
	Username string `json:"username"`
}

// ResetResponse is the success body of POST /reset-expired-password.
type ResetResponse struct {
	Reset ResetResult `json:"reset"`
}

// ErrorResponse is the uniform failure body of every relay endpoint.
type ErrorResponse struct {
	Error string `json:"error"`
}

// HealthResponse reports service health for /livez and /readyz.
type HealthResponse struct {
	Status  string        `json:"status"`
	Uptime  string        `json:"uptime"`
	Version string        `json:"version"`
	Checks  *HealthChecks `json:"checks,omitempty"`
}

// HealthChecks carries per-dependency readiness detail.
type HealthChecks struct {
	SecretStore string `json:"secret_store"`
}
