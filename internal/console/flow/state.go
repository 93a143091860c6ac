package flow

// State is the console's authentication state. Exactly one value is
// current at any time; every transition goes through the dispatcher so
// the active screen can never be two things at once.
type State string

const (
	// StateUnknown holds until the startup session probe resolves.
	StateUnknown State = "unknown"

	StateUnauthenticated State = "unauthenticated"
	StateAuthenticated   State = "authenticated"

	StateNewPasswordRequired      State = "new_password_required"
	StatePasswordResetInProgress  State = "password_reset_in_progress"
	StateTotpSetupRequired        State = "totp_setup_required"
	StateTotpVerificationRequired State = "totp_verification_required"
)

func (s State) String() string { return string(s) }
