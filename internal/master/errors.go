package master

// DisconnectReason is the error taxonomy. Each value maps to a
// transport-level disconnect reason string and, for rendezvous
// rejections, doubles as the rejection payload.
type DisconnectReason string

const (
	ReasonBadVersion      DisconnectReason = "BadVersion"
	ReasonDuplicateID     DisconnectReason = "DuplicateId"
	ReasonBadLogin        DisconnectReason = "BadLogin"
	ReasonInvalidUsername DisconnectReason = "InvalidUsername"
	ReasonFloodControl    DisconnectReason = "FloodControl"
	ReasonNoSuchHost      DisconnectReason = "NoSuchHost"
	ReasonRequestTimedOut DisconnectReason = "MasterRequestTimedOut"
)

// AuthStatus is the outcome of verifying a client's credentials, returned
// by a CredentialVerifier and consumed by the AuthTask finish handler.
type AuthStatus int

const (
	AuthUnknownStatus AuthStatus = iota
	AuthAuthenticated
	AuthCantConnect
	AuthUnknownUser
	AuthWrongPassword
	AuthInvalidUsername
	AuthUnsupported
)

func (s AuthStatus) String() string {
	switch s {
	case AuthAuthenticated:
		return "Authenticated"
	case AuthCantConnect:
		return "CantConnect"
	case AuthUnknownUser:
		return "UnknownUser"
	case AuthWrongPassword:
		return "WrongPassword"
	case AuthInvalidUsername:
		return "InvalidUsername"
	case AuthUnsupported:
		return "Unsupported"
	default:
		return "UnknownStatus"
	}
}

// SetAuthenticatedStatus is the three-valued status carried on the wire by
// SetAuthenticated/_019, distinct from the richer AuthStatus used between
// the worker task and its finish handler.
type SetAuthenticatedStatus int

const (
	AuthenticatedName SetAuthenticatedStatus = iota
	UnauthenticatedName
	AuthenticatedFailed
)
