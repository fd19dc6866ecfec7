package api

// CreatePairingRequest is the body of POST /pairing.
type CreatePairingRequest struct {
	Color   string `json:"color"`
	Channel string `json:"channel"`
}

// CreatePairingResponse is the success body of POST /pairing.
type CreatePairingResponse struct {
	Code      string `json:"code"`
	ExpiresIn int    `json:"expires_in"`
}

// ClaimPairingRequest is the body of POST /pairing/claim.
type ClaimPairingRequest struct {
	Code    string `json:"code"`
	UserID  string `json:"user_id"`
	Channel string `json:"channel"`
}

// ClaimPairingResponse is the success body of POST /pairing/claim.
type ClaimPairingResponse struct {
	OK          bool   `json:"ok"`
	AvatarColor string `json:"avatar_color"`
}

// AvatarOut is the avatar payload nested in /me responses.
type AvatarOut struct {
	Color string `json:"color"`
}

// DevLoginRequest is the body of POST /auth/dev/login.
type DevLoginRequest struct {
	Display string `json:"display"`
	UserID  string `json:"user_id"`
}

// ErrorResponse is the uniform error body.
type ErrorResponse struct {
	Error string `json:"error"`
}
