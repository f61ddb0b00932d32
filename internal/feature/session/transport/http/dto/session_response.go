package dto

// SessionResponse is returned by POST /sessions.
type SessionResponse struct {
	Token     string  `json:"token"`
	SessionID string  `json:"session_id"`
	Balance   float64 `json:"balance"`
	ExpiresAt string  `json:"expires_at"`
}
