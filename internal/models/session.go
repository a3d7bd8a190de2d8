package models

import "time"

// Session is one row of the server-side validity registry for externally
// issued tokens, keyed by the token's jti claim. The role is a snapshot
// taken at issuance and stays frozen until the session is re-issued.
type Session struct {
	TokenJTI  string    `json:"token_jti"`
	UserID    string    `json:"user_id"`
	Role      string    `json:"role"`
	Subject   string    `json:"subject,omitempty"`
	IDToken   string    `json:"-"`
	IssuedAt  time.Time `json:"issued_at"`
	ExpiresAt time.Time `json:"expires_at"`
	CreatedAt time.Time `json:"created_at"`
}
