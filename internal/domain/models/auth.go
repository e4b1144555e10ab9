package models

import "github.com/golang-jwt/jwt/v5"

// Claims is the JWT claims set accepted by the API.
// Any issuer publishing a JWKS works; the subject identifies the editor.
type Claims struct {
	jwt.RegisteredClaims        // Standard JWT claims (sub, iss, aud, exp, iat, etc.)
	Email                string `json:"email,omitempty"`
	Role                 string `json:"role,omitempty"`
}

// GetUserID returns the user ID from the JWT subject claim.
func (c *Claims) GetUserID() string {
	return c.Subject
}
