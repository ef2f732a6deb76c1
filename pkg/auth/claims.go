package auth

import (
	"github.com/golang-jwt/jwt/v5"
)

// AccessTokenPayload captures the data available when minting a JWT.
type AccessTokenPayload struct {
	Subject string
	Name    string
	Email   string
	Kiosk   string
	JTI     string
}

// AccessTokenClaims represents the typed JWT issued to clients.
type AccessTokenClaims struct {
	Name  string `json:"name,omitempty"`
	Email string `json:"email,omitempty"`
	Kiosk string `json:"kiosk,omitempty"`
	jwt.RegisteredClaims
}
