package auth

import (
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// AccessTokenPayload captures the data the host platform embeds when minting
// a bearer token for this service.
type AccessTokenPayload struct {
	UserID        uuid.UUID
	CorporationID int64
	CharacterName string
	JTI           string
}

// AccessTokenClaims represents the typed JWT issued by the host platform.
type AccessTokenClaims struct {
	UserID        uuid.UUID `json:"user_id"`
	CorporationID int64     `json:"corporation_id"`
	CharacterName string    `json:"character_name,omitempty"`
	jwt.RegisteredClaims
}
