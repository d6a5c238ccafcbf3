package tokens

import (
	"github.com/golang-jwt/jwt/v5"
)

// AccessClaims is the payload of a short-lived access token. Role and
// email are a snapshot at issuance; authorization re-reads the current
// role from the database.
type AccessClaims struct {
	Email string `json:"email"`
	Role  string `json:"role"`
	jwt.RegisteredClaims
}

// RefreshClaims carries only the subject and a JTI used to look the
// token up in the database for rotation and revocation.
type RefreshClaims struct {
	jwt.RegisteredClaims
}
