package utils

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// MintExternalToken creates the opaque credential handed to the browser
// extension. It is a signed JWT so a leaked token is at least attributable,
// but the server resolves it by table lookup, not by validating claims.
func MintExternalToken(secret, userID string) (string, error) {
	claims := jwt.RegisteredClaims{
		Issuer:   "mistakebook",
		Subject:  userID,
		IssuedAt: jwt.NewNumericDate(time.Now()),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}
