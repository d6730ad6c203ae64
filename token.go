package authclient

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// CredentialExpired reports whether a stored credential is a JWT whose exp
// already passed. The signature is NOT checked; the server stays the
// authority on validity. This only lets startup skip a round trip that is
// guaranteed to fail and clear the dead credential immediately.
//
// Opaque credentials, malformed tokens, and tokens without exp all report
// false and go to the network as usual.
func CredentialExpired(credential string, now time.Time) bool {
	if credential == "" {
		return false
	}

	parser := jwt.NewParser()
	token, _, err := parser.ParseUnverified(credential, jwt.MapClaims{})
	if err != nil {
		return false
	}

	expires, err := token.Claims.GetExpirationTime()
	if err != nil || expires == nil {
		return false
	}

	return expires.Before(now)
}
