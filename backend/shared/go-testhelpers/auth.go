package testhelpers

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
)

// CreateJWT signs a 15 minute access token for subject.
func (h *TestHelper) CreateJWT(subject string) string {
	now := time.Now().Unix()
	return h.SignClaims(jwt.MapClaims{
		"iss": h.Issuer,
		"sub": subject,
		"iat": now,
		"exp": now + 15*60,
	})
}

// CreateExpiredJWT signs a token that expired a minute ago.
func (h *TestHelper) CreateExpiredJWT(subject string) string {
	now := time.Now().Unix()
	return h.SignClaims(jwt.MapClaims{
		"iss": h.Issuer,
		"sub": subject,
		"iat": now - 16*60,
		"exp": now - 60,
	})
}

func (h *TestHelper) SignClaims(claims jwt.MapClaims) string {
	token := jwt.NewWithClaims(jwt.SigningMethodRS256, claims)
	signed, err := token.SignedString(h.PrivateKey)
	require.NoError(h.T, err, "Failed to sign test JWT")
	return signed
}
