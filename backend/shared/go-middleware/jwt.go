package middleware

import (
	"context"
	"crypto/rsa"
	"encoding/base64"
	"errors"
	"fmt"

	"github.com/golang-jwt/jwt/v5"
)

// DefaultTokenIssuer is the issuer expected when none is configured.
const DefaultTokenIssuer = "Shiftly"

// ValidateToken checks the token's RS256 signature and its standard claims
// (exp, iss). Any deviation returns a descriptive error.
func ValidateToken(
	ctx context.Context,
	tokenString string,
	publicKey *rsa.PublicKey,
	issuer string,
) (*jwt.Token, error) {
	if publicKey == nil {
		return nil, errors.New("no public key configured")
	}
	if issuer == "" {
		issuer = DefaultTokenIssuer
	}

	token, err := jwt.Parse(
		tokenString,
		func(token *jwt.Token) (any, error) {
			if _, ok := token.Method.(*jwt.SigningMethodRSA); !ok {
				return nil, errors.New("unexpected signing method")
			}
			return publicKey, nil
		},
		jwt.WithExpirationRequired(),
		jwt.WithIssuer(issuer),
	)
	if err != nil {
		return nil, err
	}
	if !token.Valid {
		return nil, errors.New("invalid token claims")
	}
	return token, nil
}

// ParseRSAPublicKeyBase64 decodes a base64-wrapped PEM block holding either
// a PKIX or a PKCS#1 RSA public key.
func ParseRSAPublicKeyBase64(encoded string) (*rsa.PublicKey, error) {
	raw, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, fmt.Errorf("decoding public key: %w", err)
	}
	return jwt.ParseRSAPublicKeyFromPEM(raw)
}
