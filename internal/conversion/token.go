package conversion

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const tokenAudience = "pdf-conversion"

var (
	ErrInvalidToken = errors.New("invalid conversion token")
	errNoSecret     = errors.New("conversion secret is not configured")
)

type callbackClaims struct {
	AttachmentID string `json:"attachment_id"`
	jwt.RegisteredClaims
}

// signCallback produces the opaque value the conversion server hands back
// with the converted file.
func signCallback(secret string, id uuid.UUID, ttl time.Duration, now time.Time) (string, error) {
	if secret == "" {
		return "", errNoSecret
	}
	claims := callbackClaims{
		AttachmentID: id.String(),
		RegisteredClaims: jwt.RegisteredClaims{
			Audience:  jwt.ClaimStrings{tokenAudience},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
}

func parseCallback(secret, token string) (uuid.UUID, error) {
	if secret == "" {
		return uuid.Nil, fmt.Errorf("%w: %v", ErrInvalidToken, errNoSecret)
	}
	var claims callbackClaims
	_, err := jwt.ParseWithClaims(token, &claims, func(t *jwt.Token) (interface{}, error) {
		return []byte(secret), nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithAudience(tokenAudience),
	)
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	id, err := uuid.Parse(claims.AttachmentID)
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	return id, nil
}
