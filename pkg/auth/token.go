package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/fashionmart/fashionmart-backend/pkg/config"
	"github.com/fashionmart/fashionmart-backend/pkg/enums"
)

var (
	errSecretRequired = errors.New("jwt secret is required")
	errInvalidClaims  = errors.New("invalid token claims")
)

// AccessClaims carries the identity and role encoded in a bearer token.
type AccessClaims struct {
	UserID uuid.UUID  `json:"uid"`
	Role   enums.Role `json:"role"`
	jwt.RegisteredClaims
}

// NewAccessToken mints a signed access token for the given user and role.
func NewAccessToken(cfg config.JWTConfig, userID uuid.UUID, role enums.Role) (string, error) {
	if cfg.Secret == "" {
		return "", errSecretRequired
	}

	now := time.Now()
	claims := AccessClaims{
		UserID: userID,
		Role:   role,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Issuer:    cfg.Issuer,
			Subject:   userID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(cfg.Expiration())),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(cfg.Secret))
	if err != nil {
		return "", fmt.Errorf("signing token: %w", err)
	}
	return signed, nil
}

// ParseAccessToken verifies the signature, issuer and expiry of a bearer token
// and returns its claims.
func ParseAccessToken(cfg config.JWTConfig, raw string) (*AccessClaims, error) {
	if cfg.Secret == "" {
		return nil, errSecretRequired
	}

	claims := &AccessClaims{}
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
	}
	if cfg.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(cfg.Issuer))
	}

	token, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (any, error) {
		return []byte(cfg.Secret), nil
	}, opts...)
	if err != nil {
		return nil, fmt.Errorf("parsing token: %w", err)
	}
	if !token.Valid {
		return nil, errInvalidClaims
	}
	if claims.UserID == uuid.Nil {
		return nil, errInvalidClaims
	}
	if !claims.Role.IsValid() {
		return nil, errInvalidClaims
	}
	return claims, nil
}
