package services

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/akinalp/lectern/config"
	"github.com/akinalp/lectern/models"
	"github.com/akinalp/lectern/pkg"
)

const tokenIssuer = "lectern"

// TokenPolicy sets how access and refresh tokens are signed and how long
// they live, plus the bcrypt cost for stored passwords.
type TokenPolicy struct {
	Secret     string
	AccessTTL  time.Duration
	RefreshTTL time.Duration
	// PasswordCost of zero means DefaultPasswordCost.
	PasswordCost int
}

func TokenPolicyFromConfig(cfg config.JWTConfig) TokenPolicy {
	return TokenPolicy{
		Secret:     cfg.Secret,
		AccessTTL:  time.Duration(cfg.AccessTokenExpiry) * time.Minute,
		RefreshTTL: time.Duration(cfg.RefreshTokenExpiry) * 24 * time.Hour,
	}
}

// accessSigner issues and verifies HS256 access tokens.
type accessSigner struct {
	key    []byte
	ttl    time.Duration
	parser *jwt.Parser
}

func newAccessSigner(secret string, ttl time.Duration) *accessSigner {
	return &accessSigner{
		key: []byte(secret),
		ttl: ttl,
		parser: jwt.NewParser(
			jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
			jwt.WithIssuer(tokenIssuer),
			jwt.WithExpirationRequired(),
		),
	}
}

func (a *accessSigner) sign(user *models.User, now time.Time) (string, error) {
	claims := &models.TokenClaims{
		UserID:   user.ID,
		Username: user.Username,
		Role:     user.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    tokenIssuer,
			Subject:   user.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(a.ttl)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(a.key)
	if err != nil {
		return "", fmt.Errorf("failed to sign access token: %w", err)
	}
	return signed, nil
}

func (a *accessSigner) verify(raw string) (*models.TokenClaims, error) {
	claims := &models.TokenClaims{}
	if _, err := a.parser.ParseWithClaims(raw, claims, func(*jwt.Token) (any, error) {
		return a.key, nil
	}); err != nil {
		return nil, fmt.Errorf("%w: invalid token", pkg.ErrUnauthorized)
	}
	return claims, nil
}

// opaqueToken returns n random bytes hex encoded. Opaque tokens are handed
// to clients; only their hashToken digest is stored.
func opaqueToken(n int) (string, error) {
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}

func hashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}
