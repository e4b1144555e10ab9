package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"statusboard/internal/domain"
	"statusboard/internal/domain/models"

	"github.com/MicahParks/keyfunc/v3"
	"github.com/golang-jwt/jwt/v5"
)

// KeySetVerifier implements JWTVerifier against a set of public keys.
type KeySetVerifier struct {
	keyFunc      jwt.Keyfunc
	requiredRole string
	logger       *slog.Logger
}

// NewJWTVerifier creates a verifier that fetches public keys from a JWKS endpoint.
// The keys are cached and refreshed based on HTTP cache headers.
// When requiredRole is set, tokens must carry that role claim.
func NewJWTVerifier(ctx context.Context, jwksURL, requiredRole string, logger *slog.Logger) (JWTVerifier, error) {
	if jwksURL == "" {
		return nil, errors.New("JWKS URL cannot be empty")
	}

	jwks, err := keyfunc.NewDefaultCtx(ctx, []string{jwksURL})
	if err != nil {
		return nil, fmt.Errorf("failed to create JWKS client: %w", err)
	}

	logger.Info("JWT verifier initialized", "jwks_url", jwksURL)
	return NewKeyfuncVerifier(jwks.Keyfunc, requiredRole, logger), nil
}

// NewKeyfuncVerifier creates a verifier from an arbitrary key lookup
func NewKeyfuncVerifier(keyFunc jwt.Keyfunc, requiredRole string, logger *slog.Logger) *KeySetVerifier {
	return &KeySetVerifier{
		keyFunc:      keyFunc,
		requiredRole: requiredRole,
		logger:       logger,
	}
}

// VerifyToken validates a JWT token and extracts its claims.
// Returns domain.ErrUnauthorized for any invalid token.
func (v *KeySetVerifier) VerifyToken(tokenString string) (*models.Claims, error) {
	// Prevent algorithm confusion attacks - allow only RS256 or ES256
	token, err := jwt.ParseWithClaims(tokenString, &models.Claims{}, v.keyFunc,
		jwt.WithValidMethods([]string{"RS256", "ES256"}),
	)
	if err != nil {
		v.logger.Debug("token parse failed", "error", err.Error())
		return nil, domain.ErrUnauthorized
	}
	if !token.Valid {
		return nil, domain.ErrUnauthorized
	}

	claims, ok := token.Claims.(*models.Claims)
	if !ok {
		v.logger.Error("failed to extract claims from token")
		return nil, domain.ErrUnauthorized
	}

	if claims.Subject == "" {
		v.logger.Debug("token missing subject claim")
		return nil, domain.ErrUnauthorized
	}

	if v.requiredRole != "" && claims.Role != v.requiredRole {
		v.logger.Warn("token has invalid role",
			"role", claims.Role,
			"expected", v.requiredRole,
			"user_id", claims.Subject,
		)
		return nil, domain.ErrUnauthorized
	}

	return claims, nil
}

// Close is a no-op: keyfunc v3 manages its own refresh goroutine via the context.
func (v *KeySetVerifier) Close() error {
	v.logger.Info("JWT verifier closed")
	return nil
}
