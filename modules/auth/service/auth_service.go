package service

import (
	"context"
	"time"

	"shiftboard-api/core/cache"
	"shiftboard-api/core/errors"
	"shiftboard-api/core/logger"
	"shiftboard-api/core/utils"
)

// AuthService covers the session surface this API owns: tokens are
// issued elsewhere, so the only operation is revoking one on logout.
type AuthService struct {
	cache cache.Cache
}

func NewAuthService(c cache.Cache) *AuthService {
	return &AuthService{cache: c}
}

// Logout blacklists the presented token for its remaining lifetime so
// the auth middleware rejects it from now on. An already expired token
// has nothing left to revoke.
func (s *AuthService) Logout(ctx context.Context, token string, claims *utils.TokenClaims) *errors.AppError {
	if claims.ExpiresAt == nil {
		return nil
	}
	ttl := time.Until(claims.ExpiresAt.Time)
	if ttl <= 0 {
		return nil
	}

	if err := s.cache.AddToTokenBlacklist(ctx, token, ttl); err != nil {
		logger.Error("AuthService:Logout:AddToTokenBlacklist:Error:", err)
		return errors.NewAppError(errors.ErrInternalServer, "failed to revoke token", err)
	}
	return nil
}
