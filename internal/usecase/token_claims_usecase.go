package usecase

import (
	"context"
	"time"

	"talkie/internal/domain/entity"
	"talkie/internal/domain/repository"
	"talkie/pkg/logger"
)

// refreshMarkerLead is how far in the future the refresh marker is stamped;
// clients watching it force a token refresh when the marker is still ahead
// of their clock.
const refreshMarkerLead = 3 * time.Minute

// TokenClaimsUseCase keeps the username auth claim synchronized with the
// profile document and signals clients when to refresh their tokens.
type TokenClaimsUseCase struct {
	userRepo repository.UserRepository
	claims   ClaimsSetter
}

func NewTokenClaimsUseCase(userRepo repository.UserRepository, claims ClaimsSetter) *TokenClaimsUseCase {
	return &TokenClaimsUseCase{
		userRepo: userRepo,
		claims:   claims,
	}
}

// BeforeSignIn resolves the claims to attach to a signing-in credential. A
// missing profile attaches no claims but never fails the sign-in.
func (uc *TokenClaimsUseCase) BeforeSignIn(ctx context.Context, uid string) map[string]interface{} {
	if uid == "" {
		logger.Debug("No uid provided to pre-signin hook")
		return nil
	}

	user, err := uc.userRepo.GetByUID(ctx, uid)
	if err != nil {
		logger.Info("No username found for uid %s", uid)
		return nil
	}

	return map[string]interface{}{
		"username": user.Username,
	}
}

// OnUserWritten propagates a username change on the profile document into the
// auth account's custom claims and stamps the refresh marker. A claims-set
// failure is logged but must not prevent the marker write; the client-visible
// signal should still fire.
func (uc *TokenClaimsUseCase) OnUserWritten(ctx context.Context, username string, before, after *entity.User) {
	if after == nil {
		if err := uc.userRepo.DeleteRefreshMarker(ctx, username); err != nil {
			logger.Error("Failed to remove refresh marker for deleted user %s: %v", username, err)
			return
		}
		logger.Info("User deleted, removed refresh marker for %s", username)
		return
	}

	if before != nil && before.Username == after.Username {
		logger.Debug("Username unchanged for %s, skipping", username)
		return
	}

	if after.UID == "" {
		logger.Warn("No uid associated with user %s", username)
		return
	}

	if err := uc.claims.SetCustomClaims(ctx, after.UID, map[string]interface{}{
		"username": username,
	}); err != nil {
		logger.Error("Failed to set custom claims for user %s: %v", after.UID, err)
	}

	if err := uc.userRepo.SetRefreshMarker(ctx, username, time.Now().Add(refreshMarkerLead)); err != nil {
		logger.Error("Failed to set refresh marker for %s: %v", username, err)
	}
}
