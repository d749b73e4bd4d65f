package usecase

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/shandysiswandi/otpify/internal/account/entity"
	"github.com/shandysiswandi/otpify/internal/pkg/goerror"
)

const maxAPIKeyRetries = 3

func (s *Usecase) RegenerateAPIKey(ctx context.Context) (*UserOutput, error) {
	ctx, span := s.startSpan(ctx, "RegenerateAPIKey")
	defer span.End()

	user, err := s.currentUser(ctx)
	if err != nil {
		return nil, err
	}

	oldKey := user.APIKey
	for attempt := 1; ; attempt++ {
		newKey, err := s.newAPIKey()
		if err != nil {
			slog.ErrorContext(ctx, "failed to generate api key", "error", err)
			return nil, goerror.NewServer(err)
		}

		err = s.repoDB.UpdateAPIKey(ctx, user.ID, oldKey, newKey)
		if errors.Is(err, goerror.ErrConflict) && attempt < maxAPIKeyRetries {
			slog.WarnContext(ctx, "generated api key collided", "user_id", user.ID, "attempt", attempt)
			continue
		}
		if errors.Is(err, goerror.ErrNotFound) {
			return nil, goerror.NewBusiness("API key was changed by another request", goerror.CodeConflict)
		}
		if err != nil {
			slog.ErrorContext(ctx, "failed to repo update api key", "user_id", user.ID, "error", err)
			return nil, goerror.NewServer(err)
		}

		user.APIKey = newKey
		break
	}

	if err := s.repoCache.DeleteAPIKeyOwner(ctx, oldKey); err != nil {
		slog.ErrorContext(ctx, "failed to cache delete api key owner", "user_id", user.ID, "error", err)
	}

	return toUserOutput(user), nil
}

// ResolveAPIKey returns the active owner of key. Unknown and inactive keys
// are indistinguishable to the caller.
func (s *Usecase) ResolveAPIKey(ctx context.Context, key string) (*entity.APIKeyOwner, error) {
	ctx, span := s.startSpan(ctx, "ResolveAPIKey")
	defer span.End()

	key = strings.TrimSpace(key)
	if !entity.LooksLikeAPIKey(key) {
		return nil, goerror.NewBusiness("Invalid API Key", goerror.CodeUnauthorized)
	}

	owner, err := s.repoCache.GetAPIKeyOwner(ctx, key)
	if err != nil && !errors.Is(err, goerror.ErrNotFound) {
		slog.WarnContext(ctx, "failed to cache get api key owner", "error", err)
	}
	if err == nil && owner != nil {
		if !owner.IsActive {
			return nil, goerror.NewBusiness("Invalid API Key", goerror.CodeUnauthorized)
		}
		return owner, nil
	}

	user, err := s.repoDB.GetUserByAPIKey(ctx, key)
	if errors.Is(err, goerror.ErrNotFound) {
		slog.WarnContext(ctx, "unknown api key used")
		return nil, goerror.NewBusiness("Invalid API Key", goerror.CodeUnauthorized)
	}
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo get user by api key", "error", err)
		return nil, goerror.NewServer(err)
	}

	owner = &entity.APIKeyOwner{UserID: user.ID, Email: user.Email, IsActive: user.IsActive}
	if err := s.repoCache.SetAPIKeyOwner(ctx, key, *owner, s.cfg.GetSecond("modules.account.api_key_cache_ttl_seconds")); err != nil {
		slog.WarnContext(ctx, "failed to cache set api key owner", "user_id", user.ID, "error", err)
	}

	if !user.IsActive {
		slog.WarnContext(ctx, "inactive user api key used", "user_id", user.ID)
		return nil, goerror.NewBusiness("Invalid API Key", goerror.CodeUnauthorized)
	}

	return owner, nil
}
