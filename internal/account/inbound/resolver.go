package inbound

import (
	"context"

	"github.com/shandysiswandi/otpify/internal/account/entity"
	"github.com/shandysiswandi/otpify/internal/pkg/router"
)

type keyResolver interface {
	ResolveAPIKey(ctx context.Context, key string) (*entity.APIKeyOwner, error)
}

// APIKeyResolver adapts the account usecase to router.APIKeyResolver.
type APIKeyResolver struct {
	uc keyResolver
}

func NewAPIKeyResolver(uc keyResolver) *APIKeyResolver {
	return &APIKeyResolver{uc: uc}
}

func (a *APIKeyResolver) ResolveAPIKey(ctx context.Context, key string) (*router.APIKeyOwner, error) {
	owner, err := a.uc.ResolveAPIKey(ctx, key)
	if err != nil {
		return nil, err
	}

	return &router.APIKeyOwner{UserID: owner.UserID, Email: owner.Email}, nil
}
