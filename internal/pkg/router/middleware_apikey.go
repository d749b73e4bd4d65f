package router

import (
	"context"
	"net/http"
	"strings"

	"github.com/shandysiswandi/otpify/internal/pkg/goerror"
)

// HeaderAPIKey carries the caller's API key on OTP endpoints.
const HeaderAPIKey = "X-API-KEY"

// APIKeyOwner is the account an API key belongs to.
type APIKeyOwner struct {
	UserID int64
	Email  string
}

// APIKeyResolver maps an API key to its owner.
//
// Implementations return a goerror business error for unknown or inactive
// keys and a server error for infrastructure failures.
type APIKeyResolver interface {
	ResolveAPIKey(ctx context.Context, key string) (*APIKeyOwner, error)
}

type apiKeyOwnerKey struct{}

// GetAPIKeyOwner returns the owner stored by APIKeyAuth.
func GetAPIKeyOwner(ctx context.Context) *APIKeyOwner {
	owner, _ := ctx.Value(apiKeyOwnerKey{}).(*APIKeyOwner)
	return owner
}

// SetAPIKeyOwner stores owner in ctx.
func SetAPIKeyOwner(ctx context.Context, owner *APIKeyOwner) context.Context {
	return context.WithValue(ctx, apiKeyOwnerKey{}, owner)
}

// SetAPIKeyResolver installs the resolver used by APIKeyAuth. It must be
// called before the server starts accepting requests.
func (r *Router) SetAPIKeyResolver(res APIKeyResolver) {
	r.apiKeys = res
}

// APIKeyAuth authenticates a request by the X-API-KEY header.
func (r *Router) APIKeyAuth() Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			key := strings.TrimSpace(req.Header.Get(HeaderAPIKey))
			if key == "" {
				writeJSON(w, errorResponse{Message: "API Key header missing"}, http.StatusUnauthorized)
				return
			}

			if r.apiKeys == nil {
				writeError(w, goerror.NewBusiness("Invalid API Key", goerror.CodeUnauthorized))
				return
			}

			owner, err := r.apiKeys.ResolveAPIKey(req.Context(), key)
			if err != nil {
				writeError(w, err)
				return
			}

			markCaller(req.Context(), owner.UserID, AuthAPIKey)
			next.ServeHTTP(w, req.WithContext(SetAPIKeyOwner(req.Context(), owner)))
		})
	}
}
