package router

import "context"

// Auth methods recorded on the request scope.
const (
	AuthNone   = "none"
	AuthBearer = "bearer"
	AuthAPIKey = "api_key"
)

// requestScope is filled by the authentication middlewares and read back by
// observability once the handler returns, so request logs and metrics carry
// the caller even though auth runs deeper in the chain.
type requestScope struct {
	userID int64
	auth   string
}

type requestScopeKey struct{}

func withRequestScope(ctx context.Context) (context.Context, *requestScope) {
	s := &requestScope{auth: AuthNone}
	return context.WithValue(ctx, requestScopeKey{}, s), s
}

func markCaller(ctx context.Context, userID int64, auth string) {
	if s, ok := ctx.Value(requestScopeKey{}).(*requestScope); ok {
		s.userID = userID
		s.auth = auth
	}
}
