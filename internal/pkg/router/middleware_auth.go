package router

import (
	"net/http"
	"strings"

	"github.com/shandysiswandi/otpify/internal/pkg/jwt"
)

// routeSet holds "METHOD /matched/path" entries.
type routeSet map[string]struct{}

func newRouteSet(routes ...string) routeSet {
	s := make(routeSet, len(routes))
	for _, r := range routes {
		s[r] = struct{}{}
	}
	return s
}

func (s routeSet) has(method, path string) bool {
	_, ok := s[method+" "+path]
	return ok
}

func bearerToken(r *http.Request) (string, bool) {
	scheme, token, ok := strings.Cut(strings.TrimSpace(r.Header.Get("Authorization")), " ")
	token = strings.TrimSpace(token)
	if !ok || !strings.EqualFold(scheme, "Bearer") || token == "" {
		return "", false
	}
	return token, true
}

// middlewareAuthentication requires a valid bearer token on every route that
// is not public. API key routes are public here and guarded by APIKeyAuth.
func middlewareAuthentication(verifier jwt.JWT, public routeSet) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if public.has(r.Method, matchedRoutePath(r)) {
				next.ServeHTTP(w, r)
				return
			}

			token, ok := bearerToken(r)
			if !ok {
				writeJSON(w, errorResponse{Message: "Authentication required"}, http.StatusUnauthorized)
				return
			}

			claims, err := verifier.Verify(token)
			if err != nil {
				writeJSON(w, errorResponse{Message: "Invalid or expired token"}, http.StatusUnauthorized)
				return
			}

			markCaller(r.Context(), claims.UserID, AuthBearer)
			next.ServeHTTP(w, r.WithContext(jwt.SetAuth(r.Context(), claims)))
		})
	}
}
