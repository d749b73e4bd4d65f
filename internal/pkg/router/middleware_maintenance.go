package router

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/shandysiswandi/otpify/internal/pkg/config"
)

// maintenanceAll blocks every route except the welcome endpoint.
const maintenanceAll = "*"

// middlewareMaintenance answers 503 for the routes listed in
// app.maintenance.endpoints. The list is read per request so a config reload
// takes effect without a restart.
func middlewareMaintenance(cfg config.Config) Middleware {
	return func(next http.Handler) http.Handler {
		if cfg == nil {
			return next
		}

		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			route := matchedRoutePath(r)
			if route == "/" || !underMaintenance(cfg.GetArray("app.maintenance.endpoints"), route) {
				next.ServeHTTP(w, r)
				return
			}

			if secs := cfg.GetInt("app.maintenance.retry_after_seconds"); secs > 0 {
				w.Header().Set("Retry-After", strconv.Itoa(secs))
			}
			writeJSON(w, errorResponse{Message: "service is under maintenance"}, http.StatusServiceUnavailable)
		})
	}
}

func underMaintenance(endpoints []string, route string) bool {
	for _, e := range endpoints {
		e = strings.TrimSpace(e)
		if e == maintenanceAll || e == route {
			return true
		}
	}
	return false
}
