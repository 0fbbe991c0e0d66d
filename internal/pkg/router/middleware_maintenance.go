package router

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/shandysiswandi/ideabox/internal/pkg/config"
)

// middlewareMaintenance rejects routes listed in app.maintenance.endpoints,
// either by route pattern ("/api/v1/identity/otp/verify") or by group ("otp").
// The list is read per request so a config reload takes effect immediately.
func middlewareMaintenance(cfg config.Config) Middleware {
	return func(next http.Handler) http.Handler {
		if cfg == nil {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			route := matchedRoutePath(r)
			if !underMaintenance(cfg.GetArray("app.maintenance.endpoints"), route) {
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

func underMaintenance(entries []string, route string) bool {
	group := routeGroup(route)
	for _, e := range entries {
		e = strings.TrimSpace(e)
		if e == route || e == group {
			return true
		}
	}
	return false
}
