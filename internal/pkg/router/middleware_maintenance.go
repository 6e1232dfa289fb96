package router

import (
	"net/http"
	"strings"

	"github.com/samber/lo"
	"github.com/shandysiswandi/steamguard/internal/pkg/config"
)

// maintenanceRules blocks routes listed in app.maintenance.endpoints. An entry is a
// route pattern ("/api/v1/steamguard/links"), optionally prefixed by a method
// ("POST /api/v1/steamguard/links"), or a prefix ending in "*".
type maintenanceRules struct {
	exact    map[string]struct{}
	prefixes []string
}

func newMaintenanceRules(entries []string) maintenanceRules {
	rules := maintenanceRules{exact: map[string]struct{}{}}
	for _, e := range lo.Compact(lo.Map(entries, func(e string, _ int) string { return strings.TrimSpace(e) })) {
		if p, ok := strings.CutSuffix(e, "*"); ok {
			rules.prefixes = append(rules.prefixes, p)
			continue
		}
		rules.exact[e] = struct{}{}
	}

	return rules
}

func (m maintenanceRules) blocked(method, route string) bool {
	for _, key := range []string{route, method + " " + route} {
		if _, ok := m.exact[key]; ok {
			return true
		}
	}

	return lo.SomeBy(m.prefixes, func(p string) bool {
		return strings.HasPrefix(route, p) || strings.HasPrefix(method+" "+route, p)
	})
}

func middlewareMaintenance(cfg config.Config) Middleware {
	var rules maintenanceRules
	if cfg != nil {
		rules = newMaintenanceRules(cfg.GetArray("app.maintenance.endpoints"))
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if rules.blocked(r.Method, matchedRoutePath(r)) {
				writeJSON(w, errorResponse{Message: "service is under maintenance"}, http.StatusServiceUnavailable)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
