package router

import (
	"crypto/subtle"
	"net/http"
	"strings"
)

// HeaderAPIToken carries the static operator token as an alternative to a bearer token.
const HeaderAPIToken = "X-API-Token"

func middlewareAuthentication(tokens []string, publicEndpoints map[string]map[string]struct{}) Middleware {
	allowed := make([][]byte, 0, len(tokens))
	for _, t := range tokens {
		if t = strings.TrimSpace(t); t != "" {
			allowed = append(allowed, []byte(t))
		}
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			path := matchedRoutePath(r)

			if s, ok := publicEndpoints[r.Method]; ok {
				if _, skip := s[path]; skip {
					next.ServeHTTP(w, r)
					return
				}
			}

			// no configured token means the API runs open, e.g. bound to localhost
			if len(allowed) == 0 {
				next.ServeHTTP(w, r)
				return
			}

			presented := r.Header.Get(HeaderAPIToken)
			if presented == "" {
				p := strings.Fields(r.Header.Get("Authorization"))
				if len(p) == 2 && strings.EqualFold(p[0], "Bearer") {
					presented = p[1]
				}
			}
			if presented == "" {
				writeJSON(w, map[string]string{"message": "Authentication required"}, http.StatusUnauthorized)
				return
			}

			for _, token := range allowed {
				if subtle.ConstantTimeCompare([]byte(presented), token) == 1 {
					next.ServeHTTP(w, r)
					return
				}
			}

			writeJSON(w, map[string]string{"message": "Invalid API token"}, http.StatusUnauthorized)
		})
	}
}
