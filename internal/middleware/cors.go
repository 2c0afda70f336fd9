package middleware

import (
	"net/http"
	"strings"
)

// CORS restricts cross-origin access to the configured origins and allows
// credentialed requests so the auth cookies survive the browser. An empty
// origin list permits same-origin requests only.
func CORS(origins []string) func(http.Handler) http.Handler {
	allowed := make(map[string]struct{}, len(origins))
	for _, origin := range origins {
		origin = strings.TrimSpace(strings.TrimSuffix(origin, "/"))
		if origin != "" {
			allowed[strings.ToLower(origin)] = struct{}{}
		}
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := strings.TrimSpace(r.Header.Get("Origin"))
			if origin == "" {
				next.ServeHTTP(w, r)
				return
			}

			if _, ok := allowed[strings.ToLower(strings.TrimSuffix(origin, "/"))]; !ok {
				http.Error(w, "origin not allowed", http.StatusForbidden)
				return
			}

			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Credentials", "true")
			w.Header().Set("Vary", "Origin")

			if r.Method == http.MethodOptions {
				w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PATCH, DELETE, OPTIONS")
				requestedHeaders := r.Header.Get("Access-Control-Request-Headers")
				if requestedHeaders == "" {
					requestedHeaders = "Content-Type, Authorization"
				}
				w.Header().Set("Access-Control-Allow-Headers", requestedHeaders)
				w.WriteHeader(http.StatusNoContent)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
