package middleware

import (
	"crypto/subtle"
	"net/http"

	"github.com/JonMunkholm/agedist/internal/logging"
)

// APIKeyAuth gates the JSON import API (POST /api/import). Requests must send
// one of keys in the X-API-Key header; with no keys configured every request
// passes. The HTML report at / is mounted without it and stays open.
func APIKeyAuth(keys []string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if len(keys) == 0 {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := r.Header.Get("X-API-Key")

			status, code := 0, ""
			switch {
			case key == "":
				status, code = http.StatusUnauthorized, "AUTH_MISSING_KEY"
			case !validKey(key, keys):
				status, code = http.StatusForbidden, "AUTH_INVALID_KEY"
			}
			if status != 0 {
				logging.FromContext(r.Context()).Warn("auth rejected",
					"path", r.URL.Path,
					"code", code,
					"remote_addr", r.RemoteAddr,
				)
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(status)
				w.Write([]byte(`{"error":"` + http.StatusText(status) + `","code":"` + code + `"}`))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// validKey compares against every key in constant time.
func validKey(key string, keys []string) bool {
	match := 0
	for _, k := range keys {
		match |= subtle.ConstantTimeCompare([]byte(key), []byte(k))
	}
	return match == 1
}
