package middleware

import (
	"crypto/subtle"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
)

// Where requestAPIKey found the client's key.
const (
	keySourceHeader = "header"
	keySourceBearer = "bearer"
	keySourceQuery  = "query"
)

// keyQueryParams are checked in order for clients that cannot set headers.
var keyQueryParams = []string{"key", "api_key"}

// requestAPIKey returns the API key presented by r and where it was found.
// X-API-Key wins over a Bearer token, and both win over query parameters.
func requestAPIKey(r *http.Request) (key, source string) {
	if key = r.Header.Get("X-API-Key"); key != "" {
		return key, keySourceHeader
	}
	if token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer "); ok && token != "" {
		return token, keySourceBearer
	}
	q := r.URL.Query()
	for _, name := range keyQueryParams {
		if key = q.Get(name); key != "" {
			return key, keySourceQuery
		}
	}
	return "", ""
}

// APIKeyAuth rejects requests that do not present apiKey. Rejected keys are
// logged with their source, never with their value. An empty apiKey rejects
// every request.
func APIKeyAuth(apiKey string, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key, source := requestAPIKey(r)
			if key == "" {
				writeError(w, http.StatusUnauthorized, "missing API key")
				return
			}

			if apiKey == "" || subtle.ConstantTimeCompare([]byte(key), []byte(apiKey)) != 1 {
				logger.Warn("rejected API key",
					"source", source,
					"path", r.URL.Path,
					"remote_addr", r.RemoteAddr,
				)
				writeError(w, http.StatusUnauthorized, "invalid API key")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// writeError writes {"error": message} with the given status.
func writeError(w http.ResponseWriter, status int, message string) {
	body, _ := json.Marshal(map[string]string{"error": message})
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write(body)
}

// CORS allows browser clients on other origins to call the batch API.
func CORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := w.Header()
		h.Set("Access-Control-Allow-Origin", "*")
		h.Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		h.Set("Access-Control-Allow-Headers", "Content-Type, X-API-Key, Authorization")
		h.Set("Access-Control-Max-Age", "86400")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		next.ServeHTTP(w, r)
	})
}
