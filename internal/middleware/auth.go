package middleware

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/docstream/docstream/internal/auth"
)

// APIKeyConfig configures the API key middleware.
type APIKeyConfig struct {
	Logger *slog.Logger

	// KeyHash is the argon2id hash (PHC format) of the accepted key.
	// When empty the middleware is a pass-through; caller identity is
	// then the fronting gateway's responsibility.
	KeyHash string
}

// APIKey returns a middleware that requires a matching bearer key on
// every request when a key hash is configured.
func APIKey(cfg APIKeyConfig) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if cfg.KeyHash == "" {
				next.ServeHTTP(w, r)
				return
			}

			key, ok := bearerKey(r)
			if !ok {
				writeUnauthorized(w, "MISSING_API_KEY", "Authorization bearer key is required")
				return
			}

			match, err := auth.VerifyKey(key, cfg.KeyHash)
			if err != nil {
				cfg.Logger.Error("api key verification failed",
					"request_id", GetRequestID(r.Context()),
					"error", err,
				)
				writeUnauthorized(w, "INVALID_API_KEY", "API key is not valid")
				return
			}
			if !match {
				cfg.Logger.Warn("api key rejected",
					"request_id", GetRequestID(r.Context()),
				)
				writeUnauthorized(w, "INVALID_API_KEY", "API key is not valid")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// bearerKey extracts the key from an Authorization: Bearer header.
func bearerKey(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	if header == "" {
		return "", false
	}

	const prefix = "Bearer "
	if !strings.HasPrefix(header, prefix) {
		return "", false
	}

	key := strings.TrimSpace(header[len(prefix):])
	return key, key != ""
}

func writeUnauthorized(w http.ResponseWriter, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_ = json.NewEncoder(w).Encode(map[string]string{
		"error": message,
		"code":  code,
	})
}
