package auth

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"
)

// RequireSession rejects requests without a valid session cookie and
// attaches the decoded Principal to the request context.
func RequireSession(v *Validator, logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			principal, err := v.Principal(r)
			if err != nil {
				message := "Invalid token."
				if errors.Is(err, ErrNoToken) {
					message = "Access denied. No token provided."
				}
				logger.Debug("session rejected",
					zap.String("path", r.URL.Path),
					zap.Error(err),
				)
				writeUnauthorized(w, message)
				return
			}

			next.ServeHTTP(w, r.WithContext(WithPrincipal(r.Context(), principal)))
		})
	}
}

func writeUnauthorized(w http.ResponseWriter, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": message})
}
