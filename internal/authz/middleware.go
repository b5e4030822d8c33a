package authz

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"
)

// Define a custom type for context keys
type contextKey string

const (
	// RoleContextKey is the key used to store the resolved role id in the context
	RoleContextKey contextKey = "role"
)

// RoleFromContext returns the role id resolved during authentication.
func RoleFromContext(ctx context.Context) (string, error) {
	roleID, ok := ctx.Value(RoleContextKey).(string)
	if !ok {
		return "", errors.New("role not found in context")
	}
	return roleID, nil
}

// RequirePermission guards a handler with the given requirement. Hard
// failures reject with 401 before the handler runs; an authenticated caller
// whose role lacks the action gets 403. Denied is not an error condition and
// is logged at debug level only.
func (s *Strategy) RequirePermission(req Requirement, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		decision, err := s.Authenticate(r, req)
		if err != nil {
			s.log.Warn("authentication failed",
				zap.String("menu", req.MenuID),
				zap.String("action", req.Action.String()),
				zap.Error(err))
			writeAuthError(w, http.StatusUnauthorized, authFailureMessage(err))
			return
		}

		if !decision.Granted {
			s.log.Debug("permission denied",
				zap.String("role", decision.RoleID),
				zap.String("menu", req.MenuID),
				zap.String("action", req.Action.String()))
			writeAuthError(w, http.StatusForbidden, "permission denied")
			return
		}

		ctx := context.WithValue(r.Context(), RoleContextKey, decision.RoleID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func authFailureMessage(err error) string {
	switch {
	case errors.Is(err, ErrMissingToken):
		return "missing token"
	case errors.Is(err, ErrInvalidToken):
		return "invalid token"
	case errors.Is(err, ErrNoPermissionRecord):
		return "no permission record"
	case errors.Is(err, ErrUnknownAction):
		return "unknown action"
	}
	return "authentication failed"
}

func writeAuthError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": message})
}
