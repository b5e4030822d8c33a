package authz

import (
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/guardia-io/guardia/internal/secrets"
)

// Requirement is the routing metadata a protected endpoint declares: the menu
// it belongs to and the action it exercises.
type Requirement struct {
	MenuID string
	Action Action
}

// Decision is the outcome of authenticating one request. A request is either
// granted (carrying the resolved role id), or denied with a reason. Hard
// failures (bad token, missing permission record) are returned as errors by
// Authenticate, never encoded in a Decision.
type Decision struct {
	Granted bool
	RoleID  string
	Reason  string
}

func granted(roleID string) Decision {
	return Decision{Granted: true, RoleID: roleID}
}

func denied(roleID, reason string) Decision {
	return Decision{Granted: false, RoleID: roleID, Reason: reason}
}

// Strategy is the per-request gatekeeper. It holds no mutable state; every
// invocation is a pure function of the presented token and the stored
// permission rows.
type Strategy struct {
	tokens      *secrets.Service
	permissions Repository
	log         *zap.Logger
}

func NewStrategy(tokens *secrets.Service, permissions Repository, log *zap.Logger) *Strategy {
	return &Strategy{
		tokens:      tokens,
		permissions: permissions,
		log:         log,
	}
}

// Authenticate verifies the request's bearer token, resolves the caller's
// role, and checks the permission row for the endpoint's (menu, action) pair.
//
// Outcomes are three-way:
//   - granted: nil error, Decision.Granted true with the role id
//   - denied: nil error, Decision.Granted false — the caller is authenticated
//     but the role's permission row does not allow the action
//   - hard failure: non-nil error (ErrMissingToken, ErrInvalidToken,
//     ErrNoPermissionRecord, ErrUnknownAction, or a storage error)
func (s *Strategy) Authenticate(r *http.Request, req Requirement) (Decision, error) {
	token, ok := parseBearerToken(r)
	if !ok {
		return Decision{}, ErrMissingToken
	}

	claims, err := s.tokens.VerifyToken(token)
	if err != nil {
		return Decision{}, ErrInvalidToken
	}

	if !req.Action.valid() {
		return Decision{}, ErrUnknownAction
	}

	row, err := s.permissions.FindByRoleAndMenu(r.Context(), claims.RoleID, req.MenuID)
	if err != nil {
		// Absence of a row grants nothing.
		return Decision{}, err
	}

	if !row.Allows(req.Action) {
		return denied(claims.RoleID, "action not permitted for role"), nil
	}

	return granted(claims.RoleID), nil
}

func parseBearerToken(r *http.Request) (string, bool) {
	header := strings.TrimSpace(r.Header.Get("Authorization"))
	if header == "" {
		return "", false
	}

	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", false
	}

	token := strings.TrimSpace(parts[1])
	if token == "" {
		return "", false
	}

	return token, true
}
