/*
authz.go - Actor identification and role-based authorization

PURPOSE:
  Every API request carries the authenticated user in X-Actor and the
  user's role in X-Actor-Role, set by the gateway in front of the server.
  ActorMiddleware stores the actor in the request context. AuthzMiddleware
  asks casbin whether the role may perform the HTTP method on the path.

ROLES:
  admin   anything
  simple  read-only (GET), no demo scenarios

MODES:
  enforce   denials return 403
  shadow    denials are logged and the request goes through
  disabled  casbin is not consulted

SEE ALSO:
  - server.go: middleware order
*/
package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/casbin/casbin/v2"
	"github.com/casbin/casbin/v2/model"
	stringadapter "github.com/casbin/casbin/v2/persist/string-adapter"
)

const (
	HeaderActor = "X-Actor"
	HeaderRole  = "X-Actor-Role"
)

type AuthzMode string

const (
	AuthzEnforce  AuthzMode = "enforce"
	AuthzShadow   AuthzMode = "shadow"
	AuthzDisabled AuthzMode = "disabled"
)

const authzModel = `
[request_definition]
r = sub, obj, act

[policy_definition]
p = sub, obj, act, eft

[policy_effect]
e = some(where (p.eft == allow)) && !some(where (p.eft == deny))

[matchers]
m = r.sub == p.sub && keyMatch(r.obj, p.obj) && (r.act == p.act || p.act == "*")
`

const authzPolicy = `
p, role:admin, /api/*, *, allow
p, role:simple, /api/*, GET, allow
p, role:simple, /api/scenarios*, *, deny
`

// Authorizer decides whether a role may call an endpoint.
type Authorizer struct {
	enforcer *casbin.Enforcer
	mode     AuthzMode
}

func NewAuthorizer(mode AuthzMode) (*Authorizer, error) {
	switch mode {
	case AuthzEnforce, AuthzShadow, AuthzDisabled:
	default:
		return nil, fmt.Errorf("authz: invalid mode %q (expected enforce|shadow|disabled)", mode)
	}
	m, err := model.NewModelFromString(authzModel)
	if err != nil {
		return nil, fmt.Errorf("authz: model: %w", err)
	}
	enforcer, err := casbin.NewEnforcer(m, stringadapter.NewAdapter(strings.TrimSpace(authzPolicy)))
	if err != nil {
		return nil, fmt.Errorf("authz: enforcer: %w", err)
	}
	return &Authorizer{enforcer: enforcer, mode: mode}, nil
}

// SubjectFromRole turns a role name into a policy subject.
func SubjectFromRole(role string) string {
	role = strings.TrimSpace(strings.ToLower(role))
	if role == "" {
		role = "anonymous"
	}
	return "role:" + role
}

// Authorize reports whether subject may perform action on object, and
// whether a denial should be enforced.
func (a *Authorizer) Authorize(subject, object, action string) (allowed bool, enforced bool, err error) {
	switch a.mode {
	case AuthzDisabled:
		return true, false, nil
	case AuthzShadow:
		ok, err := a.enforcer.Enforce(subject, object, action)
		if err != nil {
			return false, false, err
		}
		return ok, false, nil
	case AuthzEnforce:
		ok, err := a.enforcer.Enforce(subject, object, action)
		if err != nil {
			return false, true, err
		}
		return ok, true, nil
	default:
		return false, false, errors.New("authz: unknown mode")
	}
}

// =============================================================================
// MIDDLEWARE
// =============================================================================

type ctxKey int

const (
	actorKey ctxKey = iota
	roleKey
)

// ActorFromContext returns the actor set by ActorMiddleware.
func ActorFromContext(ctx context.Context) string {
	actor, _ := ctx.Value(actorKey).(string)
	return actor
}

func roleFromContext(ctx context.Context) string {
	role, _ := ctx.Value(roleKey).(string)
	return role
}

// ActorMiddleware rejects requests without an actor.
func ActorMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		actor := strings.TrimSpace(r.Header.Get(HeaderActor))
		if actor == "" {
			writeError(w, http.StatusUnauthorized, "Missing "+HeaderActor+" header", nil)
			return
		}
		ctx := context.WithValue(r.Context(), actorKey, actor)
		ctx = context.WithValue(ctx, roleKey, strings.TrimSpace(r.Header.Get(HeaderRole)))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// AuthzMiddleware checks the actor's role against the policy. It must run
// after ActorMiddleware.
func AuthzMiddleware(a *Authorizer, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			subject := SubjectFromRole(roleFromContext(r.Context()))
			allowed, enforced, err := a.Authorize(subject, r.URL.Path, r.Method)
			if err != nil {
				if enforced {
					writeError(w, http.StatusInternalServerError, "Authorization failed", err)
					return
				}
				logger.Error("authz error in shadow mode", "error", err, "path", r.URL.Path)
			}
			if !allowed {
				if enforced {
					writeError(w, http.StatusForbidden, "Forbidden", nil)
					return
				}
				logger.Warn("authz denied (shadow)",
					"subject", subject,
					"actor", ActorFromContext(r.Context()),
					"method", r.Method,
					"path", r.URL.Path)
			}
			next.ServeHTTP(w, r)
		})
	}
}
