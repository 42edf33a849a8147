package rbac

import (
	"log/slog"
	"net/http"

	"github.com/inkpress/inkpress/internal/platform/httpx"
	"github.com/inkpress/inkpress/internal/shared"
)

// Loader resolves the concrete target of an object-level check from the
// request, typically by a path parameter lookup. It returns
// shared.ErrNotFound when the item does not exist; that outcome belongs to
// the loader and is never manufactured by the evaluator.
type Loader func(r *http.Request) (any, error)

// Middleware wires the access guard into chi routes.
type Middleware struct {
	Guard  *Guard
	Logger *slog.Logger
}

// Require guards a type-level operation: no concrete item is consulted,
// so only unconditional grants (and the anonymous escape hatches) admit.
func (m Middleware) Require(action Action, resource Resource) func(http.Handler) http.Handler {
	return m.guard(action, resource, nil)
}

// RequireObject guards an object-level operation. The coarse gate runs
// first; only when it refuses is the item loaded and the fine-grained
// gate consulted.
func (m Middleware) RequireObject(action Action, resource Resource, load Loader) func(http.Handler) http.Handler {
	return m.guard(action, resource, load)
}

func (m Middleware) guard(action Action, resource Resource, load Loader) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			actor := ActorFromContext(r.Context())

			decision, err := m.Guard.Authorize(actor, action, resource, nil)
			if err != nil {
				m.fail(w, action, resource, err)
				return
			}
			if decision.Allowed() {
				next.ServeHTTP(w, r)
				return
			}

			if load != nil {
				item, err := load(r)
				if err != nil {
					httpx.RespondError(w, err)
					return
				}
				decision, err = m.Guard.Authorize(actor, action, resource, item)
				if err != nil {
					m.fail(w, action, resource, err)
					return
				}
				if decision.Allowed() {
					next.ServeHTTP(w, r)
					return
				}
			}

			switch decision.Verdict {
			case VerdictUnauthenticated:
				httpx.RespondError(w, shared.ErrUnauthenticated)
			default:
				httpx.RespondError(w, shared.ErrForbidden)
			}
		})
	}
}

// fail reports a configuration error. It deliberately surfaces as 500:
// an unseeded grant is a deployment defect, not an authorization deny.
func (m Middleware) fail(w http.ResponseWriter, action Action, resource Resource, err error) {
	if m.Logger != nil {
		m.Logger.Error("authorization misconfigured",
			slog.String("action", string(action)),
			slog.String("resource", string(resource)),
			slog.Any("error", err))
	}
	httpx.RespondError(w, err)
}
