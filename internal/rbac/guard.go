package rbac

// Verdict classifies the outcome of an authorization decision so that the
// HTTP layer can map it without re-deriving why access was refused.
type Verdict int

const (
	// VerdictAllow admits the operation.
	VerdictAllow Verdict = iota
	// VerdictUnauthenticated refuses for want of an identity (401).
	VerdictUnauthenticated
	// VerdictForbidden refuses a resolved identity (403).
	VerdictForbidden
)

// Decision is the guard's answer for one protected operation.
type Decision struct {
	Verdict Verdict
}

// Allowed reports whether the operation may proceed.
func (d Decision) Allowed() bool {
	return d.Verdict == VerdictAllow
}

// Guard is the request-time integration point: one call per protected
// operation, combining the coarse and fine gates with the anonymous
// escape hatches.
type Guard struct {
	evaluator *Evaluator
}

// NewGuard constructs a Guard over the evaluator.
func NewGuard(evaluator *Evaluator) *Guard {
	return &Guard{evaluator: evaluator}
}

// Authorize decides whether actor may perform action on resource, with
// item being the concrete target when one has been resolved (nil for
// type-level operations). Configuration errors are returned as errors and
// must never be presented as a deny.
//
// The anonymous actor is admitted for exactly two cases: public
// self-registration (create user) and the publication-status check behind
// read_draft. Everything else without an identity is refused as
// unauthenticated before any permission is consulted. That includes an
// anonymous read_draft attempt on an unpublished item: the refusal is
// unauthenticated rather than forbidden, since logging in may still grant
// access through an object-level permission.
func (g *Guard) Authorize(actor *User, action Action, resource Resource, item any) (Decision, error) {
	if actor == nil {
		if action == ActionCreate && resource == ResourceUser {
			return Decision{Verdict: VerdictAllow}, nil
		}
		if action != ActionReadDraft {
			return Decision{Verdict: VerdictUnauthenticated}, nil
		}
	}

	if err := g.evaluator.Covered(action, resource); err != nil {
		return Decision{}, err
	}

	if g.evaluator.HasPermission(actor, action, resource) {
		return Decision{Verdict: VerdictAllow}, nil
	}

	if item != nil {
		allowed, err := g.evaluator.HasObjectPermission(actor, action, resource, item)
		if err != nil {
			return Decision{}, err
		}
		if allowed {
			return Decision{Verdict: VerdictAllow}, nil
		}
	}

	if actor == nil {
		return Decision{Verdict: VerdictUnauthenticated}, nil
	}
	return Decision{Verdict: VerdictForbidden}, nil
}
