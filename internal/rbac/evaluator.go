package rbac

import "fmt"

// Evaluator answers permission questions against the actor's loaded
// role graph. It is a pure decision component: every evaluation reads a
// consistent snapshot supplied by the caller and holds no state of its own.
type Evaluator struct {
	catalog *Catalog
}

// NewEvaluator constructs an Evaluator over the seeded catalog.
func NewEvaluator(catalog *Catalog) *Evaluator {
	return &Evaluator{catalog: catalog}
}

// HasPermission is the coarse, type-level gate used when no concrete item
// is in play (listing, creation). Only the unconditional grant counts:
// conditional permissions have nothing to evaluate against at this stage.
// The anonymous actor always fails.
func (e *Evaluator) HasPermission(actor *User, action Action, resource Resource) bool {
	if actor == nil {
		return false
	}
	for _, role := range actor.Roles {
		for _, perm := range role.Permissions {
			if perm.Action == action && perm.Resource == resource && perm.Condition == CondAlways {
				return true
			}
		}
	}
	return false
}

// HasObjectPermission is the fine-grained, instance-level gate. Grants are
// OR-ed: the first permission matching (action, resource) whose condition
// holds allows the operation; there is no deny rule.
//
// read_draft is special-cased on publication state alone. Roles holding
// the unconditional read_draft grant are admitted by the coarse gate and
// never reach this branch; everyone else, including the anonymous actor,
// may only see published items.
func (e *Evaluator) HasObjectPermission(actor *User, action Action, resource Resource, item any) (bool, error) {
	if action == ActionReadDraft {
		publishable, ok := item.(Publishable)
		return ok && publishable.IsPublished(), nil
	}
	if actor == nil || item == nil {
		return false, nil
	}
	for _, role := range actor.Roles {
		for _, perm := range role.Permissions {
			if perm.Action != action || perm.Resource != resource {
				continue
			}
			passed, err := EvaluateCondition(actor, item, perm.Condition)
			if err != nil {
				return false, err
			}
			if passed {
				return true, nil
			}
		}
	}
	return false, nil
}

// Covered verifies that the catalog seeds at least one grant for the
// combination a route is about to check. Missing coverage is ErrNotSeeded.
func (e *Evaluator) Covered(action Action, resource Resource) error {
	if e.catalog != nil && e.catalog.Covers(action, resource) {
		return nil
	}
	return fmt.Errorf("%w: %s/%s", ErrNotSeeded, action, resource)
}
