package rbac

import "fmt"

// EvaluateCondition decides whether a condition holds for an actor against
// a concrete item. It reads only fields already loaded on its inputs: no
// I/O, no mutation. An unknown condition tag is a configuration error.
func EvaluateCondition(actor *User, item any, condition Condition) (bool, error) {
	switch condition {
	case CondAlways:
		return true, nil
	case CondOwner:
		return isOwner(actor, item), nil
	case CondSelf:
		return isSelf(actor, item), nil
	case CondSuperior:
		return isSuperior(actor, item), nil
	case CondSelfOrSuperior:
		return isSelf(actor, item) || isSuperior(actor, item), nil
	default:
		return false, fmt.Errorf("%w: %q", ErrUnknownCondition, condition)
	}
}

// isOwner holds when the item declares an owner reference equal to the
// actor. Entities opt in by implementing Owned; there is no field probing.
func isOwner(actor *User, item any) bool {
	if actor == nil || item == nil {
		return false
	}
	owned, ok := item.(Owned)
	if !ok {
		return false
	}
	return owned.OwnerID() == actor.ID
}

// isSelf holds when the item is the actor's own user record.
func isSelf(actor *User, item any) bool {
	if actor == nil {
		return false
	}
	target, ok := item.(*User)
	if !ok || target == nil {
		return false
	}
	return target.ID == actor.ID
}

// isSuperior holds when the actor's highest rank strictly exceeds the
// item's. Items without a resolvable rank never yield superiority.
func isSuperior(actor *User, item any) bool {
	if actor == nil || item == nil {
		return false
	}
	ranked, ok := item.(Ranked)
	if !ok {
		return false
	}
	return actor.HighestRank() > ranked.HighestRank()
}
