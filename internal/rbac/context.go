package rbac

import "context"

type actorContextKey struct{}

// ContextWithActor stores the resolved actor in the request context.
// A nil actor marks the request as anonymous.
func ContextWithActor(ctx context.Context, actor *User) context.Context {
	return context.WithValue(ctx, actorContextKey{}, actor)
}

// ActorFromContext extracts the actor from the context, nil when the
// request carries no resolved identity.
func ActorFromContext(ctx context.Context) *User {
	actor, _ := ctx.Value(actorContextKey{}).(*User)
	return actor
}
