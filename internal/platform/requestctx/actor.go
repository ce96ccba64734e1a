// Package requestctx carries the acting identity through request contexts.
package requestctx

import "context"

// Actor is the identity resolved for an inbound request.
type Actor struct {
	ExternalIdentity string
	DisplayName      string
	Role             string
}

type actorContextKey struct{}

// WithActor stores the resolved actor in ctx.
func WithActor(ctx context.Context, actor Actor) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, actorContextKey{}, actor)
}

// ActorFromContext returns the actor stored in ctx, if any.
func ActorFromContext(ctx context.Context) (Actor, bool) {
	if ctx == nil {
		return Actor{}, false
	}
	actor, ok := ctx.Value(actorContextKey{}).(Actor)
	return actor, ok
}
