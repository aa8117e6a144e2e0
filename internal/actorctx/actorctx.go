// Package actorctx carries the authenticated caller's email on a context so
// code below the HTTP layer can attribute writes.
package actorctx

import "context"

type key struct{}

func WithActor(ctx context.Context, email string) context.Context {
	return context.WithValue(ctx, key{}, email)
}

func ActorFrom(ctx context.Context) (string, bool) {
	v, ok := ctx.Value(key{}).(string)

	return v, ok && v != ""
}
