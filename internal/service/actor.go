package service

import "context"

type actorKey struct{}

// WithActor tags ctx with the subject performing the operation. Events and
// history entries record it.
func WithActor(ctx context.Context, subject string) context.Context {
	return context.WithValue(ctx, actorKey{}, subject)
}

func actorFrom(ctx context.Context) string {
	subject, _ := ctx.Value(actorKey{}).(string)
	return subject
}
