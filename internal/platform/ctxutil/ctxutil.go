package ctxutil

import "context"

// Default returns ctx, or a background context when ctx is nil. Platform
// clients use it so a forgotten context never panics a request path.
func Default(ctx context.Context) context.Context {
	if ctx == nil {
		return context.Background()
	}
	return ctx
}
