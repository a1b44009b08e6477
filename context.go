package goSession

import (
	"context"

	"github.com/MrEthical07/goSession/i18n"
)

type operationContextKey struct{}

// WithLanguage sets the language user-facing messages are resolved in for
// calls made with ctx. It accepts a BCP 47 tag or an Accept-Language value.
func WithLanguage(ctx context.Context, lang string) context.Context {
	return i18n.WithLanguage(ctx, lang)
}

// WithOperation names the operation for logs and failure context.
func WithOperation(ctx context.Context, name string) context.Context {
	return context.WithValue(ctx, operationContextKey{}, name)
}

func operationFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	name, _ := ctx.Value(operationContextKey{}).(string)
	return name
}
