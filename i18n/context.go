package i18n

import "context"

type langKey struct{}

// WithLanguage returns a context carrying lang for message resolution.
func WithLanguage(ctx context.Context, lang string) context.Context {
	return context.WithValue(ctx, langKey{}, lang)
}

// LanguageFrom returns the language stored in ctx, or "".
func LanguageFrom(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	lang, _ := ctx.Value(langKey{}).(string)
	return lang
}
