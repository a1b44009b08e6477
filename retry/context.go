package retry

import "context"

type episodeKey struct{}

// WithEpisode returns a context carrying a retry episode id.
func WithEpisode(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, episodeKey{}, id)
}

// EpisodeID returns the episode id in ctx, or "".
func EpisodeID(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	id, _ := ctx.Value(episodeKey{}).(string)
	return id
}
