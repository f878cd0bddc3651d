package services

import "context"

type contextKey string

const (
	sessionIDKey contextKey = "session_id"
	stageKey     contextKey = "stage"
	isbnKey      contextKey = "isbn"
	profileKey   contextKey = "profile"
)

// WithSessionID annotates context with the per-run correlation identifier.
func WithSessionID(ctx context.Context, id string) context.Context {
	if id == "" {
		return ctx
	}
	return context.WithValue(ctx, sessionIDKey, id)
}

// SessionIDFromContext extracts the run identifier if present.
func SessionIDFromContext(ctx context.Context) (string, bool) {
	if v, ok := ctx.Value(sessionIDKey).(string); ok && v != "" {
		return v, true
	}
	return "", false
}

// WithStage annotates context with the pipeline stage name.
func WithStage(ctx context.Context, stage string) context.Context {
	if stage == "" {
		return ctx
	}
	return context.WithValue(ctx, stageKey, stage)
}

// StageFromContext returns the stage name if present.
func StageFromContext(ctx context.Context) (string, bool) {
	v := ctx.Value(stageKey)
	if str, ok := v.(string); ok && str != "" {
		return str, true
	}
	return "", false
}

// WithISBN annotates context with the ISBN being processed.
func WithISBN(ctx context.Context, isbn string) context.Context {
	if isbn == "" {
		return ctx
	}
	return context.WithValue(ctx, isbnKey, isbn)
}

// ISBNFromContext returns the ISBN if present.
func ISBNFromContext(ctx context.Context) (string, bool) {
	if v, ok := ctx.Value(isbnKey).(string); ok && v != "" {
		return v, true
	}
	return "", false
}

// WithProfile annotates context with the camera profile (rpi/uvc).
func WithProfile(ctx context.Context, profile string) context.Context {
	if profile == "" {
		return ctx
	}
	return context.WithValue(ctx, profileKey, profile)
}

// ProfileFromContext returns the camera profile if present.
func ProfileFromContext(ctx context.Context) (string, bool) {
	if v, ok := ctx.Value(profileKey).(string); ok && v != "" {
		return v, true
	}
	return "", false
}
