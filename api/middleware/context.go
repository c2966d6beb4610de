package middleware

import "context"

type contextKey string

const (
	ctxUserID        contextKey = "user_id"
	ctxCorporationID contextKey = "corporation_id"
	ctxCharacterName contextKey = "character_name"
)

func UserIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(ctxUserID).(string); ok {
		return v
	}
	return ""
}

func CorporationIDFromContext(ctx context.Context) int64 {
	if ctx == nil {
		return 0
	}
	if v, ok := ctx.Value(ctxCorporationID).(int64); ok {
		return v
	}
	return 0
}

func CharacterNameFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(ctxCharacterName).(string); ok {
		return v
	}
	return ""
}

// WithUserID injects the user identifier into the context.
func WithUserID(ctx context.Context, userID string) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, ctxUserID, userID)
}

// WithCorporationID injects the corporation identifier into the context.
func WithCorporationID(ctx context.Context, corporationID int64) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, ctxCorporationID, corporationID)
}
