package actorctx

import "context"

type ctxKey string

const (
	keyUserID      ctxKey = "user_id"
	keyAccessToken ctxKey = "access_token"
)

func WithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, keyUserID, userID)
}

func UserIDFrom(ctx context.Context) (string, bool) {
	v, ok := ctx.Value(keyUserID).(string)

	return v, ok && v != ""
}

// WithAccessToken stores the caller's bearer token so outbound gateway calls can forward it.
func WithAccessToken(ctx context.Context, token string) context.Context {
	return context.WithValue(ctx, keyAccessToken, token)
}

func AccessTokenFrom(ctx context.Context) (string, bool) {
	v, ok := ctx.Value(keyAccessToken).(string)

	return v, ok && v != ""
}
