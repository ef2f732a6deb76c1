package middleware

import "context"

type contextKey string

const (
	ctxSubject contextKey = "subject"
	ctxKiosk   contextKey = "kiosk"
)

func SubjectFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(ctxSubject).(string); ok {
		return v
	}
	return ""
}

func KioskFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(ctxKiosk).(string); ok {
		return v
	}
	return ""
}

// WithSubject injects the authenticated operator into the context.
func WithSubject(ctx context.Context, subject string) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, ctxSubject, subject)
}

// WithKiosk injects the kiosk identifier into the context.
func WithKiosk(ctx context.Context, kiosk string) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, ctxKiosk, kiosk)
}
