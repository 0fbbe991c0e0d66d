package instrument

import "context"

type correlationKey struct{}

// SetCorrelationID stores the request correlation id on ctx.
func SetCorrelationID(ctx context.Context, cID string) context.Context {
	if cID == "" {
		return ctx
	}
	return context.WithValue(ctx, correlationKey{}, cID)
}

// GetCorrelationID returns the correlation id stored on ctx, or "".
func GetCorrelationID(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	cID, _ := ctx.Value(correlationKey{}).(string)
	return cID
}
