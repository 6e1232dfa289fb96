package instrument

import "context"

type correlationKey struct{}

// CorrelationHeader is the header carrying the correlation id across hops.
const CorrelationHeader = "X-Correlation-ID"

// SetCorrelationID stores the correlation id in ctx.
func SetCorrelationID(ctx context.Context, cID string) context.Context {
	return context.WithValue(ctx, correlationKey{}, cID)
}

// GetCorrelationID returns the correlation id stored in ctx, or an empty string.
func GetCorrelationID(ctx context.Context) string {
	if ctx == nil {
		return ""
	}

	cID, _ := ctx.Value(correlationKey{}).(string)
	return cID
}
