package portalgate

import "context"

type clientIPContextKey struct{}
type requestIDContextKey struct{}

// WithClientIP attaches the caller's network address to ctx. Login binds a
// session to it when Security.BindRemoteIP is set and the form omits ip; audit
// events always record it.
func WithClientIP(ctx context.Context, ip string) context.Context {
	return context.WithValue(ctx, clientIPContextKey{}, ip)
}

// WithRequestID attaches a request identifier to ctx for audit correlation.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDContextKey{}, id)
}

// RequestIDFromContext returns the identifier set by WithRequestID, or "".
func RequestIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	id, _ := ctx.Value(requestIDContextKey{}).(string)
	return id
}

func clientIPFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}

	ip, _ := ctx.Value(clientIPContextKey{}).(string)
	return ip
}
