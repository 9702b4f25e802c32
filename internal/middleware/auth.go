package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"

	"healthcare-booking-api/internal/auth"
	"healthcare-booking-api/internal/scheduling"
)

type ctxKey string

const callerKey ctxKey = "caller"

func WithCaller(ctx context.Context, c scheduling.Caller) context.Context {
	return context.WithValue(ctx, callerKey, c)
}

// CallerFrom returns the identity stored by the auth middleware.
func CallerFrom(ctx context.Context) (scheduling.Caller, bool) {
	c, ok := ctx.Value(callerKey).(scheduling.Caller)
	return c, ok
}

func bearer(header string) string {
	raw, ok := strings.CutPrefix(header, "Bearer ")
	if !ok {
		return ""
	}
	return strings.TrimSpace(raw)
}

func identify(header, secret string) (scheduling.Caller, bool) {
	raw := bearer(header)
	if raw == "" {
		return scheduling.Caller{}, false
	}
	uid, role, err := auth.Identify(raw, secret)
	if err != nil {
		return scheduling.Caller{}, false
	}
	return scheduling.Caller{ID: uid, Role: role}, true
}

// RequireAuth rejects requests without a valid access token and stores the
// caller on the request context.
func RequireAuth(secret string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			caller, ok := identify(c.Request().Header.Get(echo.HeaderAuthorization), secret)
			if !ok {
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid or missing token")
			}
			req := c.Request()
			c.SetRequest(req.WithContext(WithCaller(req.Context(), caller)))
			return next(c)
		}
	}
}

// Auth is the gRPC counterpart of RequireAuth. Methods in open skip it.
func Auth(secret string, open map[string]bool) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, next grpc.UnaryHandler) (any, error) {
		if open[info.FullMethod] {
			return next(ctx, req)
		}

		md, ok := metadata.FromIncomingContext(ctx)
		if !ok {
			return nil, status.Error(codes.Unauthenticated, "missing metadata")
		}
		header := ""
		if vals := md.Get("authorization"); len(vals) > 0 {
			header = vals[0]
		}
		if header == "" {
			return nil, status.Error(codes.Unauthenticated, "no token")
		}

		caller, ok := identify(header, secret)
		if !ok {
			return nil, status.Error(codes.Unauthenticated, "bad token")
		}
		return next(WithCaller(ctx, caller), req)
	}
}
