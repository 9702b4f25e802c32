package middleware

import (
	"bytes"
	"context"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/peer"
	"google.golang.org/grpc/status"

	"healthcare-booking-api/internal/auth"
	"healthcare-booking-api/internal/model"
	"healthcare-booking-api/internal/scheduling"
)

const secret = "test-secret"

func token(t *testing.T, uid string, role model.Role) string {
	t.Helper()
	tok, err := auth.MakeToken(uid, role, secret, time.Minute)
	require.NoError(t, err)
	return tok
}

func TestRequireAuth(t *testing.T) {
	e := echo.New()
	var got scheduling.Caller
	h := RequireAuth(secret)(func(c echo.Context) error {
		got, _ = CallerFrom(c.Request().Context())
		return c.NoContent(http.StatusOK)
	})

	tests := []struct {
		name   string
		header string
		ok     bool
	}{
		{"missing", "", false},
		{"not bearer", "Basic abc", false},
		{"garbage", "Bearer nope", false},
		{"valid", "Bearer " + token(t, "u1", model.RolePatient), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.header != "" {
				req.Header.Set(echo.HeaderAuthorization, tt.header)
			}
			rec := httptest.NewRecorder()
			err := h(e.NewContext(req, rec))
			if !tt.ok {
				var he *echo.HTTPError
				require.ErrorAs(t, err, &he)
				assert.Equal(t, http.StatusUnauthorized, he.Code)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, scheduling.Caller{ID: "u1", Role: model.RolePatient}, got)
		})
	}
}

func TestGRPCAuth(t *testing.T) {
	interceptor := Auth(secret, map[string]bool{"/open": true})
	var got scheduling.Caller
	handler := func(ctx context.Context, req any) (any, error) {
		got, _ = CallerFrom(ctx)
		return "ok", nil
	}

	_, err := interceptor(context.Background(), nil, &grpc.UnaryServerInfo{FullMethod: "/open"}, handler)
	require.NoError(t, err)

	_, err = interceptor(context.Background(), nil, &grpc.UnaryServerInfo{FullMethod: "/closed"}, handler)
	assert.Equal(t, codes.Unauthenticated, status.Code(err))

	md := metadata.Pairs("authorization", "Bearer "+token(t, "d1", model.RoleDoctor))
	ctx := metadata.NewIncomingContext(context.Background(), md)
	_, err = interceptor(ctx, nil, &grpc.UnaryServerInfo{FullMethod: "/closed"}, handler)
	require.NoError(t, err)
	assert.Equal(t, "d1", got.ID)
	assert.Equal(t, model.RoleDoctor, got.Role)
}

func TestRateLimit(t *testing.T) {
	e := echo.New()
	rl := NewRateLimiter(0.0001, 2)
	h := RateLimit(rl)(func(c echo.Context) error { return c.NoContent(http.StatusOK) })

	call := func(ip string) error {
		req := httptest.NewRequest(http.MethodPost, "/signin", nil)
		req.RemoteAddr = ip + ":1234"
		return h(e.NewContext(req, httptest.NewRecorder()))
	}
	require.NoError(t, call("10.0.0.1"))
	require.NoError(t, call("10.0.0.1"))

	err := call("10.0.0.1")
	var he *echo.HTTPError
	require.ErrorAs(t, err, &he)
	assert.Equal(t, http.StatusTooManyRequests, he.Code)

	// buckets are per client
	assert.NoError(t, call("10.0.0.2"))
}

func TestUnaryRateLimit(t *testing.T) {
	rl := NewRateLimiter(0.0001, 1)
	interceptor := UnaryRateLimit(rl, map[string]bool{"/limited": true})
	handler := func(ctx context.Context, req any) (any, error) { return nil, nil }
	ctx := peer.NewContext(context.Background(), &peer.Peer{Addr: &net.TCPAddr{IP: net.IPv4(10, 0, 0, 1), Port: 1}})

	_, err := interceptor(ctx, nil, &grpc.UnaryServerInfo{FullMethod: "/limited"}, handler)
	require.NoError(t, err)
	_, err = interceptor(ctx, nil, &grpc.UnaryServerInfo{FullMethod: "/limited"}, handler)
	assert.Equal(t, codes.ResourceExhausted, status.Code(err))

	_, err = interceptor(ctx, nil, &grpc.UnaryServerInfo{FullMethod: "/free"}, handler)
	assert.NoError(t, err)
}

func TestRateLimiterSweep(t *testing.T) {
	rl := NewRateLimiter(1, 1)
	rl.Allow("a")
	rl.sweep(time.Now())
	assert.Len(t, rl.clients, 1)
	rl.sweep(time.Now().Add(idleAfter + time.Second))
	assert.Empty(t, rl.clients)
}

func TestLoggerAndRequestID(t *testing.T) {
	var buf bytes.Buffer
	logger := zerolog.New(&buf)
	e := echo.New()
	e.Use(RequestID(), Logger(logger))
	e.GET("/x", func(c echo.Context) error {
		return echo.NewHTTPError(http.StatusTeapot, "short and stout")
	})

	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	req.Header.Set(echo.HeaderXRequestID, "rid-1")
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusTeapot, rec.Code)
	assert.Equal(t, "rid-1", rec.Header().Get(echo.HeaderXRequestID))
	assert.Contains(t, buf.String(), `"request_id":"rid-1"`)
	assert.Contains(t, buf.String(), `"status":418`)
}

func TestRecovery(t *testing.T) {
	var buf bytes.Buffer
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	c := e.NewContext(req, httptest.NewRecorder())

	h := Recovery(zerolog.New(&buf))(func(c echo.Context) error { panic("boom") })
	err := h(c)

	var he *echo.HTTPError
	require.ErrorAs(t, err, &he)
	assert.Equal(t, http.StatusInternalServerError, he.Code)
	assert.Contains(t, buf.String(), "panic recovered")
}

func TestUnaryLogger(t *testing.T) {
	var buf bytes.Buffer
	interceptor := UnaryLogger(zerolog.New(&buf))
	_, err := interceptor(context.Background(), nil, &grpc.UnaryServerInfo{FullMethod: "/svc/M"},
		func(ctx context.Context, req any) (any, error) {
			return nil, status.Error(codes.NotFound, "gone")
		})
	assert.Equal(t, codes.NotFound, status.Code(err))
	assert.Contains(t, buf.String(), `"code":"NotFound"`)
	assert.Contains(t, buf.String(), `"method":"/svc/M"`)
}
