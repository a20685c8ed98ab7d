package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type limitedEndpoint struct {
	e       *echo.Echo
	handler echo.HandlerFunc
}

func newLimitedEndpoint(rl *RateLimiter) *limitedEndpoint {
	return &limitedEndpoint{
		e: echo.New(),
		handler: rl.Middleware()(func(c echo.Context) error {
			return c.NoContent(http.StatusNoContent)
		}),
	}
}

func (l *limitedEndpoint) hit(t *testing.T, remoteAddr string, headers map[string]string) int {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/auth/login", nil)
	req.RemoteAddr = remoteAddr
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	require.NoError(t, l.handler(l.e.NewContext(req, rec)))
	return rec.Code
}

func TestRateLimiter_BurstThenReject(t *testing.T) {
	endpoint := newLimitedEndpoint(NewRateLimiter(1, 3))

	for i := 0; i < 3; i++ {
		assert.Equal(t, http.StatusNoContent, endpoint.hit(t, "10.1.1.1:5000", nil), "request %d", i)
	}

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "10.1.1.1:5000"
	rec := httptest.NewRecorder()
	require.NoError(t, endpoint.handler(endpoint.e.NewContext(req, rec)))
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Contains(t, rec.Body.String(), "SYSTEM_006")
}

func TestRateLimiter_BucketsAreKeyedByClient(t *testing.T) {
	endpoint := newLimitedEndpoint(NewRateLimiter(1, 1))

	assert.Equal(t, http.StatusNoContent, endpoint.hit(t, "10.0.0.1:1", nil))
	assert.Equal(t, http.StatusTooManyRequests, endpoint.hit(t, "10.0.0.1:2", nil))

	// same proxy, different forwarded clients
	assert.Equal(t, http.StatusNoContent, endpoint.hit(t, "10.0.0.9:1", map[string]string{"X-Forwarded-For": "203.0.113.7, 10.0.0.9"}))
	assert.Equal(t, http.StatusNoContent, endpoint.hit(t, "10.0.0.9:1", map[string]string{"X-Real-IP": "198.51.100.4"}))
	assert.Equal(t, http.StatusTooManyRequests, endpoint.hit(t, "10.0.0.9:1", map[string]string{"X-Forwarded-For": "203.0.113.7"}))
}

func TestNewRateLimiter_Defaults(t *testing.T) {
	rl := NewRateLimiter(0, -1)
	assert.Equal(t, DefaultBurstSize, rl.burst)
	assert.InDelta(t, float64(DefaultRequestsPerSecond), float64(rl.rps), 1e-9)
}

func TestRateLimiter_CleanupEvictsIdleVisitors(t *testing.T) {
	clock := time.Date(2026, 2, 1, 8, 0, 0, 0, time.UTC)
	rl := NewRateLimiter(DefaultRequestsPerSecond, DefaultBurstSize)
	rl.now = func() time.Time { return clock }

	rl.limiterFor("idle")
	clock = clock.Add(visitorIdleTimeout + time.Second)
	rl.limiterFor("active")
	rl.cleanup()

	assert.Equal(t, 1, rl.visitorCount())
	assert.Contains(t, rl.visitors, "active")
	assert.NotContains(t, rl.visitors, "idle")
}

func TestRateLimiter_RunReturnsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		NewRateLimiter(1, 1).Run(ctx)
		close(done)
	}()

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not return after cancel")
	}
}

func TestRateLimiter_ConcurrentClients(t *testing.T) {
	endpoint := newLimitedEndpoint(NewRateLimiter(1, DefaultBurstSize))

	var allowed, limited atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 2*DefaultBurstSize; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			switch endpoint.hit(t, "192.0.2.50:443", nil) {
			case http.StatusNoContent:
				allowed.Add(1)
			case http.StatusTooManyRequests:
				limited.Add(1)
			}
		}()
	}
	wg.Wait()

	assert.EqualValues(t, DefaultBurstSize, allowed.Load())
	assert.EqualValues(t, DefaultBurstSize, limited.Load())
}
