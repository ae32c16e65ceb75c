package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct{ t time.Time }

func (c *fakeClock) now() time.Time          { return c.t }
func (c *fakeClock) advance(d time.Duration) { c.t = c.t.Add(d) }

func newTestLimiter(rps float64, burst int) (*ClientLimiter, *fakeClock) {
	clock := &fakeClock{t: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
	l := NewClientLimiter(RateLimitConfig{RequestsPerSecond: rps, Burst: burst, IdleTTL: time.Minute})
	l.now = clock.now
	return l, clock
}

func TestClientLimiter_BurstThenRefill(t *testing.T) {
	l, clock := newTestLimiter(2, 3)

	for i := 2; i >= 0; i-- {
		ok, remaining, _ := l.Allow("10.0.0.1")
		require.True(t, ok)
		assert.Equal(t, i, remaining)
	}
	ok, _, wait := l.Allow("10.0.0.1")
	assert.False(t, ok)
	assert.Equal(t, 500*time.Millisecond, wait)

	clock.advance(500 * time.Millisecond)
	ok, _, _ = l.Allow("10.0.0.1")
	assert.True(t, ok)
}

func TestClientLimiter_PerClient(t *testing.T) {
	l, _ := newTestLimiter(1, 1)

	ok, _, _ := l.Allow("a")
	assert.True(t, ok)
	ok, _, _ = l.Allow("a")
	assert.False(t, ok)
	ok, _, _ = l.Allow("b")
	assert.True(t, ok)
}

func TestClientLimiter_EvictsIdle(t *testing.T) {
	l, clock := newTestLimiter(1, 1)

	l.Allow("a")
	l.Allow("b")
	assert.Equal(t, 2, l.Len())

	clock.advance(2 * time.Minute)
	l.Allow("c")
	assert.Equal(t, 1, l.Len())
}

func TestNewClientLimiter_Defaults(t *testing.T) {
	l := NewClientLimiter(RateLimitConfig{})
	assert.Equal(t, DefaultRateLimitConfig(), l.cfg)
}

func TestRateLimit_Middleware(t *testing.T) {
	l, _ := newTestLimiter(1, 1)
	h := RateLimit(l)(okHandler())

	do := func() *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/random", nil)
		req.RemoteAddr = "192.0.2.10:51234"
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec
	}

	first := do()
	assert.Equal(t, http.StatusOK, first.Code)
	assert.Equal(t, "1", first.Header().Get("X-RateLimit-Limit"))
	assert.Equal(t, "0", first.Header().Get("X-RateLimit-Remaining"))

	second := do()
	require.Equal(t, http.StatusTooManyRequests, second.Code)
	assert.Equal(t, "1", second.Header().Get("Retry-After"))
	var body map[string]string
	require.NoError(t, json.Unmarshal(second.Body.Bytes(), &body))
	assert.Equal(t, "COMMON_007", body["code"])
	assert.Equal(t, "RateLimited", body["kind"])
}

func TestClientKey(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "[2001:db8::1]:443"
	assert.Equal(t, "2001:db8::1", clientKey(req))

	req.RemoteAddr = "203.0.113.7"
	assert.Equal(t, "203.0.113.7", clientKey(req))
}
