package middleware

import (
	"encoding/json"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

func TestKeyByUserOrIP(t *testing.T) {
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
	c.Request.RemoteAddr = net.JoinHostPort("203.0.113.9", "12345")

	if key := KeyByUserOrIP()(c); key != "ip:203.0.113.9" {
		t.Fatalf("expected ip-based key; got %q", key)
	}
	c.Set(userIDKey, "u123")
	if key := KeyByUserOrIP()(c); key != "user:u123" {
		t.Fatalf("expected user-based key; got %q", key)
	}
}

func TestNewRateLimiter_BurstCoercionAndReuse(t *testing.T) {
	rl := NewRateLimiter(2, 0, KeyByUserOrIP())
	if rl.burst != 1 {
		t.Fatalf("burst coercion failed, got %d", rl.burst)
	}
	lim := rl.getVisitor("k1")
	if got := rl.getVisitor("k1"); got != lim {
		t.Fatalf("expected same limiter instance to be reused")
	}
}

func TestRateLimiter_EvictsIdleBuckets(t *testing.T) {
	rl := NewRateLimiter(1, 1, KeyByUserOrIP())
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	rl.now = func() time.Time { return base }

	rl.mu.Lock()
	rl.visitors["old"] = &visitor{limiter: rate.NewLimiter(1, 1), lastSeen: base.Add(-time.Hour)}
	rl.lookups = gcEvery - 1
	rl.mu.Unlock()

	_ = rl.getVisitor("new")

	rl.mu.Lock()
	defer rl.mu.Unlock()
	if _, ok := rl.visitors["old"]; ok {
		t.Fatalf("expected idle bucket to be evicted")
	}
	if _, ok := rl.visitors["new"]; !ok || rl.lookups != 0 {
		t.Fatalf("expected new bucket and reset counter")
	}
}

func TestRateLimiter_Handler(t *testing.T) {
	gin.SetMode(gin.TestMode)
	rl := NewRateLimiter(0.5, 1, KeyByUserOrIP()).Exempt("/health")
	frozen := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	rl.now = func() time.Time { return frozen }

	r := gin.New()
	r.Use(RequestID(), rl.Handler())
	r.GET("/redeem", func(c *gin.Context) { c.Status(http.StatusOK) })
	r.GET("/health", func(c *gin.Context) { c.Status(http.StatusOK) })

	if w := serve(r, http.MethodGet, "/redeem", nil); w.Code != http.StatusOK {
		t.Fatalf("first request: %d", w.Code)
	}
	w := serve(r, http.MethodGet, "/redeem", nil)
	if w.Code != http.StatusTooManyRequests {
		t.Fatalf("second request: %d", w.Code)
	}
	if got := w.Header().Get("Retry-After"); got != "2" {
		t.Fatalf("Retry-After = %q; want 2", got)
	}
	var env map[string]string
	if err := json.Unmarshal(w.Body.Bytes(), &env); err != nil || env["code"] != "too_many_requests" {
		t.Fatalf("unexpected body %s", w.Body.String())
	}

	for i := 0; i < 3; i++ {
		if w := serve(r, http.MethodGet, "/health", nil); w.Code != http.StatusOK {
			t.Fatalf("exempt route limited: %d", w.Code)
		}
	}
}

func TestRetryAfter(t *testing.T) {
	cases := map[rate.Limit]int{0: 1, rate.Inf: 1, 10: 1, 1: 1, 0.25: 4}
	for rps, want := range cases {
		if got := retryAfter(rps); got != want {
			t.Errorf("retryAfter(%v) = %d; want %d", rps, got, want)
		}
	}
}
