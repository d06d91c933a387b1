package middleware

import (
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestMetrics_CountersAndPathFallback(t *testing.T) {
	gin.SetMode(gin.TestMode)

	r := gin.New()
	r.Use(Metrics())
	r.GET("/entitlements/:id", func(c *gin.Context) { c.String(http.StatusOK, "hello") })
	r.GET("/empty", func(c *gin.Context) { c.Status(http.StatusNoContent) })

	baseOK := testutil.ToFloat64(httpReqs.WithLabelValues("GET", "/entitlements/:id", "200"))
	base404 := testutil.ToFloat64(httpReqs.WithLabelValues("GET", "/nope", "404"))
	baseEmpty := testutil.ToFloat64(httpReqs.WithLabelValues("GET", "/empty", "204"))

	serve(r, http.MethodGet, "/entitlements/a", nil)
	serve(r, http.MethodGet, "/entitlements/b", nil)
	serve(r, http.MethodGet, "/nope", nil)
	serve(r, http.MethodGet, "/empty", nil)

	if got := testutil.ToFloat64(httpReqs.WithLabelValues("GET", "/entitlements/:id", "200")); got != baseOK+2 {
		t.Fatalf("route counter = %v; want %v", got, baseOK+2)
	}
	if got := testutil.ToFloat64(httpReqs.WithLabelValues("GET", "/nope", "404")); got != base404+1 {
		t.Fatalf("fallback counter = %v; want %v", got, base404+1)
	}
	if got := testutil.ToFloat64(httpReqs.WithLabelValues("GET", "/empty", "204")); got != baseEmpty+1 {
		t.Fatalf("no-body counter = %v; want %v", got, baseEmpty+1)
	}
	if got := testutil.ToFloat64(httpInflight); got != 0 {
		t.Fatalf("httpInflight = %v; want 0", got)
	}
}
