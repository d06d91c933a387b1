package middleware

import (
	"crypto/tls"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
)

func TestSecurityHeaders(t *testing.T) {
	gin.SetMode(gin.TestMode)

	cases := []struct {
		name     string
		opt      SecurityOptions
		https    bool
		wantHSTS string
		noStore  bool
		policy   bool
	}{
		{name: "baseline", opt: SecurityOptions{}},
		{name: "hsts ignored on http", opt: SecurityOptions{EnableHSTS: true}},
		{name: "hsts default max-age", opt: SecurityOptions{EnableHSTS: true}, https: true,
			wantHSTS: "max-age=15552000; includeSubDomains; preload"},
		{name: "everything", opt: SecurityOptions{EnableHSTS: true, HSTSMaxAge: 24 * time.Hour, NoStore: true, EnablePolicy: true},
			https: true, wantHSTS: "max-age=86400; includeSubDomains; preload", noStore: true, policy: true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r := gin.New()
			r.Use(RequestID(), SecurityHeaders(tc.opt))
			r.GET("/ok", func(c *gin.Context) { c.Status(http.StatusOK) })

			hdr := map[string]string{}
			if tc.https {
				hdr["X-Forwarded-Proto"] = "https"
			}
			h := serve(r, http.MethodGet, "/ok", hdr).Header()

			if h.Get("X-Content-Type-Options") != "nosniff" || h.Get("X-Frame-Options") != "DENY" || h.Get("Referrer-Policy") != "no-referrer" {
				t.Fatalf("baseline headers missing: %v", h)
			}
			if h.Get("Access-Control-Expose-Headers") != "X-Request-ID" {
				t.Fatalf("request id not exposed: %v", h)
			}
			if got := h.Get("Strict-Transport-Security"); got != tc.wantHSTS {
				t.Fatalf("HSTS = %q; want %q", got, tc.wantHSTS)
			}
			if (h.Get("Cache-Control") == "no-store") != tc.noStore {
				t.Fatalf("Cache-Control = %q", h.Get("Cache-Control"))
			}
			if (h.Get("X-Permitted-Cross-Domain-Policies") == "none") != tc.policy {
				t.Fatalf("policy headers mismatch: %v", h)
			}
		})
	}
}

func TestNoStore(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/grant", NoStore(), func(c *gin.Context) { c.Status(http.StatusOK) })
	r.GET("/plain", func(c *gin.Context) { c.Status(http.StatusOK) })

	if h := serve(r, http.MethodGet, "/grant", nil).Header(); h.Get("Cache-Control") != "no-store" || h.Get("Pragma") != "no-cache" {
		t.Fatalf("expected no-store on /grant, got %v", h)
	}
	if h := serve(r, http.MethodGet, "/plain", nil).Header(); h.Get("Cache-Control") != "" {
		t.Fatalf("unexpected cache header on /plain: %v", h)
	}
}

func TestExposeHeader_Appends(t *testing.T) {
	h := http.Header{}
	h.Set("Access-Control-Expose-Headers", "Content-Length")
	exposeHeader(h, "X-Request-ID")
	exposeHeader(h, "X-Request-ID")
	if got := h.Get("Access-Control-Expose-Headers"); got != "Content-Length, X-Request-ID" {
		t.Fatalf("got %q", got)
	}
}

func TestIsHTTPS(t *testing.T) {
	plain := httptest.NewRequest(http.MethodGet, "/", nil)
	direct := httptest.NewRequest(http.MethodGet, "/", nil)
	direct.TLS = &tls.ConnectionState{}
	proxied := httptest.NewRequest(http.MethodGet, "/", nil)
	proxied.Header.Set("X-Forwarded-Proto", "HTTPS")

	if isHTTPS(plain) || !isHTTPS(direct) || !isHTTPS(proxied) {
		t.Fatalf("isHTTPS mismatch")
	}
}
