package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
)

type stubVerifier map[string]string

func (s stubVerifier) VerifySubject(_ context.Context, token string) (string, error) {
	if sub, ok := s[token]; ok {
		return sub, nil
	}
	return "", errors.New("bad token")
}

func authRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(RequestID())
	v := stubVerifier{"good": "user-1", "boss": "admin-1"}

	r.GET("/me", RequireUser(v), func(c *gin.Context) {
		c.String(http.StatusOK, UserID(c))
	})
	admin := r.Group("/admin", RequireUser(v), RequireAdmin(func(id string) bool { return id == "admin-1" }))
	admin.GET("/ping", func(c *gin.Context) { c.Status(http.StatusNoContent) })
	return r
}

func TestRequireUser(t *testing.T) {
	r := authRouter()

	cases := []struct {
		name   string
		header string
		status int
		body   string
	}{
		{"missing", "", http.StatusUnauthorized, ""},
		{"wrong scheme", "Basic good", http.StatusUnauthorized, ""},
		{"empty token", "Bearer   ", http.StatusUnauthorized, ""},
		{"unknown token", "Bearer nope", http.StatusUnauthorized, ""},
		{"valid", "Bearer good", http.StatusOK, "user-1"},
		{"lowercase scheme", "bearer good", http.StatusOK, "user-1"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			hdr := map[string]string{}
			if tc.header != "" {
				hdr["Authorization"] = tc.header
			}
			w := serve(r, http.MethodGet, "/me", hdr)
			if w.Code != tc.status {
				t.Fatalf("status = %d; want %d", w.Code, tc.status)
			}
			if tc.status == http.StatusOK && w.Body.String() != tc.body {
				t.Fatalf("body = %q; want %q", w.Body.String(), tc.body)
			}
			if tc.status == http.StatusUnauthorized {
				var env map[string]string
				if err := json.Unmarshal(w.Body.Bytes(), &env); err != nil || env["code"] != "unauthorized" || env["request_id"] == "" {
					t.Fatalf("unexpected envelope %s", w.Body.String())
				}
			}
		})
	}
}

func TestRequireAdmin(t *testing.T) {
	r := authRouter()

	if w := serve(r, http.MethodGet, "/admin/ping", map[string]string{"Authorization": "Bearer good"}); w.Code != http.StatusForbidden {
		t.Fatalf("non-admin: status = %d", w.Code)
	}
	if w := serve(r, http.MethodGet, "/admin/ping", map[string]string{"Authorization": "Bearer boss"}); w.Code != http.StatusNoContent {
		t.Fatalf("admin: status = %d", w.Code)
	}
	if w := serve(r, http.MethodGet, "/admin/ping", nil); w.Code != http.StatusUnauthorized {
		t.Fatalf("anonymous: status = %d", w.Code)
	}
}

func TestRequireAdmin_WithoutIdentity(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/x", RequireAdmin(func(string) bool { return true }), func(c *gin.Context) { c.Status(http.StatusOK) })
	if w := serve(r, http.MethodGet, "/x", nil); w.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d; want 401", w.Code)
	}
}
