package handlers

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/tbourn/studyvault/internal/domain"
	"github.com/tbourn/studyvault/internal/services"
)

func Test_fail_500_LogsAndBody(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()

	var buf bytes.Buffer
	logger := zerolog.New(&buf)
	r.Use(func(c *gin.Context) {
		c.Writer.Header().Set("X-Request-ID", "rid-500")
		c.Set("logger", &logger)
		c.Next()
	})
	r.GET("/boom", func(c *gin.Context) {
		fail(c, http.StatusInternalServerError, ErrCodeInternal, "kaboom")
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/boom", nil))

	if w.Code != http.StatusInternalServerError {
		t.Fatalf("status=%d", w.Code)
	}
	var resp ErrorResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("json: %v", err)
	}
	if resp.RequestID != "rid-500" || resp.Code != ErrCodeInternal || resp.Message != "kaboom" {
		t.Fatalf("unexpected body: %+v", resp)
	}
	if !strings.Contains(buf.String(), `"level":"error"`) {
		t.Fatalf("expected error log, got: %s", buf.String())
	}
}

func Test_failErr_Mapping(t *testing.T) {
	gin.SetMode(gin.TestMode)

	cases := []struct {
		err    error
		status int
		code   string
	}{
		{services.ErrKeyInvalid, http.StatusBadRequest, ErrCodeKeyInvalid},
		{services.ErrRedeemThrottled, http.StatusTooManyRequests, ErrCodeRateLimited},
		{services.ErrForbidden, http.StatusForbidden, ErrCodeForbidden},
		{services.ErrEntitlementNotFound, http.StatusNotFound, ErrCodeNotFound},
		{services.ErrOrderNotCompleted, http.StatusBadRequest, ErrCodeOrderNotCompleted},
		{services.ErrAlreadyUnlocked, http.StatusBadRequest, ErrCodeAlreadyUnlocked},
		{services.ErrRedownloadNotConfirmed, http.StatusConflict, ErrCodeRedownloadRequired},
		{fmt.Errorf("%w: unit gone", services.ErrItemMissing), http.StatusUnprocessableEntity, ErrCodeItemMissing},
		{fmt.Errorf("%w: dial tcp", services.ErrStorageUnavailable), http.StatusServiceUnavailable, ErrCodeStorageUnavailable},
		{services.ErrCorruptSource, http.StatusInternalServerError, ErrCodeWatermarkFailed},
		{fmt.Errorf("wrap: %w", domain.ErrInvalidRecord), http.StatusBadRequest, ErrCodeValidationFailed},
		{errors.New("db on fire"), http.StatusInternalServerError, ErrCodeInternal},
	}
	for _, tc := range cases {
		t.Run(tc.code, func(t *testing.T) {
			r := gin.New()
			r.GET("/x", func(c *gin.Context) { failErr(c, tc.err) })
			w := httptest.NewRecorder()
			r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/x", nil))

			if w.Code != tc.status {
				t.Fatalf("status=%d; want %d", w.Code, tc.status)
			}
			var resp ErrorResponse
			if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
				t.Fatalf("json: %v", err)
			}
			if resp.Code != tc.code {
				t.Fatalf("code=%q; want %q", resp.Code, tc.code)
			}
			if strings.Contains(resp.Message, "dial tcp") || strings.Contains(resp.Message, "on fire") {
				t.Fatalf("internal detail leaked: %q", resp.Message)
			}
		})
	}
}

func Test_Fail_And_ok(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(func(c *gin.Context) {
		c.Writer.Header().Set("X-Request-ID", "rid-404")
		c.Next()
	})
	r.GET("/missing", func(c *gin.Context) { Fail(c, http.StatusNotFound, ErrCodeNotFound, "nope") })
	r.GET("/ok", func(c *gin.Context) { ok(c, http.StatusCreated, gin.H{"ok": true}) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/missing", nil))
	var er ErrorResponse
	if err := json.Unmarshal(w.Body.Bytes(), &er); err != nil || w.Code != http.StatusNotFound {
		t.Fatalf("404: code=%d err=%v", w.Code, err)
	}
	if er.RequestID != "rid-404" || er.Code != ErrCodeNotFound || er.Message != "nope" {
		t.Fatalf("unexpected 404 body: %+v", er)
	}

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ok", nil))
	if w.Code != http.StatusCreated || !strings.Contains(w.Body.String(), `"ok":true`) {
		t.Fatalf("ok helper: %d %s", w.Code, w.Body.String())
	}
}
