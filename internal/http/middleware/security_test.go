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
		name  string
		opt   SecurityOptions
		https bool
		want  map[string]string
	}{
		{
			name: "baseline",
			want: map[string]string{
				"X-Content-Type-Options":        "nosniff",
				"X-Frame-Options":               "DENY",
				"Referrer-Policy":               "no-referrer",
				"Permissions-Policy":            "",
				"Strict-Transport-Security":     "",
				"Access-Control-Expose-Headers": "X-Request-ID",
			},
		},
		{
			name: "policy and no-store",
			opt:  SecurityOptions{EnablePolicy: true, NoStore: true},
			want: map[string]string{
				"Permissions-Policy": "geolocation=(self), camera=(self), microphone=(), payment=()",
				"Cache-Control":      "no-store",
			},
		},
		{
			name: "hsts skipped on http",
			opt:  SecurityOptions{EnableHSTS: true},
			want: map[string]string{"Strict-Transport-Security": ""},
		},
		{
			name:  "hsts on https",
			opt:   SecurityOptions{EnableHSTS: true, HSTSMaxAge: time.Hour},
			https: true,
			want:  map[string]string{"Strict-Transport-Security": "max-age=3600; includeSubDomains"},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r := gin.New()
			r.Use(RequestID(), SecurityHeaders(tc.opt))
			r.GET("/x", func(c *gin.Context) { c.Status(http.StatusOK) })

			req := httptest.NewRequest(http.MethodGet, "/x", nil)
			if tc.https {
				req.TLS = &tls.ConnectionState{}
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)
			for k, v := range tc.want {
				if got := w.Header().Get(k); got != v {
					t.Errorf("%s = %q, want %q", k, got, v)
				}
			}
		})
	}
}

func TestIsHTTPS_ForwardedProto(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if isHTTPS(req) {
		t.Fatalf("plain request is not https")
	}
	req.Header.Set("X-Forwarded-Proto", "HTTPS")
	if !isHTTPS(req) {
		t.Fatalf("forwarded proto should count")
	}
}
