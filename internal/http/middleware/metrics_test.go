package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestMetrics_CountsByRouteAndFallsBackToPath(t *testing.T) {
	gin.SetMode(gin.TestMode)

	r := gin.New()
	r.Use(Metrics())
	r.POST("/api/repair-request-detail/:id", func(c *gin.Context) { c.String(http.StatusOK, "ok") })

	baseRoute := testutil.ToFloat64(httpReqs.WithLabelValues("POST", "/api/repair-request-detail/:id", "200"))
	base404 := testutil.ToFloat64(httpReqs.WithLabelValues("GET", "/missing", "404"))

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/repair-request-detail/2506-001", strings.NewReader(`{}`)))
	if w.Code != http.StatusOK {
		t.Fatalf("status %d", w.Code)
	}
	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/missing", nil))

	// The request ID never reaches the label set.
	if got := testutil.ToFloat64(httpReqs.WithLabelValues("POST", "/api/repair-request-detail/:id", "200")); got != baseRoute+1 {
		t.Fatalf("route counter = %v, want %v", got, baseRoute+1)
	}
	if got := testutil.ToFloat64(httpReqs.WithLabelValues("GET", "/missing", "404")); got != base404+1 {
		t.Fatalf("fallback counter = %v, want %v", got, base404+1)
	}
	if got := testutil.ToFloat64(httpInflight); got != 0 {
		t.Fatalf("in-flight = %v, want 0", got)
	}
}
