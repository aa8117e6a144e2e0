package observability

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestGinMiddlewareCountsByRouteTemplate(t *testing.T) {
	gin.SetMode(gin.TestMode)

	p := NewProm(prometheus.NewRegistry())

	r := gin.New()
	r.Use(p.GinHandleMiddleware())
	r.GET("/products/:id", func(c *gin.Context) { c.Status(http.StatusOK) })

	for _, id := range []string{"a", "b"} {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/products/"+id, nil))
	}

	got := testutil.ToFloat64(p.RequestsTotal.WithLabelValues(http.MethodGet, "/products/:id", "200"))
	if got != 2 {
		t.Fatalf("requests_total = %v, want 2", got)
	}
}

func TestObserveDBCountsErrors(t *testing.T) {
	p := NewProm(prometheus.NewRegistry())

	_ = p.ObserveDB("products.find", func() error { return nil })
	err := p.ObserveDB("products.find", func() error { return errors.New("boom") })

	if err == nil {
		t.Fatal("ObserveDB must return the wrapped error")
	}

	if got := testutil.ToFloat64(p.DbErrorsTotal.WithLabelValues("products.find", "unknown")); got != 1 {
		t.Fatalf("errors_total = %v, want 1", got)
	}
}
