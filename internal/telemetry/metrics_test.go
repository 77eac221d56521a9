package telemetry

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestMiddleware_CountsByRoutePattern(t *testing.T) {
	r := chi.NewRouter()
	r.Use(Middleware)
	r.Get("/v1/leads/{id}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	before := testutil.ToFloat64(httpReqs.WithLabelValues("/v1/leads/{id}", http.MethodGet, http.StatusText(http.StatusNotFound)))
	for _, id := range []string{"a", "b"} {
		req := httptest.NewRequest(http.MethodGet, "/v1/leads/"+id, nil)
		r.ServeHTTP(httptest.NewRecorder(), req)
	}
	after := testutil.ToFloat64(httpReqs.WithLabelValues("/v1/leads/{id}", http.MethodGet, http.StatusText(http.StatusNotFound)))

	if after-before != 2 {
		t.Errorf("counter delta = %v, want 2", after-before)
	}
}
