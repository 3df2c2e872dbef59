package metrics

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestObserveAdmission(t *testing.T) {
	before := testutil.ToFloat64(OrderAdmissions.WithLabelValues("submit", "rejected"))
	ObserveAdmission("submit", errors.New("cutoff passed"))
	after := testutil.ToFloat64(OrderAdmissions.WithLabelValues("submit", "rejected"))
	assert.Equal(t, before+1, after)
}

func TestMiddlewareUsesRoutePattern(t *testing.T) {
	r := chi.NewRouter()
	r.Use(Middleware())
	r.Get("/api/orders/{id}", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})

	before := testutil.ToFloat64(RequestTotal.WithLabelValues("GET", "/api/orders/{id}", "418"))
	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/orders/17", nil))
	after := testutil.ToFloat64(RequestTotal.WithLabelValues("GET", "/api/orders/{id}", "418"))

	assert.Equal(t, before+1, after)
}

func TestHandlerServesRegistry(t *testing.T) {
	OrderAdmissions.WithLabelValues("batch", "accepted").Inc()

	rec := httptest.NewRecorder()
	Handler()(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.Contains(rec.Body.String(), "webdiner_orders_admissions_total"))
}
