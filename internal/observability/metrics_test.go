package observability

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/cvdesk/cvdesk/internal/authz"
	_ "github.com/cvdesk/cvdesk/internal/testing/guard"
)

func TestMetricsHandlerExposesPrometheusMetrics(t *testing.T) {
	metrics := NewMetrics()
	metrics.ObserveDecision(authz.ClassPublic, true)

	rr := httptest.NewRecorder()
	metrics.Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	if rr.Code != http.StatusOK {
		t.Fatalf("unexpected status: %d", rr.Code)
	}
	if body := rr.Body.String(); !strings.Contains(body, "cvdesk_authz_decisions_total") {
		t.Fatalf("expected body to contain cvdesk_authz_decisions_total, got: %s", body)
	}
}

func TestMetricsMiddlewareRecordsRequest(t *testing.T) {
	metrics := NewMetrics()

	handler := metrics.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))

	routeCtx := chi.NewRouteContext()
	routeCtx.RoutePatterns = append(routeCtx.RoutePatterns, "/tasks")

	req := httptest.NewRequest(http.MethodGet, "/tasks", nil)
	req = req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, routeCtx))

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusTeapot {
		t.Fatalf("expected status %d, got %d", http.StatusTeapot, rr.Code)
	}

	metricsRR := httptest.NewRecorder()
	metrics.Handler().ServeHTTP(metricsRR, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	body := metricsRR.Body.String()
	if !strings.Contains(body, `cvdesk_http_requests_total{code="418",route="/tasks"} 1`) {
		t.Fatalf("expected metrics to record request, got: %s", body)
	}
	if !strings.Contains(body, `cvdesk_http_request_duration_seconds_bucket{route="/tasks"`) {
		t.Fatalf("expected duration histogram to be present, got: %s", body)
	}
}

func TestObserveDecisionCountsByClassAndOutcome(t *testing.T) {
	metrics := NewMetrics()

	metrics.ObserveDecision(authz.ClassAdminOnly, false)
	metrics.ObserveDecision(authz.ClassAdminOnly, false)
	metrics.ObserveDecision(authz.ClassAuthenticated, true)

	rr := httptest.NewRecorder()
	metrics.Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	body := rr.Body.String()
	if !strings.Contains(body, `cvdesk_authz_decisions_total{class="admin_only",outcome="deny"} 2`) {
		t.Fatalf("expected deny counter, got: %s", body)
	}
	if !strings.Contains(body, `cvdesk_authz_decisions_total{class="authenticated",outcome="allow"} 1`) {
		t.Fatalf("expected allow counter, got: %s", body)
	}
}
