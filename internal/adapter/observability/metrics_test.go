package observability

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestHTTPMetricsMiddleware_UsesRoutePattern(t *testing.T) {
	r := chi.NewRouter()
	r.Use(HTTPMetricsMiddleware)
	r.Get("/items/{id}", func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusNoContent) })

	before := testutil.ToFloat64(HTTPRequestsTotal.WithLabelValues("/items/{id}", http.MethodGet, "No Content"))
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/items/42", nil))

	assert.Equal(t, http.StatusNoContent, rec.Code)
	after := testutil.ToFloat64(HTTPRequestsTotal.WithLabelValues("/items/{id}", http.MethodGet, "No Content"))
	assert.InDelta(t, 1, after-before, 1e-9)
}

func TestHTTPMetricsMiddleware_NoRouter(t *testing.T) {
	rec := httptest.NewRecorder()
	mw := HTTPMetricsMiddleware(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(204) }))
	mw.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/x", nil))
	assert.Equal(t, 204, rec.Code)
}

func TestEvaluationMetricsHelpers(t *testing.T) {
	InitMetrics()
	InitMetrics()

	StartEvaluation()
	assert.InDelta(t, 1, testutil.ToFloat64(EvaluationsInFlight), 1e-9)
	FinishEvaluation("valid")
	assert.InDelta(t, 0, testutil.ToFloat64(EvaluationsInFlight), 1e-9)

	before := testutil.ToFloat64(EvaluationAttemptsTotal.WithLabelValues("2", "parse_error"))
	ObserveAttempt(2, "parse_error")
	ObserveAttempt(3, "parse_error")
	assert.InDelta(t, 2, testutil.ToFloat64(EvaluationAttemptsTotal.WithLabelValues("2", "parse_error"))-before, 1e-9)

	decBefore := testutil.ToFloat64(DecisionsTotal.WithLabelValues("PASS"))
	ObserveEvaluation("PASS", 88)
	ObserveEvaluation("PASS", 140)
	assert.InDelta(t, 2, testutil.ToFloat64(DecisionsTotal.WithLabelValues("PASS"))-decBefore, 1e-9)

	tokBefore := testutil.ToFloat64(AITokensTotal.WithLabelValues("groq", "prompt"))
	ObserveTokens("groq", 120, 0)
	assert.InDelta(t, 120, testutil.ToFloat64(AITokensTotal.WithLabelValues("groq", "prompt"))-tokBefore, 1e-9)

	okBefore := testutil.ToFloat64(AIRequestsTotal.WithLabelValues("groq", "ok"))
	ObserveAIRequest("groq", "ok", 150*time.Millisecond)
	assert.InDelta(t, 1, testutil.ToFloat64(AIRequestsTotal.WithLabelValues("groq", "ok"))-okBefore, 1e-9)
}

func TestObserveExtraction(t *testing.T) {
	before := testutil.ToFloat64(ExtractionsTotal.WithLabelValues("local", "pdf", "ok"))
	ObserveExtraction("local", "pdf", "ok", 30*time.Millisecond)
	after := testutil.ToFloat64(ExtractionsTotal.WithLabelValues("local", "pdf", "ok"))
	assert.InDelta(t, 1, after-before, 1e-9)
}
