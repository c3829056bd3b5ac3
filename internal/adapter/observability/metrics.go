package observability

import (
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
)

var (
	HTTPRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"route", "method", "status"},
	)
	HTTPRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10, 30, 60},
		},
		[]string{"route", "method"},
	)

	AIRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ai_requests_total",
			Help: "Total number of model calls by provider and outcome",
		},
		[]string{"provider", "outcome"},
	)
	AIRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "ai_request_duration_seconds",
			Help:    "Model call duration in seconds",
			Buckets: []float64{0.25, 0.5, 1, 2, 5, 10, 20, 30, 60},
		},
		[]string{"provider"},
	)
	AITokensTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ai_tokens_total",
			Help: "Prompt and completion tokens consumed by model calls",
		},
		[]string{"provider", "kind"},
	)

	EvaluationAttemptsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "evaluation_attempts_total",
			Help: "Model attempts per evaluation, labeled by attempt number and result",
		},
		[]string{"attempt", "result"},
	)
	EvaluationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "evaluations_total",
			Help: "Evaluations by terminal outcome",
		},
		[]string{"outcome"},
	)
	EvaluationsInFlight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "evaluations_in_flight",
			Help: "Number of evaluations currently running",
		},
	)
	DecisionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "evaluation_decisions_total",
			Help: "Validated evaluations by decision",
		},
		[]string{"decision"},
	)
	ExtractionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "text_extractions_total",
			Help: "Uploaded file extractions by extractor, format and outcome",
		},
		[]string{"extractor", "format", "outcome"},
	)
	ExtractionDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "text_extraction_duration_seconds",
			Help:    "Uploaded file extraction duration in seconds",
			Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2, 5, 15},
		},
		[]string{"extractor"},
	)
	ATSScoreHistogram = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "evaluation_ats_score",
			Help:    "Distribution of ats_score ([0,100])",
			Buckets: []float64{10, 20, 30, 40, 50, 60, 70, 75, 80, 90, 100},
		},
	)
)

var registerOnce sync.Once

// InitMetrics registers every collector with the default registry. Safe to call more than once.
func InitMetrics() {
	registerOnce.Do(func() {
		prometheus.MustRegister(
			HTTPRequestsTotal,
			HTTPRequestDuration,
			AIRequestsTotal,
			AIRequestDuration,
			AITokensTotal,
			EvaluationAttemptsTotal,
			EvaluationsTotal,
			EvaluationsInFlight,
			DecisionsTotal,
			ExtractionsTotal,
			ExtractionDuration,
			ATSScoreHistogram,
		)
	})
}

// HTTPMetricsMiddleware records Prometheus metrics for each request.
func HTTPMetricsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		dur := time.Since(start).Seconds()
		var route string
		if rc := chi.RouteContext(r.Context()); rc != nil {
			route = rc.RoutePattern()
		}
		if route == "" {
			route = r.URL.Path
		}
		HTTPRequestsTotal.WithLabelValues(route, r.Method, http.StatusText(ww.Status())).Inc()
		HTTPRequestDuration.WithLabelValues(route, r.Method).Observe(dur)
	})
}

// ObserveAIRequest records one model call. outcome is "ok" or an error class.
func ObserveAIRequest(provider, outcome string, d time.Duration) {
	AIRequestsTotal.WithLabelValues(provider, outcome).Inc()
	AIRequestDuration.WithLabelValues(provider).Observe(d.Seconds())
}

// ObserveTokens records prompt and completion token counts.
func ObserveTokens(provider string, prompt, completion int) {
	if prompt > 0 {
		AITokensTotal.WithLabelValues(provider, "prompt").Add(float64(prompt))
	}
	if completion > 0 {
		AITokensTotal.WithLabelValues(provider, "completion").Add(float64(completion))
	}
}

// ObserveAttempt records the result ("ok", "parse_error", "error") of one evaluation attempt.
func ObserveAttempt(attempt int, result string) {
	label := "1"
	if attempt > 1 {
		label = "2"
	}
	EvaluationAttemptsTotal.WithLabelValues(label, result).Inc()
}

// StartEvaluation marks an evaluation as in flight.
func StartEvaluation() {
	EvaluationsInFlight.Inc()
}

// FinishEvaluation records the terminal outcome of an evaluation.
func FinishEvaluation(outcome string) {
	EvaluationsInFlight.Dec()
	EvaluationsTotal.WithLabelValues(outcome).Inc()
}

// ObserveEvaluation records the decision and score of a structurally valid evaluation.
func ObserveEvaluation(decision string, atsScore float64) {
	DecisionsTotal.WithLabelValues(decision).Inc()
	if atsScore >= 0 && atsScore <= 100 {
		ATSScoreHistogram.Observe(atsScore)
	}
}

// ObserveExtraction records one file extraction.
func ObserveExtraction(extractor, format, outcome string, d time.Duration) {
	ExtractionsTotal.WithLabelValues(extractor, format, outcome).Inc()
	ExtractionDuration.WithLabelValues(extractor).Observe(d.Seconds())
}
