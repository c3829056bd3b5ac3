package httpserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/fairyhunter13/ai-recruiter-evaluator/internal/config"
	"github.com/fairyhunter13/ai-recruiter-evaluator/internal/domain"
	obsctx "github.com/fairyhunter13/ai-recruiter-evaluator/internal/observability"
	"github.com/fairyhunter13/ai-recruiter-evaluator/internal/report"
	"github.com/fairyhunter13/ai-recruiter-evaluator/internal/usecase"
)

// ReadinessCheck is one named dependency probe for /readyz.
type ReadinessCheck struct {
	Name  string
	Check func(ctx context.Context) error
}

// Server aggregates handlers dependencies.
type Server struct {
	Cfg       config.Config
	Evaluator usecase.EvaluateService
	Inputs    usecase.InputService
	Checks    []ReadinessCheck
}

// NewServer constructs an HTTP server with all handlers and checks wired.
func NewServer(cfg config.Config, eval usecase.EvaluateService, inputs usecase.InputService, checks ...ReadinessCheck) *Server {
	return &Server{Cfg: cfg, Evaluator: eval, Inputs: inputs, Checks: checks}
}

type validationResult struct {
	Valid   bool   `json:"valid"`
	Message string `json:"message"`
}

type evaluateResponse struct {
	ID             string           `json:"id"`
	Evaluation     domain.Document  `json:"evaluation"`
	Validation     validationResult `json:"validation"`
	ScoreBand      string           `json:"score_band,omitempty"`
	Recommendation string           `json:"recommendation,omitempty"`
}

// EvaluateHandler runs a synchronous evaluation from a JSON body.
func (s *Server) EvaluateHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !acceptsJSON(w, r) {
			return
		}
		r.Body = http.MaxBytesReader(w, r.Body, s.maxBodyBytes())
		var req evaluateRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			var mbe *http.MaxBytesError
			if errors.As(err, &mbe) {
				writePayloadTooLarge(w, mbe.Limit)
				return
			}
			writeError(w, r, fmt.Errorf("%w: invalid json", domain.ErrInvalidArgument), nil)
			return
		}
		if err := getValidator().Struct(req); err != nil {
			writeError(w, r, fmt.Errorf("%w: validation failed", domain.ErrInvalidArgument), validationDetails(err))
			return
		}
		s.evaluate(w, r, domain.EvaluationRequest{
			ResumeText:         req.ResumeText,
			JobDescriptionText: req.JobDescriptionText,
		}, req.Strict)
	}
}

// UploadEvaluateHandler runs a synchronous evaluation from a multipart form.
// Each side accepts a file ("resume", "job_description") and/or pasted text
// ("resume_text", "job_description_text"); a file takes precedence.
func (s *Server) UploadEvaluateHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !acceptsJSON(w, r) {
			return
		}
		limit := s.Cfg.MaxUploadMB << 20
		r.Body = http.MaxBytesReader(w, r.Body, limit)
		if err := r.ParseMultipartForm(limit); err != nil {
			var mbe *http.MaxBytesError
			if errors.As(err, &mbe) {
				writePayloadTooLarge(w, mbe.Limit)
				return
			}
			writeError(w, r, fmt.Errorf("%w: invalid multipart form", domain.ErrInvalidArgument), nil)
			return
		}
		defer func() { _ = r.MultipartForm.RemoveAll() }()

		resume, err := formSource(r, "resume")
		if err != nil {
			writeError(w, r, err, map[string]string{"field": "resume"})
			return
		}
		jd, err := formSource(r, "job_description")
		if err != nil {
			writeError(w, r, err, map[string]string{"field": "job_description"})
			return
		}
		req, err := s.Inputs.BuildRequest(r.Context(), resume, jd)
		if err != nil {
			writeError(w, r, err, nil)
			return
		}
		strict, _ := strconv.ParseBool(r.FormValue("strict"))
		s.evaluate(w, r, req, strict)
	}
}

// formSource reads the optional file part and text field for one input.
func formSource(r *http.Request, field string) (usecase.InputSource, error) {
	src := usecase.InputSource{Pasted: r.FormValue(field + "_text")}
	f, h, err := r.FormFile(field)
	if errors.Is(err, http.ErrMissingFile) {
		return src, nil
	}
	if err != nil {
		return src, fmt.Errorf("%w: %s: %v", domain.ErrInvalidArgument, field, err)
	}
	defer func(f multipart.File) { _ = f.Close() }(f)
	data, err := io.ReadAll(f)
	if err != nil {
		return src, fmt.Errorf("%w: %s read: %v", domain.ErrInvalidArgument, field, err)
	}
	src.FileName, src.Data = h.Filename, data
	return src, nil
}

func (s *Server) evaluate(w http.ResponseWriter, r *http.Request, req domain.EvaluationRequest, strict bool) {
	id := uuid.NewString()
	ctx := obsctx.ContextWithEvaluation(r.Context(), id)
	lg := obsctx.LoggerFromContext(ctx)
	start := time.Now()

	doc, err := s.Evaluator.Evaluate(ctx, req)
	if err != nil {
		writeError(w, r, err, evaluationErrorDetails(id, err))
		return
	}

	ok, msg := s.Evaluator.ValidateVerdict(doc)
	if !ok {
		lg.Warn("model document failed validation", slog.String("reason", msg), slog.Bool("strict", strict))
		if strict {
			writeError(w, r, fmt.Errorf("%w: %s", domain.ErrSchemaInvalid, msg), map[string]any{"id": id, "evaluation": doc})
			return
		}
	}

	resp := evaluateResponse{ID: id, Evaluation: doc, Validation: validationResult{Valid: ok, Message: msg}}
	if ok {
		if ev, err := domain.DecodeEvaluation(doc); err == nil {
			resp.ScoreBand = report.ScoreBand(ev.ATSScore)
			resp.Recommendation = report.Recommendation(ev.Decision)
		}
	}
	lg.Info("evaluation served", slog.Bool("valid", ok), slog.Duration("duration", time.Since(start)))
	writeJSON(w, http.StatusOK, resp)
}

func evaluationErrorDetails(id string, err error) map[string]any {
	details := map[string]any{"id": id}
	var failed *domain.EvaluationFailedError
	if errors.As(err, &failed) {
		attempts := make([]string, 0, len(failed.Attempts))
		for _, a := range failed.Attempts {
			attempts = append(attempts, a.Error())
		}
		details["attempts"] = attempts
	}
	return details
}

// ValidateHandler checks any JSON document against the evaluation schema.
// Decodable bodies always yield 200 with {valid, message}.
func (s *Server) ValidateHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, s.maxBodyBytes())
		var doc any
		if err := json.NewDecoder(r.Body).Decode(&doc); err != nil {
			var mbe *http.MaxBytesError
			if errors.As(err, &mbe) {
				writePayloadTooLarge(w, mbe.Limit)
				return
			}
			writeError(w, r, fmt.Errorf("%w: invalid json", domain.ErrInvalidArgument), nil)
			return
		}
		ok, msg := domain.ValidateDocument(doc)
		writeJSON(w, http.StatusOK, validationResult{Valid: ok, Message: msg})
	}
}

// HealthzHandler reports liveness.
func (s *Server) HealthzHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}

// ReadyzHandler runs every readiness check and answers 503 if any fails.
func (s *Server) ReadyzHandler() http.HandlerFunc {
	type check struct {
		Name    string `json:"name"`
		OK      bool   `json:"ok"`
		Details string `json:"details,omitempty"`
	}
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		checks := make([]check, 0, len(s.Checks))
		ready := true
		for _, c := range s.Checks {
			if err := c.Check(ctx); err != nil {
				ready = false
				checks = append(checks, check{Name: c.Name, OK: false, Details: err.Error()})
				continue
			}
			checks = append(checks, check{Name: c.Name, OK: true})
		}
		st := http.StatusOK
		if !ready {
			st = http.StatusServiceUnavailable
		}
		writeJSON(w, st, map[string]any{"checks": checks})
	}
}

func (s *Server) maxBodyBytes() int64 {
	if s.Cfg.MaxBodyKB <= 0 {
		return 512 << 10
	}
	return s.Cfg.MaxBodyKB << 10
}

// acceptsJSON enforces that the client can take a JSON response.
func acceptsJSON(w http.ResponseWriter, r *http.Request) bool {
	a := r.Header.Get("Accept")
	if a == "" || strings.Contains(a, "*/*") || strings.Contains(a, "application/json") || strings.Contains(a, "application/*") {
		return true
	}
	writeJSON(w, http.StatusNotAcceptable, errorEnvelope{Error: apiError{
		Code: "INVALID_ARGUMENT", Message: "not acceptable", Details: map[string]string{"accept": a},
	}})
	return false
}

func writePayloadTooLarge(w http.ResponseWriter, limit int64) {
	writeJSON(w, http.StatusRequestEntityTooLarge, errorEnvelope{Error: apiError{
		Code: "INVALID_ARGUMENT", Message: "payload too large", Details: map[string]int64{"limit_bytes": limit},
	}})
}
