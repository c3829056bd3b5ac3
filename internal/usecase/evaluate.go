// Package usecase contains application business logic services.
package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	backoff "github.com/cenkalti/backoff/v4"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/fairyhunter13/ai-recruiter-evaluator/internal/adapter/observability"
	"github.com/fairyhunter13/ai-recruiter-evaluator/internal/domain"
	obsctx "github.com/fairyhunter13/ai-recruiter-evaluator/internal/observability"
)

// MaxModelAttempts is the number of model calls one evaluation may make:
// the initial call plus a single retry on unparseable output.
const MaxModelAttempts = 2

// EvaluateService runs the prompt, invoke, normalize pipeline with one retry.
type EvaluateService struct {
	AI     domain.AIClient
	Parser domain.ResponseParser
}

// NewEvaluateService constructs an EvaluateService with its dependencies.
func NewEvaluateService(ai domain.AIClient, parser domain.ResponseParser) EvaluateService {
	return EvaluateService{AI: ai, Parser: parser}
}

// Evaluate builds the prompts, calls the model and normalizes its output.
// Unparseable output triggers exactly one more model call; a second parse
// failure returns *domain.EvaluationFailedError holding both failures.
// Transport and configuration errors are returned immediately, never retried.
// The returned document is not validated; use Validate before trusting it.
func (s EvaluateService) Evaluate(ctx domain.Context, req domain.EvaluationRequest) (domain.Document, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	if s.AI == nil || s.Parser == nil {
		return nil, fmt.Errorf("%w: op=usecase.Evaluate: evaluator not configured", domain.ErrConfiguration)
	}

	ctx, span := observability.Tracer().Start(ctx, "usecase.Evaluate")
	defer span.End()

	lg := obsctx.LoggerFromContext(ctx)
	start := time.Now()
	observability.StartEvaluation()

	prompts := BuildPrompts(req.ResumeText, req.JobDescriptionText)

	var (
		attempt     int
		parseErrors []error
		doc         map[string]any
	)
	op := func() error {
		attempt++
		span.AddEvent("model.attempt", traceAttrs(attempt))
		raw, err := s.AI.ChatJSON(ctx, prompts.System, prompts.User)
		if err != nil {
			observability.ObserveAttempt(attempt, "error")
			return backoff.Permanent(err)
		}
		parsed, err := s.Parser.ParseJSONObject(raw)
		if err != nil {
			if !errors.Is(err, domain.ErrParse) {
				err = fmt.Errorf("%w: %w", domain.ErrParse, err)
			}
			parseErrors = append(parseErrors, err)
			observability.ObserveAttempt(attempt, "parse_error")
			lg.Warn("model output not parseable",
				slog.Int("attempt", attempt),
				slog.Int("output_len", len(raw)),
				slog.Any("error", err))
			return err
		}
		observability.ObserveAttempt(attempt, "ok")
		doc = parsed
		return nil
	}

	policy := backoff.WithContext(backoff.WithMaxRetries(&backoff.ZeroBackOff{}, MaxModelAttempts-1), ctx)
	err := backoff.Retry(op, policy)
	if err != nil {
		err = s.terminalError(ctx, err, parseErrors)
		outcome := outcomeOf(err)
		observability.FinishEvaluation(outcome)
		span.RecordError(err)
		span.SetStatus(codes.Error, outcome)
		lg.Error("evaluation failed",
			slog.String("outcome", outcome),
			slog.Int("attempts", attempt),
			slog.Duration("duration", time.Since(start)),
			slog.Any("error", err))
		return nil, err
	}

	observability.FinishEvaluation("completed")
	span.SetAttributes(attribute.Int("evaluation.attempts", attempt))
	lg.Info("evaluation completed",
		slog.Int("attempts", attempt),
		slog.Duration("duration", time.Since(start)))
	return domain.Document(doc), nil
}

// terminalError converts the retry loop result into the caller-facing error.
func (s EvaluateService) terminalError(ctx context.Context, err error, parseErrors []error) error {
	if len(parseErrors) >= MaxModelAttempts {
		return &domain.EvaluationFailedError{Attempts: parseErrors}
	}
	if ctxErr := ctx.Err(); ctxErr != nil && errors.Is(err, ctxErr) {
		if errors.Is(ctxErr, context.DeadlineExceeded) {
			return fmt.Errorf("%w: %w: %v", domain.ErrTransport, domain.ErrUpstreamTimeout, ctxErr)
		}
		return fmt.Errorf("%w: %v", domain.ErrTransport, ctxErr)
	}
	return err
}

// Validate is the structural gate callers apply before trusting a document.
// It records nothing; use ValidateVerdict for documents the model produced.
func (s EvaluateService) Validate(doc any) (bool, string) {
	return domain.ValidateDocument(doc)
}

// ValidateVerdict validates a document returned by Evaluate and, when it is
// valid, counts its decision and score.
func (s EvaluateService) ValidateVerdict(doc domain.Document) (bool, string) {
	ok, msg := domain.ValidateDocument(doc)
	if !ok {
		return ok, msg
	}
	if ev, err := domain.DecodeEvaluation(doc); err == nil {
		observability.ObserveEvaluation(ev.Decision, ev.ATSScore)
	}
	return ok, msg
}

func outcomeOf(err error) string {
	switch {
	case errors.Is(err, domain.ErrEvaluationFailed):
		return "evaluation_failed"
	case errors.Is(err, domain.ErrUpstreamTimeout):
		return "upstream_timeout"
	case errors.Is(err, domain.ErrUpstreamRateLimit):
		return "upstream_rate_limit"
	case errors.Is(err, domain.ErrTransport):
		return "transport_error"
	case errors.Is(err, domain.ErrConfiguration):
		return "configuration_error"
	default:
		return "error"
	}
}

func traceAttrs(attempt int) trace.EventOption {
	return trace.WithAttributes(attribute.Int("attempt", attempt))
}
