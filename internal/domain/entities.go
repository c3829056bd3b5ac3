// Package domain holds the evaluation contract, error taxonomy and ports.
package domain

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// Error taxonomy (sentinels)
var (
	ErrInvalidArgument   = errors.New("invalid argument")
	ErrConfiguration     = errors.New("configuration error")
	ErrTransport         = errors.New("transport error")
	ErrUpstreamTimeout   = errors.New("upstream timeout")
	ErrUpstreamRateLimit = errors.New("upstream rate limit")
	ErrParse             = errors.New("parse error")
	ErrEvaluationFailed  = errors.New("evaluation failed")
	ErrSchemaInvalid     = errors.New("schema invalid")
	ErrInternal          = errors.New("internal error")
	ErrUnsupportedMedia  = errors.New("unsupported media type")
	ErrUnauthorized      = errors.New("unauthorized")
)

// Decision literals produced by the model.
const (
	DecisionPass       = "PASS"
	DecisionBorderline = "BORDERLINE"
	DecisionReject     = "REJECT"
)

// Decisions lists the accepted decision literals in display order.
var Decisions = []string{DecisionPass, DecisionBorderline, DecisionReject}

// EvaluationRequest is the caller input for one evaluation.
// Invariants: both texts non-empty after trimming; no length cap.
type EvaluationRequest struct {
	ResumeText         string
	JobDescriptionText string
}

// Validate checks that both texts are present.
func (r EvaluationRequest) Validate() error {
	if strings.TrimSpace(r.ResumeText) == "" {
		return fmt.Errorf("%w: resume text required", ErrInvalidArgument)
	}
	if strings.TrimSpace(r.JobDescriptionText) == "" {
		return fmt.Errorf("%w: job description text required", ErrInvalidArgument)
	}
	return nil
}

// Document is the normalized JSON object returned by the model.
// It is either accepted whole or rejected whole by ValidateDocument.
type Document map[string]any

// EvaluationFailedError is returned when both model attempts produced
// output that could not be parsed.
type EvaluationFailedError struct {
	Attempts []error
}

func (e *EvaluationFailedError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "AI failed to return valid JSON after %d attempts", len(e.Attempts))
	for i, err := range e.Attempts {
		fmt.Fprintf(&b, "; attempt %d: %v", i+1, err)
	}
	return b.String()
}

// Unwrap exposes ErrEvaluationFailed and the first attempt's failure.
func (e *EvaluationFailedError) Unwrap() []error {
	errs := []error{ErrEvaluationFailed}
	if len(e.Attempts) > 0 {
		errs = append(errs, e.Attempts[0])
	}
	return errs
}

// AIClient (port)
// The model service is an opaque oracle: one system prompt and one user
// prompt in, free-form text expected to hold a single JSON object out.
type AIClient interface {
	// ChatJSON issues exactly one completion request in JSON output mode.
	ChatJSON(ctx Context, systemPrompt, userPrompt string) (string, error)
}

// ResponseParser (port) turns raw model text into a normalized object.
type ResponseParser interface {
	ParseJSONObject(raw string) (map[string]any, error)
}

// TextExtractor (port)
// Extract returns plain text for an uploaded resume or job description.
type TextExtractor interface {
	Extract(ctx Context, fileName string, data []byte) (string, error)
}

// Context is an alias to keep ports free of a direct std context import at call sites.
type Context = context.Context
