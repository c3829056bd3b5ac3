package usecase

import (
	"fmt"
	"strings"

	"github.com/fairyhunter13/ai-recruiter-evaluator/internal/domain"
	"github.com/fairyhunter13/ai-recruiter-evaluator/pkg/textx"
)

// InputSource is one side of an evaluation as submitted: an optional uploaded
// file and optional pasted text.
type InputSource struct {
	FileName string
	Data     []byte
	Pasted   string
}

// InputService turns submitted sources into evaluation text.
type InputService struct {
	Extractor domain.TextExtractor
}

// NewInputService constructs an InputService with the given extractor.
func NewInputService(x domain.TextExtractor) InputService { return InputService{Extractor: x} }

// Resolve returns the text for one input. A non-empty uploaded file takes
// precedence over pasted text.
func (s InputService) Resolve(ctx domain.Context, src InputSource) (string, error) {
	var fileText string
	if len(src.Data) > 0 {
		if s.Extractor == nil {
			return "", fmt.Errorf("%w: file upload not supported", domain.ErrInvalidArgument)
		}
		t, err := s.Extractor.Extract(ctx, src.FileName, src.Data)
		if err != nil {
			return "", fmt.Errorf("op=usecase.Resolve: %s: %w", src.FileName, err)
		}
		fileText = t
	}
	return ResolveInput(fileText, src.Pasted), nil
}

// BuildRequest resolves both inputs and returns a validated request.
func (s InputService) BuildRequest(ctx domain.Context, resume, jobDescription InputSource) (domain.EvaluationRequest, error) {
	resumeText, err := s.Resolve(ctx, resume)
	if err != nil {
		return domain.EvaluationRequest{}, err
	}
	jdText, err := s.Resolve(ctx, jobDescription)
	if err != nil {
		return domain.EvaluationRequest{}, err
	}
	req := domain.EvaluationRequest{ResumeText: resumeText, JobDescriptionText: jdText}
	if err := req.Validate(); err != nil {
		return domain.EvaluationRequest{}, err
	}
	return req, nil
}

// ResolveInput picks extracted file text when present, else the pasted text.
// The result is sanitized and trimmed.
func ResolveInput(fileText, pastedText string) string {
	if t := textx.SanitizeText(fileText); t != "" {
		return t
	}
	return textx.SanitizeText(strings.TrimSpace(pastedText))
}
