// Package stub provides a deterministic offline domain.AIClient for local
// development and end-to-end smoke tests. It performs no judgment: every call
// returns the same canned evaluation wrapped in a markdown fence, so the
// normalizer path is still exercised.
package stub

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/fairyhunter13/ai-recruiter-evaluator/internal/domain"
)

// Client returns a fixed, structurally valid evaluation.
type Client struct {
	// Latency simulates model response time.
	Latency time.Duration
}

var _ domain.AIClient = (*Client)(nil)

// New constructs a stub client with no artificial latency.
func New() *Client { return &Client{} }

// Provider returns the provider name used in metrics and logs.
func (c *Client) Provider() string { return "stub" }

// Model returns the model label reported for stub output.
func (c *Client) Model() string { return "stub" }

// ChatJSON returns the canned document unless ctx is done first.
func (c *Client) ChatJSON(ctx domain.Context, _ string, _ string) (string, error) {
	if c.Latency > 0 {
		select {
		case <-ctx.Done():
			return "", fmt.Errorf("%w: %w: %v", domain.ErrTransport, domain.ErrUpstreamTimeout, ctx.Err())
		case <-time.After(c.Latency):
		}
	}
	b, err := json.MarshalIndent(Document(), "", "  ")
	if err != nil {
		return "", fmt.Errorf("%w: stub marshal: %v", domain.ErrInternal, err)
	}
	return "```json\n" + string(b) + "\n```", nil
}

// Document is the canned evaluation served by the stub.
func Document() map[string]any {
	return map[string]any{
		"decision":         domain.DecisionBorderline,
		"ats_score":        62,
		"decision_summary": "Stub evaluation: core skills overlap but at least one JD requirement is not evidenced.",
		"detailed_explanation": strings.Join([]string{
			"This is a canned evaluation produced by the offline stub provider.",
			"It mirrors the structure of a real response so the dashboard, CLI and API can be exercised without credentials.",
			"No part of the submitted resume or job description was analysed to produce it.",
		}, " "),
		"strengths": []any{
			map[string]any{
				"title":            "Relevant primary stack",
				"jd_reference":     "Stub JD requirement",
				"resume_reference": "Stub resume evidence",
				"explanation":      "Placeholder strength returned by the stub provider.",
			},
		},
		"gaps": []any{
			map[string]any{
				"title":            "Unverified requirement",
				"jd_reference":     "Stub JD requirement",
				"resume_reference": "Not mentioned",
				"impact":           "Placeholder gap returned by the stub provider.",
			},
		},
		"keyword_analysis": map[string]any{
			"important_keywords_from_jd": []any{"stub"},
			"clearly_present_in_resume":  []any{"stub"},
			"weak_or_implicit_in_resume": []any{},
			"missing_from_resume":        []any{},
		},
		"improvement_suggestions": []any{
			map[string]any{
				"suggestion_title":       "Configure a real provider",
				"related_jd_requirement": "Stub JD requirement",
				"current_resume_state":   "Not evaluated",
				"suggestion":             "Set AI_PROVIDER to groq or gemini with a valid API key.",
				"note":                   "Stub output only.",
			},
		},
	}
}

// Ping always succeeds.
func (c *Client) Ping(domain.Context) error { return nil }
