// Package report derives presentation values from a validated evaluation and
// renders it for humans or machines.
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/fairyhunter13/ai-recruiter-evaluator/internal/domain"
)

// Score bands.
const (
	BandStrong   = "strong"
	BandModerate = "moderate"
	BandWeak     = "weak"
)

// Output formats accepted by Render.
const (
	FormatText = "text"
	FormatJSON = "json"
	FormatYAML = "yaml"
)

// ScoreBand buckets an ATS score: strong at 75 and above, moderate at 50 and above.
func ScoreBand(score float64) string {
	switch {
	case score >= 75:
		return BandStrong
	case score >= 50:
		return BandModerate
	default:
		return BandWeak
	}
}

// Recommendation maps a decision literal to the hiring-manager action line.
// Unknown decisions yield an empty string.
func Recommendation(decision string) string {
	switch decision {
	case domain.DecisionPass:
		return "Strong Hire. Candidate meets core requirements."
	case domain.DecisionBorderline:
		return "Interview. Probe specifically on identified gaps."
	case domain.DecisionReject:
		return "Do Not Proceed. Significant skill mismatch."
	}
	return ""
}

// Summary is the machine-readable report: the evaluation plus derived values.
type Summary struct {
	Evaluation     domain.Evaluation `json:"evaluation" yaml:"evaluation"`
	ScoreBand      string            `json:"score_band" yaml:"score_band"`
	Recommendation string            `json:"recommendation" yaml:"recommendation"`
}

// Summarize attaches the derived values to ev.
func Summarize(ev domain.Evaluation) Summary {
	return Summary{
		Evaluation:     ev,
		ScoreBand:      ScoreBand(ev.ATSScore),
		Recommendation: Recommendation(ev.Decision),
	}
}

// Render writes ev to w in the requested format.
func Render(w io.Writer, ev domain.Evaluation, format string) error {
	s := Summarize(ev)
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "", FormatText:
		return renderText(w, s)
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(s)
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(s); err != nil {
			return fmt.Errorf("op=report.Render: %w", err)
		}
		return enc.Close()
	default:
		return fmt.Errorf("%w: unknown format %q", domain.ErrInvalidArgument, format)
	}
}

func renderText(w io.Writer, s Summary) error {
	ev := s.Evaluation
	var b strings.Builder
	fmt.Fprintf(&b, "Decision: %s\n", ev.Decision)
	fmt.Fprintf(&b, "ATS score: %.0f/100 (%s)\n", ev.ATSScore, s.ScoreBand)
	fmt.Fprintf(&b, "Recommendation: %s\n\n", s.Recommendation)
	fmt.Fprintf(&b, "Summary\n%s\n\n", ev.DecisionSummary)
	fmt.Fprintf(&b, "Explanation\n%s\n", ev.DetailedExplanation)

	b.WriteString("\nStrengths\n")
	if len(ev.Strengths) == 0 {
		b.WriteString("  (none)\n")
	}
	for _, st := range ev.Strengths {
		fmt.Fprintf(&b, "  + %s\n", st.Title)
		writeDetail(&b, "JD", st.JDReference)
		writeDetail(&b, "Resume", st.ResumeReference)
		writeDetail(&b, "Why", st.Explanation)
	}

	b.WriteString("\nGaps\n")
	if len(ev.Gaps) == 0 {
		b.WriteString("  (none)\n")
	}
	for _, g := range ev.Gaps {
		fmt.Fprintf(&b, "  - %s\n", g.Title)
		writeDetail(&b, "JD", g.JDReference)
		writeDetail(&b, "Resume", g.ResumeReference)
		writeDetail(&b, "Impact", g.Impact)
	}

	ka := ev.KeywordAnalysis
	b.WriteString("\nKeywords\n")
	writeKeywords(&b, "From JD", ka.ImportantKeywordsFromJD)
	writeKeywords(&b, "Present", ka.ClearlyPresentInResume)
	writeKeywords(&b, "Weak", ka.WeakOrImplicitInResume)
	writeKeywords(&b, "Missing", ka.MissingFromResume)

	b.WriteString("\nImprovement suggestions\n")
	for i, sg := range ev.ImprovementSuggestions {
		fmt.Fprintf(&b, "  %d. %s\n", i+1, sg.SuggestionTitle)
		writeDetail(&b, "Requirement", sg.RelatedJDRequirement)
		writeDetail(&b, "Today", sg.CurrentResumeState)
		writeDetail(&b, "Do", sg.Suggestion)
		writeDetail(&b, "Note", sg.Note)
	}

	_, err := io.WriteString(w, b.String())
	return err
}

func writeDetail(b *strings.Builder, label, value string) {
	if strings.TrimSpace(value) == "" {
		return
	}
	fmt.Fprintf(b, "      %s: %s\n", label, value)
}

func writeKeywords(b *strings.Builder, label string, kws []string) {
	v := "-"
	if len(kws) > 0 {
		v = strings.Join(kws, ", ")
	}
	fmt.Fprintf(b, "  %-8s %s\n", label+":", v)
}
