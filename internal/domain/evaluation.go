package domain

import (
	"encoding/json"
	"fmt"
)

// Evaluation is a typed, read-only view of a validated Document used for
// presentation and metrics. The Document stays the authoritative result.
type Evaluation struct {
	Decision               string                  `json:"decision" yaml:"decision"`
	ATSScore               float64                 `json:"ats_score" yaml:"ats_score"`
	DecisionSummary        string                  `json:"decision_summary" yaml:"decision_summary"`
	DetailedExplanation    string                  `json:"detailed_explanation" yaml:"detailed_explanation"`
	Strengths              []Strength              `json:"strengths" yaml:"strengths"`
	Gaps                   []Gap                   `json:"gaps" yaml:"gaps"`
	KeywordAnalysis        KeywordAnalysis         `json:"keyword_analysis" yaml:"keyword_analysis"`
	ImprovementSuggestions []ImprovementSuggestion `json:"improvement_suggestions" yaml:"improvement_suggestions"`
}

// Strength is a JD requirement the resume satisfies.
type Strength struct {
	Title           string `json:"title" yaml:"title"`
	JDReference     string `json:"jd_reference" yaml:"jd_reference"`
	ResumeReference string `json:"resume_reference" yaml:"resume_reference"`
	Explanation     string `json:"explanation" yaml:"explanation"`
}

// Gap is a JD requirement the resume misses or only weakly covers.
type Gap struct {
	Title           string `json:"title" yaml:"title"`
	JDReference     string `json:"jd_reference" yaml:"jd_reference"`
	ResumeReference string `json:"resume_reference" yaml:"resume_reference"`
	Impact          string `json:"impact" yaml:"impact"`
}

// KeywordAnalysis groups the JD keywords by how the resume covers them.
type KeywordAnalysis struct {
	ImportantKeywordsFromJD []string `json:"important_keywords_from_jd" yaml:"important_keywords_from_jd"`
	ClearlyPresentInResume  []string `json:"clearly_present_in_resume" yaml:"clearly_present_in_resume"`
	WeakOrImplicitInResume  []string `json:"weak_or_implicit_in_resume" yaml:"weak_or_implicit_in_resume"`
	MissingFromResume       []string `json:"missing_from_resume" yaml:"missing_from_resume"`
}

// ImprovementSuggestion is one piece of coaching advice.
type ImprovementSuggestion struct {
	SuggestionTitle      string `json:"suggestion_title" yaml:"suggestion_title"`
	RelatedJDRequirement string `json:"related_jd_requirement" yaml:"related_jd_requirement"`
	CurrentResumeState   string `json:"current_resume_state" yaml:"current_resume_state"`
	Suggestion           string `json:"suggestion" yaml:"suggestion"`
	Note                 string `json:"note" yaml:"note"`
}

// DecodeEvaluation validates doc and converts it into an Evaluation.
// Inner record fields that are missing decode as empty strings; inner values
// of the wrong type are reported as ErrSchemaInvalid.
func DecodeEvaluation(doc Document) (Evaluation, error) {
	if ok, msg := ValidateDocument(doc); !ok {
		return Evaluation{}, fmt.Errorf("%w: %s", ErrSchemaInvalid, msg)
	}
	b, err := json.Marshal(doc)
	if err != nil {
		return Evaluation{}, fmt.Errorf("op=domain.DecodeEvaluation: %w", err)
	}
	var ev Evaluation
	if err := json.Unmarshal(b, &ev); err != nil {
		return Evaluation{}, fmt.Errorf("%w: %v", ErrSchemaInvalid, err)
	}
	return ev, nil
}
