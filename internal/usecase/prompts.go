package usecase

import (
	"strings"
)

// Prompts is the message pair sent to the model for one evaluation.
type Prompts struct {
	System string
	User   string
}

// recruiterSystemPrompt fixes the persona and the behavioral rules the
// evaluation must follow.
const recruiterSystemPrompt = `You are a senior technical recruiter deciding whether a candidate's resume fits one specific job description.

Explain your decision the way an experienced human recruiter would explain it to a hiring manager.

RULES (NON-NEGOTIABLE):
1. Show that you read BOTH documents: reference concrete job description requirements AND concrete resume content.
2. Justify the PASS, BORDERLINE, or REJECT decision with evidence from the two documents.
3. Do NOT invent or assume experience, skills, or achievements that the resume does not state.
4. When the resume does not mention something the job description requires, say so explicitly.
5. Do NOT use qualitative claims such as "good fit" or "strong background" without the evidence behind them.

OUTPUT:
Respond with one valid JSON object that follows the structure given in the user message.`

// recruiterUserPrompt is rendered with the job description and resume text.
// The schema block lists every field the response validator checks.
const recruiterUserPrompt = `JOB DESCRIPTION:
================
{{job_description}}

RESUME:
=======
{{resume}}

TASK:
-----
Evaluate the resume against the job description as a recruiter would.
- Compare each important requirement with what the resume actually states.
- Separate full matches, partial matches and missing requirements.
- Ground every judgment in visible resume or job description content.

OUTPUT FORMAT:
--------------
Return raw JSON only, without markdown code fences, using exactly this structure:

{
  "decision": "PASS | BORDERLINE | REJECT",
  "ats_score": number from 0 to 100,
  "decision_summary": "One or two sentences summarizing the decision",
  "detailed_explanation": "A structured explanation of at least 200 characters that cites specific JD requirements and resume evidence",
  "strengths": [
    {
      "title": "Strength title",
      "jd_reference": "Requirement quoted or paraphrased from the JD",
      "resume_reference": "Supporting evidence from the resume",
      "explanation": "Why it matters for this role"
    }
  ],
  "gaps": [
    {
      "title": "Gap title",
      "jd_reference": "Requirement from the JD",
      "resume_reference": "Missing or weak evidence in the resume",
      "impact": "Why it matters for this role"
    }
  ],
  "keyword_analysis": {
    "important_keywords_from_jd": ["keyword"],
    "clearly_present_in_resume": ["keyword"],
    "weak_or_implicit_in_resume": ["keyword"],
    "missing_from_resume": ["keyword"]
  },
  "improvement_suggestions": [
    {
      "suggestion_title": "Specific, actionable advice",
      "related_jd_requirement": "The JD requirement it addresses",
      "current_resume_state": "What the resume shows today",
      "suggestion": "What the candidate should learn, add, or change",
      "note": "Whether this needs a new project or skill, or only better wording"
    }
  ]
}

IMPROVEMENT SUGGESTIONS:
- Give at least 3 distinct suggestions for every candidate, including PASS.
- For REJECT or BORDERLINE, focus on missing critical skills, projects or experience.
- For PASS, focus on reaching a perfect score: nice-to-have JD skills, quantified achievements, clearer keywords.
- Never return an empty list.

CONSTRAINTS:
- If there are no strengths, return an empty "strengths" list.
- Do not fabricate content.
- Every major claim must be traceable to the resume or the job description.`

// BuildPrompts renders the system and user messages for one evaluation.
// Inputs are trimmed and interpolated verbatim; the result depends only on them.
func BuildPrompts(resumeText, jobDescriptionText string) Prompts {
	r := strings.NewReplacer(
		"{{job_description}}", strings.TrimSpace(jobDescriptionText),
		"{{resume}}", strings.TrimSpace(resumeText),
	)
	return Prompts{
		System: recruiterSystemPrompt,
		User:   r.Replace(recruiterUserPrompt),
	}
}
