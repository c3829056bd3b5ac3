package usecase_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/fairyhunter13/ai-recruiter-evaluator/internal/adapter/ai"
	"github.com/fairyhunter13/ai-recruiter-evaluator/internal/domain"
	"github.com/fairyhunter13/ai-recruiter-evaluator/internal/domain/mocks"
	"github.com/fairyhunter13/ai-recruiter-evaluator/internal/usecase"
)

func validJSON(t *testing.T) string {
	t.Helper()
	doc := map[string]any{
		"decision":             "PASS",
		"ats_score":            82,
		"decision_summary":     "Meets the Go and Postgres requirements.",
		"detailed_explanation": strings.Repeat("The JD requires Go and PostgreSQL; the resume lists five years of both. ", 4),
		"strengths": []any{map[string]any{
			"title": "Go", "jd_reference": "Go", "resume_reference": "5 years Go", "explanation": "Core skill",
		}},
		"gaps": []any{},
		"keyword_analysis": map[string]any{
			"important_keywords_from_jd": []any{"Go", "PostgreSQL"},
			"clearly_present_in_resume":  []any{"Go", "PostgreSQL"},
			"weak_or_implicit_in_resume": []any{},
			"missing_from_resume":        []any{},
		},
		"improvement_suggestions": []any{map[string]any{
			"suggestion_title": "Quantify impact", "related_jd_requirement": "Ownership",
			"current_resume_state": "No metrics", "suggestion": "Add latency numbers", "note": "Wording only",
		}},
	}
	b, err := json.Marshal(doc)
	require.NoError(t, err)
	return string(b)
}

func request() domain.EvaluationRequest {
	return domain.EvaluationRequest{
		ResumeText:         "  Senior Go engineer, 5 years PostgreSQL  ",
		JobDescriptionText: "\nBackend engineer: Go, PostgreSQL\n",
	}
}

func TestEvaluate_FirstAttemptSucceeds(t *testing.T) {
	t.Parallel()
	client := &mocks.MockAIClient{}
	client.On("ChatJSON", mock.Anything, mock.Anything, mock.MatchedBy(func(user string) bool {
		return strings.Contains(user, "Senior Go engineer, 5 years PostgreSQL") &&
			strings.Contains(user, "Backend engineer: Go, PostgreSQL")
	})).Return("```json\n"+validJSON(t)+"\n```", nil).Once()

	svc := usecase.NewEvaluateService(client, ai.NewResponseCleaner())
	doc, err := svc.Evaluate(context.Background(), request())
	require.NoError(t, err)
	assert.Equal(t, "PASS", doc["decision"])

	ok, msg := svc.Validate(doc)
	assert.True(t, ok)
	assert.Equal(t, domain.ValidationOK, msg)
	client.AssertNumberOfCalls(t, "ChatJSON", 1)
}

func TestEvaluate_RetriesOnceOnParseFailure(t *testing.T) {
	t.Parallel()
	client := &mocks.MockAIClient{}
	client.On("ChatJSON", mock.Anything, mock.Anything, mock.Anything).Return("Sorry, here is my answer: decision PASS", nil).Once()
	client.On("ChatJSON", mock.Anything, mock.Anything, mock.Anything).Return(validJSON(t), nil).Once()

	svc := usecase.NewEvaluateService(client, ai.NewResponseCleaner())
	doc, err := svc.Evaluate(context.Background(), request())
	require.NoError(t, err)
	ok, msg := domain.ValidateDocument(doc)
	assert.True(t, ok, msg)
	client.AssertNumberOfCalls(t, "ChatJSON", 2)
}

func TestEvaluate_TerminalFailureAfterTwoAttempts(t *testing.T) {
	t.Parallel()
	client := &mocks.MockAIClient{}
	client.On("ChatJSON", mock.Anything, mock.Anything, mock.Anything).Return("not json at all", nil).Once()
	client.On("ChatJSON", mock.Anything, mock.Anything, mock.Anything).Return(`{"decision": "PASS",`, nil).Once()

	svc := usecase.NewEvaluateService(client, ai.NewResponseCleaner())
	doc, err := svc.Evaluate(context.Background(), request())
	require.Error(t, err)
	assert.Nil(t, doc)
	client.AssertNumberOfCalls(t, "ChatJSON", 2)

	assert.ErrorIs(t, err, domain.ErrEvaluationFailed)
	assert.ErrorIs(t, err, domain.ErrParse)
	var failed *domain.EvaluationFailedError
	require.True(t, errors.As(err, &failed))
	require.Len(t, failed.Attempts, 2)
	assert.Contains(t, err.Error(), "AI failed to return valid JSON")
	assert.Contains(t, err.Error(), "attempt 1:")
	assert.Contains(t, err.Error(), "not json at all")
	assert.Contains(t, err.Error(), "attempt 2:")
	assert.Contains(t, err.Error(), `{\"decision\": \"PASS\",`)
}

func TestEvaluate_TransportErrorNotRetried(t *testing.T) {
	t.Parallel()
	transport := fmt.Errorf("%w: %w: chat status 429", domain.ErrTransport, domain.ErrUpstreamRateLimit)
	client := &mocks.MockAIClient{}
	client.On("ChatJSON", mock.Anything, mock.Anything, mock.Anything).Return("", transport).Once()

	svc := usecase.NewEvaluateService(client, ai.NewResponseCleaner())
	_, err := svc.Evaluate(context.Background(), request())
	require.Error(t, err)
	assert.Same(t, transport, err, "transport errors propagate as-is")
	assert.NotErrorIs(t, err, domain.ErrEvaluationFailed)
	client.AssertNumberOfCalls(t, "ChatJSON", 1)
}

func TestEvaluate_TransportErrorOnRetryPropagates(t *testing.T) {
	t.Parallel()
	timeout := fmt.Errorf("%w: %w: deadline", domain.ErrTransport, domain.ErrUpstreamTimeout)
	client := &mocks.MockAIClient{}
	client.On("ChatJSON", mock.Anything, mock.Anything, mock.Anything).Return("garbage", nil).Once()
	client.On("ChatJSON", mock.Anything, mock.Anything, mock.Anything).Return("", timeout).Once()

	svc := usecase.NewEvaluateService(client, ai.NewResponseCleaner())
	_, err := svc.Evaluate(context.Background(), request())
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrUpstreamTimeout)
	assert.NotErrorIs(t, err, domain.ErrEvaluationFailed)
	client.AssertNumberOfCalls(t, "ChatJSON", 2)
}

func TestEvaluate_ParserErrorsAlwaysCountAsParseFailures(t *testing.T) {
	t.Parallel()
	client := &mocks.MockAIClient{}
	client.On("ChatJSON", mock.Anything, mock.Anything, mock.Anything).Return("raw", nil).Twice()
	parser := &mocks.MockResponseParser{}
	parser.On("ParseJSONObject", "raw").Return(nil, errors.New("boom")).Twice()

	svc := usecase.NewEvaluateService(client, parser)
	_, err := svc.Evaluate(context.Background(), request())
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrEvaluationFailed)
	assert.ErrorIs(t, err, domain.ErrParse)
	client.AssertNumberOfCalls(t, "ChatJSON", 2)
	parser.AssertExpectations(t)
}

func TestEvaluate_InvalidDocumentIsReturnedForCallerToGate(t *testing.T) {
	t.Parallel()
	client := &mocks.MockAIClient{}
	client.On("ChatJSON", mock.Anything, mock.Anything, mock.Anything).Return(`{"decision": "MAYBE"}`, nil).Once()

	svc := usecase.NewEvaluateService(client, ai.NewResponseCleaner())
	doc, err := svc.Evaluate(context.Background(), request())
	require.NoError(t, err, "validation is not part of evaluate")
	ok, msg := svc.Validate(doc)
	assert.False(t, ok)
	assert.Equal(t, "Missing required field: 'ats_score'", msg)
	client.AssertNumberOfCalls(t, "ChatJSON", 1)
}

func TestEvaluate_InvalidArguments(t *testing.T) {
	t.Parallel()
	client := &mocks.MockAIClient{}
	svc := usecase.NewEvaluateService(client, ai.NewResponseCleaner())

	_, err := svc.Evaluate(context.Background(), domain.EvaluationRequest{ResumeText: "x", JobDescriptionText: "  "})
	assert.ErrorIs(t, err, domain.ErrInvalidArgument)

	_, err = usecase.EvaluateService{}.Evaluate(context.Background(), request())
	assert.ErrorIs(t, err, domain.ErrConfiguration)
	client.AssertNotCalled(t, "ChatJSON", mock.Anything, mock.Anything, mock.Anything)
}

func TestEvaluate_ContextDeadlineBetweenAttempts(t *testing.T) {
	t.Parallel()
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	client := &mocks.MockAIClient{}
	client.On("ChatJSON", mock.Anything, mock.Anything, mock.Anything).
		Run(func(mock.Arguments) { <-ctx.Done() }).
		Return("garbage", nil).Once()

	svc := usecase.NewEvaluateService(client, ai.NewResponseCleaner())
	_, err := svc.Evaluate(ctx, request())
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrTransport)
	assert.ErrorIs(t, err, domain.ErrUpstreamTimeout)
	client.AssertNumberOfCalls(t, "ChatJSON", 1)
}

func TestEvaluate_PromptsAreDeterministic(t *testing.T) {
	t.Parallel()
	var users []string
	client := &mocks.MockAIClient{}
	client.On("ChatJSON", mock.Anything, mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) { users = append(users, args.String(2)) }).
		Return(validJSON(t), nil).Twice()

	svc := usecase.NewEvaluateService(client, ai.NewResponseCleaner())
	_, err := svc.Evaluate(context.Background(), request())
	require.NoError(t, err)
	_, err = svc.Evaluate(context.Background(), request())
	require.NoError(t, err)
	require.Len(t, users, 2)
	assert.Equal(t, users[0], users[1])
}
