// Package mocks holds testify mocks for the domain ports.
package mocks

import (
	"github.com/stretchr/testify/mock"

	"github.com/fairyhunter13/ai-recruiter-evaluator/internal/domain"
)

// MockAIClient is a mock of domain.AIClient.
type MockAIClient struct {
	mock.Mock
}

// ChatJSON records the call and returns the configured values.
func (m *MockAIClient) ChatJSON(ctx domain.Context, systemPrompt, userPrompt string) (string, error) {
	args := m.Called(ctx, systemPrompt, userPrompt)
	return args.String(0), args.Error(1)
}

// MockResponseParser is a mock of domain.ResponseParser.
type MockResponseParser struct {
	mock.Mock
}

// ParseJSONObject records the call and returns the configured values.
func (m *MockResponseParser) ParseJSONObject(raw string) (map[string]any, error) {
	args := m.Called(raw)
	var out map[string]any
	if v := args.Get(0); v != nil {
		out = v.(map[string]any)
	}
	return out, args.Error(1)
}

// MockTextExtractor is a mock of domain.TextExtractor.
type MockTextExtractor struct {
	mock.Mock
}

// Extract records the call and returns the configured values.
func (m *MockTextExtractor) Extract(ctx domain.Context, fileName string, data []byte) (string, error) {
	args := m.Called(ctx, fileName, data)
	return args.String(0), args.Error(1)
}
