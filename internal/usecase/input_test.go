package usecase_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/fairyhunter13/ai-recruiter-evaluator/internal/domain"
	"github.com/fairyhunter13/ai-recruiter-evaluator/internal/domain/mocks"
	"github.com/fairyhunter13/ai-recruiter-evaluator/internal/usecase"
)

func TestResolveInput(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		file   string
		pasted string
		want   string
	}{
		{"file_wins", "from file", "from paste", "from file"},
		{"blank_file_falls_back", "  \n\t", "  from paste  ", "from paste"},
		{"empty_both", "", "   ", ""},
		{"control_chars_removed", "ab\x00c", "", "abc"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, usecase.ResolveInput(tt.file, tt.pasted))
		})
	}
}

func TestInputService_ResolveFilePrecedence(t *testing.T) {
	t.Parallel()

	x := &mocks.MockTextExtractor{}
	x.On("Extract", mock.Anything, "cv.pdf", []byte("%PDF")).Return("Extracted resume", nil).Once()

	svc := usecase.NewInputService(x)
	got, err := svc.Resolve(context.Background(), usecase.InputSource{FileName: "cv.pdf", Data: []byte("%PDF"), Pasted: "pasted"})
	require.NoError(t, err)
	assert.Equal(t, "Extracted resume", got)
	x.AssertExpectations(t)
}

func TestInputService_ResolvePastedWithoutFile(t *testing.T) {
	t.Parallel()

	x := &mocks.MockTextExtractor{}
	svc := usecase.NewInputService(x)
	got, err := svc.Resolve(context.Background(), usecase.InputSource{Pasted: " pasted jd "})
	require.NoError(t, err)
	assert.Equal(t, "pasted jd", got)
	x.AssertNotCalled(t, "Extract", mock.Anything, mock.Anything, mock.Anything)
}

func TestInputService_ResolveErrors(t *testing.T) {
	t.Parallel()

	unsupported := errors.New("unsupported file type")
	x := &mocks.MockTextExtractor{}
	x.On("Extract", mock.Anything, "cv.exe", mock.Anything).Return("", unsupported).Once()

	_, err := usecase.NewInputService(x).Resolve(context.Background(), usecase.InputSource{FileName: "cv.exe", Data: []byte{1}})
	require.Error(t, err)
	assert.ErrorIs(t, err, unsupported)
	assert.Contains(t, err.Error(), "cv.exe")

	_, err = usecase.NewInputService(nil).Resolve(context.Background(), usecase.InputSource{FileName: "cv.pdf", Data: []byte{1}})
	assert.ErrorIs(t, err, domain.ErrInvalidArgument)
}

func TestInputService_BuildRequest(t *testing.T) {
	t.Parallel()

	x := &mocks.MockTextExtractor{}
	x.On("Extract", mock.Anything, "jd.txt", []byte("jd bytes")).Return("Backend role", nil).Once()
	svc := usecase.NewInputService(x)

	req, err := svc.BuildRequest(context.Background(),
		usecase.InputSource{Pasted: "Go engineer"},
		usecase.InputSource{FileName: "jd.txt", Data: []byte("jd bytes")})
	require.NoError(t, err)
	assert.Equal(t, domain.EvaluationRequest{ResumeText: "Go engineer", JobDescriptionText: "Backend role"}, req)

	_, err = svc.BuildRequest(context.Background(), usecase.InputSource{Pasted: "Go engineer"}, usecase.InputSource{})
	assert.ErrorIs(t, err, domain.ErrInvalidArgument)
	assert.Contains(t, err.Error(), "job description")
}
