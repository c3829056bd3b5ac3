package httpserver

import (
	"errors"
	"reflect"
	"regexp"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

// ValidationError represents a validation error
type ValidationError struct {
	Field   string `json:"field"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// evaluateRequest is the JSON body of POST /v1/evaluate.
type evaluateRequest struct {
	ResumeText         string `json:"resume_text" validate:"required,notblank"`
	JobDescriptionText string `json:"job_description_text" validate:"required,notblank"`
	// Strict turns a structurally invalid model document into a 503.
	Strict bool `json:"strict"`
}

var (
	vldOnce sync.Once
	vld     *validator.Validate
)

func getValidator() *validator.Validate {
	vldOnce.Do(func() {
		vld = validator.New(validator.WithRequiredStructEnabled())
		vld.RegisterTagNameFunc(func(f reflect.StructField) string {
			name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
			return name
		})
		_ = vld.RegisterValidation("notblank", func(fl validator.FieldLevel) bool {
			return strings.TrimSpace(fl.Field().String()) != ""
		})
	})
	return vld
}

// validationDetails converts validator errors into field-level details.
func validationDetails(err error) []ValidationError {
	var ve validator.ValidationErrors
	if !errors.As(err, &ve) {
		return nil
	}
	out := make([]ValidationError, 0, len(ve))
	for _, fe := range ve {
		out = append(out, ValidationError{
			Field:   fe.Field(),
			Code:    strings.ToUpper(fe.Tag()),
			Message: fe.Field() + " must not be empty",
		})
	}
	return out
}

var requestIDPattern = regexp.MustCompile(`^[A-Za-z0-9._:-]{1,128}$`)

// ValidRequestID reports whether a caller-supplied X-Request-Id is safe to
// echo back and log.
func ValidRequestID(id string) bool {
	return requestIDPattern.MatchString(id)
}
