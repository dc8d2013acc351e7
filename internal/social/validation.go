package social

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/snapgram/backend/internal/models"
)

// MaxTextLength bounds usernames, profile fields, comments, messages and notifications.
const MaxTextLength = 250

// MaxStoryDuration is the longest story lifetime in seconds. It fits the
// INTEGER duration column and keeps CreatedAt plus the duration representable.
const MaxStoryDuration = math.MaxInt32

var validate = validator.New()

type commentInput struct {
	Text string `validate:"max=250"`
}

type messageInput struct {
	Content string `validate:"max=250"`
}

type notificationInput struct {
	Content string `validate:"max=250"`
}

// validateStruct runs the struct's validation tags and reports the first
// failing field as a *ValidationError.
func validateStruct(s any) error {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
		e := fieldErrs[0]
		return &ValidationError{Field: strings.ToLower(e.Field()), Reason: formatFieldError(e)}
	}
	return fmt.Errorf("validate input: %w", err)
}

func formatFieldError(e validator.FieldError) string {
	switch e.Tag() {
	case "required":
		return "is required"
	case "max":
		return fmt.Sprintf("must be at most %s characters", e.Param())
	case "email":
		return "must be a valid email"
	default:
		return "is invalid"
	}
}

func validateMediaType(t models.MediaType) error {
	if !t.Valid() {
		return &ValidationError{Field: "type", Reason: "must be one of image, video"}
	}
	return nil
}

func validateDuration(seconds int) error {
	if seconds <= 0 {
		return &ValidationError{Field: "duration", Reason: "must be positive"}
	}
	if seconds > MaxStoryDuration {
		return &ValidationError{Field: "duration", Reason: fmt.Sprintf("must be at most %d seconds", MaxStoryDuration)}
	}
	return nil
}
