package apperror_test

import (
	"errors"
	"testing"

	"go-leave/internal/shared/apperror"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
)

type decisionPayload struct {
	Action        string `validate:"required,oneof=approve reject"`
	LeaveTypeID   int    `validate:"required"`
	EffectiveDate string `validate:"datetime=2006-01-02"`
}

func TestMapValidationError(t *testing.T) {
	v := validator.New()

	t.Run("required field", func(t *testing.T) {
		err := v.Struct(decisionPayload{Action: "approve", EffectiveDate: "2025-01-01"})

		appErr := apperror.MapValidationError(err)

		assert.Equal(t, apperror.CodeInvalidInput, appErr.Code)
		assert.Equal(t, "Leavetypeid is required", appErr.Message)
	})

	t.Run("invalid field", func(t *testing.T) {
		err := v.Struct(decisionPayload{Action: "escalate", LeaveTypeID: 1, EffectiveDate: "2025-01-01"})

		appErr := apperror.MapValidationError(err)

		assert.Equal(t, "Action is invalid", appErr.Message)
	})

	t.Run("non validator error", func(t *testing.T) {
		appErr := apperror.MapValidationError(errors.New("unexpected EOF"))

		assert.Equal(t, "Invalid input", appErr.Message)
	})
}
