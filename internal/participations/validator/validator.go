package validator

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	"webinars/pkg/logger"
	"webinars/pkg/model"
)

const maxIDLength = 128

type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (v ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", v.Field, v.Message)
}

type ValidationErrors []ValidationError

func (v ValidationErrors) Error() string {
	if len(v) == 0 {
		return ""
	}
	var messages []string
	for _, err := range v {
		messages = append(messages, err.Error())
	}
	return fmt.Sprintf("validation failed: %d error(s): [%s]", len(v), strings.Join(messages, "; "))
}

type ParticipationValidator struct {
	validate *validator.Validate
	logger   *logger.Logger
}

func NewParticipationValidator(log *logger.Logger) *ParticipationValidator {
	v := validator.New()

	if err := v.RegisterValidation("notblank", validateNotBlank); err != nil {
		log.Fatal("Failed to register 'notblank' validator", "error", err)
	}

	return &ParticipationValidator{
		validate: v,
		logger:   log,
	}
}

func validateNotBlank(fl validator.FieldLevel) bool {
	return strings.TrimSpace(fl.Field().String()) != ""
}

// ValidateBooking checks what must hold before the webinar is looked up: a
// user to book for and a usable webinar id. The user id is checked separately
// with ValidateUserID once the webinar is known to exist.
func (v *ParticipationValidator) ValidateBooking(webinarID string, user *model.User) error {
	if user == nil {
		return ValidationErrors{{Field: "User", Message: "User is required"}}
	}
	return v.ValidateWebinarID(webinarID)
}

func (v *ParticipationValidator) ValidateWebinarID(webinarID string) error {
	return validateID("WebinarID", webinarID)
}

func (v *ParticipationValidator) ValidateUserID(userID string) error {
	return validateID("UserID", userID)
}

func validateID(field, id string) error {
	if strings.TrimSpace(id) == "" {
		return ValidationErrors{{Field: field, Message: field + " is required"}}
	}
	if len(id) > maxIDLength {
		return ValidationErrors{{Field: field, Message: fmt.Sprintf("%s must be at most %d", field, maxIDLength)}}
	}
	return nil
}

func (v *ParticipationValidator) ValidateRequest(req *model.ParticipationRequest) error {
	if req == nil {
		return ValidationErrors{{Field: "Body", Message: "request body is required"}}
	}
	return v.validateStruct(req)
}

func (v *ParticipationValidator) ValidateEmail(email *model.Email) error {
	return v.validateStruct(email)
}

func (v *ParticipationValidator) validateStruct(s any) error {
	if err := v.validate.Struct(s); err != nil {
		var validationErrs validator.ValidationErrors
		if errors.As(err, &validationErrs) {
			return v.translateValidationErrors(validationErrs)
		}
		return err
	}
	return nil
}

func (v *ParticipationValidator) translateValidationErrors(errs validator.ValidationErrors) ValidationErrors {
	var validationErrors ValidationErrors

	for _, err := range errs {
		message := err.Error()

		switch err.Tag() {
		case "required", "notblank":
			message = fmt.Sprintf("%s is required", err.Field())
		case "min":
			message = fmt.Sprintf("%s must be at least %s", err.Field(), err.Param())
		case "max":
			message = fmt.Sprintf("%s must be at most %s", err.Field(), err.Param())
		case "email":
			message = fmt.Sprintf("%s must be a valid email address", err.Field())
		}

		validationErrors = append(validationErrors, ValidationError{
			Field:   err.Field(),
			Message: message,
		})
	}

	return validationErrors
}
