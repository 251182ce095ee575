package booking

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"time"

	"voctnow/models"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
)

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

// preferredTimeLayouts are the slot formats the booking form produces.
var preferredTimeLayouts = []string{"15:04", "3:04 PM", "03:04 PM"}

type BookingValidator struct {
	validate *validator.Validate
	logger   *zap.Logger
}

func NewBookingValidator(logger *zap.Logger) (*BookingValidator, error) {
	v := validator.New()
	// Report fields by their JSON names so errors match the request body.
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	if err := v.RegisterValidation("preferred_time", validatePreferredTime); err != nil {
		return nil, fmt.Errorf("register preferred_time validator: %w", err)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &BookingValidator{validate: v, logger: logger}, nil
}

func validatePreferredTime(fl validator.FieldLevel) bool {
	raw := strings.TrimSpace(fl.Field().String())
	for _, layout := range preferredTimeLayouts {
		if _, err := time.Parse(layout, raw); err == nil {
			return true
		}
	}
	return false
}

// Validate checks the intake payload and returns ValidationErrors on failure.
func (v *BookingValidator) Validate(in *models.BookingInput) error {
	err := v.validate.Struct(in)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	out := make(ValidationErrors, 0, len(verrs))
	for _, fe := range verrs {
		out = append(out, ValidationError{Field: fe.Field(), Message: messageFor(fe)})
	}
	v.logger.Debug("booking input rejected", zap.Int("errors", len(out)))
	return out
}

func messageFor(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email address"
	case "min":
		return fmt.Sprintf("must be at least %s", fe.Param())
	case "max":
		return fmt.Sprintf("must be at most %s", fe.Param())
	case "len":
		return fmt.Sprintf("must be exactly %s characters", fe.Param())
	case "numeric":
		return "must contain digits only"
	case "oneof":
		return fmt.Sprintf("must be one of [%s]", fe.Param())
	case "datetime":
		return fmt.Sprintf("must match format %s", fe.Param())
	case "preferred_time":
		return "must be a time like 14:30 or 2:30 PM"
	default:
		return fmt.Sprintf("failed %s validation", fe.Tag())
	}
}
