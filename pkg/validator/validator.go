package validator

import (
	"context"
	"errors"
	"reflect"
	"regexp"
	"strings"
	"time"

	"github.com/go-playground/validator"

	"matchmaker/internal/model"
)

var (
	global *validator.Validate
	// "9:00 AM - 12:00 PM", "14:00 - 16:30" or a single start time.
	timeRangeRegex = regexp.MustCompile(`^\d{1,2}:\d{2}(\s?[AaPp][Mm])?(\s-\s\d{1,2}:\d{2}(\s?[AaPp][Mm])?)?$`)
)

const (
	ErrInvalidFormat      = "Invalid format"
	ErrFieldRequired      = "Field is required"
	ErrFieldExceedsMaxLen = "Field exceeds maximum length"
	ErrFieldBelowMinLen   = "Field is below minimum length"
	ErrFieldExceedsMaxVal = "Field exceeds maximum value"
	ErrFieldBelowMinVal   = "Field is below minimum value"
	ErrUnknownValidation  = "Unknown validation error"
)

func init() {
	SetValidator(New())
}

func New() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(jsonName)
	_ = v.RegisterValidation("category", validateCategory)
	_ = v.RegisterValidation("eventdate", validateEventDate)
	_ = v.RegisterValidation("timerange", validateTimeRange)
	_ = v.RegisterValidation("signuprole", validateSignupRole)
	return v
}

// jsonName reports fields by their JSON key so messages match the request body.
func jsonName(f reflect.StructField) string {
	name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
	if name == "-" || name == "" {
		return f.Name
	}
	return name
}

func SetValidator(v *validator.Validate) {
	global = v
}

func Validator() *validator.Validate {
	return global
}

func validateCategory(fl validator.FieldLevel) bool {
	return model.Category(fl.Field().String()).Valid()
}

func validateEventDate(fl validator.FieldLevel) bool {
	_, err := time.Parse(model.DateLayout, fl.Field().String())
	return err == nil
}

func validateTimeRange(fl validator.FieldLevel) bool {
	return timeRangeRegex.MatchString(fl.Field().String())
}

func validateSignupRole(fl validator.FieldLevel) bool {
	switch model.ParticipationRole(fl.Field().String()) {
	case model.ParticipationAttendee, model.ParticipationVolunteer:
		return true
	}
	return false
}

func Validate(ctx context.Context, structure any) error {
	return parseValidationErrors(Validator().StructCtx(ctx, structure))
}

func parseValidationErrors(err error) error {
	if err == nil {
		return nil
	}
	vErrors, ok := err.(validator.ValidationErrors)
	if !ok || len(vErrors) == 0 {
		return nil
	}
	ve := vErrors[0]
	var msg string
	switch ve.Tag() {
	case "email", "url", "timerange":
		msg = ErrInvalidFormat
	case "required":
		msg = ErrFieldRequired
	case "max":
		msg = ErrFieldExceedsMaxLen
	case "min":
		msg = ErrFieldBelowMinLen
	case "lt", "lte":
		msg = ErrFieldExceedsMaxVal
	case "gt", "gte":
		msg = ErrFieldBelowMinVal
	case "oneof":
		msg = "Value is not allowed"
	case "category":
		msg = "Unknown category"
	case "eventdate":
		msg = "Date must be YYYY-MM-DD"
	case "signuprole":
		msg = "Role must be attendee or volunteer"
	default:
		msg = ErrUnknownValidation
	}
	return errors.New(msg + ": " + ve.Field())
}
