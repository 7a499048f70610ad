package validator

import (
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	apperrors "github.com/SAP-F-2025/competency-assessment/internal/errors"
	"github.com/SAP-F-2025/competency-assessment/internal/models"
)

type (
	ValidationError  = apperrors.ValidationError
	ValidationErrors = apperrors.ValidationErrors
)

// Validator combines struct tag validation with the question rules.
type Validator struct {
	structValidator   *validator.Validate
	questionValidator *QuestionValidator
}

func New() *Validator {
	structValidator := validator.New(validator.WithRequiredStructEnabled())
	RegisterCustomValidators(structValidator)

	return &Validator{
		structValidator:   structValidator,
		questionValidator: NewQuestionValidator(),
	}
}

// ValidateStruct validates struct tags only
func (v *Validator) ValidateStruct(s interface{}) error {
	return v.structValidator.Struct(s)
}

// Validate validates struct tags and returns ValidationErrors on failure.
func (v *Validator) Validate(s interface{}) error {
	if err := v.ValidateStruct(s); err != nil {
		if errs := apperrors.ToValidationErrors(err); len(errs) > 0 {
			return errs
		}
		return err
	}
	return nil
}

// Engine exposes the underlying go-playground instance, e.g. for gin binding.
func (v *Validator) Engine() *validator.Validate {
	return v.structValidator
}

func (v *Validator) Question() *QuestionValidator {
	return v.questionValidator
}

// RegisterCustomValidators registers the domain tags and makes errors use
// json field names.
func RegisterCustomValidators(validate *validator.Validate) {
	validate.RegisterValidation("cefr_level", validateLevel)
	validate.RegisterValidation("assessment_step", validateStep)
	validate.RegisterValidation("user_role", validateUserRole)
	validate.RegisterValidation("nav_direction", validateDirection)

	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
}

func validateLevel(fl validator.FieldLevel) bool {
	return models.Level(fl.Field().String()).IsValid()
}

func validateStep(fl validator.FieldLevel) bool {
	switch fl.Field().Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return models.Step(fl.Field().Int()).IsValid()
	default:
		return false
	}
}

func validateUserRole(fl validator.FieldLevel) bool {
	switch models.UserRole(fl.Field().String()) {
	case models.RoleStudent, models.RoleAdmin, models.RoleSupervisor:
		return true
	}
	return false
}

func validateDirection(fl validator.FieldLevel) bool {
	v := fl.Field().String()
	return v == "next" || v == "previous"
}
