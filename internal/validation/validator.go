package validation

import (
	"fmt"
	"reflect"
	"strings"

	"spendwise/internal/models"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

// Validator wraps go-playground/validator with the ledger tags. It satisfies
// echo.Validator.
type Validator struct {
	validate *validator.Validate
}

// NewValidator creates a new validator instance with custom rules and configuration
func NewValidator() *Validator {
	v := validator.New()

	_ = v.RegisterValidation("category", validateCategory)
	_ = v.RegisterValidation("importance", validateImportance)
	_ = v.RegisterValidation("positive_amount", validatePositiveAmount)
	_ = v.RegisterValidation("month", validateMonth)

	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	return &Validator{validate: v}
}

// Struct validates a request DTO
func (v *Validator) Struct(s interface{}) error {
	return v.validate.Struct(s)
}

// Validate is the echo.Validator hook used by c.Validate
func (v *Validator) Validate(i interface{}) error {
	return v.Struct(i)
}

// FormatErrors turns validator errors into "field: reason" details.
// Errors of any other type are returned as a single detail.
func FormatErrors(err error) []string {
	validationErrors, ok := err.(validator.ValidationErrors)
	if !ok {
		return []string{err.Error()}
	}

	details := make([]string, 0, len(validationErrors))
	for _, fe := range validationErrors {
		details = append(details, fmt.Sprintf("%s: %s", fe.Field(), describe(fe)))
	}
	return details
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email address"
	case "min":
		return fmt.Sprintf("must be at least %s characters", fe.Param())
	case "max":
		return fmt.Sprintf("must be at most %s characters", fe.Param())
	case "oneof":
		return fmt.Sprintf("must be one of [%s]", fe.Param())
	case "uuid":
		return "must be a valid UUID"
	case "category":
		return "must be a known category"
	case "importance":
		return "must be one of [necessary important optional wasteful]"
	case "positive_amount":
		return "must be greater than 0"
	case "month":
		return "must be between 1 and 12"
	default:
		return fmt.Sprintf("failed %s validation", fe.Tag())
	}
}

// Custom validation functions

// validateCategory accepts only labels of the closed category set
func validateCategory(fl validator.FieldLevel) bool {
	_, err := models.ParseCategory(fl.Field().String())
	return err == nil
}

func validateImportance(fl validator.FieldLevel) bool {
	_, err := models.ParseImportance(fl.Field().String())
	return err == nil
}

// validatePositiveAmount validates that an amount is greater than 0.
// decimal.Decimal fields are checked through their exported value.
func validatePositiveAmount(fl validator.FieldLevel) bool {
	field := fl.Field()
	if field.CanInterface() {
		switch amount := field.Interface().(type) {
		case decimal.Decimal:
			return amount.IsPositive()
		case *decimal.Decimal:
			return amount != nil && amount.IsPositive()
		}
	}

	switch field.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return field.Int() > 0
	case reflect.Float32, reflect.Float64:
		return field.Float() > 0
	default:
		return false
	}
}

// validateMonth accepts calendar month numbers 1..12
func validateMonth(fl validator.FieldLevel) bool {
	switch fl.Field().Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		month := fl.Field().Int()
		return month >= 1 && month <= 12
	default:
		return false
	}
}
