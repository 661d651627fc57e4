// internal/common/validation/request.go
package validation

import (
	"errors"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"

	"venue-recommender/internal/models"
)

var (
	once     sync.Once
	validate *validator.Validate
)

// Validator returns the shared struct validator. Field names in reported
// errors follow the json tags.
func Validator() *validator.Validate {
	once.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			return name
		})
		validate.RegisterStructValidation(coordinatesPair, models.RecommendationRequest{})
	})
	return validate
}

// latitude and longitude only make sense together.
func coordinatesPair(sl validator.StructLevel) {
	req := sl.Current().Interface().(models.RecommendationRequest)
	if (req.Latitude == nil) != (req.Longitude == nil) {
		if req.Latitude == nil {
			sl.ReportError(req.Latitude, "latitude", "Latitude", "required_with", "longitude")
		} else {
			sl.ReportError(req.Longitude, "longitude", "Longitude", "required_with", "latitude")
		}
	}
}

// ValidateStruct runs the tag rules of s and reports every failure.
func ValidateStruct(s interface{}) *ValidationResult {
	err := Validator().Struct(s)
	if err == nil {
		return &ValidationResult{Valid: true}
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return &ValidationResult{
			Valid:  false,
			Errors: []ValidationError{{Field: "(root)", Message: err.Error(), Code: "INVALID"}},
		}
	}

	out := make([]ValidationError, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		out = append(out, ValidationError{
			Field:   fe.Field(),
			Message: describe(fe),
			Code:    strings.ToUpper(fe.Tag()),
		})
	}
	return &ValidationResult{Valid: false, Errors: out}
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "min", "gte":
		return "must be at least " + fe.Param()
	case "max", "lte":
		return "must be at most " + fe.Param()
	case "gt":
		return "must be greater than " + fe.Param()
	case "required_with":
		return "must be given together with " + fe.Param()
	default:
		return "failed " + fe.Tag() + " validation"
	}
}
