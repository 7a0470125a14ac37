package validator

import (
	"errors"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate *validator.Validate

func init() {
	validate = validator.New(validator.WithRequiredStructEnabled())
	UseJSONNames(validate)
}

// UseJSONNames makes v report fields by their JSON names, as clients send them.
func UseJSONNames(v *validator.Validate) {
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
}

func GetValidator() *validator.Validate {
	return validate
}

// Describe turns validation errors into a short message naming the offending fields.
func Describe(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err.Error()
	}

	parts := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		if fe.Param() != "" {
			parts = append(parts, fe.Field()+" failed "+fe.Tag()+"="+fe.Param())
		} else {
			parts = append(parts, fe.Field()+" failed "+fe.Tag())
		}
	}
	return strings.Join(parts, "; ")
}
