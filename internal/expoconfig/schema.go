package expoconfig

import (
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

// minimalAppConfig is the subset of the app config that every command relies
// on. JSON decoding enforces the field types; validator enforces presence.
type minimalAppConfig struct {
	Slug    string  `json:"slug" validate:"required"`
	Name    string  `json:"name" validate:"required"`
	Version *string `json:"version"`
	Android *struct {
		VersionCode *int `json:"versionCode"`
	} `json:"android"`
	IOS *struct {
		BuildNumber *string `json:"buildNumber"`
	} `json:"ios"`
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(jsonFieldName)
	return v
}

// jsonFieldName reports struct fields by their JSON name in errors.
func jsonFieldName(f reflect.StructField) string {
	name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
	if name == "-" {
		return ""
	}
	return name
}

// Validate checks cfg against the minimal app config schema.
func Validate(cfg Config) error {
	data, err := json.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("Invalid app config.\n%w", err)
	}

	var minimal minimalAppConfig
	if err := json.Unmarshal(data, &minimal); err != nil {
		return fmt.Errorf("Invalid app config.\n%s", describeDecodeError(err))
	}

	if err := validate.Struct(minimal); err != nil {
		return fmt.Errorf("Invalid app config.\n%s", describeValidationError(err))
	}
	return nil
}

func describeDecodeError(err error) string {
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) {
		return fmt.Sprintf("%q must be a %s", typeErr.Field, kindName(typeErr.Type))
	}
	return err.Error()
}

func kindName(t reflect.Type) string {
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	switch t.Kind() {
	case reflect.Int, reflect.Int64:
		return "integer"
	case reflect.Struct, reflect.Map:
		return "object"
	default:
		return t.Kind().String()
	}
}

func describeValidationError(err error) string {
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
		return err.Error()
	}
	fe := fieldErrs[0]
	if fe.Tag() == "required" {
		return fmt.Sprintf("%q is required", fe.Field())
	}
	return fmt.Sprintf("%q failed on the %q rule", fe.Field(), fe.Tag())
}
