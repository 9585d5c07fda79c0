// Package validation checks client payloads against the entity schemas and
// turns them into core patches.
//
// Schemas are declared as struct tags evaluated by go-playground/validator.
// Field order in each payload struct is the order fields are checked in, and
// only the first failing field is reported.
package validation

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"reflect"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"

	"fintrack/internal/core"
)

var (
	validateOnce sync.Once
	validate     *validator.Validate
)

func instance() *validator.Validate {
	validateOnce.Do(func() {
		v := validator.New(validator.WithRequiredStructEnabled())
		v.RegisterTagNameFunc(func(f reflect.StructField) string {
			name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
			if name == "-" {
				return ""
			}
			return name
		})
		// Optional inputs validate like a pointer to the value they hold, so
		// that "required" accepts a present zero and rejects absence or null.
		v.RegisterCustomTypeFunc(func(field reflect.Value) interface{} {
			return field.Interface().(core.Date).Ptr()
		}, core.Date{})
		v.RegisterCustomTypeFunc(func(field reflect.Value) interface{} {
			n := field.Interface().(Number)
			if !n.Set {
				return nil
			}
			f := n.Value.InexactFloat64()
			return &f
		}, Number{})
		_ = v.RegisterValidation("integer", func(fl validator.FieldLevel) bool {
			f := fl.Field().Float()
			return f == math.Trunc(f)
		})
		validate = v
	})
	return validate
}

// decode reads body into dst. An empty body is treated as an empty object so
// that missing fields are reported rather than a syntax error.
func decode(body []byte, dst any) error {
	body = bytes.TrimSpace(body)
	if len(body) == 0 {
		body = []byte("{}")
	}
	if err := json.Unmarshal(body, dst); err != nil {
		return decodeError(err)
	}
	return nil
}

func decodeError(err error) error {
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) {
		field := typeErr.Field
		if field == "" {
			return core.ValidationError("", `"value" must be of type object`)
		}
		return core.ValidationError(field, fmt.Sprintf("%q %s", field, typeMessage(typeErr)))
	}
	return core.ValidationError("", "Malformed JSON body")
}

func typeMessage(e *json.UnmarshalTypeError) string {
	t := e.Type
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	switch {
	case t == reflect.TypeOf(time.Time{}):
		return "must be a valid date"
	case t == numberType:
		return "must be a number"
	}
	switch t.Kind() {
	case reflect.String:
		return "must be a string"
	case reflect.Bool:
		return "must be a boolean"
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		if strings.HasPrefix(e.Value, "number") {
			return "must be an integer"
		}
		return "must be a number"
	case reflect.Float32, reflect.Float64:
		return "must be a number"
	case reflect.Struct, reflect.Map:
		return "must be of type object"
	case reflect.Slice, reflect.Array:
		return "must be an array"
	}
	return "is invalid"
}

// check runs the struct tags of payload and converts the first failure into
// a core validation error.
func check(payload any) error {
	err := instance().Struct(payload)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return fmt.Errorf("validate payload: %w", err)
	}
	fe := verrs[0]
	field := fieldPath(fe.Namespace())
	return core.ValidationError(field, fmt.Sprintf("%q %s", field, tagMessage(fe)))
}

// fieldPath drops the payload struct name from a validator namespace:
// "budgetPayload.notifications.threshold" becomes "notifications.threshold".
func fieldPath(ns string) string {
	_, rest, ok := strings.Cut(ns, ".")
	if !ok {
		return ns
	}
	return rest
}

func tagMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email"
	case "oneof":
		return fmt.Sprintf("must be one of [%s]", strings.Join(strings.Fields(fe.Param()), ", "))
	case "gte":
		return "must be greater than or equal to " + fe.Param()
	case "lte":
		return "must be less than or equal to " + fe.Param()
	case "integer":
		return "must be an integer"
	case "eqfield":
		return fmt.Sprintf("must match %q", fe.Param())
	case "min":
		if fe.Kind() == reflect.String {
			if fe.Param() == "1" {
				return "is not allowed to be empty"
			}
			return fmt.Sprintf("length must be at least %s characters long", fe.Param())
		}
		return "must be greater than or equal to " + fe.Param()
	case "max":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("length must be less than or equal to %s characters long", fe.Param())
		}
		return "must be less than or equal to " + fe.Param()
	}
	return "is invalid"
}
