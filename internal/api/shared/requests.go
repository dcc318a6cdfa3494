package shared

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/phrazzld/taskman-api/internal/domain"
)

// MaxBodyBytes caps how much of a request body DecodeJSON reads.
const MaxBodyBytes = 1 << 20

// ErrMalformedJSON is returned by DecodeJSON when the body is not a single
// valid JSON document.
var ErrMalformedJSON = errors.New("malformed JSON")

// Global validator instance for reuse
var validate = newValidator()

// Accepted date layouts, tried in order. Layouts without a zone are UTC.
var dateLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	time.DateOnly,
}

// DecodeJSON decodes the request body into v. An empty body decodes as an
// empty object. Unknown fields and values of the wrong JSON type are
// reported as a *domain.ValidationError; anything else that fails to parse
// wraps ErrMalformedJSON.
func DecodeJSON(r *http.Request, v any) error {
	if r.Body == nil {
		return nil
	}

	dec := json.NewDecoder(io.LimitReader(r.Body, MaxBodyBytes))
	dec.DisallowUnknownFields()

	if err := dec.Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return decodeError(err)
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return fmt.Errorf("%w: trailing data after JSON document", ErrMalformedJSON)
	}
	return nil
}

func decodeError(err error) error {
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) && typeErr.Field != "" {
		return domain.NewValidationError(typeErr.Field,
			fmt.Sprintf(`"%s" must be %s`, typeErr.Field, jsonTypeName(typeErr.Type)), nil)
	}

	if field, ok := strings.CutPrefix(err.Error(), "json: unknown field "); ok {
		field = strings.Trim(field, `"`)
		return domain.NewValidationError(field, fmt.Sprintf(`"%s" is not allowed`, field), nil)
	}

	return fmt.Errorf("%w: %v", ErrMalformedJSON, err)
}

func jsonTypeName(t reflect.Type) string {
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	switch t.Kind() {
	case reflect.String:
		return "a string"
	case reflect.Slice, reflect.Array:
		return "an array"
	case reflect.Bool:
		return "a boolean"
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return "a number"
	case reflect.Struct, reflect.Map:
		return "an object"
	default:
		return "a valid value"
	}
}

// ParseDate parses a timestamp in RFC 3339 form or a bare YYYY-MM-DD date
// and returns it in UTC.
func ParseDate(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid date %q", raw)
}

// ValidateRequest validates v with its `validate` struct tags, or with its
// own Validate method when it has one. Field failures are returned as a
// *domain.ValidationError carrying one message per field.
func ValidateRequest(v any) error {
	if validator, ok := v.(interface{ Validate() error }); ok {
		return validator.Validate()
	}

	err := validate.Struct(v)
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return err
	}

	verr := &domain.ValidationError{}
	for _, fe := range fieldErrs {
		label := fieldLabel(fe.Namespace())
		verr.Add(fieldPath(label), fieldMessage(label, fe))
	}
	return verr
}

func newValidator() *validator.Validate {
	v := validator.New()

	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		switch name {
		case "-":
			return ""
		case "":
			return f.Name
		}
		return name
	})

	// Registration only fails for empty tags or nil functions.
	_ = v.RegisterValidation("password", func(fl validator.FieldLevel) bool {
		return domain.ValidatePassword(fl.Field().String()) == nil
	})
	_ = v.RegisterValidation("date", func(fl validator.FieldLevel) bool {
		_, err := ParseDate(fl.Field().String())
		return err == nil
	})

	return v
}

// fieldLabel drops the struct name from a namespace such as
// "createTaskRequest.tags[0]".
func fieldLabel(namespace string) string {
	if _, rest, ok := strings.Cut(namespace, "."); ok {
		return rest
	}
	return namespace
}

// fieldPath turns "tags[0]" into "tags.0".
func fieldPath(label string) string {
	r := strings.NewReplacer("[", ".", "]", "")
	return r.Replace(label)
}

func fieldMessage(label string, fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf(`"%s" is required`, label)
	case "max":
		return boundMessage(label, fe, "less than or equal to")
	case "min":
		return boundMessage(label, fe, "at least")
	case "email":
		return fmt.Sprintf(`"%s" must be a valid email`, label)
	case "oneof":
		return fmt.Sprintf(`"%s" must be one of [%s]`, label, strings.Join(strings.Fields(fe.Param()), ", "))
	case "alphanum":
		return fmt.Sprintf(`"%s" must only contain alpha-numeric characters`, label)
	case "password":
		return fmt.Sprintf(`"%s" fails to match the required pattern`, label)
	case "date":
		return fmt.Sprintf(`"%s" must be a valid date`, label)
	default:
		return fmt.Sprintf(`"%s" is invalid`, label)
	}
}

func boundMessage(label string, fe validator.FieldError, bound string) string {
	switch fe.Kind() {
	case reflect.Slice, reflect.Array, reflect.Map:
		return fmt.Sprintf(`"%s" must contain %s %s items`, label, bound, fe.Param())
	case reflect.String:
		return fmt.Sprintf(`"%s" length must be %s %s characters long`, label, bound, fe.Param())
	default:
		return fmt.Sprintf(`"%s" must be %s %s`, label, bound, fe.Param())
	}
}
