package validation

import (
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

// basicEmail accepts the loose local@domain.tld shape used for customer emails.
var basicEmail = regexp.MustCompile(`^\S+@\S+\.\S+$`)

// FieldError is a single violated field with a human-friendly message.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (e FieldError) Error() string { return e.Field + " " + e.Message }

// Validator validates tagged structs and reports one message per field.
type Validator struct {
	v *validator.Validate
}

// New returns a standalone validator with the project aliases registered.
func New() *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())
	configure(v)
	return &Validator{v: v}
}

// Struct validates s and returns the violations in declaration order.
// A nil result means s is valid.
func (v *Validator) Struct(s any) []FieldError {
	err := v.v.Struct(s)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return []FieldError{{Field: "payload", Message: "invalid payload"}}
	}
	out := make([]FieldError, 0, len(verrs))
	seen := make(map[string]bool, len(verrs))
	for _, fe := range verrs {
		if seen[fe.Field()] {
			continue
		}
		seen[fe.Field()] = true
		out = append(out, FieldError{Field: fe.Field(), Message: formatFieldError(fe)})
	}
	return out
}

// Init configures the global validator used by Gin's binding.
func Init() {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		configure(v)
	}
}

func configure(v *validator.Validate) {
	// Use JSON tag names in errors
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	_ = v.RegisterValidation("basic_email", func(fl validator.FieldLevel) bool {
		return basicEmail.MatchString(fl.Field().String())
	})
	// Postgres text columns reject malformed UTF-8 and NUL bytes.
	_ = v.RegisterValidation("utf8", func(fl validator.FieldLevel) bool {
		s := fl.Field().String()
		return utf8.ValidString(s) && !strings.ContainsRune(s, 0)
	})
	v.RegisterAlias("uuid4", "uuid")
	v.RegisterAlias("nonzero", "required")
}

// ToDetails converts validation/binding errors into a map[field]message suitable for API error.details.
func ToDetails(err error) map[string]string {
	if err == nil {
		return nil
	}

	// Invalid JSON payloads
	var se *json.SyntaxError
	var ute *json.UnmarshalTypeError
	if errors.As(err, &se) || errors.As(err, &ute) {
		return map[string]string{"payload": "invalid json"}
	}

	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		out := make(map[string]string, len(verrs))
		for _, fe := range verrs {
			out[fe.Field()] = formatFieldError(fe)
		}
		return out
	}

	// Fallback
	return map[string]string{"payload": "invalid payload"}
}

// Details flattens field errors into the map shape used by API error.details.
func Details(fields []FieldError) map[string]string {
	if len(fields) == 0 {
		return nil
	}
	out := make(map[string]string, len(fields))
	for _, f := range fields {
		out[f.Field] = f.Message
	}
	return out
}

func formatFieldError(fe validator.FieldError) string {
	tag := fe.Tag()
	param := fe.Param()
	kind := fe.Kind()

	switch tag {
	case "required", "nonzero":
		return "is required"
	case "basic_email", "email":
		return "must be a valid email address"
	case "utf8":
		return "must be valid UTF-8 text"
	case "uuid", "uuid4":
		return "must be a valid UUID"
	case "oneof":
		return "must be one of: " + strings.Join(strings.Fields(param), ", ")
	case "numeric":
		return "must be numeric"
	case "max":
		if kind == reflect.String {
			return "cannot exceed " + param + " characters"
		}
		if isNumberKind(kind) {
			return "must be at most " + param
		}
		return "must contain at most " + param + " items"
	case "min":
		if kind == reflect.String {
			return "must be at least " + param + " characters"
		}
		if isNumberKind(kind) {
			return "must be at least " + param
		}
		return "must contain at least " + param + " items"
	case "len":
		if kind == reflect.String {
			return "must be exactly " + param + " characters"
		}
		return "must have length " + param
	case "gte":
		return "must be greater than or equal to " + param
	case "lte":
		return "must be less than or equal to " + param
	default:
		if param != "" {
			return fmt.Sprintf("validation failed for '%s' with parameter '%s'", tag, param)
		}
		return fmt.Sprintf("validation failed for '%s'", tag)
	}
}

func isNumberKind(k reflect.Kind) bool {
	switch k {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return true
	default:
		return false
	}
}
