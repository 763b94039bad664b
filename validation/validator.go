package validation

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"slices"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"

	"github.com/iptuapi/iptuapi-go/httpclient"
)

// SupportedCities lists the city codes the API accepts
var SupportedCities = []string{"sp", "bh", "recife", "poa", "fortaleza", "curitiba", "rj", "brasilia"}

var (
	cepPattern       = regexp.MustCompile(`^\d{5}-?\d{3}$`)
	cnpjPattern      = regexp.MustCompile(`^\d{2}\.?\d{3}\.?\d{3}/?\d{4}-?\d{2}$`)
	yearMonthPattern = regexp.MustCompile(`^\d{4}-(0[1-9]|1[0-2])$`)
)

// Validator wraps go-playground/validator with the API's custom rules.
// Field errors are reported under their wire names.
type Validator struct {
	validate *validator.Validate
}

// NewValidator creates a Validator with the cidade, cep, cnpj and year_month rules registered.
func NewValidator() *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(wireName)

	mustRegister(v, "cidade", validateCidade)
	mustRegister(v, "cep", validateCEP)
	mustRegister(v, "cnpj", validateCNPJ)
	mustRegister(v, "year_month", validateYearMonth)

	return &Validator{validate: v}
}

var defaultValidator = sync.OnceValue(NewValidator)

// Default returns a shared Validator
func Default() *Validator {
	return defaultValidator()
}

func mustRegister(v *validator.Validate, tag string, fn validator.Func) {
	if err := v.RegisterValidation(tag, fn); err != nil {
		panic(fmt.Sprintf("validation: register %s: %v", tag, err))
	}
}

// Validate checks params and returns *Error listing every failing field.
func (v *Validator) Validate(params any) error {
	if err := v.validate.Struct(params); err != nil {
		var validationErrors validator.ValidationErrors
		if errors.As(err, &validationErrors) {
			return NewError(validationErrors)
		}
		return err
	}
	return nil
}

// Error is a client-side parameter validation failure. It matches
// httpclient.ErrValidation under errors.Is.
type Error struct {
	Errors []FieldError `json:"errors"`
	// Fields groups messages by field path, in the same shape as server-side validation errors
	Fields map[string][]string `json:"-"`
}

// FieldError is the failure of one field
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Value   string `json:"value,omitempty"`
}

// NewError converts go-playground validation errors
func NewError(errs validator.ValidationErrors) *Error {
	e := &Error{
		Errors: make([]FieldError, 0, len(errs)),
		Fields: make(map[string][]string, len(errs)),
	}
	for _, fe := range errs {
		field := fieldPath(fe)
		msg := errorMessage(fe, field)
		e.Errors = append(e.Errors, FieldError{
			Field:   field,
			Message: msg,
			Value:   fmt.Sprintf("%v", fe.Value()),
		})
		e.Fields[field] = append(e.Fields[field], msg)
	}
	return e
}

func (e *Error) Error() string {
	switch len(e.Errors) {
	case 0:
		return "validation failed"
	case 1:
		return fmt.Sprintf("validation failed: %s", e.Errors[0].Message)
	default:
		return fmt.Sprintf("validation failed: %d errors", len(e.Errors))
	}
}

// Is reports whether target is httpclient.ErrValidation
func (e *Error) Is(target error) bool {
	return target == httpclient.ErrValidation
}

// HasFieldError reports whether field failed validation
func (e *Error) HasFieldError(field string) bool {
	_, ok := e.Fields[field]
	return ok
}

// fieldPath drops the root struct name from the namespace: "Params.imoveis[0].area" -> "imoveis[0].area"
func fieldPath(fe validator.FieldError) string {
	ns := fe.Namespace()
	if _, rest, ok := strings.Cut(ns, "."); ok {
		return rest
	}
	return fe.Field()
}

func wireName(field reflect.StructField) string {
	for _, key := range []string{"param", "query", "json"} {
		if tag := field.Tag.Get(key); tag != "" {
			name, _, _ := strings.Cut(tag, ",")
			if name == "-" {
				return ""
			}
			if name != "" {
				return name
			}
		}
	}
	return field.Name
}

func errorMessage(fe validator.FieldError, field string) string {
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "min":
		if isCollection(fe.Kind()) {
			return fmt.Sprintf("%s must contain at least %s items", field, fe.Param())
		}
		return fmt.Sprintf("%s must be at least %s", field, fe.Param())
	case "max":
		if isCollection(fe.Kind()) {
			return fmt.Sprintf("%s must contain at most %s items", field, fe.Param())
		}
		return fmt.Sprintf("%s must be at most %s", field, fe.Param())
	case "gt":
		return fmt.Sprintf("%s must be greater than %s", field, fe.Param())
	case "gte":
		return fmt.Sprintf("%s must be greater than or equal to %s", field, fe.Param())
	case "gtefield":
		return fmt.Sprintf("%s must not be less than %s", field, fe.Param())
	case "lte":
		return fmt.Sprintf("%s must be less than or equal to %s", field, fe.Param())
	case "latitude":
		return fmt.Sprintf("%s must be a valid latitude", field)
	case "longitude":
		return fmt.Sprintf("%s must be a valid longitude", field)
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", field, fe.Param())
	case "cidade":
		return fmt.Sprintf("%s must be one of: %s", field, strings.Join(SupportedCities, ", "))
	case "cep":
		return fmt.Sprintf("%s must be a valid CEP (8 digits)", field)
	case "cnpj":
		return fmt.Sprintf("%s must be a valid CNPJ (14 digits)", field)
	case "year_month":
		return fmt.Sprintf("%s must be in YYYY-MM format", field)
	default:
		return fmt.Sprintf("%s failed validation", field)
	}
}

func isCollection(k reflect.Kind) bool {
	return k == reflect.Slice || k == reflect.Array || k == reflect.Map
}

func validateCidade(fl validator.FieldLevel) bool {
	return slices.Contains(SupportedCities, fl.Field().String())
}

func validateCEP(fl validator.FieldLevel) bool {
	return cepPattern.MatchString(fl.Field().String())
}

func validateCNPJ(fl validator.FieldLevel) bool {
	return cnpjPattern.MatchString(fl.Field().String())
}

func validateYearMonth(fl validator.FieldLevel) bool {
	return yearMonthPattern.MatchString(fl.Field().String())
}
