// Package validation roda as regras `validate:` dos DTOs e converte as falhas
// numa lista de issues com o caminho JSON do campo (ex.: outcomes[1].odds).
package validation

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(jsonName)
	if err := v.RegisterValidation("rfc3339", isRFC3339); err != nil {
		panic(err)
	}
	return v
}

// Issue é uma violação de schema num campo da requisição
type Issue struct {
	Path    string `json:"path"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Error agrupa as issues de uma requisição inválida
type Error struct {
	Issues []Issue
}

func (e *Error) Error() string {
	parts := make([]string, 0, len(e.Issues))
	for _, is := range e.Issues {
		parts = append(parts, is.Path+": "+is.Message)
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// New cria um Error com uma única issue; usado para JSON malformado e ids de path
func New(path, code, message string) *Error {
	return &Error{Issues: []Issue{{Path: path, Code: code, Message: message}}}
}

// Struct valida v e retorna *Error quando alguma regra falha
func Struct(v any) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}
	var ves validator.ValidationErrors
	if !errors.As(err, &ves) {
		return err
	}
	out := &Error{Issues: make([]Issue, 0, len(ves))}
	for _, fe := range ves {
		out.Issues = append(out.Issues, Issue{
			Path:    fieldPath(fe.Namespace()),
			Code:    fe.Tag(),
			Message: message(fe),
		})
	}
	return out
}

// fieldPath remove o nome do tipo raiz: "CreateEventRequest.outcomes[1].odds" -> "outcomes[1].odds"
func fieldPath(ns string) string {
	if i := strings.IndexByte(ns, '.'); i >= 0 {
		return ns[i+1:]
	}
	return ns
}

func jsonName(f reflect.StructField) string {
	name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
	if name == "-" {
		return ""
	}
	return name
}

func isRFC3339(fl validator.FieldLevel) bool {
	_, err := time.Parse(time.RFC3339, fl.Field().String())
	return err == nil
}

func message(fe validator.FieldError) string {
	kind := fe.Kind()
	if kind == reflect.Ptr {
		kind = fe.Type().Elem().Kind()
	}
	switch fe.Tag() {
	case "required":
		return "is required"
	case "min":
		if kind == reflect.Slice {
			return fmt.Sprintf("must contain at least %s item(s)", fe.Param())
		}
		return fmt.Sprintf("must contain at least %s character(s)", fe.Param())
	case "max":
		return fmt.Sprintf("must contain at most %s character(s)", fe.Param())
	case "gt":
		return fmt.Sprintf("must be greater than %s", fe.Param())
	case "oneof":
		return "must be one of: " + strings.ReplaceAll(fe.Param(), " ", ", ")
	case "rfc3339":
		return "must be an ISO 8601 datetime"
	}
	return "is invalid"
}
