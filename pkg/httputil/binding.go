package httputil

import (
	stderrors "errors"
	"strings"

	"github.com/go-playground/validator/v10"
)

// BindingErrors converts a gin binding failure into a field-keyed error map.
// Non-validator errors (malformed JSON, wrong types) are keyed under "body".
func BindingErrors(err error) map[string][]string {
	var verrs validator.ValidationErrors
	if !stderrors.As(err, &verrs) {
		return map[string][]string{"body": {err.Error()}}
	}

	out := make(map[string][]string, len(verrs))
	for _, fe := range verrs {
		field := strings.ToLower(fe.Field())
		out[field] = append(out[field], messageFor(fe))
	}
	return out
}

func messageFor(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email address"
	case "min":
		return "must be at least " + fe.Param()
	case "max":
		return "must be at most " + fe.Param()
	case "gt":
		return "must be greater than " + fe.Param()
	case "gtfield":
		return "must be after " + strings.ToLower(fe.Param())
	case "oneof":
		return "must be one of: " + fe.Param()
	default:
		return "is invalid"
	}
}
