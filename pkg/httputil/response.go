package httputil

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/serviceloop/marketplace-api/pkg/errors"
)

// Response wraps all API responses
type Response struct {
	Message string              `json:"message"`
	Data    interface{}         `json:"data,omitempty"`
	Errors  map[string][]string `json:"errors,omitempty"`
}

// RespondOK sends a 200 response
func RespondOK(c *gin.Context, message string, data interface{}) {
	c.JSON(http.StatusOK, Response{Message: message, Data: data})
}

// RespondCreated sends a 201 response
func RespondCreated(c *gin.Context, message string, data interface{}) {
	c.JSON(http.StatusCreated, Response{Message: message, Data: data})
}

// RespondError maps an application error onto the wire format. Validation
// and business-rule failures keep their specific field-keyed messages;
// internal errors are logged and collapsed to a generic message.
func RespondError(c *gin.Context, err error) {
	appErr, ok := errors.As(err)
	if !ok {
		appErr = errors.Internal(err)
	}

	status := statusFor(appErr.Kind)
	if status == http.StatusInternalServerError {
		log.Error().Err(err).
			Str("path", c.FullPath()).
			Str("method", c.Request.Method).
			Msg("unexpected error")
	}

	field := appErr.Field
	if field == "" {
		field = appErr.Code
	}

	c.JSON(status, Response{
		Message: appErr.Message,
		Errors:  map[string][]string{field: {appErr.Message}},
	})
}

// RespondValidationErrors sends a 422 with a field-keyed error map.
func RespondValidationErrors(c *gin.Context, fieldErrors map[string][]string) {
	c.JSON(http.StatusUnprocessableEntity, Response{
		Message: "validation failed",
		Errors:  fieldErrors,
	})
}

func statusFor(kind errors.Kind) int {
	switch kind {
	case errors.KindValidation, errors.KindBusinessRule:
		return http.StatusUnprocessableEntity
	case errors.KindUnauthorized:
		return http.StatusUnauthorized
	case errors.KindForbidden:
		return http.StatusForbidden
	case errors.KindNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}
