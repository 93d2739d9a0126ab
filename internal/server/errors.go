package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/smallbiznis/checkmapper/pkg/apperror"
	"gorm.io/gorm"
)

type errorPayload struct {
	Type    string                `json:"type"`
	Message string                `json:"message"`
	Errors  []apperror.FieldError `json:"errors,omitempty"`
}

type errorResponse struct {
	Error errorPayload `json:"error"`
}

func ErrorHandlingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if c.Writer.Written() {
			return
		}

		lastErr := c.Errors.Last()
		if lastErr == nil {
			return
		}

		status, payload := mapError(lastErr.Err)
		c.Header("Content-Type", "application/json")
		c.AbortWithStatusJSON(status, errorResponse{Error: payload})
	}
}

func AbortWithError(c *gin.Context, err error) {
	if err == nil {
		return
	}
	_ = c.Error(err)
	c.Abort()
}

func invalidRequestError() error {
	return newValidationError("request", "invalid_request", "invalid request")
}

func newValidationError(field, code, message string) error {
	out := &apperror.ValidationErrors{}
	out.Add(field, code, message)
	return out
}

func mapError(err error) (int, errorPayload) {
	if err == nil {
		return http.StatusInternalServerError, errorPayload{
			Type:    "internal_error",
			Message: "internal server error",
		}
	}

	var vErrs *apperror.ValidationErrors
	if errors.As(err, &vErrs) && vErrs != nil {
		return http.StatusBadRequest, errorPayload{
			Type:    string(apperror.KindValidation),
			Message: "validation error",
			Errors:  vErrs.Errors,
		}
	}

	var appErr *apperror.Error
	if !errors.As(err, &appErr) {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return http.StatusNotFound, errorPayload{Type: string(apperror.KindNotFound), Message: "not found"}
		}
		return http.StatusInternalServerError, errorPayload{
			Type:    "internal_error",
			Message: "internal server error",
		}
	}

	switch appErr.Kind {
	case apperror.KindValidation:
		field := appErr.Field
		if field == "" {
			field = "request"
		}
		return http.StatusBadRequest, errorPayload{
			Type:    string(apperror.KindValidation),
			Message: "validation error",
			Errors: []apperror.FieldError{{
				Field:   field,
				Code:    appErr.Code,
				Message: messageOr(appErr.Message, "invalid value"),
			}},
		}
	case apperror.KindNotFound:
		return http.StatusNotFound, errorPayload{
			Type:    string(apperror.KindNotFound),
			Message: messageOr(appErr.Message, appErr.Code),
		}
	case apperror.KindConflict:
		return http.StatusConflict, errorPayload{
			Type:    string(apperror.KindConflict),
			Message: messageOr(appErr.Message, appErr.Code),
		}
	case apperror.KindInvalidState:
		return http.StatusConflict, errorPayload{
			Type:    string(apperror.KindInvalidState),
			Message: messageOr(appErr.Message, appErr.Code),
		}
	case apperror.KindRateLimited:
		return http.StatusTooManyRequests, errorPayload{
			Type:    string(apperror.KindRateLimited),
			Message: messageOr(appErr.Message, appErr.Code),
		}
	case apperror.KindStorage:
		// the cause may carry hostnames or credentials
		return http.StatusBadGateway, errorPayload{
			Type:    string(apperror.KindStorage),
			Message: "storage unavailable",
		}
	default:
		return http.StatusInternalServerError, errorPayload{
			Type:    "internal_error",
			Message: "internal server error",
		}
	}
}

// classifyErrorForLog returns the error type and code recorded on the request log line.
func classifyErrorForLog(err error) (string, string) {
	var vErrs *apperror.ValidationErrors
	if errors.As(err, &vErrs) && vErrs != nil {
		code := ""
		if len(vErrs.Errors) > 0 {
			code = vErrs.Errors[0].Code
		}
		return string(apperror.KindValidation), code
	}
	var appErr *apperror.Error
	if errors.As(err, &appErr) {
		return string(appErr.Kind), appErr.Code
	}
	return "internal_error", ""
}

func messageOr(message, fallback string) string {
	if message != "" {
		return message
	}
	return fallback
}
