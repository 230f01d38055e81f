package utils

import (
	"cardiocheck/internal/models/response_models"
	"errors"
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"net/http"
	"reflect"
	"strings"
	"time"
)

func envelope(c *gin.Context, success bool, message string, data interface{}) response_models.Envelope[interface{}] {
	return response_models.Envelope[interface{}]{
		Success:   success,
		Message:   message,
		Data:      data,
		Timestamp: FormatTimestamp(time.Now()),
		RequestID: c.GetString("request_id"),
	}
}

func RespondSuccess(c *gin.Context, data interface{}, message string) {
	c.JSON(http.StatusOK, envelope(c, true, message, data))
}

func RespondCreated(c *gin.Context, data interface{}, message string) {
	c.JSON(http.StatusCreated, envelope(c, true, message, data))
}

func RespondError(c *gin.Context, code int, errCode string, message string) {
	env := envelope(c, false, message, nil)
	env.Error = &response_models.EnvelopeError{Code: errCode, Description: message}
	c.JSON(code, env)
}

// RespondBindError reports a request body that failed binding, naming the
// first offending field when the validator saw one.
func RespondBindError(c *gin.Context, err error) {
	env := envelope(c, false, "Invalid request format", nil)
	env.Error = &response_models.EnvelopeError{Code: "VALIDATION_ERROR", Description: err.Error()}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		env.Error.Field = verrs[0].Field()
		env.Message = "Invalid value for " + env.Error.Field
	}
	c.JSON(http.StatusBadRequest, env)
}

// UseJSONFieldNames makes validation errors report the json name of a
// field instead of the Go one.
func UseJSONFieldNames() {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return
	}
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return f.Name
		}
		return name
	})
}

// RespondDomainFailure reports a business-rule rejection with a 200 status
// and success=false, the way the backend does for soft failures.
func RespondDomainFailure(c *gin.Context, errCode string, message string) {
	env := envelope(c, false, message, nil)
	env.Error = &response_models.EnvelopeError{Code: errCode, Description: message}
	c.JSON(http.StatusOK, env)
}

func HandleServiceError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, ErrRecordNotFound):
		RespondError(c, http.StatusNotFound, "NOT_FOUND", "Resource not found")
	case errors.Is(err, ErrInvalidCredentials):
		RespondError(c, http.StatusUnauthorized, "INVALID_CREDENTIALS", "Invalid email or password")
	case errors.Is(err, ErrTokenRevoked):
		RespondError(c, http.StatusUnauthorized, "TOKEN_REVOKED", "Refresh token is invalid")
	case errors.Is(err, ErrForbidden):
		RespondError(c, http.StatusForbidden, "FORBIDDEN", "Forbidden: resource belongs to another user")
	case errors.Is(err, ErrQuotaExceeded):
		RespondError(c, http.StatusForbidden, "QUOTA_EXCEEDED", "You have used all free assessments for this period. Upgrade to premium to continue.")
	case errors.Is(err, ErrInvalidAmount):
		RespondError(c, http.StatusBadRequest, "INVALID_AMOUNT", "Payment amount does not match the plan price")
	case errors.Is(err, ErrInvalidTransition):
		RespondDomainFailure(c, "INVALID_STATE", err.Error())
	default:
		RespondError(c, http.StatusInternalServerError, "INTERNAL", "Internal server error")
	}
}
