package response

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/unidine-backend/internal/domain/restaurants"
	"github.com/yungbote/unidine-backend/internal/platform/apierr"
)

type APIError struct {
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

type ErrorEnvelope struct {
	Error APIError `json:"error"`
}

func RespondError(c *gin.Context, status int, code string, err error) {
	msg := "unknown error"
	if err != nil {
		msg = err.Error()
	}
	c.JSON(status, ErrorEnvelope{
		Error: APIError{
			Message: msg,
			Code:    code,
		},
	})
}

func RespondOK(c *gin.Context, payload any) {
	c.JSON(http.StatusOK, payload)
}

func RespondCreated(c *gin.Context, payload any) {
	c.JSON(http.StatusCreated, payload)
}

// RespondServiceError picks status and code from apierr and restaurants errors.
// Anything unrecognized is a 500 carrying fallbackCode.
func RespondServiceError(c *gin.Context, fallbackCode string, err error) {
	status, code := StatusOf(err, fallbackCode)
	RespondError(c, status, code, err)
}

func StatusOf(err error, fallbackCode string) (int, string) {
	var ae *apierr.Error
	if errors.As(err, &ae) {
		status := ae.Status
		if status == 0 {
			status = http.StatusInternalServerError
		}
		code := ae.Code
		if code == "" {
			code = fallbackCode
		}
		return status, code
	}
	switch code := restaurants.CodeOf(err); code {
	case restaurants.CodeNotFound:
		return http.StatusNotFound, string(code)
	case restaurants.CodeValidation, restaurants.CodeMissingData, restaurants.CodeNotAMention:
		return http.StatusBadRequest, string(code)
	case restaurants.CodePersistenceConflict:
		return http.StatusConflict, string(code)
	case "":
		return http.StatusInternalServerError, fallbackCode
	default:
		return http.StatusInternalServerError, string(code)
	}
}
