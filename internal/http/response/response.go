package response

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/learnpath-backend/internal/domain/learningpath"
)

type APIError struct {
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

type ErrorEnvelope struct {
	Error APIError `json:"error"`
}

func RespondError(c *gin.Context, status int, code string, message string) {
	if message == "" {
		message = "unknown error"
	}
	c.JSON(status, ErrorEnvelope{
		Error: APIError{
			Message: message,
			Code:    code,
		},
	})
}

// StatusFor maps validation failures to 400 and everything else to 500.
func StatusFor(err error) int {
	if learningpath.IsClass(err, learningpath.ClassValidation) {
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

// RespondDomainError writes err without leaking provider or storage detail.
func RespondDomainError(c *gin.Context, err error) {
	status := StatusFor(err)
	code := "internal_error"
	if status == http.StatusBadRequest {
		code = string(learningpath.KindOf(err))
	}
	RespondError(c, status, code, learningpath.PublicMessage(err))
}

func RespondOK(c *gin.Context, payload any) {
	c.JSON(http.StatusOK, payload)
}
