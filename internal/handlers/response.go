package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/echoframe-backend/internal/apierr"
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

// RespondServiceError maps the error taxonomy to HTTP: quota exhaustion
// renders a 429 with retry metadata, typed API errors keep their status,
// anything else is a 500.
func RespondServiceError(c *gin.Context, err error) {
	if qe, ok := apierr.AsQuotaExceeded(err); ok {
		c.JSON(http.StatusTooManyRequests, gin.H{
			"error": APIError{
				Message: qe.Error(),
				Code:    "quota_exceeded",
			},
			"limit":       qe.Limit,
			"count_today": qe.CountToday,
			"resets_at":   qe.ResetHint,
		})
		return
	}
	if ae, ok := apierr.AsAPIError(err); ok {
		RespondError(c, ae.Status, ae.Code, ae)
		return
	}
	RespondError(c, http.StatusInternalServerError, "internal_error", err)
}
