package utils

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// ErrorResponse is the JSON body of every non-streamed error
type ErrorResponse struct {
	ErrorCode string      `json:"error_code"`
	Message   string      `json:"message"`
	Details   interface{} `json:"details,omitempty"`
}

// RespondWithError sends a standardized error response
func RespondWithError(c *gin.Context, statusCode int, errorCode, message string, details interface{}) {
	c.JSON(statusCode, ErrorResponse{
		ErrorCode: errorCode,
		Message:   message,
		Details:   details,
	})
}

func RespondWithNotFound(c *gin.Context, message string) {
	RespondWithError(c, http.StatusNotFound, "not_found", message, nil)
}

// RespondWithTooLarge sends a 413 when the body exceeds the configured limit
func RespondWithTooLarge(c *gin.Context, maxSize int64) {
	RespondWithError(c, http.StatusRequestEntityTooLarge, "request_too_large",
		"Request body exceeds maximum size", gin.H{"max_size": maxSize})
}

// RespondWithAppError answers any failure that happens before streaming
// starts, including malformed requests, with the same generic 500 body.
// The cause is for logs only.
func RespondWithAppError(c *gin.Context, err error) {
	RespondWithError(c, http.StatusInternalServerError, "internal_error", "Internal Server Error", nil)
}
