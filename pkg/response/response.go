package response

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// ErrorBody is the body of every failed request.
type ErrorBody struct {
	Error     string      `json:"error"`
	Details   interface{} `json:"details,omitempty"`
	RequestID string      `json:"request_id,omitempty"`
}

// Success writes {"message": message, ...fields}. An empty message is omitted.
func Success(ctx *gin.Context, status int, message string, fields gin.H) {
	if status == 0 {
		status = http.StatusOK
	}
	body := gin.H{}
	if message != "" {
		body["message"] = message
	}
	for k, v := range fields {
		body[k] = v
	}
	ctx.JSON(status, body)
}

// Error writes an ErrorBody and aborts the handler chain.
func Error(ctx *gin.Context, status int, message string, details interface{}) {
	if status == 0 {
		status = http.StatusBadRequest
	}
	ctx.AbortWithStatusJSON(status, ErrorBody{
		Error:     message,
		Details:   details,
		RequestID: ctx.GetString("request_id"),
	})
}
