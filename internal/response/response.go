package response

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// Response is the envelope every endpoint answers with. Data and Error are
// mutually exclusive; Metadata is always present.
type Response struct {
	Data       interface{} `json:"data"`
	Error      *ErrorBody  `json:"error,omitempty"`
	Pagination *Pagination `json:"pagination,omitempty"`
	Metadata   Metadata    `json:"metadata"`
}

// ErrorBody carries a machine-readable code, a human message, and optional
// per-field validation details.
type ErrorBody struct {
	Code    ErrCode           `json:"code"`
	Message string            `json:"message"`
	Fields  map[string]string `json:"fields,omitempty"`
}

// Pagination describes the page window of a list response.
type Pagination struct {
	Page       int `json:"page"`
	PerPage    int `json:"per_page"`
	TotalItems int `json:"total_items"`
	TotalPages int `json:"total_pages"`
}

// Metadata ties a response back to its request for tracing.
type Metadata struct {
	RequestID string `json:"request_id"`
	Timestamp string `json:"timestamp"`
}

// Success writes data with the given status code.
func Success(c *gin.Context, statusCode int, data interface{}) {
	send(c, statusCode, Response{Data: data})
}

// SuccessWithPagination writes a list payload with its page window.
func SuccessWithPagination(c *gin.Context, statusCode int, data interface{}, pagination *Pagination) {
	send(c, statusCode, Response{Data: data, Pagination: pagination})
}

// Fail writes an error by code; the message comes from the code's catalog entry.
func Fail(c *gin.Context, statusCode int, code ErrCode) {
	send(c, statusCode, Response{
		Error: &ErrorBody{Code: code, Message: GetMessage(code)},
	})
}

// FailWithFields writes a validation error with per-field messages.
func FailWithFields(c *gin.Context, statusCode int, code ErrCode, fields map[string]string) {
	send(c, statusCode, Response{
		Error: &ErrorBody{Code: code, Message: GetMessage(code), Fields: fields},
	})
}

// AbortFail writes an error and stops the middleware chain. For use inside
// middlewares only; handlers should return after Fail instead.
func AbortFail(c *gin.Context, statusCode int, code ErrCode) {
	resp := Response{
		Error:    &ErrorBody{Code: code, Message: GetMessage(code)},
		Metadata: buildMetadata(c),
	}
	c.AbortWithStatusJSON(statusCode, resp)
}

func send(c *gin.Context, statusCode int, resp Response) {
	resp.Metadata = buildMetadata(c)
	c.JSON(statusCode, resp)
}

func buildMetadata(c *gin.Context) Metadata {
	id := c.GetString(ContextKeyRequestID)
	if id == "" {
		// Request reached a handler without the request-id middleware.
		id = uuid.New().String()
	}
	return Metadata{
		RequestID: id,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}
}
