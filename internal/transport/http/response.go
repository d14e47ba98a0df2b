package httptransport

import "github.com/gin-gonic/gin"

// ErrorResponse is the body of request-level failures (4xx/5xx). Item-level
// failures never use it; they ride inside the per-item result list.
type ErrorResponse struct {
	Reason string `json:"reason"`
	Detail string `json:"detail"`
}

// RespondError writes a request-level error response.
func RespondError(c *gin.Context, httpStatus int, reason, detail string) {
	c.JSON(httpStatus, ErrorResponse{
		Reason: reason,
		Detail: detail,
	})
}
